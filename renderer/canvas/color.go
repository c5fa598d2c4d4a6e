package canvasrenderer

import (
	"image/color"
	"strconv"
	"strings"

	"github.com/tdewolff/canvas"
	"golang.org/x/image/colornames"
)

var transparent = color.RGBA{}

// parseColor 解析 #rgb、#rrggbb 与 SVG 颜色名。
func parseColor(s string) (color.RGBA, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return color.RGBA{}, false
	}
	if c, ok := colornames.Map[s]; ok {
		return c, true
	}
	hex, ok := strings.CutPrefix(s, "#")
	if !ok {
		return color.RGBA{}, false
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, true
}

// paint 把颜色字符串与不透明度转换为绘制用颜色；无法解析时使用 fallback。
func (r *Renderer) paint(s string, opacity float64, fallback color.RGBA) color.Color {
	c, ok := parseColor(s)
	if !ok {
		if s != "" {
			r.log.Warn("无法解析颜色", "color", s)
		}
		c = fallback
	}
	if opacity <= 0 || opacity > 1 {
		opacity = 1
	}
	return canvas.RGBA(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255, opacity)
}
