package layout

import (
	"fmt"
	"math"
)

const watermarkFill = 0.8

// resolveWatermark 补齐默认值并用二分法求字号，使文本宽度接近页面对角线的 0.8 倍。
// 未指定字体时取文本测量器的默认样式字族。
func (b *layoutBuilder) resolveWatermark(spec *WatermarkSpec, size PageSize) (*Watermark, error) {
	if spec == nil || spec.Text == "" {
		return nil, nil
	}
	family := spec.Font
	if bs, ok := b.text.(BaseStyler); ok && family == "" {
		family = bs.BaseStyle().Font
	}
	wm := &Watermark{
		Text:    spec.Text,
		Font:    Font{Family: family, Bold: spec.Bold, Italic: spec.Italics},
		Color:   spec.Color,
		Opacity: spec.Opacity,
		Angle:   math.Atan2(size.Height, size.Width) * 180 / math.Pi,
	}
	if wm.Color == "" {
		wm.Color = "black"
	}
	if wm.Opacity == 0 {
		wm.Opacity = 0.6
	}
	style := Style{Font: family, Bold: FlagOf(spec.Bold), Italics: FlagOf(spec.Italics)}

	fontSize := spec.FontSize
	if fontSize == 0 {
		target := math.Sqrt(size.Width*size.Width+size.Height*size.Height) * watermarkFill
		lo, hi := 0.0, 1000.0
		fontSize = (lo + hi) / 2
		for math.Abs(lo-hi) > 1 {
			style.FontSize = fontSize
			sz, err := b.text.SizeOf(spec.Text, style)
			if err != nil {
				return nil, fmt.Errorf("测量水印文本: %w", err)
			}
			if sz.Width > target {
				hi = fontSize
			} else if sz.Width < target {
				lo = fontSize
			} else {
				break
			}
			fontSize = (lo + hi) / 2
		}
	}
	style.FontSize = fontSize
	sz, err := b.text.SizeOf(spec.Text, style)
	if err != nil {
		return nil, fmt.Errorf("测量水印文本: %w", err)
	}
	wm.FontSize = fontSize
	wm.Width, wm.Height = sz.Width, sz.Height
	return wm, nil
}
