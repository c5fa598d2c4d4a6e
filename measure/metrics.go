package measure

import (
	"unicode/utf8"

	"github.com/ripjar/pdfmake/layout"
)

// FontMetrics 是某个字形在给定字号下的纵向度量，单位 pt。
// Descender 为基线以下的距离，取正值。
type FontMetrics struct {
	Ascender   float64
	Descender  float64
	LineHeight float64
}

// Metrics 是测量所依赖的字体度量来源，由渲染端实现。
type Metrics interface {
	TextWidth(text string, font layout.Font, size float64) (float64, error)
	FontMetrics(font layout.Font, size float64) (FontMetrics, error)
}

// FixedMetrics 是等宽的确定性度量：每个码点宽 Advance*size，上升 0.8*size，下降 0.2*size。
// 测试与调试输出使用它，结果不依赖字体文件。
type FixedMetrics struct {
	Advance float64
}

func (m FixedMetrics) advance() float64 {
	if m.Advance > 0 {
		return m.Advance
	}
	return 0.5
}

func (m FixedMetrics) TextWidth(text string, _ layout.Font, size float64) (float64, error) {
	return float64(utf8.RuneCountInString(text)) * size * m.advance(), nil
}

func (m FixedMetrics) FontMetrics(_ layout.Font, size float64) (FontMetrics, error) {
	return FontMetrics{Ascender: size * 0.8, Descender: size * 0.2, LineHeight: size}, nil
}
