package canvasrenderer

import (
	"fmt"
	"image/color"

	"github.com/tdewolff/canvas"

	"github.com/ripjar/pdfmake/layout"
	"github.com/ripjar/pdfmake/measure"
)

type faceKey struct {
	family       string
	bold, italic bool
}

// fontFamily 返回已加载的字形；未注册的字族使用后备字族。
func (r *Renderer) fontFamily(font layout.Font) (*canvas.FontFamily, error) {
	key := faceKey{family: font.Family, bold: font.Bold, italic: font.Italic}
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if family, ok := r.faces[key]; ok {
		return family, nil
	}
	fam, ok := r.families[font.Family]
	if !ok {
		r.log.Debug("字族未注册，使用后备字体", "family", font.Family)
		fam = r.fallback
	}
	family := canvas.NewFontFamily(fmt.Sprintf("%s-%t-%t", font.Family, font.Bold, font.Italic))
	if err := family.LoadFont(fam.Face(font.Bold, font.Italic), 0, canvas.FontRegular); err != nil {
		return nil, fmt.Errorf("加载字体 %s 失败: %w", font.Family, err)
	}
	r.faces[key] = family
	return family, nil
}

// fontFace 创建字号为 size（pt）的字形。
func (r *Renderer) fontFace(font layout.Font, size float64, col color.Color) (*canvas.FontFace, error) {
	family, err := r.fontFamily(font)
	if err != nil {
		return nil, err
	}
	return family.Face(size, col, canvas.FontRegular, canvas.FontNormal), nil
}

// TextWidth 返回文本宽度（pt）。canvas 以 mm 为单位，这里在边界换算。
func (r *Renderer) TextWidth(text string, font layout.Font, size float64) (float64, error) {
	face, err := r.fontFace(font, size, canvas.Black)
	if err != nil {
		return 0, err
	}
	return toPt(face.TextWidth(text)), nil
}

// FontMetrics 返回字形的纵向度量（pt）。
func (r *Renderer) FontMetrics(font layout.Font, size float64) (measure.FontMetrics, error) {
	face, err := r.fontFace(font, size, canvas.Black)
	if err != nil {
		return measure.FontMetrics{}, err
	}
	m := face.Metrics()
	return measure.FontMetrics{
		Ascender:   toPt(m.Ascent),
		Descender:  toPt(m.Descent),
		LineHeight: toPt(m.LineHeight),
	}, nil
}

// toPt 将毫米(mm)转换为点(pt)。
func toPt(mm float64) float64 { return mm * layout.MmToPt }

// toMm 将点(pt)转换为毫米(mm)。
func toMm(pt float64) float64 { return pt * layout.PtToMm }
