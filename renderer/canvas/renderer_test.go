package canvasrenderer

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/ripjar/pdfmake/fonts"
	"github.com/ripjar/pdfmake/layout"
	"github.com/ripjar/pdfmake/measure"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 0xff, A: 0xff})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("编码 PNG 失败: %v", err)
	}
	return buf.Bytes()
}

func TestMetricsInPoints(t *testing.T) {
	r := NewRenderer("")
	font := layout.Font{Family: "Roboto"}
	short, err := r.TextWidth("ab", font, 12)
	if err != nil {
		t.Fatalf("测量失败: %v", err)
	}
	long, _ := r.TextWidth("abab", font, 12)
	if short <= 0 || long <= short {
		t.Fatalf("文本越长宽度应越大: %v %v", short, long)
	}
	big, _ := r.TextWidth("ab", font, 24)
	if d := big - 2*short; d > 0.01 || d < -0.01 {
		t.Fatalf("宽度应与字号成正比: %v %v", short, big)
	}

	m, err := r.FontMetrics(font, 12)
	if err != nil {
		t.Fatalf("读取度量失败: %v", err)
	}
	if m.Ascender <= 0 || m.Ascender > 12 || m.LineHeight < m.Ascender {
		t.Fatalf("字体度量不合理: %+v", m)
	}
}

func TestRegisteredFamily(t *testing.T) {
	r := NewRendererWithOptions(Options{Families: map[string]fonts.Family{"Mono": fonts.GoMono()}})
	a, _ := r.TextWidth("iiii", layout.Font{Family: "Mono"}, 12)
	b, _ := r.TextWidth("MMMM", layout.Font{Family: "Mono"}, 12)
	if d := a - b; d > 0.01 || d < -0.01 {
		t.Fatalf("等宽字体中 i 与 M 应同宽: %v %v", a, b)
	}
	c, _ := r.TextWidth("iiii", layout.Font{Family: "Other"}, 12)
	if c >= b {
		t.Fatalf("未注册字族应使用比例后备字体: %v", c)
	}
}

func TestImageSize(t *testing.T) {
	data := pngBytes(t, 30, 20)
	r := NewRendererWithOptions(Options{Images: map[string][]byte{"logo": data}})
	w, h, err := r.ImageSize("builtin:logo")
	if err != nil || w != 30 || h != 20 {
		t.Fatalf("内置图片尺寸应为 30x20，实际 %vx%v %v", w, h, err)
	}
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
	if w, h, err = r.ImageSize(uri); err != nil || w != 30 || h != 20 {
		t.Fatalf("data URI 图片尺寸应为 30x20，实际 %vx%v %v", w, h, err)
	}
	if _, _, err := r.ImageSize("builtin:missing"); err == nil {
		t.Fatalf("缺失的内置图片应返回错误")
	}
	if _, _, err := r.ImageSize("relative.png"); err == nil {
		t.Fatalf("未设置资源目录时相对路径应返回错误")
	}
}

func TestParseColor(t *testing.T) {
	cases := []struct {
		in   string
		want color.RGBA
		ok   bool
	}{
		{"#ff0000", color.RGBA{R: 0xff, A: 0xff}, true},
		{"#0f0", color.RGBA{G: 0xff, A: 0xff}, true},
		{"Blue", color.RGBA{B: 0xff, A: 0xff}, true},
		{"#12", color.RGBA{}, false},
		{"nope", color.RGBA{}, false},
	}
	for _, tc := range cases {
		got, ok := parseColor(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("parseColor(%q) 期望 %v %v，实际 %v %v", tc.in, tc.want, tc.ok, got, ok)
		}
	}
}

func TestRenderRejectsEmptyResult(t *testing.T) {
	r := NewRenderer("")
	if _, err := r.Render(nil); err == nil {
		t.Fatalf("空结果应返回错误")
	}
	if _, err := r.Render(&layout.Result{}); err == nil {
		t.Fatalf("没有页面时应返回错误")
	}
}

func TestRenderDocument(t *testing.T) {
	r := NewRendererWithOptions(Options{Images: map[string][]byte{"dot": pngBytes(t, 4, 4)}})
	m, err := measure.New(r, measure.Options{Images: r})
	if err != nil {
		t.Fatalf("创建测量器失败: %v", err)
	}
	para := &layout.Node{Kind: layout.KindText, Text: []layout.Span{
		{Text: "Hello ", Style: layout.Style{Decoration: "underline", Background: "yellow"}},
		{Text: "world", Style: layout.Style{Bold: layout.On, CharacterSpacing: 1}},
	}}
	doc := &layout.Document{
		PageSize: layout.DefaultPageSize,
		Content: &layout.Node{Kind: layout.KindStack, Stack: []*layout.Node{
			para,
			{Kind: layout.KindImage, Image: &layout.Image{Src: "builtin:dot", Width: 20}},
			{Kind: layout.KindCanvas, Canvas: []*layout.Vector{
				{Kind: layout.VectorRect, W: 50, H: 20, R: 4, Color: "#cccccc", LineColor: "red"},
				{Kind: layout.VectorLine, X1: 0, Y1: 0, X2: 50, Y2: 0, Dash: []float64{2, 2}},
				{Kind: layout.VectorPolyline, Points: []layout.Point{{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 20, Y: 0}}, Closed: true},
			}},
			{Kind: layout.KindQR, QR: &layout.QR{Value: "pdfmake", Fit: 40}},
			{Kind: layout.KindUnorderedList, Items: []*layout.Node{
				{Kind: layout.KindText, Text: []layout.Span{{Text: "item"}}},
			}},
		}},
		Watermark: &layout.WatermarkSpec{Text: "DRAFT"},
		Meta:      layout.DocumentMeta{Title: "测试", Keywords: []string{"a", "b"}},
	}
	res, err := layout.Build(doc, layout.BuildOptions{Measurer: m, Text: m})
	if err != nil {
		t.Fatalf("布局计算失败: %v", err)
	}
	out, err := r.Render(res)
	if err != nil {
		t.Fatalf("渲染失败: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("输出不是 PDF")
	}
}
