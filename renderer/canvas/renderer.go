package canvasrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ripjar/pdfmake/fonts"
	"github.com/ripjar/pdfmake/layout"
	"github.com/ripjar/pdfmake/measure"
	"github.com/ripjar/pdfmake/renderer"
)

// defaultLineWidth 是未设置线宽时的描边宽度（pt）。
const defaultLineWidth = 1

var black = color.RGBA{A: 0xff}

// Renderer 通过 github.com/tdewolff/canvas 绘制布局结果，同时为测量阶段提供字体度量与图片尺寸。
type Renderer struct {
	baseDir  string
	families map[string]fonts.Family
	fallback fonts.Family
	images   map[string][]byte
	log      *log.Logger

	fontMu sync.Mutex
	faces  map[faceKey]*canvas.FontFamily

	imageMu sync.Mutex
	decoded map[string]image.Image
}

var (
	_ renderer.Renderer  = (*Renderer)(nil)
	_ measure.Metrics    = (*Renderer)(nil)
	_ measure.ImageSizer = (*Renderer)(nil)
)

// Options 配置渲染器。
type Options struct {
	// BaseDir 为相对路径图片的根目录。
	BaseDir string
	// Families 按字族名注册字体；未注册的字族使用 Fallback。
	Families map[string]fonts.Family
	// Fallback 为空时使用内置 Go 字体。
	Fallback fonts.Family
	// Images 为内置图片，通过 builtin:<name> 引用。
	Images map[string][]byte
	Logger *log.Logger
}

// NewRenderer 创建一个以 baseDir 解析资源、只使用内置字体的渲染器。
func NewRenderer(baseDir string) *Renderer { return NewRendererWithOptions(Options{BaseDir: baseDir}) }

// NewRendererWithOptions 创建渲染器。
func NewRendererWithOptions(opts Options) *Renderer {
	r := &Renderer{
		baseDir:  opts.BaseDir,
		families: map[string]fonts.Family{},
		fallback: opts.Fallback,
		images:   map[string][]byte{},
		log:      opts.Logger,
		faces:    map[faceKey]*canvas.FontFamily{},
		decoded:  map[string]image.Image{},
	}
	if len(r.fallback.Normal) == 0 {
		r.fallback = fonts.Go()
	}
	if r.log == nil {
		r.log = log.New(io.Discard)
	}
	for name, f := range opts.Families {
		if name == "" || len(f.Normal) == 0 {
			continue
		}
		r.families[name] = f
	}
	for name, blob := range opts.Images {
		if name != "" && len(blob) > 0 {
			r.images[name] = blob
		}
	}
	return r
}

// Render 将布局结果渲染为 PDF 字节。
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.RenderTo(&buf, result); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderTo 把全部页面写成一个 PDF。每页使用自己的尺寸，支持页面方向切换。
func (r *Renderer) RenderTo(w io.Writer, result *layout.Result) error {
	if result == nil {
		return fmt.Errorf("渲染结果为空")
	}
	if len(result.Pages) == 0 {
		return fmt.Errorf("缺少可渲染的页面")
	}

	first := result.Pages[0].Size
	writer := pdf.New(w, toMm(first.Width), toMm(first.Height), nil)
	applyMeta(writer, result.Meta)
	for i, page := range result.Pages {
		pw, ph := toMm(page.Size.Width), toMm(page.Size.Height)
		if i > 0 {
			writer.NewPage(pw, ph)
		}
		c := canvas.New(pw, ph)
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点

		if err := r.drawPage(ctx, page); err != nil {
			return fmt.Errorf("第 %d 页: %w", i+1, err)
		}
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("写入 PDF 失败: %w", err)
	}
	r.log.Debug("PDF 渲染完成", "pages", len(result.Pages))
	return nil
}

func applyMeta(writer *pdf.PDF, meta layout.DocumentMeta) {
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

// drawPage 按元素顺序绘制：背景元素在前，水印最后。
func (r *Renderer) drawPage(ctx *canvas.Context, page *layout.Page) error {
	for _, it := range page.Items {
		var err error
		switch it.Kind {
		case layout.ItemLine:
			err = r.drawLine(ctx, it.Line)
		case layout.ItemVector:
			r.drawVector(ctx, it.Vector)
		case layout.ItemImage:
			err = r.drawImage(ctx, it.Image)
		case layout.ItemQR:
			r.drawQR(ctx, it.QR)
		}
		if err != nil {
			return err
		}
	}
	if page.Watermark != nil {
		return r.drawWatermark(ctx, page.Watermark, page.Size)
	}
	return nil
}

// drawLine 逐个 run 绘制文本、背景与装饰线。基线位于行顶加最大上升高度处。
func (r *Renderer) drawLine(ctx *canvas.Context, line *layout.Line) error {
	baseline := line.Y + line.AscenderHeight()
	height := line.Height()
	for _, run := range line.Runs {
		x := line.X + run.X
		if run.Background != "" {
			ctx.SetStrokeColor(transparent)
			ctx.SetFillColor(r.paint(run.Background, 1, black))
			ctx.DrawPath(toMm(x), toMm(line.Y), canvas.Rectangle(toMm(run.Width), toMm(height)))
		}
		col := r.paint(run.Color, 1, black)
		face, err := r.fontFace(run.Font, run.FontSize, col)
		if err != nil {
			return err
		}
		text := strings.TrimRight(run.Text, "\n")
		if run.CharacterSpacing == 0 {
			ctx.DrawText(toMm(x), toMm(baseline), canvas.NewTextLine(face, text, canvas.Left))
		} else {
			cx := x
			for _, ch := range text {
				s := string(ch)
				ctx.DrawText(toMm(cx), toMm(baseline), canvas.NewTextLine(face, s, canvas.Left))
				cx += toPt(face.TextWidth(s)) + run.CharacterSpacing
			}
		}
		if run.Decoration != "" {
			r.drawDecoration(ctx, run, x, line.Y, baseline)
		}
	}
	return nil
}

// drawDecoration 绘制 underline/overline/lineThrough，样式支持 dashed/dotted/double。
func (r *Renderer) drawDecoration(ctx *canvas.Context, run *layout.Run, x, top, baseline float64) {
	var y float64
	switch run.Decoration {
	case "underline":
		y = baseline + run.Descender*0.5
	case "overline":
		y = top
	case "lineThrough":
		y = baseline - run.Ascender*0.3
	default:
		return
	}
	thickness := run.FontSize / 20
	col := run.DecorationColor
	if col == "" {
		col = run.Color
	}
	width := run.Width - run.TrailingCut

	ctx.SetFillColor(transparent)
	ctx.SetStrokeColor(r.paint(col, 1, black))
	ctx.SetStrokeWidth(toMm(thickness))
	switch run.DecorationStyle {
	case "dashed":
		ctx.SetDashes(0, toMm(3*thickness), toMm(3*thickness))
	case "dotted":
		ctx.SetDashes(0, toMm(thickness), toMm(thickness))
	}
	ctx.DrawPath(toMm(x), toMm(y), hline(toMm(width)))
	if run.DecorationStyle == "double" {
		ctx.DrawPath(toMm(x), toMm(y+2*thickness), hline(toMm(width)))
	}
	ctx.SetDashes(0)
}

func hline(w float64) *canvas.Path {
	p := &canvas.Path{}
	p.MoveTo(0, 0)
	p.LineTo(w, 0)
	return p
}

// drawVector 绘制矢量图形：同时有 color 与 lineColor 时填充并描边，只有 color 时填充，否则描边。
func (r *Renderer) drawVector(ctx *canvas.Context, v *layout.Vector) {
	var (
		path *canvas.Path
		x, y float64
	)
	switch v.Kind {
	case layout.VectorRect:
		x, y = v.X, v.Y
		if v.R > 0 {
			path = canvas.RoundedRectangle(toMm(v.W), toMm(v.H), toMm(v.R))
		} else {
			path = canvas.Rectangle(toMm(v.W), toMm(v.H))
		}
	case layout.VectorEllipse:
		x, y = v.X, v.Y
		path = canvas.Ellipse(toMm(v.R1), toMm(v.R2))
	case layout.VectorLine:
		path = &canvas.Path{}
		path.MoveTo(toMm(v.X1), toMm(v.Y1))
		path.LineTo(toMm(v.X2), toMm(v.Y2))
	case layout.VectorPolyline:
		if len(v.Points) == 0 {
			return
		}
		path = &canvas.Path{}
		path.MoveTo(toMm(v.Points[0].X), toMm(v.Points[0].Y))
		for _, p := range v.Points[1:] {
			path.LineTo(toMm(p.X), toMm(p.Y))
		}
		if v.Closed {
			path.Close()
		}
	default:
		r.log.Warn("忽略未知的矢量类型", "kind", v.Kind)
		return
	}

	fill, stroke := v.Color != "", v.LineColor != "" || v.Color == ""
	if v.Kind == layout.VectorLine || (v.Kind == layout.VectorPolyline && !v.Closed) {
		fill, stroke = false, true
	}
	ctx.SetFillColor(transparent)
	ctx.SetStrokeColor(transparent)
	if fill {
		ctx.SetFillColor(r.paint(v.Color, v.Opacity, black))
	}
	if stroke {
		lw := v.LineWidth
		if lw <= 0 {
			lw = defaultLineWidth
		}
		ctx.SetStrokeWidth(toMm(lw))
		ctx.SetStrokeColor(r.paint(v.LineColor, v.Opacity, black))
		if len(v.Dash) > 0 {
			dashes := make([]float64, len(v.Dash))
			for i, d := range v.Dash {
				dashes[i] = toMm(d)
			}
			ctx.SetDashes(0, dashes...)
		}
	}
	ctx.DrawPath(toMm(x), toMm(y), path)
	ctx.SetDashes(0)
}

func (r *Renderer) drawImage(ctx *canvas.Context, box *layout.ImageBox) error {
	img, err := r.loadImage(box.Src)
	if err != nil {
		return err
	}
	width := box.Width
	if width <= 0 {
		width = float64(img.Bounds().Dx())
	}
	dpmm := float64(img.Bounds().Dx()) / toMm(width)
	if dpmm <= 0 {
		dpmm = 1
	}
	ctx.DrawImage(toMm(box.X), toMm(box.Y), img, canvas.DPMM(dpmm))
	return nil
}

// drawQR 只绘制二维码的占位方框，像素由外部生成。
func (r *Renderer) drawQR(ctx *canvas.Context, q *layout.QRBox) {
	ctx.SetFillColor(r.paint(q.Background, 1, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}))
	ctx.SetStrokeColor(r.paint(q.Foreground, 1, black))
	ctx.SetStrokeWidth(toMm(defaultLineWidth))
	ctx.DrawPath(toMm(q.X), toMm(q.Y), canvas.Rectangle(toMm(q.Size), toMm(q.Size)))
}

// drawWatermark 在页面中心沿对角线绘制水印文本。
func (r *Renderer) drawWatermark(ctx *canvas.Context, wm *layout.Watermark, size layout.PageSize) error {
	face, err := r.fontFace(wm.Font, wm.FontSize, r.paint(wm.Color, wm.Opacity, black))
	if err != nil {
		return err
	}
	cx, cy := toMm(size.Width/2), toMm(size.Height/2)
	metrics := face.Metrics()
	// 旋转在 y 轴向上的坐标系中进行，基线相对中心下移半个文本高度
	ctx.Push()
	ctx.SetCoordSystem(canvas.CartesianI)
	ctx.ComposeView(canvas.Identity.RotateAbout(wm.Angle, cx, cy))
	ctx.DrawText(cx, cy+toMm(wm.Height)/2-metrics.Ascent, canvas.NewTextLine(face, wm.Text, canvas.Center))
	ctx.Pop()
	ctx.SetCoordSystem(canvas.CartesianIV)
	return nil
}
