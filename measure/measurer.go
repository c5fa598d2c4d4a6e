package measure

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/ripjar/pdfmake/layout"
)

// DefaultStyle 是未设置任何样式时的文本样式。
var DefaultStyle = layout.Style{Font: "Roboto", FontSize: 12, LineHeight: 1}

// ImageSizer 返回图片的固有尺寸（像素按 pt 计）。
type ImageSizer interface {
	ImageSize(src string) (width, height float64, err error)
}

// Options 配置测量器。
type Options struct {
	// Styles 为具名样式字典，节点与 span 通过样式名引用。
	Styles map[string]layout.Style
	// Default 覆盖 DefaultStyle 中已设置的字段。
	Default layout.Style
	Images  ImageSizer
	Logger  *log.Logger
}

// Measurer 是默认的文档测量实现，同时提供 layout.DocumentMeasurer 与 layout.TextMeasurer。
type Measurer struct {
	metrics Metrics
	styles  map[string]layout.Style
	base    layout.Style
	images  ImageSizer
	log     *log.Logger
}

var (
	_ layout.DocumentMeasurer = (*Measurer)(nil)
	_ layout.TextMeasurer     = (*Measurer)(nil)
)

// New 创建测量器。metrics 不能为空。
func New(metrics Metrics, opts Options) (*Measurer, error) {
	if metrics == nil {
		return nil, errors.New("measure: 缺少字体度量 Metrics")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	styles := make(map[string]layout.Style, len(opts.Styles))
	for name, s := range opts.Styles {
		styles[name] = s
	}
	return &Measurer{
		metrics: metrics,
		styles:  styles,
		base:    DefaultStyle.Merge(opts.Default),
		images:  opts.Images,
		log:     logger,
	}, nil
}

// BaseStyle 返回根节点继承的样式。
func (m *Measurer) BaseStyle() layout.Style { return m.base }

func (m *Measurer) font(f layout.Font) layout.Font {
	if f.Family == "" {
		f.Family = m.base.Font
	}
	return f
}

func (m *Measurer) size(size float64) float64 {
	if size <= 0 {
		return m.base.FontSize
	}
	return size
}

// WidthOf 测量文本宽度；字符间距按码点数减一累加。
func (m *Measurer) WidthOf(text string, font layout.Font, size, spacing float64, _ []string) (float64, error) {
	if text == "" {
		return 0, nil
	}
	w, err := m.metrics.TextWidth(text, m.font(font), m.size(size))
	if err != nil {
		return 0, fmt.Errorf("测量 %q 宽度: %w", text, err)
	}
	if n := utf8.RuneCountInString(text); spacing != 0 && n > 1 {
		w += spacing * float64(n-1)
	}
	return w, nil
}

// SizeOf 返回单行文本的宽高。
func (m *Measurer) SizeOf(text string, style layout.Style) (layout.Size, error) {
	style = m.base.Merge(style)
	w, err := m.WidthOf(text, style.FontRef(), style.FontSize, style.CharacterSpacing, style.FontFeatures)
	if err != nil {
		return layout.Size{}, err
	}
	fm, err := m.metrics.FontMetrics(m.font(style.FontRef()), style.FontSize)
	if err != nil {
		return layout.Size{}, fmt.Errorf("读取字体度量: %w", err)
	}
	return layout.Size{Width: w, Height: fm.LineHeight * lineHeight(style)}, nil
}

func lineHeight(s layout.Style) float64 {
	if s.LineHeight > 0 {
		return s.LineHeight
	}
	return 1
}

// BuildRuns 在 base 之上按断行机会把各 span 拆成 run。
// 相邻 span 拼接处没有断行机会时，前一个 span 的最后一个 run 标记为 NoNewLine。
func (m *Measurer) BuildRuns(spans []layout.Span, base layout.Style) ([]*layout.Run, error) {
	var (
		out      []*layout.Run
		lastWord string
	)
	for i, span := range spans {
		style := base.Merge(span.Style)
		words, err := splitWords(span.Text, style.NoWrap.Bool())
		if err != nil {
			return nil, fmt.Errorf("拆分文本 %q: %w", span.Text, err)
		}

		if lastWord != "" && len(words) > 0 && len(out) > 0 {
			joined, err := splitWords(lastWord+words[0].text, false)
			if err != nil {
				return nil, err
			}
			if len(joined) == 1 {
				out[len(out)-1].NoNewLine = true
			}
		}

		for _, w := range words {
			r, err := m.newRun(w.text, style, span)
			if err != nil {
				return nil, err
			}
			r.LineEnd = w.lineEnd
			out = append(out, r)
		}

		lastWord = ""
		if i+1 < len(spans) && len(words) > 0 {
			last := words[len(words)-1]
			if !last.lineEnd {
				lastWord = last.text
			}
		}
	}
	return out, nil
}

func (m *Measurer) newRun(text string, style layout.Style, span layout.Span) (*layout.Run, error) {
	font := m.font(style.FontRef())
	size := m.size(style.FontSize)
	width, err := m.WidthOf(text, font, size, style.CharacterSpacing, style.FontFeatures)
	if err != nil {
		return nil, err
	}
	fm, err := m.metrics.FontMetrics(font, size)
	if err != nil {
		return nil, fmt.Errorf("读取字体 %s 度量: %w", font.Family, err)
	}
	r := &layout.Run{
		Text:             text,
		Width:            width,
		Height:           fm.LineHeight * lineHeight(style),
		Ascender:         fm.Ascender,
		Descender:        fm.Descender,
		Font:             font,
		FontSize:         size,
		CharacterSpacing: style.CharacterSpacing,
		FontFeatures:     style.FontFeatures,
		Color:            style.Color,
		Background:       style.Background,
		Decoration:       style.Decoration,
		DecorationStyle:  style.DecorationStyle,
		DecorationColor:  style.DecorationColor,
		StyleNames:       span.StyleNames,
		Alignment:        style.Alignment,
		InlineRTL:        span.InlineRTL,
		NoWrap:           style.NoWrap.Bool(),
		PageRef:          span.PageRef,
	}
	if !style.PreserveLeadingSpaces.Bool() {
		lead := text[:len(text)-len(strings.TrimLeftFunc(text, unicode.IsSpace))]
		if r.LeadingCut, err = m.WidthOf(lead, font, size, style.CharacterSpacing, nil); err != nil {
			return nil, err
		}
	}
	trail := text[len(strings.TrimRightFunc(text, unicode.IsSpace)):]
	if r.TrailingCut, err = m.WidthOf(trail, font, size, style.CharacterSpacing, nil); err != nil {
		return nil, err
	}
	return r, nil
}
