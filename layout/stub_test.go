package layout

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ripjar/pdfmake/bidi"
)

// stubText 是测试用的等宽测量：每个码点宽 fontSize/10，行高等于字号。
// 默认字号 10，即每个码点 1 个单位宽。
type stubText struct{}

const stubDefaultSize = 10

func stubSize(size float64) float64 {
	if size == 0 {
		return stubDefaultSize
	}
	return size
}

func (stubText) WidthOf(text string, _ Font, size, spacing float64, _ []string) (float64, error) {
	n := float64(utf8.RuneCountInString(text))
	return n*stubSize(size)/10 + n*spacing, nil
}

func (s stubText) SizeOf(text string, style Style) (Size, error) {
	w, _ := s.WidthOf(text, style.FontRef(), style.FontSize, style.CharacterSpacing, nil)
	return Size{Width: w, Height: stubSize(style.FontSize)}, nil
}

// BuildRuns 按空格切词：单词连同其后的空格为一个 run，开头的空格单独成 run，换行符结束一行。
func (s stubText) BuildRuns(spans []Span, base Style) ([]*Run, error) {
	var out []*Run
	for _, span := range spans {
		if _, err := bidi.CodePoints(span.Text); err != nil {
			return nil, fmt.Errorf("拆分文本 %q: %w", span.Text, err)
		}
		style := base.Merge(span.Style)
		for _, tok := range splitStubWords(span.Text) {
			text := strings.TrimSuffix(tok, "\n")
			size := stubSize(style.FontSize)
			w, _ := s.WidthOf(text, style.FontRef(), size, 0, nil)
			lead, _ := s.WidthOf(leadingSpace(text), style.FontRef(), size, 0, nil)
			trail, _ := s.WidthOf(trailingSpace(text), style.FontRef(), size, 0, nil)
			out = append(out, &Run{
				Text:            text,
				Width:           w,
				Height:          size,
				Ascender:        size * 0.8,
				Descender:       size * 0.2,
				Font:            style.FontRef(),
				FontSize:        size,
				Color:           style.Color,
				Background:      style.Background,
				Decoration:      style.Decoration,
				DecorationColor: style.DecorationColor,
				StyleNames:      span.StyleNames,
				Alignment:       style.Alignment,
				InlineRTL:       span.InlineRTL,
				NoWrap:          style.NoWrap.Bool(),
				LineEnd:         strings.HasSuffix(tok, "\n"),
				LeadingCut:      lead,
				TrailingCut:     trail,
				PageRef:         span.PageRef,
			})
		}
	}
	return out, nil
}

func splitStubWords(s string) []string {
	var out []string
	var cur strings.Builder
	inTrail := false
	for _, r := range s {
		switch {
		case r == '\n':
			cur.WriteRune(r)
			out = append(out, cur.String())
			cur.Reset()
			inTrail = false
		case r == ' ':
			if cur.Len() > 0 && !strings.HasSuffix(cur.String(), " ") {
				inTrail = true
			}
			cur.WriteRune(r)
		default:
			if inTrail || (cur.Len() > 0 && strings.TrimLeft(cur.String(), " ") == "") {
				out = append(out, cur.String())
				cur.Reset()
				inTrail = false
			}
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

// stubMeasurer 只做布局测试需要的最少测量：文本生成 run、表格计算偏移、画布计算高度。
type stubMeasurer struct{ text stubText }

func (m stubMeasurer) Preprocess(n *Node) (*Node, error) { return n, nil }

func (m stubMeasurer) Measure(root *Node) (*Node, error) {
	var err error
	Walk(root, func(n *Node) {
		if err != nil {
			return
		}
		n.TextStyle = n.Style
		switch n.Kind {
		case KindText:
			if n.Runs == nil {
				n.Runs, err = m.text.BuildRuns(n.Text, n.TextStyle)
			}
			n.MinWidth, n.MaxWidth = 0, 0
			for _, r := range n.Runs {
				n.MinWidth = max(n.MinWidth, r.Width-r.TrailingCut)
				n.MaxWidth += r.Width
			}
		case KindTable:
			if n.Table.Offsets == nil {
				MeasureOffsets(n)
			}
		case KindCanvas:
			for _, v := range n.Canvas {
				w, h := v.Extent()
				n.MinWidth = max(n.MinWidth, w)
				n.MinHeight = max(n.MinHeight, h)
			}
		}
	})
	return root, err
}

func stubOptions() BuildOptions {
	return BuildOptions{Measurer: stubMeasurer{}, Text: stubText{}}
}

func textNode(s string) *Node {
	return &Node{Kind: KindText, Text: []Span{{Text: s}}}
}

func stack(children ...*Node) *Node {
	return &Node{Kind: KindStack, Stack: children}
}

func buildDoc(t *testing.T, doc *Document) *Result {
	t.Helper()
	res, err := Build(doc, stubOptions())
	if err != nil {
		t.Fatalf("布局计算失败: %v", err)
	}
	return res
}

// newTestBuilder 构造一个可用宽度为 width、不限高度的构建器，用于直接测试行构建。
func newTestBuilder(width float64) *layoutBuilder {
	b := &layoutBuilder{doc: &Document{}, opts: stubOptions(), text: stubText{}, obs: &observers{}}
	ctx := newDocumentContext(PageSize{Width: width, Height: 1e6}, Margins{})
	b.writer = newPageWriter(ctx, b.obs)
	return b
}

func lineTexts(lines []*Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text()
	}
	return out
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func eq(a, b float64) bool { return abs(a-b) < 1e-6 }
