package layout

import (
	"errors"
	"testing"

	"github.com/ripjar/pdfmake/bidi"
)

func spanRuns(t *testing.T, spans ...Span) []*Run {
	t.Helper()
	runs, err := stubText{}.BuildRuns(spans, Style{})
	if err != nil {
		t.Fatalf("生成 run 失败: %v", err)
	}
	return runs
}

func TestRTLLineVisualOrder(t *testing.T) {
	b := newTestBuilder(100)
	n := &Node{Kind: KindText, RTL: true, Runs: spanRuns(t, Span{Text: "א ב"})}
	lines := drainLines(t, b, n)
	if len(lines) != 1 {
		t.Fatalf("期望 1 行，实际 %d", len(lines))
	}
	line := lines[0]
	if line.Text() != "ב א" {
		t.Fatalf("RTL 行应为视觉顺序，实际 %q", line.Text())
	}
	for _, r := range line.Runs {
		if !r.RTL || r.Alignment != "right" {
			t.Fatalf("RTL 行的 run 应标记 RTL 并右对齐: %+v", r)
		}
	}
	if !line.LastLineInParagraph {
		t.Fatalf("RTL 行也应设置段落末行标记")
	}
}

func TestRTLLineKeepsRunStyles(t *testing.T) {
	b := newTestBuilder(100)
	n := &Node{Kind: KindText, RTL: true, Runs: spanRuns(t,
		Span{Text: "א ", Style: Style{Background: "yellow"}, StyleNames: []string{"mark"}},
		Span{Text: "ב", Style: Style{Decoration: "underline"}},
	)}
	lines := drainLines(t, b, n)
	runs := lines[0].Runs
	if len(runs) != 2 {
		t.Fatalf("期望 2 个 run，实际 %d", len(runs))
	}
	if runs[0].Text != "ב " || runs[0].Decoration != "underline" || runs[0].Background != "" {
		t.Fatalf("第一个 run 应取回下划线样式: %+v", runs[0])
	}
	if runs[1].Text != "א" || runs[1].Background != "yellow" || len(runs[1].StyleNames) != 1 {
		t.Fatalf("第二个 run 应取回背景与样式名: %+v", runs[1])
	}
}

// 一个词由两段不同样式拼成时只能取回其中一段的样式。
func TestRTLLineMixedStyleWordTakesOneStyle(t *testing.T) {
	b := newTestBuilder(100)
	n := &Node{Kind: KindText, RTL: true, Runs: spanRuns(t,
		Span{Text: "אב", Style: Style{Background: "red"}},
		Span{Text: "גד", Style: Style{Background: "blue"}},
	)}
	lines := drainLines(t, b, n)
	runs := lines[0].Runs
	if len(runs) != 1 || runs[0].Text != "אבגד" {
		t.Fatalf("期望单个单词 run: %q", lines[0].Text())
	}
	if runs[0].Background != "blue" {
		t.Fatalf("混合样式的词取到的背景为 %q", runs[0].Background)
	}
}

func TestInlineRTLSingleRun(t *testing.T) {
	b := newTestBuilder(100)
	n := &Node{Kind: KindText, Runs: spanRuns(t,
		Span{Text: "X "},
		Span{Text: "Y", InlineRTL: true},
	)}
	lines := drainLines(t, b, n)
	got := []string{}
	for _, r := range lines[0].Runs {
		got = append(got, r.Text)
	}
	if len(got) != 2 || got[0] != "X " || got[1] != "Y " {
		t.Fatalf("行内 RTL 结果错误: %q", got)
	}
	if lines[0].Runs[0].InlineRTL || !lines[0].Runs[1].InlineRTL {
		t.Fatalf("只有重排的 run 带行内 RTL 标记")
	}
}

func TestInlineRTLMultipleWords(t *testing.T) {
	b := newTestBuilder(100)
	n := &Node{Kind: KindText, Runs: spanRuns(t,
		Span{Text: "X "},
		Span{Text: "אב גד", InlineRTL: true, StyleNames: []string{"he"}, Style: Style{Font: "Roboto", Decoration: "underline"}},
	)}
	lines := drainLines(t, b, n)
	line := lines[0]
	if line.Text() != "X גד אב " {
		t.Fatalf("行内 RTL 单词应按视觉顺序排列: %q", line.Text())
	}
	if line.Runs[0].Font.Family == DefaultRTLFont {
		t.Fatalf("LTR run 不应改用 RTL 字体: %+v", line.Runs[0])
	}
	for _, r := range line.Runs[1:] {
		if !r.InlineRTL {
			t.Fatalf("重排后的 run 应保留行内 RTL 标记: %+v", r)
		}
		if r.Font.Family != DefaultRTLFont {
			t.Fatalf("重排后的 run 应使用 RTL 字体，实际 %q", r.Font.Family)
		}
		if r.Text != " " && (r.Decoration != "underline" || len(r.StyleNames) != 1 || r.StyleNames[0] != "he") {
			t.Fatalf("匹配到的单词应保留原样式: %+v", r)
		}
	}

	b = newTestBuilder(100)
	b.opts.RTLFont = "Amiri"
	n = &Node{Kind: KindText, Runs: spanRuns(t, Span{Text: "אב", InlineRTL: true, Style: Style{Font: "Roboto"}})}
	line = drainLines(t, b, n)[0]
	for _, r := range line.Runs {
		if r.Font.Family != "Amiri" {
			t.Fatalf("应使用配置的 RTL 字体，实际 %q", r.Font.Family)
		}
	}
}

func TestRTLUnpairedSurrogate(t *testing.T) {
	b := newTestBuilder(100)
	n := &Node{Kind: KindText, RTL: true, Runs: []*Run{{Text: "א\xED\xA0\xBD", Width: 3}}}
	_, err := b.buildNextLine(n)
	if !errors.Is(err, bidi.ErrUnpairedSurrogate) {
		t.Fatalf("期望代理项错误，实际 %v", err)
	}

	doc := &Document{Content: &Node{Kind: KindText, RTL: true, Text: []Span{{Text: "א\xED\xA0\xBD ב"}}}}
	_, err = Build(doc, stubOptions())
	var se *bidi.SurrogateError
	if !errors.As(err, &se) || se.Index != 2 {
		t.Fatalf("测量阶段应返回位置 2 的代理项错误，实际 %v", err)
	}
}

func TestComparableRTL(t *testing.T) {
	cases := []struct{ in, want string }{
		{" كلمة، ", "كلمة"},
		{"؟سؤال", "سؤال"},
		{"a،b؛c", "ab؛c"},
		{"plain", "plain"},
	}
	for _, tc := range cases {
		if got := comparableRTL(tc.in); got != tc.want {
			t.Fatalf("comparableRTL(%q) = %q, 期望 %q", tc.in, got, tc.want)
		}
	}
}
