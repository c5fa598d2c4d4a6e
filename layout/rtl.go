package layout

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ripjar/pdfmake/bidi"
)

// arabicPunctuation 是比较单词时去掉的阿拉伯标点：逗号、日期分隔符、分号、三点号、问号、
// 百分号、小数点、千分位、五角星与句号。
const arabicPunctuation = "،؍؛؞؟٪٫٬٭۔"

// comparableRTL 去掉第一段连续的阿拉伯标点后再去掉首尾空白。
func comparableRTL(s string) string {
	if i := strings.IndexAny(s, arabicPunctuation); i >= 0 {
		j := i
		for j < len(s) {
			r, size := utf8.DecodeRuneInString(s[j:])
			if !strings.ContainsRune(arabicPunctuation, r) {
				break
			}
			j += size
		}
		s = s[:i] + s[j:]
	}
	return strings.TrimSpace(s)
}

// transformLineForRTL 把整段 RTL 行重排为视觉顺序并重建 run，
// 再从原 run（倒序）中按去标点的包含关系找回字体、背景与装饰。
// 同一个词重复出现时可能取到错误的样式，从当前下标开始查找只能降低这种概率。
func (b *layoutBuilder) transformLineForRTL(line *Line, node *Node) error {
	before := line.Runs
	var text strings.Builder
	for _, r := range before {
		text.WriteString(r.Text)
	}
	words, err := bidi.VisualWords(text.String(), bidi.RightToLeft)
	if err != nil {
		return fmt.Errorf("重排 RTL 行 %q: %w", text.String(), err)
	}
	base := node.TextStyle.Merge(Style{Font: b.opts.rtlFont(), Alignment: "right"})
	runs, err := b.text.BuildRuns([]Span{{Text: strings.Join(words, "")}}, base)
	if err != nil {
		return fmt.Errorf("重建 RTL 行: %w", err)
	}

	reversed := make([]*Run, len(before))
	for i, r := range before {
		reversed[len(before)-1-i] = r
	}

	line.reset()
	for i, r := range runs {
		nr := r.clone()
		nr.RTL = true
		if old := matchStyleSource(reversed, i, nr.Text); old != nil {
			nr.StyleNames = old.StyleNames
			nr.Background = old.Background
			nr.Font = old.Font
			nr.Decoration = old.Decoration
			nr.DecorationColor = old.DecorationColor
		}
		line.addRun(nr)
	}
	return nil
}

func matchStyleSource(reversed []*Run, from int, text string) *Run {
	if from > len(reversed) {
		return nil
	}
	target := comparableRTL(text)
	for _, old := range reversed[from:] {
		o := comparableRTL(old.Text)
		if strings.Contains(o, target) || strings.Contains(target, o) {
			return old
		}
	}
	return nil
}

// transformInlineRTL 重排 LTR 段落中一段连续的行内 RTL run，返回新建的 run。
func (b *layoutBuilder) transformInlineRTL(runs []*Run, node *Node) ([]*Run, error) {
	lookup := map[string]Span{}
	var text strings.Builder
	for _, r := range runs {
		text.WriteString(r.Text)
		key := strings.TrimSpace(r.Text)
		entry := Span{
			Style: Style{
				Font:            b.opts.rtlFont(),
				Bold:            FlagOf(r.Font.Bold),
				Italics:         FlagOf(r.Font.Italic),
				Alignment:       r.Alignment,
				Decoration:      r.Decoration,
				DecorationColor: r.DecorationColor,
			},
			StyleNames: r.StyleNames,
		}
		lookup[key] = entry
		if strings.ContainsAny(key, " \t\n\r\f\v") {
			for _, k := range strings.FieldsFunc(key, unicode.IsSpace) {
				lookup[k] = entry
			}
		}
	}

	words, err := bidi.VisualWords(text.String(), bidi.LeftToRight)
	if err != nil {
		return nil, fmt.Errorf("重排行内 RTL 文本 %q: %w", text.String(), err)
	}

	var spans []Span
	for _, w := range words {
		if w == " " {
			continue
		}
		span, ok := lookup[strings.TrimSpace(w)]
		if !ok {
			span = Span{Style: Style{Font: b.opts.rtlFont()}}
		}
		span.Text = w
		span.InlineRTL = true
		spans = append(spans, span)
	}
	if len(spans) == 0 {
		return nil, nil
	}
	spans[len(spans)-1].Text += " "

	out, err := b.text.BuildRuns(spans, node.TextStyle)
	if err != nil {
		return nil, fmt.Errorf("重建行内 RTL run: %w", err)
	}
	return out, nil
}

// assembleInlineRTL 从左到右扫描一行：LTR run 原样保留，
// 连续的行内 RTL run 作为一块交给 transformInlineRTL，结果按原位置拼回。
func (b *layoutBuilder) assembleInlineRTL(line *Line, node *Node) (*Line, error) {
	out := newLine(line.MaxWidth)
	out.newLineForced = line.newLineForced
	runs := line.Runs
	for i := 0; i < len(runs); {
		if !runs[i].InlineRTL {
			out.addRun(runs[i])
			i++
			continue
		}
		end := i + 1
		for end < len(runs) && runs[end].InlineRTL {
			end++
		}
		transformed, err := b.transformInlineRTL(runs[i:end], node)
		if err != nil {
			return nil, err
		}
		for _, r := range transformed {
			out.addRun(r)
		}
		i = end
	}
	return out, nil
}
