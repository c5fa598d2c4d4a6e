package measure

import (
	"strings"

	"github.com/go-text/typesetting/segmenter"

	"github.com/ripjar/pdfmake/bidi"
)

type word struct {
	text    string
	lineEnd bool
}

// splitWords 按 UAX#14 断行机会切词：每个词带上其后的空白，
// 以换行结束的词去掉换行符并标记 lineEnd。制表符按四个空格处理。
// WTF-8 代理对还原为对应码点，落单的高代理项返回 *bidi.SurrogateError。
func splitWords(text string, noWrap bool) ([]word, error) {
	cps, err := bidi.CodePoints(strings.ReplaceAll(text, "\t", "    "))
	if err != nil {
		return nil, err
	}
	if noWrap {
		if len(cps) == 0 {
			return nil, nil
		}
		return []word{{text: string(cps)}}, nil
	}

	var (
		seg segmenter.Segmenter
		out []word
	)
	seg.Init(cps)
	iter := seg.LineIterator()
	for iter.Next() {
		line := iter.Line()
		s := string(line.Text)
		trimmed := strings.TrimSuffix(s, "\n")
		trimmed = strings.TrimSuffix(trimmed, "\r")
		out = append(out, word{text: trimmed, lineEnd: trimmed != s})
	}
	return out, nil
}
