// Package bidi 在 fribidi 之上提供段落层级与视觉重排（UBA X1-L2，含 N0 括号配对与隔离符），
// 以及按单词的两遍重排与 WTF-8 代理项检查。
package bidi

import (
	"github.com/benoitkugler/textprocessing/fribidi"
)

// Direction 是段落的基础方向。
type Direction int

const (
	LeftToRight Direction = iota
	RightToLeft
	// Auto 按 P2/P3 取第一个强字符的方向，找不到时为 LTR。
	Auto
)

func (d Direction) String() string {
	switch d {
	case LeftToRight:
		return "ltr"
	case RightToLeft:
		return "rtl"
	default:
		return "auto"
	}
}

// Level 是嵌入层级，奇数为 RTL。
type Level uint8

func (d Direction) parType() fribidi.ParType {
	switch d {
	case LeftToRight:
		return fribidi.LTR
	case RightToLeft:
		return fribidi.RTL
	default:
		return fribidi.ON
	}
}

// paragraph 是一段文本的解析结果，base 为解析后的段落方向。
type paragraph struct {
	types  []fribidi.CharType
	levels []fribidi.Level
	base   fribidi.ParType
}

func resolve(runes []rune, dir Direction) paragraph {
	p := paragraph{
		types: make([]fribidi.CharType, len(runes)),
		base:  dir.parType(),
	}
	brackets := make([]fribidi.BracketType, len(runes))
	for i, r := range runes {
		p.types[i] = fribidi.GetBidiType(r)
		if p.types[i] == fribidi.ON {
			brackets[i] = fribidi.GetBracket(r)
		}
	}
	if len(runes) == 0 {
		return p
	}
	p.levels, _ = fribidi.GetParEmbeddingLevels(p.types, brackets, &p.base)
	return p
}

func (p paragraph) level() Level {
	if p.base.IsRtl() {
		return 1
	}
	return 0
}

// reorderLine 应用 L1 第 4 条（行尾空白回到段落层级），visual 非空时就地做 L2 反转。
func (p paragraph) reorderLine(visual []rune) {
	if len(p.levels) == 0 {
		return
	}
	fribidi.ReorderLine(0, p.types, len(p.types), 0, p.base, p.levels, visual, nil)
}

// ParagraphLevel 返回给定方向下的段落层级。
func ParagraphLevel(runes []rune, dir Direction) Level {
	return resolve(runes, dir).level()
}

// Levels 计算每个码点的最终嵌入层级（已应用 L1）。
func Levels(runes []rune, dir Direction) []Level {
	p := resolve(runes, dir)
	p.reorderLine(nil)
	out := make([]Level, len(runes))
	para := p.level()
	for i, l := range p.levels {
		if l < 0 {
			out[i] = para
			continue
		}
		out[i] = Level(l)
	}
	return out
}

// Reorder 返回视觉顺序（L2）的码点序列，输入不会被修改。
// 不做镜像与字形变换，输出与输入是同一组码点。
func Reorder(runes []rune, dir Direction) []rune {
	out := make([]rune, len(runes))
	copy(out, runes)
	resolve(runes, dir).reorderLine(out)
	return out
}
