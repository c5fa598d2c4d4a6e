package bidi

import "strings"

// GroupWords 将视觉顺序的码点按空格切成单词：
// 当前单词非空时遇到空格即结束该单词，空格成为下一个单词的首字符；
// 最后一个码点总是追加并结束当前单词。
func GroupWords(runes []rune) [][]rune {
	var words [][]rune
	var current []rune
	for i, r := range runes {
		if r == ' ' && len(current) > 0 {
			words = append(words, current)
			current = []rune{r}
		} else if i == len(runes)-1 {
			current = append(current, r)
			words = append(words, current)
		} else {
			current = append(current, r)
		}
	}
	return words
}

// ReorderWord 对单个单词做第二遍重排，前导空格保持原位。
func ReorderWord(word []rune, dir Direction) []rune {
	lead := 0
	for lead < len(word) && word[lead] == ' ' {
		lead++
	}
	out := make([]rune, 0, len(word))
	out = append(out, word[:lead]...)
	return append(out, Reorder(word[lead:], dir)...)
}

// VisualWords 对 text 做两遍重排：整体按 base 方向重排并分词，
// 再对每个单词按 RTL 方向重排，修正词内字符顺序。
func VisualWords(text string, base Direction) ([]string, error) {
	cps, err := CodePoints(text)
	if err != nil {
		return nil, err
	}
	groups := GroupWords(Reorder(cps, base))
	words := make([]string, 0, len(groups))
	for _, g := range groups {
		words = append(words, string(ReorderWord(g, RightToLeft)))
	}
	return words, nil
}

// Visual 是 VisualWords 的拼接结果。
func Visual(text string, base Direction) (string, error) {
	words, err := VisualWords(text, base)
	if err != nil {
		return "", err
	}
	return strings.Join(words, ""), nil
}
