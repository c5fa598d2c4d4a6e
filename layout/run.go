package layout

import (
	"strings"
	"unicode/utf8"
)

// Span 是测量前的一段源文本及其样式。
type Span struct {
	Text       string   `json:"text"`
	Style      Style    `json:"style"`
	StyleNames []string `json:"styleNames,omitempty"`
	InlineRTL  bool     `json:"inlineRtl,omitempty"`
	// PageRef 为目标节点 id，布局完成后文本替换为该节点所在页码。
	PageRef string `json:"pageRef,omitempty"`
}

// Run 是行构建与双向重排处理的最小单元，由测量阶段生成。
// 测量结果不会被修改：拆分或重建总是产生新的 Run，行内保存的是副本。
type Run struct {
	Text             string   `json:"text"`
	Width            float64  `json:"width"`
	Height           float64  `json:"height"`
	Ascender         float64  `json:"ascender"`
	Descender        float64  `json:"descender"`
	Font             Font     `json:"font"`
	FontSize         float64  `json:"fontSize"`
	CharacterSpacing float64  `json:"characterSpacing,omitempty"`
	FontFeatures     []string `json:"fontFeatures,omitempty"`
	Color            string   `json:"color,omitempty"`
	Background       string   `json:"background,omitempty"`
	Decoration       string   `json:"decoration,omitempty"`
	DecorationStyle  string   `json:"decorationStyle,omitempty"`
	DecorationColor  string   `json:"decorationColor,omitempty"`
	StyleNames       []string `json:"styleNames,omitempty"`
	Alignment        string   `json:"alignment,omitempty"`

	RTL       bool `json:"rtl,omitempty"`
	InlineRTL bool `json:"inlineRtl,omitempty"`
	NoWrap    bool `json:"noWrap,omitempty"`
	NoNewLine bool `json:"noNewLine,omitempty"`
	LineEnd   bool `json:"lineEnd,omitempty"`

	LeadingCut  float64 `json:"leadingCut,omitempty"`
	TrailingCut float64 `json:"trailingCut,omitempty"`

	PageRef string `json:"pageRef,omitempty"`

	// X 为行内偏移，JustifyShift 为两端对齐时追加的间距。
	X            float64 `json:"x"`
	JustifyShift float64 `json:"justifyShift,omitempty"`
}

func (r *Run) clone() *Run {
	c := *r
	return &c
}

// Len 返回码点数。
func (r *Run) Len() int { return utf8.RuneCountInString(r.Text) }

func leadingSpace(s string) string {
	return s[:len(s)-len(strings.TrimLeft(s, " \t"))]
}

func trailingSpace(s string) string {
	return s[len(strings.TrimRight(s, " \t")):]
}
