package layout

// Flag 是三态布尔值，Unset 表示沿用上层样式。
type Flag int8

const (
	Unset Flag = iota
	On
	Off
)

// FlagOf 将 bool 转成 Flag。
func FlagOf(b bool) Flag {
	if b {
		return On
	}
	return Off
}

// Bool 仅在显式开启时返回 true。
func (f Flag) Bool() bool { return f == On }

// Font 标识一个具体字形：字族加粗斜体。
type Font struct {
	Family string `json:"family"`
	Bold   bool   `json:"bold,omitempty"`
	Italic bool   `json:"italic,omitempty"`
}

// Style 描述可继承的文本样式。零值字段表示未设置。
type Style struct {
	Font                  string   `json:"font,omitempty"`
	FontSize              float64  `json:"fontSize,omitempty"`
	Bold                  Flag     `json:"bold,omitempty"`
	Italics               Flag     `json:"italics,omitempty"`
	Color                 string   `json:"color,omitempty"`
	Background            string   `json:"background,omitempty"`
	Decoration            string   `json:"decoration,omitempty"`
	DecorationStyle       string   `json:"decorationStyle,omitempty"`
	DecorationColor       string   `json:"decorationColor,omitempty"`
	CharacterSpacing      float64  `json:"characterSpacing,omitempty"`
	LineHeight            float64  `json:"lineHeight,omitempty"`
	Alignment             string   `json:"alignment,omitempty"`
	FontFeatures          []string `json:"fontFeatures,omitempty"`
	NoWrap                Flag     `json:"noWrap,omitempty"`
	PreserveLeadingSpaces Flag     `json:"preserveLeadingSpaces,omitempty"`
}

// Merge 返回以 over 中已设置字段覆盖 s 的结果。
func (s Style) Merge(over Style) Style {
	out := s
	if over.Font != "" {
		out.Font = over.Font
	}
	if over.FontSize != 0 {
		out.FontSize = over.FontSize
	}
	if over.Bold != Unset {
		out.Bold = over.Bold
	}
	if over.Italics != Unset {
		out.Italics = over.Italics
	}
	if over.Color != "" {
		out.Color = over.Color
	}
	if over.Background != "" {
		out.Background = over.Background
	}
	if over.Decoration != "" {
		out.Decoration = over.Decoration
	}
	if over.DecorationStyle != "" {
		out.DecorationStyle = over.DecorationStyle
	}
	if over.DecorationColor != "" {
		out.DecorationColor = over.DecorationColor
	}
	if over.CharacterSpacing != 0 {
		out.CharacterSpacing = over.CharacterSpacing
	}
	if over.LineHeight != 0 {
		out.LineHeight = over.LineHeight
	}
	if over.Alignment != "" {
		out.Alignment = over.Alignment
	}
	if len(over.FontFeatures) > 0 {
		out.FontFeatures = over.FontFeatures
	}
	if over.NoWrap != Unset {
		out.NoWrap = over.NoWrap
	}
	if over.PreserveLeadingSpaces != Unset {
		out.PreserveLeadingSpaces = over.PreserveLeadingSpaces
	}
	return out
}

// FontRef 返回样式对应的字形。
func (s Style) FontRef() Font {
	return Font{Family: s.Font, Bold: s.Bold.Bool(), Italic: s.Italics.Bool()}
}
