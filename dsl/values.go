package dsl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/ripjar/pdfmake/layout"
)

func errorf(pos lexer.Position, format string, args ...any) error {
	return fmt.Errorf("%s: "+format, append([]any{pos}, args...)...)
}

// raw 拼接表达式的原始记号，例如 "-5"、"*"、"true"。
func (e *Expression) raw() string {
	var sb strings.Builder
	for _, p := range e.Parts {
		sb.WriteString(p.Raw)
	}
	return sb.String()
}

// str 读取字符串值；字符串字面量中的 ${path} 会被替换。
func (c *converter) str(v *Value) (string, error) {
	switch {
	case v.String != nil:
		return c.interpolate(string(*v.String)), nil
	case v.Color != nil:
		return *v.Color, nil
	case v.Number != nil:
		return *v.Number, nil
	case v.Expr != nil:
		return v.Expr.raw(), nil
	}
	return "", fmt.Errorf("期望字符串")
}

// num 读取长度或数值，带单位的长度换算为 pt。
func (c *converter) num(v *Value) (float64, error) {
	s, err := c.str(v)
	if err != nil || v.Array != nil || v.Object != nil {
		return 0, fmt.Errorf("期望数值")
	}
	l := layout.ParseLength(s)
	if l.Unit == layout.UnitInvalid {
		return 0, fmt.Errorf("无法解析数值 %q", s)
	}
	return l.ToPT(), nil
}

func (c *converter) integer(v *Value) (int, error) {
	s, err := c.str(v)
	if err != nil {
		return 0, fmt.Errorf("期望整数")
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("无法解析整数 %q", s)
	}
	return n, nil
}

func (c *converter) boolean(v *Value) (bool, error) {
	s, err := c.str(v)
	if err != nil {
		return false, fmt.Errorf("期望布尔值")
	}
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false, fmt.Errorf("无法解析布尔值 %q", s)
	}
	return b, nil
}

func (c *converter) flag(v *Value) (layout.Flag, error) {
	b, err := c.boolean(v)
	if err != nil {
		return layout.Unset, err
	}
	return layout.FlagOf(b), nil
}

// list 把数组展开为元素；单个值视为只有一个元素的数组。
func list(v *Value) []*Value {
	if v.Array != nil {
		return v.Array.Values
	}
	return []*Value{v}
}

func (c *converter) nums(v *Value) ([]float64, error) {
	items := list(v)
	out := make([]float64, len(items))
	for i, item := range items {
		f, err := c.num(item)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func (c *converter) strs(v *Value) ([]string, error) {
	items := list(v)
	out := make([]string, len(items))
	for i, item := range items {
		s, err := c.str(item)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// margins 支持 1 个（四边）、2 个（水平、垂直）或 4 个（左、上、右、下）数值。
func (c *converter) margins(v *Value) (layout.Margins, error) {
	n, err := c.nums(v)
	if err != nil {
		return layout.Margins{}, err
	}
	return marginsOf(n)
}

func marginsOf(n []float64) (layout.Margins, error) {
	switch len(n) {
	case 1:
		return layout.Margins{Left: n[0], Top: n[0], Right: n[0], Bottom: n[0]}, nil
	case 2:
		return layout.Margins{Left: n[0], Top: n[1], Right: n[0], Bottom: n[1]}, nil
	case 4:
		return layout.Margins{Left: n[0], Top: n[1], Right: n[2], Bottom: n[3]}, nil
	}
	return layout.Margins{}, fmt.Errorf("边距需要 1、2 或 4 个数值，实际 %d 个", len(n))
}

func (c *converter) point(v *Value) (*layout.Point, error) {
	n, err := c.nums(v)
	if err != nil {
		return nil, err
	}
	if len(n) != 2 {
		return nil, fmt.Errorf("坐标需要 [x, y]")
	}
	return &layout.Point{X: n[0], Y: n[1]}, nil
}

func (c *converter) dimension(v *Value) (layout.Dimension, error) {
	s, err := c.str(v)
	if err != nil {
		return layout.Dimension{}, err
	}
	return layout.ParseDimension(s)
}

func orientation(s string) (layout.Orientation, error) {
	switch strings.ToLower(s) {
	case "portrait":
		return layout.Portrait, nil
	case "landscape":
		return layout.Landscape, nil
	}
	return layout.OrientationUnset, fmt.Errorf("未知的页面方向 %q", s)
}

// styleProp 设置可继承的文本样式属性；key 不是样式属性时返回 false。
func (c *converter) styleProp(s *layout.Style, key string, v *Value) (bool, error) {
	var err error
	switch key {
	case "font":
		s.Font, err = c.str(v)
	case "fontSize":
		s.FontSize, err = c.num(v)
	case "bold":
		s.Bold, err = c.flag(v)
	case "italics":
		s.Italics, err = c.flag(v)
	case "color":
		s.Color, err = c.str(v)
	case "background":
		s.Background, err = c.str(v)
	case "decoration":
		s.Decoration, err = c.str(v)
	case "decorationStyle":
		s.DecorationStyle, err = c.str(v)
	case "decorationColor":
		s.DecorationColor, err = c.str(v)
	case "characterSpacing":
		s.CharacterSpacing, err = c.num(v)
	case "lineHeight":
		s.LineHeight, err = c.num(v)
	case "alignment":
		s.Alignment, err = c.str(v)
	case "fontFeatures":
		s.FontFeatures, err = c.strs(v)
	case "noWrap":
		s.NoWrap, err = c.flag(v)
	case "preserveLeadingSpaces":
		s.PreserveLeadingSpaces, err = c.flag(v)
	default:
		return false, nil
	}
	return true, err
}

// style 由一组赋值构造样式，遇到非样式属性报错。
func (c *converter) style(entries []*Assignment) (layout.Style, error) {
	var s layout.Style
	for _, a := range entries {
		ok, err := c.styleProp(&s, a.Key, a.Value)
		if err != nil {
			return s, errorf(a.Pos, "%s: %w", a.Key, err)
		}
		if !ok {
			return s, errorf(a.Pos, "未知的样式属性 %q", a.Key)
		}
	}
	return s, nil
}
