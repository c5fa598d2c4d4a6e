package measure

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ripjar/pdfmake/layout"
)

// gapText 决定列表标记区的默认宽度。
const gapText = "9. "

func listType(n *layout.Node) string {
	if n.List != nil && n.List.Type != "" {
		return strings.ToLower(n.List.Type)
	}
	if n.Kind == layout.KindOrderedList {
		return "decimal"
	}
	return "disc"
}

// measureList 为每个列表项生成标记并确定标记区宽度。有序列表的标记区取默认宽度与最宽标记的较大值。
func (m *Measurer) measureList(n *layout.Node) error {
	if n.List == nil {
		n.List = &layout.ListStyle{}
	}
	style := n.TextStyle
	if n.List.MarkerColor != "" {
		style.Color = n.List.MarkerColor
	}
	gap, err := m.WidthOf(gapText, m.font(style.FontRef()), m.size(style.FontSize), style.CharacterSpacing, nil)
	if err != nil {
		return err
	}

	typ := listType(n)
	if n.Kind == layout.KindOrderedList {
		counter := n.List.Start
		if n.List.Reversed {
			if counter == 0 {
				counter = len(n.Items)
			}
		} else if counter == 0 {
			counter = 1
		}
		for _, item := range n.Items {
			text, ok := orderedMarkerText(typ, counter, n.List.Separator)
			if n.List.Reversed {
				counter--
			} else {
				counter++
			}
			if !ok {
				item.Marker = nil
				continue
			}
			runs, err := m.BuildRuns([]layout.Span{{Text: text}}, style.Merge(layout.Style{NoWrap: layout.On}))
			if err != nil {
				return fmt.Errorf("列表标记 %q: %w", text, err)
			}
			item.Marker = &layout.Marker{Runs: runs}
			for _, r := range runs {
				gap = max(gap, r.Width)
			}
		}
	} else {
		fm, err := m.metrics.FontMetrics(m.font(style.FontRef()), m.size(style.FontSize))
		if err != nil {
			return fmt.Errorf("读取字体度量: %w", err)
		}
		size := m.size(style.FontSize)
		for _, item := range n.Items {
			v := bulletVector(typ, size, fm.Ascender, style.Color)
			if v == nil {
				item.Marker = nil
				continue
			}
			item.Marker = &layout.Marker{Vector: v}
		}
	}

	n.List.GapWidth = gap
	for _, item := range n.Items {
		if item.Marker != nil {
			item.Marker.Width = gap
		}
	}
	return nil
}

// bulletVector 生成无序列表的标记图形，坐标以所在行顶部为原点。
func bulletVector(typ string, size, ascender float64, color string) *layout.Vector {
	if color == "" {
		color = "black"
	}
	r := size / 6
	center := ascender - size/3
	switch typ {
	case "disc":
		return &layout.Vector{Kind: layout.VectorEllipse, X: r, Y: center, R1: r, R2: r, Color: color}
	case "circle":
		return &layout.Vector{Kind: layout.VectorEllipse, X: r, Y: center, R1: r, R2: r, LineColor: color}
	case "square":
		s := size / 3
		return &layout.Vector{Kind: layout.VectorRect, X: 0, Y: center - s/2, W: s, H: s, Color: color}
	}
	return nil
}

// orderedMarkerText 返回有序列表第 counter 项的标记文本；type 为 none 时返回 false。
func orderedMarkerText(typ string, counter int, separator string) (string, bool) {
	var s string
	switch typ {
	case "none":
		return "", false
	case "lower-alpha":
		s = strings.ToLower(toAlpha(counter))
	case "upper-alpha":
		s = toAlpha(counter)
	case "lower-roman":
		s = strings.ToLower(toRoman(counter))
	case "upper-roman":
		s = toRoman(counter)
	default:
		s = strconv.Itoa(counter)
	}
	if separator == "" {
		separator = "."
	}
	return s + separator + " ", true
}

// toAlpha 按 A..Z, AA..AZ 的方式编号；小于 1 时退回数字。
func toAlpha(n int) string {
	if n < 1 {
		return strconv.Itoa(n)
	}
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

var romanTable = []struct {
	value  int
	symbol string
}{
	{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"},
	{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"},
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

// toRoman 只支持 1..3999，超出范围时退回数字。
func toRoman(n int) string {
	if n < 1 || n > 3999 {
		return strconv.Itoa(n)
	}
	var sb strings.Builder
	for _, r := range romanTable {
		for n >= r.value {
			sb.WriteString(r.symbol)
			n -= r.value
		}
	}
	return sb.String()
}
