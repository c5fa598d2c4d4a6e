package dsl

import (
	"fmt"

	"github.com/ripjar/pdfmake/layout"
)

func (c *converter) props(n *layout.Node, props []*Assignment) error {
	for _, a := range props {
		if err := c.prop(n, a); err != nil {
			return errorf(a.Pos, "%s.%s: %w", n.Kind, a.Key, err)
		}
	}
	return nil
}

// prop 设置节点属性：先匹配通用属性，再匹配节点类型专有属性，最后作为文本样式。
func (c *converter) prop(n *layout.Node, a *Assignment) error {
	v := a.Value
	var err error
	switch a.Key {
	case "id":
		n.ID, err = c.str(v)
	case "style":
		n.StyleNames, err = c.strs(v)
	case "margin":
		n.Margin, err = c.margins(v)
	case "unbreakable":
		n.Unbreakable, err = c.boolean(v)
	case "pageBreak":
		var s string
		if s, err = c.str(v); err == nil {
			switch s {
			case "before":
				n.PageBreak = layout.PageBreakBefore
			case "after":
				n.PageBreak = layout.PageBreakAfter
			default:
				err = fmt.Errorf("pageBreak 只能是 before 或 after")
			}
		}
	case "pageOrientation":
		var s string
		if s, err = c.str(v); err == nil {
			n.PageOrientation, err = orientation(s)
		}
	case "headlineLevel":
		n.HeadlineLevel, err = c.integer(v)
	case "tocItem":
		n.TocItem, err = c.boolean(v)
	case "absolutePosition":
		n.AbsolutePosition, err = c.point(v)
	case "relativePosition":
		n.RelativePosition, err = c.point(v)
	case "colSpan":
		n.ColSpan, err = c.integer(v)
	case "rowSpan":
		n.RowSpan, err = c.integer(v)
	case "fillColor":
		n.FillColor, err = c.str(v)
	case "border":
		var b [4]bool
		items := list(v)
		if len(items) != 4 {
			return fmt.Errorf("border 需要 4 个布尔值")
		}
		for i, item := range items {
			if b[i], err = c.boolean(item); err != nil {
				return err
			}
		}
		n.Border = &b
	case "rtl":
		n.RTL, err = c.boolean(v)
	case "maxHeight":
		n.MaxHeight, err = c.num(v)
	case "width":
		if n.Kind == layout.KindImage {
			n.Image.Width, err = c.num(v)
			n.Width = layout.Fixed(n.Image.Width)
			break
		}
		n.Width, err = c.dimension(v)
	default:
		var ok bool
		if ok, err = c.kindProp(n, a.Key, v); err != nil || ok {
			return err
		}
		if ok, err = c.styleProp(&n.Style, a.Key, v); err == nil && !ok {
			err = fmt.Errorf("未知的属性")
		}
	}
	return err
}

// kindProp 处理只对某类节点有效的属性。
func (c *converter) kindProp(n *layout.Node, key string, v *Value) (bool, error) {
	var err error
	switch {
	case n.Kind == layout.KindColumns && key == "columnGap":
		n.ColumnGap, err = c.num(v)
	case n.List != nil:
		switch key {
		case "type":
			n.List.Type, err = c.str(v)
		case "start":
			n.List.Start, err = c.integer(v)
		case "reversed":
			n.List.Reversed, err = c.boolean(v)
		case "separator":
			n.List.Separator, err = c.str(v)
		case "markerColor":
			n.List.MarkerColor, err = c.str(v)
		default:
			return false, nil
		}
	case n.Table != nil:
		return c.tableProp(n.Table, key, v)
	case n.Image != nil:
		switch key {
		case "height":
			n.Image.Height, err = c.num(v)
		case "opacity":
			n.Image.Opacity, err = c.num(v)
		case "fit":
			var f []float64
			if f, err = c.nums(v); err == nil {
				if len(f) != 2 {
					return true, fmt.Errorf("fit 需要 [宽, 高]")
				}
				n.Image.Fit = &[2]float64{f[0], f[1]}
			}
		default:
			return false, nil
		}
	case n.QR != nil:
		switch key {
		case "fit":
			n.QR.Fit, err = c.num(v)
		case "foreground":
			n.QR.Foreground, err = c.str(v)
		case "background":
			n.QR.Background, err = c.str(v)
		default:
			return false, nil
		}
	case n.TOC != nil && key == "numberStyle":
		if v.Object == nil {
			return true, fmt.Errorf("numberStyle 需要 { ... } 形式的样式")
		}
		n.TOC.NumberStyle, err = c.style(v.Object.Entries)
	default:
		return false, nil
	}
	return true, err
}

func (c *converter) tableProp(t *layout.Table, key string, v *Value) (bool, error) {
	var err error
	switch key {
	case "widths":
		for _, item := range list(v) {
			d, derr := c.dimension(item)
			if derr != nil {
				return true, derr
			}
			t.Widths = append(t.Widths, &layout.ColumnWidth{Spec: d})
		}
	case "heights":
		if v.Array != nil {
			t.Heights.PerRow, err = c.nums(v)
		} else {
			t.Heights.Fixed, err = c.num(v)
		}
	case "headerRows":
		t.HeaderRows, err = c.integer(v)
	case "keepWithHeaderRows":
		t.KeepWithHeaderRows, err = c.integer(v)
	case "dontBreakRows":
		t.DontBreakRows, err = c.boolean(v)
	case "layout":
		t.LayoutName, err = c.str(v)
	default:
		return false, nil
	}
	return true, err
}
