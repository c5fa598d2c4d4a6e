package measure

import (
	"fmt"

	"github.com/ripjar/pdfmake/layout"
)

// prepareTable 补齐列宽声明与行长度，并用占位单元格填满 colSpan/rowSpan 覆盖的位置。
func (m *Measurer) prepareTable(n *layout.Node) error {
	t := n.Table
	if t == nil {
		return &layout.StructureError{Op: "prepareTable", Detail: fmt.Sprintf("table node %q has no table", n.ID), Index: -1}
	}
	cols := 0
	for _, row := range t.Body {
		cols = max(cols, len(row))
	}
	for len(t.Widths) < cols {
		t.Widths = append(t.Widths, &layout.ColumnWidth{Spec: layout.Dimension{Kind: layout.DimAuto}})
	}
	for r := range t.Body {
		for len(t.Body[r]) < cols {
			t.Body[r] = append(t.Body[r], nil)
		}
		for c, cell := range t.Body[r] {
			if cell == nil {
				t.Body[r][c] = &layout.Node{Kind: layout.KindText}
			}
		}
	}

	for r, row := range t.Body {
		for c := 0; c < len(row); c++ {
			cell := row[c]
			if cell.Kind == layout.KindSpan {
				continue
			}
			colSpan := max(cell.ColSpan, 1)
			if c+colSpan > cols {
				return &layout.StructureError{
					Op:     "prepareTable",
					Detail: fmt.Sprintf("col span for column %d exceeded column count", c),
					Index:  c,
				}
			}
			for j := 1; j < colSpan; j++ {
				row[c+j] = &layout.Node{Kind: layout.KindSpan, RowSpan: cell.RowSpan}
			}
			for i := 1; i < cell.RowSpan && r+i < len(t.Body); i++ {
				for j := 0; j < colSpan; j++ {
					span := &layout.Node{Kind: layout.KindSpan}
					if j == 0 {
						span.FillColor = cell.FillColor
					}
					t.Body[r+i][c+j] = span
				}
			}
			c += colSpan - 1
		}
	}
	return nil
}

type colSpanWidth struct {
	col, span          int
	minWidth, maxWidth float64
}

// measureTable 由单元格宽度汇总各列的最小/最大宽度，跨列单元格多出的宽度平均分给所跨的列。
func (m *Measurer) measureTable(n *layout.Node) {
	t := n.Table
	for _, w := range t.Widths {
		w.MinWidth, w.MaxWidth = 0, 0
	}
	layout.MeasureOffsets(n)

	var spans []colSpanWidth
	for _, row := range t.Body {
		for c, cell := range row {
			if cell.Kind == layout.KindSpan || c >= len(t.Widths) {
				continue
			}
			if cell.ColSpan > 1 {
				spans = append(spans, colSpanWidth{col: c, span: cell.ColSpan, minWidth: cell.MinWidth, maxWidth: cell.MaxWidth})
				continue
			}
			w := t.Widths[c]
			w.MinWidth = max(w.MinWidth, cell.MinWidth)
			w.MaxWidth = max(w.MaxWidth, cell.MaxWidth)
		}
	}

	for _, s := range spans {
		var curMin, curMax float64
		for i := 0; i < s.span; i++ {
			w := t.Widths[s.col+i]
			curMin += w.MinWidth
			curMax += w.MaxWidth
			if i > 0 {
				curMin += t.Offsets[s.col+i]
				curMax += t.Offsets[s.col+i]
			}
		}
		if d := s.minWidth - curMin; d > 0 {
			for i := 0; i < s.span; i++ {
				t.Widths[s.col+i].MinWidth += d / float64(s.span)
			}
		}
		if d := s.maxWidth - curMax; d > 0 {
			for i := 0; i < s.span; i++ {
				t.Widths[s.col+i].MaxWidth += d / float64(s.span)
			}
		}
	}

	minW, maxW := layout.MeasureMinMax(t.Widths)
	n.MinWidth = minW + t.OffsetsTotal
	n.MaxWidth = maxW + t.OffsetsTotal
}
