package measure

import (
	"fmt"
	"strings"

	"github.com/ripjar/pdfmake/layout"
)

// tocIndent 是每级标题在目录中的缩进。
const tocIndent = 10

// buildTocs 收集文档中标记为 tocItem 的节点，为每个目录节点重新生成两列表格：
// 左列为条目文本，右列为目标节点的页码引用。
func (m *Measurer) buildTocs(root *layout.Node) error {
	var tocs, items []*layout.Node
	layout.Walk(root, func(n *layout.Node) {
		if n.Kind == layout.KindTOC && n.TOC != nil {
			tocs = append(tocs, n)
		}
		if n.TocItem {
			items = append(items, n)
		}
	})
	if len(tocs) == 0 {
		return nil
	}
	for i, item := range items {
		if item.ID == "" {
			item.ID = fmt.Sprintf("_toc_item_%d", i)
		}
	}

	for _, toc := range tocs {
		toc.TOC.Items = items
		body := make([][]*layout.Node, 0, len(items))
		for _, item := range items {
			title := &layout.Node{
				Kind: layout.KindText,
				Text: []layout.Span{{Text: plainText(item)}},
			}
			if item.HeadlineLevel > 1 {
				title.Margin.Left = float64(item.HeadlineLevel-1) * tocIndent
			}
			number := &layout.Node{
				Kind:  layout.KindText,
				Style: toc.TOC.NumberStyle.Merge(layout.Style{Alignment: "right"}),
				Text:  []layout.Span{{Text: "00000", PageRef: item.ID}},
			}
			body = append(body, []*layout.Node{title, number})
		}
		table := &layout.Node{
			Kind: layout.KindTable,
			Table: &layout.Table{
				Body: body,
				Widths: []*layout.ColumnWidth{
					{Spec: layout.Dimension{Kind: layout.DimStar}},
					{Spec: layout.Dimension{Kind: layout.DimAuto}},
				},
				DontBreakRows: true,
				LayoutName:    "noBorders",
			},
		}
		if err := m.resolveStyles(table, toc.TextStyle); err != nil {
			return err
		}
		toc.TOC.Table = table
	}
	return nil
}

// plainText 拼接节点子树中的全部文本。
func plainText(n *layout.Node) string {
	var sb strings.Builder
	layout.Walk(n, func(c *layout.Node) {
		for _, s := range c.Text {
			sb.WriteString(s.Text)
		}
	})
	return sb.String()
}
