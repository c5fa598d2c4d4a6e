package measure

import (
	"fmt"

	"github.com/ripjar/pdfmake/layout"
)

// Preprocess 解析样式继承、补齐表格跨度占位并生成目录表格。
// 重复调用结果不变。
func (m *Measurer) Preprocess(root *layout.Node) (*layout.Node, error) {
	if root == nil {
		return nil, fmt.Errorf("measure: 节点为空")
	}
	if err := m.resolveStyles(root, m.base); err != nil {
		return nil, err
	}
	if err := m.buildTocs(root); err != nil {
		return nil, err
	}
	return root, nil
}

// named 依次合并样式名对应的样式，后面的优先。
func (m *Measurer) named(names []string) (layout.Style, error) {
	var out layout.Style
	for _, name := range names {
		s, ok := m.styles[name]
		if !ok {
			return out, fmt.Errorf("未定义的样式 %q", name)
		}
		out = out.Merge(s)
	}
	return out, nil
}

// resolveStyles 自上而下计算每个节点的有效样式：父节点样式、样式名、节点自身样式依次覆盖。
func (m *Measurer) resolveStyles(n *layout.Node, parent layout.Style) error {
	own, err := m.named(n.StyleNames)
	if err != nil {
		return fmt.Errorf("节点 %q: %w", n.ID, err)
	}
	n.TextStyle = parent.Merge(own).Merge(n.Style)

	for i := range n.Text {
		span := &n.Text[i]
		if len(span.StyleNames) == 0 {
			continue
		}
		s, err := m.named(span.StyleNames)
		if err != nil {
			return fmt.Errorf("文本 %q: %w", span.Text, err)
		}
		span.Style = s.Merge(span.Style)
	}

	if n.Kind == layout.KindTable {
		if err := m.prepareTable(n); err != nil {
			return err
		}
	}
	for _, c := range n.Children() {
		if c == nil {
			continue
		}
		if err := m.resolveStyles(c, n.TextStyle); err != nil {
			return err
		}
	}
	return nil
}
