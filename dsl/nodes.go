package dsl

import (
	"fmt"
	"strings"

	"github.com/ripjar/pdfmake/binding"
	"github.com/ripjar/pdfmake/layout"
)

// split 把块内语句分成赋值与其余语句。
func split(b *Block) (props []*Assignment, rest []*Statement) {
	if b == nil {
		return nil, nil
	}
	for _, st := range b.Statements {
		if st.Assignment != nil {
			props = append(props, st.Assignment)
			continue
		}
		rest = append(rest, st)
	}
	return props, rest
}

// container 把一个块转换为单个节点：只有一个子节点且没有属性时直接返回它，否则包成 stack。
func (c *converter) container(b *Block) (*layout.Node, error) {
	props, rest := split(b)
	children, err := c.nodes(rest)
	if err != nil {
		return nil, err
	}
	if len(children) == 1 && len(props) == 0 {
		return children[0], nil
	}
	n := &layout.Node{Kind: layout.KindStack, Stack: children}
	return n, c.props(n, props)
}

// nodes 转换一组语句。pageBreak 作用于其后的第一个节点，each 按数据重复其块内内容。
func (c *converter) nodes(stmts []*Statement) ([]*layout.Node, error) {
	var (
		out     []*layout.Node
		pending *layout.Node
	)
	attach := func(nodes []*layout.Node) {
		if pending != nil && len(nodes) > 0 {
			nodes[0].PageBreak = layout.PageBreakBefore
			nodes[0].PageOrientation = pending.PageOrientation
			pending = nil
		}
		out = append(out, nodes...)
	}
	for _, st := range stmts {
		switch {
		case st.Text != nil:
			attach([]*layout.Node{{Kind: layout.KindText, Text: []layout.Span{{Text: c.interpolate(string(st.Text.Value))}}}})
		case st.Assignment != nil:
			return nil, errorf(st.Assignment.Pos, "此处不能设置属性 %s", st.Assignment.Key)
		case st.Command.Name == "pageBreak":
			pending = &layout.Node{}
			if len(st.Command.Args) > 0 {
				o, err := orientation(st.Command.Args[0].Value)
				if err != nil {
					return nil, errorf(st.Command.Pos, "%w", err)
				}
				pending.PageOrientation = o
			}
		case st.Command.Name == "each":
			var expanded []*layout.Node
			err := c.each(st.Command, func(inner *converter) error {
				_, rest := split(st.Command.Block)
				nodes, err := inner.nodes(rest)
				expanded = append(expanded, nodes...)
				return err
			})
			if err != nil {
				return nil, err
			}
			attach(expanded)
		default:
			n, err := c.node(st.Command)
			if err != nil {
				return nil, err
			}
			attach([]*layout.Node{n})
		}
	}
	return out, nil
}

// each 处理 `each items as item { ... }`：对路径指向的数组逐项执行 body，
// 作用域中 item（或 as 指定的名字）为当前元素，index 为下标。
func (c *converter) each(cmd *Command, body func(*converter) error) error {
	var (
		path strings.Builder
		name = "item"
	)
	for i := 0; i < len(cmd.Args); i++ {
		a := cmd.Args[i]
		if a.Value == "as" && a.Type == "Ident" && i+1 < len(cmd.Args) {
			name = cmd.Args[i+1].Value
			break
		}
		path.WriteString(a.Raw)
	}
	if path.Len() == 0 || cmd.Block == nil {
		return errorf(cmd.Pos, "each 需要数据路径与内容块")
	}
	items, err := binding.Items(path.String(), c.all()...)
	if err != nil {
		return errorf(cmd.Pos, "%w", err)
	}
	for i, item := range items {
		if err := body(c.with(map[string]any{name: item, "index": i})); err != nil {
			return err
		}
	}
	return nil
}

// stringArgs 返回命令的字符串参数，其他类型的参数报错。
func (c *converter) stringArgs(cmd *Command) ([]string, error) {
	var out []string
	for _, a := range cmd.Args {
		if a.Type != "String" {
			return nil, errorf(a.Pos, "%s 只接受字符串参数，实际 %s", cmd.Name, a.Raw)
		}
		out = append(out, c.interpolate(a.Value))
	}
	return out, nil
}

func (c *converter) node(cmd *Command) (*layout.Node, error) {
	props, rest := split(cmd.Block)
	n := &layout.Node{}
	var err error
	switch cmd.Name {
	case "text":
		n.Kind = layout.KindText
		err = c.textContent(n, cmd, rest)
	case "stack":
		n.Kind = layout.KindStack
		n.Stack, err = c.nodes(rest)
	case "columns":
		n.Kind = layout.KindColumns
		n.Columns, err = c.nodes(rest)
	case "ul", "ol":
		n.Kind = layout.KindUnorderedList
		if cmd.Name == "ol" {
			n.Kind = layout.KindOrderedList
		}
		n.List = &layout.ListStyle{}
		n.Items, err = c.nodes(rest)
	case "table":
		n.Kind = layout.KindTable
		n.Table = &layout.Table{}
		n.Table.Body, err = c.rows(rest)
	case "image":
		n.Kind = layout.KindImage
		n.Image = &layout.Image{}
		err = c.single(cmd, rest, &n.Image.Src)
	case "qr":
		n.Kind = layout.KindQR
		n.QR = &layout.QR{}
		err = c.single(cmd, rest, &n.QR.Value)
	case "canvas":
		n.Kind = layout.KindCanvas
		n.Canvas, err = c.vectors(rest)
	case "toc":
		n.Kind = layout.KindTOC
		n.TOC = &layout.TOC{}
		err = c.tocContent(n.TOC, rest)
	case "empty":
		n.Kind = layout.KindText
		if len(rest) > 0 {
			err = errorf(cmd.Pos, "empty 不能包含内容")
		}
	default:
		return nil, errorf(cmd.Pos, "未知的命令 %s", cmd.Name)
	}
	if err != nil {
		return nil, err
	}
	if err := c.props(n, props); err != nil {
		return nil, err
	}
	return n, nil
}

// single 读取 image/qr 的唯一字符串参数，块内不能有子内容。
func (c *converter) single(cmd *Command, rest []*Statement, dst *string) error {
	args, err := c.stringArgs(cmd)
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return errorf(cmd.Pos, "%s 需要一个字符串参数", cmd.Name)
	}
	if len(rest) > 0 {
		return errorf(cmd.Pos, "%s 不能包含子内容", cmd.Name)
	}
	*dst = args[0]
	return nil
}

// textContent 收集文本：字符串参数、文本字面量与 span 子块依次成为 span。
func (c *converter) textContent(n *layout.Node, cmd *Command, rest []*Statement) error {
	args, err := c.stringArgs(cmd)
	if err != nil {
		return err
	}
	for _, s := range args {
		n.Text = append(n.Text, layout.Span{Text: s})
	}
	for _, st := range rest {
		switch {
		case st.Text != nil:
			n.Text = append(n.Text, layout.Span{Text: c.interpolate(string(st.Text.Value))})
		case st.Command.Name == "span":
			span, err := c.span(st.Command)
			if err != nil {
				return err
			}
			n.Text = append(n.Text, span)
		default:
			return errorf(st.Command.Pos, "text 中只能包含字符串与 span，实际 %s", st.Command.Name)
		}
	}
	return nil
}

func (c *converter) span(cmd *Command) (layout.Span, error) {
	var span layout.Span
	args, err := c.stringArgs(cmd)
	if err != nil {
		return span, err
	}
	var sb strings.Builder
	for _, s := range args {
		sb.WriteString(s)
	}
	props, rest := split(cmd.Block)
	for _, st := range rest {
		if st.Text == nil {
			return span, errorf(st.Command.Pos, "span 中只能包含字符串")
		}
		sb.WriteString(c.interpolate(string(st.Text.Value)))
	}
	span.Text = sb.String()
	for _, a := range props {
		var err error
		switch a.Key {
		case "style":
			span.StyleNames, err = c.strs(a.Value)
		case "pageReference":
			span.PageRef, err = c.str(a.Value)
		case "inlineRtl":
			span.InlineRTL, err = c.boolean(a.Value)
		default:
			var ok bool
			if ok, err = c.styleProp(&span.Style, a.Key, a.Value); err == nil && !ok {
				err = fmt.Errorf("未知的属性")
			}
		}
		if err != nil {
			return span, errorf(a.Pos, "span.%s: %w", a.Key, err)
		}
	}
	return span, nil
}

// rows 读取 `row { ... }`，每个子节点为一个单元格；each 可按数据生成多行。
func (c *converter) rows(stmts []*Statement) ([][]*layout.Node, error) {
	var out [][]*layout.Node
	for _, st := range stmts {
		if st.Command == nil {
			return nil, errorf(st.Text.Pos, "table 中只能包含 row")
		}
		switch st.Command.Name {
		case "row":
			props, rest := split(st.Command.Block)
			if len(props) > 0 {
				return nil, errorf(props[0].Pos, "row 不支持属性 %s", props[0].Key)
			}
			cells, err := c.nodes(rest)
			if err != nil {
				return nil, err
			}
			out = append(out, cells)
		case "each":
			err := c.each(st.Command, func(inner *converter) error {
				_, rest := split(st.Command.Block)
				rows, err := inner.rows(rest)
				out = append(out, rows...)
				return err
			})
			if err != nil {
				return nil, err
			}
		default:
			return nil, errorf(st.Command.Pos, "table 中只能包含 row，实际 %s", st.Command.Name)
		}
	}
	return out, nil
}

func (c *converter) tocContent(toc *layout.TOC, stmts []*Statement) error {
	for _, st := range stmts {
		if st.Command == nil || st.Command.Name != "title" {
			return fmt.Errorf("dsl: toc 中只能包含 title 块")
		}
		title, err := c.container(st.Command.Block)
		if err != nil {
			return err
		}
		toc.Title = title
	}
	return nil
}

// vectors 读取画布中的 rect/line/polyline/ellipse。
func (c *converter) vectors(stmts []*Statement) ([]*layout.Vector, error) {
	kinds := map[string]layout.VectorKind{
		"rect":     layout.VectorRect,
		"line":     layout.VectorLine,
		"polyline": layout.VectorPolyline,
		"ellipse":  layout.VectorEllipse,
	}
	var out []*layout.Vector
	for _, st := range stmts {
		if st.Command == nil {
			return nil, errorf(st.Text.Pos, "canvas 中只能包含图形")
		}
		kind, ok := kinds[st.Command.Name]
		if !ok {
			return nil, errorf(st.Command.Pos, "未知的图形 %s", st.Command.Name)
		}
		entries, err := assignments(st.Command.Block, st.Command.Name)
		if err != nil {
			return nil, err
		}
		v := &layout.Vector{Kind: kind}
		for _, a := range entries {
			if err := c.vectorProp(v, a); err != nil {
				return nil, errorf(a.Pos, "%s.%s: %w", st.Command.Name, a.Key, err)
			}
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *converter) vectorProp(v *layout.Vector, a *Assignment) error {
	var err error
	fields := map[string]*float64{
		"x": &v.X, "y": &v.Y, "w": &v.W, "h": &v.H, "r": &v.R, "r1": &v.R1, "r2": &v.R2,
		"x1": &v.X1, "y1": &v.Y1, "x2": &v.X2, "y2": &v.Y2,
		"lineWidth": &v.LineWidth, "opacity": &v.Opacity,
	}
	if dst, ok := fields[a.Key]; ok {
		*dst, err = c.num(a.Value)
		return err
	}
	switch a.Key {
	case "color":
		v.Color, err = c.str(a.Value)
	case "lineColor":
		v.LineColor, err = c.str(a.Value)
	case "dash":
		v.Dash, err = c.nums(a.Value)
	case "closed":
		v.Closed, err = c.boolean(a.Value)
	case "points":
		for _, p := range list(a.Value) {
			pt, perr := c.point(p)
			if perr != nil {
				return perr
			}
			v.Points = append(v.Points, *pt)
		}
	default:
		err = fmt.Errorf("未知的属性")
	}
	return err
}
