package layout

import "fmt"

// processNode 按节点类型分派，负责外边距、分页指令、不可分块与绝对/相对定位。
func (b *layoutBuilder) processNode(node *Node) error {
	if b.tracking {
		b.nodes = append(b.nodes, node)
	}
	node.Positions = nil

	if node.PageBreak == PageBreakBefore {
		b.writer.moveToNextPage(node.PageOrientation)
	}
	hasMargin := node.Margin != (Margins{})
	if hasMargin {
		b.writer.ctx.moveDown(node.Margin.Top)
		b.writer.ctx.addMargin(node.Margin.Left, node.Margin.Right)
	}

	if err := b.processPlaced(node); err != nil {
		return err
	}

	if hasMargin {
		b.writer.ctx.addMargin(-node.Margin.Left, -node.Margin.Right)
		b.writer.ctx.moveDown(node.Margin.Bottom)
	}
	if node.PageBreak == PageBreakAfter {
		b.writer.moveToNextPage(node.PageOrientation)
	}
	return nil
}

func (b *layoutBuilder) processPlaced(node *Node) error {
	if node.Unbreakable {
		b.writer.beginUnbreakableBlock(0, 0)
	}
	detached := false
	if abs := node.AbsolutePosition; abs != nil {
		ctx := b.writer.ctx
		ctx.beginDetachedBlock()
		x, y := abs.X, abs.Y
		ctx.moveTo(&x, &y)
		detached = true
	}
	if rel := node.RelativePosition; rel != nil {
		ctx := b.writer.ctx
		ctx.beginDetachedBlock()
		x, y := rel.X+ctx.x, rel.Y+ctx.y
		ctx.moveTo(&x, &y)
		detached = true
	}

	var err error
	switch node.Kind {
	case KindStack:
		err = b.processVerticalContainer(node)
	case KindColumns:
		err = b.processColumns(node)
	case KindUnorderedList, KindOrderedList:
		err = b.processList(node)
	case KindTable:
		err = b.processTable(node)
	case KindText:
		err = b.processLeaf(node)
	case KindTOC:
		err = b.processToc(node)
	case KindImage:
		b.processImage(node)
	case KindCanvas:
		b.processCanvas(node)
	case KindQR:
		b.processQr(node)
	case KindSpan:
	default:
		err = unrecognizedStructure(node)
	}
	if err != nil {
		return err
	}

	if detached {
		b.writer.ctx.endDetachedBlock()
	}
	if node.Unbreakable {
		b.writer.commitUnbreakableBlock(false, 0, 0)
	}
	return nil
}

func (b *layoutBuilder) processVerticalContainer(node *Node) error {
	for _, item := range node.Stack {
		if err := b.processNode(item); err != nil {
			return err
		}
		node.Positions = append(node.Positions, item.Positions...)
	}
	return nil
}

func (b *layoutBuilder) processColumns(node *Node) error {
	available := b.writer.ctx.availableWidth
	var gaps []float64
	if node.ColumnGap != 0 {
		available -= float64(len(node.Columns)-1) * node.ColumnGap
		gaps = make([]float64, len(node.Columns))
		for i := 1; i < len(gaps); i++ {
			gaps[i] = node.ColumnGap
		}
	}
	widths := ColumnWidthsOf(node.Columns)
	buildColumnWidths(widths, available)
	positions, _, err := b.processRow(node.Columns, widths, gaps, nil, 0, 0)
	if err != nil {
		return err
	}
	node.Positions = append(node.Positions, positions...)
	return nil
}

// processRow 并排处理一行列（columns 或表格行）。
// 各列翻页时的位置按翻页前的页码合并：prevY 取最大、新页起始 y 取最小。
func (b *layoutBuilder) processRow(columns []*Node, widths []*ColumnWidth, gaps []float64, body [][]*Node, row int, height float64) ([]*Position, []*pageChange, error) {
	var (
		positions  []*Position
		pageBreaks []*pageChange
	)
	stop := b.obs.pageChanged.add(func(pc pageChange) {
		for _, d := range pageBreaks {
			if d.prevPage == pc.prevPage {
				d.prevY = max(d.prevY, pc.prevY)
				d.y = min(d.y, pc.y)
				return
			}
		}
		c := pc
		pageBreaks = append(pageBreaks, &c)
	})
	defer stop()

	gapAt := func(i int) float64 {
		if i < len(gaps) {
			return gaps[i]
		}
		return 0
	}

	b.writer.ctx.beginColumnGroup()
	for i := 0; i < len(columns); i++ {
		column := columns[i]
		if i >= len(widths) {
			return nil, nil, &StructureError{Op: "processRow", Detail: fmt.Sprintf("column %d has no width", i), Index: i}
		}
		width := widths[i].Calc
		left := gapAt(i)
		for j := 1; j < column.ColSpan; j++ {
			i++
			if i >= len(widths) {
				return nil, nil, &StructureError{Op: "processRow", Detail: fmt.Sprintf("col span for column %d exceeded column count", i-j), Index: i - j}
			}
			width += widths[i].Calc + gapAt(i)
		}

		var ending *Node
		if column.RowSpan > 1 {
			end := row + column.RowSpan - 1
			if end >= len(body) {
				return nil, nil, rowSpanExceeded(i)
			}
			if i < len(body[end]) {
				ending = body[end][i]
			}
		}

		b.writer.ctx.beginColumn(width, left, ending)
		if column.Kind != KindSpan {
			if err := b.processNode(column); err != nil {
				return nil, nil, err
			}
			positions = append(positions, column.Positions...)
		} else if column.ending != nil {
			b.writer.ctx.markEnding(column)
		}
	}
	b.writer.ctx.completeColumnGroup(height)
	return positions, pageBreaks, nil
}

// processList 为列表留出标记宽度，并在每一项的第一行放置后补画标记。
func (b *layoutBuilder) processList(node *Node) error {
	var gap float64
	if node.List != nil {
		gap = node.List.GapWidth
	}
	b.writer.ctx.addMargin(gap, 0)

	var nextMarker *Marker
	stop := b.obs.lineAdded.add(func(line *Line) {
		if nextMarker == nil {
			return
		}
		marker := nextMarker
		nextMarker = nil
		switch {
		case marker.Vector != nil:
			marker.Vector.offset(-marker.Width, 0)
			b.writer.addVector(marker.Vector, false, false, -1)
		case len(marker.Runs) > 0:
			ml := newLine(b.writer.ctx.currentPage().Size.Width)
			ml.addRun(marker.Runs[0])
			ml.X = -marker.Width
			ml.Y = line.AscenderHeight() - ml.AscenderHeight()
			b.writer.addLine(ml, true, -1)
		}
	})
	defer stop()

	for _, item := range node.Items {
		nextMarker = item.Marker
		if err := b.processNode(item); err != nil {
			return err
		}
		node.Positions = append(node.Positions, item.Positions...)
	}
	b.writer.ctx.addMargin(-gap, 0)
	return nil
}

func (b *layoutBuilder) processTable(node *Node) error {
	t := node.Table
	if len(t.Body) == 0 {
		return nil
	}
	p := newTableProcessor(node, b.writer, b.obs)
	p.beginTable()
	for i, row := range t.Body {
		p.beginRow(i)
		positions, breaks, err := b.processRow(row, t.Widths, t.Offsets, t.Body, i, t.Heights.height(i))
		if err != nil {
			return err
		}
		node.Positions = append(node.Positions, positions...)
		p.endRow(i, breaks)
	}
	p.endTable()
	return nil
}

// processLeaf 逐行放置文本；设置了 MaxHeight 时超出部分不再输出。
func (b *layoutBuilder) processLeaf(node *Node) error {
	line, err := b.buildNextLine(node)
	if err != nil {
		return err
	}
	var height float64
	if line != nil {
		height = line.Height()
	}
	for line != nil && (node.MaxHeight <= 0 || height < node.MaxHeight) {
		if pos := b.writer.addLine(line, false, -1); pos != nil {
			node.Positions = append(node.Positions, pos)
		}
		if line, err = b.buildNextLine(node); err != nil {
			return err
		}
		if line != nil {
			height += line.Height()
		}
	}
	return nil
}

func (b *layoutBuilder) processToc(node *Node) error {
	if node.TOC.Title != nil {
		if err := b.processNode(node.TOC.Title); err != nil {
			return err
		}
	}
	if node.TOC.Table != nil {
		return b.processNode(node.TOC.Table)
	}
	return nil
}

func (b *layoutBuilder) processImage(node *Node) {
	if pos := b.writer.addImage(node); pos != nil {
		node.Positions = append(node.Positions, pos)
	}
}

func (b *layoutBuilder) processCanvas(node *Node) {
	height := node.MinHeight
	if node.AbsolutePosition == nil && b.writer.ctx.availableHeight < height {
		b.writer.moveToNextPage(OrientationUnset)
	}
	if offset := alignOffset(node.TextStyle.Alignment, b.writer.ctx.availableWidth, node.MinWidth); offset != 0 {
		for _, v := range node.Canvas {
			v.offset(offset, 0)
		}
	}
	for _, v := range node.Canvas {
		if pos := b.writer.addVector(v, false, false, -1); pos != nil {
			node.Positions = append(node.Positions, pos)
		}
	}
	b.writer.ctx.moveDown(height)
}

func (b *layoutBuilder) processQr(node *Node) {
	if pos := b.writer.addQr(node); pos != nil {
		node.Positions = append(node.Positions, pos)
	}
}
