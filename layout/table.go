package layout

// Table 是表格节点的内容。Body 中被 colSpan/rowSpan 覆盖的位置由测量阶段填入 KindSpan 占位单元格。
type Table struct {
	Body               [][]*Node      `json:"body"`
	Widths             []*ColumnWidth `json:"widths"`
	Heights            RowHeights     `json:"-"`
	HeaderRows         int            `json:"headerRows,omitempty"`
	KeepWithHeaderRows int            `json:"keepWithHeaderRows,omitempty"`
	DontBreakRows      bool           `json:"dontBreakRows,omitempty"`
	// LayoutName 为具名布局（noBorders、headerLineOnly、lightHorizontalLines），Layout 优先。
	LayoutName string       `json:"layout,omitempty"`
	Layout     *TableLayout `json:"-"`

	// Offsets 为各列左侧的边框与内边距，OffsetsTotal 为全部边框与内边距之和，由测量阶段填写。
	Offsets      []float64 `json:"offsets,omitempty"`
	OffsetsTotal float64   `json:"offsetsTotal,omitempty"`
}

func (t *Table) clone() *Table {
	c := *t
	c.Body = make([][]*Node, len(t.Body))
	for i, row := range t.Body {
		c.Body[i] = cloneNodes(row)
	}
	c.Widths = make([]*ColumnWidth, len(t.Widths))
	for i, w := range t.Widths {
		cw := *w
		c.Widths[i] = &cw
	}
	c.Heights.PerRow = append([]float64(nil), t.Heights.PerRow...)
	c.Offsets = append([]float64(nil), t.Offsets...)
	return &c
}

// RowHeights 是行高设置：统一值、逐行值或按行号计算，三者取第一个设置的；0 表示自动。
type RowHeights struct {
	Fixed  float64
	PerRow []float64
	Func   func(row int) float64
}

func (h RowHeights) height(row int) float64 {
	switch {
	case h.Func != nil:
		return h.Func(row)
	case h.PerRow != nil:
		if row < len(h.PerRow) {
			return h.PerRow[row]
		}
		return 0
	}
	return h.Fixed
}

// TableLayout 描述表格边框与内边距；未设置的函数使用默认布局。
type TableLayout struct {
	HLineWidth    func(i int, node *Node) float64
	VLineWidth    func(i int, node *Node) float64
	HLineColor    func(i int, node *Node) string
	VLineColor    func(i int, node *Node) string
	PaddingLeft   func(i int, node *Node) float64
	PaddingRight  func(i int, node *Node) float64
	PaddingTop    func(i int, node *Node) float64
	PaddingBottom func(i int, node *Node) float64
	// FillColor 返回整行的底色，单元格自己的 FillColor 优先。
	FillColor       func(row int, node *Node) string
	DefaultBorder   Flag
	HLineWhenBroken Flag
}

func constWidth(v float64) func(int, *Node) float64 {
	return func(int, *Node) float64 { return v }
}

func constColor(c string) func(int, *Node) string {
	return func(int, *Node) string { return c }
}

func innerPaddingLeft(i int, _ *Node) float64 {
	if i == 0 {
		return 0
	}
	return 4
}

func innerPaddingRight(i int, node *Node) float64 {
	if i < len(node.Table.Widths)-1 {
		return 4
	}
	return 0
}

// TableLayouts 是内置的具名表格布局。
var TableLayouts = map[string]*TableLayout{
	"noBorders": {
		HLineWidth:   constWidth(0),
		VLineWidth:   constWidth(0),
		PaddingLeft:  innerPaddingLeft,
		PaddingRight: innerPaddingRight,
	},
	"headerLineOnly": {
		HLineWidth: func(i int, node *Node) float64 {
			if i == 0 || i == len(node.Table.Body) {
				return 0
			}
			if i == node.Table.HeaderRows {
				return 2
			}
			return 0
		},
		VLineWidth:   constWidth(0),
		PaddingLeft:  innerPaddingLeft,
		PaddingRight: innerPaddingRight,
	},
	"lightHorizontalLines": {
		HLineWidth: func(i int, node *Node) float64 {
			if i == 0 || i == len(node.Table.Body) {
				return 0
			}
			if i == node.Table.HeaderRows {
				return 2
			}
			return 1
		},
		VLineWidth: constWidth(0),
		HLineColor: func(i int, _ *Node) string {
			if i == 1 {
				return "black"
			}
			return "#aaa"
		},
		PaddingLeft:  innerPaddingLeft,
		PaddingRight: innerPaddingRight,
	},
}

// ResolveLayout 返回表格实际使用的布局，未设置的部分取默认值。
func (t *Table) ResolveLayout() *TableLayout {
	l := TableLayout{}
	if t.Layout != nil {
		l = *t.Layout
	} else if named, ok := TableLayouts[t.LayoutName]; ok {
		l = *named
	}
	if l.HLineWidth == nil {
		l.HLineWidth = constWidth(1)
	}
	if l.VLineWidth == nil {
		l.VLineWidth = constWidth(1)
	}
	if l.HLineColor == nil {
		l.HLineColor = constColor("black")
	}
	if l.VLineColor == nil {
		l.VLineColor = constColor("black")
	}
	if l.PaddingLeft == nil {
		l.PaddingLeft = constWidth(4)
	}
	if l.PaddingRight == nil {
		l.PaddingRight = constWidth(4)
	}
	if l.PaddingTop == nil {
		l.PaddingTop = constWidth(2)
	}
	if l.PaddingBottom == nil {
		l.PaddingBottom = constWidth(2)
	}
	if l.FillColor == nil {
		l.FillColor = func(int, *Node) string { return "" }
	}
	if l.DefaultBorder == Unset {
		l.DefaultBorder = On
	}
	if l.HLineWhenBroken == Unset {
		l.HLineWhenBroken = On
	}
	return &l
}

// MeasureOffsets 计算各列左侧偏移（上一列右内边距 + 竖线 + 本列左内边距）与总偏移。
func MeasureOffsets(node *Node) {
	t := node.Table
	layout := t.ResolveLayout()
	t.Offsets = make([]float64, len(t.Widths))
	var total, prevRight float64
	for i := range t.Widths {
		off := prevRight + layout.VLineWidth(i, node) + layout.PaddingLeft(i, node)
		t.Offsets[i] = off
		total += off
		prevRight = layout.PaddingRight(i, node)
	}
	total += prevRight + layout.VLineWidth(len(t.Widths), node)
	t.OffsetsTotal = total
}

type rowSpanSlot struct {
	left    float64
	width   float64
	rowSpan int
}

// tableProcessor 负责表格的边框、底色、表头重复与行内分页。
type tableProcessor struct {
	node   *Node
	table  *Table
	layout *TableLayout
	writer *pageWriter
	obs    *observers

	rowSpanData []rowSpanSlot
	borders     [][][4]bool
	// spanCols 记录被 rowSpan 覆盖且起始单元格带 colSpan 的位置。
	spanCols map[[2]int]int

	headerRows           int
	rowsWithoutPageBreak int
	dontBreakRows        bool
	cleanUpRepeatables   bool
	headerRepeatable     *repeatable

	topLineWidth     float64
	rowPaddingTop    float64
	bottomLineWidth  float64
	rowPaddingBottom float64
	reservedAtBottom float64
	rowTopY          float64
	stopRowBreak     func()
}

func newTableProcessor(node *Node, w *pageWriter, obs *observers) *tableProcessor {
	return &tableProcessor{
		node:     node,
		table:    node.Table,
		layout:   node.Table.ResolveLayout(),
		writer:   w,
		obs:      obs,
		spanCols: map[[2]int]int{},
	}
}

func (p *tableProcessor) beginTable() {
	w := p.writer
	t := p.table
	buildColumnWidths(t.Widths, w.ctx.availableWidth-t.OffsetsTotal)

	p.prepareRowSpanData()
	p.headerRows = t.HeaderRows
	p.rowsWithoutPageBreak = p.headerRows + t.KeepWithHeaderRows
	p.dontBreakRows = t.DontBreakRows
	if p.rowsWithoutPageBreak > 0 {
		w.beginUnbreakableBlock(0, 0)
	}
	p.prepareCellBorders()
	p.drawHorizontalLine(0, nil)
}

func (p *tableProcessor) prepareRowSpanData() {
	t := p.table
	p.rowSpanData = []rowSpanSlot{{}}
	var x float64
	if len(t.Body) == 0 {
		return
	}
	for i := range t.Body[0] {
		width := p.layout.PaddingLeft(i, p.node) + p.layout.PaddingRight(i, p.node) + p.layout.VLineWidth(i, p.node)
		if i < len(t.Widths) {
			width += t.Widths[i].Calc
		}
		p.rowSpanData[len(p.rowSpanData)-1].width = width
		x += width
		p.rowSpanData = append(p.rowSpanData, rowSpanSlot{left: x})
	}
}

// prepareCellBorders 把跨行跨列单元格的右、下边框（以及内部的左、上边框）写到被覆盖的单元格上，
// 画线时只需看单个单元格。
func (p *tableProcessor) prepareCellBorders() {
	body := p.table.Body
	def := p.layout.DefaultBorder.Bool()
	p.borders = make([][][4]bool, len(body))
	for r, row := range body {
		p.borders[r] = make([][4]bool, len(row))
		for c, cell := range row {
			if cell.Border != nil {
				p.borders[r][c] = *cell.Border
			} else {
				p.borders[r][c] = [4]bool{def, def, def, def}
			}
		}
	}
	set := func(r, c, side int, v bool) {
		if r < len(p.borders) && c < len(p.borders[r]) {
			p.borders[r][c][side] = v
		}
	}
	for r, row := range body {
		for c, cell := range row {
			if cell.Border == nil {
				continue
			}
			rowSpan := max(cell.RowSpan, 1)
			colSpan := max(cell.ColSpan, 1)
			for ro := 0; ro < rowSpan; ro++ {
				if ro > 0 {
					set(r+ro, c, 0, cell.Border[0])
				}
				set(r+ro, c+colSpan-1, 2, cell.Border[2])
			}
			for co := 0; co < colSpan; co++ {
				if co > 0 {
					set(r, c+co, 1, cell.Border[1])
				}
				set(r+rowSpan-1, c+co, 3, cell.Border[3])
			}
		}
	}
}

func (p *tableProcessor) border(r, c, side int) bool {
	if r < 0 || r >= len(p.borders) || c < 0 || c >= len(p.borders[r]) {
		return p.layout.DefaultBorder.Bool()
	}
	return p.borders[r][c][side]
}

func (p *tableProcessor) beginRow(row int) {
	w := p.writer
	p.topLineWidth = p.layout.HLineWidth(row, p.node)
	p.rowPaddingTop = p.layout.PaddingTop(row, p.node)
	p.bottomLineWidth = p.layout.HLineWidth(row+1, p.node)
	p.rowPaddingBottom = p.layout.PaddingBottom(row, p.node)

	p.stopRowBreak = p.obs.pageChanged.add(func(pageChange) {
		offset := p.rowPaddingTop
		if p.headerRows == 0 {
			offset += p.topLineWidth
		}
		p.writer.ctx.availableHeight -= p.reservedAtBottom
		p.writer.ctx.moveDown(offset)
	})
	if p.dontBreakRows {
		w.beginUnbreakableBlock(0, 0)
	}
	p.rowTopY = w.ctx.y
	p.reservedAtBottom = p.bottomLineWidth + p.rowPaddingBottom
	w.ctx.availableHeight -= p.reservedAtBottom
	w.ctx.moveDown(p.rowPaddingTop)
}

// drawHorizontalLine 画第 lineIndex 条横线，相邻且都需要边框的单元格合并为一段。
// overrideY 非 nil 时画在该位置且不考虑上下文的 y。
func (p *tableProcessor) drawHorizontalLine(lineIndex int, overrideY *float64) {
	w := p.writer
	lineWidth := p.layout.HLineWidth(lineIndex, p.node)
	if lineWidth == 0 {
		return
	}
	body := p.table.Body
	offset := lineWidth / 2
	var y float64
	if overrideY != nil {
		y = *overrideY
	}
	y += offset

	var open bool
	var left, width float64
	l := len(p.rowSpanData)
	for i, data := range p.rowSpanData {
		draw := data.rowSpan == 0
		if draw && i < l-1 {
			var top, bottom bool
			if lineIndex > 0 {
				bottom = p.border(lineIndex-1, i, 3)
			}
			if lineIndex < len(body) {
				top = p.border(lineIndex, i, 1)
			}
			draw = top || bottom
		}
		if !open && draw {
			open = true
			left, width = data.left, 0
		}
		if draw {
			width += data.width
		}
		if (!draw || i == l-1) && open {
			if width > 0 {
				w.addVector(&Vector{
					Kind:      VectorLine,
					X1:        left,
					X2:        left + width,
					Y1:        y,
					Y2:        y,
					LineWidth: lineWidth,
					LineColor: p.layout.HLineColor(lineIndex, p.node),
				}, false, overrideY != nil, -1)
			}
			open = false
		}
	}
	w.ctx.moveDown(lineWidth)
}

func (p *tableProcessor) drawVerticalLine(x, y0, y1 float64, index int) {
	width := p.layout.VLineWidth(index, p.node)
	if width == 0 {
		return
	}
	p.writer.addVector(&Vector{
		Kind:      VectorLine,
		X1:        x + width/2,
		X2:        x + width/2,
		Y1:        y0,
		Y2:        y1,
		LineWidth: width,
		LineColor: p.layout.VLineColor(index, p.node),
	}, false, true, -1)
}

type lineX struct {
	x     float64
	index int
}

func (p *tableProcessor) lineXs(row int) []lineX {
	var out []lineX
	cols := 0
	for i, cell := range p.table.Body[row] {
		if cols == 0 {
			out = append(out, lineX{x: p.rowSpanData[i].left, index: i})
			if n, ok := p.spanCols[[2]int{row, i}]; ok {
				cols = n
			} else {
				cols = cell.ColSpan
			}
		}
		if cols > 0 {
			cols--
		}
	}
	last := len(p.rowSpanData) - 1
	return append(out, lineX{x: p.rowSpanData[last].left, index: last})
}

type rowSegment struct {
	y0, y1 float64
	page   int
}

// endRow 画出本行在每个页面片段上的竖线与底色，再画下边线；
// 表头行结束时登记为每页重复的内容。
func (p *tableProcessor) endRow(row int, pageBreaks []*pageChange) {
	w := p.writer
	ctx := w.ctx
	p.stopRowBreak()
	ctx.moveDown(p.layout.PaddingBottom(row, p.node))
	ctx.availableHeight += p.reservedAtBottom

	endingPage := ctx.page
	endingY := ctx.y
	xs := p.lineXs(row)
	body := p.table.Body

	first := rowSegment{y0: p.rowTopY, page: endingPage}
	if len(pageBreaks) > 0 {
		first.page = pageBreaks[0].prevPage
	}
	ys := []rowSegment{first}
	for _, pb := range pageBreaks {
		ys[len(ys)-1].y1 = pb.prevY
		ys = append(ys, rowSegment{y0: pb.y, page: pb.prevPage + 1})
	}
	ys[len(ys)-1].y1 = endingY

	start := 0
	if ys[0].y1-ys[0].y0 == p.rowPaddingTop {
		start = 1
	}
	for yi := start; yi < len(ys); yi++ {
		willBreak := yi < len(ys)-1
		breakWithoutHeader := yi > 0 && p.headerRows == 0
		hzLineOffset := p.topLineWidth
		if breakWithoutHeader {
			hzLineOffset = 0
		}
		y1 := ys[yi].y0
		y2 := ys[yi].y1
		if willBreak {
			y2 += p.rowPaddingBottom
		}
		if ctx.page != ys[yi].page {
			ctx.page = ys[yi].page
			p.reservedAtBottom = 0
		}

		for i, lx := range xs {
			col := lx.index
			var leftBorder, rightBorder bool
			if col < len(body[row]) {
				leftBorder = p.border(row, col, 0)
				rightBorder = p.border(row, col, 2)
			}
			if col > 0 && !leftBorder {
				leftBorder = p.border(row, col-1, 2)
			}
			if col+1 < len(body[row]) && !rightBorder {
				rightBorder = p.border(row, col+1, 0)
			}
			if leftBorder {
				p.drawVerticalLine(lx.x, y1-hzLineOffset, y2+p.bottomLineWidth, col)
			}
			if i < len(xs)-1 {
				p.fillCell(row, col, lx, xs[i+1], leftBorder, rightBorder, y1, y2, hzLineOffset)
			}
		}

		if willBreak && p.layout.HLineWhenBroken.Bool() {
			p.drawHorizontalLine(row+1, &y2)
		}
		if breakWithoutHeader && p.layout.HLineWhenBroken.Bool() {
			p.drawHorizontalLine(row, &y1)
		}
	}

	ctx.page = endingPage
	ctx.y = endingY

	for i, cell := range body[row] {
		if cell.RowSpan > 0 {
			p.rowSpanData[i].rowSpan = cell.RowSpan
			if cell.ColSpan > 1 {
				for j := 1; j < cell.RowSpan; j++ {
					p.spanCols[[2]int{row + j, i}] = cell.ColSpan
				}
			}
		}
		if p.rowSpanData[i].rowSpan > 0 {
			p.rowSpanData[i].rowSpan--
		}
	}

	p.drawHorizontalLine(row+1, nil)

	if p.headerRows > 0 && row == p.headerRows-1 {
		p.headerRepeatable = w.currentBlockToRepeatable()
	}

	if p.dontBreakRows {
		stop := p.obs.pageChanged.add(func(pageChange) {
			p.drawHorizontalLine(row, nil)
		})
		w.commitUnbreakableBlock(false, 0, 0)
		stop()
	}

	if p.headerRepeatable != nil && (row == p.rowsWithoutPageBreak-1 || row == len(body)-1) {
		w.commitUnbreakableBlock(false, 0, 0)
		w.pushToRepeatables(p.headerRepeatable)
		p.cleanUpRepeatables = true
		p.headerRepeatable = nil
	}
}

func (p *tableProcessor) fillCell(row, col int, left, right lineX, leftBorder, rightBorder bool, y1, y2, hzLineOffset float64) {
	cell := p.table.Body[row][col]
	fill := cell.FillColor
	if fill == "" {
		fill = p.layout.FillColor(row, p.node)
	}
	if fill == "" {
		return
	}
	ncols := len(p.table.Body[row])
	var leftWidth float64
	if leftBorder {
		leftWidth = p.layout.VLineWidth(col, p.node)
	}
	var rightWidth float64
	switch {
	case (col == 0 || col+1 == ncols) && !rightBorder:
		rightWidth = p.layout.VLineWidth(col+1, p.node)
	case rightBorder:
		rightWidth = p.layout.VLineWidth(col+1, p.node) / 2
	}
	x1 := left.x + leftWidth/2
	top := y1 - hzLineOffset/2
	bottom := y2 + p.bottomLineWidth/2
	if p.dontBreakRows {
		x1 = left.x + leftWidth
		top = y1
		bottom = y2 + p.bottomLineWidth
	}
	x2 := right.x + rightWidth
	ctx := p.writer.ctx
	p.writer.addVector(&Vector{
		Kind:  VectorRect,
		X:     x1,
		Y:     top,
		W:     x2 - x1,
		H:     bottom - top,
		Color: fill,
	}, false, true, ctx.currentPage().BackgroundLength)
}

func (p *tableProcessor) endTable() {
	if p.cleanUpRepeatables {
		p.writer.popFromRepeatables()
	}
}
