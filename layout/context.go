package layout

// documentContext 跟踪当前页、光标位置与可用区域，并为列组与脱离文档流的块保存快照。
type documentContext struct {
	pages           []*Page
	margins         Margins
	page            int
	x, y            float64
	availableWidth  float64
	availableHeight float64
	lastColumnWidth float64
	endingCell      *Node
	snapshots       []*contextSnapshot

	// onPageAdded 只在根上下文上设置，不可分块使用的临时上下文不触发。
	onPageAdded func(page int)
}

type contextSnapshot struct {
	x, y            float64
	availableWidth  float64
	availableHeight float64
	page            int
	lastColumnWidth float64
	endingCell      *Node
	bottomMost      *contextSnapshot
}

func newDocumentContext(size PageSize, margins Margins) *documentContext {
	ctx := &documentContext{
		margins:        margins,
		x:              margins.Left,
		availableWidth: size.Width - margins.Left - margins.Right,
		page:           -1,
	}
	ctx.addPage(size)
	return ctx
}

func (c *documentContext) currentPage() *Page {
	if c.page < 0 || c.page >= len(c.pages) {
		return nil
	}
	return c.pages[c.page]
}

func (c *documentContext) addPage(size PageSize) *Page {
	p := &Page{Size: size, Margins: c.margins}
	c.pages = append(c.pages, p)
	c.page = len(c.pages) - 1
	c.initializePage()
	if c.onPageAdded != nil {
		c.onPageAdded(c.page)
	}
	return p
}

// pageSnapshot 返回最外层快照；页宽变化需要写到那里。
func (c *documentContext) pageSnapshot() *contextSnapshot {
	if len(c.snapshots) > 0 {
		return c.snapshots[0]
	}
	return nil
}

func (c *documentContext) initializePage() {
	size := c.currentPage().Size
	c.y = c.margins.Top
	c.availableHeight = size.Height - c.margins.Top - c.margins.Bottom
	width := size.Width - c.margins.Left - c.margins.Right
	if s := c.pageSnapshot(); s != nil {
		s.availableWidth = width
	} else {
		c.availableWidth = width
	}
}

type pageChange struct {
	newPageCreated bool
	prevPage       int
	prevY          float64
	y              float64
}

func (c *documentContext) moveToNextPage(o Orientation) pageChange {
	next := c.page + 1
	change := pageChange{prevPage: c.page, prevY: c.y}
	if next >= len(c.pages) {
		change.newPageCreated = true
		width := c.availableWidth
		current := c.currentPage().Size
		size := current.oriented(o)
		c.addPage(size)
		if current.Orientation == size.Orientation {
			c.availableWidth = width
		}
	} else {
		c.page = next
		c.initializePage()
	}
	change.y = c.y
	return change
}

func (c *documentContext) addMargin(left, right float64) {
	c.x += left
	c.availableWidth -= left + right
}

// moveDown 下移光标，返回下移后是否仍有剩余高度。
func (c *documentContext) moveDown(offset float64) bool {
	c.y += offset
	c.availableHeight -= offset
	return c.availableHeight > 0
}

func (c *documentContext) moveTo(x, y *float64) {
	size := c.currentPage().Size
	if x != nil {
		c.x = *x
		c.availableWidth = size.Width - c.x - c.margins.Right
	}
	if y != nil {
		c.y = *y
		c.availableHeight = size.Height - c.y - c.margins.Bottom
	}
}

func (c *documentContext) position() *Position {
	size := c.currentPage().Size
	return &Position{
		PageNumber:      c.page + 1,
		PageOrientation: size.Orientation,
		PageInnerWidth:  size.Width - c.margins.Left - c.margins.Right,
		PageInnerHeight: size.Height - c.margins.Top - c.margins.Bottom,
		X:               c.x,
		Y:               c.y,
	}
}

func (c *documentContext) snapshot() *contextSnapshot {
	return &contextSnapshot{
		x:               c.x,
		y:               c.y,
		availableWidth:  c.availableWidth,
		availableHeight: c.availableHeight,
		page:            c.page,
		lastColumnWidth: c.lastColumnWidth,
		endingCell:      c.endingCell,
	}
}

func (c *documentContext) beginDetachedBlock() {
	c.snapshots = append(c.snapshots, c.snapshot())
}

func (c *documentContext) endDetachedBlock() {
	s := c.popSnapshot()
	c.x, c.y = s.x, s.y
	c.availableWidth, c.availableHeight = s.availableWidth, s.availableHeight
	c.page = s.page
	c.endingCell = s.endingCell
	c.lastColumnWidth = s.lastColumnWidth
}

func (c *documentContext) popSnapshot() *contextSnapshot {
	s := c.snapshots[len(c.snapshots)-1]
	c.snapshots = c.snapshots[:len(c.snapshots)-1]
	return s
}

// beginColumnGroup 开始一组并排的列，记录组起点与目前最靠下的位置。
func (c *documentContext) beginColumnGroup() {
	s := c.snapshot()
	bottom := c.snapshot()
	s.bottomMost = bottom
	c.snapshots = append(c.snapshots, s)
	c.lastColumnWidth = 0
}

func (c *documentContext) beginColumn(width, offset float64, endingCell *Node) {
	saved := c.snapshots[len(c.snapshots)-1]
	c.calculateBottomMost(saved)
	c.endingCell = endingCell
	c.page = saved.page
	c.x = c.x + c.lastColumnWidth + offset
	c.y = saved.y
	c.availableWidth = width
	c.availableHeight = saved.availableHeight
	c.lastColumnWidth = width
}

func (c *documentContext) calculateBottomMost(dest *contextSnapshot) {
	if c.endingCell != nil {
		c.saveContextInEndingCell(c.endingCell)
		c.endingCell = nil
		return
	}
	dest.bottomMost = bottomMost(c.snapshot(), dest.bottomMost)
}

func (c *documentContext) markEnding(endingCell *Node) {
	e := endingCell.ending
	c.page = e.page
	c.x = e.x
	c.y = e.y
	c.availableWidth = e.availableWidth
	c.availableHeight = e.availableHeight
	c.lastColumnWidth = e.lastColumnWidth
}

func (c *documentContext) saveContextInEndingCell(cell *Node) {
	cell.ending = &columnEnding{
		page:            c.page,
		x:               c.x,
		y:               c.y,
		availableWidth:  c.availableWidth,
		availableHeight: c.availableHeight,
		lastColumnWidth: c.lastColumnWidth,
	}
}

// completeColumnGroup 结束列组，把光标放到各列中最靠下的位置（至少 height）。
func (c *documentContext) completeColumnGroup(height float64) {
	saved := c.popSnapshot()
	c.calculateBottomMost(saved)
	c.endingCell = nil
	c.x = saved.x
	y := saved.bottomMost.y
	if height > 0 {
		if saved.page == saved.bottomMost.page {
			if saved.y+height > y {
				y = saved.y + height
			}
		} else {
			y += height
		}
	}
	c.y = y
	c.page = saved.bottomMost.page
	c.availableWidth = saved.availableWidth
	c.availableHeight = saved.bottomMost.availableHeight
	if height > 0 {
		c.availableHeight -= y - saved.bottomMost.y
	}
	c.lastColumnWidth = saved.lastColumnWidth
}

func bottomMost(a, b *contextSnapshot) *contextSnapshot {
	var r *contextSnapshot
	switch {
	case a.page > b.page:
		r = a
	case b.page > a.page:
		r = b
	case a.y > b.y:
		r = a
	default:
		r = b
	}
	return &contextSnapshot{
		page:            r.page,
		x:               r.x,
		y:               r.y,
		availableHeight: r.availableHeight,
		availableWidth:  r.availableWidth,
	}
}
