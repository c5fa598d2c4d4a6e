package layout

import "math"

// hooks 是按注册顺序调用的回调列表，add 返回注销函数。
type hooks[T any] struct {
	next    int
	entries []hookEntry[T]
}

type hookEntry[T any] struct {
	id int
	fn func(T)
}

func (h *hooks[T]) add(fn func(T)) func() {
	h.next++
	id := h.next
	h.entries = append(h.entries, hookEntry[T]{id: id, fn: fn})
	return func() {
		for i, e := range h.entries {
			if e.id == id {
				h.entries = append(h.entries[:i], h.entries[i+1:]...)
				return
			}
		}
	}
}

func (h *hooks[T]) emit(v T) {
	entries := append([]hookEntry[T](nil), h.entries...)
	for _, e := range entries {
		e.fn(v)
	}
}

// observers 由编排器持有：分页（pageChanged）与新增行（lineAdded）。
type observers struct {
	pageChanged hooks[pageChange]
	lineAdded   hooks[*Line]
}

// fragment 是从临时上下文中取出的一组元素，整体放置到目标页。
type fragment struct {
	items   []Item
	xOffset float64
	yOffset float64
	height  float64
}

// repeatable 是每页重复的表头行。
type repeatable struct {
	fragment
	insertedOnPages map[int]bool
}

// pageWriter 是渲染面：把行、矢量、图片放到当前页，空间不足时翻页。
type pageWriter struct {
	ctx         *documentContext
	stack       []*documentContext
	repeatables []*repeatable
	obs         *observers

	transactionLevel int
	originalX        float64
	// pending 收集不可分块内记录的位置，提交时换算到目标页。
	pending []*Position
}

func newPageWriter(ctx *documentContext, obs *observers) *pageWriter {
	return &pageWriter{ctx: ctx, obs: obs}
}

func (w *pageWriter) record(p *Position) *Position {
	if w.transactionLevel > 0 {
		w.pending = append(w.pending, p)
	}
	return p
}

// addLine 放置一行；当前页放不下时翻页重试，仍放不下则强制放在新页。
func (w *pageWriter) addLine(line *Line, dontUpdatePosition bool, index int) *Position {
	if p := w.tryAddLine(line, dontUpdatePosition, index, false); p != nil {
		return p
	}
	w.moveToNextPage(OrientationUnset)
	if p := w.tryAddLine(line, dontUpdatePosition, index, false); p != nil {
		return p
	}
	return w.tryAddLine(line, dontUpdatePosition, index, true)
}

func (w *pageWriter) tryAddLine(line *Line, dontUpdatePosition bool, index int, force bool) *Position {
	ctx := w.ctx
	height := line.Height()
	page := ctx.currentPage()
	if page == nil || (!force && ctx.availableHeight < height) {
		return nil
	}
	pos := w.record(ctx.position())
	line.X = ctx.x + line.X
	line.Y = ctx.y + line.Y
	alignLine(line, ctx.availableWidth)
	page.insertItem(Item{Kind: ItemLine, Line: line}, index)
	w.obs.lineAdded.emit(line)
	if !dontUpdatePosition {
		ctx.moveDown(height)
	}
	return pos
}

// alignLine 处理 center/right/justify 对齐，对齐方式取首个 run。
func alignLine(line *Line, width float64) {
	if len(line.Runs) == 0 {
		return
	}
	lineWidth := line.Width()
	alignment := line.Runs[0].Alignment
	var offset float64
	switch alignment {
	case "right":
		offset = width - lineWidth
	case "center":
		offset = (width - lineWidth) / 2
	}
	if offset != 0 {
		line.X += offset
	}
	if alignment == "justify" && !line.newLineForced && !line.LastLineInParagraph && len(line.Runs) > 1 {
		extra := (width - lineWidth) / float64(len(line.Runs)-1)
		for i := 1; i < len(line.Runs); i++ {
			line.Runs[i].X += float64(i) * extra
			line.Runs[i].JustifyShift = extra
		}
	}
}

// addVector 按上下文偏移矢量后插入页面；index < 0 表示追加。
func (w *pageWriter) addVector(v *Vector, ignoreContextX, ignoreContextY bool, index int) *Position {
	ctx := w.ctx
	page := ctx.currentPage()
	if page == nil {
		return nil
	}
	pos := w.record(ctx.position())
	var dx, dy float64
	if !ignoreContextX {
		dx = ctx.x
	}
	if !ignoreContextY {
		dy = ctx.y
	}
	v.offset(dx, dy)
	page.insertItem(Item{Kind: ItemVector, Vector: v}, index)
	return pos
}

func (w *pageWriter) addImage(node *Node) *Position {
	if p := w.tryAddImage(node); p != nil {
		return p
	}
	w.moveToNextPage(OrientationUnset)
	return w.tryAddImage(node)
}

func (w *pageWriter) tryAddImage(node *Node) *Position {
	ctx := w.ctx
	page := ctx.currentPage()
	img := node.Image
	if page == nil || (node.AbsolutePosition == nil && ctx.availableHeight < img.H && len(page.Items) > page.BackgroundLength) {
		return nil
	}
	pos := w.record(ctx.position())
	node.pos.x = ctx.x + node.pos.x
	node.pos.y = ctx.y
	node.pos.x += alignOffset(node.TextStyle.Alignment, ctx.availableWidth, img.W)
	page.insertItem(Item{Kind: ItemImage, Image: &ImageBox{
		Src:     img.Src,
		X:       node.pos.x,
		Y:       node.pos.y,
		Width:   img.W,
		Height:  img.H,
		Opacity: img.Opacity,
	}}, -1)
	ctx.moveDown(img.H)
	return pos
}

func (w *pageWriter) addQr(node *Node) *Position {
	if p := w.tryAddQr(node); p != nil {
		return p
	}
	w.moveToNextPage(OrientationUnset)
	return w.tryAddQr(node)
}

func (w *pageWriter) tryAddQr(node *Node) *Position {
	ctx := w.ctx
	page := ctx.currentPage()
	qr := node.QR
	if page == nil || (node.AbsolutePosition == nil && ctx.availableHeight < qr.Size && len(page.Items) > page.BackgroundLength) {
		return nil
	}
	pos := w.record(ctx.position())
	node.pos.x = ctx.x + node.pos.x
	node.pos.y = ctx.y
	node.pos.x += alignOffset(node.TextStyle.Alignment, ctx.availableWidth, qr.Size)
	page.insertItem(Item{Kind: ItemQR, QR: &QRBox{
		Value:      qr.Value,
		X:          node.pos.x,
		Y:          node.pos.y,
		Size:       qr.Size,
		Foreground: qr.Foreground,
		Background: qr.Background,
	}}, -1)
	ctx.moveDown(qr.Size)
	return pos
}

func alignOffset(alignment string, available, width float64) float64 {
	switch alignment {
	case "right":
		return available - width
	case "center":
		return (available - width) / 2
	}
	return 0
}

// addFragmentAt 把片段放到当前位置；useBlockX/Y 时使用片段自带的偏移。
func (w *pageWriter) addFragmentAt(f *fragment, useBlockX, useBlockY, dontUpdatePosition, force bool) (bool, float64, float64) {
	ctx := w.ctx
	page := ctx.currentPage()
	if !force && !useBlockX && f.height > ctx.availableHeight {
		return false, 0, 0
	}
	dx, dy := ctx.x, ctx.y
	if useBlockX {
		dx = f.xOffset
	}
	if useBlockY {
		dy = f.yOffset
	}
	for _, it := range f.items {
		c := it.clone()
		c.offset(dx, dy)
		page.Items = append(page.Items, c)
	}
	if !dontUpdatePosition {
		ctx.moveDown(f.height)
	}
	return true, dx, dy
}

// addFragment 放置片段；翻页后仍放不下时强制放在新页顶部。
func (w *pageWriter) addFragment(f *fragment) (float64, float64) {
	ok, dx, dy := w.addFragmentAt(f, false, false, false, false)
	if !ok {
		w.moveToNextPage(OrientationUnset)
		_, dx, dy = w.addFragmentAt(f, false, false, false, true)
	}
	return dx, dy
}

// moveToNextPage 翻页，插入表头等重复内容后通知 pageChanged。
func (w *pageWriter) moveToNextPage(o Orientation) {
	change := w.ctx.moveToNextPage(o)
	for _, rep := range w.repeatables {
		if !rep.insertedOnPages[w.ctx.page] {
			rep.insertedOnPages[w.ctx.page] = true
			w.addFragmentAt(&rep.fragment, true, false, false, true)
		} else {
			w.ctx.moveDown(rep.height)
		}
	}
	change.y = w.ctx.y
	w.obs.pageChanged.emit(change)
}

// pushContext 切换到一个宽 width、高 height 的临时上下文。
func (w *pageWriter) pushContext(width, height float64) {
	w.stack = append(w.stack, w.ctx)
	w.ctx = newDocumentContext(PageSize{Width: width, Height: height}, Margins{})
}

func (w *pageWriter) popContext() {
	w.ctx = w.stack[len(w.stack)-1]
	w.stack = w.stack[:len(w.stack)-1]
}

// beginUnbreakableBlock 开始不可分块；width/height 为 0 时使用当前可用宽度与不限高度。
func (w *pageWriter) beginUnbreakableBlock(width, height float64) {
	if w.transactionLevel == 0 {
		w.originalX = w.ctx.x
		if width == 0 {
			width = w.ctx.availableWidth
		}
		if height == 0 {
			height = math.Inf(1)
		}
		w.pending = nil
		w.transactionLevel++
		w.pushContext(width, height)
		return
	}
	w.transactionLevel++
}

// commitUnbreakableBlock 结束不可分块并把内容作为整体放置。
// forced 为 true 时放在 (x, y) 且不移动光标（页眉、页脚、背景）。
// 返回放置的元素个数。
func (w *pageWriter) commitUnbreakableBlock(forced bool, x, y float64) int {
	w.transactionLevel--
	if w.transactionLevel > 0 {
		return 0
	}
	tmp := w.ctx
	w.popContext()
	pending := w.pending
	w.pending = nil
	if len(tmp.pages) == 0 {
		return 0
	}
	f := &fragment{items: tmp.pages[0].Items, xOffset: x, yOffset: y}
	if len(tmp.pages) > 1 {
		if forced {
			size := tmp.pages[0].Size
			f.height = size.Height - tmp.margins.Top - tmp.margins.Bottom
		} else {
			size := w.ctx.currentPage().Size
			f.height = size.Height - w.ctx.margins.Top - w.ctx.margins.Bottom
			for _, rep := range w.repeatables {
				f.height -= rep.height
			}
		}
	} else {
		f.height = tmp.y
	}
	var dx, dy float64
	if forced {
		_, dx, dy = w.addFragmentAt(f, true, true, true, true)
	} else {
		dx, dy = w.addFragment(f)
	}
	outer := w.ctx.position()
	for _, p := range pending {
		p.PageNumber = outer.PageNumber
		p.PageOrientation = outer.PageOrientation
		p.PageInnerWidth = outer.PageInnerWidth
		p.PageInnerHeight = outer.PageInnerHeight
		p.X += dx
		p.Y += dy
	}
	return len(f.items)
}

// currentBlockToRepeatable 把当前不可分块的内容登记为可重复片段（表头行）。
func (w *pageWriter) currentBlockToRepeatable() *repeatable {
	tmp := w.ctx
	rep := &repeatable{
		fragment: fragment{
			items:   append([]Item(nil), tmp.pages[0].Items...),
			xOffset: w.originalX,
			height:  tmp.y,
		},
		insertedOnPages: map[int]bool{},
	}
	return rep
}

func (w *pageWriter) pushToRepeatables(rep *repeatable) {
	w.repeatables = append(w.repeatables, rep)
}

func (w *pageWriter) popFromRepeatables() {
	w.repeatables = w.repeatables[:len(w.repeatables)-1]
}
