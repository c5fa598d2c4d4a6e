package layout

import "fmt"

// band 是页眉、页脚或背景在页面上占用的区域。
type band struct {
	x, y, width, height float64
}

func headerBand(size PageSize, m Margins) band {
	return band{x: 0, y: 0, width: size.Width, height: m.Top}
}

func footerBand(size PageSize, m Margins) band {
	return band{x: 0, y: size.Height - m.Bottom, width: size.Width, height: m.Bottom}
}

// isolated 在独立的观察者集合与关闭的节点记录下执行 fn，
// 页眉页脚与背景不会触发正文注册的列表标记或分页回调。
func (b *layoutBuilder) isolated(fn func() error) error {
	savedObs, savedWriterObs, savedTracking := b.obs, b.writer.obs, b.tracking
	b.obs = &observers{}
	b.writer.obs = b.obs
	b.tracking = false
	defer func() {
		b.obs, b.writer.obs, b.tracking = savedObs, savedWriterObs, savedTracking
	}()
	return fn()
}

// placeRepeatable 在给定区域内把节点作为不可分块排版并固定放置，返回放置的元素个数。
func (b *layoutBuilder) placeRepeatable(node *Node, area band) (int, error) {
	node, err := b.prepare(node)
	if err != nil {
		return 0, err
	}
	Walk(node, (*Node).Restore)
	var placed int
	err = b.isolated(func() error {
		b.writer.beginUnbreakableBlock(area.width, area.height)
		if err := b.processNode(node); err != nil {
			return err
		}
		placed = b.writer.commitUnbreakableBlock(true, area.x, area.y)
		return nil
	})
	return placed, err
}

// addBackground 为当前页放置背景，背景元素排在页面元素最前面。
func (b *layoutBuilder) addBackground() error {
	if b.doc.Background.IsZero() {
		return nil
	}
	ctx := b.writer.ctx
	page := ctx.currentPage()
	node := b.doc.Background.node(ctx.page+1, 0, page.Size)
	if node == nil {
		return nil
	}
	n, err := b.placeRepeatable(node, band{width: page.Size.Width, height: page.Size.Height})
	if err != nil {
		return fmt.Errorf("第 %d 页背景: %w", ctx.page+1, err)
	}
	page.BackgroundLength += n
	return nil
}

// addHeadersAndFooters 在正文排完后逐页放置页眉与页脚。
func (b *layoutBuilder) addHeadersAndFooters() error {
	if err := b.addRepeatable(b.doc.Header, headerBand, "页眉"); err != nil {
		return err
	}
	return b.addRepeatable(b.doc.Footer, footerBand, "页脚")
}

func (b *layoutBuilder) addRepeatable(r Repeatable, area func(PageSize, Margins) band, name string) error {
	if r.IsZero() {
		return nil
	}
	ctx := b.writer.ctx
	count := len(ctx.pages)
	for i := 0; i < count; i++ {
		ctx.page = i
		size := ctx.pages[i].Size
		node := r.node(i+1, count, size)
		if node == nil {
			continue
		}
		if _, err := b.placeRepeatable(node, area(size, b.doc.PageMargins)); err != nil {
			return fmt.Errorf("第 %d 页%s: %w", i+1, name, err)
		}
	}
	return nil
}
