package layout

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/log"
)

// DefaultPageSize 是 A4 纵向，单位 pt。
var DefaultPageSize = PageSize{Width: 595.28, Height: 841.89, Orientation: Portrait}

// layoutBuilder 持有一次 Build 的全部状态；每一遍布局重建页面与写入器。
type layoutBuilder struct {
	doc  *Document
	opts BuildOptions
	text TextMeasurer
	log  *log.Logger

	writer *pageWriter
	obs    *observers

	// nodes 为当前这一遍访问过的正文节点，页眉页脚与背景不计入。
	nodes    []*Node
	tracking bool
	// pageErr 保存翻页时放置背景失败的错误，翻页回调本身无法返回错误。
	pageErr error
}

// Build 测量文档并分页排版。设置了分页策略时会反复排版，直到策略不再要求新的分页。
func Build(doc *Document, opts BuildOptions) (*Result, error) {
	if doc == nil || doc.Content == nil {
		return nil, errors.New("layout: 文档内容为空")
	}
	if opts.Measurer == nil {
		return nil, errors.New("layout: 缺少测量后端 Measurer")
	}
	if opts.Text == nil {
		return nil, errors.New("layout: 缺少文本测量 Text")
	}

	b := &layoutBuilder{doc: doc, opts: opts, text: opts.Text, log: opts.logger()}
	content, err := b.prepare(doc.Content)
	if err != nil {
		return nil, err
	}
	Walk(content, (*Node).Snapshot)

	size := doc.PageSize.normalized()
	for pass := 1; ; pass++ {
		pages, err := b.tryLayout(content, size)
		if err != nil {
			return nil, err
		}
		if opts.Debug.LogPasses {
			b.log.Debug("布局完成", "pass", pass, "pages", len(pages), "nodes", len(b.nodes))
		}
		again, err := b.addPageBreaksIfNecessary(b.nodes, len(pages))
		if err != nil {
			return nil, err
		}
		if again {
			continue
		}
		if err := b.resolvePageRefs(content, pages); err != nil {
			return nil, err
		}
		return &Result{Pages: pages, Nodes: b.nodes, Passes: pass, Meta: doc.Meta}, nil
	}
}

func (b *layoutBuilder) prepare(node *Node) (*Node, error) {
	n, err := b.opts.Measurer.Preprocess(node)
	if err != nil {
		return nil, fmt.Errorf("预处理文档: %w", err)
	}
	if n, err = b.opts.Measurer.Measure(n); err != nil {
		return nil, fmt.Errorf("测量文档: %w", err)
	}
	return n, nil
}

// tryLayout 从头排版一遍：恢复全部节点几何状态、放置背景、正文、页眉页脚与水印。
func (b *layoutBuilder) tryLayout(content *Node, size PageSize) ([]*Page, error) {
	Walk(content, (*Node).Restore)
	b.nodes = nil
	b.pageErr = nil
	b.obs = &observers{}
	ctx := newDocumentContext(size, b.doc.PageMargins)
	b.writer = newPageWriter(ctx, b.obs)
	ctx.onPageAdded = func(int) {
		if err := b.addBackground(); err != nil && b.pageErr == nil {
			b.pageErr = err
		}
	}

	if err := b.addBackground(); err != nil {
		return nil, err
	}
	b.tracking = true
	err := b.processNode(content)
	b.tracking = false
	if err != nil {
		return nil, err
	}
	if b.pageErr != nil {
		return nil, b.pageErr
	}
	if err := b.addHeadersAndFooters(); err != nil {
		return nil, err
	}

	wm, err := b.resolveWatermark(b.doc.Watermark, size)
	if err != nil {
		return nil, err
	}
	if wm != nil {
		for _, p := range ctx.pages {
			p.Watermark = wm
		}
	}
	return ctx.pages, nil
}

// resolvePageRefs 把引用其他节点页码的 run 替换为目标节点首次出现的页码。
func (b *layoutBuilder) resolvePageRefs(content *Node, pages []*Page) error {
	ids := map[string]*Node{}
	Walk(content, func(n *Node) {
		if n.ID != "" {
			if _, ok := ids[n.ID]; !ok {
				ids[n.ID] = n
			}
		}
	})
	for _, page := range pages {
		for _, line := range page.Lines() {
			var shift float64
			for _, r := range line.Runs {
				r.X += shift
				if r.PageRef == "" {
					continue
				}
				target, ok := ids[r.PageRef]
				if !ok || len(target.Positions) == 0 {
					return &StructureError{Op: "pageReference", Detail: fmt.Sprintf("page reference id not found: %q", r.PageRef), Index: -1}
				}
				r.Text = strconv.Itoa(target.Positions[0].PageNumber)
				w, err := b.widthOf(r, r.Text)
				if err != nil {
					return err
				}
				delta := w - r.Width
				r.Width = w
				line.runWidths += delta
				shift += delta
				switch r.Alignment {
				case "right":
					line.X -= delta
				case "center":
					line.X -= delta / 2
				}
			}
		}
	}
	return nil
}
