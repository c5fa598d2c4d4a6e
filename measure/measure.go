package measure

import (
	"errors"
	"fmt"

	"github.com/ripjar/pdfmake/layout"
)

// defaultQRSize 是未设置 fit 时二维码的边长。
const defaultQRSize = 100

// ErrNoImageSizer 表示需要图片固有尺寸但没有配置 ImageSizer。
var ErrNoImageSizer = errors.New("measure: 未配置图片尺寸来源")

// Measure 自底向上计算每个节点的最小/最大宽度，生成文本 run、列表标记与表格偏移。
// 调用前节点须已经过 Preprocess。
func (m *Measurer) Measure(root *layout.Node) (*layout.Node, error) {
	if root == nil {
		return nil, fmt.Errorf("measure: 节点为空")
	}
	if err := m.measureNode(root); err != nil {
		return nil, err
	}
	return root, nil
}

func (m *Measurer) measureNode(n *layout.Node) error {
	for _, c := range n.Children() {
		if c == nil {
			continue
		}
		if err := m.measureNode(c); err != nil {
			return err
		}
	}

	var err error
	switch n.Kind {
	case layout.KindText:
		err = m.measureText(n)
	case layout.KindStack:
		n.MinWidth, n.MaxWidth = widest(n.Stack)
	case layout.KindColumns:
		m.measureColumns(n)
	case layout.KindUnorderedList, layout.KindOrderedList:
		if err = m.measureList(n); err == nil {
			n.MinWidth, n.MaxWidth = widest(n.Items)
			n.MinWidth += n.List.GapWidth
			n.MaxWidth += n.List.GapWidth
		}
	case layout.KindTable:
		if n.Table == nil {
			return &layout.StructureError{Op: "measure", Detail: fmt.Sprintf("table node %q has no table", n.ID), Index: -1}
		}
		m.measureTable(n)
	case layout.KindImage:
		err = m.measureImage(n)
	case layout.KindCanvas:
		measureCanvas(n)
	case layout.KindQR:
		measureQR(n)
	case layout.KindTOC:
		var parts []*layout.Node
		if n.TOC != nil {
			parts = append(parts, n.TOC.Title, n.TOC.Table)
		}
		n.MinWidth, n.MaxWidth = widest(parts)
	case layout.KindSpan:
		return nil
	}
	if err != nil {
		return err
	}
	n.MinWidth += n.Margin.Left + n.Margin.Right
	n.MaxWidth += n.Margin.Left + n.Margin.Right
	return nil
}

func widest(nodes []*layout.Node) (minW, maxW float64) {
	for _, c := range nodes {
		if c == nil {
			continue
		}
		minW = max(minW, c.MinWidth)
		maxW = max(maxW, c.MaxWidth)
	}
	return minW, maxW
}

// measureText 生成 run 并计算宽度：最小宽度为最宽的不可断开片段，最大宽度为最长的强制换行段。
func (m *Measurer) measureText(n *layout.Node) error {
	if n.Text != nil || n.Runs == nil {
		runs, err := m.BuildRuns(n.Text, n.TextStyle)
		if err != nil {
			return fmt.Errorf("节点 %q: %w", n.ID, err)
		}
		n.Runs = runs
	}

	var (
		minW, maxW  float64
		chain       float64
		chainLead   float64
		line        float64
		lineLead    float64
		lineStarted bool
	)
	for _, r := range n.Runs {
		if chain == 0 {
			chainLead = r.LeadingCut
		}
		chain += r.Width
		minW = max(minW, chain-chainLead-r.TrailingCut)
		if !r.NoNewLine {
			chain = 0
		}

		if !lineStarted {
			lineLead = r.LeadingCut
			lineStarted = true
		}
		line += r.Width
		maxW = max(maxW, line-lineLead-r.TrailingCut)
		if r.LineEnd {
			line, lineStarted = 0, false
		}
	}
	n.MinWidth, n.MaxWidth = minW, maxW
	return nil
}

func (m *Measurer) measureColumns(n *layout.Node) {
	minW, maxW := layout.MeasureMinMax(layout.ColumnWidthsOf(n.Columns))
	if len(n.Columns) > 1 {
		gaps := n.ColumnGap * float64(len(n.Columns)-1)
		minW += gaps
		maxW += gaps
	}
	n.MinWidth, n.MaxWidth = minW, maxW
}

// measureImage 按 fit 等比缩放；否则宽度缺省取固有宽度，高度缺省按比例推算。
func (m *Measurer) measureImage(n *layout.Node) error {
	img := n.Image
	if img == nil {
		return &layout.StructureError{Op: "measure", Detail: fmt.Sprintf("image node %q has no image", n.ID), Index: -1}
	}
	if img.Fit == nil && img.Width > 0 && img.Height > 0 {
		img.W, img.H = img.Width, img.Height
	} else {
		if m.images == nil {
			return fmt.Errorf("图片 %q: %w", img.Src, ErrNoImageSizer)
		}
		iw, ih, err := m.images.ImageSize(img.Src)
		if err != nil {
			return fmt.Errorf("读取图片 %q 尺寸: %w", img.Src, err)
		}
		if iw <= 0 || ih <= 0 {
			return fmt.Errorf("图片 %q 尺寸无效: %gx%g", img.Src, iw, ih)
		}
		switch {
		case img.Fit != nil:
			fw, fh := img.Fit[0], img.Fit[1]
			factor := fh / ih
			if iw/ih > fw/fh {
				factor = fw / iw
			}
			img.W, img.H = iw*factor, ih*factor
		default:
			img.W = img.Width
			if img.W <= 0 {
				img.W = iw
			}
			img.H = img.Height
			if img.H <= 0 {
				img.H = ih * img.W / iw
			}
		}
	}
	n.MinWidth, n.MaxWidth = img.W, img.W
	return nil
}

func measureCanvas(n *layout.Node) {
	var w, h float64
	for _, v := range n.Canvas {
		vw, vh := v.Extent()
		w, h = max(w, vw), max(h, vh)
	}
	n.MinWidth, n.MaxWidth, n.MinHeight = w, w, h
}

func measureQR(n *layout.Node) {
	if n.QR == nil {
		return
	}
	n.QR.Size = n.QR.Fit
	if n.QR.Size <= 0 {
		n.QR.Size = defaultQRSize
	}
	n.MinWidth, n.MaxWidth = n.QR.Size, n.QR.Size
}
