package layout

// NodeInfo 是传给分页策略的节点只读快照，不持有节点本身。
type NodeInfo struct {
	ID              string      `json:"id,omitempty"`
	Kind            Kind        `json:"kind"`
	Text            string      `json:"text,omitempty"`
	HeadlineLevel   int         `json:"headlineLevel,omitempty"`
	StyleNames      []string    `json:"styleNames,omitempty"`
	PageBreak       PageBreak   `json:"pageBreak,omitempty"`
	PageOrientation Orientation `json:"pageOrientation,omitempty"`
	// Width/Height 为图片、二维码或画布的尺寸，其他节点为 0。
	Width         float64  `json:"width,omitempty"`
	Height        float64  `json:"height,omitempty"`
	StartPosition Position `json:"startPosition"`
	PageNumbers   []int    `json:"pageNumbers"`
	Pages         int      `json:"pages"`
	Stack         bool     `json:"stack,omitempty"`
}

func newNodeInfo(n *Node, pages int) NodeInfo {
	info := NodeInfo{
		ID:              n.ID,
		Kind:            n.Kind,
		HeadlineLevel:   n.HeadlineLevel,
		StyleNames:      append([]string(nil), n.StyleNames...),
		PageBreak:       n.PageBreak,
		PageOrientation: n.PageOrientation,
		Pages:           pages,
		Stack:           n.Kind == KindStack,
	}
	if n.Kind == KindText {
		info.Text = n.PlainText()
	}
	switch {
	case n.Image != nil:
		info.Width, info.Height = n.Image.W, n.Image.H
	case n.QR != nil:
		info.Width, info.Height = n.QR.Size, n.QR.Size
	case n.Kind == KindCanvas:
		info.Width, info.Height = n.MinWidth, n.MinHeight
	}
	if len(n.Positions) > 0 {
		info.StartPosition = *n.Positions[0]
	}
	seen := map[int]bool{}
	for _, p := range n.Positions {
		if !seen[p.PageNumber] {
			seen[p.PageNumber] = true
			info.PageNumbers = append(info.PageNumbers, p.PageNumber)
		}
	}
	return info
}

// OnPage 表示节点在第 page 页上有放置记录。
func (i NodeInfo) OnPage(page int) bool {
	for _, p := range i.PageNumbers {
		if p == page {
			return true
		}
	}
	return false
}
