package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind 标识文档节点的类型，在预处理阶段确定后不再变化。
type Kind int

const (
	KindText Kind = iota + 1
	KindStack
	KindColumns
	KindTable
	KindUnorderedList
	KindOrderedList
	KindImage
	KindCanvas
	KindQR
	KindTOC
	// KindSpan 是被相邻单元格 colSpan/rowSpan 覆盖的表格占位单元格。
	KindSpan
)

var kindNames = map[Kind]string{
	KindText:          "text",
	KindStack:         "stack",
	KindColumns:       "columns",
	KindTable:         "table",
	KindUnorderedList: "ul",
	KindOrderedList:   "ol",
	KindImage:         "image",
	KindCanvas:        "canvas",
	KindQR:            "qr",
	KindTOC:           "toc",
	KindSpan:          "span",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// PageBreak 是节点上的分页指令。
type PageBreak int

const (
	PageBreakNone PageBreak = iota
	PageBreakBefore
	PageBreakAfter
)

func (p PageBreak) String() string {
	switch p {
	case PageBreakBefore:
		return "before"
	case PageBreakAfter:
		return "after"
	}
	return ""
}

// Orientation 是页面方向。
type Orientation int

const (
	OrientationUnset Orientation = iota
	Portrait
	Landscape
)

func (o Orientation) String() string {
	switch o {
	case Portrait:
		return "portrait"
	case Landscape:
		return "landscape"
	}
	return ""
}

// Margins 以 pt 为单位。
type Margins struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Point 是一个坐标点。
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DimensionKind 区分列宽的写法。
type DimensionKind int

const (
	DimStar DimensionKind = iota
	DimAuto
	DimFixed
	DimPercent
)

// Dimension 是列宽声明："*"、"auto"、数值或百分比。零值为 "*"。
type Dimension struct {
	Kind  DimensionKind `json:"kind"`
	Value float64       `json:"value,omitempty"`
}

// Fixed 构造固定宽度。
func Fixed(v float64) Dimension { return Dimension{Kind: DimFixed, Value: v} }

// ParseDimension 解析列宽字符串。
func ParseDimension(s string) (Dimension, error) {
	v := strings.TrimSpace(strings.ToLower(s))
	switch v {
	case "", "*", "star":
		return Dimension{Kind: DimStar}, nil
	case "auto":
		return Dimension{Kind: DimAuto}, nil
	}
	if strings.HasSuffix(v, "%") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(v, "%"), 64)
		if err != nil {
			return Dimension{}, fmt.Errorf("无法解析百分比宽度 %q: %w", s, err)
		}
		return Dimension{Kind: DimPercent, Value: f}, nil
	}
	l := ParseLength(v)
	if l.Unit == UnitInvalid {
		return Dimension{}, fmt.Errorf("无法解析宽度 %q", s)
	}
	return Fixed(l.ToPT()), nil
}

// ColumnWidth 是列宽计算的输入与输出。
type ColumnWidth struct {
	Spec     Dimension `json:"spec"`
	Elastic  bool      `json:"elastic,omitempty"`
	MinWidth float64   `json:"minWidth"`
	MaxWidth float64   `json:"maxWidth"`
	Calc     float64   `json:"calc"`
}

// ListStyle 保存列表标记的配置。
type ListStyle struct {
	// Type: disc/circle/square/none 或 decimal/lower-alpha/upper-alpha/lower-roman/upper-roman/none
	Type        string  `json:"type,omitempty"`
	Start       int     `json:"start,omitempty"`
	Reversed    bool    `json:"reversed,omitempty"`
	Separator   string  `json:"separator,omitempty"`
	MarkerColor string  `json:"markerColor,omitempty"`
	GapWidth    float64 `json:"gapWidth"`
}

// Marker 是列表项的标记：有序列表为文本 run，无序列表为矢量图形。
type Marker struct {
	Runs   []*Run  `json:"runs,omitempty"`
	Vector *Vector `json:"vector,omitempty"`
	Width  float64 `json:"width"`
}

// Image 描述图片节点。W/H 为测量后的实际尺寸。
type Image struct {
	Src     string      `json:"src"`
	Width   float64     `json:"width,omitempty"`
	Height  float64     `json:"height,omitempty"`
	Fit     *[2]float64 `json:"fit,omitempty"`
	Opacity float64     `json:"opacity,omitempty"`
	W       float64     `json:"w"`
	H       float64     `json:"h"`
}

// QR 描述二维码节点，像素生成由渲染端负责。
type QR struct {
	Value      string  `json:"value"`
	Fit        float64 `json:"fit,omitempty"`
	Foreground string  `json:"foreground,omitempty"`
	Background string  `json:"background,omitempty"`
	Size       float64 `json:"size"`
}

// TOC 是目录节点；Table 由预处理阶段根据收集到的条目生成。
type TOC struct {
	ID          string  `json:"id,omitempty"`
	Title       *Node   `json:"title,omitempty"`
	NumberStyle Style   `json:"numberStyle"`
	Items       []*Node `json:"-"`
	Table       *Node   `json:"table,omitempty"`
}

type geometry struct {
	x, y float64
}

// columnEnding 保存 rowSpan 结束单元格所在列的上下文。
type columnEnding struct {
	page                            int
	x, y                            float64
	availableWidth, availableHeight float64
	lastColumnWidth                 float64
}

// Node 是文档树节点。子节点由父节点独占。
type Node struct {
	Kind       Kind     `json:"kind"`
	ID         string   `json:"id,omitempty"`
	StyleNames []string `json:"styleNames,omitempty"`
	Style      Style    `json:"style"`
	// TextStyle 为测量阶段解析出的有效样式（含继承）。
	TextStyle Style `json:"-"`

	Margin           Margins     `json:"margin"`
	AbsolutePosition *Point      `json:"absolutePosition,omitempty"`
	RelativePosition *Point      `json:"relativePosition,omitempty"`
	Unbreakable      bool        `json:"unbreakable,omitempty"`
	PageBreak        PageBreak   `json:"pageBreak,omitempty"`
	PageOrientation  Orientation `json:"pageOrientation,omitempty"`
	HeadlineLevel    int         `json:"headlineLevel,omitempty"`
	TocItem          bool        `json:"tocItem,omitempty"`

	// 文本
	Text      []Span  `json:"text,omitempty"`
	RTL       bool    `json:"rtl,omitempty"`
	MaxHeight float64 `json:"maxHeight,omitempty"`
	Runs      []*Run  `json:"-"`

	// 容器
	Stack     []*Node    `json:"stack,omitempty"`
	Columns   []*Node    `json:"columns,omitempty"`
	ColumnGap float64    `json:"columnGap,omitempty"`
	Items     []*Node    `json:"items,omitempty"`
	List      *ListStyle `json:"list,omitempty"`
	Marker    *Marker    `json:"-"`
	Table     *Table     `json:"table,omitempty"`

	Image  *Image    `json:"image,omitempty"`
	Canvas []*Vector `json:"canvas,omitempty"`
	QR     *QR       `json:"qr,omitempty"`
	TOC    *TOC      `json:"toc,omitempty"`

	// 列与单元格
	Width     Dimension `json:"width"`
	ColSpan   int       `json:"colSpan,omitempty"`
	RowSpan   int       `json:"rowSpan,omitempty"`
	FillColor string    `json:"fillColor,omitempty"`
	Border    *[4]bool  `json:"border,omitempty"`

	MinWidth  float64 `json:"minWidth"`
	MaxWidth  float64 `json:"maxWidth"`
	MinHeight float64 `json:"minHeight,omitempty"`

	Positions []*Position `json:"-"`

	pos, origin geometry
	snapshotted bool
	cur         runCursor
	ending      *columnEnding
	evaluated   bool
}

// Children 返回节点直接拥有的全部子节点。
func (n *Node) Children() []*Node {
	var out []*Node
	out = append(out, n.Stack...)
	out = append(out, n.Columns...)
	out = append(out, n.Items...)
	if n.Table != nil {
		for _, row := range n.Table.Body {
			out = append(out, row...)
		}
	}
	if n.TOC != nil {
		if n.TOC.Title != nil {
			out = append(out, n.TOC.Title)
		}
		if n.TOC.Table != nil {
			out = append(out, n.TOC.Table)
		}
	}
	return out
}

// Walk 深度优先遍历子树。
func Walk(n *Node, fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children() {
		Walk(c, fn)
	}
}

// Snapshot 记录节点当前几何状态作为原点。
func (n *Node) Snapshot() {
	n.origin = n.pos
	for _, v := range n.Canvas {
		v.snapshot()
	}
	if n.Marker != nil && n.Marker.Vector != nil {
		n.Marker.Vector.snapshot()
	}
	n.snapshotted = true
}

// Restore 恢复到原点几何状态，清空位置记录并重置 run 游标。
func (n *Node) Restore() {
	if !n.snapshotted {
		n.Snapshot()
	}
	n.pos = n.origin
	for _, v := range n.Canvas {
		v.restore()
	}
	if n.Marker != nil && n.Marker.Vector != nil {
		n.Marker.Vector.restore()
	}
	n.Positions = nil
	n.cur = runCursor{}
	n.ending = nil
}

// X/Y 为节点（图片、二维码）最近一次放置的坐标。
func (n *Node) X() float64 { return n.pos.x }
func (n *Node) Y() float64 { return n.pos.y }

// Clone 深拷贝整个子树，测量得到的 run 共享（它们不会被修改）。
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	c.Positions = nil
	c.cur = runCursor{}
	c.ending = nil
	c.StyleNames = append([]string(nil), n.StyleNames...)
	c.Text = append([]Span(nil), n.Text...)
	c.Runs = append([]*Run(nil), n.Runs...)
	c.Stack = cloneNodes(n.Stack)
	c.Columns = cloneNodes(n.Columns)
	c.Items = cloneNodes(n.Items)
	if n.AbsolutePosition != nil {
		p := *n.AbsolutePosition
		c.AbsolutePosition = &p
	}
	if n.RelativePosition != nil {
		p := *n.RelativePosition
		c.RelativePosition = &p
	}
	if n.List != nil {
		l := *n.List
		c.List = &l
	}
	if n.Marker != nil {
		m := *n.Marker
		if m.Vector != nil {
			m.Vector = m.Vector.Clone()
		}
		c.Marker = &m
	}
	if n.Table != nil {
		c.Table = n.Table.clone()
	}
	if n.Image != nil {
		img := *n.Image
		c.Image = &img
	}
	if n.Canvas != nil {
		c.Canvas = make([]*Vector, len(n.Canvas))
		for i, v := range n.Canvas {
			c.Canvas[i] = v.Clone()
		}
	}
	if n.QR != nil {
		q := *n.QR
		c.QR = &q
	}
	if n.TOC != nil {
		t := *n.TOC
		t.Title = n.TOC.Title.Clone()
		t.Table = n.TOC.Table.Clone()
		c.TOC = &t
	}
	if n.Border != nil {
		b := *n.Border
		c.Border = &b
	}
	return &c
}

func cloneNodes(nodes []*Node) []*Node {
	if nodes == nil {
		return nil
	}
	out := make([]*Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

// PlainText 拼接节点及其子节点中的文本。
func (n *Node) PlainText() string {
	var b strings.Builder
	Walk(n, func(c *Node) {
		for _, s := range c.Text {
			b.WriteString(s.Text)
		}
	})
	return b.String()
}

// runCursor 是对节点 Runs 的只读游标；carry 存放硬换行后剩余的尾部。
type runCursor struct {
	bound bool
	runs  []*Run
	next  int
	carry *Run
}

func (n *Node) cursor() *runCursor {
	if !n.cur.bound {
		n.cur = runCursor{bound: true, runs: n.Runs}
	}
	return &n.cur
}

func (c *runCursor) empty() bool {
	return c.carry == nil && c.next >= len(c.runs)
}

func (c *runCursor) peek() *Run {
	if c.carry != nil {
		return c.carry
	}
	if c.next < len(c.runs) {
		return c.runs[c.next]
	}
	return nil
}

// following 返回 peek 之后的待处理 run。
func (c *runCursor) following() []*Run {
	if c.carry != nil {
		return c.runs[c.next:]
	}
	if c.next+1 <= len(c.runs) {
		return c.runs[c.next+1:]
	}
	return nil
}

func (c *runCursor) pop() *Run {
	if c.carry != nil {
		r := c.carry
		c.carry = nil
		return r
	}
	r := c.runs[c.next]
	c.next++
	return r
}

func (c *runCursor) pushFront(r *Run) {
	c.carry = r
}
