package layout

import "strings"

// 该文件定义布局输入（Document）与输出（Result/Page），供布局计算、渲染与调试 JSON 共用。

// Document 是布局的输入：测量前的节点树与页面设置。
type Document struct {
	Content     *Node          `json:"content"`
	PageSize    PageSize       `json:"pageSize"`
	PageMargins Margins        `json:"pageMargins"`
	Background  Repeatable     `json:"-"`
	Header      Repeatable     `json:"-"`
	Footer      Repeatable     `json:"-"`
	Watermark   *WatermarkSpec `json:"watermark,omitempty"`
	// PageBreakBefore 为可选的分页否决策略。
	PageBreakBefore PageBreakPolicy `json:"-"`
	Meta            DocumentMeta    `json:"meta"`
}

// Repeatable 是每页重复的内容：静态节点（每页深拷贝）或按页生成的函数。
type Repeatable struct {
	Static  *Node
	Dynamic func(pageNumber, pageCount int, size PageSize) *Node
}

// IsZero 表示未设置。
func (r Repeatable) IsZero() bool { return r.Static == nil && r.Dynamic == nil }

func (r Repeatable) node(pageNumber, pageCount int, size PageSize) *Node {
	if r.Dynamic != nil {
		return r.Dynamic(pageNumber, pageCount, size)
	}
	return r.Static.Clone()
}

// PageSize 以 pt 为单位。
type PageSize struct {
	Width       float64     `json:"width"`
	Height      float64     `json:"height"`
	Orientation Orientation `json:"orientation"`
}

// oriented 返回按给定方向调整后的尺寸。
func (s PageSize) oriented(o Orientation) PageSize {
	if o == OrientationUnset || o == s.Orientation {
		return s
	}
	landscape := s.Width > s.Height
	if (o == Landscape) != landscape {
		s.Width, s.Height = s.Height, s.Width
	}
	s.Orientation = o
	return s
}

var pageSizes = map[string]PageSize{
	"A3":     {Width: 841.89, Height: 1190.55},
	"A4":     {Width: 595.28, Height: 841.89},
	"A5":     {Width: 419.53, Height: 595.28},
	"LETTER": {Width: 612, Height: 792},
	"LEGAL":  {Width: 612, Height: 1008},
}

// NamedPageSize 返回具名纸张（A3、A4、A5、LETTER、LEGAL，不区分大小写）在方向 o 下的尺寸。
func NamedPageSize(name string, o Orientation) (PageSize, bool) {
	s, ok := pageSizes[strings.ToUpper(name)]
	if !ok {
		return PageSize{}, false
	}
	s.Orientation = Portrait
	return s.oriented(o), true
}

// WatermarkSpec 是水印的声明；FontSize 为 0 时自动计算。
type WatermarkSpec struct {
	Text     string  `json:"text"`
	Font     string  `json:"font,omitempty"`
	FontSize float64 `json:"fontSize,omitempty"`
	Color    string  `json:"color,omitempty"`
	Opacity  float64 `json:"opacity,omitempty"`
	Bold     bool    `json:"bold,omitempty"`
	Italics  bool    `json:"italics,omitempty"`
}

// Watermark 是解析后的水印，每页共用。
type Watermark struct {
	Text     string  `json:"text"`
	Font     Font    `json:"font"`
	FontSize float64 `json:"fontSize"`
	Color    string  `json:"color"`
	Opacity  float64 `json:"opacity"`
	// Angle 为对角线角度（度），Width/Height 为文本尺寸。
	Angle  float64 `json:"angle"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DocumentMeta 保存 PDF 元信息。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}

// Result 保存布局后的页面与节点位置。
type Result struct {
	Pages []*Page `json:"pages"`
	// Nodes 为最后一遍遍历访问的节点（遍历顺序），带最终位置。
	Nodes  []*Node      `json:"-"`
	Passes int          `json:"passes"`
	Meta   DocumentMeta `json:"meta"`
}

// Page 记录页面尺寸与按绘制顺序排列的元素。
// 前 BackgroundLength 个元素属于背景。
type Page struct {
	Size             PageSize   `json:"size"`
	Margins          Margins    `json:"margins"`
	Items            []Item     `json:"items"`
	BackgroundLength int        `json:"backgroundLength"`
	Watermark        *Watermark `json:"watermark,omitempty"`
}

// Background 返回背景元素。
func (p *Page) Background() []Item { return p.Items[:p.BackgroundLength] }

// Lines 返回页面上的全部文本行。
func (p *Page) Lines() []*Line {
	var out []*Line
	for _, it := range p.Items {
		if it.Kind == ItemLine {
			out = append(out, it.Line)
		}
	}
	return out
}

func (p *Page) insertItem(it Item, index int) {
	if index < 0 || index >= len(p.Items) {
		p.Items = append(p.Items, it)
		return
	}
	p.Items = append(p.Items, Item{})
	copy(p.Items[index+1:], p.Items[index:])
	p.Items[index] = it
}

// ItemKind 区分页面元素。
type ItemKind int

const (
	ItemLine ItemKind = iota + 1
	ItemVector
	ItemImage
	ItemQR
)

// Item 是页面上的一个已定位元素。
type Item struct {
	Kind   ItemKind  `json:"kind"`
	Line   *Line     `json:"line,omitempty"`
	Vector *Vector   `json:"vector,omitempty"`
	Image  *ImageBox `json:"image,omitempty"`
	QR     *QRBox    `json:"qr,omitempty"`
}

func (it Item) clone() Item {
	c := it
	switch it.Kind {
	case ItemLine:
		c.Line = it.Line.clone()
	case ItemVector:
		c.Vector = it.Vector.Clone()
	case ItemImage:
		img := *it.Image
		c.Image = &img
	case ItemQR:
		q := *it.QR
		c.QR = &q
	}
	return c
}

// offset 平移元素，用于片段（不可分块、页眉行）落位。
func (it Item) offset(dx, dy float64) {
	switch it.Kind {
	case ItemLine:
		it.Line.X += dx
		it.Line.Y += dy
	case ItemVector:
		it.Vector.offset(dx, dy)
	case ItemImage:
		it.Image.X += dx
		it.Image.Y += dy
	case ItemQR:
		it.QR.X += dx
		it.QR.Y += dy
	}
}

// ImageBox 用于描述图片位置与尺寸。
type ImageBox struct {
	Src     string  `json:"src"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Opacity float64 `json:"opacity,omitempty"`
}

// QRBox 描述二维码的位置与尺寸。
type QRBox struct {
	Value      string  `json:"value"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Size       float64 `json:"size"`
	Foreground string  `json:"foreground,omitempty"`
	Background string  `json:"background,omitempty"`
}

// Position 是一次放置记录。PageNumber 从 1 开始。
type Position struct {
	PageNumber      int         `json:"pageNumber"`
	PageOrientation Orientation `json:"pageOrientation"`
	PageInnerWidth  float64     `json:"pageInnerWidth"`
	PageInnerHeight float64     `json:"pageInnerHeight"`
	X               float64     `json:"left"`
	Y               float64     `json:"top"`
}

// normalized 补齐页面方向；未设置尺寸时使用 DefaultPageSize。
func (s PageSize) normalized() PageSize {
	if s.Width == 0 || s.Height == 0 {
		return DefaultPageSize.oriented(s.Orientation)
	}
	o := s.Orientation
	s.Orientation = Portrait
	if s.Width > s.Height {
		s.Orientation = Landscape
	}
	return s.oriented(o)
}
