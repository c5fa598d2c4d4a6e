package layout

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
)

// paragraphs 生成 n 个单行段落，文本为 p0..p(n-1)。
func paragraphs(n int) *Node {
	root := stack()
	for i := 0; i < n; i++ {
		root.Stack = append(root.Stack, textNode(fmt.Sprintf("p%d", i)))
	}
	return root
}

func smallDoc(content *Node) *Document {
	return &Document{PageSize: PageSize{Width: 100, Height: 100}, Content: content}
}

func pageOf(t *testing.T, res *Result, text string) int {
	t.Helper()
	for i, page := range res.Pages {
		for _, l := range page.Lines() {
			if l.Text() == text {
				return i + 1
			}
		}
	}
	t.Fatalf("找不到文本 %q", text)
	return 0
}

func TestBuildRejectsMissingInput(t *testing.T) {
	if _, err := Build(nil, stubOptions()); err == nil {
		t.Fatalf("空文档应报错")
	}
	if _, err := Build(&Document{Content: textNode("x")}, BuildOptions{Text: stubText{}}); err == nil {
		t.Fatalf("缺少 Measurer 应报错")
	}
}

func TestBuildPaginates(t *testing.T) {
	res := buildDoc(t, smallDoc(paragraphs(25)))
	if len(res.Pages) != 3 {
		t.Fatalf("25 行、每页 10 行应得到 3 页，实际 %d", len(res.Pages))
	}
	if pageOf(t, res, "p10") != 2 || pageOf(t, res, "p24") != 3 {
		t.Fatalf("分页位置错误")
	}
	if res.Passes != 1 {
		t.Fatalf("没有分页策略时只排一遍，实际 %d", res.Passes)
	}
}

func TestPageBreakPolicyNeverBreaks(t *testing.T) {
	plain := buildDoc(t, smallDoc(paragraphs(15)))

	doc := smallDoc(paragraphs(15))
	calls := 0
	doc.PageBreakBefore = func(NodeInfo, []NodeInfo, []NodeInfo, []NodeInfo) (bool, error) {
		calls++
		return false, nil
	}
	res := buildDoc(t, doc)
	if res.Passes != 1 {
		t.Fatalf("策略从不分页时只排一遍，实际 %d", res.Passes)
	}
	if calls != len(res.Nodes) {
		t.Fatalf("每个已放置节点应询问一次: calls=%d nodes=%d", calls, len(res.Nodes))
	}
	for i, n := range res.Nodes {
		a, b := n.Positions[0], plain.Nodes[i].Positions[0]
		if a.PageNumber != b.PageNumber || !eq(a.Y, b.Y) {
			t.Fatalf("节点 %d 位置与无策略时不同", i)
		}
	}
}

func TestPageBreakPolicyForcesBreak(t *testing.T) {
	doc := smallDoc(paragraphs(5))
	seen := map[string]int{}
	doc.PageBreakBefore = func(node NodeInfo, following, nextPage, previous []NodeInfo) (bool, error) {
		if node.Kind != KindText {
			return false, nil
		}
		seen[node.Text]++
		if node.Text == "p2" {
			if len(previous) == 0 || len(following) != 2 {
				return false, fmt.Errorf("上下文错误: previous=%d following=%d", len(previous), len(following))
			}
			return true, nil
		}
		return false, nil
	}
	res := buildDoc(t, doc)
	if res.Passes != 2 {
		t.Fatalf("一次强制分页应排两遍，实际 %d", res.Passes)
	}
	if pageOf(t, res, "p1") != 1 || pageOf(t, res, "p2") != 2 {
		t.Fatalf("p2 应移到第 2 页")
	}
	for text, n := range seen {
		if n != 1 {
			t.Fatalf("节点 %s 被询问了 %d 次", text, n)
		}
	}
	if len(seen) != 5 {
		t.Fatalf("每个文本节点都应被询问: %v", seen)
	}
}

func TestPageBreakPolicyMatchesPresetBreak(t *testing.T) {
	doc := smallDoc(paragraphs(14))
	doc.PageBreakBefore = func(node NodeInfo, _, _, _ []NodeInfo) (bool, error) {
		return node.Kind == KindText && node.Text == "p7", nil
	}
	forced := buildDoc(t, doc)
	if forced.Passes != 2 {
		t.Fatalf("一次强制分页应排两遍，实际 %d", forced.Passes)
	}

	preset := paragraphs(14)
	preset.Stack[7].PageBreak = PageBreakBefore
	direct := buildDoc(t, smallDoc(preset))
	if direct.Passes != 1 {
		t.Fatalf("预设分页只应排一遍，实际 %d", direct.Passes)
	}

	if len(forced.Nodes) != len(direct.Nodes) {
		t.Fatalf("节点数不同: %d vs %d", len(forced.Nodes), len(direct.Nodes))
	}
	for i, n := range forced.Nodes {
		want := direct.Nodes[i].Positions
		if len(n.Positions) != len(want) {
			t.Fatalf("节点 %d 位置数不同: %d vs %d", i, len(n.Positions), len(want))
		}
		for j, p := range n.Positions {
			if *p != *want[j] {
				t.Fatalf("节点 %d 第 %d 个位置不同: %+v vs %+v", i, j, *p, *want[j])
			}
		}
	}
	if pageOf(t, forced, "p7") != 2 {
		t.Fatalf("p7 应移到第 2 页")
	}
}

func TestPageBreakPolicyError(t *testing.T) {
	boom := errors.New("boom")
	doc := smallDoc(paragraphs(2))
	doc.PageBreakBefore = func(NodeInfo, []NodeInfo, []NodeInfo, []NodeInfo) (bool, error) {
		return false, boom
	}
	if _, err := Build(doc, stubOptions()); !errors.Is(err, boom) {
		t.Fatalf("策略错误应透传，实际 %v", err)
	}
}

func TestHeaderAndFooterOnEveryPage(t *testing.T) {
	doc := smallDoc(paragraphs(12))
	doc.PageMargins = Margins{Top: 20, Bottom: 20}
	doc.Header = Repeatable{Dynamic: func(page, count int, _ PageSize) *Node {
		return textNode(fmt.Sprintf("%d/%d", page, count))
	}}
	doc.Footer = Repeatable{Static: textNode("foot")}
	res := buildDoc(t, doc)
	if len(res.Pages) != 2 {
		t.Fatalf("期望 2 页，实际 %d", len(res.Pages))
	}
	for i, page := range res.Pages {
		header := findLine(t, page, fmt.Sprintf("%d/2", i+1))
		if !eq(header.Y, 0) {
			t.Fatalf("页眉应位于页面顶部: %v", header.Y)
		}
		footer := findLine(t, page, "foot")
		if !eq(footer.Y, 80) {
			t.Fatalf("页脚应位于底边距内: %v", footer.Y)
		}
	}
	for _, n := range res.Nodes {
		if txt := n.PlainText(); txt == "foot" || strings.Contains(txt, "/") {
			t.Fatalf("页眉页脚不应计入正文节点")
		}
	}
}

func TestBackgroundOnEveryPage(t *testing.T) {
	doc := smallDoc(paragraphs(25))
	doc.Background = Repeatable{Static: &Node{Kind: KindCanvas, Canvas: []*Vector{
		{Kind: VectorRect, W: 100, H: 100, Color: "#f0f0f0"},
	}}}
	res := buildDoc(t, doc)
	for i, page := range res.Pages {
		if page.BackgroundLength != 1 {
			t.Fatalf("第 %d 页背景元素数为 %d", i+1, page.BackgroundLength)
		}
		bg := page.Background()[0]
		if bg.Kind != ItemVector || bg.Vector.Color != "#f0f0f0" {
			t.Fatalf("第 %d 页首个元素应为背景", i+1)
		}
	}
}

func TestWatermarkDefaults(t *testing.T) {
	doc := &Document{PageSize: PageSize{Width: 300, Height: 400}, Content: textNode("x"), Watermark: &WatermarkSpec{Text: "DRAFT"}}
	res := buildDoc(t, doc)
	wm := res.Pages[0].Watermark
	if wm == nil {
		t.Fatalf("缺少水印")
	}
	if wm.Color != "black" || !eq(wm.Opacity, 0.6) {
		t.Fatalf("水印默认值错误: %+v", wm)
	}
	// 对角线 500，目标宽度 400；测量宽度为 5*size/10
	if math.Abs(wm.FontSize-800) > 2 {
		t.Fatalf("水印字号应接近 800，实际 %v", wm.FontSize)
	}
	if !eq(wm.Width, wm.FontSize/2) {
		t.Fatalf("水印宽度应按最终字号测量: %v", wm.Width)
	}
	if math.Abs(wm.Angle-math.Atan2(400, 300)*180/math.Pi) > 1e-9 {
		t.Fatalf("水印角度错误: %v", wm.Angle)
	}
}

// styledText 是带默认样式的 stubText。
type styledText struct {
	stubText
	base Style
}

func (s styledText) BaseStyle() Style { return s.base }

func TestWatermarkDefaultFont(t *testing.T) {
	opts := stubOptions()
	opts.Text = styledText{base: Style{Font: "Lato"}}
	doc := &Document{Content: textNode("x"), Watermark: &WatermarkSpec{Text: "DRAFT", Bold: true}}
	res, err := Build(doc, opts)
	if err != nil {
		t.Fatalf("布局计算失败: %v", err)
	}
	if wm := res.Pages[0].Watermark; wm.Font.Family != "Lato" || !wm.Font.Bold {
		t.Fatalf("未指定字体的水印应使用默认样式字族: %+v", wm.Font)
	}

	doc.Watermark.Font = "Courier"
	if res, err = Build(doc, opts); err != nil {
		t.Fatalf("布局计算失败: %v", err)
	}
	if wm := res.Pages[0].Watermark; wm.Font.Family != "Courier" {
		t.Fatalf("显式字体不应被改写: %+v", wm.Font)
	}
}

func TestWatermarkExplicitSize(t *testing.T) {
	doc := &Document{Content: textNode("x"), Watermark: &WatermarkSpec{Text: "AB", FontSize: 40, Color: "red", Opacity: 0.2}}
	res := buildDoc(t, doc)
	wm := res.Pages[0].Watermark
	if !eq(wm.FontSize, 40) || wm.Color != "red" || !eq(wm.Opacity, 0.2) || !eq(wm.Width, 8) {
		t.Fatalf("显式水印设置被改写: %+v", wm)
	}
}

func TestPageBreakBeforeWithOrientation(t *testing.T) {
	second := textNode("second")
	second.PageBreak = PageBreakBefore
	second.PageOrientation = Landscape
	res := buildDoc(t, &Document{Content: stack(textNode("first"), second)})
	if len(res.Pages) != 2 {
		t.Fatalf("期望 2 页，实际 %d", len(res.Pages))
	}
	size := res.Pages[1].Size
	if size.Orientation != Landscape || size.Width <= size.Height {
		t.Fatalf("第 2 页应为横向: %+v", size)
	}
	pos := second.Positions[0]
	if pos.PageNumber != 2 || pos.PageOrientation != Landscape || !eq(pos.PageInnerWidth, DefaultPageSize.Height) {
		t.Fatalf("位置记录错误: %+v", pos)
	}
}

func TestUnbreakableMovesToNextPage(t *testing.T) {
	block := stack(textNode("u1"), textNode("u2"), textNode("u3"))
	block.Unbreakable = true
	res := buildDoc(t, smallDoc(stack(paragraphs(8), block)))
	for _, s := range []string{"u1", "u2", "u3"} {
		if pageOf(t, res, s) != 2 {
			t.Fatalf("不可分块应整体移到第 2 页: %s", s)
		}
	}
	u1 := findLine(t, res.Pages[1], "u1")
	if !eq(u1.Y, 0) {
		t.Fatalf("不可分块应从新页顶部开始: %v", u1.Y)
	}
	pos := block.Stack[2].Positions[0]
	if pos.PageNumber != 2 || !eq(pos.Y, 20) {
		t.Fatalf("不可分块内的位置应换算到目标页: %+v", pos)
	}
}

func TestUnorderedListMarkers(t *testing.T) {
	item := textNode("item")
	item.Marker = &Marker{Vector: &Vector{Kind: VectorEllipse, X: 3, Y: 5, R1: 2, R2: 2}, Width: 8}
	list := &Node{Kind: KindUnorderedList, List: &ListStyle{GapWidth: 8}, Items: []*Node{item}}
	res := buildDoc(t, smallDoc(stack(textNode("top"), list)))
	line := findLine(t, res.Pages[0], "item")
	if !eq(line.X, 8) {
		t.Fatalf("列表项应缩进标记宽度: %v", line.X)
	}
	var marker *Vector
	for _, it := range res.Pages[0].Items {
		if it.Kind == ItemVector {
			marker = it.Vector
		}
	}
	if marker == nil || !eq(marker.X, 3) || !eq(marker.Y, line.Y+5) {
		t.Fatalf("标记位置错误: %+v", marker)
	}
}

func TestOrderedListMarkers(t *testing.T) {
	var items []*Node
	for i := 1; i <= 2; i++ {
		item := textNode(fmt.Sprintf("item%d", i))
		item.Marker = &Marker{Runs: runsOf(t, fmt.Sprintf("%d.", i), Style{}), Width: 10}
		items = append(items, item)
	}
	list := &Node{Kind: KindOrderedList, List: &ListStyle{GapWidth: 10}, Items: items}
	res := buildDoc(t, smallDoc(list))
	for i := 1; i <= 2; i++ {
		marker := findLine(t, res.Pages[0], fmt.Sprintf("%d.", i))
		item := findLine(t, res.Pages[0], fmt.Sprintf("item%d", i))
		if !eq(marker.X, 0) || !eq(marker.Y, item.Y) {
			t.Fatalf("第 %d 个标记位置错误: marker=(%v,%v) item y=%v", i, marker.X, marker.Y, item.Y)
		}
	}
	if len(res.Pages[0].Lines()) != 4 {
		t.Fatalf("标记行不应影响后续行的位置")
	}
	if !eq(findLine(t, res.Pages[0], "item2").Y, 10) {
		t.Fatalf("标记行不应移动光标")
	}
}

func TestPageReferenceResolved(t *testing.T) {
	ref := &Node{Kind: KindText, Text: []Span{{Text: "00000", PageRef: "target", Style: Style{Alignment: "right"}}}}
	filler := textNode("filler")
	filler.PageBreak = PageBreakAfter
	target := textNode("T")
	target.ID = "target"
	res := buildDoc(t, &Document{Content: stack(ref, filler, target)})
	line := res.Pages[0].Lines()[0]
	run := line.Runs[0]
	if run.Text != "2" || !eq(run.Width, 1) {
		t.Fatalf("页码引用应替换为目标页码: %+v", run)
	}
	if !eq(line.X+line.Width(), DefaultPageSize.Width) {
		t.Fatalf("右对齐的页码替换后应重新靠右: x=%v", line.X)
	}
}

func TestPageReferenceUnknown(t *testing.T) {
	ref := &Node{Kind: KindText, Text: []Span{{Text: "00000", PageRef: "missing"}}}
	if _, err := Build(&Document{Content: ref}, stubOptions()); !errors.Is(err, ErrStructure) {
		t.Fatalf("未知的页码引用应返回结构错误，实际 %v", err)
	}
}

func TestUnrecognizedStructure(t *testing.T) {
	_, err := Build(&Document{Content: stack(&Node{Kind: Kind(99)})}, stubOptions())
	if !errors.Is(err, ErrStructure) {
		t.Fatalf("未知节点应返回结构错误，实际 %v", err)
	}
}

func TestJustifyAlignment(t *testing.T) {
	n := textNode("aa bb cc dd")
	n.Style.Alignment = "justify"
	res := buildDoc(t, &Document{PageSize: PageSize{Width: 10, Height: 200}, Content: n})
	lines := res.Pages[0].Lines()
	if len(lines) != 2 || lines[0].Text() != "aa bb cc " {
		t.Fatalf("换行结果错误: %q", lineTexts(lines))
	}
	runs := lines[0].Runs
	if !eq(runs[1].X, 4) || !eq(runs[2].X, 8) || !eq(runs[1].JustifyShift, 1) {
		t.Fatalf("两端对齐间距错误: %v %v %v", runs[1].X, runs[2].X, runs[1].JustifyShift)
	}
	if !eq(lines[1].Runs[0].JustifyShift, 0) {
		t.Fatalf("段落末行不做两端对齐")
	}
}

func TestMaxHeightTruncates(t *testing.T) {
	n := textNode("a\nb\nc")
	n.MaxHeight = 15
	res := buildDoc(t, &Document{Content: n})
	if got := len(res.Pages[0].Lines()); got != 1 {
		t.Fatalf("超出 maxHeight 的行不应输出，实际 %d 行", got)
	}
}

func TestAbsolutePositionDetached(t *testing.T) {
	abs := textNode("abs")
	abs.AbsolutePosition = &Point{X: 50, Y: 60}
	res := buildDoc(t, smallDoc(stack(textNode("before"), abs, textNode("after"))))
	page := res.Pages[0]
	a := findLine(t, page, "abs")
	if !eq(a.X, 50) || !eq(a.Y, 60) {
		t.Fatalf("绝对定位错误: (%v,%v)", a.X, a.Y)
	}
	if !eq(findLine(t, page, "after").Y, 10) {
		t.Fatalf("绝对定位不应影响文档流")
	}
}

func TestEncodeDebugJSON(t *testing.T) {
	res := buildDoc(t, smallDoc(paragraphs(3)))
	var buf bytes.Buffer
	if err := EncodeDebugJSON(res, &buf); err != nil {
		t.Fatalf("编码失败: %v", err)
	}
	var dump struct {
		Passes int        `json:"passes"`
		Nodes  []NodeInfo `json:"nodes"`
	}
	if err := json.Unmarshal(buf.Bytes(), &dump); err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if dump.Passes != 1 || len(dump.Nodes) != 4 {
		t.Fatalf("调试输出错误: passes=%d nodes=%d", dump.Passes, len(dump.Nodes))
	}
}
