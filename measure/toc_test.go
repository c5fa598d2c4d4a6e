package measure

import (
	"testing"

	"github.com/ripjar/pdfmake/layout"
)

func TestBuildTocTable(t *testing.T) {
	m := newMeasurer(t, Options{})
	intro := text("Intro")
	intro.TocItem = true
	intro.HeadlineLevel = 1
	sub := text("Details")
	sub.TocItem = true
	sub.HeadlineLevel = 2
	sub.ID = "details"
	toc := &layout.Node{Kind: layout.KindTOC, TOC: &layout.TOC{
		Title:       text("Contents"),
		NumberStyle: layout.Style{Bold: layout.On},
	}}
	root := &layout.Node{Kind: layout.KindStack, Stack: []*layout.Node{toc, intro, sub}}
	prepare(t, m, root)

	tbl := toc.TOC.Table
	if tbl == nil || len(tbl.Table.Body) != 2 {
		t.Fatalf("目录表格应有 2 行")
	}
	if intro.ID == "" {
		t.Fatalf("没有 id 的目录条目应自动分配 id")
	}
	row := tbl.Table.Body[1]
	if row[0].Runs[0].Text != "Details" || !eq(row[0].Margin.Left, tocIndent) {
		t.Fatalf("二级条目应缩进: %+v", row[0].Margin)
	}
	num := row[1]
	if num.Text[0].PageRef != "details" || num.TextStyle.Alignment != "right" || !num.TextStyle.Bold.Bool() {
		t.Fatalf("页码单元格不正确: %+v", num.TextStyle)
	}
	if tbl.Table.LayoutName != "noBorders" || !tbl.Table.DontBreakRows {
		t.Fatalf("目录表格应无边框且不拆行")
	}
	if toc.MinWidth <= 0 {
		t.Fatalf("目录节点应有宽度")
	}

	prepare(t, m, root)
	if len(toc.TOC.Table.Table.Body) != 2 {
		t.Fatalf("重复预处理不应重复收集条目")
	}
}
