package layout

import "testing"

func col(spec Dimension, minW, maxW float64) *ColumnWidth {
	return &ColumnWidth{Spec: spec, MinWidth: minW, MaxWidth: maxW}
}

func calcs(cols []*ColumnWidth) []float64 {
	out := make([]float64, len(cols))
	for i, c := range cols {
		out[i] = c.Calc
	}
	return out
}

func assertCalcs(t *testing.T, cols []*ColumnWidth, want ...float64) {
	t.Helper()
	got := calcs(cols)
	for i := range want {
		if !eq(got[i], want[i]) {
			t.Fatalf("列宽不符合预期: 实际 %v，期望 %v", got, want)
		}
	}
}

func TestColumnWidthsStarAndFixed(t *testing.T) {
	cols := []*ColumnWidth{col(Fixed(100), 0, 0), col(Dimension{Kind: DimStar}, 10, 50), col(Dimension{Kind: DimStar}, 20, 30)}
	buildColumnWidths(cols, 300)
	assertCalcs(t, cols, 100, 100, 100)
}

func TestColumnWidthsAutoFitsMax(t *testing.T) {
	// 最大宽度之和小于可用宽度：auto 列取最大宽度，剩余给 * 列
	cols := []*ColumnWidth{col(Dimension{Kind: DimAuto}, 20, 60), col(Dimension{Kind: DimStar}, 10, 40)}
	buildColumnWidths(cols, 200)
	assertCalcs(t, cols, 60, 140)
}

func TestColumnWidthsAutoInterpolates(t *testing.T) {
	// min=30 max=130，可用 80：auto 按比例分配
	cols := []*ColumnWidth{col(Dimension{Kind: DimAuto}, 20, 100), col(Dimension{Kind: DimStar}, 10, 30)}
	buildColumnWidths(cols, 80)
	// auto = 20 + 80*(50/100) = 60，* 列得到剩余 20
	assertCalcs(t, cols, 60, 20)
}

func TestColumnWidthsAllMinimum(t *testing.T) {
	cols := []*ColumnWidth{col(Dimension{Kind: DimAuto}, 50, 100), col(Dimension{Kind: DimStar}, 40, 60), col(Dimension{Kind: DimStar}, 30, 60)}
	buildColumnWidths(cols, 100)
	// * 列都取其中最大的最小宽度
	assertCalcs(t, cols, 50, 40, 40)
}

func TestColumnWidthsPercent(t *testing.T) {
	cols := []*ColumnWidth{col(Dimension{Kind: DimPercent, Value: 25}, 0, 0), col(Dimension{Kind: DimStar}, 0, 0)}
	buildColumnWidths(cols, 400)
	assertCalcs(t, cols, 100, 300)
}

func TestColumnWidthsElastic(t *testing.T) {
	c := col(Fixed(10), 30, 30)
	c.Elastic = true
	cols := []*ColumnWidth{c, col(Dimension{Kind: DimStar}, 0, 0)}
	buildColumnWidths(cols, 100)
	assertCalcs(t, cols, 30, 70)
}

func TestMeasureMinMax(t *testing.T) {
	cols := []*ColumnWidth{
		col(Fixed(40), 10, 90),
		col(Dimension{Kind: DimAuto}, 5, 25),
		col(Dimension{Kind: DimStar}, 10, 20),
		col(Dimension{Kind: DimStar}, 15, 18),
	}
	minW, maxW := MeasureMinMax(cols)
	// 40 + 5 + 2*15 = 75；40 + 25 + 2*20 = 105
	if !eq(minW, 75) || !eq(maxW, 105) {
		t.Fatalf("MeasureMinMax = (%v, %v)，期望 (75, 105)", minW, maxW)
	}
}

func TestColumnsNodeWithGap(t *testing.T) {
	doc := &Document{
		PageSize:    PageSize{Width: 230, Height: 400},
		PageMargins: Margins{Left: 10, Right: 10, Top: 10, Bottom: 10},
		Content: &Node{Kind: KindColumns, ColumnGap: 10, Columns: []*Node{
			textNode("left"),
			textNode("right"),
		}},
	}
	res := buildDoc(t, doc)
	lines := res.Pages[0].Lines()
	if len(lines) != 2 {
		t.Fatalf("期望两列各一行，实际 %d 行", len(lines))
	}
	// 可用 210 - 10 间距 = 200，每列 100
	if !eq(lines[0].X, 10) || !eq(lines[1].X, 120) {
		t.Fatalf("列位置错误: %v %v", lines[0].X, lines[1].X)
	}
	if !eq(lines[0].Y, lines[1].Y) {
		t.Fatalf("两列应从同一高度开始")
	}
}
