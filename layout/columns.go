package layout

import "math"

// buildColumnWidths 在 available 宽度内为各列计算 Calc：
// 固定宽度与百分比优先，auto 列按最小/最大宽度分配，* 列平分剩余宽度。
func buildColumnWidths(columns []*ColumnWidth, available float64) {
	var (
		autoColumns, starColumns, fixedColumns []*ColumnWidth
		autoMin, autoMax                       float64
		starMaxMin, starMaxMax                 float64
	)
	initial := available
	for _, c := range columns {
		switch c.Spec.Kind {
		case DimAuto:
			autoColumns = append(autoColumns, c)
			autoMin += c.MinWidth
			autoMax += c.MaxWidth
		case DimStar:
			starColumns = append(starColumns, c)
			starMaxMin = math.Max(starMaxMin, c.MinWidth)
			starMaxMax = math.Max(starMaxMax, c.MaxWidth)
		default:
			fixedColumns = append(fixedColumns, c)
		}
	}

	for _, c := range fixedColumns {
		width := c.Spec.Value
		if c.Spec.Kind == DimPercent {
			width = c.Spec.Value * initial / 100
		}
		if width < c.MinWidth && c.Elastic {
			c.Calc = c.MinWidth
		} else {
			c.Calc = width
		}
		available -= c.Calc
	}

	minW := autoMin + starMaxMin*float64(len(starColumns))
	maxW := autoMax + starMaxMax*float64(len(starColumns))
	if minW >= available {
		// 放不下：全部使用最小宽度
		for _, c := range autoColumns {
			c.Calc = c.MinWidth
		}
		for _, c := range starColumns {
			c.Calc = starMaxMin
		}
		return
	}

	if maxW < available {
		for _, c := range autoColumns {
			c.Calc = c.MaxWidth
			available -= c.Calc
		}
	} else {
		w := available - minW
		d := maxW - minW
		for _, c := range autoColumns {
			c.Calc = c.MinWidth + (c.MaxWidth-c.MinWidth)*w/d
			available -= c.Calc
		}
	}

	if len(starColumns) > 0 {
		size := available / float64(len(starColumns))
		for _, c := range starColumns {
			c.Calc = size
		}
	}
}

// MeasureMinMax 汇总一组列的最小与最大宽度；* 列都按其中最宽的一列计。
// 测量阶段用它计算 columns 节点与表格的宽度范围。
func MeasureMinMax(columns []*ColumnWidth) (min, max float64) {
	var starMin, starMax float64
	stars := 0
	for _, c := range columns {
		switch c.Spec.Kind {
		case DimStar:
			starMin = math.Max(starMin, c.MinWidth)
			starMax = math.Max(starMax, c.MaxWidth)
			stars++
		case DimAuto:
			min += c.MinWidth
			max += c.MaxWidth
		case DimFixed:
			if c.Spec.Value != 0 {
				min += c.Spec.Value
				max += c.Spec.Value
			} else {
				min += c.MinWidth
				max += c.MinWidth
			}
		default:
			min += c.MinWidth
			max += c.MinWidth
		}
	}
	min += float64(stars) * starMin
	max += float64(stars) * starMax
	return min, max
}

// ColumnWidthsOf 把 columns 节点的子节点转换为列宽描述。
func ColumnWidthsOf(nodes []*Node) []*ColumnWidth {
	out := make([]*ColumnWidth, len(nodes))
	for i, n := range nodes {
		out[i] = &ColumnWidth{Spec: n.Width, MinWidth: n.MinWidth, MaxWidth: n.MaxWidth}
	}
	return out
}
