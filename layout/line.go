package layout

// Line 是一行已排好的 run，宽度上限为 MaxWidth。
type Line struct {
	MaxWidth            float64 `json:"maxWidth"`
	Runs                []*Run  `json:"runs"`
	X                   float64 `json:"x"`
	Y                   float64 `json:"y"`
	LastLineInParagraph bool    `json:"lastLineInParagraph,omitempty"`

	leadingCut    float64
	trailingCut   float64
	runWidths     float64
	newLineForced bool
}

func newLine(maxWidth float64) *Line {
	return &Line{MaxWidth: maxWidth}
}

// hasEnoughSpaceFor 判断 run 是否还能放进本行，边界值可放入。
// run 带 NoNewLine 时把后续连续的 run 一并计入。
func (l *Line) hasEnoughSpaceFor(run *Run, following []*Run) bool {
	if len(l.Runs) == 0 {
		return true
	}
	if l.newLineForced {
		return false
	}
	width := run.Width
	trailingCut := run.TrailingCut
	if run.NoNewLine {
		for _, next := range following {
			width += next.Width
			trailingCut += next.TrailingCut
			if !next.NoNewLine {
				break
			}
		}
	}
	return l.runWidths+width-l.leadingCut-trailingCut <= l.MaxWidth
}

// addRun 追加 run 的副本。
func (l *Line) addRun(run *Run) *Run {
	r := run.clone()
	if len(l.Runs) == 0 {
		l.leadingCut = r.LeadingCut
	}
	l.trailingCut = r.TrailingCut
	r.X = l.runWidths - l.leadingCut
	r.JustifyShift = 0
	l.Runs = append(l.Runs, r)
	l.runWidths += r.Width
	if r.LineEnd {
		l.newLineForced = true
	}
	return r
}

// Width 返回去掉首尾空白后的可见宽度。
func (l *Line) Width() float64 {
	return l.runWidths - l.leadingCut - l.trailingCut
}

// AvailableWidth 返回本行剩余宽度。
func (l *Line) AvailableWidth() float64 {
	return l.MaxWidth - l.Width()
}

// Height 是各 run 行高的最大值。
func (l *Line) Height() float64 {
	var h float64
	for _, r := range l.Runs {
		if r.Height > h {
			h = r.Height
		}
	}
	return h
}

// AscenderHeight 是各 run 上升高度的最大值。
func (l *Line) AscenderHeight() float64 {
	var h float64
	for _, r := range l.Runs {
		if r.Ascender > h {
			h = r.Ascender
		}
	}
	return h
}

// NewLineForced 表示行尾有强制换行。
func (l *Line) NewLineForced() bool { return l.newLineForced }

// Text 返回行内文本，便于调试与测试。
func (l *Line) Text() string {
	var s string
	for _, r := range l.Runs {
		s += r.Text
	}
	return s
}

func (l *Line) clone() *Line {
	c := *l
	c.Runs = make([]*Run, len(l.Runs))
	for i, r := range l.Runs {
		c.Runs[i] = r.clone()
	}
	return &c
}

// reset 清空行内 run，保留宽度上限与强制换行状态。
func (l *Line) reset() {
	l.Runs = nil
	l.leadingCut = 0
	l.trailingCut = 0
	l.runWidths = 0
}
