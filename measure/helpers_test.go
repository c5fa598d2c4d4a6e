package measure

import (
	"math"
	"testing"

	"github.com/ripjar/pdfmake/layout"
)

// 默认字号 12、FixedMetrics 默认 advance 0.5 时每个码点宽 6pt。
const runeWidth = 6

func newMeasurer(t *testing.T, opts Options) *Measurer {
	t.Helper()
	m, err := New(FixedMetrics{}, opts)
	if err != nil {
		t.Fatalf("创建测量器失败: %v", err)
	}
	return m
}

func text(s string) *layout.Node {
	return &layout.Node{Kind: layout.KindText, Text: []layout.Span{{Text: s}}}
}

func prepare(t *testing.T, m *Measurer, root *layout.Node) *layout.Node {
	t.Helper()
	n, err := m.Preprocess(root)
	if err != nil {
		t.Fatalf("预处理失败: %v", err)
	}
	if n, err = m.Measure(n); err != nil {
		t.Fatalf("测量失败: %v", err)
	}
	return n
}

func eq(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func runTexts(runs []*layout.Run) []string {
	out := make([]string, len(runs))
	for i, r := range runs {
		out[i] = r.Text
	}
	return out
}
