package layout

import (
	"io"

	"github.com/charmbracelet/log"
)

// DefaultRTLFont 是 RTL 文本默认使用的字族名。
const DefaultRTLFont = "NotoSansRTL"

// BuildOptions 配置布局阶段所需的依赖，例如测量后端与日志。
type BuildOptions struct {
	Measurer DocumentMeasurer
	Text     TextMeasurer
	Logger   *log.Logger
	// RTLFont 为 RTL 段落重建 run 时使用的字族，空则为 DefaultRTLFont。
	RTLFont string
	Debug   DebugOptions
}

// DebugOptions 控制调试相关输出。
type DebugOptions struct {
	// LogPasses 在 debug 级别输出每一遍布局的页数与强制分页节点。
	LogPasses bool
}

func (o BuildOptions) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.New(io.Discard)
}

func (o BuildOptions) rtlFont() string {
	if o.RTLFont != "" {
		return o.RTLFont
	}
	return DefaultRTLFont
}

// DocumentMeasurer 负责预处理与测量文档树。
type DocumentMeasurer interface {
	// Preprocess 解析样式与外边距、收集目录条目、标记表格跨度占位。
	Preprocess(node *Node) (*Node, error)
	// Measure 为文本叶子生成 Runs，并计算各节点的最小/最大宽度。
	Measure(node *Node) (*Node, error)
}

// Size 是宽高。
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// TextMeasurer 提供文本宽度测量与 run 重建能力。
type TextMeasurer interface {
	WidthOf(text string, font Font, size, spacing float64, features []string) (float64, error)
	SizeOf(text string, style Style) (Size, error)
	// BuildRuns 在 base 样式之上把 spans 拆分成已测量的 run。
	BuildRuns(spans []Span, base Style) ([]*Run, error)
}

// BaseStyler 由能给出文档默认样式的 TextMeasurer 实现。
// 未指定字体的水印使用默认样式的字族。
type BaseStyler interface {
	BaseStyle() Style
}

// PageBreakPolicy 决定是否在 node 之前强制分页。
// following 为同一起始页上位于其后的节点，nextPage 为下一页上的节点，previous 为同页之前的节点。
type PageBreakPolicy func(node NodeInfo, following, nextPage, previous []NodeInfo) (bool, error)
