// Package script 用 JavaScript 函数实现分页否决策略。
package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dop251/goja"

	"github.com/ripjar/pdfmake/layout"
)

// ErrNotFunction 表示脚本求值结果不是函数。
var ErrNotFunction = errors.New("script: pageBreakBefore 必须是函数")

// Policy 包装一个 pageBreakBefore(node, followingNodesOnPage, nodesOnNextPage, previousNodesOnPage) 函数。
// goja 运行时不是并发安全的，同一个 Policy 只能在一个 goroutine 中使用。
type Policy struct {
	vm  *goja.Runtime
	fn  goja.Callable
	log *log.Logger
}

// Compile 编译函数表达式，例如 `function (node, following) { return node.headlineLevel === 1 }`。
// 脚本中的 console.log 以 debug 级别写入 logger，logger 为 nil 时丢弃。
func Compile(src string, logger *log.Logger) (*Policy, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	vm := goja.New()
	p := &Policy{vm: vm, log: logger}

	console := vm.NewObject()
	if err := console.Set("log", p.consoleLog); err != nil {
		return nil, err
	}
	if err := vm.Set("console", console); err != nil {
		return nil, err
	}

	v, err := vm.RunString("(" + src + "\n)")
	if err != nil {
		return nil, fmt.Errorf("script: 编译 pageBreakBefore 失败: %w", err)
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, ErrNotFunction
	}
	p.fn = fn
	return p, nil
}

func (p *Policy) consoleLog(call goja.FunctionCall) goja.Value {
	parts := make([]string, len(call.Arguments))
	for i, arg := range call.Arguments {
		parts[i] = arg.String()
	}
	p.log.Debug("pageBreakBefore", "console", strings.Join(parts, " "))
	return goja.Undefined()
}

// Evaluate 调用脚本函数，返回值按 JavaScript 真值判断。ctx 取消时中断脚本执行。
func (p *Policy) Evaluate(ctx context.Context, node layout.NodeInfo, following, nextPage, previous []layout.NodeInfo) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	done := make(chan struct{})
	defer close(done)
	defer p.vm.ClearInterrupt()

	go func() {
		select {
		case <-ctx.Done():
			p.vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	v, err := p.fn(goja.Undefined(),
		p.vm.ToValue(infoValue(node)),
		p.vm.ToValue(infoValues(following)),
		p.vm.ToValue(infoValues(nextPage)),
		p.vm.ToValue(infoValues(previous)),
	)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			if cause := interrupted.Unwrap(); cause != nil {
				return false, cause
			}
			return false, context.Canceled
		}
		return false, fmt.Errorf("script: pageBreakBefore 执行失败: %w", err)
	}
	return v.ToBoolean(), nil
}

// Func 把 Policy 适配为 layout.PageBreakPolicy。
func (p *Policy) Func(ctx context.Context) layout.PageBreakPolicy {
	return func(node layout.NodeInfo, following, nextPage, previous []layout.NodeInfo) (bool, error) {
		return p.Evaluate(ctx, node, following, nextPage, previous)
	}
}

// infoValue 把节点快照转换为脚本可读的普通对象，字段名与 JSON 输出一致。
func infoValue(info layout.NodeInfo) map[string]any {
	start := info.StartPosition
	pos := map[string]any{
		"pageNumber":      start.PageNumber,
		"pageOrientation": start.PageOrientation.String(),
		"pageInnerWidth":  start.PageInnerWidth,
		"pageInnerHeight": start.PageInnerHeight,
		"left":            start.X,
		"top":             start.Y,
		"verticalRatio":   0.0,
		"horizontalRatio": 0.0,
	}
	if start.PageInnerHeight > 0 {
		pos["verticalRatio"] = start.Y / start.PageInnerHeight
	}
	if start.PageInnerWidth > 0 {
		pos["horizontalRatio"] = start.X / start.PageInnerWidth
	}

	styles := make([]any, len(info.StyleNames))
	for i, s := range info.StyleNames {
		styles[i] = s
	}
	pages := make([]any, len(info.PageNumbers))
	for i, n := range info.PageNumbers {
		pages[i] = n
	}
	return map[string]any{
		"id":              info.ID,
		"kind":            info.Kind.String(),
		"text":            info.Text,
		"headlineLevel":   info.HeadlineLevel,
		"style":           styles,
		"pageBreak":       info.PageBreak.String(),
		"pageOrientation": info.PageOrientation.String(),
		"width":           info.Width,
		"height":          info.Height,
		"startPosition":   pos,
		"pageNumbers":     pages,
		"pages":           info.Pages,
		"stack":           info.Stack,
	}
}

func infoValues(infos []layout.NodeInfo) []any {
	out := make([]any, len(infos))
	for i, info := range infos {
		out[i] = infoValue(info)
	}
	return out
}
