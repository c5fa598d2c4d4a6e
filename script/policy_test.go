package script

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ripjar/pdfmake/layout"
)

func heading(level int, top float64, pages ...int) layout.NodeInfo {
	return layout.NodeInfo{
		ID:            "h",
		Kind:          layout.KindText,
		Text:          "Heading",
		HeadlineLevel: level,
		StartPosition: layout.Position{PageNumber: pages[0], PageInnerHeight: 800, PageInnerWidth: 500, Y: top},
		PageNumbers:   pages,
		Pages:         3,
	}
}

func TestPolicyHeadlineAtBottom(t *testing.T) {
	p, err := Compile(`function (node, following) {
		return node.headlineLevel === 1 && node.startPosition.verticalRatio > 0.9 && following.length === 0
	}`, nil)
	if err != nil {
		t.Fatalf("编译失败: %v", err)
	}
	ctx := context.Background()

	ok, err := p.Evaluate(ctx, heading(1, 760, 1), nil, nil, nil)
	if err != nil || !ok {
		t.Fatalf("页底的一级标题应当分页: ok=%v err=%v", ok, err)
	}
	ok, _ = p.Evaluate(ctx, heading(1, 100, 1), nil, nil, nil)
	if ok {
		t.Fatalf("页顶的标题不应分页")
	}
	ok, _ = p.Evaluate(ctx, heading(1, 760, 1), []layout.NodeInfo{heading(2, 780, 1)}, nil, nil)
	if ok {
		t.Fatalf("后面还有节点时不应分页")
	}
}

func TestPolicyNodeFields(t *testing.T) {
	p, err := Compile(`function (node, following, nextPage, previous) {
		return node.kind === "text" && node.text === "Heading" && node.pageNumbers.length === 2 &&
			node.pageNumbers[1] === 2 && nextPage.length === 1 && previous[0].id === "h"
	}`, nil)
	if err != nil {
		t.Fatalf("编译失败: %v", err)
	}
	f := p.Func(context.Background())
	ok, err := f(heading(1, 10, 1, 2), nil, []layout.NodeInfo{heading(2, 0, 2)}, []layout.NodeInfo{heading(3, 0, 1)})
	if err != nil || !ok {
		t.Fatalf("节点字段未正确传入脚本: ok=%v err=%v", ok, err)
	}
}

func TestPolicyTruthiness(t *testing.T) {
	p, err := Compile(`function () { return "yes" }`, nil)
	if err != nil {
		t.Fatalf("编译失败: %v", err)
	}
	if ok, _ := p.Evaluate(context.Background(), heading(1, 0, 1), nil, nil, nil); !ok {
		t.Fatalf("非空字符串应视为 true")
	}
}

func TestCompileErrors(t *testing.T) {
	if _, err := Compile(`42`, nil); !errors.Is(err, ErrNotFunction) {
		t.Fatalf("期望 ErrNotFunction，实际 %v", err)
	}
	if _, err := Compile(`function (`, nil); err == nil {
		t.Fatalf("语法错误应当报错")
	}
}

func TestPolicyRuntimeError(t *testing.T) {
	p, err := Compile(`function (node) { throw new Error("boom") }`, nil)
	if err != nil {
		t.Fatalf("编译失败: %v", err)
	}
	if _, err := p.Evaluate(context.Background(), heading(1, 0, 1), nil, nil, nil); err == nil {
		t.Fatalf("脚本异常应当返回错误")
	}
}

func TestPolicyContext(t *testing.T) {
	p, err := Compile(`function () { for (;;) {} }`, nil)
	if err != nil {
		t.Fatalf("编译失败: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = p.Evaluate(ctx, heading(1, 0, 1), nil, nil, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("超时应中断脚本，实际 %v", err)
	}

	canceled, stop := context.WithCancel(context.Background())
	stop()
	if _, err := p.Evaluate(canceled, heading(1, 0, 1), nil, nil, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("已取消的 context 应直接返回，实际 %v", err)
	}
}
