package layout

import (
	"errors"
	"fmt"
)

// ErrStructure 表示文档结构无法布局，例如未知节点或越界的 rowSpan。
var ErrStructure = errors.New("structural error")

// StructureError 携带出错位置，便于定位输入问题。
type StructureError struct {
	Op     string
	Detail string
	Index  int
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("layout: %s: %s", e.Op, e.Detail)
}

func (e *StructureError) Unwrap() error { return ErrStructure }

func unrecognizedStructure(n *Node) error {
	return &StructureError{
		Op:     "processNode",
		Detail: fmt.Sprintf("unrecognized document structure: kind=%v id=%q text=%q", n.Kind, n.ID, n.PlainText()),
		Index:  -1,
	}
}

func rowSpanExceeded(column int) error {
	return &StructureError{
		Op:     "processRow",
		Detail: fmt.Sprintf("row span for column %d (with indexes starting from 0) exceeded row count", column),
		Index:  column,
	}
}
