// Package renderer 定义排版结果的输出后端。
package renderer

import (
	"io"

	"github.com/ripjar/pdfmake/layout"
)

// Renderer 把排版结果输出为最终文件，例如 PDF。
type Renderer interface {
	// Render 返回完整的文件内容。
	Render(result *layout.Result) ([]byte, error)
	// RenderTo 把文件内容直接写入 w，适合大文档或流式输出。
	RenderTo(w io.Writer, result *layout.Result) error
}
