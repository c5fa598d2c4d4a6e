package layout

import (
	"encoding/json"
	"io"
	"os"
)

// debugDump 是调试 JSON 的结构：页面元素加上每个正文节点的放置信息。
type debugDump struct {
	Passes int          `json:"passes"`
	Meta   DocumentMeta `json:"meta"`
	Pages  []*Page      `json:"pages"`
	Nodes  []NodeInfo   `json:"nodes"`
}

// EncodeDebugJSON 将布局结果编码为带缩进的 JSON。
func EncodeDebugJSON(res *Result, w io.Writer) error {
	if res == nil {
		return nil
	}
	dump := debugDump{Passes: res.Passes, Meta: res.Meta, Pages: res.Pages}
	for _, n := range res.Nodes {
		if len(n.Positions) > 0 {
			dump.Nodes = append(dump.Nodes, newNodeInfo(n, len(res.Pages)))
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(dump)
}

// WriteDebugJSON 将布局结果输出为 JSON，便于调试或可视化。
func WriteDebugJSON(res *Result, path string) error {
	if res == nil {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeDebugJSON(res, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
