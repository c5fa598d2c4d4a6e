package layout

import "fmt"

// addPageBreaksIfNecessary 依次询问分页策略，第一个被批准的节点标记为 before 并返回 true。
// 已标记 before 或已询问过的节点跳过，询问标记在多遍之间保留。
func (b *layoutBuilder) addPageBreaksIfNecessary(nodes []*Node, pages int) (bool, error) {
	policy := b.doc.PageBreakBefore
	if policy == nil {
		return false, nil
	}

	var placed []*Node
	var infos []NodeInfo
	for _, n := range nodes {
		if len(n.Positions) == 0 {
			continue
		}
		placed = append(placed, n)
		infos = append(infos, newNodeInfo(n, pages))
	}

	for i, n := range placed {
		if n.PageBreak == PageBreakBefore || n.evaluated {
			continue
		}
		n.evaluated = true
		page := infos[i].PageNumbers[0]
		following := infosOnPage(infos[i+1:], page)
		nextPage := infosOnPage(infos[i+1:], page+1)
		previous := infosOnPage(infos[:i], page)

		ok, err := policy(infos[i], following, nextPage, previous)
		if err != nil {
			return false, fmt.Errorf("分页策略处理节点 %d 失败: %w", i, err)
		}
		if ok {
			n.PageBreak = PageBreakBefore
			b.log.Debug("强制分页", "kind", n.Kind, "id", n.ID, "page", page)
			return true, nil
		}
	}
	return false, nil
}

func infosOnPage(infos []NodeInfo, page int) []NodeInfo {
	var out []NodeInfo
	for _, info := range infos {
		if info.OnPage(page) {
			out = append(out, info)
		}
	}
	return out
}
