package layout

import (
	"fmt"
	"math"
)

// buildNextLine 从节点的 run 游标中取出能放进当前可用宽度的一行，游标耗尽时返回 nil。
func (b *layoutBuilder) buildNextLine(node *Node) (*Line, error) {
	cur := node.cursor()
	if cur.empty() {
		return nil, nil
	}
	line := newLine(b.writer.ctx.availableWidth)
	forceContinue := false
	for !cur.empty() && (forceContinue || line.hasEnoughSpaceFor(cur.peek(), cur.following())) {
		hardWrap := false
		run := cur.pop()
		forceContinue = false

		if !run.NoWrap && run.Len() > 1 && run.Width > line.AvailableWidth() {
			head, tail, err := b.splitRun(run, line.AvailableWidth())
			if err != nil {
				return nil, err
			}
			if tail != nil {
				cur.pushFront(tail)
				run = head
				hardWrap = true
			}
		}

		line.addRun(run)
		forceContinue = run.NoNewLine && !hardWrap
	}

	var err error
	switch {
	case !node.RTL && hasInlineRTL(line):
		line, err = b.assembleInlineRTL(line, node)
	case node.RTL:
		err = b.transformLineForRTL(line, node)
	}
	if err != nil {
		return nil, err
	}
	line.LastLineInParagraph = cur.empty()
	return line, nil
}

func hasInlineRTL(line *Line) bool {
	for _, r := range line.Runs {
		if r.InlineRTL {
			return true
		}
	}
	return false
}

// splitRun 按平均字宽把过宽的 run 切成头尾两段，头尾各自重新测量。
// 能整体放下时 tail 为 nil。
func (b *layoutBuilder) splitRun(run *Run, available float64) (head, tail *Run, err error) {
	text := []rune(run.Text)
	perChar := run.Width / float64(len(text))
	maxChars := 1
	if perChar > 0 {
		if n := math.Floor(available / perChar); n > 1 {
			maxChars = int(math.Min(n, float64(len(text))))
		}
	}
	if maxChars >= len(text) {
		return run, nil, nil
	}

	head = run.clone()
	tail = run.clone()
	head.Text = string(text[:maxChars])
	tail.Text = string(text[maxChars:])
	head.LineEnd = false

	if head.Width, err = b.widthOf(run, head.Text); err != nil {
		return nil, nil, err
	}
	if tail.Width, err = b.widthOf(run, tail.Text); err != nil {
		return nil, nil, err
	}
	if head.TrailingCut, err = b.widthOf(run, trailingSpace(head.Text)); err != nil {
		return nil, nil, err
	}
	if tail.LeadingCut, err = b.widthOf(run, leadingSpace(tail.Text)); err != nil {
		return nil, nil, err
	}
	return head, tail, nil
}

func (b *layoutBuilder) widthOf(run *Run, text string) (float64, error) {
	if text == "" {
		return 0, nil
	}
	w, err := b.text.WidthOf(text, run.Font, run.FontSize, run.CharacterSpacing, run.FontFeatures)
	if err != nil {
		return 0, fmt.Errorf("测量文本 %q 失败: %w", text, err)
	}
	return w, nil
}
