package dsl

import (
	"errors"
	"fmt"
	"io"

	"github.com/ripjar/pdfmake/binding"
	"github.com/ripjar/pdfmake/layout"
)

// defaultMargins 是未声明页边距时的四边边距（pt）。
const defaultMargins = 40

// Template 是转换后的文档：布局输入、样式表与脚本钩子。
type Template struct {
	Document *layout.Document
	// Styles 为 styles 段中的具名样式，Default 为 default 块声明的基础样式。
	Styles  map[string]layout.Style
	Default layout.Style
	// PageBreakScript 为 script 段中 pageBreakBefore 的 JavaScript 源码，空表示未设置。
	PageBreakScript string
	// PageDeclared 表示文档声明了 page 段，此时调用方不应再覆盖页面尺寸与边距。
	PageDeclared bool
}

// Load 解析并转换文档，文本中的 ${path} 按 data 替换。
func Load(r io.Reader, data any) (*Template, error) {
	doc, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("解析文档失败: %w", err)
	}
	return Convert(doc, data)
}

// Convert 把语法树转换为布局输入。
func Convert(doc *Document, data any) (*Template, error) {
	if doc == nil {
		return nil, errors.New("dsl: 文档为空")
	}
	c := &converter{data: data}
	tpl := &Template{
		Document: &layout.Document{
			PageSize:    layout.DefaultPageSize,
			PageMargins: layout.Margins{Left: defaultMargins, Top: defaultMargins, Right: defaultMargins, Bottom: defaultMargins},
		},
		Styles: map[string]layout.Style{},
	}
	for _, sec := range doc.Sections {
		var err error
		switch {
		case sec.Meta != nil:
			err = c.meta(&tpl.Document.Meta, sec.Meta.Block)
		case sec.Styles != nil:
			err = c.styles(tpl, sec.Styles.Block)
		case sec.Page != nil:
			err = c.page(tpl.Document, sec.Page)
			tpl.PageDeclared = true
		case sec.Watermark != nil:
			tpl.Document.Watermark, err = c.watermark(sec.Watermark.Block)
		case sec.Script != nil:
			tpl.PageBreakScript, err = c.script(sec.Script.Block)
		case sec.Region != nil:
			err = c.region(tpl.Document, sec.Region)
		}
		if err != nil {
			return nil, err
		}
	}
	if tpl.Document.Content == nil {
		return nil, errors.New("dsl: 缺少 content 段")
	}
	return tpl, nil
}

// converter 持有绑定数据与 each 展开时压入的作用域（内层在前）。
type converter struct {
	data   any
	scopes []any
}

func (c *converter) with(scope any) *converter {
	scopes := append([]any{scope}, c.scopes...)
	return &converter{data: c.data, scopes: scopes}
}

func (c *converter) all() []any {
	return append(append([]any(nil), c.scopes...), c.data)
}

func (c *converter) interpolate(s string) string {
	return binding.Interpolate(s, c.all()...)
}

// assignments 返回块内的全部赋值，遇到其他语句报错。
func assignments(b *Block, section string) ([]*Assignment, error) {
	var out []*Assignment
	if b == nil {
		return nil, nil
	}
	for _, st := range b.Statements {
		switch {
		case st.Assignment != nil:
			out = append(out, st.Assignment)
		case st.Command != nil:
			return nil, errorf(st.Command.Pos, "%s 段中不能使用命令 %s", section, st.Command.Name)
		case st.Text != nil:
			return nil, errorf(st.Text.Pos, "%s 段中不能包含文本", section)
		}
	}
	return out, nil
}

func (c *converter) meta(meta *layout.DocumentMeta, b *Block) error {
	entries, err := assignments(b, "meta")
	if err != nil {
		return err
	}
	for _, a := range entries {
		switch a.Key {
		case "title":
			meta.Title, err = c.str(a.Value)
		case "author":
			meta.Author, err = c.str(a.Value)
		case "subject":
			meta.Subject, err = c.str(a.Value)
		case "creator":
			meta.Creator, err = c.str(a.Value)
		case "keywords":
			meta.Keywords, err = c.strs(a.Value)
		default:
			err = fmt.Errorf("未知的属性")
		}
		if err != nil {
			return errorf(a.Pos, "meta.%s: %w", a.Key, err)
		}
	}
	return nil
}

// styles 读取 `style name { ... }` 与 `default { ... }`。
func (c *converter) styles(tpl *Template, b *Block) error {
	for _, st := range b.Statements {
		cmd := st.Command
		if cmd == nil {
			return errors.New("dsl: styles 段只能包含 style 与 default 块")
		}
		entries, err := assignments(cmd.Block, cmd.Name)
		if err != nil {
			return err
		}
		s, err := c.style(entries)
		if err != nil {
			return err
		}
		switch cmd.Name {
		case "default":
			tpl.Default = tpl.Default.Merge(s)
		case "style":
			if len(cmd.Args) != 1 {
				return errorf(cmd.Pos, "style 需要一个名称")
			}
			tpl.Styles[cmd.Args[0].Value] = s
		default:
			return errorf(cmd.Pos, "styles 段中未知的命令 %s", cmd.Name)
		}
	}
	return nil
}

// page 处理 `page A4 landscape margin 40 { ... }`；margin 后可跟 1、2 或 4 个数值。
func (c *converter) page(doc *layout.Document, sec *PageSection) error {
	size, ok := layout.NamedPageSize(sec.Spec.Size, layout.Portrait)
	if !ok {
		return fmt.Errorf("dsl: 未知的页面尺寸 %s", sec.Spec.Size)
	}
	orient := layout.Portrait
	params := sec.Spec.Params
	for i := 0; i < len(params); i++ {
		p := params[i]
		switch p.Value {
		case "portrait", "landscape":
			orient, _ = orientation(p.Value)
		case "margin":
			var values []float64
			for i+1 < len(params) && params[i+1].Type == "Number" {
				i++
				values = append(values, layout.ParseLength(params[i].Value).ToPT())
			}
			m, err := marginsOf(values)
			if err != nil {
				return errorf(p.Pos, "%w", err)
			}
			doc.PageMargins = m
		default:
			return errorf(p.Pos, "未知的页面参数 %s", p.Raw)
		}
	}

	var entries []*Assignment
	if sec.Block != nil {
		var err error
		if entries, err = assignments(sec.Block, "page"); err != nil {
			return err
		}
	}
	for _, a := range entries {
		var err error
		switch a.Key {
		case "margin":
			doc.PageMargins, err = c.margins(a.Value)
		case "width":
			size.Width, err = c.num(a.Value)
		case "height":
			size.Height, err = c.num(a.Value)
		case "orientation":
			var s string
			if s, err = c.str(a.Value); err == nil {
				orient, err = orientation(s)
			}
		default:
			err = fmt.Errorf("未知的属性")
		}
		if err != nil {
			return errorf(a.Pos, "page.%s: %w", a.Key, err)
		}
	}
	if (orient == layout.Landscape) != (size.Width > size.Height) {
		size.Width, size.Height = size.Height, size.Width
	}
	size.Orientation = orient
	doc.PageSize = size
	return nil
}

func (c *converter) watermark(b *Block) (*layout.WatermarkSpec, error) {
	entries, err := assignments(b, "watermark")
	if err != nil {
		return nil, err
	}
	wm := &layout.WatermarkSpec{}
	for _, a := range entries {
		switch a.Key {
		case "text":
			wm.Text, err = c.str(a.Value)
		case "font":
			wm.Font, err = c.str(a.Value)
		case "fontSize":
			wm.FontSize, err = c.num(a.Value)
		case "color":
			wm.Color, err = c.str(a.Value)
		case "opacity":
			wm.Opacity, err = c.num(a.Value)
		case "bold":
			wm.Bold, err = c.boolean(a.Value)
		case "italics":
			wm.Italics, err = c.boolean(a.Value)
		default:
			err = fmt.Errorf("未知的属性")
		}
		if err != nil {
			return nil, errorf(a.Pos, "watermark.%s: %w", a.Key, err)
		}
	}
	if wm.Text == "" {
		return nil, errors.New("dsl: watermark 缺少 text")
	}
	return wm, nil
}

func (c *converter) script(b *Block) (string, error) {
	entries, err := assignments(b, "script")
	if err != nil {
		return "", err
	}
	var src string
	for _, a := range entries {
		if a.Key != "pageBreakBefore" || a.Value.String == nil {
			return "", errorf(a.Pos, "script 段只支持字符串形式的 pageBreakBefore")
		}
		src = string(*a.Value.String)
	}
	return src, nil
}

// region 转换正文或页眉、页脚、背景。页眉页脚按页生成，可使用 ${pageNumber} 与 ${pageCount}。
func (c *converter) region(doc *layout.Document, sec *RegionSection) error {
	if sec.Kind == "content" {
		n, err := c.container(sec.Block)
		if err != nil {
			return err
		}
		doc.Content = n
		return nil
	}
	// 先按第 1 页转换一次，尽早暴露错误
	if _, err := c.with(binding.Page(1, 1)).container(sec.Block); err != nil {
		return fmt.Errorf("%s: %w", sec.Kind, err)
	}
	block := sec.Block
	rep := layout.Repeatable{Dynamic: func(pageNumber, pageCount int, _ layout.PageSize) *layout.Node {
		n, err := c.with(binding.Page(pageNumber, pageCount)).container(block)
		if err != nil {
			return nil
		}
		return n
	}}
	switch sec.Kind {
	case "header":
		doc.Header = rep
	case "footer":
		doc.Footer = rep
	case "background":
		doc.Background = rep
	}
	return nil
}
