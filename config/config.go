// Package config 读取命令行使用的 TOML 配置：默认页面、默认字体、字族注册与日志级别。
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/ripjar/pdfmake/fonts"
	"github.com/ripjar/pdfmake/layout"
)

// Config 对应配置文件的全部内容。
type Config struct {
	Page   Page                   `toml:"page"`
	Text   Text                   `toml:"text"`
	Fonts  map[string]fonts.Paths `toml:"fonts"`
	Images map[string]string      `toml:"images"`
	Log    Log                    `toml:"log"`
	// Data 为绑定数据的 JSON 文件，命令行 --data 优先。
	Data string `toml:"data"`

	// Dir 为配置文件所在目录，配置中的相对路径都相对它解析。
	Dir string `toml:"-"`
}

// Page 是文档未声明 page 段时使用的页面设置。
type Page struct {
	Size        string    `toml:"size"`
	Orientation string    `toml:"orientation"`
	Margins     []float64 `toml:"margins"`
}

type Text struct {
	Font     string  `toml:"font"`
	FontSize float64 `toml:"fontSize"`
	RTLFont  string  `toml:"rtlFont"`
}

type Log struct {
	Level string `toml:"level"`
}

// Default 返回未提供配置文件时的设置。
func Default() *Config {
	return &Config{
		Page: Page{Size: "A4", Orientation: "portrait", Margins: []float64{40}},
		Log:  Log{Level: "info"},
		Dir:  ".",
	}
}

// Load 读取配置文件，未出现的键保留 Default 中的值，未知的键报错。
func Load(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("config: 解析 %s 失败: %w", path, err)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		return nil, fmt.Errorf("config: %s 中有未知的键 %v", path, keys)
	}
	cfg.Dir = filepath.Dir(path)
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if _, err := c.PageSize(); err != nil {
		return err
	}
	if _, err := c.PageMargins(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.Text.FontSize < 0 {
		return fmt.Errorf("text.fontSize 不能为负数")
	}
	return nil
}

// PageSize 返回页面尺寸。
func (c *Config) PageSize() (layout.PageSize, error) {
	o := layout.Portrait
	switch c.Page.Orientation {
	case "", "portrait":
	case "landscape":
		o = layout.Landscape
	default:
		return layout.PageSize{}, fmt.Errorf("未知的页面方向 %q", c.Page.Orientation)
	}
	size, ok := layout.NamedPageSize(c.Page.Size, o)
	if !ok {
		return layout.PageSize{}, fmt.Errorf("未知的页面尺寸 %q", c.Page.Size)
	}
	return size, nil
}

// PageMargins 支持 1 个（四边）、2 个（水平、垂直）或 4 个（左、上、右、下）数值。
func (c *Config) PageMargins() (layout.Margins, error) {
	m := c.Page.Margins
	switch len(m) {
	case 1:
		return layout.Margins{Left: m[0], Top: m[0], Right: m[0], Bottom: m[0]}, nil
	case 2:
		return layout.Margins{Left: m[0], Top: m[1], Right: m[0], Bottom: m[1]}, nil
	case 4:
		return layout.Margins{Left: m[0], Top: m[1], Right: m[2], Bottom: m[3]}, nil
	}
	return layout.Margins{}, fmt.Errorf("page.margins 需要 1、2 或 4 个数值，实际 %d 个", len(m))
}

func (c *Config) Level() (log.Level, error) {
	if c.Log.Level == "" {
		return log.InfoLevel, nil
	}
	return log.ParseLevel(c.Log.Level)
}

// Style 返回配置中的默认文本样式，未设置的字段为零值。
func (c *Config) Style() layout.Style {
	return layout.Style{Font: c.Text.Font, FontSize: c.Text.FontSize}
}

// ApplyPage 把默认页面设置写入文档。
func (c *Config) ApplyPage(doc *layout.Document) error {
	size, err := c.PageSize()
	if err != nil {
		return err
	}
	margins, err := c.PageMargins()
	if err != nil {
		return err
	}
	doc.PageSize = size
	doc.PageMargins = margins
	return nil
}

// Families 读取 [fonts.<name>] 中注册的全部字族。
func (c *Config) Families() (map[string]fonts.Family, error) {
	out := make(map[string]fonts.Family, len(c.Fonts))
	for name, paths := range c.Fonts {
		f, err := fonts.Load(paths, c.Dir)
		if err != nil {
			return nil, fmt.Errorf("config: 字族 %s: %w", name, err)
		}
		out[name] = f
	}
	return out, nil
}

// LoadImages 读取 [images] 中登记的图片，文档通过 builtin:<name> 引用。
func (c *Config) LoadImages() (map[string][]byte, error) {
	out := make(map[string][]byte, len(c.Images))
	for name, p := range c.Images {
		data, err := os.ReadFile(c.Path(p))
		if err != nil {
			return nil, fmt.Errorf("config: 图片 %s: %w", name, err)
		}
		out[name] = data
	}
	return out, nil
}

// Path 把相对路径解析到配置文件所在目录。
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, p)
}
