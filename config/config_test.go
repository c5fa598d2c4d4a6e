package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/ripjar/pdfmake/fonts"
	"github.com/ripjar/pdfmake/layout"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "pdfmake.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("写入配置失败: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
data = "data.json"

[page]
size = "letter"
orientation = "landscape"
margins = [20, 30]

[text]
font = "Mono"
fontSize = 11
rtlFont = "Mono"

[fonts.Mono]
normal = "builtin:go-mono"
bold = "builtin:go-mono-bold"

[images]
logo = "logo.png"

[log]
level = "debug"
`)
	if err := os.WriteFile(filepath.Join(filepath.Dir(path), "logo.png"), []byte("png"), 0o644); err != nil {
		t.Fatalf("写入图片失败: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("加载失败: %v", err)
	}

	size, _ := cfg.PageSize()
	if size.Width != 792 || size.Height != 612 || size.Orientation != layout.Landscape {
		t.Fatalf("页面尺寸错误: %+v", size)
	}
	m, _ := cfg.PageMargins()
	if m != (layout.Margins{Left: 20, Top: 30, Right: 20, Bottom: 30}) {
		t.Fatalf("页边距错误: %+v", m)
	}
	if lvl, _ := cfg.Level(); lvl != log.DebugLevel {
		t.Fatalf("日志级别错误: %v", lvl)
	}
	if s := cfg.Style(); s.Font != "Mono" || s.FontSize != 11 || cfg.Text.RTLFont != "Mono" {
		t.Fatalf("默认样式错误: %+v", s)
	}
	if got := cfg.Path(cfg.Data); got != filepath.Join(cfg.Dir, "data.json") {
		t.Fatalf("相对路径应基于配置目录: %s", got)
	}

	families, err := cfg.Families()
	if err != nil {
		t.Fatalf("读取字族失败: %v", err)
	}
	mono := families["Mono"]
	if len(mono.Normal) == 0 || len(mono.Bold) == 0 || len(mono.Italics) != 0 {
		t.Fatalf("字族字形错误")
	}
	images, err := cfg.LoadImages()
	if err != nil || string(images["logo"]) != "png" {
		t.Fatalf("图片读取错误: %v", err)
	}

	var doc layout.Document
	if err := cfg.ApplyPage(&doc); err != nil || doc.PageSize != size || doc.PageMargins != m {
		t.Fatalf("ApplyPage 错误: %+v %v", doc, err)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	size, err := cfg.PageSize()
	if err != nil || size != layout.DefaultPageSize {
		t.Fatalf("默认页面应为 A4 纵向: %+v %v", size, err)
	}
	if m, _ := cfg.PageMargins(); m.Left != 40 || m.Bottom != 40 {
		t.Fatalf("默认边距应为 40: %+v", m)
	}
	if lvl, _ := cfg.Level(); lvl != log.InfoLevel {
		t.Fatalf("默认日志级别应为 info")
	}
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"未知的键", "colour = 1\n", "未知的键"},
		{"页面尺寸", "[page]\nsize = \"B9\"\n", "页面尺寸"},
		{"页面方向", "[page]\norientation = \"diagonal\"\n", "页面方向"},
		{"边距数量", "[page]\nmargins = [1, 2, 3]\n", "page.margins"},
		{"日志级别", "[log]\nlevel = \"loud\"\n", "level"},
		{"语法错误", "[page\n", "解析"},
	}
	for _, tc := range cases {
		_, err := Load(writeConfig(t, tc.body))
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: 期望包含 %q 的错误，实际 %v", tc.name, tc.want, err)
		}
	}
}

func TestFamiliesUnknownBuiltin(t *testing.T) {
	cfg := Default()
	cfg.Fonts = map[string]fonts.Paths{"X": {Normal: "builtin:nope"}}
	if _, err := cfg.Families(); err == nil {
		t.Fatalf("未知内置字体应当报错")
	}
}
