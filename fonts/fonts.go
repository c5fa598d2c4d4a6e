package fonts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// BuiltinPrefix 标记内置字体，例如 "builtin:go-bold"。
const BuiltinPrefix = "builtin:"

// ErrUnknownBuiltin 表示引用了不存在的内置字体。
var ErrUnknownBuiltin = errors.New("fonts: 未知的内置字体")

var builtin = map[string][]byte{
	"go":                 goregular.TTF,
	"go-bold":            gobold.TTF,
	"go-italic":          goitalic.TTF,
	"go-bolditalic":      gobolditalic.TTF,
	"go-mono":            gomono.TTF,
	"go-mono-bold":       gomonobold.TTF,
	"go-mono-italic":     gomonoitalic.TTF,
	"go-mono-bolditalic": gomonobolditalic.TTF,
}

// Family 是一个字族的四种字形数据，缺失的字形由 Normal 代替。
type Family struct {
	Normal      []byte
	Bold        []byte
	Italics     []byte
	BoldItalics []byte
}

// Paths 是字族各字形的来源：文件路径或 builtin: 名称。
type Paths struct {
	Normal      string `toml:"normal"`
	Bold        string `toml:"bold"`
	Italics     string `toml:"italics"`
	BoldItalics string `toml:"bolditalics"`
}

// Go 返回内置的 Go 比例字体族。
func Go() Family {
	return Family{Normal: goregular.TTF, Bold: gobold.TTF, Italics: goitalic.TTF, BoldItalics: gobolditalic.TTF}
}

// GoMono 返回内置的 Go 等宽字体族。
func GoMono() Family {
	return Family{Normal: gomono.TTF, Bold: gomonobold.TTF, Italics: gomonoitalic.TTF, BoldItalics: gomonobolditalic.TTF}
}

// Face 选取粗体/斜体对应的字形，缺失时依次退回到粗体或斜体、常规体。
func (f Family) Face(bold, italic bool) []byte {
	switch {
	case bold && italic && len(f.BoldItalics) > 0:
		return f.BoldItalics
	case bold && len(f.Bold) > 0:
		return f.Bold
	case italic && len(f.Italics) > 0:
		return f.Italics
	}
	return f.Normal
}

// Load 按 Paths 读取字族，相对路径基于 baseDir。Normal 必须提供。
func Load(p Paths, baseDir string) (Family, error) {
	if p.Normal == "" {
		return Family{}, errors.New("fonts: 缺少常规字形")
	}
	var (
		f   Family
		err error
	)
	if f.Normal, err = Read(p.Normal, baseDir); err != nil {
		return Family{}, err
	}
	for _, slot := range []struct {
		src string
		dst *[]byte
	}{{p.Bold, &f.Bold}, {p.Italics, &f.Italics}, {p.BoldItalics, &f.BoldItalics}} {
		if slot.src == "" {
			continue
		}
		if *slot.dst, err = Read(slot.src, baseDir); err != nil {
			return Family{}, err
		}
	}
	return f, nil
}

// Read 返回单个字形的字节数据，src 可写为 "builtin:go-bold" 或文件路径。
func Read(src, baseDir string) ([]byte, error) {
	if name, ok := strings.CutPrefix(src, BuiltinPrefix); ok {
		data, ok := builtin[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownBuiltin, name)
		}
		return data, nil
	}
	path := src
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取字体 %s 失败: %w", src, err)
	}
	return data, nil
}
