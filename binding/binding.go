package binding

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Page 返回页眉页脚可用的页码变量作用域。
func Page(pageNumber, pageCount int) map[string]any {
	return map[string]any{"pageNumber": pageNumber, "pageCount": pageCount}
}

// Interpolate 将文本中的 ${path.to.value} 替换为作用域中的值，靠前的作用域优先。
// 路径在所有作用域中都不存在时保留原占位符。
func Interpolate(text string, scopes ...any) string {
	if len(scopes) == 0 || !strings.Contains(text, "${") {
		return text
	}
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		path := strings.TrimSpace(match[2 : len(match)-1])
		if path == "" {
			return match
		}
		if val, ok := Resolve(path, scopes...); ok {
			return format(val)
		}
		return match
	})
}

// Resolve 依次在各作用域中查找路径，返回第一个命中的值。
func Resolve(path string, scopes ...any) (any, bool) {
	for _, scope := range scopes {
		if scope == nil {
			continue
		}
		if val, ok := resolvePath(scope, path); ok {
			return val, true
		}
	}
	return nil, false
}

// Items 把路径指向的值展开为元素列表，用于重复生成内容。
func Items(path string, scopes ...any) ([]any, error) {
	val, ok := Resolve(path, scopes...)
	if !ok {
		return nil, fmt.Errorf("数据路径 %s 不存在", path)
	}
	rv := reflect.ValueOf(val)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("数据路径 %s 不是数组", path)
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

func format(val any) string {
	switch v := val.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	}
	return fmt.Sprint(val)
}

// step 是路径中的一段：字段名或数组下标。
type step struct {
	key   string
	index int
	isIdx bool
}

// parsePath 把 "a.b[0][1].c" 拆成 a、b、0、1、c。
func parsePath(path string) ([]step, bool) {
	var steps []step
	for _, seg := range strings.Split(path, ".") {
		name, rest, _ := strings.Cut(seg, "[")
		if name != "" {
			steps = append(steps, step{key: name})
		} else if rest == "" {
			return nil, false
		}
		for rest != "" {
			idx, after, ok := strings.Cut(rest, "]")
			if !ok {
				return nil, false
			}
			n, err := strconv.Atoi(idx)
			if err != nil {
				return nil, false
			}
			steps = append(steps, step{index: n, isIdx: true})
			if after == "" {
				break
			}
			if after[0] != '[' {
				return nil, false
			}
			rest = after[1:]
		}
	}
	return steps, true
}

func resolvePath(data any, path string) (any, bool) {
	steps, ok := parsePath(path)
	if !ok {
		return nil, false
	}
	current := data
	for _, st := range steps {
		if st.isIdx {
			current, ok = descendArray(current, st.index)
		} else {
			current, ok = descendKey(current, st.key)
		}
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// descendKey 支持 JSON 与 TOML 解码得到的 map、任意以字符串为键的 map，
// 以及结构体的导出字段（按 json 标签或字段名匹配）。
func descendKey(current any, key string) (any, bool) {
	if m, ok := current.(map[string]any); ok {
		val, ok := m[key]
		return val, ok
	}
	rv := reflect.Indirect(reflect.ValueOf(current))
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		val := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if !val.IsValid() {
			return nil, false
		}
		return val.Interface(), true
	case reflect.Struct:
		t := rv.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == key || (name == "" && f.Name == key) {
				return rv.Field(i).Interface(), true
			}
		}
	}
	return nil, false
}

func descendArray(current any, idx int) (any, bool) {
	if a, ok := current.([]any); ok {
		if idx < 0 || idx >= len(a) {
			return nil, false
		}
		return a[idx], true
	}
	rv := reflect.Indirect(reflect.ValueOf(current))
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if idx < 0 || idx >= rv.Len() {
		return nil, false
	}
	return rv.Index(idx).Interface(), true
}
