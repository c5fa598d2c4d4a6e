package bidi

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrUnpairedSurrogate 表示高代理项后面没有跟随低代理项。
var ErrUnpairedSurrogate = errors.New("high surrogate not followed by low surrogate")

// SurrogateError 记录出错的字节偏移。
type SurrogateError struct {
	Index int
}

func (e *SurrogateError) Error() string {
	return fmt.Sprintf("bidi: %v at byte %d", ErrUnpairedSurrogate, e.Index)
}

func (e *SurrogateError) Unwrap() error { return ErrUnpairedSurrogate }

// CodePoints 将字符串拆成码点序列。
// 以 WTF-8 形式出现的代理项会被配对还原；高代理项缺少低代理项时返回 *SurrogateError，
// 孤立的低代理项被跳过，其余非法字节按 U+FFFD 处理。
func CodePoints(s string) ([]rune, error) {
	out := make([]rune, 0, len(s))
	for i := 0; i < len(s); {
		if hi, ok := surrogateAt(s, i); ok {
			switch {
			case hi >= 0xD800 && hi <= 0xDBFF:
				lo, ok := surrogateAt(s, i+3)
				if !ok || lo < 0xDC00 || lo > 0xDFFF {
					return nil, &SurrogateError{Index: i}
				}
				out = append(out, (hi-0xD800)*0x400+(lo-0xDC00)+0x10000)
				i += 6
			default:
				i += 3
			}
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		out = append(out, r)
		i += size
	}
	return out, nil
}

// surrogateAt 解码 s[i:] 处的 WTF-8 代理项（ED A0..BF xx）。
func surrogateAt(s string, i int) (rune, bool) {
	if i+2 >= len(s) || s[i] != 0xED || s[i+1] < 0xA0 || s[i+1] > 0xBF || s[i+2]&0xC0 != 0x80 {
		return 0, false
	}
	return 0xD000 | rune(s[i+1]&0x3F)<<6 | rune(s[i+2]&0x3F), true
}
