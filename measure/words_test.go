package measure

import (
	"errors"
	"reflect"
	"testing"

	"github.com/ripjar/pdfmake/bidi"
)

func TestSplitWords(t *testing.T) {
	cases := []struct {
		name   string
		text   string
		noWrap bool
		want   []word
	}{
		{"空格断行", "hello world", false, []word{{text: "hello "}, {text: "world"}}},
		{"换行结束", "ab\ncd", false, []word{{text: "ab", lineEnd: true}, {text: "cd"}}},
		{"制表符", "a\tb", false, []word{{text: "a    "}, {text: "b"}}},
		{"不换行", "a b c", true, []word{{text: "a b c"}}},
		{"不换行空串", "", true, nil},
	}
	for _, tc := range cases {
		got, err := splitWords(tc.text, tc.noWrap)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s: 期望 %+v，实际 %+v", tc.name, tc.want, got)
		}
	}
}

func TestSplitWordsSurrogates(t *testing.T) {
	got, err := splitWords("a\xED\xA0\xBD\xED\xB8\x80 b", false)
	if err != nil {
		t.Fatalf("成对的代理项不应报错: %v", err)
	}
	want := []word{{text: "a\U0001F600 "}, {text: "b"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("代理对应还原为码点，期望 %+v，实际 %+v", want, got)
	}

	for _, noWrap := range []bool{false, true} {
		_, err := splitWords("a\xED\xA0\xBD b", noWrap)
		var se *bidi.SurrogateError
		if !errors.As(err, &se) || se.Index != 1 {
			t.Fatalf("noWrap=%v: 期望位置 1 的代理项错误，实际 %v", noWrap, err)
		}
	}
}
