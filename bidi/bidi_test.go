package bidi

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestReorder(t *testing.T) {
	cases := []struct {
		name string
		in   string
		dir  Direction
		want string
	}{
		{"latin ltr", "abc def", LeftToRight, "abc def"},
		{"hebrew rtl", "אב גד", RightToLeft, "דג בא"},
		{"hebrew in ltr", "ab אב cd", LeftToRight, "ab בא cd"},
		{"latin in rtl", "אב cd גד", RightToLeft, "דג cd בא"},
		{"digits in rtl", "אב 123", RightToLeft, "123 בא"},
		{"auto detects rtl", "אב cd", Auto, "cd בא"},
		{"brackets follow enclosed text", "ab (cd) אב", RightToLeft, "בא ab (cd)"},
		{"isolate keeps paragraph order", "a \u2067אב\u2069 c", LeftToRight, "a \u2067בא\u2069 c"},
		{"empty", "", RightToLeft, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := string(Reorder([]rune(tc.in), tc.dir))
			if got != tc.want {
				t.Fatalf("Reorder(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestLevelsTrailingWhitespace(t *testing.T) {
	levels := Levels([]rune("אב  "), LeftToRight)
	want := []Level{1, 1, 0, 0}
	if !reflect.DeepEqual(levels, want) {
		t.Fatalf("levels = %v, want %v", levels, want)
	}
}

func TestParagraphLevelAuto(t *testing.T) {
	if got := ParagraphLevel([]rune("123 אב"), Auto); got != 1 {
		t.Fatalf("第一个强字符为希伯来文，段落层级应为 1，实际 %d", got)
	}
	if got := ParagraphLevel([]rune("123"), Auto); got != 0 {
		t.Fatalf("没有强字符时段落层级应为 0，实际 %d", got)
	}
}

func TestLevelsOverride(t *testing.T) {
	// RLO ... PDF 强制中间的拉丁字母为 RTL
	in := []rune("a\u202Ebc\u202Cd")
	got := string(Reorder(in, LeftToRight))
	if len([]rune(got)) != len(in) {
		t.Fatalf("length changed: %q", got)
	}
	if !strings.Contains(got, "cb") || got[0] != 'a' || got[len(got)-1] != 'd' {
		t.Fatalf("override not applied: %q", got)
	}
}

func TestGroupWords(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"ab cd", []string{"ab", " cd"}},
		{"ab cd ", []string{"ab", " cd"}},
		{" ab", []string{" ab"}},
		{"a", []string{"a"}},
		{" ", []string{" "}},
		{"", nil},
	}
	for _, tc := range cases {
		var got []string
		for _, w := range GroupWords([]rune(tc.in)) {
			got = append(got, string(w))
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("GroupWords(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestVisualSingleCharacterWords(t *testing.T) {
	got, err := Visual("א ב", RightToLeft)
	if err != nil {
		t.Fatalf("Visual: %v", err)
	}
	if got != "ב א" {
		t.Fatalf("got %q, want %q", got, "ב א")
	}
}

func TestVisualKeepsInWordOrder(t *testing.T) {
	words, err := VisualWords("שלום עולם", RightToLeft)
	if err != nil {
		t.Fatalf("VisualWords: %v", err)
	}
	want := []string{"עולם", " שלום"}
	if !reflect.DeepEqual(words, want) {
		t.Fatalf("words = %q, want %q", words, want)
	}
}

func TestVisualRoundTrip(t *testing.T) {
	for _, s := range []string{"אב גד", "שלום עולם טוב", "مرحبا بالعالم", "א"} {
		forward, err := Visual(s, RightToLeft)
		if err != nil {
			t.Fatalf("forward: %v", err)
		}
		back, err := Visual(forward, LeftToRight)
		if err != nil {
			t.Fatalf("back: %v", err)
		}
		if back != s {
			t.Fatalf("round trip of %q: forward %q back %q", s, forward, back)
		}
	}
}

func TestCodePointsSurrogates(t *testing.T) {
	// U+1F600 以 WTF-8 代理对形式编码
	pair := "\xED\xA0\xBD\xED\xB8\x80"
	cps, err := CodePoints("a" + pair)
	if err != nil {
		t.Fatalf("CodePoints: %v", err)
	}
	if len(cps) != 2 || cps[1] != 0x1F600 {
		t.Fatalf("got %U", cps)
	}

	_, err = CodePoints("a\xED\xA0\xBDb")
	if !errors.Is(err, ErrUnpairedSurrogate) {
		t.Fatalf("expected ErrUnpairedSurrogate, got %v", err)
	}
	var se *SurrogateError
	if !errors.As(err, &se) || se.Index != 1 {
		t.Fatalf("expected SurrogateError at 1, got %#v", err)
	}

	cps, err = CodePoints("a\xED\xB8\x80b")
	if err != nil {
		t.Fatalf("lone low surrogate: %v", err)
	}
	if string(cps) != "ab" {
		t.Fatalf("lone low surrogate should be skipped, got %q", string(cps))
	}
}
