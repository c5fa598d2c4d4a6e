package dsl

import (
	"fmt"
	"io"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	dslLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "Color", Pattern: `#(?:[0-9A-Fa-f]{3}|[0-9A-Fa-f]{6}|[0-9A-Fa-f]{8})`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "Number", Pattern: `(?:\d+\.\d+|\d+)(?:pt|mm|cm|in|%|x)?`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"|\x60[^\x60]*\x60`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[][(),.=+\-*/%<>!?;:]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	tokenNames = symbolNames(dslLexer.Symbols())
	tokNewline = tokenType("Newline")
	tokLBrace  = tokenType("LBrace")
	tokRBrace  = tokenType("RBrace")
	tokSymbol  = tokenType("Symbol")
	tokString  = tokenType("String")

	documentParser = participle.MustBuild[Document](
		participle.Lexer(dslLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
	)
)

// Document 是语法树的根：`doc 名称 [版本] { 段... }`。
type Document struct {
	Pos      lexer.Position `parser:"" json:"-"`
	Name     string         `parser:"Newline* 'doc' @Ident"`
	Version  string         `parser:"@Ident?"`
	Sections []*Section     `parser:"'{' Newline* ( @@ Newline* )* '}' Newline*"`
}

// Section 是文档的顶层段，恰有一个字段非空。
type Section struct {
	Meta      *MetaSection      `parser:"  @@"`
	Styles    *StylesSection    `parser:"| @@"`
	Page      *PageSection      `parser:"| @@"`
	Watermark *WatermarkSection `parser:"| @@"`
	Script    *ScriptSection    `parser:"| @@"`
	Region    *RegionSection    `parser:"| @@"`
}

// Kind 返回段的关键字。
func (s *Section) Kind() string {
	switch {
	case s.Meta != nil:
		return "meta"
	case s.Styles != nil:
		return "styles"
	case s.Page != nil:
		return "page"
	case s.Watermark != nil:
		return "watermark"
	case s.Script != nil:
		return "script"
	case s.Region != nil:
		return s.Region.Kind
	}
	return ""
}

// MetaSection 为 PDF 元数据：title、author、subject、creator、keywords。
type MetaSection struct {
	Block *Block `parser:"'meta' @@"`
}

// StylesSection 包含具名样式 `style name { ... }` 与基础样式 `default { ... }`。
type StylesSection struct {
	Block *Block `parser:"'styles' @@"`
}

type WatermarkSection struct {
	Block *Block `parser:"'watermark' @@"`
}

// ScriptSection 目前只有 pageBreakBefore 一个钩子。
type ScriptSection struct {
	Block *Block `parser:"'script' @@"`
}

// RegionSection 是正文（content）或每页重复的页眉、页脚与背景。
type RegionSection struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Kind  string         `parser:"@( 'content' | 'header' | 'footer' | 'background' )"`
	Block *Block         `parser:"@@"`
}

// PageSection 形如 `page A4 landscape margin 40 { ... }`，块可省略。
type PageSection struct {
	Spec  PageSpec `parser:"'page' @@"`
	Block *Block   `parser:"@@?"`
}

type PageSpec struct {
	Size   string    `parser:"@Ident"`
	Params []*Lexeme `parser:"@@*"`
}

type Block struct {
	Statements []*Statement `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Statement 是块内的一条语句：属性赋值、命令或字符串字面量。
type Statement struct {
	Assignment *Assignment  `parser:"  @@"`
	Command    *Command     `parser:"| @@"`
	Text       *TextLiteral `parser:"| @@"`
}

type Assignment struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Key   string         `parser:"@Ident"`
	Value *Value         `parser:"':' Newline* @@"`
}

// Command 是 `名称 参数... { 块 }` 形式的节点声明。
type Command struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Name  string         `parser:"@Ident"`
	Args  []*Lexeme      `parser:"@@*"`
	Block *Block         `parser:"( Newline* @@ )?"`
}

type TextLiteral struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Value StringLiteral  `parser:"@String"`
}

// Value 是属性值，无法归类的记号序列保存在 Expr 中。
type Value struct {
	String *StringLiteral `parser:"  @String"`
	Number *string        `parser:"| @Number"`
	Color  *string        `parser:"| @Color"`
	Array  *ArrayValue    `parser:"| @@"`
	Object *InlineObject  `parser:"| @@"`
	Expr   *Expression    `parser:"| @@"`
}

type ArrayValue struct {
	Values []*Value `parser:"'[' Newline* ( @@ ( (',' | ';' | Newline+) Newline* @@ )* )? Newline* ']'"`
}

// InlineObject 是 `{ key: value; ... }` 形式的内联对象。
type InlineObject struct {
	Entries []*Assignment `parser:"'{' Newline* ( @@ Newline* ( (';' | Newline+) Newline* @@ Newline* )* )? Newline* '}'"`
}

// Expression 保存未加工的记号序列，例如 true、-5、* 或 auto，由转换阶段解释。
type Expression struct {
	Parts []*Lexeme
}

// nesting 记录表达式内括号与方括号的嵌套层数。
type nesting struct {
	paren, bracket int
}

func (n *nesting) top() bool { return n.paren == 0 && n.bracket == 0 }

func (n *nesting) track(raw string) {
	switch raw {
	case "(":
		n.paren++
	case ")":
		n.paren = max(n.paren-1, 0)
	case "[":
		n.bracket++
	case "]":
		n.bracket = max(n.bracket-1, 0)
	}
}

// Parse 读取记号直到换行、花括号、分号、逗号或未配对的 ]（均在最外层）。
func (e *Expression) Parse(lex *lexer.PeekingLexer) error {
	var n nesting
	for {
		tok := lex.Peek()
		if tok.EOF() || endsExpression(tok, &n) {
			break
		}
		l, err := next(lex)
		if err != nil {
			return err
		}
		n.track(l.Raw)
		e.Parts = append(e.Parts, l)
	}
	if len(e.Parts) == 0 {
		return participle.NextMatch
	}
	return nil
}

func endsExpression(tok *lexer.Token, n *nesting) bool {
	switch tok.Type {
	case tokNewline, tokLBrace, tokRBrace:
		return n.top()
	case tokSymbol:
		switch tok.Value {
		case ";", ",":
			return n.top()
		case "]":
			return n.bracket == 0
		}
	}
	return false
}

// Lexeme 是命令参数或表达式中的单个记号。字符串记号的 Value 已去掉引号。
type Lexeme struct {
	Type  string         `json:"type"`
	Value string         `json:"value"`
	Raw   string         `json:"raw"`
	Pos   lexer.Position `json:"-"`
}

// Parse 读取一个命令参数；换行、花括号与分号结束参数列表。
func (l *Lexeme) Parse(lex *lexer.PeekingLexer) error {
	tok := lex.Peek()
	if tok.EOF() || endsArgs(tok) {
		return participle.NextMatch
	}
	got, err := next(lex)
	if err != nil {
		return err
	}
	*l = *got
	return nil
}

func endsArgs(tok *lexer.Token) bool {
	switch tok.Type {
	case tokNewline, tokLBrace, tokRBrace:
		return true
	case tokSymbol:
		return tok.Value == ";"
	}
	return false
}

func next(lex *lexer.PeekingLexer) (*Lexeme, error) {
	tok := lex.Next()
	if tok.EOF() {
		return nil, participle.NextMatch
	}
	l := &Lexeme{Type: tokenNames[tok.Type], Value: tok.Value, Raw: tok.Value, Pos: tok.Pos}
	if tok.Type == tokString {
		v, err := strconv.Unquote(tok.Value)
		if err != nil {
			return nil, fmt.Errorf("%s: 无效的字符串 %s: %w", tok.Pos, tok.Value, err)
		}
		l.Value = v
	}
	return l, nil
}

// StringLiteral 在捕获时按 Go 语法去掉引号，支持 "..." 与反引号原始字符串。
type StringLiteral string

func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("字符串为空")
	}
	v, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(v)
	return nil
}

// Parse 从 r 解析文档。
func Parse(r io.Reader) (*Document, error) {
	return documentParser.Parse("", r)
}

// ParseString 解析字符串形式的文档。
func ParseString(input string) (*Document, error) {
	return documentParser.ParseString("", input)
}

// tokenType 返回词法规则对应的记号类型。
func tokenType(name string) lexer.TokenType {
	tt, ok := dslLexer.Symbols()[name]
	if !ok {
		panic("dsl: 未定义的记号 " + name)
	}
	return tt
}

func symbolNames(symbols map[string]lexer.TokenType) map[lexer.TokenType]string {
	out := make(map[lexer.TokenType]string, len(symbols))
	for name, tt := range symbols {
		out[tt] = name
	}
	return out
}
