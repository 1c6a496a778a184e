// Package ast は S式言語の抽象構文木（AST）を定義するパッケージ。
// パーサーがソーステキストから作った結果がこのASTになり、
// 評価器はこのASTを受け取って新しいASTを値として返す（コードとデータが同じ形）。
// ASTは不変として扱い、評価は既存の木を書き換えずに新しい木を作る。
package ast

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"sexp/source"
)

// Kind は式の種類を識別する文字列型。
type Kind string

// 式の種類を表す定数。
const (
	NIL_EXPR         = "NIL"
	COMMENT_EXPR     = "COMMENT"
	COMBINATION_EXPR = "COMBINATION"
	SYMBOL_EXPR      = "SYMBOL"
	BOOLEAN_EXPR     = "BOOLEAN"
	FLOAT_EXPR       = "FLOAT"
	INTEGER_EXPR     = "INTEGER"
	STRING_EXPR      = "STRING"
	DURATION_EXPR    = "DURATION"
	TIMESTAMP_EXPR   = "TIMESTAMP"
)

// Expr はASTの全ノードが実装するインターフェース。
// Kind() は種類を返し、String() は再パース可能なS式表現を返す。
// Span() はノードを生んだソース範囲を返す（評価で作られたノードではゼロ値）。
type Expr interface {
	Kind() Kind
	String() string
	Span() source.Span
	setSpan(source.Span)
}

// Located はノードにソース範囲を持たせるための埋め込み用構造体。
type Located struct {
	Loc source.Span
}

func (l *Located) Span() source.Span      { return l.Loc }
func (l *Located) setSpan(sp source.Span) { l.Loc = sp }

// WithSpan は式にソース範囲を設定して同じ式を返す。パーサー専用。
func WithSpan(e Expr, sp source.Span) Expr {
	e.setSpan(sp)
	return e
}

// Nil は値が存在しないことを表す。
type Nil struct{ Located }

func (n *Nil) Kind() Kind     { return NIL_EXPR }
func (n *Nil) String() string { return "nil" }

// Comment はコメントの本文（`;` を除いたもの）を持つ。
type Comment struct {
	Located
	Text string
}

func (c *Comment) Kind() Kind { return COMMENT_EXPR }

// String は各行の先頭に `;` を付けて返す。
func (c *Comment) String() string {
	lines := strings.Split(c.Text, "\n")
	for i, l := range lines {
		lines[i] = ";" + l
	}
	return strings.Join(lines, "\n")
}

// Combination は `(operator arg...)` を表す。
// Operator と Arguments はこのノードが排他的に所有する。
type Combination struct {
	Located
	Operator  Expr
	Arguments []Expr
}

func (c *Combination) Kind() Kind { return COMBINATION_EXPR }

// String は `(op a b c)` の形式で返す。
func (c *Combination) String() string {
	var out bytes.Buffer

	args := []string{}
	for _, a := range c.Arguments {
		args = append(args, a.String())
	}

	out.WriteString("(")
	out.WriteString(c.Operator.String())
	if len(args) > 0 {
		out.WriteString(" ")
		out.WriteString(strings.Join(args, " "))
	}
	out.WriteString(")")

	return out.String()
}

// Symbol は識別子。名前の検索や演算子名として使われる。
type Symbol struct {
	Located
	Name string
}

func (s *Symbol) Kind() Kind     { return SYMBOL_EXPR }
func (s *Symbol) String() string { return s.Name }

// Boolean は真偽値。
type Boolean struct {
	Located
	Value bool
}

func (b *Boolean) Kind() Kind     { return BOOLEAN_EXPR }
func (b *Boolean) String() string { return strconv.FormatBool(b.Value) }

// Float は浮動小数点数。
type Float struct {
	Located
	Value float64
}

func (f *Float) Kind() Kind { return FLOAT_EXPR }

// String は整数と区別できるよう、必要なら ".0" を補って返す。
func (f *Float) String() string {
	s := strconv.FormatFloat(f.Value, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEIN") {
		s += ".0"
	}
	return s
}

// Integer は64ビット符号付き整数。
type Integer struct {
	Located
	Value int64
}

func (i *Integer) Kind() Kind     { return INTEGER_EXPR }
func (i *Integer) String() string { return strconv.FormatInt(i.Value, 10) }

// String は文字列リテラル。
type String struct {
	Located
	Value string
}

func (s *String) Kind() Kind     { return STRING_EXPR }
func (s *String) String() string { return strconv.Quote(s.Value) }

// Duration は時間の長さ。`1h30m0s` の形式で表示する。
type Duration struct {
	Located
	Value time.Duration
}

func (d *Duration) Kind() Kind     { return DURATION_EXPR }
func (d *Duration) String() string { return d.Value.String() }

// Timestamp は時刻。RFC 3339 形式で表示する。
type Timestamp struct {
	Located
	Value time.Time
}

func (t *Timestamp) Kind() Kind     { return TIMESTAMP_EXPR }
func (t *Timestamp) String() string { return t.Value.Format(time.RFC3339Nano) }

// Equal は2つの式を構造的に比較する。ソース範囲は無視する。
func Equal(a, b Expr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}

	switch a := a.(type) {
	case *Nil:
		return true
	case *Comment:
		return a.Text == b.(*Comment).Text
	case *Symbol:
		return a.Name == b.(*Symbol).Name
	case *Boolean:
		return a.Value == b.(*Boolean).Value
	case *Float:
		return a.Value == b.(*Float).Value
	case *Integer:
		return a.Value == b.(*Integer).Value
	case *String:
		return a.Value == b.(*String).Value
	case *Duration:
		return a.Value == b.(*Duration).Value
	case *Timestamp:
		return a.Value.Equal(b.(*Timestamp).Value)
	case *Combination:
		bc := b.(*Combination)
		if len(a.Arguments) != len(bc.Arguments) || !Equal(a.Operator, bc.Operator) {
			return false
		}
		for i := range a.Arguments {
			if !Equal(a.Arguments[i], bc.Arguments[i]) {
				return false
			}
		}
		return true
	}
	return false
}
