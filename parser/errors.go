package parser

import (
	"errors"
	"fmt"

	"sexp/source"
	"sexp/token"
)

// Diagnostic はパース失敗を表すエラー。必ず問題箇所のスパンを持つ。
type Diagnostic interface {
	error
	Location() source.Span
}

// SyntaxError はある位置でどの文法規則にも一致しなかったことを表す。
// Kind は失敗した規則の分類。
type SyntaxError struct {
	Kind token.Kind
	Span source.Span
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error: %s at %s", describe(e.Kind), e.Span)
}

func (e *SyntaxError) Location() source.Span { return e.Span }

// LiteralError は数値や文字列などの形をしたトークンを値に変換できなかったことを表す。
type LiteralError struct {
	Literal string
	Message string
	Span    source.Span
}

func (e *LiteralError) Error() string {
	return fmt.Sprintf("invalid literal `%s` - %s at %s", e.Literal, e.Message, e.Span)
}

func (e *LiteralError) Location() source.Span { return e.Span }

// ReadError はファイルを読めなかったことを表す。スパンはゼロ値になる。
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string         { return fmt.Sprintf("cannot read %s: %v", e.Path, e.Err) }
func (e *ReadError) Unwrap() error         { return e.Err }
func (e *ReadError) Location() source.Span { return source.Span{} }

// Format は診断をキャレット付きの抜粋として整形する。診断でなければ err.Error() を返す。
func Format(err error) string {
	var se *SyntaxError
	var le *LiteralError
	switch {
	case errors.As(err, &se):
		return source.Snippet("PARSE ERROR", se.Span, describe(se.Kind))
	case errors.As(err, &le):
		return source.Snippet("PARSE ERROR", le.Span, fmt.Sprintf("invalid literal `%s`: %s", le.Literal, le.Message))
	default:
		return err.Error()
	}
}

func describe(kind token.Kind) string {
	switch kind {
	case token.ALT:
		return "expected an expression"
	case token.EOF:
		return "unexpected input after expression"
	case token.RPAREN:
		return "expected `)` or whitespace"
	case token.WHITESPACE:
		return "expected whitespace"
	default:
		return fmt.Sprintf("expected %s", kind)
	}
}
