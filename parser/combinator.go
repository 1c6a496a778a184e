package parser

import (
	"unicode/utf8"

	"sexp/source"
	"sexp/token"
)

// cursor はバッファ内の現在位置。値として受け渡し、バックトラックは古い値に戻すだけで済む。
type cursor struct {
	buf *source.Buffer
	pos int
}

func (c cursor) rest() string { return c.buf.Text[c.pos:] }
func (c cursor) eof() bool    { return c.pos >= len(c.buf.Text) }

// peek は現在位置のバイトを返す。終端なら ok は false。
func (c cursor) peek() (byte, bool) {
	if c.eof() {
		return 0, false
	}
	return c.buf.Text[c.pos], true
}

func (c cursor) advance(n int) cursor { return cursor{buf: c.buf, pos: c.pos + n} }

// spanTo は c から end までのスパンを作る。
func (c cursor) spanTo(end cursor) source.Span {
	return source.NewSpan(c.buf, c.pos, end.pos)
}

// here は失敗位置を指すスパンを返す。終端でなければ1文字分を覆う。
func (c cursor) here() source.Span {
	if c.eof() {
		return source.NewSpan(c.buf, c.pos, c.pos)
	}
	_, size := utf8.DecodeRuneInString(c.rest())
	return source.NewSpan(c.buf, c.pos, c.pos+size)
}

// rule は1つの文法規則。成功すれば値と消費後の位置を、失敗すればエラーを返す。
// 失敗したときの cursor は意味を持たない（呼び出し側は元の位置を使う）。
type rule[T any] func(c cursor) (T, cursor, error)

// fail は c の位置での構文エラーを返す。
func fail[T any](c cursor, kind token.Kind) (T, cursor, error) {
	var zero T
	return zero, c, &SyntaxError{Kind: kind, Span: c.here()}
}

// char は1バイト c に一致する。
func char(b byte, kind token.Kind) rule[byte] {
	return func(c cursor) (byte, cursor, error) {
		if got, ok := c.peek(); ok && got == b {
			return b, c.advance(1), nil
		}
		return fail[byte](c, kind)
	}
}

// takeWhile1 は pred を満たすバイトを1つ以上、最長で消費する。
func takeWhile1(pred func(byte) bool, kind token.Kind) rule[string] {
	return func(c cursor) (string, cursor, error) {
		n := 0
		rest := c.rest()
		for n < len(rest) && pred(rest[n]) {
			n++
		}
		if n == 0 {
			return fail[string](c, kind)
		}
		return rest[:n], c.advance(n), nil
	}
}

// spanned は規則の結果に消費した範囲を付ける。
func spanned[T any](r rule[T]) rule[source.Spanned[T]] {
	return func(c cursor) (source.Spanned[T], cursor, error) {
		v, next, err := r(c)
		if err != nil {
			return source.Spanned[T]{}, next, err
		}
		return source.Spanned[T]{Value: v, Span: c.spanTo(next)}, next, nil
	}
}

// alt は規則を先頭から順に試し、最初に成功したものを採用する。
// リテラル変換エラーはその場で確定する（他の選択肢を試さない）。
// すべて構文エラーなら、最も先まで進んだ失敗を返す。同じ位置なら ALT として報告する。
func alt[T any](rules ...rule[T]) rule[T] {
	return func(c cursor) (T, cursor, error) {
		var best *SyntaxError
		for _, r := range rules {
			v, next, err := r(c)
			if err == nil {
				return v, next, nil
			}
			se, ok := err.(*SyntaxError)
			if !ok {
				return v, next, err
			}
			if best == nil || se.Span.Start > best.Span.Start {
				best = se
			}
		}
		if best == nil || best.Span.Start == c.pos {
			return fail[T](c, token.ALT)
		}
		var zero T
		return zero, c, best
	}
}

// trivia は空白と `;` コメントを読み飛ばす。
// 何かを消費したかどうかと、見つけたコメントの範囲（`;` を除く）を返す。
func trivia(c cursor) (cursor, bool, []source.Span) {
	start := c.pos
	var comments []source.Span
	for {
		b, ok := c.peek()
		switch {
		case !ok:
			return c, c.pos > start, comments
		case token.IsSpace(b):
			c = c.advance(1)
		case b == ';':
			body := c.advance(1)
			end := body
			for {
				nb, ok := end.peek()
				if !ok || nb == '\n' {
					break
				}
				end = end.advance(1)
			}
			comments = append(comments, body.spanTo(end))
			c = end
		default:
			return c, c.pos > start, comments
		}
	}
}
