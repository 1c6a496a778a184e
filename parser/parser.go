// Package parser は S式言語のパーサーを実装するパッケージ。
// 小さな規則（rule）を組み合わせるコンビネータ方式の再帰下降パーサーで、
// ソースバッファからスパン付きのASTを作る。
//
// 各位置では空白を読み飛ばしたあと、次の順に規則を試す:
//
//	timestamp → duration → number → string → symbol → combination
//
// トップレベルでは式をちょうど1つ読み、後ろに余分な入力があれば失敗する。
package parser

import (
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"sexp/ast"
	"sexp/source"
	"sexp/token"
)

// Parser はパースの設定を保持する。ゼロ値は使えないので New で作る。
type Parser struct {
	logger *slog.Logger
}

// Option は Parser の設定を変更する関数。
type Option func(*Parser)

// WithLogger はトレース記録用のロガーを設定する。
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New はパーサーを生成する。
func New(opts ...Option) *Parser {
	p := &Parser{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultParser = New()

// Parse はテキストをスニペットとして store に登録し、式を1つパースする。
func Parse(store *source.Store, text string) (source.Spanned[ast.Expr], error) {
	return defaultParser.Parse(store, text)
}

// ParseFile はファイルを store に読み込んでパースする。
// 読み込みの失敗は *ReadError として返す。
func ParseFile(store *source.Store, path string) (source.Spanned[ast.Expr], error) {
	return defaultParser.ParseFile(store, path)
}

// Parse はテキストをスニペットとして store に登録し、式を1つパースする。
func (p *Parser) Parse(store *source.Store, text string) (source.Spanned[ast.Expr], error) {
	return p.ParseBuffer(store.RegisterSnippet(text))
}

// ParseFile はファイルを store に読み込んでパースする。
func (p *Parser) ParseFile(store *source.Store, path string) (source.Spanned[ast.Expr], error) {
	buf, err := store.LoadFile(path)
	if err != nil {
		return source.Spanned[ast.Expr]{}, &ReadError{Path: path, Err: err}
	}
	return p.ParseBuffer(buf)
}

// ParseBuffer は登録済みのバッファ全体を1つの式としてパースする。
func (p *Parser) ParseBuffer(buf *source.Buffer) (source.Spanned[ast.Expr], error) {
	s := &state{logger: p.logger, tracing: tracingEnabled(p.logger)}
	e, _, err := s.program(cursor{buf: buf})
	if err != nil {
		return source.Spanned[ast.Expr]{}, err
	}
	// 前後の空白は式のスパンに含めない
	return source.Spanned[ast.Expr]{Value: e, Span: e.Span()}, nil
}

// state は1回のパースの間だけ使う状態。
type state struct {
	logger     *slog.Logger
	tracing    bool
	traceLevel int
}

// program は `trivia expr trivia EOF` をパースする。
// コメントしかない入力は Comment 式になる。
func (s *state) program(c cursor) (ast.Expr, cursor, error) {
	defer s.untrace(s.trace("program", c))

	start, _, comments := trivia(c)
	if start.eof() && len(comments) > 0 {
		return commentExpr(comments), start, nil
	}

	e, next, err := s.expr(start)
	if err != nil {
		return nil, c, err
	}

	end, _, _ := trivia(next)
	if !end.eof() {
		return fail[ast.Expr](end, token.EOF)
	}
	return e, end, nil
}

// expr は1つの式をパースする。
func (s *state) expr(c cursor) (ast.Expr, cursor, error) {
	defer s.untrace(s.trace("expr", c))

	return alt(
		located(s.timestamp),
		located(s.duration),
		located(s.number),
		located(s.str),
		located(s.symbol),
		located(s.combination),
	)(c)
}

// located は規則が作った式に消費した範囲を設定する。
func located(r rule[ast.Expr]) rule[ast.Expr] {
	return func(c cursor) (ast.Expr, cursor, error) {
		sp, next, err := spanned(r)(c)
		if err != nil {
			return nil, next, err
		}
		return ast.WithSpan(sp.Value, sp.Span), next, nil
	}
}

// number は `[+-] digits [. digits] [(e|E) [+-] digits]` をパースする。
// 数字の間の `_` は変換前に取り除く。小数点か指数があれば Float、なければ Integer。
func (s *state) number(c cursor) (ast.Expr, cursor, error) {
	defer s.untrace(s.trace("number", c))

	end := c
	if b, ok := end.peek(); ok && (b == '+' || b == '-') {
		end = end.advance(1)
	}
	end, ok := digits(end)
	if !ok {
		return fail[ast.Expr](c, token.NUMBER)
	}
	isFloat := false
	if b, ok := end.peek(); ok && b == '.' {
		if frac, ok := digits(end.advance(1)); ok {
			end, isFloat = frac, true
		}
	}
	if b, ok := end.peek(); ok && (b == 'e' || b == 'E') {
		exp := end.advance(1)
		if sb, ok := exp.peek(); ok && (sb == '+' || sb == '-') {
			exp = exp.advance(1)
		}
		if exp, ok := digits(exp); ok {
			end, isFloat = exp, true
		}
	}

	literal := c.spanTo(end)
	cleaned := strings.ReplaceAll(literal.Text(), "_", "")
	if isFloat {
		v, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return nil, c, literalError(literal, err)
		}
		return &ast.Float{Value: v}, end, nil
	}
	v, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return nil, c, literalError(literal, err)
	}
	return &ast.Integer{Value: v}, end, nil
}

// digits は `digit (digit | '_')*` を読む。
func digits(c cursor) (cursor, bool) {
	b, ok := c.peek()
	if !ok || !token.IsDigit(b) {
		return c, false
	}
	for ok && (token.IsDigit(b) || b == '_') {
		c = c.advance(1)
		b, ok = c.peek()
	}
	return c, true
}

// durationUnits は長いものから順に並べた時間単位。
var durationUnits = []string{"ns", "us", "µs", "ms", "s", "m", "h"}

// duration は `1h30m`, `250ms` のような時間の長さをパースする。
func (s *state) duration(c cursor) (ast.Expr, cursor, error) {
	defer s.untrace(s.trace("duration", c))

	end := c
	if b, ok := end.peek(); ok && (b == '+' || b == '-') {
		end = end.advance(1)
	}
	segments := 0
	for {
		next, ok := plainDigits(end)
		if !ok {
			break
		}
		if b, ok := next.peek(); ok && b == '.' {
			if frac, ok := plainDigits(next.advance(1)); ok {
				next = frac
			}
		}
		unit := ""
		for _, u := range durationUnits {
			if strings.HasPrefix(next.rest(), u) {
				unit = u
				break
			}
		}
		if unit == "" {
			break
		}
		end = next.advance(len(unit))
		segments++
	}
	if segments == 0 || followedByWord(end) {
		return fail[ast.Expr](c, token.DURATION)
	}

	literal := c.spanTo(end)
	v, err := time.ParseDuration(literal.Text())
	if err != nil {
		return nil, c, literalError(literal, err)
	}
	return &ast.Duration{Value: v}, end, nil
}

// plainDigits は `_` を許さない数字列を読む。
func plainDigits(c cursor) (cursor, bool) {
	start := c.pos
	for {
		b, ok := c.peek()
		if !ok || !token.IsDigit(b) {
			break
		}
		c = c.advance(1)
	}
	return c, c.pos > start
}

// followedByWord は直後にシンボル文字・数字・小数点が続くか判定する。
func followedByWord(c cursor) bool {
	b, ok := c.peek()
	return ok && (token.IsSymbolChar(b) || token.IsDigit(b) || b == '.')
}

// timestamp は `2024-01-02T03:04:05Z` のようなRFC 3339の時刻か、`2024-01-02` の日付をパースする。
func (s *state) timestamp(c cursor) (ast.Expr, cursor, error) {
	defer s.untrace(s.trace("timestamp", c))

	rest := c.rest()
	if len(rest) < 10 || !isDateShape(rest[:10]) {
		return fail[ast.Expr](c, token.TIMESTAMP)
	}
	n := 10
	for n < len(rest) && isTimestampChar(rest[n]) {
		n++
	}
	end := c.advance(n)
	if followedByWord(end) {
		return fail[ast.Expr](c, token.TIMESTAMP)
	}

	literal := c.spanTo(end)
	text := literal.Text()
	layout := time.RFC3339Nano
	if len(text) == 10 {
		layout = time.DateOnly
	}
	v, err := time.Parse(layout, text)
	if err != nil {
		return nil, c, literalError(literal, err)
	}
	return &ast.Timestamp{Value: v}, end, nil
}

// isDateShape は `dddd-dd-dd` の形か判定する。
func isDateShape(s string) bool {
	for i := 0; i < 10; i++ {
		switch i {
		case 4, 7:
			if s[i] != '-' {
				return false
			}
		default:
			if !token.IsDigit(s[i]) {
				return false
			}
		}
	}
	return true
}

func isTimestampChar(b byte) bool {
	return token.IsDigit(b) || strings.IndexByte("Tt:.+-Zz", b) >= 0
}

// str は `"..."` の文字列リテラルをパースする。エスケープはGoと同じ。
func (s *state) str(c cursor) (ast.Expr, cursor, error) {
	defer s.untrace(s.trace("string", c))

	if b, ok := c.peek(); !ok || b != '"' {
		return fail[ast.Expr](c, token.STRING)
	}
	rest := c.rest()
	n := 1
	for n < len(rest) && rest[n] != '"' {
		if rest[n] == '\\' {
			n++
		}
		n++
	}
	if n >= len(rest) {
		literal := c.spanTo(c.advance(len(rest)))
		return nil, c, &LiteralError{Literal: literal.Text(), Message: "unterminated string", Span: literal}
	}
	end := c.advance(n + 1)

	literal := c.spanTo(end)
	v, err := strconv.Unquote(literal.Text())
	if err != nil {
		return nil, c, &LiteralError{Literal: literal.Text(), Message: err.Error(), Span: literal}
	}
	return &ast.String{Value: v}, end, nil
}

// symbol は英字と `_ + - * = > < ! ? / $` からなる最長の列をパースする。
// `true`, `false`, `nil` はそれぞれのリテラル値になる。
func (s *state) symbol(c cursor) (ast.Expr, cursor, error) {
	defer s.untrace(s.trace("symbol", c))

	name, next, err := takeWhile1(token.IsSymbolChar, token.SYMBOL)(c)
	if err != nil {
		return nil, c, err
	}

	switch token.LookupIdent(name) {
	case token.TRUE:
		return &ast.Boolean{Value: true}, next, nil
	case token.FALSE:
		return &ast.Boolean{Value: false}, next, nil
	case token.NIL:
		return &ast.Nil{}, next, nil
	default:
		return &ast.Symbol{Name: name}, next, nil
	}
}

// combination は `( operator ws+ arg (ws+ arg)* )` をパースする。
// 引数は1つ以上必要。`(` の直後と `)` の直前には空白を置いてよい。
func (s *state) combination(c cursor) (ast.Expr, cursor, error) {
	defer s.untrace(s.trace("combination", c))

	_, next, err := char('(', token.LPAREN)(c)
	if err != nil {
		return nil, c, err
	}
	next, _, _ = trivia(next)

	operator, next, err := s.expr(next)
	if err != nil {
		return nil, c, err
	}

	comb := &ast.Combination{Operator: operator}
	for {
		sep, consumed, _ := trivia(next)
		b, ok := sep.peek()
		switch {
		case ok && b == ')' && len(comb.Arguments) > 0:
			return comb, sep.advance(1), nil
		case ok && b == ')':
			// 引数が1つもない
			return fail[ast.Expr](sep, token.ALT)
		case !ok:
			return fail[ast.Expr](sep, token.RPAREN)
		case !consumed && len(comb.Arguments) == 0:
			return fail[ast.Expr](sep, token.WHITESPACE)
		case !consumed:
			return fail[ast.Expr](sep, token.RPAREN)
		}

		arg, after, err := s.expr(sep)
		if err != nil {
			return nil, c, err
		}
		comb.Arguments = append(comb.Arguments, arg)
		next = after
	}
}

// commentExpr はコメントだけの入力から Comment 式を作る。
func commentExpr(comments []source.Span) ast.Expr {
	texts := make([]string, len(comments))
	for i, sp := range comments {
		texts[i] = sp.Text()
	}
	first, last := comments[0], comments[len(comments)-1]
	sp := source.NewSpan(first.Buffer, first.Start, last.End)
	return ast.WithSpan(&ast.Comment{Text: strings.Join(texts, "\n")}, sp)
}

func literalError(sp source.Span, err error) *LiteralError {
	msg := err.Error()
	if ne, ok := err.(*strconv.NumError); ok {
		msg = ne.Err.Error()
	}
	return &LiteralError{Literal: sp.Text(), Message: msg, Span: sp}
}
