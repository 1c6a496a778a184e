// Package token はパーサーが扱う文法要素の種類を定義するパッケージ。
// 構文エラーには「どの規則で失敗したか」を表す Kind が付き、
// 呼び出し側はこれを見て失敗の分類を知ることができる。
package token

// Kind は文法規則（または失敗の分類）を文字列で表す型。
type Kind string

const (
	ILLEGAL = "ILLEGAL" // どの規則にも当てはまらない
	EOF     = "EOF"     // 入力の終端が期待された（末尾に余分な入力がある）

	// リテラル
	NUMBER    = "NUMBER"    // 42, -1_000, 3.14, 6.02e23
	SYMBOL    = "SYMBOL"    // set, +, foo-bar?
	STRING    = "STRING"    // "hello"
	DURATION  = "DURATION"  // 1h30m, 250ms
	TIMESTAMP = "TIMESTAMP" // 2024-01-02T03:04:05Z
	COMMENT   = "COMMENT"   // ; ...

	// デリミタ
	LPAREN     = "("
	RPAREN     = ")"
	WHITESPACE = "WHITESPACE" // 演算子と引数の間の空白

	// 組み合わせ規則
	COMBINATION = "COMBINATION"
	ALT         = "ALT" // 選択肢のどれにも一致しなかった
)

// Keyword はシンボルとして読まれたあとに特別な値になる語の種類。
type Keyword string

const (
	IDENT Keyword = "IDENT"
	TRUE  Keyword = "TRUE"
	FALSE Keyword = "FALSE"
	NIL   Keyword = "NIL"
)

// keywords はリテラル値として扱われる予約語のマップ。
var keywords = map[string]Keyword{
	"true":  TRUE,
	"false": FALSE,
	"nil":   NIL,
}

// LookupIdent はシンボルの文字列が予約語かどうかを判定する。
// 予約語であればその種類を、そうでなければIDENTを返す。
func LookupIdent(ident string) Keyword {
	if kw, ok := keywords[ident]; ok {
		return kw
	}
	return IDENT
}

// IsSymbolChar はシンボルを構成できる文字か判定する。
// 英字と `_ + - * = > < ! ? / $` が使える。
func IsSymbolChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		return true
	}
	switch c {
	case '_', '+', '-', '*', '=', '>', '<', '!', '?', '/', '$':
		return true
	}
	return false
}

// IsDigit は10進数字か判定する。
func IsDigit(c byte) bool { return '0' <= c && c <= '9' }

// IsSpace は区切りとして読み飛ばす空白文字か判定する。
func IsSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}
