package source

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Span はバッファ内のバイト範囲 [Start, End) への参照。
// テキストを所有せず、診断表示やソースの切り出しにだけ使う。
// Start <= End <= Buffer.Len() を満たす。
type Span struct {
	Buffer *Buffer
	Start  int
	End    int
}

// NewSpan は範囲を検証して Span を作る。
func NewSpan(buf *Buffer, start, end int) Span {
	if start < 0 || start > end || end > buf.Len() {
		panic(fmt.Sprintf("source: invalid span [%d, %d) for buffer of length %d", start, end, buf.Len()))
	}
	return Span{Buffer: buf, Start: start, End: end}
}

// Len は範囲のバイト長を返す。
func (s Span) Len() int { return s.End - s.Start }

// Text はスパンが指すソーステキストを返す。
func (s Span) Text() string {
	if s.Buffer == nil {
		return ""
	}
	return s.Buffer.Text[s.Start:s.End]
}

// Contains は other が s の範囲内に収まっているか判定する。
func (s Span) Contains(other Span) bool {
	return s.Buffer == other.Buffer && s.Start <= other.Start && other.End <= s.End
}

// Position は Start の位置を1始まりの行・列で返す。列はルーン単位で数える。
func (s Span) Position() (line, col int) {
	if s.Buffer == nil {
		return 1, 1
	}
	before := s.Buffer.Text[:s.Start]
	line = strings.Count(before, "\n") + 1
	lineStart := strings.LastIndexByte(before, '\n') + 1
	col = utf8.RuneCountInString(before[lineStart:]) + 1
	return line, col
}

// String は "origin:line:col" の形式で位置を返す。
func (s Span) String() string {
	if s.Buffer == nil {
		return "<unknown>"
	}
	line, col := s.Position()
	return fmt.Sprintf("%s:%d:%d", s.Buffer.Label(), line, col)
}

// Spanned は任意の値とそれを生んだソース範囲の組。
type Spanned[T any] struct {
	Value T
	Span  Span
}
