package source

import (
	"fmt"
	"strings"
)

// Snippet はスパンの位置にキャレットを付けたソースの抜粋を組み立てる。
// 前後1行ずつを行番号付きで表示する。
//
//	PARSE ERROR in <snippet> at 1:4: invalid number
//
//	   1 | (+ 99999999999999999999 1)
//	     |    ^~~~~~~~~~~~~~~~~~~~
func Snippet(header string, span Span, msg string) string {
	var b strings.Builder
	if span.Buffer == nil {
		fmt.Fprintf(&b, "%s: %s\n", header, msg)
		return b.String()
	}

	line, col := span.Position()
	fmt.Fprintf(&b, "%s in %s at %d:%d: %s\n\n", header, span.Buffer.Label(), line, col, msg)

	lines := strings.Split(span.Buffer.Text, "\n")
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	lineText := lines[line-1]
	fmt.Fprintf(&b, "%4d | %s\n", line, lineText)

	// キャレットの長さは同じ行に収まる分だけ
	width := len([]rune(span.Text()))
	if nl := strings.IndexByte(span.Text(), '\n'); nl >= 0 {
		width = len([]rune(span.Text()[:nl]))
	}
	marker := "^"
	if width > 1 {
		marker += strings.Repeat("~", width-1)
	}
	fmt.Fprintf(&b, "     | %s%s\n", strings.Repeat(" ", col-1), marker)

	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}
