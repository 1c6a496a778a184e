// walk.go は ASTを走査する関数 Walk を提供する。
// 親ノードを先に訪問し、続けて演算子、引数の順に子ノードを訪問する（前順走査）。
package ast

// WalkFunc は訪問した式と深さ（ルートが0）を受け取る関数の型。
// false を返すとそのノードの子は訪問しない。
type WalkFunc func(e Expr, depth int) bool

// Walk は式を前順に走査し、各ノードに fn を適用する。
func Walk(e Expr, fn WalkFunc) {
	walk(e, 0, fn)
}

func walk(e Expr, depth int, fn WalkFunc) {
	if e == nil || !fn(e, depth) {
		return
	}

	if c, ok := e.(*Combination); ok {
		walk(c.Operator, depth+1, fn)
		for _, arg := range c.Arguments {
			walk(arg, depth+1, fn)
		}
	}
}
