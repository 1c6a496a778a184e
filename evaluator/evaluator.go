// Package evaluator は S式言語のTree-walking評価器を実装するパッケージ。
// ASTを再帰的にたどりながら各ノードを評価し、結果を新しい ast.Expr として返す。
//
// 組み合わせ `(op arg...)` はまず演算子を、次に引数を左から右へすべて評価し、
// そのあとで演算子がプリミティブ名のシンボルかどうかを見て処理を振り分ける（先行評価）。
// プリミティブでなければ、評価済みの演算子と引数で組み合わせを作り直して返す。
package evaluator

import (
	"errors"

	"sexp/ast"
	"sexp/object"
)

// NIL は評価結果として返す nil 値。
var NIL = &ast.Nil{}

// Eval は式を評価して結果を返す、評価器のメイン関数。
// 組み合わせ以外の式は自分自身に評価される。
// エラーは再試行も握りつぶしもせず、そのまま呼び出し元へ返す。
func Eval(expr ast.Expr, env *object.Environment) (ast.Expr, error) {
	switch node := expr.(type) {

	// Combination: 演算子と引数を評価してからプリミティブを適用する
	case *ast.Combination:
		return evalCombination(node, env)

	// 自己評価的な式はそのまま返す
	case *ast.Nil, *ast.Comment, *ast.Boolean, *ast.Symbol, *ast.Float,
		*ast.String, *ast.Duration, *ast.Timestamp, *ast.Integer:
		return node, nil
	}

	return nil, errors.New("eval: nil expression")
}

// evalCombination は `(op arg...)` を評価する。
func evalCombination(node *ast.Combination, env *object.Environment) (ast.Expr, error) {
	// まず演算子自体を評価する
	operator, err := Eval(node.Operator, env)
	if err != nil {
		return nil, err
	}

	// 引数を左から右に評価する
	args, err := evalExpressions(node.Arguments, env)
	if err != nil {
		return nil, err
	}

	if sym, ok := operator.(*ast.Symbol); ok {
		if fn, ok := primitives[sym.Name]; ok {
			return fn(env, args)
		}
	}

	// 知らない演算子は評価済みの組み合わせとしてそのまま返す
	return &ast.Combination{Operator: operator, Arguments: args}, nil
}

// evalExpressions は式のリストを左から右に評価する。
// 途中でエラーが発生したら、そこで評価をやめてエラーを返す。
func evalExpressions(exps []ast.Expr, env *object.Environment) ([]ast.Expr, error) {
	result := make([]ast.Expr, 0, len(exps))

	for _, e := range exps {
		evaluated, err := Eval(e, env)
		if err != nil {
			return nil, err
		}
		result = append(result, evaluated)
	}

	return result, nil
}
