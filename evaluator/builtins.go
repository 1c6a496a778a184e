// builtins.go は評価器が名前で認識するプリミティブを定義する。
// プリミティブは評価済みの引数を受け取る（特殊形式ではない）。
//
// プリミティブ一覧:
// - set: シンボルに値を束縛する（最も内側のスコープ）。nil を返す
// - get: シンボルの値を内側のスコープから探す。未束縛なら nil
// - car: 組み合わせの演算子を返す
// - cdr: 最初の引数を演算子に、残りを引数にした組み合わせを返す
// - cons: 組み合わせを作り直して返す
// - if: 条件をもう一度評価し、true なら then、false なら else の値を返す
// - +: 数値を左から順に足す。整数同士は整数、浮動小数点数が混じれば浮動小数点数
package evaluator

import (
	"sort"

	"sexp/ast"
	"sexp/object"
)

// primitiveFn は評価済みの引数を受け取るプリミティブの実装。
type primitiveFn func(env *object.Environment, args []ast.Expr) (ast.Expr, error)

// primitives はプリミティブ名から実装へのマップ。
// if が Eval を呼ぶので、初期化の循環を避けて init で登録する。
var primitives map[string]primitiveFn

func init() {
	primitives = map[string]primitiveFn{
		"set":  builtinSet,
		"get":  builtinGet,
		"car":  builtinCar,
		"cdr":  builtinCdr,
		"cons": builtinCons,
		"if":   builtinIf,
		"+":    builtinAdd,
	}
}

// Primitives は認識されるプリミティブ名を辞書順で返す。
func Primitives() []string {
	names := make([]string, 0, len(primitives))
	for name := range primitives {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func arityError(name string, want string, got int) *object.Error {
	return object.NewError(object.ARITY_ERROR, name,
		"wrong number of arguments. got=%d, want=%s", got, want)
}

// builtinSet は `(set sym value)`。
func builtinSet(env *object.Environment, args []ast.Expr) (ast.Expr, error) {
	if len(args) != 2 {
		return nil, arityError("set", "2", len(args))
	}
	key, ok := args[0].(*ast.Symbol)
	if !ok {
		return nil, object.NewError(object.TYPE_ERROR, "set",
			"first argument must be SYMBOL, got %s", args[0].Kind())
	}

	env.Set(key.Name, args[1])
	return NIL, nil
}

// builtinGet は `(get sym)`。未束縛はエラーではなく nil。
func builtinGet(env *object.Environment, args []ast.Expr) (ast.Expr, error) {
	if len(args) != 1 {
		return nil, arityError("get", "1", len(args))
	}
	key, ok := args[0].(*ast.Symbol)
	if !ok {
		return nil, object.NewError(object.TYPE_ERROR, "get",
			"argument must be SYMBOL, got %s", args[0].Kind())
	}

	if v, ok := env.Get(key.Name); ok {
		return v, nil
	}
	return NIL, nil
}

// builtinCar は `(car (op a b))` → op。
func builtinCar(env *object.Environment, args []ast.Expr) (ast.Expr, error) {
	if len(args) != 1 {
		return nil, arityError("car", "1", len(args))
	}
	list, ok := args[0].(*ast.Combination)
	if !ok {
		return nil, object.NewError(object.TYPE_ERROR, "car",
			"argument must be COMBINATION, got %s", args[0].Kind())
	}

	return list.Operator, nil
}

// builtinCdr は `(cdr (op a b c))` → (a b c)。引数が2つ以上の組み合わせが必要。
func builtinCdr(env *object.Environment, args []ast.Expr) (ast.Expr, error) {
	if len(args) != 1 {
		return nil, arityError("cdr", "1", len(args))
	}
	list, ok := args[0].(*ast.Combination)
	if !ok {
		return nil, object.NewError(object.TYPE_ERROR, "cdr",
			"argument must be COMBINATION, got %s", args[0].Kind())
	}
	if len(list.Arguments) < 2 {
		return nil, object.NewError(object.TYPE_ERROR, "cdr",
			"combination must have at least two arguments, got %d", len(list.Arguments))
	}

	rest := make([]ast.Expr, len(list.Arguments)-1)
	copy(rest, list.Arguments[1:])
	return &ast.Combination{Operator: list.Arguments[0], Arguments: rest}, nil
}

// builtinCons は組み合わせを同じ演算子と引数で作り直す。引数のない組み合わせは受け付けない。
func builtinCons(env *object.Environment, args []ast.Expr) (ast.Expr, error) {
	if len(args) != 1 {
		return nil, arityError("cons", "1", len(args))
	}
	list, ok := args[0].(*ast.Combination)
	if !ok {
		return nil, object.NewError(object.TYPE_ERROR, "cons",
			"argument must be COMBINATION, got %s", args[0].Kind())
	}
	if len(list.Arguments) == 0 {
		return nil, object.NewError(object.TYPE_ERROR, "cons",
			"combination must have at least one argument")
	}

	elements := make([]ast.Expr, len(list.Arguments))
	copy(elements, list.Arguments)
	return &ast.Combination{Operator: list.Operator, Arguments: elements}, nil
}

// builtinIf は `(if cond then else)`。
// 引数はすでに評価済みなので、両方の分岐の副作用は起きたあとである。
// 条件はここでもう一度評価する。
func builtinIf(env *object.Environment, args []ast.Expr) (ast.Expr, error) {
	if len(args) != 3 {
		return nil, arityError("if", "3", len(args))
	}

	condition, err := Eval(args[0], env)
	if err != nil {
		return nil, err
	}

	if b, ok := condition.(*ast.Boolean); ok {
		if b.Value {
			return args[1], nil
		}
		return args[2], nil
	}
	return nil, object.NewError(object.TYPE_ERROR, "if",
		"condition must be BOOLEAN, got %s", condition.Kind())
}

// number は + の途中結果。最初の引数を見るまでは型を持たないゼロ。
type number struct {
	kind ast.Kind // "" はまだ型のないゼロ
	i    int64
	f    float64
}

// builtinAdd は数値を左から右に足していく。
// 整数 + 整数 → 整数、整数と浮動小数点数が混じれば浮動小数点数。
// 引数がなければ整数の 0。
func builtinAdd(env *object.Environment, args []ast.Expr) (ast.Expr, error) {
	var acc number

	for _, arg := range args {
		switch arg := arg.(type) {
		case *ast.Integer:
			switch acc.kind {
			case "":
				acc = number{kind: ast.INTEGER_EXPR, i: arg.Value}
			case ast.INTEGER_EXPR:
				sum := acc.i + arg.Value
				if (acc.i > 0 && arg.Value > 0 && sum < 0) || (acc.i < 0 && arg.Value < 0 && sum >= 0) {
					return nil, object.NewError(object.OVERFLOW_ERROR, "+",
						"%d + %d overflows INTEGER", acc.i, arg.Value)
				}
				acc.i = sum
			case ast.FLOAT_EXPR:
				acc.f += float64(arg.Value)
			}
		case *ast.Float:
			switch acc.kind {
			case "":
				acc = number{kind: ast.FLOAT_EXPR, f: arg.Value}
			case ast.INTEGER_EXPR:
				acc = number{kind: ast.FLOAT_EXPR, f: float64(acc.i) + arg.Value}
			case ast.FLOAT_EXPR:
				acc.f += arg.Value
			}
		default:
			return nil, object.NewError(object.NOT_NUMERIC_ERROR, "+",
				"expected INTEGER or FLOAT, found %s %s", arg.Kind(), arg)
		}
	}

	if acc.kind == ast.FLOAT_EXPR {
		return &ast.Float{Value: acc.f}, nil
	}
	return &ast.Integer{Value: acc.i}, nil
}
