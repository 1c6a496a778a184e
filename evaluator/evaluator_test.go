package evaluator

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"sexp/ast"
	"sexp/object"
	"sexp/parser"
	"sexp/source"
)

// testEval は入力をパースして新しい環境で評価する。
func testEval(t *testing.T, input string, env *object.Environment) (ast.Expr, error) {
	t.Helper()
	sp, err := parser.Parse(source.NewStore(), input)
	if err != nil {
		t.Fatalf("parse %q failed: %v", input, err)
	}
	return Eval(sp.Value, env)
}

func mustEval(t *testing.T, input string, env *object.Environment) ast.Expr {
	t.Helper()
	v, err := testEval(t, input, env)
	if err != nil {
		t.Fatalf("eval %q failed: %v", input, err)
	}
	return v
}

func TestSelfEvaluating(t *testing.T) {
	inputs := []string{"42", "3.5", "foo", "true", "nil", `"s"`, "1h", "2024-01-02T03:04:05Z"}

	for _, input := range inputs {
		sp, err := parser.Parse(source.NewStore(), input)
		if err != nil {
			t.Fatalf("parse %q failed: %v", input, err)
		}
		got, err := Eval(sp.Value, object.NewEnvironment())
		if err != nil {
			t.Fatalf("eval %q failed: %v", input, err)
		}
		if got != sp.Value {
			t.Errorf("%q should evaluate to itself. got=%s", input, got)
		}
	}

	comment := &ast.Comment{Text: "c"}
	if got, _ := Eval(comment, object.NewEnvironment()); got != comment {
		t.Errorf("comment should evaluate to itself")
	}
}

func TestAddPromotion(t *testing.T) {
	tests := []struct {
		input    string
		expected ast.Expr
	}{
		{"(+ 1 2)", &ast.Integer{Value: 3}},
		{"(+ 1 2.5)", &ast.Float{Value: 3.5}},
		{"(+ 2.5 1)", &ast.Float{Value: 3.5}},
		{"(+ 1.25 2.25)", &ast.Float{Value: 3.5}},
		{"(+ 1 2 3 4)", &ast.Integer{Value: 10}},
		{"(+ 1.5)", &ast.Float{Value: 1.5}},
		{"(+ -3)", &ast.Integer{Value: -3}},
		{"(+ (+ 1 2) (+ 0.5 0.5))", &ast.Float{Value: 4}},
	}

	for _, tt := range tests {
		got := mustEval(t, tt.input, object.NewEnvironment())
		if !ast.Equal(got, tt.expected) {
			t.Errorf("%s wrong. want=%s (%s), got=%s (%s)",
				tt.input, tt.expected, tt.expected.Kind(), got, got.Kind())
		}
	}
}

func TestAddZeroArguments(t *testing.T) {
	// 引数のない組み合わせは文法上書けないので直接組み立てる
	expr := &ast.Combination{Operator: &ast.Symbol{Name: "+"}}
	got, err := Eval(expr, object.NewEnvironment())
	if err != nil {
		t.Fatalf("eval failed: %v", err)
	}
	if !ast.Equal(got, &ast.Integer{Value: 0}) {
		t.Errorf("(+) should be integer 0. got=%s (%s)", got, got.Kind())
	}
}

func TestAddErrors(t *testing.T) {
	tests := []struct {
		input string
		kind  error
	}{
		{`(+ 1 "a")`, object.ErrNotNumeric},
		{"(+ 1 x)", object.ErrNotNumeric},
		{"(+ 1.5 true)", object.ErrNotNumeric},
		{"(+ 9223372036854775807 1)", object.ErrOverflow},
		{"(+ -9223372036854775808 -1)", object.ErrOverflow},
	}

	for _, tt := range tests {
		_, err := testEval(t, tt.input, object.NewEnvironment())
		if !errors.Is(err, tt.kind) {
			t.Errorf("%s: expected %v. got=%v", tt.input, tt.kind, err)
		}
	}
}

func TestSetGet(t *testing.T) {
	env := object.NewEnvironment()

	got := mustEval(t, "(set x 5)", env)
	if !ast.Equal(got, NIL) {
		t.Errorf("set should return nil. got=%s", got)
	}

	if got := mustEval(t, "(get x)", env); !ast.Equal(got, &ast.Integer{Value: 5}) {
		t.Errorf("(get x) wrong. got=%s", got)
	}

	child := env.Extend()
	if got := mustEval(t, "(get x)", child); !ast.Equal(got, &ast.Integer{Value: 5}) {
		t.Errorf("(get x) in child scope wrong. got=%s", got)
	}

	if got := mustEval(t, "(get y)", env); !ast.Equal(got, NIL) {
		t.Errorf("(get y) should be nil. got=%s", got)
	}

	// 値は評価済みの式として束縛される
	mustEval(t, "(set y (+ 1 2))", child)
	if got := mustEval(t, "(get y)", child); !ast.Equal(got, &ast.Integer{Value: 3}) {
		t.Errorf("(get y) wrong. got=%s", got)
	}
	if got := mustEval(t, "(get y)", env); !ast.Equal(got, NIL) {
		t.Errorf("child binding should not leak to parent. got=%s", got)
	}

	// 評価された式が (get ...) の引数になる
	mustEval(t, "(set name x)", env)
	if got := mustEval(t, "(get (get name))", env); !ast.Equal(got, &ast.Integer{Value: 5}) {
		t.Errorf("(get (get name)) wrong. got=%s", got)
	}
}

func TestCarCdrCons(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"(car (op a b))", "op"},
		{"(cdr (op a b))", "(a b)"},
		{"(cdr (op a b c))", "(a b c)"},
		{"(cons (op a))", "(op a)"},
		{"(cons (op a b))", "(op a b)"},
		{"(car (cdr (op (x y) b)))", "(x y)"},
		{"(car ((+ 1 2) 4))", "3"},
	}

	for _, tt := range tests {
		got := mustEval(t, tt.input, object.NewEnvironment())
		if got.String() != tt.expected {
			t.Errorf("%s wrong. want=%s, got=%s", tt.input, tt.expected, got)
		}
	}
}

func TestCdrDoesNotShareArguments(t *testing.T) {
	list := &ast.Combination{
		Operator:  &ast.Symbol{Name: "op"},
		Arguments: []ast.Expr{&ast.Symbol{Name: "a"}, &ast.Symbol{Name: "b"}, &ast.Symbol{Name: "c"}},
	}
	got, err := builtinCdr(object.NewEnvironment(), []ast.Expr{list})
	if err != nil {
		t.Fatal(err)
	}
	got.(*ast.Combination).Arguments[0] = &ast.Nil{}

	if list.String() != "(op a b c)" {
		t.Errorf("cdr result aliases input. got=%s", list)
	}
}

func TestIf(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"(if true yes no)", "yes"},
		{"(if false yes no)", "no"},
		{"(if (car (true x)) (+ 1 1) 0)", "2"},
	}

	for _, tt := range tests {
		got := mustEval(t, tt.input, object.NewEnvironment())
		if got.String() != tt.expected {
			t.Errorf("%s wrong. want=%s, got=%s", tt.input, tt.expected, got)
		}
	}
}

// TestIfEvaluatesBothBranches は先行評価のため、選ばれなかった分岐の
// set も実行されることを確かめる。
func TestIfEvaluatesBothBranches(t *testing.T) {
	env := object.NewEnvironment()
	got := mustEval(t, "(if true (set a 1) (set b 2))", env)
	if !ast.Equal(got, NIL) {
		t.Errorf("if result wrong. got=%s", got)
	}
	for _, name := range []string{"a", "b"} {
		if _, ok := env.Get(name); !ok {
			t.Errorf("%s should be bound by eager evaluation", name)
		}
	}
}

func TestUnknownOperatorFallback(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"(foo 1 2)", "(foo 1 2)"},
		{"(foo (+ 1 2) bar)", "(foo 3 bar)"},
		{"((+ 1 2) 4)", "(3 4)"},
		{"(1 2)", "(1 2)"},
	}

	for _, tt := range tests {
		got, err := testEval(t, tt.input, object.NewEnvironment())
		if err != nil {
			t.Fatalf("%s should not fail: %v", tt.input, err)
		}
		if got.String() != tt.expected {
			t.Errorf("%s wrong. want=%s, got=%s", tt.input, tt.expected, got)
		}
	}
}

func TestPrimitiveErrors(t *testing.T) {
	tests := []struct {
		input     string
		kind      error
		primitive string
	}{
		{"(set x)", object.ErrArity, "set"},
		{"(set 1 2)", object.ErrType, "set"},
		{"(set x 1 2)", object.ErrArity, "set"},
		{"(get 1)", object.ErrType, "get"},
		{"(get x y)", object.ErrArity, "get"},
		{"(car x)", object.ErrType, "car"},
		{"(cdr x)", object.ErrType, "cdr"},
		{"(cdr (op a))", object.ErrType, "cdr"},
		{"(cons 1)", object.ErrType, "cons"},
		{"(if 1 a b)", object.ErrType, "if"},
		{"(if true a)", object.ErrArity, "if"},
	}

	for _, tt := range tests {
		_, err := testEval(t, tt.input, object.NewEnvironment())
		if !errors.Is(err, tt.kind) {
			t.Errorf("%s: expected %v. got=%v", tt.input, tt.kind, err)
			continue
		}
		var oe *object.Error
		if !errors.As(err, &oe) || oe.Primitive != tt.primitive {
			t.Errorf("%s: primitive wrong. want=%s, got=%v", tt.input, tt.primitive, err)
		}
	}
}

func TestConsRejectsEmptyCombination(t *testing.T) {
	empty := &ast.Combination{Operator: &ast.Symbol{Name: "op"}}
	_, err := builtinCons(object.NewEnvironment(), []ast.Expr{empty})
	if !errors.Is(err, object.ErrType) {
		t.Errorf("expected type error. got=%v", err)
	}
}

// TestErrorStopsEvaluation はエラーの後ろの引数が評価されないことを確かめる。
func TestErrorStopsEvaluation(t *testing.T) {
	env := object.NewEnvironment()
	_, err := testEval(t, `(list (+ 1 "x") (set after 1))`, env)
	if !errors.Is(err, object.ErrNotNumeric) {
		t.Fatalf("expected not-numeric error. got=%v", err)
	}
	if _, ok := env.Get("after"); ok {
		t.Errorf("arguments after a failure should not be evaluated")
	}
}

func TestDurationAndTimestampPassThrough(t *testing.T) {
	env := object.NewEnvironment()
	mustEval(t, "(set t 2024-01-02T03:04:05Z)", env)
	mustEval(t, "(set d 90m)", env)

	got := mustEval(t, "(pair (get t) (get d))", env)
	want := &ast.Combination{
		Operator: &ast.Symbol{Name: "pair"},
		Arguments: []ast.Expr{
			&ast.Timestamp{Value: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
			&ast.Duration{Value: 90 * time.Minute},
		},
	}
	if !ast.Equal(got, want) {
		t.Errorf("wrong. want=%s, got=%s", want, got)
	}
}

func TestPrimitives(t *testing.T) {
	want := []string{"+", "car", "cdr", "cons", "get", "if", "set"}
	if diff := cmp.Diff(want, Primitives()); diff != "" {
		t.Errorf("Primitives() mismatch (-want +got):\n%s", diff)
	}
}
