package object

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"sexp/ast"
)

func TestEnvironmentGetSet(t *testing.T) {
	env := NewEnvironment()
	env.Set("x", &ast.Integer{Value: 5})

	v, ok := env.Get("x")
	if !ok {
		t.Fatalf("x should be bound")
	}
	if !ast.Equal(v, &ast.Integer{Value: 5}) {
		t.Errorf("x wrong. got=%s", v)
	}

	if _, ok := env.Get("y"); ok {
		t.Errorf("y should be unbound")
	}
}

func TestExtendSharesAncestorScopes(t *testing.T) {
	parent := NewEnvironment()
	parent.Set("x", &ast.Integer{Value: 1})

	child := parent.Extend()
	if child.Depth() != 2 || parent.Depth() != 1 {
		t.Fatalf("depth wrong. parent=%d child=%d", parent.Depth(), child.Depth())
	}

	// 子から親の束縛が見える
	if v, ok := child.Get("x"); !ok || !ast.Equal(v, &ast.Integer{Value: 1}) {
		t.Errorf("child should see x=1. got=%v", v)
	}

	// 子の書き込みは子のスコープだけに入り、親の値を隠す
	child.Set("x", &ast.Integer{Value: 2})
	if v, _ := child.Get("x"); !ast.Equal(v, &ast.Integer{Value: 2}) {
		t.Errorf("child x wrong. got=%s", v)
	}
	if v, _ := parent.Get("x"); !ast.Equal(v, &ast.Integer{Value: 1}) {
		t.Errorf("parent x should be unchanged. got=%s", v)
	}

	// 親のスコープへの書き込みは、あとからでも子に見える
	parent.Set("y", &ast.Symbol{Name: "late"})
	if v, ok := child.Get("y"); !ok || !ast.Equal(v, &ast.Symbol{Name: "late"}) {
		t.Errorf("child should see parent's later write. got=%v", v)
	}

	// 兄弟の環境はお互いのスコープを見ない
	sibling := parent.Extend()
	sibling.Set("z", &ast.Nil{})
	if _, ok := child.Get("z"); ok {
		t.Errorf("sibling binding leaked into child")
	}
}

func TestEnvironmentNamesOrder(t *testing.T) {
	env := NewEnvironment()
	env.Set("b", &ast.Nil{})
	env.Set("a", &ast.Nil{})
	env.Set("b", &ast.Integer{Value: 1})

	child := env.Extend()
	child.Set("c", &ast.Nil{})
	child.Set("a", &ast.Nil{})

	if diff := cmp.Diff([]string{"b", "a"}, env.Innermost().Names()); diff != "" {
		t.Errorf("scope order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"c", "a", "b"}, child.Names()); diff != "" {
		t.Errorf("env names mismatch (-want +got):\n%s", diff)
	}
}

func TestScopeConcurrentWrites(t *testing.T) {
	env := NewEnvironment()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			child := env.Extend()
			env.Set(fmt.Sprintf("v%d", i), &ast.Integer{Value: int64(i)})
			child.Get("v0")
		}()
	}
	wg.Wait()

	if env.Innermost().Len() != 50 {
		t.Errorf("expected 50 bindings. got=%d", env.Innermost().Len())
	}
}

func TestErrorIs(t *testing.T) {
	err := error(NewError(NOT_NUMERIC_ERROR, "+", "%s is not a number", `"a"`))

	if !errors.Is(err, ErrNotNumeric) {
		t.Errorf("errors.Is(err, ErrNotNumeric) should be true")
	}
	if errors.Is(err, ErrArity) {
		t.Errorf("errors.Is(err, ErrArity) should be false")
	}
	if err.Error() != `+: "a" is not a number` {
		t.Errorf("message wrong. got=%q", err.Error())
	}
}
