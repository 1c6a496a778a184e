// environment.go は変数の環境（スコープの連鎖）を管理する。
// Environment は外側から内側へ並んだスコープの列で、
// 検索は内側（末尾）から外側（先頭）へ、書き込みは常に最も内側のスコープに行う。
// Extend は既存のスコープを複製せずに新しいスコープを末尾に足すので、
// 子の環境から親のスコープへの書き込みは親の環境からもすぐに見える。
package object

import (
	"sync"

	"github.com/emirpasic/gods/maps/linkedhashmap"

	"sexp/ast"
)

// Scope は名前から値への1つのフレーム。挿入順を保ち、個別にロックされる。
type Scope struct {
	mu    sync.RWMutex
	store *linkedhashmap.Map
}

// NewScope は空のスコープを作る。
func NewScope() *Scope {
	return &Scope{store: linkedhashmap.New()}
}

// Get はこのスコープだけから名前を探す。
func (s *Scope) Get(name string) (ast.Expr, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.store.Get(name)
	if !ok {
		return nil, false
	}
	return v.(ast.Expr), true
}

// Set は名前に値を束縛する。既に束縛されていれば上書きし、順序は最初の挿入位置のまま。
func (s *Scope) Set(name string, val ast.Expr) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Put(name, val)
}

// Names は束縛されている名前を挿入順に返す。
func (s *Scope) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, s.store.Size())
	it := s.store.Iterator()
	for it.Next() {
		names = append(names, it.Key().(string))
	}
	return names
}

// Len は束縛の数を返す。
func (s *Scope) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.Size()
}

// Environment はスコープの列（外側が先頭）。
// 複数の Environment が同じ Scope を共有できる。
type Environment struct {
	scopes []*Scope
}

// NewEnvironment は1つの空のスコープを持つ環境を作る。
// プログラムのトップレベル環境として使用する。
func NewEnvironment() *Environment {
	return &Environment{scopes: []*Scope{NewScope()}}
}

// Extend は自分のスコープをすべて共有し、新しい空のスコープを内側に足した環境を返す。
// 元の環境は変更しない。
func (e *Environment) Extend() *Environment {
	scopes := make([]*Scope, len(e.scopes), len(e.scopes)+1)
	copy(scopes, e.scopes)
	return &Environment{scopes: append(scopes, NewScope())}
}

// Get は名前を内側のスコープから外側へ順に探し、最初に見つかった値を返す。
func (e *Environment) Get(name string) (ast.Expr, bool) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if v, ok := e.scopes[i].Get(name); ok {
			return v, true
		}
	}
	return nil, false
}

// Set は名前を最も内側のスコープに束縛する。
func (e *Environment) Set(name string, val ast.Expr) ast.Expr {
	e.Innermost().Set(name, val)
	return val
}

// Innermost は最も内側のスコープを返す。
func (e *Environment) Innermost() *Scope {
	return e.scopes[len(e.scopes)-1]
}

// Depth はスコープの数を返す。
func (e *Environment) Depth() int { return len(e.scopes) }

// Names は見える名前を内側のスコープから順に、重複を除いて返す。
func (e *Environment) Names() []string {
	seen := map[string]bool{}
	var names []string
	for i := len(e.scopes) - 1; i >= 0; i-- {
		for _, n := range e.scopes[i].Names() {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	return names
}
