// Package object は評価器の実行時の状態を定義するパッケージ。
// 変数の環境（Environment）と、評価中に起きたエラー（Error）を持つ。
// 値そのものは ast.Expr で表す（評価の結果も式になる）。
package object

import (
	"errors"
	"fmt"
)

// ErrorKind は評価エラーの種類を識別する文字列型。
type ErrorKind string

// 評価エラーの種類を表す定数。
const (
	ARITY_ERROR       = "ARITY"       // 引数の数が違う
	TYPE_ERROR        = "TYPE"        // 引数の式の種類が違う
	NOT_NUMERIC_ERROR = "NOT_NUMERIC" // 数値でない値を足そうとした
	OVERFLOW_ERROR    = "OVERFLOW"    // 整数の加算が溢れた
)

// errors.Is で種類を判定するための番兵エラー。
var (
	ErrArity      = errors.New("wrong number of arguments")
	ErrType       = errors.New("wrong argument type")
	ErrNotNumeric = errors.New("not numeric")
	ErrOverflow   = errors.New("integer overflow")
)

// Error は評価中のエラー。
// Primitive はエラーを起こしたプリミティブの名前、Message は詳細。
// プロセスを止めずに Eval の呼び出し元まで伝播する。
type Error struct {
	Kind      ErrorKind
	Primitive string
	Message   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Primitive, e.Message)
}

// Is は Kind に対応する番兵エラーと一致するか判定する。
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case ARITY_ERROR:
		return target == ErrArity
	case TYPE_ERROR:
		return target == ErrType
	case NOT_NUMERIC_ERROR:
		return target == ErrNotNumeric
	case OVERFLOW_ERROR:
		return target == ErrOverflow
	}
	return false
}

// NewError はエラーを生成するヘルパー関数。
func NewError(kind ErrorKind, primitive, format string, a ...interface{}) *Error {
	return &Error{Kind: kind, Primitive: primitive, Message: fmt.Sprintf(format, a...)}
}
