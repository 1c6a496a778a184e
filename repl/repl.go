// Package repl は S式言語のREPL（Read-Eval-Print Loop）を実装するパッケージ。
// ユーザーが入力した行を構文解析 → 評価し、結果を表示する。
package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"sexp/ast"
	"sexp/evaluator"
	"sexp/object"
	"sexp/parser"
	"sexp/source"
)

// PROMPT はREPLのデフォルトのプロンプト文字列。
const PROMPT = ">> "

// EXIT はセッションを終了する入力。
const EXIT = "exit"

// Prompter はプロンプトを表示して1行を読むもの。
// io.EOF を返すとセッションが終わる。*liner.State はこれを満たす。
type Prompter interface {
	Prompt(prompt string) (string, error)
}

// REPL はひとつのセッションの状態。
// 環境（env）をセッション全体で共有することで、変数束縛が行をまたいで持続する。
type REPL struct {
	prompt    string
	showSpans bool
	logger    *slog.Logger
	store     *source.Store
	parser    *parser.Parser
	env       *object.Environment
}

// Option は REPL の設定を変更する。
type Option func(*REPL)

// WithPrompt はプロンプト文字列を設定する。
func WithPrompt(prompt string) Option {
	return func(r *REPL) { r.prompt = prompt }
}

// WithShowSpans を true にすると、結果のあとに入力式のスパンを表示する。
func WithShowSpans(show bool) Option {
	return func(r *REPL) { r.showSpans = show }
}

// WithLogger はロガーを設定する。パーサーにも同じロガーを渡す。
func WithLogger(logger *slog.Logger) Option {
	return func(r *REPL) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithStore はソースストアを共有する。
func WithStore(store *source.Store) Option {
	return func(r *REPL) {
		if store != nil {
			r.store = store
		}
	}
}

// WithEnvironment は評価に使う環境を設定する。
func WithEnvironment(env *object.Environment) Option {
	return func(r *REPL) {
		if env != nil {
			r.env = env
		}
	}
}

// New は REPL を作る。
func New(opts ...Option) *REPL {
	r := &REPL{
		prompt: PROMPT,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.store == nil {
		r.store = source.NewStore(source.WithLogger(r.logger))
	}
	if r.env == nil {
		r.env = object.NewEnvironment()
	}
	r.parser = parser.New(parser.WithLogger(r.logger))
	return r
}

// Environment はセッションの環境を返す。
func (r *REPL) Environment() *object.Environment { return r.env }

// Run は p から1行ずつ読み、評価結果を out に書き出す。
// 入力が尽きるか EXIT が入力されたら nil を返す。
func (r *REPL) Run(p Prompter, out io.Writer) error {
	for {
		line, err := p.Prompt(r.prompt)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == EXIT {
			return nil
		}
		if line == "" {
			continue
		}

		r.Eval(line, out)
	}
}

// Eval は1行を解析・評価して結果を書き出す。失敗していれば false を返す。
func (r *REPL) Eval(line string, out io.Writer) bool {
	expr, err := r.parser.Parse(r.store, line)
	return r.print(out, expr, err)
}

// LoadFile はファイルの式を評価して結果を書き出す。
// 構文エラーや評価エラーは out に表示し、ファイルを読めなかったときだけエラーを返す。
func (r *REPL) LoadFile(path string, out io.Writer) error {
	expr, err := r.parser.ParseFile(r.store, path)
	var re *parser.ReadError
	if errors.As(err, &re) {
		return err
	}
	r.print(out, expr, err)
	return nil
}

// print は解析結果を評価し、結果かエラーを out に書き出す。
func (r *REPL) print(out io.Writer, expr source.Spanned[ast.Expr], err error) bool {
	if err != nil {
		r.logger.Debug("parse failed", "error", err)
		io.WriteString(out, parser.Format(err))
		return false
	}

	evaluated, err := evaluator.Eval(expr.Value, r.env)
	if err != nil {
		r.logger.Debug("eval failed", "error", err, "span", expr.Span.String())
		fmt.Fprintf(out, "ERROR: %s\n", err)
		return false
	}

	io.WriteString(out, evaluated.String())
	io.WriteString(out, "\n")
	if r.showSpans {
		fmt.Fprintf(out, "; %s\n", expr.Span)
	}
	return true
}

// lineReader は bufio.Scanner で Prompter を満たす。
type lineReader struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func (l *lineReader) Prompt(prompt string) (string, error) {
	io.WriteString(l.out, prompt)
	if !l.scanner.Scan() {
		if err := l.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return l.scanner.Text(), nil
}

// ScanPrompter は in から1行ずつ読み、プロンプトを out に書く Prompter を返す。
func ScanPrompter(in io.Reader, out io.Writer) Prompter {
	return &lineReader{scanner: bufio.NewScanner(in), out: out}
}

// Start はREPLを起動する。
// 入力ストリームからコードを1行ずつ読み取り、評価結果を出力ストリームに書き出す。
func Start(in io.Reader, out io.Writer, opts ...Option) error {
	return New(opts...).Run(ScanPrompter(in, out), out)
}
