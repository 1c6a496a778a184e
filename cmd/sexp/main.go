// sexp は S式言語のコマンドラインツール。
//
//	sexp [-log-level level] [-config path] repl [file]
//	sexp [-log-level level] [-config path] parse <file>
//	sexp [-log-level level] [-config path] eval <file>
//
// サブコマンドを省略すると repl になる。
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"sexp/ast"
	"sexp/config"
	"sexp/evaluator"
	"sexp/object"
	"sexp/parser"
	"sexp/repl"
	"sexp/source"
)

const appName = "sexp"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// logLevelVar は slog.LevelVar を flag.Value として使うためのラッパー。
type logLevelVar struct {
	levelVar *slog.LevelVar
}

func (v *logLevelVar) String() string {
	if v.levelVar == nil {
		return ""
	}
	return v.levelVar.Level().String()
}

func (v *logLevelVar) Set(s string) error {
	level, err := config.ParseLevel(s)
	if err != nil {
		return err
	}
	v.levelVar.Set(level)
	return nil
}

// app はサブコマンドが共有する設定と出力先。
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath = fs.String("config", "", "path to the YAML config file (default $"+config.ENV_VAR+")")
		logLevel   = new(slog.LevelVar)
	)
	fs.Var(&logLevelVar{levelVar: logLevel}, "log-level", "set log level (debug, info, warn, error)")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s [flags] [repl [file] | parse <file> | eval <file>]\n", appName)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(config.Path(*configPath))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	// -log-level が明示されなければ設定ファイルの値を使う
	levelSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "log-level" {
			levelSet = true
		}
	})
	if !levelSet {
		logLevel.Set(cfg.Level())
	}

	a := &app{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: logLevel})),
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}

	rest := fs.Args()
	cmd := "repl"
	if len(rest) > 0 {
		cmd, rest = rest[0], rest[1:]
	}

	switch cmd {
	case "repl":
		return a.cmdRepl(rest)
	case "parse":
		return a.cmdParse(rest)
	case "eval":
		return a.cmdEval(rest)
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n", cmd)
		fs.Usage()
		return 2
	}
}

// -----------------------------------------------------------------------------
// parse
// -----------------------------------------------------------------------------

// cmdParse はファイルをパースして、式と各ノードのスパンを表示する。
func (a *app) cmdParse(args []string) int {
	if len(args) != 1 {
		fmt.Fprintf(a.stderr, "usage: %s parse <file>\n", appName)
		return 2
	}

	store := source.NewStore(source.WithLogger(a.logger))
	p := parser.New(parser.WithLogger(a.logger))
	expr, err := p.ParseFile(store, args[0])
	if err != nil {
		fmt.Fprint(a.stderr, withNewline(parser.Format(err)))
		return 1
	}

	fmt.Fprintln(a.stdout, expr.Value)
	ast.Walk(expr.Value, func(e ast.Expr, depth int) bool {
		fmt.Fprintf(a.stdout, "%s%s %s %q\n", strings.Repeat("  ", depth), e.Kind(), e.Span(), e.Span().Text())
		return true
	})
	return 0
}

// -----------------------------------------------------------------------------
// eval
// -----------------------------------------------------------------------------

// cmdEval はファイルの式を評価して結果を表示する。
func (a *app) cmdEval(args []string) int {
	if len(args) != 1 {
		fmt.Fprintf(a.stderr, "usage: %s eval <file>\n", appName)
		return 2
	}

	store := source.NewStore(source.WithLogger(a.logger))
	p := parser.New(parser.WithLogger(a.logger))
	expr, err := p.ParseFile(store, args[0])
	if err != nil {
		fmt.Fprint(a.stderr, withNewline(parser.Format(err)))
		return 1
	}

	result, err := evaluator.Eval(expr.Value, object.NewEnvironment())
	if err != nil {
		fmt.Fprintf(a.stderr, "ERROR: %s\n", err)
		return 1
	}
	fmt.Fprintln(a.stdout, result)
	return 0
}

func withNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// -----------------------------------------------------------------------------
// repl
// -----------------------------------------------------------------------------

// cmdRepl は対話セッションを起動する。ファイルが渡されたら先に評価する。
// 標準入力が端末でなければ liner を使わずに1行ずつ読む。
func (a *app) cmdRepl(args []string) int {
	if len(args) > 1 {
		fmt.Fprintf(a.stderr, "usage: %s repl [file]\n", appName)
		return 2
	}

	r := repl.New(
		repl.WithPrompt(a.cfg.Prompt),
		repl.WithShowSpans(a.cfg.ShowSpans),
		repl.WithLogger(a.logger),
	)
	if len(args) == 1 {
		if err := r.LoadFile(args[0], a.stdout); err != nil {
			fmt.Fprintln(a.stderr, err)
			return 1
		}
	}

	if f, ok := a.stdin.(*os.File); !ok || !isTerminal(f) {
		return a.runPlain(r)
	}
	return a.runInteractive(r)
}

func (a *app) runPlain(r *repl.REPL) int {
	if err := r.Run(repl.ScanPrompter(a.stdin, a.stdout), a.stdout); err != nil {
		fmt.Fprintln(a.stderr, err)
		return 1
	}
	return 0
}

func (a *app) runInteractive(r *repl.REPL) int {
	fmt.Fprintf(a.stdout, "%s REPL\nCtrl+C cancels input, Ctrl+D exits. Type %s to exit.\n", appName, repl.EXIT)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetCompleter(completePrimitives)

	histPath := a.cfg.HistoryPath()
	if a.cfg.HistoryLimit == 0 {
		histPath = ""
	}
	if histPath != "" {
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if err := saveHistory(ln, histPath, a.cfg.HistoryLimit); err != nil {
				a.logger.Warn("cannot save history", "path", histPath, "error", err)
			}
		}()
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if err := r.Run(&linePrompter{ln: ln}, a.stdout); err != nil {
		fmt.Fprintln(a.stderr, err)
		return 1
	}
	fmt.Fprintln(a.stdout)
	return 0
}

// linePrompter は liner で1行読み、空でない入力を履歴に積む。
// Ctrl+C は入力の取り消しとして空行を返す。
type linePrompter struct {
	ln *liner.State
}

func (p *linePrompter) Prompt(prompt string) (string, error) {
	line, err := p.ln.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(line) != "" {
		p.ln.AppendHistory(line)
	}
	return line, nil
}

// completePrimitives は行末の単語をプリミティブ名で補完する。
func completePrimitives(line string) []string {
	cut := strings.LastIndexAny(line, " \t(") + 1
	head, word := line[:cut], line[cut:]
	if word == "" {
		return nil
	}

	var out []string
	for _, name := range evaluator.Primitives() {
		if strings.HasPrefix(name, word) {
			out = append(out, head+name)
		}
	}
	return out
}

// saveHistory は履歴のうち新しい limit 件だけをファイルに書く。
func saveHistory(ln *liner.State, path string, limit int) error {
	var buf bytes.Buffer
	if _, err := ln.WriteHistory(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, trimHistory(buf.Bytes(), limit), 0o600)
}

// trimHistory は改行区切りの履歴から末尾 limit 行を残す。
func trimHistory(data []byte, limit int) []byte {
	lines := strings.SplitAfter(string(data), "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	if len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	return []byte(strings.Join(lines, ""))
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
