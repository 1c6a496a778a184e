// Package config は sexp コマンドの設定ファイル（YAML）を読み込むパッケージ。
//
//	prompt: "sexp> "
//	history_file: ~/.sexp_history
//	history_limit: 1000
//	log_level: debug
//	show_spans: true
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ENV_VAR は -config が指定されなかったときに参照する環境変数。
const ENV_VAR = "SEXP_CONFIG"

// Config は REPL とコマンドの設定。
type Config struct {
	Prompt       string `yaml:"prompt"`
	HistoryFile  string `yaml:"history_file"`
	HistoryLimit int    `yaml:"history_limit"`
	LogLevel     string `yaml:"log_level"`
	ShowSpans    bool   `yaml:"show_spans"`
}

// Default はデフォルト値で埋めた設定を返す。
func Default() *Config {
	return &Config{
		Prompt:       ">> ",
		HistoryFile:  "~/.sexp_history",
		HistoryLimit: 1000,
		LogLevel:     "warn",
	}
}

// Path は設定ファイルのパスを決める。flagValue が空なら環境変数を見る。
// どちらもなければ空文字列を返す。
func Path(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(ENV_VAR)
}

// Load は path の YAML を読み込む。
// path が空かファイルが存在しなければデフォルトの設定を返す。
// ファイルにない項目はデフォルト値のまま残る。
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer file.Close()

	if err := decode(file, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if cfg.HistoryLimit < 0 {
		return fmt.Errorf("history_limit must not be negative, got %d", cfg.HistoryLimit)
	}
	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		return err
	}
	return nil
}

// Level は LogLevel を slog.Level に変換する。
func (c *Config) Level() slog.Level {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelWarn
	}
	return level
}

// HistoryPath は先頭の `~` をホームディレクトリに展開した履歴ファイルのパス。
// HistoryFile が空なら空文字列（履歴を保存しない）。
func (c *Config) HistoryPath() string {
	p := c.HistoryFile
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		return filepath.Join(home, strings.TrimPrefix(p[1:], "/"))
	}
	return p
}

// ParseLevel はログレベル名（debug, info, warn, error）を slog.Level に変換する。
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level: %s", s)
	}
}
