// parser_tracing.go はパーサーのデバッグ用トレーシング機能を提供する。
// 各文法規則の入口と出口で "BEGIN <rule>" / "END <rule>" をDebugレベルで記録する。
// ロガーがDebugを無効にしている場合は何もしない。
package parser

import (
	"context"
	"log/slog"
)

// trace は規則の入口で呼ぶ。"BEGIN <rule>" を記録してネストを深くする。
func (s *state) trace(rule string, c cursor) string {
	s.traceLevel++
	if s.tracing {
		s.logger.Debug("BEGIN "+rule, slog.Int("depth", s.traceLevel), slog.Int("pos", c.pos))
	}
	return rule
}

// untrace は規則の出口で呼ぶ。"END <rule>" を記録してネストを浅くする。
func (s *state) untrace(rule string) {
	if s.tracing {
		s.logger.Debug("END "+rule, slog.Int("depth", s.traceLevel))
	}
	s.traceLevel--
}

func tracingEnabled(logger *slog.Logger) bool {
	return logger.Enabled(context.Background(), slog.LevelDebug)
}
