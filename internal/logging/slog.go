package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

const (
	EnvLocal = "local"
	EnvProd  = "prod"
)

type SlogLogger struct {
	l *slog.Logger
}

func NewSlogLogger(l *slog.Logger) *SlogLogger {
	return &SlogLogger{l: l}
}

// New builds a logger for the given environment: a colored console handler
// at debug level for "local", JSON at info level for "prod".
func New(env string, w io.Writer) (*SlogLogger, error) {
	switch env {
	case EnvLocal:
		return NewSlogLogger(slog.New(NewConsoleHandler(w, slog.LevelDebug))), nil
	case EnvProd:
		return NewSlogLogger(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))), nil
	default:
		return nil, fmt.Errorf("unknown environment: %q", env)
	}
}

func (s *SlogLogger) Debug(ctx context.Context, msg string, args ...any) {
	s.l.DebugContext(ctx, msg, args...)
}

func (s *SlogLogger) Info(ctx context.Context, msg string, args ...any) {
	s.l.InfoContext(ctx, msg, args...)
}

func (s *SlogLogger) Warn(ctx context.Context, msg string, args ...any) {
	s.l.WarnContext(ctx, msg, args...)
}

func (s *SlogLogger) Error(ctx context.Context, msg string, args ...any) {
	s.l.ErrorContext(ctx, msg, args...)
}

func (s *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{l: s.l.With(args...)}
}
