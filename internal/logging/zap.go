package logging

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ZapLogger adapts a zap SugaredLogger to Logger.
type ZapLogger struct {
	s *zap.SugaredLogger
}

func NewZapLogger(s *zap.SugaredLogger) *ZapLogger {
	return &ZapLogger{s: s}
}

// NewZap builds a zap logger for the given mode: "production" emits JSON
// at info level, "development" emits colored console output at debug level.
// The caller must Sync the returned *zap.Logger before exit.
func NewZap(mode string) (*ZapLogger, *zap.Logger, error) {
	var (
		base *zap.Logger
		err  error
	)
	switch mode {
	case "", "development", "dev":
		base, err = zap.NewDevelopment()
	case "production", "prod":
		base, err = zap.NewProduction()
	default:
		return nil, nil, fmt.Errorf("unknown log mode %q", mode)
	}
	if err != nil {
		return nil, nil, err
	}
	return NewZapLogger(base.Sugar()), base, nil
}

func (z *ZapLogger) Debug(_ context.Context, msg string, args ...any) {
	z.s.Debugw(msg, args...)
}

func (z *ZapLogger) Info(_ context.Context, msg string, args ...any) {
	z.s.Infow(msg, args...)
}

func (z *ZapLogger) Warn(_ context.Context, msg string, args ...any) {
	z.s.Warnw(msg, args...)
}

func (z *ZapLogger) Error(_ context.Context, msg string, args ...any) {
	z.s.Errorw(msg, args...)
}

func (z *ZapLogger) With(args ...any) Logger {
	return &ZapLogger{s: z.s.With(args...)}
}

// Nop discards everything. Handy in tests.
func Nop() Logger {
	return NewZapLogger(zap.NewNop().Sugar())
}
