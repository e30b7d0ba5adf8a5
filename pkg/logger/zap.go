package logger

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// zapManager adapts a zap SugaredLogger to LogManager.
type zapManager struct {
	sugar *zap.SugaredLogger
	level zap.AtomicLevel
}

func (l *zapManager) Debug(args ...any) { l.sugar.Debug(args...) }
func (l *zapManager) Info(args ...any)  { l.sugar.Info(args...) }
func (l *zapManager) Warn(args ...any)  { l.sugar.Warn(args...) }
func (l *zapManager) Error(args ...any) { l.sugar.Error(args...) }

func (l *zapManager) DebugF(format string, args ...any) { l.sugar.Debugf(format, args...) }
func (l *zapManager) InfoF(format string, args ...any)  { l.sugar.Infof(format, args...) }
func (l *zapManager) WarnF(format string, args ...any)  { l.sugar.Warnf(format, args...) }
func (l *zapManager) ErrorF(format string, args ...any) { l.sugar.Errorf(format, args...) }

func (l *zapManager) DebugFCtx(ctx context.Context, format string, args ...any) {
	l.sugar.With(fieldsFromContext(ctx)...).Debug(fmt.Sprintf(format, args...))
}

func (l *zapManager) InfoFCtx(ctx context.Context, format string, args ...any) {
	l.sugar.With(fieldsFromContext(ctx)...).Info(fmt.Sprintf(format, args...))
}

func (l *zapManager) WarnFCtx(ctx context.Context, format string, args ...any) {
	l.sugar.With(fieldsFromContext(ctx)...).Warn(fmt.Sprintf(format, args...))
}

func (l *zapManager) ErrorFCtx(ctx context.Context, format string, args ...any) {
	l.sugar.With(fieldsFromContext(ctx)...).Error(fmt.Sprintf(format, args...))
}

func (l *zapManager) With(keyValues ...any) LogManager {
	return &zapManager{sugar: l.sugar.With(keyValues...), level: l.level}
}

func (l *zapManager) Named(name string) LogManager {
	return &zapManager{sugar: l.sugar.Named(name), level: l.level}
}

func (l *zapManager) Sync() error {
	return l.sugar.Sync()
}

func (l *zapManager) SetLogLevel(level string) error {
	return l.level.UnmarshalText([]byte(level))
}
