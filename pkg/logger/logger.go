package logger

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ContextKey string

const (
	// RequestIDKey carries the per-call request id generated by the engine.
	RequestIDKey ContextKey = "requestID"
	// MethodKey carries the HTTP method of the call being logged.
	MethodKey ContextKey = "method"
)

func init() {
	RegisterContextKey(RequestIDKey, "request_id")
	RegisterContextKey(MethodKey, "method")
}

// LogManager is the logging surface shared by the engine, the transport and the CLI.
type LogManager interface {
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)

	DebugF(format string, args ...any)
	InfoF(format string, args ...any)
	WarnF(format string, args ...any)
	ErrorF(format string, args ...any)

	DebugFCtx(ctx context.Context, format string, args ...any)
	InfoFCtx(ctx context.Context, format string, args ...any)
	WarnFCtx(ctx context.Context, format string, args ...any)
	ErrorFCtx(ctx context.Context, format string, args ...any)

	With(keyValues ...any) LogManager
	Named(name string) LogManager

	Sync() error
	SetLogLevel(level string) error
}

// LoggerOptions for custom configuration
type LoggerOptions struct {
	Level        string
	Encoding     string // "json" or "console"
	OutputPaths  []string
	ErrorPaths   []string
	EnableCaller bool
	EnableStack  bool
	TimeFormat   string
	// Output, when set, replaces OutputPaths and ErrorPaths.
	Output io.Writer
}

// NewLogger builds a zap-backed LogManager from opts.
// An unparsable level falls back to info.
func NewLogger(opts LoggerOptions) (LogManager, error) {
	atomicLevel := zap.NewAtomicLevel()
	if err := atomicLevel.UnmarshalText([]byte(opts.Level)); err != nil {
		atomicLevel.SetLevel(zap.InfoLevel)
	}

	timeFormat := opts.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}

	if opts.Encoding == "" {
		opts.Encoding = "console"
	}
	// stdout is reserved for response bodies in the CLI
	if len(opts.OutputPaths) == 0 {
		opts.OutputPaths = []string{"stderr"}
	}
	if len(opts.ErrorPaths) == 0 {
		opts.ErrorPaths = []string{"stderr"}
	}

	encoderCfg := zapcore.EncoderConfig{
		TimeKey:       "time",
		LevelKey:      "level",
		NameKey:       "logger",
		MessageKey:    "msg",
		StacktraceKey: "stacktrace",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel:   zapcore.CapitalLevelEncoder,
		EncodeTime:    zapcore.TimeEncoderOfLayout(timeFormat),
		EncodeCaller:  zapcore.ShortCallerEncoder,
	}
	if opts.EnableCaller {
		encoderCfg.CallerKey = "caller"
	}
	if opts.Encoding == "console" {
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	cfg := zap.Config{
		Level:            atomicLevel,
		Development:      opts.Level == "debug",
		Encoding:         opts.Encoding,
		EncoderConfig:    encoderCfg,
		OutputPaths:      opts.OutputPaths,
		ErrorOutputPaths: opts.ErrorPaths,
	}

	stackLevel := zap.ErrorLevel
	if opts.EnableStack {
		stackLevel = zap.WarnLevel
	}
	zapOpts := []zap.Option{zap.AddStacktrace(stackLevel), zap.AddCallerSkip(1)}
	if opts.Output != nil {
		var enc zapcore.Encoder
		if opts.Encoding == "json" {
			enc = zapcore.NewJSONEncoder(encoderCfg)
		} else {
			enc = zapcore.NewConsoleEncoder(encoderCfg)
		}
		if opts.EnableCaller {
			zapOpts = append(zapOpts, zap.AddCaller())
		}
		zl := zap.New(zapcore.NewCore(enc, zapcore.AddSync(opts.Output), atomicLevel), zapOpts...)
		return &zapManager{sugar: zl.Sugar(), level: atomicLevel}, nil
	}

	zl, err := cfg.Build(zapOpts...)
	if err != nil {
		return nil, fmt.Errorf("logger: build zap logger: %w", err)
	}

	return &zapManager{sugar: zl.Sugar(), level: atomicLevel}, nil
}

// NewFromZap wraps an existing zap logger. The level of the wrapped core is
// authoritative; SetLogLevel only affects loggers built by NewLogger.
func NewFromZap(zl *zap.Logger) LogManager {
	return &zapManager{sugar: zl.Sugar(), level: zap.NewAtomicLevelAt(zap.DebugLevel)}
}

// NewNop returns a LogManager that discards everything.
func NewNop() LogManager {
	return NewFromZap(zap.NewNop())
}
