package logging

import (
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger provides a thin wrapper around logr.Logger with convenience helpers.
type Logger struct {
	log logr.Logger
}

// New returns a Logger based on the provided logr.Logger. When the base logger
// is uninitialized it falls back to the module default.
func New(base logr.Logger) Logger {
	if base.GetSink() == nil {
		base = DefaultLogger()
	}
	return Logger{log: base}
}

// Discard returns a Logger that drops everything.
func Discard() Logger {
	return Logger{log: logr.Discard()}
}

// DefaultLogger returns the module's default structured logger at info level.
func DefaultLogger() logr.Logger {
	return NewFromLevel("info")
}

// NewFromLevel builds a zap-backed logr.Logger writing JSON to stderr. Stdout
// stays clean because the stdio transport owns it.
func NewFromLevel(level string) logr.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	zapLogger, err := cfg.Build()
	if err != nil {
		zapLogger = zap.NewNop()
	}
	return zapr.NewLogger(zapLogger)
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// WithValues returns a new Logger with additional key-value pairs attached.
func (l Logger) WithValues(keysAndValues ...any) Logger {
	return Logger{log: l.log.WithValues(keysAndValues...)}
}

// WithName scopes the logger with the supplied name.
func (l Logger) WithName(name string) Logger {
	return Logger{log: l.log.WithName(name)}
}

// Info logs an informational message.
func (l Logger) Info(msg string, keysAndValues ...any) {
	l.log.Info(msg, keysAndValues...)
}

// Debug logs a verbose message when V(1) is enabled on the underlying logger.
func (l Logger) Debug(msg string, keysAndValues ...any) {
	if l.log.V(1).Enabled() {
		l.log.V(1).Info(msg, keysAndValues...)
	}
}

// Warn logs a recoverable failure. logr has no warning level, so the cause is
// attached as a field on an info record.
func (l Logger) Warn(err error, msg string, keysAndValues ...any) {
	kv := append([]any{"warning", true}, keysAndValues...)
	if err != nil {
		kv = append(kv, "cause", err.Error())
	}
	l.log.Info(msg, kv...)
}

// Error logs an error message.
func (l Logger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(err, msg, keysAndValues...)
}

// Logr exposes the underlying logr.Logger.
func (l Logger) Logr() logr.Logger {
	return l.log
}
