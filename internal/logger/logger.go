package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var defaultLogger atomic.Pointer[slog.Logger]

type ctxKey struct{}

// Init initializes the global logger
func Init(level string, json bool) {
	InitWriter(os.Stdout, level, json)
}

// InitWriter is Init with an explicit destination
func InitWriter(w io.Writer, level string, json bool) {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	l := slog.New(handler)
	defaultLogger.Store(l)
	slog.SetDefault(l)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Get returns the default logger
func Get() *slog.Logger {
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	return slog.Default()
}

// NewContext attaches attributes that WithContext adds to every record
func NewContext(ctx context.Context, args ...any) context.Context {
	return context.WithValue(ctx, ctxKey{}, WithContext(ctx).With(args...))
}

// WithContext returns the logger stored by NewContext, or the default one
func WithContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
			return l
		}
	}
	return Get()
}

// Info logs at info level
func Info(msg string, args ...any) {
	Get().Info(msg, args...)
}

// Debug logs at debug level
func Debug(msg string, args ...any) {
	Get().Debug(msg, args...)
}

// Warn logs at warn level
func Warn(msg string, args ...any) {
	Get().Warn(msg, args...)
}

// Error logs at error level
func Error(msg string, args ...any) {
	Get().Error(msg, args...)
}

// Fatal logs at error level and exits
func Fatal(msg string, args ...any) {
	Get().Error(msg, args...)
	os.Exit(1)
}

// With returns a logger with the given attributes
func With(args ...any) *slog.Logger {
	return Get().With(args...)
}
