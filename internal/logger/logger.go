// Package logger configures the application slog logger and carries request scoped loggers through a context.
//
// In the dev environment logs are written with github.com/lmittmann/tint (coloured, human readable);
// elsewhere they are written as JSON so they can be collected by a log pipeline.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"
)

// InitLogger creates the application logger, writing to stderr, and installs it as the slog default.
func InitLogger(level slog.Level, environment string) *slog.Logger {
	return initLogger(os.Stderr, level, environment)
}

func initLogger(w io.Writer, level slog.Level, environment string) *slog.Logger {
	var handler slog.Handler
	if environment == "dev" {
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// ParseLogLevel converts a LOG_LEVEL value to a slog.Level. Unknown values select debug.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "info":
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

type contextKey struct{}

// requestLog is the logger for one request plus attributes collected while it is handled.
// Attributes are added from handlers and middleware and written once, in the final request log.
type requestLog struct {
	logger *slog.Logger

	mu    sync.Mutex
	attrs []slog.Attr
}

// ContextWithLogger returns a context carrying logger as the request logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, &requestLog{logger: logger})
}

// ContextRequestLogger returns the request logger, or slog.Default() when ctx carries none.
func ContextRequestLogger(ctx context.Context) *slog.Logger {
	if rl, ok := ctx.Value(contextKey{}).(*requestLog); ok {
		return rl.logger
	}
	return slog.Default()
}

// ContextWithLogAttrs adds attributes to the final request log entry.
// It is a no-op when ctx carries no request logger.
func ContextWithLogAttrs(ctx context.Context, attrs ...slog.Attr) {
	rl, ok := ctx.Value(contextKey{}).(*requestLog)
	if !ok {
		return
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.attrs = append(rl.attrs, attrs...)
}

// ContextLogAttrs returns the attributes added with ContextWithLogAttrs.
func ContextLogAttrs(ctx context.Context) []slog.Attr {
	rl, ok := ctx.Value(contextKey{}).(*requestLog)
	if !ok {
		return nil
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return append([]slog.Attr(nil), rl.attrs...)
}
