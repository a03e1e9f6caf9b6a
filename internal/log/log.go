// Package log provides structured logging for go-walktest.
// It wraps slog with defaults suited to a batch CLI: logs go to stderr so
// stdout stays free for the report.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	logger *slog.Logger
	once   sync.Once
)

// ParseLevel maps "debug", "info", "warn" or "error" to a slog level.
// Anything else is info.
func ParseLevel(level string) slog.Level {
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

// New returns a logger writing to w at the given level, as JSON or text.
func New(w io.Writer, level string, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Init initializes the global logger with the specified level.
// Output is JSON when GO_ENV=production, text otherwise.
func Init(level string) {
	once.Do(func() {
		logger = New(os.Stderr, level, os.Getenv("GO_ENV") == "production")
		slog.SetDefault(logger)
	})
}

// L returns the process logger, initializing it at info level on stderr if
// Init has not run yet. Library packages take a *slog.Logger option instead.
func L() *slog.Logger {
	if logger == nil {
		Init("info")
	}
	return logger
}

// Debug writes msg and its key/value args through L. Per-frame detail from
// the analysis passes goes here.
func Debug(msg string, args ...any) {
	L().Debug(msg, args...)
}

// Info is Debug at info level.
func Info(msg string, args ...any) {
	L().Info(msg, args...)
}

// Warn records a recoverable problem, such as a fallback to proportional
// timing.
func Warn(msg string, args ...any) {
	L().Warn(msg, args...)
}

// Error records a failed run.
func Error(msg string, args ...any) {
	L().Error(msg, args...)
}

// With derives a child of L carrying args on every record, typically the
// run ID and video path.
func With(args ...any) *slog.Logger {
	return L().With(args...)
}
