// Package log is the structured logging layer of hanna-api, a thin
// wrapper over slog. Every package logs through it so the level and
// output format are decided in one place.
package log

import (
	"log/slog"
	"os"
	"strings"
)

// level is shared by every handler Init installs, so the verbosity can
// be re-applied without rebuilding loggers already handed out by With.
var level slog.LevelVar

// Init installs the process-wide logger at the given verbosity.
// Output is JSON when APP_ENV=production, human-readable text
// otherwise. Calling Init again adjusts the level and format in place.
func Init(lvl string) {
	level.Set(parseLevel(lvl))

	opts := &slog.HandlerOptions{Level: &level}
	var h slog.Handler
	if os.Getenv("APP_ENV") == "production" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

// parseLevel maps a config string to a slog level. Unknown values and
// the empty string mean info.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// L returns the process-wide logger. Before Init it is slog's default,
// which logs at info to stderr.
func L() *slog.Logger {
	return slog.Default()
}

func Debug(msg string, args ...any) {
	L().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	L().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	L().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	L().Error(msg, args...)
}

// With returns a child logger carrying the given attributes.
func With(args ...any) *slog.Logger {
	return L().With(args...)
}
