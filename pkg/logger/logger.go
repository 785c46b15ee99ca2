package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures NewHandler. A nil *Options means text output to stdout at info level.
type Options struct {
	Level  slog.Level
	Format string // "json" or "text"
	// File enables a size-rotated log file instead of stdout.
	File       string
	MaxSizeMB  int
	MaxBackups int
	// Output overrides stdout; used by tests.
	Output io.Writer
}

// NewHandler builds the process-wide slog handler.
func NewHandler(opts *Options) slog.Handler {
	if opts == nil {
		opts = &Options{Format: "text"}
	}

	var w io.Writer = os.Stdout
	switch {
	case opts.Output != nil:
		w = opts.Output
	case opts.File != "":
		w = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			Compress:   true,
		}
	}

	hopts := &slog.HandlerOptions{Level: opts.Level}
	if strings.EqualFold(opts.Format, "json") {
		return slog.NewJSONHandler(w, hopts)
	}

	return slog.NewTextHandler(w, hopts)
}

// ParseLevel maps debug/info/warn/error to a slog level; anything else is info.
func ParseLevel(s string) slog.Level {
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
