package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

type Options struct {
	Level      slog.Leveler // slog.LevelInfo, slog.LevelDebug, etc.
	Writer     io.Writer    // default: os.Stderr
	TimeFormat string       // default: time.RFC3339
	NoColor    bool
}

// New builds the process logger. Stdout is left to rendered messages, so logs
// go to stderr unless a writer is given.
func New(opts *Options) *slog.Logger {
	if opts == nil {
		opts = &Options{}
	}
	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}
	timeFormat := opts.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}
	level := opts.Level
	if level == nil {
		level = slog.LevelInfo
	}

	handler := tint.NewHandler(writer, &tint.Options{
		Level:      level,
		TimeFormat: timeFormat,
		NoColor:    opts.NoColor,
	})
	return slog.New(handler)
}

// ParseLevel accepts DEBUG, INFO, WARNING (or WARN) and ERROR, case-insensitive.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "", "INFO":
		return slog.LevelInfo, nil
	case "WARNING", "WARN":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want DEBUG|INFO|WARNING|ERROR)", s)
	}
}

// Discard returns a logger that drops everything; used by tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
