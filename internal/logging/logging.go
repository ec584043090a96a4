// Package logging builds the slog loggers used by the spanrender command.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config selects the level and format of a logger.
type Config struct {
	Level  string
	Format string

	// Output defaults to os.Stderr.
	Output io.Writer
}

// ParseLevel maps a level name (debug, info, warn, error) to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level %q must be debug, info, warn or error", s)
	}
	return l, nil
}

// New returns a logger for cfg. Unknown levels fall back to info.
func New(cfg Config) *slog.Logger {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}
	var handler slog.Handler
	if cfg.Format == FormatJSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler)
}

// Setup builds a logger for cfg and installs it as the slog default, so
// packages logging through slog.Default pick it up.
func Setup(cfg Config) *slog.Logger {
	logger := New(cfg)
	slog.SetDefault(logger)
	return logger
}
