// Package logging builds the application's structured slog logger, optionally
// teeing JSON records into a size-rotated log file.
package logging

import (
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Component names attached as the "component" attribute.
const (
	CompSearch  = "search"
	CompMonitor = "monitor"
	CompMCP     = "mcp"
)

// Config holds logging configuration.
type Config struct {
	Level slog.Level

	// File enables rotation into this path in addition to the console writer.
	File string

	// MaxSizeMB is the size before rotation (default 10).
	MaxSizeMB int

	// MaxBackups is rotated files to keep (default 3).
	MaxBackups int

	// MaxAgeDays is days to keep rotated files; zero keeps them forever.
	MaxAgeDays int

	Compress bool
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a JSON logger writing to console and, when cfg.File is set, to a
// rotated file. The closer releases the file and must be called on shutdown.
func New(cfg Config, console io.Writer) (*slog.Logger, io.Closer) {
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = 10
	}
	if cfg.MaxBackups <= 0 {
		cfg.MaxBackups = 3
	}

	out := console
	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		closer = lj
		if console != nil {
			out = io.MultiWriter(console, lj)
		} else {
			out = lj
		}
	}
	if out == nil {
		out = io.Discard
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: cfg.Level})
	return slog.New(handler), closer
}

// ForComponent returns a sub-logger with the component field set.
func ForComponent(l *slog.Logger, name string) *slog.Logger {
	return l.With(slog.String("component", name))
}
