// Package logger builds the root zerolog logger injected into every
// pipeline stage. Stages never write to a global sink; they receive a
// logger and emit structured events through it, which lets tests capture
// events instead of text output.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Options control the root logger's output.
type Options struct {
	Level   string // debug, info, warn, error
	Console bool   // Human-readable console output instead of JSON
}

// New builds a root logger writing to w.
func New(w io.Writer, opts Options) zerolog.Logger {
	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}

	if opts.Console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Default builds the standard production logger on stderr.
func Default(opts Options) zerolog.Logger {
	return New(os.Stderr, opts)
}
