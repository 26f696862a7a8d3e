// Package logger configures structured logging for the gradebook analytics
// binaries. Both the API server and the worker log through log/slog; this
// package only decides the handler, level, and output.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options configures logger construction.
type Options struct {
	// Environment selects the handler format. "production" logs JSON;
	// everything else logs human-readable text.
	Environment string

	// Debug lowers the minimum level to slog.LevelDebug.
	Debug bool

	// Output defaults to os.Stdout.
	Output io.Writer
}

// New builds a logger from the options and installs it as the slog default,
// so library code that falls back to slog.Default() stays consistent with
// the binaries.
func New(opts Options) *slog.Logger {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if opts.Debug {
		handlerOpts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if strings.EqualFold(opts.Environment, "production") {
		handler = slog.NewJSONHandler(opts.Output, handlerOpts)
	} else {
		handler = slog.NewTextHandler(opts.Output, handlerOpts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}

// Discard returns a logger that drops everything. Useful in tests that do
// not assert on log output.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
