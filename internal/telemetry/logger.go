package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogOptions selects where and how records are written.
type LogOptions struct {
	Debug bool
	// Format is "json" (default) or "text" for the console stream. The log
	// file is always JSON.
	Format string
	// File, when set, receives a copy of every record.
	File string
}

// ParseLogFormat normalizes a log format name.
func ParseLogFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "", "json":
		return "json", nil
	case "text":
		return f, nil
	default:
		return "", fmt.Errorf("log_format must be json or text, got: %q", s)
	}
}

// InitLogger installs the default logger and returns a function that closes
// the log file. The console stream is stderr because stdout carries reports
// and the worker result line.
func InitLogger(opts LogOptions) func() {
	return initLogger(os.Stderr, opts)
}

func initLogger(console io.Writer, opts LogOptions) func() {
	hopts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if opts.Debug {
		hopts.Level = slog.LevelDebug
	}

	var out slog.Handler
	if format, _ := ParseLogFormat(opts.Format); format == "text" {
		out = slog.NewTextHandler(console, hopts)
	} else {
		out = slog.NewJSONHandler(console, hopts)
	}

	release := func() {}
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			slog.Error("cannot open log file", "path", opts.File, "error", err)
		} else {
			out = tee{out, slog.NewJSONHandler(f, hopts)}
			release = func() { _ = f.Close() }
		}
	}

	slog.SetDefault(slog.New(out))
	return release
}

// tee forwards each record to every handler that accepts its level.
type tee []slog.Handler

func (t tee) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t tee) Handle(ctx context.Context, r slog.Record) error {
	var err error
	for _, h := range t {
		if h.Enabled(ctx, r.Level) {
			err = errors.Join(err, h.Handle(ctx, r.Clone()))
		}
	}
	return err
}

func (t tee) WithAttrs(attrs []slog.Attr) slog.Handler {
	return t.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (t tee) WithGroup(name string) slog.Handler {
	return t.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (t tee) derive(fn func(slog.Handler) slog.Handler) tee {
	next := make(tee, len(t))
	for i, h := range t {
		next[i] = fn(h)
	}
	return next
}

// ForRun returns a logger whose records carry the run ID.
func ForRun(runID string) *slog.Logger {
	return slog.Default().With("run_id", runID)
}

// LogInfo logs an info message.
func LogInfo(msg string, args ...any) {
	slog.Info(msg, args...)
}

// LogError logs an error message.
func LogError(msg string, err error, args ...any) {
	slog.Error(msg, append(args, "error", err)...)
}
