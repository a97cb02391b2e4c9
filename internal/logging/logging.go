package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

type Options struct {
	Level string
	// File, when set, receives a copy of every record.
	File string
	// Text selects the human readable handler instead of JSON.
	Text bool
	// Output defaults to stderr.
	Output io.Writer
}

// New creates a *slog.Logger and sets it as the slog default so
// package-level slog calls work. The returned cleanup func closes the log
// file if one was opened; callers must defer it.
func New(opts Options) (*slog.Logger, func(), error) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	writers := []io.Writer{out}
	cleanup := func() {}

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return nil, nil, err
		}
		writers = append(writers, f)
		cleanup = func() { _ = f.Close() }
	}

	w := io.MultiWriter(writers...)
	hopts := &slog.HandlerOptions{Level: parseLevel(opts.Level)}
	var handler slog.Handler = slog.NewJSONHandler(w, hopts)
	if opts.Text {
		handler = slog.NewTextHandler(w, hopts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, cleanup, nil
}

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
