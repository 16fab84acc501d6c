package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the app-wide logger type (slog).
type Logger = *slog.Logger

var logLevels = map[string]slog.Level{
	"error":   slog.LevelError,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"info":    slog.LevelInfo,
	"debug":   slog.LevelDebug,
	"verbose": slog.LevelDebug,
}

func lookupLogLevel(level string) (slog.Level, bool) {
	l, ok := logLevels[strings.ToLower(strings.TrimSpace(level))]
	return l, ok
}

// parseLogLevel maps a level name to slog; unknown names mean info.
func parseLogLevel(level string) slog.Level {
	if l, ok := lookupLogLevel(level); ok {
		return l
	}
	return slog.LevelInfo
}

// NewLogger builds a logger writing to w in the given format ("json" or "console").
func NewLogger(level, format string, color bool, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(level)}

	var h slog.Handler
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = newConsoleHandler(w, opts, color)
	}
	return slog.New(h)
}

// OpenLogger builds the process logger from cfg and makes it the slog default.
// The returned closer releases the log file, if any.
func OpenLogger(cfg LogConfig) (*slog.Logger, io.Closer, error) {
	log := NewLogger(cfg.Level, cfg.Format, cfg.Color, os.Stdout)
	closer := io.Closer(nopCloser{})

	if path := strings.TrimSpace(cfg.File); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("log file: %w", err)
		}
		fileHandler := newConsoleHandler(f, &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}, false)
		log = slog.New(fanoutHandler{log.Handler(), fileHandler})
		closer = f
	}

	slog.SetDefault(log)
	return log, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// fanoutHandler sends each record to every handler that accepts its level.
type fanoutHandler []slog.Handler

func (f fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanoutHandler, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanoutHandler) WithGroup(name string) slog.Handler {
	out := make(fanoutHandler, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
