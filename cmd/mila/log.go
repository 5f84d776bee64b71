package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// logger writes driver diagnostics to stderr as "[LEVEL] message" lines,
// or one JSON object per line when the format is json.
type logger struct {
	sl  *slog.Logger
	now func() time.Time
}

func newLogger(w io.Writer, level, format string) *logger {
	l := &logger{now: time.Now}
	min := levels[level]

	if format == "json" {
		l.sl = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: min,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				switch a.Key {
				case slog.TimeKey:
					return slog.String(slog.TimeKey, l.now().UTC().Format(time.RFC3339))
				case slog.LevelKey:
					return slog.String(slog.LevelKey, strings.ToLower(a.Value.String()))
				}
				return a
			},
		}))
		return l
	}

	l.sl = slog.New(&tagHandler{w: w, min: min, mu: &sync.Mutex{}})
	return l
}

// tagged returns a logger that labels its lines with tag instead of the
// level name.
func (l *logger) tagged(tag string) *logger {
	return &logger{
		sl:  l.sl.With("component", strings.ToLower(tag)),
		now: l.now,
	}
}

func (l *logger) logDebug(format string, args ...any) { l.log(slog.LevelDebug, format, args...) }
func (l *logger) logInfo(format string, args ...any)  { l.log(slog.LevelInfo, format, args...) }
func (l *logger) logWarn(format string, args ...any)  { l.log(slog.LevelWarn, format, args...) }
func (l *logger) logError(format string, args ...any) { l.log(slog.LevelError, format, args...) }

func (l *logger) log(level slog.Level, format string, args ...any) {
	ctx := context.Background()
	if !l.sl.Enabled(ctx, level) {
		return
	}
	l.sl.Log(ctx, level, fmt.Sprintf(format, args...))
}

// tagHandler renders records as "[TAG] message". The tag is the level, or
// the component for info and debug lines and "COMPONENT LEVEL" otherwise.
type tagHandler struct {
	w         io.Writer
	min       slog.Level
	component string
	mu        *sync.Mutex
}

func (h *tagHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.min
}

func (h *tagHandler) Handle(_ context.Context, r slog.Record) error {
	tag := r.Level.String()
	if h.component != "" {
		tag = strings.ToUpper(h.component)
		if r.Level >= slog.LevelWarn {
			tag += " " + r.Level.String()
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintf(h.w, "[%s] %s\n", tag, r.Message)
	return err
}

func (h *tagHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	for _, a := range attrs {
		if a.Key == "component" {
			c.component = a.Value.String()
		}
	}
	return &c
}

func (h *tagHandler) WithGroup(string) slog.Handler { return h }
