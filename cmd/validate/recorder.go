package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// warnRecorder is a slog.Handler that keeps warning records as text so the
// loader's skipped-row diagnostics can be reported as phase errors.
type warnRecorder struct {
	warnings []string
}

func (h *warnRecorder) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelWarn
}

func (h *warnRecorder) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Message)
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value.Any())
		return true
	})
	h.warnings = append(h.warnings, b.String())
	return nil
}

func (h *warnRecorder) WithAttrs(_ []slog.Attr) slog.Handler { return h }

func (h *warnRecorder) WithGroup(_ string) slog.Handler { return h }
