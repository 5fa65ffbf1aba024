package ui

import (
	"context"
	"errors"
	"log/slog"
)

// MultiHandler fans each record out to every wrapped handler.
type MultiHandler struct {
	handlers []slog.Handler
}

// NewMultiHandler returns a handler writing to all of hs.
func NewMultiHandler(hs ...slog.Handler) *MultiHandler {
	return &MultiHandler{handlers: hs}
}

// Enabled reports whether any wrapped handler accepts level.
func (m *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range m.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	hs := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		hs[i] = h.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: hs}
}

func (m *MultiHandler) WithGroup(name string) slog.Handler {
	hs := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		hs[i] = h.WithGroup(name)
	}
	return &MultiHandler{handlers: hs}
}

// TeeEvents logs every event from in as a "dvdbackup.event" record before
// forwarding it. The returned channel closes after in does.
func TeeEvents(in <-chan Event, logger *slog.Logger) <-chan Event {
	out := make(chan Event, cap(in))
	go func() {
		defer close(out)
		for ev := range in {
			LogEvent(logger, ev)
			out <- ev
		}
	}()
	return out
}

// LogEvent writes ev as a structured record. Per-block progress is logged
// at debug level, everything else at info.
func LogEvent(logger *slog.Logger, ev Event) {
	level := slog.LevelInfo
	if ev.Type == FileProgress {
		level = slog.LevelDebug
	}
	attrs := []slog.Attr{
		slog.String("type", ev.Type.String()),
		slog.String("pass", ev.Pass.String()),
		slog.Int("vts", ev.VTS),
	}
	if ev.Path != "" {
		attrs = append(attrs, slog.String("path", ev.Path))
	}
	if ev.Total > 0 {
		attrs = append(attrs, slog.Int64("blocks", ev.Blocks), slog.Int64("total", ev.Total))
	}
	if ev.Substituted > 0 {
		attrs = append(attrs, slog.Int64("substituted", ev.Substituted))
	}
	if ev.Size > 0 {
		attrs = append(attrs, slog.Int64("size", ev.Size))
	}
	if ev.Expected > 0 {
		attrs = append(attrs, slog.Int64("expected", ev.Expected))
	}
	if ev.Incomplete {
		attrs = append(attrs, slog.Bool("incomplete", true))
	}
	if ev.Error != nil {
		attrs = append(attrs, slog.String("error", ev.Error.Error()))
	}
	logger.LogAttrs(context.Background(), level, "dvdbackup.event", attrs...)
}
