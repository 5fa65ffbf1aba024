package ui_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/dvdbackup/internal/event"
	"github.com/bamsammich/dvdbackup/internal/ui"
)

func TestMultiHandler_FansOut(t *testing.T) {
	t.Parallel()

	var textBuf, jsonBuf bytes.Buffer
	textH := slog.NewTextHandler(&textBuf, &slog.HandlerOptions{Level: slog.LevelInfo})
	jsonH := slog.NewJSONHandler(&jsonBuf, &slog.HandlerOptions{Level: slog.LevelInfo})

	logger := slog.New(ui.NewMultiHandler(textH, jsonH))
	logger.Info("test message", "key", "value")

	// Text handler output.
	assert.Contains(t, textBuf.String(), "test message")
	assert.Contains(t, textBuf.String(), "key=value")

	// JSON handler output.
	var rec map[string]any
	require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &rec))
	assert.Equal(t, "test message", rec["msg"])
	assert.Equal(t, "value", rec["key"])
}

func TestMultiHandler_LevelFiltering(t *testing.T) {
	t.Parallel()

	var debugBuf, warnBuf bytes.Buffer
	debugH := slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug})
	warnH := slog.NewTextHandler(&warnBuf, &slog.HandlerOptions{Level: slog.LevelWarn})

	logger := slog.New(ui.NewMultiHandler(debugH, warnH))
	logger.Info("info msg")
	logger.Warn("warn msg")

	// Debug handler sees both.
	assert.Contains(t, debugBuf.String(), "info msg")
	assert.Contains(t, debugBuf.String(), "warn msg")

	// Warn handler sees only warn.
	assert.NotContains(t, warnBuf.String(), "info msg")
	assert.Contains(t, warnBuf.String(), "warn msg")
}

func TestMultiHandler_Enabled(t *testing.T) {
	t.Parallel()

	warnH := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})
	errH := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError})

	m := ui.NewMultiHandler(warnH, errH)

	// Enabled if ANY handler accepts the level.
	assert.True(t, m.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, m.Enabled(context.Background(), slog.LevelError))
	assert.False(t, m.Enabled(context.Background(), slog.LevelInfo))
}

func TestMultiHandler_WithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	m := ui.NewMultiHandler(h)
	logger := slog.New(m.WithAttrs([]slog.Attr{slog.String("component", "engine")}))

	logger.Info("hello")
	assert.Contains(t, buf.String(), "component=engine")
}

func TestMultiHandler_WithGroup(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	m := ui.NewMultiHandler(h)
	logger := slog.New(m.WithGroup("dvdbackup"))

	logger.Info("event", "type", "FileCompleted")

	lines := strings.TrimSpace(buf.String())
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines), &rec))

	group, ok := rec["dvdbackup"].(map[string]any)
	require.True(t, ok, "expected group dvdbackup in JSON output")
	assert.Equal(t, "FileCompleted", group["type"])
}

func TestTeeEvents(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	in := make(chan ui.Event, 3)
	in <- ui.Event{Type: ui.FileProgress, Path: "VIDEO_TS.VOB", Blocks: 1, Total: 3}
	in <- ui.Event{Type: ui.FileCompleted, Pass: event.PassMenu, Path: "VIDEO_TS.VOB", Blocks: 3, Total: 3, Substituted: 1}
	close(in)

	var got []ui.Event
	for ev := range ui.TeeEvents(in, logger) {
		got = append(got, ev)
	}
	require.Len(t, got, 2)

	// Progress is logged at debug and filtered out here.
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "dvdbackup.event", rec["msg"])
	assert.Equal(t, "FileCompleted", rec["type"])
	assert.Equal(t, "menu", rec["pass"])
	assert.Equal(t, "VIDEO_TS.VOB", rec["path"])
	assert.InDelta(t, 1, rec["substituted"], 0)
}
