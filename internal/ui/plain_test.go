package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/dvdbackup/internal/event"
	"github.com/bamsammich/dvdbackup/internal/stats"
)

func runPlain(t *testing.T, verbose bool, evs ...Event) string {
	t.Helper()
	var out, errOut bytes.Buffer
	p := &plainPresenter{w: &out, errW: &errOut, stats: stats.NewCollector(), verbose: verbose}

	events := make(chan Event, len(evs))
	for _, ev := range evs {
		events <- ev
	}
	close(events)

	require.NoError(t, p.Run(events))
	return out.String()
}

func TestPlainPresenterFileCompleted(t *testing.T) {
	out := runPlain(t, false,
		Event{Type: event.FileStarted, Path: "VIDEO_TS.IFO", Total: 4},
		Event{Type: event.FileProgress, Path: "VIDEO_TS.IFO", Blocks: 1, Total: 4},
		Event{Type: event.FileCompleted, Path: "VIDEO_TS.IFO", Blocks: 4, Total: 4},
		Event{Type: event.FileCompleted, Path: "VTS_01_1.VOB", Blocks: 10, Total: 10, Substituted: 2},
	)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "* VIDEO_TS.IFO blocks written: 4 of 4", lines[0])
	assert.Equal(t, "* VTS_01_1.VOB blocks written: 10 of 10, skipped: 2", lines[1])
}

func TestPlainPresenterPassAndDirectory(t *testing.T) {
	out := runPlain(t, false,
		Event{Type: event.DirCreated, Path: "/backup/MOVIE/VIDEO_TS"},
		Event{Type: event.PassStarted, Pass: event.PassMenu},
	)

	assert.Contains(t, out, "* Writing to /backup/MOVIE/VIDEO_TS\n")
	assert.Contains(t, out, "[pass 2/3: menu]")
}

func TestPlainPresenterTitleSetSummary(t *testing.T) {
	out := runPlain(t, false, Event{
		Type:     event.TitleSetStarted,
		Pass:     event.PassTitle,
		VTS:      3,
		Total:    6,
		Size:     6 * 2048,
		VOBSizes: []int64{4 * 2048, 2 * 2048},
	})

	assert.Equal(t, strings.Join([]string{
		"[VTS 3]",
		"* Blocks: 6",
		"* Filesize: 12288",
		"* VOBs: 2",
		"* VOB 1 filesize: 8192",
		"* VOB 2 filesize: 4096",
	}, "\n")+"\n", out)
}

func TestPlainPresenterFileSkipped(t *testing.T) {
	t.Run("size matches", func(t *testing.T) {
		out := runPlain(t, false, Event{
			Type: event.FileSkipped, Path: "VTS_01_0.IFO", Size: 4096, Expected: 4096,
		})
		assert.Equal(t, "* VTS_01_0.IFO exists, skipped\n"+
			"source VTS_01_0.IFO bytes: 4096\n"+
			"target VTS_01_0.IFO bytes: 4096\n", out)
	})

	t.Run("menu vob size matches", func(t *testing.T) {
		out := runPlain(t, false, Event{
			Type: event.FileSkipped, Pass: event.PassMenu, Path: "VTS_01_0.VOB", Size: 10240, Expected: 10240,
		})
		assert.Equal(t, "* VTS_01_0.VOB exists, skipped\n"+
			"source VTS_01_0.VOB bytes: 10240\n"+
			"target VTS_01_0.VOB bytes: 10240\n", out)
	})

	t.Run("size differs", func(t *testing.T) {
		out := runPlain(t, false, Event{
			Type: event.FileSkipped, Path: "VIDEO_TS.VOB", Size: 100, Expected: 6144,
		})
		assert.Contains(t, out, "source VIDEO_TS.VOB bytes: 6144")
		assert.Contains(t, out, "target VIDEO_TS.VOB bytes: 100")
	})

	t.Run("incomplete", func(t *testing.T) {
		out := runPlain(t, false, Event{
			Type: event.FileSkipped, Path: "VTS_01_1.VOB", Size: 2048, Expected: 2048, Incomplete: true,
		})
		assert.Contains(t, out, "may be truncated")
	})
}

func TestPlainPresenterSourceUnavailable(t *testing.T) {
	out := runPlain(t, false, Event{
		Type:  event.SourceUnavailable,
		VTS:   2,
		Path:  "VTS_02_0.VOB",
		Error: errors.New("file not found"),
	})

	assert.Contains(t, out, "VTS_02_0.VOB unavailable (VTS 2 skipped): file not found")
}

func TestPlainPresenterPlanEntry(t *testing.T) {
	out := runPlain(t, false, Event{
		Type: event.PlanEntry, Pass: event.PassTitle, Path: "VTS_01_1.VOB", Total: 10, Expected: 10 * 2048,
	})

	assert.Equal(t, "* VTS_01_1.VOB  10 blocks  20.0 KiB  (title)\n", out)
}

func TestPlainPresenterVerify(t *testing.T) {
	evs := []Event{
		{Type: event.VerifyStarted},
		{Type: event.VerifyOK, Path: "VIDEO_TS.IFO"},
		{Type: event.VerifyFailed, Path: "VTS_01_1.VOB"},
	}

	out := runPlain(t, false, evs...)
	assert.Contains(t, out, "verifying...")
	assert.Contains(t, out, "* VTS_01_1.VOB MISMATCH")
	assert.NotContains(t, out, "VIDEO_TS.IFO verified")

	out = runPlain(t, true, evs...)
	assert.Contains(t, out, "* VIDEO_TS.IFO verified")
}

func TestPlainPresenterProgress(t *testing.T) {
	var errOut bytes.Buffer
	collector := stats.NewCollector()
	collector.SetTotals(4, 8*2048)
	collector.AddBlocksCopied(4, 2048)
	collector.AddFilesCopied(2)

	p := &plainPresenter{errW: &errOut, stats: collector}
	p.printProgress()

	assert.Contains(t, errOut.String(), "progress: 50%")
	assert.Contains(t, errOut.String(), "2/4 files")
}

func TestPlainPresenterSummary(t *testing.T) {
	collector := stats.NewCollector()
	collector.AddFilesCopied(100)
	collector.AddBlocksCopied(512, 2048)

	p := &plainPresenter{stats: collector}
	s := p.Summary()
	assert.Contains(t, s, "files 100")
	assert.Contains(t, s, "size 1.0 MiB")
	assert.Contains(t, s, "errors 0")
}
