package engine

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/zeebo/blake3"
	"golang.org/x/time/rate"

	"github.com/bamsammich/dvdbackup/internal/dvdread"
	"github.com/bamsammich/dvdbackup/internal/event"
	"github.com/bamsammich/dvdbackup/internal/layout"
	"github.com/bamsammich/dvdbackup/internal/platform"
	"github.com/bamsammich/dvdbackup/internal/stats"
)

var passes = []event.Pass{event.PassMetadata, event.PassMenu, event.PassTitle}

// runner executes a plan one file and one block at a time.
type runner struct {
	disc    Disc
	layout  *layout.Layout
	journal *Journal
	limiter *rate.Limiter
	events  chan<- event.Event
	stats   *stats.Collector
}

func (r *runner) run(ctx context.Context, plan []Group) error {
	for _, pass := range passes {
		emitEvent(r.events, event.Event{Type: event.PassStarted, Pass: pass})
		for _, g := range plan {
			if g.Pass != pass {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := r.group(ctx, g); err != nil {
				return err
			}
		}
	}
	return nil
}

// group copies every entry of g through one disc file. Metadata files are
// checked for presence before the disc is touched; VOBs open their source
// first and skip the whole group when it cannot be opened. A title set is
// announced only once its title VOBs are open.
func (r *runner) group(ctx context.Context, g Group) error {
	if g.Pass == event.PassMetadata && r.layout.Exists(g.Entries[0].Name) {
		r.skip(g, g.Entries[0])
		return nil
	}

	f, err := r.disc.OpenFile(g.VTS, g.Domain)
	if err != nil {
		r.unavailable(g, err)
		return nil
	}
	defer f.Close()

	if g.Pass == event.PassTitle {
		r.titleSetSummary(g)
	}

	for _, e := range g.Entries {
		if r.layout.Exists(e.Name) {
			r.skip(g, e)
			continue
		}
		if err := r.copy(ctx, g, f, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *runner) copy(ctx context.Context, g Group, src dvdread.File, e Entry) error {
	emitEvent(r.events, event.Event{
		Type:  event.FileStarted,
		Pass:  g.Pass,
		VTS:   g.VTS,
		Path:  e.Name,
		Total: e.Blocks,
		Size:  e.Size,
	})

	if r.journal != nil {
		if err := r.journal.Forget(e.Name); err != nil {
			slog.Warn("journal", "file", e.Name, "error", err)
		}
	}

	out, err := r.layout.Create(e.Name)
	if err != nil {
		return fmt.Errorf("cannot open %s for writing: %w", r.layout.Path(e.Name), err)
	}
	if osf, ok := out.(*os.File); ok {
		platform.Preallocate(osf, e.Blocks*dvdread.BlockSize)
	}

	h := blake3.New()
	p, err := CopyRun(ctx, src, e.Start, e.Blocks, io.MultiWriter(out, h), CopyOptions{
		Limiter: r.limiter,
		OnBlock: func(p CopyProgress) {
			r.stats.AddBlocksCopied(1, dvdread.BlockSize)
			emitEvent(r.events, event.Event{
				Type:        event.FileProgress,
				Pass:        g.Pass,
				VTS:         g.VTS,
				Path:        e.Name,
				Blocks:      p.Attempted,
				Total:       e.Blocks,
				Substituted: p.Substituted,
			})
		},
		OnReadError: func(block int64, err error) {
			r.stats.AddBlocksSubstituted(1)
			slog.Debug("read error, block zero-filled",
				"file", e.Name, "block", block, "error", err)
		},
	})
	closeErr := out.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", r.layout.Path(e.Name), err)
	}
	if closeErr != nil {
		return fmt.Errorf("%s: %w", r.layout.Path(e.Name), &WriteError{Block: e.Blocks, Err: closeErr})
	}

	r.stats.AddFilesCopied(1)
	hash := hex.EncodeToString(h.Sum(nil))
	if r.journal != nil {
		if err := r.journal.MarkCompleted(e.Name, e.Blocks, p.Substituted, hash); err != nil {
			slog.Warn("journal", "file", e.Name, "error", err)
		}
	}
	if p.Substituted > 0 {
		slog.Warn("blocks unreadable, zero-filled",
			"file", e.Name, "blocks", p.Substituted, "of", e.Blocks)
	}

	emitEvent(r.events, event.Event{
		Type:        event.FileCompleted,
		Pass:        g.Pass,
		VTS:         g.VTS,
		Path:        e.Name,
		Blocks:      p.Attempted,
		Total:       e.Blocks,
		Substituted: p.Substituted,
		Size:        p.Offset,
	})
	return nil
}

// skip reports an output that already exists. Existence alone counts as
// backed up; the journal only flags files an earlier run never finished.
func (r *runner) skip(g Group, e Entry) {
	ev := event.Event{
		Type:     event.FileSkipped,
		Pass:     g.Pass,
		VTS:      g.VTS,
		Path:     e.Name,
		Total:    e.Blocks,
		Expected: e.Blocks * dvdread.BlockSize,
	}
	if size, err := r.layout.Size(e.Name); err == nil {
		ev.Size = size
	}
	if r.journal != nil && !r.journal.IsCompleted(e.Name) {
		ev.Incomplete = true
		r.stats.AddFilesIncomplete(1)
		slog.Warn("existing file was never recorded as complete, it may be truncated",
			"file", e.Name, "size", ev.Size, "expected", ev.Expected)
	}
	r.stats.AddFilesSkipped(1)
	emitEvent(r.events, ev)
}

func (r *runner) unavailable(g Group, err error) {
	slog.Warn("source unavailable, skipping", "vts", g.VTS, "file", dvdread.FileName(g.VTS, g.Domain), "error", err)
	r.stats.AddFilesUnavailable(int64(len(g.Entries)))
	emitEvent(r.events, event.Event{
		Type:  event.SourceUnavailable,
		Pass:  g.Pass,
		VTS:   g.VTS,
		Path:  dvdread.FileName(g.VTS, g.Domain),
		Error: err,
	})
}

func (r *runner) titleSetSummary(g Group) {
	ev := event.Event{
		Type:  event.TitleSetStarted,
		Pass:  g.Pass,
		VTS:   g.VTS,
		Total: g.Blocks(),
	}
	for _, e := range g.Entries {
		ev.Size += e.Size
		ev.VOBSizes = append(ev.VOBSizes, e.Size)
	}
	emitEvent(r.events, ev)
}
