package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/bamsammich/dvdbackup/internal/catalog"
	"github.com/bamsammich/dvdbackup/internal/dvdread"
	"github.com/bamsammich/dvdbackup/internal/event"
	"github.com/bamsammich/dvdbackup/internal/layout"
	"github.com/bamsammich/dvdbackup/internal/stats"
)

// Disc is the source side of a backup. *dvdread.Disc satisfies it.
type Disc interface {
	catalog.Source
	OpenFile(vts int, dom dvdread.Domain) (dvdread.File, error)
	Title() string
	ID() (string, error)
}

// Config describes a backup run.
type Config struct {
	Disc      Disc
	Target    afero.Fs // nil means the OS filesystem
	OutputDir string
	TitleSet  int   // 1..99 limits the backup to one title set; 0 means all
	MaxRate   int64 // read bytes/sec, 0 means unlimited
	DryRun    bool
	Verify    bool
	Journal   bool
	Events    chan<- event.Event
	Stats     *stats.Collector
}

// Result is the outcome of a backup run.
type Result struct {
	Stats   stats.Snapshot
	Catalog *catalog.Catalog
	Plan    []Group
	Root    string
	Verify  VerifyResult
	Err     error
}

// Run backs up cfg.Disc, blocking until complete. Result.Err is set only for
// fatal failures; unreadable blocks, title sets and files are reported
// through events and stats.
func Run(ctx context.Context, cfg Config) Result {
	if cfg.TitleSet < 0 || cfg.TitleSet > catalog.MaxTitleSets {
		return Result{Err: fmt.Errorf("title set %d: must be between 1 and %d",
			cfg.TitleSet, catalog.MaxTitleSets)}
	}

	collector := cfg.Stats
	if collector == nil {
		collector = stats.NewCollector()
	}
	target := cfg.Target
	if target == nil {
		target = afero.NewOsFs()
	}

	cat, err := catalog.Build(cfg.Disc)
	if err != nil {
		return Result{Err: err, Stats: collector.Snapshot()}
	}
	if cfg.TitleSet > cat.Count() {
		slog.Warn("title set not on disc", "vts", cfg.TitleSet, "title_sets", cat.Count())
	}

	plan := Plan(cat, cfg.TitleSet)
	var files, bytes int64
	for _, g := range plan {
		files += int64(len(g.Entries))
		bytes += g.Blocks() * dvdread.BlockSize
	}
	collector.SetTotals(files, bytes)

	res := Result{Catalog: cat, Plan: plan}

	if cfg.DryRun {
		lay := layout.At(target, cfg.OutputDir, cfg.Disc.Title())
		res.Root = lay.Root
		dryRun(plan, lay, cfg.Events)
		res.Stats = collector.Snapshot()
		return res
	}

	lay, err := layout.Create(target, cfg.OutputDir, cfg.Disc.Title())
	if err != nil {
		res.Err = err
		res.Stats = collector.Snapshot()
		return res
	}
	res.Root = lay.Root
	emitEvent(cfg.Events, event.Event{Type: event.DirCreated, Path: lay.VideoTS})

	r := &runner{
		disc:   cfg.Disc,
		layout: lay,
		events: cfg.Events,
		stats:  collector,
	}
	if cfg.MaxRate > 0 {
		r.limiter = NewBWLimiter(cfg.MaxRate)
	}
	if cfg.Journal {
		j, err := openJournal(cfg.Disc, lay.Root)
		if errors.Is(err, ErrLocked) {
			res.Err = err
			res.Stats = collector.Snapshot()
			return res
		}
		if err != nil {
			slog.Warn("resume journal disabled", "error", err)
		} else {
			slog.Debug("resume journal", "path", j.Path(), "run", j.RunID())
			r.journal = j
			defer j.Close()
		}
	}

	if err := r.run(ctx, plan); err != nil {
		res.Err = err
		res.Stats = collector.Snapshot()
		return res
	}

	if cfg.Verify {
		res.Verify = Verify(ctx, VerifyConfig{
			Disc:   cfg.Disc,
			Layout: lay,
			Plan:   plan,
			Events: cfg.Events,
			Stats:  collector,
		})
	}

	res.Stats = collector.Snapshot()
	return res
}

func openJournal(disc Disc, root string) (*Journal, error) {
	id, err := disc.ID()
	if err != nil {
		return nil, fmt.Errorf("disc id: %w", err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return OpenJournal(id, abs)
}

func dryRun(plan []Group, lay *layout.Layout, events chan<- event.Event) {
	for _, g := range plan {
		for _, e := range g.Entries {
			ev := event.Event{
				Type:     event.PlanEntry,
				Pass:     g.Pass,
				VTS:      g.VTS,
				Path:     e.Name,
				Total:    e.Blocks,
				Expected: e.Size,
			}
			if size, err := lay.Size(e.Name); err == nil {
				ev.Type = event.FileSkipped
				ev.Size = size
				ev.Expected = e.Blocks * dvdread.BlockSize
			}
			emitEvent(events, ev)
		}
	}
}

// emitEvent delivers e on ch. Per-block progress is dropped when the
// consumer falls behind; every other event is delivered.
func emitEvent(ch chan<- event.Event, e event.Event) {
	if ch == nil {
		return
	}
	e.Timestamp = time.Now()
	if e.Type != event.FileProgress {
		ch <- e
		return
	}
	select {
	case ch <- e:
	default:
	}
}
