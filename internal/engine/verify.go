package engine

import (
	"context"
	"log/slog"

	"github.com/bamsammich/dvdbackup/internal/event"
	"github.com/bamsammich/dvdbackup/internal/layout"
	"github.com/bamsammich/dvdbackup/internal/stats"
)

// VerifyConfig controls the post-backup verification pass.
type VerifyConfig struct {
	Disc   Disc
	Layout *layout.Layout
	Plan   []Group
	Events chan<- event.Event
	Stats  *stats.Collector
}

// VerifyResult holds the outcome of a verification pass.
type VerifyResult struct {
	Verified int64
	Failed   int64
	Errors   []VerifyError
}

// VerifyError records a single checksum mismatch.
type VerifyError struct {
	Path    string
	SrcHash string
	DstHash string
}

// Verify re-reads every planned file from the disc and compares its BLAKE3
// checksum against the backed up copy. Files missing from the target are
// not checked.
func Verify(ctx context.Context, cfg VerifyConfig) VerifyResult {
	emitEvent(cfg.Events, event.Event{Type: event.VerifyStarted})

	var result VerifyResult
	fail := func(g Group, name, srcHash, dstHash string, err error) {
		result.Failed++
		result.Errors = append(result.Errors, VerifyError{
			Path:    name,
			SrcHash: srcHash,
			DstHash: dstHash,
		})
		if cfg.Stats != nil {
			cfg.Stats.AddFilesVerifyFailed(1)
		}
		slog.Warn("verify failed", "file", name, "error", err)
		emitEvent(cfg.Events, event.Event{
			Type:  event.VerifyFailed,
			Pass:  g.Pass,
			VTS:   g.VTS,
			Path:  name,
			Error: err,
		})
	}

	for _, g := range cfg.Plan {
		if ctx.Err() != nil {
			break
		}

		var pending []Entry
		for _, e := range g.Entries {
			if cfg.Layout.Exists(e.Name) {
				pending = append(pending, e)
			}
		}
		if len(pending) == 0 {
			continue
		}

		src, err := cfg.Disc.OpenFile(g.VTS, g.Domain)
		if err != nil {
			for _, e := range pending {
				fail(g, e.Name, "error", "n/a", err)
			}
			continue
		}

		for _, e := range pending {
			srcHash, substituted, err := HashBlocks(ctx, src, e.Start, e.Blocks)
			if err != nil {
				fail(g, e.Name, "error", "n/a", err)
				continue
			}
			dstHash, err := HashFile(cfg.Layout.Fs(), cfg.Layout.Path(e.Name))
			if err != nil {
				fail(g, e.Name, srcHash, "error", err)
				continue
			}
			if srcHash != dstHash {
				fail(g, e.Name, srcHash, dstHash, nil)
				continue
			}

			result.Verified++
			if cfg.Stats != nil {
				cfg.Stats.AddFilesVerified(1)
			}
			emitEvent(cfg.Events, event.Event{
				Type:        event.VerifyOK,
				Pass:        g.Pass,
				VTS:         g.VTS,
				Path:        e.Name,
				Substituted: substituted,
			})
		}
		src.Close()
	}

	return result
}
