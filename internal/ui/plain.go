package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/bamsammich/dvdbackup/internal/stats"
)

// plainPresenter outputs one line per completed file to stdout,
// and periodic progress to stderr when not a TTY.
type plainPresenter struct {
	w       io.Writer
	errW    io.Writer
	stats   *stats.Collector
	verbose bool
}

func (p *plainPresenter) Run(events <-chan Event) error {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	secTicker := time.NewTicker(time.Second)
	defer secTicker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			p.handleEvent(ev)
		case <-secTicker.C:
			p.stats.Tick()
		case <-ticker.C:
			p.printProgress()
		}
	}
}

func (p *plainPresenter) println(lines ...string) {
	for _, l := range lines {
		fmt.Fprintln(p.w, l)
	}
}

func (p *plainPresenter) handleEvent(ev Event) {
	switch ev.Type {
	case PassStarted:
		p.println(passHeader(ev))
	case DirCreated:
		p.println(fmt.Sprintf("* Writing to %s", ev.Path))
	case TitleSetStarted:
		p.println(titleSetLines(ev)...)
	case FileCompleted:
		p.println(blocksLine(ev.Path, ev.Blocks, ev.Total, ev.Substituted))
	case FileSkipped:
		p.println(skippedLines(ev)...)
	case SourceUnavailable:
		p.println(unavailableLine(ev))
	case PlanEntry:
		p.println(planLine(ev))
	case VerifyStarted:
		p.println("verifying...")
	case VerifyFailed:
		p.println(verifyFailedLine(ev))
	case VerifyOK:
		if p.verbose {
			p.println(fmt.Sprintf("* %s verified", ev.Path))
		}
	case FileStarted, FileProgress:
		// per-block progress only renders on a terminal
	}
}

func (p *plainPresenter) printProgress() {
	snap := p.stats.Snapshot()
	if snap.BytesTotal > 0 {
		pct := float64(snap.BytesCopied) / float64(snap.BytesTotal) * 100
		speed := p.stats.RollingSpeed(10)
		eta := p.stats.ETA()
		fmt.Fprintf(p.errW, "progress: %.0f%% %s/%s %s/%s files %s eta %s\n",
			pct,
			FormatBytes(snap.BytesCopied), FormatBytes(snap.BytesTotal),
			FormatCount(snap.FilesCopied+snap.FilesSkipped), FormatCount(snap.FilesTotal),
			FormatRate(speed),
			FormatETA(eta),
		)
	} else {
		fmt.Fprintf(p.errW, "progress: %s copied %s files\n",
			FormatBytes(snap.BytesCopied),
			FormatCount(snap.FilesCopied),
		)
	}
}

func (p *plainPresenter) Summary() string {
	return CompletionSummary(p.stats.Snapshot())
}
