package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/bamsammich/dvdbackup/internal/stats"
)

const (
	sparklineWidth   = 12
	progressBarWidth = 16
	drawMinInterval  = 50 * time.Millisecond // don't redraw faster than this
)

// progressPresenter renders a single console line per file that is
// overwritten in place as blocks are written. Everything else scrolls
// above it.
type progressPresenter struct {
	w       io.Writer
	stats   *stats.Collector
	width   int
	verbose bool

	current  *Event // file being copied, nil between files
	drawn    bool
	lastDraw time.Time
}

func (p *progressPresenter) Run(events <-chan Event) error {
	// Fire first tick quickly to seed the ring buffer, then switch to 1s.
	secTicker := time.NewTicker(250 * time.Millisecond)
	defer secTicker.Stop()
	firstTickDone := false

	redrawTicker := time.NewTicker(200 * time.Millisecond)
	defer redrawTicker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				p.clearLine()
				return nil
			}
			p.handleEvent(ev)

		case <-redrawTicker.C:
			p.drawLine()

		case <-secTicker.C:
			p.stats.Tick()
			if !firstTickDone {
				firstTickDone = true
				secTicker.Reset(time.Second)
			}
		}
	}
}

func (p *progressPresenter) handleEvent(ev Event) {
	switch ev.Type {
	case PassStarted:
		p.println(styleHeader.Render(passHeader(ev)))
	case DirCreated:
		p.println("* Writing to " + styleFileName.Render(ev.Path))
	case TitleSetStarted:
		lines := titleSetLines(ev)
		lines[0] = styleHeader.Render(lines[0])
		p.println(lines...)

	case FileStarted, FileProgress:
		cur := ev
		p.current = &cur
		if ev.Type == FileStarted || time.Since(p.lastDraw) >= drawMinInterval {
			p.drawLine()
		}

	case FileCompleted:
		p.current = nil
		p.clearLine()
		icon := styleIconDone.Render("✓")
		if ev.Substituted > 0 {
			icon = styleWarn.Render("!")
		}
		p.println(icon + " " + p.fileLine(ev, false))

	case FileSkipped:
		lines := skippedLines(ev)
		lines[0] = styleIconSkipped.Render(lines[0])
		sizeStyle := styleMuted
		if ev.Size != ev.Expected {
			sizeStyle = styleWarn
		}
		lines[1] = sizeStyle.Render(lines[1])
		lines[2] = sizeStyle.Render(lines[2])
		for i := 3; i < len(lines); i++ {
			lines[i] = styleWarn.Render(lines[i])
		}
		p.println(lines...)
	case SourceUnavailable:
		p.println(styleIconFailed.Render("✗") + " " + styleError.Render(unavailableLine(ev)))
	case PlanEntry:
		p.println(planLine(ev))

	case VerifyStarted:
		p.println(styleMuted.Render("verifying checksums..."))
	case VerifyFailed:
		p.println(styleIconFailed.Render("✗") + " " + styleError.Render(verifyFailedLine(ev)))
	case VerifyOK:
		if p.verbose {
			p.println(styleIconDone.Render("✓") + " " + styleMuted.Render(ev.Path+" verified"))
		}
	}
}

// println prints lines above the live progress line.
func (p *progressPresenter) println(lines ...string) {
	p.clearLine()
	for _, l := range lines {
		fmt.Fprintln(p.w, l)
	}
	p.drawLine()
}

// fileLine renders the blocks line for ev. Live lines carry a throughput
// sparkline and progress bar when the terminal is wide enough.
func (p *progressPresenter) fileLine(ev Event, live bool) string {
	text := blocksLine(ev.Path, ev.Blocks, ev.Total, ev.Substituted)
	line := text
	if ev.Substituted > 0 {
		head, tail, _ := strings.Cut(text, ", skipped")
		line = head + styleWarn.Render(", skipped"+tail)
	}
	if !live {
		return line
	}

	width := lipgloss.Width(text)
	var pct float64
	if ev.Total > 0 {
		pct = float64(ev.Blocks) / float64(ev.Total)
	}
	bar := fmt.Sprintf("%3.0f%% %s", pct*100, ProgressBar(pct, progressBarWidth))
	spark := Sparkline(
		p.stats.SparklineData(sparklineWidth),
		p.stats.SubstitutedData(sparklineWidth),
		sparklineWidth,
	)
	rate := FormatRate(p.stats.RollingSpeed(5))
	extras := []struct{ plain, styled string }{
		{bar, fmt.Sprintf("%3.0f%% %s", pct*100, styledBar(pct, progressBarWidth))},
		{spark, styleSparkline.Render(spark)},
		{rate, styleSpeed.Render(rate)},
	}
	if errs := p.stats.RollingErrorsPerSec(5); errs > 0 {
		bad := fmt.Sprintf("%.0f bad blocks/s", errs)
		extras = append(extras, struct{ plain, styled string }{bad, styleWarn.Render(bad)})
	}
	for _, x := range extras {
		w := lipgloss.Width(x.plain) + 2
		if p.width > 0 && width+w >= p.width {
			break
		}
		width += w
		line += "  " + x.styled
	}
	return line
}

func (p *progressPresenter) drawLine() {
	if p.current == nil {
		return
	}
	p.clearLine()
	fmt.Fprint(p.w, p.fileLine(*p.current, true))
	p.drawn = true
	p.lastDraw = time.Now()
}

func (p *progressPresenter) clearLine() {
	if !p.drawn {
		return
	}
	fmt.Fprint(p.w, "\r\033[K")
	p.drawn = false
}

func (p *progressPresenter) Summary() string {
	return CompletionSummary(p.stats.Snapshot())
}

// styledBar is ProgressBar with the filled and empty cells colored.
func styledBar(pct float64, width int) string {
	bar := []rune(ProgressBar(pct, width))
	filled := 0
	for filled < len(bar) && bar[filled] == '▪' {
		filled++
	}
	return styleProgressFilled.Render(string(bar[:filled])) +
		styleProgressEmpty.Render(string(bar[filled:]))
}
