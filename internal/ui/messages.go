package ui

import "fmt"

// passHeader names a pass the way the console log labels it.
func passHeader(ev Event) string {
	return fmt.Sprintf("[pass %d/3: %s]", ev.Pass, ev.Pass)
}

// titleSetLines is the per title set summary printed before its title
// VOBs are copied.
func titleSetLines(ev Event) []string {
	lines := []string{
		fmt.Sprintf("[VTS %d]", ev.VTS),
		fmt.Sprintf("* Blocks: %d", ev.Total),
		fmt.Sprintf("* Filesize: %d", ev.Size),
		fmt.Sprintf("* VOBs: %d", len(ev.VOBSizes)),
	}
	for i, size := range ev.VOBSizes {
		lines = append(lines, fmt.Sprintf("* VOB %d filesize: %d", i+1, size))
	}
	return lines
}

// blocksLine is the per-file progress line.
func blocksLine(name string, written, total, skipped int64) string {
	line := fmt.Sprintf("* %s blocks written: %d of %d", name, written, total)
	if skipped > 0 {
		line += fmt.Sprintf(", skipped: %d", skipped)
	}
	return line
}

// skippedLines describes an output left untouched because it already
// exists, followed by the source and target sizes. Size disagreements are
// reported, never repaired.
func skippedLines(ev Event) []string {
	lines := []string{
		fmt.Sprintf("* %s exists, skipped", ev.Path),
		fmt.Sprintf("source %s bytes: %d", ev.Path, ev.Expected),
		fmt.Sprintf("target %s bytes: %d", ev.Path, ev.Size),
	}
	if ev.Incomplete {
		lines = append(lines,
			fmt.Sprintf("* %s has no completion record and may be truncated", ev.Path))
	}
	return lines
}

func unavailableLine(ev Event) string {
	msg := "cannot open"
	if ev.Error != nil {
		msg = ev.Error.Error()
	}
	if ev.VTS == 0 {
		return fmt.Sprintf("* %s unavailable: %s", ev.Path, msg)
	}
	return fmt.Sprintf("* %s unavailable (VTS %d skipped): %s", ev.Path, ev.VTS, msg)
}

// planLine describes an output a dry run would write.
func planLine(ev Event) string {
	return fmt.Sprintf("* %s  %d blocks  %s  (%s)",
		ev.Path, ev.Total, FormatBytes(ev.Expected), ev.Pass)
}

func verifyFailedLine(ev Event) string {
	if ev.Error != nil {
		return fmt.Sprintf("* %s MISMATCH: %v", ev.Path, ev.Error)
	}
	return fmt.Sprintf("* %s MISMATCH", ev.Path)
}
