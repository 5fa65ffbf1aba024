package ui

import (
	"fmt"

	"github.com/bamsammich/dvdbackup/internal/stats"
)

// CompletionSummary builds a final summary line from a snapshot.
// Format: done ✓  files 12  skipped 3  size 4.3 GiB  avg 9.8 MB/s  time 7m 21s  zero-filled 0  errors 0
func CompletionSummary(snap stats.Snapshot) string {
	avgSpeed := 0.0
	if snap.Elapsed.Seconds() > 0 {
		avgSpeed = float64(snap.BytesCopied) / snap.Elapsed.Seconds()
	}

	errs := snap.FilesUnavailable + snap.FilesVerifyFailed
	icon := "✓"
	if errs > 0 {
		icon = "✗"
	}

	base := fmt.Sprintf("done %s  files %s  skipped %s  size %s  avg %s  time %s",
		icon,
		FormatCount(snap.FilesCopied),
		FormatCount(snap.FilesSkipped),
		FormatBytes(snap.BytesCopied),
		FormatRate(avgSpeed),
		FormatDuration(snap.Elapsed),
	)

	base += fmt.Sprintf("  zero-filled %s", FormatCount(snap.BlocksSubstituted))

	if snap.FilesVerified > 0 || snap.FilesVerifyFailed > 0 {
		base += fmt.Sprintf("  verified %s", FormatCount(snap.FilesVerified))
	}
	if snap.FilesIncomplete > 0 {
		base += fmt.Sprintf("  unconfirmed %s", FormatCount(snap.FilesIncomplete))
	}

	base += fmt.Sprintf("  errors %d", errs)

	return base
}
