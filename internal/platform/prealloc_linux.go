//go:build linux

package platform

import (
	"os"

	"golang.org/x/sys/unix"
)

// Preallocate reserves size bytes for f without changing its visible size,
// so an interrupted copy still leaves a file as long as what was written.
// Errors are ignored as fallocate is not supported on all filesystems.
//
//nolint:gosec // G115: fd values are small non-negative integers
func Preallocate(f *os.File, size int64) {
	if size <= 0 {
		return
	}
	//nolint:errcheck // fallocate is advisory; not supported on all filesystems
	unix.Fallocate(int(f.Fd()), unix.FALLOC_FL_KEEP_SIZE, 0, size)
}
