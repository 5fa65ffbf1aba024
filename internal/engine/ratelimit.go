package engine

import (
	"golang.org/x/time/rate"

	"github.com/bamsammich/dvdbackup/internal/dvdread"
)

// NewBWLimiter creates a rate.Limiter that caps disc reads to bytesPerSec.
// The burst allows 16 blocks through at once, and never less than one block
// so a single read can always proceed.
func NewBWLimiter(bytesPerSec int64) *rate.Limiter {
	burst := 16 * dvdread.BlockSize
	if bytesPerSec < int64(burst) {
		burst = int(max(bytesPerSec, dvdread.BlockSize))
	}
	return rate.NewLimiter(rate.Limit(bytesPerSec), burst)
}
