package stats

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const ringSize = 60

// Collector tracks backup statistics using lock-free atomic counters.
type Collector struct {
	filesCopied       atomic.Int64
	filesSkipped      atomic.Int64
	filesIncomplete   atomic.Int64
	filesUnavailable  atomic.Int64
	filesVerified     atomic.Int64
	filesVerifyFailed atomic.Int64
	bytesCopied       atomic.Int64
	blocksCopied      atomic.Int64
	blocksSubstituted atomic.Int64
	filesTotal        atomic.Int64
	bytesTotal        atomic.Int64
	startTime         time.Time

	// Ring buffer, written only by the presenter's Tick().
	mu          sync.Mutex
	throughput  [ringSize]int64 // bytes delta per second
	errsPerSec  [ringSize]int64 // substituted blocks delta per second
	ringIdx     int
	ringCount   int // samples written, capped at ringSize
	lastBytes   int64
	lastErrored int64
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// SetTotals records the planned file and byte totals.
func (c *Collector) SetTotals(files, bytes int64) {
	c.filesTotal.Store(files)
	c.bytesTotal.Store(bytes)
}

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	FilesCopied       int64
	FilesSkipped      int64
	FilesIncomplete   int64
	FilesUnavailable  int64
	FilesVerified     int64
	FilesVerifyFailed int64
	BytesCopied       int64
	BlocksCopied      int64
	BlocksSubstituted int64
	FilesTotal        int64
	BytesTotal        int64
	Elapsed           time.Duration
}

func (c *Collector) AddFilesCopied(n int64)       { c.filesCopied.Add(n) }
func (c *Collector) AddFilesSkipped(n int64)      { c.filesSkipped.Add(n) }
func (c *Collector) AddFilesIncomplete(n int64)   { c.filesIncomplete.Add(n) }
func (c *Collector) AddFilesUnavailable(n int64)  { c.filesUnavailable.Add(n) }
func (c *Collector) AddFilesVerified(n int64)     { c.filesVerified.Add(n) }
func (c *Collector) AddFilesVerifyFailed(n int64) { c.filesVerifyFailed.Add(n) }
func (c *Collector) AddBlocksSubstituted(n int64) { c.blocksSubstituted.Add(n) }

// AddBlocksCopied counts n written blocks of blockSize bytes.
func (c *Collector) AddBlocksCopied(n, blockSize int64) {
	c.blocksCopied.Add(n)
	c.bytesCopied.Add(n * blockSize)
}

// Snapshot returns a consistent point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		FilesCopied:       c.filesCopied.Load(),
		FilesSkipped:      c.filesSkipped.Load(),
		FilesIncomplete:   c.filesIncomplete.Load(),
		FilesUnavailable:  c.filesUnavailable.Load(),
		FilesVerified:     c.filesVerified.Load(),
		FilesVerifyFailed: c.filesVerifyFailed.Load(),
		BytesCopied:       c.bytesCopied.Load(),
		BlocksCopied:      c.blocksCopied.Load(),
		BlocksSubstituted: c.blocksSubstituted.Load(),
		FilesTotal:        c.filesTotal.Load(),
		BytesTotal:        c.bytesTotal.Load(),
		Elapsed:           c.Elapsed(),
	}
}

// Tick snapshots byte and read-error deltas into the ring buffer. Called
// 1/sec by the presenter.
func (c *Collector) Tick() {
	currentBytes := c.bytesCopied.Load()
	currentErrs := c.blocksSubstituted.Load()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.throughput[c.ringIdx] = currentBytes - c.lastBytes
	c.errsPerSec[c.ringIdx] = currentErrs - c.lastErrored
	c.lastBytes = currentBytes
	c.lastErrored = currentErrs

	c.ringIdx = (c.ringIdx + 1) % ringSize
	if c.ringCount < ringSize {
		c.ringCount++
	}
}

// RollingSpeed returns average bytes/sec over the last n seconds of samples.
func (c *Collector) RollingSpeed(seconds int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rollingAvg(c.throughput[:], seconds)
}

// RollingErrorsPerSec returns average substituted blocks/sec over the last n
// seconds.
func (c *Collector) RollingErrorsPerSec(seconds int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rollingAvg(c.errsPerSec[:], seconds)
}

func (c *Collector) rollingAvg(buf []int64, n int) float64 {
	count := min(n, c.ringCount)
	if count == 0 {
		return 0
	}
	var sum int64
	for i := range count {
		idx := (c.ringIdx - 1 - i + ringSize) % ringSize
		sum += buf[idx]
	}
	return float64(sum) / float64(count)
}

// SparklineData returns the last n bytes/sec samples for rendering.
func (c *Collector) SparklineData(n int) []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	recent := c.recent(c.throughput[:], n)
	if recent == nil {
		return nil
	}
	data := make([]float64, len(recent))
	for i, v := range recent {
		data[i] = float64(v)
	}
	return data
}

// SubstitutedData returns the last n per-second counts of zero-filled
// blocks, aligned with SparklineData.
func (c *Collector) SubstitutedData(n int) []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recent(c.errsPerSec[:], n)
}

// recent copies up to n samples of buf, oldest first. c.mu must be held.
func (c *Collector) recent(buf []int64, n int) []int64 {
	count := min(n, c.ringCount)
	if count <= 0 {
		return nil
	}
	out := make([]int64, count)
	for i := range count {
		out[i] = buf[(c.ringIdx-count+i+ringSize)%ringSize]
	}
	return out
}

// ETA estimates remaining time based on rolling speed and remaining bytes.
func (c *Collector) ETA() time.Duration {
	speed := c.RollingSpeed(10)
	if speed <= 0 {
		return 0
	}
	remaining := c.bytesTotal.Load() - c.bytesCopied.Load()
	if remaining <= 0 {
		return 0
	}
	return time.Duration(float64(remaining)/speed) * time.Second
}

// Elapsed returns time since collector creation.
func (c *Collector) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"copied=%d skipped=%d unavailable=%d bytes=%d blocks=%d substituted=%d",
		s.FilesCopied, s.FilesSkipped, s.FilesUnavailable,
		s.BytesCopied, s.BlocksCopied, s.BlocksSubstituted,
	)
}

// FormatBytes returns a human-readable byte count.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
