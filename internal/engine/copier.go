package engine

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/time/rate"

	"github.com/bamsammich/dvdbackup/internal/dvdread"
)

// BlockReader is a source of fixed-size blocks. dvdread.File satisfies it.
type BlockReader interface {
	ReadBlock(block int64, buf []byte) error
}

// CopyProgress is the running state of one file copy.
type CopyProgress struct {
	Attempted   int64 // blocks read (or attempted) and written
	Substituted int64 // blocks zero-filled after a read error
	Offset      int64 // bytes written
}

// CopyOptions tunes a CopyRun.
type CopyOptions struct {
	// Limiter throttles reads by bytes. Nil means unthrottled.
	Limiter *rate.Limiter
	// OnBlock is called after every written block.
	OnBlock func(CopyProgress)
	// OnReadError is called for every substituted block.
	OnReadError func(block int64, err error)
}

// WriteError reports a failed or short write to the backup target. It is
// always fatal for the run.
type WriteError struct {
	Block int64
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write block %d: %v", e.Block, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// CopyRun copies blocks start..start+count-1 from r to w in ascending order.
// A block that cannot be read is written as 2048 zero bytes so every later
// block keeps its position; reads are never retried. Any write error stops
// the copy and is returned as a *WriteError, leaving w as written so far.
func CopyRun(
	ctx context.Context,
	r BlockReader,
	start, count int64,
	w io.Writer,
	opts CopyOptions,
) (CopyProgress, error) {
	var p CopyProgress
	buf := make([]byte, dvdread.BlockSize)

	for i := range count {
		if err := ctx.Err(); err != nil {
			return p, err
		}
		if opts.Limiter != nil {
			if err := opts.Limiter.WaitN(ctx, dvdread.BlockSize); err != nil {
				return p, err
			}
		}

		block := start + i
		if err := r.ReadBlock(block, buf); err != nil {
			clear(buf)
			p.Substituted++
			if opts.OnReadError != nil {
				opts.OnReadError(block, err)
			}
		}

		n, err := w.Write(buf)
		if err == nil && n != len(buf) {
			err = io.ErrShortWrite
		}
		if err != nil {
			return p, &WriteError{Block: block, Err: err}
		}

		p.Attempted++
		p.Offset += int64(n)
		if opts.OnBlock != nil {
			opts.OnBlock(p)
		}
	}
	return p, nil
}
