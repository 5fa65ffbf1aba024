package dvdread

import (
	"errors"
	"fmt"
	"io"
	"sort"
)

// extent locates one VIDEO_TS file inside a backing volume.
type extent struct {
	name   string // upper-case file name
	path   string // backing path (directory volumes only)
	offset int64  // byte offset in the backing reader
	size   int64
}

// volume is a source of VIDEO_TS files: an ISO 9660 image/device or a
// directory tree.
type volume interface {
	label() string
	lookup(name string) (extent, bool)
	open(e extent) (io.ReaderAt, io.Closer, error)
	close() error
}

type part struct {
	r      io.ReaderAt
	offset int64
	size   int64
	first  int64 // first block of this part in the file's block space
	blocks int64
}

// blockFile concatenates one or more extents into a single block address
// space. Title VOBs use several parts; everything else uses one.
type blockFile struct {
	name    string
	parts   []part
	closers []io.Closer
	blocks  int64
	size    int64
}

func (f *blockFile) add(r io.ReaderAt, c io.Closer, e extent) {
	n := BlocksFor(e.size)
	f.parts = append(f.parts, part{
		r:      r,
		offset: e.offset,
		size:   e.size,
		first:  f.blocks,
		blocks: n,
	})
	if c != nil {
		f.closers = append(f.closers, c)
	}
	f.blocks += n
	f.size += e.size
}

func (f *blockFile) ReadBlock(block int64, buf []byte) error {
	if len(buf) < BlockSize {
		return fmt.Errorf("read %s block %d: buffer of %d bytes", f.name, block, len(buf))
	}
	if block < 0 || block >= f.blocks {
		return fmt.Errorf("read %s block %d of %d: %w", f.name, block, f.blocks, ErrOutOfRange)
	}

	i := sort.Search(len(f.parts), func(i int) bool {
		return f.parts[i].first+f.parts[i].blocks > block
	})
	p := f.parts[i]
	rel := block - p.first

	// The last block of a part may be short; pad it with zeros.
	valid := min(int64(BlockSize), p.size-rel*BlockSize)
	n, err := p.r.ReadAt(buf[:valid], p.offset+rel*BlockSize)
	if int64(n) < valid {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("read %s block %d: %w", f.name, block, err)
	}
	clear(buf[valid:BlockSize])
	return nil
}

func (f *blockFile) Blocks() int64 { return f.blocks }

func (f *blockFile) Size() int64 { return f.size }

func (f *blockFile) Close() error {
	var errs []error
	for _, c := range f.closers {
		errs = append(errs, c.Close())
	}
	f.closers = nil
	return errors.Join(errs...)
}
