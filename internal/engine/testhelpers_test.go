package engine

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/dvdbackup/internal/dvdread"
	"github.com/bamsammich/dvdbackup/internal/dvdread/dvdtest"
	"github.com/bamsammich/dvdbackup/internal/event"
)

var errBadSector = errors.New("bad sector")

// fakeReader serves blocks where block i is filled with byte(i+1).
type fakeReader struct {
	data     []byte
	fail     map[int64]bool
	scribble bool
	reads    []int64
}

func newFakeReader(blocks int) *fakeReader {
	return &fakeReader{data: dvdtest.Pattern(blocks, 1)}
}

func (r *fakeReader) ReadBlock(block int64, buf []byte) error {
	r.reads = append(r.reads, block)
	if r.fail[block] {
		if r.scribble {
			for i := range buf {
				buf[i] = 0xEE
			}
		}
		return errBadSector
	}
	off := block * dvdread.BlockSize
	copy(buf, r.data[off:off+dvdread.BlockSize])
	return nil
}

// failingWriter accepts failAt blocks, then fails (or writes short).
type failingWriter struct {
	buf    bytes.Buffer
	failAt int
	short  bool
	err    error
	writes int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.writes == w.failAt {
		if w.short {
			return len(p) / 2, nil
		}
		return 0, w.err
	}
	w.writes++
	return w.buf.Write(p)
}

// faultyDisc wraps a disc, failing selected block reads and file opens.
type faultyDisc struct {
	*dvdread.Disc

	mu        sync.Mutex
	badBlocks map[string]map[int64]bool // "vts/domain" -> blocks
	noOpen    map[string]bool           // "vts/domain"
	opened    []string
}

func fileKey(vts int, dom dvdread.Domain) string {
	return fmt.Sprintf("%d/%s", vts, dom)
}

func (d *faultyDisc) OpenFile(vts int, dom dvdread.Domain) (dvdread.File, error) {
	key := fileKey(vts, dom)
	d.mu.Lock()
	d.opened = append(d.opened, key)
	d.mu.Unlock()

	if d.noOpen[key] {
		return nil, fmt.Errorf("open %s: %w", key, io.ErrUnexpectedEOF)
	}
	f, err := d.Disc.OpenFile(vts, dom)
	if err != nil {
		return nil, err
	}
	return &faultyFile{File: f, bad: d.badBlocks[key]}, nil
}

func (d *faultyDisc) openCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.opened)
}

type faultyFile struct {
	dvdread.File
	bad map[int64]bool
}

func (f *faultyFile) ReadBlock(block int64, buf []byte) error {
	if f.bad[block] {
		return errBadSector
	}
	return f.File.ReadBlock(block, buf)
}

// openTestDisc writes d to an in-memory filesystem and opens it.
func openTestDisc(t *testing.T, d *dvdtest.Disc) *faultyDisc {
	t.Helper()
	fs := afero.NewMemMapFs()
	d.WriteFs(t, fs, "/src/"+d.Label)
	disc, err := dvdread.OpenFs(fs, "/src/"+d.Label)
	require.NoError(t, err)
	return &faultyDisc{
		Disc:      disc,
		badBlocks: map[string]map[int64]bool{},
		noOpen:    map[string]bool{},
	}
}

// collect drains events into a slice until the returned stop func is called.
func collect() (chan event.Event, func() []event.Event) {
	ch := make(chan event.Event, 64)
	var (
		events []event.Event
		done   = make(chan struct{})
	)
	go func() {
		defer close(done)
		for ev := range ch {
			events = append(events, ev)
		}
	}()
	return ch, func() []event.Event {
		close(ch)
		<-done
		return events
	}
}

func eventsOf(events []event.Event, typ event.Type) []event.Event {
	var out []event.Event
	for _, ev := range events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func readTarget(t *testing.T, fs afero.Fs, path string) []byte {
	t.Helper()
	b, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return b
}
