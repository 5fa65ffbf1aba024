package engine

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/dvdbackup/internal/dvdread"
)

func TestCopyRun_AllBlocks(t *testing.T) {
	src := newFakeReader(10)
	var out bytes.Buffer

	p, err := CopyRun(context.Background(), src, 0, 10, &out, CopyOptions{})
	require.NoError(t, err)

	assert.Equal(t, CopyProgress{Attempted: 10, Offset: 10 * dvdread.BlockSize}, p)
	assert.Equal(t, src.data, out.Bytes())
}

func TestCopyRun_StartOffset(t *testing.T) {
	src := newFakeReader(10)
	var out bytes.Buffer

	_, err := CopyRun(context.Background(), src, 4, 3, &out, CopyOptions{})
	require.NoError(t, err)

	assert.Equal(t, src.data[4*dvdread.BlockSize:7*dvdread.BlockSize], out.Bytes())
	assert.Equal(t, []int64{4, 5, 6}, src.reads)
}

func TestCopyRun_ReadFailureZeroFills(t *testing.T) {
	src := newFakeReader(1000)
	src.fail = map[int64]bool{500: true}
	var out bytes.Buffer
	var failed []int64

	p, err := CopyRun(context.Background(), src, 0, 1000, &out, CopyOptions{
		OnReadError: func(block int64, _ error) { failed = append(failed, block) },
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), p.Substituted)
	assert.Equal(t, []int64{500}, failed)
	require.Equal(t, 1000*dvdread.BlockSize, out.Len())

	got := out.Bytes()
	assert.Equal(t, make([]byte, dvdread.BlockSize), got[500*dvdread.BlockSize:501*dvdread.BlockSize])
	assert.Equal(t, src.data[:500*dvdread.BlockSize], got[:500*dvdread.BlockSize])
	assert.Equal(t, src.data[501*dvdread.BlockSize:], got[501*dvdread.BlockSize:])
}

func TestCopyRun_NoRetry(t *testing.T) {
	src := newFakeReader(3)
	src.fail = map[int64]bool{1: true}
	var out bytes.Buffer

	_, err := CopyRun(context.Background(), src, 0, 3, &out, CopyOptions{})
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1, 2}, src.reads)
}

func TestCopyRun_ReadFailureClearsStaleBuffer(t *testing.T) {
	// A failing reader that scribbles into buf must still yield zeros.
	src := newFakeReader(2)
	src.fail = map[int64]bool{1: true}
	src.scribble = true
	var out bytes.Buffer

	_, err := CopyRun(context.Background(), src, 0, 2, &out, CopyOptions{})
	require.NoError(t, err)
	assert.Equal(t, make([]byte, dvdread.BlockSize), out.Bytes()[dvdread.BlockSize:])
}

func TestCopyRun_ZeroCount(t *testing.T) {
	src := newFakeReader(5)
	var out bytes.Buffer

	p, err := CopyRun(context.Background(), src, 0, 0, &out, CopyOptions{})
	require.NoError(t, err)
	assert.Zero(t, p)
	assert.Zero(t, out.Len())
	assert.Empty(t, src.reads)
}

func TestCopyRun_WriteFailureIsFatal(t *testing.T) {
	src := newFakeReader(10)
	w := &failingWriter{failAt: 3, err: errors.New("no space left on device")}

	p, err := CopyRun(context.Background(), src, 0, 10, w, CopyOptions{})

	var werr *WriteError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, int64(3), werr.Block)
	assert.Contains(t, err.Error(), "no space left on device")
	assert.Equal(t, int64(3), p.Attempted)
	assert.Equal(t, 3*dvdread.BlockSize, w.buf.Len(), "partial output is left in place")
}

func TestCopyRun_ShortWrite(t *testing.T) {
	src := newFakeReader(2)
	w := &failingWriter{failAt: 1, short: true}

	_, err := CopyRun(context.Background(), src, 0, 2, w, CopyOptions{})
	require.ErrorIs(t, err, io.ErrShortWrite)
}

func TestCopyRun_Progress(t *testing.T) {
	src := newFakeReader(4)
	src.fail = map[int64]bool{2: true}
	var out bytes.Buffer
	var seen []CopyProgress

	_, err := CopyRun(context.Background(), src, 0, 4, &out, CopyOptions{
		OnBlock: func(p CopyProgress) { seen = append(seen, p) },
	})
	require.NoError(t, err)

	require.Len(t, seen, 4)
	for i, p := range seen {
		assert.Equal(t, int64(i+1), p.Attempted)
		assert.Equal(t, int64(i+1)*dvdread.BlockSize, p.Offset)
	}
	assert.Equal(t, int64(0), seen[1].Substituted)
	assert.Equal(t, int64(1), seen[2].Substituted)
}

func TestCopyRun_Canceled(t *testing.T) {
	src := newFakeReader(10)
	var out bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())

	_, err := CopyRun(ctx, src, 0, 10, &out, CopyOptions{
		OnBlock: func(p CopyProgress) {
			if p.Attempted == 2 {
				cancel()
			}
		},
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2*dvdread.BlockSize, out.Len())
}
