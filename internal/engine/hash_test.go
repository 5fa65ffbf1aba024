package engine

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/a", []byte("hello world"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/b", []byte("hello world"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/c", []byte("different content"), 0o644))

	h1, err := HashFile(fs, "/a")
	require.NoError(t, err)
	assert.Len(t, h1, 64)

	h2, err := HashFile(fs, "/b")
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	h3, err := HashFile(fs, "/c")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}

func TestHashFileMissing(t *testing.T) {
	_, err := HashFile(afero.NewMemMapFs(), "/missing")
	require.Error(t, err)
}

func TestHashBlocks_MatchesWrittenBytes(t *testing.T) {
	src := newFakeReader(6)
	src.fail = map[int64]bool{3: true}

	want := append([]byte{}, src.data[2*2048:3*2048]...)
	want = append(want, make([]byte, 2048)...)
	want = append(want, src.data[4*2048:5*2048]...)

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/out", want, 0o644))
	fileHash, err := HashFile(fs, "/out")
	require.NoError(t, err)

	hash, substituted, err := HashBlocks(context.Background(), src, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, fileHash, hash)
	assert.Equal(t, int64(1), substituted)
}
