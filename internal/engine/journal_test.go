package engine

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournal_OpenClose(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", dir)

	j, err := OpenJournal("disc", "/backup/DISC")
	require.NoError(t, err)
	require.NotNil(t, j)

	assert.FileExists(t, j.Path())
	assert.Equal(t, filepath.Join(dir, "dvdbackup"), filepath.Dir(j.Path()))
	assert.NotEmpty(t, j.RunID())
	require.NoError(t, j.Close())
}

func TestJournal_MarkAndLookup(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	j, err := OpenJournal("disc", "/backup/DISC")
	require.NoError(t, err)
	defer j.Close()

	assert.False(t, j.IsCompleted("VTS_01_1.VOB"))

	require.NoError(t, j.MarkCompleted("VTS_01_1.VOB", 1000, 1, "abc123"))
	assert.True(t, j.IsCompleted("VTS_01_1.VOB"))
	assert.False(t, j.IsCompleted("VTS_01_2.VOB"))

	rec, ok := j.Lookup("VTS_01_1.VOB")
	require.True(t, ok)
	assert.Equal(t, int64(1000), rec.Blocks)
	assert.Equal(t, int64(1), rec.Substituted)
	assert.Equal(t, "abc123", rec.Hash)
	assert.Equal(t, j.RunID(), rec.RunID)
	assert.False(t, rec.CompletedAt.IsZero())

	require.NoError(t, j.Forget("VTS_01_1.VOB"))
	assert.False(t, j.IsCompleted("VTS_01_1.VOB"))
}

func TestJournal_PersistsAcrossRuns(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	j, err := OpenJournal("disc", "/backup/DISC")
	require.NoError(t, err)
	first := j.RunID()
	require.NoError(t, j.MarkCompleted("VIDEO_TS.IFO", 4, 0, "h"))
	require.NoError(t, j.Close())

	j, err = OpenJournal("disc", "/backup/DISC")
	require.NoError(t, err)
	defer j.Close()

	assert.NotEqual(t, first, j.RunID())
	rec, ok := j.Lookup("VIDEO_TS.IFO")
	require.True(t, ok)
	assert.Equal(t, first, rec.RunID)
}

func TestJournal_Locked(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	j, err := OpenJournal("disc", "/backup/DISC")
	require.NoError(t, err)

	_, err = OpenJournal("disc", "/backup/DISC")
	require.ErrorIs(t, err, ErrLocked)

	require.NoError(t, j.Close())

	j2, err := OpenJournal("disc", "/backup/DISC")
	require.NoError(t, err)
	require.NoError(t, j2.Close())
}

func TestJournal_Remove(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	j, err := OpenJournal("disc", "/backup/DISC")
	require.NoError(t, err)
	require.NoError(t, j.Close())
	require.NoError(t, j.Remove())
	assert.NoFileExists(t, j.Path())
}

func TestJournal_JobIDDeterminism(t *testing.T) {
	id1 := journalJobID("disc-a", "/dst/b")
	id2 := journalJobID("disc-a", "/dst/b")
	assert.Equal(t, id1, id2)
	assert.Len(t, id1, 16)

	assert.NotEqual(t, id1, journalJobID("disc-b", "/dst/b"))
	assert.NotEqual(t, id1, journalJobID("disc-a", "/dst/c"))
}

func TestJournalPath_Fallback(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv("HOME", "/home/someone")

	assert.Equal(t, "/home/someone/.local/state/dvdbackup/abc.db", journalPath("abc"))
}
