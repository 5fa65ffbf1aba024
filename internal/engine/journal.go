package engine

import (
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/zeebo/blake3"
	_ "modernc.org/sqlite"
)

// ErrLocked means another run holds the journal for the same disc and
// backup directory.
var ErrLocked = errors.New("backup already in progress")

// Journal is the SQLite-backed record of files a backup has finished. It
// never changes what gets skipped; it tells a finished file apart from one
// left behind by an interrupted run.
type Journal struct {
	db    *sql.DB
	path  string
	lock  *flock.Flock
	runID string
}

// Record is the journal entry of one finished file.
type Record struct {
	Name        string
	Blocks      int64
	Substituted int64
	Hash        string
	RunID       string
	CompletedAt time.Time
}

// OpenJournal opens (or creates) the journal for discID backed up into root,
// stored at $XDG_STATE_HOME/dvdbackup/<job-id>.db.
func OpenJournal(discID, root string) (*Journal, error) {
	jobID := journalJobID(discID, root)
	dbPath := journalPath(jobID)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	lock := flock.New(dbPath + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock journal: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, root)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("open journal db: %w", err)
	}

	j := &Journal{
		db:    db,
		path:  dbPath,
		lock:  lock,
		runID: uuid.NewString(),
	}
	if err := j.init(discID, root); err != nil {
		db.Close()
		lock.Unlock()
		return nil, err
	}
	return j, nil
}

func (j *Journal) init(discID, root string) error {
	_, err := j.db.Exec(`
		CREATE TABLE IF NOT EXISTS completed (
			name        TEXT PRIMARY KEY,
			blocks      INTEGER NOT NULL,
			substituted INTEGER NOT NULL,
			hash        TEXT NOT NULL,
			run_id      TEXT NOT NULL,
			finished    INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	var storedDisc, storedRoot string
	row := j.db.QueryRow("SELECT value FROM meta WHERE key = 'disc_id'")
	if err := row.Scan(&storedDisc); err == nil {
		row2 := j.db.QueryRow("SELECT value FROM meta WHERE key = 'root'")
		if err := row2.Scan(&storedRoot); err == nil {
			if storedDisc != discID || storedRoot != root {
				return fmt.Errorf("journal mismatch: stored %s->%s, got %s->%s",
					storedDisc, storedRoot, discID, root)
			}
		}
		return nil
	}

	_, err = j.db.Exec(
		"INSERT OR REPLACE INTO meta (key, value) VALUES ('disc_id', ?), ('root', ?)",
		discID, root,
	)
	if err != nil {
		return fmt.Errorf("store meta: %w", err)
	}
	return nil
}

// IsCompleted reports whether name was recorded as finished.
func (j *Journal) IsCompleted(name string) bool {
	_, ok := j.Lookup(name)
	return ok
}

// Lookup returns the record of a finished file.
func (j *Journal) Lookup(name string) (Record, bool) {
	r := Record{Name: name}
	var finished int64
	err := j.db.QueryRow(
		"SELECT blocks, substituted, hash, run_id, finished FROM completed WHERE name = ?", name,
	).Scan(&r.Blocks, &r.Substituted, &r.Hash, &r.RunID, &finished)
	if err != nil {
		return Record{}, false
	}
	r.CompletedAt = time.Unix(0, finished)
	return r, true
}

// MarkCompleted records name as fully written.
func (j *Journal) MarkCompleted(name string, blocks, substituted int64, hash string) error {
	_, err := j.db.Exec(
		"INSERT OR REPLACE INTO completed (name, blocks, substituted, hash, run_id, finished) VALUES (?, ?, ?, ?, ?, ?)",
		name, blocks, substituted, hash, j.runID, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("record %s: %w", name, err)
	}
	return nil
}

// Forget drops the record of name, before it is rewritten.
func (j *Journal) Forget(name string) error {
	if _, err := j.db.Exec("DELETE FROM completed WHERE name = ?", name); err != nil {
		return fmt.Errorf("forget %s: %w", name, err)
	}
	return nil
}

// RunID identifies this run in the records it writes.
func (j *Journal) RunID() string { return j.runID }

// Path returns the path to the journal database file.
func (j *Journal) Path() string { return j.path }

// Close closes the database and releases the lock.
func (j *Journal) Close() error {
	err := j.db.Close()
	return errors.Join(err, j.lock.Unlock())
}

// Remove deletes the journal database and its lock file.
func (j *Journal) Remove() error {
	return errors.Join(os.Remove(j.path), os.Remove(j.path+".lock"))
}

// journalJobID computes a deterministic job ID from the disc and backup root.
func journalJobID(discID, root string) string {
	h := blake3.New()
	h.Write([]byte(discID))
	h.Write([]byte{0})
	h.Write([]byte(root))
	digest := h.Sum(nil)
	return hex.EncodeToString(digest[:8])
}

// journalPath returns the filesystem path for a journal DB.
func journalPath(jobID string) string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "dvdbackup", jobID+".db")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "state", "dvdbackup", jobID+".db")
	}
	return filepath.Join(os.TempDir(), "dvdbackup-"+jobID+".db")
}
