// Package layout builds the on-disk shape of a backup: a root directory
// named after the disc holding a single VIDEO_TS directory.
package layout

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spf13/afero"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// DefaultName is used when the disc title yields no usable name.
	DefaultName = "DVD_VIDEO"
	// VideoTS is the fixed subdirectory holding every backed up file.
	VideoTS = "VIDEO_TS"

	maxNameLen = 64
	dirMode    = 0o775
	fileMode   = 0o644
)

// ErrCreateDir means a backup directory could not be created.
var ErrCreateDir = errors.New("cannot create backup directory")

var unsafeChars = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
)

// DirName derives a filesystem-safe directory name from a disc title.
func DirName(title string) string {
	t := transform.Chain(norm.NFC, runes.Remove(runes.In(unicode.Cc)))
	clean, _, err := transform.String(t, title)
	if err != nil {
		clean = title
	}
	clean = unsafeChars.Replace(clean)
	clean = strings.Trim(clean, " .")

	if utf8.RuneCountInString(clean) > maxNameLen {
		clean = strings.TrimRight(string([]rune(clean)[:maxNameLen]), " .")
	}
	if clean == "" {
		return DefaultName
	}
	return clean
}

// Layout is a created backup directory tree.
type Layout struct {
	fs      afero.Fs
	Root    string
	VideoTS string
}

// At returns the layout for title under parent without creating anything.
func At(afs afero.Fs, parent, title string) *Layout {
	root := filepath.Join(parent, DirName(title))
	return &Layout{
		fs:      afs,
		Root:    root,
		VideoTS: filepath.Join(root, VideoTS),
	}
}

// Create makes parent/DirName(title) and its VIDEO_TS subdirectory. Existing
// directories are reused.
func Create(afs afero.Fs, parent, title string) (*Layout, error) {
	l := At(afs, parent, title)
	for _, dir := range []string{l.Root, l.VideoTS} {
		if err := mkdir(afs, dir); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func mkdir(afs afero.Fs, dir string) error {
	err := afs.Mkdir(dir, dirMode)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrExist) {
		if fi, statErr := afs.Stat(dir); statErr == nil && fi.IsDir() {
			return nil
		}
	}
	return fmt.Errorf("%w %s: %w", ErrCreateDir, dir, err)
}

// Fs returns the filesystem the layout lives on.
func (l *Layout) Fs() afero.Fs { return l.fs }

// Path returns the target path of a backed up file.
func (l *Layout) Path(name string) string {
	return filepath.Join(l.VideoTS, name)
}

// Exists reports whether name is already present. Presence alone marks a
// file as backed up.
func (l *Layout) Exists(name string) bool {
	_, err := l.fs.Stat(l.Path(name))
	return err == nil
}

// Size returns the size of an existing target file.
func (l *Layout) Size(name string) (int64, error) {
	fi, err := l.fs.Stat(l.Path(name))
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

// Create opens name for writing, truncating any previous content.
func (l *Layout) Create(name string) (afero.File, error) {
	return l.fs.OpenFile(l.Path(name), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fileMode)
}
