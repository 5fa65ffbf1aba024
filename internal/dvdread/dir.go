package dvdread

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// dirVolume serves VIDEO_TS files from a directory tree, typically a mounted
// disc or an earlier backup.
type dirVolume struct {
	fs    afero.Fs
	name  string
	files map[string]extent
}

func openDir(fs afero.Fs, path string) (*dirVolume, error) {
	videoTS, title, err := findVideoTS(fs, path)
	if err != nil {
		return nil, err
	}

	infos, err := afero.ReadDir(fs, videoTS)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", videoTS, err)
	}

	v := &dirVolume{
		fs:    fs,
		name:  title,
		files: make(map[string]extent, len(infos)),
	}
	for _, fi := range infos {
		if fi.IsDir() {
			continue
		}
		name := strings.ToUpper(fi.Name())
		v.files[name] = extent{
			name: name,
			path: filepath.Join(videoTS, fi.Name()),
			size: fi.Size(),
		}
	}
	return v, nil
}

// findVideoTS accepts either the directory holding VIDEO_TS or VIDEO_TS
// itself and returns the VIDEO_TS path plus the disc directory's name.
func findVideoTS(fs afero.Fs, path string) (string, string, error) {
	path = filepath.Clean(path)
	if strings.EqualFold(filepath.Base(path), "VIDEO_TS") {
		return path, filepath.Base(filepath.Dir(path)), nil
	}

	infos, err := afero.ReadDir(fs, path)
	if err != nil {
		return "", "", fmt.Errorf("read %s: %w", path, err)
	}
	for _, fi := range infos {
		if fi.IsDir() && strings.EqualFold(fi.Name(), "VIDEO_TS") {
			return filepath.Join(path, fi.Name()), filepath.Base(path), nil
		}
	}
	return "", "", ErrNotDVD
}

func (v *dirVolume) label() string { return v.name }

func (v *dirVolume) lookup(name string) (extent, bool) {
	e, ok := v.files[name]
	return e, ok
}

func (v *dirVolume) open(e extent) (io.ReaderAt, io.Closer, error) {
	f, err := v.fs.Open(e.path)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

func (v *dirVolume) close() error { return nil }
