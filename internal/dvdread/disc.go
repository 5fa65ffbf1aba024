package dvdread

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/spf13/afero"
	"github.com/zeebo/blake3"
)

// maxTitleLen bounds Title, matching the 32-byte ISO volume identifier.
const maxTitleLen = 32

// idTitleSets is how many title sets (0..9) contribute to the disc ID.
const idTitleSets = 10

// Disc is an opened DVD-Video source. It owns every File opened from it.
type Disc struct {
	path string
	vol  volume
}

// Open opens a drive, an ISO image, or a directory containing VIDEO_TS.
func Open(path string) (*Disc, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access %s: %w", path, err)
	}
	if fi.IsDir() {
		return OpenFs(afero.NewOsFs(), path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access %s: %w", path, err)
	}
	vol, err := openISO(f, f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Disc{path: path, vol: vol}, nil
}

// OpenFs opens a VIDEO_TS directory tree on fs.
func OpenFs(fs afero.Fs, path string) (*Disc, error) {
	vol, err := openDir(fs, path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Disc{path: path, vol: vol}, nil
}

// OpenImage opens an ISO 9660 image held by r. The caller keeps ownership
// of r.
func OpenImage(r io.ReaderAt, name string) (*Disc, error) {
	vol, err := openISO(r, nil)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return &Disc{path: name, vol: vol}, nil
}

// Path returns the path the disc was opened from.
func (d *Disc) Path() string { return d.path }

// Title returns the disc's human-readable title: the ISO volume identifier,
// or the name of the directory holding VIDEO_TS.
func (d *Disc) Title() string {
	title := d.vol.label()
	if utf8.RuneCountInString(title) <= maxTitleLen {
		return title
	}
	return string([]rune(title)[:maxTitleLen])
}

// OpenIFO reads the information file header of title set vts, falling back
// to the backup copy when the primary is missing or unreadable.
func (d *Disc) OpenIFO(vts int) (*IFO, error) {
	ifo, err := d.readIFO(vts, InfoFile)
	if err == nil {
		return ifo, nil
	}
	bup, bupErr := d.readIFO(vts, InfoBackupFile)
	if bupErr == nil {
		return bup, nil
	}
	return nil, err
}

func (d *Disc) readIFO(vts int, dom Domain) (*IFO, error) {
	f, err := d.OpenFile(vts, dom)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, BlockSize)
	if err := f.ReadBlock(0, buf); err != nil {
		return nil, err
	}
	ifo, err := ParseIFO(buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", FileName(vts, dom), err)
	}
	return ifo, nil
}

// OpenFile opens one file of title set vts. TitleVOBs joins VTS_xx_1.VOB
// through the last contiguous segment into a single block range.
func (d *Disc) OpenFile(vts int, dom Domain) (File, error) {
	exts, err := d.extents(vts, dom)
	if err != nil {
		return nil, err
	}

	f := &blockFile{name: exts[0].name}
	for _, e := range exts {
		r, c, err := d.vol.open(e)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open %s: %w", e.name, err)
		}
		f.add(r, c, e)
	}
	return f, nil
}

// Stat describes one file of title set vts without opening it.
func (d *Disc) Stat(vts int, dom Domain) (FileInfo, error) {
	exts, err := d.extents(vts, dom)
	if err != nil {
		return FileInfo{}, err
	}
	fi := FileInfo{Name: exts[0].name}
	for _, e := range exts {
		fi.Blocks += BlocksFor(e.size)
		fi.Size += e.size
	}
	return fi, nil
}

// StatVOB describes VOB segment vob (0 = menu) of title set vts.
func (d *Disc) StatVOB(vts, vob int) (FileInfo, error) {
	if err := checkTitleSet(vts); err != nil {
		return FileInfo{}, err
	}
	if vob < 0 || vob > MaxVOB {
		return FileInfo{}, fmt.Errorf("vob %d: %w", vob, ErrOutOfRange)
	}
	name := VOBName(vts, vob)
	e, ok := d.vol.lookup(name)
	if !ok {
		return FileInfo{}, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return FileInfo{Name: name, Blocks: BlocksFor(e.size), Size: e.size}, nil
}

func (d *Disc) extents(vts int, dom Domain) ([]extent, error) {
	if err := checkTitleSet(vts); err != nil {
		return nil, err
	}

	if dom != TitleVOBs {
		name := FileName(vts, dom)
		e, ok := d.vol.lookup(name)
		if !ok {
			return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return []extent{e}, nil
	}

	if vts == 0 {
		return nil, fmt.Errorf("title VOBs of the video manager: %w", ErrNotFound)
	}
	var exts []extent
	for vob := 1; vob <= MaxVOB; vob++ {
		e, ok := d.vol.lookup(VOBName(vts, vob))
		if !ok {
			break
		}
		exts = append(exts, e)
	}
	if len(exts) == 0 {
		return nil, fmt.Errorf("%s: %w", VOBName(vts, 1), ErrNotFound)
	}
	return exts, nil
}

func checkTitleSet(vts int) error {
	if vts < 0 || vts > MaxTitleSet {
		return fmt.Errorf("title set %d: %w", vts, ErrOutOfRange)
	}
	return nil
}

// ID returns a stable identifier for the disc: a BLAKE3 digest over the
// information files of title sets 0 through 9.
func (d *Disc) ID() (string, error) {
	h := blake3.New()
	buf := make([]byte, BlockSize)
	hashed := 0

	for vts := range idTitleSets {
		f, err := d.OpenFile(vts, InfoFile)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return "", err
		}
		remaining := f.Size()
		for b := int64(0); b < f.Blocks(); b++ {
			if err := f.ReadBlock(b, buf); err != nil {
				f.Close()
				return "", fmt.Errorf("disc id: %w", err)
			}
			n := min(remaining, BlockSize)
			h.Write(buf[:n])
			remaining -= n
		}
		f.Close()
		hashed++
	}
	if hashed == 0 {
		return "", fmt.Errorf("disc id: %s: %w", FileName(0, InfoFile), ErrNotFound)
	}

	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:16]), nil
}

// Close releases the underlying image or device.
func (d *Disc) Close() error {
	return d.vol.close()
}
