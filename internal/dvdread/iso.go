package dvdread

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	isoDescriptorStart = 16
	isoDescriptorMax   = 64
	isoTypePrimary     = 1
	isoTypeTerminator  = 255
	isoStandardID      = "CD001"

	pvdVolumeIDOff = 40
	pvdVolumeIDLen = 32
	pvdRootRecOff  = 156
	pvdRootRecLen  = 34

	dirFlagDirectory = 0x02

	// maxDirSize bounds a directory extent read from the disc.
	maxDirSize = 1 << 20
)

var errNoPrimaryDescriptor = errors.New("no ISO 9660 primary volume descriptor")

type isoDirEntry struct {
	name  string
	isDir bool
	lba   uint32
	size  uint32
}

// isoVolume serves VIDEO_TS files straight out of an ISO 9660 image or an
// optical device; each file is a contiguous extent.
type isoVolume struct {
	r     io.ReaderAt
	c     io.Closer
	volID string
	files map[string]extent
}

func openISO(r io.ReaderAt, c io.Closer) (*isoVolume, error) {
	pvd, err := readPrimaryDescriptor(r)
	if err != nil {
		return nil, err
	}

	root := pvd[pvdRootRecOff : pvdRootRecOff+pvdRootRecLen]
	rootLBA := binary.LittleEndian.Uint32(root[2:6])
	rootSize := binary.LittleEndian.Uint32(root[10:14])

	entries, err := isoListDir(r, rootLBA, rootSize)
	if err != nil {
		return nil, fmt.Errorf("read root directory: %w", err)
	}

	var videoTS *isoDirEntry
	for i := range entries {
		if entries[i].isDir && strings.EqualFold(entries[i].name, "VIDEO_TS") {
			videoTS = &entries[i]
			break
		}
	}
	if videoTS == nil {
		return nil, ErrNotDVD
	}

	listing, err := isoListDir(r, videoTS.lba, videoTS.size)
	if err != nil {
		return nil, fmt.Errorf("read VIDEO_TS directory: %w", err)
	}

	v := &isoVolume{
		r:     r,
		c:     c,
		volID: strings.TrimRight(string(pvd[pvdVolumeIDOff:pvdVolumeIDOff+pvdVolumeIDLen]), " \x00"),
		files: make(map[string]extent, len(listing)),
	}
	for _, e := range listing {
		if e.isDir {
			continue
		}
		name := strings.ToUpper(e.name)
		v.files[name] = extent{
			name:   name,
			offset: int64(e.lba) * BlockSize,
			size:   int64(e.size),
		}
	}
	return v, nil
}

func readPrimaryDescriptor(r io.ReaderAt) ([]byte, error) {
	buf := make([]byte, BlockSize)
	for sector := int64(isoDescriptorStart); sector < isoDescriptorStart+isoDescriptorMax; sector++ {
		if _, err := r.ReadAt(buf, sector*BlockSize); err != nil {
			return nil, fmt.Errorf("read volume descriptor %d: %w", sector, err)
		}
		if string(buf[1:6]) != isoStandardID {
			return nil, errNoPrimaryDescriptor
		}
		switch buf[0] {
		case isoTypePrimary:
			return buf, nil
		case isoTypeTerminator:
			return nil, errNoPrimaryDescriptor
		}
	}
	return nil, errNoPrimaryDescriptor
}

// isoListDir returns the entries of a directory extent, skipping the "."
// and ".." records and stripping ";1" version suffixes.
func isoListDir(r io.ReaderAt, lba, size uint32) ([]isoDirEntry, error) {
	if size > maxDirSize {
		return nil, fmt.Errorf("directory extent of %d bytes exceeds %d byte limit", size, maxDirSize)
	}
	data := make([]byte, size)
	if _, err := r.ReadAt(data, int64(lba)*BlockSize); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	var entries []isoDirEntry
	for off := 0; off < len(data); {
		recLen := int(data[off])
		if recLen == 0 {
			// Records never span sectors; skip the zero padding.
			off = (off/BlockSize + 1) * BlockSize
			continue
		}
		if off+recLen > len(data) || recLen < 34 {
			break
		}
		rec := data[off : off+recLen]
		nameLen := int(rec[32])
		if 33+nameLen > recLen {
			break
		}
		name := string(rec[33 : 33+nameLen])
		off += recLen

		if name == "\x00" || name == "\x01" {
			continue
		}
		if i := strings.IndexByte(name, ';'); i >= 0 {
			name = name[:i]
		}
		name = strings.TrimSuffix(name, ".")

		entries = append(entries, isoDirEntry{
			name:  name,
			isDir: rec[25]&dirFlagDirectory != 0,
			lba:   binary.LittleEndian.Uint32(rec[2:6]),
			size:  binary.LittleEndian.Uint32(rec[10:14]),
		})
	}
	return entries, nil
}

func (v *isoVolume) label() string { return v.volID }

func (v *isoVolume) lookup(name string) (extent, bool) {
	e, ok := v.files[name]
	return e, ok
}

// open shares the backing reader; the volume owns it.
func (v *isoVolume) open(_ extent) (io.ReaderAt, io.Closer, error) {
	return v.r, nil, nil
}

func (v *isoVolume) close() error {
	if v.c == nil {
		return nil
	}
	return v.c.Close()
}
