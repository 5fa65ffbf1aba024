// Package dvdread reads the VIDEO_TS structure of a DVD-Video medium block by
// block.
//
// A Disc is opened from a drive or image file (parsed as ISO 9660) or from a
// directory holding VIDEO_TS. Each title set's files are exposed per Domain
// through a File whose blocks can be read independently: a failed block read
// is reported for that block only and never poisons the handle.
package dvdread

import (
	"errors"
	"fmt"
	"io"
)

// BlockSize is the DVD logical block (sector) size in bytes.
const BlockSize = 2048

const (
	// MaxTitleSet is the highest title set number a disc can carry.
	MaxTitleSet = 99
	// MaxVOB is the highest title VOB segment number within a title set.
	MaxVOB = 9
)

var (
	// ErrNotFound means the requested file does not exist on the disc.
	ErrNotFound = errors.New("file not present on disc")
	// ErrNotDVD means the source has no VIDEO_TS directory.
	ErrNotDVD = errors.New("no VIDEO_TS directory")
	// ErrOutOfRange means a block index beyond the end of a file.
	ErrOutOfRange = errors.New("block out of range")
)

// Domain selects which file of a title set to open.
type Domain int

const (
	InfoFile       Domain = iota // .IFO
	InfoBackupFile               // .BUP
	MenuVOBs                     // VIDEO_TS.VOB / VTS_xx_0.VOB
	TitleVOBs                    // VTS_xx_1.VOB .. VTS_xx_9.VOB
)

func (d Domain) String() string {
	switch d {
	case InfoFile:
		return "ifo"
	case InfoBackupFile:
		return "bup"
	case MenuVOBs:
		return "menu"
	case TitleVOBs:
		return "title"
	default:
		return fmt.Sprintf("domain(%d)", int(d))
	}
}

// File is an open, block-addressable file on the disc.
type File interface {
	// ReadBlock reads block into buf[:BlockSize].
	ReadBlock(block int64, buf []byte) error
	// Blocks returns the number of blocks in the file.
	Blocks() int64
	// Size returns the size in bytes.
	Size() int64
	io.Closer
}

// FileInfo describes a file without opening it.
type FileInfo struct {
	Name   string
	Blocks int64
	Size   int64
}

// FileName returns the on-disc (and backup) name of a title set file.
// TitleVOBs resolves to the first title segment.
func FileName(vts int, d Domain) string {
	var ext string
	switch d {
	case InfoFile:
		ext = "IFO"
	case InfoBackupFile:
		ext = "BUP"
	case MenuVOBs:
		ext = "VOB"
	case TitleVOBs:
		return VOBName(vts, 1)
	}
	if vts == 0 {
		return "VIDEO_TS." + ext
	}
	return fmt.Sprintf("VTS_%02d_0.%s", vts, ext)
}

// VOBName returns the name of VOB segment vob of title set vts. Segment 0 is
// the menu VOB.
func VOBName(vts, vob int) string {
	if vob == 0 {
		return FileName(vts, MenuVOBs)
	}
	return fmt.Sprintf("VTS_%02d_%d.VOB", vts, vob)
}

// BlocksFor returns the number of blocks needed to hold size bytes.
func BlocksFor(size int64) int64 {
	if size <= 0 {
		return 0
	}
	return (size + BlockSize - 1) / BlockSize
}
