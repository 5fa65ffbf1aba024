package dvdread

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

const (
	vmgIdentifier = "DVDVIDEO-VMG"
	vtsIdentifier = "DVDVIDEO-VTS"

	ifoLastSectorOff    = 0x0C
	ifoIFOLastSectorOff = 0x1C
	ifoVersionOff       = 0x20
	ifoCategoryOff      = 0x22
	vmgTitleSetsOff     = 0x3E
	vmgProviderOff      = 0x40
	vmgProviderLen      = 32

	ifoHeaderSize = vmgProviderOff + vmgProviderLen
)

// ErrBadIFO means the data does not start with a DVD-Video IFO header.
var ErrBadIFO = errors.New("not a DVD-Video IFO")

// Kind classifies an IFO header.
type Kind int

const (
	KindUnknown Kind = iota
	KindVMG          // video manager (VIDEO_TS.IFO)
	KindVTS          // video title set (VTS_xx_0.IFO)
)

func (k Kind) String() string {
	switch k {
	case KindVMG:
		return "vmg"
	case KindVTS:
		return "vts"
	default:
		return "unknown"
	}
}

// IFO holds the header fields of a VMG or VTS information file.
type IFO struct {
	Kind          Kind
	LastSector    uint32 // last sector of the VMG / VTS set
	IFOLastSector uint32 // last sector of the IFO itself
	Version       uint16
	Category      uint32
	TitleSets     uint16 // VMG only
	ProviderID    string // VMG only
}

// IsTopLevel reports whether the header is the disc-wide video manager.
func (i *IFO) IsTopLevel() bool { return i != nil && i.Kind == KindVMG }

// IsTitleSet reports whether the header is a video title set.
func (i *IFO) IsTitleSet() bool { return i != nil && i.Kind == KindVTS }

// ParseIFO decodes the header at the start of an IFO or BUP file.
func ParseIFO(b []byte) (*IFO, error) {
	if len(b) < ifoHeaderSize {
		return nil, fmt.Errorf("%w: header too short (%d bytes)", ErrBadIFO, len(b))
	}

	ifo := &IFO{
		LastSector:    binary.BigEndian.Uint32(b[ifoLastSectorOff:]),
		IFOLastSector: binary.BigEndian.Uint32(b[ifoIFOLastSectorOff:]),
		Version:       binary.BigEndian.Uint16(b[ifoVersionOff:]),
		Category:      binary.BigEndian.Uint32(b[ifoCategoryOff:]),
	}

	switch string(b[:len(vmgIdentifier)]) {
	case vmgIdentifier:
		ifo.Kind = KindVMG
		ifo.TitleSets = binary.BigEndian.Uint16(b[vmgTitleSetsOff:])
		provider := b[vmgProviderOff : vmgProviderOff+vmgProviderLen]
		ifo.ProviderID = strings.TrimRight(string(provider), " \x00")
	case vtsIdentifier:
		ifo.Kind = KindVTS
	default:
		return nil, fmt.Errorf("%w: identifier %q", ErrBadIFO, b[:len(vmgIdentifier)])
	}
	return ifo, nil
}
