// Package dvdtest builds synthetic DVD-Video structures for tests: VIDEO_TS
// trees on an afero filesystem and ISO 9660 images in memory.
package dvdtest

import (
	"encoding/binary"
	"fmt"
	"path/filepath"
	"slices"
	"testing"

	"github.com/spf13/afero"
)

const blockSize = 2048

// Disc is an in-memory VIDEO_TS directory.
type Disc struct {
	Label string
	Files map[string][]byte

	seed byte
}

// New returns an empty disc with the given volume label.
func New(label string) *Disc {
	return &Disc{Label: label, Files: make(map[string][]byte)}
}

// Add stores a file under name, replacing any previous content.
func (d *Disc) Add(name string, data []byte) *Disc {
	d.Files[name] = data
	return d
}

// AddVMG adds VIDEO_TS.IFO/BUP announcing titleSets title sets, plus a
// VIDEO_TS.VOB of menuBlocks blocks when menuBlocks >= 0.
func (d *Disc) AddVMG(titleSets, menuBlocks int) *Disc {
	ifo := VMG(titleSets, 3*blockSize+100)
	d.Add("VIDEO_TS.IFO", ifo)
	d.Add("VIDEO_TS.BUP", slices.Clone(ifo))
	if menuBlocks >= 0 {
		d.Add("VIDEO_TS.VOB", d.pattern(menuBlocks))
	}
	return d
}

// AddTitleSet adds VTS_nn_0.IFO/BUP, VTS_nn_0.VOB of menuBlocks blocks (when
// menuBlocks >= 0) and one title VOB per entry of segments.
func (d *Disc) AddTitleSet(vts, menuBlocks int, segments ...int) *Disc {
	ifo := VTS(2*blockSize + 512)
	d.Add(fmt.Sprintf("VTS_%02d_0.IFO", vts), ifo)
	d.Add(fmt.Sprintf("VTS_%02d_0.BUP", vts), slices.Clone(ifo))
	if menuBlocks >= 0 {
		d.Add(fmt.Sprintf("VTS_%02d_0.VOB", vts), d.pattern(menuBlocks))
	}
	for i, blocks := range segments {
		d.Add(fmt.Sprintf("VTS_%02d_%d.VOB", vts, i+1), d.pattern(blocks))
	}
	return d
}

// pattern returns blocks full blocks, each filled with a distinct byte.
func (d *Disc) pattern(blocks int) []byte {
	d.seed++
	return Pattern(blocks, d.seed)
}

// Pattern returns blocks blocks where block i is filled with seed+i.
func Pattern(blocks int, seed byte) []byte {
	b := make([]byte, blocks*blockSize)
	for i := range blocks {
		v := seed + byte(i)
		for j := range blockSize {
			b[i*blockSize+j] = v
		}
	}
	return b
}

// VMG returns a video manager IFO of size bytes announcing titleSets title
// sets.
func VMG(titleSets, size int) []byte {
	b := header("DVDVIDEO-VMG", size)
	binary.BigEndian.PutUint16(b[0x3E:], uint16(titleSets))
	copy(b[0x40:0x60], "TEST PROVIDER")
	return b
}

// VTS returns a title set IFO of size bytes.
func VTS(size int) []byte {
	return header("DVDVIDEO-VTS", size)
}

func header(id string, size int) []byte {
	b := make([]byte, max(size, 0x60))
	copy(b, id)
	binary.BigEndian.PutUint32(b[0x0C:], 1000)
	binary.BigEndian.PutUint32(b[0x1C:], uint32((size+blockSize-1)/blockSize-1))
	binary.BigEndian.PutUint16(b[0x20:], 0x11)
	for i := 0x60; i < len(b); i++ {
		b[i] = byte(i)
	}
	return b
}

// Names returns the disc's file names in sorted order.
func (d *Disc) Names() []string {
	names := make([]string, 0, len(d.Files))
	for name := range d.Files {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// WriteFs writes the disc as root/VIDEO_TS/... on fs.
func (d *Disc) WriteFs(t testing.TB, fs afero.Fs, root string) {
	t.Helper()
	dir := filepath.Join(root, "VIDEO_TS")
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	for name, data := range d.Files {
		if err := afero.WriteFile(fs, filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

// Image returns the disc as an ISO 9660 image: descriptors at sectors 16
// and 17, the root directory, the VIDEO_TS directory, then each file
// starting on its own sector.
func (d *Disc) Image() []byte {
	names := d.Names()

	const rootLBA = 18
	const videoTSLBA = 19

	sizes := []int{34, 34}
	for _, name := range names {
		sizes = append(sizes, len(dirRecord(name+";1", 0, 0, false)))
	}
	dirSectors := (placeRecords(sizes)[len(sizes)] + blockSize - 1) / blockSize
	dirBytes := uint32(dirSectors * blockSize)

	next := videoTSLBA + dirSectors
	lbas := make(map[string]int, len(names))
	for _, name := range names {
		lbas[name] = next
		next += (len(d.Files[name]) + blockSize - 1) / blockSize
	}

	img := make([]byte, next*blockSize)

	pvd := img[16*blockSize : 17*blockSize]
	pvd[0] = 1
	copy(pvd[1:6], "CD001")
	pvd[6] = 1
	copy(pvd[40:72], fmt.Sprintf("%-32s", d.Label))
	copy(pvd[156:190], dirRecord("\x00", rootLBA, blockSize, true))

	term := img[17*blockSize : 18*blockSize]
	term[0] = 255
	copy(term[1:6], "CD001")
	term[6] = 1

	root := img[rootLBA*blockSize : (rootLBA+1)*blockSize]
	off := copy(root, dirRecord("\x00", rootLBA, blockSize, true))
	off += copy(root[off:], dirRecord("\x01", rootLBA, blockSize, true))
	copy(root[off:], dirRecord("VIDEO_TS", videoTSLBA, dirBytes, true))

	recs := [][]byte{
		dirRecord("\x00", videoTSLBA, dirBytes, true),
		dirRecord("\x01", rootLBA, blockSize, true),
	}
	for _, name := range names {
		recs = append(recs, dirRecord(name+";1", uint32(lbas[name]), uint32(len(d.Files[name])), false))
	}
	dir := img[videoTSLBA*blockSize:]
	offsets := placeRecords(sizes)
	for i, r := range recs {
		copy(dir[offsets[i]:], r)
	}

	for _, name := range names {
		copy(img[lbas[name]*blockSize:], d.Files[name])
	}
	return img
}

// placeRecords returns the byte offset of each directory record plus the
// end offset. Records never cross a sector boundary.
func placeRecords(sizes []int) []int {
	offsets := make([]int, 0, len(sizes)+1)
	off := 0
	for _, n := range sizes {
		if off%blockSize+n > blockSize {
			off += blockSize - off%blockSize
		}
		offsets = append(offsets, off)
		off += n
	}
	return append(offsets, off)
}

func dirRecord(name string, lba, size uint32, isDir bool) []byte {
	n := 33 + len(name)
	if n%2 == 1 {
		n++
	}
	r := make([]byte, n)
	r[0] = byte(n)
	binary.LittleEndian.PutUint32(r[2:], lba)
	binary.BigEndian.PutUint32(r[6:], lba)
	binary.LittleEndian.PutUint32(r[10:], size)
	binary.BigEndian.PutUint32(r[14:], size)
	if isDir {
		r[25] = 0x02
	}
	binary.LittleEndian.PutUint16(r[28:], 1)
	binary.BigEndian.PutUint16(r[30:], 1)
	r[32] = byte(len(name))
	copy(r[33:], name)
	return r
}
