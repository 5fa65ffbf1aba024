// Package catalog enumerates the title sets of a DVD-Video disc: their
// information file pair and their VOB segments, with per-set validity.
//
// Only an unreadable video manager or a disc announcing no title sets is
// fatal. A title set whose information file cannot be opened, or does not
// identify as a title set, stays enumerated but is marked invalid.
package catalog

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/bamsammich/dvdbackup/internal/dvdread"
)

const (
	// MaxTitleSets is the highest title set index a catalog holds.
	MaxTitleSets = dvdread.MaxTitleSet
	// MaxSegments is the number of VOB segments per title set (0 = menu).
	MaxSegments = dvdread.MaxVOB + 1
)

var (
	// ErrNoTopLevel means the video manager information could not be read.
	ErrNoTopLevel = errors.New("cannot read video manager information")
	// ErrNoTitleSets means the video manager announces zero title sets.
	ErrNoTitleSets = errors.New("disc has no title sets")
)

// Invalid-set reasons.
const (
	ReasonUnreadable  = "metadata unreadable"
	ReasonNotTitleSet = "not a title set"
)

// Source is the part of a disc the catalog reads from. *dvdread.Disc
// satisfies it.
type Source interface {
	OpenIFO(vts int) (*dvdread.IFO, error)
	Stat(vts int, dom dvdread.Domain) (dvdread.FileInfo, error)
	StatVOB(vts, vob int) (dvdread.FileInfo, error)
}

// Segment is one VOB file of a title set. A present segment with zero
// blocks is a placeholder and still gets backed up as an empty file.
type Segment struct {
	Index   int
	Name    string
	Present bool
	Blocks  int64
	Size    int64
}

// TitleSet is one entry of the catalog.
type TitleSet struct {
	Index  int
	Valid  bool
	Reason string // why the set is invalid

	Info   dvdread.FileInfo
	Backup dvdread.FileInfo
	// HasInfo and HasBackup record which copy of the information file is
	// present; each is attempted independently.
	HasInfo   bool
	HasBackup bool

	Segments [MaxSegments]Segment
	// VOBs counts the contiguous title segments starting at 1.
	VOBs int
	// Blocks and Size total every present segment.
	Blocks int64
	Size   int64
}

// Menu returns segment 0.
func (ts *TitleSet) Menu() Segment { return ts.Segments[0] }

// Titles returns the contiguous title segments 1..VOBs.
func (ts *TitleSet) Titles() []Segment { return ts.Segments[1 : 1+ts.VOBs] }

// TitleBlocks totals the blocks of the title segments.
func (ts *TitleSet) TitleBlocks() int64 {
	var n int64
	for _, s := range ts.Titles() {
		n += s.Blocks
	}
	return n
}

// Catalog is a fixed-capacity arena of title sets indexed 0..Len()-1.
type Catalog struct {
	sets     [MaxTitleSets + 1]TitleSet
	n        int
	Provider string
}

// Len returns the number of enumerated title sets, including set 0.
func (c *Catalog) Len() int { return c.n }

// Count returns the number of title sets announced by the video manager.
func (c *Catalog) Count() int { return c.n - 1 }

// Get returns title set i, or false when i is not enumerated.
func (c *Catalog) Get(i int) (*TitleSet, bool) {
	if i < 0 || i >= c.n {
		return nil, false
	}
	return &c.sets[i], true
}

// Valid returns the valid title sets in index order.
func (c *Catalog) Valid() []*TitleSet {
	var out []*TitleSet
	for i := range c.n {
		if c.sets[i].Valid {
			out = append(out, &c.sets[i])
		}
	}
	return out
}

// All returns every enumerated title set in index order.
func (c *Catalog) All() []*TitleSet {
	out := make([]*TitleSet, c.n)
	for i := range c.n {
		out[i] = &c.sets[i]
	}
	return out
}

// Build reads the video manager and every announced title set from src.
func Build(src Source) (*Catalog, error) {
	vmg, err := src.OpenIFO(0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoTopLevel, err)
	}
	if !vmg.IsTopLevel() {
		return nil, fmt.Errorf("%w: %s is a %s header", ErrNoTopLevel,
			dvdread.FileName(0, dvdread.InfoFile), vmg.Kind)
	}

	count := int(vmg.TitleSets)
	if count == 0 {
		return nil, ErrNoTitleSets
	}
	if count > MaxTitleSets {
		slog.Warn("title set count out of range, clamping",
			"announced", count, "max", MaxTitleSets)
		count = MaxTitleSets
	}

	c := &Catalog{n: count + 1, Provider: vmg.ProviderID}
	c.sets[0] = TitleSet{Index: 0, Valid: true}
	describe(src, &c.sets[0])

	for i := 1; i <= count; i++ {
		ts := &c.sets[i]
		ts.Index = i

		ifo, err := src.OpenIFO(i)
		switch {
		case err != nil:
			ts.Reason = ReasonUnreadable
			slog.Warn("title set unreadable", "vts", i, "error", err)
			continue
		case !ifo.IsTitleSet():
			ts.Reason = ReasonNotTitleSet
			slog.Warn("title set malformed", "vts", i, "kind", ifo.Kind)
			continue
		}

		ts.Valid = true
		describe(src, ts)
	}
	return c, nil
}

// describe records the information file pair and the VOB segments of ts.
func describe(src Source, ts *TitleSet) {
	if fi, err := src.Stat(ts.Index, dvdread.InfoFile); err == nil {
		ts.Info, ts.HasInfo = fi, true
	}
	if fi, err := src.Stat(ts.Index, dvdread.InfoBackupFile); err == nil {
		ts.Backup, ts.HasBackup = fi, true
	}

	contiguous := true
	for vob := range MaxSegments {
		seg := &ts.Segments[vob]
		seg.Index = vob
		seg.Name = dvdread.VOBName(ts.Index, vob)

		// The video manager has no title segments.
		if ts.Index == 0 && vob > 0 {
			continue
		}

		fi, err := src.StatVOB(ts.Index, vob)
		if err != nil {
			if vob > 0 {
				contiguous = false
			}
			slog.Debug("segment absent", "vts", ts.Index, "vob", vob, "error", err)
			continue
		}
		seg.Present = true
		seg.Blocks = fi.Blocks
		seg.Size = fi.Size
		ts.Blocks += fi.Blocks
		ts.Size += fi.Size
		if vob > 0 && contiguous {
			ts.VOBs = vob
		}
	}
}
