package engine

import (
	"github.com/bamsammich/dvdbackup/internal/catalog"
	"github.com/bamsammich/dvdbackup/internal/dvdread"
	"github.com/bamsammich/dvdbackup/internal/event"
)

// Entry is one output file and the block range of its source.
type Entry struct {
	Name   string
	Start  int64 // first block within the group's reader
	Blocks int64
	Size   int64 // source bytes
}

// Group is a run of entries read through a single disc file.
type Group struct {
	Pass    event.Pass
	VTS     int
	Domain  dvdread.Domain
	Entries []Entry
}

// Blocks totals the blocks of every entry.
func (g Group) Blocks() int64 {
	var n int64
	for _, e := range g.Entries {
		n += e.Blocks
	}
	return n
}

// Plan lists, in copy order, every file a backup of cat produces. With
// filter k in 1..99 the metadata and menu passes cover title sets 0 and k
// and the title pass covers only k; 0 selects everything.
func Plan(cat *catalog.Catalog, filter int) []Group {
	var groups []Group

	for _, ts := range cat.Valid() {
		if !selected(ts.Index, filter, true) {
			continue
		}
		for _, dom := range []dvdread.Domain{dvdread.InfoFile, dvdread.InfoBackupFile} {
			fi, present := ts.Info, ts.HasInfo
			if dom == dvdread.InfoBackupFile {
				fi, present = ts.Backup, ts.HasBackup
			}
			// Missing copies stay planned so the run reports them.
			if !present {
				fi = dvdread.FileInfo{Name: dvdread.FileName(ts.Index, dom)}
			}
			groups = append(groups, Group{
				Pass:    event.PassMetadata,
				VTS:     ts.Index,
				Domain:  dom,
				Entries: []Entry{{Name: fi.Name, Blocks: fi.Blocks, Size: fi.Size}},
			})
		}
	}

	for _, ts := range cat.Valid() {
		if !selected(ts.Index, filter, true) {
			continue
		}
		menu := ts.Menu()
		if !menu.Present {
			continue
		}
		groups = append(groups, Group{
			Pass:    event.PassMenu,
			VTS:     ts.Index,
			Domain:  dvdread.MenuVOBs,
			Entries: []Entry{{Name: menu.Name, Blocks: menu.Blocks, Size: menu.Size}},
		})
	}

	for _, ts := range cat.Valid() {
		if ts.Index == 0 || !selected(ts.Index, filter, false) || ts.VOBs == 0 {
			continue
		}
		g := Group{Pass: event.PassTitle, VTS: ts.Index, Domain: dvdread.TitleVOBs}
		// Offsets advance over every segment, copied this run or not.
		var offset int64
		for _, seg := range ts.Titles() {
			g.Entries = append(g.Entries, Entry{
				Name:   seg.Name,
				Start:  offset,
				Blocks: seg.Blocks,
				Size:   seg.Size,
			})
			offset += seg.Blocks
		}
		groups = append(groups, g)
	}

	return groups
}

func selected(vts, filter int, withManager bool) bool {
	if filter == 0 || vts == filter {
		return true
	}
	return withManager && vts == 0
}
