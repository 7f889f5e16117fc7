package indexer

import (
	"path/filepath"
	"sort"
	"strings"

	"hologram/internal/library"
	"hologram/internal/mediatypes"
)

// PairLink joins a RAW photo to its JPEG sibling.
type PairLink struct {
	RawID  string
	JpegID string
}

type pairGroup struct {
	raws  []*library.Photo
	jpegs []*library.Photo
}

// pairKey groups photos by directory and case-folded file name stem.
func pairKey(p *library.Photo) string {
	name := p.FileName
	if name == "" {
		name = filepath.Base(p.FilePath)
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return filepath.Dir(p.FilePath) + "\x00" + strings.ToLower(stem)
}

// ResolvePairs plans RAW+JPEG links. Within a group the highest priority
// RAW is linked to the highest priority JPEG; every other member stays
// unpaired. Photos already paired are left out. Links are ordered by
// group key.
func ResolvePairs(photos []library.Photo) []PairLink {
	groups := make(map[string]*pairGroup)
	for i := range photos {
		p := &photos[i]
		if p.PairedWith != nil {
			continue
		}
		key := pairKey(p)
		g := groups[key]
		if g == nil {
			g = &pairGroup{}
			groups[key] = g
		}
		switch p.FileType {
		case library.FileTypeRaw:
			g.raws = append(g.raws, p)
		case library.FileTypeJPEG:
			g.jpegs = append(g.jpegs, p)
		}
	}

	keys := make([]string, 0, len(groups))
	for k, g := range groups {
		if len(g.raws) > 0 && len(g.jpegs) > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	links := make([]PairLink, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		sortByPriority(g.raws, mediatypes.RawPriority)
		sortByPriority(g.jpegs, mediatypes.JPEGPriority)
		links = append(links, PairLink{RawID: g.raws[0].ID, JpegID: g.jpegs[0].ID})
	}
	return links
}

func sortByPriority(photos []*library.Photo, priority func(ext string) int) {
	sort.SliceStable(photos, func(i, j int) bool {
		pi := priority(filepath.Ext(photos[i].FilePath))
		pj := priority(filepath.Ext(photos[j].FilePath))
		if pi != pj {
			return pi < pj
		}
		if photos[i].FileName != photos[j].FileName {
			return photos[i].FileName < photos[j].FileName
		}
		return photos[i].FilePath < photos[j].FilePath
	})
}

// Pair returns copies of photos, in the same order, with PairedWith set on
// both sides of every resolved link.
func Pair(photos []library.Photo) []library.Photo {
	out := make([]library.Photo, len(photos))
	byID := make(map[string]int, len(photos))
	for i := range photos {
		out[i] = photos[i].Clone()
		byID[out[i].ID] = i
	}

	for _, link := range ResolvePairs(photos) {
		raw, jpg := byID[link.RawID], byID[link.JpegID]
		out[raw].PairedWith = library.Ptr(link.JpegID)
		out[jpg].PairedWith = library.Ptr(link.RawID)
	}
	return out
}
