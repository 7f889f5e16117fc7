package query

import (
	"hologram/internal/library"
)

// Aggregate summarises photos. The result does not depend on input order.
func Aggregate(photos []library.Photo) library.PhotoStats {
	stats := library.PhotoStats{
		TotalPhotos: len(photos),
		Cameras:     make(map[string]int),
		Lenses:      make(map[string]int),
	}

	byID := make(map[string]*library.Photo, len(photos))
	for i := range photos {
		byID[photos[i].ID] = &photos[i]
	}

	// Repeated records still count as one pair.
	anchors := make(map[string]struct{})
	for i := range photos {
		p := &photos[i]

		switch p.FileType {
		case library.FileTypeRaw:
			stats.RawCount++
		case library.FileTypeJPEG:
			stats.JpegCount++
		}

		if _, seen := anchors[p.ID]; !seen && isPairAnchor(p, byID) {
			anchors[p.ID] = struct{}{}
			stats.PairedCount++
		}

		if v := p.Exif.CameraModel; v != nil && *v != "" {
			stats.Cameras[*v]++
		}
		if v := p.Exif.LensModel; v != nil && *v != "" {
			stats.Lenses[*v]++
		}
	}

	return stats
}

// isPairAnchor reports whether p is the smaller-id side of a symmetric
// pair whose other side is also in the set.
func isPairAnchor(p *library.Photo, byID map[string]*library.Photo) bool {
	if p.PairedWith == nil || *p.PairedWith == p.ID || p.ID > *p.PairedWith {
		return false
	}
	other, ok := byID[*p.PairedWith]
	return ok && other.PairedWith != nil && *other.PairedWith == p.ID
}

// AggregateIndex summarises a snapshot of idx.
func AggregateIndex(idx *library.Index) library.PhotoStats {
	return Aggregate(idx.Snapshot())
}
