package query

import (
	"time"

	"hologram/internal/library"
)

// Predicate reports whether a photo satisfies one filter criterion.
type Predicate func(p *library.Photo) bool

// Predicates builds one predicate per populated field of f. A photo that
// lacks the value a predicate inspects never satisfies it.
func Predicates(f library.PhotoFilter) []Predicate {
	var preds []Predicate

	if f.CameraMake != nil {
		preds = append(preds, equals(*f.CameraMake, func(p *library.Photo) *string { return p.Exif.CameraMake }))
	}
	if f.CameraModel != nil {
		preds = append(preds, equals(*f.CameraModel, func(p *library.Photo) *string { return p.Exif.CameraModel }))
	}
	if f.LensModel != nil {
		preds = append(preds, equals(*f.LensModel, func(p *library.Photo) *string { return p.Exif.LensModel }))
	}
	if f.FileType != nil {
		want := *f.FileType
		preds = append(preds, func(p *library.Photo) bool { return string(p.FileType) == want })
	}
	if f.FocalLengthRange != nil {
		preds = append(preds, within(*f.FocalLengthRange, func(p *library.Photo) *float64 { return p.Exif.FocalLength }, lessFloat))
	}
	if f.ApertureRange != nil {
		preds = append(preds, within(*f.ApertureRange, func(p *library.Photo) *float64 { return p.Exif.Aperture }, lessFloat))
	}
	if f.ISORange != nil {
		preds = append(preds, within(*f.ISORange, func(p *library.Photo) *uint32 { return p.Exif.ISO }, func(a, b uint32) bool { return a < b }))
	}
	if f.DateRange != nil {
		preds = append(preds, within(*f.DateRange, func(p *library.Photo) *time.Time { return p.Exif.DateTaken }, time.Time.Before))
	}

	return preds
}

func equals(want string, field func(*library.Photo) *string) Predicate {
	return func(p *library.Photo) bool {
		v := field(p)
		return v != nil && *v == want
	}
}

func lessFloat(a, b float64) bool { return a < b }

// within tests inclusive membership in r. An inverted range matches
// nothing.
func within[T library.Bound](r library.Range[T], field func(*library.Photo) *T, less func(a, b T) bool) Predicate {
	if less(r.Max, r.Min) {
		return func(*library.Photo) bool { return false }
	}
	return func(p *library.Photo) bool {
		v := field(p)
		return v != nil && !less(*v, r.Min) && !less(r.Max, *v)
	}
}

// Filter returns the photos matching every populated field of f, in input
// order. An empty filter returns photos unchanged.
func Filter(photos []library.Photo, f library.PhotoFilter) []library.Photo {
	preds := Predicates(f)
	if len(preds) == 0 {
		return photos
	}

	out := make([]library.Photo, 0, len(photos))
	for i := range photos {
		if matchAll(&photos[i], preds) {
			out = append(out, photos[i])
		}
	}
	return out
}

func matchAll(p *library.Photo, preds []Predicate) bool {
	for _, pred := range preds {
		if !pred(p) {
			return false
		}
	}
	return true
}

// FilterIndex filters a snapshot of idx.
func FilterIndex(idx *library.Index, f library.PhotoFilter) []library.Photo {
	return Filter(idx.Snapshot(), f)
}
