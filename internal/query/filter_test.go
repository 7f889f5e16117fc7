package query

import (
	"testing"
	"time"

	"hologram/internal/library"
)

func photo(id string, fileType library.FileType, exif library.ExifData) library.Photo {
	return library.Photo{
		ID:       id,
		FilePath: "/photos/" + id,
		FileName: id,
		FileType: fileType,
		Exif:     exif,
	}
}

func ids(photos []library.Photo) []string {
	out := make([]string, len(photos))
	for i, p := range photos {
		out[i] = p.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFilterEmptyReturnsInputUnchanged(t *testing.T) {
	photos := []library.Photo{
		photo("c", library.FileTypeJPEG, library.ExifData{}),
		photo("a", library.FileTypeRaw, library.ExifData{ISO: library.Ptr(uint32(100))}),
		photo("b", library.FileTypeJPEG, library.ExifData{}),
	}

	got := Filter(photos, library.PhotoFilter{})
	if !equalIDs(ids(got), []string{"c", "a", "b"}) {
		t.Errorf("Filter(empty) = %v, want [c a b]", ids(got))
	}
}

func TestFilterISORangeExcludesAbsent(t *testing.T) {
	photos := []library.Photo{
		photo("iso800", library.FileTypeJPEG, library.ExifData{ISO: library.Ptr(uint32(800))}),
		photo("noiso", library.FileTypeJPEG, library.ExifData{}),
		photo("iso200", library.FileTypeJPEG, library.ExifData{ISO: library.Ptr(uint32(200))}),
	}

	got := Filter(photos, library.PhotoFilter{ISORange: &library.Range[uint32]{Min: 100, Max: 400}})
	if !equalIDs(ids(got), []string{"iso200"}) {
		t.Errorf("Filter(iso 100-400) = %v, want [iso200]", ids(got))
	}
}

func TestFilterFields(t *testing.T) {
	day := func(d int) *time.Time {
		v := time.Date(2024, 5, d, 12, 0, 0, 0, time.UTC)
		return &v
	}

	photos := []library.Photo{
		photo("p1", library.FileTypeRaw, library.ExifData{
			CameraMake:  library.Ptr("Canon"),
			CameraModel: library.Ptr("Canon EOS R5"),
			LensModel:   library.Ptr("RF24-70mm F2.8 L IS USM"),
			FocalLength: library.Ptr(50.0),
			Aperture:    library.Ptr(2.8),
			ISO:         library.Ptr(uint32(100)),
			DateTaken:   day(1),
		}),
		photo("p2", library.FileTypeJPEG, library.ExifData{
			CameraMake:  library.Ptr("Canon"),
			CameraModel: library.Ptr("Canon EOS R5"),
			FocalLength: library.Ptr(24.0),
			Aperture:    library.Ptr(4.0),
			ISO:         library.Ptr(uint32(400)),
			DateTaken:   day(10),
		}),
		photo("p3", library.FileTypeJPEG, library.ExifData{
			CameraMake:  library.Ptr("NIKON CORPORATION"),
			CameraModel: library.Ptr("NIKON Z 6"),
			FocalLength: library.Ptr(85.0),
			Aperture:    library.Ptr(1.8),
			DateTaken:   day(20),
		}),
		photo("p4", library.FileTypeRaw, library.ExifData{}),
	}

	tests := []struct {
		name   string
		filter library.PhotoFilter
		want   []string
	}{
		{
			name:   "camera make exact",
			filter: library.PhotoFilter{CameraMake: library.Ptr("Canon")},
			want:   []string{"p1", "p2"},
		},
		{
			name:   "camera make is case sensitive",
			filter: library.PhotoFilter{CameraMake: library.Ptr("canon")},
			want:   []string{},
		},
		{
			name:   "camera model",
			filter: library.PhotoFilter{CameraModel: library.Ptr("NIKON Z 6")},
			want:   []string{"p3"},
		},
		{
			name:   "lens model excludes absent",
			filter: library.PhotoFilter{LensModel: library.Ptr("RF24-70mm F2.8 L IS USM")},
			want:   []string{"p1"},
		},
		{
			name:   "file type",
			filter: library.PhotoFilter{FileType: library.Ptr("RAW")},
			want:   []string{"p1", "p4"},
		},
		{
			name:   "focal length inclusive bounds",
			filter: library.PhotoFilter{FocalLengthRange: &library.Range[float64]{Min: 24, Max: 50}},
			want:   []string{"p1", "p2"},
		},
		{
			name:   "aperture",
			filter: library.PhotoFilter{ApertureRange: &library.Range[float64]{Min: 1.4, Max: 2.8}},
			want:   []string{"p1", "p3"},
		},
		{
			name:   "date range",
			filter: library.PhotoFilter{DateRange: &library.Range[time.Time]{Min: *day(5), Max: *day(20)}},
			want:   []string{"p2", "p3"},
		},
		{
			name: "fields are ANDed",
			filter: library.PhotoFilter{
				CameraMake: library.Ptr("Canon"),
				ISORange:   &library.Range[uint32]{Min: 200, Max: 800},
			},
			want: []string{"p2"},
		},
		{
			name:   "inverted range matches nothing",
			filter: library.PhotoFilter{FocalLengthRange: &library.Range[float64]{Min: 100, Max: 10}},
			want:   []string{},
		},
		{
			name:   "degenerate range",
			filter: library.PhotoFilter{ISORange: &library.Range[uint32]{Min: 400, Max: 400}},
			want:   []string{"p2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(photos, tt.filter)
			if !equalIDs(ids(got), tt.want) {
				t.Errorf("Filter() = %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func TestFilterDoesNotModifyInput(t *testing.T) {
	photos := []library.Photo{
		photo("a", library.FileTypeJPEG, library.ExifData{ISO: library.Ptr(uint32(100))}),
		photo("b", library.FileTypeJPEG, library.ExifData{ISO: library.Ptr(uint32(1600))}),
	}
	_ = Filter(photos, library.PhotoFilter{ISORange: &library.Range[uint32]{Min: 1000, Max: 2000}})

	if !equalIDs(ids(photos), []string{"a", "b"}) {
		t.Errorf("input reordered to %v", ids(photos))
	}
}

func TestPredicatesCount(t *testing.T) {
	if got := len(Predicates(library.PhotoFilter{})); got != 0 {
		t.Errorf("len(Predicates(empty)) = %d, want 0", got)
	}
	f := library.PhotoFilter{
		CameraMake: library.Ptr("Canon"),
		ISORange:   &library.Range[uint32]{Min: 1, Max: 2},
		DateRange:  &library.Range[time.Time]{},
	}
	if got := len(Predicates(f)); got != 3 {
		t.Errorf("len(Predicates()) = %d, want 3", got)
	}
}

func TestFilterIndex(t *testing.T) {
	idx := library.NewIndex()
	idx.Put(photo("a", library.FileTypeRaw, library.ExifData{}))
	idx.Put(photo("b", library.FileTypeJPEG, library.ExifData{}))

	got := FilterIndex(idx, library.PhotoFilter{FileType: library.Ptr("JPEG")})
	if !equalIDs(ids(got), []string{"b"}) {
		t.Errorf("FilterIndex() = %v, want [b]", ids(got))
	}
}
