package query

import (
	"math/rand"
	"reflect"
	"testing"

	"hologram/internal/library"
)

func paired(p library.Photo, with string) library.Photo {
	p.PairedWith = library.Ptr(with)
	return p
}

func TestAggregateScanExample(t *testing.T) {
	photos := []library.Photo{
		paired(photo("raw1", library.FileTypeRaw, library.ExifData{}), "jpg1"),
		paired(photo("jpg1", library.FileTypeJPEG, library.ExifData{}), "raw1"),
		photo("jpg2", library.FileTypeJPEG, library.ExifData{}),
	}

	got := Aggregate(photos)
	want := library.PhotoStats{
		TotalPhotos: 3,
		RawCount:    1,
		JpegCount:   2,
		PairedCount: 1,
		Cameras:     map[string]int{},
		Lenses:      map[string]int{},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Aggregate() = %+v, want %+v", got, want)
	}
}

func TestAggregateCamerasAndLenses(t *testing.T) {
	photos := []library.Photo{
		photo("a", library.FileTypeJPEG, library.ExifData{CameraModel: library.Ptr("Canon EOS R5"), LensModel: library.Ptr("RF50mm F1.2L USM")}),
		photo("b", library.FileTypeJPEG, library.ExifData{CameraModel: library.Ptr("Canon EOS R5")}),
		photo("c", library.FileTypeRaw, library.ExifData{CameraModel: library.Ptr("NIKON Z 6"), LensModel: library.Ptr("")}),
		photo("d", library.FileTypeRaw, library.ExifData{}),
	}

	got := Aggregate(photos)
	if want := map[string]int{"Canon EOS R5": 2, "NIKON Z 6": 1}; !reflect.DeepEqual(got.Cameras, want) {
		t.Errorf("Cameras = %v, want %v", got.Cameras, want)
	}
	if want := map[string]int{"RF50mm F1.2L USM": 1}; !reflect.DeepEqual(got.Lenses, want) {
		t.Errorf("Lenses = %v, want %v", got.Lenses, want)
	}
	if _, ok := got.Lenses[""]; ok {
		t.Error("empty lens model counted")
	}
}

func TestAggregatePairCounting(t *testing.T) {
	tests := []struct {
		name   string
		photos []library.Photo
		want   int
	}{
		{
			name: "one side only in set",
			photos: []library.Photo{
				paired(photo("a", library.FileTypeRaw, library.ExifData{}), "b"),
			},
			want: 0,
		},
		{
			name: "asymmetric link",
			photos: []library.Photo{
				paired(photo("a", library.FileTypeRaw, library.ExifData{}), "b"),
				photo("b", library.FileTypeJPEG, library.ExifData{}),
			},
			want: 0,
		},
		{
			name: "two pairs",
			photos: []library.Photo{
				paired(photo("a", library.FileTypeRaw, library.ExifData{}), "b"),
				paired(photo("b", library.FileTypeJPEG, library.ExifData{}), "a"),
				paired(photo("c", library.FileTypeRaw, library.ExifData{}), "d"),
				paired(photo("d", library.FileTypeJPEG, library.ExifData{}), "c"),
				photo("e", library.FileTypeJPEG, library.ExifData{}),
			},
			want: 2,
		},
		{
			name: "repeated record",
			photos: []library.Photo{
				paired(photo("a", library.FileTypeRaw, library.ExifData{}), "b"),
				paired(photo("a", library.FileTypeRaw, library.ExifData{}), "b"),
				paired(photo("b", library.FileTypeJPEG, library.ExifData{}), "a"),
			},
			want: 1,
		},
		{
			name:   "empty",
			photos: nil,
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.photos)
			if got.PairedCount != tt.want {
				t.Errorf("PairedCount = %d, want %d", got.PairedCount, tt.want)
			}
			if got.PairedCount*2 > got.TotalPhotos {
				t.Errorf("PairedCount %d exceeds half of %d", got.PairedCount, got.TotalPhotos)
			}
			if got.Cameras == nil || got.Lenses == nil {
				t.Error("maps must be non-nil")
			}
		})
	}
}

func TestAggregateOrderIndependent(t *testing.T) {
	photos := []library.Photo{
		paired(photo("a", library.FileTypeRaw, library.ExifData{CameraModel: library.Ptr("X")}), "b"),
		paired(photo("b", library.FileTypeJPEG, library.ExifData{CameraModel: library.Ptr("X")}), "a"),
		photo("c", library.FileTypeJPEG, library.ExifData{LensModel: library.Ptr("L")}),
		paired(photo("d", library.FileTypeRaw, library.ExifData{}), "e"),
		paired(photo("e", library.FileTypeJPEG, library.ExifData{}), "d"),
	}
	want := Aggregate(photos)

	r := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := append([]library.Photo(nil), photos...)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		if got := Aggregate(shuffled); !reflect.DeepEqual(got, want) {
			t.Fatalf("Aggregate(shuffled) = %+v, want %+v", got, want)
		}
	}
}
