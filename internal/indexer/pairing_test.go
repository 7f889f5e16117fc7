package indexer

import (
	"path/filepath"
	"testing"

	"hologram/internal/library"
	"hologram/internal/mediatypes"
)

func testPhoto(path string) library.Photo {
	return library.Photo{
		ID:       library.PhotoID(path),
		FilePath: path,
		FileName: filepath.Base(path),
		FileType: mediatypes.ClassifyExt(filepath.Ext(path)),
	}
}

func testPhotos(paths ...string) []library.Photo {
	out := make([]library.Photo, len(paths))
	for i, p := range paths {
		out[i] = testPhoto(p)
	}
	return out
}

func pairedName(t *testing.T, photos []library.Photo, name string) string {
	t.Helper()
	byID := make(map[string]library.Photo, len(photos))
	for _, p := range photos {
		byID[p.ID] = p
	}
	for _, p := range photos {
		if p.FileName != name {
			continue
		}
		if p.PairedWith == nil {
			return ""
		}
		sib, ok := byID[*p.PairedWith]
		if !ok {
			t.Fatalf("%s is paired with unknown id %s", name, *p.PairedWith)
		}
		return sib.FileName
	}
	t.Fatalf("no photo named %s", name)
	return ""
}

func TestPair(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		want  map[string]string
	}{
		{
			name:  "raw and jpeg with same stem",
			paths: []string{"/lib/IMG_0001.CR2", "/lib/IMG_0001.JPG", "/lib/IMG_0002.JPG"},
			want:  map[string]string{"IMG_0001.CR2": "IMG_0001.JPG", "IMG_0001.JPG": "IMG_0001.CR2", "IMG_0002.JPG": ""},
		},
		{
			name:  "stem match is case insensitive",
			paths: []string{"/lib/dsc_0001.nef", "/lib/DSC_0001.JPG"},
			want:  map[string]string{"dsc_0001.nef": "DSC_0001.JPG", "DSC_0001.JPG": "dsc_0001.nef"},
		},
		{
			name:  "different directories never pair",
			paths: []string{"/lib/a/IMG_0001.CR2", "/lib/b/IMG_0001.JPG"},
			want:  map[string]string{"IMG_0001.CR2": "", "IMG_0001.JPG": ""},
		},
		{
			name:  "two jpegs never pair with each other",
			paths: []string{"/lib/IMG_0001.JPG", "/lib/IMG_0001.jpeg"},
			want:  map[string]string{"IMG_0001.JPG": "", "IMG_0001.jpeg": ""},
		},
		{
			name:  "higher priority raw wins",
			paths: []string{"/lib/IMG_0001.DNG", "/lib/IMG_0001.CR3", "/lib/IMG_0001.JPG"},
			want:  map[string]string{"IMG_0001.CR3": "IMG_0001.JPG", "IMG_0001.DNG": "", "IMG_0001.JPG": "IMG_0001.CR3"},
		},
		{
			name:  "jpg preferred over jpeg",
			paths: []string{"/lib/IMG_0001.jpeg", "/lib/IMG_0001.ARW", "/lib/IMG_0001.jpg"},
			want:  map[string]string{"IMG_0001.ARW": "IMG_0001.jpg", "IMG_0001.jpg": "IMG_0001.ARW", "IMG_0001.jpeg": ""},
		},
		{
			name:  "only raws",
			paths: []string{"/lib/IMG_0001.CR2", "/lib/IMG_0001.DNG"},
			want:  map[string]string{"IMG_0001.CR2": "", "IMG_0001.DNG": ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paired := Pair(testPhotos(tt.paths...))
			if len(paired) != len(tt.paths) {
				t.Fatalf("Pair() returned %d photos, want %d", len(paired), len(tt.paths))
			}
			for name, want := range tt.want {
				if got := pairedName(t, paired, name); got != want {
					t.Errorf("%s paired with %q, want %q", name, got, want)
				}
			}
		})
	}
}

func TestPairDoesNotMutateInput(t *testing.T) {
	in := testPhotos("/lib/IMG_0001.CR2", "/lib/IMG_0001.JPG")
	_ = Pair(in)
	for _, p := range in {
		if p.PairedWith != nil {
			t.Errorf("input %s was modified", p.FileName)
		}
	}
}

func TestPairIsOrderIndependent(t *testing.T) {
	paths := []string{"/lib/IMG_0001.jpeg", "/lib/IMG_0001.NEF", "/lib/IMG_0001.jpg", "/lib/IMG_0001.RAF"}
	reversed := make([]string, len(paths))
	for i, p := range paths {
		reversed[len(paths)-1-i] = p
	}

	a := ResolvePairs(testPhotos(paths...))
	b := ResolvePairs(testPhotos(reversed...))
	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("ResolvePairs() = %v and %v, want one link each", a, b)
	}
	if a[0] != b[0] {
		t.Errorf("ResolvePairs() depends on input order: %v vs %v", a[0], b[0])
	}
	if a[0].RawID != library.PhotoID("/lib/IMG_0001.NEF") {
		t.Errorf("RawID = %s, want the NEF", a[0].RawID)
	}
}

func TestResolvePairsSkipsAlreadyPaired(t *testing.T) {
	photos := testPhotos("/lib/IMG_0001.CR2", "/lib/IMG_0001.JPG", "/lib/IMG_0001.jpeg")
	photos[1].PairedWith = library.Ptr("elsewhere")

	links := ResolvePairs(photos)
	if len(links) != 1 {
		t.Fatalf("ResolvePairs() = %v, want 1 link", links)
	}
	if links[0].JpegID != photos[2].ID {
		t.Errorf("JpegID = %s, want the unpaired .jpeg", links[0].JpegID)
	}
}

func TestBuildIndexPairsSymmetrically(t *testing.T) {
	photos := testPhotos("/lib/IMG_0001.CR2", "/lib/IMG_0001.JPG", "/lib/IMG_0002.JPG")
	idx, pairs := buildIndex(photos)
	if pairs != 1 {
		t.Fatalf("buildIndex() pairs = %d, want 1", pairs)
	}

	raw, _ := idx.Get(photos[0].ID)
	jpg, _ := idx.Get(photos[1].ID)
	lone, _ := idx.Get(photos[2].ID)
	if raw.PairedWith == nil || *raw.PairedWith != jpg.ID {
		t.Errorf("raw.PairedWith = %v, want %s", raw.PairedWith, jpg.ID)
	}
	if jpg.PairedWith == nil || *jpg.PairedWith != raw.ID {
		t.Errorf("jpg.PairedWith = %v, want %s", jpg.PairedWith, raw.ID)
	}
	if lone.PairedWith != nil {
		t.Errorf("lone.PairedWith = %v, want nil", *lone.PairedWith)
	}
}
