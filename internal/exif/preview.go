package exif

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	goexif "github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// ErrNoPreview is returned when a file carries no usable embedded preview.
var ErrNoPreview = errors.New("no embedded preview")

var jpegSOI = []byte{0xFF, 0xD8}

const (
	tagCompression     = 0x0103
	tagStripOffsets    = 0x0111
	tagStripByteCounts = 0x0117

	compressionOldJPEG = 6
	compressionJPEG    = 7
)

// EmbeddedPreview returns the largest JPEG preview the file carries in its
// EXIF structure: the JPEG-compressed IFD0 strip of CR2-style containers,
// else the IFD1 thumbnail. The bytes are copied out of the decoder's buffer.
func EmbeddedPreview(rs io.ReadSeeker) ([]byte, error) {
	x, err := decodeSeeker(rs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoPreview, err)
	}
	if x == nil {
		return nil, ErrNoPreview
	}

	if b := stripPreview(x); b != nil {
		return b, nil
	}
	return thumbnail(x)
}

func thumbnail(x *goexif.Exif) (preview []byte, err error) {
	defer func() {
		if p := recover(); p != nil {
			preview, err = nil, fmt.Errorf("%w: bad thumbnail offsets: %v", ErrNoPreview, p)
		}
	}()

	b, err := x.JpegThumbnail()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoPreview, err)
	}
	if !bytes.HasPrefix(b, jpegSOI) {
		return nil, fmt.Errorf("%w: not a JPEG stream", ErrNoPreview)
	}
	return bytes.Clone(b), nil
}

// stripPreview returns IFD0's image data when it is a single JPEG strip
// lying inside the decoded buffer.
func stripPreview(x *goexif.Exif) []byte {
	if x.Tiff == nil || len(x.Tiff.Dirs) == 0 {
		return nil
	}

	var compression, offset, length int64 = -1, -1, -1
	for _, t := range x.Tiff.Dirs[0].Tags {
		switch t.Id {
		case tagCompression:
			compression = firstInt(t)
		case tagStripOffsets:
			if t.Count == 1 {
				offset = firstInt(t)
			}
		case tagStripByteCounts:
			if t.Count == 1 {
				length = firstInt(t)
			}
		}
	}

	if compression != compressionOldJPEG && compression != compressionJPEG {
		return nil
	}
	if offset <= 0 || length <= 0 || offset+length > int64(len(x.Raw)) {
		return nil
	}
	b := x.Raw[offset : offset+length]
	if !bytes.HasPrefix(b, jpegSOI) {
		return nil
	}
	return bytes.Clone(b)
}

func firstInt(t *tiff.Tag) int64 {
	if t.Count == 0 || t.Format() != tiff.IntVal {
		return -1
	}
	v, err := t.Int64(0)
	if err != nil {
		return -1
	}
	return v
}
