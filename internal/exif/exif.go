package exif

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	goexif "github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"

	"hologram/internal/filesystem"
	"hologram/internal/library"
	"hologram/internal/logging"
	"hologram/internal/mediatypes"
	"hologram/internal/metrics"
)

// HeadSize is how much of a file is handed to the decoder on the first
// attempt. EXIF blocks of JPEG files and the IFDs of TIFF-based RAW files
// sit well inside it; the whole file is only read when the IFD chain
// points past it.
const HeadSize = 4 << 20

func init() {
	goexif.RegisterParsers(mknote.All...)
}

// Extractor recovers ExifData for a file.
type Extractor interface {
	Extract(path string) (library.ExifData, error)
}

// Reader is the goexif-backed Extractor.
type Reader struct {
	retry filesystem.RetryConfig
}

// New returns a Reader using the default filesystem retry policy.
func New() *Reader {
	return &Reader{retry: filesystem.DefaultRetryConfig()}
}

// NewWithRetry returns a Reader with a custom retry policy.
func NewWithRetry(cfg filesystem.RetryConfig) *Reader {
	return &Reader{retry: cfg}
}

// Extract opens path and returns whatever metadata could be recovered.
// The error is non-nil only when the file cannot be opened or read.
func (r *Reader) Extract(path string) (library.ExifData, error) {
	typeLabel := string(mediatypes.ClassifyExt(filepath.Ext(path)))

	f, err := filesystem.OpenWithRetry(path, r.retry)
	if err != nil {
		metrics.ExifExtractionsTotal.WithLabelValues(typeLabel, "error").Inc()
		return library.ExifData{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	data, err := extract(f)
	if err != nil {
		metrics.ExifExtractionsTotal.WithLabelValues(typeLabel, "error").Inc()
		return library.ExifData{}, fmt.Errorf("read %s: %w", path, err)
	}

	status := "ok"
	if data.IsEmpty() {
		status = "empty"
	}
	metrics.ExifExtractionsTotal.WithLabelValues(typeLabel, status).Inc()
	return data, nil
}

// ExtractReader recovers metadata from rs. Read failures yield an empty
// result.
func ExtractReader(rs io.ReadSeeker) library.ExifData {
	data, err := extract(rs)
	if err != nil {
		logging.Debug("exif: read failed: %v", err)
	}
	return data
}

func extract(rs io.ReadSeeker) (library.ExifData, error) {
	x, err := decodeSeeker(rs)
	if err != nil {
		var rerr readError
		if errors.As(err, &rerr) {
			return library.ExifData{}, rerr.err
		}
		logging.Debug("exif: no usable metadata: %v", err)
	}

	var data library.ExifData
	if x != nil {
		data = normalize(x)
	}

	if data.Width == nil || data.Height == nil {
		if w, h, ok := decodeDimensions(rs); ok {
			data.Width, data.Height = library.Ptr(w), library.Ptr(h)
		}
	}
	return data, nil
}

type readError struct{ err error }

func (e readError) Error() string { return e.err.Error() }

// decodeSeeker tries the head of rs first and falls back to the whole
// stream when the head was too short to hold the TIFF structure.
func decodeSeeker(rs io.ReadSeeker) (*goexif.Exif, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, readError{err}
	}
	head := make([]byte, HeadSize)
	n, err := io.ReadFull(rs, head)
	truncated := true
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		truncated = false
	case err != nil:
		return nil, readError{err}
	}
	head = head[:n]
	rewriteRawMagic(head)

	x, err := decode(bytes.NewReader(head))
	if err == nil || !truncated || !isTIFF(head) {
		return x, err
	}

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, readError{err}
	}
	all, err := io.ReadAll(rs)
	if err != nil {
		return nil, readError{err}
	}
	rewriteRawMagic(all)
	return decode(bytes.NewReader(all))
}

func isTIFF(b []byte) bool {
	return bytes.HasPrefix(b, []byte("II*\x00")) || bytes.HasPrefix(b, []byte("MM\x00*"))
}

// Olympus ORF and Panasonic RW2 are TIFF with a vendor magic number in
// place of 42. The IFD layout and offsets are plain TIFF.
var rawMagic = map[string]string{
	"IIRO":     "II*\x00",
	"IIRS":     "II*\x00",
	"MMOR":     "MM\x00*",
	"IIU\x00": "II*\x00",
}

// rewriteRawMagic swaps a vendor header for the TIFF one in place so the
// TIFF decoder accepts it.
func rewriteRawMagic(b []byte) {
	if len(b) < 4 {
		return
	}
	if tiff, ok := rawMagic[string(b[:4])]; ok {
		copy(b, tiff)
	}
}

// decode runs goexif, keeping partial results and turning parser panics
// into errors.
func decode(r io.Reader) (x *goexif.Exif, err error) {
	defer func() {
		if p := recover(); p != nil {
			x, err = nil, fmt.Errorf("exif parser panic: %v", p)
		}
	}()

	x, err = goexif.Decode(r)
	if err != nil {
		// A non-nil x means the TIFF structure decoded and only a sub-IFD
		// or a maker-note parser failed; the fields loaded so far stand.
		if x != nil {
			logging.Debug("exif: partial decode (critical=%t): %v", goexif.IsCriticalError(err), err)
			return x, nil
		}
		return nil, err
	}
	return x, nil
}
