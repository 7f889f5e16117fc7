package exif

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	goexif "github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
	"github.com/rwcarlsen/goexif/tiff"

	"hologram/internal/library"
)

const dateLayout = "2006:01:02 15:04:05"

// Tags in the Exif sub-IFD that goexif does not map to field names.
const (
	tagOffsetTime          = 0x9010
	tagOffsetTimeOriginal  = 0x9011
	tagOffsetTimeDigitized = 0x9012
)

func normalize(x *goexif.Exif) library.ExifData {
	var d library.ExifData

	d.CameraMake = stringField(x, goexif.Make)
	d.CameraModel = stringField(x, goexif.Model)
	d.LensModel = lensModel(x)
	d.FocalLength = focalLength(x)
	d.Aperture = aperture(x)
	d.ShutterSpeed = shutterSpeed(x)
	d.ISO = iso(x)
	d.ExposureMode = exposureMode(x)
	d.Flash = flash(x)
	d.WhiteBalance = whiteBalance(x)
	d.DateTaken = dateTaken(x)
	d.Width, d.Height = dimensions(x)
	d.Orientation = orientation(x)

	return d
}

func tag(x *goexif.Exif, name goexif.FieldName) *tiff.Tag {
	t, err := x.Get(name)
	if err != nil || t == nil || t.Count == 0 {
		return nil
	}
	return t
}

func cleanString(s string) string {
	return strings.TrimSpace(strings.Trim(s, "\x00 "))
}

func stringField(x *goexif.Exif, name goexif.FieldName) *string {
	t := tag(x, name)
	if t == nil {
		return nil
	}
	var s string
	switch t.Format() {
	case tiff.StringVal:
		v, err := t.StringVal()
		if err != nil {
			return nil
		}
		s = v
	case tiff.UndefVal:
		s = string(t.Val)
	default:
		return nil
	}
	s = cleanString(s)
	if s == "" {
		return nil
	}
	return &s
}

// number reads element i of a numeric tag as a float64. Rationals with a
// zero denominator are rejected.
func number(t *tiff.Tag, i int) (float64, bool) {
	if t == nil || i >= int(t.Count) {
		return 0, false
	}
	switch t.Format() {
	case tiff.RatVal:
		num, den, err := t.Rat2(i)
		if err != nil || den == 0 {
			return 0, false
		}
		return float64(num) / float64(den), true
	case tiff.IntVal:
		v, err := t.Int64(i)
		if err != nil {
			return 0, false
		}
		return float64(v), true
	case tiff.FloatVal:
		v, err := t.Float(i)
		if err != nil {
			return 0, false
		}
		return v, true
	}
	return 0, false
}

func positive(v float64, ok bool) (float64, bool) {
	if !ok || v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func lensModel(x *goexif.Exif) *string {
	if s := stringField(x, goexif.LensModel); s != nil {
		return s
	}

	// Nikon stores the lens as min/max focal length and min/max f-number.
	t := tag(x, mknote.Lens)
	if t == nil || t.Count < 4 {
		return nil
	}
	minF, ok1 := positive(number(t, 0))
	maxF, ok2 := positive(number(t, 1))
	minA, ok3 := positive(number(t, 2))
	if !ok1 || !ok2 || !ok3 {
		return nil
	}
	focal := strconv.FormatFloat(minF, 'f', -1, 64)
	if maxF != minF {
		focal += "-" + strconv.FormatFloat(maxF, 'f', -1, 64)
	}
	s := fmt.Sprintf("%smm f/%s", focal, strconv.FormatFloat(round(minA, 1), 'f', -1, 64))
	return &s
}

func focalLength(x *goexif.Exif) *float64 {
	if t := tag(x, goexif.FocalLength); t != nil {
		idx := 0
		// The Canon maker note reuses the field name for a short array
		// whose second element is the focal length in mm.
		if t.Format() == tiff.IntVal && t.Count >= 2 {
			idx = 1
		}
		if v, ok := positive(number(t, idx)); ok {
			return library.Ptr(round(v, 2))
		}
	}
	if v, ok := positive(number(tag(x, goexif.FocalLengthIn35mmFilm), 0)); ok {
		return library.Ptr(v)
	}
	return nil
}

func aperture(x *goexif.Exif) *float64 {
	if v, ok := positive(number(tag(x, goexif.FNumber), 0)); ok {
		return library.Ptr(round(v, 2))
	}
	// APEX aperture value: N = 2^(Av/2).
	if av, ok := number(tag(x, goexif.ApertureValue), 0); ok {
		if v, ok := positive(math.Pow(2, av/2), true); ok {
			return library.Ptr(round(v, 1))
		}
	}
	return nil
}

func iso(x *goexif.Exif) *uint32 {
	if v, ok := positive(number(tag(x, goexif.ISOSpeedRatings), 0)); ok && v <= math.MaxUint32 {
		return library.Ptr(uint32(v))
	}
	// Nikon: [0, iso].
	if t := tag(x, mknote.ISOSpeed); t != nil && t.Count >= 2 {
		if v, ok := positive(number(t, 1)); ok && v <= math.MaxUint32 {
			return library.Ptr(uint32(v))
		}
	}
	return nil
}

// FormatShutter renders an exposure time in seconds the way cameras show
// it: "1/250" below one second, "2.5" otherwise.
func FormatShutter(seconds float64) string {
	if seconds < 1 {
		return fmt.Sprintf("1/%d", int64(math.Round(1/seconds)))
	}
	return strconv.FormatFloat(round(seconds, 1), 'f', -1, 64)
}

func shutterSpeed(x *goexif.Exif) *string {
	if t := tag(x, goexif.ExposureTime); t != nil && t.Format() == tiff.RatVal {
		num, den, err := t.Rat2(0)
		if err == nil && num > 0 && den > 0 {
			// Keep the camera's own fraction when it is already 1/N.
			if num == 1 {
				s := fmt.Sprintf("1/%d", den)
				return &s
			}
			s := FormatShutter(float64(num) / float64(den))
			return &s
		}
	}
	if v, ok := positive(number(tag(x, goexif.ExposureTime), 0)); ok {
		s := FormatShutter(v)
		return &s
	}
	// APEX shutter speed value: t = 2^-Tv.
	if tv, ok := number(tag(x, goexif.ShutterSpeedValue), 0); ok {
		if v, ok := positive(math.Pow(2, -tv), true); ok {
			s := FormatShutter(v)
			return &s
		}
	}
	return nil
}

func intField(x *goexif.Exif, name goexif.FieldName) (int64, bool) {
	t := tag(x, name)
	if t == nil || t.Format() != tiff.IntVal {
		return 0, false
	}
	v, err := t.Int64(0)
	if err != nil {
		return 0, false
	}
	return v, true
}

var exposureModes = map[int64]string{
	0: "Auto",
	1: "Manual",
	2: "Auto bracket",
}

var exposurePrograms = map[int64]string{
	1: "Manual",
	2: "Program AE",
	3: "Aperture priority",
	4: "Shutter priority",
	5: "Creative",
	6: "Action",
	7: "Portrait",
	8: "Landscape",
}

func exposureMode(x *goexif.Exif) *string {
	if v, ok := intField(x, goexif.ExposureMode); ok {
		if s, ok := exposureModes[v]; ok {
			return &s
		}
	}
	if v, ok := intField(x, goexif.ExposureProgram); ok {
		if s, ok := exposurePrograms[v]; ok {
			return &s
		}
	}
	return nil
}

func flash(x *goexif.Exif) *string {
	v, ok := intField(x, goexif.Flash)
	if !ok {
		return nil
	}
	var s string
	switch {
	case v&0x20 != 0:
		s = "No flash function"
	case v&0x01 != 0:
		s = "Fired"
	default:
		s = "Did not fire"
	}
	return &s
}

func whiteBalance(x *goexif.Exif) *string {
	v, ok := intField(x, goexif.WhiteBalance)
	if !ok {
		return nil
	}
	var s string
	switch v {
	case 0:
		s = "Auto"
	case 1:
		s = "Manual"
	default:
		return nil
	}
	return &s
}

func dateTaken(x *goexif.Exif) *time.Time {
	fields := []struct {
		name   goexif.FieldName
		offset uint16
	}{
		{goexif.DateTimeOriginal, tagOffsetTimeOriginal},
		{goexif.DateTimeDigitized, tagOffsetTimeDigitized},
		{goexif.DateTime, tagOffsetTime},
	}

	for _, f := range fields {
		s := stringField(x, f.name)
		if s == nil {
			continue
		}
		loc := zone(x, f.offset)
		t, err := time.ParseInLocation(dateLayout, *s, loc)
		if err != nil || t.Year() <= 1 {
			continue
		}
		t = t.UTC()
		return &t
	}
	return nil
}

// zone resolves the offset recorded for a timestamp: the matching
// OffsetTime* tag, then the Canon maker-note time zone, then UTC.
func zone(x *goexif.Exif, offsetTag uint16) *time.Location {
	if t := exifDirTag(x, offsetTag); t != nil && t.Format() == tiff.StringVal {
		if s, err := t.StringVal(); err == nil {
			if loc, ok := parseOffset(cleanString(s)); ok {
				return loc
			}
		}
	}
	if loc, err := x.TimeZone(); err == nil && loc != nil {
		return loc
	}
	return time.UTC
}

// parseOffset parses "+HH:MM" / "-HH:MM".
func parseOffset(s string) (*time.Location, bool) {
	if len(s) != 6 || (s[0] != '+' && s[0] != '-') || s[3] != ':' {
		return nil, false
	}
	h, err1 := strconv.Atoi(s[1:3])
	m, err2 := strconv.Atoi(s[4:6])
	if err1 != nil || err2 != nil || h > 14 || m > 59 {
		return nil, false
	}
	secs := h*3600 + m*60
	if s[0] == '-' {
		secs = -secs
	}
	return time.FixedZone(s, secs), true
}

// exifDirTag finds a raw tag in the Exif sub-IFD by id.
func exifDirTag(x *goexif.Exif, id uint16) *tiff.Tag {
	if x.Tiff == nil || len(x.Raw) == 0 {
		return nil
	}
	off, ok := intField(x, goexif.ExifIFDPointer)
	if !ok || off <= 0 || off >= int64(len(x.Raw)) {
		return nil
	}
	r := bytes.NewReader(x.Raw)
	if _, err := r.Seek(off, io.SeekStart); err != nil {
		return nil
	}
	dir, _, err := tiff.DecodeDir(r, x.Tiff.Order)
	if err != nil {
		return nil
	}
	for _, t := range dir.Tags {
		if t.Id == id {
			return t
		}
	}
	return nil
}

func dimension(x *goexif.Exif, name goexif.FieldName) (uint32, bool) {
	v, ok := positive(number(tag(x, name), 0))
	if !ok || v > math.MaxUint32 {
		return 0, false
	}
	return uint32(v), true
}

func dimensions(x *goexif.Exif) (*uint32, *uint32) {
	w, okW := dimension(x, goexif.PixelXDimension)
	h, okH := dimension(x, goexif.PixelYDimension)
	if okW && okH {
		return &w, &h
	}
	w, okW = dimension(x, goexif.ImageWidth)
	h, okH = dimension(x, goexif.ImageLength)
	if okW && okH {
		return &w, &h
	}
	return nil, nil
}

func orientation(x *goexif.Exif) *uint16 {
	v, ok := intField(x, goexif.Orientation)
	if !ok || v < 1 || v > 8 {
		return nil
	}
	return library.Ptr(uint16(v))
}

// decodeDimensions reads the image header with the registered decoders.
func decodeDimensions(rs io.ReadSeeker) (uint32, uint32, bool) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return 0, 0, false
	}
	cfg, _, err := image.DecodeConfig(rs)
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, false
	}
	return uint32(cfg.Width), uint32(cfg.Height), true
}
