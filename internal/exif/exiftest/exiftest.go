// Package exiftest builds small EXIF-bearing JPEG and TIFF files for tests.
package exiftest

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"sort"
)

// Tags lists the fields written into a fixture. Zero values are omitted.
type Tags struct {
	Make        string
	Model       string
	LensModel   string
	Orientation uint16

	// Rationals as {numerator, denominator}.
	FocalLength  [2]uint32
	FNumber      [2]uint32
	ExposureTime [2]uint32

	ISO                uint16
	DateTimeOriginal   string // "2006:01:02 15:04:05"
	OffsetTimeOriginal string // "+02:00"
	PixelXDimension    uint32
	PixelYDimension    uint32

	Flash        *uint16
	WhiteBalance *uint16
	ExposureMode *uint16

	// Thumbnail is stored as the IFD1 JPEG preview when set.
	Thumbnail []byte

	// Preview is stored as the JPEG-compressed IFD0 strip, the way Canon
	// CR2 files carry their large preview.
	Preview []byte
}

// U16 returns a pointer to v.
func U16(v uint16) *uint16 { return &v }

const (
	typeASCII    = 2
	typeShort    = 3
	typeLong     = 4
	typeRational = 5
)

type entry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

var order = binary.LittleEndian

func ascii(tag uint16, s string) entry {
	b := append([]byte(s), 0)
	return entry{tag: tag, typ: typeASCII, count: uint32(len(b)), data: b}
}

func short(tag uint16, v uint16) entry {
	b := make([]byte, 2)
	order.PutUint16(b, v)
	return entry{tag: tag, typ: typeShort, count: 1, data: b}
}

func long(tag uint16, v uint32) entry {
	b := make([]byte, 4)
	order.PutUint32(b, v)
	return entry{tag: tag, typ: typeLong, count: 1, data: b}
}

func rational(tag uint16, r [2]uint32) entry {
	b := make([]byte, 8)
	order.PutUint32(b[0:], r[0])
	order.PutUint32(b[4:], r[1])
	return entry{tag: tag, typ: typeRational, count: 1, data: b}
}

// encodeIFD lays out an IFD starting at offset start, with out-of-line
// values following the directory. next is the offset of the next IFD.
func encodeIFD(entries []entry, start, next uint32) []byte {
	sort.Slice(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })

	dirSize := uint32(2 + 12*len(entries) + 4)
	dataOff := start + dirSize

	var dir, data bytes.Buffer
	_ = binary.Write(&dir, order, uint16(len(entries)))
	for _, e := range entries {
		_ = binary.Write(&dir, order, e.tag)
		_ = binary.Write(&dir, order, e.typ)
		_ = binary.Write(&dir, order, e.count)
		if len(e.data) <= 4 {
			v := make([]byte, 4)
			copy(v, e.data)
			dir.Write(v)
			continue
		}
		_ = binary.Write(&dir, order, dataOff+uint32(data.Len()))
		data.Write(e.data)
		if data.Len()%2 == 1 {
			data.WriteByte(0)
		}
	}
	_ = binary.Write(&dir, order, next)
	return append(dir.Bytes(), data.Bytes()...)
}

// TIFF returns a little-endian TIFF container holding tags, laid out like
// the header of a TIFF-based RAW file.
func TIFF(t Tags) []byte {
	var ifd0, exifIFD []entry

	if t.Make != "" {
		ifd0 = append(ifd0, ascii(0x010F, t.Make))
	}
	if t.Model != "" {
		ifd0 = append(ifd0, ascii(0x0110, t.Model))
	}
	if t.Orientation != 0 {
		ifd0 = append(ifd0, short(0x0112, t.Orientation))
	}

	if t.ExposureTime[1] != 0 {
		exifIFD = append(exifIFD, rational(0x829A, t.ExposureTime))
	}
	if t.FNumber[1] != 0 {
		exifIFD = append(exifIFD, rational(0x829D, t.FNumber))
	}
	if t.ISO != 0 {
		exifIFD = append(exifIFD, short(0x8827, t.ISO))
	}
	if t.DateTimeOriginal != "" {
		exifIFD = append(exifIFD, ascii(0x9003, t.DateTimeOriginal))
	}
	if t.OffsetTimeOriginal != "" {
		exifIFD = append(exifIFD, ascii(0x9011, t.OffsetTimeOriginal))
	}
	if t.Flash != nil {
		exifIFD = append(exifIFD, short(0x9209, *t.Flash))
	}
	if t.FocalLength[1] != 0 {
		exifIFD = append(exifIFD, rational(0x920A, t.FocalLength))
	}
	if t.PixelXDimension != 0 {
		exifIFD = append(exifIFD, long(0xA002, t.PixelXDimension))
	}
	if t.PixelYDimension != 0 {
		exifIFD = append(exifIFD, long(0xA003, t.PixelYDimension))
	}
	if t.ExposureMode != nil {
		exifIFD = append(exifIFD, short(0xA402, *t.ExposureMode))
	}
	if t.WhiteBalance != nil {
		exifIFD = append(exifIFD, short(0xA403, *t.WhiteBalance))
	}
	if t.LensModel != "" {
		exifIFD = append(exifIFD, ascii(0xA434, t.LensModel))
	}

	const headerSize = 8
	hasExif := len(exifIFD) > 0
	if hasExif {
		ifd0 = append(ifd0, long(0x8769, 0))
	}
	if len(t.Preview) > 0 {
		ifd0 = append(ifd0,
			short(0x0103, 6),
			long(0x0111, 0),
			long(0x0117, uint32(len(t.Preview))),
		)
	}

	// Pointer values do not change an IFD's size, so a first pass with
	// placeholders fixes the layout.
	ifd0Size := uint32(len(encodeIFD(append([]entry(nil), ifd0...), headerSize, 0)))
	exifStart := headerSize + ifd0Size

	var exifBytes []byte
	if hasExif {
		exifBytes = encodeIFD(exifIFD, exifStart, 0)
	}

	var ifd1Bytes []byte
	next := uint32(0)
	ifd1Start := exifStart + uint32(len(exifBytes))
	if len(t.Thumbnail) > 0 {
		next = ifd1Start
		thumbOff := ifd1Start + uint32(2+12*2+4)
		ifd1Bytes = encodeIFD([]entry{
			long(0x0201, thumbOff),
			long(0x0202, uint32(len(t.Thumbnail))),
		}, ifd1Start, 0)
		ifd1Bytes = append(ifd1Bytes, t.Thumbnail...)
	}
	previewStart := ifd1Start + uint32(len(ifd1Bytes))

	for i := range ifd0 {
		switch ifd0[i].tag {
		case 0x8769:
			ifd0[i] = long(0x8769, exifStart)
		case 0x0111:
			ifd0[i] = long(0x0111, previewStart)
		}
	}
	ifd0Bytes := encodeIFD(ifd0, headerSize, next)

	var buf bytes.Buffer
	buf.WriteString("II")
	_ = binary.Write(&buf, order, uint16(42))
	_ = binary.Write(&buf, order, uint32(headerSize))
	buf.Write(ifd0Bytes)
	buf.Write(exifBytes)
	buf.Write(ifd1Bytes)
	buf.Write(t.Preview)
	return buf.Bytes()
}

// JPEG encodes img and inserts an APP1 EXIF segment holding tags.
func JPEG(t Tags, img image.Image) ([]byte, error) {
	var encoded bytes.Buffer
	if err := jpeg.Encode(&encoded, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, err
	}

	payload := append([]byte("Exif\x00\x00"), TIFF(t)...)

	var out bytes.Buffer
	out.Write([]byte{0xFF, 0xD8, 0xFF, 0xE1})
	_ = binary.Write(&out, binary.BigEndian, uint16(len(payload)+2))
	out.Write(payload)
	out.Write(encoded.Bytes()[2:])
	return out.Bytes(), nil
}

// Gradient returns a w x h image with a diagonal gradient, so resized
// output is not uniform.
func Gradient(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 255})
		}
	}
	return img
}

// PlainJPEG encodes a w x h gradient without metadata.
func PlainJPEG(w, h int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, Gradient(w, h), &jpeg.Options{Quality: 85}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
