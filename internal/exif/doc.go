// Package exif recovers capture metadata from JPEG files and TIFF-based
// RAW containers.
//
// Decoding is delegated to github.com/rwcarlsen/goexif with the Canon and
// Nikon maker-note parsers registered. Every field of library.ExifData is
// optional: a missing tag, a malformed value or a parser failure leaves the
// field nil rather than failing the file. Only failing to open or read the
// file is reported as an error.
//
// The Reader is stateless and safe for concurrent use.
package exif
