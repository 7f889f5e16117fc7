// Package media renders photos for display: small base64 thumbnails
// produced during a scan and full-resolution images served on demand.
//
// The ThumbnailGenerator tries, in order:
//   - Embedded preview: the JPEG a camera stores inside the file's EXIF
//     structure, rotated by the EXIF orientation
//   - libvips: decode-time shrinking when vips has been started
//   - Decode: a full in-process decode bounded by MaxImagePixels
//
// The Loader returns JPEG files unchanged after verifying they decode, and
// converts RAW files to JPEG.
package media
