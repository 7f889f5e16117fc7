package mediatypes

import (
	"path/filepath"
	"strings"

	"hologram/internal/library"
)

// JPEGExtensions lists JPEG extensions in pairing preference order.
var JPEGExtensions = []string{".jpg", ".jpeg", ".jpe"}

// RawExtensions lists camera RAW extensions in pairing preference order.
// Native manufacturer containers come first; DNG, usually a conversion,
// comes last.
var RawExtensions = []string{
	".cr3", ".cr2", ".crw",
	".nef", ".nrw",
	".arw", ".srf", ".sr2",
	".raf",
	".orf",
	".rw2",
	".pef",
	".srw",
	".3fr",
	".iiq",
	".rwl",
	".dng",
}

var (
	jpegRank = rankOf(JPEGExtensions)
	rawRank  = rankOf(RawExtensions)
)

func rankOf(exts []string) map[string]int {
	m := make(map[string]int, len(exts))
	for i, ext := range exts {
		m[ext] = i
	}
	return m
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".jpe":  "image/jpeg",
	".cr2":  "image/x-canon-cr2",
	".cr3":  "image/x-canon-cr3",
	".crw":  "image/x-canon-crw",
	".nef":  "image/x-nikon-nef",
	".nrw":  "image/x-nikon-nrw",
	".arw":  "image/x-sony-arw",
	".srf":  "image/x-sony-srf",
	".sr2":  "image/x-sony-sr2",
	".raf":  "image/x-fuji-raf",
	".orf":  "image/x-olympus-orf",
	".rw2":  "image/x-panasonic-rw2",
	".pef":  "image/x-pentax-pef",
	".srw":  "image/x-samsung-srw",
	".3fr":  "image/x-hasselblad-3fr",
	".iiq":  "image/x-phaseone-iiq",
	".rwl":  "image/x-leica-rwl",
	".dng":  "image/x-adobe-dng",
}

// NormalizeExt lower-cases ext and ensures a leading dot.
func NormalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// ClassifyExt returns the FileType for an extension such as ".CR2" or "jpg".
func ClassifyExt(ext string) library.FileType {
	ext = NormalizeExt(ext)
	if _, ok := jpegRank[ext]; ok {
		return library.FileTypeJPEG
	}
	if _, ok := rawRank[ext]; ok {
		return library.FileTypeRaw
	}
	return library.FileTypeOther
}

// Classify determines the FileType of the file at path. The extension is
// trusted when it is known; otherwise the file header is sniffed.
func Classify(path string) library.FileType {
	if ft := ClassifyExt(filepath.Ext(path)); ft != library.FileTypeOther {
		return ft
	}
	return SniffFile(path)
}

// IsRaw reports whether ext is a RAW extension.
func IsRaw(ext string) bool {
	return ClassifyExt(ext) == library.FileTypeRaw
}

// IsJPEG reports whether ext is a JPEG extension.
func IsJPEG(ext string) bool {
	return ClassifyExt(ext) == library.FileTypeJPEG
}

// RawPriority ranks RAW extensions for pairing; lower wins. Unknown
// extensions rank after every known one.
func RawPriority(ext string) int {
	if r, ok := rawRank[NormalizeExt(ext)]; ok {
		return r
	}
	return len(RawExtensions)
}

// JPEGPriority ranks JPEG extensions for pairing; lower wins.
func JPEGPriority(ext string) int {
	if r, ok := jpegRank[NormalizeExt(ext)]; ok {
		return r
	}
	return len(JPEGExtensions)
}

// FormatName returns the display format for a file, e.g. "CR2".
func FormatName(path string) string {
	return strings.ToUpper(strings.TrimPrefix(filepath.Ext(path), "."))
}

// GetMimeType returns the MIME type for a given file extension.
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[NormalizeExt(ext)]; ok {
		return mime
	}
	return "application/octet-stream"
}
