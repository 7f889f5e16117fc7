package mediatypes

import (
	"bytes"
	"io"
	"os"

	"github.com/h2non/filetype"

	"hologram/internal/library"
)

// HeaderSize is the number of leading bytes Sniff needs.
const HeaderSize = 262

var (
	sigCR3   = []byte("ftypcrx ")
	sigRAF   = []byte("FUJIFILMCCD-RAW")
	sigRW2   = []byte("IIU\x00")
	sigORFLE = [][]byte{[]byte("IIRO"), []byte("IIRS")}
	sigORFBE = []byte("MMOR")
)

// Sniff classifies a file by its leading bytes. Only formats with an
// unambiguous signature are recognised; plain TIFF stays OTHER because
// TIFF-based RAW files cannot be told apart from ordinary TIFFs by header
// alone.
func Sniff(header []byte) library.FileType {
	switch {
	case len(header) >= 12 && bytes.Equal(header[4:12], sigCR3):
		return library.FileTypeRaw
	case bytes.HasPrefix(header, sigRAF):
		return library.FileTypeRaw
	case bytes.HasPrefix(header, sigRW2):
		return library.FileTypeRaw
	case bytes.HasPrefix(header, sigORFBE):
		return library.FileTypeRaw
	}
	for _, sig := range sigORFLE {
		if bytes.HasPrefix(header, sig) {
			return library.FileTypeRaw
		}
	}

	if filetype.Is(header, "jpg") {
		return library.FileTypeJPEG
	}
	if filetype.Is(header, "cr2") {
		return library.FileTypeRaw
	}
	return library.FileTypeOther
}

// SniffFile reads the header of the file at path and classifies it.
// Unreadable files are OTHER.
func SniffFile(path string) library.FileType {
	f, err := os.Open(path)
	if err != nil {
		return library.FileTypeOther
	}
	defer f.Close()

	header := make([]byte, HeaderSize)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF {
		return library.FileTypeOther
	}
	return Sniff(header[:n])
}
