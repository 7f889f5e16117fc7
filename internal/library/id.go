package library

import (
	"path/filepath"

	"github.com/google/uuid"
)

// photoNamespace scopes photo IDs so they never collide with other
// name-based UUIDs derived from file paths.
var photoNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("hologram:photo"))

// PhotoID returns the stable ID for the file at absPath. The path is
// cleaned first so equivalent spellings map to the same ID.
func PhotoID(absPath string) string {
	return uuid.NewSHA1(photoNamespace, []byte(filepath.Clean(absPath))).String()
}
