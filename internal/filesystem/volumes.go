package filesystem

import (
	"cmp"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// UnknownVolume labels paths outside every configured root.
const UnknownVolume = "unknown"

// VolumeResolver labels paths by the library root that holds them. Nested
// roots resolve to the innermost one.
type VolumeResolver struct {
	roots []libraryRoot // deepest first
}

type libraryRoot struct {
	dir   string
	label string
}

// NewVolumeResolver takes label -> root folder.
//
//	NewVolumeResolver(map[string]string{
//		"archive": "/mnt/photos/archive",
//		"inbox":   "/home/me/Pictures",
//	})
func NewVolumeResolver(volumes map[string]string) *VolumeResolver {
	vr := &VolumeResolver{roots: make([]libraryRoot, 0, len(volumes))}
	for label, dir := range volumes {
		vr.roots = append(vr.roots, libraryRoot{dir: absClean(dir), label: label})
	}
	slices.SortFunc(vr.roots, func(a, b libraryRoot) int {
		return cmp.Compare(len(b.dir), len(a.dir))
	})
	return vr
}

func absClean(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

// within reports whether p is dir or below it. Both must be clean.
func within(dir, p string) bool {
	if p == dir {
		return true
	}
	if !strings.HasSuffix(dir, string(os.PathSeparator)) {
		dir += string(os.PathSeparator)
	}
	return strings.HasPrefix(p, dir)
}

// Resolve returns the label of the innermost root holding path, or
// UnknownVolume.
func (vr *VolumeResolver) Resolve(path string) string {
	if vr == nil {
		return UnknownVolume
	}
	p := absClean(path)
	for _, r := range vr.roots {
		if within(r.dir, p) {
			return r.label
		}
	}
	return UnknownVolume
}

// Contains reports whether path lies under a configured root. A resolver
// without roots contains everything.
func (vr *VolumeResolver) Contains(path string) bool {
	if vr == nil || len(vr.roots) == 0 {
		return true
	}
	return vr.Resolve(path) != UnknownVolume
}

// Names returns the labels in sorted order.
func (vr *VolumeResolver) Names() []string {
	if vr == nil {
		return nil
	}
	names := make([]string, len(vr.roots))
	for i, r := range vr.roots {
		names[i] = r.label
	}
	slices.Sort(names)
	return names
}

var defaultResolver *VolumeResolver

// SetDefaultVolumeResolver installs the resolver used when a RetryConfig
// carries none.
func SetDefaultVolumeResolver(vr *VolumeResolver) {
	defaultResolver = vr
}

func DefaultVolumeResolver() *VolumeResolver {
	return defaultResolver
}
