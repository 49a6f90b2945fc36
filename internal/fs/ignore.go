package fs

import (
	"path"
	"strings"
)

// Finder metadata and AppleDouble companions show up in bundles copied
// through non-HFS volumes. They are never records.
var defaultIgnorePatterns = []string{".DS_Store", "._*"}

// NameFilter rejects directory entries by name. The lister walks one
// directory at a time, so globs see an entry name, never a path.
type NameFilter struct {
	globs []string
}

// NewNameFilter builds a filter from [filesystem] ignore lines. Blank
// lines, #-comments, globs containing a separator and malformed globs are
// dropped.
func NewNameFilter(lines []string) *NameFilter {
	f := &NameFilter{}
	for _, line := range lines {
		g := strings.TrimSpace(line)
		if g == "" || strings.HasPrefix(g, "#") || strings.Contains(g, "/") {
			continue
		}
		if _, err := path.Match(g, ""); err != nil {
			continue
		}
		f.globs = append(f.globs, g)
	}
	return f
}

// Skip reports whether the entry called name is ignored.
func (f *NameFilter) Skip(name string) bool {
	if name == "" {
		return false
	}
	for _, g := range f.globs {
		if ok, _ := path.Match(g, name); ok {
			return true
		}
	}
	return false
}
