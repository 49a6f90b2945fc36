package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"aplib-go/internal/aplib"
)

// BundleLister lists the record files of a library bundle on the real
// filesystem. Entries rejected by the name filter are skipped.
type BundleLister struct {
	ignore *NameFilter
}

// NewBundleLister creates a lister applying the default ignore patterns
// plus extra.
func NewBundleLister(extra []string) *BundleLister {
	patterns := append(append([]string(nil), defaultIgnorePatterns...), extra...)
	return &BundleLister{ignore: NewNameFilter(patterns)}
}

// List returns the regular files directly in dir whose extension is ext.
// A missing dir is not an error.
func (l *BundleLister) List(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	suffix := "." + ext
	var paths []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, suffix) || l.ignore.Skip(name) {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	sort.Strings(paths)
	return paths, nil
}

// ListTree lists the files with extension ext in every directory found
// depth+1 levels below dir.
func (l *BundleLister) ListTree(dir string, depth int, ext string) ([]string, error) {
	dirs, err := l.directoriesAt(dir, depth)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, d := range dirs {
		files, err := l.List(d, ext)
		if err != nil {
			return nil, err
		}
		paths = append(paths, files...)
	}
	sort.Strings(paths)
	return paths, nil
}

func (l *BundleLister) directoriesAt(dir string, depth int) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	var dirs []string
	for _, entry := range entries {
		if !entry.IsDir() || l.ignore.Skip(entry.Name()) {
			continue
		}
		p := filepath.Join(dir, entry.Name())
		if depth == 0 {
			dirs = append(dirs, p)
			continue
		}
		sub, err := l.directoriesAt(p, depth-1)
		if err != nil {
			return nil, err
		}
		dirs = append(dirs, sub...)
	}
	return dirs, nil
}

// Compile-time check that BundleLister implements aplib.Lister.
var _ aplib.Lister = (*BundleLister)(nil)
