// Package picker implements the file picker behind the image and video
// modes: extension filters and directory browsing.
package picker

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// ErrNotAllowed is returned when a path does not match the filter.
var ErrNotAllowed = errors.New("picker: file type not allowed")

// Filter restricts the picker to a set of file extensions.
type Filter struct {
	Name       string   `json:"name"`
	Extensions []string `json:"extensions"` // Lower case, with leading dot
}

// Images accepts the still image formats.
var Images = Filter{
	Name:       "Image files",
	Extensions: []string{".png", ".jpg", ".jpeg", ".bmp", ".gif"},
}

// Videos accepts the video container formats.
var Videos = Filter{
	Name:       "Video files",
	Extensions: []string{".mp4", ".avi", ".mov", ".mkv"},
}

// Match reports whether path has one of the filter's extensions.
// Matching is case-insensitive.
func (f Filter) Match(path string) bool {
	return lo.Contains(f.Extensions, strings.ToLower(filepath.Ext(path)))
}

// Pattern renders the filter the way file dialogs show it, e.g. "*.png *.jpg".
func (f Filter) Pattern() string {
	return strings.Join(lo.Map(f.Extensions, func(ext string, _ int) string {
		return "*" + ext
	}), " ")
}

// Check returns ErrNotAllowed for paths outside the filter.
func (f Filter) Check(path string) error {
	if !f.Match(path) {
		return fmt.Errorf("%w: %s (expected %s)", ErrNotAllowed, filepath.Base(path), f.Pattern())
	}
	return nil
}

// Entry is one item in a directory listing.
type Entry struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	IsDir bool   `json:"is_dir"`
	Size  int64  `json:"size"`
}

// Listing is the result of browsing a directory.
type Listing struct {
	Dir     string  `json:"dir"`
	Parent  string  `json:"parent"` // Empty at the filesystem root
	Entries []Entry `json:"entries"`
}

// Browse lists dir: sub-directories first, then files matching filter,
// each group sorted by name. Hidden entries are skipped.
func Browse(dir string, filter Filter) (Listing, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Listing{}, fmt.Errorf("picker: resolve %s: %w", dir, err)
	}

	items, err := os.ReadDir(abs)
	if err != nil {
		return Listing{}, fmt.Errorf("picker: read %s: %w", abs, err)
	}

	listing := Listing{Dir: abs, Entries: []Entry{}}
	if parent := filepath.Dir(abs); parent != abs {
		listing.Parent = parent
	}

	for _, item := range items {
		name := item.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		full := filepath.Join(abs, name)
		isDir := item.IsDir()
		if item.Type()&os.ModeSymlink != 0 {
			if info, err := os.Stat(full); err == nil {
				isDir = info.IsDir()
			}
		}

		if !isDir && !filter.Match(name) {
			continue
		}

		entry := Entry{Name: name, Path: full, IsDir: isDir}
		if !isDir {
			if info, err := item.Info(); err == nil {
				entry.Size = info.Size()
			}
		}
		listing.Entries = append(listing.Entries, entry)
	}

	sort.SliceStable(listing.Entries, func(i, j int) bool {
		a, b := listing.Entries[i], listing.Entries[j]
		if a.IsDir != b.IsDir {
			return a.IsDir
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})

	return listing, nil
}
