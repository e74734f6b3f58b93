package media

import (
	"path/filepath"
	"time"
)

// File is a handle backed by a local file, used by the filesystem and
// library export sources.
type File struct {
	Path    string
	Type    string
	Created time.Time
}

// Key returns the absolute path.
func (f *File) Key() string {
	if abs, err := filepath.Abs(f.Path); err == nil {
		return abs
	}
	return f.Path
}

// Name returns the base file name.
func (f *File) Name() string { return filepath.Base(f.Path) }

// Kind returns the type identifier.
func (f *File) Kind() string { return f.Type }

// Captured returns the capture or creation time.
func (f *File) Captured() time.Time { return f.Created }
