package download

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"media-ingest/internal/logging"
)

// Store is the destination directory for downloaded originals. Artifacts are
// paths of finished temp files; Store moves them to dir/key.
type Store struct {
	dir string
}

// NewStore creates the destination directory if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("download directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create download directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the destination directory. Providers stage temp files here so
// the final rename stays on one filesystem.
func (s *Store) Dir() string { return s.dir }

// Path returns the destination of key.
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, filepath.Base(key))
}

// Exists reports whether key has already been downloaded.
func (s *Store) Exists(key string) bool {
	info, err := os.Stat(s.Path(key))
	return err == nil && info.Mode().IsRegular()
}

// Store moves the temp file at tmpPath to its destination. A second store of
// an existing key discards tmpPath and keeps the first copy.
func (s *Store) Store(tmpPath, key string) error {
	if tmpPath == "" {
		return errors.New("empty download path")
	}
	dest := s.Path(key)
	if tmpPath == dest {
		return nil
	}
	if s.Exists(key) {
		logging.Debug("Download %s already present, discarding %s", key, tmpPath)
		return os.Remove(tmpPath)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

// Discard removes a staged temp file that will not be stored. Paths outside
// the staging area are left alone.
func (s *Store) Discard(tmpPath string) {
	if tmpPath == "" || filepath.Dir(tmpPath) != filepath.Clean(s.dir) || !strings.HasPrefix(filepath.Base(tmpPath), ".partial-") {
		return
	}
	if err := os.Remove(tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Warn("Failed to discard partial download %s: %v", tmpPath, err)
		return
	}
	logging.Debug("Discarded partial download %s", tmpPath)
}

// Lookup returns the destination path of a finished download.
func (s *Store) Lookup(key string) (string, bool) {
	if !s.Exists(key) {
		return "", false
	}
	return s.Path(key), true
}

// CleanPartials removes temp files left behind by interrupted transfers.
func (s *Store) CleanPartials() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), ".partial-") {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			logging.Warn("Failed to remove partial download %s: %v", e.Name(), err)
			continue
		}
		removed++
	}
	if removed > 0 {
		logging.Info("Removed %d partial downloads from %s", removed, s.dir)
	}
	return removed, nil
}
