package importer

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"media-ingest/internal/logging"
	"media-ingest/internal/mediatypes"
	"media-ingest/internal/metrics"
)

// DefaultDebounce is how long the watcher waits for changes to settle.
const DefaultDebounce = 2 * time.Second

// Watch rescans the named source whenever media under dir changes. Bursts
// of events are coalesced into one scan after debounce of quiet. Watch
// blocks until ctx is cancelled.
func (im *Importer) Watch(ctx context.Context, name, dir string, debounce time.Duration) error {
	if _, ok := im.sources.Get(name); !ok {
		return ErrUnknownSource
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		metrics.WatcherErrors.Inc()
		return err
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			logging.Error("failed to close file watcher: %v", err)
		}
	}()

	count := addDirectories(watcher, dir)
	metrics.WatchedDirectories.Set(float64(count))
	logging.Info("Watching %d directories under %s for source %s", count, dir, name)

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(watcher, event) {
				continue
			}
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Error("Watcher error: %v", err)
			metrics.WatcherErrors.Inc()

		case <-timer.C:
			logging.Info("Media changed under %s, rescanning %s", dir, name)
			if _, err := im.Scan(ctx, name); err != nil && !errors.Is(err, context.Canceled) {
				if errors.Is(err, ErrScanInProgress) {
					// the running scan may have missed the change
					timer.Reset(debounce)
					continue
				}
				logging.Error("Rescan of %s failed: %v", name, err)
			}
		}
	}
}

// relevant records the event and reports whether it should trigger a
// rescan. New directories are added to the watcher.
func relevant(watcher *fsnotify.Watcher, event fsnotify.Event) bool {
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	metrics.WatcherEventsTotal.WithLabelValues(eventType(event.Op)).Inc()

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			n := addDirectories(watcher, event.Name)
			metrics.WatchedDirectories.Add(float64(n))
			return true
		}
	}
	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		// removed directories have no extension; rescan to be safe
		return mediatypes.IsMediaName(base) || filepath.Ext(base) == ""
	}
	return event.Op&(fsnotify.Create|fsnotify.Write) != 0 && mediatypes.IsMediaName(base)
}

func eventType(op fsnotify.Op) string {
	switch {
	case op&fsnotify.Create != 0:
		return "create"
	case op&fsnotify.Write != 0:
		return "write"
	case op&fsnotify.Remove != 0:
		return "remove"
	case op&fsnotify.Rename != 0:
		return "rename"
	default:
		return "other"
	}
}

// addDirectories adds root and every non-hidden directory below it.
func addDirectories(watcher *fsnotify.Watcher, root string) int {
	count := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logging.Warn("failed to access %s for watcher: %v", path, err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if addErr := watcher.Add(path); addErr != nil {
			logging.Warn("failed to add path to watcher %s: %v", path, addErr)
			metrics.WatcherErrors.Inc()
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		logging.Error("failed to walk %s for watcher: %v", root, err)
		metrics.WatcherErrors.Inc()
	}
	return count
}
