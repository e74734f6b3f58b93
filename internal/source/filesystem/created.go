package filesystem

import (
	"os"
	"time"
)

// createdAt returns the earliest timestamp the filesystem keeps for path:
// its birth time where one is recorded, or its modification time when that
// is older (copies that preserved mtime) or no birth time exists.
func createdAt(path string, info os.FileInfo) time.Time {
	mod := info.ModTime()
	if birth, ok := birthTime(path, info); ok && birth.Before(mod) {
		return birth
	}
	return mod
}
