package workers

import (
	"os"
	"runtime"
	"strconv"
)

// DefaultDownloads is the download gate limit when DOWNLOAD_WORKERS is unset.
// Transfers from a camera are serialized by the device anyway, and two
// parallel file copies saturate most disks.
const DefaultDownloads = 2

// Count returns a worker count of multiplier per available CPU, capped at
// limit (0 for no cap). It respects container CPU limits via GOMAXPROCS.
// A positive integer in the env variable overrides the calculation but is
// still capped.
func Count(env string, multiplier float64, limit int) int {
	if count, ok := fromEnv(env); ok {
		return capAt(count, limit)
	}

	workers := int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	if workers < 1 {
		workers = 1
	}
	return capAt(workers, limit)
}

func fromEnv(env string) (int, bool) {
	if env == "" {
		return 0, false
	}
	override := os.Getenv(env)
	if override == "" {
		return 0, false
	}
	count, err := strconv.Atoi(override)
	if err != nil || count <= 0 {
		return 0, false
	}
	return count, true
}

func capAt(n, limit int) int {
	if limit > 0 && n > limit {
		return limit
	}
	return n
}

// Thumbnails returns the thumbnail gate limit: 1.5 per CPU (read, decode,
// encode), at most 8, overridable with THUMBNAIL_WORKERS.
func Thumbnails() int {
	return Count("THUMBNAIL_WORKERS", 1.5, 8)
}

// Downloads returns the download gate limit: DefaultDownloads, overridable
// with DOWNLOAD_WORKERS, at most 8.
func Downloads() int {
	if count, ok := fromEnv("DOWNLOAD_WORKERS"); ok {
		return capAt(count, 8)
	}
	return DefaultDownloads
}

// ForIO returns 2 workers per CPU for I/O-bound work, capped at limit.
func ForIO(limit int) int {
	return Count("", 2.0, limit)
}
