package memory

import (
	"math"
	"os"
	"runtime/debug"
	"strconv"

	"media-ingest/internal/logging"
)

// DefaultMemoryRatio is the share of the container limit given to the Go
// heap. The rest is left to libvips and ffmpeg.
const DefaultMemoryRatio = 0.80

// LimitResult describes how the soft memory limit was set.
type LimitResult struct {
	Source         string // "GOMEMLIMIT", "MEMORY_LIMIT" or "none"
	ContainerLimit int64
	GoMemLimit     int64
	Ratio          float64
}

// ConfigureLimit sets GOMEMLIMIT from MEMORY_LIMIT (bytes) and MEMORY_RATIO
// unless GOMEMLIMIT is already set. Call it before large allocations.
func ConfigureLimit() LimitResult {
	if env := os.Getenv("GOMEMLIMIT"); env != "" {
		result := LimitResult{Source: "GOMEMLIMIT"}
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
			result.GoMemLimit = limit
		}
		logging.Info("GOMEMLIMIT set via environment: %s", env)
		return result
	}

	raw := os.Getenv("MEMORY_LIMIT")
	if raw == "" {
		return LimitResult{Source: "none"}
	}
	containerLimit, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || containerLimit <= 0 {
		logging.Warn("Ignoring invalid MEMORY_LIMIT %q", raw)
		return LimitResult{Source: "none"}
	}

	ratio := DefaultMemoryRatio
	if v := os.Getenv("MEMORY_RATIO"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 && parsed <= 1 {
			ratio = parsed
		} else {
			logging.Warn("MEMORY_RATIO %q out of range (0.0-1.0), using %.2f", v, DefaultMemoryRatio)
		}
	}

	goMemLimit := int64(float64(containerLimit) * ratio)
	debug.SetMemoryLimit(goMemLimit)
	logging.Info("Configured GOMEMLIMIT: %s (%.0f%% of %s)", formatBytes(goMemLimit), ratio*100, formatBytes(containerLimit))

	return LimitResult{
		Source:         "MEMORY_LIMIT",
		ContainerLimit: containerLimit,
		GoMemLimit:     goMemLimit,
		Ratio:          ratio,
	}
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
