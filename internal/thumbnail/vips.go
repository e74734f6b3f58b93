package thumbnail

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"
	"sync"

	"media-ingest/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
)

var (
	vipsMu        sync.Mutex
	vipsAvailable bool
)

// vipsLevel maps the application log level to the lowest vips level that is
// forwarded.
func vipsLevel(level logging.LogLevel) vips.LogLevel {
	switch level {
	case logging.LevelDebug:
		return vips.LogLevelInfo
	case logging.LevelWarn:
		return vips.LogLevelError
	case logging.LevelError:
		return vips.LogLevelCritical
	default:
		return vips.LogLevelWarning
	}
}

func vipsLog(domain string, level vips.LogLevel, msg string) {
	switch level {
	case vips.LogLevelError, vips.LogLevelCritical:
		logging.Error("[%s] %s", domain, msg)
	case vips.LogLevelWarning:
		logging.Warn("[%s] %s", domain, msg)
	default:
		logging.Debug("[%s] %s", domain, msg)
	}
}

// InitVips starts libvips once. Decoding falls back to imaging when it was
// never started.
func InitVips() {
	vipsMu.Lock()
	defer vipsMu.Unlock()
	if vipsAvailable {
		return
	}

	vips.LoggingSettings(vipsLog, vipsLevel(logging.GetLevel()))
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})
	vipsAvailable = true
	logging.Info("libvips initialized (version: %s)", vips.Version)
}

// ShutdownVips releases libvips.
func ShutdownVips() {
	vipsMu.Lock()
	defer vipsMu.Unlock()
	if vipsAvailable {
		vips.Shutdown()
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable reports whether libvips was started.
func IsVipsAvailable() bool {
	vipsMu.Lock()
	defer vipsMu.Unlock()
	return vipsAvailable
}

// loadWithVips decodes path with decode-time shrinking so large originals
// never materialize at full resolution.
func loadWithVips(path string, size int) (image.Image, error) {
	if !IsVipsAvailable() {
		return nil, fmt.Errorf("libvips not available")
	}

	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return nil, fmt.Errorf("vips load: %w", err)
	}
	defer ref.Close()

	if err := ref.AutoRotate(); err != nil {
		logging.Debug("vips auto-rotate failed for %s: %v", filepath.Base(path), err)
	}
	if err := ref.Thumbnail(size, size, vips.InterestingNone); err != nil {
		return nil, fmt.Errorf("vips resize: %w", err)
	}

	buf, _, err := ref.ExportJpeg(&vips.JpegExportParams{Quality: 90, OptimizeCoding: true})
	if err != nil {
		return nil, fmt.Errorf("vips export: %w", err)
	}
	return imaging.Decode(bytes.NewReader(buf))
}
