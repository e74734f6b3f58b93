// Package startup loads configuration and writes the startup and shutdown
// log sections.
//
// # Configuration
//
// [LoadConfig] reads environment variables, after loading ENV_FILE (default
// ".env") with godotenv. Variables already set in the environment win.
//
//   - MEDIA_DIR: media folder source (default: /media)
//   - CAMERA_DIR: mounted camera storage; enables the camera source
//   - LIBRARY_EXPORT: library export catalog; enables the library source
//   - CACHE_DIR: thumbnail cache root (default: /cache)
//   - DATABASE_DIR: item database directory, must be writable (default: /database)
//   - DOWNLOAD_DIR: download destination, must be writable (default: /downloads)
//   - PORT: HTTP port (default: 8080)
//   - THUMBNAIL_WORKERS, DOWNLOAD_WORKERS: gate limits, see package workers
//   - THUMBNAIL_SIZE: thumbnail edge in pixels (default: 320)
//   - WATCH_MEDIA: rescan MEDIA_DIR on changes (default: false)
//   - WATCH_DEBOUNCE: quiet period before a rescan (default: 2s)
//   - LOG_LEVEL / DEBUG: see package logging
//   - LOG_HEALTH_CHECKS: log /health requests (default: true)
//
// An unwritable cache directory keeps thumbnails in memory only. Camera and
// library sources are disabled when their paths are unusable.
//
// # Build Information
//
// Version, Commit and BuildTime are injected with -ldflags and exposed via
// [GetBuildInfo].
package startup
