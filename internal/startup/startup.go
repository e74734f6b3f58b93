package startup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"media-ingest/internal/logging"
	"media-ingest/internal/workers"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Config holds all application configuration
type Config struct {
	MediaDir      string
	CameraDir     string
	LibraryExport string
	CacheDir      string
	DatabaseDir   string
	DownloadDir   string
	Port          string

	ThumbnailWorkers int
	DownloadWorkers  int
	ThumbnailSize    int
	WatchMedia       bool
	WatchDebounce    time.Duration
	LogHealthChecks  bool

	// Derived paths
	DatabasePath string
	ThumbnailDir string

	// Feature flags based on directory availability
	CameraEnabled    bool
	LibraryEnabled   bool
	DiskCacheEnabled bool
}

// LoadEnvFile loads variables from ENV_FILE (default ".env") without
// overriding variables already set. A missing file is not an error.
func LoadEnvFile() error {
	path := getEnv("ENV_FILE", ".env")
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	logging.Info("Loaded environment from %s", path)
	return nil
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()
	return loadConfig()
}

// LoadToolConfig loads the same configuration as LoadConfig without the
// startup banner, for command-line tools.
func LoadToolConfig() (*Config, error) {
	return loadConfig()
}

func loadConfig() (*Config, error) {
	if err := LoadEnvFile(); err != nil {
		logging.Warn("  %v", err)
	}
	logging.Reload()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	config := &Config{
		MediaDir:         getEnv("MEDIA_DIR", "/media"),
		CameraDir:        getEnv("CAMERA_DIR", ""),
		LibraryExport:    getEnv("LIBRARY_EXPORT", ""),
		CacheDir:         getEnv("CACHE_DIR", "/cache"),
		DatabaseDir:      getEnv("DATABASE_DIR", "/database"),
		DownloadDir:      getEnv("DOWNLOAD_DIR", "/downloads"),
		Port:             getEnv("PORT", "8080"),
		ThumbnailWorkers: workers.Thumbnails(),
		DownloadWorkers:  workers.Downloads(),
		ThumbnailSize:    getEnvInt("THUMBNAIL_SIZE", 320),
		WatchMedia:       getEnvBool("WATCH_MEDIA", false),
		WatchDebounce:    getEnvDuration("WATCH_DEBOUNCE", 2*time.Second),
		LogHealthChecks:  getEnvBool("LOG_HEALTH_CHECKS", true),
	}

	logging.Info("  MEDIA_DIR:           %s", config.MediaDir)
	logging.Info("  CAMERA_DIR:          %s", orNone(config.CameraDir))
	logging.Info("  LIBRARY_EXPORT:      %s", orNone(config.LibraryExport))
	logging.Info("  CACHE_DIR:           %s", config.CacheDir)
	logging.Info("  DATABASE_DIR:        %s", config.DatabaseDir)
	logging.Info("  DOWNLOAD_DIR:        %s", config.DownloadDir)
	logging.Info("  PORT:                %s", config.Port)
	logging.Info("  THUMBNAIL_WORKERS:   %d", config.ThumbnailWorkers)
	logging.Info("  DOWNLOAD_WORKERS:    %d", config.DownloadWorkers)
	logging.Info("  THUMBNAIL_SIZE:      %d", config.ThumbnailSize)
	logging.Info("  WATCH_MEDIA:         %v (debounce %v)", config.WatchMedia, config.WatchDebounce)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", config.LogHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	for _, p := range []struct {
		name string
		path *string
	}{
		{"media", &config.MediaDir},
		{"cache", &config.CacheDir},
		{"database", &config.DatabaseDir},
		{"download", &config.DownloadDir},
		{"camera", &config.CameraDir},
		{"library export", &config.LibraryExport},
	} {
		if *p.path == "" {
			continue
		}
		abs, err := filepath.Abs(*p.path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s path: %w", p.name, err)
		}
		*p.path = abs
		logging.Info("  %s (absolute): %s", p.name, abs)
	}

	if err := ensureDirectory(config.MediaDir, "media"); err != nil {
		logging.Warn("  Media directory issue: %v", err)
	}

	if err := ensureDirectory(config.DatabaseDir, "database"); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}
	if err := testWriteAccess(config.DatabaseDir); err != nil {
		return nil, fmt.Errorf("database directory is not writable (required for database): %w", err)
	}
	logging.Info("  [OK] Database directory is writable")
	config.DatabasePath = filepath.Join(config.DatabaseDir, "ingest.db")

	if err := ensureDirectory(config.DownloadDir, "download"); err != nil {
		return nil, fmt.Errorf("download directory error: %w", err)
	}
	if err := testWriteAccess(config.DownloadDir); err != nil {
		return nil, fmt.Errorf("download directory is not writable (required for downloads): %w", err)
	}
	logging.Info("  [OK] Download directory is writable")

	config.ThumbnailDir = filepath.Join(config.CacheDir, "thumbnails")
	config.DiskCacheEnabled = setupOptionalDir(config.ThumbnailDir, "thumbnail cache")
	if !config.DiskCacheEnabled {
		config.ThumbnailDir = ""
	}

	config.CameraEnabled = config.CameraDir != "" && isDir(config.CameraDir, "camera")
	config.LibraryEnabled = config.LibraryExport != "" && isFile(config.LibraryExport, "library export")

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Database:         ENABLED (required)")
	logging.Info("    Thumbnail cache:  %s", diskOrMemory(config.DiskCacheEnabled))
	logging.Info("    Camera source:    %s", enabledString(config.CameraEnabled))
	logging.Info("    Library source:   %s", enabledString(config.LibraryEnabled))
	logging.Info("    Media watcher:    %s", enabledString(config.WatchMedia))

	return config, nil
}

func setupOptionalDir(path, name string) bool {
	logging.Debug("  Setting up %s directory: %s", name, path)

	if err := os.MkdirAll(path, 0o755); err != nil {
		logging.Warn("    Failed to create %s directory: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}
	if err := testWriteAccess(path); err != nil {
		logging.Warn("    %s directory is not writable: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	logging.Debug("    [OK] %s directory ready", name)
	return true
}

func isDir(path, name string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		logging.Warn("  %s directory %s is not usable, source disabled", name, path)
		return false
	}
	return true
}

func isFile(path, name string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		logging.Warn("  %s %s is not usable, source disabled", name, path)
		return false
	}
	return true
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

func diskOrMemory(disk bool) string {
	if disk {
		return "DISK + MEMORY"
	}
	return "MEMORY ONLY"
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid duration for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
