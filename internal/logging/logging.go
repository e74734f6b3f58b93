package logging

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
)

// LogLevel is the minimum severity that gets written.
type LogLevel int

const (
	// LevelDebug enables everything, including per-item acquisition traces
	LevelDebug LogLevel = iota
	// LevelInfo is the default
	LevelInfo
	// LevelWarn only reports failed items and degraded features
	LevelWarn
	// LevelError only reports errors
	LevelError
)

var (
	levelMu     sync.RWMutex
	currentLvl  LogLevel
	levelLoaded bool
)

// ParseLevel converts a level name into a LogLevel. Unknown names map to
// LevelInfo and ok=false.
func ParseLevel(name string) (level LogLevel, ok bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	}
	return LevelInfo, false
}

// levelFromEnv reads DEBUG first, then LOG_LEVEL.
func levelFromEnv() LogLevel {
	switch strings.ToLower(os.Getenv("DEBUG")) {
	case "1", "true", "yes", "on":
		return LevelDebug
	}
	level, _ := ParseLevel(os.Getenv("LOG_LEVEL"))
	return level
}

// GetLevel returns the active level, loading it from the environment on
// first use.
func GetLevel() LogLevel {
	levelMu.RLock()
	if levelLoaded {
		defer levelMu.RUnlock()
		return currentLvl
	}
	levelMu.RUnlock()

	levelMu.Lock()
	defer levelMu.Unlock()
	if !levelLoaded {
		currentLvl = levelFromEnv()
		levelLoaded = true
	}
	return currentLvl
}

// SetLevel overrides the level, e.g. after a .env file was loaded.
func SetLevel(level LogLevel) {
	levelMu.Lock()
	defer levelMu.Unlock()
	currentLvl = level
	levelLoaded = true
}

// Reload re-reads DEBUG and LOG_LEVEL from the environment.
func Reload() {
	SetLevel(levelFromEnv())
}

// IsDebugEnabled reports whether debug output is written.
func IsDebugEnabled() bool {
	return GetLevel() <= LevelDebug
}

func logAt(level LogLevel, tag, format string, args ...interface{}) {
	if GetLevel() <= level {
		log.Printf(tag+" "+format, args...)
	}
}

// Debug logs at debug level.
func Debug(format string, args ...interface{}) {
	logAt(LevelDebug, "[DEBUG]", format, args...)
}

// Info logs at info level.
func Info(format string, args ...interface{}) {
	logAt(LevelInfo, "[INFO]", format, args...)
}

// Warn logs at warn level.
func Warn(format string, args ...interface{}) {
	logAt(LevelWarn, "[WARN]", format, args...)
}

// Error logs at error level.
func Error(format string, args ...interface{}) {
	logAt(LevelError, "[ERROR]", format, args...)
}

// Fatal logs and exits the process.
func Fatal(format string, args ...interface{}) {
	log.Fatalf("[FATAL] "+format, args...)
}

// String returns the lowercase name of the level.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("unknown(%d)", l)
	}
}
