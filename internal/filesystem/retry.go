package filesystem

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"media-ingest/internal/logging"
	"media-ingest/internal/metrics"
)

// RetryConfig configures retries of operations that hit stale NFS handles.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns the defaults used by the sources.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

// IsStale reports whether err is a stale file handle (ESTALE).
func IsStale(err error) bool {
	var errno syscall.Errno
	return errors.As(err, &errno) && errno == syscall.ESTALE
}

// retry runs fn until it succeeds, fails with a non-stale error, or the
// retries are exhausted.
func retry[T any](op, path string, config RetryConfig, fn func() (T, error)) (T, error) {
	backoff := config.InitialBackoff
	var lastErr error

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		v, err := fn()
		if err == nil {
			if attempt > 0 {
				logging.Info("%s succeeded on retry %d for %s", op, attempt, path)
				metrics.FilesystemRetries.WithLabelValues(op, "success").Inc()
			}
			return v, nil
		}
		lastErr = err
		if !IsStale(err) {
			var zero T
			return zero, err
		}
		if attempt < config.MaxRetries {
			logging.Debug("%s stale file handle for %s, retrying in %v (attempt %d/%d)",
				op, path, backoff, attempt+1, config.MaxRetries)
			time.Sleep(backoff)
			backoff = min(backoff*2, config.MaxBackoff)
		}
	}

	logging.Warn("%s failed after %d retries for %s: %v", op, config.MaxRetries, path, lastErr)
	metrics.FilesystemRetries.WithLabelValues(op, "failure").Inc()
	var zero T
	return zero, lastErr
}

// StatWithRetry is os.Stat with stale-handle retries.
func StatWithRetry(path string, config RetryConfig) (os.FileInfo, error) {
	return retry("stat", path, config, func() (os.FileInfo, error) { return os.Stat(path) })
}

// OpenWithRetry is os.Open with stale-handle retries.
func OpenWithRetry(path string, config RetryConfig) (*os.File, error) {
	return retry("open", path, config, func() (*os.File, error) { return os.Open(path) })
}

// ReadFileWithRetry is os.ReadFile with stale-handle retries.
func ReadFileWithRetry(path string, config RetryConfig) ([]byte, error) {
	return retry("read", path, config, func() ([]byte, error) { return os.ReadFile(path) })
}

// CopyToTemp copies src into a new temp file in dir and returns its path.
// The caller owns the temp file.
func CopyToTemp(src, dir string, config RetryConfig) (string, error) {
	in, err := OpenWithRetry(src, config)
	if err != nil {
		return "", err
	}
	defer in.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	out, err := os.CreateTemp(dir, ".partial-"+filepath.Base(src)+"-*")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(out.Name())
		return "", err
	}
	if err := out.Close(); err != nil {
		os.Remove(out.Name())
		return "", err
	}
	return out.Name(), nil
}
