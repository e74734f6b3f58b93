package library

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	fsretry "media-ingest/internal/filesystem"
	"media-ingest/internal/logging"
	"media-ingest/internal/media"
	"media-ingest/internal/mediatypes"
)

// Default timeout for export queries
const defaultTimeout = 30 * time.Second

// captureLayouts are the capture_date text formats seen in exports.
var captureLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006:01:02 15:04:05",
	"2006-01-02",
}

// Export is a photo library export: an SQLite catalog with an assets table
// next to the exported files.
type Export struct {
	name   string
	dbPath string
	root   string
	retry  fsretry.RetryConfig
}

// Open validates the export catalog at dbPath. Asset directories are
// resolved relative to the catalog's folder.
func Open(name, dbPath string) (*Export, error) {
	if _, err := fsretry.StatWithRetry(dbPath, fsretry.DefaultRetryConfig()); err != nil {
		return nil, fmt.Errorf("open library export: %w", err)
	}
	if name == "" {
		name = "library"
	}
	e := &Export{
		name:   name,
		dbPath: dbPath,
		root:   filepath.Dir(dbPath),
		retry:  fsretry.DefaultRetryConfig(),
	}

	db, err := e.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var count int
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM assets").Scan(&count); err != nil {
		return nil, fmt.Errorf("read assets table of %s: %w", dbPath, err)
	}
	logging.Info("Library export %s: %d assets in catalog", dbPath, count)
	return e, nil
}

func (e *Export) open() (*sql.DB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", e.dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open library export: %w", err)
	}
	return db, nil
}

// Name returns the source name.
func (e *Export) Name() string { return e.name }

// Enumerate lists the exported assets whose files are present. Assets with
// a missing file or a non-media type are skipped.
func (e *Export) Enumerate(ctx context.Context) ([]media.Handle, error) {
	db, err := e.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	queryCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := db.QueryContext(queryCtx, `
		SELECT uuid, filename, COALESCE(directory, ''), COALESCE(uti, ''), capture_date
		FROM assets
		ORDER BY directory, filename`)
	if err != nil {
		return nil, fmt.Errorf("query assets: %w", err)
	}
	defer rows.Close()

	var handles []media.Handle
	skipped := 0
	for rows.Next() {
		var id, filename, directory, uti string
		var captured sql.NullString
		if err := rows.Scan(&id, &filename, &directory, &uti, &captured); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}

		kind := uti
		if kind == "" {
			kind = mediatypes.KindForName(filename)
		}
		if mediatypes.ClassOf(kind) == mediatypes.ClassOther {
			skipped++
			continue
		}

		path := filepath.Join(e.root, filepath.FromSlash(directory), filename)
		info, err := fsretry.StatWithRetry(path, e.retry)
		if err != nil {
			logging.Debug("Library asset %s missing at %s: %v", id, path, err)
			skipped++
			continue
		}

		created, ok := parseCaptureDate(captured.String)
		if !ok {
			created = info.ModTime()
		}
		handles = append(handles, &media.File{Path: path, Type: kind, Created: created})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assets: %w", err)
	}

	if skipped > 0 {
		logging.Info("Library export %s: skipped %d assets (missing or not media)", e.name, skipped)
	}
	return handles, nil
}

// parseCaptureDate accepts the text layouts above or unix seconds.
func parseCaptureDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Unix(int64(secs), 0), true
	}
	for _, layout := range captureLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
