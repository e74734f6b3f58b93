package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"media-ingest/internal/logging"
	"media-ingest/internal/media"
	"media-ingest/internal/metrics"
)

const itemColumns = `id, source, original_key, original_name,
	COALESCE(edited_key, ''), COALESCE(edited_name, ''),
	COALESCE(live_key, ''), COALESCE(live_name, ''),
	capture_day, cache_key, downloaded_at, created_at, updated_at`

// KnownIDs returns the stored ids of source, keyed by original handle key.
func (d *Database) KnownIDs(ctx context.Context, source string) (map[string]int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("known_ids", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, "SELECT original_key, id FROM items WHERE source = ?", source)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]int64)
	for rows.Next() {
		var key string
		var id int64
		if err = rows.Scan(&key, &id); err != nil {
			return nil, err
		}
		ids[key] = id
	}
	err = rows.Err()
	return ids, err
}

// IDLookup adapts KnownIDs output to the grouping resolver.
func IDLookup(ids map[string]int64) func(media.Handle) int64 {
	return func(h media.Handle) int64 { return ids[h.Key()] }
}

// SaveItems replaces the stored items of source with one scan in a single
// transaction. An item whose original is already stored keeps its row and
// gets the new edited/live companions. Rows of source whose original is
// absent from the scan are deleted.
func (d *Database) SaveItems(ctx context.Context, source string, items []*media.Item) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("save_items", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO items (id, source, original_key, original_name, edited_key, edited_name,
		live_key, live_name, capture_day, cache_key, updated_at)
	VALUES (?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), ?, ?, strftime('%s', 'now'))
	ON CONFLICT(source, original_key) DO UPDATE SET
		original_name = excluded.original_name,
		edited_key = excluded.edited_key,
		edited_name = excluded.edited_name,
		live_key = excluded.live_key,
		live_name = excluded.live_name,
		capture_day = excluded.capture_day,
		cache_key = excluded.cache_key,
		updated_at = strftime('%s', 'now')
	`)
	if err != nil {
		return errors.Join(err, tx.Rollback())
	}
	defer stmt.Close()

	for _, item := range items {
		r := RecordOf(source, item)
		if _, err = stmt.ExecContext(ctx, r.ID, r.Source, r.OriginalKey, r.OriginalName,
			r.EditedKey, r.EditedName, r.LiveKey, r.LiveName, r.CaptureDay, r.CacheKey); err != nil {
			err = fmt.Errorf("save item %d (%s): %w", r.ID, r.OriginalName, err)
			return errors.Join(err, tx.Rollback())
		}
	}

	pruned, err := pruneItems(ctx, tx, source, items)
	if err != nil {
		err = fmt.Errorf("prune items of %s: %w", source, err)
		return errors.Join(err, tx.Rollback())
	}

	if err = tx.Commit(); err != nil {
		return err
	}
	if pruned > 0 {
		logging.Info("Removed %d items no longer present in source %s", pruned, source)
	}
	logging.Debug("Saved %d items for source %s", len(items), source)
	return nil
}

// pruneItems deletes the rows of source whose original key is not among items.
func pruneItems(ctx context.Context, tx *sql.Tx, source string, items []*media.Item) (int, error) {
	keep := make(map[string]bool, len(items))
	for _, item := range items {
		keep[item.Original.Key()] = true
	}

	rows, err := tx.QueryContext(ctx, "SELECT id, original_key FROM items WHERE source = ?", source)
	if err != nil {
		return 0, err
	}
	var stale []int64
	for rows.Next() {
		var id int64
		var key string
		if err := rows.Scan(&id, &key); err != nil {
			rows.Close()
			return 0, err
		}
		if !keep[key] {
			stale = append(stale, id)
		}
	}
	if err := rows.Close(); err != nil {
		return 0, err
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, id := range stale {
		if _, err := tx.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id); err != nil {
			return 0, fmt.Errorf("delete item %d: %w", id, err)
		}
	}
	return len(stale), nil
}

// MaxID returns the largest stored id, or 0 for an empty database.
func (d *Database) MaxID(ctx context.Context) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("max_id", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var id int64
	err = d.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(id), 0) FROM items").Scan(&id)
	return id, err
}

// ListItems returns stored items ordered by capture day and name. An empty
// source lists every source. limit <= 0 means no limit.
func (d *Database) ListItems(ctx context.Context, source string, limit, offset int) ([]ItemRecord, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_items", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if limit <= 0 {
		limit = -1
	}
	rows, err := d.db.QueryContext(ctx, `
	SELECT `+itemColumns+`
	FROM items
	WHERE (? = '' OR source = ?)
	ORDER BY capture_day, original_name, id
	LIMIT ? OFFSET ?`, source, source, limit, max(offset, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ItemRecord
	for rows.Next() {
		var r ItemRecord
		if r, err = scanItem(rows); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	err = rows.Err()
	return records, err
}

// GetItem returns one stored item.
func (d *Database) GetItem(ctx context.Context, id int64) (*ItemRecord, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_item", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	r, err := scanItem(d.db.QueryRowContext(ctx, "SELECT "+itemColumns+" FROM items WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// MarkDownloaded records that the item's files reached the destination.
func (d *Database) MarkDownloaded(ctx context.Context, id int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("mark_downloaded", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx,
		"UPDATE items SET downloaded_at = strftime('%s', 'now'), updated_at = strftime('%s', 'now') WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		err = ErrNotFound
	}
	return err
}

// GetStats returns per-source item counts for the metrics collector.
func (d *Database) GetStats() metrics.Stats {
	start := time.Now()
	var err error
	defer func() { recordQuery("stats", start, err) }()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	stats := metrics.Stats{ItemsBySource: make(map[string]int)}
	rows, err := d.db.QueryContext(ctx, `
	SELECT source, COUNT(*), COUNT(downloaded_at)
	FROM items GROUP BY source`)
	if err != nil {
		logging.Warn("Failed to read item stats: %v", err)
		return stats
	}
	defer rows.Close()

	for rows.Next() {
		var source string
		var total, downloaded int
		if err = rows.Scan(&source, &total, &downloaded); err != nil {
			logging.Warn("Failed to scan item stats: %v", err)
			return stats
		}
		stats.ItemsBySource[source] = total
		stats.Downloaded += downloaded
	}
	err = rows.Err()
	return stats
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (ItemRecord, error) {
	var r ItemRecord
	var downloaded sql.NullInt64
	var created, updated int64
	err := row.Scan(&r.ID, &r.Source, &r.OriginalKey, &r.OriginalName,
		&r.EditedKey, &r.EditedName, &r.LiveKey, &r.LiveName,
		&r.CaptureDay, &r.CacheKey, &downloaded, &created, &updated)
	if err != nil {
		return r, err
	}
	if downloaded.Valid {
		t := time.Unix(downloaded.Int64, 0)
		r.DownloadedAt = &t
	}
	r.CreatedAt = time.Unix(created, 0)
	r.UpdatedAt = time.Unix(updated, 0)
	return r, nil
}
