package importer

import (
	"context"
	"fmt"

	"media-ingest/internal/acquire"
	"media-ingest/internal/logging"
	"media-ingest/internal/media"
)

// Download downloads the given items of the latest scans, or every known
// item when ids is empty. It returns once every item is terminal. Items
// that completed are marked downloaded; failed items are forgotten so a
// later call retries them.
func (im *Importer) Download(ctx context.Context, ids []int64) (BatchSummary, error) {
	items, missing := im.resolve(ids)
	if len(missing) > 0 {
		logging.Warn("Download: %d unknown item ids ignored: %v", len(missing), missing)
	}
	if len(items) == 0 {
		return BatchSummary{}, fmt.Errorf("%w among %d requested ids", ErrNoItems, len(ids))
	}

	result := im.downloads.RequestAll(ctx, items)
	for _, o := range result.Outcomes {
		switch o.Status {
		case acquire.StatusCompleted, acquire.StatusCached:
			if err := im.store.MarkDownloaded(ctx, o.ID); err != nil {
				logging.Warn("Failed to mark item %d downloaded: %v", o.ID, err)
			}
		case acquire.StatusFailed:
			logging.Warn("Download of item %d failed: %v", o.ID, o.Err)
			im.downloads.Forget(o.ID)
		}
	}
	return summarize(result), nil
}

// StartDownload runs Download in the background.
func (im *Importer) StartDownload(ids []int64) error {
	if items, _ := im.resolve(ids); len(items) == 0 {
		return fmt.Errorf("%w among %d requested ids", ErrNoItems, len(ids))
	}
	im.wg.Add(1)
	go func() {
		defer im.wg.Done()
		summary, err := im.Download(im.ctx, ids)
		if err != nil {
			logging.Error("Download failed: %v", err)
			return
		}
		logging.Info("Download finished: %d completed, %d cached, %d failed, %d cancelled",
			summary.Completed, summary.Cached, summary.Failed, summary.Cancelled)
	}()
	return nil
}

func (im *Importer) resolve(ids []int64) ([]*media.Item, []int64) {
	if len(ids) == 0 {
		return im.Items(""), nil
	}
	im.mu.Lock()
	defer im.mu.Unlock()
	var items []*media.Item
	var missing []int64
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if item, ok := im.items[id]; ok {
			items = append(items, item)
		} else {
			missing = append(missing, id)
		}
	}
	return items, missing
}
