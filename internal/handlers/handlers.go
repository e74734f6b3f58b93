package handlers

import (
	"context"
	"time"

	"media-ingest/internal/database"
	"media-ingest/internal/events"
	"media-ingest/internal/importer"
	"media-ingest/internal/media"
	"media-ingest/internal/metrics"
)

// Importer is the part of *importer.Importer the API drives.
type Importer interface {
	Sources() []string
	StartScan(name string) (importer.ScanStatus, error)
	Status() []importer.ScanStatus
	Item(id int64) (*media.Item, bool)
	StartDownload(ids []int64) error
	CancelAll()
}

// Catalog is the persisted item store.
type Catalog interface {
	ListItems(ctx context.Context, source string, limit, offset int) ([]database.ItemRecord, error)
	GetItem(ctx context.Context, id int64) (*database.ItemRecord, error)
	GetStats() metrics.Stats
}

// Thumbnails returns encoded thumbnails by cache key.
type Thumbnails interface {
	JPEG(key string) ([]byte, error)
}

type Handlers struct {
	importer   Importer
	catalog    Catalog
	thumbnails Thumbnails
	hub        *events.Hub
	started    time.Time
}

func New(im Importer, catalog Catalog, thumbnails Thumbnails, hub *events.Hub) *Handlers {
	return &Handlers{
		importer:   im,
		catalog:    catalog,
		thumbnails: thumbnails,
		hub:        hub,
		started:    time.Now(),
	}
}
