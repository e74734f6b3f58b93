package pipeline

import (
	"context"
	"fmt"
	"image"
	"time"

	"media-ingest/internal/acquire"
	"media-ingest/internal/database"
	"media-ingest/internal/download"
	"media-ingest/internal/events"
	fsretry "media-ingest/internal/filesystem"
	"media-ingest/internal/gate"
	"media-ingest/internal/importer"
	"media-ingest/internal/logging"
	"media-ingest/internal/media"
	"media-ingest/internal/memory"
	"media-ingest/internal/metrics"
	"media-ingest/internal/source"
	"media-ingest/internal/source/device"
	"media-ingest/internal/source/filesystem"
	"media-ingest/internal/source/library"
	"media-ingest/internal/startup"
	"media-ingest/internal/thumbnail"
)

const (
	// memoryThumbnails bounds the in-memory thumbnail cache.
	memoryThumbnails = 512
	statsInterval    = time.Minute
)

// Pipeline owns every long-lived component of an ingest process.
type Pipeline struct {
	DB         *database.Database
	Thumbnails *thumbnail.Cache
	Downloads  *download.Store
	Hub        *events.Hub
	Importer   *importer.Importer
	Sources    *source.Registry
	Camera     *device.Camera

	collector *metrics.Collector
	guard     *memory.Guard
	cancel    context.CancelFunc
}

// Open builds the pipeline from config. Optional sources that fail to open
// are logged and skipped.
func Open(ctx context.Context, config *startup.Config) (*Pipeline, error) {
	dbStart := time.Now()
	db, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	maxID, err := db.MaxID(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read item ids: %w", err)
	}
	media.SeedSequence(maxID)
	startup.LogDatabaseInit(time.Since(dbStart), maxID)

	thumbs, err := thumbnail.NewCache(config.ThumbnailDir, memoryThumbnails)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize thumbnail cache: %w", err)
	}
	store, err := download.NewStore(config.DownloadDir)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize download store: %w", err)
	}
	if n, err := store.CleanPartials(); err != nil {
		logging.Warn("Failed to clean partial downloads: %v", err)
	} else if n > 0 {
		logging.Info("Removed %d partial downloads", n)
	}

	providerCtx, cancel := context.WithCancel(context.Background())
	p := &Pipeline{
		DB:         db,
		Thumbnails: thumbs,
		Downloads:  store,
		Hub:        events.NewHub(0),
		Sources:    source.NewRegistry(),
		guard:      memory.NewGuard(memory.DefaultConfig()),
		cancel:     cancel,
	}
	p.guard.Start()

	thumbProviders := &acquire.Mux[image.Image]{}
	downloadProviders := &acquire.Mux[string]{}
	thumbProviders.Handle(filesystem.IsFile, filesystem.Thumbnails(providerCtx, config.ThumbnailSize))
	downloadProviders.Handle(filesystem.IsFile, filesystem.Downloads(providerCtx, store.Dir(), fsretry.DefaultRetryConfig()))

	p.Sources.Add(filesystem.New("files", config.MediaDir, filesystem.DefaultWalkerConfig()))

	if config.CameraEnabled {
		camera, err := device.Open("camera", config.CameraDir)
		if err != nil {
			logging.Warn("Camera source unavailable: %v", err)
		} else {
			p.Camera = camera
			p.Sources.Add(camera)
			thumbProviders.Handle(camera.Owns, camera.Thumbnails(config.ThumbnailSize))
			downloadProviders.Handle(camera.Owns, camera.Downloads(store.Dir()))
		}
	}
	if config.LibraryEnabled {
		export, err := library.Open("library", config.LibraryExport)
		if err != nil {
			logging.Warn("Library source unavailable: %v", err)
		} else {
			p.Sources.Add(export)
		}
	}

	thumbGate := gate.New("thumbnail", config.ThumbnailWorkers)
	downloadGate := gate.New("download", config.DownloadWorkers)
	metrics.InitializeMetrics([]string{thumbGate.Name(), downloadGate.Name()}, p.Sources.Names())

	p.Importer = importer.New(importer.Options{
		Store:   db,
		Sources: p.Sources,
		Thumbnails: acquire.New(acquire.Options[image.Image]{
			Kind:     "thumbnail",
			Gate:     thumbGate,
			Provider: throttled[image.Image](providerCtx, p.guard, thumbProviders),
			Cache:    thumbs,
			Notifier: p.Hub,
			Process:  thumbnail.CropSquare,
		}),
		Downloads: acquire.New(acquire.Options[string]{
			Kind:     "download",
			Gate:     downloadGate,
			Provider: downloadProviders,
			Cache:    store,
			Notifier: p.Hub,
			Targets:  acquire.AllTargets,
			Key:      acquire.HandleKey,
			Discard:  store.Discard,
		}),
	})

	startup.LogThumbnailInit(thumbnail.IsVipsAvailable(), thumbGate.Limit())
	startup.LogSources(p.Sources.Names())

	p.collector = metrics.NewCollector(db, statsInterval)
	p.collector.Start()
	return p, nil
}

// Close stops acquisitions, ends the camera session and closes the
// database. It is safe to call once.
func (p *Pipeline) Close() {
	startup.LogShutdownStep("Cancelling acquisitions")
	p.Importer.Close()
	p.cancel()
	startup.LogShutdownStepComplete("Acquisitions cancelled")

	if p.Camera != nil {
		startup.LogShutdownStep("Closing camera session")
		if err := p.Camera.Close(); err != nil {
			logging.Warn("Camera close error: %v", err)
		}
		startup.LogShutdownStepComplete("Camera session closed")
	}

	p.Hub.Close()
	p.collector.Stop()
	p.guard.Stop()

	startup.LogShutdownStep("Closing database")
	if err := p.DB.Close(); err != nil {
		logging.Warn("Database close error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Database closed")
	}
}

// throttled holds requests back while the memory guard reports critical
// usage.
func throttled[A any](ctx context.Context, guard *memory.Guard, next acquire.Provider[A]) acquire.Provider[A] {
	return acquire.ProviderFunc[A](func(h media.Handle, deliver acquire.Deliver[A]) {
		if !guard.Paused() {
			next.Request(h, deliver)
			return
		}
		go func() {
			if err := guard.Wait(ctx); err != nil {
				var zero A
				deliver(h, zero, err)
				return
			}
			next.Request(h, deliver)
		}()
	})
}
