package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_ingest_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_ingest_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Admission gate metrics
var (
	GateLimit = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_ingest_gate_limit",
			Help: "Configured concurrency limit of each admission gate",
		},
		[]string{"gate"},
	)

	GateInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_ingest_gate_in_flight",
			Help: "Slots currently held on each admission gate",
		},
		[]string{"gate"},
	)

	GateWaiting = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_ingest_gate_waiting",
			Help: "Callers queued on each admission gate",
		},
		[]string{"gate"},
	)
)

// Acquisition metrics
var (
	AcquisitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_ingest_acquisitions_total",
			Help: "Artifact acquisitions by kind (thumbnail/download) and terminal status",
		},
		[]string{"kind", "status"}, // status: completed, failed, cancelled, cached
	)

	AcquisitionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_ingest_acquisition_duration_seconds",
			Help:    "Time from gate admission to terminal state",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"kind"},
	)

	AcquisitionsPending = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_ingest_acquisitions_pending",
			Help: "Provider callbacks currently awaited",
		},
		[]string{"kind"},
	)

	AcquisitionLateCallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_ingest_acquisition_late_callbacks_total",
			Help: "Provider callbacks that arrived after their waiter was cancelled",
		},
		[]string{"kind"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_ingest_notifications_total",
			Help: "Artifact-available notifications delivered",
		},
		[]string{"kind"},
	)
)

// Thumbnail cache metrics
var (
	ThumbnailCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_ingest_thumbnail_cache_hits_total",
			Help: "Total number of thumbnail cache hits",
		},
	)

	ThumbnailCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_ingest_thumbnail_cache_misses_total",
			Help: "Total number of thumbnail cache misses",
		},
	)

	ThumbnailDecodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_ingest_thumbnail_decode_duration_seconds",
			Help:    "Thumbnail decode time by decoder (vips/imaging/ffmpeg)",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"decoder"},
	)
)

// Scan and grouping metrics
var (
	ScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_ingest_scans_total",
			Help: "Scan passes by source and status",
		},
		[]string{"source", "status"},
	)

	ScanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_ingest_scan_duration_seconds",
			Help:    "Duration of enumerate+group+persist per source",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"source"},
	)

	RawItemsEnumerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_ingest_raw_items_enumerated_total",
			Help: "Raw files or device items reported by each source",
		},
		[]string{"source"},
	)

	GroupedItems = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_ingest_grouped_items",
			Help: "Logical items produced by the last scan, by composition",
		},
		[]string{"source", "composition"}, // single, edited, live, edited_live
	)

	WalkErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_ingest_walk_errors_total",
			Help: "Files skipped by the filesystem walker due to errors",
		},
	)
)

// Storage metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_ingest_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_ingest_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	StoredItems = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_ingest_stored_items",
			Help: "Items persisted per source",
		},
		[]string{"source"},
	)

	DownloadedItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_ingest_downloaded_items",
			Help: "Items whose files were downloaded",
		},
	)

	FilesystemRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_ingest_filesystem_retries_total",
			Help: "Filesystem operations retried after a stale handle, by outcome",
		},
		[]string{"operation", "outcome"},
	)

	// Watch metrics
	WatcherEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_ingest_watcher_events_total",
			Help: "Filesystem events seen by the media watcher",
		},
		[]string{"type"}, // create, write, remove, rename
	)

	WatcherErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_ingest_watcher_errors_total",
			Help: "Errors reported by the media watcher",
		},
	)

	WatchedDirectories = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_ingest_watched_directories",
			Help: "Directories watched for changes",
		},
	)

	ScansInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_ingest_scans_in_progress",
			Help: "Scans currently running",
		},
	)

	// Event stream metrics
	EventSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_ingest_event_subscribers",
			Help: "Active event stream subscribers",
		},
	)

	EventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_ingest_events_dropped_total",
			Help: "Events dropped because a subscriber was not keeping up",
		},
	)

	// Memory metrics
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_ingest_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_ingest_memory_paused",
			Help: "1 while new decodes wait for memory to recover",
		},
	)
)
