// Package metrics provides Prometheus instrumentation for the ingest
// service. All metrics are prefixed with "media_ingest_".
//
// # Metric Categories
//
// ## Admission gates
//   - GateLimit, GateInFlight, GateWaiting: per gate ("thumbnail", "download")
//
// ## Acquisitions
//   - AcquisitionsTotal: terminal outcomes by kind and status
//   - AcquisitionDuration: admission to terminal state
//   - AcquisitionsPending: provider callbacks currently awaited
//   - AcquisitionLateCallbacks: callbacks that arrived after cancellation
//   - NotificationsTotal: artifact-available notifications
//
// ## Scans
//   - ScansTotal, ScanDuration, RawItemsEnumerated per source
//   - GroupedItems: logical items of the last scan by composition
//
// ## Storage
//   - DBQueryTotal, DBQueryDuration, StoredItems, DownloadedItems
//
// Metrics are registered with the default registry through promauto and
// served by promhttp.Handler() on /metrics. Call InitializeMetrics once at
// startup so every label combination exists from the first scrape.
package metrics
