// Package handlers implements the HTTP API of the ingest server.
//
// Routes:
//
//	GET  /health                 service health and item counts
//	GET  /metrics                Prometheus metrics
//	GET  /api/version            build information
//	POST /api/scan/{source}      start a background scan (404 unknown, 409 running)
//	GET  /api/scan/status        latest scan per source
//	GET  /api/items              persisted items (?source=&limit=&offset=)
//	GET  /api/items/{id}         one persisted item
//	GET  /api/thumbnail/{id}     cached JPEG thumbnail
//	POST /api/download           start downloading {"ids": [...]}, empty means all
//	POST /api/cancel             cancel scans and every pending acquisition
//	GET  /api/events             server-sent availability events
package handlers
