package handlers

import (
	"net/http"
	"runtime"
	"time"

	"media-ingest/internal/startup"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status        string         `json:"status"`
	Version       string         `json:"version"`
	Uptime        string         `json:"uptime"`
	Sources       []string       `json:"sources"`
	ItemsBySource map[string]int `json:"itemsBySource,omitempty"`
	Downloaded    int            `json:"downloaded"`
	Subscribers   int            `json:"subscribers"`

	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	stats := h.catalog.GetStats()
	response := HealthResponse{
		Status:        "healthy",
		Version:       startup.Version,
		Uptime:        time.Since(h.started).Round(time.Second).String(),
		Sources:       h.importer.Sources(),
		ItemsBySource: stats.ItemsBySource,
		Downloaded:    stats.Downloaded,
		Subscribers:   h.hub.Subscribers(),
		GoVersion:     runtime.Version(),
		NumCPU:        runtime.NumCPU(),
		NumGoroutine:  runtime.NumGoroutine(),
	}
	if r.Method == http.MethodHead {
		w.Header().Set("Content-Type", "application/json")
		return
	}
	writeJSONStatus(w, http.StatusOK, response)
}

// GetVersion returns the application version and build information
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSONStatus(w, http.StatusOK, startup.GetBuildInfo())
}
