package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Register adds every API route to r.
func (h *Handlers) Register(r *mux.Router) {
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet, http.MethodHead)
	r.Handle("/metrics", h.MetricsHandler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)
	api.HandleFunc("/scan/status", h.ScanStatus).Methods(http.MethodGet)
	api.HandleFunc("/scan/{source}", h.StartScan).Methods(http.MethodPost)
	api.HandleFunc("/items", h.ListItems).Methods(http.MethodGet)
	api.HandleFunc("/items/{id:[0-9]+}", h.GetItem).Methods(http.MethodGet)
	api.HandleFunc("/thumbnail/{id:[0-9]+}", h.GetThumbnail).Methods(http.MethodGet)
	api.HandleFunc("/download", h.StartDownload).Methods(http.MethodPost)
	api.HandleFunc("/cancel", h.CancelAll).Methods(http.MethodPost)
	api.HandleFunc("/events", h.StreamEvents).Methods(http.MethodGet)
}
