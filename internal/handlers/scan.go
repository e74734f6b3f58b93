package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"media-ingest/internal/importer"
	"media-ingest/internal/logging"
)

// StartScan starts a background scan of the source named in the path.
func (h *Handlers) StartScan(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["source"]
	status, err := h.importer.StartScan(name)
	switch {
	case errors.Is(err, importer.ErrUnknownSource):
		writeJSONError(w, "unknown source "+name, http.StatusNotFound)
		return
	case errors.Is(err, importer.ErrScanInProgress):
		writeJSONError(w, "scan of "+name+" already in progress", http.StatusConflict)
		return
	case err != nil:
		logging.Error("Failed to start scan of %s: %v", name, err)
		writeJSONError(w, "failed to start scan", http.StatusInternalServerError)
		return
	}
	writeJSONStatus(w, http.StatusAccepted, status)
}

// ScanStatus lists the latest scan of every source.
func (h *Handlers) ScanStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSONStatus(w, http.StatusOK, h.importer.Status())
}

// DownloadRequest selects the items to download. An empty list means every
// known item.
type DownloadRequest struct {
	IDs []int64 `json:"ids"`
}

// StartDownload starts a background download of the requested items.
func (h *Handlers) StartDownload(w http.ResponseWriter, r *http.Request) {
	var req DownloadRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}
	if err := h.importer.StartDownload(req.IDs); err != nil {
		if errors.Is(err, importer.ErrNoItems) {
			writeJSONError(w, err.Error(), http.StatusNotFound)
			return
		}
		logging.Error("Failed to start download: %v", err)
		writeJSONError(w, "failed to start download", http.StatusInternalServerError)
		return
	}
	writeJSONStatus(w, http.StatusAccepted, map[string]int{"requested": len(req.IDs)})
}

// CancelAll aborts scans and every pending acquisition.
func (h *Handlers) CancelAll(w http.ResponseWriter, _ *http.Request) {
	h.importer.CancelAll()
	writeJSONStatus(w, http.StatusOK, map[string]string{"status": "cancelled"})
}
