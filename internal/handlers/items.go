package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"media-ingest/internal/database"
	"media-ingest/internal/logging"
)

const defaultPageSize = 100

// ListItems returns persisted items, optionally filtered by source.
func (h *Handlers) ListItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := defaultPageSize
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		limit = v
	}
	offset := 0
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v > 0 {
		offset = v
	}

	items, err := h.catalog.ListItems(r.Context(), q.Get("source"), limit, offset)
	if err != nil {
		logging.Error("Failed to list items: %v", err)
		writeJSONError(w, "failed to list items", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []database.ItemRecord{}
	}
	writeJSONStatus(w, http.StatusOK, items)
}

func (h *Handlers) itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(w, "invalid item id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// GetItem returns one persisted item.
func (h *Handlers) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}
	record, err := h.catalog.GetItem(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		writeJSONError(w, "item not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logging.Error("Failed to get item %d: %v", id, err)
		writeJSONError(w, "failed to get item", http.StatusInternalServerError)
		return
	}
	writeJSONStatus(w, http.StatusOK, record)
}

// GetThumbnail serves the cached thumbnail of an item. Items whose
// thumbnail is not acquired yet return 404.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	var key string
	if item, found := h.importer.Item(id); found {
		key = item.CacheKey()
	} else {
		record, err := h.catalog.GetItem(r.Context(), id)
		if err != nil {
			writeJSONError(w, "item not found", http.StatusNotFound)
			return
		}
		key = record.CacheKey
	}

	data, err := h.thumbnails.JPEG(key)
	if err != nil {
		logging.Debug("Thumbnail for item %d not available: %v", id, err)
		writeJSONError(w, "thumbnail not available", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		logging.Debug("Failed to write thumbnail %d: %v", id, err)
	}
}
