package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"media-ingest/internal/database"
	"media-ingest/internal/events"
	"media-ingest/internal/importer"
	"media-ingest/internal/media"
	"media-ingest/internal/metrics"
)

var day = time.Date(2024, 6, 2, 10, 0, 0, 0, time.Local)

type fakeImporter struct {
	mu        sync.Mutex
	sources   []string
	running   map[string]bool
	items     map[int64]*media.Item
	downloads [][]int64
	cancelled int
}

func (f *fakeImporter) Sources() []string { return f.sources }

func (f *fakeImporter) StartScan(name string) (importer.ScanStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	known := false
	for _, s := range f.sources {
		known = known || s == name
	}
	if !known {
		return importer.ScanStatus{}, importer.ErrUnknownSource
	}
	if f.running[name] {
		return importer.ScanStatus{}, importer.ErrScanInProgress
	}
	f.running[name] = true
	return importer.ScanStatus{ID: "scan-1", Source: name, State: importer.ScanRunning, StartedAt: day}, nil
}

func (f *fakeImporter) Status() []importer.ScanStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []importer.ScanStatus
	for _, s := range f.sources {
		if f.running[s] {
			out = append(out, importer.ScanStatus{Source: s, State: importer.ScanRunning})
		}
	}
	return out
}

func (f *fakeImporter) Item(id int64) (*media.Item, bool) {
	item, ok := f.items[id]
	return item, ok
}

func (f *fakeImporter) StartDownload(ids []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.items) == 0 {
		return importer.ErrNoItems
	}
	f.downloads = append(f.downloads, ids)
	return nil
}

func (f *fakeImporter) CancelAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled++
}

type fakeCatalog struct {
	records []database.ItemRecord
	source  string
	limit   int
	offset  int
}

func (f *fakeCatalog) ListItems(_ context.Context, source string, limit, offset int) ([]database.ItemRecord, error) {
	f.source, f.limit, f.offset = source, limit, offset
	var out []database.ItemRecord
	for _, r := range f.records {
		if source == "" || r.Source == source {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeCatalog) GetItem(_ context.Context, id int64) (*database.ItemRecord, error) {
	for i := range f.records {
		if f.records[i].ID == id {
			return &f.records[i], nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeCatalog) GetStats() metrics.Stats {
	counts := make(map[string]int)
	for _, r := range f.records {
		counts[r.Source]++
	}
	return metrics.Stats{ItemsBySource: counts}
}

type fakeThumbnails map[string][]byte

func (f fakeThumbnails) JPEG(key string) ([]byte, error) {
	if data, ok := f[key]; ok {
		return data, nil
	}
	return nil, os.ErrNotExist
}

type fixture struct {
	importer *fakeImporter
	catalog  *fakeCatalog
	hub      *events.Hub
	router   *mux.Router
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	live := media.NewItem(1, &media.File{Path: "/media/IMG_0001.JPG", Type: "image", Created: day}, nil, nil)
	f := &fixture{
		importer: &fakeImporter{
			sources: []string{"camera", "files"},
			running: make(map[string]bool),
			items:   map[int64]*media.Item{1: live},
		},
		catalog: &fakeCatalog{records: []database.ItemRecord{
			{ID: 1, Source: "files", OriginalName: "IMG_0001.JPG", CacheKey: live.CacheKey()},
			{ID: 2, Source: "camera", OriginalName: "IMG_0002.JPG", CacheKey: "2024-06-01_IMG_0002.JPG"},
			{ID: 3, Source: "camera", OriginalName: "IMG_0003.JPG", CacheKey: "2024-06-01_IMG_0003.JPG"},
		}},
		hub:    events.NewHub(8),
		router: mux.NewRouter(),
	}
	thumbs := fakeThumbnails{
		live.CacheKey():           []byte("live-jpeg"),
		"2024-06-01_IMG_0002.JPG": []byte("stored-jpeg"),
	}
	New(f.importer, f.catalog, thumbs, f.hub).Register(f.router)
	t.Cleanup(f.hub.Close)
	return f
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "healthy" || len(resp.Sources) != 2 {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.ItemsBySource["camera"] != 2 {
		t.Errorf("camera items = %d, want 2", resp.ItemsBySource["camera"])
	}

	head := f.do(http.MethodHead, "/health", "")
	if head.Code != http.StatusOK || head.Body.Len() != 0 {
		t.Errorf("HEAD returned %d with %d bytes", head.Code, head.Body.Len())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	metrics.NotificationsTotal.WithLabelValues("thumbnail").Add(0)

	tests := []struct {
		name        string
		accept      string
		contentType string
		eof         bool
	}{
		{"text format by default", "", "text/plain", false},
		{"openmetrics when asked", "application/openmetrics-text; version=1.0.0", "application/openmetrics-text", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			rec := httptest.NewRecorder()
			f.router.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, tt.contentType) {
				t.Errorf("Content-Type = %q, want %s", ct, tt.contentType)
			}
			body := rec.Body.String()
			if !strings.Contains(body, "media_ingest_notifications_total") {
				t.Error("media_ingest_notifications_total missing from scrape")
			}
			if got := strings.HasSuffix(body, "# EOF\n"); got != tt.eof {
				t.Errorf("EOF marker = %v, want %v", got, tt.eof)
			}
		})
	}

	if rec := f.do(http.MethodPost, "/metrics", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /metrics = %d, want 405", rec.Code)
	}
}

func TestStartScan(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name   string
		source string
		want   int
	}{
		{"starts", "files", http.StatusAccepted},
		{"already running", "files", http.StatusConflict},
		{"unknown source", "phone", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodPost, "/api/scan/"+tt.source, "")
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	rec := f.do(http.MethodGet, "/api/scan/status", "")
	var statuses []importer.ScanStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &statuses); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(statuses) != 1 || statuses[0].Source != "files" {
		t.Errorf("statuses = %+v", statuses)
	}
}

func TestListItems(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/api/items?source=camera&limit=5&offset=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var items []database.ItemRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("got %d items, want 2", len(items))
	}
	if f.catalog.limit != 5 || f.catalog.offset != 1 || f.catalog.source != "camera" {
		t.Errorf("query passed as source=%q limit=%d offset=%d", f.catalog.source, f.catalog.limit, f.catalog.offset)
	}

	f.do(http.MethodGet, "/api/items?limit=bogus", "")
	if f.catalog.limit != defaultPageSize {
		t.Errorf("limit = %d, want default %d", f.catalog.limit, defaultPageSize)
	}

	empty := f.do(http.MethodGet, "/api/items?source=none", "")
	if strings.TrimSpace(empty.Body.String()) != "[]" {
		t.Errorf("empty list encoded as %q", empty.Body.String())
	}
}

func TestGetItem(t *testing.T) {
	f := newFixture(t)
	if rec := f.do(http.MethodGet, "/api/items/2", ""); rec.Code != http.StatusOK {
		t.Errorf("existing item status = %d", rec.Code)
	}
	if rec := f.do(http.MethodGet, "/api/items/99", ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing item status = %d", rec.Code)
	}
}

func TestGetThumbnail(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		id   string
		code int
		body string
	}{
		{"live item", "1", http.StatusOK, "live-jpeg"},
		{"persisted item", "2", http.StatusOK, "stored-jpeg"},
		{"not acquired yet", "3", http.StatusNotFound, ""},
		{"unknown item", "42", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodGet, "/api/thumbnail/"+tt.id, "")
			if rec.Code != tt.code {
				t.Fatalf("status = %d, want %d", rec.Code, tt.code)
			}
			if tt.body != "" {
				if rec.Body.String() != tt.body {
					t.Errorf("body = %q, want %q", rec.Body.String(), tt.body)
				}
				if ct := rec.Header().Get("Content-Type"); ct != "image/jpeg" {
					t.Errorf("Content-Type = %q", ct)
				}
			}
		})
	}
}

func TestStartDownload(t *testing.T) {
	f := newFixture(t)
	if rec := f.do(http.MethodPost, "/api/download", `{"ids":[1,2]}`); rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	if rec := f.do(http.MethodPost, "/api/download", ""); rec.Code != http.StatusAccepted {
		t.Fatalf("empty body status = %d", rec.Code)
	}
	if len(f.importer.downloads) != 2 || len(f.importer.downloads[0]) != 2 || len(f.importer.downloads[1]) != 0 {
		t.Errorf("downloads = %v", f.importer.downloads)
	}
	if rec := f.do(http.MethodPost, "/api/download", `{"ids":`); rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d", rec.Code)
	}

	f.importer.items = nil
	if rec := f.do(http.MethodPost, "/api/download", `{"ids":[7]}`); rec.Code != http.StatusNotFound {
		t.Errorf("no items status = %d", rec.Code)
	}
}

func TestCancelAll(t *testing.T) {
	f := newFixture(t)
	if rec := f.do(http.MethodPost, "/api/cancel", ""); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if f.importer.cancelled != 1 {
		t.Errorf("CancelAll called %d times", f.importer.cancelled)
	}
	if rec := f.do(http.MethodGet, "/api/cancel", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", rec.Code)
	}
}

func TestStreamEvents(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}

	deadline := time.Now().Add(2 * time.Second)
	for f.hub.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("handler never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	f.hub.Available("thumbnail", 7)

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if line != "event: thumbnail\n" {
		t.Errorf("event line = %q", line)
	}
	data, _ := reader.ReadString('\n')
	var ev events.Event
	if err := json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(data), "data: ")), &ev); err != nil {
		t.Fatalf("decode %q: %v", data, err)
	}
	if ev.ID != 7 || ev.Kind != "thumbnail" {
		t.Errorf("event = %+v", ev)
	}
}
