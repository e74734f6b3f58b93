package importer

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"media-ingest/internal/acquire"
	"media-ingest/internal/download"
	"media-ingest/internal/events"
	"media-ingest/internal/gate"
	"media-ingest/internal/media"
	"media-ingest/internal/mediatypes"
	"media-ingest/internal/source"
	"media-ingest/internal/thumbnail"
)

var captured = time.Date(2024, 6, 2, 14, 0, 0, 0, time.Local)

// fakeSource returns a fixed set of file handles.
type fakeSource struct {
	name    string
	handles []media.Handle
	block   chan struct{}
}

func (s *fakeSource) Name() string { return s.name }

func (s *fakeSource) Enumerate(ctx context.Context) ([]media.Handle, error) {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.handles, nil
}

func files(dir string, names ...string) []media.Handle {
	var out []media.Handle
	for _, n := range names {
		out = append(out, &media.File{Path: filepath.Join(dir, n), Type: mediatypes.KindForName(n), Created: captured})
	}
	return out
}

// fakeStore keeps items in memory.
type fakeStore struct {
	mu         sync.Mutex
	ids        map[string]map[string]int64
	saved      map[int64]*media.Item
	downloaded map[int64]bool
	failKnown  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		ids:        make(map[string]map[string]int64),
		saved:      make(map[int64]*media.Item),
		downloaded: make(map[int64]bool),
	}
}

func (f *fakeStore) KnownIDs(_ context.Context, source string) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failKnown {
		return nil, errors.New("database is locked")
	}
	out := make(map[string]int64)
	for k, v := range f.ids[source] {
		out[k] = v
	}
	return out, nil
}

func (f *fakeStore) SaveItems(_ context.Context, source string, items []*media.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids[source] = make(map[string]int64)
	for _, item := range items {
		f.ids[source][item.Original.Key()] = item.ID
		f.saved[item.ID] = item
	}
	return nil
}

func (f *fakeStore) MarkDownloaded(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloaded[id] = true
	return nil
}

func (f *fakeStore) isDownloaded(id int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.downloaded[id]
}

type harness struct {
	im        *Importer
	store     *fakeStore
	hub       *events.Hub
	downloads *download.Store
}

// newHarness wires an importer with real coordinators. thumbs and dls are
// the providers; nil uses one that delivers immediately.
func newHarness(t *testing.T, src source.Source, thumbs acquire.Provider[image.Image], dls acquire.Provider[string]) *harness {
	t.Helper()
	cache, err := thumbnail.NewCache("", 100)
	if err != nil {
		t.Fatal(err)
	}
	store, err := download.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if thumbs == nil {
		thumbs = acquire.ProviderFunc[image.Image](func(h media.Handle, deliver acquire.Deliver[image.Image]) {
			deliver(h, image.NewNRGBA(image.Rect(0, 0, 8, 4)), nil)
		})
	}
	if dls == nil {
		dls = copyProvider(t, store.Dir())
	}

	hub := events.NewHub(64)
	thumbnails := acquire.New(acquire.Options[image.Image]{
		Kind:     "thumbnail",
		Gate:     gate.New("importer-test-thumbnail", 4),
		Provider: thumbs,
		Cache:    cache,
		Notifier: hub,
		Process:  thumbnail.CropSquare,
	})
	downloads := acquire.New(acquire.Options[string]{
		Kind:     "download",
		Gate:     gate.New("importer-test-download", 2),
		Provider: dls,
		Cache:    store,
		Notifier: hub,
		Targets:  acquire.AllTargets,
		Key:      acquire.HandleKey,
	})

	fs := newFakeStore()
	im := New(Options{
		Store:      fs,
		Sources:    source.NewRegistry(src),
		Thumbnails: thumbnails,
		Downloads:  downloads,
	})
	t.Cleanup(im.Close)
	return &harness{im: im, store: fs, hub: hub, downloads: store}
}

func copyProvider(t *testing.T, dir string) acquire.Provider[string] {
	return acquire.ProviderFunc[string](func(h media.Handle, deliver acquire.Deliver[string]) {
		f, err := os.CreateTemp(dir, ".partial-*")
		if err != nil {
			deliver(h, "", err)
			return
		}
		f.WriteString(h.Name())
		f.Close()
		deliver(h, f.Name(), nil)
	})
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestScanGroupsPersistsAndRequestsThumbnails(t *testing.T) {
	src := &fakeSource{name: "folder", handles: files("/media",
		"IMG_0001.JPG", "IMG_E0001.JPG", "IMG_0001.MOV", "IMG_0002.HEIC", "IMG_0002.AAE")}
	h := newHarness(t, src, nil, nil)
	sub, cancel := h.hub.Subscribe()
	defer cancel()

	status, err := h.im.Scan(context.Background(), "folder")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if status.ID == "" || status.State != ScanCompleted || status.FinishedAt == nil {
		t.Errorf("unexpected status %+v", status)
	}
	if status.RawItems != 5 || status.Items != 2 {
		t.Errorf("raw=%d items=%d, want 5 and 2", status.RawItems, status.Items)
	}
	if status.Compositions["edited_live"] != 1 || status.Compositions["single"] != 1 {
		t.Errorf("compositions = %v", status.Compositions)
	}
	if status.Thumbnails == nil || status.Thumbnails.Completed != 2 {
		t.Errorf("thumbnails = %+v", status.Thumbnails)
	}
	if len(h.store.saved) != 2 {
		t.Errorf("saved %d items, want 2", len(h.store.saved))
	}
	if len(h.im.Items("folder")) != 2 || len(h.im.Items("")) != 2 {
		t.Error("items of the scan not tracked")
	}

	for i := 0; i < 2; i++ {
		select {
		case e := <-sub:
			if e.Kind != "thumbnail" {
				t.Errorf("event kind = %s", e.Kind)
			}
		case <-time.After(time.Second):
			t.Fatal("missing thumbnail notification")
		}
	}
}

func TestRescanKeepsIDs(t *testing.T) {
	src := &fakeSource{name: "folder", handles: files("/media", "IMG_0001.JPG", "IMG_0002.JPG")}
	h := newHarness(t, src, nil, nil)

	if _, err := h.im.Scan(context.Background(), "folder"); err != nil {
		t.Fatal(err)
	}
	first := map[string]int64{}
	for _, item := range h.im.Items("folder") {
		first[item.Original.Name()] = item.ID
	}

	src.handles = append(src.handles, files("/media", "IMG_E0002.JPG")...)
	status, err := h.im.Scan(context.Background(), "folder")
	if err != nil {
		t.Fatal(err)
	}
	if status.Thumbnails.Cached != 1 {
		t.Errorf("unchanged item should hit the cache: %+v", status.Thumbnails)
	}
	for _, item := range h.im.Items("folder") {
		if item.ID != first[item.Original.Name()] {
			t.Errorf("%s changed id %d -> %d", item.Original.Name(), first[item.Original.Name()], item.ID)
		}
	}
}

func TestScanErrors(t *testing.T) {
	src := &fakeSource{name: "folder", handles: files("/media", "IMG_0001.JPG")}
	h := newHarness(t, src, nil, nil)

	if _, err := h.im.Scan(context.Background(), "nope"); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("unknown source: %v", err)
	}

	h.store.failKnown = true
	status, err := h.im.Scan(context.Background(), "folder")
	if err == nil || status.State != ScanFailed || status.Error == "" {
		t.Errorf("expected failed scan, got %+v, %v", status, err)
	}
}

func TestOneScanPerSource(t *testing.T) {
	src := &fakeSource{name: "camera", handles: files("/dcim", "IMG_0001.JPG"), block: make(chan struct{})}
	h := newHarness(t, src, nil, nil)

	initial, err := h.im.StartScan("camera")
	if err != nil {
		t.Fatalf("StartScan: %v", err)
	}
	if initial.State != ScanRunning {
		t.Errorf("initial state = %s", initial.State)
	}
	if _, err := h.im.Scan(context.Background(), "camera"); !errors.Is(err, ErrScanInProgress) {
		t.Errorf("second scan: %v, want ErrScanInProgress", err)
	}

	close(src.block)
	waitFor(t, "scan to finish", func() bool {
		s := h.im.Status()
		return len(s) == 1 && s[0].Done()
	})
	if s := h.im.Status()[0]; s.State != ScanCompleted || s.ID != initial.ID {
		t.Errorf("final status %+v", s)
	}
}

func TestCancelAllUnblocksScan(t *testing.T) {
	var requests atomic.Int32
	silent := acquire.ProviderFunc[image.Image](func(media.Handle, acquire.Deliver[image.Image]) {
		requests.Add(1)
	})
	src := &fakeSource{name: "camera", handles: files("/dcim", "IMG_0001.JPG", "IMG_0002.JPG", "IMG_0003.JPG")}
	h := newHarness(t, src, silent, nil)

	if _, err := h.im.StartScan("camera"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "thumbnail requests", func() bool { return requests.Load() == 3 })

	h.im.CancelAll()
	waitFor(t, "scan to finish", func() bool { return h.im.Status()[0].Done() })

	s := h.im.Status()[0]
	if s.State != ScanCancelled {
		t.Errorf("state = %s, want cancelled", s.State)
	}
	if s.Thumbnails == nil || s.Thumbnails.Completed != 0 {
		t.Errorf("thumbnails = %+v", s.Thumbnails)
	}
}

func TestDownload(t *testing.T) {
	src := &fakeSource{name: "folder", handles: files("/media", "IMG_0001.JPG", "IMG_0001.MOV", "IMG_0002.JPG")}
	h := newHarness(t, src, nil, nil)
	if _, err := h.im.Scan(context.Background(), "folder"); err != nil {
		t.Fatal(err)
	}

	summary, err := h.im.Download(context.Background(), nil)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if summary.Completed != 2 {
		t.Errorf("summary = %+v", summary)
	}
	for _, item := range h.im.Items("") {
		if !h.store.isDownloaded(item.ID) {
			t.Errorf("item %d not marked downloaded", item.ID)
		}
		for _, handle := range item.Handles() {
			if !h.downloads.Exists(media.HandleCacheKey(handle)) {
				t.Errorf("%s not in the download store", handle.Name())
			}
		}
	}

	again, err := h.im.Download(context.Background(), nil)
	if err != nil || again.Cached != 2 {
		t.Errorf("second download = %+v, %v", again, err)
	}

	if _, err := h.im.Download(context.Background(), []int64{-1}); !errors.Is(err, ErrNoItems) {
		t.Errorf("unknown ids: %v, want ErrNoItems", err)
	}
}

func TestFailedDownloadIsRetried(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	src := &fakeSource{name: "folder", handles: files("/media", "IMG_0001.JPG")}

	var h *harness
	flaky := acquire.ProviderFunc[string](func(handle media.Handle, deliver acquire.Deliver[string]) {
		if fail.Load() {
			deliver(handle, "", errors.New("device busy"))
			return
		}
		copyProvider(t, h.downloads.Dir()).Request(handle, deliver)
	})
	h = newHarness(t, src, nil, flaky)
	if _, err := h.im.Scan(context.Background(), "folder"); err != nil {
		t.Fatal(err)
	}

	first, err := h.im.Download(context.Background(), nil)
	if err != nil || first.Failed != 1 {
		t.Fatalf("first = %+v, %v", first, err)
	}

	fail.Store(false)
	second, err := h.im.Download(context.Background(), nil)
	if err != nil || second.Completed != 1 {
		t.Errorf("retry = %+v, %v", second, err)
	}
}
