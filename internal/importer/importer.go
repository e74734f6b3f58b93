package importer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"media-ingest/internal/acquire"
	"media-ingest/internal/database"
	"media-ingest/internal/grouping"
	"media-ingest/internal/logging"
	"media-ingest/internal/media"
	"media-ingest/internal/metrics"
	"media-ingest/internal/source"
)

var (
	// ErrUnknownSource is returned for a source name that is not registered.
	ErrUnknownSource = errors.New("unknown source")
	// ErrScanInProgress is returned when the source is already being scanned.
	ErrScanInProgress = errors.New("scan already in progress")
	// ErrNoItems is returned when none of the requested ids are known.
	ErrNoItems = errors.New("no known items")
)

// Store persists grouped items.
type Store interface {
	KnownIDs(ctx context.Context, source string) (map[string]int64, error)
	SaveItems(ctx context.Context, source string, items []*media.Item) error
	MarkDownloaded(ctx context.Context, id int64) error
}

// ScanState is the phase of a scan.
type ScanState string

// Scan phases.
const (
	ScanRunning    ScanState = "running"
	ScanThumbnails ScanState = "thumbnails"
	ScanCompleted  ScanState = "completed"
	ScanFailed     ScanState = "failed"
	ScanCancelled  ScanState = "cancelled"
)

// BatchSummary counts the outcomes of an acquisition batch.
type BatchSummary struct {
	Completed int `json:"completed"`
	Cached    int `json:"cached"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`
	Skipped   int `json:"skipped"`
}

func summarize(r acquire.BatchResult) BatchSummary {
	return BatchSummary{
		Completed: r.Completed,
		Cached:    r.Cached,
		Failed:    r.Failed,
		Cancelled: r.Cancelled,
		Skipped:   r.Skipped,
	}
}

// ScanStatus reports one scan pass.
type ScanStatus struct {
	ID           string         `json:"id"`
	Source       string         `json:"source"`
	State        ScanState      `json:"state"`
	StartedAt    time.Time      `json:"startedAt"`
	FinishedAt   *time.Time     `json:"finishedAt,omitempty"`
	RawItems     int            `json:"rawItems"`
	Items        int            `json:"items"`
	Compositions map[string]int `json:"compositions,omitempty"`
	Thumbnails   *BatchSummary  `json:"thumbnails,omitempty"`
	Error        string         `json:"error,omitempty"`
}

// Done reports whether the scan has finished.
func (s ScanStatus) Done() bool {
	return s.State == ScanCompleted || s.State == ScanFailed || s.State == ScanCancelled
}

// Options configures an Importer.
type Options struct {
	Store      Store
	Sources    *source.Registry
	Thumbnails *acquire.Coordinator[image.Image]
	Downloads  *acquire.Coordinator[string]
}

// Importer drives scans and downloads over the configured sources.
type Importer struct {
	store      Store
	sources    *source.Registry
	thumbnails *acquire.Coordinator[image.Image]
	downloads  *acquire.Coordinator[string]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	scans    map[string]*ScanStatus // latest scan per source
	aborts   map[string]context.CancelFunc
	items    map[int64]*media.Item
	bySource map[string][]int64
}

// New creates an importer.
func New(opts Options) *Importer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Importer{
		store:      opts.Store,
		sources:    opts.Sources,
		thumbnails: opts.Thumbnails,
		downloads:  opts.Downloads,
		ctx:        ctx,
		cancel:     cancel,
		scans:      make(map[string]*ScanStatus),
		aborts:     make(map[string]context.CancelFunc),
		items:      make(map[int64]*media.Item),
		bySource:   make(map[string][]int64),
	}
}

// Sources returns the registered source names.
func (im *Importer) Sources() []string { return im.sources.Names() }

// Scan scans the named source and returns once its thumbnails are terminal.
func (im *Importer) Scan(ctx context.Context, name string) (ScanStatus, error) {
	src, status, scanCtx, err := im.begin(ctx, name)
	if err != nil {
		return ScanStatus{}, err
	}
	err = im.run(scanCtx, src, status)
	return im.snapshot(name), err
}

// StartScan starts a scan in the background and returns its initial status.
func (im *Importer) StartScan(name string) (ScanStatus, error) {
	src, status, scanCtx, err := im.begin(im.ctx, name)
	if err != nil {
		return ScanStatus{}, err
	}
	initial := im.snapshot(name)

	im.wg.Add(1)
	go func() {
		defer im.wg.Done()
		if err := im.run(scanCtx, src, status); err != nil {
			logging.Error("Scan of %s failed: %v", name, err)
		}
	}()
	return initial, nil
}

func (im *Importer) begin(ctx context.Context, name string) (source.Source, *ScanStatus, context.Context, error) {
	src, ok := im.sources.Get(name)
	if !ok {
		return nil, nil, nil, fmt.Errorf("%w: %s", ErrUnknownSource, name)
	}

	im.mu.Lock()
	defer im.mu.Unlock()
	if prev, ok := im.scans[name]; ok && !prev.Done() {
		return nil, nil, nil, fmt.Errorf("%w: %s (%s)", ErrScanInProgress, name, prev.ID)
	}

	scanCtx, cancel := context.WithCancel(ctx)
	status := &ScanStatus{
		ID:        uuid.NewString(),
		Source:    name,
		State:     ScanRunning,
		StartedAt: time.Now(),
	}
	im.scans[name] = status
	im.aborts[name] = cancel
	metrics.ScansInProgress.Inc()
	return src, status, scanCtx, nil
}

func (im *Importer) run(ctx context.Context, src source.Source, status *ScanStatus) (err error) {
	name := src.Name()
	start := time.Now()
	logging.Info("Scan %s of source %s started", status.ID, name)

	defer func() {
		state := ScanCompleted
		switch {
		case ctx.Err() != nil:
			state = ScanCancelled
		case err != nil:
			state = ScanFailed
		}
		im.finish(name, status, state, err)

		result := "success"
		if state != ScanCompleted {
			result = "error"
		}
		metrics.ScansTotal.WithLabelValues(name, result).Inc()
		metrics.ScanDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		metrics.ScansInProgress.Dec()
		logging.Info("Scan %s of source %s %s in %v", status.ID, name, state, time.Since(start))
	}()

	handles, err := src.Enumerate(ctx)
	if err != nil {
		return fmt.Errorf("enumerate %s: %w", name, err)
	}
	metrics.RawItemsEnumerated.WithLabelValues(name).Add(float64(len(handles)))

	known, err := im.store.KnownIDs(ctx, name)
	if err != nil {
		return fmt.Errorf("load known ids: %w", err)
	}
	items := grouping.Items(handles, database.IDLookup(known))

	compositions := map[string]int{"single": 0, "edited": 0, "live": 0, "edited_live": 0}
	for _, item := range items {
		compositions[database.Composition(item)]++
	}
	for c, n := range compositions {
		metrics.GroupedItems.WithLabelValues(name, c).Set(float64(n))
	}

	if err = im.store.SaveItems(ctx, name, items); err != nil {
		return fmt.Errorf("save items: %w", err)
	}
	im.replaceItems(name, items)

	im.mu.Lock()
	status.RawItems = len(handles)
	status.Items = len(items)
	status.Compositions = compositions
	status.State = ScanThumbnails
	im.mu.Unlock()
	logging.Info("Source %s: %d raw items grouped into %d items", name, len(handles), len(items))

	summary := summarize(im.thumbnails.RequestAll(ctx, items))
	im.mu.Lock()
	status.Thumbnails = &summary
	im.mu.Unlock()
	return ctx.Err()
}

func (im *Importer) finish(name string, status *ScanStatus, state ScanState, err error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	now := time.Now()
	status.State = state
	status.FinishedAt = &now
	if err != nil {
		status.Error = err.Error()
	}
	if cancel, ok := im.aborts[name]; ok {
		cancel()
		delete(im.aborts, name)
	}
}

// replaceItems swaps in the items of the latest scan of source. Items whose
// thumbnail key changed since the previous scan (a new edit) are forgotten
// by the thumbnail coordinator so they are requested again.
func (im *Importer) replaceItems(name string, items []*media.Item) {
	im.mu.Lock()
	previous := make(map[int64]string, len(im.bySource[name]))
	for _, id := range im.bySource[name] {
		previous[id] = im.items[id].CacheKey()
		delete(im.items, id)
	}
	ids := make([]int64, 0, len(items))
	var changed []int64
	for _, item := range items {
		if key, ok := previous[item.ID]; ok && key != item.CacheKey() {
			changed = append(changed, item.ID)
		}
		im.items[item.ID] = item
		ids = append(ids, item.ID)
	}
	im.bySource[name] = ids
	im.mu.Unlock()

	for _, id := range changed {
		im.thumbnails.Forget(id)
	}
}

func (im *Importer) snapshot(name string) ScanStatus {
	im.mu.Lock()
	defer im.mu.Unlock()
	s, ok := im.scans[name]
	if !ok {
		return ScanStatus{}
	}
	c := *s
	if s.Compositions != nil {
		c.Compositions = make(map[string]int, len(s.Compositions))
		for k, v := range s.Compositions {
			c.Compositions[k] = v
		}
	}
	if s.Thumbnails != nil {
		t := *s.Thumbnails
		c.Thumbnails = &t
	}
	return c
}

// Status returns the latest scan of every source that was scanned.
func (im *Importer) Status() []ScanStatus {
	im.mu.Lock()
	names := make([]string, 0, len(im.scans))
	for name := range im.scans {
		names = append(names, name)
	}
	im.mu.Unlock()

	sort.Strings(names)
	out := make([]ScanStatus, 0, len(names))
	for _, name := range names {
		out = append(out, im.snapshot(name))
	}
	return out
}

// Item returns an item of the latest scans.
func (im *Importer) Item(id int64) (*media.Item, bool) {
	im.mu.Lock()
	defer im.mu.Unlock()
	item, ok := im.items[id]
	return item, ok
}

// Items returns the items of the latest scan of source, or of every source
// when name is empty, ordered by id.
func (im *Importer) Items(name string) []*media.Item {
	im.mu.Lock()
	defer im.mu.Unlock()
	var out []*media.Item
	for source, ids := range im.bySource {
		if name != "" && source != name {
			continue
		}
		for _, id := range ids {
			out = append(out, im.items[id])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CancelAll aborts running scans and cancels every thumbnail and download
// acquisition. It returns once no coordinator waiter is left parked.
func (im *Importer) CancelAll() {
	im.mu.Lock()
	for _, cancel := range im.aborts {
		cancel()
	}
	im.mu.Unlock()

	im.thumbnails.CancelAll()
	im.downloads.CancelAll()
	logging.Info("All acquisitions cancelled")
}

// Close cancels everything and waits for background scans to finish.
func (im *Importer) Close() {
	im.cancel()
	im.CancelAll()
	im.wg.Wait()
}
