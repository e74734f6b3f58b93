package acquire

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"media-ingest/internal/gate"
	"media-ingest/internal/logging"
	"media-ingest/internal/media"
	"media-ingest/internal/metrics"
)

// ErrNoResult resolves waiters that CancelAll unblocked.
var ErrNoResult = errors.New("acquire: no result")

// Options configures a coordinator.
type Options[A any] struct {
	// Kind labels logs, metrics and notifications ("thumbnail", "download").
	Kind     string
	Gate     *gate.Gate
	Provider Provider[A]
	Cache    Cache[A]
	Notifier Notifier
	// Targets defaults to DisplayTarget.
	Targets Targets
	// Key defaults to ItemKey.
	Key KeyFunc
	// Process post-processes an artifact before it is stored. Optional.
	Process func(A) (A, error)
	// Discard releases an artifact that was delivered but will never be
	// stored: a late callback, a cancelled task, or a failed store. Optional.
	Discard func(A)
}

type result[A any] struct {
	artifact A
	err      error
	ok       bool
}

// promise is fulfilled exactly once: whoever removes it from the pending map
// under the lock is the only sender.
type promise[A any] struct {
	ch chan result[A]
}

type task struct {
	cancel context.CancelFunc
}

// Coordinator drives acquisitions of one artifact kind. The de-duplication
// set, pending promises and running tasks are only touched under mu.
type Coordinator[A any] struct {
	opts Options[A]

	mu        sync.Mutex
	requested map[int64]bool
	pending   map[string]*promise[A]
	running   map[int64]*task
}

// New creates a coordinator.
func New[A any](opts Options[A]) *Coordinator[A] {
	if opts.Targets == nil {
		opts.Targets = DisplayTarget
	}
	if opts.Key == nil {
		opts.Key = ItemKey
	}
	if opts.Notifier == nil {
		opts.Notifier = NotifierFunc(func(string, int64) {})
	}
	return &Coordinator[A]{
		opts:      opts,
		requested: make(map[int64]bool),
		pending:   make(map[string]*promise[A]),
		running:   make(map[int64]*task),
	}
}

// Kind returns the artifact kind label.
func (c *Coordinator[A]) Kind() string { return c.opts.Kind }

// Lookup returns the cached artifact of a target.
func (c *Coordinator[A]) Lookup(item *media.Item, h media.Handle) (A, bool) {
	return c.opts.Cache.Lookup(c.opts.Key(item, h))
}

// cached reports whether every target of item is already in the cache.
func (c *Coordinator[A]) cached(item *media.Item) bool {
	for _, h := range c.opts.Targets(item) {
		if !c.opts.Cache.Exists(c.opts.Key(item, h)) {
			return false
		}
	}
	return true
}

// RequestIfNeeded starts acquiring item's artifacts unless they are cached
// or already requested. The returned channel receives exactly one Outcome.
func (c *Coordinator[A]) RequestIfNeeded(ctx context.Context, item *media.Item) <-chan Outcome {
	out := make(chan Outcome, 1)

	if c.cached(item) {
		metrics.AcquisitionsTotal.WithLabelValues(c.opts.Kind, StatusCached.String()).Inc()
		c.notify(item.ID)
		out <- Outcome{ID: item.ID, Status: StatusCached}
		return out
	}

	c.mu.Lock()
	if c.requested[item.ID] {
		c.mu.Unlock()
		out <- Outcome{ID: item.ID, Status: StatusSkipped}
		return out
	}
	taskCtx, cancel := context.WithCancel(ctx)
	t := &task{cancel: cancel}
	c.requested[item.ID] = true
	c.running[item.ID] = t
	c.mu.Unlock()

	go c.run(taskCtx, item, t, out)
	return out
}

// RequestAll requests every item and returns once all of them are terminal.
func (c *Coordinator[A]) RequestAll(ctx context.Context, items []*media.Item) BatchResult {
	chans := make([]<-chan Outcome, 0, len(items))
	for _, item := range items {
		chans = append(chans, c.RequestIfNeeded(ctx, item))
	}

	var res BatchResult
	for _, ch := range chans {
		res.add(<-ch)
	}
	logging.Info("%s batch of %d items finished: %s", c.opts.Kind, len(items), res)
	return res
}

func (c *Coordinator[A]) run(ctx context.Context, item *media.Item, t *task, out chan<- Outcome) {
	status, err := c.acquire(ctx, item)

	c.mu.Lock()
	if c.running[item.ID] == t {
		delete(c.running, item.ID)
	}
	c.mu.Unlock()
	t.cancel()

	metrics.AcquisitionsTotal.WithLabelValues(c.opts.Kind, status.String()).Inc()
	switch status {
	case StatusFailed:
		logging.Warn("%s for %s failed: %v", c.opts.Kind, item, err)
	case StatusCancelled:
		logging.Debug("%s for %s cancelled: %v", c.opts.Kind, item, err)
	default:
		logging.Debug("%s for %s %s", c.opts.Kind, item, status)
	}

	out <- Outcome{ID: item.ID, Status: status, Err: err}
}

// acquire holds one gate slot for all targets of item.
func (c *Coordinator[A]) acquire(ctx context.Context, item *media.Item) (Status, error) {
	if err := c.opts.Gate.Acquire(ctx); err != nil {
		return StatusCancelled, err
	}
	defer c.opts.Gate.Release()

	start := time.Now()
	defer func() {
		metrics.AcquisitionDuration.WithLabelValues(c.opts.Kind).Observe(time.Since(start).Seconds())
	}()

	for _, h := range c.opts.Targets(item) {
		key := c.opts.Key(item, h)
		if c.opts.Cache.Exists(key) {
			continue
		}

		artifact, err := c.await(ctx, h)
		if ctx.Err() != nil {
			if err == nil {
				c.discard(artifact)
			}
			return StatusCancelled, ctx.Err()
		}
		if errors.Is(err, ErrNoResult) {
			return StatusCancelled, err
		}
		if err != nil {
			return StatusFailed, fmt.Errorf("%s: %w", h.Name(), err)
		}

		if c.opts.Process != nil {
			processed, err := c.opts.Process(artifact)
			if err != nil {
				c.discard(artifact)
				return StatusFailed, fmt.Errorf("processing %s: %w", h.Name(), err)
			}
			artifact = processed
		}
		if err := c.opts.Cache.Store(artifact, key); err != nil {
			c.discard(artifact)
			return StatusFailed, fmt.Errorf("storing %s: %w", key, err)
		}
	}

	if ctx.Err() != nil {
		return StatusCancelled, ctx.Err()
	}
	c.notify(item.ID)
	return StatusCompleted, nil
}

// await registers a promise for h before issuing the request, so a callback
// that fires immediately still finds it. Once registered, only the provider
// or CancelAll can resolve it.
func (c *Coordinator[A]) await(ctx context.Context, h media.Handle) (A, error) {
	p := &promise[A]{ch: make(chan result[A], 1)}
	key := h.Key()

	c.mu.Lock()
	if err := ctx.Err(); err != nil {
		c.mu.Unlock()
		var zero A
		return zero, err
	}
	if prev, ok := c.pending[key]; ok {
		prev.ch <- result[A]{}
	}
	c.pending[key] = p
	c.reportPending()
	c.mu.Unlock()

	c.opts.Provider.Request(h, c.deliver)

	r := <-p.ch
	if !r.ok {
		var zero A
		return zero, ErrNoResult
	}
	return r.artifact, r.err
}

// deliver is the provider callback.
func (c *Coordinator[A]) deliver(h media.Handle, artifact A, err error) {
	key := h.Key()

	c.mu.Lock()
	p, ok := c.pending[key]
	if ok {
		delete(c.pending, key)
		c.reportPending()
	}
	c.mu.Unlock()

	if !ok {
		metrics.AcquisitionLateCallbacks.WithLabelValues(c.opts.Kind).Inc()
		logging.Debug("%s callback for %s arrived with no waiter", c.opts.Kind, h.Name())
		if err == nil {
			c.discard(artifact)
		}
		return
	}
	p.ch <- result[A]{artifact: artifact, err: err, ok: true}
}

func (c *Coordinator[A]) discard(artifact A) {
	if c.opts.Discard != nil {
		c.opts.Discard(artifact)
	}
}

func (c *Coordinator[A]) notify(id int64) {
	metrics.NotificationsTotal.WithLabelValues(c.opts.Kind).Inc()
	c.opts.Notifier.Available(c.opts.Kind, id)
}

// CancelAll cancels every running task, wakes gate waiters, resolves every
// pending promise with no result and forgets all requested ids. When it
// returns no waiter is left parked.
func (c *Coordinator[A]) CancelAll() {
	c.mu.Lock()
	running := c.running
	pending := c.pending
	// Cancelling under the lock keeps a task from registering a new promise
	// after the pending map was swapped out.
	for _, t := range running {
		t.cancel()
	}
	c.requested = make(map[int64]bool)
	c.running = make(map[int64]*task)
	c.pending = make(map[string]*promise[A])
	c.reportPending()
	c.mu.Unlock()

	c.opts.Gate.CancelAll()
	for _, p := range pending {
		p.ch <- result[A]{}
	}

	if len(running) > 0 || len(pending) > 0 {
		logging.Info("%s: cancelled %d tasks, resolved %d pending callbacks", c.opts.Kind, len(running), len(pending))
	}
}

// Forget clears the requested mark of id so a caller can retry a failed
// item. It has no effect on a running task.
func (c *Coordinator[A]) Forget(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, running := c.running[id]; !running {
		delete(c.requested, id)
	}
}

// IsRequested reports whether id is marked as requested.
func (c *Coordinator[A]) IsRequested(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requested[id]
}

// Stats returns the number of running tasks and pending callbacks.
func (c *Coordinator[A]) Stats() (running, pending int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.running), len(c.pending)
}

// reportPending must be called with mu held.
func (c *Coordinator[A]) reportPending() {
	metrics.AcquisitionsPending.WithLabelValues(c.opts.Kind).Set(float64(len(c.pending)))
}
