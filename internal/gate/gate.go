package gate

import (
	"container/list"
	"context"
	"errors"
	"sync"

	"media-ingest/internal/logging"
	"media-ingest/internal/metrics"
)

// ErrCancelled is returned to waiters woken by CancelAll.
var ErrCancelled = errors.New("gate: cancelled")

type waiter struct {
	ready   chan struct{}
	granted bool
}

// Gate admits at most limit concurrent holders. Waiters are served in FIFO
// order and a released slot is handed straight to the oldest waiter.
type Gate struct {
	name  string
	limit int

	mu      sync.Mutex
	active  int
	waiters list.List
}

// New creates a gate. Limits below one are raised to one.
func New(name string, limit int) *Gate {
	if limit < 1 {
		limit = 1
	}
	metrics.GateLimit.WithLabelValues(name).Set(float64(limit))
	return &Gate{name: name, limit: limit}
}

// Name returns the gate's metrics label.
func (g *Gate) Name() string { return g.name }

// Limit returns the configured limit.
func (g *Gate) Limit() int { return g.limit }

// Acquire blocks until a slot is granted, ctx is done, or CancelAll wakes
// the caller. Only a nil return grants a slot that must be released.
func (g *Gate) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	g.mu.Lock()
	if g.active < g.limit && g.waiters.Len() == 0 {
		g.active++
		g.report()
		g.mu.Unlock()
		return nil
	}
	w := &waiter{ready: make(chan struct{})}
	elem := g.waiters.PushBack(w)
	g.report()
	g.mu.Unlock()

	select {
	case <-w.ready:
		if w.granted {
			return nil
		}
		return ErrCancelled
	case <-ctx.Done():
	}

	g.mu.Lock()
	select {
	case <-w.ready:
		granted := w.granted
		g.mu.Unlock()
		if granted {
			// The slot arrived together with the cancellation; pass it on.
			g.Release()
		}
		return ctx.Err()
	default:
	}
	g.waiters.Remove(elem)
	g.report()
	g.mu.Unlock()
	return ctx.Err()
}

// Release frees a slot. The oldest waiter, if any, inherits it directly.
func (g *Gate) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if front := g.waiters.Front(); front != nil {
		w := g.waiters.Remove(front).(*waiter)
		w.granted = true
		close(w.ready)
		g.report()
		return
	}
	if g.active > 0 {
		g.active--
	}
	g.report()
}

// CancelAll wakes every waiter with ErrCancelled and resets the active
// count. Holders that are still running finish normally; their later
// Release calls never push the count below zero. Only meant for teardown.
func (g *Gate) CancelAll() {
	g.mu.Lock()
	defer g.mu.Unlock()

	woken := g.waiters.Len()
	for e := g.waiters.Front(); e != nil; e = e.Next() {
		close(e.Value.(*waiter).ready)
	}
	g.waiters.Init()
	g.active = 0
	g.report()

	if woken > 0 {
		logging.Debug("gate %s: cancelled %d waiters", g.name, woken)
	}
}

// Stats returns the number of active holders and queued waiters.
func (g *Gate) Stats() (active, waiting int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active, g.waiters.Len()
}

// report must be called with mu held.
func (g *Gate) report() {
	metrics.GateInFlight.WithLabelValues(g.name).Set(float64(g.active))
	metrics.GateWaiting.WithLabelValues(g.name).Set(float64(g.waiters.Len()))
}
