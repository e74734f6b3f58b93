package memory

import (
	"context"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"media-ingest/internal/logging"
	"media-ingest/internal/metrics"
)

// Config holds the guard thresholds as fractions of the limit.
type Config struct {
	// LimitBytes of 0 uses GOMEMLIMIT; without either the guard never pauses.
	LimitBytes int64
	// Pause new decodes at or above this usage.
	PauseAt float64
	// Resume once usage drops below this.
	ResumeAt      float64
	CheckInterval time.Duration
}

// DefaultConfig returns the thresholds used by the server.
func DefaultConfig() Config {
	return Config{
		PauseAt:       0.85,
		ResumeAt:      0.70,
		CheckInterval: 2 * time.Second,
	}
}

// Guard samples heap usage and holds back new decodes while it is critical.
type Guard struct {
	config Config
	limit  int64
	sample func() uint64

	stopOnce sync.Once
	stopChan chan struct{}

	mu      sync.Mutex
	paused  bool
	resumed chan struct{}
	usage   float64
}

// NewGuard creates a guard. It does nothing until Start.
func NewGuard(config Config) *Guard {
	limit := config.LimitBytes
	if limit == 0 {
		if l := debug.SetMemoryLimit(-1); l > 0 && l < 1<<62 {
			limit = l
		}
	}
	return &Guard{
		config:   config,
		limit:    limit,
		sample:   heapAlloc,
		stopChan: make(chan struct{}),
		resumed:  make(chan struct{}),
	}
}

func heapAlloc() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.Alloc
}

// Start begins sampling. Without a limit there is nothing to watch.
func (g *Guard) Start() {
	if g.limit == 0 {
		logging.Debug("Memory guard disabled: no memory limit configured")
		return
	}
	go func() {
		ticker := time.NewTicker(g.config.CheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				g.check()
			case <-g.stopChan:
				return
			}
		}
	}()
}

// Stop ends sampling and releases every waiter.
func (g *Guard) Stop() {
	g.stopOnce.Do(func() { close(g.stopChan) })
}

func (g *Guard) check() {
	alloc := g.sample()
	g.mu.Lock()
	defer g.mu.Unlock()

	g.usage = float64(alloc) / float64(g.limit)
	metrics.MemoryUsageRatio.Set(g.usage)

	switch {
	case !g.paused && g.usage >= g.config.PauseAt:
		logging.Warn("Memory critical (%.1f%% of limit), holding back new decodes", g.usage*100)
		g.paused = true
		metrics.MemoryPaused.Set(1)
		go runtime.GC()
	case g.paused && g.usage < g.config.ResumeAt:
		logging.Info("Memory recovered (%.1f%% of limit), resuming decodes", g.usage*100)
		g.paused = false
		metrics.MemoryPaused.Set(0)
		close(g.resumed)
		g.resumed = make(chan struct{})
	}
}

// Wait returns immediately unless memory is critical, in which case it
// blocks until usage recovers, the guard stops or ctx ends.
func (g *Guard) Wait(ctx context.Context) error {
	g.mu.Lock()
	if !g.paused {
		g.mu.Unlock()
		return nil
	}
	resumed := g.resumed
	g.mu.Unlock()

	select {
	case <-resumed:
		return nil
	case <-g.stopChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Paused reports whether decodes are being held back.
func (g *Guard) Paused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused
}

// Usage returns the last sampled usage ratio, or 0 without a limit.
func (g *Guard) Usage() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.usage
}
