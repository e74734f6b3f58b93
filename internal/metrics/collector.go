package metrics

import (
	"time"

	"media-ingest/internal/logging"
)

// StatsProvider supplies storage statistics.
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds per-source item counts.
type Stats struct {
	ItemsBySource map[string]int
	Downloaded    int
}

// Collector periodically copies storage statistics into gauges.
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the collection loop.
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop ends the collection loop.
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()
	total := 0
	for source, n := range stats.ItemsBySource {
		StoredItems.WithLabelValues(source).Set(float64(n))
		total += n
	}
	DownloadedItems.Set(float64(stats.Downloaded))

	logging.Debug("Metrics collected: items=%d, downloaded=%d", total, stats.Downloaded)
}
