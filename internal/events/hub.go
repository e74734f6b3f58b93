package events

import (
	"sync"
	"time"

	"media-ingest/internal/logging"
	"media-ingest/internal/metrics"
)

// Event says that an artifact of an item became available.
type Event struct {
	Kind string    `json:"kind"`
	ID   int64     `json:"id"`
	At   time.Time `json:"at"`
}

// Hub fans availability events out to subscribers. Publishing never
// blocks: a subscriber whose buffer is full misses the event.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
	buffer int
	closed bool
}

// NewHub creates a hub whose subscriptions buffer up to buffer events.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{subs: make(map[int]chan Event), buffer: buffer}
}

// Available publishes an event, satisfying the coordinators' notifier.
func (h *Hub) Available(kind string, id int64) {
	h.Publish(Event{Kind: kind, ID: id, At: time.Now()})
}

// Publish delivers e to every subscriber that has room for it.
func (h *Hub) Publish(e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.subs {
		select {
		case ch <- e:
		default:
			metrics.EventsDropped.Inc()
			logging.Debug("Subscriber %d is slow, dropping %s event for item %d", id, e.Kind, e.ID)
		}
	}
}

// Subscribe returns a channel of events and a function that ends the
// subscription and closes the channel.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, h.buffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	metrics.EventSubscribers.Set(float64(len(h.subs)))

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(c)
			}
			metrics.EventSubscribers.Set(float64(len(h.subs)))
		})
	}
}

// Subscribers returns the number of active subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close ends every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
	metrics.EventSubscribers.Set(0)
}
