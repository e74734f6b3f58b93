package acquire

import (
	"fmt"

	"media-ingest/internal/media"
)

// Deliver is the completion callback a provider invokes for a request. h
// must be the handle the request was issued for.
type Deliver[A any] func(h media.Handle, artifact A, err error)

// Provider issues callback-based acquisition requests. Request must not
// block on the transfer itself; deliver is invoked at most once per request,
// possibly from another goroutine, possibly never (e.g. after the device
// disconnected).
type Provider[A any] interface {
	Request(h media.Handle, deliver Deliver[A])
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc[A any] func(h media.Handle, deliver Deliver[A])

// Request calls f.
func (f ProviderFunc[A]) Request(h media.Handle, deliver Deliver[A]) {
	f(h, deliver)
}

// Cache stores finished artifacts. Implementations must be safe for
// concurrent use; a duplicate Store for the same key is harmless.
type Cache[A any] interface {
	Exists(key string) bool
	Store(artifact A, key string) error
	Lookup(key string) (A, bool)
}

// Notifier receives "artifact available" signals, at most once per
// successful acquisition.
type Notifier interface {
	Available(kind string, id int64)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(kind string, id int64)

// Available calls f.
func (f NotifierFunc) Available(kind string, id int64) { f(kind, id) }

type route[A any] struct {
	match    func(media.Handle) bool
	provider Provider[A]
}

// Mux dispatches requests to the first provider whose matcher accepts the
// handle, so one coordinator can serve items from several sources.
type Mux[A any] struct {
	routes []route[A]
}

// Handle registers p for handles accepted by match.
func (m *Mux[A]) Handle(match func(media.Handle) bool, p Provider[A]) {
	m.routes = append(m.routes, route[A]{match: match, provider: p})
}

// Request forwards to the matching provider or fails the request.
func (m *Mux[A]) Request(h media.Handle, deliver Deliver[A]) {
	for _, r := range m.routes {
		if r.match(h) {
			r.provider.Request(h, deliver)
			return
		}
	}
	var zero A
	deliver(h, zero, fmt.Errorf("no provider for %s (%T)", h.Name(), h))
}

// Targets selects the handles of an item an acquisition covers.
type Targets func(item *media.Item) []media.Handle

// DisplayTarget acquires the handle shown to the user.
func DisplayTarget(item *media.Item) []media.Handle {
	return []media.Handle{item.Display()}
}

// AllTargets acquires every handle of the item.
func AllTargets(item *media.Item) []media.Handle {
	return item.Handles()
}

// KeyFunc derives the cache key of one target.
type KeyFunc func(item *media.Item, h media.Handle) string

// ItemKey keys the artifact by the item itself.
func ItemKey(item *media.Item, _ media.Handle) string {
	return item.CacheKey()
}

// HandleKey keys the artifact by the target handle.
func HandleKey(_ *media.Item, h media.Handle) string {
	return media.HandleCacheKey(h)
}
