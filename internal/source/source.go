package source

import (
	"context"

	"media-ingest/internal/media"
)

// Source enumerates the raw media of one origin: a folder, a camera or a
// library export.
type Source interface {
	// Name identifies the source in routes, metrics and the database.
	Name() string
	// Enumerate lists the raw handles currently available. Non-media
	// entries are left out.
	Enumerate(ctx context.Context) ([]media.Handle, error)
}

// Registry holds the configured sources by name.
type Registry struct {
	order   []string
	sources map[string]Source
}

// NewRegistry creates a registry of sources, keyed by Name.
func NewRegistry(sources ...Source) *Registry {
	r := &Registry{sources: make(map[string]Source)}
	for _, s := range sources {
		r.Add(s)
	}
	return r
}

// Add registers s, replacing any source with the same name.
func (r *Registry) Add(s Source) {
	if _, ok := r.sources[s.Name()]; !ok {
		r.order = append(r.order, s.Name())
	}
	r.sources[s.Name()] = s
}

// Get returns the named source.
func (r *Registry) Get(name string) (Source, bool) {
	s, ok := r.sources[name]
	return s, ok
}

// Names returns source names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}
