package scanner

import (
	"context"
	"fmt"
	"iter"
	"sort"

	"CommunityScanner/internal/domain"
)

// Request carries the per-run parameters a source needs to build its listings.
type Request struct {
	Keyword string
	// MaxLoads bounds how many times a paginated page is expanded.
	MaxLoads int
}

// Source produces a lazy sequence of raw, unfiltered community records.
// Setup failures are returned as errors; failures of individual listings end
// that listing only.
type Source interface {
	Name() string
	Produce(ctx context.Context, req Request) (iter.Seq[*domain.CommunityRecord], error)
}

// Registry keeps a mapping from platform names to their sources.
type Registry struct {
	sources map[string]Source
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: map[string]Source{}}
}

// Register adds or replaces a source implementation.
func (r *Registry) Register(source Source) {
	if r.sources == nil {
		r.sources = map[string]Source{}
	}
	r.sources[source.Name()] = source
}

// Resolve returns a source by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Source, error) {
	if source, ok := r.sources[name]; ok {
		return source, nil
	}
	return nil, fmt.Errorf("source %s is not registered", name)
}

// Names lists registered platforms in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
