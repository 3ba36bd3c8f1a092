package papersources

import (
	"context"
	"sync"

	"github.com/paperscout/discovery-service/internal/domain"
)

// SourceResult holds the outcome of a search against one source.
type SourceResult struct {
	// Source identifies which paper source produced the result.
	Source domain.SourceType

	// Result contains the search results if the search succeeded.
	// Nil when Error is non-nil.
	Result *SearchResult

	// Error contains the error if the search failed.
	// Nil when Result is non-nil.
	Error error
}

// Registry manages paper sources and coordinates concurrent searches.
// Sources are kept in registration order, which defines the merge
// priority used by the aggregator.
type Registry struct {
	mu      sync.RWMutex
	sources []PaperSource
}

// NewRegistry creates a new empty source registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a source to the registry. A source with the same type as
// an already registered one replaces it in place, preserving its position.
// This method is thread-safe.
func (r *Registry) Register(source PaperSource) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.sources {
		if existing.SourceType() == source.SourceType() {
			r.sources[i] = source
			return
		}
	}
	r.sources = append(r.sources, source)
}

// Get returns a source by type, or nil if not found.
// This method is thread-safe.
func (r *Registry) Get(sourceType domain.SourceType) PaperSource {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, source := range r.sources {
		if source.SourceType() == sourceType {
			return source
		}
	}
	return nil
}

// EnabledSources returns the enabled sources in registration order.
// The returned slice is a snapshot and is safe to iterate even if
// sources are registered concurrently.
func (r *Registry) EnabledSources() []PaperSource {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sources := make([]PaperSource, 0, len(r.sources))
	for _, source := range r.sources {
		if source.IsEnabled() {
			sources = append(sources, source)
		}
	}
	return sources
}

// SearchAll searches all enabled sources concurrently and waits for every
// source to settle before returning (fan-out/fan-in with a single join
// point; a slow source delays the whole batch). Results are returned in
// registration order regardless of completion order. Errors are not
// filtered; the caller decides how to handle them.
// The search respects context cancellation.
func (r *Registry) SearchAll(ctx context.Context, params SearchParams) []SourceResult {
	sources := r.EnabledSources()
	if len(sources) == 0 {
		return nil
	}

	results := make([]SourceResult, len(sources))
	var wg sync.WaitGroup

	for i, source := range sources {
		wg.Add(1)
		go func(i int, s PaperSource) {
			defer wg.Done()

			result, err := s.Search(ctx, params)
			results[i] = SourceResult{
				Source: s.SourceType(),
				Result: result,
				Error:  err,
			}
		}(i, source)
	}

	wg.Wait()
	return results
}
