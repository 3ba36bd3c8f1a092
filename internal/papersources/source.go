// Package papersources provides interfaces and types for academic paper source clients.
//
// This package defines the foundational abstractions that all paper source
// implementations follow. Each external API (arXiv, Semantic Scholar, CrossRef,
// CORE) implements the PaperSource interface, allowing the aggregator to search
// all sources concurrently with a unified contract.
//
// Example usage:
//
//	source := arxiv.New(arxiv.Config{Enabled: true})
//	params := papersources.SearchParams{Query: "quantum computing", Offset: 0}
//	result, err := source.Search(ctx, params)
package papersources

import (
	"context"
	"time"

	"github.com/paperscout/discovery-service/internal/domain"
)

// PageSize is the fixed number of results requested from every source per
// page. Each source paginates independently: offset N means the Nth result
// per source, not the Nth merged result.
const PageSize = 10

// SearchParams defines the parameters for searching academic papers.
type SearchParams struct {
	// Query is the search query string (required).
	Query string

	// Year restricts results to the given publication year.
	// Zero means no year filter. Each source applies the filter
	// using its own native syntax.
	Year int

	// Offset specifies the starting position for paginated results.
	// Combined with the fixed PageSize this defines the per-source
	// pagination cursor.
	Offset int
}

// SearchResult contains the results from a paper source search operation.
type SearchResult struct {
	// Papers contains the papers returned by the search, preserving
	// the source API's native ordering. May be empty.
	Papers []domain.Paper

	// Source identifies which paper source provided these results.
	Source domain.SourceType

	// SearchDuration is the time taken to execute the search,
	// including network latency and response parsing.
	SearchDuration time.Duration
}

// PaperSource defines the interface that all paper source clients must implement.
type PaperSource interface {
	// Search queries the paper source for papers matching the given parameters.
	// The context should be used for cancellation and deadline propagation.
	//
	// Implementations should:
	//   - Respect context cancellation
	//   - Apply rate limiting as needed
	//   - Transform source-specific responses to domain.Paper
	//   - Include appropriate error wrapping with source context
	Search(ctx context.Context, params SearchParams) (*SearchResult, error)

	// SourceType returns the type identifier for this paper source.
	SourceType() domain.SourceType

	// Name returns a human-readable name for this paper source.
	// Used for logging, metrics, and display purposes.
	Name() string

	// IsEnabled returns whether this paper source is currently available
	// for searches. A source is disabled by configuration or when a
	// required API key is missing; a disabled source is skipped, which
	// is a capability degradation rather than a failure.
	IsEnabled() bool
}
