// Package search aggregates paper searches across all registered sources.
//
// The service fans a query out to every enabled source concurrently, waits
// for all of them to settle, and merges the per-source pages into a single
// deduplicated list. Source failures degrade the result instead of failing
// the whole query; the query only fails when the first page comes back
// empty from every source.
package search

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/paperscout/discovery-service/internal/domain"
	"github.com/paperscout/discovery-service/internal/observability"
	"github.com/paperscout/discovery-service/internal/papersources"
)

// ErrAllSourcesFailed is returned when the first page of a query yields no
// papers from any source. The message is surfaced to API clients verbatim.
var ErrAllSourcesFailed = errors.New("Could not retrieve results from any API. Please check your query or API keys.")

// Query describes one aggregated search request.
type Query struct {
	// Query is the free-text search string.
	Query string

	// Year restricts results to a publication year. Zero means no filter.
	Year int

	// Offset is the per-source pagination offset. Each source is asked
	// for its own page at this offset; offsets do not index into the
	// merged list.
	Offset int
}

// Result is the merged outcome of an aggregated search.
type Result struct {
	// Papers is the deduplicated, priority-ordered list of papers.
	Papers []domain.Paper

	// PapersBySource counts the papers each source contributed before
	// deduplication.
	PapersBySource map[domain.SourceType]int

	// Duplicates is the number of papers dropped as cross-source duplicates.
	Duplicates int

	// Duration is the wall-clock time of the slowest source.
	Duration time.Duration
}

// Service coordinates concurrent searches across paper sources.
type Service struct {
	registry *papersources.Registry
	logger   zerolog.Logger
	metrics  *observability.Metrics
}

// NewService creates a new search aggregation service.
func NewService(registry *papersources.Registry, logger zerolog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		registry: registry,
		logger:   logger.With().Str("component", "search").Logger(),
		metrics:  metrics,
	}
}

// SearchPapers runs the query against every enabled source and merges the
// results. A blank query short-circuits to an empty result without touching
// any source. Individual source failures are logged and treated as empty
// pages. An empty first page across all sources returns ErrAllSourcesFailed;
// an empty later page is a successful end of pagination.
func (s *Service) SearchPapers(ctx context.Context, query Query) (*Result, error) {
	if strings.TrimSpace(query.Query) == "" {
		return &Result{PapersBySource: map[domain.SourceType]int{}}, nil
	}

	s.metrics.RecordQueryStarted()
	start := time.Now()

	params := papersources.SearchParams{
		Query:  query.Query,
		Year:   query.Year,
		Offset: query.Offset,
	}

	for _, source := range s.registry.EnabledSources() {
		s.metrics.RecordSearchStarted(string(source.SourceType()))
	}

	sourceResults := s.registry.SearchAll(ctx, params)

	result := s.merge(query, sourceResults)
	result.Duration = time.Since(start)

	if query.Offset == 0 && len(result.Papers) == 0 {
		s.metrics.RecordQueryFailed(result.Duration.Seconds())
		s.logger.Error().
			Str("query", query.Query).
			Int("sources", len(sourceResults)).
			Msg("no results from any source on first page")
		return nil, ErrAllSourcesFailed
	}

	s.metrics.RecordQueryCompleted(len(result.Papers), result.Duration.Seconds())
	s.logger.Info().
		Str("query", query.Query).
		Int("offset", query.Offset).
		Int("papers", len(result.Papers)).
		Int("duplicates", result.Duplicates).
		Dur("duration", result.Duration).
		Msg("search completed")

	return result, nil
}

// merge concatenates per-source pages in registration (priority) order and
// drops papers whose normalized title was already seen. The first occurrence
// wins, so a paper found by a higher-priority source shadows the same title
// from lower-priority ones.
func (s *Service) merge(query Query, sourceResults []papersources.SourceResult) *Result {
	result := &Result{
		PapersBySource: make(map[domain.SourceType]int, len(sourceResults)),
	}

	seen := make(map[string]struct{})

	for _, sr := range sourceResults {
		if sr.Error != nil {
			s.metrics.RecordSearchFailed(string(sr.Source), 0)
			logger := observability.WithSearchContext(s.logger, query.Query, string(sr.Source))
			logger.Warn().
				Err(sr.Error).
				Msg("source search failed, continuing without it")
			continue
		}

		s.metrics.RecordSearchCompleted(
			string(sr.Source),
			len(sr.Result.Papers),
			sr.Result.SearchDuration.Seconds(),
		)
		result.PapersBySource[sr.Source] = len(sr.Result.Papers)

		for _, paper := range sr.Result.Papers {
			key := paper.TitleKey()
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				result.Duplicates++
				continue
			}
			seen[key] = struct{}{}
			result.Papers = append(result.Papers, paper)
		}
	}

	if result.Duplicates > 0 {
		s.metrics.RecordPaperDuplicates(result.Duplicates)
	}

	return result
}
