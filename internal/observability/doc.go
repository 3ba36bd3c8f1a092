// Package observability provides logging and metrics support for the
// paper discovery service.
//
// # Overview
//
// The observability package provides:
//
//   - Structured logging with zerolog
//   - Prometheus metrics for queries, per-source searches, and LLM calls
//   - Context helpers for propagating request identifiers
//
// # Logging
//
// Create a logger from configuration:
//
//	cfg := observability.LoggingConfig{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stdout",
//	}
//
//	logger := observability.NewLogger(cfg)
//	logger.Info().Str("query", query).Msg("search started")
//
// Add search context to a logger:
//
//	logger = observability.WithSearchContext(logger, query, "arxiv")
//
// # Metrics
//
// Initialize metrics and record them:
//
//	metrics := observability.NewMetrics("paperscout")
//	metrics.RecordSearchStarted("arxiv")
//	metrics.RecordSearchCompleted("arxiv", 10, 0.42)
package observability
