// Package assistant implements the AI flows of the discovery service:
// abstract summaries, similar-paper suggestions, attribute extraction,
// literature reviews, and document embeddings.
//
// Each flow validates its input, renders a prompt, and calls the configured
// LLM client through the overload retry wrapper. Flows that need structured
// output ask the model for JSON and parse it into typed results.
package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/paperscout/discovery-service/internal/domain"
	"github.com/paperscout/discovery-service/internal/llm"
	"github.com/paperscout/discovery-service/internal/observability"
)

// PaperSummary is the title/abstract pair the flows operate on. Flows never
// need the full paper record; callers keep the originals and rejoin results.
type PaperSummary struct {
	Title    string `json:"title" validate:"required"`
	Abstract string `json:"abstract"`
}

// PaperAttributes holds the attributes extracted for one paper, keyed by
// the attribute names the caller requested.
type PaperAttributes struct {
	PaperIndex int               `json:"paperIndex"`
	Attributes map[string]string `json:"attributes"`
}

// SuggestRequest is the input for the similar-paper suggestion flow.
type SuggestRequest struct {
	// SearchQuery is the user's original search query.
	SearchQuery string `validate:"required"`

	// Papers are the search results to pick suggestions from.
	Papers []domain.Paper `validate:"min=1"`

	// NumSuggestions is how many papers to suggest.
	NumSuggestions int `validate:"min=1"`
}

// ExtractRequest is the input for the attribute extraction flow.
type ExtractRequest struct {
	// Papers are the papers to analyze.
	Papers []PaperSummary `validate:"min=1,dive"`

	// Attributes are the attribute names to extract, e.g.
	// "Methods", "Results", "Limitations".
	Attributes []string `validate:"min=1"`
}

// Service runs the AI flows against an LLM client.
type Service struct {
	client   llm.Client
	retry    llm.RetryPolicy
	validate *validator.Validate
	logger   zerolog.Logger
	metrics  *observability.Metrics
}

// NewService creates a new assistant service.
func NewService(client llm.Client, retry llm.RetryPolicy, logger zerolog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		client:   client,
		retry:    retry,
		validate: validator.New(),
		logger:   logger.With().Str("component", "assistant").Logger(),
		metrics:  metrics,
	}
}

// validateInput runs struct validation and converts failures into
// domain validation errors.
func (s *Service) validateInput(input any) error {
	if err := s.validate.Struct(input); err != nil {
		return domain.NewValidationError("input", err.Error())
	}
	return nil
}

// generate calls the model with retry on overload, recording metrics and a
// retry counter per operation.
func (s *Service) generate(ctx context.Context, operation string, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	start := time.Now()
	attempts := 0
	logger := observability.WithLLMContext(s.logger, operation, s.client.Model())

	resp, err := llm.WithRetry(ctx, s.retry, func(ctx context.Context) (*llm.GenerateResponse, error) {
		attempts++
		if attempts > 1 {
			s.metrics.RecordLLMRetry(operation)
			logger.Warn().
				Int("attempt", attempts).
				Msg("retrying model call after overload")
		}
		return s.client.Generate(ctx, req)
	})
	if err != nil {
		s.metrics.RecordLLMRequestFailed(operation, s.client.Model(), errorType(err))
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	s.metrics.RecordLLMRequest(operation, resp.Model, time.Since(start).Seconds(), resp.InputTokens, resp.OutputTokens)
	logger.Debug().
		Int("input_tokens", resp.InputTokens).
		Int("output_tokens", resp.OutputTokens).
		Dur("duration", time.Since(start)).
		Msg("model call completed")

	return resp, nil
}

// errorType maps an error to a metrics label.
func errorType(err error) string {
	if llm.IsOverloadedError(err) {
		return "overloaded"
	}
	return "error"
}
