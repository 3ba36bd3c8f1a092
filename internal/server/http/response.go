package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/paperscout/discovery-service/internal/assistant"
	"github.com/paperscout/discovery-service/internal/domain"
	"github.com/paperscout/discovery-service/internal/llm"
	"github.com/paperscout/discovery-service/internal/search"
)

// Response types for JSON serialization.

type searchResponse struct {
	Papers     []domain.Paper `json:"papers"`
	Sources    map[string]int `json:"sources"`
	Duplicates int            `json:"duplicates"`
	DurationMS int64          `json:"duration_ms"`
}

type summarizeResponse struct {
	Summary string `json:"summary"`
}

type suggestResponse struct {
	Papers []domain.Paper `json:"papers"`
}

type attributesResponse struct {
	Results []assistant.PaperAttributes `json:"results"`
}

type reviewResponse struct {
	LiteratureReview string `json:"literature_review"`
}

type embeddingsResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func searchResultToResponse(result *search.Result) searchResponse {
	sources := make(map[string]int, len(result.PapersBySource))
	for source, count := range result.PapersBySource {
		sources[string(source)] = count
	}
	papers := result.Papers
	if papers == nil {
		papers = []domain.Paper{}
	}
	return searchResponse{
		Papers:     papers,
		Sources:    sources,
		Duplicates: result.Duplicates,
		DurationMS: result.Duration.Milliseconds(),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Best-effort; headers already sent.
		_ = err
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// writeServiceError maps service errors onto HTTP status codes. Validation
// failures are the client's fault; upstream API failures surface as bad
// gateway so callers can distinguish them from server bugs.
func writeServiceError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	var apiErr *llm.APIError

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		if errors.As(err, &validationErr) {
			writeError(w, http.StatusBadRequest, validationErr.Message)
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, search.ErrAllSourcesFailed):
		writeError(w, http.StatusBadGateway, search.ErrAllSourcesFailed.Error())
	case errors.As(err, &apiErr):
		// The last model error after retry exhaustion is surfaced verbatim.
		writeError(w, http.StatusBadGateway, apiErr.Message)
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
