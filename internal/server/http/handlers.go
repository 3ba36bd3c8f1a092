package httpserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/paperscout/discovery-service/internal/assistant"
	"github.com/paperscout/discovery-service/internal/domain"
	"github.com/paperscout/discovery-service/internal/search"
)

// Validation constants.
const (
	maxQueryLength     = 1000
	maxRequestBodySize = 1 << 20 // 1 MB limit for request bodies
)

// suggestPapersRequest is the JSON request body for paper suggestions.
type suggestPapersRequest struct {
	SearchQuery    string         `json:"search_query"`
	Papers         []domain.Paper `json:"papers"`
	NumSuggestions int            `json:"num_suggestions"`
}

// summarizeRequest is the JSON request body for abstract summarization.
type summarizeRequest struct {
	Abstract string `json:"abstract"`
}

// extractAttributesRequest is the JSON request body for attribute extraction.
type extractAttributesRequest struct {
	Papers     []assistant.PaperSummary `json:"papers"`
	Attributes []string                 `json:"attributes"`
}

// generateReviewRequest is the JSON request body for literature reviews.
type generateReviewRequest struct {
	Papers []assistant.PaperSummary `json:"papers"`
}

// embeddingsRequest is the JSON request body for document embeddings.
type embeddingsRequest struct {
	Documents []string `json:"documents"`
}

// decodeJSON reads and unmarshals a size-capped request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return false
	}
	return true
}

// searchPapers handles GET /api/v1/search.
// Query parameters: query (required), year, offset.
func (s *Server) searchPapers(w http.ResponseWriter, r *http.Request) {
	queryText := strings.TrimSpace(r.URL.Query().Get("query"))
	if queryText == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	if len(queryText) > maxQueryLength {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("query must be at most %d characters", maxQueryLength))
		return
	}

	query := search.Query{Query: queryText}

	if raw := r.URL.Query().Get("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil || year < 0 {
			writeError(w, http.StatusBadRequest, "year must be a non-negative integer")
			return
		}
		query.Year = year
	}

	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
			return
		}
		query.Offset = offset
	}

	result, err := s.search.SearchPapers(r.Context(), query)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResultToResponse(result))
}

// summarizeAbstract handles POST /api/v1/papers/summarize.
func (s *Server) summarizeAbstract(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	summary, err := s.assistant.SummarizeAbstract(r.Context(), req.Abstract)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summarizeResponse{Summary: summary})
}

// suggestPapers handles POST /api/v1/papers/suggest.
func (s *Server) suggestPapers(w http.ResponseWriter, r *http.Request) {
	var req suggestPapersRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.NumSuggestions == 0 {
		req.NumSuggestions = 5
	}

	papers, err := s.assistant.SuggestSimilarPapers(r.Context(), assistant.SuggestRequest{
		SearchQuery:    req.SearchQuery,
		Papers:         req.Papers,
		NumSuggestions: req.NumSuggestions,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if papers == nil {
		papers = []domain.Paper{}
	}

	writeJSON(w, http.StatusOK, suggestResponse{Papers: papers})
}

// extractAttributes handles POST /api/v1/papers/attributes.
func (s *Server) extractAttributes(w http.ResponseWriter, r *http.Request) {
	var req extractAttributesRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	results, err := s.assistant.ExtractAttributes(r.Context(), assistant.ExtractRequest{
		Papers:     req.Papers,
		Attributes: req.Attributes,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if results == nil {
		results = []assistant.PaperAttributes{}
	}

	writeJSON(w, http.StatusOK, attributesResponse{Results: results})
}

// generateReview handles POST /api/v1/reviews.
func (s *Server) generateReview(w http.ResponseWriter, r *http.Request) {
	var req generateReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	review, err := s.assistant.GenerateLiteratureReview(r.Context(), req.Papers)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reviewResponse{LiteratureReview: review})
}

// generateEmbeddings handles POST /api/v1/embeddings.
func (s *Server) generateEmbeddings(w http.ResponseWriter, r *http.Request) {
	var req embeddingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Documents) == 0 {
		writeError(w, http.StatusBadRequest, "documents are required")
		return
	}

	embeddings, err := s.assistant.GenerateEmbeddings(r.Context(), req.Documents)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, embeddingsResponse{Embeddings: embeddings})
}
