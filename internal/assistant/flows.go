package assistant

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/paperscout/discovery-service/internal/domain"
	"github.com/paperscout/discovery-service/internal/llm"
)

// summaryOutput is the JSON shape of the summarization response.
type summaryOutput struct {
	Summary string `json:"summary"`
}

// reviewOutput is the JSON shape of the literature review response.
type reviewOutput struct {
	LiteratureReview string `json:"literatureReview"`
}

// extractOutput is the JSON shape of the attribute extraction response.
type extractOutput struct {
	Results []PaperAttributes `json:"results"`
}

// SummarizeAbstract produces a concise summary of a research paper abstract.
func (s *Service) SummarizeAbstract(ctx context.Context, abstract string) (string, error) {
	input := struct {
		Abstract string `validate:"required"`
	}{Abstract: abstract}
	if err := s.validateInput(input); err != nil {
		return "", err
	}

	resp, err := s.generate(ctx, "summarize", llm.GenerateRequest{
		Prompt:       buildSummarizePrompt(abstract),
		JSONResponse: true,
	})
	if err != nil {
		return "", err
	}

	var out summaryOutput
	if err := json.Unmarshal([]byte(resp.Text), &out); err != nil {
		return "", fmt.Errorf("summarize: parsing model output: %w", err)
	}
	if out.Summary == "" {
		return "", fmt.Errorf("summarize: model returned an empty summary")
	}
	return out.Summary, nil
}

// SuggestSimilarPapers asks the model to pick papers from the given search
// results that are similar to the query. Abstract embeddings are computed
// for the candidate set first; the suggestion itself is title-driven, and
// suggested titles are matched back to the caller's papers so the full
// records are returned. A suggestion whose title the model paraphrased
// matches nothing and is dropped.
func (s *Service) SuggestSimilarPapers(ctx context.Context, req SuggestRequest) ([]domain.Paper, error) {
	if err := s.validateInput(req); err != nil {
		return nil, err
	}

	summaries := make([]PaperSummary, 0, len(req.Papers))
	abstracts := make([]string, 0, len(req.Papers))
	for _, p := range req.Papers {
		summaries = append(summaries, PaperSummary{Title: p.Title, Abstract: p.Abstract})
		abstracts = append(abstracts, p.Abstract)
	}

	embeddings, err := s.GenerateEmbeddings(ctx, abstracts)
	if err != nil {
		return nil, fmt.Errorf("suggest: embedding candidates: %w", err)
	}
	s.logger.Debug().Int("candidates", len(embeddings)).Msg("candidate embeddings computed")

	resp, err := s.generate(ctx, "suggest", llm.GenerateRequest{
		Prompt:       buildSuggestPrompt(req.SearchQuery, summaries, req.NumSuggestions),
		JSONResponse: true,
	})
	if err != nil {
		return nil, err
	}

	var suggested []PaperSummary
	if err := json.Unmarshal([]byte(resp.Text), &suggested); err != nil {
		return nil, fmt.Errorf("suggest: parsing model output: %w", err)
	}

	suggestedTitles := make(map[string]struct{}, len(suggested))
	for _, p := range suggested {
		suggestedTitles[p.Title] = struct{}{}
	}

	papers := make([]domain.Paper, 0, len(suggested))
	for _, p := range req.Papers {
		if _, ok := suggestedTitles[p.Title]; ok {
			papers = append(papers, p)
		}
	}
	return papers, nil
}

// ExtractAttributes pulls the requested attributes out of each paper's title
// and abstract. Results are keyed by the input paper index; attributes the
// model could not find come back as "Not specified".
func (s *Service) ExtractAttributes(ctx context.Context, req ExtractRequest) ([]PaperAttributes, error) {
	if err := s.validateInput(req); err != nil {
		return nil, err
	}

	resp, err := s.generate(ctx, "extract", llm.GenerateRequest{
		Prompt:       buildExtractPrompt(req.Papers, req.Attributes),
		JSONResponse: true,
	})
	if err != nil {
		return nil, err
	}

	var out extractOutput
	if err := json.Unmarshal([]byte(resp.Text), &out); err != nil {
		return nil, fmt.Errorf("extract: parsing model output: %w", err)
	}
	return out.Results, nil
}

// GenerateLiteratureReview synthesizes a markdown literature review from the
// given papers. An empty paper list produces an empty review without a model
// call.
func (s *Service) GenerateLiteratureReview(ctx context.Context, papers []PaperSummary) (string, error) {
	if len(papers) == 0 {
		return "", nil
	}

	resp, err := s.generate(ctx, "review", llm.GenerateRequest{
		Prompt:       buildReviewPrompt(papers),
		JSONResponse: true,
	})
	if err != nil {
		return "", err
	}

	var out reviewOutput
	if err := json.Unmarshal([]byte(resp.Text), &out); err != nil {
		return "", fmt.Errorf("review: parsing model output: %w", err)
	}
	return out.LiteratureReview, nil
}

// GenerateEmbeddings returns one embedding vector per document, in input
// order. Overloaded-model responses are retried like generation calls.
func (s *Service) GenerateEmbeddings(ctx context.Context, documents []string) ([][]float32, error) {
	return llm.WithRetry(ctx, s.retry, func(ctx context.Context) ([][]float32, error) {
		return s.client.Embed(ctx, documents)
	})
}
