package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperscout/discovery-service/internal/domain"
	"github.com/paperscout/discovery-service/internal/llm"
	"github.com/paperscout/discovery-service/internal/observability"
)

// mockClient is a scriptable llm.Client.
type mockClient struct {
	generateResponses []*llm.GenerateResponse
	generateErrs      []error
	generateCalls     []llm.GenerateRequest

	embedVectors [][]float32
	embedErrs    []error
	embedCalls   [][]string
}

func (m *mockClient) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	m.generateCalls = append(m.generateCalls, req)
	idx := len(m.generateCalls) - 1
	if idx < len(m.generateErrs) && m.generateErrs[idx] != nil {
		return nil, m.generateErrs[idx]
	}
	if idx < len(m.generateResponses) {
		return m.generateResponses[idx], nil
	}
	return &llm.GenerateResponse{Text: "{}", Model: "mock-model"}, nil
}

func (m *mockClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.embedCalls = append(m.embedCalls, texts)
	idx := len(m.embedCalls) - 1
	if idx < len(m.embedErrs) && m.embedErrs[idx] != nil {
		return nil, m.embedErrs[idx]
	}
	if m.embedVectors != nil {
		return m.embedVectors, nil
	}
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = []float32{0.1}
	}
	return vectors, nil
}

func (m *mockClient) Provider() string { return "mock" }
func (m *mockClient) Model() string    { return "mock-model" }

var sharedMetrics *observability.Metrics

func testMetrics() *observability.Metrics {
	if sharedMetrics == nil {
		sharedMetrics = observability.NewMetrics("test_assistant")
	}
	return sharedMetrics
}

func newTestService(client *mockClient) *Service {
	// Millisecond delays keep retry tests fast.
	policy := llm.RetryPolicy{MaxRetries: 1, InitialDelay: time.Millisecond}
	return NewService(client, policy, zerolog.Nop(), testMetrics())
}

func textResponse(text string) *llm.GenerateResponse {
	return &llm.GenerateResponse{Text: text, Model: "mock-model", InputTokens: 10, OutputTokens: 5}
}

func TestService_SummarizeAbstract(t *testing.T) {
	t.Run("returns summary from model output", func(t *testing.T) {
		client := &mockClient{
			generateResponses: []*llm.GenerateResponse{
				textResponse(`{"summary": "Transformers beat RNNs on translation."}`),
			},
		}
		svc := newTestService(client)

		summary, err := svc.SummarizeAbstract(context.Background(), "We propose the Transformer...")

		require.NoError(t, err)
		assert.Equal(t, "Transformers beat RNNs on translation.", summary)
		require.Len(t, client.generateCalls, 1)
		assert.True(t, client.generateCalls[0].JSONResponse)
		assert.Contains(t, client.generateCalls[0].Prompt, "We propose the Transformer...")
	})

	t.Run("empty abstract fails validation without a model call", func(t *testing.T) {
		client := &mockClient{}
		svc := newTestService(client)

		_, err := svc.SummarizeAbstract(context.Background(), "")

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Empty(t, client.generateCalls)
	})

	t.Run("unparseable model output is an error", func(t *testing.T) {
		client := &mockClient{
			generateResponses: []*llm.GenerateResponse{textResponse("not json")},
		}
		svc := newTestService(client)

		_, err := svc.SummarizeAbstract(context.Background(), "abstract")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing model output")
	})

	t.Run("retries once on overload then succeeds", func(t *testing.T) {
		client := &mockClient{
			generateErrs: []error{
				&llm.APIError{Provider: "mock", StatusCode: 503, Message: "overloaded"},
			},
			generateResponses: []*llm.GenerateResponse{
				nil, // consumed by the failing first call
				textResponse(`{"summary": "ok"}`),
			},
		}
		svc := newTestService(client)

		summary, err := svc.SummarizeAbstract(context.Background(), "abstract")

		require.NoError(t, err)
		assert.Equal(t, "ok", summary)
		assert.Len(t, client.generateCalls, 2)
	})

	t.Run("permanent model error is not retried", func(t *testing.T) {
		client := &mockClient{
			generateErrs: []error{
				&llm.APIError{Provider: "mock", StatusCode: 400, Message: "invalid"},
			},
		}
		svc := newTestService(client)

		_, err := svc.SummarizeAbstract(context.Background(), "abstract")

		require.Error(t, err)
		assert.Len(t, client.generateCalls, 1)
	})
}

func TestService_SuggestSimilarPapers(t *testing.T) {
	papers := []domain.Paper{
		{PaperID: "a1", Title: "Attention Is All You Need", Abstract: "Transformers.", Source: domain.SourceTypeArXiv},
		{PaperID: "a2", Title: "BERT", Abstract: "Pretraining.", Source: domain.SourceTypeArXiv},
		{PaperID: "a3", Title: "GPT-3", Abstract: "Few-shot.", Source: domain.SourceTypeArXiv},
	}

	t.Run("matches suggested titles back to full papers", func(t *testing.T) {
		client := &mockClient{
			generateResponses: []*llm.GenerateResponse{
				textResponse(`[{"title": "BERT", "abstract": "Pretraining."}, {"title": "GPT-3", "abstract": "Few-shot."}]`),
			},
		}
		svc := newTestService(client)

		suggested, err := svc.SuggestSimilarPapers(context.Background(), SuggestRequest{
			SearchQuery:    "language models",
			Papers:         papers,
			NumSuggestions: 2,
		})

		require.NoError(t, err)
		require.Len(t, suggested, 2)
		assert.Equal(t, "a2", suggested[0].PaperID)
		assert.Equal(t, "a3", suggested[1].PaperID)

		// Candidate abstracts are embedded before the suggestion call.
		require.Len(t, client.embedCalls, 1)
		assert.Equal(t, []string{"Transformers.", "Pretraining.", "Few-shot."}, client.embedCalls[0])
	})

	t.Run("paraphrased titles are dropped", func(t *testing.T) {
		client := &mockClient{
			generateResponses: []*llm.GenerateResponse{
				textResponse(`[{"title": "The BERT Paper", "abstract": "Pretraining."}, {"title": "GPT-3", "abstract": "Few-shot."}]`),
			},
		}
		svc := newTestService(client)

		suggested, err := svc.SuggestSimilarPapers(context.Background(), SuggestRequest{
			SearchQuery:    "language models",
			Papers:         papers,
			NumSuggestions: 2,
		})

		require.NoError(t, err)
		require.Len(t, suggested, 1)
		assert.Equal(t, "a3", suggested[0].PaperID)
	})

	t.Run("requires a query and at least one paper", func(t *testing.T) {
		svc := newTestService(&mockClient{})

		_, err := svc.SuggestSimilarPapers(context.Background(), SuggestRequest{
			SearchQuery:    "",
			Papers:         papers,
			NumSuggestions: 2,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		_, err = svc.SuggestSimilarPapers(context.Background(), SuggestRequest{
			SearchQuery:    "q",
			Papers:         nil,
			NumSuggestions: 2,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("embedding failure aborts the flow", func(t *testing.T) {
		client := &mockClient{
			embedErrs: []error{errors.New("embed down"), errors.New("embed down")},
		}
		svc := newTestService(client)

		_, err := svc.SuggestSimilarPapers(context.Background(), SuggestRequest{
			SearchQuery:    "q",
			Papers:         papers,
			NumSuggestions: 2,
		})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "embedding candidates")
		assert.Empty(t, client.generateCalls)
	})
}

func TestService_ExtractAttributes(t *testing.T) {
	t.Run("returns per-paper attribute maps", func(t *testing.T) {
		client := &mockClient{
			generateResponses: []*llm.GenerateResponse{
				textResponse(`{"results": [
					{"paperIndex": 0, "attributes": {"Methods": "Survey", "Results": "Not specified"}},
					{"paperIndex": 1, "attributes": {"Methods": "RCT", "Results": "Positive"}}
				]}`),
			},
		}
		svc := newTestService(client)

		results, err := svc.ExtractAttributes(context.Background(), ExtractRequest{
			Papers: []PaperSummary{
				{Title: "Paper A", Abstract: "..."},
				{Title: "Paper B", Abstract: "..."},
			},
			Attributes: []string{"Methods", "Results"},
		})

		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, 0, results[0].PaperIndex)
		assert.Equal(t, "Not specified", results[0].Attributes["Results"])
		assert.Equal(t, "RCT", results[1].Attributes["Methods"])

		assert.Contains(t, client.generateCalls[0].Prompt, "Methods, Results")
		assert.Contains(t, client.generateCalls[0].Prompt, "Paper Index: 1")
	})

	t.Run("requires papers and attributes", func(t *testing.T) {
		svc := newTestService(&mockClient{})

		_, err := svc.ExtractAttributes(context.Background(), ExtractRequest{
			Papers:     nil,
			Attributes: []string{"Methods"},
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		_, err = svc.ExtractAttributes(context.Background(), ExtractRequest{
			Papers:     []PaperSummary{{Title: "A"}},
			Attributes: nil,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestService_GenerateLiteratureReview(t *testing.T) {
	t.Run("empty paper list short-circuits without a model call", func(t *testing.T) {
		client := &mockClient{}
		svc := newTestService(client)

		review, err := svc.GenerateLiteratureReview(context.Background(), nil)

		require.NoError(t, err)
		assert.Empty(t, review)
		assert.Empty(t, client.generateCalls)
	})

	t.Run("returns markdown review", func(t *testing.T) {
		client := &mockClient{
			generateResponses: []*llm.GenerateResponse{
				textResponse(`{"literatureReview": "# Literature Review\n\n## Introduction\n..."}`),
			},
		}
		svc := newTestService(client)

		review, err := svc.GenerateLiteratureReview(context.Background(), []PaperSummary{
			{Title: "Paper A", Abstract: "Abstract A"},
		})

		require.NoError(t, err)
		assert.Contains(t, review, "# Literature Review")
		assert.Contains(t, client.generateCalls[0].Prompt, "Title: Paper A")
		assert.Contains(t, client.generateCalls[0].Prompt, "## Thematic Analysis")
	})
}

func TestService_GenerateEmbeddings(t *testing.T) {
	t.Run("returns vectors in order", func(t *testing.T) {
		client := &mockClient{
			embedVectors: [][]float32{{0.1, 0.2}, {0.3, 0.4}},
		}
		svc := newTestService(client)

		vectors, err := svc.GenerateEmbeddings(context.Background(), []string{"one", "two"})

		require.NoError(t, err)
		require.Len(t, vectors, 2)
		assert.Equal(t, []float32{0.3, 0.4}, vectors[1])
	})

	t.Run("retries overload then succeeds", func(t *testing.T) {
		client := &mockClient{
			embedErrs: []error{
				&llm.APIError{Provider: "mock", StatusCode: 503, Message: "overloaded"},
			},
			embedVectors: [][]float32{{0.5}},
		}
		svc := newTestService(client)

		vectors, err := svc.GenerateEmbeddings(context.Background(), []string{"doc"})

		require.NoError(t, err)
		require.Len(t, vectors, 1)
		assert.Len(t, client.embedCalls, 2)
	})
}
