package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeminiClient(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		client := NewGeminiClient(GeminiConfig{APIKey: "key"})

		assert.Equal(t, DefaultGenerationModel, client.model)
		assert.Equal(t, DefaultEmbeddingModel, client.embeddingModel)
		assert.Equal(t, DefaultGeminiBaseURL, client.baseURL)
		assert.Equal(t, "gemini", client.Provider())
		assert.Equal(t, DefaultGenerationModel, client.Model())
	})

	t.Run("honors overrides", func(t *testing.T) {
		client := NewGeminiClient(GeminiConfig{
			APIKey:         "key",
			Model:          "gemini-2.5-pro",
			EmbeddingModel: "custom-embedding",
			BaseURL:        "https://example.com/v1",
			Timeout:        10 * time.Second,
		})

		assert.Equal(t, "gemini-2.5-pro", client.Model())
		assert.Equal(t, "custom-embedding", client.embeddingModel)
	})
}

func TestGeminiClient_Generate(t *testing.T) {
	t.Run("successful generation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Contains(t, r.URL.Path, "/models/gemini-2.5-flash:generateContent")
			assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var req generateContentRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Len(t, req.Contents, 1)
			assert.Equal(t, "user", req.Contents[0].Role)
			assert.Equal(t, "Summarize this abstract.", req.Contents[0].Parts[0].Text)
			require.NotNil(t, req.SystemInstruction)
			assert.Equal(t, "You are a research assistant.", req.SystemInstruction.Parts[0].Text)
			assert.Equal(t, "application/json", req.GenerationConfig.ResponseMimeType)

			json.NewEncoder(w).Encode(generateContentResponse{
				Candidates: []geminiCandidate{
					{
						Content: geminiContent{
							Role:  "model",
							Parts: []geminiPart{{Text: `{"summary":`}, {Text: `"A short summary."}`}},
						},
						FinishReason: "STOP",
					},
				},
				ModelVersion: "gemini-2.5-flash-001",
				UsageMetadata: geminiUsage{
					PromptTokenCount:     120,
					CandidatesTokenCount: 40,
				},
			})
		}))
		defer server.Close()

		client := NewGeminiClient(GeminiConfig{APIKey: "test-key", BaseURL: server.URL})

		resp, err := client.Generate(context.Background(), GenerateRequest{
			System:       "You are a research assistant.",
			Prompt:       "Summarize this abstract.",
			Temperature:  0.2,
			JSONResponse: true,
		})

		require.NoError(t, err)
		assert.Equal(t, `{"summary":"A short summary."}`, resp.Text)
		assert.Equal(t, "gemini-2.5-flash-001", resp.Model)
		assert.Equal(t, 120, resp.InputTokens)
		assert.Equal(t, 40, resp.OutputTokens)
	})

	t.Run("omits system instruction and mime type when unset", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req generateContentRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Nil(t, req.SystemInstruction)
			assert.Empty(t, req.GenerationConfig.ResponseMimeType)

			json.NewEncoder(w).Encode(generateContentResponse{
				Candidates: []geminiCandidate{
					{Content: geminiContent{Parts: []geminiPart{{Text: "plain text"}}}},
				},
			})
		}))
		defer server.Close()

		client := NewGeminiClient(GeminiConfig{APIKey: "key", BaseURL: server.URL})

		resp, err := client.Generate(context.Background(), GenerateRequest{Prompt: "hi"})

		require.NoError(t, err)
		assert.Equal(t, "plain text", resp.Text)
		// Falls back to the configured model name.
		assert.Equal(t, DefaultGenerationModel, resp.Model)
	})

	t.Run("empty candidates is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(generateContentResponse{})
		}))
		defer server.Close()

		client := NewGeminiClient(GeminiConfig{APIKey: "key", BaseURL: server.URL})

		_, err := client.Generate(context.Background(), GenerateRequest{Prompt: "hi"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "no candidates")
	})

	t.Run("parses structured API error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(geminiErrorResponse{
				Error: geminiErrorDetail{
					Code:    503,
					Message: "The model is overloaded. Please try again later.",
					Status:  "UNAVAILABLE",
				},
			})
		}))
		defer server.Close()

		client := NewGeminiClient(GeminiConfig{APIKey: "key", BaseURL: server.URL})

		_, err := client.Generate(context.Background(), GenerateRequest{Prompt: "hi"})

		require.Error(t, err)
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
		assert.Equal(t, "UNAVAILABLE", apiErr.Type)
		assert.True(t, apiErr.IsOverloaded())
	})

	t.Run("network error is a zero-status API error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close() // Closed before use.

		client := NewGeminiClient(GeminiConfig{APIKey: "key", BaseURL: server.URL})

		_, err := client.Generate(context.Background(), GenerateRequest{Prompt: "hi"})

		require.Error(t, err)
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Zero(t, apiErr.StatusCode)
		assert.Equal(t, "network_error", apiErr.Type)
	})
}

func TestGeminiClient_Embed(t *testing.T) {
	t.Run("returns vectors in input order", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Contains(t, r.URL.Path, "/models/text-embedding-004:batchEmbedContents")

			var req batchEmbedRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Len(t, req.Requests, 2)
			assert.Equal(t, "models/text-embedding-004", req.Requests[0].Model)
			assert.Equal(t, "first abstract", req.Requests[0].Content.Parts[0].Text)
			assert.Equal(t, "second abstract", req.Requests[1].Content.Parts[0].Text)

			json.NewEncoder(w).Encode(batchEmbedResponse{
				Embeddings: []geminiEmbedding{
					{Values: []float32{0.1, 0.2}},
					{Values: []float32{0.3, 0.4}},
				},
			})
		}))
		defer server.Close()

		client := NewGeminiClient(GeminiConfig{APIKey: "key", BaseURL: server.URL})

		vectors, err := client.Embed(context.Background(), []string{"first abstract", "second abstract"})

		require.NoError(t, err)
		require.Len(t, vectors, 2)
		assert.Equal(t, []float32{0.1, 0.2}, vectors[0])
		assert.Equal(t, []float32{0.3, 0.4}, vectors[1])
	})

	t.Run("empty input returns empty result without a call", func(t *testing.T) {
		called := false
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer server.Close()

		client := NewGeminiClient(GeminiConfig{APIKey: "key", BaseURL: server.URL})

		vectors, err := client.Embed(context.Background(), nil)

		require.NoError(t, err)
		assert.Empty(t, vectors)
		assert.False(t, called)
	})

	t.Run("embedding count mismatch is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(batchEmbedResponse{
				Embeddings: []geminiEmbedding{{Values: []float32{0.1}}},
			})
		}))
		defer server.Close()

		client := NewGeminiClient(GeminiConfig{APIKey: "key", BaseURL: server.URL})

		_, err := client.Embed(context.Background(), []string{"one", "two"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected 2 embeddings")
	})
}
