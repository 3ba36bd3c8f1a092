package semanticscholar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperscout/discovery-service/internal/domain"
	"github.com/paperscout/discovery-service/internal/papersources"
)

func TestNewClient(t *testing.T) {
	t.Run("creates client with default values", func(t *testing.T) {
		client := NewClient(Config{Enabled: true, APIKey: "key"}, nil)

		require.NotNil(t, client)
		assert.Equal(t, DefaultBaseURL, client.config.BaseURL)
		assert.Equal(t, DefaultTimeout, client.config.Timeout)
		assert.Equal(t, DefaultRateLimit, client.config.RateLimit)
		assert.Equal(t, DefaultBurstSize, client.config.BurstSize)
	})

	t.Run("uses provided HTTP client", func(t *testing.T) {
		httpClient := papersources.NewHTTPClient(papersources.HTTPClientConfig{
			RateLimit: 100,
			BurstSize: 50,
		})
		client := NewClient(Config{Enabled: true}, httpClient)

		require.NotNil(t, client)
		assert.Equal(t, httpClient, client.httpClient)
	})

	t.Run("implements PaperSource interface", func(t *testing.T) {
		client := NewClient(Config{Enabled: true, APIKey: "key"}, nil)

		assert.Equal(t, domain.SourceTypeSemanticScholar, client.SourceType())
		assert.Equal(t, "Semantic Scholar", client.Name())
		assert.True(t, client.IsEnabled())
	})

	t.Run("disabled without API key", func(t *testing.T) {
		client := NewClient(Config{Enabled: true}, nil)
		assert.False(t, client.IsEnabled())
	})

	t.Run("disabled by configuration", func(t *testing.T) {
		client := NewClient(Config{Enabled: false, APIKey: "key"}, nil)
		assert.False(t, client.IsEnabled())
	})
}

func TestClient_Search(t *testing.T) {
	t.Run("successful search returns papers", func(t *testing.T) {
		response := SearchResponse{
			Total:  150,
			Offset: 0,
			Next:   10,
			Data: []PaperResult{
				{
					PaperID:  "abc123",
					URL:      "https://www.semanticscholar.org/paper/abc123",
					Title:    "CRISPR Gene Editing: A Review",
					Abstract: "This paper reviews CRISPR technology...",
					Year:     2023,
					Journal: &Journal{
						Name:   "Nature Reviews Genetics",
						Volume: "24",
						Pages:  "100-120",
					},
					Authors: []Author{
						{AuthorID: "auth1", Name: "Jane Doe"},
						{AuthorID: "auth2", Name: "John Smith"},
					},
					IsOpenAccess: true,
				},
				{
					PaperID:  "def456",
					Title:    "Gene Therapy Applications",
					Abstract: "Gene therapy has shown promise...",
					Year:     2022,
					Authors: []Author{
						{Name: "Alice Johnson"},
					},
				},
			},
		}

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Contains(t, r.URL.Path, "/paper/search")
			assert.Equal(t, "CRISPR gene editing", r.URL.Query().Get("query"))
			assert.Equal(t, "10", r.URL.Query().Get("limit"))
			assert.Contains(t, r.URL.Query().Get("fields"), "paperId")
			assert.Contains(t, r.URL.Query().Get("fields"), "isOpenAccess")
			assert.Equal(t, "test-api-key", r.Header.Get("x-api-key"))

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(response)
		}))
		defer server.Close()

		client := NewClient(Config{
			BaseURL:   server.URL,
			APIKey:    "test-api-key",
			Enabled:   true,
			RateLimit: 100,
			BurstSize: 10,
		}, nil)

		params := papersources.SearchParams{Query: "CRISPR gene editing"}

		result, err := client.Search(context.Background(), params)

		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, domain.SourceTypeSemanticScholar, result.Source)
		assert.Greater(t, result.SearchDuration, time.Duration(0))

		require.Len(t, result.Papers, 2)

		paper1 := result.Papers[0]
		assert.Equal(t, "abc123", paper1.PaperID)
		assert.Equal(t, "https://www.semanticscholar.org/paper/abc123", paper1.URL)
		assert.Equal(t, "CRISPR Gene Editing: A Review", paper1.Title)
		assert.Equal(t, "This paper reviews CRISPR technology...", paper1.Abstract)
		assert.Equal(t, 2023, paper1.Year)
		assert.True(t, paper1.IsOpenAccess)
		assert.Equal(t, domain.SourceTypeSemanticScholar, paper1.Source)
		require.NotNil(t, paper1.Journal)
		assert.Equal(t, "Nature Reviews Genetics", paper1.Journal.Name)
		assert.Equal(t, "24", paper1.Journal.Volume)
		assert.Equal(t, "100-120", paper1.Journal.Pages)

		require.Len(t, paper1.Authors, 2)
		assert.Equal(t, "Jane Doe", paper1.Authors[0].Name)
		assert.Equal(t, "auth1", paper1.Authors[0].AuthorID)

		paper2 := result.Papers[1]
		assert.Equal(t, "Gene Therapy Applications", paper2.Title)
		assert.Nil(t, paper2.Journal)
		assert.False(t, paper2.IsOpenAccess)
	})

	t.Run("search with offset and year filter", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "20", r.URL.Query().Get("offset"))
			assert.Equal(t, "2021", r.URL.Query().Get("year"))
			assert.Equal(t, "10", r.URL.Query().Get("limit"))

			json.NewEncoder(w).Encode(SearchResponse{Total: 100, Offset: 20, Data: []PaperResult{}})
		}))
		defer server.Close()

		client := NewClient(Config{
			BaseURL:   server.URL,
			APIKey:    "key",
			Enabled:   true,
			RateLimit: 100,
			BurstSize: 10,
		}, nil)

		params := papersources.SearchParams{
			Query:  "test",
			Year:   2021,
			Offset: 20,
		}

		result, err := client.Search(context.Background(), params)

		require.NoError(t, err)
		assert.Empty(t, result.Papers)
	})

	t.Run("omits year parameter when unset", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, hasYear := r.URL.Query()["year"]
			assert.False(t, hasYear)
			_, hasOffset := r.URL.Query()["offset"]
			assert.False(t, hasOffset)

			json.NewEncoder(w).Encode(SearchResponse{Data: []PaperResult{}})
		}))
		defer server.Close()

		client := NewClient(Config{
			BaseURL:   server.URL,
			APIKey:    "key",
			Enabled:   true,
			RateLimit: 100,
			BurstSize: 10,
		}, nil)

		_, err := client.Search(context.Background(), papersources.SearchParams{Query: "test"})
		require.NoError(t, err)
	})

	t.Run("search handles API error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(ErrorResponse{
				Error: "Invalid query parameter",
			})
		}))
		defer server.Close()

		client := NewClient(Config{
			BaseURL:   server.URL,
			APIKey:    "key",
			Enabled:   true,
			RateLimit: 100,
			BurstSize: 10,
		}, nil)

		result, err := client.Search(context.Background(), papersources.SearchParams{Query: "test"})

		require.Error(t, err)
		assert.Nil(t, result)
		assert.Contains(t, err.Error(), "Invalid query parameter")

		var apiErr *domain.ExternalAPIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	})

	t.Run("search respects context cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(500 * time.Millisecond)
			json.NewEncoder(w).Encode(SearchResponse{Data: []PaperResult{}})
		}))
		defer server.Close()

		client := NewClient(Config{
			BaseURL:   server.URL,
			APIKey:    "key",
			Enabled:   true,
			RateLimit: 100,
			BurstSize: 10,
		}, nil)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := client.Search(ctx, papersources.SearchParams{Query: "test"})

		require.Error(t, err)
	})
}

func TestConvertToPaper(t *testing.T) {
	t.Run("fills in placeholder title", func(t *testing.T) {
		paper := convertToPaper(PaperResult{PaperID: "abc"})

		assert.Equal(t, "No title", paper.Title)
		assert.Equal(t, "abc", paper.PaperID)
	})

	t.Run("skips journal without name", func(t *testing.T) {
		paper := convertToPaper(PaperResult{
			PaperID: "abc",
			Title:   "Paper",
			Journal: &Journal{Volume: "12"},
		})

		assert.Nil(t, paper.Journal)
	})

	t.Run("handles paper with minimal fields", func(t *testing.T) {
		paper := convertToPaper(PaperResult{
			PaperID: "minimal123",
			Title:   "Minimal Paper",
		})

		assert.Equal(t, "Minimal Paper", paper.Title)
		assert.Empty(t, paper.Abstract)
		assert.Zero(t, paper.Year)
		assert.Nil(t, paper.Journal)
		assert.Empty(t, paper.Authors)
		assert.False(t, paper.IsOpenAccess)
	})
}
