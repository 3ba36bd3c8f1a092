package core

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

func newTestClient(baseURL string) *Client {
	return NewClient(Config{
		BaseURL:   baseURL,
		APIKey:    "test-core-key",
		Enabled:   true,
		RateLimit: 100,
		BurstSize: 10,
	}, nil)
}

func TestNewClient(t *testing.T) {
	t.Run("creates client with default values", func(t *testing.T) {
		client := NewClient(Config{Enabled: true, APIKey: "key"}, nil)

		require.NotNil(t, client)
		assert.Equal(t, DefaultBaseURL, client.config.BaseURL)
		assert.Equal(t, DefaultTimeout, client.config.Timeout)
		assert.Equal(t, DefaultRateLimit, client.config.RateLimit)
		assert.Equal(t, DefaultBurstSize, client.config.BurstSize)
	})

	t.Run("implements PaperSource interface", func(t *testing.T) {
		client := NewClient(Config{Enabled: true, APIKey: "key"}, nil)

		assert.Equal(t, domain.SourceTypeCORE, client.SourceType())
		assert.Equal(t, "CORE", client.Name())
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
			TotalHits: 2,
			Limit:     10,
			Results: []WorkResult{
				{
					ID:            123456789,
					Title:         "Open Access Repositories: A Survey",
					Abstract:      "We survey institutional repositories.",
					Authors:       []Author{{Name: "Petr Knoth"}, {Name: "Zdenek Zdrahal"}},
					YearPublished: 2012,
					DownloadURL:   "https://core.ac.uk/download/123456789.pdf",
					Journals:      []JournalRef{{Title: "D-Lib Magazine"}},
				},
				{
					ID:            987654321,
					Title:         "Work Without Full Text",
					YearPublished: 2018,
				},
			},
		}

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Contains(t, r.URL.Path, "/search/works")
			assert.Equal(t, "open access repositories", r.URL.Query().Get("q"))
			assert.Equal(t, "10", r.URL.Query().Get("limit"))
			assert.Equal(t, "Bearer test-core-key", r.Header.Get("Authorization"))

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(response)
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		result, err := client.Search(context.Background(), papersources.SearchParams{
			Query: "open access repositories",
		})

		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, domain.SourceTypeCORE, result.Source)
		assert.Greater(t, result.SearchDuration, time.Duration(0))

		require.Len(t, result.Papers, 2)

		paper1 := result.Papers[0]
		assert.Equal(t, "123456789", paper1.PaperID)
		assert.Equal(t, "https://core.ac.uk/download/123456789.pdf", paper1.URL)
		assert.Equal(t, "Open Access Repositories: A Survey", paper1.Title)
		assert.Equal(t, 2012, paper1.Year)
		assert.True(t, paper1.IsOpenAccess)
		require.NotNil(t, paper1.Journal)
		assert.Equal(t, "D-Lib Magazine", paper1.Journal.Name)
		require.Len(t, paper1.Authors, 2)
		assert.Equal(t, "Petr Knoth", paper1.Authors[0].Name)

		paper2 := result.Papers[1]
		assert.Empty(t, paper2.URL)
		assert.False(t, paper2.IsOpenAccess)
		assert.Nil(t, paper2.Journal)
	})

	t.Run("year filter is folded into query", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "year:2015 AND (machine learning)", r.URL.Query().Get("q"))

			json.NewEncoder(w).Encode(SearchResponse{})
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		_, err := client.Search(context.Background(), papersources.SearchParams{
			Query: "machine learning",
			Year:  2015,
		})

		require.NoError(t, err)
	})

	t.Run("pagination sets offset parameter", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "40", r.URL.Query().Get("offset"))

			json.NewEncoder(w).Encode(SearchResponse{})
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		_, err := client.Search(context.Background(), papersources.SearchParams{
			Query:  "test",
			Offset: 40,
		})

		require.NoError(t, err)
	})

	t.Run("handles API error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"invalid api key"}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		result, err := client.Search(context.Background(), papersources.SearchParams{Query: "test"})

		require.Error(t, err)
		assert.Nil(t, result)

		var apiErr *domain.ExternalAPIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	})
}

func TestWorkToPaper(t *testing.T) {
	t.Run("empty title becomes placeholder", func(t *testing.T) {
		paper := workToPaper(WorkResult{ID: 42})

		assert.Equal(t, "No title", paper.Title)
		assert.Equal(t, "42", paper.PaperID)
	})

	t.Run("open access follows download URL", func(t *testing.T) {
		withURL := workToPaper(WorkResult{ID: 1, Title: "A", DownloadURL: "https://core.ac.uk/download/1.pdf"})
		assert.True(t, withURL.IsOpenAccess)

		withoutURL := workToPaper(WorkResult{ID: 2, Title: "B"})
		assert.False(t, withoutURL.IsOpenAccess)
	})

	t.Run("skips authors without name", func(t *testing.T) {
		paper := workToPaper(WorkResult{
			ID:      1,
			Title:   "A",
			Authors: []Author{{Name: ""}, {Name: "Someone"}},
		})

		require.Len(t, paper.Authors, 1)
		assert.Equal(t, "Someone", paper.Authors[0].Name)
	})
}

func TestAuthor_UnmarshalJSON(t *testing.T) {
	t.Run("accepts object form", func(t *testing.T) {
		var work WorkResult
		err := json.Unmarshal([]byte(`{"id":1,"authors":[{"name":"Jane Doe"}]}`), &work)

		require.NoError(t, err)
		require.Len(t, work.Authors, 1)
		assert.Equal(t, "Jane Doe", work.Authors[0].Name)
	})

	t.Run("accepts string form", func(t *testing.T) {
		var work WorkResult
		err := json.Unmarshal([]byte(`{"id":1,"authors":["Jane Doe","John Smith"]}`), &work)

		require.NoError(t, err)
		require.Len(t, work.Authors, 2)
		assert.Equal(t, "John Smith", work.Authors[1].Name)
	})
}
