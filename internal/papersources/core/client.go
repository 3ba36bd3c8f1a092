package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/paperscout/discovery-service/internal/domain"
	"github.com/paperscout/discovery-service/internal/papersources"
)

const (
	// DefaultBaseURL is the default base URL for the CORE v3 API.
	DefaultBaseURL = "https://api.core.ac.uk/v3"

	// DefaultRateLimit is the default rate limit in requests per second.
	DefaultRateLimit = 5.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 5

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// sourceName is the human-readable name for this source.
	sourceName = "CORE"
)

// Config contains configuration options for the CORE client.
type Config struct {
	// BaseURL is the base URL for the API.
	// Defaults to DefaultBaseURL if empty.
	BaseURL string

	// APIKey authenticates requests as a bearer token.
	// The source is disabled without one.
	APIKey string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// Enabled indicates whether this source is enabled by configuration.
	Enabled bool
}

// Client implements the papersources.PaperSource interface for CORE.
type Client struct {
	httpClient *papersources.HTTPClient
	config     Config
}

// Compile-time check that Client implements papersources.PaperSource.
var _ papersources.PaperSource = (*Client)(nil)

// NewClient creates a new CORE client with the given configuration.
// If httpClient is nil, a new one will be created with the configuration settings.
func NewClient(cfg Config, httpClient *papersources.HTTPClient) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.BurstSize == 0 {
		cfg.BurstSize = DefaultBurstSize
	}

	if httpClient == nil {
		httpClient = papersources.NewHTTPClient(papersources.HTTPClientConfig{
			Timeout:      cfg.Timeout,
			RateLimit:    cfg.RateLimit,
			BurstSize:    cfg.BurstSize,
			APIKey:       cfg.APIKey,
			APIKeyHeader: "Authorization",
			APIKeyPrefix: "Bearer ",
		})
	}

	return &Client{
		httpClient: httpClient,
		config:     cfg,
	}
}

// Search queries CORE for works matching the given parameters.
func (c *Client) Search(ctx context.Context, params papersources.SearchParams) (*papersources.SearchResult, error) {
	start := time.Now()

	searchURL, err := c.buildSearchURL(params)
	if err != nil {
		return nil, fmt.Errorf("building search URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body), nil)
	}

	// Parse the response (limit body to 10MB to prevent resource exhaustion).
	var searchResp SearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	papers := make([]domain.Paper, 0, len(searchResp.Results))
	for _, result := range searchResp.Results {
		paper := workToPaper(result)
		if paper.HasIdentity() {
			papers = append(papers, paper)
		}
	}

	return &papersources.SearchResult{
		Papers:         papers,
		Source:         domain.SourceTypeCORE,
		SearchDuration: time.Since(start),
	}, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeCORE
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is currently enabled.
// A missing API key disables the source rather than failing searches.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled && c.config.APIKey != ""
}

// buildSearchURL constructs the search API URL with query parameters.
// CORE has no dedicated year parameter, so a year filter is folded into
// the query string itself as a field query.
func (c *Client) buildSearchURL(params papersources.SearchParams) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	searchURL := baseURL.JoinPath("search", "works")

	query := params.Query
	if params.Year > 0 {
		query = fmt.Sprintf("year:%d AND (%s)", params.Year, params.Query)
	}

	q := searchURL.Query()
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(papersources.PageSize))
	if params.Offset > 0 {
		q.Set("offset", strconv.Itoa(params.Offset))
	}

	searchURL.RawQuery = q.Encode()
	return searchURL.String(), nil
}

// workToPaper converts a single CORE work to a canonical Paper.
// CORE only indexes open access works it can link to a full text,
// so open access status follows from the presence of a download URL.
func workToPaper(result WorkResult) domain.Paper {
	title := result.Title
	if title == "" {
		title = "No title"
	}

	paper := domain.Paper{
		PaperID:      strconv.FormatInt(result.ID, 10),
		URL:          result.DownloadURL,
		Title:        title,
		Abstract:     result.Abstract,
		Year:         result.YearPublished,
		IsOpenAccess: result.DownloadURL != "",
		Source:       domain.SourceTypeCORE,
	}

	if len(result.Journals) > 0 && result.Journals[0].Title != "" {
		paper.Journal = &domain.Journal{Name: result.Journals[0].Title}
	}

	paper.Authors = make([]domain.Author, 0, len(result.Authors))
	for _, a := range result.Authors {
		if a.Name == "" {
			continue
		}
		paper.Authors = append(paper.Authors, domain.Author{Name: a.Name})
	}

	return paper
}
