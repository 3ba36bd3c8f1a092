package crossref

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/paperscout/discovery-service/internal/domain"
	"github.com/paperscout/discovery-service/internal/papersources"
)

const (
	// DefaultBaseURL is the default CrossRef REST API base URL.
	DefaultBaseURL = "https://api.crossref.org"

	// DefaultRateLimit is the default rate limit for polite-pool usage.
	DefaultRateLimit = 10.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 10

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMailto is the default contact address advertised in the
	// polite User-Agent header.
	DefaultMailto = "contact@paperscout.dev"

	// sourceName is the human-readable name for this source.
	sourceName = "CrossRef"
)

// markupTagRegex matches embedded JATS/HTML tags in CrossRef abstracts.
var markupTagRegex = regexp.MustCompile(`<[^>]+>`)

// Config contains configuration options for the CrossRef client.
type Config struct {
	// BaseURL is the base URL for the API.
	BaseURL string

	// Mailto is the contact address included in the polite User-Agent
	// header, per CrossRef's usage policy.
	Mailto string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// Enabled indicates whether this source is enabled.
	Enabled bool
}

// Client implements the papersources.PaperSource interface for CrossRef.
type Client struct {
	httpClient *papersources.HTTPClient
	config     Config
}

// Compile-time check that Client implements papersources.PaperSource.
var _ papersources.PaperSource = (*Client)(nil)

// NewClient creates a new CrossRef client with the given configuration.
// If httpClient is nil, a new one will be created with the configuration settings.
func NewClient(cfg Config, httpClient *papersources.HTTPClient) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Mailto == "" {
		cfg.Mailto = DefaultMailto
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
			Timeout:   cfg.Timeout,
			RateLimit: cfg.RateLimit,
			BurstSize: cfg.BurstSize,
			UserAgent: fmt.Sprintf("PaperScout/1.0 (mailto:%s)", cfg.Mailto),
		})
	}

	return &Client{
		httpClient: httpClient,
		config:     cfg,
	}
}

// Search queries CrossRef for works matching the given parameters.
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

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body), nil)
	}

	// Parse the response (limit body to 10MB to prevent resource exhaustion).
	var worksResp WorksResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&worksResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	papers := make([]domain.Paper, 0, len(worksResp.Message.Items))
	for i := range worksResp.Message.Items {
		paper := workToPaper(&worksResp.Message.Items[i])
		if paper.HasIdentity() {
			papers = append(papers, paper)
		}
	}

	return &papersources.SearchResult{
		Papers:         papers,
		Source:         domain.SourceTypeCrossRef,
		SearchDuration: time.Since(start),
	}, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeCrossRef
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// buildSearchURL constructs the /works search URL with query parameters.
func (c *Client) buildSearchURL(params papersources.SearchParams) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	searchURL := baseURL.JoinPath("works")

	q := searchURL.Query()
	q.Set("query.bibliographic", params.Query)
	q.Set("rows", strconv.Itoa(papersources.PageSize))
	if params.Offset > 0 {
		q.Set("offset", strconv.Itoa(params.Offset))
	}
	if params.Year > 0 {
		q.Set("filter", fmt.Sprintf("from-publication-date:%d-01-01,until-publication-date:%d-12-31", params.Year, params.Year))
	}

	searchURL.RawQuery = q.Encode()
	return searchURL.String(), nil
}

// workToPaper converts a CrossRef work to a canonical Paper.
func workToPaper(work *Work) domain.Paper {
	title := "No title"
	if len(work.Title) > 0 && strings.TrimSpace(work.Title[0]) != "" {
		title = strings.TrimSpace(work.Title[0])
	}

	paper := domain.Paper{
		PaperID:      work.DOI,
		URL:          work.URL,
		Title:        title,
		Abstract:     stripMarkup(work.Abstract),
		Year:         publicationYear(work),
		IsOpenAccess: work.IsOpenAccess,
		Source:       domain.SourceTypeCrossRef,
	}

	paper.Authors = make([]domain.Author, 0, len(work.Author))
	for _, a := range work.Author {
		name := a.Name
		if a.Given != "" || a.Family != "" {
			name = strings.TrimSpace(a.Given + " " + a.Family)
		}
		if name == "" {
			continue
		}
		paper.Authors = append(paper.Authors, domain.Author{Name: name})
	}

	if len(work.ContainerTitle) > 0 && work.ContainerTitle[0] != "" {
		paper.Journal = &domain.Journal{
			Name:   work.ContainerTitle[0],
			Volume: work.Volume,
			Pages:  work.Page,
		}
	}

	return paper
}

// publicationYear picks the first available publication date of the work.
func publicationYear(work *Work) int {
	for _, d := range []*DateParts{work.Published, work.PublishedPrint, work.PublishedOnline} {
		if y := d.Year(); y > 0 {
			return y
		}
	}
	return 0
}

// stripMarkup removes embedded JATS/HTML tags from an abstract and
// collapses the remaining whitespace. CrossRef abstracts frequently
// arrive as "<jats:p>...</jats:p>" fragments.
func stripMarkup(abstract string) string {
	if abstract == "" {
		return ""
	}
	plain := markupTagRegex.ReplaceAllString(abstract, " ")
	return strings.Join(strings.Fields(plain), " ")
}
