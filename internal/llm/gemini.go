package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultGeminiBaseURL is the default Gemini API base URL.
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultGenerationModel is the default text generation model.
	DefaultGenerationModel = "gemini-2.5-flash"

	// DefaultEmbeddingModel is the default embedding model.
	DefaultEmbeddingModel = "text-embedding-004"

	// defaultGeminiTimeout is the default HTTP client timeout. Literature
	// review generation can run long, so this is deliberately generous.
	defaultGeminiTimeout = 2 * time.Minute
)

// geminiPart is a single content part in the Gemini API.
type geminiPart struct {
	Text string `json:"text"`
}

// geminiContent is a role-tagged list of parts.
type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

// geminiGenerationConfig holds sampling parameters for generateContent.
type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

// generateContentRequest is the request body for the generateContent endpoint.
type generateContentRequest struct {
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

// geminiCandidate is one generated completion.
type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

// geminiUsage contains token accounting from the Gemini API.
type geminiUsage struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// generateContentResponse is the response body from the generateContent endpoint.
type generateContentResponse struct {
	Candidates    []geminiCandidate `json:"candidates"`
	ModelVersion  string            `json:"modelVersion"`
	UsageMetadata geminiUsage       `json:"usageMetadata"`
}

// embedRequest is one entry in a batchEmbedContents request.
type embedRequest struct {
	Model   string        `json:"model"`
	Content geminiContent `json:"content"`
}

// batchEmbedRequest is the request body for the batchEmbedContents endpoint.
type batchEmbedRequest struct {
	Requests []embedRequest `json:"requests"`
}

// geminiEmbedding is a single embedding vector.
type geminiEmbedding struct {
	Values []float32 `json:"values"`
}

// batchEmbedResponse is the response body from the batchEmbedContents endpoint.
type batchEmbedResponse struct {
	Embeddings []geminiEmbedding `json:"embeddings"`
}

// geminiErrorDetail represents the nested error object in a Gemini API error response.
type geminiErrorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// geminiErrorResponse wraps the error payload from the Gemini API.
type geminiErrorResponse struct {
	Error geminiErrorDetail `json:"error"`
}

// GeminiConfig holds the parameters needed to create a Gemini client.
// This is defined in the llm package to avoid importing the config package.
type GeminiConfig struct {
	// APIKey is the Gemini API key.
	APIKey string
	// Model is the generation model identifier.
	Model string
	// EmbeddingModel is the embedding model identifier.
	EmbeddingModel string
	// BaseURL is the API base URL.
	BaseURL string
	// Timeout is the HTTP client timeout for API calls.
	Timeout time.Duration
}

// GeminiClient implements Client using the Gemini generative language API.
type GeminiClient struct {
	httpClient     *http.Client
	apiKey         string
	model          string
	embeddingModel string
	baseURL        string
}

// Compile-time check that GeminiClient implements Client.
var _ Client = (*GeminiClient)(nil)

// NewGeminiClient creates a new GeminiClient with the given configuration.
func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	if cfg.Model == "" {
		cfg.Model = DefaultGenerationModel
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = DefaultEmbeddingModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGeminiBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultGeminiTimeout
	}

	return &GeminiClient{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		apiKey:         cfg.APIKey,
		model:          cfg.Model,
		embeddingModel: cfg.EmbeddingModel,
		baseURL:        cfg.BaseURL,
	}
}

// Generate produces text for the given request via the generateContent endpoint.
func (c *GeminiClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	apiReq := generateContentRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: req.Prompt}}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		},
	}
	if req.System != "" {
		apiReq.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}
	if req.JSONResponse {
		apiReq.GenerationConfig.ResponseMimeType = "application/json"
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)

	var resp generateContentResponse
	if err := c.post(ctx, endpoint, apiReq, &resp); err != nil {
		return nil, err
	}

	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("gemini: response contains no candidates")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("gemini: response candidate contains no text parts")
	}

	model := resp.ModelVersion
	if model == "" {
		model = c.model
	}

	return &GenerateResponse{
		Text:         text.String(),
		Model:        model,
		InputTokens:  resp.UsageMetadata.PromptTokenCount,
		OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
	}, nil
}

// Embed returns one embedding per input text via the batchEmbedContents
// endpoint. The result preserves input order.
func (c *GeminiClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	apiReq := batchEmbedRequest{
		Requests: make([]embedRequest, 0, len(texts)),
	}
	for _, text := range texts {
		apiReq.Requests = append(apiReq.Requests, embedRequest{
			Model:   "models/" + c.embeddingModel,
			Content: geminiContent{Parts: []geminiPart{{Text: text}}},
		})
	}

	endpoint := fmt.Sprintf("%s/models/%s:batchEmbedContents", c.baseURL, c.embeddingModel)

	var resp batchEmbedResponse
	if err := c.post(ctx, endpoint, apiReq, &resp); err != nil {
		return nil, err
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini: expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		vectors[i] = emb.Values
	}
	return vectors, nil
}

// Provider returns the provider name.
func (c *GeminiClient) Provider() string {
	return "gemini"
}

// Model returns the generation model identifier being used.
func (c *GeminiClient) Model() string {
	return c.model
}

// post sends a JSON request to the Gemini API and decodes the response into out.
func (c *GeminiClient) post(ctx context.Context, endpoint string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("gemini: failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("gemini: failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// No HTTP response was received; report as a zero-status API error.
		return &APIError{
			Provider:   "gemini",
			StatusCode: 0,
			Message:    fmt.Sprintf("request failed: %v", err),
			Type:       "network_error",
		}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, 10<<20))
	if err != nil {
		return &APIError{
			Provider:   "gemini",
			StatusCode: 0,
			Message:    fmt.Sprintf("failed to read response body: %v", err),
			Type:       "network_error",
		}
	}

	if httpResp.StatusCode != http.StatusOK {
		return parseGeminiAPIError(httpResp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("gemini: failed to unmarshal response: %w", err)
	}
	return nil
}

// parseGeminiAPIError parses a Gemini API error from the response status code and body.
func parseGeminiAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{
		Provider:   "gemini",
		StatusCode: statusCode,
		Message:    string(body),
	}

	var errResp geminiErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		apiErr.Message = errResp.Error.Message
		apiErr.Type = errResp.Error.Status
	}

	return apiErr
}
