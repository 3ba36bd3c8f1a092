// Package llm provides clients for large language model APIs.
//
// The package defines a provider-agnostic Client interface for text
// generation and embeddings, a Gemini implementation of it, and a generic
// retry wrapper for overloaded-model responses. Prompt construction and
// response interpretation live in the assistant package; this package only
// moves requests over the wire.
package llm

import (
	"context"
)

// GenerateRequest describes one text generation call.
type GenerateRequest struct {
	// System is an optional system instruction prepended to the conversation.
	System string

	// Prompt is the user prompt.
	Prompt string

	// Temperature controls sampling randomness.
	Temperature float64

	// MaxTokens caps the length of the generated response.
	// Zero uses the provider default.
	MaxTokens int

	// JSONResponse asks the model to emit a JSON document instead of prose.
	JSONResponse bool
}

// GenerateResponse is the outcome of a text generation call.
type GenerateResponse struct {
	// Text is the generated output.
	Text string

	// Model is the model that produced the response.
	Model string

	// InputTokens is the number of prompt tokens consumed.
	InputTokens int

	// OutputTokens is the number of completion tokens produced.
	OutputTokens int
}

// Client is the interface implemented by LLM providers.
type Client interface {
	// Generate produces text for the given request.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// Embed returns one embedding vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Provider returns the provider name (e.g., "gemini").
	Provider() string

	// Model returns the generation model identifier being used.
	Model() string
}
