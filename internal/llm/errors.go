package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError represents an error returned by an LLM provider API.
type APIError struct {
	// Provider is the name of the LLM provider (e.g., "gemini").
	Provider string
	// StatusCode is the HTTP status code returned by the API.
	// Zero means no HTTP response was received.
	StatusCode int
	// Message is the error message from the API.
	Message string
	// Type is the error status classification from the API (e.g., "UNAVAILABLE").
	Type string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("%s: API error (status %d, type %s): %s", e.Provider, e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("%s: API error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// IsOverloaded returns true if the error indicates the model is overloaded
// and the call may succeed on retry. Overload is signaled either by a 503
// response or by an error message mentioning "503" or "overloaded"; any
// other failure, including rate limiting, is treated as permanent.
func (e *APIError) IsOverloaded() bool {
	if e.StatusCode == http.StatusServiceUnavailable {
		return true
	}
	msg := strings.ToLower(e.Message)
	return strings.Contains(msg, "503") || strings.Contains(msg, "overloaded")
}

// IsOverloadedError reports whether err signals an overloaded model. Typed
// APIErrors are classified by status and message; any other error is
// classified by its message alone, so wrapped transport errors like
// "503 Service Unavailable" still count as overload.
func IsOverloadedError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsOverloaded()
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "503") || strings.Contains(msg, "overloaded")
}
