// Package llm wraps the text-generation services used to interpret
// transaction statements and to write report narratives.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Completer sends a single prompt and returns the raw completion text.
// Implementations make exactly one outbound call and never retry.
type Completer interface {
	Complete(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, error)
}

var (
	// ErrInvalidKey is returned when the provider rejects the API key.
	ErrInvalidKey = errors.New("invalid api key")
	// ErrInsufficientFunds is returned when the provider account has no credit left.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrRateLimited is returned when the provider throttles the caller.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmptyCompletion is returned when the provider answers with no text.
	ErrEmptyCompletion = errors.New("empty completion")
)

// APIError is a provider error carrying the HTTP status it arrived with.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// Unwrap maps well-known statuses onto the package sentinels.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrInvalidKey
	case http.StatusPaymentRequired:
		return ErrInsufficientFunds
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}
	return nil
}
