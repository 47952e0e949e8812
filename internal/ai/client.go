// Package ai talks to the generative-language providers and isolates their
// failures. Providers implement Generator; the planner only ever calls
// Gateway, which turns every provider failure into a Result value.
package ai

import (
	"context"
	"errors"
)

// Generator is one text-generation provider. The concrete implementations
// live in gemini.go, deepseek.go and anthropic.go. Tests inject a stub that
// returns canned responses.
type Generator interface {
	// Generate sends prompt and returns the raw generated text.
	//
	// Implementations must be safe to call concurrently and must honour ctx
	// cancellation. A non-nil error means the call failed; the Gateway
	// converts it into a failed Result.
	Generate(ctx context.Context, prompt string) (string, error)
}

// ErrEmptyResponse is returned when a provider answers successfully but with
// no usable text.
var ErrEmptyResponse = errors.New("ai: empty response")
