// Package llm defines the text-generation collaborator used by the
// auto-rewrite loop.
package llm

import (
	"context"
	"fmt"
)

// Request is one generation call.
type Request struct {
	System      string
	Prompt      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Generator produces text from a prompt. Implementations wrap a
// concrete provider; the rewrite loop only sees this interface.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// ProviderError is a failure from the underlying provider.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("llm provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
