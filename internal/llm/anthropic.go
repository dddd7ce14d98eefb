package llm

import (
	"context"
	"errors"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"
)

// Anthropic generates text through the Anthropic API.
type Anthropic struct {
	apiKey string
}

// NewAnthropic builds the provider. The key is validated lazily by the
// API; an empty key fails fast.
func NewAnthropic(apiKey string) (*Anthropic, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic: api key is required")
	}
	return &Anthropic{apiKey: apiKey}, nil
}

// Generate implements Generator.
func (a *Anthropic) Generate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1000
	}
	settings := types.RequestSettings{
		Model:       req.Model,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
	}

	resp, err := anthropic.PromptWithSettings(req.System, req.Prompt, "", a.apiKey, settings)
	if err != nil {
		return "", &ProviderError{Provider: "anthropic", Err: err}
	}
	if len(resp.Content) == 0 {
		return "", &ProviderError{Provider: "anthropic", Err: errors.New("empty response")}
	}
	return resp.Content[0].Text, nil
}
