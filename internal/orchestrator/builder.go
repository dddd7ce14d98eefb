package orchestrator

import (
	"context"
	"fmt"

	"github.com/roach88/herald/internal/content"
	"github.com/roach88/herald/internal/llm"
	"github.com/roach88/herald/internal/platform"
	"github.com/roach88/herald/internal/rewrite"
)

// Builder is the default payload adapter. Long-form platforms get the
// body as-is; short-form platforms get the body fitted to the platform's
// character limit, auto-rewriting through the generator when one is
// configured and appending the canonical link afterwards.
type Builder struct {
	// Generator powers auto-rewrite. Nil disables generation; oversized
	// short-form content then falls back to truncation or fails.
	Generator llm.Generator

	// Retries and TruncateFallback bound the rewrite loop.
	Retries          int
	TruncateFallback bool

	Model       string
	Temperature float64
}

// Build implements PostBuilder.
func (b *Builder) Build(ctx context.Context, item content.Item, target platform.Platform) (platform.Post, error) {
	post := platform.Post{
		Title:        item.Title,
		Body:         item.Body,
		Tags:         item.Tags,
		CanonicalURL: item.CanonicalURL,
	}

	caps := target.Capabilities()
	if caps.Form != platform.FormShort || caps.CharLimit <= 0 {
		return post, nil
	}

	// Reserve room for the appended link plus separator.
	reserved := 0
	if item.CanonicalURL != "" {
		reserved = len(item.CanonicalURL) + 2
	}
	budget := caps.CharLimit - reserved
	if budget <= 0 {
		return platform.Post{}, fmt.Errorf("%s char limit %d leaves no room for content",
			target.Name(), caps.CharLimit)
	}

	text := item.Body
	if len(text) > budget {
		fitted, err := b.fit(ctx, item, target.Name(), caps.CharLimit, reserved)
		if err != nil {
			return platform.Post{}, err
		}
		text = fitted
	}
	if item.CanonicalURL != "" {
		text = text + "\n\n" + item.CanonicalURL
	}
	post.Body = text
	return post, nil
}

func (b *Builder) fit(ctx context.Context, item content.Item, platformName string, limit, reserved int) (string, error) {
	if b.Generator == nil {
		budget := limit - reserved
		if b.TruncateFallback {
			return rewrite.TruncateAtSentence(item.Body, budget), nil
		}
		return "", &rewrite.SizeExceededError{Length: len(item.Body), Budget: budget, Attempts: 0}
	}

	res, err := rewrite.Rewrite(ctx, b.Generator, rewrite.Source{
		Title:    item.Title,
		Body:     item.Body,
		Platform: platformName,
	}, rewrite.Options{
		Limit:            limit,
		Reserved:         reserved,
		Retries:          b.Retries,
		TruncateFallback: b.TruncateFallback,
		Model:            b.Model,
		Temperature:      b.Temperature,
	})
	if err != nil {
		return "", err
	}
	return res.Text, nil
}
