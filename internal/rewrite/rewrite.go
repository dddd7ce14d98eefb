// Package rewrite fits generated text into a platform's character
// budget via a bounded generate/validate/truncate loop.
package rewrite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/herald/internal/llm"
)

const systemPrompt = `You write short social media announcements for articles.
Capture the key insight or hook. Engaging but never clickbait.
Do NOT include URLs (appended automatically). Do NOT use hashtags.
Reply with ONLY the announcement text.`

// maxSourceChars bounds how much article body goes into the prompt.
const maxSourceChars = 4000

// SizeExceededError means the generated text still exceeded the budget
// after the attempt budget was spent and truncation was not allowed.
// It is fatal for the single rewrite operation only.
type SizeExceededError struct {
	Length int
	Budget int
	// Attempts is the total number of generation attempts made.
	Attempts int
}

func (e *SizeExceededError) Error() string {
	return fmt.Sprintf("rewrite still %d chars after %d attempt(s), budget %d",
		e.Length, e.Attempts, e.Budget)
}

// IsSizeExceeded reports whether err is a size-exceeded failure.
func IsSizeExceeded(err error) bool {
	var se *SizeExceededError
	return errors.As(err, &se)
}

// Source is the content being rewritten.
type Source struct {
	Title    string
	Body     string
	Platform string
}

// Options bounds one rewrite operation.
type Options struct {
	// Limit is the platform's character limit.
	Limit int

	// Reserved is subtracted from the limit before generation, e.g.
	// for an appended link.
	Reserved int

	// Retries is how many regenerations are allowed after the first
	// attempt overflows. Default 0.
	Retries int

	// TruncateFallback cuts the best available text at a boundary when
	// all attempts overflow, instead of failing.
	TruncateFallback bool

	Model       string
	Temperature float64
	Logger      *slog.Logger
}

// Result carries the accepted text and how it was produced.
type Result struct {
	Text      string
	Truncated bool
	Attempts  int
}

// Rewrite runs the bounded loop: generate, check against the budget,
// optionally regenerate with the overage fed back, and finally either
// truncate or fail. Never returns oversized text.
func Rewrite(ctx context.Context, gen llm.Generator, src Source, opts Options) (Result, error) {
	budget := opts.Limit - opts.Reserved
	if budget <= 0 {
		return Result{}, fmt.Errorf("rewrite budget %d is not positive (limit %d, reserved %d)",
			budget, opts.Limit, opts.Reserved)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	maxAttempts := opts.Retries + 1
	var lastText string

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req := llm.Request{
			System:      systemPrompt,
			Prompt:      buildPrompt(src, budget, lastText),
			Model:       opts.Model,
			Temperature: opts.Temperature,
		}
		text, err := gen.Generate(ctx, req)
		if err != nil {
			return Result{}, fmt.Errorf("rewrite generation: %w", err)
		}
		text = strings.TrimSpace(text)

		if len(text) <= budget {
			return Result{Text: text, Attempts: attempt}, nil
		}
		logger.Debug("rewrite over budget",
			"platform", src.Platform,
			"attempt", attempt,
			"length", len(text),
			"budget", budget,
		)
		lastText = text
	}

	if opts.TruncateFallback {
		return Result{
			Text:      TruncateAtSentence(lastText, budget),
			Truncated: true,
			Attempts:  maxAttempts,
		}, nil
	}
	return Result{}, &SizeExceededError{Length: len(lastText), Budget: budget, Attempts: maxAttempts}
}

// buildPrompt assembles the user prompt, feeding the previous oversized
// attempt back so the model knows how far over it was.
func buildPrompt(src Source, budget int, previous string) string {
	body := src.Body
	if len(body) > maxSourceChars {
		body = body[:maxSourceChars] + "\n\n[content truncated]"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Write an announcement for the %s platform.\n", src.Platform)
	fmt.Fprintf(&b, "Hard limit: %d characters.\n\n", budget)
	fmt.Fprintf(&b, "Article title: %s\n\nArticle content:\n%s\n", src.Title, body)
	if previous != "" {
		fmt.Fprintf(&b, "\nYour previous attempt was %d characters, %d over the limit. Make it shorter:\n%s\n",
			len(previous), len(previous)-budget, previous)
	}
	return b.String()
}
