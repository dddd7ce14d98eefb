// Package relay wraps single outbound platform calls with classification
// and bounded exponential-backoff retry.
//
// Every failure is classified as retryable (HTTP 429/502/503/504,
// connect/timeout errors) or fatal (other 4xx, auth, malformed request).
// Retryable failures are retried up to the attempt budget with delay
// base × 2^(attempt−1), capped at MaxDelay; a server-specified
// Retry-After overrides the computed delay whenever it is larger. A
// fatal classification is never retried, and after the budget is spent
// the last classified failure is returned as-is.
//
// The relay may block the calling goroutine during backoff sleeps. It
// never touches the registry.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/roach88/herald/internal/platform"
)

// Defaults for the retry policy. Platforms are independently
// rate-limited, so the budget stays small.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
	DefaultMaxDelay    = 30 * time.Second
)

// Sleeper abstracts backoff sleeps so tests never wait on wall time.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// realSleeper blocks on the wall clock, honoring context cancellation.
type realSleeper struct{}

func (realSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Options configures one relay.
type Options struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Sleeper     Sleeper
	Logger      *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = DefaultBaseDelay
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = DefaultMaxDelay
	}
	if o.Sleeper == nil {
		o.Sleeper = realSleeper{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Relay executes outbound calls under one retry policy.
type Relay struct {
	opts Options
}

// New builds a relay, filling unset options with defaults.
func New(opts Options) *Relay {
	return &Relay{opts: opts.withDefaults()}
}

// Do invokes op under the retry policy and returns its result or the
// terminal classified failure.
func Do[T any](ctx context.Context, r *Relay, name string, op func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= r.opts.MaxAttempts; attempt++ {
		out, err := op(ctx)
		if err == nil {
			return out, nil
		}

		classified := Classify(err)
		lastErr = classified
		if !classified.Retryable() {
			return zero, classified
		}
		if attempt == r.opts.MaxAttempts {
			break
		}

		delay := r.backoff(attempt)
		if ra := classified.RetryAfter; ra > delay {
			delay = ra
		}
		r.opts.Logger.Debug("retrying after classified failure",
			"op", name,
			"attempt", attempt,
			"kind", string(classified.Kind),
			"delay", delay,
		)
		if err := r.opts.Sleeper.Sleep(ctx, delay); err != nil {
			return zero, fmt.Errorf("%s interrupted during backoff: %w", name, err)
		}
	}

	return zero, fmt.Errorf("%s failed after %d attempts: %w", name, r.opts.MaxAttempts, lastErr)
}

// Run is Do for operations without a result value.
func Run(ctx context.Context, r *Relay, name string, op func(context.Context) error) error {
	_, err := Do(ctx, r, name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// backoff computes the capped exponential delay for an attempt (1-based).
func (r *Relay) backoff(attempt int) time.Duration {
	delay := r.opts.BaseDelay << uint(attempt-1)
	if delay > r.opts.MaxDelay || delay <= 0 {
		delay = r.opts.MaxDelay
	}
	return delay
}

// Classify normalizes any error into the platform taxonomy. Already
// classified errors pass through; raw network failures become transient;
// anything else is treated as a validation-class fatal failure so an
// unknown local bug is never retried blindly.
func Classify(err error) *platform.Error {
	var pe *platform.Error
	if errors.As(err, &pe) {
		return pe
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return platform.NewTransient("request timed out", err)
	}
	var operr *net.OpError
	if errors.As(err, &operr) {
		return platform.NewTransient("connection failed", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return platform.NewTransient("deadline exceeded", err)
	}
	return &platform.Error{Kind: platform.ErrKindValidation, Message: err.Error(), Err: err}
}
