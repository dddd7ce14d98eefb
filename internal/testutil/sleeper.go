package testutil

import (
	"context"
	"sync"
	"time"
)

// FakeSleeper satisfies the relay's Sleeper interface without touching
// wall time. It records every requested delay so tests can assert the
// exact backoff schedule.
type FakeSleeper struct {
	mu     sync.Mutex
	delays []time.Duration

	// Err, when set, is returned from every Sleep call. Simulates a
	// context cancellation during backoff.
	Err error
}

// Sleep records the delay and returns immediately.
func (s *FakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.delays = append(s.delays, d)
	return nil
}

// Delays returns a copy of every delay requested so far.
func (s *FakeSleeper) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Duration, len(s.delays))
	copy(out, s.delays)
	return out
}
