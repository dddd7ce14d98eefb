package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClock_AdvanceAndSet(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clk := NewClock(start)

	assert.Equal(t, start, clk.Now())

	clk.Advance(90 * time.Minute)
	assert.Equal(t, start.Add(90*time.Minute), clk.Now())

	pinned := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	clk.Set(pinned)
	assert.Equal(t, pinned, clk.Now())
}

func TestFakeSleeper_RecordsDelays(t *testing.T) {
	s := &FakeSleeper{}

	assert.NoError(t, s.Sleep(context.Background(), time.Second))
	assert.NoError(t, s.Sleep(context.Background(), 2*time.Second))

	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, s.Delays())
}
