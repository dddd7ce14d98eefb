package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate_Relative(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		in   string
		want time.Time
	}{
		{"7d", now.AddDate(0, 0, -7)},
		{"2w", now.AddDate(0, 0, -14)},
		{"1m", now.AddDate(0, 0, -30)},
		{"1y", now.AddDate(0, 0, -365)},
		{"3D", now.AddDate(0, 0, -3)}, // case-insensitive
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.in, now)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseDate_Absolute(t *testing.T) {
	now := time.Now()

	got, err := ParseDate("2025-01-15", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseDate("2025-01-15T08:30:00Z", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 15, 8, 30, 0, 0, time.UTC), got)
}

func TestParseDate_Invalid(t *testing.T) {
	now := time.Now()
	for _, in := range []string{"", "yesterday", "7x", "d7", "2025-13-40"} {
		_, err := ParseDate(in, now)
		assert.Error(t, err, in)
	}
}
