package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var relativeDate = regexp.MustCompile(`^(\d+)([dwmy])$`)

// ParseDate accepts a relative age ("7d", "2w", "1m", "1y") or an
// absolute date ("2025-01-01", full RFC 3339). Month and year are
// approximated as 30 and 365 days.
func ParseDate(value string, now time.Time) (time.Time, error) {
	if m := relativeDate.FindStringSubmatch(strings.ToLower(value)); m != nil {
		n, _ := strconv.Atoi(m[1])
		switch m[2] {
		case "d":
			return now.AddDate(0, 0, -n), nil
		case "w":
			return now.AddDate(0, 0, -7*n), nil
		case "m":
			return now.AddDate(0, 0, -30*n), nil
		case "y":
			return now.AddDate(0, 0, -365*n), nil
		}
	}

	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf(
		"invalid date %q: use relative (1d, 1w, 1m, 1y) or absolute (YYYY-MM-DD)", value)
}
