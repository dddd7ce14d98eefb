package rewrite

import "strings"

// TruncateAtSentence cuts text to fit maxChars, preferring a sentence
// boundary, then a word boundary, then a hard character cut. A boundary
// is only accepted past the midpoint of the limit so the result is not
// degenerately short. The result never exceeds maxChars.
func TruncateAtSentence(text string, maxChars int) string {
	if len(text) <= maxChars {
		return text
	}

	truncated := text[:maxChars]

	lastSentence := -1
	for _, mark := range []string{".", "?", "!"} {
		if i := strings.LastIndex(truncated, mark); i > lastSentence {
			lastSentence = i
		}
	}
	if lastSentence > maxChars/2 {
		return truncated[:lastSentence+1]
	}

	// The ellipsis needs three characters of room, so a space in the
	// final three characters of the window is not a usable boundary.
	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > maxChars/2 && lastSpace <= maxChars-3 {
		return truncated[:lastSpace] + "..."
	}

	return truncated[:maxChars-3] + "..."
}
