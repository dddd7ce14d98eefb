package rewrite

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateAtSentence_FitsUnchanged(t *testing.T) {
	assert.Equal(t, "short text", TruncateAtSentence("short text", 100))
	assert.Equal(t, "exact", TruncateAtSentence("exact", 5))
}

func TestTruncateAtSentence_SentenceBoundary(t *testing.T) {
	text := "First sentence is here. Second sentence follows it. Third one will not fit at all."
	got := TruncateAtSentence(text, 60)

	assert.Equal(t, "First sentence is here. Second sentence follows it.", got)
	assert.LessOrEqual(t, len(got), 60)
}

func TestTruncateAtSentence_RejectsEarlyBoundary(t *testing.T) {
	// The only sentence end is before the midpoint, so a word boundary
	// with ellipsis is used instead.
	text := "Hi. " + strings.Repeat("word ", 30)
	got := TruncateAtSentence(text, 40)

	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, len(got), 40)
	assert.Greater(t, len(got), 20)
}

func TestTruncateAtSentence_WordBoundaryNearLimit(t *testing.T) {
	// A space inside the final three characters of the cut window must
	// not win as a word boundary, or the ellipsis overflows the limit.
	text := strings.Repeat("x", 278) + " " + strings.Repeat("y", 50)
	got := TruncateAtSentence(text, 280)

	assert.LessOrEqual(t, len(got), 280)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestTruncateAtSentence_HardCut(t *testing.T) {
	// No sentence ends, no spaces: hard character cut with ellipsis.
	text := strings.Repeat("x", 100)
	got := TruncateAtSentence(text, 20)

	assert.Equal(t, strings.Repeat("x", 17)+"...", got)
	assert.Len(t, got, 20)
}

func TestTruncateAtSentence_QuestionAndExclamation(t *testing.T) {
	text := "Is this fine? Absolutely! And then a very long tail that overflows the limit."
	got := TruncateAtSentence(text, 30)

	assert.Equal(t, "Is this fine? Absolutely!", got)
}
