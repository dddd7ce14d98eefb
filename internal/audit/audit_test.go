package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/herald/internal/content"
	"github.com/roach88/herald/internal/filter"
	"github.com/roach88/herald/internal/registry"
)

func openStore(t *testing.T) *registry.Store {
	t.Helper()
	s, err := registry.Open(t.TempDir())
	require.NoError(t, err)
	return s
}

func publish(t *testing.T, s *registry.Store, it content.Item, platformName string) {
	t.Helper()
	require.NoError(t, s.PutPublication(it, platformName, registry.PublicationRecord{
		ID:          "remote-" + platformName,
		URL:         "https://" + platformName + ".example/" + it.Path,
		PublishedAt: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		Checksum:    it.Checksum,
	}))
}

func TestClassify_Missing(t *testing.T) {
	e := &Engine{Registry: openStore(t)}
	it := content.Item{Path: "a.md", Title: "A", Checksum: "sha256:aaaa"}

	entry := e.Classify(it, "devto")
	assert.Equal(t, StatusMissing, entry.Status)
	assert.Equal(t, "a.md", entry.Path)
	assert.Equal(t, "devto", entry.Platform)
}

func TestClassify_PublishedAndChanged(t *testing.T) {
	s := openStore(t)
	it := content.Item{Path: "a.md", Title: "A", Checksum: "sha256:aaaa"}
	publish(t, s, it, "devto")

	e := &Engine{Registry: s}

	entry := e.Classify(it, "devto")
	assert.Equal(t, StatusPublished, entry.Status)
	assert.Equal(t, "https://devto.example/a.md", entry.RemoteURL)

	// Edit the content: the same pair now reads as changed.
	it.Checksum = "sha256:bbbb"
	entry = e.Classify(it, "devto")
	assert.Equal(t, StatusChanged, entry.Status)
}

func TestClassify_DeletedReadsAsMissing(t *testing.T) {
	s := openStore(t)
	it := content.Item{Path: "a.md", Title: "A", Checksum: "sha256:aaaa"}
	publish(t, s, it, "devto")
	require.NoError(t, s.MarkDeleted("a.md", "devto"))

	e := &Engine{Registry: s}
	assert.Equal(t, StatusMissing, e.Classify(it, "devto").Status)
}

func TestClassify_FailedTakesPrecedence(t *testing.T) {
	s := openStore(t)
	it := content.Item{Path: "a.md", Title: "A", Checksum: "sha256:aaaa"}
	publish(t, s, it, "devto")
	require.NoError(t, s.PutFailure(it, "devto", registry.FailureRecord{
		ErrorKind: "RATE_LIMITED",
		Message:   "too many requests",
	}))

	e := &Engine{Registry: s}
	entry := e.Classify(it, "devto")
	assert.Equal(t, StatusFailed, entry.Status)
	assert.Equal(t, "too many requests", entry.Error)
}

func TestClassify_ArchivedShortCircuits(t *testing.T) {
	s := openStore(t)
	it := content.Item{Path: "a.md", Title: "A", Checksum: "sha256:aaaa", Archived: true}
	publish(t, s, it, "devto")

	e := &Engine{Registry: s}
	assert.Equal(t, StatusArchived, e.Classify(it, "devto").Status)

	// Registry-side archive flag counts the same as front matter.
	it2 := content.Item{Path: "b.md", Title: "B", Checksum: "sha256:bbbb"}
	require.NoError(t, s.SetArchived("b.md", true))
	assert.Equal(t, StatusArchived, e.Classify(it2, "devto").Status)
}

func TestClassify_IncludeArchivedUsesNormalRules(t *testing.T) {
	s := openStore(t)
	it := content.Item{Path: "a.md", Title: "A", Checksum: "sha256:aaaa", Archived: true}
	publish(t, s, it, "devto")

	e := &Engine{Registry: s, IncludeArchived: true}
	assert.Equal(t, StatusPublished, e.Classify(it, "devto").Status)

	it.Checksum = "sha256:bbbb"
	assert.Equal(t, StatusChanged, e.Classify(it, "devto").Status)
}

func TestReport_CountsAndByStatus(t *testing.T) {
	s := openStore(t)
	a := content.Item{Path: "a.md", Title: "A", Checksum: "sha256:aaaa"}
	b := content.Item{Path: "b.md", Title: "B", Checksum: "sha256:bbbb"}
	publish(t, s, a, "devto")

	e := &Engine{Registry: s}
	report := e.Report([]filter.Pair{
		{Item: a, Platform: "devto"},
		{Item: a, Platform: "mastodon"},
		{Item: b, Platform: "devto"},
	})

	counts := report.Counts()
	assert.Equal(t, 1, counts[StatusPublished])
	assert.Equal(t, 2, counts[StatusMissing])

	missing := report.ByStatus(StatusMissing)
	require.Len(t, missing, 2)
	assert.Equal(t, "a.md", missing[0].Path)
	assert.Equal(t, "mastodon", missing[0].Platform)
}

func TestReport_Candidates(t *testing.T) {
	s := openStore(t)
	published := content.Item{Path: "pub.md", Title: "P", Checksum: "sha256:aaaa"}
	changed := content.Item{Path: "chg.md", Title: "C", Checksum: "sha256:bbbb"}
	missing := content.Item{Path: "mis.md", Title: "M", Checksum: "sha256:cccc"}
	publish(t, s, published, "devto")
	publish(t, s, changed, "devto")
	changed.Checksum = "sha256:edited"

	e := &Engine{Registry: s}
	report := e.Report([]filter.Pair{
		{Item: published, Platform: "devto"},
		{Item: changed, Platform: "devto"},
		{Item: missing, Platform: "devto"},
	})

	got := report.Candidates(false)
	require.Len(t, got, 1)
	assert.Equal(t, "mis.md", got[0].Path)

	got = report.Candidates(true)
	require.Len(t, got, 2)
	assert.Equal(t, "chg.md", got[0].Path)
	assert.Equal(t, "mis.md", got[1].Path)
}
