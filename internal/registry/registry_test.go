package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/herald/internal/content"
	"github.com/roach88/herald/internal/platform"
	"github.com/roach88/herald/internal/testutil"
)

var testItem = content.Item{
	Path:         "posts/hello.md",
	Title:        "Hello",
	Checksum:     "sha256:aaaaaaaaaaaaaaaa",
	CanonicalURL: "https://example.com/hello",
}

func testRecord() PublicationRecord {
	return PublicationRecord{
		ID:          "remote-1",
		URL:         "https://devto.example/hello",
		PublishedAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		Checksum:    testItem.Checksum,
	}
}

func TestOpen_MissingFileYieldsEmpty(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	assert.Empty(t, s.ListAll())
	_, ok := s.Get("posts/hello.md")
	assert.False(t, ok)
}

func TestOpen_CorruptFileIsFatal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("{not json"), 0o644))

	_, err := Open(dir)
	require.Error(t, err)
	assert.True(t, IsCorrupt(err))
}

func TestOpen_UnknownVersionIsFatal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName),
		[]byte(`{"version": 99, "posts": {}}`), 0o644))

	_, err := Open(dir)
	require.Error(t, err)
	assert.True(t, IsCorrupt(err))
}

func TestStore_PublicationRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, s.PutPublication(testItem, "devto", testRecord()))

	// Reopen from disk: the write must survive the process.
	s2, err := Open(dir)
	require.NoError(t, err)

	rec, ok := s2.Publication(testItem.Path, "devto")
	require.True(t, ok)
	assert.Equal(t, testRecord(), rec)

	post, ok := s2.Get(testItem.Path)
	require.True(t, ok)
	assert.Equal(t, "Hello", post.Title)
	assert.Equal(t, testItem.Checksum, post.Checksum)
	assert.Equal(t, testItem.CanonicalURL, post.CanonicalURL)
}

func TestStore_SaveIsAtomic(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.PutPublication(testItem, "devto", testRecord()))

	// The live file parses as complete JSON and no temp files remain.
	raw, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	var state State
	require.NoError(t, json.Unmarshal(raw, &state))
	assert.Equal(t, currentVersion, state.Version)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, FileName, entries[0].Name())
}

func TestStore_FailureClearedBySuccess(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	fail := FailureRecord{
		ErrorKind:  "TRANSIENT_NETWORK",
		Message:    "connect refused",
		OccurredAt: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.PutFailure(testItem, "devto", fail))

	got, ok := s.Failure(testItem.Path, "devto")
	require.True(t, ok)
	assert.Equal(t, "connect refused", got.Message)

	require.NoError(t, s.PutPublication(testItem, "devto", testRecord()))

	_, ok = s.Failure(testItem.Path, "devto")
	assert.False(t, ok, "success clears the failure record")
}

func TestStore_FailureRetryCountAccumulates(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	rec := FailureRecord{ErrorKind: "RATE_LIMITED", Message: "429"}
	require.NoError(t, s.PutFailure(testItem, "devto", rec))
	require.NoError(t, s.PutFailure(testItem, "devto", rec))
	require.NoError(t, s.PutFailure(testItem, "devto", rec))

	got, ok := s.Failure(testItem.Path, "devto")
	require.True(t, ok)
	assert.Equal(t, 2, got.RetryCount)
}

func TestStore_MarkDeleted(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.PutPublication(testItem, "devto", testRecord()))

	require.NoError(t, s.MarkDeleted(testItem.Path, "devto"))

	// Soft-deleted: the pair no longer counts as published but the
	// record stays in the entry for history.
	_, ok := s.Publication(testItem.Path, "devto")
	assert.False(t, ok)

	post, _ := s.Get(testItem.Path)
	rec, ok := post.Publications["devto"]
	require.True(t, ok)
	assert.True(t, rec.Deleted)
	assert.False(t, rec.Live())
}

func TestStore_MarkDeleted_Unknown(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, s.MarkDeleted("nope.md", "devto"))

	require.NoError(t, s.PutPublication(testItem, "devto", testRecord()))
	assert.Error(t, s.MarkDeleted(testItem.Path, "mastodon"))
}

func TestStore_Archived(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	assert.False(t, s.IsArchived(testItem.Path))
	require.NoError(t, s.SetArchived(testItem.Path, true))
	assert.True(t, s.IsArchived(testItem.Path))

	s2, err := Open(dir)
	require.NoError(t, err)
	assert.True(t, s2.IsArchived(testItem.Path))

	require.NoError(t, s2.SetArchived(testItem.Path, false))
	assert.False(t, s2.IsArchived(testItem.Path))
}

func TestStore_StatsCacheTTL(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	clk := testutil.NewClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	s.now = clk.Now

	st := platform.Stats{Views: 100, Likes: 5, FetchedAt: clk.Now()}
	require.NoError(t, s.PutStats(testItem.Path, "devto", st))

	got, ok := s.Stats(testItem.Path, "devto")
	require.True(t, ok)
	assert.Equal(t, 100, got.Views)

	// Still fresh just under the TTL.
	clk.Advance(StatsTTL - time.Second)
	_, ok = s.Stats(testItem.Path, "devto")
	assert.True(t, ok)

	// Stale at the TTL boundary.
	clk.Advance(time.Second)
	_, ok = s.Stats(testItem.Path, "devto")
	assert.False(t, ok)
}

func TestStore_ListAllSorted(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	for _, path := range []string{"c.md", "a.md", "b.md"} {
		it := content.Item{Path: path, Title: path}
		require.NoError(t, s.PutPublication(it, "devto", testRecord()))
	}

	assert.Equal(t, []string{"a.md", "b.md", "c.md"}, s.ListAll())
}
