package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/herald/internal/audit"
	"github.com/roach88/herald/internal/content"
	"github.com/roach88/herald/internal/platform"
	"github.com/roach88/herald/internal/registry"
	"github.com/roach88/herald/internal/relay"
	"github.com/roach88/herald/internal/rewrite"
	"github.com/roach88/herald/internal/testutil"
)

// fakePlatform scripts publish/update/delete outcomes and counts calls.
type fakePlatform struct {
	name string
	caps platform.Capabilities

	publishErr error
	updateErr  error
	deleteErr  error
	statsErr   error

	publishCalls int
	updateCalls  int
	deleteCalls  int
	statsCalls   int

	lastPost platform.Post
}

func (f *fakePlatform) Name() string { return f.name }

func (f *fakePlatform) Capabilities() platform.Capabilities { return f.caps }

func (f *fakePlatform) Publish(ctx context.Context, post platform.Post) (platform.Publication, error) {
	f.publishCalls++
	f.lastPost = post
	if f.publishErr != nil {
		return platform.Publication{}, f.publishErr
	}
	return platform.Publication{ID: f.name + "-1", URL: "https://" + f.name + ".example/1"}, nil
}

func (f *fakePlatform) Update(ctx context.Context, id string, post platform.Post) (platform.Publication, error) {
	f.updateCalls++
	f.lastPost = post
	if f.updateErr != nil {
		return platform.Publication{}, f.updateErr
	}
	return platform.Publication{ID: id, URL: "https://" + f.name + ".example/" + id}, nil
}

func (f *fakePlatform) Delete(ctx context.Context, id string) error {
	f.deleteCalls++
	return f.deleteErr
}

func (f *fakePlatform) GetStats(ctx context.Context, id string) (platform.Stats, error) {
	f.statsCalls++
	if f.statsErr != nil {
		return platform.Stats{}, f.statsErr
	}
	return platform.Stats{Views: 42, Likes: 7}, nil
}

// passthroughBuilder maps items to posts without any fitting.
type passthroughBuilder struct{ err error }

func (b *passthroughBuilder) Build(ctx context.Context, item content.Item, target platform.Platform) (platform.Post, error) {
	if b.err != nil {
		return platform.Post{}, b.err
	}
	return platform.Post{Title: item.Title, Body: item.Body}, nil
}

type fixture struct {
	orch  *Orchestrator
	store *registry.Store
	fakes map[string]*fakePlatform
}

func newFixture(t *testing.T, builder PostBuilder, fakes ...*fakePlatform) *fixture {
	t.Helper()

	store, err := registry.Open(t.TempDir())
	require.NoError(t, err)

	reg := platform.NewRegistry()
	settings := make(map[string]platform.Settings)
	byName := make(map[string]*fakePlatform)
	for _, f := range fakes {
		f := f
		reg.MustRegister(f.name, func(platform.Settings) (platform.Platform, error) { return f, nil })
		settings[f.name] = platform.Settings{}
		byName[f.name] = f
	}
	reg.LoadAll(settings)

	rel := relay.New(relay.Options{MaxAttempts: 3, BaseDelay: time.Second, Sleeper: &testutil.FakeSleeper{}})
	if builder == nil {
		builder = &passthroughBuilder{}
	}

	o := New(store, reg, rel, builder, nil)
	o.now = testutil.NewClock(time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)).Now
	return &fixture{orch: o, store: store, fakes: byName}
}

func missingEntry(path, platformName string) audit.Entry {
	return audit.Entry{
		Item:     content.Item{Path: path, Title: "T " + path, Checksum: "sha256:aaaa", Body: "body"},
		Path:     path,
		Platform: platformName,
		Status:   audit.StatusMissing,
	}
}

func TestPublish_SuccessRecordsPublication(t *testing.T) {
	fake := &fakePlatform{name: "devto", caps: platform.Capabilities{Mode: platform.ModeAPI}}
	fx := newFixture(t, nil, fake)

	run := fx.orch.Publish(context.Background(), "backfill", []audit.Entry{missingEntry("a.md", "devto")})

	assert.Equal(t, "backfill", run.Command)
	assert.NotEmpty(t, run.RunID)
	require.Len(t, run.Results, 1)
	assert.True(t, run.Results[0].Success)
	assert.Equal(t, "https://devto.example/1", run.Results[0].URL)
	assert.Equal(t, Summary{Succeeded: 1}, run.Summary)
	assert.Equal(t, OutcomeSuccess, run.Outcome())

	rec, ok := fx.store.Publication("a.md", "devto")
	require.True(t, ok)
	assert.Equal(t, "devto-1", rec.ID)
	assert.Equal(t, "sha256:aaaa", rec.Checksum, "record pins the checksum at publish time")
	assert.Equal(t, time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC), rec.PublishedAt)
}

func TestPublish_FailureRecordsFailure(t *testing.T) {
	fake := &fakePlatform{name: "devto", publishErr: platform.NewAuth("bad token")}
	fx := newFixture(t, nil, fake)

	run := fx.orch.Publish(context.Background(), "backfill", []audit.Entry{missingEntry("a.md", "devto")})

	require.Len(t, run.Results, 1)
	assert.False(t, run.Results[0].Success)
	assert.Equal(t, Summary{Failed: 1}, run.Summary)

	f, ok := fx.store.Failure("a.md", "devto")
	require.True(t, ok)
	assert.Equal(t, "AUTH", f.ErrorKind)

	_, ok = fx.store.Publication("a.md", "devto")
	assert.False(t, ok)
}

func TestPublish_DrainsAfterFailure(t *testing.T) {
	bad := &fakePlatform{name: "devto", publishErr: platform.NewValidation("rejected")}
	good := &fakePlatform{name: "mastodon"}
	fx := newFixture(t, nil, bad, good)

	run := fx.orch.Publish(context.Background(), "backfill", []audit.Entry{
		missingEntry("a.md", "devto"),
		missingEntry("a.md", "mastodon"),
		missingEntry("b.md", "mastodon"),
	})

	assert.Equal(t, Summary{Succeeded: 2, Failed: 1}, run.Summary)
	assert.Equal(t, OutcomePartial, run.Outcome())
	assert.Equal(t, 2, run.Outcome().ExitCode())
	assert.Equal(t, 2, good.publishCalls, "one failure never halts the rest")
}

func TestPublish_ChangedUsesUpdateWhenSupported(t *testing.T) {
	fake := &fakePlatform{name: "devto", caps: platform.Capabilities{Update: true}}
	fx := newFixture(t, nil, fake)

	item := content.Item{Path: "a.md", Title: "A", Checksum: "sha256:old", Body: "v1"}
	require.NoError(t, fx.store.PutPublication(item, "devto", registry.PublicationRecord{
		ID: "remote-9", URL: "https://devto.example/9", Checksum: "sha256:old",
	}))

	item.Checksum = "sha256:new"
	entry := audit.Entry{Item: item, Path: "a.md", Platform: "devto", Status: audit.StatusChanged}
	run := fx.orch.Publish(context.Background(), "backfill", []audit.Entry{entry})

	assert.Equal(t, Summary{Succeeded: 1}, run.Summary)
	assert.Equal(t, 1, fake.updateCalls)
	assert.Zero(t, fake.publishCalls)

	rec, ok := fx.store.Publication("a.md", "devto")
	require.True(t, ok)
	assert.Equal(t, "remote-9", rec.ID, "update keeps the remote id")
	assert.Equal(t, "sha256:new", rec.Checksum)
}

func TestPublish_ChangedRepublishesWithoutUpdateSupport(t *testing.T) {
	fake := &fakePlatform{name: "devto"} // no update capability
	fx := newFixture(t, nil, fake)

	entry := missingEntry("a.md", "devto")
	entry.Status = audit.StatusChanged
	run := fx.orch.Publish(context.Background(), "backfill", []audit.Entry{entry})

	assert.Equal(t, Summary{Succeeded: 1}, run.Summary)
	assert.Equal(t, 1, fake.publishCalls)
	assert.Zero(t, fake.updateCalls)
}

func TestPublish_UnloadedPlatformSkips(t *testing.T) {
	fx := newFixture(t, nil)

	run := fx.orch.Publish(context.Background(), "backfill", []audit.Entry{missingEntry("a.md", "ghost")})

	assert.Equal(t, Summary{Skipped: 1}, run.Summary)
	assert.Equal(t, OutcomeFailure, run.Outcome(), "nothing attempted reads as failure")
	assert.Equal(t, 1, run.Outcome().ExitCode())
}

func TestPublish_BuilderFailureRecordsSizeExceeded(t *testing.T) {
	fake := &fakePlatform{name: "mastodon"}
	builder := &passthroughBuilder{err: &rewrite.SizeExceededError{Length: 400, Budget: 250, Attempts: 1}}
	fx := newFixture(t, builder, fake)

	run := fx.orch.Publish(context.Background(), "backfill", []audit.Entry{missingEntry("a.md", "mastodon")})

	assert.Equal(t, Summary{Failed: 1}, run.Summary)
	assert.Zero(t, fake.publishCalls, "nothing is sent when the payload cannot be built")

	f, ok := fx.store.Failure("a.md", "mastodon")
	require.True(t, ok)
	assert.Equal(t, "SIZE_EXCEEDED", f.ErrorKind)
}

func TestPublish_UnclassifiedFailureIsInternal(t *testing.T) {
	fake := &fakePlatform{name: "devto"}
	builder := &passthroughBuilder{err: errors.New("boom")}
	fx := newFixture(t, builder, fake)

	fx.orch.Publish(context.Background(), "backfill", []audit.Entry{missingEntry("a.md", "devto")})

	f, ok := fx.store.Failure("a.md", "devto")
	require.True(t, ok)
	assert.Equal(t, "INTERNAL", f.ErrorKind)
}

func TestPublish_TransientRetriedThroughRelay(t *testing.T) {
	fake := &fakePlatform{name: "devto", publishErr: platform.FromStatus(503, "down", 0)}
	fx := newFixture(t, nil, fake)

	run := fx.orch.Publish(context.Background(), "backfill", []audit.Entry{missingEntry("a.md", "devto")})

	assert.Equal(t, Summary{Failed: 1}, run.Summary)
	assert.Equal(t, 3, fake.publishCalls, "transient failures consume the full retry budget")

	f, ok := fx.store.Failure("a.md", "devto")
	require.True(t, ok)
	assert.Equal(t, "TRANSIENT_NETWORK", f.ErrorKind)
}

func TestPublish_SuccessClearsPriorFailure(t *testing.T) {
	fake := &fakePlatform{name: "devto", publishErr: platform.FromStatus(503, "down", 0)}
	fx := newFixture(t, nil, fake)

	entry := missingEntry("a.md", "devto")
	fx.orch.Publish(context.Background(), "retry", []audit.Entry{entry})
	_, ok := fx.store.Failure("a.md", "devto")
	require.True(t, ok)

	fake.publishErr = nil
	run := fx.orch.Publish(context.Background(), "retry", []audit.Entry{entry})
	assert.Equal(t, Summary{Succeeded: 1}, run.Summary)

	_, ok = fx.store.Failure("a.md", "devto")
	assert.False(t, ok, "the durable write that records success clears the failure")
}

func TestDelete(t *testing.T) {
	fake := &fakePlatform{name: "devto", caps: platform.Capabilities{Delete: true}}
	fx := newFixture(t, nil, fake)

	item := content.Item{Path: "a.md", Title: "A", Checksum: "sha256:aaaa"}
	require.NoError(t, fx.store.PutPublication(item, "devto", registry.PublicationRecord{ID: "r1", URL: "u"}))

	require.NoError(t, fx.orch.Delete(context.Background(), "a.md", "devto"))
	assert.Equal(t, 1, fake.deleteCalls)

	_, ok := fx.store.Publication("a.md", "devto")
	assert.False(t, ok, "soft-deleted records no longer count as published")
}

func TestDelete_Guards(t *testing.T) {
	noCap := &fakePlatform{name: "devto"} // delete not supported
	fx := newFixture(t, nil, noCap)

	assert.Error(t, fx.orch.Delete(context.Background(), "a.md", "ghost"), "unloaded platform")
	assert.Error(t, fx.orch.Delete(context.Background(), "a.md", "devto"), "unsupported capability")

	withCap := &fakePlatform{name: "mastodon", caps: platform.Capabilities{Delete: true}}
	fx2 := newFixture(t, nil, withCap)
	assert.Error(t, fx2.orch.Delete(context.Background(), "a.md", "mastodon"), "no recorded publication")
	assert.Zero(t, withCap.deleteCalls)
}

func TestStats_FetchesAndCaches(t *testing.T) {
	fake := &fakePlatform{name: "devto", caps: platform.Capabilities{Stats: true}}
	fx := newFixture(t, nil, fake)
	// The registry judges cache freshness against the wall clock, so the
	// orchestrator clock must agree with it here.
	fx.orch.now = time.Now

	item := content.Item{Path: "a.md", Title: "A", Checksum: "sha256:aaaa"}
	require.NoError(t, fx.store.PutPublication(item, "devto", registry.PublicationRecord{ID: "r1"}))

	st, err := fx.orch.Stats(context.Background(), "a.md", "devto")
	require.NoError(t, err)
	assert.Equal(t, 42, st.Views)
	assert.Equal(t, 1, fake.statsCalls)
	assert.False(t, st.FetchedAt.IsZero())

	// Second call within the TTL is served from the registry cache.
	_, err = fx.orch.Stats(context.Background(), "a.md", "devto")
	require.NoError(t, err)
	assert.Equal(t, 1, fake.statsCalls)
}

func TestStats_Guards(t *testing.T) {
	noStats := &fakePlatform{name: "devto"} // Stats capability off
	fx := newFixture(t, nil, noStats)

	item := content.Item{Path: "a.md", Title: "A", Checksum: "sha256:aaaa"}
	require.NoError(t, fx.store.PutPublication(item, "devto", registry.PublicationRecord{ID: "r1"}))

	_, err := fx.orch.Stats(context.Background(), "a.md", "devto")
	assert.Error(t, err)

	_, err = fx.orch.Stats(context.Background(), "a.md", "ghost")
	assert.Error(t, err)
}

// threadedPlatform adds thread support on top of fakePlatform.
type threadedPlatform struct {
	fakePlatform
	threadCalls int
	lastThread  []platform.Post
}

func (f *threadedPlatform) PublishThread(ctx context.Context, posts []platform.Post) ([]platform.Publication, error) {
	f.threadCalls++
	f.lastThread = posts
	out := make([]platform.Publication, 0, len(posts))
	for i := range posts {
		out = append(out, platform.Publication{
			ID:  fmt.Sprintf("%s-t%d", f.name, i+1),
			URL: fmt.Sprintf("https://%s.example/t%d", f.name, i+1),
		})
	}
	return out, nil
}

func TestPublish_ThreadedPlatformSplitsOversizedBody(t *testing.T) {
	fake := &threadedPlatform{fakePlatform: fakePlatform{
		name: "mastodon",
		caps: platform.Capabilities{Threads: true, Form: platform.FormShort, CharLimit: 280},
	}}

	store, err := registry.Open(t.TempDir())
	require.NoError(t, err)
	reg := platform.NewRegistry()
	reg.MustRegister("mastodon", func(platform.Settings) (platform.Platform, error) { return fake, nil })
	reg.LoadAll(map[string]platform.Settings{"mastodon": {}})
	rel := relay.New(relay.Options{MaxAttempts: 3, Sleeper: &testutil.FakeSleeper{}})
	o := New(store, reg, rel, &passthroughBuilder{}, nil)

	entry := audit.Entry{
		Item: content.Item{
			Path: "a.md", Title: "A", Checksum: "sha256:aaaa",
			Body:         strings.Repeat("A solid sentence of useful length goes right here. ", 20),
			CanonicalURL: "https://example.com/a",
		},
		Path:     "a.md",
		Platform: "mastodon",
		Status:   audit.StatusMissing,
	}
	run := o.Publish(context.Background(), "backfill", []audit.Entry{entry})

	assert.Equal(t, Summary{Succeeded: 1}, run.Summary)
	assert.Equal(t, 1, fake.threadCalls)
	assert.Zero(t, fake.publishCalls, "thread path bypasses single publish")
	require.Greater(t, len(fake.lastThread), 1)
	for i, p := range fake.lastThread {
		assert.LessOrEqual(t, len(p.Body), 280, "thread post %d over limit", i)
	}

	// The registry records the head post of the thread.
	rec, ok := store.Publication("a.md", "mastodon")
	require.True(t, ok)
	assert.Equal(t, "mastodon-t1", rec.ID)
}

func TestPublish_ThreadCapableButShortBodyPublishesNormally(t *testing.T) {
	fake := &threadedPlatform{fakePlatform: fakePlatform{
		name: "mastodon",
		caps: platform.Capabilities{Threads: true, Form: platform.FormShort, CharLimit: 280},
	}}

	store, err := registry.Open(t.TempDir())
	require.NoError(t, err)
	reg := platform.NewRegistry()
	reg.MustRegister("mastodon", func(platform.Settings) (platform.Platform, error) { return fake, nil })
	reg.LoadAll(map[string]platform.Settings{"mastodon": {}})
	rel := relay.New(relay.Options{MaxAttempts: 3, Sleeper: &testutil.FakeSleeper{}})
	o := New(store, reg, rel, &passthroughBuilder{}, nil)

	entry := missingEntry("a.md", "mastodon")
	run := o.Publish(context.Background(), "backfill", []audit.Entry{entry})

	assert.Equal(t, Summary{Succeeded: 1}, run.Summary)
	assert.Zero(t, fake.threadCalls)
	assert.Equal(t, 1, fake.publishCalls)
}

func TestOutcome_ExitCodes(t *testing.T) {
	assert.Equal(t, 0, RunReport{Summary: Summary{Succeeded: 2}}.Outcome().ExitCode())
	assert.Equal(t, 2, RunReport{Summary: Summary{Succeeded: 1, Failed: 1}}.Outcome().ExitCode())
	assert.Equal(t, 1, RunReport{Summary: Summary{Failed: 3}}.Outcome().ExitCode())
	assert.Equal(t, 1, RunReport{}.Outcome().ExitCode(), "none attempted")
	assert.Equal(t, 1, RunReport{Summary: Summary{Skipped: 4}}.Outcome().ExitCode())
}
