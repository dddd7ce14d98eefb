// Package orchestrator drives bulk operations: it resolves platforms,
// routes calls through the relay, records outcomes in the registry, and
// aggregates results.
//
// One item's failure never halts the rest of the selection; the
// orchestrator always drains the full set and reports a summary.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/herald/internal/audit"
	"github.com/roach88/herald/internal/content"
	"github.com/roach88/herald/internal/platform"
	"github.com/roach88/herald/internal/registry"
	"github.com/roach88/herald/internal/relay"
	"github.com/roach88/herald/internal/rewrite"
	"github.com/roach88/herald/internal/thread"
)

// State is the per-item progression. Terminal states are succeeded,
// failed and skipped.
type State string

const (
	StatePending   State = "pending"
	StateInvoking  State = "invoking"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateSkipped   State = "skipped"
)

// Outcome is the tri-state aggregate consumed by exit-code mapping.
type Outcome int

const (
	// OutcomeSuccess: every attempted pair succeeded.
	OutcomeSuccess Outcome = iota

	// OutcomeFailure: every attempted pair failed, or nothing was
	// attempted at all.
	OutcomeFailure

	// OutcomePartial: some pairs succeeded and some failed.
	OutcomePartial
)

// ExitCode maps the outcome onto the process exit signal:
// 0 all succeeded, 1 all failed or none attempted, 2 mixed.
func (o Outcome) ExitCode() int {
	switch o {
	case OutcomeSuccess:
		return 0
	case OutcomePartial:
		return 2
	default:
		return 1
	}
}

// Result is the outcome of one (item, platform) pair.
type Result struct {
	Path     string `json:"path"`
	Platform string `json:"platform"`
	Success  bool   `json:"success"`
	URL      string `json:"url,omitempty"`
	Error    string `json:"error,omitempty"`
	State    State  `json:"-"`
}

// Summary aggregates a drained run.
type Summary struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// RunReport is the machine-readable bulk result.
type RunReport struct {
	Command string   `json:"command"`
	RunID   string   `json:"runId"`
	Results []Result `json:"results"`
	Summary Summary  `json:"summary"`
}

// Outcome computes the tri-state aggregate of the run.
func (r RunReport) Outcome() Outcome {
	switch {
	case r.Summary.Succeeded > 0 && r.Summary.Failed == 0:
		return OutcomeSuccess
	case r.Summary.Succeeded > 0:
		return OutcomePartial
	default:
		return OutcomeFailure
	}
}

// PostBuilder adapts a content item into a platform payload. Payload
// field mapping lives behind this interface.
type PostBuilder interface {
	Build(ctx context.Context, item content.Item, target platform.Platform) (platform.Post, error)
}

// Orchestrator wires the registry, platform registry and relay together
// for one invocation. All dependencies arrive through the constructor;
// there is no ambient state.
type Orchestrator struct {
	reg       *registry.Store
	platforms *platform.Registry
	rel       *relay.Relay
	builder   PostBuilder
	logger    *slog.Logger
	now       func() time.Time
}

// New builds an orchestrator.
func New(reg *registry.Store, platforms *platform.Registry, rel *relay.Relay, builder PostBuilder, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		reg:       reg,
		platforms: platforms,
		rel:       rel,
		builder:   builder,
		logger:    logger,
		now:       time.Now,
	}
}

// Publish drains the candidate set sequentially. Entries classified as
// changed are updated in place when the platform supports it, otherwise
// re-published.
func (o *Orchestrator) Publish(ctx context.Context, command string, entries []audit.Entry) RunReport {
	report := RunReport{
		Command: command,
		RunID:   uuid.NewString(),
		Results: make([]Result, 0, len(entries)),
	}

	for _, entry := range entries {
		res := o.publishOne(ctx, entry, report.RunID)
		report.Results = append(report.Results, res)
		switch res.State {
		case StateSucceeded:
			report.Summary.Succeeded++
		case StateSkipped:
			report.Summary.Skipped++
		default:
			report.Summary.Failed++
		}
	}
	return report
}

func (o *Orchestrator) publishOne(ctx context.Context, entry audit.Entry, runID string) Result {
	res := Result{Path: entry.Path, Platform: entry.Platform, State: StatePending}

	target, ok := o.platforms.Resolve(entry.Platform)
	if !ok {
		res.State = StateSkipped
		res.Error = fmt.Sprintf("platform %s not loaded", entry.Platform)
		return res
	}

	// Thread-capable platforms take oversized content as a series of
	// linked posts instead of a rewritten summary.
	caps := target.Capabilities()
	if caps.Threads && caps.CharLimit > 0 && len(entry.Item.Body) > caps.CharLimit {
		if tp, isThreaded := target.(platform.ThreadPublisher); isThreaded {
			return o.publishThread(ctx, entry, tp, caps, res, runID)
		}
	}

	post, err := o.builder.Build(ctx, entry.Item, target)
	if err != nil {
		return o.fail(res, entry.Item, err)
	}

	res.State = StateInvoking
	o.logger.Debug("invoking platform",
		"run", runID, "path", entry.Path, "platform", entry.Platform, "status", string(entry.Status))

	var pub platform.Publication
	if entry.Status == audit.StatusChanged && caps.Update {
		prior, _ := o.reg.Publication(entry.Path, entry.Platform)
		pub, err = relay.Do(ctx, o.rel, "update "+entry.Platform,
			func(ctx context.Context) (platform.Publication, error) {
				return target.Update(ctx, prior.ID, post)
			})
	} else {
		pub, err = relay.Do(ctx, o.rel, "publish "+entry.Platform,
			func(ctx context.Context) (platform.Publication, error) {
				return target.Publish(ctx, post)
			})
	}
	if err != nil {
		return o.fail(res, entry.Item, err)
	}

	rec := registry.PublicationRecord{
		ID:          pub.ID,
		URL:         pub.URL,
		PublishedAt: o.now().UTC(),
		Checksum:    entry.Item.Checksum,
	}
	if err := o.reg.PutPublication(entry.Item, entry.Platform, rec); err != nil {
		// Remote succeeded but the durable write did not. Surface as a
		// failure so the operator re-runs and reconciles.
		return o.fail(res, entry.Item, err)
	}

	res.State = StateSucceeded
	res.Success = true
	res.URL = pub.URL
	return res
}

// publishThread splits the body into a thread and publishes the whole
// series in one platform call. The registry records the head post; the
// platform owns the reply chain.
func (o *Orchestrator) publishThread(ctx context.Context, entry audit.Entry, target platform.ThreadPublisher, caps platform.Capabilities, res Result, runID string) Result {
	body := entry.Item.Body
	if entry.Item.CanonicalURL != "" {
		body += "\n\n" + entry.Item.CanonicalURL
	}
	segments := thread.Split(body, thread.Config{
		MaxLength: caps.CharLimit,
		Style:     thread.StyleNumbered,
		MaxPosts:  thread.DefaultConfig().MaxPosts,
	})
	posts := make([]platform.Post, 0, len(segments))
	for _, seg := range segments {
		posts = append(posts, platform.Post{
			Title:        entry.Item.Title,
			Body:         seg,
			Tags:         entry.Item.Tags,
			CanonicalURL: entry.Item.CanonicalURL,
		})
	}

	res.State = StateInvoking
	o.logger.Debug("publishing thread",
		"run", runID, "path", entry.Path, "platform", entry.Platform, "posts", len(posts))

	pubs, err := relay.Do(ctx, o.rel, "thread "+entry.Platform,
		func(ctx context.Context) ([]platform.Publication, error) {
			return target.PublishThread(ctx, posts)
		})
	if err != nil {
		return o.fail(res, entry.Item, err)
	}
	if len(pubs) == 0 {
		return o.fail(res, entry.Item, fmt.Errorf("platform %s returned no publications for thread", entry.Platform))
	}

	rec := registry.PublicationRecord{
		ID:          pubs[0].ID,
		URL:         pubs[0].URL,
		PublishedAt: o.now().UTC(),
		Checksum:    entry.Item.Checksum,
	}
	if err := o.reg.PutPublication(entry.Item, entry.Platform, rec); err != nil {
		return o.fail(res, entry.Item, err)
	}

	res.State = StateSucceeded
	res.Success = true
	res.URL = pubs[0].URL
	return res
}

// fail records the failure durably and folds it into the result. A
// prior publication record for the pair is left untouched.
func (o *Orchestrator) fail(res Result, item content.Item, cause error) Result {
	res.State = StateFailed
	res.Error = cause.Error()

	kind := string(platform.KindOf(cause))
	if rewrite.IsSizeExceeded(cause) {
		kind = "SIZE_EXCEEDED"
	}
	if kind == "" {
		kind = "INTERNAL"
	}
	rec := registry.FailureRecord{
		ErrorKind:  kind,
		Message:    cause.Error(),
		OccurredAt: o.now().UTC(),
	}
	if err := o.reg.PutFailure(item, res.Platform, rec); err != nil {
		o.logger.Error("recording failure", "path", item.Path, "platform", res.Platform, "error", err)
	}
	return res
}

// Delete removes a remote publication and soft-deletes its record.
func (o *Orchestrator) Delete(ctx context.Context, path, platformName string) error {
	target, ok := o.platforms.Resolve(platformName)
	if !ok {
		return fmt.Errorf("platform %s not loaded", platformName)
	}
	if !target.Capabilities().Delete {
		return fmt.Errorf("platform %s does not support delete", platformName)
	}
	rec, ok := o.reg.Publication(path, platformName)
	if !ok {
		return fmt.Errorf("no %s publication recorded for %s", platformName, path)
	}

	err := relay.Run(ctx, o.rel, "delete "+platformName, func(ctx context.Context) error {
		return target.Delete(ctx, rec.ID)
	})
	if err != nil {
		return err
	}
	return o.reg.MarkDeleted(path, platformName)
}

// Stats returns metrics for a published pair, serving the registry
// cache while fresh and refreshing it through the relay otherwise.
func (o *Orchestrator) Stats(ctx context.Context, path, platformName string) (platform.Stats, error) {
	if st, ok := o.reg.Stats(path, platformName); ok {
		return st, nil
	}

	target, ok := o.platforms.Resolve(platformName)
	if !ok {
		return platform.Stats{}, fmt.Errorf("platform %s not loaded", platformName)
	}
	fetcher, ok := target.(platform.StatsFetcher)
	if !ok || !target.Capabilities().Stats {
		return platform.Stats{}, fmt.Errorf("platform %s does not expose stats", platformName)
	}
	rec, ok := o.reg.Publication(path, platformName)
	if !ok {
		return platform.Stats{}, fmt.Errorf("no %s publication recorded for %s", platformName, path)
	}

	st, err := relay.Do(ctx, o.rel, "stats "+platformName,
		func(ctx context.Context) (platform.Stats, error) {
			return fetcher.GetStats(ctx, rec.ID)
		})
	if err != nil {
		return platform.Stats{}, err
	}
	st.FetchedAt = o.now().UTC()
	if err := o.reg.PutStats(path, platformName, st); err != nil {
		return platform.Stats{}, err
	}
	return st, nil
}
