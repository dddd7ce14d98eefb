// Package audit reconciles registry state against live content.
//
// The audit is read-only: it classifies every (item, platform) pair into
// one status and produces a report that serves both human display and
// the orchestrator's candidate set.
package audit

import (
	"github.com/roach88/herald/internal/content"
	"github.com/roach88/herald/internal/filter"
	"github.com/roach88/herald/internal/registry"
)

// Status is the reconciliation outcome for one pair.
type Status string

const (
	// StatusMissing: no live publication record exists.
	StatusMissing Status = "missing"

	// StatusPublished: a record exists and the checksum still matches.
	StatusPublished Status = "published"

	// StatusChanged: a record exists but the content checksum differs
	// from the checksum at publish time.
	StatusChanged Status = "changed"

	// StatusArchived: the item is flagged archived. Excluded from bulk
	// action unless archived inclusion was requested.
	StatusArchived Status = "archived"

	// StatusFailed: an unresolved failure record exists for the pair.
	StatusFailed Status = "failed"
)

// Entry is the classified state of one (item, platform) pair.
type Entry struct {
	Item     content.Item `json:"-"`
	Path     string       `json:"path"`
	Title    string       `json:"title,omitempty"`
	Platform string       `json:"platform"`
	Status   Status       `json:"status"`

	RemoteURL string `json:"remoteUrl,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Report is the full audit result in selection order.
type Report struct {
	Entries []Entry `json:"entries"`
}

// Engine classifies pairs against a registry.
type Engine struct {
	Registry *registry.Store

	// IncludeArchived classifies archived items by the normal rules
	// instead of short-circuiting them out of bulk action.
	IncludeArchived bool
}

// Classify produces the status of a single pair.
func (e *Engine) Classify(item content.Item, platformName string) Entry {
	entry := Entry{
		Item:     item,
		Path:     item.Path,
		Title:    item.Title,
		Platform: platformName,
	}

	if !e.IncludeArchived && (item.Archived || e.Registry.IsArchived(item.Path)) {
		entry.Status = StatusArchived
		return entry
	}
	if f, ok := e.Registry.Failure(item.Path, platformName); ok {
		entry.Status = StatusFailed
		entry.Error = f.Message
		return entry
	}
	rec, ok := e.Registry.Publication(item.Path, platformName)
	if !ok {
		entry.Status = StatusMissing
		return entry
	}
	entry.RemoteURL = rec.URL
	if rec.Checksum != item.Checksum {
		entry.Status = StatusChanged
		return entry
	}
	entry.Status = StatusPublished
	return entry
}

// Report classifies every pair, preserving pair order.
func (e *Engine) Report(pairs []filter.Pair) Report {
	report := Report{Entries: make([]Entry, 0, len(pairs))}
	for _, p := range pairs {
		report.Entries = append(report.Entries, e.Classify(p.Item, p.Platform))
	}
	return report
}

// Counts tallies entries per status.
func (r Report) Counts() map[Status]int {
	counts := make(map[Status]int)
	for _, e := range r.Entries {
		counts[e.Status]++
	}
	return counts
}

// ByStatus returns the entries with the given status, in report order.
func (r Report) ByStatus(s Status) []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.Status == s {
			out = append(out, e)
		}
	}
	return out
}

// Candidates selects the entries a bulk publish should act on. The
// default acts only on missing pairs; changed inclusion must be
// requested explicitly. Archived entries never appear here: when
// archived inclusion is requested the engine classifies them by the
// normal rules instead.
func (r Report) Candidates(includeChanged bool) []Entry {
	var out []Entry
	for _, e := range r.Entries {
		switch e.Status {
		case StatusMissing:
			out = append(out, e)
		case StatusChanged:
			if includeChanged {
				out = append(out, e)
			}
		}
	}
	return out
}
