// Package filter implements the fixed-order selection pipeline for bulk
// operations.
//
// Stage order is fixed and each stage only narrows its input:
// path scope → date range → platform mode → form → tags → selection
// policy → sampling. Every stage except sampling is deterministic and
// preserves discovery order.
package filter

import (
	"math/rand"
	"sort"
	"time"

	"golang.org/x/text/cases"

	"github.com/roach88/herald/internal/content"
	"github.com/roach88/herald/internal/platform"
	"github.com/roach88/herald/internal/registry"
)

// Policy controls which registry states a bulk run acts on.
type Policy int

const (
	// SelectMissing keeps only pairs with no live publication record.
	// This is the default bulk-publish policy.
	SelectMissing Policy = iota

	// SelectMissingChanged also keeps published pairs whose current
	// checksum differs from the checksum at publish time.
	SelectMissingChanged

	// SelectAll keeps every pair regardless of registry state. Used by
	// read-only reporting.
	SelectAll
)

// Spec describes one bulk-selection query. It is ephemeral and never
// persisted.
type Spec struct {
	// PathScope restricts items to an exact path or a directory prefix.
	// Empty means no restriction.
	PathScope string

	// Since/Until bound the item modification date. Zero values leave
	// the corresponding side open.
	Since time.Time
	Until time.Time

	// Mode restricts platforms to a mode class; empty keeps both.
	Mode platform.Mode

	// Form restricts platforms to long-form or short-form; empty keeps
	// both.
	Form platform.Form

	// Tags keeps items matching any of the given tags,
	// case-insensitively. Empty keeps all.
	Tags []string

	// Policy is the missing-vs-changed inclusion policy.
	Policy Policy

	// IncludeArchived keeps items flagged archived (in front matter or
	// in the registry). Default excludes them.
	IncludeArchived bool

	// SampleSize, when positive, draws that many pairs uniformly
	// without replacement as the final stage. A sample at or above the
	// filtered population returns the population unchanged.
	SampleSize int

	// SampleSeed pins the sampling source for reproducible runs. Zero
	// seeds from the clock.
	SampleSeed int64
}

// Pair is one (item, platform) candidate for a bulk operation.
type Pair struct {
	Item     content.Item
	Platform string
}

// RegistryView is the slice of registry state the pipeline reads.
// *registry.Store satisfies it.
type RegistryView interface {
	Publication(path, platformName string) (registry.PublicationRecord, bool)
	IsArchived(path string) bool
}

// Pipeline narrows content×platform pairs for bulk operations.
type Pipeline struct {
	Registry RegistryView
	Caps     map[string]platform.Capabilities
}

// Apply runs the fixed stage chain over items × platforms.
// Items arrive in discovery order and leave in discovery order; only the
// sampling stage may permute membership, never relative order.
func (p *Pipeline) Apply(items []content.Item, platforms []string, spec Spec) []Pair {
	items = filterPathScope(items, spec.PathScope)
	items = filterDateRange(items, spec.Since, spec.Until)

	names := p.filterMode(platforms, spec.Mode)
	names = p.filterForm(names, spec.Form)

	items = filterTags(items, spec.Tags)

	pairs := p.pair(items, names)
	pairs = p.filterPolicy(pairs, spec)
	pairs = sample(pairs, spec.SampleSize, spec.SampleSeed)
	return pairs
}

func filterPathScope(items []content.Item, scope string) []content.Item {
	if scope == "" {
		return items
	}
	prefix := scope
	if prefix[len(prefix)-1] != '/' {
		prefix += "/"
	}
	var out []content.Item
	for _, it := range items {
		if it.Path == scope || len(it.Path) > len(prefix) && it.Path[:len(prefix)] == prefix {
			out = append(out, it)
		}
	}
	return out
}

func filterDateRange(items []content.Item, since, until time.Time) []content.Item {
	if since.IsZero() && until.IsZero() {
		return items
	}
	var out []content.Item
	for _, it := range items {
		if !since.IsZero() && it.Modified.Before(since) {
			continue
		}
		if !until.IsZero() && it.Modified.After(until) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func (p *Pipeline) filterMode(platforms []string, mode platform.Mode) []string {
	if mode == "" {
		return platforms
	}
	var out []string
	for _, name := range platforms {
		if p.Caps[name].Mode == mode {
			out = append(out, name)
		}
	}
	return out
}

func (p *Pipeline) filterForm(platforms []string, form platform.Form) []string {
	if form == "" {
		return platforms
	}
	var out []string
	for _, name := range platforms {
		if p.Caps[name].Form == form {
			out = append(out, name)
		}
	}
	return out
}

// filterTags keeps items carrying any requested tag, case-insensitively.
func filterTags(items []content.Item, tags []string) []content.Item {
	if len(tags) == 0 {
		return items
	}
	fold := cases.Fold()
	want := make(map[string]bool, len(tags))
	for _, t := range tags {
		want[fold.String(t)] = true
	}
	var out []content.Item
	for _, it := range items {
		for _, t := range it.Tags {
			if want[fold.String(t)] {
				out = append(out, it)
				break
			}
		}
	}
	return out
}

// pair crosses items with platforms, deduplicating by (path, platform)
// while preserving first-seen order.
func (p *Pipeline) pair(items []content.Item, platforms []string) []Pair {
	seen := make(map[[2]string]bool)
	var out []Pair
	for _, it := range items {
		for _, name := range platforms {
			key := [2]string{it.Path, name}
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, Pair{Item: it, Platform: name})
		}
	}
	return out
}

func (p *Pipeline) filterPolicy(pairs []Pair, spec Spec) []Pair {
	var out []Pair
	for _, pr := range pairs {
		archived := pr.Item.Archived || p.Registry.IsArchived(pr.Item.Path)
		if archived && !spec.IncludeArchived {
			continue
		}
		if spec.Policy == SelectAll {
			out = append(out, pr)
			continue
		}
		rec, published := p.Registry.Publication(pr.Item.Path, pr.Platform)
		switch {
		case !published:
			out = append(out, pr)
		case spec.Policy == SelectMissingChanged && rec.Checksum != pr.Item.Checksum:
			out = append(out, pr)
		}
	}
	return out
}

// sample draws n pairs uniformly without replacement, keeping the
// surviving pairs in their original order. Always the last stage.
func sample(pairs []Pair, n int, seed int64) []Pair {
	if n <= 0 || n >= len(pairs) {
		return pairs
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	idx := rng.Perm(len(pairs))[:n]
	sort.Ints(idx)
	out := make([]Pair, 0, n)
	for _, i := range idx {
		out = append(out, pairs[i])
	}
	return out
}
