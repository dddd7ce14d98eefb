// Package registry is the durable store of publication state.
//
// The whole state lives in one JSON file. It is loaded once per process,
// mutated in memory, and persisted by writing a complete new file next
// to the old one and renaming over it. A reader therefore only ever
// observes the prior complete state or the new complete state.
//
// There is no cross-process locking: concurrent invocations against the
// same store race, and the last successful write wins.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/roach88/herald/internal/content"
	"github.com/roach88/herald/internal/platform"
)

// FileName is the registry file inside the state directory.
const FileName = "registry.json"

// StatsTTL is how long a cached stats entry stays fresh.
const StatsTTL = time.Hour

// CorruptError means the registry file exists but cannot be parsed.
// This aborts the invocation: treating it as empty would mask data loss
// and re-publish everything.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("registry %s is corrupted: %v", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// IsCorrupt reports whether err is a registry corruption error.
func IsCorrupt(err error) bool {
	var ce *CorruptError
	return errors.As(err, &ce)
}

// Store owns the registry file for the duration of one invocation.
type Store struct {
	path  string
	state *State

	now func() time.Time
}

// Open loads the registry from dir. A missing file yields an empty
// registry; an unreadable or unparsable one is fatal.
func Open(dir string) (*Store, error) {
	path := filepath.Join(dir, FileName)
	s := &Store{path: path, now: time.Now}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.state = newState()
			return s, nil
		}
		return nil, fmt.Errorf("open registry: %w", err)
	}

	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, &CorruptError{Path: path, Err: err}
	}
	if state.Version > currentVersion {
		return nil, &CorruptError{Path: path, Err: fmt.Errorf("unknown schema version %d", state.Version)}
	}
	if state.Posts == nil {
		state.Posts = make(map[string]*Post)
	}
	state.Version = currentVersion
	s.state = &state
	return s, nil
}

// Path returns the registry file location.
func (s *Store) Path() string { return s.path }

// Get returns the entry for a content path.
func (s *Store) Get(path string) (*Post, bool) {
	p, ok := s.state.Posts[path]
	return p, ok
}

// Publication returns the live publication record for (path, platform).
// Soft-deleted records do not count.
func (s *Store) Publication(path, platformName string) (PublicationRecord, bool) {
	p, ok := s.state.Posts[path]
	if !ok {
		return PublicationRecord{}, false
	}
	rec, ok := p.Publications[platformName]
	if !ok || !rec.Live() {
		return PublicationRecord{}, false
	}
	return rec, true
}

// Failure returns the unresolved failure record for (path, platform).
func (s *Store) Failure(path, platformName string) (FailureRecord, bool) {
	p, ok := s.state.Posts[path]
	if !ok {
		return FailureRecord{}, false
	}
	rec, ok := p.Failures[platformName]
	return rec, ok
}

// ListAll returns all registered content paths, sorted.
func (s *Store) ListAll() []string {
	paths := make([]string, 0, len(s.state.Posts))
	for path := range s.state.Posts {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// IsArchived reports the archived flag for a path.
func (s *Store) IsArchived(path string) bool {
	p, ok := s.state.Posts[path]
	return ok && p.Archived
}

// SetArchived flips the archived flag and persists.
func (s *Store) SetArchived(path string, archived bool) error {
	s.state.post(path).Archived = archived
	return s.save()
}

// PutPublication records a successful publish or update. Any unresolved
// failure for the same pair is cleared in the same durable write.
func (s *Store) PutPublication(item content.Item, platformName string, rec PublicationRecord) error {
	p := s.state.post(item.Path)
	p.Title = item.Title
	p.Checksum = item.Checksum
	p.CanonicalURL = item.CanonicalURL

	if p.Publications == nil {
		p.Publications = make(map[string]PublicationRecord)
	}
	p.Publications[platformName] = rec
	delete(p.Failures, platformName)
	return s.save()
}

// PutFailure records a failed attempt. An existing publication record
// for the pair is left untouched. The retry count accumulates across
// consecutive failures.
func (s *Store) PutFailure(item content.Item, platformName string, rec FailureRecord) error {
	p := s.state.post(item.Path)
	if p.Title == "" {
		p.Title = item.Title
	}
	if p.Failures == nil {
		p.Failures = make(map[string]FailureRecord)
	}
	if prev, ok := p.Failures[platformName]; ok {
		rec.RetryCount = prev.RetryCount + 1
	}
	p.Failures[platformName] = rec
	return s.save()
}

// MarkDeleted soft-deletes a publication: the record stays, flagged, so
// the pair reads as unpublished from now on.
func (s *Store) MarkDeleted(path, platformName string) error {
	p, ok := s.state.Posts[path]
	if !ok {
		return fmt.Errorf("no registry entry for %s", path)
	}
	rec, ok := p.Publications[platformName]
	if !ok {
		return fmt.Errorf("no %s publication for %s", platformName, path)
	}
	rec.Deleted = true
	p.Publications[platformName] = rec
	return s.save()
}

// Stats returns the cached stats entry if it is still fresh.
func (s *Store) Stats(path, platformName string) (platform.Stats, bool) {
	p, ok := s.state.Posts[path]
	if !ok {
		return platform.Stats{}, false
	}
	st, ok := p.StatsCache[platformName]
	if !ok || s.now().Sub(st.FetchedAt) >= StatsTTL {
		return platform.Stats{}, false
	}
	return st, true
}

// PutStats caches freshly fetched stats.
func (s *Store) PutStats(path, platformName string, st platform.Stats) error {
	p := s.state.post(path)
	if p.StatsCache == nil {
		p.StatsCache = make(map[string]platform.Stats)
	}
	p.StatsCache[platformName] = st
	return s.save()
}

// save persists the complete state atomically: full marshal, temp file
// in the same directory, fsync, rename over the live file.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create registry dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, FileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("write registry: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write registry: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close registry temp: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace registry: %w", err)
	}
	return nil
}
