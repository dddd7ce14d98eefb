package registry

import (
	"time"

	"github.com/roach88/herald/internal/platform"
)

// currentVersion is the persisted schema version. Bump only with a
// migration path from every prior version.
const currentVersion = 1

// State is the complete persisted registry. It loads into memory once
// per process and is written back whole on every mutation.
type State struct {
	Version int              `json:"version"`
	Posts   map[string]*Post `json:"posts"`
}

// Post is the registry entry for one content item, keyed by its stable
// relative path.
type Post struct {
	Title        string `json:"title,omitempty"`
	Checksum     string `json:"checksum,omitempty"`
	CanonicalURL string `json:"canonicalUrl,omitempty"`

	Publications map[string]PublicationRecord `json:"publications,omitempty"`
	Failures     map[string]FailureRecord     `json:"failures,omitempty"`

	Archived   bool                      `json:"archived,omitempty"`
	StatsCache map[string]platform.Stats `json:"statsCache,omitempty"`
}

// PublicationRecord is durable proof that an item was published to a
// platform, pinned to the checksum at publish time.
type PublicationRecord struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"publishedAt"`
	Checksum    string    `json:"checksum"`

	// Deleted marks a soft delete: the record stays for history, the
	// pair no longer counts as published.
	Deleted bool `json:"deleted,omitempty"`
}

// FailureRecord tracks the most recent unresolved failure for an
// item/platform pair. Cleared the moment a publication is recorded.
type FailureRecord struct {
	ErrorKind  string    `json:"errorKind"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurredAt"`
	RetryCount int       `json:"retryCount,omitempty"`
}

// Live reports whether the record represents a current publication.
func (r PublicationRecord) Live() bool {
	return !r.Deleted
}

func newState() *State {
	return &State{Version: currentVersion, Posts: make(map[string]*Post)}
}

func (s *State) post(path string) *Post {
	p, ok := s.Posts[path]
	if !ok {
		p = &Post{}
		s.Posts[path] = p
	}
	return p
}
