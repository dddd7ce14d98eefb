// Package platform defines the publishing collaborator interface, the
// shared remote-error taxonomy, and the explicit plugin registry that
// maps platform names to factories.
package platform

import (
	"context"
	"time"
)

// Mode classifies how content reaches a platform.
type Mode string

const (
	// ModeAPI platforms are published to directly over their API.
	ModeAPI Mode = "api"

	// ModeManual platforms require a human step (paste, import). Bulk
	// operations exclude them unless explicitly requested.
	ModeManual Mode = "manual"
)

// Form classifies the content shape a platform accepts.
type Form string

const (
	FormLong  Form = "long"
	FormShort Form = "short"
)

// Capabilities describes what a platform supports. Callers check the
// relevant flag before invoking an optional operation instead of probing
// for unsupported-operation errors.
type Capabilities struct {
	Update  bool
	Delete  bool
	Stats   bool
	Threads bool

	Mode Mode
	Form Form

	// CharLimit is the maximum post length for short-form platforms.
	// Zero means unlimited.
	CharLimit int
}

// Post is the payload handed to a platform. Field mapping to platform
// API shapes happens inside each implementation.
type Post struct {
	Title        string
	Body         string
	Tags         []string
	CanonicalURL string
	Draft        bool
}

// Publication identifies content on the remote platform after a
// successful publish or update.
type Publication struct {
	ID  string
	URL string
}

// Stats carries per-publication metrics fetched from a platform.
type Stats struct {
	Views     int       `json:"views"`
	Likes     int       `json:"likes"`
	Comments  int       `json:"comments"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Platform is the publishing collaborator. All calls are routed through
// the relay layer; implementations return *Error for classified remote
// failures and plain errors for local ones.
type Platform interface {
	Name() string
	Capabilities() Capabilities

	Publish(ctx context.Context, post Post) (Publication, error)
	Update(ctx context.Context, remoteID string, post Post) (Publication, error)
	Delete(ctx context.Context, remoteID string) error
}

// StatsFetcher is implemented by platforms that expose metrics.
// Check Capabilities().Stats before asserting.
type StatsFetcher interface {
	GetStats(ctx context.Context, remoteID string) (Stats, error)
}

// ThreadPublisher is implemented by platforms that accept a series of
// linked posts. Check Capabilities().Threads before asserting.
type ThreadPublisher interface {
	PublishThread(ctx context.Context, posts []Post) ([]Publication, error)
}
