// Package content defines the content item model and discovery sources.
//
// A content item is identified by its stable path relative to the scan
// root. The engine never interprets item bodies beyond checksumming;
// metadata comes from discovery.
package content

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Item is a single source content unit.
type Item struct {
	// Path is the stable relative path identifying the item.
	Path string

	Title        string
	CanonicalURL string
	Tags         []string

	// Checksum covers raw content plus metadata, prefixed "sha256:".
	Checksum string

	Modified time.Time
	Archived bool

	// Body is the raw content used for payload building. Discovery may
	// leave it empty and let callers load lazily.
	Body string
}

// Source supplies an ordered list of items. Order is preserved through
// filtering so bulk runs are deterministic.
type Source interface {
	Discover() ([]Item, error)
}

// Checksum returns the canonical hash of raw content: "sha256:" plus the
// first 16 hex digits of the SHA-256 digest.
func Checksum(raw []byte) string {
	sum := sha256.Sum256(raw)
	return "sha256:" + hex.EncodeToString(sum[:])[:16]
}

// HasTag reports whether the item carries the tag, comparing exactly.
// Case-insensitive matching is the filter pipeline's concern.
func (it Item) HasTag(tag string) bool {
	for _, t := range it.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (it Item) String() string {
	return fmt.Sprintf("%s (%s)", it.Path, it.Checksum)
}
