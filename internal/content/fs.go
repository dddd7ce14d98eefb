package content

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FSSource discovers markdown files under one or more roots and extracts
// metadata from YAML front matter. Files without front matter or without
// a title are skipped; they are not publishable.
type FSSource struct {
	Roots           []string
	ExcludePatterns []string
	Extensions      []string
}

// NewFSSource builds a filesystem source. Defaults: extension ".md",
// exclude "_index.md" (section stubs in static-site layouts).
func NewFSSource(roots []string, exclude []string) *FSSource {
	if len(exclude) == 0 {
		exclude = []string{"_index.md"}
	}
	return &FSSource{
		Roots:           roots,
		ExcludePatterns: exclude,
		Extensions:      []string{".md"},
	}
}

// frontMatter is the subset of front matter herald cares about.
type frontMatter struct {
	Title        string    `yaml:"title"`
	Date         time.Time `yaml:"date"`
	Tags         []string  `yaml:"tags"`
	CanonicalURL string    `yaml:"canonical_url"`
	Archived     bool      `yaml:"archived"`
	Draft        bool      `yaml:"draft"`
}

// Discover walks each root in order and returns items sorted by path
// within a root. Roots are scanned in the order configured.
func (s *FSSource) Discover() ([]Item, error) {
	var items []Item
	for _, root := range s.Roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("content root %s: %w", root, err)
		}
		if !info.IsDir() {
			it, ok, err := s.load(filepath.Dir(root), root)
			if err != nil {
				return nil, err
			}
			if ok {
				items = append(items, it)
			}
			continue
		}

		var paths []string
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if !s.wantExtension(path) || s.excluded(filepath.Base(path)) {
				return nil
			}
			paths = append(paths, path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", root, err)
		}
		sort.Strings(paths)

		for _, path := range paths {
			it, ok, err := s.load(root, path)
			if err != nil {
				return nil, err
			}
			if ok {
				items = append(items, it)
			}
		}
	}
	return items, nil
}

func (s *FSSource) wantExtension(path string) bool {
	ext := filepath.Ext(path)
	for _, want := range s.Extensions {
		if ext == want {
			return true
		}
	}
	return false
}

func (s *FSSource) excluded(name string) bool {
	for _, pattern := range s.ExcludePatterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// load reads one file and builds an Item. ok=false means the file has no
// usable front matter and should be skipped silently.
func (s *FSSource) load(root, path string) (Item, bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Item{}, false, fmt.Errorf("read %s: %w", path, err)
	}

	fm, body, ok := splitFrontMatter(raw)
	if !ok || fm.Title == "" {
		return Item{}, false, nil
	}
	if fm.Draft {
		return Item{}, false, nil
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}

	tags := make([]string, 0, len(fm.Tags))
	for _, t := range fm.Tags {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}

	modified := fm.Date
	if modified.IsZero() {
		if info, err := os.Stat(path); err == nil {
			modified = info.ModTime()
		}
	}

	return Item{
		Path:         filepath.ToSlash(rel),
		Title:        fm.Title,
		CanonicalURL: fm.CanonicalURL,
		Tags:         tags,
		Checksum:     Checksum(raw),
		Modified:     modified,
		Archived:     fm.Archived,
		Body:         body,
	}, true, nil
}

// splitFrontMatter separates a leading "---" YAML block from the body.
// Returns ok=false when the document has no front matter block.
func splitFrontMatter(raw []byte) (frontMatter, string, bool) {
	var fm frontMatter
	if !bytes.HasPrefix(raw, []byte("---")) {
		return fm, "", false
	}
	rest := raw[3:]
	end := bytes.Index(rest, []byte("\n---"))
	if end < 0 {
		return fm, "", false
	}
	if err := yaml.Unmarshal(rest[:end], &fm); err != nil {
		return fm, "", false
	}
	body := string(rest[end+4:])
	body = strings.TrimPrefix(body, "\n")
	return fm, strings.TrimSpace(body), true
}
