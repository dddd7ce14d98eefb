// Package thread splits long content into a series of linked posts for
// platforms that support threads.
//
// Split priority: manual "<!-- thread -->" markers, then paragraph
// boundaries, then sentence boundaries, then words as a last resort.
package thread

import (
	"fmt"
	"regexp"
	"strings"
)

// Marker is the manual split marker authors can place in content.
const Marker = "<!-- thread -->"

// prefixReserve leaves room for a thread indicator like "3/12\n\n".
const prefixReserve = 15

// Style selects the thread indicator format.
type Style string

const (
	StyleNumbered Style = "numbered"
	StyleSimple   Style = "simple"
	StyleEmoji    Style = "emoji"
)

// Config bounds thread generation.
type Config struct {
	MaxLength int   // max characters per post
	Style     Style // indicator style
	MaxPosts  int   // cap on thread length
}

// DefaultConfig matches common short-form limits.
func DefaultConfig() Config {
	return Config{MaxLength: 280, Style: StyleNumbered, MaxPosts: 25}
}

var sentenceEnd = regexp.MustCompile(`(?:[.!?])\s+`)

// Split breaks content into a formatted thread.
func Split(content string, cfg Config) []string {
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = 280
	}
	if cfg.MaxPosts <= 0 {
		cfg.MaxPosts = 25
	}
	if cfg.Style == "" {
		cfg.Style = StyleNumbered
	}
	// A limit that cannot hold a prefix plus a few characters of
	// content is unusable; hold a floor instead.
	if cfg.MaxLength < prefixReserve+5 {
		cfg.MaxLength = prefixReserve + 5
	}

	content = strings.TrimSpace(content)

	if strings.Contains(content, Marker) {
		var parts []string
		for _, p := range strings.Split(content, Marker) {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		return format(parts, cfg)
	}

	paragraphs := splitParagraphs(content)
	effective := cfg.MaxLength - prefixReserve

	var posts []string
	current := ""
	for _, para := range paragraphs {
		combined := para
		if current != "" {
			combined = current + "\n\n" + para
		}
		if len(combined) <= effective {
			current = combined
			continue
		}
		if current != "" {
			posts = append(posts, current)
		}
		if len(para) > effective {
			chunks := splitBySentences(para, effective)
			if len(chunks) > 0 {
				posts = append(posts, chunks[:len(chunks)-1]...)
				current = chunks[len(chunks)-1]
			} else {
				current = ""
			}
		} else {
			current = para
		}
	}
	if current != "" {
		posts = append(posts, current)
	}

	if len(posts) > cfg.MaxPosts {
		posts = posts[:cfg.MaxPosts]
	}
	return format(posts, cfg)
}

// Estimate returns how many posts a thread will need. Useful for
// dry-run previews.
func Estimate(content string, maxLength int) int {
	return len(Split(content, Config{MaxLength: maxLength, Style: StyleSimple, MaxPosts: 1 << 20}))
}

var paragraphSplit = regexp.MustCompile(`\n\s*\n`)

func splitParagraphs(content string) []string {
	var out []string
	for _, p := range paragraphSplit.Split(content, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func splitBySentences(text string, maxLength int) []string {
	ends := sentenceEnd.FindAllStringIndex(text, -1)
	var sentences []string
	start := 0
	for _, loc := range ends {
		sentences = append(sentences, strings.TrimSpace(text[start:loc[0]+1]))
		start = loc[1]
	}
	if rest := strings.TrimSpace(text[start:]); rest != "" {
		sentences = append(sentences, rest)
	}

	var chunks []string
	current := ""
	for _, sentence := range sentences {
		if sentence == "" {
			continue
		}
		combined := sentence
		if current != "" {
			combined = current + " " + sentence
		}
		if len(combined) <= maxLength {
			current = combined
			continue
		}
		if current != "" {
			chunks = append(chunks, current)
		}
		if len(sentence) > maxLength {
			words := splitByWords(sentence, maxLength)
			if len(words) > 0 {
				chunks = append(chunks, words[:len(words)-1]...)
				current = words[len(words)-1]
			} else {
				current = ""
			}
		} else {
			current = sentence
		}
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

func splitByWords(text string, maxLength int) []string {
	var chunks []string
	current := ""
	for _, word := range strings.Fields(text) {
		combined := word
		if current != "" {
			combined = current + " " + word
		}
		if len(combined) <= maxLength {
			current = combined
			continue
		}
		if current != "" {
			chunks = append(chunks, current)
		}
		if len(word) > maxLength {
			chunks = append(chunks, word[:maxLength-3]+"...")
			current = ""
		} else {
			current = word
		}
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

// format adds thread indicators. A single post gets no indicator.
func format(posts []string, cfg Config) []string {
	if len(posts) > cfg.MaxPosts {
		posts = posts[:cfg.MaxPosts]
	}
	total := len(posts)
	if total == 0 {
		return nil
	}
	if total == 1 {
		post := posts[0]
		if len(post) > cfg.MaxLength {
			post = post[:cfg.MaxLength-3] + "..."
		}
		return []string{post}
	}

	out := make([]string, 0, total)
	for i, post := range posts {
		var prefix string
		switch cfg.Style {
		case StyleNumbered:
			prefix = numberPrefix(i+1, total)
		case StyleEmoji:
			prefix = "\U0001f9f5 " + numberPrefix(i+1, total)
		}
		maxContent := cfg.MaxLength - len(prefix)
		if maxContent < 3 {
			maxContent = 3
		}
		if len(post) > maxContent {
			post = post[:maxContent-3] + "..."
		}
		out = append(out, prefix+post)
	}
	return out
}

func numberPrefix(i, total int) string {
	return fmt.Sprintf("%d/%d\n\n", i, total)
}
