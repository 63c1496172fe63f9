package search

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/quorumai/quorum/internal/domain"
)

// markdownLink matches [title](url) citations in the backend's answer text.
var markdownLink = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^)\s]+)\)`)

// snippetRadius bounds how far around a citation the snippet extends when
// no sentence boundary is found; maxSnippetLen is the hard cap on the
// final snippet.
const (
	snippetRadius = 120
	maxSnippetLen = 150
)

// ExtractSources pulls citations out of the answer text, deduplicated by
// URL in order of first appearance and capped at maxSources.
func ExtractSources(content string, maxSources int) []domain.SearchSource {
	matches := markdownLink.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	sources := make([]domain.SearchSource, 0, len(matches))
	for _, m := range matches {
		title := content[m[2]:m[3]]
		rawURL := content[m[4]:m[5]]
		if _, dup := seen[rawURL]; dup {
			continue
		}
		seen[rawURL] = struct{}{}

		sources = append(sources, domain.SearchSource{
			Title:   strings.TrimSpace(title),
			URL:     rawURL,
			Domain:  hostOf(rawURL),
			Snippet: snippetAround(content, m[0], m[1]),
		})
		if len(sources) == maxSources {
			break
		}
	}
	return sources
}

// hostOf extracts the bare hostname, dropping a leading www.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// snippetAround returns the sentence containing the citation, falling back
// to a fixed-radius window when no sentence boundary is nearby.
func snippetAround(content string, start, end int) string {
	lo := start - snippetRadius
	if lo < 0 {
		lo = 0
	}
	hi := end + snippetRadius
	if hi > len(content) {
		hi = len(content)
	}

	// tighten to the sentence containing the citation where boundaries exist
	if i := strings.LastIndexAny(content[lo:start], ".!?\n"); i >= 0 {
		lo += i + 1
	}
	if i := strings.IndexAny(content[end:hi], ".!?\n"); i >= 0 {
		hi = end + i + 1
	}
	snippet := strings.TrimSpace(stripMarkdownLinks(content[lo:hi]))
	if len(snippet) > maxSnippetLen {
		cut := maxSnippetLen
		for cut > 0 && !utf8.RuneStart(snippet[cut]) {
			cut--
		}
		snippet = strings.TrimSpace(snippet[:cut])
	}
	return snippet
}

// stripMarkdownLinks replaces [title](url) with title so snippets read as
// prose.
func stripMarkdownLinks(s string) string {
	return markdownLink.ReplaceAllString(s, "$1")
}
