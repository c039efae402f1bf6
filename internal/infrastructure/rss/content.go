package rss

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"inklessnews/internal/domain"
)

const (
	// shortContentThreshold is the length below which declared full
	// content is still treated as a publisher excerpt.
	shortContentThreshold = 100

	// MaxPromptContent caps the text handed to the AI collaborator.
	MaxPromptContent = 2000
)

// IsTruncated reports whether the entry carries only a publisher
// excerpt: no full content while a snippet exists, or full content
// shorter than the short-content threshold.
func IsTruncated(entry domain.RawEntry) bool {
	if entry.Content == "" && entry.ContentSnippet != "" {
		return true
	}
	if entry.Content != "" && len(entry.Content) < shortContentThreshold {
		return true
	}
	return false
}

// CanonicalContent returns the entry text exactly as the publisher
// provided it: full content first, else the snippet, else empty. The
// precedence is fixed; nothing is rewritten at this stage.
func CanonicalContent(entry domain.RawEntry) string {
	if entry.Content != "" {
		return entry.Content
	}
	return entry.ContentSnippet
}

// CleanText strips HTML markup and collapses whitespace, truncating to
// max runes when max is positive. Persisted content is never altered;
// this is for prompt budgets and plain-text rendering only.
func CleanText(html string, max int) string {
	if html == "" {
		return ""
	}

	text := html
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		text = doc.Text()
	}

	text = strings.Join(strings.Fields(text), " ")

	runes := []rune(text)
	if max > 0 && len(runes) > max {
		return string(runes[:max]) + "..."
	}
	return text
}
