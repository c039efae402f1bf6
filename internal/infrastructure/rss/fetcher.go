package rss

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/mmcdole/gofeed"

	"inklessnews/internal/domain"
	"inklessnews/internal/ports"
)

// genericSourceLabel is the last-resort source name when a feed
// declares no title and its URL has no usable host.
const genericSourceLabel = "RSS Feed"

// Fetcher retrieves one feed over HTTP and normalizes its entries.
type Fetcher struct {
	parser *gofeed.Parser
	logger *slog.Logger
}

var _ ports.FeedFetcher = (*Fetcher)(nil)

// NewFetcher builds a fetcher with a bounded HTTP timeout.
func NewFetcher(timeout time.Duration, logger *slog.Logger) *Fetcher {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}

	return &Fetcher{parser: parser, logger: logger}
}

// Fetch downloads and parses the feed at url. Entries without a link
// are discarded because they can be neither deduplicated nor cited.
// Any network, parse, or empty-feed condition comes back as a
// *domain.FetchError so the caller can skip this feed and continue.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) (domain.RawFeed, error) {
	parsed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return domain.RawFeed{}, &domain.FetchError{URL: feedURL, Err: err}
	}
	if parsed == nil || len(parsed.Items) == 0 {
		return domain.RawFeed{}, &domain.FetchError{URL: feedURL, Err: fmt.Errorf("feed has no items")}
	}

	raw := domain.RawFeed{
		Title:     parsed.Title,
		Copyright: parsed.Copyright,
		Entries:   make([]domain.RawEntry, 0, len(parsed.Items)),
	}

	for _, item := range parsed.Items {
		if item.Link == "" {
			f.debug("skip item without link", "feed", feedURL, "title", item.Title)
			continue
		}
		raw.Entries = append(raw.Entries, normalizeItem(item))
	}

	f.debug("feed fetched", "feed", feedURL, "entries", len(raw.Entries))
	return raw, nil
}

func normalizeItem(item *gofeed.Item) domain.RawEntry {
	entry := domain.RawEntry{
		Title:          item.Title,
		Link:           item.Link,
		Content:        item.Content,
		ContentSnippet: item.Description,
	}
	if entry.Title == "" {
		entry.Title = "Untitled"
	}
	if item.PublishedParsed != nil {
		entry.PublishedAt = *item.PublishedParsed
	}
	if item.Author != nil {
		entry.Creator = item.Author.Name
	}
	return entry
}

// SourceLabel names where an article came from: the feed's declared
// title, then the feed URL's host, then a generic label.
func SourceLabel(feedTitle, feedURL string) string {
	if feedTitle != "" {
		return feedTitle
	}
	if u, err := url.Parse(feedURL); err == nil && u.Host != "" {
		return u.Host
	}
	return genericSourceLabel
}

func (f *Fetcher) debug(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}
