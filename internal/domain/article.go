package domain

import "time"

// RawEntry is one normalized feed item straight out of the fetcher.
// Ephemeral; never persisted directly.
type RawEntry struct {
	Title          string
	Link           string
	PublishedAt    time.Time
	Creator        string
	Content        string
	ContentSnippet string
}

// RawFeed is a fetched feed with its entries already normalized.
type RawFeed struct {
	Title     string
	Copyright string
	Entries   []RawEntry
}

// Candidate is an entry that survived classification and is eligible
// for curation. Content holds the canonical text: publisher content if
// present, else the snippet.
type Candidate struct {
	Title       string
	URL         string
	Source      string
	Author      string
	Copyright   string
	Content     string
	IsTruncated bool
}

// Curated is a candidate the curator selected, annotated with a
// category and, after summarization, a summary.
type Curated struct {
	Candidate
	Category string
	Summary  string
}

// Article is the persisted record of a delivered article. The
// (OwnerID, URL) pair is the dedup key and is never duplicated.
type Article struct {
	ID          int64
	OwnerID     int64
	Title       string
	Summary     string
	Source      string
	URL         string
	Category    string
	IsTruncated bool
	Author      string
	Copyright   string
	CreatedAt   time.Time
}
