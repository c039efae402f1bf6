package ports

import (
	"context"
	"time"

	"inklessnews/internal/domain"
)

// FeedStore reads a user's configured feed sources.
type FeedStore interface {
	ListFeeds(ctx context.Context, ownerID int64) ([]domain.Feed, error)
}

// TopicStore reads a user's stated topics of interest.
type TopicStore interface {
	ListTopics(ctx context.Context, ownerID int64) ([]domain.Topic, error)
}

// SettingsStore reads and writes delivery settings. Get creates
// default settings lazily on first access.
type SettingsStore interface {
	Get(ctx context.Context, ownerID int64) (domain.Settings, error)
	Upsert(ctx context.Context, settings domain.Settings) (domain.Settings, error)
}

// ArticleStore persists delivered articles and answers dedup lookups.
// Insert treats the (ownerID, url) uniqueness check and the write as a
// single logical operation.
type ArticleStore interface {
	FindByURL(ctx context.Context, url string, ownerID int64) (*domain.Article, error)
	Insert(ctx context.Context, article domain.Article) (domain.Article, error)
	ListRecent(ctx context.Context, ownerID int64, limit int) ([]domain.Article, error)
}

// DeliveryLog is the append-only audit log of attempted deliveries.
type DeliveryLog interface {
	Append(ctx context.Context, record domain.DeliveryRecord) (domain.DeliveryRecord, error)
	List(ctx context.Context, ownerID int64) ([]domain.DeliveryRecord, error)
}

// UserDirectory enumerates subscribers for scheduling and lookup.
type UserDirectory interface {
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// FeedFetcher retrieves and normalizes one feed.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) (domain.RawFeed, error)
}

// Curation is the curator's answer: which submitted candidates to
// keep, in selection order, with a category per selected index.
type Curation struct {
	Selected   []int
	Categories map[int]string
	Rationale  string
}

// Curator selects a bounded, topic-relevant subset of candidates.
type Curator interface {
	Curate(ctx context.Context, candidates []domain.Candidate, topics []string, maxArticles int) (Curation, error)
}

// Summarizer produces a bounded-length synopsis of full-content text.
type Summarizer interface {
	Summarize(ctx context.Context, title, content string, targetWords int) (string, error)
}

// RenderRequest carries everything a backend needs to build a document.
type RenderRequest struct {
	Username string
	Date     time.Time
	Format   domain.Format
	Articles []domain.Curated
}

// Renderer turns a curated, summarized article set into document bytes.
type Renderer interface {
	Render(ctx context.Context, req RenderRequest) ([]byte, error)
}

// Delivery carries a rendered document to the dispatcher.
type Delivery struct {
	To          string
	DisplayName string
	Document    []byte
	Format      domain.Format
	Date        time.Time
}

// Mailer sends the rendered document as an email attachment.
type Mailer interface {
	Send(ctx context.Context, delivery Delivery) error
}

// Scheduler drives recurring pipeline executions.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
