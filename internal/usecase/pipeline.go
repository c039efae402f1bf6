package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"inklessnews/internal/domain"
	"inklessnews/internal/infrastructure/rss"
	"inklessnews/internal/ports"
)

// PipelineDeps wires all driven adapters into the delivery pipeline.
type PipelineDeps struct {
	Feeds      ports.FeedStore
	Topics     ports.TopicStore
	Settings   ports.SettingsStore
	Articles   ports.ArticleStore
	Deliveries ports.DeliveryLog
	Users      ports.UserDirectory
	Fetcher    ports.FeedFetcher
	Curator    ports.Curator
	Summarizer ports.Summarizer
	Renderer   ports.Renderer
	Mailer     ports.Mailer
	Logger     *slog.Logger

	MaxArticles      int
	SummaryWords     int
	TestFeedLimit    int
	TestArticleLimit int
}

// Pipeline assembles and delivers one user's newspaper end to end.
type Pipeline struct {
	feeds      ports.FeedStore
	topics     ports.TopicStore
	settings   ports.SettingsStore
	articles   ports.ArticleStore
	deliveries ports.DeliveryLog
	users      ports.UserDirectory
	fetcher    ports.FeedFetcher
	curator    ports.Curator
	summarizer ports.Summarizer
	renderer   ports.Renderer
	mailer     ports.Mailer
	logger     *slog.Logger

	maxArticles      int
	summaryWords     int
	testFeedLimit    int
	testArticleLimit int

	now func() time.Time
}

// RunOptions tunes a single run. Test runs use fewer feeds and a
// smaller article cap so a subscriber can preview a delivery cheaply.
type RunOptions struct {
	Test bool
}

// RunResult reports one completed (or failed-but-recorded) run.
type RunResult struct {
	Record    domain.DeliveryRecord
	Rationale string
	// FeedErrors aggregates per-feed fetch failures. Diagnostic only:
	// a run with at least one healthy feed proceeds.
	FeedErrors error
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	p := &Pipeline{
		feeds:            deps.Feeds,
		topics:           deps.Topics,
		settings:         deps.Settings,
		articles:         deps.Articles,
		deliveries:       deps.Deliveries,
		users:            deps.Users,
		fetcher:          deps.Fetcher,
		curator:          deps.Curator,
		summarizer:       deps.Summarizer,
		renderer:         deps.Renderer,
		mailer:           deps.Mailer,
		logger:           deps.Logger,
		maxArticles:      deps.MaxArticles,
		summaryWords:     deps.SummaryWords,
		testFeedLimit:    deps.TestFeedLimit,
		testArticleLimit: deps.TestArticleLimit,
		now:              time.Now,
	}
	if p.maxArticles <= 0 {
		p.maxArticles = 10
	}
	if p.summaryWords <= 0 {
		p.summaryWords = 150
	}
	if p.testFeedLimit <= 0 {
		p.testFeedLimit = 3
	}
	if p.testArticleLimit <= 0 {
		p.testArticleLimit = 3
	}
	return p
}

// Deliver runs the full pipeline for one user: fetch, classify, dedup,
// curate, summarize, persist, render, dispatch, record.
//
// A *domain.ConfigurationError means the run never started and no
// delivery record is written. Every other outcome, success or failure,
// appends exactly one record for the attempt.
func (p *Pipeline) Deliver(ctx context.Context, userID int64, opts RunOptions) (RunResult, error) {
	logger := p.log().With("run", uuid.NewString(), "user", userID)

	user, err := p.users.GetUser(ctx, userID)
	if err != nil {
		return RunResult{}, fmt.Errorf("load user %d: %w", userID, err)
	}
	if user == nil {
		return RunResult{}, &domain.ConfigurationError{Reason: fmt.Sprintf("user %d not found", userID)}
	}

	settings, err := p.settings.Get(ctx, userID)
	if err != nil {
		return RunResult{}, fmt.Errorf("load settings: %w", err)
	}
	if !settings.Active {
		return RunResult{}, &domain.ConfigurationError{Reason: "delivery is not active"}
	}
	if settings.Email == "" {
		return RunResult{}, &domain.ConfigurationError{Reason: "no delivery email configured"}
	}

	feeds, err := p.feeds.ListFeeds(ctx, userID)
	if err != nil {
		return RunResult{}, fmt.Errorf("load feeds: %w", err)
	}
	if len(feeds) == 0 {
		return RunResult{}, &domain.ConfigurationError{Reason: "no RSS feeds configured"}
	}

	maxArticles := p.maxArticles
	if opts.Test {
		if len(feeds) > p.testFeedLimit {
			feeds = feeds[:p.testFeedLimit]
		}
		maxArticles = p.testArticleLimit
	}

	// From here on the attempt exists: whatever happens, one delivery
	// record is written.
	result, runErr := p.run(ctx, logger, *user, settings, feeds, maxArticles)

	record := domain.DeliveryRecord{
		OwnerID:       userID,
		Date:          p.now(),
		Status:        domain.StatusSent,
		ArticlesCount: result.Record.ArticlesCount,
		Format:        settings.Format,
	}
	if runErr != nil {
		record.Status = domain.StatusFailed
		record.ArticlesCount = 0
	}

	appended, logErr := p.deliveries.Append(ctx, record)
	if logErr != nil {
		logger.Error("cannot append delivery record", "error", logErr)
		if runErr == nil {
			runErr = fmt.Errorf("append delivery record: %w", logErr)
		}
	} else {
		result.Record = appended
	}

	if runErr != nil {
		logger.Error("delivery failed", "error", runErr)
		return result, runErr
	}

	logger.Info("delivery complete", "articles", record.ArticlesCount, "format", record.Format)
	return result, nil
}

func (p *Pipeline) run(
	ctx context.Context,
	logger *slog.Logger,
	user domain.User,
	settings domain.Settings,
	feeds []domain.Feed,
	maxArticles int,
) (RunResult, error) {
	var result RunResult

	candidates, feedErrs, err := p.collectCandidates(ctx, logger, user.ID, feeds)
	result.FeedErrors = feedErrs.ErrorOrNil()
	if err != nil {
		return result, err
	}
	if len(candidates) == 0 {
		return result, fmt.Errorf("no new articles found across %d feeds", len(feeds))
	}

	topics, err := p.topics.ListTopics(ctx, user.ID)
	if err != nil {
		return result, fmt.Errorf("load topics: %w", err)
	}
	topicNames := make([]string, 0, len(topics))
	for _, t := range topics {
		topicNames = append(topicNames, t.Name)
	}

	curation, err := p.curator.Curate(ctx, candidates, topicNames, maxArticles)
	if err != nil {
		return result, fmt.Errorf("curate: %w", err)
	}
	if len(curation.Selected) == 0 {
		return result, fmt.Errorf("curator selected no articles")
	}
	result.Rationale = curation.Rationale
	logger.Debug("curation done", "selected", len(curation.Selected), "rationale", curation.Rationale)

	curated := make([]domain.Curated, 0, len(curation.Selected))
	for _, idx := range curation.Selected {
		candidate := candidates[idx]

		article := domain.Curated{
			Candidate: candidate,
			Category:  curation.Categories[idx],
		}

		// Truncated content is a publisher excerpt and passes through
		// unchanged; summarizing it would breach excerpt-only terms.
		if candidate.IsTruncated {
			article.Summary = candidate.Content
		} else {
			summary, err := p.summarizer.Summarize(ctx, candidate.Title, candidate.Content, p.summaryWords)
			if err != nil {
				return result, fmt.Errorf("summarize %q: %w", candidate.Title, err)
			}
			article.Summary = summary
		}

		if _, err := p.articles.Insert(ctx, domain.Article{
			OwnerID:     user.ID,
			Title:       article.Title,
			Summary:     article.Summary,
			Source:      article.Source,
			URL:         article.URL,
			Category:    article.Category,
			IsTruncated: article.IsTruncated,
			Author:      article.Author,
			Copyright:   article.Copyright,
		}); err != nil {
			return result, fmt.Errorf("persist article %q: %w", article.Title, err)
		}

		curated = append(curated, article)
	}

	document, err := p.renderer.Render(ctx, ports.RenderRequest{
		Username: user.Username,
		Date:     p.now(),
		Format:   settings.Format,
		Articles: curated,
	})
	if err != nil {
		return result, err
	}

	if err := p.mailer.Send(ctx, ports.Delivery{
		To:          settings.Email,
		DisplayName: user.Username,
		Document:    document,
		Format:      settings.Format,
		Date:        p.now(),
	}); err != nil {
		return result, err
	}

	result.Record.ArticlesCount = len(curated)
	return result, nil
}

// collectCandidates fetches all feeds concurrently (the feeds are
// independent I/O), then streams entries through classification and
// per-entry dedup. A feed's failure is absorbed into the diagnostic
// multierror; only store failures abort the run.
func (p *Pipeline) collectCandidates(
	ctx context.Context,
	logger *slog.Logger,
	ownerID int64,
	feeds []domain.Feed,
) ([]domain.Candidate, *multierror.Error, error) {
	type fetchResult struct {
		feed domain.Feed
		raw  domain.RawFeed
		err  error
	}

	results := make([]fetchResult, len(feeds))
	var wg sync.WaitGroup
	for i, f := range feeds {
		wg.Add(1)
		go func(i int, f domain.Feed) {
			defer wg.Done()
			raw, err := p.fetcher.Fetch(ctx, f.URL)
			results[i] = fetchResult{feed: f, raw: raw, err: err}
		}(i, f)
	}
	wg.Wait()

	var feedErrs *multierror.Error
	var candidates []domain.Candidate

	for _, res := range results {
		if res.err != nil {
			logger.Warn("feed failed, continuing", "feed", res.feed.URL, "error", res.err)
			feedErrs = multierror.Append(feedErrs, res.err)
			continue
		}

		source := rss.SourceLabel(res.raw.Title, res.feed.URL)
		for _, entry := range res.raw.Entries {
			content := rss.CanonicalContent(entry)
			if content == "" {
				logger.Debug("skip entry without content", "title", entry.Title)
				continue
			}

			existing, err := p.articles.FindByURL(ctx, entry.Link, ownerID)
			if err != nil {
				return nil, feedErrs, fmt.Errorf("dedup lookup %s: %w", entry.Link, err)
			}
			if existing != nil {
				logger.Debug("skip already delivered", "url", entry.Link)
				continue
			}

			candidates = append(candidates, domain.Candidate{
				Title:       entry.Title,
				URL:         entry.Link,
				Source:      source,
				Author:      entry.Creator,
				Copyright:   res.raw.Copyright,
				Content:     content,
				IsTruncated: rss.IsTruncated(entry),
			})
		}
	}

	return candidates, feedErrs, nil
}

func (p *Pipeline) log() *slog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return slog.Default()
}
