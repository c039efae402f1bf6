package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"inklessnews/internal/config"
	"inklessnews/internal/infrastructure/httpapi"
	"inklessnews/internal/infrastructure/llm"
	"inklessnews/internal/infrastructure/mail"
	"inklessnews/internal/infrastructure/render"
	"inklessnews/internal/infrastructure/rss"
	"inklessnews/internal/infrastructure/scheduler"
	"inklessnews/internal/infrastructure/storage"
	"inklessnews/internal/logging"
	"inklessnews/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	scheduler *usecase.Scheduler
	server    *httpapi.Server
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := storage.Open(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := storage.Migrate(db); err != nil {
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	feedStore := storage.NewFeedStore(db)
	topicStore := storage.NewTopicStore(db)
	settingsStore := storage.NewSettingsStore(db)
	articleStore := storage.NewArticleStore(db)
	deliveryLog := storage.NewDeliveryLog(db)
	users := storage.NewUserDirectory(db)

	fetcher := rss.NewFetcher(
		time.Duration(cfg.Pipeline.FeedTimeoutSeconds)*time.Second,
		baseLogger.With("component", "fetcher"),
	)
	aiClient := llm.NewClient(cfg.OpenAI)
	renderer := render.NewEngine(baseLogger.With("component", "render"))
	dispatcher := mail.NewDispatcher(cfg.SMTP, baseLogger.With("component", "mail"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Feeds:            feedStore,
		Topics:           topicStore,
		Settings:         settingsStore,
		Articles:         articleStore,
		Deliveries:       deliveryLog,
		Users:            users,
		Fetcher:          fetcher,
		Curator:          aiClient,
		Summarizer:       aiClient,
		Renderer:         renderer,
		Mailer:           dispatcher,
		Logger:           baseLogger.With("component", "pipeline"),
		MaxArticles:      cfg.OpenAI.MaxArticles,
		SummaryWords:     cfg.OpenAI.SummaryWords,
		TestFeedLimit:    cfg.Pipeline.TestFeedLimit,
		TestArticleLimit: cfg.Pipeline.TestArticleLimit,
	})

	driver := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location())
	sched := usecase.NewScheduler(
		driver, pipeline, users, settingsStore,
		cfg.Scheduler.Workers,
		baseLogger.With("component", "scheduler"),
	)

	server := httpapi.NewServer(
		cfg.HTTP.Addr, pipeline, deliveryLog, settingsStore,
		cfg.Scheduler.Location(),
		baseLogger.With("component", "httpapi"),
	)

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		scheduler: sched,
		server:    server,
	}, nil
}

// Run starts the scheduler and HTTP surface, blocking until ctx is
// cancelled or the listener fails.
func (a *Application) Run(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http api listening", "addr", a.cfg.HTTP.Addr)
		errCh <- a.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("http shutdown", "error", err)
	}
	if err := a.scheduler.Stop(shutdownCtx); err != nil {
		a.logger.Warn("scheduler shutdown", "error", err)
	}

	return nil
}
