package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"inklessnews/internal/ports"
)

// Scheduler turns periodic ticks into per-user delivery runs. One scan
// per tick enumerates subscribers whose configured delivery hour
// matches the tick hour and hands them to a bounded worker pool, so no
// per-user timers accumulate and one user's failure never touches
// another's run.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	users    ports.UserDirectory
	settings ports.SettingsStore
	workers  int
	logger   *slog.Logger
}

// NewScheduler wires the cron driver with the pipeline.
func NewScheduler(
	driver ports.Scheduler,
	pipeline *Pipeline,
	users ports.UserDirectory,
	settings ports.SettingsStore,
	workers int,
	logger *slog.Logger,
) *Scheduler {
	if workers <= 0 {
		workers = 4
	}
	return &Scheduler{
		driver:   driver,
		pipeline: pipeline,
		users:    users,
		settings: settings,
		workers:  workers,
		logger:   logger,
	}
}

// Start registers the scan job with the driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	return s.driver.Start(ctx, func(tick time.Time) {
		s.Scan(ctx, tick)
	})
}

// Stop gracefully tears down the underlying driver.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Stop(ctx)
}

// Scan dispatches a delivery run for every subscriber eligible at the
// tick's hour.
func (s *Scheduler) Scan(ctx context.Context, tick time.Time) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		s.log().Error("scheduler cannot list users", "error", err)
		return
	}

	var eligible []int64
	for _, user := range users {
		settings, err := s.settings.Get(ctx, user.ID)
		if err != nil {
			s.log().Error("scheduler cannot load settings", "user", user.ID, "error", err)
			continue
		}
		if settings.Active && settings.Email != "" && settings.DeliveryHour == tick.Hour() {
			eligible = append(eligible, user.ID)
		}
	}

	if len(eligible) == 0 {
		return
	}
	s.log().Info("scheduled deliveries starting", "hour", tick.Hour(), "users", len(eligible))

	jobs := make(chan int64)
	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for userID := range jobs {
				// Each run catches its own failure into its own
				// delivery record; the scheduler only logs it.
				if _, err := s.pipeline.Deliver(ctx, userID, RunOptions{}); err != nil {
					s.log().Error("scheduled delivery failed", "user", userID, "error", err)
				}
			}
		}()
	}

	for _, userID := range eligible {
		jobs <- userID
	}
	close(jobs)
	wg.Wait()
}

func (s *Scheduler) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
