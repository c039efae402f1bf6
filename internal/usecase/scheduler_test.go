package usecase

import (
	"context"
	"testing"
	"time"

	"inklessnews/internal/domain"
)

type fakeSettingsByUser struct {
	byUser map[int64]domain.Settings
}

func (f *fakeSettingsByUser) Get(ctx context.Context, ownerID int64) (domain.Settings, error) {
	if s, ok := f.byUser[ownerID]; ok {
		return s, nil
	}
	return domain.DefaultSettings(ownerID), nil
}

func (f *fakeSettingsByUser) Upsert(ctx context.Context, s domain.Settings) (domain.Settings, error) {
	f.byUser[s.OwnerID] = s
	return s, nil
}

type fakeFeedsByUser struct {
	byUser map[int64][]domain.Feed
}

func (f *fakeFeedsByUser) ListFeeds(ctx context.Context, ownerID int64) ([]domain.Feed, error) {
	return f.byUser[ownerID], nil
}

func activeAt(ownerID int64, hour int) domain.Settings {
	return domain.Settings{
		OwnerID:      ownerID,
		Email:        "reader@kindle.com",
		Active:       true,
		DeliveryHour: hour,
		Format:       domain.FormatPDF,
	}
}

func schedulerEnv(settings map[int64]domain.Settings, feeds map[int64][]domain.Feed) (*Scheduler, *fakeDeliveryLog) {
	users := map[int64]domain.User{}
	for id := range settings {
		users[id] = domain.User{ID: id, Username: "reader"}
	}
	directory := &fakeUserDirectory{users: users}
	settingsStore := &fakeSettingsByUser{byUser: settings}
	deliveries := &fakeDeliveryLog{}

	pipeline := NewPipeline(PipelineDeps{
		Feeds:      &fakeFeedsByUser{byUser: feeds},
		Topics:     &fakeTopicStore{},
		Settings:   settingsStore,
		Articles:   newFakeArticleStore(),
		Deliveries: deliveries,
		Users:      directory,
		Fetcher: &fakeFetcher{feeds: map[string]domain.RawFeed{
			"https://shared.example.com/rss": {
				Title:   "Shared Feed",
				Entries: []domain.RawEntry{fullEntry(1), fullEntry(2)},
			},
		}},
		Curator:    &fakeCurator{},
		Summarizer: &fakeSummarizer{},
		Renderer:   &fakeRenderer{},
		Mailer:     &fakeMailer{},
	})

	return NewScheduler(nil, pipeline, directory, settingsStore, 2, nil), deliveries
}

func sharedFeed(ownerID int64) []domain.Feed {
	return []domain.Feed{{ID: ownerID, OwnerID: ownerID, URL: "https://shared.example.com/rss"}}
}

func TestScanMatchesDeliveryHour(t *testing.T) {
	t.Parallel()

	settings := map[int64]domain.Settings{
		1: activeAt(1, 8),
		2: activeAt(2, 9),
		3: activeAt(3, 8),
	}
	inactive := activeAt(4, 8)
	inactive.Active = false
	settings[4] = inactive
	noEmail := activeAt(5, 8)
	noEmail.Email = ""
	settings[5] = noEmail

	sched, deliveries := schedulerEnv(settings, map[int64][]domain.Feed{
		1: sharedFeed(1), 2: sharedFeed(2), 3: sharedFeed(3), 4: sharedFeed(4), 5: sharedFeed(5),
	})

	tick := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)
	sched.Scan(context.Background(), tick)

	delivered := map[int64]bool{}
	for _, r := range deliveries.all() {
		if r.Status != domain.StatusSent {
			t.Fatalf("expected Sent record for user %d, got %s", r.OwnerID, r.Status)
		}
		delivered[r.OwnerID] = true
	}
	if !delivered[1] || !delivered[3] {
		t.Fatalf("users at hour 8 must be delivered, got %v", delivered)
	}
	if delivered[2] {
		t.Fatal("user at hour 9 must not run on an 8 o'clock tick")
	}
	if delivered[4] || delivered[5] {
		t.Fatal("inactive or email-less users must be skipped")
	}
}

func TestScanIsolatesUserFailures(t *testing.T) {
	t.Parallel()

	settings := map[int64]domain.Settings{
		1: activeAt(1, 8),
		2: activeAt(2, 8),
	}
	// User 1 has no feeds: their run refuses to start. User 2 must
	// still get their newspaper.
	sched, deliveries := schedulerEnv(settings, map[int64][]domain.Feed{
		2: sharedFeed(2),
	})

	tick := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)
	sched.Scan(context.Background(), tick)

	records := deliveries.all()
	if len(records) != 1 {
		t.Fatalf("expected one record, got %d", len(records))
	}
	if records[0].OwnerID != 2 || records[0].Status != domain.StatusSent {
		t.Fatalf("user 2 must be delivered despite user 1 failing, got %+v", records[0])
	}
}

func TestScanNoEligibleUsers(t *testing.T) {
	t.Parallel()

	sched, deliveries := schedulerEnv(map[int64]domain.Settings{
		1: activeAt(1, 11),
	}, map[int64][]domain.Feed{1: sharedFeed(1)})

	tick := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)
	sched.Scan(context.Background(), tick)

	if got := len(deliveries.all()); got != 0 {
		t.Fatalf("no deliveries expected, got %d", got)
	}
}
