package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"inklessnews/internal/domain"
	"inklessnews/internal/ports"
)

// FeedStore reads user feed sources from Postgres.
type FeedStore struct {
	db *sql.DB
}

var _ ports.FeedStore = (*FeedStore)(nil)

func NewFeedStore(db *sql.DB) *FeedStore {
	return &FeedStore{db: db}
}

// ListFeeds returns the user's configured feed sources, newest first.
func (s *FeedStore) ListFeeds(ctx context.Context, ownerID int64) ([]domain.Feed, error) {
	query, args, err := psql.
		Select("id", "user_id", "url").
		From("rss_feeds").
		Where("user_id = ?", ownerID).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list feeds: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list feeds: %w", err)
	}
	defer rows.Close()

	var feeds []domain.Feed
	for rows.Next() {
		var f domain.Feed
		if err := rows.Scan(&f.ID, &f.OwnerID, &f.URL); err != nil {
			return nil, fmt.Errorf("scan feed: %w", err)
		}
		feeds = append(feeds, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return feeds, nil
}

// TopicStore reads user topics from Postgres.
type TopicStore struct {
	db *sql.DB
}

var _ ports.TopicStore = (*TopicStore)(nil)

func NewTopicStore(db *sql.DB) *TopicStore {
	return &TopicStore{db: db}
}

// ListTopics returns the user's topics of interest, newest first.
func (s *TopicStore) ListTopics(ctx context.Context, ownerID int64) ([]domain.Topic, error) {
	query, args, err := psql.
		Select("id", "user_id", "name").
		From("topics").
		Where("user_id = ?", ownerID).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list topics: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	var topics []domain.Topic
	for rows.Next() {
		var t domain.Topic
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		topics = append(topics, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return topics, nil
}

// SettingsStore reads and writes delivery settings.
type SettingsStore struct {
	db *sql.DB
}

var _ ports.SettingsStore = (*SettingsStore)(nil)

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Get returns the user's settings, creating the defaults on first
// access.
func (s *SettingsStore) Get(ctx context.Context, ownerID int64) (domain.Settings, error) {
	settings, err := s.find(ctx, ownerID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.Settings{}, err
	}

	return s.Upsert(ctx, domain.DefaultSettings(ownerID))
}

// Upsert validates and writes the settings, inserting or updating the
// user's single row.
func (s *SettingsStore) Upsert(ctx context.Context, settings domain.Settings) (domain.Settings, error) {
	if settings.DeliveryHour < domain.MinDeliveryHour || settings.DeliveryHour > domain.MaxDeliveryHour {
		return domain.Settings{}, fmt.Errorf("delivery hour %d out of range %d-%d",
			settings.DeliveryHour, domain.MinDeliveryHour, domain.MaxDeliveryHour)
	}
	if !settings.Format.Valid() {
		return domain.Settings{}, fmt.Errorf("unsupported format %q", settings.Format)
	}

	query, args, err := psql.
		Insert("kindle_settings").
		Columns("user_id", "email", "active", "delivery_hour", "format").
		Values(settings.OwnerID, settings.Email, settings.Active, settings.DeliveryHour, string(settings.Format)).
		Suffix(`ON CONFLICT (user_id) DO UPDATE
			SET email = EXCLUDED.email,
			    active = EXCLUDED.active,
			    delivery_hour = EXCLUDED.delivery_hour,
			    format = EXCLUDED.format,
			    updated_at = NOW()
			RETURNING updated_at`).
		ToSql()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("build upsert settings: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&settings.UpdatedAt); err != nil {
		return domain.Settings{}, fmt.Errorf("upsert settings: %w", err)
	}

	return settings, nil
}

func (s *SettingsStore) find(ctx context.Context, ownerID int64) (domain.Settings, error) {
	query, args, err := psql.
		Select("user_id", "email", "active", "delivery_hour", "format", "updated_at").
		From("kindle_settings").
		Where("user_id = ?", ownerID).
		ToSql()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("build get settings: %w", err)
	}

	var settings domain.Settings
	var format string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(
		&settings.OwnerID, &settings.Email, &settings.Active,
		&settings.DeliveryHour, &format, &settings.UpdatedAt,
	)
	if err != nil {
		return domain.Settings{}, err
	}
	settings.Format = domain.Format(format)

	return settings, nil
}

// UserDirectory looks up subscribers.
type UserDirectory struct {
	db *sql.DB
}

var _ ports.UserDirectory = (*UserDirectory)(nil)

func NewUserDirectory(db *sql.DB) *UserDirectory {
	return &UserDirectory{db: db}
}

// GetUser returns the user or nil when absent.
func (s *UserDirectory) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	query, args, err := psql.
		Select("id", "username", "email").
		From("users").
		Where("id = ?", id).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get user: %w", err)
	}

	var u domain.User
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&u.ID, &u.Username, &u.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &u, nil
}

// ListUsers returns all subscribers.
func (s *UserDirectory) ListUsers(ctx context.Context) ([]domain.User, error) {
	query, args, err := psql.
		Select("id", "username", "email").
		From("users").
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list users: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return users, nil
}
