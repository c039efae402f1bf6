package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"inklessnews/internal/domain"
	"inklessnews/internal/ports"
)

// ArticleStore persists delivered articles. The (user_id, url) unique
// constraint makes the dedup check and the insert one logical
// operation: a concurrent or retried insert of the same pair degrades
// to reading the existing row.
type ArticleStore struct {
	db *sql.DB
}

var _ ports.ArticleStore = (*ArticleStore)(nil)

func NewArticleStore(db *sql.DB) *ArticleStore {
	return &ArticleStore{db: db}
}

const articleColumns = "id, user_id, title, summary, source, url, category, is_truncated, author, copyright, created_at"

// FindByURL returns the delivered article for the (url, owner) pair,
// or nil when the pair has never been delivered.
func (s *ArticleStore) FindByURL(ctx context.Context, url string, ownerID int64) (*domain.Article, error) {
	query, args, err := psql.
		Select(articleColumns).
		From("articles").
		Where("url = ? AND user_id = ?", url, ownerID).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find article: %w", err)
	}

	article, err := s.scanOne(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find article by url: %w", err)
	}

	return &article, nil
}

// Insert writes the delivered article. On a (user_id, url) conflict it
// returns the already-stored row instead of erroring, so the invariant
// "never duplicated for the same owner" holds under retries.
func (s *ArticleStore) Insert(ctx context.Context, article domain.Article) (domain.Article, error) {
	query, args, err := psql.
		Insert("articles").
		Columns("user_id", "title", "summary", "source", "url", "category", "is_truncated", "author", "copyright").
		Values(article.OwnerID, article.Title, article.Summary, article.Source, article.URL,
			article.Category, article.IsTruncated, article.Author, article.Copyright).
		Suffix("ON CONFLICT (user_id, url) DO NOTHING RETURNING id, created_at").
		ToSql()
	if err != nil {
		return domain.Article{}, fmt.Errorf("build insert article: %w", err)
	}

	err = s.db.QueryRowContext(ctx, query, args...).Scan(&article.ID, &article.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		existing, findErr := s.FindByURL(ctx, article.URL, article.OwnerID)
		if findErr != nil {
			return domain.Article{}, findErr
		}
		if existing == nil {
			return domain.Article{}, fmt.Errorf("insert article: conflict row vanished for %s", article.URL)
		}
		return *existing, nil
	}
	if err != nil {
		return domain.Article{}, fmt.Errorf("insert article: %w", err)
	}

	return article, nil
}

// ListRecent returns the owner's most recently delivered articles.
func (s *ArticleStore) ListRecent(ctx context.Context, ownerID int64, limit int) ([]domain.Article, error) {
	if limit <= 0 {
		limit = 20
	}

	query, args, err := psql.
		Select(articleColumns).
		From("articles").
		Where("user_id = ?", ownerID).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list articles: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		article, err := s.scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return articles, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *ArticleStore) scanOne(row rowScanner) (domain.Article, error) {
	var a domain.Article
	err := row.Scan(&a.ID, &a.OwnerID, &a.Title, &a.Summary, &a.Source, &a.URL,
		&a.Category, &a.IsTruncated, &a.Author, &a.Copyright, &a.CreatedAt)
	return a, err
}
