package storage

import (
	"context"
	"database/sql"
	"fmt"

	"inklessnews/internal/domain"
	"inklessnews/internal/ports"
)

// DeliveryLog is the append-only audit log of attempted deliveries.
type DeliveryLog struct {
	db *sql.DB
}

var _ ports.DeliveryLog = (*DeliveryLog)(nil)

func NewDeliveryLog(db *sql.DB) *DeliveryLog {
	return &DeliveryLog{db: db}
}

// Append records one attempted delivery, success or failure.
func (l *DeliveryLog) Append(ctx context.Context, record domain.DeliveryRecord) (domain.DeliveryRecord, error) {
	query, args, err := psql.
		Insert("delivery_history").
		Columns("user_id", "date", "status", "articles_count", "format").
		Values(record.OwnerID, record.Date, string(record.Status), record.ArticlesCount, string(record.Format)).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return domain.DeliveryRecord{}, fmt.Errorf("build append record: %w", err)
	}

	if err := l.db.QueryRowContext(ctx, query, args...).Scan(&record.ID); err != nil {
		return domain.DeliveryRecord{}, fmt.Errorf("append delivery record: %w", err)
	}

	return record, nil
}

// List returns the owner's delivery history, newest first.
func (l *DeliveryLog) List(ctx context.Context, ownerID int64) ([]domain.DeliveryRecord, error) {
	query, args, err := psql.
		Select("id", "user_id", "date", "status", "articles_count", "format").
		From("delivery_history").
		Where("user_id = ?", ownerID).
		OrderBy("date DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list records: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list delivery records: %w", err)
	}
	defer rows.Close()

	var records []domain.DeliveryRecord
	for rows.Next() {
		var r domain.DeliveryRecord
		var status, format string
		if err := rows.Scan(&r.ID, &r.OwnerID, &r.Date, &status, &r.ArticlesCount, &format); err != nil {
			return nil, fmt.Errorf("scan delivery record: %w", err)
		}
		r.Status = domain.DeliveryStatus(status)
		r.Format = domain.Format(format)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return records, nil
}
