package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"eventhive/internal/database"
	"eventhive/internal/models"
)

// AnalyticsRepository хранит денормализованный кеш метрик события
type AnalyticsRepository struct {
	db *database.DB
}

func NewAnalyticsRepository(db *database.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

func (r *AnalyticsRepository) Get(ctx context.Context, eventID int64) (*models.EventAnalytics, error) {
	a := &models.EventAnalytics{}
	var attendance, satisfaction, ratings, engagement []byte

	err := r.db.QueryRowContext(ctx, `
		SELECT event_id, attendance, satisfaction, ratings, engagement,
		       positive_count, neutral_count, negative_count, updated_at
		FROM event_analytics
		WHERE event_id = $1`, eventID).Scan(
		&a.EventID,
		&attendance,
		&satisfaction,
		&ratings,
		&engagement,
		&a.PositiveCount,
		&a.NeutralCount,
		&a.NegativeCount,
		&a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	for _, blob := range []struct {
		data []byte
		dst  interface{}
	}{
		{attendance, &a.Attendance},
		{satisfaction, &a.Satisfaction},
		{ratings, &a.Ratings},
		{engagement, &a.Engagement},
	} {
		if err := json.Unmarshal(blob.data, blob.dst); err != nil {
			return nil, fmt.Errorf("failed to decode analytics for event %d: %w", eventID, err)
		}
	}

	return a, nil
}

func (r *AnalyticsRepository) Upsert(ctx context.Context, a *models.EventAnalytics) error {
	blobs := make([]string, 0, 4)
	for _, v := range []interface{}{a.Attendance, a.Satisfaction, a.Ratings, a.Engagement} {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode analytics: %w", err)
		}
		blobs = append(blobs, string(data))
	}

	return r.db.QueryRowContext(ctx, `
		INSERT INTO event_analytics (event_id, attendance, satisfaction, ratings, engagement,
		                             positive_count, neutral_count, negative_count, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (event_id) DO UPDATE
		SET attendance = EXCLUDED.attendance,
		    satisfaction = EXCLUDED.satisfaction,
		    ratings = EXCLUDED.ratings,
		    engagement = EXCLUDED.engagement,
		    positive_count = EXCLUDED.positive_count,
		    neutral_count = EXCLUDED.neutral_count,
		    negative_count = EXCLUDED.negative_count,
		    updated_at = NOW()
		RETURNING updated_at`,
		a.EventID, blobs[0], blobs[1], blobs[2], blobs[3],
		a.PositiveCount, a.NeutralCount, a.NegativeCount,
	).Scan(&a.UpdatedAt)
}
