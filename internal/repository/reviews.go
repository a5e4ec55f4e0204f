package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"eventhive/internal/analytics"
	"eventhive/internal/database"
	apperrors "eventhive/internal/errors"
	"eventhive/internal/models"
)

type ReviewRepository struct {
	db *database.DB
}

func NewReviewRepository(db *database.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// ValidateReview проверяет инварианты отзыва до обращения к базе
func ValidateReview(review *models.Review) error {
	if review.Rating < 1 || review.Rating > 5 {
		return fmt.Errorf("rating %d: %w", review.Rating, apperrors.ErrInvalidRating)
	}
	if strings.TrimSpace(review.ReviewText) == "" {
		return fmt.Errorf("review text is empty: %w", apperrors.ErrValidation)
	}
	if review.Sentiment != "" && !review.Sentiment.Valid() {
		return fmt.Errorf("sentiment %q: %w", review.Sentiment, apperrors.ErrValidation)
	}
	return nil
}

func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if err := ValidateReview(review); err != nil {
		return err
	}
	if review.Sentiment == "" {
		review.Sentiment = models.SentimentFromRating(review.Rating)
	}

	query := `
		INSERT INTO reviews (event_id, user_id, username, review_text, rating, sentiment)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		review.EventID,
		review.UserID,
		review.Username,
		review.ReviewText,
		review.Rating,
		review.Sentiment,
	).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)

	if isCheckViolation(err) {
		return fmt.Errorf("rating %d: %w", review.Rating, apperrors.ErrInvalidRating)
	}
	return err
}

const reviewColumns = `id, event_id, user_id, username, review_text, rating, sentiment, admin_response, created_at, updated_at`

func scanReview(row rowScanner) (*models.Review, error) {
	review := &models.Review{}
	var response sql.NullString

	err := row.Scan(
		&review.ID,
		&review.EventID,
		&review.UserID,
		&review.Username,
		&review.ReviewText,
		&review.Rating,
		&review.Sentiment,
		&response,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if response.Valid {
		review.AdminResponse = &response.String
	}
	return review, nil
}

func (r *ReviewRepository) GetByID(ctx context.Context, id int64) (*models.Review, error) {
	review, err := scanReview(r.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return review, err
}

func (r *ReviewRepository) ListByEvent(ctx context.Context, eventID int64) ([]models.Review, error) {
	rows, err := r.db.QueryWithRetry(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE event_id = $1 ORDER BY created_at DESC, id DESC`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *review)
	}
	return reviews, rows.Err()
}

func (r *ReviewRepository) SetAdminResponse(ctx context.Context, id int64, response string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reviews SET admin_response = $1, updated_at = NOW() WHERE id = $2`, response, id)
	if err != nil {
		return false, err
	}
	return affected(res)
}

// SentimentPoints - время и метка тональности каждого отзыва события в диапазоне дат
func (r *ReviewRepository) SentimentPoints(ctx context.Context, eventID int64, start, end string) ([]analytics.ReviewPoint, error) {
	rows, err := r.db.QueryWithRetry(ctx, `
		SELECT created_at, sentiment
		FROM reviews
		WHERE event_id = $1
		  AND created_at >= $2::date
		  AND created_at < $3::date + INTERVAL '1 day'
		ORDER BY created_at`, eventID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []analytics.ReviewPoint
	for rows.Next() {
		var p analytics.ReviewPoint
		if err := rows.Scan(&p.CreatedAt, &p.Sentiment); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// ReviewStats - агрегаты отзывов для кеша аналитики и админ-панели
type ReviewStats struct {
	Total         int
	Responses     int
	AverageRating float64
	Positive      int
	Neutral       int
	Negative      int
	Ratings       map[string]int
}

const reviewStatsSelect = `
		SELECT COUNT(*),
		       COUNT(admin_response),
		       COALESCE(AVG(rating), 0),
		       COUNT(*) FILTER (WHERE sentiment = 'positive'),
		       COUNT(*) FILTER (WHERE sentiment = 'negative'),
		       COUNT(*) FILTER (WHERE rating = 1),
		       COUNT(*) FILTER (WHERE rating = 2),
		       COUNT(*) FILTER (WHERE rating = 3),
		       COUNT(*) FILTER (WHERE rating = 4),
		       COUNT(*) FILTER (WHERE rating = 5)
		FROM reviews`

func scanReviewStats(row rowScanner) (*ReviewStats, error) {
	stats := &ReviewStats{}
	var r1, r2, r3, r4, r5 int

	if err := row.Scan(&stats.Total, &stats.Responses, &stats.AverageRating,
		&stats.Positive, &stats.Negative, &r1, &r2, &r3, &r4, &r5); err != nil {
		return nil, err
	}

	// Неизвестные метки считаются нейтральными
	stats.Neutral = stats.Total - stats.Positive - stats.Negative
	stats.Ratings = map[string]int{"1": r1, "2": r2, "3": r3, "4": r4, "5": r5}
	return stats, nil
}

func (r *ReviewRepository) StatsByEvent(ctx context.Context, eventID int64) (*ReviewStats, error) {
	return scanReviewStats(r.db.QueryRowContext(ctx, reviewStatsSelect+` WHERE event_id = $1`, eventID))
}

func (r *ReviewRepository) Stats(ctx context.Context) (*ReviewStats, error) {
	return scanReviewStats(r.db.QueryRowContext(ctx, reviewStatsSelect))
}
