package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"eventhive/internal/analytics"
	apperrors "eventhive/internal/errors"
	"eventhive/internal/logger"
	"eventhive/internal/models"
	"eventhive/internal/repository"
)

const defaultAnalyticsWindow = 29 * 24 * time.Hour

type ReviewStatsSource interface {
	SentimentPoints(ctx context.Context, eventID int64, start, end string) ([]analytics.ReviewPoint, error)
	StatsByEvent(ctx context.Context, eventID int64) (*repository.ReviewStats, error)
	Stats(ctx context.Context) (*repository.ReviewStats, error)
}

type RegistrationStatsSource interface {
	StatsByEvent(ctx context.Context, eventID int64) (*repository.RegistrationStats, error)
	Stats(ctx context.Context) (*repository.RegistrationStats, error)
}

type AnalyticsStore interface {
	Get(ctx context.Context, eventID int64) (*models.EventAnalytics, error)
	Upsert(ctx context.Context, a *models.EventAnalytics) error
}

type EventCounter interface {
	EventGetter
	Counts(ctx context.Context) (total, active int, err error)
}

type AnalyticsCache interface {
	GetAnalytics(ctx context.Context, eventID int64) (*models.EventAnalytics, bool, error)
	SetAnalytics(ctx context.Context, summary *models.EventAnalytics) error
	InvalidateAnalytics(ctx context.Context, eventID int64) error
}

type AnalyticsService struct {
	reviews       ReviewStatsSource
	registrations RegistrationStatsSource
	store         AnalyticsStore
	events        EventCounter
	cache         AnalyticsCache
	now           func() time.Time
}

func NewAnalyticsService(reviews ReviewStatsSource, registrations RegistrationStatsSource, store AnalyticsStore, events EventCounter, cache AnalyticsCache) *AnalyticsService {
	return &AnalyticsService{
		reviews:       reviews,
		registrations: registrations,
		store:         store,
		events:        events,
		cache:         cache,
		now:           time.Now,
	}
}

// EventAnalytics строит ряды тональности за [start, end]; по умолчанию последние 30 дней
func (s *AnalyticsService) EventAnalytics(ctx context.Context, eventID int64, start, end string) (*models.AnalyticsResponse, error) {
	if err := s.requireEvent(ctx, eventID); err != nil {
		return nil, err
	}

	if end == "" {
		end = s.now().UTC().Format(analytics.DateLayout)
	}
	if start == "" {
		endDay, err := analytics.ParseDay(end)
		if err != nil {
			return nil, err
		}
		start = endDay.Add(-defaultAnalyticsWindow).Format(analytics.DateLayout)
	}

	// Проверяем даты до запроса в базу
	if _, err := analytics.SentimentSeries(nil, start, end); err != nil {
		return nil, err
	}

	points, err := s.reviews.SentimentPoints(ctx, eventID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load reviews: %w", err)
	}

	series, err := analytics.SentimentSeries(points, start, end)
	if err != nil {
		return nil, err
	}

	summary, err := s.Summary(ctx, eventID)
	if err != nil {
		return nil, err
	}

	return &models.AnalyticsResponse{
		EventID:   eventID,
		Dates:     series.Dates,
		Sentiment: series.Sentiment,
		Volume:    series.Volume,
		Summary:   summary,
	}, nil
}

func (s *AnalyticsService) requireEvent(ctx context.Context, eventID int64) error {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return fmt.Errorf("event %d: %w", eventID, apperrors.ErrNotFound)
	}
	return nil
}

// Summary читает кеш event_analytics, пересчитывая его при отсутствии
func (s *AnalyticsService) Summary(ctx context.Context, eventID int64) (*models.EventAnalytics, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.GetAnalytics(ctx, eventID)
		if err != nil {
			logger.WithContext(ctx).Warn("Analytics cache lookup failed", "error", err)
		} else if ok {
			return cached, nil
		}
	}

	summary, err := s.store.Get(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get analytics: %w", err)
	}
	if summary == nil {
		return s.Refresh(ctx, eventID)
	}

	s.cacheSummary(ctx, summary)
	return summary, nil
}

// Refresh пересчитывает строку event_analytics из отзывов и регистраций
func (s *AnalyticsService) Refresh(ctx context.Context, eventID int64) (*models.EventAnalytics, error) {
	reviewStats, err := s.reviews.StatsByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate reviews: %w", err)
	}
	regStats, err := s.registrations.StatsByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate registrations: %w", err)
	}

	summary := BuildEventAnalytics(eventID, reviewStats, regStats)
	if err := s.store.Upsert(ctx, summary); err != nil {
		return nil, fmt.Errorf("failed to store analytics: %w", err)
	}

	s.cacheSummary(ctx, summary)
	return summary, nil
}

func (s *AnalyticsService) cacheSummary(ctx context.Context, summary *models.EventAnalytics) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetAnalytics(ctx, summary); err != nil {
		logger.WithContext(ctx).Warn("Analytics cache write failed", "error", err)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func ratio(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(part) / float64(total))
}

// BuildEventAnalytics сводит агрегаты в JSON-блобы event_analytics
func BuildEventAnalytics(eventID int64, reviews *repository.ReviewStats, regs *repository.RegistrationStats) *models.EventAnalytics {
	var sentimentScore float64
	if reviews.Total > 0 {
		sentimentScore = round2(float64(reviews.Positive*100+reviews.Neutral*50) / float64(reviews.Total))
	}

	ratings := reviews.Ratings
	if ratings == nil {
		ratings = map[string]int{}
	}
	byDay := regs.ByDay
	if byDay == nil {
		byDay = map[string]int{}
	}

	return &models.EventAnalytics{
		EventID: eventID,
		Attendance: models.AttendanceStats{
			Registrations: regs.Registrations,
			Tickets:       regs.Tickets,
			Paid:          regs.Paid,
			CheckedIn:     regs.CheckedIn,
			ByDay:         byDay,
		},
		Satisfaction: models.SatisfactionStats{
			AverageRating:  round2(reviews.AverageRating),
			SentimentScore: sentimentScore,
		},
		Ratings: ratings,
		Engagement: models.EngagementStats{
			Reviews:      reviews.Total,
			Responses:    reviews.Responses,
			ResponseRate: ratio(reviews.Responses, reviews.Total),
			CheckInRate:  ratio(regs.CheckedIn, regs.Registrations),
		},
		PositiveCount: reviews.Positive,
		NeutralCount:  reviews.Neutral,
		NegativeCount: reviews.Negative,
	}
}

func (s *AnalyticsService) Dashboard(ctx context.Context) (*models.DashboardResponse, error) {
	total, active, err := s.events.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}
	regs, err := s.registrations.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate registrations: %w", err)
	}
	reviews, err := s.reviews.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate reviews: %w", err)
	}

	return &models.DashboardResponse{
		TotalEvents:        total,
		ActiveEvents:       active,
		TotalRegistrations: regs.Registrations,
		TotalTickets:       regs.Tickets,
		TotalRevenue:       round2(regs.Revenue),
		TotalReviews:       reviews.Total,
		AverageRating:      round2(reviews.AverageRating),
		PositiveReviews:    reviews.Positive,
		NeutralReviews:     reviews.Neutral,
		NegativeReviews:    reviews.Negative,
	}, nil
}
