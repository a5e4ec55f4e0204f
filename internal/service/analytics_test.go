package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhive/internal/analytics"
	apperrors "eventhive/internal/errors"
	"eventhive/internal/models"
	"eventhive/internal/repository"
)

func TestBuildEventAnalytics(t *testing.T) {
	reviews := &repository.ReviewStats{
		Total:         4,
		Responses:     1,
		AverageRating: 3.666,
		Positive:      2,
		Neutral:       1,
		Negative:      1,
		Ratings:       map[string]int{"5": 2, "3": 1, "1": 1},
	}
	regs := &repository.RegistrationStats{
		Registrations: 3,
		Tickets:       7,
		Paid:          2,
		CheckedIn:     1,
		Revenue:       70,
		ByDay:         map[string]int{"2025-05-01": 3},
	}

	summary := BuildEventAnalytics(11, reviews, regs)

	assert.Equal(t, int64(11), summary.EventID)
	assert.Equal(t, 3.67, summary.Satisfaction.AverageRating)
	assert.Equal(t, 62.5, summary.Satisfaction.SentimentScore)
	assert.Equal(t, 0.25, summary.Engagement.ResponseRate)
	assert.Equal(t, 0.33, summary.Engagement.CheckInRate)
	assert.Equal(t, 7, summary.Attendance.Tickets)
	assert.Equal(t, 2, summary.PositiveCount)
	assert.Equal(t, 1, summary.NegativeCount)
	assert.Equal(t, 2, summary.Ratings["5"])
}

func TestBuildEventAnalyticsEmpty(t *testing.T) {
	summary := BuildEventAnalytics(1, &repository.ReviewStats{}, &repository.RegistrationStats{})

	assert.Zero(t, summary.Satisfaction.SentimentScore)
	assert.Zero(t, summary.Engagement.ResponseRate)
	assert.NotNil(t, summary.Ratings)
	assert.NotNil(t, summary.Attendance.ByDay)
}

func TestEventAnalyticsValidatesInput(t *testing.T) {
	events := newFakeEvents(&models.Event{ID: 1, Title: "Expo"})
	svc := NewAnalyticsService(nil, nil, nil, events, nil)
	ctx := context.Background()

	_, err := svc.EventAnalytics(ctx, 2, "", "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.EventAnalytics(ctx, 1, "2025-02-30", "2025-03-01")
	assert.ErrorIs(t, err, analytics.ErrInvalidDate)

	_, err = svc.EventAnalytics(ctx, 1, "2025-03-10", "2025-03-01")
	assert.ErrorIs(t, err, analytics.ErrInvalidRange)
}

func TestDashboardCountsEvents(t *testing.T) {
	events := newFakeEvents(
		&models.Event{ID: 1, Status: models.EventStatusActive},
		&models.Event{ID: 2, Status: models.EventStatusDraft},
	)
	stats := &staticStats{
		reviews: &repository.ReviewStats{Total: 2, AverageRating: 4.5, Positive: 2},
		regs:    &repository.RegistrationStats{Registrations: 5, Tickets: 9, Revenue: 120.456},
	}
	svc := NewAnalyticsService(stats, stats.registrationSource(), nil, events, nil)

	dash, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, dash.TotalEvents)
	assert.Equal(t, 1, dash.ActiveEvents)
	assert.Equal(t, 5, dash.TotalRegistrations)
	assert.Equal(t, 120.46, dash.TotalRevenue)
	assert.Equal(t, 2, dash.PositiveReviews)
}

type staticStats struct {
	reviews *repository.ReviewStats
	regs    *repository.RegistrationStats
}

func (s *staticStats) SentimentPoints(context.Context, int64, string, string) ([]analytics.ReviewPoint, error) {
	return nil, nil
}

func (s *staticStats) StatsByEvent(context.Context, int64) (*repository.ReviewStats, error) {
	return s.reviews, nil
}

func (s *staticStats) Stats(context.Context) (*repository.ReviewStats, error) {
	return s.reviews, nil
}

type staticRegistrationStats struct{ stats *repository.RegistrationStats }

func (s staticRegistrationStats) StatsByEvent(context.Context, int64) (*repository.RegistrationStats, error) {
	return s.stats, nil
}

func (s staticRegistrationStats) Stats(context.Context) (*repository.RegistrationStats, error) {
	return s.stats, nil
}

func (s *staticStats) registrationSource() staticRegistrationStats {
	return staticRegistrationStats{stats: s.regs}
}
