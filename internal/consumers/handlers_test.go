package consumers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhive/internal/models"
)

type recordingRefresher struct {
	refreshed []int64
	err       error
}

func (r *recordingRefresher) Refresh(_ context.Context, eventID int64) (*models.EventAnalytics, error) {
	r.refreshed = append(r.refreshed, eventID)
	if r.err != nil {
		return nil, r.err
	}
	return &models.EventAnalytics{EventID: eventID}, nil
}

func TestProcessReviewRefreshesEvent(t *testing.T) {
	refresher := &recordingRefresher{}
	h := NewHandlers(refresher)

	data, err := json.Marshal(models.ReviewEvent{ReviewID: 4, EventID: 12, Rating: 5})
	require.NoError(t, err)

	require.NoError(t, h.processReview(data))
	assert.Equal(t, []int64{12}, refresher.refreshed)
}

func TestProcessRegistrationRefreshesEvent(t *testing.T) {
	refresher := &recordingRefresher{}
	h := NewHandlers(refresher)

	data, err := json.Marshal(models.RegistrationEvent{RegistrationID: 1, EventID: 3, PaymentStatus: models.PaymentStatusCompleted})
	require.NoError(t, err)

	require.NoError(t, h.processRegistration(data))
	assert.Equal(t, []int64{3}, refresher.refreshed)
}

func TestMalformedMessagesArePoison(t *testing.T) {
	refresher := &recordingRefresher{}
	h := NewHandlers(refresher)

	assert.ErrorIs(t, h.processReview([]byte("{")), errPoison)
	assert.ErrorIs(t, h.processRegistration([]byte(`{"registration_id":1}`)), errPoison)
	assert.Empty(t, refresher.refreshed)
}

func TestRefreshFailureIsRetryable(t *testing.T) {
	refresher := &recordingRefresher{err: errors.New("database is down")}
	h := NewHandlers(refresher)

	data, err := json.Marshal(models.ReviewEvent{ReviewID: 4, EventID: 12})
	require.NoError(t, err)

	err = h.processReview(data)
	require.Error(t, err)
	assert.NotErrorIs(t, err, errPoison)
}
