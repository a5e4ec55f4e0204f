package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "eventhive/internal/errors"
	"eventhive/internal/models"
	"eventhive/internal/repository"
)

type memoryReviews struct {
	reviews []*models.Review
}

func (m *memoryReviews) Create(_ context.Context, review *models.Review) error {
	if err := repository.ValidateReview(review); err != nil {
		return err
	}
	if review.Sentiment == "" {
		review.Sentiment = models.SentimentFromRating(review.Rating)
	}
	review.ID = int64(len(m.reviews) + 1)
	m.reviews = append(m.reviews, review)
	return nil
}

func (m *memoryReviews) GetByID(_ context.Context, id int64) (*models.Review, error) {
	for _, r := range m.reviews {
		if r.ID == id {
			copied := *r
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memoryReviews) ListByEvent(_ context.Context, eventID int64) ([]models.Review, error) {
	out := []models.Review{}
	for _, r := range m.reviews {
		if r.EventID == eventID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memoryReviews) SetAdminResponse(_ context.Context, id int64, response string) (bool, error) {
	for _, r := range m.reviews {
		if r.ID == id {
			r.AdminResponse = &response
			return true, nil
		}
	}
	return false, nil
}

func TestCreateReviewNotifiesAdmins(t *testing.T) {
	events := newFakeEvents(&models.Event{ID: 1, Title: "Jazz Night"})
	notifier := &recordingNotifier{}
	pub := &recordingPublisher{}
	svc := NewReviewService(&memoryReviews{}, events, notifier, pub)
	user := &models.User{ID: 8, Username: "ada"}

	review, err := svc.Create(context.Background(), user, 1, &models.CreateReviewRequest{ReviewText: " Great! ", Rating: 5})
	require.NoError(t, err)
	assert.Equal(t, "Great!", review.ReviewText)
	assert.Equal(t, models.SentimentPositive, review.Sentiment)

	require.Len(t, notifier.sent, 1)
	n := notifier.sent[0]
	assert.Equal(t, models.AudienceAdmins, n.Audience)
	assert.Equal(t, models.SocketEventNewReview, n.SocketEvent())
	meta, ok := n.Metadata.(models.ReviewMetadata)
	require.True(t, ok)
	assert.Equal(t, "Jazz Night", meta.EventTitle)
	assert.Equal(t, 5, meta.Rating)

	assert.Equal(t, []string{models.EventReviewCreated}, pub.subjects)
}

func TestCreateReviewRejectsBadRating(t *testing.T) {
	events := newFakeEvents(&models.Event{ID: 1})
	notifier := &recordingNotifier{}
	svc := NewReviewService(&memoryReviews{}, events, notifier, nil)
	user := &models.User{ID: 8}

	_, err := svc.Create(context.Background(), user, 1, &models.CreateReviewRequest{ReviewText: "meh", Rating: 6})
	assert.ErrorIs(t, err, apperrors.ErrInvalidRating)

	_, err = svc.Create(context.Background(), user, 2, &models.CreateReviewRequest{ReviewText: "meh", Rating: 3})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.Empty(t, notifier.sent)
}

func TestRespondNotifiesReviewer(t *testing.T) {
	events := newFakeEvents(&models.Event{ID: 1, Title: "Jazz Night"})
	store := &memoryReviews{}
	notifier := &recordingNotifier{}
	svc := NewReviewService(store, events, notifier, nil)
	ctx := context.Background()

	review, err := svc.Create(ctx, &models.User{ID: 8, Username: "ada"}, 1,
		&models.CreateReviewRequest{ReviewText: "Too loud", Rating: 2})
	require.NoError(t, err)

	_, err = svc.Respond(ctx, review.ID, "   ")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.Respond(ctx, 99, "Thanks")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	responded, err := svc.Respond(ctx, review.ID, "Sorry, we will fix the sound")
	require.NoError(t, err)
	require.NotNil(t, responded.AdminResponse)

	require.Len(t, notifier.sent, 2)
	n := notifier.sent[1]
	assert.Equal(t, models.AudienceUser, n.Audience)
	assert.Equal(t, int64(8), *n.RecipientID)
	assert.Equal(t, models.NotificationKindReviewResponse, n.Kind)
}
