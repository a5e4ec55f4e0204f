package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "eventhive/internal/errors"
	"eventhive/internal/messaging"
	"eventhive/internal/models"
)

type ReviewStore interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id int64) (*models.Review, error)
	ListByEvent(ctx context.Context, eventID int64) ([]models.Review, error)
	SetAdminResponse(ctx context.Context, id int64, response string) (bool, error)
}

type EventGetter interface {
	GetByID(ctx context.Context, id int64) (*models.Event, error)
}

type ReviewService struct {
	reviews   ReviewStore
	events    EventGetter
	notifier  Notifier
	publisher messaging.Publisher
}

func NewReviewService(reviews ReviewStore, events EventGetter, notifier Notifier, publisher messaging.Publisher) *ReviewService {
	return &ReviewService{reviews: reviews, events: events, notifier: notifier, publisher: publisher}
}

func (s *ReviewService) event(ctx context.Context, id int64) (*models.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, apperrors.ErrNotFound
	}
	return event, nil
}

func (s *ReviewService) List(ctx context.Context, eventID int64) ([]models.Review, error) {
	if _, err := s.event(ctx, eventID); err != nil {
		return nil, err
	}

	reviews, err := s.reviews.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

func (s *ReviewService) Create(ctx context.Context, user *models.User, eventID int64, req *models.CreateReviewRequest) (*models.Review, error) {
	event, err := s.event(ctx, eventID)
	if err != nil {
		return nil, err
	}

	review := &models.Review{
		EventID:    eventID,
		UserID:     user.ID,
		Username:   user.Username,
		ReviewText: strings.TrimSpace(req.ReviewText),
		Rating:     req.Rating,
		Sentiment:  req.Sentiment,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	publish(ctx, s.publisher, models.EventReviewCreated, models.ReviewEvent{
		ReviewID:  review.ID,
		EventID:   review.EventID,
		UserID:    review.UserID,
		Rating:    review.Rating,
		Sentiment: review.Sentiment,
		Timestamp: time.Now(),
	})

	s.notifier.Notify(ctx, models.NewNotification(models.AudienceAdmins, nil,
		"New review",
		fmt.Sprintf("%s rated %q %d/5", review.Username, event.Title, review.Rating),
		models.ReviewMetadata{
			ReviewID:   review.ID,
			EventID:    event.ID,
			EventTitle: event.Title,
			Username:   review.Username,
			Rating:     review.Rating,
			Sentiment:  review.Sentiment,
		}))

	return review, nil
}

// Respond сохраняет ответ администратора и уведомляет автора отзыва
func (s *ReviewService) Respond(ctx context.Context, reviewID int64, response string) (*models.Review, error) {
	response = strings.TrimSpace(response)
	if response == "" {
		return nil, fmt.Errorf("response is empty: %w", apperrors.ErrValidation)
	}

	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	if review == nil {
		return nil, apperrors.ErrNotFound
	}

	ok, err := s.reviews.SetAdminResponse(ctx, reviewID, response)
	if err != nil {
		return nil, fmt.Errorf("failed to save response: %w", err)
	}
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	review.AdminResponse = &response

	title := ""
	if event, err := s.events.GetByID(ctx, review.EventID); err == nil && event != nil {
		title = event.Title
	}

	publish(ctx, s.publisher, models.EventReviewResponded, models.ReviewEvent{
		ReviewID:  review.ID,
		EventID:   review.EventID,
		UserID:    review.UserID,
		Rating:    review.Rating,
		Sentiment: review.Sentiment,
		Timestamp: time.Now(),
	})

	recipient := review.UserID
	s.notifier.Notify(ctx, models.NewNotification(models.AudienceUser, &recipient,
		"Your review got a response",
		response,
		models.ReviewResponseMetadata{
			ReviewID:      review.ID,
			EventID:       review.EventID,
			EventTitle:    title,
			AdminResponse: response,
		}))

	return review, nil
}
