package consumers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/stan.go"

	"eventhive/internal/models"
)

const handleTimeout = 15 * time.Second

// AnalyticsRefresher пересчитывает event_analytics события
type AnalyticsRefresher interface {
	Refresh(ctx context.Context, eventID int64) (*models.EventAnalytics, error)
}

type Handlers struct {
	analytics AnalyticsRefresher
}

func NewHandlers(analytics AnalyticsRefresher) *Handlers {
	return &Handlers{analytics: analytics}
}

// HandleReviewEvent обрабатывает review.created и review.responded
func (h *Handlers) HandleReviewEvent(m *stan.Msg) {
	h.ack(m, h.processReview(m.Data))
}

// HandleRegistrationEvent обрабатывает registration.created и registration.updated
func (h *Handlers) HandleRegistrationEvent(m *stan.Msg) {
	h.ack(m, h.processRegistration(m.Data))
}

func (h *Handlers) processReview(data []byte) error {
	var event models.ReviewEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("%w: %v", errPoison, err)
	}

	slog.Info("Processing review event", "review_id", event.ReviewID, "event_id", event.EventID)
	return h.refresh(event.EventID)
}

func (h *Handlers) processRegistration(data []byte) error {
	var event models.RegistrationEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("%w: %v", errPoison, err)
	}

	slog.Info("Processing registration event",
		"registration_id", event.RegistrationID,
		"event_id", event.EventID,
		"payment_status", event.PaymentStatus)
	return h.refresh(event.EventID)
}

func (h *Handlers) refresh(eventID int64) error {
	if eventID <= 0 {
		return fmt.Errorf("%w: missing event id", errPoison)
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	if _, err := h.analytics.Refresh(ctx, eventID); err != nil {
		return fmt.Errorf("failed to refresh analytics for event %d: %w", eventID, err)
	}
	return nil
}
