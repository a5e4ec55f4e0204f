package models

import "time"

// NATS subjects
const (
	SubjectNotificationDispatch = "notifications.dispatch"
	EventReviewCreated          = "review.created"
	EventReviewResponded        = "review.responded"
	EventRegistrationCreated    = "registration.created"
	EventRegistrationUpdated    = "registration.updated"
)

// ReviewEvent публикуется при создании отзыва и ответе на него
type ReviewEvent struct {
	ReviewID  int64     `json:"review_id"`
	EventID   int64     `json:"event_id"`
	UserID    int64     `json:"user_id"`
	Rating    int       `json:"rating"`
	Sentiment Sentiment `json:"sentiment"`
	Timestamp time.Time `json:"timestamp"`
}

// RegistrationEvent публикуется при любом изменении регистрации
type RegistrationEvent struct {
	RegistrationID int64         `json:"registration_id"`
	EventID        int64         `json:"event_id"`
	UserID         *int64        `json:"user_id"`
	PaymentStatus  PaymentStatus `json:"payment_status"`
	TicketQuantity int           `json:"ticket_quantity"`
	CheckedIn      bool          `json:"checked_in"`
	Timestamp      time.Time     `json:"timestamp"`
}
