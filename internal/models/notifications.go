package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// NotificationKind - тег объединения уведомлений
type NotificationKind string

const (
	NotificationKindEvent          NotificationKind = "event"
	NotificationKindReview         NotificationKind = "review"
	NotificationKindReviewResponse NotificationKind = "review_response"
	NotificationKindGeneral        NotificationKind = "general"
)

// Audience определяет, кому доставляется уведомление
type Audience string

const (
	AudienceUser   Audience = "user"
	AudienceAdmins Audience = "admins"
	AudienceAll    Audience = "all"
)

// WebSocket event names
const (
	SocketEventNotification     = "notification"
	SocketEventNewReview        = "new-review"
	SocketEventUserNotification = "user-notification"
)

// NotificationMetadata - типизированные данные конкретного вида уведомления
type NotificationMetadata interface {
	Kind() NotificationKind
}

// EventMetadata сопровождает уведомления о регистрациях и событиях
type EventMetadata struct {
	EventID          int64         `json:"eventId"`
	EventTitle       string        `json:"eventTitle"`
	RegistrationID   int64         `json:"registrationId,omitempty"`
	ConfirmationCode string        `json:"confirmationCode,omitempty"`
	TicketQuantity   int           `json:"ticketQuantity,omitempty"`
	PaymentStatus    PaymentStatus `json:"paymentStatus,omitempty"`
}

func (EventMetadata) Kind() NotificationKind { return NotificationKindEvent }

// ReviewMetadata сопровождает уведомление о новом отзыве
type ReviewMetadata struct {
	ReviewID   int64     `json:"reviewId"`
	EventID    int64     `json:"eventId"`
	EventTitle string    `json:"eventTitle"`
	Username   string    `json:"username"`
	Rating     int       `json:"rating"`
	Sentiment  Sentiment `json:"sentiment"`
}

func (ReviewMetadata) Kind() NotificationKind { return NotificationKindReview }

// ReviewResponseMetadata сопровождает ответ администратора на отзыв
type ReviewResponseMetadata struct {
	ReviewID      int64  `json:"reviewId"`
	EventID       int64  `json:"eventId"`
	EventTitle    string `json:"eventTitle"`
	AdminResponse string `json:"adminResponse"`
}

func (ReviewResponseMetadata) Kind() NotificationKind { return NotificationKindReviewResponse }

// GeneralMetadata сопровождает общие объявления
type GeneralMetadata struct {
	Link string `json:"link,omitempty"`
}

func (GeneralMetadata) Kind() NotificationKind { return NotificationKindGeneral }

// Notification - уведомление пользователю, администраторам или всем
type Notification struct {
	ID          int64                `json:"id"`
	RecipientID *int64               `json:"recipientId,omitempty"`
	Audience    Audience             `json:"audience"`
	Kind        NotificationKind     `json:"kind"`
	Title       string               `json:"title"`
	Message     string               `json:"message"`
	Metadata    NotificationMetadata `json:"metadata"`
	IsRead      bool                 `json:"isRead"`
	CreatedAt   time.Time            `json:"createdAt"`
}

// NewNotification строит уведомление; вид берётся из типа метаданных
func NewNotification(audience Audience, recipientID *int64, title, message string, metadata NotificationMetadata) *Notification {
	return &Notification{
		RecipientID: recipientID,
		Audience:    audience,
		Kind:        metadata.Kind(),
		Title:       title,
		Message:     message,
		Metadata:    metadata,
		CreatedAt:   time.Now(),
	}
}

// SocketEvent - имя WebSocket-события, под которым уходит уведомление
func (n *Notification) SocketEvent() string {
	switch {
	case n.Audience == AudienceUser:
		return SocketEventUserNotification
	case n.Kind == NotificationKindReview:
		return SocketEventNewReview
	default:
		return SocketEventNotification
	}
}

func (n *Notification) UnmarshalJSON(data []byte) error {
	type alias Notification
	aux := struct {
		*alias
		Metadata json.RawMessage `json:"metadata"`
	}{alias: (*alias)(n)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	metadata, err := DecodeNotificationMetadata(n.Kind, aux.Metadata)
	if err != nil {
		return err
	}
	n.Metadata = metadata
	return nil
}

// DecodeNotificationMetadata разбирает метаданные по тегу вида
func DecodeNotificationMetadata(kind NotificationKind, data []byte) (NotificationMetadata, error) {
	empty := len(data) == 0 || string(data) == "null"

	switch kind {
	case NotificationKindEvent:
		var m EventMetadata
		if !empty {
			if err := json.Unmarshal(data, &m); err != nil {
				return nil, fmt.Errorf("failed to decode %s metadata: %w", kind, err)
			}
		}
		return m, nil
	case NotificationKindReview:
		var m ReviewMetadata
		if !empty {
			if err := json.Unmarshal(data, &m); err != nil {
				return nil, fmt.Errorf("failed to decode %s metadata: %w", kind, err)
			}
		}
		return m, nil
	case NotificationKindReviewResponse:
		var m ReviewResponseMetadata
		if !empty {
			if err := json.Unmarshal(data, &m); err != nil {
				return nil, fmt.Errorf("failed to decode %s metadata: %w", kind, err)
			}
		}
		return m, nil
	case NotificationKindGeneral:
		var m GeneralMetadata
		if !empty {
			if err := json.Unmarshal(data, &m); err != nil {
				return nil, fmt.Errorf("failed to decode %s metadata: %w", kind, err)
			}
		}
		return m, nil
	}
	return nil, fmt.Errorf("unknown notification kind %q", kind)
}
