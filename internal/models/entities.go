package models

import (
	"time"
)

// Role определяет права пользователя
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// EventStatus - закрытый набор статусов события
type EventStatus string

const (
	EventStatusActive    EventStatus = "active"
	EventStatusCancelled EventStatus = "cancelled"
	EventStatusCompleted EventStatus = "completed"
	EventStatusDraft     EventStatus = "draft"
)

func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusActive, EventStatusCancelled, EventStatusCompleted, EventStatusDraft:
		return true
	}
	return false
}

// PaymentStatus - закрытый набор статусов оплаты регистрации
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
	PaymentStatusFree      PaymentStatus = "free"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded, PaymentStatusFree:
		return true
	}
	return false
}

// Sentiment - грубая оценка тональности отзыва
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

func (s Sentiment) Valid() bool {
	return s == SentimentPositive || s == SentimentNeutral || s == SentimentNegative
}

// SentimentFromRating выводит тональность из оценки, когда клиент её не передал
func SentimentFromRating(rating int) Sentiment {
	switch {
	case rating >= 4:
		return SentimentPositive
	case rating == 3:
		return SentimentNeutral
	default:
		return SentimentNegative
	}
}

// User represents a user in the system
type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         Role      `json:"role" db:"role"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Event represents an event in the system
type Event struct {
	ID                   int64       `json:"id" db:"id"`
	Title                string      `json:"title" db:"title"`
	Location             string      `json:"location" db:"location"`
	Description          string      `json:"description" db:"description"`
	Date                 string      `json:"date" db:"date"`
	Time                 string      `json:"time" db:"time"`
	Category             string      `json:"category" db:"category"`
	Image                string      `json:"image" db:"image"`
	Price                float64     `json:"price" db:"price"`
	IsPaid               bool        `json:"isPaid" db:"is_paid"`
	TicketsAvailable     int         `json:"ticketsAvailable" db:"tickets_available"`
	RegistrationDeadline *time.Time  `json:"registrationDeadline" db:"registration_deadline"`
	MaxRegistrations     int         `json:"maxRegistrations" db:"max_registrations"`
	MinRegistrations     int         `json:"minRegistrations" db:"min_registrations"`
	Status               EventStatus `json:"status" db:"status"`
	OrganizerID          *int64      `json:"organizerId" db:"organizer_id"`
	CreatedAt            time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt            time.Time   `json:"updatedAt" db:"updated_at"`
}

// Review represents a user review of an event
type Review struct {
	ID            int64     `json:"id" db:"id"`
	EventID       int64     `json:"eventId" db:"event_id"`
	UserID        int64     `json:"userId" db:"user_id"`
	Username      string    `json:"username" db:"username"`
	ReviewText    string    `json:"review_text" db:"review_text"`
	Rating        int       `json:"rating" db:"rating"`
	Sentiment     Sentiment `json:"sentiment" db:"sentiment"`
	AdminResponse *string   `json:"admin_response" db:"admin_response"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// Registration - бронирование участника на событие
type Registration struct {
	ID                int64         `json:"id" db:"id"`
	EventID           int64         `json:"eventId" db:"event_id"`
	UserID            *int64        `json:"userId" db:"user_id"`
	FirstName         string        `json:"firstName" db:"first_name"`
	LastName          string        `json:"lastName" db:"last_name"`
	Email             string        `json:"email" db:"email"`
	Phone             string        `json:"phone" db:"phone"`
	TicketQuantity    int           `json:"ticketQuantity" db:"ticket_quantity"`
	PaymentStatus     PaymentStatus `json:"paymentStatus" db:"payment_status"`
	TotalAmount       float64       `json:"totalAmount" db:"total_amount"`
	ConfirmationCode  string        `json:"confirmationCode" db:"confirmation_code"`
	CheckInStatus     bool          `json:"checkInStatus" db:"check_in_status"`
	CheckedInAt       *time.Time    `json:"checkedInAt,omitempty" db:"checked_in_at"`
	CheckoutSessionID *string       `json:"checkoutSessionId,omitempty" db:"checkout_session_id"`
	PaymentIntentID   *string       `json:"-" db:"payment_intent_id"`
	CreatedAt         time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time     `json:"updatedAt" db:"updated_at"`
}

func (r *Registration) FullName() string {
	return r.FirstName + " " + r.LastName
}

// AttendanceStats - JSON-блоб посещаемости в event_analytics
type AttendanceStats struct {
	Registrations int            `json:"registrations"`
	Tickets       int            `json:"tickets"`
	Paid          int            `json:"paid"`
	CheckedIn     int            `json:"checkedIn"`
	ByDay         map[string]int `json:"byDay"`
}

// SatisfactionStats - JSON-блоб удовлетворённости
type SatisfactionStats struct {
	AverageRating  float64 `json:"averageRating"`
	SentimentScore float64 `json:"sentimentScore"`
}

// EngagementStats - JSON-блоб вовлечённости
type EngagementStats struct {
	Reviews      int     `json:"reviews"`
	Responses    int     `json:"responses"`
	ResponseRate float64 `json:"responseRate"`
	CheckInRate  float64 `json:"checkInRate"`
}

// EventAnalytics - денормализованный кеш производных метрик события
type EventAnalytics struct {
	EventID       int64             `json:"eventId" db:"event_id"`
	Attendance    AttendanceStats   `json:"attendance" db:"attendance"`
	Satisfaction  SatisfactionStats `json:"satisfaction" db:"satisfaction"`
	Ratings       map[string]int    `json:"ratings" db:"ratings"`
	Engagement    EngagementStats   `json:"engagement" db:"engagement"`
	PositiveCount int               `json:"positiveCount" db:"positive_count"`
	NeutralCount  int               `json:"neutralCount" db:"neutral_count"`
	NegativeCount int               `json:"negativeCount" db:"negative_count"`
	UpdatedAt     time.Time         `json:"updatedAt" db:"updated_at"`
}
