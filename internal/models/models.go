package models

import (
	"time"
)

// RegisterRequest - модель регистрации аккаунта
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=100"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// LoginRequest - модель входа
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse - ответ на вход и регистрацию
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// EventInput - общее тело создания и обновления события
type EventInput struct {
	Title                string      `json:"title" binding:"required,max=300"`
	Location             string      `json:"location"`
	Description          string      `json:"description"`
	Date                 string      `json:"date" binding:"required"`
	Time                 string      `json:"time"`
	Category             string      `json:"category"`
	Image                string      `json:"image"`
	Price                float64     `json:"price" binding:"gte=0"`
	IsPaid               bool        `json:"isPaid"`
	TicketsAvailable     int         `json:"ticketsAvailable" binding:"gte=0"`
	RegistrationDeadline *time.Time  `json:"registrationDeadline"`
	MaxRegistrations     int         `json:"maxRegistrations" binding:"gte=0"`
	MinRegistrations     int         `json:"minRegistrations" binding:"gte=0"`
	Status               EventStatus `json:"status"`
}

// UpdateEventStatusRequest - смена статуса события
type UpdateEventStatusRequest struct {
	Status EventStatus `json:"status" binding:"required"`
}

// ListEventsFilter - параметры списка событий
type ListEventsFilter struct {
	Query    string
	Category string
	Status   string
	Date     string
	Page     int
	PageSize int
}

// Cacheable - только простые постраничные запросы попадают в кеш
func (f ListEventsFilter) Cacheable() bool {
	return f.Query == "" && f.Category == "" && f.Status == "" && f.Date == ""
}

// ListEventsResponse - страница событий
type ListEventsResponse struct {
	Events   []Event `json:"events"`
	Page     int     `json:"page"`
	PageSize int     `json:"pageSize"`
}

// CalendarDay - события одного дня для календаря
type CalendarDay struct {
	Date   string  `json:"date"`
	Events []Event `json:"events"`
}

// CreateReviewRequest - модель создания отзыва
type CreateReviewRequest struct {
	ReviewText string    `json:"review_text" binding:"required,max=5000"`
	Rating     int       `json:"rating" binding:"required,min=1,max=5"`
	Sentiment  Sentiment `json:"sentiment" binding:"omitempty,oneof=positive neutral negative"`
}

// ReviewResponseRequest - ответ администратора на отзыв
type ReviewResponseRequest struct {
	AdminResponse string `json:"admin_response" binding:"required,max=5000"`
}

// CreateRegistrationRequest - модель регистрации на событие
type CreateRegistrationRequest struct {
	FirstName      string `json:"firstName" binding:"required,max=100"`
	LastName       string `json:"lastName" binding:"required,max=100"`
	Email          string `json:"email" binding:"required,email"`
	Phone          string `json:"phone" binding:"max=50"`
	TicketQuantity int    `json:"ticketQuantity" binding:"omitempty,min=1,max=20"`
}

// CreateRegistrationResponse - регистрация и, для платных событий, ссылка на оплату
type CreateRegistrationResponse struct {
	Registration *Registration `json:"registration"`
	CheckoutURL  string        `json:"checkoutUrl,omitempty"`
}

// ChatMessage - одно сообщение диалога с чат-ботом
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest - история диалога от виджета
type ChatRequest struct {
	Messages []ChatMessage `json:"messages" binding:"required,min=1"`
}

// LastUserMessage возвращает последнее сообщение пользователя
func (r ChatRequest) LastUserMessage() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == "user" {
			return r.Messages[i].Content
		}
	}
	return ""
}

// ChatChunk - один SSE-фрагмент ответа
type ChatChunk struct {
	Content string `json:"content"`
}

// CreateNotificationRequest - общее уведомление от администратора
type CreateNotificationRequest struct {
	Title   string `json:"title" binding:"required,max=300"`
	Message string `json:"message" binding:"required"`
	Link    string `json:"link"`
}

// AnalyticsResponse - временные ряды и кеш метрик события
type AnalyticsResponse struct {
	EventID   int64           `json:"eventId"`
	Dates     []string        `json:"dates"`
	Sentiment []float64       `json:"sentiment"`
	Volume    []int           `json:"volume"`
	Summary   *EventAnalytics `json:"summary"`
}

// DashboardResponse - сводка для админ-панели
type DashboardResponse struct {
	TotalEvents        int     `json:"totalEvents"`
	ActiveEvents       int     `json:"activeEvents"`
	TotalRegistrations int     `json:"totalRegistrations"`
	TotalTickets       int     `json:"totalTickets"`
	TotalRevenue       float64 `json:"totalRevenue"`
	TotalReviews       int     `json:"totalReviews"`
	AverageRating      float64 `json:"averageRating"`
	PositiveReviews    int     `json:"positiveReviews"`
	NeutralReviews     int     `json:"neutralReviews"`
	NegativeReviews    int     `json:"negativeReviews"`
}
