package service

import (
	"context"
	"time"

	"eventhive/internal/auth"
	"eventhive/internal/chatbot"
	"eventhive/internal/external"
	"eventhive/internal/logger"
	"eventhive/internal/messaging"
	"eventhive/internal/repository"
)

type Services struct {
	Auth          *AuthService
	Events        *EventService
	Reviews       *ReviewService
	Registrations *RegistrationService
	Notifications *NotificationService
	Analytics     *AnalyticsService
	Chat          *ChatService
}

// Dependencies - всё, что нужно для сборки сервисов. Необязательные поля могут быть nil.
type Dependencies struct {
	Repos          *repository.Repositories
	Tokens         *auth.TokenManager
	Auth           *AuthService
	Publisher      messaging.Publisher
	Hub            Deliverer
	EventCache     EventCache
	AnalyticsCache AnalyticsCache
	Search         EventSearcher
	Gateway        external.CheckoutGateway
	Responder      *chatbot.Responder
	PendingTimeout time.Duration
}

func NewServices(deps Dependencies) *Services {
	notifications := NewNotificationService(deps.Repos.Notifications, deps.Publisher, deps.Hub)

	// AuthService создается заранее, когда он же нужен хабу как IdentityResolver
	authService := deps.Auth
	if authService == nil {
		authService = NewAuthService(deps.Repos.Users, deps.Tokens)
	}

	return &Services{
		Auth:   authService,
		Events: NewEventService(deps.Repos.Events, deps.EventCache, deps.Search),
		Reviews: NewReviewService(deps.Repos.Reviews, deps.Repos.Events, notifications,
			deps.Publisher),
		Registrations: NewRegistrationService(deps.Repos.Registrations, deps.Repos.Events, deps.Gateway,
			notifications, deps.Publisher, deps.EventCache, deps.PendingTimeout),
		Notifications: notifications,
		Analytics: NewAnalyticsService(deps.Repos.Reviews, deps.Repos.Registrations, deps.Repos.Analytics,
			deps.Repos.Events, deps.AnalyticsCache),
		Chat: NewChatService(deps.Responder),
	}
}

// publish - события в брокер best-effort: ошибка только логируется
func publish(ctx context.Context, pub messaging.Publisher, subject string, data interface{}) {
	if pub == nil {
		return
	}
	if err := pub.Publish(subject, data); err != nil {
		// Log error but don't fail the operation
		logger.WithContext(ctx).Error("Failed to publish event",
			"error", err,
			"event_type", subject)
	}
}
