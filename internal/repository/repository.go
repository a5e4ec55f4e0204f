package repository

import (
	"errors"

	"github.com/lib/pq"

	"eventhive/internal/database"
)

type Repositories struct {
	Users         *UserRepository
	Events        *EventRepository
	Reviews       *ReviewRepository
	Registrations *RegistrationRepository
	Notifications *NotificationRepository
	Analytics     *AnalyticsRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Users:         NewUserRepository(db),
		Events:        NewEventRepository(db),
		Reviews:       NewReviewRepository(db),
		Registrations: NewRegistrationRepository(db),
		Notifications: NewNotificationRepository(db),
		Analytics:     NewAnalyticsRepository(db),
	}
}

// isUniqueViolation - ошибка Postgres 23505
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// isCheckViolation - ошибка Postgres 23514
func isCheckViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23514"
}
