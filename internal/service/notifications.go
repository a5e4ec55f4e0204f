package service

import (
	"context"
	"fmt"

	apperrors "eventhive/internal/errors"
	"eventhive/internal/logger"
	"eventhive/internal/messaging"
	"eventhive/internal/models"
)

const notificationsPageSize = 50

type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListForUser(ctx context.Context, userID int64, isAdmin bool, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID int64, isAdmin bool) (bool, error)
	MarkAllRead(ctx context.Context, userID int64, isAdmin bool) error
}

// Deliverer - локальная доставка в сокеты (realtime.Hub)
type Deliverer interface {
	Deliver(n *models.Notification) int
}

// Notifier - то, что нужно другим сервисам для отправки уведомлений
type Notifier interface {
	Notify(ctx context.Context, n *models.Notification)
}

type NotificationService struct {
	store     NotificationStore
	publisher messaging.Publisher
	hub       Deliverer
}

func NewNotificationService(store NotificationStore, publisher messaging.Publisher, hub Deliverer) *NotificationService {
	return &NotificationService{store: store, publisher: publisher, hub: hub}
}

// Notify сохраняет уведомление и рассылает его. Доставка at-most-once, ошибки только логируются.
func (s *NotificationService) Notify(ctx context.Context, n *models.Notification) {
	log := logger.WithContext(ctx)

	if err := s.store.Create(ctx, n); err != nil {
		log.Error("Failed to persist notification", "error", err, "kind", n.Kind)
	}

	if s.publisher != nil {
		err := s.publisher.Publish(models.SubjectNotificationDispatch, n)
		if err == nil {
			return
		}
		log.Error("Failed to publish notification, delivering locally", "error", err, "kind", n.Kind)
	}

	s.Dispatch(n)
}

// Dispatch отдает уведомление локальному хабу; вызывается и подпиской NATS
func (s *NotificationService) Dispatch(n *models.Notification) int {
	if s.hub == nil {
		return 0
	}
	return s.hub.Deliver(n)
}

func (s *NotificationService) List(ctx context.Context, user *models.User) ([]models.Notification, error) {
	notifications, err := s.store.ListForUser(ctx, user.ID, user.IsAdmin(), notificationsPageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// Broadcast публикует общее объявление всем пользователям
func (s *NotificationService) Broadcast(ctx context.Context, req *models.CreateNotificationRequest) *models.Notification {
	n := models.NewNotification(models.AudienceAll, nil, req.Title, req.Message,
		models.GeneralMetadata{Link: req.Link})
	s.Notify(ctx, n)
	return n
}

func (s *NotificationService) MarkRead(ctx context.Context, user *models.User, id int64) error {
	ok, err := s.store.MarkRead(ctx, id, user.ID, user.IsAdmin())
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if !ok {
		return apperrors.ErrNotFound
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, user *models.User) error {
	if err := s.store.MarkAllRead(ctx, user.ID, user.IsAdmin()); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}
