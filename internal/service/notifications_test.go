package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "eventhive/internal/errors"
	"eventhive/internal/models"
)

type memoryNotifications struct {
	mu     sync.Mutex
	stored []*models.Notification
	read   map[int64]bool
}

func (m *memoryNotifications) Create(_ context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n.ID = int64(len(m.stored) + 1)
	m.stored = append(m.stored, n)
	return nil
}

func (m *memoryNotifications) visible(n *models.Notification, userID int64, isAdmin bool) bool {
	switch n.Audience {
	case models.AudienceAll:
		return true
	case models.AudienceAdmins:
		return isAdmin
	}
	return n.RecipientID != nil && *n.RecipientID == userID
}

func (m *memoryNotifications) ListForUser(_ context.Context, userID int64, isAdmin bool, limit int) ([]models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Notification{}
	for _, n := range m.stored {
		if m.visible(n, userID, isAdmin) && len(out) < limit {
			copied := *n
			copied.IsRead = m.read[n.ID]
			out = append(out, copied)
		}
	}
	return out, nil
}

func (m *memoryNotifications) MarkRead(_ context.Context, id, userID int64, isAdmin bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.stored {
		if n.ID == id && m.visible(n, userID, isAdmin) {
			if m.read == nil {
				m.read = map[int64]bool{}
			}
			m.read[id] = true
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryNotifications) MarkAllRead(context.Context, int64, bool) error {
	return nil
}

type recordingHub struct {
	mu        sync.Mutex
	delivered []*models.Notification
}

func (h *recordingHub) Deliver(n *models.Notification) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.delivered = append(h.delivered, n)
	return 1
}

func TestNotifyWithoutBrokerDeliversLocally(t *testing.T) {
	store := &memoryNotifications{}
	hub := &recordingHub{}
	svc := NewNotificationService(store, nil, hub)

	userID := int64(3)
	svc.Notify(context.Background(), models.NewNotification(models.AudienceUser, &userID,
		"Hello", "Welcome aboard", models.GeneralMetadata{}))

	require.Len(t, store.stored, 1)
	require.Len(t, hub.delivered, 1)
	assert.Equal(t, int64(1), hub.delivered[0].ID)
}

func TestNotifyPublishesToBroker(t *testing.T) {
	store := &memoryNotifications{}
	hub := &recordingHub{}
	pub := &recordingPublisher{}
	svc := NewNotificationService(store, pub, hub)

	svc.Broadcast(context.Background(), &models.CreateNotificationRequest{Title: "Maintenance", Message: "Tonight"})

	assert.Equal(t, []string{models.SubjectNotificationDispatch}, pub.subjects)
	assert.Empty(t, hub.delivered)
}

func TestNotifyFallsBackWhenBrokerFails(t *testing.T) {
	hub := &recordingHub{}
	pub := &recordingPublisher{fail: errors.New("connection lost")}
	svc := NewNotificationService(&memoryNotifications{}, pub, hub)

	n := svc.Broadcast(context.Background(), &models.CreateNotificationRequest{Title: "Maintenance", Message: "Tonight"})

	require.Len(t, hub.delivered, 1)
	assert.Equal(t, models.AudienceAll, n.Audience)
	assert.Equal(t, models.NotificationKindGeneral, n.Kind)
}

func TestDispatchWithoutHub(t *testing.T) {
	svc := NewNotificationService(&memoryNotifications{}, nil, nil)
	assert.Zero(t, svc.Dispatch(&models.Notification{}))
}

func TestNotificationVisibilityAndRead(t *testing.T) {
	store := &memoryNotifications{}
	svc := NewNotificationService(store, nil, nil)
	ctx := context.Background()

	owner := int64(5)
	svc.Notify(ctx, models.NewNotification(models.AudienceUser, &owner, "Yours", "Only for you", models.GeneralMetadata{}))
	svc.Notify(ctx, models.NewNotification(models.AudienceAdmins, nil, "Admins", "Staff only", models.GeneralMetadata{}))

	user := &models.User{ID: 5, Role: models.RoleUser}
	admin := &models.User{ID: 1, Role: models.RoleAdmin}

	mine, err := svc.List(ctx, user)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Yours", mine[0].Title)

	staff, err := svc.List(ctx, admin)
	require.NoError(t, err)
	require.Len(t, staff, 1)
	assert.Equal(t, "Admins", staff[0].Title)

	require.NoError(t, svc.MarkRead(ctx, user, mine[0].ID))
	assert.ErrorIs(t, svc.MarkRead(ctx, user, staff[0].ID), apperrors.ErrNotFound)

	mine, err = svc.List(ctx, user)
	require.NoError(t, err)
	assert.True(t, mine[0].IsRead)
}
