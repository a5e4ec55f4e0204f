package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eventhive/internal/models"
)

// ListNotifications - GET /api/notifications
func (h *Handlers) ListNotifications(c *gin.Context) {
	notifications, err := h.services.Notifications.List(c.Request.Context(), currentUser(c))
	if err != nil {
		h.handleServiceError(c, err, "Failed to list notifications")
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// CreateNotification - POST /api/notifications
// Общее объявление от администратора
func (h *Handlers) CreateNotification(c *gin.Context) {
	var req models.CreateNotificationRequest
	if !bindJSON(c, &req) {
		return
	}

	n := h.services.Notifications.Broadcast(c.Request.Context(), &req)
	c.JSON(http.StatusCreated, n)
}

// MarkNotificationRead - PATCH /api/notifications/:id/read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.services.Notifications.MarkRead(c.Request.Context(), currentUser(c), id); err != nil {
		h.handleServiceError(c, err, "Failed to mark notification read")
		return
	}

	c.Status(http.StatusNoContent)
}

// MarkAllNotificationsRead - PATCH /api/notifications/read-all
func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	if err := h.services.Notifications.MarkAllRead(c.Request.Context(), currentUser(c)); err != nil {
		h.handleServiceError(c, err, "Failed to mark notifications read")
		return
	}

	c.Status(http.StatusNoContent)
}
