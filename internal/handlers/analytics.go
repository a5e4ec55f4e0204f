package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetEventAnalytics - GET /api/events/:id/analytics
// Получить аналитику тональности отзывов и посещаемости для события
func (h *Handlers) GetEventAnalytics(c *gin.Context) {
	eventID, ok := paramID(c, "id")
	if !ok {
		return
	}

	resp, err := h.services.Analytics.EventAnalytics(c.Request.Context(), eventID, c.Query("start"), c.Query("end"))
	if err != nil {
		h.handleServiceError(c, err, "Failed to get analytics")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Dashboard - GET /api/admin/dashboard
func (h *Handlers) Dashboard(c *gin.Context) {
	resp, err := h.services.Analytics.Dashboard(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err, "Failed to load dashboard")
		return
	}

	c.JSON(http.StatusOK, resp)
}
