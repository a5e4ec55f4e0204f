package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"eventhive/internal/models"
)

// Events handlers

// ListEvents - GET /api/events
// Получить список событий
func (h *Handlers) ListEvents(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		badRequest(c, "page must be >= 1")
		return
	}

	pageSize, err := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	if err != nil || pageSize < 1 || pageSize > 100 {
		badRequest(c, "pageSize must be between 1 and 100")
		return
	}

	filter := models.ListEventsFilter{
		Query:    c.Query("query"),
		Category: c.Query("category"),
		Status:   c.Query("status"),
		Date:     c.Query("date"),
		Page:     page,
		PageSize: pageSize,
	}

	resp, err := h.services.Events.List(c.Request.Context(), filter)
	if err != nil {
		h.handleServiceError(c, err, "Failed to list events")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Calendar - GET /api/events/calendar
func (h *Handlers) Calendar(c *gin.Context) {
	days, err := h.services.Events.Calendar(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		h.handleServiceError(c, err, "Failed to load calendar")
		return
	}

	c.JSON(http.StatusOK, days)
}

// GetEvent - GET /api/events/:id
func (h *Handlers) GetEvent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	event, err := h.services.Events.Get(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err, "Failed to get event")
		return
	}

	c.JSON(http.StatusOK, event)
}

// CreateEvent - POST /api/events
// Создать событие
func (h *Handlers) CreateEvent(c *gin.Context) {
	var input models.EventInput
	if !bindJSON(c, &input) {
		return
	}

	event, err := h.services.Events.Create(c.Request.Context(), currentUser(c).ID, &input)
	if err != nil {
		h.handleServiceError(c, err, "Failed to create event")
		return
	}

	c.JSON(http.StatusCreated, event)
}

// UpdateEvent - PUT /api/events/:id
func (h *Handlers) UpdateEvent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var input models.EventInput
	if !bindJSON(c, &input) {
		return
	}

	event, err := h.services.Events.Update(c.Request.Context(), id, &input)
	if err != nil {
		h.handleServiceError(c, err, "Failed to update event")
		return
	}

	c.JSON(http.StatusOK, event)
}

// UpdateEventStatus - PATCH /api/events/:id/status
func (h *Handlers) UpdateEventStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateEventStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	event, err := h.services.Events.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.handleServiceError(c, err, "Failed to update event status")
		return
	}

	c.JSON(http.StatusOK, event)
}

// DeleteEvent - DELETE /api/events/:id
func (h *Handlers) DeleteEvent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.services.Events.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err, "Failed to delete event")
		return
	}

	c.Status(http.StatusNoContent)
}
