package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eventhive/internal/models"
)

// ListReviews - GET /api/events/:id/reviews
func (h *Handlers) ListReviews(c *gin.Context) {
	eventID, ok := paramID(c, "id")
	if !ok {
		return
	}

	reviews, err := h.services.Reviews.List(c.Request.Context(), eventID)
	if err != nil {
		h.handleServiceError(c, err, "Failed to list reviews")
		return
	}

	c.JSON(http.StatusOK, reviews)
}

// CreateReview - POST /api/events/:id/reviews
// Оставить отзыв; администраторы получают new-review
func (h *Handlers) CreateReview(c *gin.Context) {
	eventID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req models.CreateReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	review, err := h.services.Reviews.Create(c.Request.Context(), currentUser(c), eventID, &req)
	if err != nil {
		h.handleServiceError(c, err, "Failed to create review")
		return
	}

	c.JSON(http.StatusCreated, review)
}

// RespondToReview - POST /api/reviews/:id/response
func (h *Handlers) RespondToReview(c *gin.Context) {
	reviewID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req models.ReviewResponseRequest
	if !bindJSON(c, &req) {
		return
	}

	review, err := h.services.Reviews.Respond(c.Request.Context(), reviewID, req.AdminResponse)
	if err != nil {
		h.handleServiceError(c, err, "Failed to respond to review")
		return
	}

	c.JSON(http.StatusOK, review)
}
