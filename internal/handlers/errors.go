package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"eventhive/internal/analytics"
	apperrors "eventhive/internal/errors"
	"eventhive/internal/logger"
)

// handleServiceError переводит ошибки сервисов в HTTP-коды; 5xx не раскрывает детали
func (h *Handlers) handleServiceError(c *gin.Context, err error, message string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.WithContext(c.Request.Context()).Error(message, "error", err)
		_ = c.Error(err)
		c.JSON(status, gin.H{"message": message})
		return
	}
	c.JSON(status, gin.H{"message": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrInvalidRating),
		errors.Is(err, analytics.ErrInvalidDate),
		errors.Is(err, analytics.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrConflict),
		errors.Is(err, apperrors.ErrSoldOut),
		errors.Is(err, apperrors.ErrRegistrationClosed),
		errors.Is(err, apperrors.ErrPaymentState):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
