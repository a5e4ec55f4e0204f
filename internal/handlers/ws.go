package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "eventhive/internal/errors"
	"eventhive/internal/realtime"
)

// WebSocket - GET /ws?token=<jwt>
func (h *Handlers) WebSocket(c *gin.Context) {
	err := h.hub.ServeWS(c.Writer, c.Request)
	if err == nil {
		return
	}

	if errors.Is(err, realtime.ErrMissingToken) || errors.Is(err, apperrors.ErrUnauthorized) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}
	if errors.Is(err, realtime.ErrHubClosed) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Server is shutting down"})
		return
	}
	h.handleServiceError(c, err, "Failed to open WebSocket session")
}
