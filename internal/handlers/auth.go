package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eventhive/internal/models"
)

// Register - POST /api/auth/register
func (h *Handlers) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.services.Auth.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err, "Failed to register")
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Login - POST /api/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.services.Auth.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err, "Failed to log in")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Me - GET /api/auth/me
func (h *Handlers) Me(c *gin.Context) {
	user, err := h.services.Auth.Me(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.handleServiceError(c, err, "Failed to get current user")
		return
	}

	c.JSON(http.StatusOK, user)
}
