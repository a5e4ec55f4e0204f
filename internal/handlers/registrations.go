package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eventhive/internal/models"
)

// CreateRegistration - POST /api/events/:id/registrations
// Токен необязателен: анонимная регистрация не получает личных уведомлений
func (h *Handlers) CreateRegistration(c *gin.Context) {
	eventID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req models.CreateRegistrationRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.services.Registrations.Create(c.Request.Context(), eventID, currentUser(c), &req)
	if err != nil {
		h.handleServiceError(c, err, "Failed to create registration")
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// ListEventRegistrations - GET /api/events/:id/registrations
func (h *Handlers) ListEventRegistrations(c *gin.Context) {
	eventID, ok := paramID(c, "id")
	if !ok {
		return
	}

	regs, err := h.services.Registrations.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		h.handleServiceError(c, err, "Failed to list registrations")
		return
	}

	c.JSON(http.StatusOK, regs)
}

// ListMyRegistrations - GET /api/registrations/me
func (h *Handlers) ListMyRegistrations(c *gin.Context) {
	regs, err := h.services.Registrations.ListMine(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.handleServiceError(c, err, "Failed to list registrations")
		return
	}

	c.JSON(http.StatusOK, regs)
}

// GetRegistration - GET /api/registrations/:code
func (h *Handlers) GetRegistration(c *gin.Context) {
	reg, err := h.services.Registrations.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.handleServiceError(c, err, "Failed to get registration")
		return
	}

	c.JSON(http.StatusOK, reg)
}

// RegistrationQRCode - GET /api/registrations/:code/qrcode
func (h *Handlers) RegistrationQRCode(c *gin.Context) {
	png, err := h.services.Registrations.QRCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.handleServiceError(c, err, "Failed to render QR code")
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// RegistrationTicket - GET /api/registrations/:code/ticket
func (h *Handlers) RegistrationTicket(c *gin.Context) {
	code := c.Param("code")
	pdf, err := h.services.Registrations.Ticket(c.Request.Context(), code)
	if err != nil {
		h.handleServiceError(c, err, "Failed to render ticket")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="ticket-`+code+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// CheckIn - PATCH /api/registrations/:id/check-in
func (h *Handlers) CheckIn(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	reg, err := h.services.Registrations.CheckIn(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err, "Failed to check in")
		return
	}

	c.JSON(http.StatusOK, reg)
}

// RefundRegistration - POST /api/registrations/:id/refund
func (h *Handlers) RefundRegistration(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	reg, err := h.services.Registrations.Refund(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err, "Failed to refund registration")
		return
	}

	c.JSON(http.StatusOK, reg)
}
