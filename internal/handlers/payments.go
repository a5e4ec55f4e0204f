package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"eventhive/internal/logger"
)

const maxWebhookBody = 64 << 10

// Payments handlers

// PaymentSuccess - GET /api/payments/success
// Возврат с платежной страницы: проверяем сессию у провайдера и подтверждаем регистрацию
func (h *Handlers) PaymentSuccess(c *gin.Context) {
	reg, err := h.services.Registrations.CompleteCheckout(c.Request.Context(), c.Query("session_id"))
	if err != nil {
		h.handleServiceError(c, err, "Failed to complete payment")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Payment completed", "registration": reg})
}

// PaymentCancel - GET /api/payments/cancel
func (h *Handlers) PaymentCancel(c *gin.Context) {
	reg, err := h.services.Registrations.CancelCheckout(c.Request.Context(), c.Query("session_id"))
	if err != nil {
		h.handleServiceError(c, err, "Failed to cancel payment")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Payment cancelled", "registration": reg})
}

// PaymentWebhook - POST /api/payments/webhook
// Принимать уведомления от платежного шлюза
func (h *Handlers) PaymentWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		badRequest(c, "failed to read body")
		return
	}

	if err := h.services.Registrations.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		h.handleServiceError(c, err, "Failed to handle payment webhook")
		return
	}

	logger.WithContext(c.Request.Context()).Debug("Payment webhook processed", "bytes", len(payload))
	c.JSON(http.StatusOK, gin.H{"received": true})
}
