package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhive/internal/analytics"
	"eventhive/internal/chatbot"
	apperrors "eventhive/internal/errors"
	"eventhive/internal/models"
	"eventhive/internal/service"
)

func setupRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	r.GET("/health", h.Health)

	api := r.Group("/api")
	{
		api.GET("/events/:id", h.GetEvent)
		api.GET("/events/:id/analytics", h.GetEventAnalytics)
		api.POST("/events/:id/registrations", h.CreateRegistration)
		api.POST("/chat", h.Chat)
	}

	return r
}

func newTestHandlers(checks ...HealthCheck) *Handlers {
	services := &service.Services{
		Chat: service.NewChatService(chatbot.NewResponder(chatbot.DefaultEntries, 0)),
	}
	return NewHandlers(services, nil, checks...)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("title is empty: %w", apperrors.ErrValidation), http.StatusBadRequest},
		{apperrors.ErrInvalidRating, http.StatusBadRequest},
		{fmt.Errorf("%w: %q", analytics.ErrInvalidDate, "2025-99-01"), http.StatusBadRequest},
		{analytics.ErrInvalidRange, http.StatusBadRequest},
		{apperrors.ErrUnauthorized, http.StatusUnauthorized},
		{apperrors.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("event 3: %w", apperrors.ErrNotFound), http.StatusNotFound},
		{apperrors.ErrConflict, http.StatusConflict},
		{apperrors.ErrSoldOut, http.StatusConflict},
		{apperrors.ErrRegistrationClosed, http.StatusConflict},
		{apperrors.ErrPaymentState, http.StatusConflict},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestHandleServiceErrorHidesInternalErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestHandlers()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	h.handleServiceError(c, errors.New("pq: password authentication failed"), "Failed to list events")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"Failed to list events"}`, w.Body.String())
}

func TestInvalidPathID(t *testing.T) {
	r := setupRouter(newTestHandlers())

	for _, path := range []string{"/api/events/abc", "/api/events/0", "/api/events/-4/analytics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

func TestCreateRegistrationValidation(t *testing.T) {
	r := setupRouter(newTestHandlers())

	body := `{"firstName":"Ada","lastName":"Lovelace","email":"not-an-email"}`
	req := httptest.NewRequest(http.MethodPost, "/api/events/1/registrations", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp["message"], "Email")
}

func TestChatStreamsTokens(t *testing.T) {
	r := setupRouter(newTestHandlers())

	reqBody := models.ChatRequest{Messages: []models.ChatMessage{
		{Role: "user", Content: "what can you do"},
		{Role: "assistant", Content: "..."},
		{Role: "user", Content: "hello"},
	}}
	jsonBody, _ := json.Marshal(reqBody)
	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	require.True(t, strings.HasSuffix(body, "data: [DONE]\n\n"))

	var answer strings.Builder
	for _, frame := range strings.Split(strings.TrimSuffix(body, "data: [DONE]\n\n"), "\n\n") {
		if frame == "" {
			continue
		}
		require.True(t, strings.HasPrefix(frame, "data: "), frame)

		var chunk models.ChatChunk
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(frame, "data: ")), &chunk))
		answer.WriteString(chunk.Content)
	}
	assert.Equal(t, chatbot.DefaultEntries[0].Response, answer.String())
}

func TestChatRequiresUserMessage(t *testing.T) {
	bodies := map[string]string{
		"no messages":     `{"messages":[]}`,
		"assistant only":  `{"messages":[{"role":"assistant","content":"hi"}]}`,
		"empty user":      `{"messages":[{"role":"user","content":""}]}`,
		"blank last user": `{"messages":[{"role":"user","content":"hello"},{"role":"user","content":"   "}]}`,
	}

	r := setupRouter(newTestHandlers())
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotContains(t, w.Body.String(), "data:")
		})
	}
}

func TestHealth(t *testing.T) {
	healthy := HealthCheck{Name: "database", Check: func(context.Context) error { return nil }}
	broken := HealthCheck{Name: "search", Check: func(context.Context) error { return errors.New("no nodes") }}

	w := httptest.NewRecorder()
	setupRouter(newTestHandlers(healthy)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","components":{"database":"ok"}}`, w.Body.String())

	w = httptest.NewRecorder()
	setupRouter(newTestHandlers(healthy, broken)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "no nodes")
}
