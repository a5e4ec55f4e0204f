// Package validation прогоняет дымовую проверку запущенного API
package validation

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"eventhive/internal/logger"
	"eventhive/internal/models"
)

// APIValidator проверяет основные сценарии на живом сервере
type APIValidator struct {
	baseURL string
	client  *http.Client
	token   string
}

func NewAPIValidator(baseURL string) *APIValidator {
	return &APIValidator{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// ValidateAll проверяет все группы endpoints по очереди
func (v *APIValidator) ValidateAll() error {
	log := logger.Get()
	log.Info("Starting API validation", "url", v.baseURL)

	steps := []struct {
		name string
		run  func() error
	}{
		{"health", v.validateHealth},
		{"auth", v.validateAuth},
		{"events", v.validateEvents},
		{"notifications", v.validateNotifications},
		{"chat", v.validateChat},
	}

	for _, step := range steps {
		if err := step.run(); err != nil {
			return fmt.Errorf("%s validation failed: %w", step.name, err)
		}
		log.Info("Endpoints valid", "group", step.name)
	}

	log.Info("All endpoints passed validation")
	return nil
}

func (v *APIValidator) validateHealth() error {
	resp, err := v.makeRequest(http.MethodGet, "/health", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return expectStatus(resp, "GET /health", http.StatusOK)
}

func (v *APIValidator) validateAuth() error {
	creds := models.RegisterRequest{
		Username: "smoke-" + uuid.New().String()[:8],
		Password: "smoke-password",
	}

	resp, err := v.makeRequest(http.MethodPost, "/api/auth/register", creds)
	if err != nil {
		return err
	}
	if err := expectStatus(resp, "POST /api/auth/register", http.StatusCreated); err != nil {
		resp.Body.Close()
		return err
	}
	resp.Body.Close()

	resp, err = v.makeRequest(http.MethodPost, "/api/auth/login", models.LoginRequest{
		Username: creds.Username,
		Password: creds.Password,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := expectStatus(resp, "POST /api/auth/login", http.StatusOK); err != nil {
		return err
	}

	var auth models.AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return fmt.Errorf("POST /api/auth/login: failed to decode response: %w", err)
	}
	if auth.Token == "" || auth.User == nil || auth.User.Username != creds.Username {
		return fmt.Errorf("POST /api/auth/login: unexpected response")
	}
	v.token = auth.Token

	resp, err = v.makeRequest(http.MethodGet, "/api/auth/me", nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return expectStatus(resp, "GET /api/auth/me", http.StatusOK)
}

func (v *APIValidator) validateEvents() error {
	resp, err := v.makeRequest(http.MethodGet, "/api/events?page=1&pageSize=10", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := expectStatus(resp, "GET /api/events", http.StatusOK); err != nil {
		return err
	}

	var page models.ListEventsResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return fmt.Errorf("GET /api/events: failed to decode response: %w", err)
	}
	if page.Page != 1 || page.PageSize != 10 {
		return fmt.Errorf("GET /api/events: unexpected paging %d/%d", page.Page, page.PageSize)
	}

	checks := []struct {
		method, path string
		status       int
	}{
		{http.MethodGet, "/api/events?pageSize=500", http.StatusBadRequest},
		{http.MethodGet, "/api/events/calendar", http.StatusOK},
		{http.MethodGet, "/api/events/calendar?from=2025-05-10&to=2025-05-01", http.StatusBadRequest},
		{http.MethodGet, "/api/events/999999999", http.StatusNotFound},
		// обычный пользователь не может создавать события
		{http.MethodPost, "/api/events", http.StatusForbidden},
	}
	for _, check := range checks {
		var body interface{}
		if check.method == http.MethodPost {
			body = models.EventInput{Title: "Smoke", Date: "2025-05-01"}
		}
		resp, err := v.makeRequest(check.method, check.path, body)
		if err != nil {
			return err
		}
		resp.Body.Close()
		if err := expectStatus(resp, check.method+" "+check.path, check.status); err != nil {
			return err
		}
	}
	return nil
}

func (v *APIValidator) validateNotifications() error {
	resp, err := v.makeRequest(http.MethodGet, "/api/notifications", nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if err := expectStatus(resp, "GET /api/notifications", http.StatusOK); err != nil {
		return err
	}

	token := v.token
	v.token = ""
	defer func() { v.token = token }()

	resp, err = v.makeRequest(http.MethodGet, "/api/notifications", nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return expectStatus(resp, "GET /api/notifications without token", http.StatusUnauthorized)
}

func (v *APIValidator) validateChat() error {
	resp, err := v.makeRequest(http.MethodPost, "/api/chat", models.ChatRequest{
		Messages: []models.ChatMessage{{Role: "user", Content: "hello"}},
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := expectStatus(resp, "POST /api/chat", http.StatusOK); err != nil {
		return err
	}

	frames := 0
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		if line == "data: [DONE]" {
			if frames == 0 {
				return fmt.Errorf("POST /api/chat: stream finished without tokens")
			}
			return nil
		}
		frames++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("POST /api/chat: failed to read stream: %w", err)
	}
	return fmt.Errorf("POST /api/chat: stream ended without [DONE]")
}

func expectStatus(resp *http.Response, what string, want int) error {
	if resp.StatusCode != want {
		return fmt.Errorf("%s: expected %d, got %d", what, want, resp.StatusCode)
	}
	return nil
}

func (v *APIValidator) makeRequest(method, path string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, v.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if v.token != "" {
		req.Header.Set("Authorization", "Bearer "+v.token)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	return resp, nil
}

// RunValidation запускает валидацию API
func RunValidation() {
	validator := NewAPIValidator("http://localhost:8081")
	if err := validator.ValidateAll(); err != nil {
		logger.Fatal("Validation failed", "error", err)
	}
}
