package external

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MockGateway implements CheckoutGateway for local runs and tests.
// Сессии считаются оплаченными, как только пользователь открыл success URL.
type MockGateway struct {
	config   PaymentConfig
	mu       sync.RWMutex
	sessions map[string]*CheckoutSession
	refunds  map[string]float64
}

func NewMockGateway(cfg PaymentConfig) *MockGateway {
	return &MockGateway{
		config:   cfg,
		sessions: make(map[string]*CheckoutSession),
		refunds:  make(map[string]float64),
	}
}

func (g *MockGateway) Name() string {
	return "mock"
}

func (g *MockGateway) CreateCheckoutSession(_ context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}

	id := "cs_mock_" + strings.ReplaceAll(uuid.New().String(), "-", "")
	url := strings.ReplaceAll(g.config.SuccessURL, "{CHECKOUT_SESSION_ID}", id)
	if url == "" {
		url = "/api/payments/success?session_id=" + id
	}

	s := &CheckoutSession{
		ID:              id,
		URL:             url,
		Paid:            true,
		PaymentIntentID: "pi_mock_" + id[len("cs_mock_"):],
		RegistrationID:  req.RegistrationID,
	}

	g.mu.Lock()
	g.sessions[id] = s
	g.mu.Unlock()

	copied := *s
	return &copied, nil
}

func (g *MockGateway) GetCheckoutSession(_ context.Context, sessionID string) (*CheckoutSession, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	s, ok := g.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("checkout session %s not found", sessionID)
	}
	copied := *s
	return &copied, nil
}

func (g *MockGateway) Refund(_ context.Context, paymentIntentID string, amount float64) error {
	if paymentIntentID == "" {
		return fmt.Errorf("payment intent ID is required")
	}

	g.mu.Lock()
	g.refunds[paymentIntentID] += amount
	g.mu.Unlock()
	return nil
}

// Refunded возвращает сумму возвратов по платежу
func (g *MockGateway) Refunded(paymentIntentID string) float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.refunds[paymentIntentID]
}

// ParseWebhook принимает неподписанный JSON вида {"type", "sessionId", "paymentIntentId", "registrationId"}
func (g *MockGateway) ParseWebhook(payload []byte, _ string) (*WebhookEvent, error) {
	var body struct {
		Type            string `json:"type"`
		SessionID       string `json:"sessionId"`
		PaymentIntentID string `json:"paymentIntentId"`
		RegistrationID  int64  `json:"registrationId"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	return &WebhookEvent{
		Type:            body.Type,
		SessionID:       body.SessionID,
		PaymentIntentID: body.PaymentIntentID,
		RegistrationID:  body.RegistrationID,
	}, nil
}
