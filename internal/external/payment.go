package external

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/refund"
	"github.com/stripe/stripe-go/v82/webhook"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

type PaymentConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	SuccessURL    string
	CancelURL     string
}

// CheckoutRequest - данные для создания платежной сессии по регистрации
type CheckoutRequest struct {
	RegistrationID   int64
	ConfirmationCode string
	EventTitle       string
	Email            string
	UnitPrice        float64
	Quantity         int
	ExpiresAt        time.Time
}

type CheckoutSession struct {
	ID              string
	URL             string
	Paid            bool
	Expired         bool
	PaymentIntentID string
	RegistrationID  int64
}

// Типы webhook-событий, на которые реагирует сервис
const (
	WebhookCheckoutCompleted = "checkout.session.completed"
	WebhookCheckoutExpired   = "checkout.session.expired"
	WebhookChargeRefunded    = "charge.refunded"
)

type WebhookEvent struct {
	Type            string
	SessionID       string
	PaymentIntentID string
	RegistrationID  int64
}

// CheckoutGateway - платежный провайдер, которым пользуется сервис регистраций
type CheckoutGateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
	Refund(ctx context.Context, paymentIntentID string, amount float64) error
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
	Name() string
}

// NewCheckoutGateway выбирает Stripe при наличии ключа, иначе mock
func NewCheckoutGateway(cfg PaymentConfig) CheckoutGateway {
	if cfg.SecretKey == "" {
		return NewMockGateway(cfg)
	}
	return NewStripeGateway(cfg)
}

// Stripe принимает expires_at от 30 минут до 24 часов от создания сессии.
// Запас в минуту покрывает задержку между расчетом срока и запросом.
const (
	stripeMinSessionLifetime = 30*time.Minute + time.Minute
	stripeMaxSessionLifetime = 24 * time.Hour
)

func checkoutExpiry(expiresAt, now time.Time) time.Time {
	if earliest := now.Add(stripeMinSessionLifetime); expiresAt.Before(earliest) {
		return earliest
	}
	if latest := now.Add(stripeMaxSessionLifetime); expiresAt.After(latest) {
		return latest
	}
	return expiresAt
}

func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// StripeGateway implements CheckoutGateway using Stripe Checkout
type StripeGateway struct {
	config PaymentConfig
}

func NewStripeGateway(cfg PaymentConfig) *StripeGateway {
	// Set Stripe API key globally
	stripe.Key = cfg.SecretKey
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	return &StripeGateway{config: cfg}
}

func (g *StripeGateway) Name() string {
	return "stripe"
}

// MinSessionLifetime - регистрация не должна истекать раньше, чем Stripe закроет сессию
func (g *StripeGateway) MinSessionLifetime() time.Duration {
	return stripeMinSessionLifetime
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	registrationID := strconv.FormatInt(req.RegistrationID, 10)

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(g.config.SuccessURL),
		CancelURL:         stripe.String(g.config.CancelURL),
		CustomerEmail:     stripe.String(req.Email),
		ClientReferenceID: stripe.String(registrationID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(g.config.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.EventTitle),
					},
					UnitAmount: stripe.Int64(toMinorUnits(req.UnitPrice)),
				},
				Quantity: stripe.Int64(int64(req.Quantity)),
			},
		},
		Metadata: map[string]string{
			"registration_id":   registrationID,
			"confirmation_code": req.ConfirmationCode,
		},
	}
	params.Context = ctx
	if !req.ExpiresAt.IsZero() {
		params.ExpiresAt = stripe.Int64(checkoutExpiry(req.ExpiresAt, time.Now()).Unix())
	}

	s, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return fromStripeSession(s), nil
}

func (g *StripeGateway) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session ID is required")
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := session.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get checkout session: %w", err)
	}

	return fromStripeSession(s), nil
}

// Refund processes a refund through Stripe
func (g *StripeGateway) Refund(ctx context.Context, paymentIntentID string, amount float64) error {
	if paymentIntentID == "" {
		return fmt.Errorf("payment intent ID is required")
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
		Amount:        stripe.Int64(toMinorUnits(amount)),
	}
	params.Context = ctx

	if _, err := refund.New(params); err != nil {
		return fmt.Errorf("failed to create refund: %w", err)
	}

	return nil
}

func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.config.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	result := &WebhookEvent{Type: string(event.Type)}

	switch result.Type {
	case WebhookCheckoutCompleted, WebhookCheckoutExpired:
		var s stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", result.Type, err)
		}
		parsed := fromStripeSession(&s)
		result.SessionID = parsed.ID
		result.PaymentIntentID = parsed.PaymentIntentID
		result.RegistrationID = parsed.RegistrationID
	case WebhookChargeRefunded:
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", result.Type, err)
		}
		if charge.PaymentIntent != nil {
			result.PaymentIntentID = charge.PaymentIntent.ID
		}
	}

	return result, nil
}

func fromStripeSession(s *stripe.CheckoutSession) *CheckoutSession {
	result := &CheckoutSession{
		ID:      s.ID,
		URL:     s.URL,
		Paid:    s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		Expired: s.Status == stripe.CheckoutSessionStatusExpired,
	}
	if s.PaymentIntent != nil {
		result.PaymentIntentID = s.PaymentIntent.ID
	}

	ref := s.ClientReferenceID
	if ref == "" {
		ref = s.Metadata["registration_id"]
	}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		result.RegistrationID = id
	}

	return result
}
