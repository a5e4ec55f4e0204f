package external

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
)

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(1999), toMinorUnits(19.99))
	assert.Equal(t, int64(2500), toMinorUnits(25))
	assert.Equal(t, int64(0), toMinorUnits(0))
}

func TestNewCheckoutGatewayFallsBackToMock(t *testing.T) {
	gw := NewCheckoutGateway(PaymentConfig{})
	assert.Equal(t, "mock", gw.Name())
}

func TestMockGatewaySessionLifecycle(t *testing.T) {
	gw := NewMockGateway(PaymentConfig{SuccessURL: "http://localhost/success?session_id={CHECKOUT_SESSION_ID}"})
	ctx := context.Background()

	created, err := gw.CreateCheckoutSession(ctx, CheckoutRequest{RegistrationID: 7, UnitPrice: 10, Quantity: 2})
	require.NoError(t, err)
	assert.Contains(t, created.URL, created.ID)

	fetched, err := gw.GetCheckoutSession(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, fetched.Paid)
	assert.Equal(t, int64(7), fetched.RegistrationID)

	require.NoError(t, gw.Refund(ctx, fetched.PaymentIntentID, 20))
	assert.Equal(t, 20.0, gw.Refunded(fetched.PaymentIntentID))

	_, err = gw.GetCheckoutSession(ctx, "cs_unknown")
	assert.Error(t, err)
}

func TestMockGatewayParseWebhook(t *testing.T) {
	gw := NewMockGateway(PaymentConfig{})

	evt, err := gw.ParseWebhook([]byte(`{"type":"checkout.session.expired","sessionId":"cs_1","registrationId":3}`), "")
	require.NoError(t, err)
	assert.Equal(t, WebhookCheckoutExpired, evt.Type)
	assert.Equal(t, int64(3), evt.RegistrationID)

	_, err = gw.ParseWebhook([]byte("not json"), "")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestCheckoutExpiryClampsToStripeWindow(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, now.Add(stripeMinSessionLifetime), checkoutExpiry(now.Add(30*time.Minute), now))
	assert.Equal(t, now.Add(stripeMinSessionLifetime), checkoutExpiry(now.Add(-time.Minute), now))
	assert.Equal(t, now.Add(2*time.Hour), checkoutExpiry(now.Add(2*time.Hour), now))
	assert.Equal(t, now.Add(stripeMaxSessionLifetime), checkoutExpiry(now.Add(48*time.Hour), now))
}

// stubStripe направляет клиент stripe-go на локальный сервер и возвращает форму запроса
func stubStripe(t *testing.T, response string) <-chan map[string][]string {
	t.Helper()
	forms := make(chan map[string][]string, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		forms <- r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
	})
	stripe.SetBackend(stripe.APIBackend, backend)
	t.Cleanup(func() { stripe.SetBackend(stripe.APIBackend, nil) })

	return forms
}

func TestStripeGatewaySendsSessionExpiry(t *testing.T) {
	forms := stubStripe(t, `{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.example/cs_test_1",`+
		`"payment_status":"unpaid","status":"open","client_reference_id":"7"}`)

	gw := NewStripeGateway(PaymentConfig{SecretKey: "sk_test_123", SuccessURL: "http://localhost/s", CancelURL: "http://localhost/c"})
	assert.Equal(t, stripeMinSessionLifetime, gw.MinSessionLifetime())

	start := time.Now()
	session, err := gw.CreateCheckoutSession(context.Background(), CheckoutRequest{
		RegistrationID: 7,
		EventTitle:     "Jazz Night",
		Email:          "ada@example.com",
		UnitPrice:      12.5,
		Quantity:       2,
		ExpiresAt:      start.Add(30 * time.Minute),
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", session.ID)
	assert.Equal(t, int64(7), session.RegistrationID)

	form := <-forms
	require.NotEmpty(t, form["expires_at"])
	expiresAt, err := strconv.ParseInt(form["expires_at"][0], 10, 64)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, expiresAt, start.Add(stripeMinSessionLifetime).Unix())
	assert.LessOrEqual(t, expiresAt, time.Now().Add(stripeMinSessionLifetime).Unix()+1)
	assert.Equal(t, []string{"1250"}, form["line_items[0][price_data][unit_amount]"])
}
