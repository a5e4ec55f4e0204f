package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "eventhive/internal/errors"
	"eventhive/internal/external"
	"eventhive/internal/logger"
	"eventhive/internal/messaging"
	"eventhive/internal/metrics"
	"eventhive/internal/models"
	"eventhive/internal/tickets"
)

const (
	defaultPendingTimeout = 30 * time.Minute
	expireBatchSize       = 100
)

type RegistrationStore interface {
	CreateWithReservation(ctx context.Context, reg *models.Registration) error
	GetByID(ctx context.Context, id int64) (*models.Registration, error)
	GetByCode(ctx context.Context, code string) (*models.Registration, error)
	GetBySessionID(ctx context.Context, sessionID string) (*models.Registration, error)
	GetByPaymentIntent(ctx context.Context, intentID string) (*models.Registration, error)
	ListByEvent(ctx context.Context, eventID int64) ([]models.Registration, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Registration, error)
	ListStalePending(ctx context.Context, before time.Time, limit int) ([]models.Registration, error)
	SetCheckoutSession(ctx context.Context, id int64, sessionID string) error
	CompletePayment(ctx context.Context, id int64, paymentIntentID string) (bool, error)
	ReleaseTickets(ctx context.Context, id int64, from, to models.PaymentStatus) (bool, error)
	CheckIn(ctx context.Context, id int64) (*models.Registration, error)
	MarkLateRefund(ctx context.Context, id int64, paymentIntentID string) (bool, error)
}

// sessionLifetimer - провайдер с минимальным сроком жизни платежной сессии
type sessionLifetimer interface {
	MinSessionLifetime() time.Duration
}

// EventInvalidator сбрасывает кеш списка событий, когда меняется число билетов
type EventInvalidator interface {
	InvalidateEvents(ctx context.Context) error
}

type RegistrationService struct {
	registrations  RegistrationStore
	events         EventGetter
	gateway        external.CheckoutGateway
	notifier       Notifier
	publisher      messaging.Publisher
	cache          EventInvalidator
	pendingTimeout time.Duration
	now            func() time.Time
}

func NewRegistrationService(
	registrations RegistrationStore,
	events EventGetter,
	gateway external.CheckoutGateway,
	notifier Notifier,
	publisher messaging.Publisher,
	cache EventInvalidator,
	pendingTimeout time.Duration,
) *RegistrationService {
	if pendingTimeout <= 0 {
		pendingTimeout = defaultPendingTimeout
	}
	// Регистрация не должна истечь раньше, чем провайдер закроет сессию оплаты
	if lt, ok := gateway.(sessionLifetimer); ok && pendingTimeout < lt.MinSessionLifetime() {
		logger.Get().Warn("Pending timeout raised to the gateway session lifetime",
			"configured", pendingTimeout.String(), "effective", lt.MinSessionLifetime().String())
		pendingTimeout = lt.MinSessionLifetime()
	}
	return &RegistrationService{
		registrations:  registrations,
		events:         events,
		gateway:        gateway,
		notifier:       notifier,
		publisher:      publisher,
		cache:          cache,
		pendingTimeout: pendingTimeout,
		now:            time.Now,
	}
}

// NewConfirmationCode - короткий код для QR и поиска регистрации
func NewConfirmationCode() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "EH-" + strings.ToUpper(raw[:10])
}

func (s *RegistrationService) event(ctx context.Context, id int64) (*models.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, apperrors.ErrNotFound
	}
	return event, nil
}

// Create регистрирует участника. Бесплатное событие сразу дает free,
// платное дает pending и ссылку на оплату.
func (s *RegistrationService) Create(ctx context.Context, eventID int64, user *models.User, req *models.CreateRegistrationRequest) (*models.CreateRegistrationResponse, error) {
	event, err := s.event(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if event.Status != models.EventStatusActive {
		return nil, fmt.Errorf("event is %s: %w", event.Status, apperrors.ErrRegistrationClosed)
	}
	if event.RegistrationDeadline != nil && s.now().After(*event.RegistrationDeadline) {
		return nil, fmt.Errorf("deadline passed: %w", apperrors.ErrRegistrationClosed)
	}

	quantity := req.TicketQuantity
	if quantity <= 0 {
		quantity = 1
	}
	if quantity > event.TicketsAvailable {
		return nil, apperrors.ErrSoldOut
	}

	paid := event.IsPaid && event.Price > 0
	reg := &models.Registration{
		EventID:          event.ID,
		FirstName:        strings.TrimSpace(req.FirstName),
		LastName:         strings.TrimSpace(req.LastName),
		Email:            strings.TrimSpace(req.Email),
		Phone:            strings.TrimSpace(req.Phone),
		TicketQuantity:   quantity,
		PaymentStatus:    models.PaymentStatusFree,
		ConfirmationCode: NewConfirmationCode(),
	}
	if user != nil {
		reg.UserID = &user.ID
	}
	if paid {
		reg.PaymentStatus = models.PaymentStatusPending
		reg.TotalAmount = math.Round(event.Price*float64(quantity)*100) / 100
	}

	if err := s.registrations.CreateWithReservation(ctx, reg); err != nil {
		return nil, fmt.Errorf("failed to create registration: %w", err)
	}
	s.invalidateEvents(ctx)

	resp := &models.CreateRegistrationResponse{Registration: reg}

	if paid {
		session, err := s.gateway.CreateCheckoutSession(ctx, external.CheckoutRequest{
			RegistrationID:   reg.ID,
			ConfirmationCode: reg.ConfirmationCode,
			EventTitle:       event.Title,
			Email:            reg.Email,
			UnitPrice:        event.Price,
			Quantity:         quantity,
			ExpiresAt:        s.now().Add(s.pendingTimeout),
		})
		if err != nil {
			if _, releaseErr := s.registrations.ReleaseTickets(ctx, reg.ID, models.PaymentStatusPending, models.PaymentStatusFailed); releaseErr != nil {
				logger.WithContext(ctx).Error("Failed to release tickets after checkout error",
					"error", releaseErr, "registration_id", reg.ID)
			}
			return nil, fmt.Errorf("failed to create checkout session: %w", err)
		}

		if err := s.registrations.SetCheckoutSession(ctx, reg.ID, session.ID); err != nil {
			return nil, fmt.Errorf("failed to store checkout session: %w", err)
		}
		reg.CheckoutSessionID = &session.ID
		resp.CheckoutURL = session.URL
	}

	metrics.Registrations.WithLabelValues(string(reg.PaymentStatus)).Inc()
	s.announce(ctx, models.EventRegistrationCreated, reg)
	s.notifyCreated(ctx, event, reg)

	return resp, nil
}

func (s *RegistrationService) notifyCreated(ctx context.Context, event *models.Event, reg *models.Registration) {
	metadata := models.EventMetadata{
		EventID:          event.ID,
		EventTitle:       event.Title,
		RegistrationID:   reg.ID,
		ConfirmationCode: reg.ConfirmationCode,
		TicketQuantity:   reg.TicketQuantity,
		PaymentStatus:    reg.PaymentStatus,
	}

	s.notifier.Notify(ctx, models.NewNotification(models.AudienceAdmins, nil,
		"New registration",
		fmt.Sprintf("%s registered for %q (%d tickets)", reg.FullName(), event.Title, reg.TicketQuantity),
		metadata))

	if reg.UserID != nil {
		s.notifier.Notify(ctx, models.NewNotification(models.AudienceUser, reg.UserID,
			"Registration received",
			fmt.Sprintf("You are registered for %q. Confirmation code %s.", event.Title, reg.ConfirmationCode),
			metadata))
	}
}

func (s *RegistrationService) notifyUser(ctx context.Context, reg *models.Registration, title, message string) {
	if reg.UserID == nil {
		return
	}
	s.notifier.Notify(ctx, models.NewNotification(models.AudienceUser, reg.UserID, title, message,
		models.EventMetadata{
			EventID:          reg.EventID,
			RegistrationID:   reg.ID,
			ConfirmationCode: reg.ConfirmationCode,
			TicketQuantity:   reg.TicketQuantity,
			PaymentStatus:    reg.PaymentStatus,
		}))
}

func (s *RegistrationService) announce(ctx context.Context, subject string, reg *models.Registration) {
	publish(ctx, s.publisher, subject, models.RegistrationEvent{
		RegistrationID: reg.ID,
		EventID:        reg.EventID,
		UserID:         reg.UserID,
		PaymentStatus:  reg.PaymentStatus,
		TicketQuantity: reg.TicketQuantity,
		CheckedIn:      reg.CheckInStatus,
		Timestamp:      s.now(),
	})
}

func (s *RegistrationService) invalidateEvents(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateEvents(ctx); err != nil {
		logger.WithContext(ctx).Warn("Failed to invalidate events cache", "error", err)
	}
}

func (s *RegistrationService) ListByEvent(ctx context.Context, eventID int64) ([]models.Registration, error) {
	if _, err := s.event(ctx, eventID); err != nil {
		return nil, err
	}
	regs, err := s.registrations.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	return regs, nil
}

func (s *RegistrationService) ListMine(ctx context.Context, userID int64) ([]models.Registration, error) {
	regs, err := s.registrations.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	return regs, nil
}

func (s *RegistrationService) GetByCode(ctx context.Context, code string) (*models.Registration, error) {
	reg, err := s.registrations.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}
	if reg == nil {
		return nil, apperrors.ErrNotFound
	}
	return reg, nil
}

func (s *RegistrationService) byID(ctx context.Context, id int64) (*models.Registration, error) {
	reg, err := s.registrations.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}
	if reg == nil {
		return nil, apperrors.ErrNotFound
	}
	return reg, nil
}

func (s *RegistrationService) QRCode(ctx context.Context, code string) ([]byte, error) {
	reg, err := s.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return tickets.QRCodePNG(reg.ConfirmationCode, tickets.DefaultQRSize)
}

// Ticket выдает PDF только для подтвержденных регистраций
func (s *RegistrationService) Ticket(ctx context.Context, code string) ([]byte, error) {
	reg, err := s.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !confirmed(reg) {
		return nil, fmt.Errorf("registration is %s: %w", reg.PaymentStatus, apperrors.ErrPaymentState)
	}

	event, err := s.event(ctx, reg.EventID)
	if err != nil {
		return nil, err
	}
	return tickets.TicketPDF(event, reg)
}

func confirmed(reg *models.Registration) bool {
	return reg.PaymentStatus == models.PaymentStatusCompleted || reg.PaymentStatus == models.PaymentStatusFree
}

// CompleteCheckout обрабатывает возврат с платежной страницы
func (s *RegistrationService) CompleteCheckout(ctx context.Context, sessionID string) (*models.Registration, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session_id is required: %w", apperrors.ErrValidation)
	}

	reg, err := s.registrations.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}
	if reg == nil {
		return nil, apperrors.ErrNotFound
	}
	if reg.PaymentStatus == models.PaymentStatusCompleted || reg.PaymentStatus == models.PaymentStatusRefunded {
		return reg, nil
	}

	session, err := s.gateway.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify checkout session: %w", err)
	}
	if !session.Paid {
		return nil, fmt.Errorf("checkout session is not paid: %w", apperrors.ErrPaymentState)
	}

	return s.complete(ctx, reg.ID, session.PaymentIntentID)
}

func (s *RegistrationService) complete(ctx context.Context, id int64, paymentIntentID string) (*models.Registration, error) {
	ok, err := s.registrations.CompletePayment(ctx, id, paymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("failed to complete payment: %w", err)
	}

	reg, err := s.byID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		switch reg.PaymentStatus {
		case models.PaymentStatusCompleted:
			return reg, nil
		case models.PaymentStatusFailed:
			return s.refundLatePayment(ctx, reg, paymentIntentID)
		}
		return nil, fmt.Errorf("registration is %s: %w", reg.PaymentStatus, apperrors.ErrPaymentState)
	}

	metrics.Registrations.WithLabelValues(string(reg.PaymentStatus)).Inc()
	s.announce(ctx, models.EventRegistrationUpdated, reg)
	s.notifyUser(ctx, reg, "Payment received",
		fmt.Sprintf("Your payment of %.2f is confirmed. Confirmation code %s.", reg.TotalAmount, reg.ConfirmationCode))
	return reg, nil
}

// refundLatePayment возвращает деньги за оплату, пришедшую после истечения регистрации.
// Билеты уже отпущены и могли быть проданы, поэтому регистрация не восстанавливается.
func (s *RegistrationService) refundLatePayment(ctx context.Context, reg *models.Registration, paymentIntentID string) (*models.Registration, error) {
	log := logger.WithContext(ctx).With("registration_id", reg.ID)
	if paymentIntentID == "" {
		log.Error("Late payment without payment intent, cannot refund")
		return nil, fmt.Errorf("late payment without payment intent: %w", apperrors.ErrPaymentState)
	}

	if err := s.gateway.Refund(ctx, paymentIntentID, reg.TotalAmount); err != nil {
		return nil, fmt.Errorf("failed to refund late payment: %w", err)
	}

	ok, err := s.registrations.MarkLateRefund(ctx, reg.ID, paymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark late refund: %w", err)
	}
	if !ok {
		return s.byID(ctx, reg.ID)
	}
	log.Warn("Payment arrived after registration expired, refunded", "payment_intent", paymentIntentID)

	reg.PaymentStatus = models.PaymentStatusRefunded
	reg.PaymentIntentID = &paymentIntentID
	metrics.Registrations.WithLabelValues(string(reg.PaymentStatus)).Inc()
	s.announce(ctx, models.EventRegistrationUpdated, reg)
	s.notifyUser(ctx, reg, "Payment refunded",
		fmt.Sprintf("Registration %s expired before the payment arrived, %.2f was refunded.",
			reg.ConfirmationCode, reg.TotalAmount))
	return reg, nil
}

// CancelCheckout переводит неоплаченную регистрацию в failed и возвращает билеты
func (s *RegistrationService) CancelCheckout(ctx context.Context, sessionID string) (*models.Registration, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session_id is required: %w", apperrors.ErrValidation)
	}

	reg, err := s.registrations.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}
	if reg == nil {
		return nil, apperrors.ErrNotFound
	}

	return s.fail(ctx, reg)
}

func (s *RegistrationService) fail(ctx context.Context, reg *models.Registration) (*models.Registration, error) {
	ok, err := s.registrations.ReleaseTickets(ctx, reg.ID, models.PaymentStatusPending, models.PaymentStatusFailed)
	if err != nil {
		return nil, fmt.Errorf("failed to release tickets: %w", err)
	}
	if !ok {
		return s.byID(ctx, reg.ID)
	}

	reg.PaymentStatus = models.PaymentStatusFailed
	metrics.Registrations.WithLabelValues(string(reg.PaymentStatus)).Inc()
	s.invalidateEvents(ctx)
	s.announce(ctx, models.EventRegistrationUpdated, reg)
	return reg, nil
}

// HandleWebhook применяет событие платежного провайдера
func (s *RegistrationService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	evt, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, external.ErrInvalidSignature) {
			return fmt.Errorf("%v: %w", err, apperrors.ErrValidation)
		}
		return err
	}

	log := logger.WithContext(ctx).With("webhook_type", evt.Type, "session_id", evt.SessionID)

	switch evt.Type {
	case external.WebhookCheckoutCompleted, external.WebhookCheckoutExpired:
		reg, err := s.webhookRegistration(ctx, evt)
		if err != nil {
			return err
		}
		if reg == nil {
			log.Warn("Webhook for unknown registration")
			return nil
		}
		if evt.Type == external.WebhookCheckoutCompleted {
			_, err = s.complete(ctx, reg.ID, evt.PaymentIntentID)
		} else {
			_, err = s.fail(ctx, reg)
		}
		if errors.Is(err, apperrors.ErrPaymentState) {
			log.Info("Webhook ignored, registration already settled", "registration_id", reg.ID)
			return nil
		}
		return err

	case external.WebhookChargeRefunded:
		if evt.PaymentIntentID == "" {
			return nil
		}
		reg, err := s.registrations.GetByPaymentIntent(ctx, evt.PaymentIntentID)
		if err != nil {
			return fmt.Errorf("failed to get registration: %w", err)
		}
		if reg == nil {
			log.Warn("Refund for unknown payment intent", "payment_intent", evt.PaymentIntentID)
			return nil
		}
		_, err = s.markRefunded(ctx, reg)
		return err
	}

	log.Info("Unhandled webhook event type")
	return nil
}

func (s *RegistrationService) webhookRegistration(ctx context.Context, evt *external.WebhookEvent) (*models.Registration, error) {
	if evt.SessionID != "" {
		reg, err := s.registrations.GetBySessionID(ctx, evt.SessionID)
		if err != nil || reg != nil {
			return reg, err
		}
	}
	if evt.RegistrationID > 0 {
		return s.registrations.GetByID(ctx, evt.RegistrationID)
	}
	return nil, nil
}

// CheckIn отмечает приход; неоплаченные регистрации не пропускаются
func (s *RegistrationService) CheckIn(ctx context.Context, id int64) (*models.Registration, error) {
	reg, err := s.byID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !confirmed(reg) {
		return nil, fmt.Errorf("registration is %s: %w", reg.PaymentStatus, apperrors.ErrPaymentState)
	}
	if reg.CheckInStatus {
		return reg, nil
	}

	reg, err = s.registrations.CheckIn(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check in: %w", err)
	}
	if reg == nil {
		return nil, apperrors.ErrNotFound
	}

	s.announce(ctx, models.EventRegistrationUpdated, reg)
	return reg, nil
}

// Refund возвращает деньги за оплаченную регистрацию
func (s *RegistrationService) Refund(ctx context.Context, id int64) (*models.Registration, error) {
	reg, err := s.byID(ctx, id)
	if err != nil {
		return nil, err
	}
	if reg.PaymentStatus != models.PaymentStatusCompleted || reg.PaymentIntentID == nil {
		return nil, fmt.Errorf("registration is %s: %w", reg.PaymentStatus, apperrors.ErrPaymentState)
	}

	if err := s.gateway.Refund(ctx, *reg.PaymentIntentID, reg.TotalAmount); err != nil {
		return nil, fmt.Errorf("failed to refund payment: %w", err)
	}

	return s.markRefunded(ctx, reg)
}

func (s *RegistrationService) markRefunded(ctx context.Context, reg *models.Registration) (*models.Registration, error) {
	ok, err := s.registrations.ReleaseTickets(ctx, reg.ID, models.PaymentStatusCompleted, models.PaymentStatusRefunded)
	if err != nil {
		return nil, fmt.Errorf("failed to mark refunded: %w", err)
	}
	if !ok {
		return s.byID(ctx, reg.ID)
	}

	reg.PaymentStatus = models.PaymentStatusRefunded
	metrics.Registrations.WithLabelValues(string(reg.PaymentStatus)).Inc()
	s.invalidateEvents(ctx)
	s.announce(ctx, models.EventRegistrationUpdated, reg)
	s.notifyUser(ctx, reg, "Payment refunded",
		fmt.Sprintf("%.2f was refunded for registration %s.", reg.TotalAmount, reg.ConfirmationCode))
	return reg, nil
}

// ExpireStale переводит зависшие pending в failed и возвращает число обработанных
func (s *RegistrationService) ExpireStale(ctx context.Context) (int, error) {
	before := s.now().Add(-s.pendingTimeout)

	stale, err := s.registrations.ListStalePending(ctx, before, expireBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale registrations: %w", err)
	}

	expired := 0
	for i := range stale {
		reg := &stale[i]
		ok, err := s.registrations.ReleaseTickets(ctx, reg.ID, models.PaymentStatusPending, models.PaymentStatusFailed)
		if err != nil {
			logger.WithContext(ctx).Error("Failed to expire registration", "error", err, "registration_id", reg.ID)
			continue
		}
		if !ok {
			continue
		}
		expired++
		reg.PaymentStatus = models.PaymentStatusFailed
		metrics.Registrations.WithLabelValues(string(reg.PaymentStatus)).Inc()
		s.announce(ctx, models.EventRegistrationUpdated, reg)
	}

	if expired > 0 {
		s.invalidateEvents(ctx)
	}
	return expired, nil
}
