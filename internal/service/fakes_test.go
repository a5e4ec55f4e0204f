package service

import (
	"context"
	"sync"
	"time"

	apperrors "eventhive/internal/errors"
	"eventhive/internal/models"
)

type fakeEvents struct {
	mu     sync.Mutex
	events map[int64]*models.Event
	listed int
}

func newFakeEvents(events ...*models.Event) *fakeEvents {
	f := &fakeEvents{events: map[int64]*models.Event{}}
	for _, e := range events {
		f.events[e.ID] = e
	}
	return f
}

func (f *fakeEvents) Create(_ context.Context, event *models.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	event.ID = int64(len(f.events) + 1)
	f.events[event.ID] = event
	return nil
}

func (f *fakeEvents) GetByID(_ context.Context, id int64) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return nil, nil
	}
	copied := *e
	return &copied, nil
}

func (f *fakeEvents) Update(_ context.Context, event *models.Event) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[event.ID]; !ok {
		return false, nil
	}
	f.events[event.ID] = event
	return true, nil
}

func (f *fakeEvents) UpdateStatus(_ context.Context, id int64, status models.EventStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if ok {
		e.Status = status
	}
	return ok, nil
}

func (f *fakeEvents) Delete(_ context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.events[id]
	delete(f.events, id)
	return ok, nil
}

func (f *fakeEvents) List(_ context.Context, _ models.ListEventsFilter) ([]models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listed++
	out := []models.Event{}
	for _, e := range f.events {
		out = append(out, *e)
	}
	return out, nil
}

func (f *fakeEvents) ListByIDs(ctx context.Context, ids []int64) ([]models.Event, error) {
	out := []models.Event{}
	for _, id := range ids {
		if e, _ := f.GetByID(ctx, id); e != nil {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeEvents) ListByDateRange(_ context.Context, _, _ string) ([]models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Event{}
	for id := int64(1); id <= int64(len(f.events)); id++ {
		if e, ok := f.events[id]; ok {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeEvents) Counts(_ context.Context) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	active := 0
	for _, e := range f.events {
		if e.Status == models.EventStatusActive {
			active++
		}
	}
	return len(f.events), active, nil
}

// fakeRegistrations повторяет транзакционную семантику репозитория в памяти
type fakeRegistrations struct {
	mu     sync.Mutex
	events *fakeEvents
	regs   map[int64]*models.Registration
	nextID int64
}

func newFakeRegistrations(events *fakeEvents) *fakeRegistrations {
	return &fakeRegistrations{events: events, regs: map[int64]*models.Registration{}}
}

func (f *fakeRegistrations) CreateWithReservation(_ context.Context, reg *models.Registration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events.mu.Lock()
	defer f.events.mu.Unlock()

	event := f.events.events[reg.EventID]
	if event.TicketsAvailable < reg.TicketQuantity {
		return apperrors.ErrSoldOut
	}
	event.TicketsAvailable -= reg.TicketQuantity

	f.nextID++
	reg.ID = f.nextID
	reg.CreatedAt = time.Now()
	copied := *reg
	f.regs[reg.ID] = &copied
	return nil
}

func (f *fakeRegistrations) find(match func(*models.Registration) bool) (*models.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.regs {
		if match(r) {
			copied := *r
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeRegistrations) GetByID(_ context.Context, id int64) (*models.Registration, error) {
	return f.find(func(r *models.Registration) bool { return r.ID == id })
}

func (f *fakeRegistrations) GetByCode(_ context.Context, code string) (*models.Registration, error) {
	return f.find(func(r *models.Registration) bool { return r.ConfirmationCode == code })
}

func (f *fakeRegistrations) GetBySessionID(_ context.Context, sessionID string) (*models.Registration, error) {
	return f.find(func(r *models.Registration) bool {
		return r.CheckoutSessionID != nil && *r.CheckoutSessionID == sessionID
	})
}

func (f *fakeRegistrations) GetByPaymentIntent(_ context.Context, intentID string) (*models.Registration, error) {
	return f.find(func(r *models.Registration) bool {
		return r.PaymentIntentID != nil && *r.PaymentIntentID == intentID
	})
}

func (f *fakeRegistrations) list(match func(*models.Registration) bool) []models.Registration {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Registration{}
	for id := int64(1); id <= f.nextID; id++ {
		if r, ok := f.regs[id]; ok && match(r) {
			out = append(out, *r)
		}
	}
	return out
}

func (f *fakeRegistrations) ListByEvent(_ context.Context, eventID int64) ([]models.Registration, error) {
	return f.list(func(r *models.Registration) bool { return r.EventID == eventID }), nil
}

func (f *fakeRegistrations) ListByUser(_ context.Context, userID int64) ([]models.Registration, error) {
	return f.list(func(r *models.Registration) bool { return r.UserID != nil && *r.UserID == userID }), nil
}

func (f *fakeRegistrations) ListStalePending(_ context.Context, before time.Time, limit int) ([]models.Registration, error) {
	out := f.list(func(r *models.Registration) bool {
		return r.PaymentStatus == models.PaymentStatusPending && r.CreatedAt.Before(before)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRegistrations) SetCheckoutSession(_ context.Context, id int64, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regs[id].CheckoutSessionID = &sessionID
	return nil
}

func (f *fakeRegistrations) CompletePayment(_ context.Context, id int64, intentID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.regs[id]
	if !ok || r.PaymentStatus != models.PaymentStatusPending {
		return false, nil
	}
	r.PaymentStatus = models.PaymentStatusCompleted
	if intentID != "" {
		r.PaymentIntentID = &intentID
	}
	return true, nil
}

func (f *fakeRegistrations) ReleaseTickets(_ context.Context, id int64, from, to models.PaymentStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.regs[id]
	if !ok || r.PaymentStatus != from {
		return false, nil
	}
	r.PaymentStatus = to

	f.events.mu.Lock()
	f.events.events[r.EventID].TicketsAvailable += r.TicketQuantity
	f.events.mu.Unlock()
	return true, nil
}

func (f *fakeRegistrations) MarkLateRefund(_ context.Context, id int64, intentID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.regs[id]
	if !ok || r.PaymentStatus != models.PaymentStatusFailed {
		return false, nil
	}
	r.PaymentStatus = models.PaymentStatusRefunded
	r.PaymentIntentID = &intentID
	return true, nil
}

func (f *fakeRegistrations) CheckIn(_ context.Context, id int64) (*models.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.regs[id]
	if !ok {
		return nil, nil
	}
	now := time.Now()
	r.CheckInStatus = true
	r.CheckedInAt = &now
	copied := *r
	return &copied, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []*models.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, notification *models.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
}

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	fail     error
}

func (p *recordingPublisher) Publish(subject string, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return p.fail
}

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) InvalidateEvents(context.Context) error {
	c.calls++
	return nil
}
