package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhive/internal/analytics"
	apperrors "eventhive/internal/errors"
	"eventhive/internal/models"
)

type memoryEventCache struct {
	pages       map[int]*models.ListEventsResponse
	invalidated int
}

func (c *memoryEventCache) GetEventsPage(_ context.Context, page, _ int) (*models.ListEventsResponse, bool, error) {
	resp, ok := c.pages[page]
	return resp, ok, nil
}

func (c *memoryEventCache) SetEventsPage(_ context.Context, resp *models.ListEventsResponse) error {
	if c.pages == nil {
		c.pages = map[int]*models.ListEventsResponse{}
	}
	c.pages[resp.Page] = resp
	return nil
}

func (c *memoryEventCache) InvalidateEvents(context.Context) error {
	c.invalidated++
	c.pages = nil
	return nil
}

type stubSearcher struct {
	ids     []int64
	err     error
	indexed []int64
	deleted []int64
}

func (s *stubSearcher) Search(context.Context, models.ListEventsFilter) ([]int64, error) {
	return s.ids, s.err
}

func (s *stubSearcher) IndexEvent(_ context.Context, event *models.Event) error {
	s.indexed = append(s.indexed, event.ID)
	return nil
}

func (s *stubSearcher) DeleteEvent(_ context.Context, id int64) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func TestListEventsUsesCacheForPlainPages(t *testing.T) {
	store := newFakeEvents(&models.Event{ID: 1, Title: "A", Date: "2025-05-01"})
	cache := &memoryEventCache{}
	svc := NewEventService(store, cache, nil)
	ctx := context.Background()

	first, err := svc.List(ctx, models.ListEventsFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Page)
	assert.Equal(t, 20, first.PageSize)

	_, err = svc.List(ctx, models.ListEventsFilter{Page: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, store.listed)
}

func TestListEventsClampsPageSize(t *testing.T) {
	svc := NewEventService(newFakeEvents(), nil, nil)

	resp, err := svc.List(context.Background(), models.ListEventsFilter{PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, 100, resp.PageSize)
}

func TestListEventsSearchFallsBackToDatabase(t *testing.T) {
	store := newFakeEvents(
		&models.Event{ID: 1, Title: "Jazz Night"},
		&models.Event{ID: 2, Title: "Rock Night"},
	)
	search := &stubSearcher{ids: []int64{2}}
	svc := NewEventService(store, nil, search)
	ctx := context.Background()
	filter := models.ListEventsFilter{Query: "rock"}

	resp, err := svc.List(ctx, filter)
	require.NoError(t, err)
	require.Len(t, resp.Events, 1)
	assert.Equal(t, int64(2), resp.Events[0].ID)
	assert.Zero(t, store.listed)

	search.err = errors.New("cluster unavailable")
	_, err = svc.List(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 1, store.listed)
}

func TestListEventsRejectsBadDate(t *testing.T) {
	svc := NewEventService(newFakeEvents(), nil, nil)

	_, err := svc.List(context.Background(), models.ListEventsFilter{Date: "05/01/2025"})
	assert.ErrorIs(t, err, analytics.ErrInvalidDate)
}

func TestCalendarGroupsByDate(t *testing.T) {
	store := newFakeEvents(
		&models.Event{ID: 1, Title: "Opening", Date: "2025-05-01"},
		&models.Event{ID: 2, Title: "Workshop", Date: "2025-05-01"},
		&models.Event{ID: 3, Title: "Closing", Date: "2025-05-03"},
	)
	svc := NewEventService(store, nil, nil)

	days, err := svc.Calendar(context.Background(), "2025-05-01", "2025-05-31")
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "2025-05-01", days[0].Date)
	assert.Len(t, days[0].Events, 2)
	assert.Equal(t, "2025-05-03", days[1].Date)
	assert.Len(t, days[1].Events, 1)
}

func TestCalendarValidatesRange(t *testing.T) {
	svc := NewEventService(newFakeEvents(), nil, nil)
	ctx := context.Background()

	_, err := svc.Calendar(ctx, "2025-05-10", "2025-05-01")
	assert.ErrorIs(t, err, analytics.ErrInvalidRange)

	_, err = svc.Calendar(ctx, "tomorrow", "")
	assert.ErrorIs(t, err, analytics.ErrInvalidDate)
}

func TestCreateEventValidation(t *testing.T) {
	svc := NewEventService(newFakeEvents(), nil, nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		input models.EventInput
		want  error
	}{
		{"empty title", models.EventInput{Title: " ", Date: "2025-05-01"}, apperrors.ErrValidation},
		{"bad date", models.EventInput{Title: "Expo", Date: "2025-13-01"}, analytics.ErrInvalidDate},
		{"paid without price", models.EventInput{Title: "Expo", Date: "2025-05-01", IsPaid: true}, apperrors.ErrValidation},
		{"min above max", models.EventInput{Title: "Expo", Date: "2025-05-01", MinRegistrations: 10, MaxRegistrations: 5}, apperrors.ErrValidation},
		{"unknown status", models.EventInput{Title: "Expo", Date: "2025-05-01", Status: "archived"}, apperrors.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, 1, &tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEventWritesIndexAndInvalidate(t *testing.T) {
	store := newFakeEvents()
	cache := &memoryEventCache{}
	search := &stubSearcher{}
	svc := NewEventService(store, cache, search)
	ctx := context.Background()

	event, err := svc.Create(ctx, 9, &models.EventInput{Title: "Expo", Date: "2025-05-01", TicketsAvailable: 50})
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusActive, event.Status)
	assert.Equal(t, int64(9), *event.OrganizerID)

	require.NoError(t, svc.Delete(ctx, event.ID))
	assert.Equal(t, []int64{event.ID}, search.indexed)
	assert.Equal(t, []int64{event.ID}, search.deleted)
	assert.Equal(t, 2, cache.invalidated)

	assert.ErrorIs(t, svc.Delete(ctx, event.ID), apperrors.ErrNotFound)
	_, err = svc.Get(ctx, event.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
