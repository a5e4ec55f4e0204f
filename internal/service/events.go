package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"eventhive/internal/analytics"
	apperrors "eventhive/internal/errors"
	"eventhive/internal/logger"
	"eventhive/internal/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	calendarSpan    = 31 * 24 * time.Hour
)

type EventStore interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	Update(ctx context.Context, event *models.Event) (bool, error)
	UpdateStatus(ctx context.Context, id int64, status models.EventStatus) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, filter models.ListEventsFilter) ([]models.Event, error)
	ListByIDs(ctx context.Context, ids []int64) ([]models.Event, error)
	ListByDateRange(ctx context.Context, from, to string) ([]models.Event, error)
}

type EventCache interface {
	GetEventsPage(ctx context.Context, page, pageSize int) (*models.ListEventsResponse, bool, error)
	SetEventsPage(ctx context.Context, resp *models.ListEventsResponse) error
	InvalidateEvents(ctx context.Context) error
}

type EventSearcher interface {
	Search(ctx context.Context, filter models.ListEventsFilter) ([]int64, error)
	IndexEvent(ctx context.Context, event *models.Event) error
	DeleteEvent(ctx context.Context, id int64) error
}

type EventService struct {
	events EventStore
	cache  EventCache
	search EventSearcher
}

func NewEventService(events EventStore, cache EventCache, search EventSearcher) *EventService {
	return &EventService{events: events, cache: cache, search: search}
}

func normalizePage(filter *models.ListEventsFilter) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = defaultPageSize
	}
	if filter.PageSize > maxPageSize {
		filter.PageSize = maxPageSize
	}
}

func (s *EventService) List(ctx context.Context, filter models.ListEventsFilter) (*models.ListEventsResponse, error) {
	normalizePage(&filter)
	log := logger.WithContext(ctx)

	if filter.Date != "" {
		if _, err := analytics.ParseDay(filter.Date); err != nil {
			return nil, err
		}
	}

	if filter.Cacheable() && s.cache != nil {
		cached, ok, err := s.cache.GetEventsPage(ctx, filter.Page, filter.PageSize)
		if err != nil {
			log.Warn("Events cache lookup failed", "error", err)
		} else if ok {
			return cached, nil
		}
	}

	events, err := s.find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	resp := &models.ListEventsResponse{Events: events, Page: filter.Page, PageSize: filter.PageSize}

	if filter.Cacheable() && s.cache != nil {
		if err := s.cache.SetEventsPage(ctx, resp); err != nil {
			log.Warn("Events cache write failed", "error", err)
		}
	}

	return resp, nil
}

// find идет в поисковый индекс для фильтрованных запросов и в базу в остальных случаях
func (s *EventService) find(ctx context.Context, filter models.ListEventsFilter) ([]models.Event, error) {
	if s.search != nil && !filter.Cacheable() {
		ids, err := s.search.Search(ctx, filter)
		if err == nil {
			return s.events.ListByIDs(ctx, ids)
		}
		logger.WithContext(ctx).Warn("Search failed, falling back to database", "error", err)
	}

	return s.events.List(ctx, filter)
}

// Calendar группирует события по дням в [from, to]
func (s *EventService) Calendar(ctx context.Context, from, to string) ([]models.CalendarDay, error) {
	if from == "" {
		from = time.Now().UTC().Format(analytics.DateLayout)
	}
	start, err := analytics.ParseDay(from)
	if err != nil {
		return nil, err
	}
	if to == "" {
		to = start.Add(calendarSpan).Format(analytics.DateLayout)
	}
	end, err := analytics.ParseDay(to)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, analytics.ErrInvalidRange
	}

	events, err := s.events.ListByDateRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendar events: %w", err)
	}

	days := []models.CalendarDay{}
	for _, event := range events {
		if n := len(days); n > 0 && days[n-1].Date == event.Date {
			days[n-1].Events = append(days[n-1].Events, event)
			continue
		}
		days = append(days, models.CalendarDay{Date: event.Date, Events: []models.Event{event}})
	}
	return days, nil
}

func (s *EventService) Get(ctx context.Context, id int64) (*models.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, apperrors.ErrNotFound
	}
	return event, nil
}

func validateEventInput(input *models.EventInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return fmt.Errorf("title is empty: %w", apperrors.ErrValidation)
	}
	if _, err := analytics.ParseDay(input.Date); err != nil {
		return err
	}
	if input.Status != "" && !input.Status.Valid() {
		return fmt.Errorf("status %q: %w", input.Status, apperrors.ErrValidation)
	}
	if input.MaxRegistrations > 0 && input.MinRegistrations > input.MaxRegistrations {
		return fmt.Errorf("minRegistrations exceeds maxRegistrations: %w", apperrors.ErrValidation)
	}
	if input.IsPaid && input.Price <= 0 {
		return fmt.Errorf("paid event needs a positive price: %w", apperrors.ErrValidation)
	}
	return nil
}

func applyEventInput(event *models.Event, input *models.EventInput) {
	event.Title = strings.TrimSpace(input.Title)
	event.Location = input.Location
	event.Description = input.Description
	event.Date = input.Date
	event.Time = input.Time
	event.Category = input.Category
	event.Image = input.Image
	event.Price = input.Price
	event.IsPaid = input.IsPaid
	event.TicketsAvailable = input.TicketsAvailable
	event.RegistrationDeadline = input.RegistrationDeadline
	event.MaxRegistrations = input.MaxRegistrations
	event.MinRegistrations = input.MinRegistrations
	event.Status = input.Status
	if event.Status == "" {
		event.Status = models.EventStatusActive
	}
}

func (s *EventService) Create(ctx context.Context, organizerID int64, input *models.EventInput) (*models.Event, error) {
	if err := validateEventInput(input); err != nil {
		return nil, err
	}

	event := &models.Event{OrganizerID: &organizerID}
	applyEventInput(event, input)

	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.afterWrite(ctx, event)
	return event, nil
}

func (s *EventService) Update(ctx context.Context, id int64, input *models.EventInput) (*models.Event, error) {
	if err := validateEventInput(input); err != nil {
		return nil, err
	}

	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyEventInput(event, input)

	ok, err := s.events.Update(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	if !ok {
		return nil, apperrors.ErrNotFound
	}

	s.afterWrite(ctx, event)
	return event, nil
}

func (s *EventService) UpdateStatus(ctx context.Context, id int64, status models.EventStatus) (*models.Event, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("status %q: %w", status, apperrors.ErrValidation)
	}

	ok, err := s.events.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("failed to update event status: %w", err)
	}
	if !ok {
		return nil, apperrors.ErrNotFound
	}

	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.afterWrite(ctx, event)
	return event, nil
}

func (s *EventService) Delete(ctx context.Context, id int64) error {
	ok, err := s.events.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if !ok {
		return apperrors.ErrNotFound
	}

	log := logger.WithContext(ctx)
	if s.search != nil {
		if err := s.search.DeleteEvent(ctx, id); err != nil {
			log.Error("Failed to remove event from search index", "error", err, "event_id", id)
		}
	}
	s.invalidate(ctx)
	return nil
}

// afterWrite обновляет индекс и сбрасывает кеш; ошибки только логируются
func (s *EventService) afterWrite(ctx context.Context, event *models.Event) {
	if s.search != nil {
		if err := s.search.IndexEvent(ctx, event); err != nil {
			logger.WithContext(ctx).Error("Failed to index event", "error", err, "event_id", event.ID)
		}
	}
	s.invalidate(ctx)
}

func (s *EventService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateEvents(ctx); err != nil {
		logger.WithContext(ctx).Warn("Failed to invalidate events cache", "error", err)
	}
}
