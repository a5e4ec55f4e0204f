package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"eventhive/internal/database"
	"eventhive/internal/models"
)

const eventColumns = `
		id, title, location, description, to_char(date, 'YYYY-MM-DD'), time, category, image,
		price, is_paid, tickets_available, registration_deadline, max_registrations,
		min_registrations, status, organizer_id, created_at, updated_at`

type EventRepository struct {
	db *database.DB
}

func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (*models.Event, error) {
	event := &models.Event{}
	var organizerID sql.NullInt64
	var deadline sql.NullTime

	err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Location,
		&event.Description,
		&event.Date,
		&event.Time,
		&event.Category,
		&event.Image,
		&event.Price,
		&event.IsPaid,
		&event.TicketsAvailable,
		&deadline,
		&event.MaxRegistrations,
		&event.MinRegistrations,
		&event.Status,
		&organizerID,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if organizerID.Valid {
		event.OrganizerID = &organizerID.Int64
	}
	if deadline.Valid {
		event.RegistrationDeadline = &deadline.Time
	}
	return event, nil
}

func scanEvents(rows *sql.Rows) ([]models.Event, error) {
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}
	return events, rows.Err()
}

func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.Status == "" {
		event.Status = models.EventStatusActive
	}

	query := `
		INSERT INTO events (title, location, description, date, time, category, image, price, is_paid,
		                    tickets_available, registration_deadline, max_registrations, min_registrations,
		                    status, organizer_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		event.Title,
		event.Location,
		event.Description,
		event.Date,
		event.Time,
		event.Category,
		event.Image,
		event.Price,
		event.IsPaid,
		event.TicketsAvailable,
		event.RegistrationDeadline,
		event.MaxRegistrations,
		event.MinRegistrations,
		event.Status,
		event.OrganizerID,
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)
}

func (r *EventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	event, err := scanEvent(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return event, err
}

// Update перезаписывает редактируемые поля; false, если события нет
func (r *EventRepository) Update(ctx context.Context, event *models.Event) (bool, error) {
	query := `
		UPDATE events
		SET title = $1, location = $2, description = $3, date = $4, time = $5, category = $6,
		    image = $7, price = $8, is_paid = $9, tickets_available = $10, registration_deadline = $11,
		    max_registrations = $12, min_registrations = $13, status = $14, updated_at = $15
		WHERE id = $16`

	event.UpdatedAt = time.Now()

	res, err := r.db.ExecContext(ctx, query,
		event.Title,
		event.Location,
		event.Description,
		event.Date,
		event.Time,
		event.Category,
		event.Image,
		event.Price,
		event.IsPaid,
		event.TicketsAvailable,
		event.RegistrationDeadline,
		event.MaxRegistrations,
		event.MinRegistrations,
		event.Status,
		event.UpdatedAt,
		event.ID,
	)
	if err != nil {
		return false, err
	}
	return affected(res)
}

func (r *EventRepository) UpdateStatus(ctx context.Context, id int64, status models.EventStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE events SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return false, err
	}
	return affected(res)
}

func (r *EventRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return affected(res)
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List - постраничный список с фильтрами, когда поисковый индекс недоступен
func (r *EventRepository) List(ctx context.Context, filter models.ListEventsFilter) ([]models.Event, error) {
	var args []interface{}
	argIndex := 1
	var searchQueryArgIndex int

	sqlQuery := `SELECT ` + eventColumns + ` FROM events WHERE 1=1`

	if filter.Query != "" {
		if searchQuery := prepareSearchQuery(filter.Query); searchQuery != "" {
			searchQueryArgIndex = argIndex
			sqlQuery += fmt.Sprintf(" AND %s @@ to_tsquery('english', $%d)", searchVector, argIndex)
			args = append(args, searchQuery)
			argIndex++
		}
	}

	if filter.Category != "" {
		sqlQuery += fmt.Sprintf(" AND category = $%d", argIndex)
		args = append(args, filter.Category)
		argIndex++
	}

	if filter.Status != "" {
		sqlQuery += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, filter.Status)
		argIndex++
	}

	if filter.Date != "" {
		sqlQuery += fmt.Sprintf(" AND date = $%d", argIndex)
		args = append(args, filter.Date)
		argIndex++
	}

	if searchQueryArgIndex > 0 {
		sqlQuery += fmt.Sprintf(" ORDER BY ts_rank(%s, to_tsquery('english', $%d)) DESC, date ASC, id ASC",
			searchVector, searchQueryArgIndex)
	} else {
		sqlQuery += " ORDER BY date ASC, id ASC"
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		sqlQuery += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
		args = append(args, filter.PageSize, offset)
	}

	rows, err := r.db.QueryWithRetry(ctx, sqlQuery, args...)
	if err != nil {
		return nil, err
	}
	return scanEvents(rows)
}

// ListByIDs возвращает события в порядке переданных идентификаторов
func (r *EventRepository) ListByIDs(ctx context.Context, ids []int64) ([]models.Event, error) {
	if len(ids) == 0 {
		return []models.Event{}, nil
	}

	query := `SELECT ` + eventColumns + ` FROM events WHERE id = ANY($1) ORDER BY array_position($1, id)`

	rows, err := r.db.QueryWithRetry(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	return scanEvents(rows)
}

// ListByDateRange - события календаря, [from, to] включительно
func (r *EventRepository) ListByDateRange(ctx context.Context, from, to string) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM events
		WHERE date BETWEEN $1 AND $2 AND status <> 'draft'
		ORDER BY date ASC, time ASC, id ASC`

	rows, err := r.db.QueryWithRetry(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	return scanEvents(rows)
}

// ForEach обходит все события батчами; используется при переиндексации
func (r *EventRepository) ForEach(ctx context.Context, batchSize int, fn func(*models.Event) error) error {
	if batchSize <= 0 {
		batchSize = 500
	}

	var lastID int64
	for {
		query := `SELECT ` + eventColumns + ` FROM events WHERE id > $1 ORDER BY id LIMIT $2`
		rows, err := r.db.QueryContext(ctx, query, lastID, batchSize)
		if err != nil {
			return err
		}

		events, err := scanEvents(rows)
		if err != nil {
			return err
		}
		for i := range events {
			if err := fn(&events[i]); err != nil {
				return err
			}
			lastID = events[i].ID
		}
		if len(events) < batchSize {
			return nil
		}
	}
}

// Counts возвращает общее число событий и число активных
func (r *EventRepository) Counts(ctx context.Context) (total, active int, err error) {
	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'active')
		FROM events`).Scan(&total, &active)
	return total, active, err
}

const searchVector = `to_tsvector('english', title || ' ' || description || ' ' || location)`

// prepareSearchQuery formats a search query for PostgreSQL full-text search
func prepareSearchQuery(query string) string {
	var formattedWords []string
	for _, word := range strings.Fields(query) {
		word = strings.Map(func(r rune) rune {
			if strings.ContainsRune(`&|!():*'\`, r) {
				return -1
			}
			return r
		}, word)
		if word != "" {
			formattedWords = append(formattedWords, word+":*")
		}
	}

	return strings.Join(formattedWords, " & ")
}
