package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"eventhive/internal/database"
	apperrors "eventhive/internal/errors"
	"eventhive/internal/models"
)

const registrationColumns = `
		id, event_id, user_id, first_name, last_name, email, phone, ticket_quantity, payment_status,
		total_amount, confirmation_code, check_in_status, checked_in_at, checkout_session_id,
		payment_intent_id, created_at, updated_at`

type RegistrationRepository struct {
	db *database.DB
}

func NewRegistrationRepository(db *database.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

func scanRegistration(row rowScanner) (*models.Registration, error) {
	reg := &models.Registration{}
	var userID sql.NullInt64
	var checkedInAt sql.NullTime
	var sessionID, intentID sql.NullString

	err := row.Scan(
		&reg.ID,
		&reg.EventID,
		&userID,
		&reg.FirstName,
		&reg.LastName,
		&reg.Email,
		&reg.Phone,
		&reg.TicketQuantity,
		&reg.PaymentStatus,
		&reg.TotalAmount,
		&reg.ConfirmationCode,
		&reg.CheckInStatus,
		&checkedInAt,
		&sessionID,
		&intentID,
		&reg.CreatedAt,
		&reg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if userID.Valid {
		reg.UserID = &userID.Int64
	}
	if checkedInAt.Valid {
		reg.CheckedInAt = &checkedInAt.Time
	}
	if sessionID.Valid {
		reg.CheckoutSessionID = &sessionID.String
	}
	if intentID.Valid {
		reg.PaymentIntentID = &intentID.String
	}
	return reg, nil
}

func (r *RegistrationRepository) queryOne(ctx context.Context, where string, arg interface{}) (*models.Registration, error) {
	reg, err := scanRegistration(r.db.QueryRowContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE `+where, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return reg, err
}

func (r *RegistrationRepository) queryMany(ctx context.Context, query string, args ...interface{}) ([]models.Registration, error) {
	rows, err := r.db.QueryWithRetry(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	regs := []models.Registration{}
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, *reg)
	}
	return regs, rows.Err()
}

// CreateWithReservation резервирует билеты и вставляет регистрацию в одной транзакции.
// tickets_available не уходит в минус: при нехватке возвращается ErrSoldOut.
func (r *RegistrationRepository) CreateWithReservation(ctx context.Context, reg *models.Registration) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var maxRegistrations int
	err = tx.QueryRowContext(ctx, `
		UPDATE events
		SET tickets_available = tickets_available - $2, updated_at = NOW()
		WHERE id = $1 AND tickets_available >= $2
		RETURNING max_registrations`, reg.EventID, reg.TicketQuantity).Scan(&maxRegistrations)
	if err == sql.ErrNoRows {
		return apperrors.ErrSoldOut
	}
	if err != nil {
		return fmt.Errorf("failed to reserve tickets: %w", err)
	}

	if maxRegistrations > 0 {
		var active int
		err = tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM registrations
			WHERE event_id = $1 AND payment_status IN ('pending', 'completed', 'free')`,
			reg.EventID).Scan(&active)
		if err != nil {
			return fmt.Errorf("failed to count registrations: %w", err)
		}
		if active >= maxRegistrations {
			return apperrors.ErrSoldOut
		}
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO registrations (event_id, user_id, first_name, last_name, email, phone, ticket_quantity,
		                           payment_status, total_amount, confirmation_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`,
		reg.EventID,
		reg.UserID,
		reg.FirstName,
		reg.LastName,
		reg.Email,
		reg.Phone,
		reg.TicketQuantity,
		reg.PaymentStatus,
		reg.TotalAmount,
		reg.ConfirmationCode,
	).Scan(&reg.ID, &reg.CreatedAt, &reg.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("confirmation code: %w", apperrors.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to insert registration: %w", err)
	}

	return tx.Commit()
}

func (r *RegistrationRepository) GetByID(ctx context.Context, id int64) (*models.Registration, error) {
	return r.queryOne(ctx, "id = $1", id)
}

func (r *RegistrationRepository) GetByCode(ctx context.Context, code string) (*models.Registration, error) {
	return r.queryOne(ctx, "confirmation_code = $1", code)
}

func (r *RegistrationRepository) GetBySessionID(ctx context.Context, sessionID string) (*models.Registration, error) {
	return r.queryOne(ctx, "checkout_session_id = $1", sessionID)
}

func (r *RegistrationRepository) GetByPaymentIntent(ctx context.Context, intentID string) (*models.Registration, error) {
	return r.queryOne(ctx, "payment_intent_id = $1", intentID)
}

func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID int64) ([]models.Registration, error) {
	return r.queryMany(ctx, `SELECT `+registrationColumns+`
		FROM registrations WHERE event_id = $1 ORDER BY created_at, id`, eventID)
}

func (r *RegistrationRepository) ListByUser(ctx context.Context, userID int64) ([]models.Registration, error) {
	return r.queryMany(ctx, `SELECT `+registrationColumns+`
		FROM registrations WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
}

// ListStalePending - неоплаченные регистрации, созданные раньше before
func (r *RegistrationRepository) ListStalePending(ctx context.Context, before time.Time, limit int) ([]models.Registration, error) {
	return r.queryMany(ctx, `SELECT `+registrationColumns+`
		FROM registrations
		WHERE payment_status = 'pending' AND created_at < $1
		ORDER BY created_at
		LIMIT $2`, before, limit)
}

func (r *RegistrationRepository) SetCheckoutSession(ctx context.Context, id int64, sessionID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE registrations SET checkout_session_id = $1, updated_at = NOW() WHERE id = $2`, sessionID, id)
	return err
}

// CompletePayment переводит pending в completed; false, если регистрация уже не pending
func (r *RegistrationRepository) CompletePayment(ctx context.Context, id int64, paymentIntentID string) (bool, error) {
	var intent interface{}
	if paymentIntentID != "" {
		intent = paymentIntentID
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE registrations
		SET payment_status = 'completed', payment_intent_id = COALESCE($2, payment_intent_id), updated_at = NOW()
		WHERE id = $1 AND payment_status = 'pending'`, id, intent)
	if err != nil {
		return false, err
	}
	return affected(res)
}

// MarkLateRefund переводит failed в refunded без возврата билетов: они уже отпущены при истечении
func (r *RegistrationRepository) MarkLateRefund(ctx context.Context, id int64, paymentIntentID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE registrations
		SET payment_status = 'refunded', payment_intent_id = $2, updated_at = NOW()
		WHERE id = $1 AND payment_status = 'failed'`, id, paymentIntentID)
	if err != nil {
		return false, err
	}
	return affected(res)
}

// ReleaseTickets переводит регистрацию из from в to и возвращает билеты событию.
// false, если статус уже сменился.
func (r *RegistrationRepository) ReleaseTickets(ctx context.Context, id int64, from, to models.PaymentStatus) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var eventID int64
	var quantity int
	err = tx.QueryRowContext(ctx, `
		UPDATE registrations
		SET payment_status = $3, updated_at = NOW()
		WHERE id = $1 AND payment_status = $2
		RETURNING event_id, ticket_quantity`, id, from, to).Scan(&eventID, &quantity)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to update registration: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE events SET tickets_available = tickets_available + $2, updated_at = NOW()
		WHERE id = $1`, eventID, quantity); err != nil {
		return false, fmt.Errorf("failed to restore tickets: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// CheckIn отмечает приход участника; nil, если регистрации нет
func (r *RegistrationRepository) CheckIn(ctx context.Context, id int64) (*models.Registration, error) {
	reg, err := scanRegistration(r.db.QueryRowContext(ctx, `
		UPDATE registrations
		SET check_in_status = TRUE, checked_in_at = COALESCE(checked_in_at, NOW()), updated_at = NOW()
		WHERE id = $1
		RETURNING `+registrationColumns, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return reg, err
}

// RegistrationStats - агрегаты посещаемости
type RegistrationStats struct {
	Registrations int
	Tickets       int
	Paid          int
	CheckedIn     int
	Revenue       float64
	ByDay         map[string]int
}

const registrationStatsSelect = `
		SELECT COUNT(*),
		       COALESCE(SUM(ticket_quantity), 0),
		       COUNT(*) FILTER (WHERE payment_status = 'completed'),
		       COUNT(*) FILTER (WHERE check_in_status),
		       COALESCE(SUM(total_amount) FILTER (WHERE payment_status = 'completed'), 0)
		FROM registrations
		WHERE payment_status IN ('pending', 'completed', 'free')`

func (r *RegistrationRepository) StatsByEvent(ctx context.Context, eventID int64) (*RegistrationStats, error) {
	stats := &RegistrationStats{ByDay: map[string]int{}}
	if err := r.db.QueryRowContext(ctx, registrationStatsSelect+` AND event_id = $1`, eventID).Scan(
		&stats.Registrations, &stats.Tickets, &stats.Paid, &stats.CheckedIn, &stats.Revenue); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT to_char(created_at, 'YYYY-MM-DD'), COUNT(*)
		FROM registrations
		WHERE event_id = $1 AND payment_status IN ('pending', 'completed', 'free')
		GROUP BY 1`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var day string
		var count int
		if err := rows.Scan(&day, &count); err != nil {
			return nil, err
		}
		stats.ByDay[day] = count
	}
	return stats, rows.Err()
}

func (r *RegistrationRepository) Stats(ctx context.Context) (*RegistrationStats, error) {
	stats := &RegistrationStats{}
	err := r.db.QueryRowContext(ctx, registrationStatsSelect).Scan(
		&stats.Registrations, &stats.Tickets, &stats.Paid, &stats.CheckedIn, &stats.Revenue)
	return stats, err
}
