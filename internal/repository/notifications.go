package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"eventhive/internal/database"
	"eventhive/internal/models"
)

type NotificationRepository struct {
	db *database.DB
}

func NewNotificationRepository(db *database.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	metadata, err := json.Marshal(n.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	return r.db.QueryRowContext(ctx, `
		INSERT INTO notifications (recipient_id, audience, kind, title, message, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		n.RecipientID,
		n.Audience,
		n.Kind,
		n.Title,
		n.Message,
		string(metadata),
	).Scan(&n.ID, &n.CreatedAt)
}

// visibleTo - личные уведомления, рассылки всем и, для администраторов, рассылки администраторам
const visibleTo = `(n.recipient_id = $1 OR n.audience = 'all' OR (n.audience = 'admins' AND $2))`

// ListForUser возвращает последние уведомления; для рассылок прочтение хранится в notification_reads
func (r *NotificationRepository) ListForUser(ctx context.Context, userID int64, isAdmin bool, limit int) ([]models.Notification, error) {
	rows, err := r.db.QueryWithRetry(ctx, `
		SELECT n.id, n.recipient_id, n.audience, n.kind, n.title, n.message, n.metadata,
		       CASE WHEN n.audience = 'user' THEN n.is_read ELSE nr.user_id IS NOT NULL END,
		       n.created_at
		FROM notifications n
		LEFT JOIN notification_reads nr ON nr.notification_id = n.id AND nr.user_id = $1
		WHERE `+visibleTo+`
		ORDER BY n.created_at DESC, n.id DESC
		LIMIT $3`, userID, isAdmin, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		var recipientID sql.NullInt64
		var metadata []byte

		if err := rows.Scan(&n.ID, &recipientID, &n.Audience, &n.Kind, &n.Title, &n.Message,
			&metadata, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		if recipientID.Valid {
			n.RecipientID = &recipientID.Int64
		}
		if n.Metadata, err = models.DecodeNotificationMetadata(n.Kind, metadata); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkRead отмечает одно видимое пользователю уведомление; false, если оно ему не видно
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID int64, isAdmin bool) (bool, error) {
	var audience models.Audience
	err := r.db.QueryRowContext(ctx,
		`SELECT n.audience FROM notifications n WHERE n.id = $3 AND `+visibleTo,
		userID, isAdmin, id).Scan(&audience)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if audience == models.AudienceUser {
		_, err = r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1`, id)
	} else {
		_, err = r.db.ExecContext(ctx, `
			INSERT INTO notification_reads (notification_id, user_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, id, userID)
	}
	return err == nil, err
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64, isAdmin bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE notifications SET is_read = TRUE
		WHERE recipient_id = $1 AND audience = 'user' AND NOT is_read`, userID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO notification_reads (notification_id, user_id)
		SELECT n.id, $1 FROM notifications n
		WHERE n.audience <> 'user' AND `+visibleTo+`
		ON CONFLICT DO NOTHING`, userID, isAdmin); err != nil {
		return err
	}

	return tx.Commit()
}
