package repository

import (
	"context"
	"database/sql"
	"fmt"

	"eventhive/internal/database"
	apperrors "eventhive/internal/errors"
	"eventhive/internal/models"
)

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, password_hash, role, created_at
		FROM users
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return user, err
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, password_hash, role, created_at
		FROM users
		WHERE username = $1`

	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return user, err
}

// Create возвращает ErrConflict, если имя уже занято
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.Role == "" {
		user.Role = models.RoleUser
	}

	query := `
		INSERT INTO users (username, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Username,
		user.PasswordHash,
		user.Role,
	).Scan(&user.ID, &user.CreatedAt)

	if isUniqueViolation(err) {
		return fmt.Errorf("username %q: %w", user.Username, apperrors.ErrConflict)
	}

	return err
}

// Upsert создает пользователя или обновляет пароль и роль существующего
func (r *UserRepository) Upsert(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, password_hash, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (username) DO UPDATE
		SET password_hash = EXCLUDED.password_hash, role = EXCLUDED.role
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		user.Username,
		user.PasswordHash,
		user.Role,
	).Scan(&user.ID, &user.CreatedAt)
}
