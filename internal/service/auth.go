package service

import (
	"context"
	"fmt"
	"strings"

	"eventhive/internal/auth"
	apperrors "eventhive/internal/errors"
	"eventhive/internal/models"
	"eventhive/internal/realtime"
)

type UserStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

type AuthService struct {
	users  UserStore
	tokens *auth.TokenManager
}

func NewAuthService(users UserStore, tokens *auth.TokenManager) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

func (s *AuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, fmt.Errorf("username is empty: %w", apperrors.ErrValidation)
	}

	hash, err := s.tokens.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		Role:         models.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !s.tokens.CheckPassword(user.PasswordHash, req.Password) {
		return nil, apperrors.ErrUnauthorized
	}

	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*models.AuthResponse, error) {
	token, err := s.tokens.Issue(user.ID, user.Username, string(user.Role))
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, User: user}, nil
}

func (s *AuthService) Me(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, apperrors.ErrNotFound
	}
	return user, nil
}

// Authenticate проверяет токен и перечитывает пользователя, чтобы роль бралась из базы
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUnauthorized, err)
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", apperrors.ErrUnauthorized)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, apperrors.ErrUnauthorized
	}
	return user, nil
}

// Resolve implements realtime.IdentityResolver
func (s *AuthService) Resolve(ctx context.Context, token string) (*realtime.Identity, error) {
	user, err := s.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	return &realtime.Identity{
		UserID:   user.ID,
		Username: user.Username,
		IsAdmin:  user.IsAdmin(),
	}, nil
}
