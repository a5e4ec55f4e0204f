package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	apperrors "eventhive/internal/errors"
	"eventhive/internal/models"
)

type stubAuth struct {
	users map[string]*models.User
	err   error
}

func (s stubAuth) Authenticate(_ context.Context, token string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if u, ok := s.users[token]; ok {
		return u, nil
	}
	return nil, apperrors.ErrUnauthorized
}

func newRouter(auth Authenticator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())

	whoami := func(c *gin.Context) {
		if u := CurrentUser(c); u != nil {
			c.String(http.StatusOK, u.Username)
			return
		}
		c.String(http.StatusOK, "anonymous")
	}

	r.GET("/private", AuthRequired(auth), whoami)
	r.GET("/admin", AuthRequired(auth), AdminOnly(), whoami)
	r.GET("/optional", OptionalAuth(auth), whoami)
	return r
}

func get(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	auth := stubAuth{users: map[string]*models.User{"good": {ID: 1, Username: "ada", Role: models.RoleUser}}}
	r := newRouter(auth)

	assert.Equal(t, http.StatusUnauthorized, get(r, "/private", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/private", "bad").Code)

	w := get(r, "/private", "good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ada", w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestAuthRequiredStoreFailure(t *testing.T) {
	r := newRouter(stubAuth{err: errors.New("database is down")})

	assert.Equal(t, http.StatusInternalServerError, get(r, "/private", "any").Code)
}

func TestAdminOnly(t *testing.T) {
	auth := stubAuth{users: map[string]*models.User{
		"user":  {ID: 1, Username: "ada", Role: models.RoleUser},
		"admin": {ID: 2, Username: "root", Role: models.RoleAdmin},
	}}
	r := newRouter(auth)

	assert.Equal(t, http.StatusForbidden, get(r, "/admin", "user").Code)
	assert.Equal(t, http.StatusOK, get(r, "/admin", "admin").Code)
}

func TestOptionalAuth(t *testing.T) {
	auth := stubAuth{users: map[string]*models.User{"good": {ID: 1, Username: "ada"}}}
	r := newRouter(auth)

	assert.Equal(t, "anonymous", get(r, "/optional", "").Body.String())
	assert.Equal(t, "anonymous", get(r, "/optional", "expired").Body.String())
	assert.Equal(t, "ada", get(r, "/optional", "good").Body.String())
}

func TestRequestIDPropagatesIncomingHeader(t *testing.T) {
	r := newRouter(stubAuth{})

	req := httptest.NewRequest(http.MethodGet, "/optional", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
}
