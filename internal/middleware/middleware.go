package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "eventhive/internal/errors"
	"eventhive/internal/logger"
	"eventhive/internal/models"
)

const (
	userKey         = "user"
	RequestIDHeader = "X-Request-ID"
)

// Authenticator проверяет Bearer-токен и возвращает пользователя из базы
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// CurrentUser возвращает пользователя, установленный AuthRequired или OptionalAuth
func CurrentUser(c *gin.Context) *models.User {
	v, exists := c.Get(userKey)
	if !exists {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

func setUser(c *gin.Context, user *models.User) {
	c.Set(userKey, user)
	c.Set("user_id", user.ID)
	c.Request = c.Request.WithContext(logger.ContextWithUserID(c.Request.Context(), user.ID))
}

// RequestID добавляет идентификатор запроса в заголовок ответа и в контекст логгера
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = logger.NewRequestID()
		}

		c.Header(RequestIDHeader, requestID)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

// CORS middleware для обработки CORS запросов
func CORS(allowedOrigin string) gin.HandlerFunc {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}

	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", allowedOrigin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, Stripe-Signature, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Logger middleware для структурированного логирования запросов
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		log := logger.WithContext(c.Request.Context())
		logFields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status_code", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}

		switch {
		case status >= 500:
			if len(c.Errors) > 0 {
				logFields = append(logFields, "error", c.Errors.String())
			}
			log.Error("Request completed with error", logFields...)
		case status >= 400:
			log.Warn("Request rejected", logFields...)
		default:
			log.Debug("Request completed", logFields...)
		}
	}
}

// Recovery middleware для восстановления после паники с детальным логированием
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		slog.Error("PANIC recovered",
			"panic", recovered,
			"request_id", logger.RequestIDFromContext(c.Request.Context()),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"query", c.Request.URL.RawQuery,
			"client_ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
		)

		if !c.Writer.Written() {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
	})
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
}

// AuthRequired пропускает только запросы с действующим токеном
func AuthRequired(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			abortUnauthorized(c)
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, apperrors.ErrUnauthorized) {
				logger.WithContext(c.Request.Context()).Error("Failed to authenticate request", "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
				return
			}
			abortUnauthorized(c)
			return
		}

		setUser(c, user)
		c.Next()
	}
}

// OptionalAuth подставляет пользователя, если токен есть и он валиден; иначе запрос идет анонимно
func OptionalAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			user, err := auth.Authenticate(c.Request.Context(), token)
			if err == nil {
				setUser(c, user)
			} else {
				logger.WithContext(c.Request.Context()).Debug("Ignoring invalid optional token", "error", err)
			}
		}
		c.Next()
	}
}

// AdminOnly ставится после AuthRequired
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			abortUnauthorized(c)
			return
		}
		if !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Admin access required"})
			return
		}
		c.Next()
	}
}
