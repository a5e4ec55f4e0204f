package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

var defaultLogger *slog.Logger

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	userIDKey    ctxKey = "user_id"
)

// ParseLevel переводит LOG_LEVEL в slog.Level; неизвестное значение дает INFO
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Init initializes the global logger. service попадает атрибутом в каждую запись,
// чтобы api и consumers различались в общем потоке логов.
func Init(level, format, service string) {
	defaultLogger = newLogger(os.Stdout, level, format, service)
	slog.SetDefault(defaultLogger)
}

func newLogger(w io.Writer, level, format, service string) *slog.Logger {
	logLevel := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: logLevel == slog.LevelDebug,
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	l := slog.New(handler)
	if service != "" {
		l = l.With("service", service)
	}
	return l
}

// Get returns the default logger instance
func Get() *slog.Logger {
	if defaultLogger == nil {
		Init("INFO", "json", "")
	}
	return defaultLogger
}

// ContextWithRequestID stores the request id for WithContext
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// ContextWithUserID stores the authenticated user id for WithContext
func ContextWithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// RequestIDFromContext returns the request id, or "" when none was set
func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// WithContext returns a logger with request_id and user_id from ctx
func WithContext(ctx context.Context) *slog.Logger {
	l := Get()

	if reqID := RequestIDFromContext(ctx); reqID != "" {
		l = l.With("request_id", reqID)
	}

	if userID, ok := ctx.Value(userIDKey).(int64); ok {
		l = l.With("user_id", userID)
	}

	return l
}

// NewRequestID generates a new UUID for request tracking
func NewRequestID() string {
	return uuid.New().String()
}

// Fatal logs an error message and exits the application
func Fatal(msg string, args ...any) {
	Get().Error(msg, args...)
	os.Exit(1)
}
