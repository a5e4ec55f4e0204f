package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestWithContextAddsRequestAndUser(t *testing.T) {
	var buf bytes.Buffer
	prev := defaultLogger
	defaultLogger = newLogger(&buf, "info", "json", "eventhive-api")
	t.Cleanup(func() { defaultLogger = prev })

	ctx := ContextWithUserID(ContextWithRequestID(context.Background(), "req-1"), 42)
	WithContext(ctx).Info("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "eventhive-api", entry["service"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, float64(42), entry["user_id"])
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
}
