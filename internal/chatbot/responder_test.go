package chatbot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func greeting() string {
	return DefaultEntries[0].Response
}

func TestRespondGreeting(t *testing.T) {
	r := NewResponder(nil, 0)

	for _, msg := range []string{"hello", "Hello!", "  HELLO  "} {
		resp, matched := r.Respond(msg)
		assert.True(t, matched, msg)
		assert.Equal(t, greeting(), resp, msg)
	}
}

func TestRespondFallbackVerbatim(t *testing.T) {
	r := NewResponder(nil, 0)

	resp, matched := r.Respond("qwerty zxcvb")
	assert.False(t, matched)
	assert.Equal(t, FallbackResponse, resp)

	resp, matched = r.Respond("")
	assert.False(t, matched)
	assert.Equal(t, FallbackResponse, resp)
}

func TestRespondPrefersLongestSubstring(t *testing.T) {
	r := NewResponder(nil, 0)

	resp, matched := r.Respond("Hello, can you tell me about upcoming events?")
	require.True(t, matched)
	assert.Equal(t, DefaultEntries[1].Response, resp)
}

func TestRespondWordOverlapFallback(t *testing.T) {
	r := NewResponder(nil, 0)

	resp, matched := r.Respond("I would like some information about refunds and my money please")
	require.True(t, matched)
	assert.Equal(t, DefaultEntries[5].Response, resp)
}

func TestRespondTiesKeepTableOrder(t *testing.T) {
	entries := []Entry{
		{Patterns: []string{"alpha"}, Response: "first"},
		{Patterns: []string{"alpha"}, Response: "second"},
	}
	r := NewResponder(entries, 0)

	resp, _ := r.Respond("alpha")
	assert.Equal(t, "first", resp)
}

func TestStreamEmitsTokens(t *testing.T) {
	r := NewResponder(nil, 0)

	var tokens []string
	err := r.Stream(context.Background(), "hello", func(token string) error {
		tokens = append(tokens, token)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, len(strings.Fields(greeting())), len(tokens))
	assert.Equal(t, greeting(), strings.Join(tokens, ""))
	assert.False(t, strings.HasSuffix(tokens[len(tokens)-1], " "))
}

func TestStreamStopsOnCancel(t *testing.T) {
	r := NewResponder(nil, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	count := 0
	err := r.Stream(ctx, "hello", func(token string) error {
		count++
		cancel()
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, count)
}

func TestStreamPropagatesEmitError(t *testing.T) {
	r := NewResponder(nil, 0)
	boom := errors.New("client went away")

	err := r.Stream(context.Background(), "hello", func(string) error { return boom })
	assert.ErrorIs(t, err, boom)
}
