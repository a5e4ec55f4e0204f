package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationDecodesMetadataByKind(t *testing.T) {
	payload := `{
		"id": 7,
		"audience": "admins",
		"kind": "review",
		"title": "New review",
		"message": "alice rated Jazz Night 5/5",
		"metadata": {"reviewId": 3, "eventId": 11, "eventTitle": "Jazz Night", "username": "alice", "rating": 5, "sentiment": "positive"}
	}`

	var n Notification
	require.NoError(t, json.Unmarshal([]byte(payload), &n))

	meta, ok := n.Metadata.(ReviewMetadata)
	require.True(t, ok, "expected ReviewMetadata, got %T", n.Metadata)
	assert.Equal(t, int64(3), meta.ReviewID)
	assert.Equal(t, SentimentPositive, meta.Sentiment)
	assert.Equal(t, SocketEventNewReview, n.SocketEvent())
}

func TestNotificationMissingMetadataGetsZeroValue(t *testing.T) {
	var n Notification
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"general","audience":"all","title":"t","message":"m"}`), &n))

	assert.Equal(t, GeneralMetadata{}, n.Metadata)
	assert.Equal(t, SocketEventNotification, n.SocketEvent())
}

func TestNotificationUnknownKind(t *testing.T) {
	var n Notification
	err := json.Unmarshal([]byte(`{"kind":"promo","audience":"all","metadata":{}}`), &n)
	assert.Error(t, err)
}

func TestNewNotificationTakesKindFromMetadata(t *testing.T) {
	userID := int64(5)
	n := NewNotification(AudienceUser, &userID, "Reply", "An admin replied", ReviewResponseMetadata{ReviewID: 1})

	assert.Equal(t, NotificationKindReviewResponse, n.Kind)
	assert.Equal(t, SocketEventUserNotification, n.SocketEvent())
}

func TestSentimentFromRating(t *testing.T) {
	assert.Equal(t, SentimentPositive, SentimentFromRating(5))
	assert.Equal(t, SentimentPositive, SentimentFromRating(4))
	assert.Equal(t, SentimentNeutral, SentimentFromRating(3))
	assert.Equal(t, SentimentNegative, SentimentFromRating(1))
}
