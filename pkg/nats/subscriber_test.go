package nats

import (
	"encoding/json"
	"testing"
	"time"

	"kt-assistant-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	evt := events.NewTopicCompleted("s1", "t1", "System Overview", 85, at)

	data, err := json.Marshal(envelope{Type: evt.EventType(), OccurredAt: evt.Timestamp(), Data: evt.Payload()})
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, events.TopicCompleted, got.EventType())
	assert.True(t, at.Equal(got.Timestamp()))
	assert.Equal(t, "System Overview", got.Payload()["topic_name"])
	assert.Equal(t, float64(85), got.Payload()["confidence_score"])
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode([]byte("not json"))
	assert.Error(t, err)
}
