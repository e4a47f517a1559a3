package nats

import (
	"encoding/json"
	"testing"
	"time"

	"pdf-chat-client/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent_RoundTripsPublishedBody(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	body, err := json.Marshal(wireEvent{
		Type:       events.DocumentReady,
		Data:       map[string]interface{}{"document_id": "doc-1"},
		OccurredAt: at,
	})
	require.NoError(t, err)

	evt, err := decodeEvent(SubjectPrefix+events.DocumentReady, body)
	require.NoError(t, err)
	assert.Equal(t, events.DocumentReady, evt.EventType())
	assert.Equal(t, "doc-1", evt.Payload()["document_id"])
	assert.True(t, at.Equal(evt.Timestamp()))
}

func TestDecodeEvent_TypeFromSubject(t *testing.T) {
	evt, err := decodeEvent(SubjectPrefix+events.ChatAnswered, []byte(`{"data":{"title":"Answer received"}}`))
	require.NoError(t, err)
	assert.Equal(t, events.ChatAnswered, evt.EventType())
}

func TestDecodeEvent_RejectsGarbage(t *testing.T) {
	_, err := decodeEvent("pdfchat.x", []byte("not json"))
	assert.Error(t, err)
}
