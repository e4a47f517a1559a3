package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"pdf-chat-client/internal/pkg/logger"
	"pdf-chat-client/pkg/workspace"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub(nil, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, cancel
}

func newTestClient(hub *Hub, buffer int) *Client {
	return &Client{Hub: hub, ID: uuid.New(), Send: make(chan []byte, buffer)}
}

func TestHub_BroadcastReachesEveryClient(t *testing.T) {
	hub, _ := startHub(t)
	a := newTestClient(hub, 4)
	b := newTestClient(hub, 4)
	require.True(t, hub.add(a))
	require.True(t, hub.add(b))
	require.Eventually(t, func() bool { return hub.Count() == 2 }, time.Second, time.Millisecond)

	hub.Broadcast(workspace.Notification{Level: workspace.LevelSuccess, Title: "Document ready", Event: "document.ready", DocumentID: "doc-1"})

	for _, c := range []*Client{a, b} {
		select {
		case raw := <-c.Send:
			var got envelope
			require.NoError(t, json.Unmarshal(raw, &got))
			assert.Equal(t, "notification", got.Type)
			assert.Equal(t, "doc-1", got.Data.DocumentID)
			assert.Equal(t, workspace.LevelSuccess, got.Data.Level)
		case <-time.After(time.Second):
			t.Fatal("notification not delivered")
		}
	}
}

func TestHub_DropsClientWithFullBuffer(t *testing.T) {
	hub, _ := startHub(t)
	slow := newTestClient(hub, 1)
	require.True(t, hub.add(slow))
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, time.Millisecond)

	hub.Broadcast(workspace.Notification{Event: "first"})
	hub.Broadcast(workspace.Notification{Event: "second"})

	assert.Eventually(t, func() bool { return hub.Count() == 0 }, time.Second, time.Millisecond)

	<-slow.Send
	_, open := <-slow.Send
	assert.False(t, open)
}

func TestHub_StopClosesClients(t *testing.T) {
	hub, cancel := startHub(t)
	c := newTestClient(hub, 1)
	require.True(t, hub.add(c))

	cancel()

	select {
	case _, open := <-c.Send:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("client not closed")
	}
	assert.False(t, hub.add(newTestClient(hub, 1)))
}
