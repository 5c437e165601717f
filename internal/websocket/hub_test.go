package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/isdelr/datingapp-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	a := &Client{hub: hub, Send: make(chan []byte, 1), UserID: "admin-1"}
	b := &Client{hub: hub, Send: make(chan []byte, 1), UserID: "admin-2"}
	require.True(t, hub.Attach(a))
	require.True(t, hub.Attach(b))

	hub.Publish(models.Event{ID: "e1", Type: "auth.login.fail"})

	for _, c := range []*Client{a, b} {
		select {
		case raw := <-c.Send:
			var msg struct {
				Action  string       `json:"action"`
				Payload models.Event `json:"payload"`
			}
			require.NoError(t, json.Unmarshal(raw, &msg))
			assert.Equal(t, ActionSecurityEvent, msg.Action)
			assert.Equal(t, "e1", msg.Payload.ID)
		case <-time.After(time.Second):
			t.Fatalf("client %s did not receive event", c.UserID)
		}
	}
}

func TestHub_DetachClosesSend(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	c := &Client{hub: hub, Send: make(chan []byte, 1), UserID: "u"}
	require.True(t, hub.Attach(c))
	hub.Detach(c)

	select {
	case _, ok := <-c.Send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send channel not closed")
	}
}

func TestHub_StoppedHubDoesNotBlock(t *testing.T) {
	hub := NewHub()
	hub.Stop()

	c := &Client{hub: hub, Send: make(chan []byte, 1)}
	assert.False(t, hub.Attach(c))
	hub.Detach(c)
	hub.Publish(models.Event{ID: "late"})
}
