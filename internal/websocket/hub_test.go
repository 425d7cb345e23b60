package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dom/task-manager-api/internal/domain"
	"github.com/dom/task-manager-api/internal/logging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()

	hub := NewHub(logging.Discard())
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

func receive(t *testing.T, c *Client) *Message {
	t.Helper()

	select {
	case data, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return &msg
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for message")
		return nil
	}
}

func TestHub_RegisterGreets(t *testing.T) {
	hub := startHub(t)
	userID := uuid.New()

	client := NewClient(hub, nil, userID)
	hub.Register(client)

	msg := receive(t, client)
	assert.Equal(t, MessageTypeConnected, msg.Type)

	var payload ConnectedPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, userID.String(), payload.UserID)
	assert.Equal(t, 1, hub.ClientCount(userID))
}

func TestHub_NotifyTaskOnlyReachesOwner(t *testing.T) {
	hub := startHub(t)
	alice, bob := uuid.New(), uuid.New()

	aliceTab1 := NewClient(hub, nil, alice)
	aliceTab2 := NewClient(hub, nil, alice)
	bobTab := NewClient(hub, nil, bob)
	for _, c := range []*Client{aliceTab1, aliceTab2, bobTab} {
		hub.Register(c)
		receive(t, c)
	}

	task := &domain.Task{ID: uuid.New(), Title: "write report", UserID: alice}
	hub.NotifyTask(alice, domain.TaskEventCreated, task)

	for _, c := range []*Client{aliceTab1, aliceTab2} {
		msg := receive(t, c)
		assert.Equal(t, MessageTypeTaskCreated, msg.Type)

		var payload TaskPayload
		require.NoError(t, json.Unmarshal(msg.Payload, &payload))
		assert.Equal(t, task.ID, payload.Task.ID)
		assert.Equal(t, "write report", payload.Task.Title)
	}

	select {
	case data := <-bobTab.send:
		t.Fatalf("bob received another user's event: %s", data)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHub_Unregister(t *testing.T) {
	hub := startHub(t)
	userID := uuid.New()

	client := NewClient(hub, nil, userID)
	hub.Register(client)
	receive(t, client)

	hub.Unregister(client)
	hub.Unregister(client) // second call is a no-op

	assert.Eventually(t, func() bool {
		return hub.ClientCount(userID) == 0
	}, time.Second, 10*time.Millisecond)

	_, ok := <-client.send
	assert.False(t, ok, "send channel should be closed")
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub := startHub(t)
	userID := uuid.New()

	client := NewClient(hub, nil, userID)
	hub.Register(client)

	// Never drained: the greeting plus a full buffer makes the next send fail.
	task := &domain.Task{ID: uuid.New(), UserID: userID}
	for i := 0; i < sendBuffer+1; i++ {
		hub.NotifyTask(userID, domain.TaskEventUpdated, task)
	}

	assert.Eventually(t, func() bool {
		return hub.ClientCount(userID) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHub_Stop(t *testing.T) {
	hub := NewHub(logging.Discard())
	go hub.Run()

	userID := uuid.New()
	client := NewClient(hub, nil, userID)
	hub.Register(client)
	receive(t, client)

	hub.Stop()
	hub.Stop()

	_, ok := <-client.send
	assert.False(t, ok, "clients are closed on stop")
	assert.Equal(t, 0, hub.ClientCount(userID))

	// Publishing and registering after shutdown must not block.
	done := make(chan struct{})
	go func() {
		hub.NotifyTask(userID, domain.TaskEventDeleted, &domain.Task{})
		late := NewClient(hub, nil, userID)
		hub.Register(late)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub blocked after Stop")
	}
}
