package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesOnlyRecipient(t *testing.T) {
	hub := NewHub()
	a, cleanupA := hub.Subscribe("a")
	defer cleanupA()
	b, cleanupB := hub.Subscribe("b")
	defer cleanupB()

	hub.Publish("a", Event{UserID: "a", Event: "notification", Data: "hello"})

	select {
	case ev := <-a:
		assert.Equal(t, "hello", ev.Data)
	default:
		t.Fatal("expected event for a")
	}
	assert.Len(t, b, 0)
}

func TestHub_PublishToMany(t *testing.T) {
	hub := NewHub()
	a, cleanupA := hub.Subscribe("a")
	defer cleanupA()
	b, cleanupB := hub.Subscribe("b")
	defer cleanupB()

	hub.PublishToMany([]string{"a", "b"}, Event{Event: "notification"})

	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, "b", (<-b).UserID)
}

func TestHub_FullBufferDrops(t *testing.T) {
	hub := NewHub()
	_, cleanup := hub.Subscribe("a")
	defer cleanup()

	for i := 0; i < defaultBuffer+3; i++ {
		hub.Publish("a", Event{Event: "x"})
	}

	assert.Equal(t, int64(3), hub.Dropped())
}

func TestHub_CleanupIsIdempotent(t *testing.T) {
	hub := NewHub()
	_, cleanup := hub.Subscribe("a")
	_, cleanup2 := hub.Subscribe("a")
	assert.Equal(t, 2, hub.SubscriberCount("a"))

	cleanup()
	cleanup()
	assert.Equal(t, 1, hub.SubscriberCount("a"))

	cleanup2()
	assert.Equal(t, 0, hub.TotalSubscribers())
}
