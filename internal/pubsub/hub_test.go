package pubsub

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_FanOut(t *testing.T) {
	h := NewHub(10)
	a := h.Subscribe()
	b := h.Subscribe()

	h.Publish([]byte("tick"))

	assert.Equal(t, []byte("tick"), <-a.C())
	assert.Equal(t, []byte("tick"), <-b.C())
}

func TestHub_EvictsSaturatedSubscriber(t *testing.T) {
	h := NewHub(3)
	slow := h.Subscribe()
	fast := h.Subscribe()

	// Fill the slow subscriber's queue and publish one more without draining.
	for i := 0; i < 4; i++ {
		h.Publish([]byte(fmt.Sprintf("msg-%d", i)))
		// Keep the fast subscriber drained so only slow saturates.
		<-fast.C()
	}

	assert.Equal(t, 1, h.Len(), "saturated subscriber should be removed")

	// The slow subscriber got the first three messages, then its queue closed.
	for i := 0; i < 3; i++ {
		msg, ok := <-slow.C()
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("msg-%d", i), string(msg))
	}
	_, ok := <-slow.C()
	assert.False(t, ok, "evicted subscriber's channel should be closed")

	// The surviving subscriber keeps receiving.
	h.Publish([]byte("after"))
	assert.Equal(t, []byte("after"), <-fast.C())
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	h := NewHub(1)
	h.Subscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			h.Publish([]byte("x"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a saturated subscriber")
	}
}

func TestHub_UnsubscribeIdempotent(t *testing.T) {
	h := NewHub(2)
	s := h.Subscribe()

	h.Unsubscribe(s)
	h.Unsubscribe(s)

	assert.Equal(t, 0, h.Len())

	// Eviction after unsubscribe must also be safe.
	h.Publish([]byte("x"))
}
