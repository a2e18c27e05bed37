// Package pubsub provides a bounded fan-out hub for broadcasting serialized
// events to many independently-paced subscribers.
//
// Publish never blocks: a subscriber whose queue is full is treated as dead
// and is evicted from the hub. The producer's liveness always wins over a
// slow consumer's completeness.
package pubsub

import (
	"sync"
)

// Hub fans published payloads out to all current subscribers.
type Hub struct {
	mu       sync.Mutex
	capacity int
	subs     map[*Subscriber]struct{}
}

// Subscriber is one bounded FIFO of payloads, owned by a single consumer.
type Subscriber struct {
	ch   chan []byte
	once sync.Once
}

// C returns the channel the consumer drains. The channel is closed when the
// subscriber is unsubscribed or evicted.
func (s *Subscriber) C() <-chan []byte {
	return s.ch
}

func (s *Subscriber) shutdown() {
	s.once.Do(func() { close(s.ch) })
}

// NewHub creates a hub whose subscriber queues hold up to capacity payloads.
func NewHub(capacity int) *Hub {
	return &Hub{
		capacity: capacity,
		subs:     make(map[*Subscriber]struct{}),
	}
}

// Subscribe registers a new subscriber with an empty queue.
func (h *Hub) Subscribe() *Subscriber {
	s := &Subscriber{ch: make(chan []byte, h.capacity)}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Unsubscribe removes the subscriber and closes its queue. Safe to call more
// than once, and safe to call on an already-evicted subscriber.
func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	delete(h.subs, s)
	h.mu.Unlock()
	s.shutdown()
}

// Publish enqueues payload on every subscriber without blocking. A subscriber
// whose queue is full is evicted and its queue closed; remaining subscribers
// are unaffected.
func (h *Hub) Publish(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		select {
		case s.ch <- payload:
		default:
			delete(h.subs, s)
			s.shutdown()
		}
	}
}

// Len returns the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
