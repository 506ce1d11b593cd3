package websocket

import (
	"log/slog"
	"sync"
	"time"

	"github.com/lome-transit/ticketing-backend/internal/core/domain"
	"github.com/lome-transit/ticketing-backend/internal/core/ports"
)

// DefaultQueueSize bounds each subscriber's delivery backlog.
const DefaultQueueSize = 64

// Subscriber is one connected client: an id, a bounded delivery channel
// and a monotonically increasing delivery sequence number. Created on
// connect, destroyed on disconnect, never persisted.
type Subscriber struct {
	ClientID string

	// mu serializes enqueue/close so the drop-oldest dance below cannot
	// interleave and reorder deliveries.
	mu       sync.Mutex
	events   chan domain.Event
	seq      uint64
	degraded bool
	closed   bool
}

// Events exposes the delivery channel. The channel is closed when the
// subscriber is removed from the hub.
func (s *Subscriber) Events() <-chan domain.Event {
	return s.events
}

// Degraded reports whether this subscriber has ever overflowed its queue
// and lost its oldest unread events.
func (s *Subscriber) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// enqueue appends an event without ever blocking. When the queue is full
// the oldest unread event is dropped in favor of the new one and the
// subscriber is marked degraded: bounded backlog, most-recent-wins.
func (s *Subscriber) enqueue(event domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.seq++
	event.Seq = s.seq

	select {
	case s.events <- event:
		return
	default:
	}

	// Queue full. The consumer may race us and drain a slot between the
	// two selects; both branches keep the backlog within its bound.
	select {
	case <-s.events:
		s.degraded = true
	default:
	}
	select {
	case s.events <- event:
	default:
	}
}

// closeEvents closes the delivery channel exactly once.
func (s *Subscriber) closeEvents() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.events)
	}
}

// Hub is the subscriber registry and event broadcaster. One RWMutex
// guards the registry so a publish observes either the old or the new
// subscriber set, never a partially updated one.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscriber
	queueSize   int
	logger      *slog.Logger
}

var _ ports.EventBroadcaster = (*Hub)(nil)

// NewHub creates a hub whose subscribers buffer at most queueSize events.
func NewHub(logger *slog.Logger, queueSize int) *Hub {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Hub{
		subscribers: make(map[string]*Subscriber),
		queueSize:   queueSize,
		logger:      logger.With("component", "event_hub"),
	}
}

// Subscribe registers a client and returns its subscriber. Idempotent per
// client id: a second subscribe for the same id supersedes the previous
// connection, whose channel is closed.
func (h *Hub) Subscribe(clientID string) *Subscriber {
	sub := &Subscriber{
		ClientID: clientID,
		events:   make(chan domain.Event, h.queueSize),
	}

	h.mu.Lock()
	prev := h.subscribers[clientID]
	h.subscribers[clientID] = sub
	h.mu.Unlock()

	if prev != nil {
		prev.closeEvents()
		h.logger.Info("subscriber replaced", "client_id", clientID)
	} else {
		h.logger.Info("subscriber registered", "client_id", clientID)
	}

	return sub
}

// Unsubscribe removes a client and closes its channel. Safe to call
// repeatedly or with an unknown id.
func (h *Hub) Unsubscribe(clientID string) {
	h.mu.Lock()
	sub, ok := h.subscribers[clientID]
	if ok {
		delete(h.subscribers, clientID)
	}
	h.mu.Unlock()

	if !ok {
		return
	}

	sub.closeEvents()
	h.logger.Info("subscriber removed", "client_id", clientID)
}

// detach removes a specific subscriber. Unlike Unsubscribe it is a no-op
// when the registry already holds a replacement for the same client id, so
// a superseded connection tearing down cannot evict its successor.
func (h *Hub) detach(sub *Subscriber) {
	h.mu.Lock()
	if current, ok := h.subscribers[sub.ClientID]; ok && current == sub {
		delete(h.subscribers, sub.ClientID)
	}
	h.mu.Unlock()

	sub.closeEvents()
}

// Publish delivers the event to every registered subscriber. Each
// subscriber gets its own copy in publish order; a slow or full subscriber
// only affects its own queue and never delays the others or the caller.
func (h *Hub) Publish(event domain.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	h.mu.RLock()
	subs := make([]*Subscriber, 0, len(h.subscribers))
	for _, sub := range h.subscribers {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		sub.enqueue(event)
	}

	h.logger.Debug("event published",
		"event_type", event.Type,
		"subscriber_count", len(subs),
	)
	return nil
}

// SubscriberCount returns the number of registered subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Shutdown removes and closes every subscriber.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	subs := h.subscribers
	h.subscribers = make(map[string]*Subscriber)
	h.mu.Unlock()

	for _, sub := range subs {
		sub.closeEvents()
	}
}
