package websocket

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lome-transit/ticketing-backend/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func publishN(h *Hub, n int) {
	for i := 0; i < n; i++ {
		_ = h.Publish(domain.Event{
			Type:      domain.EventTicketValidated,
			Payload:   fmt.Sprintf("event-%d", i),
			Timestamp: time.Now().UTC(),
		})
	}
}

func drain(sub *Subscriber) []domain.Event {
	var events []domain.Event
	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		default:
			return events
		}
	}
}

func TestHub_DeliversInPublishOrder(t *testing.T) {
	hub := NewHub(testLogger(), 256)
	sub := hub.Subscribe("dashboard-1")

	publishN(hub, 100)

	events := drain(sub)
	require.Len(t, events, 100)

	for i, ev := range events {
		assert.Equal(t, fmt.Sprintf("event-%d", i), ev.Payload)
		assert.Equal(t, uint64(i+1), ev.Seq, "sequence numbers must be gapless under no-overload")
	}
	assert.False(t, sub.Degraded())
}

func TestHub_OverloadDropsOldestAndMarksDegraded(t *testing.T) {
	hub := NewHub(testLogger(), 8)
	slow := hub.Subscribe("slow-scanner")
	fast := hub.Subscribe("fast-dashboard")

	// Drain fast concurrently so it keeps up while slow never reads.
	done := make(chan []domain.Event)
	go func() {
		var got []domain.Event
		for ev := range fast.Events() {
			got = append(got, ev)
			if len(got) == 50 {
				break
			}
		}
		done <- got
	}()

	publishN(hub, 50)

	// Slow subscriber: backlog bounded, newest retained, marked degraded.
	backlog := drain(slow)
	require.LessOrEqual(t, len(backlog), 8)
	assert.True(t, slow.Degraded())
	assert.Equal(t, "event-49", backlog[len(backlog)-1].Payload, "most recent event wins under overload")
	for i := 1; i < len(backlog); i++ {
		assert.Greater(t, backlog[i].Seq, backlog[i-1].Seq, "order preserved even with drops")
	}

	// Fast subscriber is unaffected and fully caught up.
	select {
	case got := <-done:
		require.Len(t, got, 50)
		for i, ev := range got {
			assert.Equal(t, fmt.Sprintf("event-%d", i), ev.Payload)
		}
		assert.False(t, fast.Degraded())
	case <-time.After(2 * time.Second):
		t.Fatal("fast subscriber did not receive all events")
	}
}

func TestHub_UnsubscribeIsIdempotent(t *testing.T) {
	hub := NewHub(testLogger(), 8)
	sub := hub.Subscribe("scanner-7")

	hub.Unsubscribe("scanner-7")
	hub.Unsubscribe("scanner-7") // repeated
	hub.Unsubscribe("never-connected")

	_, open := <-sub.Events()
	assert.False(t, open, "channel must be closed after unsubscribe")
	assert.Equal(t, 0, hub.SubscriberCount())

	// Publishing after removal must not panic or deliver.
	require.NoError(t, hub.Publish(domain.Event{Type: domain.EventTicketValidated}))
}

func TestHub_ResubscribeReplacesPriorConnection(t *testing.T) {
	hub := NewHub(testLogger(), 8)
	old := hub.Subscribe("scanner-3")
	replacement := hub.Subscribe("scanner-3")

	_, open := <-old.Events()
	assert.False(t, open, "prior connection's channel must be closed")
	assert.Equal(t, 1, hub.SubscriberCount())

	publishN(hub, 3)
	assert.Len(t, drain(replacement), 3)
}

func TestHub_DetachedStaleConnectionKeepsReplacement(t *testing.T) {
	hub := NewHub(testLogger(), 8)
	old := hub.Subscribe("scanner-3")
	replacement := hub.Subscribe("scanner-3")

	// The superseded connection tears down after being replaced; this must
	// not evict the replacement.
	hub.detach(old)

	assert.Equal(t, 1, hub.SubscriberCount())
	publishN(hub, 1)
	assert.Len(t, drain(replacement), 1)
}

func TestHub_PublishStampsTimestamp(t *testing.T) {
	hub := NewHub(testLogger(), 8)
	sub := hub.Subscribe("dashboard-1")

	require.NoError(t, hub.Publish(domain.Event{Type: domain.EventTicketValidated}))

	events := drain(sub)
	require.Len(t, events, 1)
	assert.False(t, events[0].Timestamp.IsZero())
}
