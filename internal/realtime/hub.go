// Package realtime fans expense change events out to per-trip subscribers.
//
// The hub is the delivery half of the sync story: after a mutation is
// persisted, the mutating side publishes an event here and every open view of
// the same trip reconciles it. Delivery is at-least-once flavored, not
// strictly ordered; subscribers are expected to merge idempotently by
// expense ID.
package realtime

import (
	"log/slog"
	"sync"

	"github.com/duotrip/duotrip/internal/metrics"
	"github.com/duotrip/duotrip/internal/models"
)

// EventKind classifies an expense change event.
type EventKind string

const (
	EventInserted EventKind = "inserted"
	EventUpdated  EventKind = "updated"
	EventDeleted  EventKind = "deleted"
)

// Event is one expense change delivered to subscribers of the trip.
// For deletions only Expense.ID and Expense.TripID are meaningful.
type Event struct {
	Kind    EventKind
	Expense models.Expense
}

// subscriberBuffer is sized for two chatty participants, not a firehose.
// A full buffer drops the event rather than stalling the mutation path;
// the ledger's insert-if-absent merge rule recovers from the gap on the
// next update of the same expense.
const subscriberBuffer = 16

// Subscription is one trip-scoped event stream. Receive from C until
// Unsubscribe, after which C is closed.
type Subscription struct {
	// C delivers events for the subscribed trip in publish order.
	C <-chan Event

	hub    *Hub
	tripID string
	ch     chan Event
	once   sync.Once
}

// Unsubscribe detaches the subscription and closes C. Safe to call more
// than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.hub.remove(s.tripID, s.ch)
		close(s.ch)
	})
}

// Hub routes events to the subscribers of each trip. The zero value is not
// usable; call NewHub.
type Hub struct {
	mu   sync.RWMutex
	subs map[string][]chan Event // tripID → subscriber channels
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string][]chan Event)}
}

// Subscribe opens an event stream scoped to tripID. Events published for
// other trips never reach it.
func (h *Hub) Subscribe(tripID string) *Subscription {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	h.subs[tripID] = append(h.subs[tripID], ch)
	h.mu.Unlock()

	return &Subscription{C: ch, hub: h, tripID: tripID, ch: ch}
}

// Publish delivers the event to every subscriber of tripID. It never blocks:
// a subscriber that cannot keep up loses the event, which is logged and
// counted rather than hidden.
func (h *Hub) Publish(tripID string, event Event) {
	metrics.RealtimeEvents.WithLabelValues(string(event.Kind)).Inc()

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subs[tripID] {
		select {
		case ch <- event:
		default:
			metrics.RealtimeDropped.Inc()
			slog.Warn("realtime subscriber buffer full, event dropped",
				"trip_id", tripID,
				"kind", event.Kind,
				"expense_id", event.Expense.ID,
			)
		}
	}
}

func (h *Hub) remove(tripID string, ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subs[tripID]
	for i, c := range subs {
		if c == ch {
			h.subs[tripID] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(h.subs[tripID]) == 0 {
		delete(h.subs, tripID)
	}
}
