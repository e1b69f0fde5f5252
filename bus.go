package sagakit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// FailedSuffix is appended to an event type when a subscriber errors out,
// producing the derived failure event choreographed compensations react to.
const FailedSuffix = "_FAILED"

// Event is an immutable record published on the bus. Events are appended to
// the bus history in publish order; subscribers must treat them as read-only.
type Event struct {
	ID        uuid.UUID
	Type      string
	Data      map[string]any
	Timestamp time.Time
}

// Handler processes one event. A returned error is caught by the bus and
// converted into a derived "<type>_FAILED" event; it never reaches the
// original publisher.
type Handler func(ctx context.Context, event Event) error

type subscription struct {
	handler        Handler
	subscriberName string
}

// EventBus is an in-process publish/subscribe hub. Subscribers for a topic
// are invoked sequentially in registration order, each run to completion
// before the next, so cascading publishes resolve depth-first and the history
// ordering is deterministic.
//
// The bus assumes one logical flow of control at a time: handlers may publish
// recursively, but concurrent external publishers need synchronization of
// their own.
type EventBus struct {
	logger zerolog.Logger

	mu          sync.Mutex
	subscribers map[string][]subscription
	history     []Event
}

// NewEventBus creates an empty bus.
func NewEventBus(logger zerolog.Logger) *EventBus {
	return &EventBus{
		logger:      logger,
		subscribers: make(map[string][]subscription),
	}
}

// Subscribe registers handler for eventType. Multiple subscribers per type
// are allowed; registration order is invocation order.
func (b *EventBus) Subscribe(eventType string, handler Handler, subscriberName string) {
	b.mu.Lock()
	b.subscribers[eventType] = append(b.subscribers[eventType], subscription{
		handler:        handler,
		subscriberName: subscriberName,
	})
	b.mu.Unlock()

	b.logger.Debug().Str("event", eventType).Str("subscriber", subscriberName).Msg("handler subscribed")
}

// Publish records the event and invokes every subscriber for its type, one
// after another, waiting for each. A subscriber error is caught locally,
// logged, and re-published as "<eventType>_FAILED" carrying the original data
// plus an "error" message field. Publishing a type with no subscribers only
// appends to the history.
//
// Publish returns once the event and every event transitively published by
// its subscribers have been fully handled.
func (b *EventBus) Publish(ctx context.Context, eventType string, data map[string]any) {
	event := Event{
		ID:        uuid.New(),
		Type:      eventType,
		Data:      copyData(data),
		Timestamp: time.Now(),
	}

	// The lock covers history and subscriber-list access only. It is released
	// before handlers run so that handlers can publish recursively.
	b.mu.Lock()
	b.history = append(b.history, event)
	subscribers := append([]subscription(nil), b.subscribers[eventType]...)
	b.mu.Unlock()

	b.logger.Info().Str("event", eventType).Int("subscribers", len(subscribers)).Msg("event published")

	for _, sub := range subscribers {
		if err := sub.handler(ctx, event); err != nil {
			b.logger.Warn().
				Str("event", eventType).
				Str("subscriber", sub.subscriberName).
				Err(err).
				Msg("handler failed, publishing failure event")

			failureData := copyData(data)
			failureData["error"] = err.Error()
			b.Publish(ctx, eventType+FailedSuffix, failureData)
		}
	}
}

// History returns a copy of the append-only event log.
func (b *EventBus) History() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Event(nil), b.history...)
}

// EventTypes returns the history's event types, in publish order.
func (b *EventBus) EventTypes() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	types := make([]string, len(b.history))
	for i, event := range b.history {
		types[i] = event.Type
	}
	return types
}

// ClearHistory resets the event log. Subscriptions are kept.
func (b *EventBus) ClearHistory() {
	b.mu.Lock()
	b.history = nil
	b.mu.Unlock()
}

func copyData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data)+1)
	for k, v := range data {
		out[k] = v
	}
	return out
}
