// Package eventbus provides the in-process typed pub/sub used for
// progress, trade and error notifications.
package eventbus

import (
	"sync"
	"time"

	"github.com/yourorg/backtest-service/internal/model"
)

// Handler receives published events. Publish is synchronous, so handlers
// must not perform long blocking work inline.
type Handler func(model.Event)

// Bus is a fire-and-forget event publisher. Delivery is best-effort with
// no persistence and no ordering guarantee across event types.
type Bus struct {
	mu       sync.RWMutex
	handlers map[model.EventType][]Handler
	all      []Handler
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{
		handlers: make(map[model.EventType][]Handler),
	}
}

// Subscribe registers a handler for the given event types. With no types,
// the handler receives every event.
func (b *Bus) Subscribe(h Handler, types ...model.EventType) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(types) == 0 {
		b.all = append(b.all, h)
		return
	}
	for _, t := range types {
		b.handlers[t] = append(b.handlers[t], h)
	}
}

// Publish delivers an event synchronously to all matching subscribers.
func (b *Bus) Publish(eventType model.EventType, payload interface{}) {
	event := model.Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}

	b.mu.RLock()
	typed := b.handlers[eventType]
	all := b.all
	b.mu.RUnlock()

	for _, h := range typed {
		h(event)
	}
	for _, h := range all {
		h(event)
	}
}
