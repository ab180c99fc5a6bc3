// Package bus provides the in-process publish/subscribe router for domain
// events. Dispatch is tag-based: a handler subscribed to a kind receives
// every event published with that kind, and a handler subscribed to
// types.KindAny receives everything. All matching handlers for one publish
// run concurrently and Publish joins them before returning; it is a
// fan-out/join, not fire-and-forget.
//
// Failure policy is log-and-continue: a handler error (or panic) is logged
// and never reaches the publishing command, and never prevents sibling
// handlers from running to completion.
package bus

import (
	"context"
	"log"
	"sync"

	"github.com/whitlocke/intrigue/pkg/types"
)

// Handler consumes a published event. The world context is optional: the
// publisher passes its in-hand aggregate when it has one, and handlers must
// tolerate nil (re-fetching from the store if they need aggregate state).
type Handler func(ctx context.Context, event types.Event, world *types.World) error

// EventBus routes domain events to subscribed handlers.
// The zero value is not usable; call New.
type EventBus struct {
	mu   sync.RWMutex
	subs map[types.EventKind][]Handler
}

// New creates an empty event bus.
func New() *EventBus {
	return &EventBus{subs: make(map[types.EventKind][]Handler)}
}

// Subscribe registers a handler for the given event kind. Use types.KindAny
// to receive every event. Subscribing the same handler twice means it runs
// twice per matching publish.
func (b *EventBus) Subscribe(kind types.EventKind, h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[kind] = append(b.subs[kind], h)
}

// Publish fans the event out to every handler subscribed to its kind or to
// KindAny, running them as independent goroutines, and returns once all of
// them have finished. Handler failures are logged and swallowed.
func (b *EventBus) Publish(ctx context.Context, event types.Event, world *types.World) {
	if event == nil {
		return
	}

	b.mu.RLock()
	matched := make([]Handler, 0, len(b.subs[event.Kind()])+len(b.subs[types.KindAny]))
	matched = append(matched, b.subs[event.Kind()]...)
	if event.Kind() != types.KindAny {
		matched = append(matched, b.subs[types.KindAny]...)
	}
	b.mu.RUnlock()

	if len(matched) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, h := range matched {
		wg.Add(1)
		go func(h Handler) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Printf("ERROR: event handler panicked on %s: %v", event.Kind(), r)
				}
			}()
			if err := h(ctx, event, world); err != nil {
				log.Printf("ERROR: event handler failed on %s: %v", event.Kind(), err)
			}
		}(h)
	}
	wg.Wait()
}

// SubscriberCount returns the number of handlers that would run for the
// given kind (including wildcard subscribers). Intended for wiring checks
// and tests.
func (b *EventBus) SubscriberCount(kind types.EventKind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := len(b.subs[kind])
	if kind != types.KindAny {
		n += len(b.subs[types.KindAny])
	}
	return n
}
