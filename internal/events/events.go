// Package events provides the in-process event bus that connects the
// transport dispatch loop with command handlers and reply waiters.
//
// Every inbound update is described by a Descriptor and emitted once per
// scope, broadest scope first. Persistent listeners registered on a broad
// scope therefore always observe an event before a waiter blocked on a more
// specific scope, which lets a cancel command abort a pending reply wait
// before the waiter is woken.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/calloutkit/calloutbot/internal/models"
)

// ScopeSeparator joins the segments of a scope name.
const ScopeSeparator = ":"

// Descriptor classifies one inbound event for scope fan-out.
type Descriptor struct {
	// Category is the coarse event kind, e.g. "message" or "callback".
	Category string
	// Subcategory refines the category, e.g. "photo" or "command".
	Subcategory string
	// PayloadKey is a payload-derived routing key, e.g. the part of a
	// callback data string before its first separator.
	PayloadKey string
	// UserID scopes the event to one chat when non-zero.
	UserID int64
}

// Scopes returns the ordered list of scope names the descriptor matches,
// broadest first. Each unqualified name is immediately followed by its
// user-qualified variant so chat-specific listeners still run in category
// order.
func (d Descriptor) Scopes() []string {
	if d.Category == "" {
		return nil
	}

	names := []string{d.Category}
	if d.Subcategory != "" {
		names = append(names, d.Category+ScopeSeparator+d.Subcategory)
	}
	if d.PayloadKey != "" {
		names = append(names, d.Category+ScopeSeparator+d.PayloadKey)
	}

	scopes := make([]string, 0, len(names)*2)
	for _, name := range names {
		scopes = append(scopes, name)
		if d.UserID != 0 {
			scopes = append(scopes, fmt.Sprintf("%s%suser-%d", name, ScopeSeparator, d.UserID))
		}
	}
	return scopes
}

// UserScope returns the user-qualified variant of a scope name.
func UserScope(name string, userID int64) string {
	return fmt.Sprintf("%s%suser-%d", name, ScopeSeparator, userID)
}

// Handler is a persistent listener. Handlers run synchronously on the
// emitting goroutine, in registration order.
type Handler func(ctx context.Context, desc Descriptor, ev *models.Event)

type waiter struct {
	ch chan *models.Event
}

// Dispatcher fans events out to persistent handlers and one-shot waiters.
// Emission is synchronous: Emit returns only after every matching handler
// has run and every matching waiter has been handed the event.
type Dispatcher struct {
	mu       sync.Mutex
	handlers map[string][]Handler
	waiters  map[string][]*waiter
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string][]Handler),
		waiters:  make(map[string][]*waiter),
	}
}

// On registers a persistent handler for a scope name.
func (d *Dispatcher) On(scope string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[scope] = append(d.handlers[scope], h)
}

// Emit delivers an event to all handlers and waiters matching the
// descriptor's scopes, broadest scope first. Handlers on a scope run before
// waiters on the same scope; waiters are removed on delivery.
func (d *Dispatcher) Emit(ctx context.Context, desc Descriptor, ev *models.Event) {
	scopes := desc.Scopes()
	slog.Debug("Dispatcher.Emit: delivering event", "scopes", scopes, "userID", desc.UserID)

	for _, scope := range scopes {
		d.mu.Lock()
		handlers := make([]Handler, len(d.handlers[scope]))
		copy(handlers, d.handlers[scope])
		pending := d.waiters[scope]
		delete(d.waiters, scope)
		d.mu.Unlock()

		for _, h := range handlers {
			h(ctx, desc, ev)
		}
		for _, w := range pending {
			w.ch <- ev
		}
	}
}

// WaitFor blocks until one event is emitted on the given scope or the
// context ends. The registration is one-shot: it is removed on delivery or
// cancellation.
func (d *Dispatcher) WaitFor(ctx context.Context, scope string) (*models.Event, error) {
	w := &waiter{ch: make(chan *models.Event, 1)}

	d.mu.Lock()
	d.waiters[scope] = append(d.waiters[scope], w)
	d.mu.Unlock()

	select {
	case ev := <-w.ch:
		return ev, nil
	case <-ctx.Done():
		d.remove(scope, w)
		// Delivery may have raced the cancellation.
		select {
		case ev := <-w.ch:
			return ev, nil
		default:
		}
		return nil, ctx.Err()
	}
}

func (d *Dispatcher) remove(scope string, target *waiter) {
	d.mu.Lock()
	defer d.mu.Unlock()
	pending := d.waiters[scope]
	for i, w := range pending {
		if w == target {
			d.waiters[scope] = append(pending[:i], pending[i+1:]...)
			break
		}
	}
	if len(d.waiters[scope]) == 0 {
		delete(d.waiters, scope)
	}
}
