package session

import (
	"sync"

	"github.com/google/uuid"
)

// EventKind discriminates auth state changes.
type EventKind int

const (
	// SignedIn fires after a successful login or registration.
	SignedIn EventKind = iota + 1
	// SignedOut fires when an account ends its session.
	SignedOut
)

// Event is one auth state change pushed to subscribers.
type Event struct {
	Kind   EventKind
	UserID uuid.UUID
}

// Bus fans auth events out to registered handlers. Handlers run synchronously
// on the publishing goroutine, in registration order.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(Event)
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(Event))}
}

// Subscribe registers a handler and returns its unsubscribe function.
func (b *Bus) Subscribe(fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs[id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Publish delivers the event to every current subscriber.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	handlers := make([]func(Event), 0, len(b.subs))
	// map iteration order is random; deliver in registration order
	for i := 0; i < b.nextID; i++ {
		if fn, ok := b.subs[i]; ok {
			handlers = append(handlers, fn)
		}
	}
	b.mu.Unlock()

	for _, fn := range handlers {
		fn(e)
	}
}
