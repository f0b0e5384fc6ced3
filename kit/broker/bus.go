package broker

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// Wildcard subscribes a handler to every event published on the bus.
const Wildcard = "*"

type Event interface {
	Name() string
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) []error
}

type Handler func(ctx context.Context, evt Event) error

type entry struct {
	id uint64
	h  Handler
}

type Bus struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[string][]entry
}

func New() *Bus {
	return &Bus{handlers: make(map[string][]entry)}
}

// Subscription is the handle returned by Subscribe. Unsubscribe is safe to
// call more than once and from inside a handler running on the same bus.
type Subscription struct {
	bus       *Bus
	eventName string
	id        uint64
	once      sync.Once
}

func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(func() { s.bus.remove(s.eventName, s.id) })
}

func (b *Bus) Subscribe(eventName string, h Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.handlers[eventName] = append(b.handlers[eventName], entry{id: b.nextID, h: h})
	return &Subscription{bus: b, eventName: eventName, id: b.nextID}
}

func (b *Bus) remove(eventName string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	hs := b.handlers[eventName]
	for i, e := range hs {
		if e.id != id {
			continue
		}
		next := make([]entry, 0, len(hs)-1)
		next = append(next, hs[:i]...)
		next = append(next, hs[i+1:]...)
		if len(next) == 0 {
			delete(b.handlers, eventName)
		} else {
			b.handlers[eventName] = next
		}
		return
	}
}

// Subscribers reports how many handlers are currently bound to eventName.
func (b *Bus) Subscribers(eventName string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventName])
}

func (b *Bus) Publish(ctx context.Context, evt Event) []error {
	b.mu.RLock()
	hs := append([]entry(nil), b.handlers[evt.Name()]...)
	if evt.Name() != Wildcard {
		hs = append(hs, b.handlers[Wildcard]...)
	}
	b.mu.RUnlock()

	var errs []error
	for i, e := range hs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("broker handler panic event=%s handler_index=%d panic=%v", evt.Name(), i, r)
					errs = append(errs, fmt.Errorf("%w: %v", ErrHandlerPanic, r))
				}
			}()
			if err := e.h(ctx, evt); err != nil {
				log.Printf("broker handler error event=%s handler_index=%d error=%v", evt.Name(), i, err)
				errs = append(errs, err)
			}
		}()
	}
	return errs
}
