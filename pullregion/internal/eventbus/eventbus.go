// Package eventbus is the page-level event mediator. Handlers subscribe by
// event name and are called synchronously, in subscription order, when an
// event with that name is dispatched.
package eventbus

import (
	"context"
	"encoding/json"
	"sync"
)

// StatusMessage is the event name used for envelope messages.
const StatusMessage = "statusmessage"

// All subscribes a handler to every event.
const All = "*"

// Event is one dispatched event.
type Event struct {
	Name   string
	Detail json.RawMessage
}

// Handler receives events.
type Handler func(ctx context.Context, ev Event)

type sub struct {
	id int
	h  Handler
}

// Bus maps event names to handlers.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string][]sub
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[string][]sub)}
}

// Subscribe registers h for name (or All). The returned function removes
// the subscription.
func (b *Bus) Subscribe(name string, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs[name] = append(b.subs[name], sub{id: id, h: h})

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			list := b.subs[name]
			for i, s := range list {
				if s.id == id {
					b.subs[name] = append(list[:i:i], list[i+1:]...)
					break
				}
			}
			if len(b.subs[name]) == 0 {
				delete(b.subs, name)
			}
		})
	}
}

// Dispatch calls every handler for name, then every All handler, and
// returns how many were called. Handlers run on the caller's goroutine.
func (b *Bus) Dispatch(ctx context.Context, name string, detail json.RawMessage) int {
	b.mu.RLock()
	handlers := make([]sub, 0, len(b.subs[name])+len(b.subs[All]))
	handlers = append(handlers, b.subs[name]...)
	if name != All {
		handlers = append(handlers, b.subs[All]...)
	}
	b.mu.RUnlock()

	ev := Event{Name: name, Detail: detail}
	for _, s := range handlers {
		s.h(ctx, ev)
	}
	return len(handlers)
}

// SubscriberCount returns the number of handlers for name.
func (b *Bus) SubscriberCount(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[name])
}
