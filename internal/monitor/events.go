package monitor

import (
	"log/slog"
	"sync"
)

// Feed is a typed publish/subscribe channel for one event kind. Listeners
// are invoked synchronously in subscription order; a panicking listener is
// isolated so the others still run.
type Feed[T any] struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(T)
}

// NewFeed creates an empty feed.
func NewFeed[T any]() *Feed[T] {
	return &Feed[T]{subs: make(map[int]func(T))}
}

// Subscription is a handle for one listener registration.
type Subscription struct {
	cancel func()
	once   sync.Once
}

// Cancel removes the listener. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(s.cancel)
}

// Subscribe registers fn and returns its cancellation handle.
func (f *Feed[T]) Subscribe(fn func(T)) *Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextID
	f.nextID++
	f.subs[id] = fn

	return &Subscription{cancel: func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}}
}

// Publish delivers event to every current listener.
func (f *Feed[T]) Publish(event T) {
	f.mu.Lock()
	listeners := make([]func(T), 0, len(f.subs))
	for _, fn := range f.subs {
		listeners = append(listeners, fn)
	}
	f.mu.Unlock()

	for _, fn := range listeners {
		invoke(fn, event)
	}
}

func invoke[T any](fn func(T), event T) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event listener panicked", "panic", r)
		}
	}()
	fn(event)
}
