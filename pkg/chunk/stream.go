package chunk

import "sync"

// Stream provides a multi-subscriber broadcast pattern for loader events.
// Unlike raw channels, every listener receives every event independently,
// and publishing never blocks on slow consumers because delivery is a direct
// call on the publisher's goroutine.
type Stream[T any] struct {
	mu   sync.Mutex
	subs map[int]func(T)
	next int
}

// NewStream creates an empty stream.
func NewStream[T any]() *Stream[T] {
	return &Stream[T]{subs: make(map[int]func(T))}
}

// Listen subscribes to events and returns an unsubscribe function.
// The handler is called synchronously for each published event.
func (s *Stream[T]) Listen(handler func(T)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = handler
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Publish delivers an event to all current subscribers.
// Delivery order between subscribers is not guaranteed.
func (s *Stream[T]) Publish(value T) {
	s.mu.Lock()
	handlers := make([]func(T), 0, len(s.subs))
	for _, h := range s.subs {
		handlers = append(handlers, h)
	}
	s.mu.Unlock()

	for _, h := range handlers {
		h(value)
	}
}
