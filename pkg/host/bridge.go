package host

import (
	"errors"
	"fmt"
	"sync"
)

// Bridge errors.
var (
	// ErrNoHandler indicates no handler is registered for a channel.
	ErrNoHandler = errors.New("host: no handler registered for channel")
	// ErrMethodNotFound indicates the handler does not implement the method.
	ErrMethodNotFound = errors.New("host: method not found")
)

// MethodHandler handles method calls addressed to the embedding shell.
type MethodHandler func(method string, args map[string]any) (any, error)

// Bridge routes named method calls from the runtime to the embedding shell.
//
// The shell registers a handler per channel during startup; runtime services
// invoke methods on those channels. Invoking a channel with no handler is an
// error rather than a silent drop, so misconfigured embeddings surface
// immediately.
type Bridge struct {
	mu       sync.RWMutex
	handlers map[string]MethodHandler
}

// DefaultBridge is the process-wide bridge. Embedding shells register their
// handlers here unless the application wires an explicit bridge through.
var DefaultBridge = NewBridge()

// NewBridge creates an empty bridge.
func NewBridge() *Bridge {
	return &Bridge{handlers: make(map[string]MethodHandler)}
}

// Handle registers the handler for a channel, replacing any previous one.
// Passing nil removes the registration.
func (b *Bridge) Handle(channel string, handler MethodHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if handler == nil {
		delete(b.handlers, channel)
		return
	}
	b.handlers[channel] = handler
}

// Invoke calls a method on the shell side and returns the result.
func (b *Bridge) Invoke(channel, method string, args map[string]any) (any, error) {
	b.mu.RLock()
	handler := b.handlers[channel]
	b.mu.RUnlock()

	if handler == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoHandler, channel)
	}
	return handler(method, args)
}
