// internal/events/handler.go
package events

import "context"

// Handler processes events of a specific type. Handlers must not block for
// long; they run on bus goroutines.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts an ordinary function to Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Subscription represents a registered handler.
type Subscription interface {
	Unsubscribe()
}

type subscription struct {
	id   string
	bus  *Bus
	typs []EventType
}

func (s *subscription) Unsubscribe() {
	s.bus.unsubscribe(s.id, s.typs)
}
