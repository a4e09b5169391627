// internal/events/bus.go
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrBusClosed = errors.New("event bus is shutting down")
	ErrBusFull   = errors.New("event channel full")
)

// DefaultBufferSize is the number of events queued before Publish drops.
const DefaultBufferSize = 256

// Bus is an in-memory event bus. Events are delivered to handlers on a single
// goroutine in publish order.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType]map[string]Handler
	logger   *zap.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	eventChan chan Event

	published uint64
	dropped   uint64
	failed    uint64
}

// Stats is a snapshot of bus counters.
type Stats struct {
	BufferSize      int
	Pending         int
	Published       uint64
	Dropped         uint64
	HandlerFailures uint64
	Handlers        map[EventType]int
}

// NewBus creates a bus and starts its delivery goroutine.
func NewBus(logger *zap.Logger, bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	b := &Bus{
		handlers:  make(map[EventType]map[string]Handler),
		logger:    logger.Named("event_bus"),
		ctx:       ctx,
		cancel:    cancel,
		eventChan: make(chan Event, bufferSize),
	}

	b.wg.Add(1)
	go b.processEvents()

	return b
}

// Subscribe registers handler for one or more event types.
func (b *Bus) Subscribe(handler Handler, types ...EventType) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.New().String()
	for _, t := range types {
		if b.handlers[t] == nil {
			b.handlers[t] = make(map[string]Handler)
		}
		b.handlers[t][id] = handler
	}

	b.logger.Debug("Handler subscribed",
		zap.Any("event_types", types),
		zap.String("subscription_id", id))

	return &subscription{id: id, bus: b, typs: types}
}

// SubscribeFunc subscribes a plain function.
func (b *Bus) SubscribeFunc(fn func(context.Context, Event) error, types ...EventType) Subscription {
	return b.Subscribe(HandlerFunc(fn), types...)
}

// Publish queues event without blocking. A full buffer drops the event.
func (b *Bus) Publish(event Event) error {
	if b.ctx.Err() != nil {
		return ErrBusClosed
	}

	select {
	case b.eventChan <- event:
		b.mu.Lock()
		b.published++
		b.mu.Unlock()
		return nil
	default:
		b.mu.Lock()
		b.dropped++
		b.mu.Unlock()
		b.logger.Warn("Event channel full, dropping event",
			zap.String("event_type", string(event.Type())))
		return fmt.Errorf("%w: %s", ErrBusFull, event.Type())
	}
}

// PublishSync delivers event to all handlers on the calling goroutine.
func (b *Bus) PublishSync(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers := make(map[string]Handler, len(b.handlers[event.Type()]))
	for id, h := range b.handlers[event.Type()] {
		handlers[id] = h
	}
	b.mu.RUnlock()

	var errs []error
	for id, h := range handlers {
		if err := h.Handle(ctx, event); err != nil {
			b.logger.Error("Handler error",
				zap.String("event_type", string(event.Type())),
				zap.String("handler_id", id),
				zap.Error(err))
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		b.mu.Lock()
		b.failed += uint64(len(errs))
		b.mu.Unlock()
		return errors.Join(errs...)
	}
	return nil
}

func (b *Bus) processEvents() {
	defer b.wg.Done()

	for {
		select {
		case <-b.ctx.Done():
			// drain what was already accepted
			for {
				select {
				case event := <-b.eventChan:
					_ = b.PublishSync(context.Background(), event)
				default:
					return
				}
			}
		case event := <-b.eventChan:
			_ = b.PublishSync(b.ctx, event)
		}
	}
}

func (b *Bus) unsubscribe(id string, types []EventType) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, t := range types {
		if handlers, ok := b.handlers[t]; ok {
			delete(handlers, id)
			if len(handlers) == 0 {
				delete(b.handlers, t)
			}
		}
	}

	b.logger.Debug("Handler unsubscribed", zap.String("subscription_id", id))
}

// Shutdown stops accepting events and waits for queued ones to be delivered.
func (b *Bus) Shutdown(ctx context.Context) error {
	b.logger.Info("Shutting down event bus")
	b.cancel()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("Event bus shutdown complete")
		return nil
	case <-ctx.Done():
		b.logger.Warn("Event bus shutdown timeout")
		return ctx.Err()
	}
}

// Close shuts the bus down with a short timeout.
func (b *Bus) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return b.Shutdown(ctx)
}

// Stats returns a snapshot of bus counters.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	s := Stats{
		BufferSize:      cap(b.eventChan),
		Pending:         len(b.eventChan),
		Published:       b.published,
		Dropped:         b.dropped,
		HandlerFailures: b.failed,
		Handlers:        make(map[EventType]int, len(b.handlers)),
	}
	for t, hs := range b.handlers {
		s.Handlers[t] = len(hs)
	}
	return s
}
