// internal/events/bus.go
package events

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var (
	errBusClosed = errors.New("event bus is shutting down")
	errBusFull   = errors.New("event queue full")
)

// Bus реализует шину событий внутри процесса. События публикуются после фиксации
// операции и доставляются одним диспетчером в порядке публикации;
// ошибки обработчиков не влияют на результат операции.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType]map[string]Handler
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	queue  chan Event

	statsMu   sync.Mutex
	delivered uint64
	dropped   uint64
	failed    uint64
}

// Stats is a snapshot of bus counters.
type Stats struct {
	Capacity  int
	Pending   int
	Handlers  map[EventType]int
	Delivered uint64
	Dropped   uint64
	Failed    uint64
}

// NewBus starts a bus buffering up to capacity events.
func NewBus(logger *zap.Logger, capacity int) *Bus {
	ctx, cancel := context.WithCancel(context.Background())
	b := &Bus{
		handlers: make(map[EventType]map[string]Handler),
		logger:   logger.Named("event_bus"),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		queue:    make(chan Event, capacity),
	}
	go b.dispatch()
	return b
}

// Subscribe registers handler for eventType.
func (b *Bus) Subscribe(eventType EventType, handler Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.New().String()
	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make(map[string]Handler)
	}
	b.handlers[eventType][id] = handler

	b.logger.Debug("Handler subscribed",
		zap.String("event_type", string(eventType)),
		zap.String("subscription_id", id))
	return &subscription{id: id, bus: b, typ: eventType}
}

// SubscribeFunc subscribes a plain function.
func (b *Bus) SubscribeFunc(eventType EventType, fn func(context.Context, Event) error) Subscription {
	return b.Subscribe(eventType, HandlerFunc(fn))
}

// SubscribeAll registers handler for every type in eventTypes.
func (b *Bus) SubscribeAll(handler Handler, eventTypes ...EventType) Subscription {
	subs := make(subscriptions, 0, len(eventTypes))
	for _, t := range eventTypes {
		subs = append(subs, b.Subscribe(t, handler))
	}
	return subs
}

// Publish queues event without blocking. A full queue drops the event.
func (b *Bus) Publish(event Event) error {
	select {
	case <-b.ctx.Done():
		return errBusClosed
	default:
	}
	select {
	case b.queue <- event:
		return nil
	default:
		b.count(&b.dropped)
		b.logger.Warn("Event queue full, dropping event",
			zap.String("event_type", string(event.Type())))
		return errBusFull
	}
}

// PublishSync delivers event to its handlers on the caller's goroutine and
// returns their combined errors.
func (b *Bus) PublishSync(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers := make(map[string]Handler, len(b.handlers[event.Type()]))
	for id, h := range b.handlers[event.Type()] {
		handlers[id] = h
	}
	b.mu.RUnlock()

	var err error
	for id, handler := range handlers {
		if herr := handler.Handle(ctx, event); herr != nil {
			b.logger.Error("Handler error",
				zap.String("event_type", string(event.Type())),
				zap.String("handler_id", id),
				zap.Error(herr))
			err = multierr.Append(err, herr)
		}
	}
	if err != nil {
		b.count(&b.failed)
	} else {
		b.count(&b.delivered)
	}
	return err
}

func (b *Bus) dispatch() {
	defer close(b.done)
	for {
		select {
		case event := <-b.queue:
			_ = b.PublishSync(b.ctx, event)
		case <-b.ctx.Done():
			// drain what was accepted before shutdown
			for {
				select {
				case event := <-b.queue:
					_ = b.PublishSync(context.Background(), event)
				default:
					return
				}
			}
		}
	}
}

func (b *Bus) unsubscribe(id string, eventType EventType) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if handlers, ok := b.handlers[eventType]; ok {
		delete(handlers, id)
		if len(handlers) == 0 {
			delete(b.handlers, eventType)
		}
	}
	b.logger.Debug("Handler unsubscribed",
		zap.String("event_type", string(eventType)),
		zap.String("subscription_id", id))
}

func (b *Bus) count(c *uint64) {
	b.statsMu.Lock()
	*c++
	b.statsMu.Unlock()
}

// Shutdown stops accepting events and waits for queued ones to be delivered.
func (b *Bus) Shutdown(ctx context.Context) error {
	b.logger.Info("Shutting down event bus")
	b.cancel()

	select {
	case <-b.done:
		b.logger.Info("Event bus shutdown complete")
		return nil
	case <-ctx.Done():
		b.logger.Warn("Event bus shutdown timeout")
		return ctx.Err()
	}
}

// Stats returns the current counters of the bus.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	handlers := make(map[EventType]int, len(b.handlers))
	for t, hs := range b.handlers {
		handlers[t] = len(hs)
	}
	b.mu.RUnlock()

	b.statsMu.Lock()
	defer b.statsMu.Unlock()
	return Stats{
		Capacity:  cap(b.queue),
		Pending:   len(b.queue),
		Handlers:  handlers,
		Delivered: b.delivered,
		Dropped:   b.dropped,
		Failed:    b.failed,
	}
}
