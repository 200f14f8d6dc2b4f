// internal/events/handler.go
package events

import (
	"context"

	"go.uber.org/zap"
)

// Handler processes events of one type. Handle runs on the dispatcher and
// should not block.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Subscription is removed with Unsubscribe.
type Subscription interface {
	Unsubscribe()
}

type subscription struct {
	id  string
	bus *Bus
	typ EventType
}

func (s *subscription) Unsubscribe() {
	s.bus.unsubscribe(s.id, s.typ)
}

type subscriptions []Subscription

func (s subscriptions) Unsubscribe() {
	for _, sub := range s {
		sub.Unsubscribe()
	}
}

// DomainEvents are the events describing committed state changes.
var DomainEvents = []EventType{RouteExecuted, OrderOpened, OrderFilled, OrderCancelled, OperationFailed}

// NewLogHandler пишет доменные события в журнал.
func NewLogHandler(logger *zap.Logger) Handler {
	logger = logger.Named("events")
	return HandlerFunc(func(_ context.Context, event Event) error {
		switch e := event.(type) {
		case *RouteExecutedEvent:
			logger.Info("Route executed",
				zap.Bool("shared", e.Shared),
				zap.Stringer("input_mint", e.InputMint),
				zap.Stringer("output_mint", e.OutputMint),
				zap.Uint64("in_amount", e.InAmount),
				zap.Uint64("realized", e.Realized),
				zap.Uint64("fee", e.Fee))
		case *OrderEvent:
			logger.Info("Order "+e.Status.String(),
				zap.String("event_type", string(e.Type())),
				zap.Stringer("order", e.Order),
				zap.Stringer("creator", e.Creator),
				zap.Uint64("amount", e.Amount))
		case *OperationFailedEvent:
			logger.Warn("Operation failed",
				zap.String("operation", e.Operation),
				zap.String("operation_id", e.OperationID),
				zap.Error(e.Error))
		default:
			logger.Debug("Event", zap.String("event_type", string(event.Type())))
		}
		return nil
	})
}
