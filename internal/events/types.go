// internal/events/types.go
package events

import (
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/swap-router/internal/types"
)

// EventType represents the type of event.
type EventType string

const (
	// Operation events
	OperationCompleted EventType = "operation.completed"
	OperationFailed    EventType = "operation.failed"

	// Route events
	RouteExecuted EventType = "route.executed"

	// Order lifecycle events
	OrderOpened    EventType = "order.opened"
	OrderFilled    EventType = "order.filled"
	OrderCancelled EventType = "order.cancelled"
)

// Event is the base interface for all events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	EventType EventType
	EventTime time.Time
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// NewBase stamps an event of type t.
func NewBase(t EventType) BaseEvent {
	return BaseEvent{EventType: t, EventTime: time.Now()}
}

// OperationCompletedEvent is emitted after an operation commits.
type OperationCompletedEvent struct {
	BaseEvent
	OperationID string
	Operation   string
	Duration    time.Duration
}

// OperationFailedEvent is emitted after an operation rolls back.
type OperationFailedEvent struct {
	BaseEvent
	OperationID string
	Operation   string
	Error       error
}

// RouteExecutedEvent is emitted for every committed swap.
type RouteExecutedEvent struct {
	BaseEvent
	Shared     bool
	InputMint  solana.PublicKey
	OutputMint solana.PublicKey
	InAmount   uint64
	Realized   uint64
	Fee        uint64
}

// OrderEvent is emitted when an order changes state.
type OrderEvent struct {
	BaseEvent
	Order   solana.PublicKey
	Creator solana.PublicKey
	Status  types.OrderStatus
	Amount  uint64
}
