// internal/engine/engine.go
package engine

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/swap-router/internal/events"
	"github.com/rovshanmuradov/swap-router/internal/host"
	"github.com/rovshanmuradov/swap-router/internal/order"
	"github.com/rovshanmuradov/swap-router/internal/router"
	"github.com/rovshanmuradov/swap-router/internal/runtime"
	"github.com/rovshanmuradov/swap-router/internal/utils/logger"
	"github.com/rovshanmuradov/swap-router/internal/utils/metrics"
)

// Option configures an Engine.
type Option func(*Engine)

// WithGlobalManager sets the key allowed to replace the vault admin.
func WithGlobalManager(key solana.PublicKey) Option {
	return func(e *Engine) { e.globalManager = key }
}

// Engine предоставляет операции роутера. Каждая операция выполняется
// атомарно в одной транзакции хранилища; метрики и события
// публикуются после фиксации.
type Engine struct {
	host          *host.Host
	router        *router.Router
	orders        *order.Manager
	metrics       *metrics.Collector
	bus           *events.Bus
	globalManager solana.PublicKey
	logger        *zap.Logger
}

// New wires the router and the order manager over h.
func New(h *host.Host, collector *metrics.Collector, bus *events.Bus, logger *zap.Logger, opts ...Option) *Engine {
	logger = logger.Named("engine")
	r := router.New(h.Venues(), logger)
	e := &Engine{
		host:    h,
		router:  r,
		orders:  order.NewManager(r, logger),
		metrics: collector,
		bus:     bus,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Host returns the underlying host.
func (e *Engine) Host() *host.Host { return e.host }

// run executes fn as one atomic operation and records its outcome.
func (e *Engine) run(ctx context.Context, operation string, signers []solana.PublicKey, fn func(rc *runtime.Context) error) error {
	id := logger.NewOperationID()
	log := logger.WithOperation(e.logger, operation, id)
	start := time.Now()

	err := e.host.Exec(ctx, signers, fn)
	duration := time.Since(start)
	e.metrics.RecordOperation(operation, duration, err)

	if err != nil {
		log.Warn("Operation failed", zap.Error(err))
		e.publish(&events.OperationFailedEvent{
			BaseEvent:   events.NewBase(events.OperationFailed),
			OperationID: id,
			Operation:   operation,
			Error:       err,
		})
		return err
	}

	log.Debug("Operation completed", zap.Duration("duration", duration))
	e.publish(&events.OperationCompletedEvent{
		BaseEvent:   events.NewBase(events.OperationCompleted),
		OperationID: id,
		Operation:   operation,
		Duration:    duration,
	})
	return nil
}

func (e *Engine) publish(ev events.Event) {
	if e.bus == nil {
		return
	}
	if err := e.bus.Publish(ev); err != nil {
		e.logger.Debug("Event dropped", zap.String("event_type", string(ev.Type())), zap.Error(err))
	}
}

func (e *Engine) publishRoute(res *router.Result, shared bool) {
	e.metrics.RecordRoute(res.OutputMint.String(), res.Realized, res.Fee)
	e.publish(&events.RouteExecutedEvent{
		BaseEvent:  events.NewBase(events.RouteExecuted),
		Shared:     shared,
		InputMint:  res.InputMint,
		OutputMint: res.OutputMint,
		InAmount:   res.InAmount,
		Realized:   res.Realized,
		Fee:        res.Fee,
	})
}

func (e *Engine) publishOrder(t events.EventType, addr solana.PublicKey, o *order.LimitOrder) {
	e.publish(&events.OrderEvent{
		BaseEvent: events.NewBase(t),
		Order:     addr,
		Creator:   o.Creator,
		Status:    o.Status,
		Amount:    o.InputAmount,
	})
}
