// internal/engine/orders.go
package engine

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/swap-router/internal/events"
	"github.com/rovshanmuradov/swap-router/internal/order"
	"github.com/rovshanmuradov/swap-router/internal/runtime"
	"github.com/rovshanmuradov/swap-router/internal/types"
)

func (e *Engine) InitOrder(ctx context.Context, creator solana.PublicKey, shell order.Shell) (solana.PublicKey, error) {
	var addr solana.PublicKey
	err := e.run(ctx, "init_limit_order", []solana.PublicKey{creator}, func(rc *runtime.Context) error {
		var err error
		addr, err = e.orders.Init(rc, creator, shell)
		return err
	})
	return addr, err
}

func (e *Engine) CreateOrder(ctx context.Context, creator, addr, source solana.PublicKey, terms order.Terms) error {
	err := e.run(ctx, "create_limit_order", []solana.PublicKey{creator}, func(rc *runtime.Context) error {
		return e.orders.Create(rc, creator, addr, source, terms)
	})
	if err != nil {
		return err
	}
	e.publish(&events.OrderEvent{
		BaseEvent: events.NewBase(events.OrderOpened),
		Order:     addr,
		Creator:   creator,
		Status:    types.OrderOpen,
		Amount:    terms.InputAmount,
	})
	return nil
}

// CancelOrder refunds the escrow to refundTo, a token account of the creator.
func (e *Engine) CancelOrder(ctx context.Context, creator, addr, refundTo solana.PublicKey) error {
	var o *order.LimitOrder
	err := e.run(ctx, "cancel_limit_order", []solana.PublicKey{creator}, func(rc *runtime.Context) error {
		var err error
		o, err = e.orders.Cancel(rc, creator, addr, refundTo)
		return err
	})
	if err != nil {
		return err
	}
	e.publishOrder(events.OrderCancelled, addr, o)
	return nil
}

func (e *Engine) CloseOrder(ctx context.Context, operator, addr solana.PublicKey) error {
	var o *order.LimitOrder
	err := e.run(ctx, "close_limit_order", []solana.PublicKey{operator}, func(rc *runtime.Context) error {
		var err error
		o, err = e.orders.Close(rc, operator, addr)
		return err
	})
	if err != nil {
		return err
	}
	e.publishOrder(events.OrderCancelled, addr, o)
	return nil
}

func (e *Engine) ExecuteOrder(ctx context.Context, operator, addr solana.PublicKey, ex *order.Execution) (*order.Fill, error) {
	return e.execute(ctx, "execute_limit_order", operator, addr, ex, false)
}

func (e *Engine) SharedExecuteOrder(ctx context.Context, operator, addr solana.PublicKey, ex *order.Execution) (*order.Fill, error) {
	return e.execute(ctx, "shared_execute_limit_order", operator, addr, ex, true)
}

func (e *Engine) execute(ctx context.Context, operation string, operator, addr solana.PublicKey, ex *order.Execution, shared bool) (*order.Fill, error) {
	var fill *order.Fill
	err := e.run(ctx, operation, []solana.PublicKey{operator}, func(rc *runtime.Context) error {
		var err error
		if shared {
			fill, err = e.orders.SharedExecute(rc, operator, addr, ex)
		} else {
			fill, err = e.orders.Execute(rc, operator, addr, ex)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	e.publishRoute(fill.Route, shared)
	e.publishOrder(events.OrderFilled, addr, fill.Order)
	return fill, nil
}

// LoadOrder reads one order.
func (e *Engine) LoadOrder(ctx context.Context, addr solana.PublicKey) (*order.LimitOrder, error) {
	var o *order.LimitOrder
	err := e.host.View(ctx, func(rc *runtime.Context) error {
		var err error
		o, err = order.Load(rc, addr)
		return err
	})
	return o, err
}

// OpenOrders lists every Open order and updates the open order gauge.
func (e *Engine) OpenOrders(ctx context.Context) ([]order.Entry, error) {
	var entries []order.Entry
	err := e.host.View(ctx, func(rc *runtime.Context) error {
		var err error
		entries, err = order.List(rc, rc.Tx, types.OrderOpen)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.metrics.SetOpenOrders(len(entries))
	return entries, nil
}
