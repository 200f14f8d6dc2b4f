// internal/engine/routing.go
package engine

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/swap-router/internal/events"
	"github.com/rovshanmuradov/swap-router/internal/order"
	"github.com/rovshanmuradov/swap-router/internal/router"
	"github.com/rovshanmuradov/swap-router/internal/runtime"
	"github.com/rovshanmuradov/swap-router/internal/types"
)

// Route swaps from the user's source account into destination.
func (e *Engine) Route(ctx context.Context, user, source, destination solana.PublicKey, req *types.SwapRequest) (*router.Result, error) {
	return e.route(ctx, "route", user, source, destination, req, false)
}

// SharedRoute is Route executed by the aggregator program.
func (e *Engine) SharedRoute(ctx context.Context, user, source, destination solana.PublicKey, req *types.SwapRequest) (*router.Result, error) {
	return e.route(ctx, "shared_route", user, source, destination, req, true)
}

func (e *Engine) route(ctx context.Context, operation string, user, source, destination solana.PublicKey, req *types.SwapRequest, shared bool) (*router.Result, error) {
	var res *router.Result
	err := e.run(ctx, operation, []solana.PublicKey{user}, func(rc *runtime.Context) error {
		var err error
		if shared {
			res, err = e.router.SharedRoute(rc, user, source, destination, req)
		} else {
			res, err = e.router.Route(rc, user, source, destination, req)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	e.publishRoute(res, shared)
	return res, nil
}

// RouteAndCreateOrderRequest bundles the swap and the order it funds.
type RouteAndCreateOrderRequest struct {
	Swap *types.SwapRequest
	// OutputMint is the mint the swap buys and the order later sells.
	OutputMint solana.PublicKey
	Shell      order.Shell
	Terms      order.Terms
}

// RouteAndCreateOrder swaps and escrows the output in a new TakeProfit order.
func (e *Engine) RouteAndCreateOrder(ctx context.Context, creator, source solana.PublicKey, req *RouteAndCreateOrderRequest) (solana.PublicKey, *router.Result, error) {
	return e.routeAndCreate(ctx, "route_and_create_order", creator, source, req, false)
}

// SharedRouteAndCreateOrder is RouteAndCreateOrder through the aggregator program.
func (e *Engine) SharedRouteAndCreateOrder(ctx context.Context, creator, source solana.PublicKey, req *RouteAndCreateOrderRequest) (solana.PublicKey, *router.Result, error) {
	return e.routeAndCreate(ctx, "shared_route_and_create_order", creator, source, req, true)
}

func (e *Engine) routeAndCreate(ctx context.Context, operation string, creator, source solana.PublicKey, req *RouteAndCreateOrderRequest, shared bool) (solana.PublicKey, *router.Result, error) {
	var (
		addr solana.PublicKey
		res  *router.Result
	)
	err := e.run(ctx, operation, []solana.PublicKey{creator}, func(rc *runtime.Context) error {
		var err error
		if shared {
			addr, res, err = e.orders.SharedRouteAndCreate(rc, creator, source, req.Swap, req.OutputMint, req.Shell, req.Terms)
		} else {
			addr, res, err = e.orders.RouteAndCreate(rc, creator, source, req.Swap, req.OutputMint, req.Shell, req.Terms)
		}
		return err
	})
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	e.publishRoute(res, shared)
	e.publish(&events.OrderEvent{
		BaseEvent: events.NewBase(events.OrderOpened),
		Order:     addr,
		Creator:   creator,
		Status:    types.OrderOpen,
		Amount:    res.Net,
	})
	return addr, res, nil
}
