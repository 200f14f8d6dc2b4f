// internal/order/execute.go
package order

import (
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/swap-router/internal/address"
	"github.com/rovshanmuradov/swap-router/internal/errs"
	"github.com/rovshanmuradov/swap-router/internal/registry"
	"github.com/rovshanmuradov/swap-router/internal/router"
	"github.com/rovshanmuradov/swap-router/internal/runtime"
	"github.com/rovshanmuradov/swap-router/internal/token"
	"github.com/rovshanmuradov/swap-router/internal/types"
)

// Execution is the operator-supplied route of a fill.
type Execution struct {
	Plan            types.RoutePlan
	Accounts        []*solana.AccountMeta
	QuotedOutAmount uint64
	PlatformFeeBps  uint16
}

// Fill is the outcome of a filled order.
type Fill struct {
	Order      *LimitOrder
	PriceRatio uint64
	Route      *router.Result
}

// Execute fills an Open order through the per-hop router.
func (m *Manager) Execute(rc *runtime.Context, operator, addr solana.PublicKey, ex *Execution) (*Fill, error) {
	return m.execute(rc, operator, addr, ex, false)
}

// SharedExecute fills an Open order through the aggregator program.
func (m *Manager) SharedExecute(rc *runtime.Context, operator, addr solana.PublicKey, ex *Execution) (*Fill, error) {
	return m.execute(rc, operator, addr, ex, true)
}

// CheckTrigger returns the price ratio of quoted against the order and
// fails with ErrTriggerConditionNotMet unless the trigger holds.
func CheckTrigger(o *LimitOrder, quoted uint64) (uint64, error) {
	ratio, err := types.PriceRatio(quoted, o.MinOutputAmount)
	if err != nil {
		return 0, err
	}
	ok, err := types.TriggerHolds(o.TriggerKind, ratio, o.TriggerBps)
	if err != nil {
		return 0, err
	}
	if !ok {
		return ratio, errs.Wrap(errs.ErrTriggerConditionNotMet, "%s ratio %d, threshold %d bps", o.TriggerKind, ratio, o.TriggerBps)
	}
	return ratio, nil
}

func (m *Manager) execute(rc *runtime.Context, operator, addr solana.PublicKey, ex *Execution, shared bool) (*Fill, error) {
	if err := registry.RequireOperator(rc, operator); err != nil {
		return nil, err
	}
	o, err := Load(rc, addr)
	if err != nil {
		return nil, err
	}
	if o.Status != types.OrderOpen {
		return nil, errs.Wrap(errs.ErrInvalidOrderStatus, "execute on %s order", o.Status)
	}
	if o.Expired(rc.Now().Unix()) {
		return nil, errs.Wrap(errs.ErrOrderExpired, "order %s expired at %d", addr, o.Expiry)
	}
	ratio, err := CheckTrigger(o, ex.QuotedOutAmount)
	if err != nil {
		return nil, err
	}

	// The whole escrow is routed so it can be closed. Tokens sent to it after
	// opening only add to the creator's output; trigger and slippage stay on
	// the quote for InputAmount.
	held, err := token.Balance(rc, rc.Tx, o.Escrow)
	if err != nil {
		return nil, errs.Wrap(err, "order escrow")
	}
	if held < o.InputAmount {
		return nil, errs.Wrap(errs.ErrInsufficientFunds, "escrow holds %d, order %d", held, o.InputAmount)
	}

	req := &types.SwapRequest{
		Plan:            ex.Plan,
		Accounts:        ex.Accounts,
		InAmount:        held,
		QuotedOutAmount: ex.QuotedOutAmount,
		SlippageBps:     o.SlippageBps,
		PlatformFeeBps:  ex.PlatformFeeBps,
	}
	if err := router.ValidateRequest(req); err != nil {
		return nil, err
	}

	if err := m.router.Fund(rc, o.Escrow, address.AuthorityAddress(), o.InputMint, held, address.AuthoritySeeds()); err != nil {
		return nil, err
	}
	swap := m.router.Swap
	if shared {
		swap = m.router.SharedSwap
	}
	res, err := swap(rc, o.InputMint, o.OutputMint, req)
	if err != nil {
		return nil, err
	}
	if err := m.router.Payout(rc, res, o.Destination); err != nil {
		return nil, err
	}
	if err := m.destroy(rc, addr, o, operator); err != nil {
		return nil, err
	}
	o.Status = types.OrderFilled

	m.logger.Info("Order filled",
		zap.Stringer("order", addr),
		zap.Stringer("operator", operator),
		zap.Uint64("price_ratio", ratio),
		zap.Uint64("realized", res.Realized),
		zap.Bool("shared", shared))
	return &Fill{Order: o, PriceRatio: ratio, Route: res}, nil
}

// RouteAndCreate swaps req from the creator's source and opens a TakeProfit
// order escrowing the net output. The order sells the swap's output mint
// back into its input mint, paid to shell.Destination.
func (m *Manager) RouteAndCreate(rc *runtime.Context, creator, source solana.PublicKey, req *types.SwapRequest, outputMint solana.PublicKey, shell Shell, terms Terms) (solana.PublicKey, *router.Result, error) {
	return m.routeAndCreate(rc, creator, source, req, outputMint, shell, terms, false)
}

// SharedRouteAndCreate is RouteAndCreate through the aggregator program.
func (m *Manager) SharedRouteAndCreate(rc *runtime.Context, creator, source solana.PublicKey, req *types.SwapRequest, outputMint solana.PublicKey, shell Shell, terms Terms) (solana.PublicKey, *router.Result, error) {
	return m.routeAndCreate(rc, creator, source, req, outputMint, shell, terms, true)
}

func (m *Manager) routeAndCreate(rc *runtime.Context, creator, source solana.PublicKey, req *types.SwapRequest, outputMint solana.PublicKey, shell Shell, terms Terms, shared bool) (solana.PublicKey, *router.Result, error) {
	if err := rc.RequireSigner(creator); err != nil {
		return solana.PublicKey{}, nil, err
	}
	if err := router.ValidateRequest(req); err != nil {
		return solana.PublicKey{}, nil, err
	}
	src, err := token.LoadAccount(rc, rc.Tx, source)
	if err != nil {
		return solana.PublicKey{}, nil, errs.Wrap(err, "route source")
	}

	shell.InputMint = outputMint
	shell.OutputMint = src.Mint
	terms.TriggerKind = types.TakeProfit
	// Amount is known only after the swap; validate the rest up front.
	terms.InputAmount = req.InAmount
	if err := terms.Validate(rc.Now().Unix()); err != nil {
		return solana.PublicKey{}, nil, err
	}

	addr, o, err := m.initShell(rc, creator, shell)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	if err := m.router.Fund(rc, source, creator, src.Mint, req.InAmount); err != nil {
		return solana.PublicKey{}, nil, err
	}
	swap := m.router.Swap
	if shared {
		swap = m.router.SharedSwap
	}
	res, err := swap(rc, src.Mint, outputMint, req)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	if res.Net == 0 {
		return solana.PublicKey{}, nil, errs.Wrap(errs.ErrZeroAmount, "route left nothing to escrow")
	}
	if err := m.router.Payout(rc, res, o.Escrow); err != nil {
		return solana.PublicKey{}, nil, err
	}

	terms.InputAmount = res.Net
	if err := m.open(rc, addr, o, terms); err != nil {
		return solana.PublicKey{}, nil, err
	}
	return addr, res, nil
}
