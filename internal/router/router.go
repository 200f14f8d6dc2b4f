// internal/router/router.go
package router

import (
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/swap-router/internal/address"
	"github.com/rovshanmuradov/swap-router/internal/dex"
	"github.com/rovshanmuradov/swap-router/internal/errs"
	"github.com/rovshanmuradov/swap-router/internal/runtime"
	"github.com/rovshanmuradov/swap-router/internal/token"
	"github.com/rovshanmuradov/swap-router/internal/types"
	"github.com/rovshanmuradov/swap-router/internal/vault"
)

// RouteCost is charged once per routed swap.
const RouteCost uint64 = 5_000

// Result describes the outcome of one routed swap.
type Result struct {
	InputMint  solana.PublicKey
	OutputMint solana.PublicKey
	InAmount   uint64
	// Realized is the output of the last hop before the platform fee.
	Realized uint64
	Fee      uint64
	// Fee is moved to the fee vault of OutputMint. Net = Realized − Fee
	// stays in the output vault until released.
	Net uint64
}

// Router исполняет план маршрута через адаптеры площадок или через
// внешний агрегатор. Все средства во время маршрута лежат в хранилищах.
type Router struct {
	venues *dex.Set
	logger *zap.Logger
}

// New creates a router dispatching hops to venues.
func New(venues *dex.Set, logger *zap.Logger) *Router {
	return &Router{venues: venues, logger: logger.Named("router")}
}

// Route swaps InAmount from the user's source token account and credits the
// net output to destination. user must sign.
func (r *Router) Route(rc *runtime.Context, user, source, destination solana.PublicKey, req *types.SwapRequest) (*Result, error) {
	return r.route(rc, user, source, destination, req, r.Swap)
}

// SharedRoute is Route with the whole plan executed by the aggregator program.
func (r *Router) SharedRoute(rc *runtime.Context, user, source, destination solana.PublicKey, req *types.SwapRequest) (*Result, error) {
	return r.route(rc, user, source, destination, req, r.SharedSwap)
}

type swapFunc func(rc *runtime.Context, inputMint, outputMint solana.PublicKey, req *types.SwapRequest) (*Result, error)

func (r *Router) route(rc *runtime.Context, user, source, destination solana.PublicKey, req *types.SwapRequest, swap swapFunc) (*Result, error) {
	if err := rc.RequireSigner(user); err != nil {
		return nil, err
	}
	src, err := token.LoadAccount(rc, rc.Tx, source)
	if err != nil {
		return nil, errs.Wrap(err, "route source")
	}
	dst, err := token.LoadAccount(rc, rc.Tx, destination)
	if err != nil {
		return nil, errs.Wrap(err, "route destination")
	}
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	if err := r.Fund(rc, source, user, src.Mint, req.InAmount); err != nil {
		return nil, err
	}
	res, err := swap(rc, src.Mint, dst.Mint, req)
	if err != nil {
		return nil, err
	}
	if err := r.Payout(rc, res, destination); err != nil {
		return nil, err
	}
	return res, nil
}

// ValidateRequest checks the caller-supplied terms of a swap.
func ValidateRequest(req *types.SwapRequest) error {
	switch {
	case req == nil:
		return errs.Wrap(errs.ErrInvalidInstructionData, "nil swap request")
	case req.InAmount == 0:
		return errs.Wrap(errs.ErrZeroAmount, "in amount")
	case req.QuotedOutAmount == 0:
		return errs.Wrap(errs.ErrZeroAmount, "quoted out amount")
	case req.SlippageBps > types.BpsDenominator:
		return errs.Wrap(errs.ErrInvalidSlippage, "%d bps", req.SlippageBps)
	case req.PlatformFeeBps > types.BpsDenominator:
		return errs.Wrap(errs.ErrInvalidPlatformFee, "%d bps", req.PlatformFeeBps)
	case len(req.Plan) == 0:
		return errs.ErrEmptyRoute
	}
	for i, hop := range req.Plan {
		if hop.Percent != 100 {
			return errs.Wrap(errs.ErrUnsupportedSplit, "hop %d percent %d", i, hop.Percent)
		}
		if hop.InputIndex >= hop.OutputIndex || int(hop.OutputIndex) > len(req.Accounts) {
			return errs.Wrap(errs.ErrInvalidHopWindow, "hop %d [%d, %d) of %d accounts", i, hop.InputIndex, hop.OutputIndex, len(req.Accounts))
		}
	}
	return nil
}

// Fund moves amount from source, owned by authority, into the input vault of mint.
func (r *Router) Fund(rc *runtime.Context, source, authority, mint solana.PublicKey, amount uint64, signerSeeds ...[][]byte) error {
	if err := token.Transfer(rc, source, address.VaultAddress(mint), authority, amount, signerSeeds...); err != nil {
		return errs.Wrap(err, "fund input vault")
	}
	return nil
}

// Payout releases the net output of res from the output vault to destination.
func (r *Router) Payout(rc *runtime.Context, res *Result, destination solana.PublicKey) error {
	if res.Net == 0 {
		return nil
	}
	if err := vault.Release(rc, res.OutputMint, destination, res.Net); err != nil {
		return errs.Wrap(err, "release output")
	}
	return nil
}

// collectFee moves the platform fee of res out of the output vault into the
// fee vault of its mint.
func collectFee(rc *runtime.Context, res *Result) error {
	if res.Fee == 0 {
		return nil
	}
	if err := vault.CollectFee(rc, res.OutputMint, res.Fee); err != nil {
		return errs.Wrap(err, "collect platform fee")
	}
	return nil
}

// settle checks the final slippage bound and splits off the platform fee.
func settle(req *types.SwapRequest, res *Result) error {
	minOut, err := types.MinAmountOut(req.QuotedOutAmount, req.SlippageBps)
	if err != nil {
		return err
	}
	if res.Realized < minOut {
		return errs.Wrap(errs.ErrSlippageToleranceExceeded, "realized %d < minimum %d", res.Realized, minOut)
	}
	fee, err := types.PlatformFee(res.Realized, req.PlatformFeeBps)
	if err != nil {
		return err
	}
	res.Fee = fee
	res.Net = res.Realized - fee
	return nil
}
