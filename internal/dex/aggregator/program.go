// internal/dex/aggregator/program.go
package aggregator

import (
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/swap-router/internal/dex"
	"github.com/rovshanmuradov/swap-router/internal/errs"
	"github.com/rovshanmuradov/swap-router/internal/runtime"
	"github.com/rovshanmuradov/swap-router/internal/token"
	"github.com/rovshanmuradov/swap-router/internal/types"
)

// RouteCost is charged once per route call.
const RouteCost uint64 = 10_000

// Program executes multi-hop swaps through its own venue table.
type Program struct {
	id     solana.PublicKey
	venues *dex.Set
	logger *zap.Logger
}

var _ runtime.Program = (*Program)(nil)

// NewProgram returns the aggregator program using venues for its hops.
func NewProgram(id solana.PublicKey, venues *dex.Set, logger *zap.Logger) *Program {
	return &Program{id: id, venues: venues, logger: logger.Named("aggregator_program")}
}

func (p *Program) ProgramID() solana.PublicKey { return p.id }

// Process runs the route instruction. The transfer authority must sign; it is
// forwarded as the owner of every hop.
func (p *Program) Process(rc *runtime.Context, accounts []*solana.AccountMeta, data []byte) error {
	args, err := DecodeRoute(data)
	if err != nil {
		return err
	}
	if len(accounts) < fixedAccounts {
		return errs.Wrap(errs.ErrAccountSchemaMismatch, "aggregator route accounts")
	}
	if len(args.RoutePlan) == 0 {
		return errs.ErrEmptyRoute
	}
	if args.InAmount == 0 {
		return errs.ErrZeroAmount
	}
	if err := rc.Consume(RouteCost); err != nil {
		return err
	}
	authority := accounts[accUserTransferAuthority].PublicKey
	if err := rc.RequireSigner(authority); err != nil {
		return err
	}
	source := accounts[accUserSource].PublicKey
	destination := accounts[accUserDestination].PublicKey
	remaining := accounts[fixedAccounts:]

	before, err := token.Balance(rc, rc.Tx, destination)
	if err != nil {
		return err
	}

	amount := args.InAmount
	prev := source
	for i, step := range args.RoutePlan {
		if step.Percent != 100 {
			return errs.Wrap(errs.ErrUnsupportedSplit, "step %d percent %d", i, step.Percent)
		}
		adapter, err := p.venues.Get(step.Swap)
		if err != nil {
			return err
		}
		if int(step.InputIndex) >= int(step.OutputIndex) || int(step.OutputIndex) > len(remaining) {
			return errs.Wrap(errs.ErrInvalidHopWindow, "step %d [%d, %d)", i, step.InputIndex, step.OutputIndex)
		}
		window := remaining[step.InputIndex:step.OutputIndex]
		schema := adapter.Schema()
		if err := schema.Validate(window); err != nil {
			return err
		}
		if !schema.Source(window).Equals(prev) {
			if i == 0 {
				return errs.Wrap(errs.ErrAccountSchemaMismatch, "first step must spend the user source")
			}
			return errs.Wrap(errs.ErrAccountSchemaMismatch, "step %d must spend the output of step %d", i, i-1)
		}
		if i == len(args.RoutePlan)-1 && !schema.Destination(window).Equals(destination) {
			return errs.Wrap(errs.ErrAccountSchemaMismatch, "last step must credit the user destination")
		}
		out, err := adapter.ExecuteSwap(&dex.HopContext{RC: rc, Window: window, AmountIn: amount})
		if err != nil {
			return errs.Wrap(err, "aggregator step %d", i)
		}
		amount = out
		prev = schema.Destination(window)
	}

	after, err := token.Balance(rc, rc.Tx, destination)
	if err != nil {
		return err
	}
	if after < before {
		return errs.Wrap(errs.ErrAccountSchemaMismatch, "route drained the user destination")
	}
	minOut, err := types.MinAmountOut(args.QuotedOutAmount, args.SlippageBps)
	if err != nil {
		return err
	}
	if after-before < minOut {
		return errs.Wrap(errs.ErrSlippageToleranceExceeded, "aggregator out %d < min %d", after-before, minOut)
	}

	p.logger.Debug("route executed",
		zap.Int("steps", len(args.RoutePlan)),
		zap.Uint64("in_amount", args.InAmount),
		zap.Uint64("out_amount", after-before))
	return nil
}
