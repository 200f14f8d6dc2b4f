// internal/router/swap.go
package router

import (
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/swap-router/internal/address"
	"github.com/rovshanmuradov/swap-router/internal/dex"
	"github.com/rovshanmuradov/swap-router/internal/dex/aggregator"
	"github.com/rovshanmuradov/swap-router/internal/errs"
	"github.com/rovshanmuradov/swap-router/internal/registry"
	"github.com/rovshanmuradov/swap-router/internal/runtime"
	"github.com/rovshanmuradov/swap-router/internal/token"
	"github.com/rovshanmuradov/swap-router/internal/types"
	"github.com/rovshanmuradov/swap-router/internal/vault"
)

// Swap executes req hop by hop over the input vault of inputMint, which must
// already hold InAmount. The output stays in the output vault of outputMint.
func (r *Router) Swap(rc *runtime.Context, inputMint, outputMint solana.PublicKey, req *types.SwapRequest) (*Result, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	if err := rc.Consume(RouteCost); err != nil {
		return nil, err
	}
	reg, err := registry.Load(rc)
	if err != nil {
		return nil, errs.Wrap(err, "adapter registry")
	}

	hops, err := r.resolveHops(rc, req, inputMint, outputMint)
	if err != nil {
		return nil, err
	}

	amount := req.InAmount
	for i, hop := range req.Plan {
		h := hops[i]
		info, err := reg.ResolveAdapter(hop.SwapType)
		if err != nil {
			return nil, errs.Wrap(err, "hop %d", i)
		}
		schema := h.adapter.Schema()
		if program := schema.Program(h.window); !program.Equals(info.ProgramID) {
			return nil, errs.Wrap(errs.ErrInvalidProgram, "hop %d: %s, registry has %s", i, program, info.ProgramID)
		}
		if err := registry.CheckPool(rc, hop.SwapType, schema.Pool(h.window)); err != nil {
			return nil, errs.Wrap(err, "hop %d", i)
		}

		in, err := types.PercentOf(amount, hop.Percent)
		if err != nil {
			return nil, err
		}
		out, err := h.adapter.ExecuteSwap(&dex.HopContext{
			RC:          rc,
			Window:      h.window,
			AmountIn:    in,
			SignerSeeds: [][][]byte{address.AuthoritySeeds()},
		})
		if err != nil {
			return nil, errs.Wrap(err, "hop %d", i)
		}
		amount = out
	}

	res := &Result{
		InputMint:  inputMint,
		OutputMint: outputMint,
		InAmount:   req.InAmount,
		Realized:   amount,
	}
	if err := settle(req, res); err != nil {
		return nil, err
	}
	if err := collectFee(rc, res); err != nil {
		return nil, err
	}
	r.logResult(rc, "Route executed", req, res)
	return res, nil
}

// SharedSwap executes req through the aggregator program named by the vault
// authority. req.Accounts are passed after the aggregator's fixed accounts.
func (r *Router) SharedSwap(rc *runtime.Context, inputMint, outputMint solana.PublicKey, req *types.SwapRequest) (*Result, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	if err := rc.Consume(RouteCost); err != nil {
		return nil, err
	}
	auth, err := vault.LoadAuthority(rc)
	if err != nil {
		return nil, err
	}
	if auth.AggregatorProgram.IsZero() {
		return nil, errs.ErrAggregatorNotSet
	}
	_, tokenProgram, err := token.LoadMint(rc, rc.Tx, inputMint)
	if err != nil {
		return nil, err
	}

	// The aggregator signs with the authority, so the plan is held to the
	// same vault-to-vault chain as a per-hop route.
	if _, err := r.resolveHops(rc, req, inputMint, outputMint); err != nil {
		return nil, err
	}

	inputVault := address.VaultAddress(inputMint)
	outputVault := address.VaultAddress(outputMint)
	before, err := token.Balance(rc, rc.Tx, outputVault)
	if err != nil {
		return nil, errs.Wrap(err, "output vault")
	}

	data, err := aggregator.EncodeRoute(&aggregator.RouteArgs{
		RoutePlan:       aggregator.StepsFromPlan(req.Plan),
		InAmount:        req.InAmount,
		QuotedOutAmount: req.QuotedOutAmount,
		SlippageBps:     req.SlippageBps,
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrInvalidInstructionData, "encode route: %v", err)
	}
	metas := aggregator.RouteAccounts(tokenProgram, address.AuthorityAddress(), inputVault, outputVault, req.Accounts)
	if err := rc.InvokeSigned(auth.AggregatorProgram, metas, data, address.AuthoritySeeds()); err != nil {
		return nil, errs.Wrap(err, "shared route")
	}

	after, err := token.Balance(rc, rc.Tx, outputVault)
	if err != nil {
		return nil, err
	}
	res := &Result{
		InputMint:  inputMint,
		OutputMint: outputMint,
		InAmount:   req.InAmount,
		Realized:   after - before,
	}
	if err := settle(req, res); err != nil {
		return nil, err
	}
	if err := collectFee(rc, res); err != nil {
		return nil, err
	}
	r.logResult(rc, "Shared route executed", req, res)
	return res, nil
}

type resolvedHop struct {
	adapter dex.Adapter
	window  []*solana.AccountMeta
}

// resolveHops returns the adapter and account window of every hop. Funds may
// only move vault to vault: the first hop spends the input vault, every later
// hop spends what the previous one credited, and every hop credits a router
// vault, the last one the output vault.
func (r *Router) resolveHops(rc *runtime.Context, req *types.SwapRequest, inputMint, outputMint solana.PublicKey) ([]resolvedHop, error) {
	if inputMint.Equals(outputMint) {
		return nil, errs.Wrap(errs.ErrMintMismatch, "input and output mint are both %s", inputMint)
	}
	inputVault := address.VaultAddress(inputMint)
	outputVault := address.VaultAddress(outputMint)
	last := len(req.Plan) - 1

	hops := make([]resolvedHop, len(req.Plan))
	prev := inputVault
	for i, hop := range req.Plan {
		adapter, err := r.venues.Get(hop.SwapType)
		if err != nil {
			return nil, errs.Wrap(err, "hop %d", i)
		}
		window := req.Accounts[hop.InputIndex:hop.OutputIndex]
		schema := adapter.Schema()
		if err := schema.Validate(window); err != nil {
			return nil, errs.Wrap(err, "hop %d", i)
		}

		source, destination := schema.Source(window), schema.Destination(window)
		if !source.Equals(prev) {
			if i == 0 {
				return nil, errs.Wrap(errs.ErrVaultMismatch, "first hop source %s, input vault %s", source, inputVault)
			}
			return nil, errs.Wrap(errs.ErrVaultMismatch, "hop %d source %s, previous hop credited %s", i, source, prev)
		}
		if i == last && !destination.Equals(outputVault) {
			return nil, errs.Wrap(errs.ErrVaultMismatch, "last hop destination %s, output vault %s", destination, outputVault)
		}
		if err := requireVault(rc, destination); err != nil {
			return nil, errs.Wrap(err, "hop %d", i)
		}
		hops[i] = resolvedHop{adapter: adapter, window: window}
		prev = destination
	}
	return hops, nil
}

// requireVault fails unless addr is the router vault of the mint it holds.
func requireVault(rc *runtime.Context, addr solana.PublicKey) error {
	acc, err := token.LoadAccount(rc, rc.Tx, addr)
	if err != nil {
		return errs.Wrap(err, "hop destination %s", addr)
	}
	if !addr.Equals(address.VaultAddress(acc.Mint)) {
		return errs.Wrap(errs.ErrVaultMismatch, "hop destination %s is not the vault of %s", addr, acc.Mint)
	}
	return nil
}

func (r *Router) logResult(rc *runtime.Context, msg string, req *types.SwapRequest, res *Result) {
	fields := []zap.Field{
		zap.Int("hops", len(req.Plan)),
		zap.Stringer("input_mint", res.InputMint),
		zap.Stringer("output_mint", res.OutputMint),
		zap.Uint64("in_amount", res.InAmount),
		zap.Uint64("quoted_out", req.QuotedOutAmount),
		zap.Uint64("realized", res.Realized),
		zap.Uint64("fee", res.Fee),
	}
	// best effort
	if mint, _, err := token.LoadMint(rc, rc.Tx, res.OutputMint); err == nil {
		fields = append(fields, zap.String("net_ui", token.UIAmount(res.Net, mint.Decimals)))
	}
	r.logger.Info(msg, fields...)
}
