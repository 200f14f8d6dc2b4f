// internal/keeper/quoter.go
package keeper

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/swap-router/internal/address"
	"github.com/rovshanmuradov/swap-router/internal/config"
	"github.com/rovshanmuradov/swap-router/internal/dex/pumpswap"
	"github.com/rovshanmuradov/swap-router/internal/dex/raydium"
	"github.com/rovshanmuradov/swap-router/internal/host"
	"github.com/rovshanmuradov/swap-router/internal/order"
	"github.com/rovshanmuradov/swap-router/internal/runtime"
	"github.com/rovshanmuradov/swap-router/internal/store"
	"github.com/rovshanmuradov/swap-router/internal/types"
)

// ErrNoPair is returned when no pool is configured for an order's mints.
var ErrNoPair = errors.New("no pool configured for pair")

// Quote is a route proposal for one order.
type Quote struct {
	Plan            types.RoutePlan
	Accounts        []*solana.AccountMeta
	QuotedOutAmount uint64
}

// Quoter proposes a route and its expected output for an order.
type Quoter interface {
	Quote(ctx context.Context, o *order.LimitOrder) (*Quote, error)
}

// Pair pins the pool used to route InputMint into OutputMint.
type Pair struct {
	InputMint          solana.PublicKey
	OutputMint         solana.PublicKey
	SwapType           types.SwapType
	Pool               solana.PublicKey
	ProtocolFeeAccount solana.PublicKey
}

type pairKey struct {
	in, out solana.PublicKey
}

// PoolQuoter quotes single-hop routes from venue pool reserves.
type PoolQuoter struct {
	host  *host.Host
	pairs map[pairKey]Pair
}

// NewPoolQuoter creates a quoter over the configured pairs.
func NewPoolQuoter(h *host.Host, pairs ...Pair) *PoolQuoter {
	q := &PoolQuoter{host: h, pairs: make(map[pairKey]Pair, len(pairs))}
	for _, p := range pairs {
		q.pairs[pairKey{p.InputMint, p.OutputMint}] = p
	}
	return q
}

// PairsFromConfig parses configured pairs.
func PairsFromConfig(cfgs []config.PairConfig) ([]Pair, error) {
	pairs := make([]Pair, 0, len(cfgs))
	for i, c := range cfgs {
		swapType, err := types.ParseSwapType(c.SwapType)
		if err != nil {
			return nil, fmt.Errorf("pair %d: %w", i, err)
		}
		p := Pair{SwapType: swapType}
		for _, f := range []struct {
			dst *solana.PublicKey
			raw string
		}{
			{&p.InputMint, c.InputMint},
			{&p.OutputMint, c.OutputMint},
			{&p.Pool, c.Pool},
		} {
			if *f.dst, err = solana.PublicKeyFromBase58(f.raw); err != nil {
				return nil, fmt.Errorf("pair %d: %w", i, err)
			}
		}
		if c.ProtocolFeeAccount != "" {
			if p.ProtocolFeeAccount, err = solana.PublicKeyFromBase58(c.ProtocolFeeAccount); err != nil {
				return nil, fmt.Errorf("pair %d: %w", i, err)
			}
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}

// Quote builds the hop window between the order's vaults and asks the
// venue adapter for the output of the escrowed amount.
func (q *PoolQuoter) Quote(ctx context.Context, o *order.LimitOrder) (*Quote, error) {
	p, ok := q.pairs[pairKey{o.InputMint, o.OutputMint}]
	if !ok {
		return nil, fmt.Errorf("%w: %s -> %s", ErrNoPair, o.InputMint, o.OutputMint)
	}
	adapter, err := q.host.Venues().Get(p.SwapType)
	if err != nil {
		return nil, err
	}

	var quote *Quote
	err = q.host.View(ctx, func(rc *runtime.Context) error {
		window, err := HopWindow(ctx, rc.Tx, p)
		if err != nil {
			return err
		}
		out, err := adapter.Quote(ctx, rc.Tx, window, o.InputAmount)
		if err != nil {
			return err
		}
		quote = &Quote{
			Plan: types.RoutePlan{{
				SwapType:    p.SwapType,
				Percent:     100,
				InputIndex:  0,
				OutputIndex: uint8(len(window)),
			}},
			Accounts:        window,
			QuotedOutAmount: out,
		}
		return nil
	})
	return quote, err
}

// HopWindow builds the account window routing p.InputMint's vault into
// p.OutputMint's vault through p.Pool, signed by the vault authority.
func HopWindow(ctx context.Context, tx store.Tx, p Pair) ([]*solana.AccountMeta, error) {
	owner := address.AuthorityAddress()
	in := address.VaultAddress(p.InputMint)
	out := address.VaultAddress(p.OutputMint)

	switch p.SwapType {
	case types.SwapTypeRaydium:
		keys, err := raydium.LoadPoolKeys(ctx, tx, raydium.RaydiumV4ProgramID, p.Pool)
		if err != nil {
			return nil, err
		}
		return keys.SwapWindow(in, out, owner), nil
	case types.SwapTypePumpSwapSell:
		keys, err := pumpswap.LoadPoolKeys(ctx, tx, pumpswap.PumpSwapProgramID, p.Pool, p.ProtocolFeeAccount)
		if err != nil {
			return nil, err
		}
		return keys.SwapWindow(owner, in, out), nil
	case types.SwapTypePumpSwapBuy:
		keys, err := pumpswap.LoadPoolKeys(ctx, tx, pumpswap.PumpSwapProgramID, p.Pool, p.ProtocolFeeAccount)
		if err != nil {
			return nil, err
		}
		return keys.SwapWindow(owner, out, in), nil
	default:
		return nil, fmt.Errorf("%w: %s", errUnsupportedVenue, p.SwapType)
	}
}

var errUnsupportedVenue = errors.New("unsupported venue")
