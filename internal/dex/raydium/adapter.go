// internal/dex/raydium/adapter.go
package raydium

import (
	"context"
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/swap-router/internal/dex"
	"github.com/rovshanmuradov/swap-router/internal/errs"
	"github.com/rovshanmuradov/swap-router/internal/store"
	"github.com/rovshanmuradov/swap-router/internal/token"
	"github.com/rovshanmuradov/swap-router/internal/types"
)

// Schema is the account window of one swap_base_in hop.
var Schema = dex.AccountSchema{
	Name: "raydium_swap_base_in",
	Accounts: []dex.AccountSpec{
		{Name: "program"},
		{Name: "amm", Writable: true},
		{Name: "amm_authority"},
		{Name: "open_orders", Writable: true},
		{Name: "coin_vault", Writable: true},
		{Name: "pc_vault", Writable: true},
		{Name: "user_source", Writable: true},
		{Name: "user_destination", Writable: true},
		{Name: "user_owner", Signer: true},
		{Name: "token_program"},
	},
	ProgramIndex:     idxProgram,
	PoolIndex:        idxAmm,
	SourceIndex:      idxUserSource,
	DestinationIndex: idxUserDestination,
}

// Adapter marshals router hops into swap_base_in calls.
type Adapter struct {
	dex.BaseAdapter
}

var _ dex.Adapter = (*Adapter)(nil)

// NewAdapter creates the raydium hop adapter.
func NewAdapter(logger *zap.Logger) *Adapter {
	return &Adapter{BaseAdapter: dex.NewBaseAdapter(types.SwapTypeRaydium, Schema, encodeSwapBaseIn, logger)}
}

// encodeSwapBaseIn builds [9 | amountIn u64 | minOut u64]. The router checks
// only the final output, so the per-hop minimum is 1.
func encodeSwapBaseIn(amountIn uint64) []byte {
	data := make([]byte, swapBaseInDataSize)
	data[0] = InstructionSwapBaseIn
	binary.LittleEndian.PutUint64(data[1:9], amountIn)
	binary.LittleEndian.PutUint64(data[9:17], 1)
	return data
}

// Quote estimates the pool output for amountIn.
func (a *Adapter) Quote(ctx context.Context, tx store.Tx, window []*solana.AccountMeta, amountIn uint64) (uint64, error) {
	if err := Schema.Validate(window); err != nil {
		return 0, err
	}
	info, err := LoadAmmInfo(ctx, tx, Schema.Program(window), Schema.Pool(window))
	if err != nil {
		return 0, err
	}
	source, err := token.LoadAccount(ctx, tx, Schema.Source(window))
	if err != nil {
		return 0, err
	}
	switch {
	case source.Mint.Equals(info.CoinMint):
		return quote(ctx, tx, info, info.CoinVault, info.PcVault, amountIn)
	case source.Mint.Equals(info.PcMint):
		return quote(ctx, tx, info, info.PcVault, info.CoinVault, amountIn)
	default:
		return 0, errs.Wrap(errs.ErrMintMismatch, "raydium source mint %s", source.Mint)
	}
}
