// internal/dex/pumpswap/adapter.go
package pumpswap

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/swap-router/internal/dex"
	"github.com/rovshanmuradov/swap-router/internal/store"
	"github.com/rovshanmuradov/swap-router/internal/types"
)

// Window positions (program first, then instruction accounts).
const (
	winProgram = iota
	winPool
	_
	winGlobalConfig
	_
	_
	winUserBase
	winUserQuote
)

var schemaAccounts = []dex.AccountSpec{
	{Name: "program"},
	{Name: "pool", Writable: true},
	{Name: "user", Signer: true},
	{Name: "global_config"},
	{Name: "base_mint"},
	{Name: "quote_mint"},
	{Name: "user_base_token_account", Writable: true},
	{Name: "user_quote_token_account", Writable: true},
	{Name: "pool_base_token_account", Writable: true},
	{Name: "pool_quote_token_account", Writable: true},
	{Name: "protocol_fee_recipient_token_account", Writable: true},
	{Name: "token_program"},
}

// SellSchema sells base for quote.
var SellSchema = dex.AccountSchema{
	Name:             "pumpswap_sell",
	Accounts:         schemaAccounts,
	ProgramIndex:     winProgram,
	PoolIndex:        winPool,
	SourceIndex:      winUserBase,
	DestinationIndex: winUserQuote,
}

// BuySchema buys base with an exact quote amount.
var BuySchema = dex.AccountSchema{
	Name:             "pumpswap_buy_exact_quote_in",
	Accounts:         schemaAccounts,
	ProgramIndex:     winProgram,
	PoolIndex:        winPool,
	SourceIndex:      winUserQuote,
	DestinationIndex: winUserBase,
}

// Adapter marshals router hops into pumpswap calls of one direction.
type Adapter struct {
	dex.BaseAdapter
	sell bool
}

var _ dex.Adapter = (*Adapter)(nil)

// NewSellAdapter creates the base→quote adapter.
func NewSellAdapter(logger *zap.Logger) *Adapter {
	return &Adapter{
		BaseAdapter: dex.NewBaseAdapter(types.SwapTypePumpSwapSell, SellSchema,
			func(amountIn uint64) []byte { return EncodeSell(amountIn, 1) }, logger),
		sell: true,
	}
}

// NewBuyAdapter creates the quote→base adapter.
func NewBuyAdapter(logger *zap.Logger) *Adapter {
	return &Adapter{
		BaseAdapter: dex.NewBaseAdapter(types.SwapTypePumpSwapBuy, BuySchema,
			func(amountIn uint64) []byte { return EncodeBuyExactQuoteIn(amountIn, 1) }, logger),
	}
}

// Quote estimates the user output for amountIn, net of LP and protocol fees.
func (a *Adapter) Quote(ctx context.Context, tx store.Tx, window []*solana.AccountMeta, amountIn uint64) (uint64, error) {
	schema := a.Schema()
	if err := schema.Validate(window); err != nil {
		return 0, err
	}
	programID := schema.Program(window)
	pool, err := LoadPool(ctx, tx, programID, schema.Pool(window))
	if err != nil {
		return 0, err
	}
	cfg, err := LoadGlobalConfig(ctx, tx, programID, window[winGlobalConfig].PublicKey)
	if err != nil {
		return 0, err
	}
	baseReserve, quoteReserve, err := reserves(ctx, tx, pool)
	if err != nil {
		return 0, err
	}
	var amounts *SwapAmounts
	if a.sell {
		amounts, err = calculateSell(baseReserve, quoteReserve, amountIn, cfg)
	} else {
		amounts, err = calculateBuyExactQuoteIn(baseReserve, quoteReserve, amountIn, cfg)
	}
	if err != nil {
		return 0, err
	}
	return amounts.AmountOut, nil
}
