// internal/dex/adapter.go
package dex

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/swap-router/internal/errs"
	"github.com/rovshanmuradov/swap-router/internal/runtime"
	"github.com/rovshanmuradov/swap-router/internal/store"
	"github.com/rovshanmuradov/swap-router/internal/token"
	"github.com/rovshanmuradov/swap-router/internal/types"
)

// AccountSpec describes one position of a venue's account list.
type AccountSpec struct {
	Name     string
	Writable bool
	Signer   bool
}

// AccountSchema задаёт фиксированный по длине и порядку список аккаунтов площадки.
// Индексы указывают позиции программы, пула и счетов пользователя.
type AccountSchema struct {
	Name             string
	Accounts         []AccountSpec
	ProgramIndex     int
	PoolIndex        int
	SourceIndex      int
	DestinationIndex int
}

// Validate checks window against the schema length and writable flags.
func (s AccountSchema) Validate(window []*solana.AccountMeta) error {
	if len(window) != len(s.Accounts) {
		return errs.Wrap(errs.ErrAccountSchemaMismatch, "%s expects %d accounts, got %d", s.Name, len(s.Accounts), len(window))
	}
	for i, spec := range s.Accounts {
		if window[i] == nil {
			return errs.Wrap(errs.ErrAccountSchemaMismatch, "%s: %s missing", s.Name, spec.Name)
		}
		if spec.Writable && !window[i].IsWritable {
			return errs.Wrap(errs.ErrAccountSchemaMismatch, "%s: %s must be writable", s.Name, spec.Name)
		}
	}
	return nil
}

// Program returns the venue program of a validated window.
func (s AccountSchema) Program(window []*solana.AccountMeta) solana.PublicKey {
	return window[s.ProgramIndex].PublicKey
}

// Pool returns the pool account of a validated window.
func (s AccountSchema) Pool(window []*solana.AccountMeta) solana.PublicKey {
	return window[s.PoolIndex].PublicKey
}

// Source returns the account the hop debits.
func (s AccountSchema) Source(window []*solana.AccountMeta) solana.PublicKey {
	return window[s.SourceIndex].PublicKey
}

// Destination returns the account the hop credits.
func (s AccountSchema) Destination(window []*solana.AccountMeta) solana.PublicKey {
	return window[s.DestinationIndex].PublicKey
}

// HopContext is everything one venue invocation needs.
type HopContext struct {
	RC          *runtime.Context
	Window      []*solana.AccountMeta
	AmountIn    uint64
	SignerSeeds [][][]byte
}

// Adapter executes one hop against an external venue.
type Adapter interface {
	SwapType() types.SwapType
	Schema() AccountSchema
	// ExecuteSwap invokes the venue and returns the realized output,
	// measured on the schema destination account.
	ExecuteSwap(h *HopContext) (uint64, error)
	// Quote estimates the output of amountIn from the venue's pool state.
	Quote(ctx context.Context, tx store.Tx, window []*solana.AccountMeta, amountIn uint64) (uint64, error)
}

// InstructionEncoder builds the venue instruction data for one hop.
type InstructionEncoder func(amountIn uint64) []byte

// BaseAdapter содержит общую логику вызова площадки: проверку окна,
// сборку метаданных по схеме и замер фактического выхода.
type BaseAdapter struct {
	swapType types.SwapType
	schema   AccountSchema
	encode   InstructionEncoder
	logger   *zap.Logger
}

// NewBaseAdapter wires a schema and an instruction encoder into an adapter core.
func NewBaseAdapter(swapType types.SwapType, schema AccountSchema, encode InstructionEncoder, logger *zap.Logger) BaseAdapter {
	return BaseAdapter{
		swapType: swapType,
		schema:   schema,
		encode:   encode,
		logger:   logger.Named(swapType.String()),
	}
}

func (b *BaseAdapter) SwapType() types.SwapType { return b.swapType }

func (b *BaseAdapter) Schema() AccountSchema { return b.schema }

// ExecuteSwap validates the window, invokes the venue program with every
// account after the program itself and returns the destination delta.
func (b *BaseAdapter) ExecuteSwap(h *HopContext) (uint64, error) {
	if err := b.schema.Validate(h.Window); err != nil {
		return 0, err
	}
	if h.AmountIn == 0 {
		return 0, errs.Wrap(errs.ErrZeroAmount, "%s hop input", b.swapType)
	}

	destination := b.schema.Destination(h.Window)
	before, err := token.Balance(h.RC, h.RC.Tx, destination)
	if err != nil {
		return 0, errs.Wrap(err, "%s destination", b.swapType)
	}

	metas := make([]*solana.AccountMeta, 0, len(h.Window)-1)
	for i, spec := range b.schema.Accounts {
		if i == b.schema.ProgramIndex {
			continue
		}
		metas = append(metas, &solana.AccountMeta{
			PublicKey:  h.Window[i].PublicKey,
			IsWritable: spec.Writable,
			IsSigner:   spec.Signer,
		})
	}

	program := b.schema.Program(h.Window)
	if err := h.RC.InvokeSigned(program, metas, b.encode(h.AmountIn), h.SignerSeeds...); err != nil {
		return 0, errs.Wrap(err, "%s swap", b.swapType)
	}

	after, err := token.Balance(h.RC, h.RC.Tx, destination)
	if err != nil {
		return 0, err
	}
	if after < before {
		return 0, errs.Wrap(errs.ErrArithmeticOverflow, "%s destination balance decreased", b.swapType)
	}

	b.logger.Debug("Hop executed",
		zap.Stringer("pool", b.schema.Pool(h.Window)),
		zap.Uint64("amount_in", h.AmountIn),
		zap.Uint64("amount_out", after-before))
	return after - before, nil
}
