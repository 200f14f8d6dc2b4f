// internal/host/host.go
package host

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/swap-router/internal/address"
	"github.com/rovshanmuradov/swap-router/internal/dex"
	"github.com/rovshanmuradov/swap-router/internal/dex/aggregator"
	"github.com/rovshanmuradov/swap-router/internal/dex/pumpswap"
	"github.com/rovshanmuradov/swap-router/internal/dex/raydium"
	"github.com/rovshanmuradov/swap-router/internal/runtime"
	"github.com/rovshanmuradov/swap-router/internal/store"
	"github.com/rovshanmuradov/swap-router/internal/token"
)

// Host связывает хранилище аккаунтов, рантайм программ и адаптеры площадок.
// Каждая операция выполняется в одной транзакции хранилища.
type Host struct {
	store   store.Store
	runtime *runtime.Runtime
	venues  *dex.Set
	logger  *zap.Logger
}

// NewVenues returns the adapter set for every supported swap type.
func NewVenues(logger *zap.Logger) (*dex.Set, error) {
	return dex.NewSet(
		raydium.NewAdapter(logger),
		pumpswap.NewBuyAdapter(logger),
		pumpswap.NewSellAdapter(logger),
	)
}

// New registers the token programs, the venue programs and the aggregator.
func New(st store.Store, logger *zap.Logger, opts ...runtime.Option) (*Host, error) {
	logger = logger.Named("host")

	venues, err := NewVenues(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build venue set: %w", err)
	}

	rt := runtime.New(logger, opts...)
	programs := []runtime.Program{
		token.NewProgram(token.LegacyProgramID),
		token.NewProgram(token.ExtensibleProgramID),
		raydium.NewProgram(raydium.RaydiumV4ProgramID, logger),
		pumpswap.NewProgram(pumpswap.PumpSwapProgramID, logger),
		aggregator.NewProgram(aggregator.ProgramID, venues, logger),
	}
	for _, p := range programs {
		if err := rt.Register(p); err != nil {
			return nil, err
		}
	}

	return &Host{
		store:   st,
		runtime: rt,
		venues:  venues,
		logger:  logger,
	}, nil
}

// Runtime returns the program registry.
func (h *Host) Runtime() *runtime.Runtime { return h.runtime }

// Venues returns the adapter set used by the router.
func (h *Host) Venues() *dex.Set { return h.venues }

// Store returns the account store.
func (h *Host) Store() store.Store { return h.store }

// Exec runs fn as one atomic router operation signed by signers. Any error
// discards every write made by fn.
func (h *Host) Exec(ctx context.Context, signers []solana.PublicKey, fn func(rc *runtime.Context) error) error {
	return h.store.Update(ctx, func(tx store.Tx) error {
		return fn(h.runtime.NewContext(ctx, tx, address.ProgramID, signers...))
	})
}

// View runs fn against a read-only snapshot.
func (h *Host) View(ctx context.Context, fn func(rc *runtime.Context) error) error {
	return h.store.View(ctx, func(tx store.Tx) error {
		return fn(h.runtime.NewContext(ctx, tx, address.ProgramID))
	})
}

// Close releases the store.
func (h *Host) Close() error {
	return h.store.Close()
}
