// internal/host/hosttest/world.go
package hosttest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/swap-router/internal/address"
	"github.com/rovshanmuradov/swap-router/internal/dex/aggregator"
	"github.com/rovshanmuradov/swap-router/internal/dex/pumpswap"
	"github.com/rovshanmuradov/swap-router/internal/dex/raydium"
	"github.com/rovshanmuradov/swap-router/internal/errs"
	"github.com/rovshanmuradov/swap-router/internal/host"
	"github.com/rovshanmuradov/swap-router/internal/registry"
	"github.com/rovshanmuradov/swap-router/internal/runtime"
	"github.com/rovshanmuradov/swap-router/internal/store/memory"
	"github.com/rovshanmuradov/swap-router/internal/token"
	"github.com/rovshanmuradov/swap-router/internal/types"
	"github.com/rovshanmuradov/swap-router/internal/vault"
)

// Reserves of the default pool: 10,000,000 A and 9,000,000 B at 6 decimals.
const (
	ReserveA uint64 = 10_000_000_000_000
	ReserveB uint64 = 9_000_000_000_000

	// UserFunds is the starting balance of each user token account.
	UserFunds uint64 = 1_000_000_000

	lamports uint64 = 100_000_000_000
)

// Clock is an adjustable runtime clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// World is a fully bootstrapped host: vault authority, registry with every
// venue enabled, vaults for two mints and a registered raydium pool between
// them.
type World struct {
	T     testing.TB
	Ctx   context.Context
	Host  *host.Host
	Clock *Clock

	Admin    solana.PublicKey
	Operator solana.PublicKey
	User     solana.PublicKey

	MintA solana.PublicKey
	MintB solana.PublicKey
	UserA solana.PublicKey
	UserB solana.PublicKey

	Raydium *raydium.PoolKeys
}

// New builds a world backed by an in-memory store.
func New(t testing.TB) *World {
	t.Helper()
	clock := &Clock{now: time.Unix(1_700_000_000, 0)}
	h, err := host.New(memory.New(), zaptest.NewLogger(t), runtime.WithClock(clock.Now))
	require.NoError(t, err)

	w := &World{
		T:        t,
		Ctx:      context.Background(),
		Host:     h,
		Clock:    clock,
		Admin:    solana.NewWallet().PublicKey(),
		Operator: solana.NewWallet().PublicKey(),
		User:     solana.NewWallet().PublicKey(),
	}
	for _, k := range []solana.PublicKey{w.Admin, w.Operator, w.User} {
		require.NoError(t, h.Airdrop(w.Ctx, k, lamports))
	}

	w.MintA = w.NewMint(token.LegacyProgramID)
	w.MintB = w.NewMint(token.LegacyProgramID)

	require.NoError(t, w.Exec(w.Admin, func(rc *runtime.Context) error {
		if err := vault.CreateAuthority(rc, w.Admin, w.Admin, aggregator.ProgramID); err != nil {
			return err
		}
		adapters := []registry.AdapterInfo{
			{SwapType: types.SwapTypeRaydium, ProgramID: raydium.RaydiumV4ProgramID, Enabled: true},
			{SwapType: types.SwapTypePumpSwapBuy, ProgramID: pumpswap.PumpSwapProgramID, Enabled: true},
			{SwapType: types.SwapTypePumpSwapSell, ProgramID: pumpswap.PumpSwapProgramID, Enabled: true},
		}
		if err := registry.Initialize(rc, w.Admin, []solana.PublicKey{w.Operator}, adapters); err != nil {
			return err
		}
		_, err := vault.InitializeVaults(rc, w.Admin, []solana.PublicKey{w.MintA, w.MintB})
		return err
	}))

	w.Raydium, err = h.CreateRaydiumPool(w.Ctx, w.Admin, w.MintA, w.MintB, ReserveA, ReserveB)
	require.NoError(t, err)
	w.RegisterPool(types.SwapTypeRaydium, w.Raydium.Amm)

	w.UserA = w.NewAccount(w.MintA, w.User, UserFunds)
	w.UserB = w.NewAccount(w.MintB, w.User, UserFunds)
	return w
}

// Exec runs fn as one operation signed by signers.
func (w *World) Exec(signer solana.PublicKey, fn func(rc *runtime.Context) error, more ...solana.PublicKey) error {
	return w.Host.Exec(w.Ctx, append([]solana.PublicKey{signer}, more...), fn)
}

// NewMint creates a 6-decimal mint under programID.
func (w *World) NewMint(programID solana.PublicKey) solana.PublicKey {
	w.T.Helper()
	mint, err := w.Host.CreateMint(w.Ctx, w.Admin, programID, 6)
	require.NoError(w.T, err)
	return mint
}

// NewAccount creates a token account of mint for owner holding amount.
func (w *World) NewAccount(mint, owner solana.PublicKey, amount uint64) solana.PublicKey {
	w.T.Helper()
	addr, err := w.Host.CreateTokenAccount(w.Ctx, w.Admin, mint, owner)
	require.NoError(w.T, err)
	if amount > 0 {
		require.NoError(w.T, w.Host.MintTo(w.Ctx, mint, addr, amount))
	}
	return addr
}

// RegisterPool records a PoolInfo for pool.
func (w *World) RegisterPool(swapType types.SwapType, pool solana.PublicKey) solana.PublicKey {
	w.T.Helper()
	var info solana.PublicKey
	require.NoError(w.T, w.Exec(w.Operator, func(rc *runtime.Context) error {
		var err error
		info, err = registry.InitializePoolInfo(rc, w.Operator, swapType, pool)
		return err
	}))
	return info
}

// Balance returns the token balance of addr.
func (w *World) Balance(addr solana.PublicKey) uint64 {
	w.T.Helper()
	amount, err := w.Host.Balance(w.Ctx, addr)
	require.NoError(w.T, err)
	return amount
}

// Lamports returns the lamports of addr.
func (w *World) Lamports(addr solana.PublicKey) uint64 {
	w.T.Helper()
	amount, err := w.Host.Lamports(w.Ctx, addr)
	require.NoError(w.T, err)
	return amount
}

// Exists reports whether an account is stored at addr.
func (w *World) Exists(addr solana.PublicKey) bool {
	w.T.Helper()
	var found bool
	require.NoError(w.T, w.Host.View(w.Ctx, func(rc *runtime.Context) error {
		_, err := rc.Tx.Get(rc, addr)
		if errors.Is(err, errs.ErrAccountNotFound) {
			return nil
		}
		found = err == nil
		return err
	}))
	return found
}

// RaydiumWindow routes the vault of in into the vault of out through the default pool.
func (w *World) RaydiumWindow(in, out solana.PublicKey) []*solana.AccountMeta {
	return w.Raydium.SwapWindow(address.VaultAddress(in), address.VaultAddress(out), address.AuthorityAddress())
}

// SwapAToB is a single-hop request selling amount of A for B.
func (w *World) SwapAToB(amount, quoted uint64, slippageBps, feeBps uint16) *types.SwapRequest {
	return w.SingleHop(types.SwapTypeRaydium, w.RaydiumWindow(w.MintA, w.MintB), amount, quoted, slippageBps, feeBps)
}

// SingleHop wraps one window into a swap request.
func (w *World) SingleHop(swapType types.SwapType, window []*solana.AccountMeta, amount, quoted uint64, slippageBps, feeBps uint16) *types.SwapRequest {
	return &types.SwapRequest{
		Plan:            types.RoutePlan{{SwapType: swapType, Percent: 100, InputIndex: 0, OutputIndex: uint8(len(window))}},
		Accounts:        window,
		InAmount:        amount,
		QuotedOutAmount: quoted,
		SlippageBps:     slippageBps,
		PlatformFeeBps:  feeBps,
	}
}

// QuoteRaydium returns the pool output for amount of in.
func (w *World) QuoteRaydium(in, out solana.PublicKey, amount uint64) uint64 {
	w.T.Helper()
	var quoted uint64
	require.NoError(w.T, w.Host.View(w.Ctx, func(rc *runtime.Context) error {
		adapter, err := w.Host.Venues().Get(types.SwapTypeRaydium)
		if err != nil {
			return err
		}
		quoted, err = adapter.Quote(rc, rc.Tx, w.RaydiumWindow(in, out), amount)
		return err
	}))
	return quoted
}
