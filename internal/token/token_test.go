package token

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/swap-router/internal/errs"
	"github.com/rovshanmuradov/swap-router/internal/runtime"
	"github.com/rovshanmuradov/swap-router/internal/store"
	"github.com/rovshanmuradov/swap-router/internal/store/memory"
)

type fixture struct {
	store *memory.Store
	rt    *runtime.Runtime
	payer solana.PublicKey
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	rt := runtime.New(zaptest.NewLogger(t))
	require.NoError(t, rt.Register(NewProgram(LegacyProgramID)))
	require.NoError(t, rt.Register(NewProgram(ExtensibleProgramID)))
	f := &fixture{store: memory.New(), rt: rt, payer: solana.NewWallet().PublicKey()}
	f.update(t, func(tx store.Tx) error {
		return store.Credit(context.Background(), tx, f.payer, 1_000_000_000)
	})
	return f
}

func (f *fixture) update(t *testing.T, fn func(tx store.Tx) error) {
	t.Helper()
	require.NoError(t, f.store.Update(context.Background(), fn))
}

func (f *fixture) mint(t *testing.T, program solana.PublicKey, decimals uint8) solana.PublicKey {
	t.Helper()
	mint := solana.NewWallet().PublicKey()
	f.update(t, func(tx store.Tx) error {
		return CreateMint(context.Background(), tx, f.payer, mint, program, f.payer, decimals)
	})
	return mint
}

func (f *fixture) account(t *testing.T, mint, owner solana.PublicKey, amount uint64) solana.PublicKey {
	t.Helper()
	ctx := context.Background()
	addr := solana.NewWallet().PublicKey()
	f.update(t, func(tx store.Tx) error {
		if err := CreateAccount(ctx, tx, f.payer, addr, mint, owner, 0); err != nil {
			return err
		}
		if amount == 0 {
			return nil
		}
		return MintTo(ctx, tx, mint, addr, amount)
	})
	return addr
}

func (f *fixture) balance(t *testing.T, addr solana.PublicKey) uint64 {
	t.Helper()
	var b uint64
	require.NoError(t, f.store.View(context.Background(), func(tx store.Tx) error {
		var err error
		b, err = Balance(context.Background(), tx, addr)
		return err
	}))
	return b
}

func (f *fixture) run(signers ...solana.PublicKey) func(fn func(rc *runtime.Context) error) error {
	return func(fn func(rc *runtime.Context) error) error {
		return f.store.Update(context.Background(), func(tx store.Tx) error {
			return fn(f.rt.NewContext(context.Background(), tx, solana.NewWallet().PublicKey(), signers...))
		})
	}
}

func TestTransferChecked(t *testing.T) {
	f := newFixture(t)
	mint := f.mint(t, LegacyProgramID, 6)
	alice := solana.NewWallet().PublicKey()
	bob := solana.NewWallet().PublicKey()
	src := f.account(t, mint, alice, 1_000)
	dst := f.account(t, mint, bob, 0)

	err := f.run(alice)(func(rc *runtime.Context) error {
		return Transfer(rc, src, dst, alice, 400)
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(600), f.balance(t, src))
	assert.Equal(t, uint64(400), f.balance(t, dst))
}

func TestTransferRejections(t *testing.T) {
	f := newFixture(t)
	mint := f.mint(t, LegacyProgramID, 6)
	other := f.mint(t, LegacyProgramID, 6)
	alice := solana.NewWallet().PublicKey()
	src := f.account(t, mint, alice, 100)
	dst := f.account(t, mint, alice, 0)
	foreign := f.account(t, other, alice, 0)

	tests := []struct {
		name    string
		signer  solana.PublicKey
		dst     solana.PublicKey
		auth    solana.PublicKey
		amount  uint64
		wantErr error
	}{
		{"missing signature", solana.NewWallet().PublicKey(), dst, alice, 1, errs.ErrMissingSignature},
		{"wrong owner", alice, dst, solana.NewWallet().PublicKey(), 1, errs.ErrMissingSignature},
		{"insufficient funds", alice, dst, alice, 101, errs.ErrInsufficientFunds},
		{"mint mismatch", alice, foreign, alice, 1, errs.ErrMintMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.run(tt.signer)(func(rc *runtime.Context) error {
				return Transfer(rc, src, tt.dst, tt.auth, tt.amount)
			})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, uint64(100), f.balance(t, src))
		})
	}
}

func TestOwnerMismatchWhenAuthoritySigned(t *testing.T) {
	f := newFixture(t)
	mint := f.mint(t, LegacyProgramID, 0)
	alice := solana.NewWallet().PublicKey()
	mallory := solana.NewWallet().PublicKey()
	src := f.account(t, mint, alice, 5)
	dst := f.account(t, mint, mallory, 0)

	err := f.run(mallory)(func(rc *runtime.Context) error {
		return Transfer(rc, src, dst, mallory, 5)
	})
	assert.ErrorIs(t, err, errs.ErrOwnerMismatch)
}

func TestExtensionsOnlyForExtensibleProgram(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	legacy := f.mint(t, LegacyProgramID, 9)
	extensible := f.mint(t, ExtensibleProgramID, 9)
	owner := solana.NewWallet().PublicKey()

	err := f.store.Update(ctx, func(tx store.Tx) error {
		return CreateAccount(ctx, tx, f.payer, solana.NewWallet().PublicKey(), legacy, owner, 8)
	})
	assert.ErrorIs(t, err, errs.ErrExtensionsUnsupported)

	addr := solana.NewWallet().PublicKey()
	f.update(t, func(tx store.Tx) error {
		if err := CreateAccount(ctx, tx, f.payer, addr, extensible, owner, 8); err != nil {
			return err
		}
		return MintTo(ctx, tx, extensible, addr, 10)
	})
	require.NoError(t, f.store.View(ctx, func(tx store.Tx) error {
		a, err := LoadAccount(ctx, tx, addr)
		require.NoError(t, err)
		assert.Len(t, a.Extensions, 8)
		assert.Equal(t, uint64(10), a.Amount)
		raw, err := tx.Get(ctx, addr)
		require.NoError(t, err)
		assert.Len(t, raw.Data, AccountSize+1+8)
		return nil
	}))
}

func TestCloseRequiresZeroBalance(t *testing.T) {
	f := newFixture(t)
	mint := f.mint(t, LegacyProgramID, 0)
	owner := solana.NewWallet().PublicKey()
	recipient := solana.NewWallet().PublicKey()
	full := f.account(t, mint, owner, 1)
	empty := f.account(t, mint, owner, 0)

	err := f.run(owner)(func(rc *runtime.Context) error {
		return Close(rc, full, recipient, owner)
	})
	assert.ErrorIs(t, err, errs.ErrAccountNotEmpty)

	require.NoError(t, f.run(owner)(func(rc *runtime.Context) error {
		return Close(rc, empty, recipient, owner)
	}))
	require.NoError(t, f.store.View(context.Background(), func(tx store.Tx) error {
		ok, err := Exists(context.Background(), tx, empty)
		assert.False(t, ok)
		lamports, _ := store.Lamports(context.Background(), tx, recipient)
		assert.Equal(t, store.MinimumBalance(AccountSize), lamports)
		return err
	}))
}

func TestUIAmount(t *testing.T) {
	assert.Equal(t, "1.500000", UIAmount(1_500_000, 6))
	assert.Equal(t, "42", UIAmount(42, 0))
}
