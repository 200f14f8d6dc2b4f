package registry

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/swap-router/internal/address"
	"github.com/rovshanmuradov/swap-router/internal/errs"
	"github.com/rovshanmuradov/swap-router/internal/runtime"
	"github.com/rovshanmuradov/swap-router/internal/store"
	"github.com/rovshanmuradov/swap-router/internal/store/memory"
	"github.com/rovshanmuradov/swap-router/internal/types"
)

type fixture struct {
	t         *testing.T
	store     *memory.Store
	rt        *runtime.Runtime
	authority solana.PublicKey
	operator  solana.PublicKey
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		t:         t,
		store:     memory.New(),
		rt:        runtime.New(zaptest.NewLogger(t)),
		authority: solana.NewWallet().PublicKey(),
		operator:  solana.NewWallet().PublicKey(),
	}
	require.NoError(t, f.store.Update(context.Background(), func(tx store.Tx) error {
		if err := store.Credit(context.Background(), tx, f.authority, 1_000_000_000); err != nil {
			return err
		}
		return store.Credit(context.Background(), tx, f.operator, 1_000_000_000)
	}))
	return f
}

func (f *fixture) exec(signer solana.PublicKey, fn func(rc *runtime.Context) error) error {
	return f.store.Update(context.Background(), func(tx store.Tx) error {
		return fn(f.rt.NewContext(context.Background(), tx, address.ProgramID, signer))
	})
}

func (f *fixture) load() *AdapterRegistry {
	var r *AdapterRegistry
	require.NoError(f.t, f.exec(solana.PublicKey{}, func(rc *runtime.Context) error {
		var err error
		r, err = Load(rc)
		return err
	}))
	return r
}

func (f *fixture) initialize(adapters ...AdapterInfo) {
	require.NoError(f.t, f.exec(f.authority, func(rc *runtime.Context) error {
		return Initialize(rc, f.authority, []solana.PublicKey{f.operator}, adapters)
	}))
}

func TestInitializeOnce(t *testing.T) {
	f := newFixture(t)
	f.initialize()

	err := f.exec(f.authority, func(rc *runtime.Context) error {
		return Initialize(rc, f.authority, nil, nil)
	})
	assert.ErrorIs(t, err, errs.ErrAlreadyInitialized)

	r := f.load()
	assert.Equal(t, CurrentVersion, r.Version)
	assert.True(t, r.IsOperator(f.operator))
}

func TestInitializeValidatesOperators(t *testing.T) {
	f := newFixture(t)
	ops := make([]solana.PublicKey, MaxOperators+1)
	for i := range ops {
		ops[i] = solana.NewWallet().PublicKey()
	}
	err := f.exec(f.authority, func(rc *runtime.Context) error {
		return Initialize(rc, f.authority, ops, nil)
	})
	assert.ErrorIs(t, err, errs.ErrOperatorSetFull)

	err = f.exec(f.authority, func(rc *runtime.Context) error {
		return Initialize(rc, f.authority, []solana.PublicKey{f.operator, f.operator}, nil)
	})
	assert.ErrorIs(t, err, errs.ErrDuplicateOperator)
}

func TestConfigureAdapter(t *testing.T) {
	f := newFixture(t)
	f.initialize()
	program := solana.NewWallet().PublicKey()

	configure := func(signer solana.PublicKey, id solana.PublicKey) error {
		return f.exec(signer, func(rc *runtime.Context) error {
			return ConfigureAdapter(rc, signer, types.SwapTypeRaydium, id)
		})
	}

	assert.ErrorIs(t, configure(f.authority, program), errs.ErrNotOperator)
	require.NoError(t, configure(f.operator, program))
	assert.ErrorIs(t, configure(f.operator, program), errs.ErrDuplicateAdapter)

	upgraded := solana.NewWallet().PublicKey()
	require.NoError(t, configure(f.operator, upgraded))
	info, err := f.load().ResolveAdapter(types.SwapTypeRaydium)
	require.NoError(t, err)
	assert.Equal(t, upgraded, info.ProgramID)

	require.NoError(t, f.exec(f.operator, func(rc *runtime.Context) error {
		return DisableAdapter(rc, f.operator, types.SwapTypeRaydium)
	}))
	r := f.load()
	require.Len(t, r.Adapters, 1, "disabled entries are kept")
	_, err = r.ResolveAdapter(types.SwapTypeRaydium)
	assert.ErrorIs(t, err, errs.ErrAdapterDisabled)
	_, err = r.ResolveAdapter(types.SwapTypePumpSwapBuy)
	assert.ErrorIs(t, err, errs.ErrAdapterNotConfigured)

	// re-enabling a disabled entry with the same program is an upsert
	require.NoError(t, configure(f.operator, upgraded))

	err = f.exec(f.operator, func(rc *runtime.Context) error {
		return DisableAdapter(rc, f.operator, types.SwapTypePumpSwapSell)
	})
	assert.ErrorIs(t, err, errs.ErrAdapterNotConfigured)
}

func TestPoolInfoLifecycle(t *testing.T) {
	f := newFixture(t)
	f.initialize(AdapterInfo{SwapType: types.SwapTypeRaydium, ProgramID: solana.NewWallet().PublicKey(), Enabled: true})
	pool := solana.NewWallet().PublicKey()

	register := func(st types.SwapType) error {
		return f.exec(f.operator, func(rc *runtime.Context) error {
			_, err := InitializePoolInfo(rc, f.operator, st, pool)
			return err
		})
	}
	check := func() error {
		return f.exec(solana.PublicKey{}, func(rc *runtime.Context) error {
			return CheckPool(rc, types.SwapTypeRaydium, pool)
		})
	}

	assert.ErrorIs(t, check(), errs.ErrPoolNotRegistered)
	assert.ErrorIs(t, register(types.SwapTypePumpSwapBuy), errs.ErrAdapterNotConfigured)
	require.NoError(t, register(types.SwapTypeRaydium))
	assert.ErrorIs(t, register(types.SwapTypeRaydium), errs.ErrPoolAlreadyRegistered)
	require.NoError(t, check())

	require.NoError(t, f.exec(f.operator, func(rc *runtime.Context) error {
		return DisablePool(rc, f.operator, address.PoolInfoAddress(types.SwapTypeRaydium, pool))
	}))
	assert.ErrorIs(t, check(), errs.ErrPoolDisabled)
}

func TestOperatorManagement(t *testing.T) {
	f := newFixture(t)
	f.initialize()
	newOp := solana.NewWallet().PublicKey()

	add := func(signer, op solana.PublicKey) error {
		return f.exec(signer, func(rc *runtime.Context) error { return AddOperator(rc, signer, op) })
	}
	remove := func(signer, op solana.PublicKey) error {
		return f.exec(signer, func(rc *runtime.Context) error { return RemoveOperator(rc, signer, op) })
	}

	assert.ErrorIs(t, add(f.operator, newOp), errs.ErrUnauthorized)
	require.NoError(t, add(f.authority, newOp))
	assert.ErrorIs(t, add(f.authority, newOp), errs.ErrDuplicateOperator)
	for len(f.load().Operators) < MaxOperators {
		require.NoError(t, add(f.authority, solana.NewWallet().PublicKey()))
	}
	assert.ErrorIs(t, add(f.authority, solana.NewWallet().PublicKey()), errs.ErrOperatorSetFull)

	require.NoError(t, remove(f.authority, newOp))
	assert.ErrorIs(t, remove(f.authority, newOp), errs.ErrOperatorNotFound)
}

func TestChangeAuthority(t *testing.T) {
	f := newFixture(t)
	f.initialize()
	next := solana.NewWallet().PublicKey()

	require.NoError(t, f.exec(f.authority, func(rc *runtime.Context) error {
		return ChangeAuthority(rc, f.authority, next)
	}))
	assert.Equal(t, next, f.load().Authority)

	err := f.exec(f.authority, func(rc *runtime.Context) error {
		return AddOperator(rc, f.authority, solana.NewWallet().PublicKey())
	})
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
}
