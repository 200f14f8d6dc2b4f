package router

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/swap-router/internal/address"
	"github.com/rovshanmuradov/swap-router/internal/dex/raydium"
	"github.com/rovshanmuradov/swap-router/internal/errs"
	"github.com/rovshanmuradov/swap-router/internal/host/hosttest"
	"github.com/rovshanmuradov/swap-router/internal/registry"
	"github.com/rovshanmuradov/swap-router/internal/runtime"
	"github.com/rovshanmuradov/swap-router/internal/types"
	"github.com/rovshanmuradov/swap-router/internal/vault"
)

func newRouter(t *testing.T, w *hosttest.World) *Router {
	return New(w.Host.Venues(), zaptest.NewLogger(t))
}

func route(w *hosttest.World, r *Router, req *types.SwapRequest) (*Result, error) {
	var res *Result
	err := w.Exec(w.User, func(rc *runtime.Context) error {
		var err error
		res, err = r.Route(rc, w.User, w.UserA, w.UserB, req)
		return err
	})
	return res, err
}

func TestRouteSingleHop(t *testing.T) {
	w := hosttest.New(t)
	r := newRouter(t, w)

	expected := w.QuoteRaydium(w.MintA, w.MintB, 100_000_000)
	res, err := route(w, r, w.SwapAToB(100_000_000, 90_000_000, 100, 0))
	require.NoError(t, err)

	assert.Equal(t, hosttest.UserFunds-100_000_000, w.Balance(w.UserA))
	assert.Equal(t, hosttest.UserFunds+res.Net, w.Balance(w.UserB))
	assert.GreaterOrEqual(t, res.Net, uint64(89_100_000))
	assert.Equal(t, expected, res.Realized)
	assert.Equal(t, res.Realized, res.Net)
	assert.Zero(t, res.Fee)
	assert.Zero(t, w.Balance(address.VaultAddress(w.MintA)))
	assert.Zero(t, w.Balance(address.VaultAddress(w.MintB)))
}

func TestRoutePlatformFeeMovesToFeeVault(t *testing.T) {
	w := hosttest.New(t)
	r := newRouter(t, w)

	res, err := route(w, r, w.SwapAToB(100_000_000, 90_000_000, 100, 50))
	require.NoError(t, err)

	fee, err := types.PlatformFee(res.Realized, 50)
	require.NoError(t, err)
	assert.Equal(t, fee, res.Fee)
	assert.Equal(t, res.Realized, res.Net+res.Fee)
	assert.Zero(t, w.Balance(address.VaultAddress(w.MintB)))
	assert.Equal(t, res.Fee, w.Balance(address.FeeVaultAddress(w.MintB)))
	assert.Equal(t, hosttest.UserFunds+res.Net, w.Balance(w.UserB))

	dest := w.NewAccount(w.MintB, w.Admin, 0)
	withdraw := func(amount uint64) error {
		return w.Exec(w.Admin, func(rc *runtime.Context) error {
			return vault.WithdrawPlatformFees(rc, w.Admin, w.MintB, dest, amount)
		})
	}
	assert.ErrorIs(t, withdraw(res.Fee+1), errs.ErrInsufficientFunds)
	require.NoError(t, withdraw(res.Fee))
	assert.Equal(t, res.Fee, w.Balance(dest))
	assert.Zero(t, w.Balance(address.FeeVaultAddress(w.MintB)))
}

func TestRouteSlippageRollsBack(t *testing.T) {
	w := hosttest.New(t)
	r := newRouter(t, w)

	expected := w.QuoteRaydium(w.MintA, w.MintB, 100_000_000)
	_, err := route(w, r, w.SwapAToB(100_000_000, expected+1, 0, 0))
	require.ErrorIs(t, err, errs.ErrSlippageToleranceExceeded)

	assert.Equal(t, hosttest.UserFunds, w.Balance(w.UserA))
	assert.Equal(t, hosttest.UserFunds, w.Balance(w.UserB))
	assert.Equal(t, hosttest.ReserveA, w.Balance(w.Raydium.CoinVault))
	assert.Equal(t, hosttest.ReserveB, w.Balance(w.Raydium.PcVault))
}

func TestRouteExactQuoteAtZeroSlippage(t *testing.T) {
	w := hosttest.New(t)
	r := newRouter(t, w)

	expected := w.QuoteRaydium(w.MintA, w.MintB, 5_000_000)
	res, err := route(w, r, w.SwapAToB(5_000_000, expected, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, expected, res.Net)
}

func TestRouteTwoHops(t *testing.T) {
	w := hosttest.New(t)
	r := newRouter(t, w)

	mintC := w.NewMint(w.Raydium.TokenProgram)
	require.NoError(t, w.Exec(w.Admin, func(rc *runtime.Context) error {
		_, err := vault.CreateVault(rc, w.Admin, mintC)
		return err
	}))
	pool, err := w.Host.CreateRaydiumPool(w.Ctx, w.Admin, mintC, w.MintB, 4_000_000_000_000, 8_000_000_000_000)
	require.NoError(t, err)
	w.RegisterPool(types.SwapTypeRaydium, pool.Amm)
	userC := w.NewAccount(mintC, w.User, 0)

	first := w.RaydiumWindow(w.MintA, w.MintB)
	second := pool.SwapWindow(address.VaultAddress(w.MintB), address.VaultAddress(mintC), address.AuthorityAddress())
	n := uint8(len(first))
	req := &types.SwapRequest{
		Plan: types.RoutePlan{
			{SwapType: types.SwapTypeRaydium, Percent: 100, InputIndex: 0, OutputIndex: n},
			{SwapType: types.SwapTypeRaydium, Percent: 100, InputIndex: n, OutputIndex: 2 * n},
		},
		Accounts:        append(first, second...),
		InAmount:        10_000_000,
		QuotedOutAmount: 4_400_000,
		SlippageBps:     100,
	}

	var res *Result
	require.NoError(t, w.Exec(w.User, func(rc *runtime.Context) error {
		res, err = r.Route(rc, w.User, w.UserA, userC, req)
		return err
	}))
	assert.Equal(t, w.MintA, res.InputMint)
	assert.Equal(t, mintC, res.OutputMint)
	assert.Equal(t, res.Net, w.Balance(userC))
	assert.Zero(t, w.Balance(address.VaultAddress(w.MintB)))
	assert.GreaterOrEqual(t, res.Net, uint64(4_356_000))
}

func TestRouteRejectsUserAccountInWindow(t *testing.T) {
	w := hosttest.New(t)
	r := newRouter(t, w)

	window := w.Raydium.SwapWindow(w.UserA, address.VaultAddress(w.MintB), w.User)
	req := w.SingleHop(types.SwapTypeRaydium, window, 1_000_000, 800_000, 100, 0)
	_, err := route(w, r, req)
	assert.ErrorIs(t, err, errs.ErrVaultMismatch)

	window = w.Raydium.SwapWindow(address.VaultAddress(w.MintA), w.UserB, address.AuthorityAddress())
	req = w.SingleHop(types.SwapTypeRaydium, window, 1_000_000, 800_000, 100, 0)
	_, err = route(w, r, req)
	assert.ErrorIs(t, err, errs.ErrVaultMismatch)
	assert.Equal(t, hosttest.UserFunds, w.Balance(w.UserA))
}

func TestRouteHopsChainThroughVaults(t *testing.T) {
	vaultA := func(w *hosttest.World) solana.PublicKey { return address.VaultAddress(w.MintA) }
	vaultB := func(w *hosttest.World) solana.PublicKey { return address.VaultAddress(w.MintB) }

	tests := []struct {
		name string
		// hops returns the source and destination of both hops; stash is an
		// authority-owned A account the route has no claim on.
		hops func(w *hosttest.World, stash solana.PublicKey) [2][2]solana.PublicKey
	}{
		{
			name: "hop credits a user account",
			hops: func(w *hosttest.World, stash solana.PublicKey) [2][2]solana.PublicKey {
				return [2][2]solana.PublicKey{{vaultA(w), w.UserB}, {stash, vaultB(w)}}
			},
		},
		{
			name: "hop spends an account it was not credited",
			hops: func(w *hosttest.World, stash solana.PublicKey) [2][2]solana.PublicKey {
				return [2][2]solana.PublicKey{{vaultA(w), vaultB(w)}, {stash, vaultB(w)}}
			},
		},
		{
			name: "intermediate output leaves the vaults",
			hops: func(w *hosttest.World, _ solana.PublicKey) [2][2]solana.PublicKey {
				return [2][2]solana.PublicKey{{vaultA(w), w.UserB}, {w.UserB, vaultB(w)}}
			},
		},
	}

	for _, shared := range []bool{false, true} {
		for _, tt := range tests {
			name := tt.name
			if shared {
				name = "shared/" + name
			}
			t.Run(name, func(t *testing.T) {
				w := hosttest.New(t)
				r := newRouter(t, w)
				stash := w.NewAccount(w.MintA, address.AuthorityAddress(), 50_000_000)

				hops := tt.hops(w, stash)
				first := w.Raydium.SwapWindow(hops[0][0], hops[0][1], address.AuthorityAddress())
				second := w.Raydium.SwapWindow(hops[1][0], hops[1][1], address.AuthorityAddress())
				n := uint8(len(first))
				req := &types.SwapRequest{
					Plan: types.RoutePlan{
						{SwapType: types.SwapTypeRaydium, Percent: 100, InputIndex: 0, OutputIndex: n},
						{SwapType: types.SwapTypeRaydium, Percent: 100, InputIndex: n, OutputIndex: 2 * n},
					},
					Accounts:        append(first, second...),
					InAmount:        10_000_000,
					QuotedOutAmount: 1,
					SlippageBps:     0,
				}

				err := w.Exec(w.User, func(rc *runtime.Context) error {
					swap := r.Route
					if shared {
						swap = r.SharedRoute
					}
					_, err := swap(rc, w.User, w.UserA, w.UserB, req)
					return err
				})
				assert.ErrorIs(t, err, errs.ErrVaultMismatch)
				assert.Equal(t, uint64(50_000_000), w.Balance(stash))
				assert.Equal(t, hosttest.UserFunds, w.Balance(w.UserA))
				assert.Equal(t, hosttest.UserFunds, w.Balance(w.UserB))
			})
		}
	}
}

func TestRouteRejectsSameMint(t *testing.T) {
	w := hosttest.New(t)
	r := newRouter(t, w)
	req := w.SingleHop(types.SwapTypeRaydium, w.RaydiumWindow(w.MintA, w.MintA), 1_000_000, 1, 0, 0)

	for _, swap := range []func(*runtime.Context, solana.PublicKey, solana.PublicKey, solana.PublicKey, *types.SwapRequest) (*Result, error){r.Route, r.SharedRoute} {
		err := w.Exec(w.User, func(rc *runtime.Context) error {
			_, err := swap(rc, w.User, w.UserA, w.UserA, req)
			return err
		})
		assert.ErrorIs(t, err, errs.ErrMintMismatch)
	}
	assert.Equal(t, hosttest.UserFunds, w.Balance(w.UserA))
}

func TestRouteRejectsForeignProgram(t *testing.T) {
	w := hosttest.New(t)
	r := newRouter(t, w)

	req := w.SwapAToB(1_000_000, 800_000, 100, 0)
	req.Accounts[raydium.Schema.ProgramIndex] = solana.Meta(solana.NewWallet().PublicKey())
	_, err := route(w, r, req)
	assert.ErrorIs(t, err, errs.ErrInvalidProgram)
}

func TestRouteRegistryGates(t *testing.T) {
	t.Run("adapter disabled", func(t *testing.T) {
		w := hosttest.New(t)
		require.NoError(t, w.Exec(w.Operator, func(rc *runtime.Context) error {
			return registry.DisableAdapter(rc, w.Operator, types.SwapTypeRaydium)
		}))
		_, err := route(w, newRouter(t, w), w.SwapAToB(1_000_000, 800_000, 100, 0))
		assert.ErrorIs(t, err, errs.ErrAdapterDisabled)
	})

	t.Run("pool disabled", func(t *testing.T) {
		w := hosttest.New(t)
		require.NoError(t, w.Exec(w.Operator, func(rc *runtime.Context) error {
			return registry.DisablePool(rc, w.Operator, address.PoolInfoAddress(types.SwapTypeRaydium, w.Raydium.Amm))
		}))
		_, err := route(w, newRouter(t, w), w.SwapAToB(1_000_000, 800_000, 100, 0))
		assert.ErrorIs(t, err, errs.ErrPoolDisabled)
	})

	t.Run("pool not registered", func(t *testing.T) {
		w := hosttest.New(t)
		pool, err := w.Host.CreateRaydiumPool(w.Ctx, w.Admin, w.MintA, w.MintB, 1_000_000_000, 1_000_000_000)
		require.NoError(t, err)
		window := pool.SwapWindow(address.VaultAddress(w.MintA), address.VaultAddress(w.MintB), address.AuthorityAddress())
		_, err = route(w, newRouter(t, w), w.SingleHop(types.SwapTypeRaydium, window, 1_000, 500, 100, 0))
		assert.ErrorIs(t, err, errs.ErrPoolNotRegistered)
	})
}

func TestRouteRequiresUserSignature(t *testing.T) {
	w := hosttest.New(t)
	r := newRouter(t, w)

	err := w.Exec(w.Operator, func(rc *runtime.Context) error {
		_, err := r.Route(rc, w.User, w.UserA, w.UserB, w.SwapAToB(1_000_000, 800_000, 100, 0))
		return err
	})
	assert.ErrorIs(t, err, errs.ErrMissingSignature)
}

func TestValidateRequest(t *testing.T) {
	window := make([]*solana.AccountMeta, 10)
	valid := func() *types.SwapRequest {
		return &types.SwapRequest{
			Plan:            types.RoutePlan{{SwapType: types.SwapTypeRaydium, Percent: 100, InputIndex: 0, OutputIndex: 10}},
			Accounts:        window,
			InAmount:        1_000,
			QuotedOutAmount: 900,
			SlippageBps:     50,
		}
	}

	tests := []struct {
		name   string
		mutate func(req *types.SwapRequest)
		want   error
	}{
		{"valid", func(*types.SwapRequest) {}, nil},
		{"zero input", func(req *types.SwapRequest) { req.InAmount = 0 }, errs.ErrZeroAmount},
		{"zero quote", func(req *types.SwapRequest) { req.QuotedOutAmount = 0 }, errs.ErrZeroAmount},
		{"slippage", func(req *types.SwapRequest) { req.SlippageBps = 10_001 }, errs.ErrInvalidSlippage},
		{"fee", func(req *types.SwapRequest) { req.PlatformFeeBps = 10_001 }, errs.ErrInvalidPlatformFee},
		{"empty plan", func(req *types.SwapRequest) { req.Plan = nil }, errs.ErrEmptyRoute},
		{"split", func(req *types.SwapRequest) { req.Plan[0].Percent = 50 }, errs.ErrUnsupportedSplit},
		{"empty window", func(req *types.SwapRequest) { req.Plan[0].OutputIndex = 0 }, errs.ErrInvalidHopWindow},
		{"window past accounts", func(req *types.SwapRequest) { req.Plan[0].OutputIndex = 11 }, errs.ErrInvalidHopWindow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(req)
			err := ValidateRequest(req)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSharedRouteMatchesRoute(t *testing.T) {
	direct := hosttest.New(t)
	want, err := route(direct, newRouter(t, direct), direct.SwapAToB(50_000_000, 44_000_000, 100, 25))
	require.NoError(t, err)

	w := hosttest.New(t)
	r := newRouter(t, w)
	var res *Result
	require.NoError(t, w.Exec(w.User, func(rc *runtime.Context) error {
		res, err = r.SharedRoute(rc, w.User, w.UserA, w.UserB, w.SwapAToB(50_000_000, 44_000_000, 100, 25))
		return err
	}))

	assert.Equal(t, want.Realized, res.Realized)
	assert.Equal(t, want.Fee, res.Fee)
	assert.Equal(t, hosttest.UserFunds+res.Net, w.Balance(w.UserB))
	assert.Equal(t, hosttest.UserFunds-50_000_000, w.Balance(w.UserA))
	assert.Equal(t, res.Fee, w.Balance(address.FeeVaultAddress(w.MintB)))
	assert.Zero(t, w.Balance(address.VaultAddress(w.MintB)))
}

func TestSharedRouteRequiresAggregator(t *testing.T) {
	w := hosttest.New(t)
	r := newRouter(t, w)
	require.NoError(t, w.Exec(w.Admin, func(rc *runtime.Context) error {
		return vault.SetAggregatorProgram(rc, w.Admin, solana.PublicKey{})
	}))

	err := w.Exec(w.User, func(rc *runtime.Context) error {
		_, err := r.SharedRoute(rc, w.User, w.UserA, w.UserB, w.SwapAToB(1_000_000, 800_000, 100, 0))
		return err
	})
	assert.ErrorIs(t, err, errs.ErrAggregatorNotSet)
}

func TestSharedRouteSlippage(t *testing.T) {
	w := hosttest.New(t)
	r := newRouter(t, w)
	expected := w.QuoteRaydium(w.MintA, w.MintB, 1_000_000)

	err := w.Exec(w.User, func(rc *runtime.Context) error {
		_, err := r.SharedRoute(rc, w.User, w.UserA, w.UserB, w.SwapAToB(1_000_000, expected*2, 0, 0))
		return err
	})
	assert.ErrorIs(t, err, errs.ErrSlippageToleranceExceeded)
	assert.Equal(t, hosttest.UserFunds, w.Balance(w.UserA))
}
