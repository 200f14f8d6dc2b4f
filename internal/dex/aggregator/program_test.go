package aggregator_test

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/swap-router/internal/dex"
	"github.com/rovshanmuradov/swap-router/internal/dex/aggregator"
	"github.com/rovshanmuradov/swap-router/internal/errs"
	"github.com/rovshanmuradov/swap-router/internal/host/hosttest"
	"github.com/rovshanmuradov/swap-router/internal/runtime"
	"github.com/rovshanmuradov/swap-router/internal/token"
	"github.com/rovshanmuradov/swap-router/internal/types"
)

type call struct {
	signer      solana.PublicKey
	source      solana.PublicKey
	destination solana.PublicKey
	args        aggregator.RouteArgs
}

// userRoute sells amount of A held by the user directly through the default pool.
func userRoute(w *hosttest.World, amount, quoted uint64) *call {
	return &call{
		signer:      w.User,
		source:      w.UserA,
		destination: w.UserB,
		args: aggregator.RouteArgs{
			RoutePlan: []aggregator.RoutePlanStep{
				{Swap: types.SwapTypeRaydium, Percent: 100, InputIndex: 0, OutputIndex: 10},
			},
			InAmount:        amount,
			QuotedOutAmount: quoted,
		},
	}
}

func (c *call) run(w *hosttest.World) error {
	data, err := aggregator.EncodeRoute(&c.args)
	require.NoError(w.T, err)
	window := w.Raydium.SwapWindow(w.UserA, w.UserB, w.User)
	accounts := aggregator.RouteAccounts(token.LegacyProgramID, w.User, c.source, c.destination, window)
	return w.Exec(c.signer, func(rc *runtime.Context) error {
		return rc.Invoke(aggregator.ProgramID, accounts, data)
	})
}

func TestDecodeRoute(t *testing.T) {
	args := &aggregator.RouteArgs{
		RoutePlan: []aggregator.RoutePlanStep{
			{Swap: types.SwapTypeRaydium, Percent: 100, InputIndex: 0, OutputIndex: 10},
			{Swap: types.SwapTypePumpSwapSell, Percent: 100, InputIndex: 10, OutputIndex: 21},
		},
		InAmount:        5_000,
		QuotedOutAmount: 4_900,
		SlippageBps:     30,
		PlatformFeeBps:  5,
	}
	data, err := aggregator.EncodeRoute(args)
	require.NoError(t, err)

	decoded, err := aggregator.DecodeRoute(data)
	require.NoError(t, err)
	assert.Equal(t, args, decoded)

	_, err = aggregator.DecodeRoute(data[:7])
	assert.ErrorIs(t, err, errs.ErrInvalidInstructionData)

	data[0] ^= 0xff
	_, err = aggregator.DecodeRoute(data)
	assert.ErrorIs(t, err, errs.ErrInvalidInstructionData)
}

func TestStepsFromPlan(t *testing.T) {
	plan := types.RoutePlan{{SwapType: types.SwapTypePumpSwapBuy, Percent: 100, InputIndex: 3, OutputIndex: 15}}
	steps := aggregator.StepsFromPlan(plan)
	require.Len(t, steps, 1)
	assert.Equal(t, aggregator.RoutePlanStep{Swap: types.SwapTypePumpSwapBuy, Percent: 100, InputIndex: 3, OutputIndex: 15}, steps[0])
}

func TestRouteFromUserAccounts(t *testing.T) {
	w := hosttest.New(t)
	expected, err := dex.ConstantProductOut(hosttest.ReserveA, hosttest.ReserveB, 2_000_000, 25)
	require.NoError(t, err)

	require.NoError(t, userRoute(w, 2_000_000, expected).run(w))
	assert.Equal(t, hosttest.UserFunds-2_000_000, w.Balance(w.UserA))
	assert.Equal(t, hosttest.UserFunds+expected, w.Balance(w.UserB))
}

func TestRouteRejections(t *testing.T) {
	tests := []struct {
		name   string
		modify func(w *hosttest.World, c *call)
		want   error
	}{
		{
			name:   "partial split",
			modify: func(_ *hosttest.World, c *call) { c.args.RoutePlan[0].Percent = 50 },
			want:   errs.ErrUnsupportedSplit,
		},
		{
			name:   "window past accounts",
			modify: func(_ *hosttest.World, c *call) { c.args.RoutePlan[0].OutputIndex = 11 },
			want:   errs.ErrInvalidHopWindow,
		},
		{
			name:   "empty plan",
			modify: func(_ *hosttest.World, c *call) { c.args.RoutePlan = nil },
			want:   errs.ErrEmptyRoute,
		},
		{
			name:   "zero input",
			modify: func(_ *hosttest.World, c *call) { c.args.InAmount = 0 },
			want:   errs.ErrZeroAmount,
		},
		{
			name:   "authority did not sign",
			modify: func(w *hosttest.World, c *call) { c.signer = w.Operator },
			want:   errs.ErrMissingSignature,
		},
		{
			name:   "first step spends another account",
			modify: func(w *hosttest.World, c *call) { c.source = w.NewAccount(w.MintA, w.User, 0) },
			want:   errs.ErrAccountSchemaMismatch,
		},
		{
			name:   "last step credits another account",
			modify: func(w *hosttest.World, c *call) { c.destination = w.NewAccount(w.MintB, w.User, 0) },
			want:   errs.ErrAccountSchemaMismatch,
		},
		{
			name:   "output below quote",
			modify: func(_ *hosttest.World, c *call) { c.args.QuotedOutAmount = c.args.InAmount },
			want:   errs.ErrSlippageToleranceExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := hosttest.New(t)
			c := userRoute(w, 1_000_000, 1)
			tt.modify(w, c)

			err := c.run(w)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, hosttest.UserFunds, w.Balance(w.UserA))
			assert.Equal(t, hosttest.UserFunds, w.Balance(w.UserB))
		})
	}
}

func TestRouteStepsMustChain(t *testing.T) {
	w := hosttest.New(t)
	other := w.NewAccount(w.MintA, w.User, hosttest.UserFunds)

	first := w.Raydium.SwapWindow(w.UserA, w.UserB, w.User)
	second := w.Raydium.SwapWindow(other, w.UserB, w.User)
	n := uint8(len(first))
	data, err := aggregator.EncodeRoute(&aggregator.RouteArgs{
		RoutePlan: []aggregator.RoutePlanStep{
			{Swap: types.SwapTypeRaydium, Percent: 100, InputIndex: 0, OutputIndex: n},
			{Swap: types.SwapTypeRaydium, Percent: 100, InputIndex: n, OutputIndex: 2 * n},
		},
		InAmount:        1_000_000,
		QuotedOutAmount: 1,
	})
	require.NoError(t, err)

	accounts := aggregator.RouteAccounts(token.LegacyProgramID, w.User, w.UserA, w.UserB, append(first, second...))
	err = w.Exec(w.User, func(rc *runtime.Context) error {
		return rc.Invoke(aggregator.ProgramID, accounts, data)
	})
	assert.ErrorIs(t, err, errs.ErrAccountSchemaMismatch)
	assert.Equal(t, hosttest.UserFunds, w.Balance(other))
	assert.Equal(t, hosttest.UserFunds, w.Balance(w.UserA))
	assert.Equal(t, hosttest.UserFunds, w.Balance(w.UserB))
}
