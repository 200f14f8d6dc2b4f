package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/swap-router/internal/errs"
)

func TestMinAmountOut(t *testing.T) {
	tests := []struct {
		name     string
		quoted   uint64
		slippage uint16
		want     uint64
		wantErr  error
	}{
		{"one percent", 90_000_000, 100, 89_100_000, nil},
		{"zero slippage", 1_000, 0, 1_000, nil},
		{"full slippage", 1_000, 10_000, 0, nil},
		{"out of range", 1_000, 10_001, 0, errs.ErrInvalidSlippage},
		{"no overflow on max", math.MaxUint64, 1, 18_444_899_399_302_180_659, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MinAmountOut(tt.quoted, tt.slippage)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPriceRatioAndTrigger(t *testing.T) {
	ratio, err := PriceRatio(27_000_000, 33_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(8181), ratio)

	ok, err := TriggerHolds(StopLoss, ratio, 500)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = TriggerHolds(TakeProfit, ratio, 500)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = TriggerHolds(TakeProfit, 11_000, 1_000)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = TriggerHolds(StopLoss, 0, 20_000)
	require.NoError(t, err)
	assert.True(t, ok, "stop loss threshold saturates at zero")

	_, err = TriggerHolds(TriggerKind(9), 1, 1)
	assert.ErrorIs(t, err, errs.ErrInvalidTriggerKind)

	_, err = PriceRatio(1, 0)
	assert.ErrorIs(t, err, errs.ErrZeroAmount)
}

func TestMulDivOverflow(t *testing.T) {
	_, err := MulDiv(math.MaxUint64, 2, 1)
	assert.ErrorIs(t, err, errs.ErrArithmeticOverflow)
	_, err = MulDiv(1, 1, 0)
	assert.ErrorIs(t, err, errs.ErrArithmeticOverflow)
}

func TestComputeUnits(t *testing.T) {
	units, err := ComputeUnits(PriorityHigh)
	require.NoError(t, err)
	assert.Equal(t, uint64(800_000), units)

	units, err = ComputeUnits("")
	require.NoError(t, err)
	assert.Equal(t, MaxComputeUnits, units)

	_, err = ComputeUnits("turbo")
	assert.Error(t, err)
}

func TestParseSwapType(t *testing.T) {
	st, err := ParseSwapType("pumpswap_sell")
	require.NoError(t, err)
	assert.Equal(t, SwapTypePumpSwapSell, st)
	_, err = ParseSwapType("orca")
	assert.Error(t, err)
}
