package pumpswap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/swap-router/internal/errs"
)

func TestCalculateSell(t *testing.T) {
	cfg := &GlobalConfig{LPFeeBasisPoints: 20, ProtocolFeeBasisPoints: 5}

	// Валовый выход: 1_000_000 * 100_000 / (1_000_000 + 100_000) = 90_909
	amounts, err := calculateSell(1_000_000, 1_000_000, 100_000, cfg)
	require.NoError(t, err)
	assert.Equal(t, uint64(181), amounts.LPFee)
	assert.Equal(t, uint64(45), amounts.ProtocolFee)
	assert.Equal(t, uint64(90_909-181-45), amounts.AmountOut)
	assert.Equal(t, uint64(100_000), amounts.PoolIn)
}

func TestCalculateBuyExactQuoteIn(t *testing.T) {
	cfg := &GlobalConfig{LPFeeBasisPoints: 20, ProtocolFeeBasisPoints: 5}

	amounts, err := calculateBuyExactQuoteIn(1_000_000, 1_000_000, 100_000, cfg)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), amounts.LPFee)
	assert.Equal(t, uint64(50), amounts.ProtocolFee)
	// Пул получает вход без протокольной комиссии, LP-комиссия остаётся в пуле
	assert.Equal(t, uint64(99_950), amounts.PoolIn)
	// 1_000_000 * 99_750 / (1_000_000 + 99_750) = 90_702
	assert.Equal(t, uint64(90_702), amounts.AmountOut)
}

func TestCalculateRejectsEmptyPoolAndFees(t *testing.T) {
	_, err := calculateSell(0, 1_000, 10, &GlobalConfig{})
	assert.ErrorIs(t, err, errs.ErrEmptyPool)

	_, err = calculateBuyExactQuoteIn(1_000, 1_000, 10, &GlobalConfig{LPFeeBasisPoints: 9_000, ProtocolFeeBasisPoints: 1_000})
	assert.ErrorIs(t, err, errs.ErrVenueOutputTooLow)
}
