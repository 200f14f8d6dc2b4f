// internal/types/slippage.go
package types

import (
	"github.com/holiman/uint256"

	"github.com/rovshanmuradov/swap-router/internal/errs"
)

const (
	// BpsDenominator равен 100% в базисных пунктах.
	BpsDenominator = 10_000
	// MaxTriggerBps is the widest trigger threshold an order may request.
	MaxTriggerBps = 100_000
)

// MulDiv returns a*b/c, failing when c is zero or the result exceeds uint64.
func MulDiv(a, b, c uint64) (uint64, error) {
	if c == 0 {
		return 0, errs.ErrArithmeticOverflow
	}
	x := uint256.NewInt(a)
	x.Mul(x, uint256.NewInt(b))
	x.Div(x, uint256.NewInt(c))
	if !x.IsUint64() {
		return 0, errs.ErrArithmeticOverflow
	}
	return x.Uint64(), nil
}

// MinAmountOut вычисляет минимально допустимый выход:
// quoted × (10000 − slippageBps) / 10000.
func MinAmountOut(quoted uint64, slippageBps uint16) (uint64, error) {
	if slippageBps > BpsDenominator {
		return 0, errs.ErrInvalidSlippage
	}
	return MulDiv(quoted, uint64(BpsDenominator-slippageBps), BpsDenominator)
}

// PlatformFee returns realized × feeBps / 10000.
func PlatformFee(realized uint64, feeBps uint16) (uint64, error) {
	if feeBps > BpsDenominator {
		return 0, errs.ErrInvalidPlatformFee
	}
	return MulDiv(realized, uint64(feeBps), BpsDenominator)
}

// PriceRatio returns quoted × 10000 / minOutput.
func PriceRatio(quoted, minOutput uint64) (uint64, error) {
	if minOutput == 0 {
		return 0, errs.ErrZeroAmount
	}
	return MulDiv(quoted, BpsDenominator, minOutput)
}

// TriggerHolds reports whether ratio crosses the order's threshold.
// StopLoss threshold saturates at zero.
func TriggerHolds(kind TriggerKind, ratio uint64, thresholdBps uint32) (bool, error) {
	switch kind {
	case TakeProfit:
		return ratio >= BpsDenominator+uint64(thresholdBps), nil
	case StopLoss:
		var limit uint64
		if uint64(thresholdBps) < BpsDenominator {
			limit = BpsDenominator - uint64(thresholdBps)
		}
		return ratio <= limit, nil
	default:
		return false, errs.ErrInvalidTriggerKind
	}
}

// PercentOf returns amount × percent / 100.
func PercentOf(amount uint64, percent uint8) (uint64, error) {
	return MulDiv(amount, uint64(percent), 100)
}
