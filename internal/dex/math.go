// internal/dex/math.go
package dex

import (
	"github.com/holiman/uint256"

	"github.com/rovshanmuradov/swap-router/internal/errs"
	"github.com/rovshanmuradov/swap-router/internal/types"
)

// ConstantProductOut вычисляет выход пула x*y=k:
// out = y * a' / (x + a'), где a' = amountIn * (10000 - feeBps) / 10000.
func ConstantProductOut(reserveIn, reserveOut, amountIn, feeBps uint64) (uint64, error) {
	if reserveIn == 0 || reserveOut == 0 {
		return 0, errs.ErrEmptyPool
	}
	if feeBps > types.BpsDenominator {
		return 0, errs.ErrInvalidPlatformFee
	}
	a := uint256.NewInt(amountIn)
	a.Mul(a, uint256.NewInt(types.BpsDenominator-feeBps))
	a.Div(a, uint256.NewInt(types.BpsDenominator))

	num := new(uint256.Int).Mul(uint256.NewInt(reserveOut), a)
	den := new(uint256.Int).Add(uint256.NewInt(reserveIn), a)
	out := num.Div(num, den)
	if !out.IsUint64() {
		return 0, errs.ErrArithmeticOverflow
	}
	return out.Uint64(), nil
}
