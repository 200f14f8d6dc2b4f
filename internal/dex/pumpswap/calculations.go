// internal/dex/pumpswap/calculations.go
package pumpswap

import (
	"github.com/rovshanmuradov/swap-router/internal/dex"
	"github.com/rovshanmuradov/swap-router/internal/errs"
	"github.com/rovshanmuradov/swap-router/internal/types"
)

// SwapAmounts is the settlement of one pumpswap trade.
type SwapAmounts struct {
	AmountIn    uint64 // taken from the user
	AmountOut   uint64 // paid to the user
	PoolIn      uint64 // credited to the pool input vault
	ProtocolFee uint64 // paid to the protocol fee recipient, in quote
	LPFee       uint64 // retained by the pool, in quote
}

// calculateSell вычисляет продажу base за quote: комиссии удерживаются из
// валового выхода в quote.
func calculateSell(baseReserve, quoteReserve, baseIn uint64, cfg *GlobalConfig) (*SwapAmounts, error) {
	gross, err := dex.ConstantProductOut(baseReserve, quoteReserve, baseIn, 0)
	if err != nil {
		return nil, err
	}
	lpFee, err := types.MulDiv(gross, cfg.LPFeeBasisPoints, types.BpsDenominator)
	if err != nil {
		return nil, err
	}
	protocolFee, err := types.MulDiv(gross, cfg.ProtocolFeeBasisPoints, types.BpsDenominator)
	if err != nil {
		return nil, err
	}
	if lpFee+protocolFee > gross {
		return nil, errs.ErrVenueOutputTooLow
	}
	return &SwapAmounts{
		AmountIn:    baseIn,
		AmountOut:   gross - lpFee - protocolFee,
		PoolIn:      baseIn,
		ProtocolFee: protocolFee,
		LPFee:       lpFee,
	}, nil
}

// calculateBuyExactQuoteIn вычисляет покупку base на точную сумму quote:
// комиссии удерживаются из входа в quote.
func calculateBuyExactQuoteIn(baseReserve, quoteReserve, quoteIn uint64, cfg *GlobalConfig) (*SwapAmounts, error) {
	lpFee, err := types.MulDiv(quoteIn, cfg.LPFeeBasisPoints, types.BpsDenominator)
	if err != nil {
		return nil, err
	}
	protocolFee, err := types.MulDiv(quoteIn, cfg.ProtocolFeeBasisPoints, types.BpsDenominator)
	if err != nil {
		return nil, err
	}
	if lpFee+protocolFee >= quoteIn {
		return nil, errs.ErrVenueOutputTooLow
	}
	net := quoteIn - lpFee - protocolFee
	out, err := dex.ConstantProductOut(quoteReserve, baseReserve, net, 0)
	if err != nil {
		return nil, err
	}
	return &SwapAmounts{
		AmountIn:    quoteIn,
		AmountOut:   out,
		PoolIn:      quoteIn - protocolFee,
		ProtocolFee: protocolFee,
		LPFee:       lpFee,
	}, nil
}
