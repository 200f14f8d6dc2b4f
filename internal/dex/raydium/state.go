// internal/dex/raydium/state.go
package raydium

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/swap-router/internal/errs"
)

// AmmInfoSize is the size of the pool state account.
const AmmInfoSize = 6*8 + 5*32

// AmmInfo описывает состояние constant-product пула.
type AmmInfo struct {
	Status              uint64
	Nonce               uint64
	CoinDecimals        uint64
	PcDecimals          uint64
	TradeFeeNumerator   uint64
	TradeFeeDenominator uint64
	CoinVault           solana.PublicKey
	PcVault             solana.PublicKey
	CoinMint            solana.PublicKey
	PcMint              solana.PublicKey
	OpenOrders          solana.PublicKey
}

// Encode serializes the pool state in its fixed layout.
func (a *AmmInfo) Encode() []byte {
	data := make([]byte, AmmInfoSize)
	offset := 0
	for _, v := range []uint64{a.Status, a.Nonce, a.CoinDecimals, a.PcDecimals, a.TradeFeeNumerator, a.TradeFeeDenominator} {
		binary.LittleEndian.PutUint64(data[offset:offset+8], v)
		offset += 8
	}
	for _, k := range []solana.PublicKey{a.CoinVault, a.PcVault, a.CoinMint, a.PcMint, a.OpenOrders} {
		copy(data[offset:offset+32], k[:])
		offset += 32
	}
	return data
}

// DecodeAmmInfo декодирует бинарные данные в структуру состояния.
func DecodeAmmInfo(data []byte) (*AmmInfo, error) {
	if len(data) < AmmInfoSize {
		return nil, errs.Wrap(errs.ErrInvalidAccountData, "amm info: got %d bytes, need %d", len(data), AmmInfoSize)
	}

	offset := 0
	readUint64 := func() uint64 {
		v := binary.LittleEndian.Uint64(data[offset : offset+8])
		offset += 8
		return v
	}
	readPubKey := func() solana.PublicKey {
		var key solana.PublicKey
		copy(key[:], data[offset:offset+32])
		offset += 32
		return key
	}

	info := &AmmInfo{}
	info.Status = readUint64()
	info.Nonce = readUint64()
	info.CoinDecimals = readUint64()
	info.PcDecimals = readUint64()
	info.TradeFeeNumerator = readUint64()
	info.TradeFeeDenominator = readUint64()
	info.CoinVault = readPubKey()
	info.PcVault = readPubKey()
	info.CoinMint = readPubKey()
	info.PcMint = readPubKey()
	info.OpenOrders = readPubKey()

	if info.TradeFeeDenominator == 0 {
		return nil, errs.Wrap(errs.ErrInvalidAccountData, "amm info: zero trade fee denominator")
	}
	return info, nil
}

// FeeBps returns the trade fee in basis points.
func (a *AmmInfo) FeeBps() uint64 {
	return a.TradeFeeNumerator * 10_000 / a.TradeFeeDenominator
}

// IsActive reports whether the pool accepts swaps.
func (a *AmmInfo) IsActive() bool {
	return a.Status == PoolStatusActive
}
