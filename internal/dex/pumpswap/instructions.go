// internal/dex/pumpswap/instructions.go
package pumpswap

import (
	"crypto/sha256"
	"encoding/binary"
)

// Instruction discriminators
var (
	sellDiscriminator            = []byte{51, 230, 133, 164, 1, 127, 131, 173}
	buyExactQuoteInDiscriminator = anchorDiscriminator("buy_exact_quote_in")
)

const instructionDataSize = 8 + 8 + 8

func anchorDiscriminator(name string) []byte {
	h := sha256.Sum256([]byte("global:" + name))
	return h[:8]
}

// encodeSwap builds [discriminator | amount1 u64 | amount2 u64].
// For sell: amount1 = baseAmountIn, amount2 = minQuoteAmountOut.
// For buy_exact_quote_in: amount1 = spendableQuoteIn, amount2 = minBaseAmountOut.
func encodeSwap(discriminator []byte, amount1, amount2 uint64) []byte {
	data := make([]byte, instructionDataSize)
	copy(data[0:8], discriminator)
	binary.LittleEndian.PutUint64(data[8:16], amount1)
	binary.LittleEndian.PutUint64(data[16:24], amount2)
	return data
}

// EncodeSell builds sell instruction data.
func EncodeSell(baseAmountIn, minQuoteAmountOut uint64) []byte {
	return encodeSwap(sellDiscriminator, baseAmountIn, minQuoteAmountOut)
}

// EncodeBuyExactQuoteIn builds buy_exact_quote_in instruction data.
func EncodeBuyExactQuoteIn(spendableQuoteIn, minBaseAmountOut uint64) []byte {
	return encodeSwap(buyExactQuoteInDiscriminator, spendableQuoteIn, minBaseAmountOut)
}
