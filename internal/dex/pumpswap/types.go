// internal/dex/pumpswap/types.go
package pumpswap

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/swap-router/internal/errs"
)

// Account discriminators extracted from the IDL
var (
	// GlobalConfigDiscriminator is the discriminator for GlobalConfig accounts
	GlobalConfigDiscriminator = []byte{149, 8, 156, 202, 160, 252, 176, 217}

	// PoolDiscriminator is the discriminator for Pool accounts
	PoolDiscriminator = []byte{241, 154, 109, 4, 17, 177, 109, 188}
)

const (
	globalConfigSize = 8 + 32 + 8 + 8 + 1 + 32*8
	poolSize         = 8 + 1 + 2 + 32*6 + 8
)

// GlobalConfig represents the global configuration for PumpSwap
type GlobalConfig struct {
	Admin                  solana.PublicKey    // The admin public key
	LPFeeBasisPoints       uint64              // LP fee in basis points (0.01%)
	ProtocolFeeBasisPoints uint64              // Protocol fee in basis points (0.01%)
	DisableFlags           uint8               // Flags to disable certain functionality
	ProtocolFeeRecipients  [8]solana.PublicKey // Addresses of protocol fee recipients
}

// DisableFlags bits in GlobalConfig
const (
	DisableCreatePool = 1 << iota
	DisableDeposit
	DisableWithdraw
	DisableBuy
	DisableSell
)

// IsFeeRecipient reports whether owner is one of the protocol fee recipients.
func (c *GlobalConfig) IsFeeRecipient(owner solana.PublicKey) bool {
	for _, r := range c.ProtocolFeeRecipients {
		if !r.IsZero() && r.Equals(owner) {
			return true
		}
	}
	return false
}

// Encode serializes the config behind its discriminator.
func (c *GlobalConfig) Encode() []byte {
	data := make([]byte, globalConfigSize)
	copy(data[0:8], GlobalConfigDiscriminator)
	pos := 8
	copy(data[pos:pos+32], c.Admin[:])
	pos += 32
	binary.LittleEndian.PutUint64(data[pos:pos+8], c.LPFeeBasisPoints)
	pos += 8
	binary.LittleEndian.PutUint64(data[pos:pos+8], c.ProtocolFeeBasisPoints)
	pos += 8
	data[pos] = c.DisableFlags
	pos++
	for i := range c.ProtocolFeeRecipients {
		copy(data[pos:pos+32], c.ProtocolFeeRecipients[i][:])
		pos += 32
	}
	return data
}

// ParseGlobalConfig parses account data into GlobalConfig structure
func ParseGlobalConfig(data []byte) (*GlobalConfig, error) {
	if len(data) < globalConfigSize {
		return nil, errs.Wrap(errs.ErrInvalidAccountData, "global config: %d bytes", len(data))
	}
	for i := 0; i < 8; i++ {
		if data[i] != GlobalConfigDiscriminator[i] {
			return nil, errs.Wrap(errs.ErrInvalidAccountData, "global config discriminator")
		}
	}

	pos := 8
	config := &GlobalConfig{}
	config.Admin = solana.PublicKeyFromBytes(data[pos : pos+32])
	pos += 32
	config.LPFeeBasisPoints = binary.LittleEndian.Uint64(data[pos : pos+8])
	pos += 8
	config.ProtocolFeeBasisPoints = binary.LittleEndian.Uint64(data[pos : pos+8])
	pos += 8
	config.DisableFlags = data[pos]
	pos++
	for i := 0; i < 8; i++ {
		config.ProtocolFeeRecipients[i] = solana.PublicKeyFromBytes(data[pos : pos+32])
		pos += 32
	}
	return config, nil
}

// Pool represents a liquidity pool in PumpSwap
type Pool struct {
	PoolBump              uint8            // PDA bump
	Index                 uint16           // Pool index
	Creator               solana.PublicKey // Creator of the pool
	BaseMint              solana.PublicKey // Base token mint
	QuoteMint             solana.PublicKey // Quote token mint (usually SOL)
	LPMint                solana.PublicKey // LP token mint
	PoolBaseTokenAccount  solana.PublicKey // Pool's base token account
	PoolQuoteTokenAccount solana.PublicKey // Pool's quote token account
	LPSupply              uint64           // True circulating supply of LP tokens
}

// Encode serializes the pool behind its discriminator.
func (p *Pool) Encode() []byte {
	data := make([]byte, poolSize)
	copy(data[0:8], PoolDiscriminator)
	pos := 8
	data[pos] = p.PoolBump
	pos++
	binary.LittleEndian.PutUint16(data[pos:pos+2], p.Index)
	pos += 2
	for _, k := range []solana.PublicKey{p.Creator, p.BaseMint, p.QuoteMint, p.LPMint, p.PoolBaseTokenAccount, p.PoolQuoteTokenAccount} {
		copy(data[pos:pos+32], k[:])
		pos += 32
	}
	binary.LittleEndian.PutUint64(data[pos:pos+8], p.LPSupply)
	return data
}

// ParsePool parses account data into Pool structure
func ParsePool(data []byte) (*Pool, error) {
	if len(data) < poolSize {
		return nil, errs.Wrap(errs.ErrInvalidAccountData, "pool: %d bytes", len(data))
	}
	for i := 0; i < 8; i++ {
		if data[i] != PoolDiscriminator[i] {
			return nil, errs.Wrap(errs.ErrInvalidAccountData, "pool discriminator")
		}
	}

	pos := 8
	pool := &Pool{}
	pool.PoolBump = data[pos]
	pos++
	pool.Index = binary.LittleEndian.Uint16(data[pos : pos+2])
	pos += 2
	for _, dst := range []*solana.PublicKey{&pool.Creator, &pool.BaseMint, &pool.QuoteMint, &pool.LPMint, &pool.PoolBaseTokenAccount, &pool.PoolQuoteTokenAccount} {
		*dst = solana.PublicKeyFromBytes(data[pos : pos+32])
		pos += 32
	}
	pool.LPSupply = binary.LittleEndian.Uint64(data[pos : pos+8])
	return pool, nil
}

// signerSeeds returns the seeds the program signs with for the pool PDA.
func (p *Pool) signerSeeds() [][]byte {
	return append(poolSeeds(p.Index, p.Creator, p.BaseMint, p.QuoteMint), []byte{p.PoolBump})
}
