// internal/dex/pumpswap/config.go
package pumpswap

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// PumpSwapProgramID is the PumpSwap AMM program.
var PumpSwapProgramID = solana.MustPublicKeyFromBase58("pAMMBay6oceH9fJKBRHGP5D4bD4sWpmSwMn52FMfXEA")

// PDA seeds
const (
	GlobalConfigSeed   = "global_config"
	PoolSeed           = "pool"
	PoolBaseVaultSeed  = "pool_base_token_account"
	PoolQuoteVaultSeed = "pool_quote_token_account"
)

// DeriveGlobalConfigAddress вычисляет PDA для глобального аккаунта конфигурации.
func DeriveGlobalConfigAddress(programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(GlobalConfigSeed)}, programID)
}

func poolSeeds(index uint16, creator, baseMint, quoteMint solana.PublicKey) [][]byte {
	idx := make([]byte, 2)
	binary.LittleEndian.PutUint16(idx, index)
	return [][]byte{[]byte(PoolSeed), idx, creator[:], baseMint[:], quoteMint[:]}
}

// DerivePoolAddress вычисляет PDA пула для пары минтов.
func DerivePoolAddress(programID solana.PublicKey, index uint16, creator, baseMint, quoteMint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(poolSeeds(index, creator, baseMint, quoteMint), programID)
}

// PoolKeys lists every account of one pool.
type PoolKeys struct {
	ProgramID      solana.PublicKey
	Pool           solana.PublicKey
	GlobalConfig   solana.PublicKey
	BaseMint       solana.PublicKey
	QuoteMint      solana.PublicKey
	PoolBase       solana.PublicKey
	PoolQuote      solana.PublicKey
	ProtocolFeeATA solana.PublicKey
	TokenProgram   solana.PublicKey
	Creator        solana.PublicKey
	Index          uint16
	Bump           uint8
}

// DerivePoolKeys computes the pool and vault addresses of (index, creator, base, quote).
func DerivePoolKeys(programID solana.PublicKey, index uint16, creator, baseMint, quoteMint, tokenProgram, protocolFeeATA solana.PublicKey) (*PoolKeys, error) {
	global, _, err := DeriveGlobalConfigAddress(programID)
	if err != nil {
		return nil, fmt.Errorf("failed to derive global config address: %w", err)
	}
	pool, bump, err := DerivePoolAddress(programID, index, creator, baseMint, quoteMint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive pool address: %w", err)
	}
	base, _, err := solana.FindProgramAddress([][]byte{[]byte(PoolBaseVaultSeed), pool[:]}, programID)
	if err != nil {
		return nil, fmt.Errorf("failed to derive pool base vault: %w", err)
	}
	quote, _, err := solana.FindProgramAddress([][]byte{[]byte(PoolQuoteVaultSeed), pool[:]}, programID)
	if err != nil {
		return nil, fmt.Errorf("failed to derive pool quote vault: %w", err)
	}
	return &PoolKeys{
		ProgramID:      programID,
		Pool:           pool,
		GlobalConfig:   global,
		BaseMint:       baseMint,
		QuoteMint:      quoteMint,
		PoolBase:       base,
		PoolQuote:      quote,
		ProtocolFeeATA: protocolFeeATA,
		TokenProgram:   tokenProgram,
		Creator:        creator,
		Index:          index,
		Bump:           bump,
	}, nil
}

// SwapWindow builds the hop account window. userBase and userQuote are the
// caller's token accounts of the two mints, owner signs for them.
func (k *PoolKeys) SwapWindow(owner, userBase, userQuote solana.PublicKey) []*solana.AccountMeta {
	return []*solana.AccountMeta{
		solana.Meta(k.ProgramID),
		solana.Meta(k.Pool).WRITE(),
		solana.Meta(owner),
		solana.Meta(k.GlobalConfig),
		solana.Meta(k.BaseMint),
		solana.Meta(k.QuoteMint),
		solana.Meta(userBase).WRITE(),
		solana.Meta(userQuote).WRITE(),
		solana.Meta(k.PoolBase).WRITE(),
		solana.Meta(k.PoolQuote).WRITE(),
		solana.Meta(k.ProtocolFeeATA).WRITE(),
		solana.Meta(k.TokenProgram),
	}
}
