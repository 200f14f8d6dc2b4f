// internal/dex/raydium/constants.go
package raydium

import (
	"github.com/gagliardetto/solana-go"
)

// Program IDs
var (
	RaydiumV4ProgramID = solana.MPK("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")
)

// Instruction tags
const (
	InstructionSwapBaseIn uint8 = 9
	swapBaseInDataSize          = 1 + 8 + 8
)

// Fee constants, 25 bps by default
const (
	DefaultTradeFeeNumerator   uint64 = 25
	DefaultTradeFeeDenominator uint64 = 10_000
)

// Pool status
const (
	PoolStatusUninitialized uint64 = 0
	PoolStatusActive        uint64 = 1
	PoolStatusDisabled      uint64 = 2
)

// PDA seeds
const (
	AmmAuthoritySeed = "amm authority"
	CoinVaultSeed    = "coin_vault"
	PcVaultSeed      = "pc_vault"
	OpenOrdersSeed   = "open_orders"
)

// Account window positions of a swap_base_in hop.
const (
	idxProgram = iota
	idxAmm
	idxAmmAuthority
	idxOpenOrders
	idxCoinVault
	idxPcVault
	idxUserSource
	idxUserDestination
	idxUserOwner
	idxTokenProgram
)
