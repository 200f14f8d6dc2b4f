// internal/address/address.go
package address

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/swap-router/internal/types"
)

// ProgramID is the router program; every PDA is derived from it.
var ProgramID = solana.MustPublicKeyFromBase58("FXVnvuPeL2UkcMD5XCzZ2ACRgmRmT8kmDuNbmQSngFq4")

// Seed prefixes of every derived account.
var (
	SeedVaultAuthority  = []byte("vault_authority")
	SeedVault           = []byte("vault")
	SeedFeeVault        = []byte("fee_vault")
	SeedAdapterRegistry = []byte("adapter_registry")
	SeedPoolInfo        = []byte("pool_info")
	SeedLimitOrder      = []byte("limit_order")
	SeedOrderVault      = []byte("order_vault")
)

// find wraps FindProgramAddress. Seeds here are at most 32 bytes, so
// derivation cannot fail for any input.
func find(seeds ...[]byte) (solana.PublicKey, uint8) {
	addr, bump, err := solana.FindProgramAddress(seeds, ProgramID)
	if err != nil {
		panic(fmt.Sprintf("derive program address: %v", err))
	}
	return addr, bump
}

// AuthorityAddress returns the vault authority PDA.
func AuthorityAddress() solana.PublicKey {
	addr, _ := find(SeedVaultAuthority)
	return addr
}

// AuthoritySeeds returns the signer seeds (with bump) of the vault authority.
func AuthoritySeeds() [][]byte {
	_, bump := find(SeedVaultAuthority)
	return [][]byte{SeedVaultAuthority, {bump}}
}

// VaultAddress returns the custody account of mint.
func VaultAddress(mint solana.PublicKey) solana.PublicKey {
	addr, _ := find(SeedVault, mint[:])
	return addr
}

// FeeVaultAddress returns the platform fee account of mint.
func FeeVaultAddress(mint solana.PublicKey) solana.PublicKey {
	addr, _ := find(SeedFeeVault, mint[:])
	return addr
}

// RegistryAddress returns the adapter registry PDA.
func RegistryAddress() solana.PublicKey {
	addr, _ := find(SeedAdapterRegistry)
	return addr
}

// PoolInfoAddress returns the PoolInfo PDA for (swapType, pool).
func PoolInfoAddress(swapType types.SwapType, pool solana.PublicKey) solana.PublicKey {
	addr, _ := find(SeedPoolInfo, []byte{byte(swapType)}, pool[:])
	return addr
}

// LimitOrderAddress returns the order PDA for (creator, nonce).
func LimitOrderAddress(creator solana.PublicKey, nonce uint64) solana.PublicKey {
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], nonce)
	addr, _ := find(SeedLimitOrder, creator[:], n[:])
	return addr
}

// OrderVaultAddress returns the escrow token account of an order.
func OrderVaultAddress(order solana.PublicKey) solana.PublicKey {
	addr, _ := find(SeedOrderVault, order[:])
	return addr
}
