// internal/engine/custody.go
package engine

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/swap-router/internal/address"
	"github.com/rovshanmuradov/swap-router/internal/runtime"
	"github.com/rovshanmuradov/swap-router/internal/vault"
)

// DeriveVaultAddress returns the custody account of mint.
func DeriveVaultAddress(mint solana.PublicKey) solana.PublicKey {
	return address.VaultAddress(mint)
}

// DeriveFeeVaultAddress returns the platform fee account of mint.
func DeriveFeeVaultAddress(mint solana.PublicKey) solana.PublicKey {
	return address.FeeVaultAddress(mint)
}

// DeriveAuthorityAddress returns the vault authority address.
func DeriveAuthorityAddress() solana.PublicKey {
	return address.AuthorityAddress()
}

func (e *Engine) CreateVaultAuthority(ctx context.Context, admin, aggregatorProgram solana.PublicKey) error {
	return e.run(ctx, "create_vault_authority", []solana.PublicKey{admin}, func(rc *runtime.Context) error {
		return vault.CreateAuthority(rc, admin, admin, aggregatorProgram)
	})
}

// ChangeVaultAuthorityAdmin is signed by the global manager.
func (e *Engine) ChangeVaultAuthorityAdmin(ctx context.Context, signer, newAdmin solana.PublicKey) error {
	return e.run(ctx, "change_vault_authority_admin", []solana.PublicKey{signer}, func(rc *runtime.Context) error {
		return vault.ChangeAdmin(rc, signer, e.globalManager, newAdmin)
	})
}

func (e *Engine) SetAggregatorProgram(ctx context.Context, admin, programID solana.PublicKey) error {
	return e.run(ctx, "set_aggregator_program", []solana.PublicKey{admin}, func(rc *runtime.Context) error {
		return vault.SetAggregatorProgram(rc, admin, programID)
	})
}

func (e *Engine) MigrateVaultAuthority(ctx context.Context, admin solana.PublicKey) error {
	return e.run(ctx, "migrate_vault_authority", []solana.PublicKey{admin}, func(rc *runtime.Context) error {
		return vault.MigrateAuthority(rc, admin)
	})
}

func (e *Engine) CreateVault(ctx context.Context, signer, mint solana.PublicKey) (solana.PublicKey, error) {
	return e.CreateVaultWithExtensions(ctx, signer, mint, 0)
}

func (e *Engine) CreateVaultWithExtensions(ctx context.Context, signer, mint solana.PublicKey, extraSpace int) (solana.PublicKey, error) {
	var addr solana.PublicKey
	err := e.run(ctx, "create_vault", []solana.PublicKey{signer}, func(rc *runtime.Context) error {
		var err error
		addr, err = vault.CreateVaultWithExtensions(rc, signer, mint, extraSpace)
		return err
	})
	return addr, err
}

func (e *Engine) InitializeVaults(ctx context.Context, signer solana.PublicKey, mints ...solana.PublicKey) ([]solana.PublicKey, error) {
	var created []solana.PublicKey
	err := e.run(ctx, "initialize_vaults", []solana.PublicKey{signer}, func(rc *runtime.Context) error {
		var err error
		created, err = vault.InitializeVaults(rc, signer, mints)
		return err
	})
	return created, err
}

func (e *Engine) CloseVault(ctx context.Context, admin, mint solana.PublicKey) error {
	return e.run(ctx, "close_vault", []solana.PublicKey{admin}, func(rc *runtime.Context) error {
		return vault.CloseVault(rc, admin, mint)
	})
}

func (e *Engine) WithdrawPlatformFees(ctx context.Context, admin, mint, destination solana.PublicKey, amount uint64) error {
	return e.run(ctx, "withdraw_platform_fees", []solana.PublicKey{admin}, func(rc *runtime.Context) error {
		return vault.WithdrawPlatformFees(rc, admin, mint, destination, amount)
	})
}
