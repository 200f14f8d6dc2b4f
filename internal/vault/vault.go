// internal/vault/vault.go
package vault

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/swap-router/internal/address"
	"github.com/rovshanmuradov/swap-router/internal/errs"
	"github.com/rovshanmuradov/swap-router/internal/registry"
	"github.com/rovshanmuradov/swap-router/internal/runtime"
	"github.com/rovshanmuradov/swap-router/internal/token"
)

// authorizeCustodian accepts the vault admin or any registry operator.
func authorizeCustodian(rc *runtime.Context, signer solana.PublicKey) error {
	if err := rc.RequireSigner(signer); err != nil {
		return err
	}
	a, err := LoadAuthority(rc)
	if err != nil {
		return err
	}
	if a.Admin.Equals(signer) {
		return nil
	}
	r, err := registry.Load(rc)
	if err != nil && !errors.Is(err, errs.ErrAccountNotFound) {
		return err
	}
	if r != nil && r.IsOperator(signer) {
		return nil
	}
	return errs.Wrap(errs.ErrUnauthorized, "vault admin or operator required")
}

// CreateVault allocates the custody account of mint.
func CreateVault(rc *runtime.Context, signer, mint solana.PublicKey) (solana.PublicKey, error) {
	return CreateVaultWithExtensions(rc, signer, mint, 0)
}

// CreateVaultWithExtensions allocates a custody account with extraSpace bytes
// of extension data. Only extensible-program mints accept extensions.
func CreateVaultWithExtensions(rc *runtime.Context, signer, mint solana.PublicKey, extraSpace int) (solana.PublicKey, error) {
	if err := authorizeCustodian(rc, signer); err != nil {
		return solana.PublicKey{}, err
	}
	return createVault(rc, signer, mint, extraSpace)
}

// createVault allocates the custody account of mint and the fee account
// next to it. Both are owned by the authority.
func createVault(rc *runtime.Context, payer, mint solana.PublicKey, extraSpace int) (solana.PublicKey, error) {
	addr := address.VaultAddress(mint)
	fees := address.FeeVaultAddress(mint)
	for _, acc := range []solana.PublicKey{addr, fees} {
		if err := token.CreateAccount(rc, rc.Tx, payer, acc, mint, address.AuthorityAddress(), extraSpace); err != nil {
			if errors.Is(err, errs.ErrAccountExists) {
				return solana.PublicKey{}, errs.Wrap(errs.ErrAlreadyInitialized, "vault for %s", mint)
			}
			return solana.PublicKey{}, err
		}
	}
	rc.Logger().Debug("Vault created",
		zap.Stringer("mint", mint),
		zap.Stringer("vault", addr),
		zap.Stringer("fee_vault", fees))
	return addr, nil
}

// InitializeVaults creates vaults for every mint that has none yet and
// returns the mints it created vaults for.
func InitializeVaults(rc *runtime.Context, signer solana.PublicKey, mints []solana.PublicKey) ([]solana.PublicKey, error) {
	if err := authorizeCustodian(rc, signer); err != nil {
		return nil, err
	}
	var created []solana.PublicKey
	for _, mint := range mints {
		exists, err := token.Exists(rc, rc.Tx, address.VaultAddress(mint))
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}
		if _, err := createVault(rc, signer, mint, 0); err != nil {
			return nil, err
		}
		created = append(created, mint)
	}
	return created, nil
}

// CloseVault destroys the empty vault and fee vault of mint and returns
// their deposits to the admin.
func CloseVault(rc *runtime.Context, admin, mint solana.PublicKey) error {
	if _, err := loadAsAdmin(rc, admin); err != nil {
		return err
	}
	for _, addr := range []solana.PublicKey{address.VaultAddress(mint), address.FeeVaultAddress(mint)} {
		balance, err := token.Balance(rc, rc.Tx, addr)
		if err != nil {
			return errs.Wrap(err, "vault for %s", mint)
		}
		if balance != 0 {
			return errs.Wrap(errs.ErrVaultNotEmpty, "%s of %s holds %d", addr, mint, balance)
		}
		if err := token.Close(rc, addr, admin, address.AuthorityAddress(), address.AuthoritySeeds()); err != nil {
			return err
		}
	}
	return nil
}

// CollectFee moves amount of accrued platform fee from the vault of mint
// into its fee vault.
func CollectFee(rc *runtime.Context, mint solana.PublicKey, amount uint64) error {
	return token.Transfer(rc, address.VaultAddress(mint), address.FeeVaultAddress(mint), address.AuthorityAddress(), amount, address.AuthoritySeeds())
}

// WithdrawPlatformFees moves accrued fees out of the fee vault of mint. The
// amount is capped by what the fee vault holds; the swap vault is never touched.
func WithdrawPlatformFees(rc *runtime.Context, admin, mint, destination solana.PublicKey, amount uint64) error {
	if _, err := loadAsAdmin(rc, admin); err != nil {
		return err
	}
	if amount == 0 {
		return errs.ErrZeroAmount
	}
	fees := address.FeeVaultAddress(mint)
	accrued, err := token.Balance(rc, rc.Tx, fees)
	if err != nil {
		return errs.Wrap(err, "fee vault for %s", mint)
	}
	if amount > accrued {
		return errs.Wrap(errs.ErrInsufficientFunds, "withdraw %d, accrued %d", amount, accrued)
	}
	return token.Transfer(rc, fees, destination, address.AuthorityAddress(), amount, address.AuthoritySeeds())
}

// AccruedFees returns the platform fee held for mint.
func AccruedFees(rc *runtime.Context, mint solana.PublicKey) (uint64, error) {
	return token.Balance(rc, rc.Tx, address.FeeVaultAddress(mint))
}

// Release transfers amount out of the vault of mint, signed by the authority.
func Release(rc *runtime.Context, mint, destination solana.PublicKey, amount uint64) error {
	return token.Transfer(rc, address.VaultAddress(mint), destination, address.AuthorityAddress(), amount, address.AuthoritySeeds())
}

// Balance returns the amount held by the vault of mint.
func Balance(rc *runtime.Context, mint solana.PublicKey) (uint64, error) {
	return token.Balance(rc, rc.Tx, address.VaultAddress(mint))
}
