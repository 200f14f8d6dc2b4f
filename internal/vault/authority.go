// internal/vault/authority.go
package vault

import (
	"errors"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/swap-router/internal/address"
	"github.com/rovshanmuradov/swap-router/internal/errs"
	"github.com/rovshanmuradov/swap-router/internal/runtime"
	"github.com/rovshanmuradov/swap-router/internal/store"
)

// Версии схемы VaultAuthority.
const (
	AuthorityV1 uint8 = 1
	AuthorityV2 uint8 = 2

	CurrentAuthorityVersion = AuthorityV2
)

var authorityDisc = store.Discriminator("VaultAuthority")

// Authority is the custody anchor owning every vault.
type Authority struct {
	Version           uint8
	Admin             solana.PublicKey
	AggregatorProgram solana.PublicKey
}

// authorityV1 is the layout written before the aggregator program was tracked.
type authorityV1 struct {
	Version uint8
	Admin   solana.PublicKey
}

// migrateAuthority upgrades a stored layout to the current version.
func migrateAuthority(data []byte) (*Authority, error) {
	if !store.HasDiscriminator(data, authorityDisc) || len(data) < store.DiscriminatorSize+1 {
		return nil, errs.ErrInvalidAccountData
	}
	switch version := data[store.DiscriminatorSize]; version {
	case AuthorityV1:
		var v1 authorityV1
		if err := bin.UnmarshalBorsh(&v1, data[store.DiscriminatorSize:]); err != nil {
			return nil, errs.Wrap(errs.ErrInvalidAccountData, "authority v1: %v", err)
		}
		return &Authority{Version: CurrentAuthorityVersion, Admin: v1.Admin}, nil
	case AuthorityV2:
		var a Authority
		if err := store.Decode(data, authorityDisc, &a); err != nil {
			return nil, err
		}
		return &a, nil
	default:
		return nil, errs.Wrap(errs.ErrInvalidAuthorityVersion, "version %d", version)
	}
}

// LoadAuthority reads the authority singleton, migrating older layouts.
func LoadAuthority(rc *runtime.Context) (*Authority, error) {
	acc, err := rc.Tx.Get(rc, address.AuthorityAddress())
	if err != nil {
		if errors.Is(err, errs.ErrAccountNotFound) {
			return nil, errs.Wrap(errs.ErrNotInitialized, "vault authority")
		}
		return nil, err
	}
	if !acc.Owner.Equals(address.ProgramID) {
		return nil, errs.Wrap(errs.ErrInvalidAccountOwner, "vault authority")
	}
	return migrateAuthority(acc.Data)
}

func saveAuthority(rc *runtime.Context, a *Authority) error {
	a.Version = CurrentAuthorityVersion
	return store.Save(rc, rc.Tx, address.AuthorityAddress(), authorityDisc, a)
}

// CreateAuthority creates the singleton. payer signs and funds it.
func CreateAuthority(rc *runtime.Context, payer, admin, aggregatorProgram solana.PublicKey) error {
	if err := rc.RequireSigner(payer); err != nil {
		return err
	}
	data, err := store.Encode(authorityDisc, &Authority{
		Version:           CurrentAuthorityVersion,
		Admin:             admin,
		AggregatorProgram: aggregatorProgram,
	})
	if err != nil {
		return err
	}
	if err := store.CreateAccount(rc, rc.Tx, payer, address.AuthorityAddress(), address.ProgramID, data); err != nil {
		if errors.Is(err, errs.ErrAccountExists) {
			return errs.Wrap(errs.ErrAlreadyInitialized, "vault authority")
		}
		return err
	}
	rc.Logger().Info("Vault authority created", zap.Stringer("admin", admin))
	return nil
}

// ChangeAdmin replaces the admin. Only globalManager may do this, the admin
// itself cannot. With no global manager configured the admin is fixed.
func ChangeAdmin(rc *runtime.Context, signer, globalManager, newAdmin solana.PublicKey) error {
	if globalManager.IsZero() {
		return errs.Wrap(errs.ErrUnauthorized, "global manager not configured")
	}
	if err := rc.RequireSigner(signer); err != nil {
		return err
	}
	if !signer.Equals(globalManager) {
		return errs.Wrap(errs.ErrUnauthorized, "global manager required")
	}
	a, err := LoadAuthority(rc)
	if err != nil {
		return err
	}
	a.Admin = newAdmin
	return saveAuthority(rc, a)
}

// SetAggregatorProgram records the program used by the shared route family.
func SetAggregatorProgram(rc *runtime.Context, admin, programID solana.PublicKey) error {
	a, err := loadAsAdmin(rc, admin)
	if err != nil {
		return err
	}
	a.AggregatorProgram = programID
	return saveAuthority(rc, a)
}

// MigrateAuthority rewrites an older stored layout in the current version.
func MigrateAuthority(rc *runtime.Context, admin solana.PublicKey) error {
	a, err := loadAsAdmin(rc, admin)
	if err != nil {
		return err
	}
	return saveAuthority(rc, a)
}

func loadAsAdmin(rc *runtime.Context, admin solana.PublicKey) (*Authority, error) {
	if err := rc.RequireSigner(admin); err != nil {
		return nil, err
	}
	a, err := LoadAuthority(rc)
	if err != nil {
		return nil, err
	}
	if !a.Admin.Equals(admin) {
		return nil, errs.Wrap(errs.ErrUnauthorized, "vault admin")
	}
	return a, nil
}
