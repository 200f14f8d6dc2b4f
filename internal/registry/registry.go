// internal/registry/registry.go
package registry

import (
	"errors"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/swap-router/internal/address"
	"github.com/rovshanmuradov/swap-router/internal/errs"
	"github.com/rovshanmuradov/swap-router/internal/runtime"
	"github.com/rovshanmuradov/swap-router/internal/store"
	"github.com/rovshanmuradov/swap-router/internal/types"
)

const (
	// MaxOperators is the capacity of the operator set.
	MaxOperators = 10
	// CurrentVersion is the schema version written by this code.
	CurrentVersion uint8 = 1
)

var (
	registryDisc = store.Discriminator("AdapterRegistry")
	poolInfoDisc = store.Discriminator("PoolInfo")
)

// AdapterInfo maps a swap type onto the venue program trusted to execute it.
type AdapterInfo struct {
	SwapType  types.SwapType
	ProgramID solana.PublicKey
	Enabled   bool
}

// AdapterRegistry is the singleton directory of venues and operators.
type AdapterRegistry struct {
	Version   uint8
	Authority solana.PublicKey
	Operators []solana.PublicKey
	Adapters  []AdapterInfo
}

// PoolInfo pins one external pool to one swap type.
type PoolInfo struct {
	SwapType types.SwapType
	Pool     solana.PublicKey
	Enabled  bool
}

// IsOperator reports whether key is in the operator set.
func (r *AdapterRegistry) IsOperator(key solana.PublicKey) bool {
	for _, op := range r.Operators {
		if op.Equals(key) {
			return true
		}
	}
	return false
}

func (r *AdapterRegistry) find(swapType types.SwapType) int {
	for i, a := range r.Adapters {
		if a.SwapType == swapType {
			return i
		}
	}
	return -1
}

// ResolveAdapter returns the enabled entry for swapType.
func (r *AdapterRegistry) ResolveAdapter(swapType types.SwapType) (AdapterInfo, error) {
	i := r.find(swapType)
	if i < 0 {
		return AdapterInfo{}, errs.Wrap(errs.ErrAdapterNotConfigured, "swap type %s", swapType)
	}
	if !r.Adapters[i].Enabled {
		return AdapterInfo{}, errs.Wrap(errs.ErrAdapterDisabled, "swap type %s", swapType)
	}
	return r.Adapters[i], nil
}

// Load reads the registry singleton.
func Load(rc *runtime.Context) (*AdapterRegistry, error) {
	var r AdapterRegistry
	if err := store.Load(rc, rc.Tx, address.RegistryAddress(), address.ProgramID, registryDisc, &r); err != nil {
		return nil, errs.Wrap(err, "adapter registry")
	}
	return &r, nil
}

func save(rc *runtime.Context, r *AdapterRegistry) error {
	return store.Save(rc, rc.Tx, address.RegistryAddress(), registryDisc, r)
}

// LoadPoolInfo reads the PoolInfo stored at addr.
func LoadPoolInfo(rc *runtime.Context, addr solana.PublicKey) (*PoolInfo, error) {
	var p PoolInfo
	if err := store.Load(rc, rc.Tx, addr, address.ProgramID, poolInfoDisc, &p); err != nil {
		return nil, errs.Wrap(err, "pool info %s", addr)
	}
	return &p, nil
}

// CheckPool requires (swapType, pool) to be registered and enabled.
func CheckPool(rc *runtime.Context, swapType types.SwapType, pool solana.PublicKey) error {
	p, err := LoadPoolInfo(rc, address.PoolInfoAddress(swapType, pool))
	if err != nil {
		if errors.Is(err, errs.ErrAccountNotFound) {
			return errs.Wrap(errs.ErrPoolNotRegistered, "%s pool %s", swapType, pool)
		}
		return err
	}
	if !p.Enabled {
		return errs.Wrap(errs.ErrPoolDisabled, "%s pool %s", swapType, pool)
	}
	return nil
}

// loadAsOperator loads the registry and requires operator to be a signing operator.
func loadAsOperator(rc *runtime.Context, operator solana.PublicKey) (*AdapterRegistry, error) {
	if err := rc.RequireSigner(operator); err != nil {
		return nil, err
	}
	r, err := Load(rc)
	if err != nil {
		return nil, err
	}
	if !r.IsOperator(operator) {
		return nil, errs.Wrap(errs.ErrNotOperator, "%s", operator)
	}
	return r, nil
}

// loadAsAuthority loads the registry and requires authority to sign and match.
func loadAsAuthority(rc *runtime.Context, authority solana.PublicKey) (*AdapterRegistry, error) {
	if err := rc.RequireSigner(authority); err != nil {
		return nil, err
	}
	r, err := Load(rc)
	if err != nil {
		return nil, err
	}
	if !r.Authority.Equals(authority) {
		return nil, errs.Wrap(errs.ErrUnauthorized, "registry authority")
	}
	return r, nil
}

// RequireOperator fails unless operator signed and is in the operator set.
func RequireOperator(rc *runtime.Context, operator solana.PublicKey) error {
	_, err := loadAsOperator(rc, operator)
	return err
}
