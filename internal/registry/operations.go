// internal/registry/operations.go
package registry

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/swap-router/internal/address"
	"github.com/rovshanmuradov/swap-router/internal/errs"
	"github.com/rovshanmuradov/swap-router/internal/runtime"
	"github.com/rovshanmuradov/swap-router/internal/store"
	"github.com/rovshanmuradov/swap-router/internal/types"
)

// Initialize creates the registry singleton. The signing authority pays for it.
func Initialize(rc *runtime.Context, authority solana.PublicKey, operators []solana.PublicKey, adapters []AdapterInfo) error {
	if err := rc.RequireSigner(authority); err != nil {
		return err
	}
	if len(operators) > MaxOperators {
		return errs.Wrap(errs.ErrOperatorSetFull, "%d operators", len(operators))
	}
	r := &AdapterRegistry{Version: CurrentVersion, Authority: authority}
	for _, op := range operators {
		if r.IsOperator(op) {
			return errs.Wrap(errs.ErrDuplicateOperator, "%s", op)
		}
		r.Operators = append(r.Operators, op)
	}
	for _, a := range adapters {
		if r.find(a.SwapType) >= 0 {
			return errs.Wrap(errs.ErrDuplicateAdapter, "swap type %s", a.SwapType)
		}
		r.Adapters = append(r.Adapters, a)
	}

	data, err := store.Encode(registryDisc, r)
	if err != nil {
		return err
	}
	if err := store.CreateAccount(rc, rc.Tx, authority, address.RegistryAddress(), address.ProgramID, data); err != nil {
		if errors.Is(err, errs.ErrAccountExists) {
			return errs.Wrap(errs.ErrAlreadyInitialized, "adapter registry")
		}
		return err
	}
	rc.Logger().Info("Adapter registry initialized",
		zap.Int("operators", len(r.Operators)),
		zap.Int("adapters", len(r.Adapters)))
	return nil
}

// ConfigureAdapter upserts the program for swapType and enables it.
func ConfigureAdapter(rc *runtime.Context, operator solana.PublicKey, swapType types.SwapType, programID solana.PublicKey) error {
	r, err := loadAsOperator(rc, operator)
	if err != nil {
		return err
	}
	info := AdapterInfo{SwapType: swapType, ProgramID: programID, Enabled: true}
	if i := r.find(swapType); i >= 0 {
		if r.Adapters[i] == info {
			return errs.Wrap(errs.ErrDuplicateAdapter, "swap type %s", swapType)
		}
		r.Adapters[i] = info
	} else {
		r.Adapters = append(r.Adapters, info)
	}
	return save(rc, r)
}

// DisableAdapter marks swapType unusable. The entry is kept.
func DisableAdapter(rc *runtime.Context, operator solana.PublicKey, swapType types.SwapType) error {
	r, err := loadAsOperator(rc, operator)
	if err != nil {
		return err
	}
	i := r.find(swapType)
	if i < 0 {
		return errs.Wrap(errs.ErrAdapterNotConfigured, "swap type %s", swapType)
	}
	r.Adapters[i].Enabled = false
	return save(rc, r)
}

// InitializePoolInfo registers pool for swapType; the operator pays the deposit.
func InitializePoolInfo(rc *runtime.Context, operator solana.PublicKey, swapType types.SwapType, pool solana.PublicKey) (solana.PublicKey, error) {
	r, err := loadAsOperator(rc, operator)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if _, err := r.ResolveAdapter(swapType); err != nil {
		return solana.PublicKey{}, errs.Wrap(errs.ErrAdapterNotConfigured, "pool %s: %v", pool, err)
	}
	addr := address.PoolInfoAddress(swapType, pool)
	data, err := store.Encode(poolInfoDisc, &PoolInfo{SwapType: swapType, Pool: pool, Enabled: true})
	if err != nil {
		return solana.PublicKey{}, err
	}
	if err := store.CreateAccount(rc, rc.Tx, operator, addr, address.ProgramID, data); err != nil {
		if errors.Is(err, errs.ErrAccountExists) {
			return solana.PublicKey{}, errs.Wrap(errs.ErrPoolAlreadyRegistered, "%s pool %s", swapType, pool)
		}
		return solana.PublicKey{}, err
	}
	return addr, nil
}

// DisablePool disables one pool record regardless of its venue status.
func DisablePool(rc *runtime.Context, operator, poolInfo solana.PublicKey) error {
	if _, err := loadAsOperator(rc, operator); err != nil {
		return err
	}
	p, err := LoadPoolInfo(rc, poolInfo)
	if err != nil {
		return err
	}
	p.Enabled = false
	return store.Save(rc, rc.Tx, poolInfo, poolInfoDisc, p)
}

// AddOperator adds op to the bounded operator set.
func AddOperator(rc *runtime.Context, authority, op solana.PublicKey) error {
	r, err := loadAsAuthority(rc, authority)
	if err != nil {
		return err
	}
	if r.IsOperator(op) {
		return errs.Wrap(errs.ErrDuplicateOperator, "%s", op)
	}
	if len(r.Operators) >= MaxOperators {
		return errs.ErrOperatorSetFull
	}
	r.Operators = append(r.Operators, op)
	return save(rc, r)
}

// RemoveOperator removes op from the operator set.
func RemoveOperator(rc *runtime.Context, authority, op solana.PublicKey) error {
	r, err := loadAsAuthority(rc, authority)
	if err != nil {
		return err
	}
	for i, existing := range r.Operators {
		if existing.Equals(op) {
			r.Operators = append(r.Operators[:i], r.Operators[i+1:]...)
			return save(rc, r)
		}
	}
	return errs.Wrap(errs.ErrOperatorNotFound, "%s", op)
}

// ChangeAuthority hands the registry to newAuthority in one step.
func ChangeAuthority(rc *runtime.Context, authority, newAuthority solana.PublicKey) error {
	r, err := loadAsAuthority(rc, authority)
	if err != nil {
		return err
	}
	r.Authority = newAuthority
	return save(rc, r)
}
