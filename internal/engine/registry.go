// internal/engine/registry.go
package engine

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/swap-router/internal/registry"
	"github.com/rovshanmuradov/swap-router/internal/runtime"
	"github.com/rovshanmuradov/swap-router/internal/types"
)

func (e *Engine) InitializeAdapterRegistry(ctx context.Context, authority solana.PublicKey, operators []solana.PublicKey, adapters []registry.AdapterInfo) error {
	return e.run(ctx, "initialize_adapter_registry", []solana.PublicKey{authority}, func(rc *runtime.Context) error {
		return registry.Initialize(rc, authority, operators, adapters)
	})
}

func (e *Engine) ConfigureAdapter(ctx context.Context, operator solana.PublicKey, swapType types.SwapType, programID solana.PublicKey) error {
	return e.run(ctx, "configure_adapter", []solana.PublicKey{operator}, func(rc *runtime.Context) error {
		return registry.ConfigureAdapter(rc, operator, swapType, programID)
	})
}

func (e *Engine) DisableAdapter(ctx context.Context, operator solana.PublicKey, swapType types.SwapType) error {
	return e.run(ctx, "disable_adapter", []solana.PublicKey{operator}, func(rc *runtime.Context) error {
		return registry.DisableAdapter(rc, operator, swapType)
	})
}

func (e *Engine) InitializePoolInfo(ctx context.Context, operator solana.PublicKey, swapType types.SwapType, pool solana.PublicKey) (solana.PublicKey, error) {
	var addr solana.PublicKey
	err := e.run(ctx, "initialize_pool_info", []solana.PublicKey{operator}, func(rc *runtime.Context) error {
		var err error
		addr, err = registry.InitializePoolInfo(rc, operator, swapType, pool)
		return err
	})
	return addr, err
}

func (e *Engine) DisablePool(ctx context.Context, operator, poolInfo solana.PublicKey) error {
	return e.run(ctx, "disable_pool", []solana.PublicKey{operator}, func(rc *runtime.Context) error {
		return registry.DisablePool(rc, operator, poolInfo)
	})
}

func (e *Engine) AddOperator(ctx context.Context, authority, operator solana.PublicKey) error {
	return e.run(ctx, "add_operator", []solana.PublicKey{authority}, func(rc *runtime.Context) error {
		return registry.AddOperator(rc, authority, operator)
	})
}

func (e *Engine) RemoveOperator(ctx context.Context, authority, operator solana.PublicKey) error {
	return e.run(ctx, "remove_operator", []solana.PublicKey{authority}, func(rc *runtime.Context) error {
		return registry.RemoveOperator(rc, authority, operator)
	})
}

func (e *Engine) ChangeAuthority(ctx context.Context, authority, newAuthority solana.PublicKey) error {
	return e.run(ctx, "change_authority", []solana.PublicKey{authority}, func(rc *runtime.Context) error {
		return registry.ChangeAuthority(rc, authority, newAuthority)
	})
}
