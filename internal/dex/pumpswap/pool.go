// internal/dex/pumpswap/pool.go
package pumpswap

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/swap-router/internal/errs"
	"github.com/rovshanmuradov/swap-router/internal/store"
	"github.com/rovshanmuradov/swap-router/internal/token"
)

// CreateGlobalConfig allocates the program-wide fee configuration.
func CreateGlobalConfig(ctx context.Context, tx store.Tx, payer, programID solana.PublicKey, cfg *GlobalConfig) (solana.PublicKey, error) {
	addr, _, err := DeriveGlobalConfigAddress(programID)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return addr, store.CreateAccount(ctx, tx, payer, addr, programID, cfg.Encode())
}

// CreatePool allocates the pool state and both pool token accounts.
func CreatePool(ctx context.Context, tx store.Tx, payer solana.PublicKey, keys *PoolKeys) error {
	for _, v := range []struct {
		addr, mint solana.PublicKey
	}{{keys.PoolBase, keys.BaseMint}, {keys.PoolQuote, keys.QuoteMint}} {
		if err := token.CreateAccount(ctx, tx, payer, v.addr, v.mint, keys.Pool, 0); err != nil {
			return errs.Wrap(err, "pumpswap pool vault")
		}
	}
	pool := &Pool{
		PoolBump:              keys.Bump,
		Index:                 keys.Index,
		Creator:               keys.Creator,
		BaseMint:              keys.BaseMint,
		QuoteMint:             keys.QuoteMint,
		PoolBaseTokenAccount:  keys.PoolBase,
		PoolQuoteTokenAccount: keys.PoolQuote,
	}
	return store.CreateAccount(ctx, tx, payer, keys.Pool, keys.ProgramID, pool.Encode())
}

// LoadPool reads the pool state owned by programID.
func LoadPool(ctx context.Context, tx store.Tx, programID, address solana.PublicKey) (*Pool, error) {
	acc, err := tx.Get(ctx, address)
	if err != nil {
		return nil, errs.Wrap(err, "pumpswap pool %s", address)
	}
	if !acc.Owner.Equals(programID) {
		return nil, errs.Wrap(errs.ErrInvalidAccountOwner, "pumpswap pool %s", address)
	}
	pool, err := ParsePool(acc.Data)
	if err != nil {
		return nil, errs.Wrap(errs.ErrInvalidAccountData, "%v", err)
	}
	return pool, nil
}

// LoadGlobalConfig reads the global config owned by programID.
func LoadGlobalConfig(ctx context.Context, tx store.Tx, programID, address solana.PublicKey) (*GlobalConfig, error) {
	expected, _, err := DeriveGlobalConfigAddress(programID)
	if err != nil {
		return nil, err
	}
	if !expected.Equals(address) {
		return nil, errs.Wrap(errs.ErrAccountSchemaMismatch, "pumpswap global config %s", address)
	}
	acc, err := tx.Get(ctx, address)
	if err != nil {
		return nil, errs.Wrap(err, "pumpswap global config")
	}
	if !acc.Owner.Equals(programID) {
		return nil, errs.Wrap(errs.ErrInvalidAccountOwner, "pumpswap global config")
	}
	cfg, err := ParseGlobalConfig(acc.Data)
	if err != nil {
		return nil, errs.Wrap(errs.ErrInvalidAccountData, "%v", err)
	}
	return cfg, nil
}

// reserves returns the pool base and quote balances.
func reserves(ctx context.Context, tx store.Tx, pool *Pool) (uint64, uint64, error) {
	base, err := token.Balance(ctx, tx, pool.PoolBaseTokenAccount)
	if err != nil {
		return 0, 0, err
	}
	quote, err := token.Balance(ctx, tx, pool.PoolQuoteTokenAccount)
	if err != nil {
		return 0, 0, err
	}
	return base, quote, nil
}

// LoadPoolKeys rebuilds the pool keys of address from its stored state.
// The protocol fee account is not part of the pool and must be supplied.
func LoadPoolKeys(ctx context.Context, tx store.Tx, programID, address, protocolFeeATA solana.PublicKey) (*PoolKeys, error) {
	pool, err := LoadPool(ctx, tx, programID, address)
	if err != nil {
		return nil, err
	}
	global, _, err := DeriveGlobalConfigAddress(programID)
	if err != nil {
		return nil, err
	}
	_, tokenProgram, err := token.LoadMint(ctx, tx, pool.BaseMint)
	if err != nil {
		return nil, err
	}
	return &PoolKeys{
		ProgramID:      programID,
		Pool:           address,
		GlobalConfig:   global,
		BaseMint:       pool.BaseMint,
		QuoteMint:      pool.QuoteMint,
		PoolBase:       pool.PoolBaseTokenAccount,
		PoolQuote:      pool.PoolQuoteTokenAccount,
		ProtocolFeeATA: protocolFeeATA,
		TokenProgram:   tokenProgram,
		Creator:        pool.Creator,
		Index:          pool.Index,
		Bump:           pool.PoolBump,
	}, nil
}
