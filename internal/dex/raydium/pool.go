// internal/dex/raydium/pool.go
package raydium

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/swap-router/internal/errs"
	"github.com/rovshanmuradov/swap-router/internal/store"
	"github.com/rovshanmuradov/swap-router/internal/token"
)

// PoolKeys lists every account of one pool.
type PoolKeys struct {
	Amm          solana.PublicKey
	Authority    solana.PublicKey
	OpenOrders   solana.PublicKey
	CoinVault    solana.PublicKey
	PcVault      solana.PublicKey
	CoinMint     solana.PublicKey
	PcMint       solana.PublicKey
	ProgramID    solana.PublicKey
	TokenProgram solana.PublicKey
}

// AmmAuthority returns the PDA owning every pool vault and its bump.
func AmmAuthority(programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(AmmAuthoritySeed)}, programID)
}

// DerivePoolKeys computes the vault and open orders addresses of amm.
func DerivePoolKeys(programID, amm, coinMint, pcMint, tokenProgram solana.PublicKey) (*PoolKeys, error) {
	authority, _, err := AmmAuthority(programID)
	if err != nil {
		return nil, fmt.Errorf("derive amm authority: %w", err)
	}
	keys := &PoolKeys{
		Amm:          amm,
		Authority:    authority,
		CoinMint:     coinMint,
		PcMint:       pcMint,
		ProgramID:    programID,
		TokenProgram: tokenProgram,
	}
	for seed, dst := range map[string]*solana.PublicKey{
		CoinVaultSeed:  &keys.CoinVault,
		PcVaultSeed:    &keys.PcVault,
		OpenOrdersSeed: &keys.OpenOrders,
	} {
		addr, _, err := solana.FindProgramAddress([][]byte{[]byte(seed), amm[:]}, programID)
		if err != nil {
			return nil, fmt.Errorf("derive %s: %w", seed, err)
		}
		*dst = addr
	}
	return keys, nil
}

// SwapWindow builds the hop account window for a swap from userSource to
// userDestination signed by owner.
func (k *PoolKeys) SwapWindow(userSource, userDestination, owner solana.PublicKey) []*solana.AccountMeta {
	return []*solana.AccountMeta{
		solana.Meta(k.ProgramID),
		solana.Meta(k.Amm).WRITE(),
		solana.Meta(k.Authority),
		solana.Meta(k.OpenOrders).WRITE(),
		solana.Meta(k.CoinVault).WRITE(),
		solana.Meta(k.PcVault).WRITE(),
		solana.Meta(userSource).WRITE(),
		solana.Meta(userDestination).WRITE(),
		solana.Meta(owner),
		solana.Meta(k.TokenProgram),
	}
}

// CreatePool allocates the pool state, its open orders account and both vaults.
func CreatePool(ctx context.Context, tx store.Tx, payer solana.PublicKey, keys *PoolKeys) error {
	coin, _, err := token.LoadMint(ctx, tx, keys.CoinMint)
	if err != nil {
		return err
	}
	pc, _, err := token.LoadMint(ctx, tx, keys.PcMint)
	if err != nil {
		return err
	}
	for _, v := range []struct {
		addr, mint solana.PublicKey
	}{{keys.CoinVault, keys.CoinMint}, {keys.PcVault, keys.PcMint}} {
		if err := token.CreateAccount(ctx, tx, payer, v.addr, v.mint, keys.Authority, 0); err != nil {
			return errs.Wrap(err, "raydium vault")
		}
	}
	if err := store.CreateAccount(ctx, tx, payer, keys.OpenOrders, keys.ProgramID, make([]byte, 8)); err != nil {
		return err
	}
	info := &AmmInfo{
		Status:              PoolStatusActive,
		CoinDecimals:        uint64(coin.Decimals),
		PcDecimals:          uint64(pc.Decimals),
		TradeFeeNumerator:   DefaultTradeFeeNumerator,
		TradeFeeDenominator: DefaultTradeFeeDenominator,
		CoinVault:           keys.CoinVault,
		PcVault:             keys.PcVault,
		CoinMint:            keys.CoinMint,
		PcMint:              keys.PcMint,
		OpenOrders:          keys.OpenOrders,
	}
	return store.CreateAccount(ctx, tx, payer, keys.Amm, keys.ProgramID, info.Encode())
}

// LoadAmmInfo reads the pool state owned by programID.
func LoadAmmInfo(ctx context.Context, tx store.Tx, programID, amm solana.PublicKey) (*AmmInfo, error) {
	acc, err := tx.Get(ctx, amm)
	if err != nil {
		return nil, errs.Wrap(err, "raydium pool %s", amm)
	}
	if !acc.Owner.Equals(programID) {
		return nil, errs.Wrap(errs.ErrInvalidAccountOwner, "raydium pool %s", amm)
	}
	info, err := DecodeAmmInfo(acc.Data)
	if err != nil {
		return nil, errs.Wrap(errs.ErrInvalidAccountData, "raydium pool %s: %v", amm, err)
	}
	return info, nil
}

// LoadPoolKeys rebuilds the pool keys of amm from its stored state.
func LoadPoolKeys(ctx context.Context, tx store.Tx, programID, amm solana.PublicKey) (*PoolKeys, error) {
	info, err := LoadAmmInfo(ctx, tx, programID, amm)
	if err != nil {
		return nil, err
	}
	_, tokenProgram, err := token.LoadMint(ctx, tx, info.CoinMint)
	if err != nil {
		return nil, err
	}
	authority, _, err := AmmAuthority(programID)
	if err != nil {
		return nil, fmt.Errorf("derive amm authority: %w", err)
	}
	return &PoolKeys{
		Amm:          amm,
		Authority:    authority,
		OpenOrders:   info.OpenOrders,
		CoinVault:    info.CoinVault,
		PcVault:      info.PcVault,
		CoinMint:     info.CoinMint,
		PcMint:       info.PcMint,
		ProgramID:    programID,
		TokenProgram: tokenProgram,
	}, nil
}
