// internal/host/bootstrap.go
package host

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/swap-router/internal/dex/pumpswap"
	"github.com/rovshanmuradov/swap-router/internal/dex/raydium"
	"github.com/rovshanmuradov/swap-router/internal/store"
	"github.com/rovshanmuradov/swap-router/internal/token"
)

// Bootstrap helpers seed balances and venue pools. They bypass program
// authorization and are meant for operators and tests.

// Airdrop credits lamports to a system account.
func (h *Host) Airdrop(ctx context.Context, to solana.PublicKey, lamports uint64) error {
	return h.store.Update(ctx, func(tx store.Tx) error {
		return store.Credit(ctx, tx, to, lamports)
	})
}

// CreateMint allocates a new mint under programID.
func (h *Host) CreateMint(ctx context.Context, payer, programID solana.PublicKey, decimals uint8) (solana.PublicKey, error) {
	mint := solana.NewWallet().PublicKey()
	err := h.store.Update(ctx, func(tx store.Tx) error {
		return token.CreateMint(ctx, tx, payer, mint, programID, payer, decimals)
	})
	return mint, err
}

// CreateTokenAccount allocates a token account of mint owned by owner.
func (h *Host) CreateTokenAccount(ctx context.Context, payer, mint, owner solana.PublicKey) (solana.PublicKey, error) {
	addr := solana.NewWallet().PublicKey()
	err := h.store.Update(ctx, func(tx store.Tx) error {
		return token.CreateAccount(ctx, tx, payer, addr, mint, owner, 0)
	})
	return addr, err
}

// MintTo creates amount new tokens in destination.
func (h *Host) MintTo(ctx context.Context, mint, destination solana.PublicKey, amount uint64) error {
	return h.store.Update(ctx, func(tx store.Tx) error {
		return token.MintTo(ctx, tx, mint, destination, amount)
	})
}

// Balance returns the token amount held at addr.
func (h *Host) Balance(ctx context.Context, addr solana.PublicKey) (uint64, error) {
	var amount uint64
	err := h.store.View(ctx, func(tx store.Tx) error {
		var err error
		amount, err = token.Balance(ctx, tx, addr)
		return err
	})
	return amount, err
}

// Lamports returns the lamports held at addr.
func (h *Host) Lamports(ctx context.Context, addr solana.PublicKey) (uint64, error) {
	var lamports uint64
	err := h.store.View(ctx, func(tx store.Tx) error {
		var err error
		lamports, err = store.Lamports(ctx, tx, addr)
		return err
	})
	return lamports, err
}

// CreateRaydiumPool creates a constant-product pool seeded with the given reserves.
func (h *Host) CreateRaydiumPool(ctx context.Context, payer, coinMint, pcMint solana.PublicKey, coinReserve, pcReserve uint64) (*raydium.PoolKeys, error) {
	var keys *raydium.PoolKeys
	err := h.store.Update(ctx, func(tx store.Tx) error {
		_, tokenProgram, err := token.LoadMint(ctx, tx, coinMint)
		if err != nil {
			return err
		}
		keys, err = raydium.DerivePoolKeys(raydium.RaydiumV4ProgramID, solana.NewWallet().PublicKey(), coinMint, pcMint, tokenProgram)
		if err != nil {
			return err
		}
		if err := raydium.CreatePool(ctx, tx, payer, keys); err != nil {
			return err
		}
		if err := token.MintTo(ctx, tx, coinMint, keys.CoinVault, coinReserve); err != nil {
			return err
		}
		return token.MintTo(ctx, tx, pcMint, keys.PcVault, pcReserve)
	})
	return keys, err
}

// PumpSwapConfig holds the fee settings of a freshly created pumpswap deployment.
type PumpSwapConfig struct {
	LPFeeBps          uint64
	ProtocolFeeBps    uint64
	ProtocolRecipient solana.PublicKey
}

// CreatePumpSwapPool creates a pumpswap pool and, on first use, the program's
// global config together with the protocol fee account of quoteMint.
func (h *Host) CreatePumpSwapPool(ctx context.Context, payer, baseMint, quoteMint solana.PublicKey, baseReserve, quoteReserve uint64, cfg PumpSwapConfig) (*pumpswap.PoolKeys, error) {
	var keys *pumpswap.PoolKeys
	err := h.store.Update(ctx, func(tx store.Tx) error {
		_, tokenProgram, err := token.LoadMint(ctx, tx, baseMint)
		if err != nil {
			return err
		}
		global, _, err := pumpswap.DeriveGlobalConfigAddress(pumpswap.PumpSwapProgramID)
		if err != nil {
			return err
		}
		if _, err := tx.Get(ctx, global); err != nil {
			gc := &pumpswap.GlobalConfig{
				Admin:                  payer,
				LPFeeBasisPoints:       cfg.LPFeeBps,
				ProtocolFeeBasisPoints: cfg.ProtocolFeeBps,
			}
			gc.ProtocolFeeRecipients[0] = cfg.ProtocolRecipient
			if _, err := pumpswap.CreateGlobalConfig(ctx, tx, payer, pumpswap.PumpSwapProgramID, gc); err != nil {
				return err
			}
		}

		feeAccount := solana.NewWallet().PublicKey()
		if err := token.CreateAccount(ctx, tx, payer, feeAccount, quoteMint, cfg.ProtocolRecipient, 0); err != nil {
			return err
		}
		keys, err = pumpswap.DerivePoolKeys(pumpswap.PumpSwapProgramID, 0, solana.NewWallet().PublicKey(), baseMint, quoteMint, tokenProgram, feeAccount)
		if err != nil {
			return err
		}
		if err := pumpswap.CreatePool(ctx, tx, payer, keys); err != nil {
			return err
		}
		if err := token.MintTo(ctx, tx, baseMint, keys.PoolBase, baseReserve); err != nil {
			return err
		}
		return token.MintTo(ctx, tx, quoteMint, keys.PoolQuote, quoteReserve)
	})
	return keys, err
}
