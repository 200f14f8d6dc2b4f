// internal/token/token.go
package token

import (
	"context"
	"errors"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/rovshanmuradov/swap-router/internal/errs"
	"github.com/rovshanmuradov/swap-router/internal/store"
)

// CreateMint allocates a mint under programID.
func CreateMint(ctx context.Context, tx store.Tx, payer, mint, programID, authority solana.PublicKey, decimals uint8) error {
	if !IsTokenProgram(programID) {
		return errs.Wrap(errs.ErrInvalidProgram, "mint program %s", programID)
	}
	m := &Mint{MintAuthority: authority, Decimals: decimals}
	return store.CreateAccount(ctx, tx, payer, mint, programID, m.encode())
}

// LoadMint returns the mint state and the token program that owns it.
func LoadMint(ctx context.Context, tx store.Tx, mint solana.PublicKey) (*Mint, solana.PublicKey, error) {
	acc, err := tx.Get(ctx, mint)
	if err != nil {
		return nil, solana.PublicKey{}, errs.Wrap(err, "mint %s", mint)
	}
	if !IsTokenProgram(acc.Owner) {
		return nil, solana.PublicKey{}, errs.Wrap(errs.ErrInvalidAccountOwner, "mint %s", mint)
	}
	m, err := decodeMint(acc.Data)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	return m, acc.Owner, nil
}

// CreateAccount allocates a token account for mint owned by owner. extSpace
// bytes of extension data are only accepted for extensible-program mints.
func CreateAccount(ctx context.Context, tx store.Tx, payer, address, mint, owner solana.PublicKey, extSpace int) error {
	_, programID, err := LoadMint(ctx, tx, mint)
	if err != nil {
		return err
	}
	if extSpace < 0 {
		return errs.Wrap(errs.ErrInvalidAccountData, "negative extension space")
	}
	extensible := programID.Equals(ExtensibleProgramID)
	if extSpace > 0 && !extensible {
		return errs.Wrap(errs.ErrExtensionsUnsupported, "mint %s", mint)
	}
	a := &Account{Mint: mint, Owner: owner}
	if extSpace > 0 {
		a.Extensions = make([]byte, extSpace)
	}
	return store.CreateAccount(ctx, tx, payer, address, programID, a.encode(extensible))
}

// LoadAccount returns the token account stored at address.
func LoadAccount(ctx context.Context, tx store.Tx, address solana.PublicKey) (*Account, error) {
	acc, err := tx.Get(ctx, address)
	if err != nil {
		return nil, err
	}
	if !IsTokenProgram(acc.Owner) {
		return nil, errs.Wrap(errs.ErrInvalidAccountOwner, "token account %s", address)
	}
	return decodeAccount(acc.Data)
}

// Balance returns the token amount held at address.
func Balance(ctx context.Context, tx store.Tx, address solana.PublicKey) (uint64, error) {
	a, err := LoadAccount(ctx, tx, address)
	if err != nil {
		return 0, err
	}
	return a.Amount, nil
}

// Exists reports whether address holds a token account.
func Exists(ctx context.Context, tx store.Tx, address solana.PublicKey) (bool, error) {
	_, err := LoadAccount(ctx, tx, address)
	if errors.Is(err, errs.ErrAccountNotFound) {
		return false, nil
	}
	return err == nil, err
}

// MintTo creates amount new tokens in destination. It bypasses the mint
// authority and is used for bootstrapping balances.
func MintTo(ctx context.Context, tx store.Tx, mint, destination solana.PublicKey, amount uint64) error {
	m, programID, err := LoadMint(ctx, tx, mint)
	if err != nil {
		return err
	}
	return mintTo(ctx, tx, mint, programID, m, destination, amount)
}

func mintTo(ctx context.Context, tx store.Tx, mint, programID solana.PublicKey, m *Mint, destination solana.PublicKey, amount uint64) error {
	dst, err := LoadAccount(ctx, tx, destination)
	if err != nil {
		return err
	}
	if !dst.Mint.Equals(mint) {
		return errs.Wrap(errs.ErrMintMismatch, "destination %s", destination)
	}
	if m.Supply+amount < m.Supply || dst.Amount+amount < dst.Amount {
		return errs.ErrArithmeticOverflow
	}
	m.Supply += amount
	dst.Amount += amount
	if err := putMint(ctx, tx, mint, m); err != nil {
		return err
	}
	return putAccount(ctx, tx, destination, dst, programID)
}

// UIAmount formats a raw amount with the mint's decimals.
func UIAmount(amount uint64, decimals uint8) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -int32(decimals)).StringFixed(int32(decimals))
}

func putMint(ctx context.Context, tx store.Tx, address solana.PublicKey, m *Mint) error {
	acc, err := tx.Get(ctx, address)
	if err != nil {
		return err
	}
	acc.Data = m.encode()
	return tx.Put(ctx, acc)
}

func putAccount(ctx context.Context, tx store.Tx, address solana.PublicKey, a *Account, programID solana.PublicKey) error {
	acc, err := tx.Get(ctx, address)
	if err != nil {
		return err
	}
	acc.Data = a.encode(programID.Equals(ExtensibleProgramID))
	return tx.Put(ctx, acc)
}
