package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/swap-router/internal/errs"
)

const (
	accountStorageOverhead = 128
	lamportsPerByteYear    = 3480
	exemptionYears         = 2
)

// MinimumBalance returns the storage deposit for an account with n data bytes.
func MinimumBalance(n int) uint64 {
	return uint64(n+accountStorageOverhead) * lamportsPerByteYear * exemptionYears
}

// Lamports returns the lamport balance of address, zero when it does not exist.
func Lamports(ctx context.Context, tx Tx, address solana.PublicKey) (uint64, error) {
	acc, err := tx.Get(ctx, address)
	if errors.Is(err, errs.ErrAccountNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return acc.Lamports, nil
}

// Credit adds lamports to address, creating a system account when missing.
func Credit(ctx context.Context, tx Tx, address solana.PublicKey, lamports uint64) error {
	acc, err := tx.Get(ctx, address)
	switch {
	case errors.Is(err, errs.ErrAccountNotFound):
		acc = &Account{Address: address, Owner: solana.SystemProgramID}
	case err != nil:
		return err
	}
	if acc.Lamports+lamports < acc.Lamports {
		return errs.ErrArithmeticOverflow
	}
	acc.Lamports += lamports
	return tx.Put(ctx, acc)
}

// Debit removes lamports from a system-owned payer.
func Debit(ctx context.Context, tx Tx, address solana.PublicKey, lamports uint64) error {
	acc, err := tx.Get(ctx, address)
	if errors.Is(err, errs.ErrAccountNotFound) {
		return errs.Wrap(errs.ErrInsufficientLamports, "payer %s", address)
	}
	if err != nil {
		return err
	}
	if acc.Lamports < lamports {
		return errs.Wrap(errs.ErrInsufficientLamports, "payer %s has %d, needs %d", address, acc.Lamports, lamports)
	}
	acc.Lamports -= lamports
	return tx.Put(ctx, acc)
}

// CreateAccount allocates address for owner, charging the storage deposit to payer.
func CreateAccount(ctx context.Context, tx Tx, payer, address, owner solana.PublicKey, data []byte) error {
	_, err := tx.Get(ctx, address)
	if err == nil {
		return errs.Wrap(errs.ErrAccountExists, "create %s", address)
	}
	if !errors.Is(err, errs.ErrAccountNotFound) {
		return err
	}
	deposit := MinimumBalance(len(data))
	if err := Debit(ctx, tx, payer, deposit); err != nil {
		return err
	}
	return tx.Put(ctx, &Account{
		Address:  address,
		Owner:    owner,
		Lamports: deposit,
		Data:     data,
	})
}

// CloseAccount deletes address and returns its lamports to recipient.
func CloseAccount(ctx context.Context, tx Tx, address, recipient solana.PublicKey) (uint64, error) {
	acc, err := tx.Get(ctx, address)
	if err != nil {
		return 0, errs.Wrap(err, "close %s", address)
	}
	if err := tx.Delete(ctx, address); err != nil {
		return 0, err
	}
	if err := Credit(ctx, tx, recipient, acc.Lamports); err != nil {
		return 0, fmt.Errorf("refund deposit: %w", err)
	}
	return acc.Lamports, nil
}

// Load reads a typed account, verifying its owner and discriminator.
func Load(ctx context.Context, tx Tx, address, owner solana.PublicKey, disc [DiscriminatorSize]byte, v interface{}) error {
	acc, err := tx.Get(ctx, address)
	if err != nil {
		return err
	}
	if !acc.Owner.Equals(owner) {
		return errs.Wrap(errs.ErrInvalidAccountOwner, "%s owned by %s", address, acc.Owner)
	}
	return Decode(acc.Data, disc, v)
}

// Save rewrites the data of an existing account, keeping its deposit.
func Save(ctx context.Context, tx Tx, address solana.PublicKey, disc [DiscriminatorSize]byte, v interface{}) error {
	acc, err := tx.Get(ctx, address)
	if err != nil {
		return err
	}
	data, err := Encode(disc, v)
	if err != nil {
		return err
	}
	acc.Data = data
	return tx.Put(ctx, acc)
}
