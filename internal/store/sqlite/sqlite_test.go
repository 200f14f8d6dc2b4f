package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/swap-router/internal/errs"
	"github.com/rovshanmuradov/swap-router/internal/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{Path: filepath.Join(t.TempDir(), "accounts.db")}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	acc := &store.Account{
		Address:  solana.NewWallet().PublicKey(),
		Owner:    solana.TokenProgramID,
		Lamports: 2_039_280,
		Data:     []byte{1, 2, 3},
	}

	require.NoError(t, s.Update(ctx, func(tx store.Tx) error { return tx.Put(ctx, acc) }))
	require.NoError(t, s.View(ctx, func(tx store.Tx) error {
		got, err := tx.Get(ctx, acc.Address)
		require.NoError(t, err)
		assert.Equal(t, acc, got)
		return nil
	}))
}

func TestRollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	addr := solana.NewWallet().PublicKey()

	boom := errors.New("boom")
	err := s.Update(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.Put(ctx, &store.Account{Address: addr, Owner: solana.SystemProgramID, Lamports: 1}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, s.View(ctx, func(tx store.Tx) error {
		_, err := tx.Get(ctx, addr)
		assert.ErrorIs(t, err, errs.ErrAccountNotFound)
		return nil
	}))
}

func TestListByOwnerAndDelete(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	owner := solana.NewWallet().PublicKey()
	addrs := []solana.PublicKey{solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()}

	require.NoError(t, s.Update(ctx, func(tx store.Tx) error {
		for _, a := range addrs {
			if err := tx.Put(ctx, &store.Account{Address: a, Owner: owner}); err != nil {
				return err
			}
		}
		return tx.Put(ctx, &store.Account{Address: solana.NewWallet().PublicKey(), Owner: solana.SystemProgramID})
	}))

	require.NoError(t, s.View(ctx, func(tx store.Tx) error {
		list, err := tx.ListByOwner(ctx, owner)
		require.NoError(t, err)
		assert.Len(t, list, 2)
		return nil
	}))

	require.NoError(t, s.Update(ctx, func(tx store.Tx) error { return tx.Delete(ctx, addrs[0]) }))
	require.NoError(t, s.View(ctx, func(tx store.Tx) error {
		list, err := tx.ListByOwner(ctx, owner)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, addrs[1], list[0].Address)
		return nil
	}))
}

func TestInMemoryDatabase(t *testing.T) {
	ctx := context.Background()
	s, err := Open(Config{InMemory: true}, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer s.Close()

	addr := solana.NewWallet().PublicKey()
	require.NoError(t, s.Update(ctx, func(tx store.Tx) error {
		return store.Credit(ctx, tx, addr, 42)
	}))
	require.NoError(t, s.View(ctx, func(tx store.Tx) error {
		l, err := store.Lamports(ctx, tx, addr)
		assert.Equal(t, uint64(42), l)
		return err
	}))
}
