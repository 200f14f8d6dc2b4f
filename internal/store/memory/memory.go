// internal/store/memory/memory.go
package memory

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/swap-router/internal/errs"
	"github.com/rovshanmuradov/swap-router/internal/store"
)

// Store хранит аккаунты в памяти. Update сериализуется мьютексом, а все
// записи копятся в оверлее и применяются только при успехе.
type Store struct {
	mu       sync.RWMutex
	accounts map[solana.PublicKey]*store.Account
}

var _ store.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{accounts: make(map[solana.PublicKey]*store.Account)}
}

// Update runs fn with exclusive access; writes are committed only if fn returns nil.
func (s *Store) Update(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &txn{
		base:    s.accounts,
		writes:  make(map[solana.PublicKey]*store.Account),
		deleted: make(map[solana.PublicKey]bool),
	}
	if err := fn(tx); err != nil {
		return err
	}
	for addr := range tx.deleted {
		delete(s.accounts, addr)
	}
	for addr, acc := range tx.writes {
		s.accounts[addr] = acc
	}
	return nil
}

// View runs fn against a read-only snapshot.
func (s *Store) View(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&txn{base: s.accounts, readOnly: true})
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// Len returns the number of committed accounts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}

type txn struct {
	base     map[solana.PublicKey]*store.Account
	writes   map[solana.PublicKey]*store.Account
	deleted  map[solana.PublicKey]bool
	readOnly bool
}

func (t *txn) Get(ctx context.Context, address solana.PublicKey) (*store.Account, error) {
	if acc, ok := t.writes[address]; ok {
		return acc.Clone(), nil
	}
	if t.deleted[address] {
		return nil, errs.Wrap(errs.ErrAccountNotFound, "%s", address)
	}
	acc, ok := t.base[address]
	if !ok {
		return nil, errs.Wrap(errs.ErrAccountNotFound, "%s", address)
	}
	return acc.Clone(), nil
}

func (t *txn) Put(ctx context.Context, account *store.Account) error {
	if t.readOnly {
		return errs.ErrReadOnly
	}
	delete(t.deleted, account.Address)
	t.writes[account.Address] = account.Clone()
	return nil
}

func (t *txn) Delete(ctx context.Context, address solana.PublicKey) error {
	if t.readOnly {
		return errs.ErrReadOnly
	}
	delete(t.writes, address)
	t.deleted[address] = true
	return nil
}

func (t *txn) ListByOwner(ctx context.Context, owner solana.PublicKey) ([]*store.Account, error) {
	seen := make(map[solana.PublicKey]bool)
	var out []*store.Account
	for addr, acc := range t.writes {
		seen[addr] = true
		if acc.Owner.Equals(owner) {
			out = append(out, acc.Clone())
		}
	}
	for addr, acc := range t.base {
		if seen[addr] || t.deleted[addr] {
			continue
		}
		if acc.Owner.Equals(owner) {
			out = append(out, acc.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Address[:], out[j].Address[:]) < 0
	})
	return out, nil
}
