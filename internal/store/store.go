// internal/store/store.go
package store

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// Account хранит адрес, программу-владельца, депозит и данные.
type Account struct {
	Address  solana.PublicKey
	Owner    solana.PublicKey
	Lamports uint64
	Data     []byte
}

// Clone returns a deep copy so callers never alias stored bytes.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	if a.Data != nil {
		c.Data = make([]byte, len(a.Data))
		copy(c.Data, a.Data)
	}
	return &c
}

// Tx is the view of the store inside one operation.
type Tx interface {
	// Get returns errs.ErrAccountNotFound when the address is unknown.
	Get(ctx context.Context, address solana.PublicKey) (*Account, error)
	Put(ctx context.Context, account *Account) error
	Delete(ctx context.Context, address solana.PublicKey) error
	// ListByOwner returns accounts owned by a program, ordered by address.
	ListByOwner(ctx context.Context, owner solana.PublicKey) ([]*Account, error)
}

// Store runs operations as all-or-nothing units. An error returned from the
// callback of Update discards every write made through the Tx.
type Store interface {
	Update(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}
