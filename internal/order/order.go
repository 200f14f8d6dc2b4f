// internal/order/order.go
package order

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/swap-router/internal/address"
	"github.com/rovshanmuradov/swap-router/internal/errs"
	"github.com/rovshanmuradov/swap-router/internal/runtime"
	"github.com/rovshanmuradov/swap-router/internal/store"
	"github.com/rovshanmuradov/swap-router/internal/types"
)

var orderDisc = store.Discriminator("LimitOrder")

// LimitOrder описывает условный ордер: средства лежат в эскроу до срабатывания
// триггера, отмены или закрытия.
type LimitOrder struct {
	Creator         solana.PublicKey
	InputMint       solana.PublicKey
	OutputMint      solana.PublicKey
	Escrow          solana.PublicKey
	Destination     solana.PublicKey
	InputAmount     uint64
	MinOutputAmount uint64
	TriggerBps      uint32
	TriggerKind     types.TriggerKind
	// Expiry is a unix timestamp; the order is expired from that second on.
	Expiry      int64
	SlippageBps uint16
	Status      types.OrderStatus
	Nonce       uint64
	CreatedAt   int64
}

// Expired reports whether the order can no longer be executed at now.
func (o *LimitOrder) Expired(now int64) bool {
	return now >= o.Expiry
}

// Shell names the accounts of a new order.
type Shell struct {
	Nonce       uint64
	InputMint   solana.PublicKey
	OutputMint  solana.PublicKey
	Destination solana.PublicKey
	// ExtensionSpace is the extension data reserved in the escrow account.
	ExtensionSpace int
}

// Terms are the economic parameters set when an order is funded.
type Terms struct {
	InputAmount     uint64
	MinOutputAmount uint64
	TriggerBps      uint32
	TriggerKind     types.TriggerKind
	Expiry          int64
	SlippageBps     uint16
}

// Validate checks the terms against the clock reading now.
func (t *Terms) Validate(now int64) error {
	switch {
	case t.InputAmount == 0:
		return errs.Wrap(errs.ErrZeroAmount, "input amount")
	case t.MinOutputAmount == 0:
		return errs.Wrap(errs.ErrZeroAmount, "min output amount")
	case t.TriggerBps == 0 || t.TriggerBps > types.MaxTriggerBps:
		return errs.Wrap(errs.ErrInvalidTrigger, "%d bps", t.TriggerBps)
	case t.TriggerKind != types.TakeProfit && t.TriggerKind != types.StopLoss:
		return errs.ErrInvalidTriggerKind
	case t.SlippageBps > types.BpsDenominator:
		return errs.Wrap(errs.ErrInvalidSlippage, "%d bps", t.SlippageBps)
	case t.Expiry <= now:
		return errs.Wrap(errs.ErrInvalidExpiry, "expiry %d, now %d", t.Expiry, now)
	}
	return nil
}

// Entry is an order together with its address.
type Entry struct {
	Address solana.PublicKey
	Order   *LimitOrder
}

// Load reads the order at addr and checks its derived addresses.
func Load(rc *runtime.Context, addr solana.PublicKey) (*LimitOrder, error) {
	return load(rc, rc.Tx, addr)
}

func load(ctx context.Context, tx store.Tx, addr solana.PublicKey) (*LimitOrder, error) {
	var o LimitOrder
	if err := store.Load(ctx, tx, addr, address.ProgramID, orderDisc, &o); err != nil {
		return nil, errs.Wrap(err, "limit order %s", addr)
	}
	if !address.LimitOrderAddress(o.Creator, o.Nonce).Equals(addr) {
		return nil, errs.Wrap(errs.ErrInvalidAccountData, "limit order %s address", addr)
	}
	if !address.OrderVaultAddress(addr).Equals(o.Escrow) {
		return nil, errs.Wrap(errs.ErrEscrowMismatch, "limit order %s", addr)
	}
	return &o, nil
}

func save(rc *runtime.Context, addr solana.PublicKey, o *LimitOrder) error {
	return store.Save(rc, rc.Tx, addr, orderDisc, o)
}

// List returns every order owned by the router, optionally filtered by status.
func List(ctx context.Context, tx store.Tx, statuses ...types.OrderStatus) ([]Entry, error) {
	accounts, err := tx.ListByOwner(ctx, address.ProgramID)
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, acc := range accounts {
		if !store.HasDiscriminator(acc.Data, orderDisc) {
			continue
		}
		o, err := load(ctx, tx, acc.Address)
		if err != nil {
			return nil, err
		}
		if len(statuses) > 0 && !hasStatus(o.Status, statuses) {
			continue
		}
		out = append(out, Entry{Address: acc.Address, Order: o})
	}
	return out, nil
}

func hasStatus(s types.OrderStatus, set []types.OrderStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
