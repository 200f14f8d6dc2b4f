// internal/order/manager.go
package order

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/swap-router/internal/address"
	"github.com/rovshanmuradov/swap-router/internal/errs"
	"github.com/rovshanmuradov/swap-router/internal/registry"
	"github.com/rovshanmuradov/swap-router/internal/router"
	"github.com/rovshanmuradov/swap-router/internal/runtime"
	"github.com/rovshanmuradov/swap-router/internal/store"
	"github.com/rovshanmuradov/swap-router/internal/token"
	"github.com/rovshanmuradov/swap-router/internal/types"
)

// Manager drives the order state machine.
// Init → Open → {Filled | Cancelled}, Init → Cancelled.
type Manager struct {
	router *router.Router
	logger *zap.Logger
}

// NewManager creates a manager filling orders through r.
func NewManager(r *router.Router, logger *zap.Logger) *Manager {
	return &Manager{router: r, logger: logger.Named("orders")}
}

// Init allocates the order and escrow shells. The creator signs and pays
// both storage deposits.
func (m *Manager) Init(rc *runtime.Context, creator solana.PublicKey, shell Shell) (solana.PublicKey, error) {
	if err := rc.RequireSigner(creator); err != nil {
		return solana.PublicKey{}, err
	}
	addr, _, err := m.initShell(rc, creator, shell)
	if err != nil {
		return solana.PublicKey{}, err
	}
	m.logger.Info("Order initialized",
		zap.Stringer("order", addr),
		zap.Stringer("creator", creator),
		zap.Uint64("nonce", shell.Nonce))
	return addr, nil
}

func (m *Manager) initShell(rc *runtime.Context, creator solana.PublicKey, shell Shell) (solana.PublicKey, *LimitOrder, error) {
	dst, err := token.LoadAccount(rc, rc.Tx, shell.Destination)
	if err != nil {
		return solana.PublicKey{}, nil, errs.Wrap(err, "order destination")
	}
	if !dst.Mint.Equals(shell.OutputMint) {
		return solana.PublicKey{}, nil, errs.Wrap(errs.ErrMintMismatch, "destination holds %s, order pays %s", dst.Mint, shell.OutputMint)
	}
	if shell.InputMint.Equals(shell.OutputMint) {
		return solana.PublicKey{}, nil, errs.Wrap(errs.ErrMintMismatch, "input and output mint are both %s", shell.InputMint)
	}

	addr := address.LimitOrderAddress(creator, shell.Nonce)
	escrow := address.OrderVaultAddress(addr)
	o := &LimitOrder{
		Creator:     creator,
		InputMint:   shell.InputMint,
		OutputMint:  shell.OutputMint,
		Escrow:      escrow,
		Destination: shell.Destination,
		Status:      types.OrderInit,
		Nonce:       shell.Nonce,
		CreatedAt:   rc.Now().Unix(),
	}
	data, err := store.Encode(orderDisc, o)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	if err := store.CreateAccount(rc, rc.Tx, creator, addr, address.ProgramID, data); err != nil {
		if errors.Is(err, errs.ErrAccountExists) {
			return solana.PublicKey{}, nil, errs.Wrap(errs.ErrAlreadyInitialized, "limit order %s", addr)
		}
		return solana.PublicKey{}, nil, err
	}
	if err := token.CreateAccount(rc, rc.Tx, creator, escrow, shell.InputMint, address.AuthorityAddress(), shell.ExtensionSpace); err != nil {
		return solana.PublicKey{}, nil, errs.Wrap(err, "order escrow")
	}
	return addr, o, nil
}

// Create funds an Init order from source and opens it.
func (m *Manager) Create(rc *runtime.Context, creator, addr, source solana.PublicKey, terms Terms) error {
	o, err := m.loadAsCreator(rc, creator, addr)
	if err != nil {
		return err
	}
	if o.Status != types.OrderInit {
		return errs.Wrap(errs.ErrInvalidOrderStatus, "create on %s order", o.Status)
	}
	if err := terms.Validate(rc.Now().Unix()); err != nil {
		return err
	}
	if err := token.Transfer(rc, source, o.Escrow, creator, terms.InputAmount); err != nil {
		return errs.Wrap(err, "fund escrow")
	}
	return m.open(rc, addr, o, terms)
}

func (m *Manager) open(rc *runtime.Context, addr solana.PublicKey, o *LimitOrder, terms Terms) error {
	o.InputAmount = terms.InputAmount
	o.MinOutputAmount = terms.MinOutputAmount
	o.TriggerBps = terms.TriggerBps
	o.TriggerKind = terms.TriggerKind
	o.Expiry = terms.Expiry
	o.SlippageBps = terms.SlippageBps
	o.Status = types.OrderOpen
	if err := save(rc, addr, o); err != nil {
		return err
	}
	m.logger.Info("Order opened",
		zap.Stringer("order", addr),
		zap.Stringer("kind", o.TriggerKind),
		zap.Uint64("input_amount", o.InputAmount),
		zap.Uint64("min_output", o.MinOutputAmount),
		zap.Uint32("trigger_bps", o.TriggerBps))
	return nil
}

// Cancel refunds any escrowed funds to refundTo and destroys the order. Only
// the creator may cancel, from Init or Open; deposits return to the creator.
func (m *Manager) Cancel(rc *runtime.Context, creator, addr, refundTo solana.PublicKey) (*LimitOrder, error) {
	o, err := m.loadAsCreator(rc, creator, addr)
	if err != nil {
		return nil, err
	}
	if o.Status != types.OrderInit && o.Status != types.OrderOpen {
		return nil, errs.Wrap(errs.ErrInvalidOrderStatus, "cancel on %s order", o.Status)
	}
	balance, err := token.Balance(rc, rc.Tx, o.Escrow)
	if err != nil {
		return nil, errs.Wrap(err, "order escrow")
	}
	if balance > 0 {
		refund, err := token.LoadAccount(rc, rc.Tx, refundTo)
		if err != nil {
			return nil, errs.Wrap(err, "refund account")
		}
		if !refund.Owner.Equals(creator) {
			return nil, errs.Wrap(errs.ErrOwnerMismatch, "refund account %s", refundTo)
		}
		if err := token.Transfer(rc, o.Escrow, refundTo, address.AuthorityAddress(), balance, address.AuthoritySeeds()); err != nil {
			return nil, errs.Wrap(err, "refund escrow")
		}
	}
	if err := m.destroy(rc, addr, o, creator); err != nil {
		return nil, err
	}
	o.Status = types.OrderCancelled
	m.logger.Info("Order cancelled", zap.Stringer("order", addr), zap.Uint64("refunded", balance))
	return o, nil
}

// Close destroys an unfunded Init order. Operator-only; deposits return to
// the creator.
func (m *Manager) Close(rc *runtime.Context, operator, addr solana.PublicKey) (*LimitOrder, error) {
	if err := registry.RequireOperator(rc, operator); err != nil {
		return nil, err
	}
	o, err := Load(rc, addr)
	if err != nil {
		return nil, err
	}
	if o.Status != types.OrderInit {
		return nil, errs.Wrap(errs.ErrInvalidOrderStatus, "close on %s order", o.Status)
	}
	if err := m.destroy(rc, addr, o, o.Creator); err != nil {
		return nil, err
	}
	o.Status = types.OrderCancelled
	m.logger.Info("Order closed", zap.Stringer("order", addr), zap.Stringer("operator", operator))
	return o, nil
}

// destroy closes the empty escrow and the order account, paying both
// deposits to recipient.
func (m *Manager) destroy(rc *runtime.Context, addr solana.PublicKey, o *LimitOrder, recipient solana.PublicKey) error {
	if err := token.Close(rc, o.Escrow, recipient, address.AuthorityAddress(), address.AuthoritySeeds()); err != nil {
		return errs.Wrap(err, "close escrow")
	}
	if _, err := store.CloseAccount(rc, rc.Tx, addr, recipient); err != nil {
		return errs.Wrap(err, "close order")
	}
	return nil
}

func (m *Manager) loadAsCreator(rc *runtime.Context, creator, addr solana.PublicKey) (*LimitOrder, error) {
	if err := rc.RequireSigner(creator); err != nil {
		return nil, err
	}
	o, err := Load(rc, addr)
	if err != nil {
		return nil, err
	}
	if !o.Creator.Equals(creator) {
		return nil, errs.Wrap(errs.ErrNotCreator, "order %s", addr)
	}
	return o, nil
}
