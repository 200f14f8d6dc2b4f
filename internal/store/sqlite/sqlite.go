// internal/store/sqlite/sqlite.go
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gagliardetto/solana-go"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/swap-router/internal/errs"
	"github.com/rovshanmuradov/swap-router/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	address  BLOB PRIMARY KEY,
	owner    BLOB NOT NULL,
	lamports INTEGER NOT NULL,
	data     BLOB
);
CREATE INDEX IF NOT EXISTS accounts_owner_idx ON accounts(owner, address);
`

// Config описывает параметры SQLite хранилища.
type Config struct {
	Path        string `mapstructure:"path"`
	InMemory    bool   `mapstructure:"in_memory"`
	BusyTimeout int    `mapstructure:"busy_timeout_ms"`
}

// Store persists accounts in SQLite. A single connection serializes writers,
// each Update maps onto one SQL transaction.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ store.Store = (*Store)(nil)

// Open creates or opens the database described by cfg.
func Open(cfg Config, logger *zap.Logger) (*Store, error) {
	dsn := cfg.Path
	if cfg.InMemory {
		dsn = ":memory:"
	} else if err := ensureDir(filepath.Dir(cfg.Path)); err != nil {
		return nil, err
	}
	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5000
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("%s?_busy_timeout=%d&_foreign_keys=on", dsn, busy))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if !cfg.InMemory {
		if _, err := conn.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("set sqlite WAL mode: %w", err)
		}
	}
	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}

	logger.Debug("sqlite store opened", zap.String("path", dsn))
	return &Store{db: conn, logger: logger.Named("sqlite")}, nil
}

// Update runs fn inside one SQL transaction, rolled back on any error.
func (s *Store) Update(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.run(ctx, false, fn)
}

// View runs fn inside a read-only SQL transaction.
func (s *Store) View(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.run(ctx, true, fn)
}

func (s *Store) run(ctx context.Context, readOnly bool, fn func(tx store.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: readOnly})
	if err != nil {
		return mapError(fmt.Errorf("begin transaction: %w", err))
	}
	if err := fn(&txn{tx: sqlTx, readOnly: readOnly}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			s.logger.Warn("rollback failed", zap.Error(rbErr))
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return mapError(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

type txn struct {
	tx       *sql.Tx
	readOnly bool
}

func (t *txn) Get(ctx context.Context, address solana.PublicKey) (*store.Account, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT owner, lamports, data FROM accounts WHERE address = ?`, address[:])
	acc, err := scanAccount(address, row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.Wrap(errs.ErrAccountNotFound, "%s", address)
	}
	if err != nil {
		return nil, mapError(fmt.Errorf("load account %s: %w", address, err))
	}
	return acc, nil
}

func (t *txn) Put(ctx context.Context, account *store.Account) error {
	if t.readOnly {
		return errs.ErrReadOnly
	}
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO accounts (address, owner, lamports, data) VALUES (?, ?, ?, ?)
		ON CONFLICT(address) DO UPDATE SET
			owner = excluded.owner,
			lamports = excluded.lamports,
			data = excluded.data`,
		account.Address[:], account.Owner[:], int64(account.Lamports), account.Data)
	if err != nil {
		return mapError(fmt.Errorf("store account %s: %w", account.Address, err))
	}
	return nil
}

func (t *txn) Delete(ctx context.Context, address solana.PublicKey) error {
	if t.readOnly {
		return errs.ErrReadOnly
	}
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM accounts WHERE address = ?`, address[:]); err != nil {
		return mapError(fmt.Errorf("delete account %s: %w", address, err))
	}
	return nil
}

func (t *txn) ListByOwner(ctx context.Context, owner solana.PublicKey) ([]*store.Account, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT address, owner, lamports, data FROM accounts WHERE owner = ? ORDER BY address`, owner[:])
	if err != nil {
		return nil, mapError(fmt.Errorf("list accounts of %s: %w", owner, err))
	}
	defer rows.Close()

	var out []*store.Account
	for rows.Next() {
		var addr []byte
		var ownerRaw []byte
		var lamports int64
		var data []byte
		if err := rows.Scan(&addr, &ownerRaw, &lamports, &data); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, &store.Account{
			Address:  solana.PublicKeyFromBytes(addr),
			Owner:    solana.PublicKeyFromBytes(ownerRaw),
			Lamports: uint64(lamports),
			Data:     data,
		})
	}
	return out, rows.Err()
}

func scanAccount(address solana.PublicKey, row *sql.Row) (*store.Account, error) {
	var owner []byte
	var lamports int64
	var data []byte
	if err := row.Scan(&owner, &lamports, &data); err != nil {
		return nil, err
	}
	return &store.Account{
		Address:  address,
		Owner:    solana.PublicKeyFromBytes(owner),
		Lamports: uint64(lamports),
		Data:     data,
	}, nil
}

// mapError переводит SQLITE_BUSY/LOCKED в errs.ErrStoreBusy, чтобы вызывающий мог повторить.
func mapError(err error) error {
	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) && (sqlErr.Code == sqlite3.ErrBusy || sqlErr.Code == sqlite3.ErrLocked) {
		return fmt.Errorf("%w: %v", errs.ErrStoreBusy, err)
	}
	return err
}

func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", path, err)
	}
	return nil
}
