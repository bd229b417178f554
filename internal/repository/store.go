package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/josh-kwaku/mini-banking-ledger/internal/domain"
)

// Store runs ledger writes inside serializable Postgres transactions.
type Store struct {
	db          *sql.DB
	lockTimeout time.Duration
	wallets     *WalletRepository
	txns        *TransactionRepository
	ledger      *LedgerRepository
}

func NewStore(db *sql.DB, lockTimeout time.Duration) *Store {
	return &Store{
		db:          db,
		lockTimeout: lockTimeout,
		wallets:     NewWalletRepository(db),
		txns:        NewTransactionRepository(db),
		ledger:      NewLedgerRepository(db),
	}
}

// Serializable runs fn in one SERIALIZABLE transaction. fn's writes commit
// together when it returns nil and are rolled back otherwise. Serialization
// failures, deadlocks and lock timeouts surface as domain.ErrConcurrencyConflict.
func (s *Store) Serializable(ctx context.Context, fn func(ctx context.Context, tx domain.LedgerTx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("Serializable: begin: %w", classify(err))
	}
	defer tx.Rollback()

	if s.lockTimeout > 0 {
		_, err := tx.ExecContext(ctx,
			`SELECT set_config('lock_timeout', $1, true)`,
			fmt.Sprintf("%dms", s.lockTimeout.Milliseconds()),
		)
		if err != nil {
			return fmt.Errorf("Serializable: lock timeout: %w", classify(err))
		}
	}

	if err := fn(ctx, &pgTx{tx: tx, store: s}); err != nil {
		return fmt.Errorf("Serializable: %w", classify(err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Serializable: commit: %w", classify(err))
	}
	return nil
}

type pgTx struct {
	tx    *sql.Tx
	store *Store
}

func (t *pgTx) LockWallet(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	return t.store.wallets.GetForUpdate(ctx, t.tx, id)
}

func (t *pgTx) UpdateWalletBalance(ctx context.Context, id uuid.UUID, balance int64) error {
	return t.store.wallets.UpdateBalance(ctx, t.tx, id, balance)
}

func (t *pgTx) CreateTransaction(ctx context.Context, txn *domain.Transaction) error {
	return t.store.txns.Create(ctx, t.tx, txn)
}

func (t *pgTx) CreateLedgerEntry(ctx context.Context, e *domain.LedgerEntry) error {
	return t.store.ledger.Create(ctx, t.tx, e)
}
