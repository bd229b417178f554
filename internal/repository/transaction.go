package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/josh-kwaku/mini-banking-ledger/internal/domain"
)

const transactionColumns = `id, type, amount, currency, created_at`

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (id, type, amount, currency, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.Type, t.Amount, t.Currency, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", classify(err))
	}
	return nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id,
	)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", classify(err))
	}
	return t, nil
}

// List returns one page of committed transactions, newest first, and the
// total number matching the filter.
func (r *TransactionRepository) List(ctx context.Context, filter domain.TransactionFilter, limit, offset int) ([]domain.Transaction, int, error) {
	where := ""
	args := []any{}
	if filter.Type != nil {
		where = ` WHERE type = $1`
		args = append(args, *filter.Type)
	}

	var total int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("List: count: %w", classify(err))
	}

	query := fmt.Sprintf(`SELECT `+transactionColumns+` FROM transactions%s
		ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("List: %w", classify(err))
	}
	defer rows.Close()

	items, err := collectTransactions(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("List: %w", err)
	}
	return items, total, nil
}

// ListByUserID returns the most recent transactions that touched any of the
// user's wallets. A transfer between two of the user's own wallets appears once.
func (r *TransactionRepository) ListByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.id, t.type, t.amount, t.currency, t.created_at
		FROM transactions t
		WHERE EXISTS (
			SELECT 1 FROM ledger_entries le
			JOIN wallets w ON w.id = le.wallet_id
			WHERE le.transaction_id = t.id AND w.user_id = $1
		)
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByUserID: %w", classify(err))
	}
	defer rows.Close()

	items, err := collectTransactions(rows)
	if err != nil {
		return nil, fmt.Errorf("ListByUserID: %w", err)
	}
	return items, nil
}

func collectTransactions(rows *sql.Rows) ([]domain.Transaction, error) {
	items := []domain.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", classify(err))
		}
		items = append(items, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", classify(err))
	}
	return items, nil
}

func scanTransaction(s scanner) (*domain.Transaction, error) {
	var t domain.Transaction
	if err := s.Scan(&t.ID, &t.Type, &t.Amount, &t.Currency, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}
