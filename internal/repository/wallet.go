package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/josh-kwaku/mini-banking-ledger/internal/domain"
)

const walletColumns = `id, user_id, currency, balance, created_at, updated_at`

type WalletRepository struct {
	db *sql.DB
}

func NewWalletRepository(db *sql.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

func (r *WalletRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE id = $1`, id,
	)
	w, err := scanWallet(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrWalletNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", classify(err))
	}
	return w, nil
}

func (r *WalletRepository) GetByUserAndCurrency(ctx context.Context, userID uuid.UUID, currency domain.Currency) (*domain.Wallet, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE user_id = $1 AND currency = $2`,
		userID, currency,
	)
	w, err := scanWallet(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByUserAndCurrency: %w", domain.ErrWalletNotFound)
		}
		return nil, fmt.Errorf("GetByUserAndCurrency: %w", classify(err))
	}
	return w, nil
}

func (r *WalletRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Wallet, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE user_id = $1 ORDER BY currency`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByUserID: %w", classify(err))
	}
	defer rows.Close()

	var wallets []domain.Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, fmt.Errorf("GetByUserID: scan: %w", classify(err))
		}
		wallets = append(wallets, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetByUserID: rows: %w", classify(err))
	}
	return wallets, nil
}

// GetOrCreate returns the user's wallet in currency, creating an empty one
// first if none exists. Concurrent callers converge on the same row.
func (r *WalletRepository) GetOrCreate(ctx context.Context, userID uuid.UUID, currency domain.Currency) (*domain.Wallet, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO wallets (id, user_id, currency, balance)
		VALUES ($1, $2, $3, 0)
		ON CONFLICT (user_id, currency) DO NOTHING`,
		uuid.New(), userID, currency,
	)
	if err != nil {
		return nil, fmt.Errorf("GetOrCreate: %w", classify(err))
	}

	w, err := r.GetByUserAndCurrency(ctx, userID, currency)
	if err != nil {
		return nil, fmt.Errorf("GetOrCreate: %w", err)
	}
	return w, nil
}

// SetBalance overwrites a wallet balance outside the ledger. Only the seed
// command uses it, to fund demo wallets.
func (r *WalletRepository) SetBalance(ctx context.Context, id uuid.UUID, balance int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE wallets SET balance = $1, updated_at = now() WHERE id = $2`, balance, id,
	)
	if err != nil {
		return fmt.Errorf("SetBalance: %w", classify(err))
	}
	return requireOneRow(res, "SetBalance")
}

func (r *WalletRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Wallet, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE id = $1 FOR UPDATE`, id,
	)
	w, err := scanWallet(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrWalletNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", classify(err))
	}
	return w, nil
}

func (r *WalletRepository) UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, balance int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE wallets SET balance = $1, updated_at = now() WHERE id = $2`, balance, id,
	)
	if err != nil {
		return fmt.Errorf("UpdateBalance: %w", classify(err))
	}
	return requireOneRow(res, "UpdateBalance")
}

func requireOneRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, classify(err))
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrWalletNotFound)
	}
	return nil
}

func scanWallet(s scanner) (*domain.Wallet, error) {
	var w domain.Wallet
	err := s.Scan(&w.ID, &w.UserID, &w.Currency, &w.Balance, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}
