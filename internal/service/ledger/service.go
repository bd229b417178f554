// Package ledger moves money between wallets. Every movement runs inside one
// serializable unit of work, takes wallet locks in ascending id order and
// records a balanced debit/credit pair.
package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/josh-kwaku/mini-banking-ledger/internal/domain"
	"github.com/josh-kwaku/mini-banking-ledger/internal/fx"
	"github.com/josh-kwaku/mini-banking-ledger/internal/logging"
)

const tracerName = "github.com/josh-kwaku/mini-banking-ledger/internal/service/ledger"

type unitOfWork interface {
	Serializable(ctx context.Context, fn func(ctx context.Context, tx domain.LedgerTx) error) error
}

type transactionReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	List(ctx context.Context, filter domain.TransactionFilter, limit, offset int) ([]domain.Transaction, int, error)
}

type entryReader interface {
	GetByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]domain.LedgerEntry, error)
}

type rateConverter interface {
	Convert(ctx context.Context, amount int64, from, to domain.Currency) (*fx.Conversion, error)
}

type Config struct {
	// MaxRetries is how many times a movement is re-run after a concurrency
	// conflict before the conflict is returned to the caller.
	MaxRetries     int
	RetryBaseDelay time.Duration
	Now            func() time.Time
}

type Service struct {
	uow        unitOfWork
	txns       transactionReader
	entries    entryReader
	fx         rateConverter
	maxRetries int
	baseDelay  time.Duration
	now        func() time.Time
	tracer     trace.Tracer
}

func NewService(uow unitOfWork, txns transactionReader, entries entryReader, fxSvc rateConverter, cfg Config) *Service {
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	baseDelay := cfg.RetryBaseDelay
	if baseDelay <= 0 {
		baseDelay = 20 * time.Millisecond
	}
	return &Service{
		uow:        uow,
		txns:       txns,
		entries:    entries,
		fx:         fxSvc,
		maxRetries: max(cfg.MaxRetries, 0),
		baseDelay:  baseDelay,
		now:        now,
		tracer:     otel.Tracer(tracerName),
	}
}

// withRetry re-runs fn while it fails with a concurrency conflict. Each
// attempt is a fresh unit of work, so nothing from a failed attempt survives.
func (s *Service) withRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	delay := s.baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil || !errors.Is(err, domain.ErrConcurrencyConflict) || attempt >= s.maxRetries {
			return err
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("withRetry: %w", errors.Join(err, ctxErr))
		}

		logging.FromContext(ctx).Warn("ledger conflict, retrying",
			"operation", op,
			"attempt", attempt+1,
			"max_retries", s.maxRetries,
			"error", err,
		)

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("withRetry: %w", errors.Join(err, ctx.Err()))
		}
		delay *= 2
	}
}

func lockWalletsInOrder(ctx context.Context, tx domain.LedgerTx, ids ...uuid.UUID) (map[uuid.UUID]*domain.Wallet, error) {
	sorted := make([]uuid.UUID, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i][:], sorted[j][:]) < 0
	})

	result := make(map[uuid.UUID]*domain.Wallet, len(ids))
	for _, id := range sorted {
		w, err := tx.LockWallet(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("lockWalletsInOrder: %w", err)
		}
		result[id] = w
	}
	return result, nil
}

type posting struct {
	wallet *domain.Wallet
	amount int64
}

// post creates txn, moves the balances and writes the two ledger entries.
// Both wallets must already be locked by tx.
func (s *Service) post(ctx context.Context, tx domain.LedgerTx, txn *domain.Transaction, debit, credit posting) error {
	if debit.wallet.Balance < debit.amount {
		return fmt.Errorf("post: wallet %s: %w", debit.wallet.ID, domain.ErrInsufficientFunds)
	}
	if credit.wallet.Balance > math.MaxInt64-credit.amount {
		return fmt.Errorf("post: wallet %s balance would overflow: %w", credit.wallet.ID, domain.ErrInvalidAmount)
	}

	if err := tx.CreateTransaction(ctx, txn); err != nil {
		return fmt.Errorf("post: create transaction: %w", err)
	}

	debitAfter := debit.wallet.Balance - debit.amount
	creditAfter := credit.wallet.Balance + credit.amount

	if err := tx.UpdateWalletBalance(ctx, debit.wallet.ID, debitAfter); err != nil {
		return fmt.Errorf("post: debit: %w", err)
	}
	if err := tx.UpdateWalletBalance(ctx, credit.wallet.ID, creditAfter); err != nil {
		return fmt.Errorf("post: credit: %w", err)
	}

	entries := []domain.LedgerEntry{
		{
			ID:            uuid.New(),
			TransactionID: txn.ID,
			WalletID:      debit.wallet.ID,
			Direction:     domain.DirectionDebit,
			Amount:        debit.amount,
			Currency:      debit.wallet.Currency,
			BalanceBefore: debit.wallet.Balance,
			BalanceAfter:  debitAfter,
			CreatedAt:     txn.CreatedAt,
		},
		{
			ID:            uuid.New(),
			TransactionID: txn.ID,
			WalletID:      credit.wallet.ID,
			Direction:     domain.DirectionCredit,
			Amount:        credit.amount,
			Currency:      credit.wallet.Currency,
			BalanceBefore: credit.wallet.Balance,
			BalanceAfter:  creditAfter,
			CreatedAt:     txn.CreatedAt,
		},
	}
	for i := range entries {
		if err := tx.CreateLedgerEntry(ctx, &entries[i]); err != nil {
			return fmt.Errorf("post: %s entry: %w", entries[i].Direction, err)
		}
	}
	return nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
