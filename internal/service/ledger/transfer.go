package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/josh-kwaku/mini-banking-ledger/internal/domain"
	"github.com/josh-kwaku/mini-banking-ledger/internal/logging"
)

type TransferRequest struct {
	FromWalletID uuid.UUID
	ToWalletID   uuid.UUID
	// Amount is a decimal string with at most two fractional digits.
	Amount string
}

// Transfer moves money between two wallets of the same currency.
func (s *Service) Transfer(ctx context.Context, req TransferRequest) (*domain.Transaction, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.Transfer", trace.WithAttributes(
		attribute.String("ledger.from_wallet_id", req.FromWalletID.String()),
		attribute.String("ledger.to_wallet_id", req.ToWalletID.String()),
	))
	defer span.End()

	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("Transfer: %w", err)
	}
	if req.FromWalletID == req.ToWalletID {
		recordError(span, domain.ErrSameWallet)
		return nil, fmt.Errorf("Transfer: %w", domain.ErrSameWallet)
	}

	var txn *domain.Transaction
	err = s.withRetry(ctx, "transfer", func(ctx context.Context) error {
		return s.uow.Serializable(ctx, func(ctx context.Context, tx domain.LedgerTx) error {
			t, err := s.executeTransfer(ctx, tx, req.FromWalletID, req.ToWalletID, amount)
			if err != nil {
				return err
			}
			txn = t
			return nil
		})
	})
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("Transfer: %w", err)
	}

	span.SetAttributes(attribute.String("ledger.transaction_id", txn.ID.String()))
	logging.FromContext(ctx).Info("transfer committed",
		"transaction_id", txn.ID,
		"from_wallet", req.FromWalletID,
		"to_wallet", req.ToWalletID,
		"amount", amount,
		"currency", txn.Currency,
	)
	return txn, nil
}

func (s *Service) executeTransfer(ctx context.Context, tx domain.LedgerTx, fromID, toID uuid.UUID, amount int64) (*domain.Transaction, error) {
	locked, err := lockWalletsInOrder(ctx, tx, fromID, toID)
	if err != nil {
		return nil, fmt.Errorf("executeTransfer: %w", err)
	}
	from, to := locked[fromID], locked[toID]

	if from.Currency != to.Currency {
		return nil, fmt.Errorf("executeTransfer: %s to %s: %w", from.Currency, to.Currency, domain.ErrCurrencyMismatch)
	}

	txn := &domain.Transaction{
		ID:        uuid.New(),
		Type:      domain.TransactionTypeTransfer,
		Amount:    amount,
		Currency:  from.Currency,
		CreatedAt: s.now(),
	}
	if err := s.post(ctx, tx, txn, posting{wallet: from, amount: amount}, posting{wallet: to, amount: amount}); err != nil {
		return nil, fmt.Errorf("executeTransfer: %w", err)
	}
	return txn, nil
}
