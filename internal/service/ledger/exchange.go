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

type ExchangeRequest struct {
	USDWalletID uuid.UUID
	EURWalletID uuid.UUID
	// FromCurrency selects the debited wallet. The other wallet is credited
	// with the converted amount.
	FromCurrency domain.Currency
	Amount       string
}

// Exchange converts money between a USD wallet and an EUR wallet at the fixed rate.
func (s *Service) Exchange(ctx context.Context, req ExchangeRequest) (*domain.Transaction, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.Exchange", trace.WithAttributes(
		attribute.String("ledger.usd_wallet_id", req.USDWalletID.String()),
		attribute.String("ledger.eur_wallet_id", req.EURWalletID.String()),
		attribute.String("ledger.from_currency", string(req.FromCurrency)),
	))
	defer span.End()

	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("Exchange: %w", err)
	}
	if !req.FromCurrency.IsValid() {
		recordError(span, domain.ErrInvalidCurrency)
		return nil, fmt.Errorf("Exchange: %q: %w", req.FromCurrency, domain.ErrInvalidCurrency)
	}
	if req.USDWalletID == req.EURWalletID {
		recordError(span, domain.ErrSameWallet)
		return nil, fmt.Errorf("Exchange: %w", domain.ErrSameWallet)
	}

	var (
		txn      *domain.Transaction
		credited int64
	)
	err = s.withRetry(ctx, "exchange", func(ctx context.Context) error {
		return s.uow.Serializable(ctx, func(ctx context.Context, tx domain.LedgerTx) error {
			t, c, err := s.executeExchange(ctx, tx, req, amount)
			if err != nil {
				return err
			}
			txn, credited = t, c
			return nil
		})
	})
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("Exchange: %w", err)
	}

	span.SetAttributes(attribute.String("ledger.transaction_id", txn.ID.String()))
	logging.FromContext(ctx).Info("exchange committed",
		"transaction_id", txn.ID,
		"usd_wallet", req.USDWalletID,
		"eur_wallet", req.EURWalletID,
		"from_currency", req.FromCurrency,
		"debited", amount,
		"credited", credited,
	)
	return txn, nil
}

func (s *Service) executeExchange(ctx context.Context, tx domain.LedgerTx, req ExchangeRequest, amount int64) (*domain.Transaction, int64, error) {
	locked, err := lockWalletsInOrder(ctx, tx, req.USDWalletID, req.EURWalletID)
	if err != nil {
		return nil, 0, fmt.Errorf("executeExchange: %w", err)
	}
	usd, eur := locked[req.USDWalletID], locked[req.EURWalletID]

	if usd.Currency != domain.CurrencyUSD {
		return nil, 0, fmt.Errorf("executeExchange: usd wallet holds %s: %w", usd.Currency, domain.ErrCurrencyMismatch)
	}
	if eur.Currency != domain.CurrencyEUR {
		return nil, 0, fmt.Errorf("executeExchange: eur wallet holds %s: %w", eur.Currency, domain.ErrCurrencyMismatch)
	}

	debit, credit := usd, eur
	if req.FromCurrency == domain.CurrencyEUR {
		debit, credit = eur, usd
	}

	conv, err := s.fx.Convert(ctx, amount, debit.Currency, credit.Currency)
	if err != nil {
		return nil, 0, fmt.Errorf("executeExchange: %w", err)
	}
	if conv.DestAmount <= 0 {
		return nil, 0, fmt.Errorf("executeExchange: %d %s converts to nothing: %w", amount, debit.Currency, domain.ErrInvalidAmount)
	}

	txn := &domain.Transaction{
		ID:        uuid.New(),
		Type:      domain.TransactionTypeExchange,
		Amount:    amount,
		Currency:  req.FromCurrency,
		CreatedAt: s.now(),
	}
	if err := s.post(ctx, tx, txn, posting{wallet: debit, amount: amount}, posting{wallet: credit, amount: conv.DestAmount}); err != nil {
		return nil, 0, fmt.Errorf("executeExchange: %w", err)
	}
	return txn, conv.DestAmount, nil
}
