package service

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/josh-kwaku/mini-banking-ledger/internal/domain"
	"github.com/josh-kwaku/mini-banking-ledger/internal/logging"
)

const (
	DefaultLastTransactions = 5
	MaxLastTransactions     = 50
)

type WalletService struct {
	wallets walletRepository
	txns    userTransactionReader
	entries walletEntryReader
}

func NewWalletService(wallets walletRepository, txns userTransactionReader, entries walletEntryReader) *WalletService {
	return &WalletService{wallets: wallets, txns: txns, entries: entries}
}

// GetOrCreateWallet returns the user's wallet in currency, creating an empty
// one on first use.
func (s *WalletService) GetOrCreateWallet(ctx context.Context, userID uuid.UUID, currency domain.Currency) (*domain.Wallet, error) {
	if !currency.IsValid() {
		return nil, fmt.Errorf("GetOrCreateWallet: %q: %w", currency, domain.ErrInvalidCurrency)
	}

	w, err := s.wallets.GetOrCreate(ctx, userID, currency)
	if err != nil {
		return nil, fmt.Errorf("GetOrCreateWallet: %w", err)
	}
	return w, nil
}

// EnsureWallets returns one wallet per supported currency for the user.
func (s *WalletService) EnsureWallets(ctx context.Context, userID uuid.UUID) ([]domain.Wallet, error) {
	existing, err := s.wallets.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("EnsureWallets: %w", err)
	}
	if len(existing) == len(domain.SupportedCurrencies) {
		return existing, nil
	}

	wallets := make([]domain.Wallet, 0, len(domain.SupportedCurrencies))
	for _, c := range domain.SupportedCurrencies {
		w, err := s.GetOrCreateWallet(ctx, userID, c)
		if err != nil {
			return nil, fmt.Errorf("EnsureWallets: %w", err)
		}
		wallets = append(wallets, *w)
	}

	logging.FromContext(ctx).Debug("wallets ensured", "user_id", userID, "count", len(wallets))
	return wallets, nil
}

func (s *WalletService) Balances(ctx context.Context, userID uuid.UUID) (map[domain.Currency]int64, error) {
	wallets, err := s.EnsureWallets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Balances: %w", err)
	}

	balances := make(map[domain.Currency]int64, len(wallets))
	for _, w := range wallets {
		balances[w.Currency] = w.Balance
	}
	return balances, nil
}

// LastTransactions returns the most recent transactions touching any of the
// user's wallets. A non-positive limit selects the default.
func (s *WalletService) LastTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = DefaultLastTransactions
	}
	limit = min(limit, MaxLastTransactions)

	txns, err := s.txns.ListByUserID(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("LastTransactions: %w", err)
	}
	return txns, nil
}

func (s *WalletService) GetWallet(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	w, err := s.wallets.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetWallet: %w", err)
	}
	return w, nil
}

// Statement returns one page of a wallet's ledger entries, newest first.
func (s *WalletService) Statement(ctx context.Context, walletID uuid.UUID, page, limit int) ([]domain.LedgerEntry, int, error) {
	if page < 1 || limit < 1 || page-1 > math.MaxInt32/limit {
		return nil, 0, fmt.Errorf("Statement: %w", domain.ErrInvalidPagination)
	}

	entries, total, err := s.entries.GetByWalletID(ctx, walletID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("Statement: %w", err)
	}
	return entries, total, nil
}
