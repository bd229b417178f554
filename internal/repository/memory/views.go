package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/josh-kwaku/mini-banking-ledger/internal/domain"
)

// Wallets exposes read and lazy-create access to wallets.
func (s *Store) Wallets() *Wallets { return &Wallets{s: s} }

// Transactions exposes read access to committed transactions.
func (s *Store) Transactions() *Transactions { return &Transactions{s: s} }

// Ledger exposes read access to committed ledger entries.
func (s *Store) Ledger() *Ledger { return &Ledger{s: s} }

type Wallets struct{ s *Store }

func (v *Wallets) GetByID(_ context.Context, id uuid.UUID) (*domain.Wallet, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	w, ok := v.s.wallets[id]
	if !ok {
		return nil, fmt.Errorf("GetByID: %w", domain.ErrWalletNotFound)
	}
	cp := *w
	return &cp, nil
}

func (v *Wallets) GetByUserID(_ context.Context, userID uuid.UUID) ([]domain.Wallet, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var out []domain.Wallet
	for _, c := range domain.SupportedCurrencies {
		if w := v.s.findWallet(userID, c); w != nil {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (v *Wallets) GetOrCreate(_ context.Context, userID uuid.UUID, currency domain.Currency) (*domain.Wallet, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	w := v.s.findWallet(userID, currency)
	if w == nil {
		w = v.s.createWallet(userID, currency, 0)
	}
	cp := *w
	return &cp, nil
}

func (s *Store) findWallet(userID uuid.UUID, currency domain.Currency) *domain.Wallet {
	for _, w := range s.wallets {
		if w.UserID == userID && w.Currency == currency {
			return w
		}
	}
	return nil
}

type Transactions struct{ s *Store }

func (v *Transactions) GetByID(_ context.Context, id uuid.UUID) (*domain.Transaction, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for _, t := range v.s.txns {
		if t.ID == id {
			cp := t
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
}

func (v *Transactions) List(_ context.Context, filter domain.TransactionFilter, limit, offset int) ([]domain.Transaction, int, error) {
	v.s.mu.Lock()
	matched := make([]domain.Transaction, 0, len(v.s.txns))
	for _, t := range v.s.txns {
		if filter.Type == nil || t.Type == *filter.Type {
			matched = append(matched, t)
		}
	}
	v.s.mu.Unlock()

	newestFirst(matched)
	total := len(matched)
	if offset >= total {
		return []domain.Transaction{}, total, nil
	}
	end := min(offset+limit, total)
	return matched[offset:end], total, nil
}

func (v *Transactions) ListByUserID(_ context.Context, userID uuid.UUID, limit int) ([]domain.Transaction, error) {
	v.s.mu.Lock()
	matched := []domain.Transaction{}
	for _, t := range v.s.txns {
		for _, e := range v.s.entries[t.ID] {
			if w, ok := v.s.wallets[e.WalletID]; ok && w.UserID == userID {
				matched = append(matched, t)
				break
			}
		}
	}
	v.s.mu.Unlock()

	newestFirst(matched)
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

type Ledger struct{ s *Store }

func (v *Ledger) GetByTransactionID(_ context.Context, transactionID uuid.UUID) ([]domain.LedgerEntry, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	out := []domain.LedgerEntry{}
	for _, e := range v.s.entries[transactionID] {
		if e.Direction == domain.DirectionDebit {
			out = append([]domain.LedgerEntry{e}, out...)
		} else {
			out = append(out, e)
		}
	}
	return out, nil
}

func (v *Ledger) GetByWalletID(_ context.Context, walletID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error) {
	v.s.mu.Lock()
	matched := []domain.LedgerEntry{}
	for i := len(v.s.txns) - 1; i >= 0; i-- {
		for _, e := range v.s.entries[v.s.txns[i].ID] {
			if e.WalletID == walletID {
				matched = append(matched, e)
			}
		}
	}
	v.s.mu.Unlock()

	total := len(matched)
	if offset >= total {
		return []domain.LedgerEntry{}, total, nil
	}
	return matched[offset:min(offset+limit, total)], total, nil
}
