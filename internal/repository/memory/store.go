// Package memory is an in-process ledger store with the same unit-of-work
// contract as the Postgres store. Wallet locks are held until the unit of
// work ends and writes become visible only on commit.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/josh-kwaku/mini-banking-ledger/internal/domain"
)

type Store struct {
	mu      sync.Mutex
	wallets map[uuid.UUID]*domain.Wallet
	locks   map[uuid.UUID]chan struct{}
	txns    []domain.Transaction
	entries map[uuid.UUID][]domain.LedgerEntry
	now     func() time.Time
}

func New() *Store {
	return &Store{
		wallets: make(map[uuid.UUID]*domain.Wallet),
		locks:   make(map[uuid.UUID]chan struct{}),
		entries: make(map[uuid.UUID][]domain.LedgerEntry),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SeedWallet creates a wallet with an opening balance outside the ledger.
func (s *Store) SeedWallet(userID uuid.UUID, currency domain.Currency, balance int64) domain.Wallet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.createWallet(userID, currency, balance)
}

func (s *Store) createWallet(userID uuid.UUID, currency domain.Currency, balance int64) *domain.Wallet {
	now := s.now()
	w := &domain.Wallet{
		ID:        uuid.New(),
		UserID:    userID,
		Currency:  currency,
		Balance:   balance,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.wallets[w.ID] = w
	s.locks[w.ID] = make(chan struct{}, 1)
	return w
}

// Balance returns the committed balance of a wallet.
func (s *Store) Balance(id uuid.UUID) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[id]
	if !ok {
		return 0, false
	}
	return w.Balance, true
}

// TransactionCount returns the number of committed transactions.
func (s *Store) TransactionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.txns)
}

func (s *Store) Serializable(ctx context.Context, fn func(ctx context.Context, tx domain.LedgerTx) error) error {
	utx := &unitTx{
		store:    s,
		held:     make(map[uuid.UUID]struct{}),
		balances: make(map[uuid.UUID]int64),
	}
	defer utx.release()

	if err := fn(ctx, utx); err != nil {
		return fmt.Errorf("Serializable: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("Serializable: commit: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, balance := range utx.balances {
		w := s.wallets[id]
		w.Balance = balance
		w.UpdatedAt = now
	}
	s.txns = append(s.txns, utx.txns...)
	for _, e := range utx.entries {
		s.entries[e.TransactionID] = append(s.entries[e.TransactionID], e)
	}
	return nil
}

type unitTx struct {
	store    *Store
	held     map[uuid.UUID]struct{}
	balances map[uuid.UUID]int64
	txns     []domain.Transaction
	entries  []domain.LedgerEntry
}

func (t *unitTx) LockWallet(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	if _, ok := t.held[id]; !ok {
		t.store.mu.Lock()
		lock, exists := t.store.locks[id]
		t.store.mu.Unlock()
		if !exists {
			return nil, fmt.Errorf("LockWallet: %w", domain.ErrWalletNotFound)
		}

		select {
		case lock <- struct{}{}:
			t.held[id] = struct{}{}
		case <-ctx.Done():
			return nil, fmt.Errorf("LockWallet: %w", ctx.Err())
		}
	}

	t.store.mu.Lock()
	w := *t.store.wallets[id]
	t.store.mu.Unlock()
	if staged, ok := t.balances[id]; ok {
		w.Balance = staged
	}
	return &w, nil
}

func (t *unitTx) UpdateWalletBalance(_ context.Context, id uuid.UUID, balance int64) error {
	if _, ok := t.held[id]; !ok {
		return fmt.Errorf("UpdateWalletBalance: wallet %s not locked: %w", id, domain.ErrStoreFailure)
	}
	if balance < 0 {
		return fmt.Errorf("UpdateWalletBalance: negative balance for %s: %w", id, domain.ErrStoreFailure)
	}
	t.balances[id] = balance
	return nil
}

func (t *unitTx) CreateTransaction(_ context.Context, txn *domain.Transaction) error {
	if txn.Amount <= 0 {
		return fmt.Errorf("CreateTransaction: non-positive amount: %w", domain.ErrStoreFailure)
	}
	t.txns = append(t.txns, *txn)
	return nil
}

func (t *unitTx) CreateLedgerEntry(_ context.Context, e *domain.LedgerEntry) error {
	if e.Amount <= 0 {
		return fmt.Errorf("CreateLedgerEntry: non-positive amount: %w", domain.ErrStoreFailure)
	}

	found := false
	for _, txn := range t.txns {
		if txn.ID == e.TransactionID {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("CreateLedgerEntry: unknown transaction %s: %w", e.TransactionID, domain.ErrStoreFailure)
	}
	for _, existing := range t.entries {
		if existing.TransactionID == e.TransactionID && existing.Direction == e.Direction {
			return fmt.Errorf("CreateLedgerEntry: duplicate %s entry: %w", e.Direction, domain.ErrStoreFailure)
		}
	}

	t.entries = append(t.entries, *e)
	return nil
}

func (t *unitTx) release() {
	for id := range t.held {
		t.store.mu.Lock()
		lock := t.store.locks[id]
		t.store.mu.Unlock()
		<-lock
	}
	t.held = nil
}

// newestFirst orders transactions by creation time, then id, descending.
func newestFirst(txns []domain.Transaction) {
	sort.SliceStable(txns, func(i, j int) bool {
		if !txns[i].CreatedAt.Equal(txns[j].CreatedAt) {
			return txns[i].CreatedAt.After(txns[j].CreatedAt)
		}
		return bytes.Compare(txns[i].ID[:], txns[j].ID[:]) > 0
	})
}
