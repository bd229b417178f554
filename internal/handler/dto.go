package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/mini-banking-ledger/internal/domain"
)

// amountInput accepts an amount as a JSON string ("12.50") or number (12.5).
// The text is kept verbatim and parsed by the ledger.
type amountInput string

func (a *amountInput) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amountInput(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("amount must be a string or number: %w", err)
	}
	*a = amountInput(n.String())
	return nil
}

type money struct {
	Amount    int64  `json:"amount"`
	Formatted string `json:"formatted"`
	Currency  string `json:"currency"`
}

func toMoney(minor int64, c domain.Currency) money {
	return money{Amount: minor, Formatted: domain.FormatAmount(minor), Currency: string(c)}
}

type walletDTO struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Currency  string    `json:"currency"`
	Balance   money     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toWalletDTO(w *domain.Wallet) walletDTO {
	return walletDTO{
		ID:        w.ID,
		UserID:    w.UserID,
		Currency:  string(w.Currency),
		Balance:   toMoney(w.Balance, w.Currency),
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

type transactionDTO struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Amount    money     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

func toTransactionDTO(t *domain.Transaction) transactionDTO {
	return transactionDTO{
		ID:        t.ID,
		Type:      string(t.Type),
		Amount:    toMoney(t.Amount, t.Currency),
		CreatedAt: t.CreatedAt,
	}
}

func toTransactionDTOs(txns []domain.Transaction) []transactionDTO {
	dtos := make([]transactionDTO, len(txns))
	for i := range txns {
		dtos[i] = toTransactionDTO(&txns[i])
	}
	return dtos
}

type ledgerEntryDTO struct {
	ID            uuid.UUID `json:"id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	WalletID      uuid.UUID `json:"wallet_id"`
	Direction     string    `json:"direction"`
	Amount        money     `json:"amount"`
	BalanceBefore money     `json:"balance_before"`
	BalanceAfter  money     `json:"balance_after"`
	CreatedAt     time.Time `json:"created_at"`
}

func toLedgerEntryDTOs(entries []domain.LedgerEntry) []ledgerEntryDTO {
	dtos := make([]ledgerEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = ledgerEntryDTO{
			ID:            e.ID,
			TransactionID: e.TransactionID,
			WalletID:      e.WalletID,
			Direction:     string(e.Direction),
			Amount:        toMoney(e.Amount, e.Currency),
			BalanceBefore: toMoney(e.BalanceBefore, e.Currency),
			BalanceAfter:  toMoney(e.BalanceAfter, e.Currency),
			CreatedAt:     e.CreatedAt,
		}
	}
	return dtos
}

type pageDTO[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}
