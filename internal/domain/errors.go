package domain

import "errors"

var (
	ErrNotFound               = errors.New("not found")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrSameWallet             = errors.New("source and destination wallet are the same")
	ErrWalletNotFound         = errors.New("wallet not found")
	ErrCurrencyMismatch       = errors.New("currency mismatch")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrConcurrencyConflict    = errors.New("concurrency conflict")
	ErrStoreFailure           = errors.New("store failure")
	ErrInvalidCurrency        = errors.New("invalid currency")
	ErrInvalidPagination      = errors.New("page and limit must be positive integers")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrInvalidRequest         = errors.New("invalid request")
	ErrEmailTaken             = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid email or password")
)

// IsRetryable reports whether resubmitting the same request may succeed.
// Resubmission always creates a new transaction.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict) || errors.Is(err, ErrStoreFailure)
}
