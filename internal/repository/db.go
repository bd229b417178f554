package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/josh-kwaku/mini-banking-ledger/internal/domain"
	"github.com/lib/pq"
)

type scanner interface {
	Scan(dest ...any) error
}

const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
	codeUniqueViolation      = "23505"
)

// classify maps driver errors onto the domain taxonomy. Errors that already
// carry a domain meaning, and context cancellation, are returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}

	if isDomainError(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
			return fmt.Errorf("%w: %w", domain.ErrConcurrencyConflict, err)
		}
	}
	return fmt.Errorf("%w: %w", domain.ErrStoreFailure, err)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == codeUniqueViolation
}

var domainErrors = []error{
	domain.ErrNotFound,
	domain.ErrInvalidAmount,
	domain.ErrSameWallet,
	domain.ErrWalletNotFound,
	domain.ErrCurrencyMismatch,
	domain.ErrInsufficientFunds,
	domain.ErrConcurrencyConflict,
	domain.ErrStoreFailure,
	domain.ErrInvalidCurrency,
	domain.ErrInvalidPagination,
	domain.ErrInvalidTransactionType,
	domain.ErrInvalidRequest,
	domain.ErrEmailTaken,
	domain.ErrInvalidCredentials,
}

func isDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
