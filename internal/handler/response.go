package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/josh-kwaku/mini-banking-ledger/internal/domain"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondSuccess(w http.ResponseWriter, status int, data any) {
	RespondJSON(w, status, APIResponse{Success: true, Data: data})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError, details any) {
	RespondJSON(w, appErr.Status, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	})
}

func RespondValidationError(w http.ResponseWriter, fields []FieldError) {
	RespondAppError(w, ErrValidationFailed, fields)
}

var domainErrorMap = []struct {
	err    error
	appErr *AppError
}{
	{domain.ErrWalletNotFound, ErrWalletNotFound},
	{domain.ErrNotFound, ErrResourceNotFound},
	{domain.ErrInvalidAmount, ErrInvalidAmount},
	{domain.ErrInvalidCurrency, ErrInvalidCurrency},
	{domain.ErrInvalidPagination, ErrInvalidPagination},
	{domain.ErrInvalidTransactionType, ErrInvalidTransactionType},
	{domain.ErrSameWallet, ErrSameWallet},
	{domain.ErrCurrencyMismatch, ErrCurrencyMismatch},
	{domain.ErrInsufficientFunds, ErrInsufficientFunds},
	{domain.ErrConcurrencyConflict, ErrConcurrencyConflict},
	{domain.ErrStoreFailure, ErrStoreFailure},
	{domain.ErrEmailTaken, ErrEmailTaken},
	{domain.ErrInvalidCredentials, ErrInvalidCredentials},
	{domain.ErrInvalidRequest, ErrInvalidRequest},
}

// AppErrorFor maps a domain error to its HTTP representation. Unknown errors
// become ErrInternalError.
func AppErrorFor(err error) *AppError {
	for _, m := range domainErrorMap {
		if errors.Is(err, m.err) {
			return m.appErr
		}
	}
	return ErrInternalError
}

func RespondDomainError(w http.ResponseWriter, err error) {
	appErr := AppErrorFor(err)
	if appErr == ErrInternalError {
		slog.Error("unhandled domain error", "error", err)
	}
	RespondAppError(w, appErr, nil)
}

// MaxBodyBytes caps every request body read by the API.
const MaxBodyBytes = 1 << 20

// decodeJSON rejects unknown fields and trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}
