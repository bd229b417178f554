package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/josh-kwaku/mini-banking-ledger/internal/domain"
	"github.com/josh-kwaku/mini-banking-ledger/internal/logging"
)

type walletService interface {
	walletGetter
	EnsureWallets(ctx context.Context, userID uuid.UUID) ([]domain.Wallet, error)
	Balances(ctx context.Context, userID uuid.UUID) (map[domain.Currency]int64, error)
	LastTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Transaction, error)
	Statement(ctx context.Context, walletID uuid.UUID, page, limit int) ([]domain.LedgerEntry, int, error)
}

type WalletHandler struct {
	wallets walletService
}

func NewWalletHandler(wallets walletService) *WalletHandler {
	return &WalletHandler{wallets: wallets}
}

func (h *WalletHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	wallets, err := h.wallets.EnsureWallets(r.Context(), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list wallets", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]walletDTO, len(wallets))
	for i := range wallets {
		dtos[i] = toWalletDTO(&wallets[i])
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *WalletHandler) Balances(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	balances, err := h.wallets.Balances(r.Context(), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to load balances", "error", err)
		RespondDomainError(w, err)
		return
	}

	out := make(map[string]money, len(balances))
	for c, b := range balances {
		out[string(c)] = toMoney(b, c)
	}
	RespondSuccess(w, http.StatusOK, out)
}

func (h *WalletHandler) LastTransactions(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			RespondValidationError(w, []FieldError{{Field: "limit", Message: "must be a positive integer"}})
			return
		}
		limit = n
	}

	txns, err := h.wallets.LastTransactions(r.Context(), userID, limit)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to load last transactions", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toTransactionDTOs(txns))
}

func (h *WalletHandler) Entries(w http.ResponseWriter, r *http.Request) {
	wallet, appErr := ownedWalletFromPath(r, h.wallets)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	page, limit, appErr := pagination(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	entries, total, err := h.wallets.Statement(r.Context(), wallet.ID, page, limit)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to load wallet entries", "wallet_id", wallet.ID, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, pageDTO[ledgerEntryDTO]{
		Items: toLedgerEntryDTOs(entries),
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// pagination reads page and limit query values, applying defaults when absent.
func pagination(r *http.Request) (page, limit int, appErr *AppError) {
	q := r.URL.Query()
	page, limit = defaultPage, defaultLimit

	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return 0, 0, ErrInvalidPagination
		}
		page = n
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxLimit {
			return 0, 0, ErrInvalidPagination
		}
		limit = n
	}
	return page, limit, nil
}
