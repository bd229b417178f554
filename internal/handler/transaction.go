package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/josh-kwaku/mini-banking-ledger/internal/domain"
	"github.com/josh-kwaku/mini-banking-ledger/internal/logging"
	"github.com/josh-kwaku/mini-banking-ledger/internal/service/ledger"
)

type ledgerService interface {
	Transfer(ctx context.Context, req ledger.TransferRequest) (*domain.Transaction, error)
	Exchange(ctx context.Context, req ledger.ExchangeRequest) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, req ledger.ListTransactionsRequest) (*domain.TransactionPage, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*domain.TransactionDetail, error)
}

type TransactionHandler struct {
	ledger  ledgerService
	wallets walletGetter
}

func NewTransactionHandler(ledgerSvc ledgerService, wallets walletGetter) *TransactionHandler {
	return &TransactionHandler{ledger: ledgerSvc, wallets: wallets}
}

type transferRequest struct {
	FromWalletID uuid.UUID   `json:"from_wallet_id"`
	ToWalletID   uuid.UUID   `json:"to_wallet_id"`
	Amount       amountInput `json:"amount"`
}

func (r transferRequest) Validate() []FieldError {
	var errs []FieldError
	if r.FromWalletID == uuid.Nil {
		errs = append(errs, FieldError{Field: "from_wallet_id", Message: "required"})
	}
	if r.ToWalletID == uuid.Nil {
		errs = append(errs, FieldError{Field: "to_wallet_id", Message: "required"})
	}
	if r.Amount == "" {
		errs = append(errs, FieldError{Field: "amount", Message: "required"})
	}
	return errs
}

type exchangeRequest struct {
	USDWalletID  uuid.UUID   `json:"usd_wallet_id"`
	EURWalletID  uuid.UUID   `json:"eur_wallet_id"`
	FromCurrency string      `json:"from_currency"`
	Amount       amountInput `json:"amount"`
}

func (r exchangeRequest) Validate() []FieldError {
	var errs []FieldError
	if r.USDWalletID == uuid.Nil {
		errs = append(errs, FieldError{Field: "usd_wallet_id", Message: "required"})
	}
	if r.EURWalletID == uuid.Nil {
		errs = append(errs, FieldError{Field: "eur_wallet_id", Message: "required"})
	}
	if r.FromCurrency == "" {
		errs = append(errs, FieldError{Field: "from_currency", Message: "required"})
	} else if !domain.Currency(r.FromCurrency).IsValid() {
		errs = append(errs, FieldError{Field: "from_currency", Message: "must be USD or EUR"})
	}
	if r.Amount == "" {
		errs = append(errs, FieldError{Field: "amount", Message: "required"})
	}
	return errs
}

// debitedWallet is the wallet money leaves in an exchange.
func (r exchangeRequest) debitedWallet() uuid.UUID {
	if domain.Currency(r.FromCurrency) == domain.CurrencyEUR {
		return r.EURWalletID
	}
	return r.USDWalletID
}

func (h *TransactionHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}
	if appErr := requireDebitOwner(r, h.wallets, req.FromWalletID); appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	txn, err := h.ledger.Transfer(r.Context(), ledger.TransferRequest{
		FromWalletID: req.FromWalletID,
		ToWalletID:   req.ToWalletID,
		Amount:       string(req.Amount),
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("transfer rejected", "error", err)
		RespondDomainError(w, err)
		return
	}

	h.respondDetail(w, r, txn)
}

func (h *TransactionHandler) Exchange(w http.ResponseWriter, r *http.Request) {
	var req exchangeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}
	if appErr := requireDebitOwner(r, h.wallets, req.debitedWallet()); appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	txn, err := h.ledger.Exchange(r.Context(), ledger.ExchangeRequest{
		USDWalletID:  req.USDWalletID,
		EURWalletID:  req.EURWalletID,
		FromCurrency: domain.Currency(req.FromCurrency),
		Amount:       string(req.Amount),
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("exchange rejected", "error", err)
		RespondDomainError(w, err)
		return
	}

	h.respondDetail(w, r, txn)
}

type transactionDetailDTO struct {
	transactionDTO
	Entries []ledgerEntryDTO `json:"entries"`
}

// respondDetail answers 201 with the committed transaction and its entries.
func (h *TransactionHandler) respondDetail(w http.ResponseWriter, r *http.Request, txn *domain.Transaction) {
	detail, err := h.ledger.GetTransaction(r.Context(), txn.ID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("committed transaction detail unavailable", "transaction_id", txn.ID, "error", err)
		RespondSuccess(w, http.StatusCreated, transactionDetailDTO{transactionDTO: toTransactionDTO(txn), Entries: []ledgerEntryDTO{}})
		return
	}
	RespondSuccess(w, http.StatusCreated, transactionDetailDTO{
		transactionDTO: toTransactionDTO(&detail.Transaction),
		Entries:        toLedgerEntryDTOs(detail.Entries),
	})
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, appErr := pagination(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	result, err := h.ledger.ListTransactions(r.Context(), ledger.ListTransactionsRequest{
		Type:  r.URL.Query().Get("type"),
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, pageDTO[transactionDTO]{
		Items: toTransactionDTOs(result.Items),
		Total: result.Total,
		Page:  result.Page,
		Limit: result.Limit,
	})
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	detail, err := h.ledger.GetTransaction(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, transactionDetailDTO{
		transactionDTO: toTransactionDTO(&detail.Transaction),
		Entries:        toLedgerEntryDTOs(detail.Entries),
	})
}
