package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/josh-kwaku/mini-banking-ledger/internal/domain"
	"github.com/josh-kwaku/mini-banking-ledger/internal/fx"
	"github.com/josh-kwaku/mini-banking-ledger/internal/logging"
)

type fxService interface {
	GetRate(ctx context.Context, from, to domain.Currency) (*fx.Quote, error)
}

type FXHandler struct {
	fx fxService
}

func NewFXHandler(fxSvc fxService) *FXHandler {
	return &FXHandler{fx: fxSvc}
}

type fxRateResponse struct {
	FromCurrency string `json:"from_currency"`
	ToCurrency   string `json:"to_currency"`
	Rate         string `json:"rate"`
	Timestamp    string `json:"timestamp"`
}

func (h *FXHandler) GetRate(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	if fields := validateFXRateParams(from, to); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	quote, err := h.fx.GetRate(r.Context(), domain.Currency(from), domain.Currency(to))
	if err != nil {
		logging.FromContext(r.Context()).Warn("fx rate lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, fxRateResponse{
		FromCurrency: string(quote.FromCurrency),
		ToCurrency:   string(quote.ToCurrency),
		Rate:         quote.Rate.String(),
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	})
}

func validateFXRateParams(from, to string) []FieldError {
	var errs []FieldError
	for _, p := range []struct{ field, value string }{{"from", from}, {"to", to}} {
		if p.value == "" {
			errs = append(errs, FieldError{Field: p.field, Message: "required"})
		} else if !domain.Currency(p.value).IsValid() {
			errs = append(errs, FieldError{Field: p.field, Message: "must be USD or EUR"})
		}
	}
	return errs
}
