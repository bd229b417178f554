package ledger

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/josh-kwaku/mini-banking-ledger/internal/domain"
)

type ListTransactionsRequest struct {
	// Type is "transfer", "exchange" or empty for both.
	Type  string
	Page  int
	Limit int
}

// ListTransactions returns committed transactions newest first.
func (s *Service) ListTransactions(ctx context.Context, req ListTransactionsRequest) (*domain.TransactionPage, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.ListTransactions", trace.WithAttributes(
		attribute.String("ledger.type", req.Type),
		attribute.Int("ledger.page", req.Page),
		attribute.Int("ledger.limit", req.Limit),
	))
	defer span.End()

	var filter domain.TransactionFilter
	if req.Type != "" {
		t := domain.TransactionType(req.Type)
		if !t.IsValid() {
			recordError(span, domain.ErrInvalidTransactionType)
			return nil, fmt.Errorf("ListTransactions: %q: %w", req.Type, domain.ErrInvalidTransactionType)
		}
		filter.Type = &t
	}
	if req.Page < 1 || req.Limit < 1 || req.Page-1 > math.MaxInt32/req.Limit {
		recordError(span, domain.ErrInvalidPagination)
		return nil, fmt.Errorf("ListTransactions: page=%d limit=%d: %w", req.Page, req.Limit, domain.ErrInvalidPagination)
	}

	items, total, err := s.txns.List(ctx, filter, req.Limit, (req.Page-1)*req.Limit)
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}

	return &domain.TransactionPage{
		Items: items,
		Total: total,
		Page:  req.Page,
		Limit: req.Limit,
	}, nil
}

// GetTransaction returns a transaction together with its ledger entries.
func (s *Service) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.TransactionDetail, error) {
	txn, err := s.txns.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetTransaction: %w", err)
	}

	entries, err := s.entries.GetByTransactionID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetTransaction: entries: %w", err)
	}

	return &domain.TransactionDetail{Transaction: *txn, Entries: entries}, nil
}
