package main

import (
	"net/http"

	"github.com/josh-kwaku/mini-banking-ledger/docs"
	"github.com/josh-kwaku/mini-banking-ledger/internal/handler"
	"github.com/josh-kwaku/mini-banking-ledger/internal/middleware"
)

type handlers struct {
	health       *handler.HealthHandler
	auth         *handler.AuthHandler
	wallets      *handler.WalletHandler
	transactions *handler.TransactionHandler
	fx           *handler.FXHandler
}

type chain []func(http.Handler) http.Handler

// then wraps h so that the first middleware in c is the outermost.
func (c chain) then(h http.HandlerFunc) http.Handler {
	var out http.Handler = h
	for i := len(c) - 1; i >= 0; i-- {
		out = c[i](out)
	}
	return out
}

func routes(h handlers, authMW, idempotencyMW func(http.Handler) http.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.health.Liveness)
	mux.HandleFunc("GET /ready", h.health.Readiness)
	mux.HandleFunc("GET /docs", handler.ServeDocs())
	mux.HandleFunc("GET /docs/openapi.yaml", handler.ServeSpec(docs.OpenAPI))

	mux.HandleFunc("POST /api/auth/register", h.auth.Register)
	mux.HandleFunc("POST /api/auth/login", h.auth.Login)

	authed := chain{authMW}
	mux.Handle("GET /api/accounts/wallets", authed.then(h.wallets.List))
	mux.Handle("GET /api/accounts/wallets/{id}/entries", authed.then(h.wallets.Entries))
	mux.Handle("GET /api/accounts/balances", authed.then(h.wallets.Balances))
	mux.Handle("GET /api/accounts/last-transactions", authed.then(h.wallets.LastTransactions))

	mux.Handle("GET /api/transactions", authed.then(h.transactions.List))
	mux.Handle("GET /api/transactions/{id}", authed.then(h.transactions.Get))

	writes := chain{authMW, idempotencyMW}
	mux.Handle("POST /api/transactions/transfer", writes.then(h.transactions.Transfer))
	mux.Handle("POST /api/transactions/exchange", writes.then(h.transactions.Exchange))

	mux.Handle("GET /api/fx/rate", authed.then(h.fx.GetRate))

	return mux
}

// withMiddleware applies the middleware every request passes through.
func withMiddleware(mux http.Handler, corsOrigin string, logger func(http.Handler) http.Handler) http.Handler {
	return chain{
		middleware.RequestID,
		logger,
		middleware.Recovery,
		middleware.CORS(corsOrigin),
	}.then(mux.ServeHTTP)
}
