package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/josh-kwaku/mini-banking-ledger/internal/auth"
	"github.com/josh-kwaku/mini-banking-ledger/internal/domain"
)

type walletGetter interface {
	GetWallet(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
}

func callerID(r *http.Request) (uuid.UUID, *AppError) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, ErrMissingToken
	}
	return userID, nil
}

// ownedWalletFromPath resolves the {id} path value to a wallet of the caller.
// Wallets of other users are reported as not found.
func ownedWalletFromPath(r *http.Request, wallets walletGetter) (*domain.Wallet, *AppError) {
	userID, appErr := callerID(r)
	if appErr != nil {
		return nil, appErr
	}

	walletID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return nil, ErrWalletNotFound
	}

	wallet, err := wallets.GetWallet(r.Context(), walletID)
	if err != nil {
		return nil, AppErrorFor(err)
	}
	if wallet.UserID != userID {
		return nil, ErrWalletNotFound
	}
	return wallet, nil
}

// requireDebitOwner checks the wallet money leaves belongs to the caller.
func requireDebitOwner(r *http.Request, wallets walletGetter, walletID uuid.UUID) *AppError {
	userID, appErr := callerID(r)
	if appErr != nil {
		return appErr
	}

	wallet, err := wallets.GetWallet(r.Context(), walletID)
	if err != nil {
		return AppErrorFor(err)
	}
	if wallet.UserID != userID {
		return ErrForbidden
	}
	return nil
}
