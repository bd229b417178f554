package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/mini-banking-ledger/internal/domain"
	"github.com/josh-kwaku/mini-banking-ledger/internal/logging"
)

type userService interface {
	Register(ctx context.Context, email, password string) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
}

type walletProvisioner interface {
	EnsureWallets(ctx context.Context, userID uuid.UUID) ([]domain.Wallet, error)
}

type tokenIssuer interface {
	Issue(userID uuid.UUID, email string) (string, time.Time, error)
}

type AuthHandler struct {
	users   userService
	wallets walletProvisioner
	tokens  tokenIssuer
}

func NewAuthHandler(users userService, wallets walletProvisioner, tokens tokenIssuer) *AuthHandler {
	return &AuthHandler{users: users, wallets: wallets, tokens: tokens}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r credentialsRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "required"})
	}
	if r.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "required"})
	}
	return errs
}

type userDTO struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type authResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      userDTO     `json:"user"`
	Wallets   []walletDTO `json:"wallets,omitempty"`
}

// Register creates a user with empty USD and EUR wallets and returns a token.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	log := logging.FromContext(r.Context())

	user, err := h.users.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		log.Warn("registration rejected", "error", err)
		RespondDomainError(w, err)
		return
	}

	wallets, err := h.wallets.EnsureWallets(r.Context(), user.ID)
	if err != nil {
		log.Error("failed to provision wallets", "user_id", user.ID, "error", err)
		RespondDomainError(w, err)
		return
	}

	resp, appErr := h.authResponse(user)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	resp.Wallets = make([]walletDTO, len(wallets))
	for i := range wallets {
		resp.Wallets[i] = toWalletDTO(&wallets[i])
	}

	RespondSuccess(w, http.StatusCreated, resp)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	resp, appErr := h.authResponse(user)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	RespondSuccess(w, http.StatusOK, resp)
}

func (h *AuthHandler) authResponse(user *domain.User) (*authResponse, *AppError) {
	token, expiresAt, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, ErrInternalError
	}
	return &authResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      userDTO{ID: user.ID, Email: user.Email, CreatedAt: user.CreatedAt},
	}, nil
}
