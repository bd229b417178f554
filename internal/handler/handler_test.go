package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/josh-kwaku/mini-banking-ledger/internal/auth"
	"github.com/josh-kwaku/mini-banking-ledger/internal/domain"
	"github.com/josh-kwaku/mini-banking-ledger/internal/fx"
	"github.com/josh-kwaku/mini-banking-ledger/internal/handler"
	"github.com/josh-kwaku/mini-banking-ledger/internal/repository/memory"
	"github.com/josh-kwaku/mini-banking-ledger/internal/service"
	"github.com/josh-kwaku/mini-banking-ledger/internal/service/ledger"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	env := decode(t, rec)
	require.False(t, env.Success)
	require.NotNil(t, env.Error)
	return env.Error.Code
}

type fixture struct {
	store        *memory.Store
	wallets      *handler.WalletHandler
	transactions *handler.TransactionHandler
	alice        uuid.UUID
	aliceUSD     domain.Wallet
	aliceEUR     domain.Wallet
	bobUSD       domain.Wallet
}

func newFixture() *fixture {
	store := memory.New()
	walletSvc := service.NewWalletService(store.Wallets(), store.Transactions(), store.Ledger())
	ledgerSvc := ledger.NewService(store, store.Transactions(), store.Ledger(), fx.NewRateService(fx.DefaultRate), ledger.Config{MaxRetries: 1})

	alice, bob := uuid.New(), uuid.New()
	return &fixture{
		store:        store,
		wallets:      handler.NewWalletHandler(walletSvc),
		transactions: handler.NewTransactionHandler(ledgerSvc, walletSvc),
		alice:        alice,
		aliceUSD:     store.SeedWallet(alice, domain.CurrencyUSD, 100_000),
		aliceEUR:     store.SeedWallet(alice, domain.CurrencyEUR, 50_000),
		bobUSD:       store.SeedWallet(bob, domain.CurrencyUSD, 0),
	}
}

func asUser(req *http.Request, userID uuid.UUID) *http.Request {
	return req.WithContext(auth.ContextWithClaims(req.Context(), &auth.Claims{UserID: userID}))
}

func post(userID uuid.UUID, path, body string) *http.Request {
	return asUser(httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)), userID)
}

func TestTransfer(t *testing.T) {
	f := newFixture()

	body := fmt.Sprintf(`{"from_wallet_id":%q,"to_wallet_id":%q,"amount":"100.00"}`, f.aliceUSD.ID, f.bobUSD.ID)
	rec := httptest.NewRecorder()
	f.transactions.Transfer(rec, post(f.alice, "/api/transactions/transfer", body))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var detail struct {
		Type   string `json:"type"`
		Amount struct {
			Amount    int64  `json:"amount"`
			Formatted string `json:"formatted"`
			Currency  string `json:"currency"`
		} `json:"amount"`
		Entries []struct {
			Direction string `json:"direction"`
			WalletID  string `json:"wallet_id"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &detail))
	assert.Equal(t, "transfer", detail.Type)
	assert.Equal(t, int64(10_000), detail.Amount.Amount)
	assert.Equal(t, "100.00", detail.Amount.Formatted)
	assert.Equal(t, "USD", detail.Amount.Currency)
	require.Len(t, detail.Entries, 2)
	assert.Equal(t, "debit", detail.Entries[0].Direction)

	bal, _ := f.store.Balance(f.bobUSD.ID)
	assert.Equal(t, int64(10_000), bal)
}

func TestTransfer_NumericAmount(t *testing.T) {
	f := newFixture()

	body := fmt.Sprintf(`{"from_wallet_id":%q,"to_wallet_id":%q,"amount":12.5}`, f.aliceUSD.ID, f.bobUSD.ID)
	rec := httptest.NewRecorder()
	f.transactions.Transfer(rec, post(f.alice, "/api/transactions/transfer", body))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	bal, _ := f.store.Balance(f.bobUSD.ID)
	assert.Equal(t, int64(1_250), bal)
}

func TestTransfer_Rejections(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name   string
		user   uuid.UUID
		body   string
		status int
		code   string
	}{
		{
			name:   "malformed json",
			user:   f.alice,
			body:   `{"from_wallet_id":`,
			status: http.StatusBadRequest,
			code:   "INVALID_REQUEST",
		},
		{
			name:   "unknown field",
			user:   f.alice,
			body:   fmt.Sprintf(`{"from_wallet_id":%q,"to_wallet_id":%q,"amount":"1","memo":"x"}`, f.aliceUSD.ID, f.bobUSD.ID),
			status: http.StatusBadRequest,
			code:   "INVALID_REQUEST",
		},
		{
			name:   "missing fields",
			user:   f.alice,
			body:   `{}`,
			status: http.StatusBadRequest,
			code:   "VALIDATION_FAILED",
		},
		{
			name:   "foreign source wallet",
			user:   uuid.New(),
			body:   fmt.Sprintf(`{"from_wallet_id":%q,"to_wallet_id":%q,"amount":"1.00"}`, f.aliceUSD.ID, f.bobUSD.ID),
			status: http.StatusForbidden,
			code:   "FORBIDDEN",
		},
		{
			name:   "unknown source wallet",
			user:   f.alice,
			body:   fmt.Sprintf(`{"from_wallet_id":%q,"to_wallet_id":%q,"amount":"1.00"}`, uuid.New(), f.bobUSD.ID),
			status: http.StatusNotFound,
			code:   "WALLET_NOT_FOUND",
		},
		{
			name:   "three decimals",
			user:   f.alice,
			body:   fmt.Sprintf(`{"from_wallet_id":%q,"to_wallet_id":%q,"amount":"1.005"}`, f.aliceUSD.ID, f.bobUSD.ID),
			status: http.StatusBadRequest,
			code:   "INVALID_AMOUNT",
		},
		{
			name:   "same wallet",
			user:   f.alice,
			body:   fmt.Sprintf(`{"from_wallet_id":%q,"to_wallet_id":%q,"amount":"1.00"}`, f.aliceUSD.ID, f.aliceUSD.ID),
			status: http.StatusUnprocessableEntity,
			code:   "SAME_WALLET",
		},
		{
			name:   "currency mismatch",
			user:   f.alice,
			body:   fmt.Sprintf(`{"from_wallet_id":%q,"to_wallet_id":%q,"amount":"1.00"}`, f.aliceUSD.ID, f.aliceEUR.ID),
			status: http.StatusUnprocessableEntity,
			code:   "CURRENCY_MISMATCH",
		},
		{
			name:   "insufficient funds",
			user:   f.alice,
			body:   fmt.Sprintf(`{"from_wallet_id":%q,"to_wallet_id":%q,"amount":"1000.01"}`, f.aliceUSD.ID, f.bobUSD.ID),
			status: http.StatusUnprocessableEntity,
			code:   "INSUFFICIENT_FUNDS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			f.transactions.Transfer(rec, post(tt.user, "/api/transactions/transfer", tt.body))
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, errorCode(t, rec))
		})
	}

	assert.Zero(t, f.store.TransactionCount())
}

func TestExchange(t *testing.T) {
	f := newFixture()

	body := fmt.Sprintf(`{"usd_wallet_id":%q,"eur_wallet_id":%q,"from_currency":"USD","amount":"100.00"}`, f.aliceUSD.ID, f.aliceEUR.ID)
	rec := httptest.NewRecorder()
	f.transactions.Exchange(rec, post(f.alice, "/api/transactions/exchange", body))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	usd, _ := f.store.Balance(f.aliceUSD.ID)
	eur, _ := f.store.Balance(f.aliceEUR.ID)
	assert.Equal(t, int64(90_000), usd)
	assert.Equal(t, int64(59_200), eur)
}

func TestExchange_ChecksDebitedWalletOwner(t *testing.T) {
	f := newFixture()
	mallory := uuid.New()
	malloryUSD := f.store.SeedWallet(mallory, domain.CurrencyUSD, 10_000)

	body := fmt.Sprintf(`{"usd_wallet_id":%q,"eur_wallet_id":%q,"from_currency":"EUR","amount":"10.00"}`, malloryUSD.ID, f.aliceEUR.ID)
	rec := httptest.NewRecorder()
	f.transactions.Exchange(rec, post(mallory, "/api/transactions/exchange", body))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, f.store.TransactionCount())
}

func TestExchange_InvalidCurrency(t *testing.T) {
	f := newFixture()

	body := fmt.Sprintf(`{"usd_wallet_id":%q,"eur_wallet_id":%q,"from_currency":"GBP","amount":"10.00"}`, f.aliceUSD.ID, f.aliceEUR.ID)
	rec := httptest.NewRecorder()
	f.transactions.Exchange(rec, post(f.alice, "/api/transactions/exchange", body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, rec))
}

func TestListAndGetTransactions(t *testing.T) {
	f := newFixture()
	for range 3 {
		body := fmt.Sprintf(`{"from_wallet_id":%q,"to_wallet_id":%q,"amount":"1.00"}`, f.aliceUSD.ID, f.bobUSD.ID)
		rec := httptest.NewRecorder()
		f.transactions.Transfer(rec, post(f.alice, "/api/transactions/transfer", body))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := httptest.NewRecorder()
	f.transactions.List(rec, asUser(httptest.NewRequest(http.MethodGet, "/api/transactions?limit=2", nil), f.alice))
	require.Equal(t, http.StatusOK, rec.Code)

	var page struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
		Total int `json:"total"`
		Page  int `json:"page"`
		Limit int `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &page))
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 2, page.Limit)
	require.Len(t, page.Items, 2)

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/transactions/"+page.Items[0].ID, nil), f.alice)
	req.SetPathValue("id", page.Items[0].ID)
	rec = httptest.NewRecorder()
	f.transactions.Get(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = asUser(httptest.NewRequest(http.MethodGet, "/api/transactions/x", nil), f.alice)
	req.SetPathValue("id", uuid.NewString())
	rec = httptest.NewRecorder()
	f.transactions.Get(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListTransactions_QueryValidation(t *testing.T) {
	f := newFixture()

	tests := []struct {
		query string
		code  string
	}{
		{"?page=0", "INVALID_PAGINATION"},
		{"?limit=abc", "INVALID_PAGINATION"},
		{"?limit=101", "INVALID_PAGINATION"},
		{"?type=deposit", "INVALID_TRANSACTION_TYPE"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := httptest.NewRecorder()
			f.transactions.List(rec, asUser(httptest.NewRequest(http.MethodGet, "/api/transactions"+tt.query, nil), f.alice))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.code, errorCode(t, rec))
		})
	}
}

func TestWalletHandlers(t *testing.T) {
	f := newFixture()

	rec := httptest.NewRecorder()
	f.wallets.Balances(rec, asUser(httptest.NewRequest(http.MethodGet, "/api/accounts/balances", nil), f.alice))
	require.Equal(t, http.StatusOK, rec.Code)
	var balances map[string]struct {
		Amount    int64  `json:"amount"`
		Formatted string `json:"formatted"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &balances))
	assert.Equal(t, int64(100_000), balances["USD"].Amount)
	assert.Equal(t, "500.00", balances["EUR"].Formatted)

	rec = httptest.NewRecorder()
	f.wallets.List(rec, asUser(httptest.NewRequest(http.MethodGet, "/api/accounts/wallets", nil), f.alice))
	require.Equal(t, http.StatusOK, rec.Code)
	var wallets []json.RawMessage
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &wallets))
	assert.Len(t, wallets, 2)

	rec = httptest.NewRecorder()
	f.wallets.LastTransactions(rec, asUser(httptest.NewRequest(http.MethodGet, "/api/accounts/last-transactions?limit=-1", nil), f.alice))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWalletEntries_OwnerOnly(t *testing.T) {
	f := newFixture()

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/accounts/wallets/x/entries", nil), uuid.New())
	req.SetPathValue("id", f.aliceUSD.ID.String())
	rec := httptest.NewRecorder()
	f.wallets.Entries(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = asUser(httptest.NewRequest(http.MethodGet, "/api/accounts/wallets/x/entries", nil), f.alice)
	req.SetPathValue("id", f.aliceUSD.ID.String())
	rec = httptest.NewRecorder()
	f.wallets.Entries(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFXRate(t *testing.T) {
	h := handler.NewFXHandler(fx.NewRateService(fx.DefaultRate))

	rec := httptest.NewRecorder()
	h.GetRate(rec, httptest.NewRequest(http.MethodGet, "/api/fx/rate?from=USD&to=EUR", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var quote struct {
		Rate string `json:"rate"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &quote))
	assert.Equal(t, "0.92", quote.Rate)

	rec = httptest.NewRecorder()
	h.GetRate(rec, httptest.NewRequest(http.MethodGet, "/api/fx/rate?from=USD&to=GBP", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type memUsers struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func (m *memUsers) Create(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Email]; ok {
		return domain.ErrEmailTaken
	}
	m.users[u.Email] = *u
	return nil
}

func (m *memUsers) GetByID(context.Context, uuid.UUID) (*domain.User, error) {
	return nil, domain.ErrNotFound
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func TestRegisterAndLogin(t *testing.T) {
	store := memory.New()
	tokens := auth.NewTokens("test-secret", time.Hour)
	h := handler.NewAuthHandler(
		service.NewUserService(&memUsers{users: map[string]domain.User{}}, bcrypt.MinCost),
		service.NewWalletService(store.Wallets(), store.Transactions(), store.Ledger()),
		tokens,
	)

	creds := `{"email":"dana@example.com","password":"hunter22"}`
	rec := httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(creds)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var registered struct {
		Token   string            `json:"token"`
		Wallets []json.RawMessage `json:"wallets"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &registered))
	assert.Len(t, registered.Wallets, 2)
	_, err := tokens.Validate(registered.Token)
	assert.NoError(t, err)

	rec = httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(creds)))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "EMAIL_TAKEN", errorCode(t, rec))

	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(creds)))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"dana@example.com","password":"nope"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, rec))
}

func TestAppErrorFor(t *testing.T) {
	tests := []struct {
		err  error
		want *handler.AppError
	}{
		{fmt.Errorf("Transfer: %w", domain.ErrInsufficientFunds), handler.ErrInsufficientFunds},
		{fmt.Errorf("GetByID: %w", domain.ErrWalletNotFound), handler.ErrWalletNotFound},
		{fmt.Errorf("x: %w", domain.ErrConcurrencyConflict), handler.ErrConcurrencyConflict},
		{domain.ErrStoreFailure, handler.ErrStoreFailure},
		{fmt.Errorf("unexpected"), handler.ErrInternalError},
	}
	for _, tt := range tests {
		assert.Same(t, tt.want, handler.AppErrorFor(tt.err), tt.err.Error())
	}
}

func TestHealth(t *testing.T) {
	h := handler.NewHealthHandler(
		handler.Check{Name: "database", Ping: func(context.Context) error { return nil }},
		handler.Check{Name: "redis", Ping: func(context.Context) error { return fmt.Errorf("dial tcp: refused") }},
	)

	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"down"`)
}
