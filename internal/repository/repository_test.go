package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/mini-banking-ledger/internal/domain"
	"github.com/josh-kwaku/mini-banking-ledger/internal/repository"
	"github.com/josh-kwaku/mini-banking-ledger/internal/testutil"
	"github.com/josh-kwaku/mini-banking-ledger/migrations"
)

func TestUserRepository(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	u := &domain.User{ID: uuid.New(), Email: "erin@test.com", PasswordHash: "hash", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.Create(ctx, u))

	got, err := repo.GetByEmail(ctx, "erin@test.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	dup := &domain.User{ID: uuid.New(), Email: "erin@test.com", PasswordHash: "hash", CreatedAt: time.Now().UTC()}
	assert.ErrorIs(t, repo.Create(ctx, dup), domain.ErrEmailTaken)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWalletRepository_GetOrCreateIsRaceSafe(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewWalletRepository(db)
	user := testutil.SeedTestUser(t, db, "racer@test.com")
	ctx := context.Background()

	const workers = 8
	ids := make([]uuid.UUID, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w, err := repo.GetOrCreate(ctx, user.ID, domain.CurrencyEUR)
			if assert.NoError(t, err) {
				ids[i] = w.ID
			}
		}()
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}

	wallets, err := repo.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, wallets, 1)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrWalletNotFound)
}

func TestWalletRepository_NegativeBalanceRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewWalletRepository(db)
	user := testutil.SeedTestUser(t, db, "neg@test.com")
	w := testutil.SeedTestWallet(t, db, user.ID, domain.CurrencyUSD, 100)

	err := repo.SetBalance(context.Background(), w.ID, -1)
	assert.ErrorIs(t, err, domain.ErrStoreFailure)
	assert.Equal(t, int64(100), testutil.GetWalletBalance(t, db, w.ID))
}

func TestIdempotencyRepository(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewIdempotencyRepository(db)
	user := testutil.SeedTestUser(t, db, "idem@test.com")
	ctx := context.Background()

	now := time.Now().UTC()
	entry := &repository.IdempotencyCacheEntry{
		Key:         "key-1",
		UserID:      user.ID,
		RequestHash: "hash-1",
		CreatedAt:   now,
		ExpiresAt:   now.Add(time.Hour),
	}

	ok, err := repo.Reserve(ctx, entry)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Reserve(ctx, entry)
	require.NoError(t, err)
	assert.False(t, ok, "live reservation must not be taken over")

	pending, err := repo.Get(ctx, "key-1", user.ID)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.True(t, pending.InProgress())

	entry.StatusCode = 201
	entry.ResponseBody = []byte(`{"success":true}`)
	require.NoError(t, repo.Set(ctx, entry))

	done, err := repo.Get(ctx, "key-1", user.ID)
	require.NoError(t, err)
	assert.Equal(t, 201, done.StatusCode)
	assert.JSONEq(t, `{"success":true}`, string(done.ResponseBody))

	require.NoError(t, repo.Release(ctx, "key-1", user.ID))
	still, err := repo.Get(ctx, "key-1", user.ID)
	require.NoError(t, err)
	assert.NotNil(t, still, "release only drops unfinished reservations")

	expired := &repository.IdempotencyCacheEntry{
		Key:         "key-2",
		UserID:      user.ID,
		RequestHash: "hash-2",
		StatusCode:  200,
		CreatedAt:   now.Add(-2 * time.Hour),
		ExpiresAt:   now.Add(-time.Hour),
	}
	require.NoError(t, repo.Set(ctx, expired))

	gone, err := repo.Get(ctx, "key-2", user.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	n, err := repo.CleanExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMigrate_IsRepeatable(t *testing.T) {
	db := testutil.SetupTestDB(t)

	var before int
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM schema_migrations`).Scan(&before))
	assert.Positive(t, before)

	require.NoError(t, repository.Migrate(context.Background(), db, migrations.FS))

	var after int
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM schema_migrations`).Scan(&after))
	assert.Equal(t, before, after)
}
