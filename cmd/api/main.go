package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/crypto/bcrypt"

	"github.com/josh-kwaku/mini-banking-ledger/internal/auth"
	"github.com/josh-kwaku/mini-banking-ledger/internal/config"
	"github.com/josh-kwaku/mini-banking-ledger/internal/fx"
	"github.com/josh-kwaku/mini-banking-ledger/internal/handler"
	"github.com/josh-kwaku/mini-banking-ledger/internal/logging"
	"github.com/josh-kwaku/mini-banking-ledger/internal/middleware"
	"github.com/josh-kwaku/mini-banking-ledger/internal/repository"
	"github.com/josh-kwaku/mini-banking-ledger/internal/service"
	"github.com/josh-kwaku/mini-banking-ledger/internal/service/ledger"
	"github.com/josh-kwaku/mini-banking-ledger/migrations"
)

func main() {
	if err := run(); err != nil {
		slog.Error("api exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.Init("mini-banking-ledger", cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
		ConnectAttempts:  30,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if cfg.MigrateOnStart {
		if err := repository.Migrate(ctx, db, migrations.FS); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	checks := []handler.Check{{Name: "database", Ping: db.PingContext}}

	var idempotencyStore middleware.IdempotencyStore
	var wg sync.WaitGroup
	if cfg.RedisURL != "" {
		client, err := repository.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer client.Close()
		idempotencyStore = repository.NewRedisIdempotencyStore(client)
		checks = append(checks, handler.Check{Name: "redis", Ping: redisPing(client)})
		logger.Info("idempotency backend selected", "backend", "redis")
	} else {
		pgStore := repository.NewIdempotencyRepository(db)
		idempotencyStore = pgStore
		janitor := service.NewIdempotencyJanitor(pgStore, logger, cfg.IdempotencyCleanInterval)
		wg.Add(1)
		go func() {
			defer wg.Done()
			janitor.Start(ctx)
		}()
		logger.Info("idempotency backend selected", "backend", "postgres")
	}

	walletRepo := repository.NewWalletRepository(db)
	txnRepo := repository.NewTransactionRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	rates := fx.NewRateService(cfg.ExchangeRate)

	ledgerSvc := ledger.NewService(
		repository.NewStore(db, cfg.TxLockTimeout),
		txnRepo,
		ledgerRepo,
		rates,
		ledger.Config{MaxRetries: cfg.TxMaxRetries},
	)
	walletSvc := service.NewWalletService(walletRepo, txnRepo, ledgerRepo)
	userSvc := service.NewUserService(repository.NewUserRepository(db), bcrypt.DefaultCost)
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTExpiry)

	mux := routes(handlers{
		health:       handler.NewHealthHandler(checks...),
		auth:         handler.NewAuthHandler(userSvc, walletSvc, tokens),
		wallets:      handler.NewWalletHandler(walletSvc),
		transactions: handler.NewTransactionHandler(ledgerSvc, walletSvc),
		fx:           handler.NewFXHandler(rates),
	}, middleware.Auth(tokens), middleware.Idempotency(idempotencyStore, cfg.IdempotencyTTL))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           otelhttp.NewHandler(withMiddleware(mux, cfg.CORSAllowedOrigin, middleware.Logging(logger)), "mini-banking-ledger"),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started", "addr", addr, "exchange_rate", cfg.ExchangeRate.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	stop()
	wg.Wait()
	logger.Info("server stopped")
	return nil
}

func redisPing(client *redis.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
