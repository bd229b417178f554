// Command seed creates a demo user with funded USD and EUR wallets. Running it
// again leaves an existing demo user untouched.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	env "github.com/caarlos0/env/v11"
	"golang.org/x/crypto/bcrypt"

	"github.com/josh-kwaku/mini-banking-ledger/internal/config"
	"github.com/josh-kwaku/mini-banking-ledger/internal/domain"
	"github.com/josh-kwaku/mini-banking-ledger/internal/logging"
	"github.com/josh-kwaku/mini-banking-ledger/internal/repository"
	"github.com/josh-kwaku/mini-banking-ledger/internal/service"
	"github.com/josh-kwaku/mini-banking-ledger/migrations"
)

type seedConfig struct {
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string `env:"APP_ENV" envDefault:"development"`
	Email       string `env:"SEED_EMAIL" envDefault:"demo@example.com"`
	Password    string `env:"SEED_PASSWORD" envDefault:"password"`
	USDBalance  int64  `env:"SEED_USD_BALANCE" envDefault:"100000"`
	EURBalance  int64  `env:"SEED_EUR_BALANCE" envDefault:"50000"`
}

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if err := config.LoadDotEnv(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	cfg, err := env.ParseAs[seedConfig]()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := logging.Init("mini-banking-ledger-seed", cfg.LogLevel, cfg.AppEnv)

	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{MaxOpenConns: 2, MaxIdleConns: 1})
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repository.Migrate(ctx, db, migrations.FS); err != nil {
		return err
	}

	users := service.NewUserService(repository.NewUserRepository(db), bcrypt.DefaultCost)
	walletRepo := repository.NewWalletRepository(db)

	user, err := users.Register(ctx, cfg.Email, cfg.Password)
	if errors.Is(err, domain.ErrEmailTaken) {
		logger.Info("demo user already exists, nothing to do", "email", cfg.Email)
		return nil
	}
	if err != nil {
		return err
	}

	opening := map[domain.Currency]int64{
		domain.CurrencyUSD: cfg.USDBalance,
		domain.CurrencyEUR: cfg.EURBalance,
	}
	for _, c := range domain.SupportedCurrencies {
		w, err := walletRepo.GetOrCreate(ctx, user.ID, c)
		if err != nil {
			return err
		}
		if err := walletRepo.SetBalance(ctx, w.ID, opening[c]); err != nil {
			return err
		}
	}

	for _, c := range domain.SupportedCurrencies {
		w, err := walletRepo.GetByUserAndCurrency(ctx, user.ID, c)
		if err != nil {
			return err
		}
		logger.Info("wallet seeded", "email", user.Email, "wallet_id", w.ID, "currency", c, "balance", domain.FormatAmount(w.Balance))
	}
	return nil
}
