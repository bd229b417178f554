package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	DatabaseURL       string          `env:"DATABASE_URL,required,notEmpty"`
	JWTSecret         string          `env:"JWT_SECRET,required,notEmpty"`
	JWTExpiry         time.Duration   `env:"JWT_EXPIRY" envDefault:"24h"`
	ExchangeRate      decimal.Decimal `env:"EXCHANGE_RATE" envDefault:"0.92"`
	Port              int             `env:"PORT" envDefault:"8080"`
	LogLevel          string          `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv            string          `env:"APP_ENV" envDefault:"production"`
	RedisURL          string          `env:"REDIS_URL"`
	CORSAllowedOrigin string          `env:"CORS_ALLOWED_ORIGIN" envDefault:"*"`
	MigrateOnStart    bool            `env:"MIGRATE_ON_START" envDefault:"true"`

	TxLockTimeout time.Duration `env:"TX_LOCK_TIMEOUT" envDefault:"5s"`
	TxMaxRetries  int           `env:"TX_MAX_RETRIES" envDefault:"3"`

	IdempotencyTTL           time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
	IdempotencyCleanInterval time.Duration `env:"IDEMPOTENCY_CLEAN_INTERVAL" envDefault:"1h"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

// Load reads the process environment, after merging any .env file found in
// the working directory. Variables already set take precedence over the file.
func Load() (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// LoadDotEnv merges ./.env into the environment. A missing file is not an
// error; an unreadable or malformed one is.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf(".env: %w", err)
	}
	return nil
}

func (c *Config) validate() error {
	var errs []error
	if !c.ExchangeRate.IsPositive() {
		errs = append(errs, fmt.Errorf("EXCHANGE_RATE must be positive, got %s", c.ExchangeRate))
	}
	if c.TxMaxRetries < 0 {
		errs = append(errs, fmt.Errorf("TX_MAX_RETRIES must not be negative, got %d", c.TxMaxRetries))
	}
	if c.TxLockTimeout <= 0 {
		errs = append(errs, fmt.Errorf("TX_LOCK_TIMEOUT must be positive, got %s", c.TxLockTimeout))
	}
	if c.IdempotencyTTL <= 0 {
		errs = append(errs, fmt.Errorf("IDEMPOTENCY_TTL must be positive, got %s", c.IdempotencyTTL))
	}
	if c.IdempotencyCleanInterval <= 0 {
		errs = append(errs, fmt.Errorf("IDEMPOTENCY_CLEAN_INTERVAL must be positive, got %s", c.IdempotencyCleanInterval))
	}
	if c.JWTExpiry <= 0 {
		errs = append(errs, fmt.Errorf("JWT_EXPIRY must be positive, got %s", c.JWTExpiry))
	}
	return errors.Join(errs...)
}
