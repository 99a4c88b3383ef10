// Package config содержит логику чтения конфигурации POS-сервиса спортзалов.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config содержит параметры конфигурации POS-сервиса.
type Config struct {
	RunAddress  string `env:"RUN_ADDRESS"`
	DatabaseURI string `env:"DATABASE_URI"`
	JWTSecret   string `env:"JWT_SECRET"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// PlatformFee задаёт комиссию платформы за каждый месяц доступа, проданный в операции.
	PlatformFee          decimal.Decimal `env:"PLATFORM_FEE" envDefault:"5000"`
	WithdrawalFeePercent decimal.Decimal `env:"WITHDRAWAL_FEE_PERCENT" envDefault:"2.5"`
	InvoiceExtraMonth    bool            `env:"INVOICE_EXTRA_MONTH" envDefault:"false"`
	Timezone             string          `env:"TIMEZONE" envDefault:"Asia/Jakarta"`

	Location *time.Location `env:"-"`
}

// Parse считывает конфигурацию из файла .env, флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envJWTSecret := cfg.JWTSecret

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.JWTSecret, "s", "", "secret for verifying access tokens")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envJWTSecret != "" {
		cfg.JWTSecret = envJWTSecret
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}

	if cfg.PlatformFee.IsNegative() {
		return nil, fmt.Errorf("PLATFORM_FEE must not be negative, got %s", cfg.PlatformFee)
	}
	if cfg.WithdrawalFeePercent.IsNegative() || cfg.WithdrawalFeePercent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("WITHDRAWAL_FEE_PERCENT must be within [0, 100], got %s", cfg.WithdrawalFeePercent)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	return cfg, nil
}
