package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration for the service.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Transfer TransferConfig `mapstructure:"transfer"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	Debug          bool     `mapstructure:"debug"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	// Driver selects the ledger store backend: "postgres" or "memory".
	Driver       string `mapstructure:"driver"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"`
	SSLMode      string `mapstructure:"ssl_mode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// ConnString builds a lib/pq connection string.
func (d DatabaseConfig) ConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type TransferConfig struct {
	// MinAmount and MaxAmount bound a single transfer, inclusive.
	MinAmount decimal.Decimal `mapstructure:"-"`
	MaxAmount decimal.Decimal `mapstructure:"-"`
	// StartingBalance is credited to every account at registration.
	StartingBalance decimal.Decimal `mapstructure:"-"`
	// ExecTimeout bounds one transfer execution, including lock waits.
	ExecTimeout time.Duration `mapstructure:"exec_timeout"`
}

// Load reads configuration from the environment with sane development
// defaults. Keys are upper-snake-cased with a PEERPAY_ prefix, e.g.
// PEERPAY_DATABASE_HOST, PEERPAY_TRANSFER_MAX_AMOUNT.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8000)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "peerpay")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("auth.jwt_secret", "dev-secret-change-in-production")
	v.SetDefault("auth.token_ttl", "30m")

	v.SetDefault("transfer.min_amount", "0.01")
	v.SetDefault("transfer.max_amount", "10000.00")
	v.SetDefault("transfer.starting_balance", "1000.00")
	v.SetDefault("transfer.exec_timeout", "5s")

	v.SetEnvPrefix("PEERPAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Decimal fields come in as strings so they keep exact precision.
	var err error
	if cfg.Transfer.MinAmount, err = decimal.NewFromString(v.GetString("transfer.min_amount")); err != nil {
		return nil, fmt.Errorf("invalid transfer.min_amount: %w", err)
	}
	if cfg.Transfer.MaxAmount, err = decimal.NewFromString(v.GetString("transfer.max_amount")); err != nil {
		return nil, fmt.Errorf("invalid transfer.max_amount: %w", err)
	}
	if cfg.Transfer.StartingBalance, err = decimal.NewFromString(v.GetString("transfer.starting_balance")); err != nil {
		return nil, fmt.Errorf("invalid transfer.starting_balance: %w", err)
	}

	if cfg.Transfer.MinAmount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("transfer.min_amount must be positive, got %s", cfg.Transfer.MinAmount)
	}
	if cfg.Transfer.MaxAmount.LessThan(cfg.Transfer.MinAmount) {
		return nil, fmt.Errorf("transfer.max_amount %s is below transfer.min_amount %s",
			cfg.Transfer.MaxAmount, cfg.Transfer.MinAmount)
	}

	return cfg, nil
}
