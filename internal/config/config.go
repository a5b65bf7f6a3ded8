package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application, read from the
// environment.
type Config struct {
	ServerPort       string        `mapstructure:"SERVER_PORT"`
	DatabaseURL      string        `mapstructure:"DATABASE_URL"`
	LedgerBaseURL    string        `mapstructure:"LEDGER_BASE_URL"`
	LedgerAPIKey     string        `mapstructure:"LEDGER_API_KEY"`
	CustodianOwnerID string        `mapstructure:"CUSTODIAN_OWNER_ID"`
	JWTSecret        string        `mapstructure:"JWT_SECRET"`
	KafkaBrokers     string        `mapstructure:"KAFKA_BROKERS"`
	TokenName        string        `mapstructure:"TOKEN_NAME"`
	TokenSymbol      string        `mapstructure:"TOKEN_SYMBOL"`
	CORSOrigins      string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	ReconcileEvery   time.Duration `mapstructure:"RECONCILE_INTERVAL"`
	StuckThreshold   time.Duration `mapstructure:"STUCK_THRESHOLD"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (config Config, err error) {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("TOKEN_NAME", "Worklance Token")
	viper.SetDefault("TOKEN_SYMBOL", "WLT")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("RECONCILE_INTERVAL", "5m")
	viper.SetDefault("STUCK_THRESHOLD", "10m")
	viper.AutomaticEnv()

	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("LEDGER_BASE_URL")
	_ = viper.BindEnv("LEDGER_API_KEY")
	_ = viper.BindEnv("CUSTODIAN_OWNER_ID")
	_ = viper.BindEnv("JWT_SECRET")
	_ = viper.BindEnv("KAFKA_BROKERS")
	_ = viper.BindEnv("TOKEN_NAME")
	_ = viper.BindEnv("TOKEN_SYMBOL")
	_ = viper.BindEnv("CORS_ALLOWED_ORIGINS")
	_ = viper.BindEnv("RECONCILE_INTERVAL")
	_ = viper.BindEnv("STUCK_THRESHOLD")

	if err = viper.Unmarshal(&config); err != nil {
		return config, err
	}
	if config.DatabaseURL == "" {
		return config, fmt.Errorf("DATABASE_URL is required")
	}
	if config.LedgerBaseURL == "" {
		return config, fmt.Errorf("LEDGER_BASE_URL is required")
	}
	if config.JWTSecret == "" {
		return config, fmt.Errorf("JWT_SECRET is required")
	}
	if config.CustodianOwnerID != "" {
		if _, err := uuid.Parse(config.CustodianOwnerID); err != nil {
			return config, fmt.Errorf("CUSTODIAN_OWNER_ID is not a UUID: %w", err)
		}
	}
	return config, nil
}

// CustodianOwner returns the configured custodian owner, or a stable
// all-zero placeholder when unset (local development).
func (c Config) CustodianOwner() uuid.UUID {
	if c.CustodianOwnerID == "" {
		return uuid.Nil
	}
	id, _ := uuid.Parse(c.CustodianOwnerID)
	return id
}

// Brokers splits the comma-separated broker list; empty means Kafka is
// disabled.
func (c Config) Brokers() []string {
	if c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Origins splits the comma-separated CORS allow-list.
func (c Config) Origins() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
