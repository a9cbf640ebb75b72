// Package configpkg provides parsing functionality for environment variables.
package configpkg

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
//
// The values are read by viper from a config file or environment variables.
type Config struct {
	DBDriver           string        `mapstructure:"DB_DRIVER"`
	DBSource           string        `mapstructure:"DB_SOURCE"`
	MigrationURL       string        `mapstructure:"MIGRATION_URL"`
	ServerAddress      string        `mapstructure:"SERVER_ADDRESS"`
	TokenSymmetricKey  string        `mapstructure:"TOKEN_SYMMETRIC_KEY"`
	TokenType          string        `mapstructure:"TOKEN_TYPE"`
	Environment        string        `mapstructure:"GO_ENV"`
	RedisAddr          string        `mapstructure:"REDIS_ADDR"`
	IdempotencyTTL     time.Duration `mapstructure:"IDEMPOTENCY_TTL"`
	KafkaBrokers       string        `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic         string        `mapstructure:"KAFKA_TOPIC"`
	OutboxPollInterval time.Duration `mapstructure:"OUTBOX_POLL_INTERVAL"`
	OutboxBatchSize    int           `mapstructure:"OUTBOX_BATCH_SIZE"`
	ShutdownTimeout    time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

// Errors returned by Load for values the app cannot run with.
var (
	ErrInvalidPollInterval = errors.New("OUTBOX_POLL_INTERVAL must be positive")
	ErrInvalidBatchSize    = errors.New("OUTBOX_BATCH_SIZE must be at least 1")
)

var defaults = map[string]any{
	"DB_DRIVER":            "postgres",
	"MIGRATION_URL":        "file://migrations",
	"SERVER_ADDRESS":       "0.0.0.0:8080",
	"TOKEN_TYPE":           "paseto",
	"GO_ENV":               "production",
	"IDEMPOTENCY_TTL":      24 * time.Hour,
	"KAFKA_TOPIC":          "ledger.transactions",
	"OUTBOX_POLL_INTERVAL": time.Second,
	"OUTBOX_BATCH_SIZE":    50,
	"SHUTDOWN_TIMEOUT":     15 * time.Second,
}

// Load read configuration from file or environment variables.
//
// A missing app.env is not an error, the environment alone is enough.
func Load(path string) (Config, error) {
	var c Config

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// Unmarshal only sees keys viper knows about, so bind every key explicitly.
	for _, key := range []string{"DB_SOURCE", "TOKEN_SYMMETRIC_KEY", "REDIS_ADDR", "KAFKA_BROKERS"} {
		if err := v.BindEnv(key); err != nil {
			return c, err
		}
	}

	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return c, err
		}
	}

	err = v.Unmarshal(&c)
	if err != nil {
		return c, err
	}

	if err := c.validate(); err != nil {
		return c, err
	}

	return c, nil
}

func (c Config) validate() error {
	if c.OutboxPollInterval <= 0 {
		return fmt.Errorf("%w: got %s", ErrInvalidPollInterval, c.OutboxPollInterval)
	}

	if c.OutboxBatchSize < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidBatchSize, c.OutboxBatchSize)
	}

	return nil
}

// Brokers splits the comma separated KAFKA_BROKERS value.
func (c Config) Brokers() []string {
	var brokers []string

	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}

	return brokers
}

// IsDevelopment reports whether the app runs in development mode.
func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}
