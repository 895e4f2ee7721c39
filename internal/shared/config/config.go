package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrInvalidEncryptionKey is returned when ENCRYPTION_KEY is set but unusable.
var ErrInvalidEncryptionKey = errors.New("ENCRYPTION_KEY must be a 32- or 64-character hex string (16 or 32 bytes)")

// RegistryConfig controls the event registry.
type RegistryConfig struct {
	IsolatePanics bool
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled    bool
	ListenAddr string
}

// PostgresConfig points at the publication journal database.
type PostgresConfig struct {
	URL string
}

// TelegramConfig controls the chat forwarder.
type TelegramConfig struct {
	Token  string
	ChatID int64
	Events []string
}

// Config holds all configuration for the application.
type Config struct {
	AppEnv        string
	EncryptionKey string
	Registry      RegistryConfig
	Metrics       MetricsConfig
	Postgres      PostgresConfig
	Telegram      TelegramConfig
}

// IsDev reports whether human-readable logging should be used.
func (c *Config) IsDev() bool {
	return c.AppEnv == "dev" || c.AppEnv == "development"
}

// envBindings maps viper keys to the environment variables that feed them.
var envBindings = map[string]string{
	"app.env":                 "APP_ENV",
	"encryption.key":          "ENCRYPTION_KEY",
	"registry.isolate_panics": "REGISTRY_ISOLATE_PANICS",
	"metrics.enabled":         "METRICS_ENABLED",
	"metrics.listen_addr":     "METRICS_LISTEN_ADDR",
	"postgres.url":            "DATABASE_URL",
	"telegram.token":          "TELEGRAM_TOKEN",
	"telegram.chat_id":        "TELEGRAM_CHAT_ID",
	"telegram.events":         "TELEGRAM_EVENTS",
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// 1. Load .env file into the process environment, if there is one.
	// A missing file is fine; OS-set env vars are used instead.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	return fromViper(viper.New())
}

// fromViper binds, defaults and validates using v.
func fromViper(v *viper.Viper) (*Config, error) {
	// 2. Explicitly bind viper keys to env var names
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("could not bind %s: %w", key, err)
		}
	}

	// 3. Set defaults
	v.SetDefault("app.env", "dev")
	v.SetDefault("registry.isolate_panics", true)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen_addr", "127.0.0.1:9464")

	// 4. Get values directly from viper
	cfg := Config{
		AppEnv:        v.GetString("app.env"),
		EncryptionKey: v.GetString("encryption.key"),
		Registry: RegistryConfig{
			IsolatePanics: v.GetBool("registry.isolate_panics"),
		},
		Metrics: MetricsConfig{
			Enabled:    v.GetBool("metrics.enabled"),
			ListenAddr: v.GetString("metrics.listen_addr"),
		},
		Postgres: PostgresConfig{
			URL: v.GetString("postgres.url"),
		},
		Telegram: TelegramConfig{
			Token:  v.GetString("telegram.token"),
			ChatID: v.GetInt64("telegram.chat_id"),
			Events: splitList(v.GetString("telegram.events")),
		},
	}

	// 5. Validation
	if cfg.EncryptionKey != "" && len(cfg.EncryptionKey) != 32 && len(cfg.EncryptionKey) != 64 {
		return nil, fmt.Errorf("%w, but got %d chars", ErrInvalidEncryptionKey, len(cfg.EncryptionKey))
	}
	if cfg.Telegram.Token != "" && cfg.Telegram.ChatID == 0 {
		return nil, errors.New("TELEGRAM_CHAT_ID is required when TELEGRAM_TOKEN is set")
	}

	return &cfg, nil
}

// splitList parses a comma separated list, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
