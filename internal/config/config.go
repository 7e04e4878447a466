// Package config loads flashlearn settings from an optional YAML file,
// FLASHLEARN_* environment variables and command-line flags, in increasing
// order of precedence. Flag defaults apply when no other source sets a key.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/conorfennell/flashlearn/internal/validate"
)

const envPrefix = "FLASHLEARN_"

type Config struct {
	Addr          string          `koanf:"addr" validate:"required"`
	DB            string          `koanf:"db" validate:"required"`
	LogLevel      string          `koanf:"log-level" validate:"oneof=debug info warn error"`
	ReposDir      string          `koanf:"repos-dir" validate:"required"`
	SecureCookies bool            `koanf:"secure-cookies"`
	Auth          AuthConfig      `koanf:"auth"`
	Generator     GeneratorConfig `koanf:"generator"`
}

type AuthConfig struct {
	Secret   string        `koanf:"secret" validate:"required,min=16"`
	TokenTTL time.Duration `koanf:"token-ttl" validate:"min=1m"`
}

type GeneratorConfig struct {
	Provider        string  `koanf:"provider" validate:"oneof=openai mock"`
	APIKey          string  `koanf:"api-key" validate:"required_if=Provider openai"`
	BaseURL         string  `koanf:"base-url" validate:"omitempty,url"`
	Model           string  `koanf:"model" validate:"required"`
	RatePerMinute   int     `koanf:"rate-per-minute" validate:"min=1"`
	DailyLimitUSD   float64 `koanf:"daily-limit-usd" validate:"gte=0"`
	MonthlyLimitUSD float64 `koanf:"monthly-limit-usd" validate:"gte=0"`
}

// RegisterFlags adds every configuration key to flags with its default value.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "path to a YAML config file")
	flags.String("addr", ":8080", "HTTP listen address")
	flags.String("db", "flashlearn.db", "path to the SQLite database file")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("repos-dir", "repos", "directory for cloned git repositories")
	flags.Bool("secure-cookies", false, "set the Secure attribute on session cookies")
	flags.String("auth.secret", "", "HMAC secret used to sign session tokens")
	flags.Duration("auth.token-ttl", 24*time.Hour, "lifetime of issued session tokens")
	flags.String("generator.provider", "mock", "flashcard generator (openai, mock)")
	flags.String("generator.api-key", "", "OpenAI API key")
	flags.String("generator.base-url", "", "OpenAI-compatible API base URL")
	flags.String("generator.model", "gpt-4o-mini", "model used for generation")
	flags.Int("generator.rate-per-minute", 5, "generation requests allowed per user per minute")
	flags.Float64("generator.daily-limit-usd", 1, "daily generation budget in USD (0 disables)")
	flags.Float64("generator.monthly-limit-usd", 10, "monthly generation budget in USD (0 disables)")
}

// Load reads the configuration. flags must have been prepared with
// RegisterFlags and parsed.
func Load(flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	path, err := flags.GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to read config flag: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s does not exist", path)
			}
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps FLASHLEARN_GENERATOR__API_KEY to generator.api-key.
func envKey(s string) string {
	parts := strings.Split(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__")
	for i, p := range parts {
		parts[i] = strings.ReplaceAll(p, "_", "-")
	}
	return strings.Join(parts, ".")
}

// Level returns the slog level named by LogLevel.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// NewLogger builds the process logger from the configured level.
func (c *Config) NewLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: c.Level()}))
}
