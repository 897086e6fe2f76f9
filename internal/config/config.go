// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/noblesavage/site/internal/auth"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	AppPort  int    `env:"APP_PORT" envDefault:"8080"`
	SiteName string `env:"SITE_NAME" envDefault:"Noble Savage"`

	// Database (PostgreSQL). Empty runs the placeholder backend.
	DatabaseURL string `env:"DATABASE_URL"`

	// Cache (Redis). Empty disables caching, rate limiting and events.
	RedisURL string `env:"REDIS_URL"`

	// Customer identifier returned by the placeholder backend.
	PlaceholderCustomerID string `env:"PLACEHOLDER_CUSTOMER_ID" envDefault:"123"`

	// Argon2id PHC hash of the admin API key. Empty disables the admin API.
	AdminAPIKeyHash string `env:"ADMIN_API_KEY_HASH"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Signup rate limiting (per client IP)
	RateLimitSignupEnabled bool    `env:"RATE_LIMIT_SIGNUP_ENABLED" envDefault:"true"`
	RateLimitSignupRPS     float64 `env:"RATE_LIMIT_SIGNUP_RPS" envDefault:"1"`
	RateLimitSignupBurst   int     `env:"RATE_LIMIT_SIGNUP_BURST" envDefault:"5"`

	// Request body size limit in bytes
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"65536"`

	// Intake notifications. Empty URL disables the notifier.
	NotifyWebhookURL    string `env:"NOTIFY_WEBHOOK_URL"`
	NotifyWebhookSecret string `env:"NOTIFY_WEBHOOK_SECRET"`
	NotifyMaxAttempts   int    `env:"NOTIFY_MAX_ATTEMPTS" envDefault:"4"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// HasDatabase reports whether intakes are persisted.
func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

// HasRedis reports whether Redis-backed features are enabled.
func (c *Config) HasRedis() bool {
	return c.RedisURL != ""
}

// HasNotifier reports whether intake notifications are enabled.
func (c *Config) HasNotifier() bool {
	return c.NotifyWebhookURL != ""
}

// Validate checks values that parse but cannot be used.
func (c *Config) Validate() error {
	var errs []error

	if c.AppPort < 1 || c.AppPort > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be between 1 and 65535, got %d", c.AppPort))
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat))
	}
	if strings.TrimSpace(c.PlaceholderCustomerID) == "" {
		errs = append(errs, errors.New("PLACEHOLDER_CUSTOMER_ID must not be blank"))
	}
	if c.RateLimitSignupEnabled {
		if c.RateLimitSignupRPS <= 0 {
			errs = append(errs, errors.New("RATE_LIMIT_SIGNUP_RPS must be positive"))
		}
		if c.RateLimitSignupBurst < 1 {
			errs = append(errs, errors.New("RATE_LIMIT_SIGNUP_BURST must be at least 1"))
		}
	}
	if c.MaxRequestBodySize <= 0 {
		errs = append(errs, errors.New("MAX_REQUEST_BODY_SIZE must be positive"))
	}
	if c.AdminAPIKeyHash != "" {
		if err := auth.ValidateHash(c.AdminAPIKeyHash); err != nil {
			errs = append(errs, fmt.Errorf("ADMIN_API_KEY_HASH: %w", err))
		}
	}

	if c.HasNotifier() {
		errs = append(errs, c.validateNotifier()...)
	}

	return errors.Join(errs...)
}

// minWebhookSecretLength keeps signatures from being brute-forced offline.
const minWebhookSecretLength = 16

func (c *Config) validateNotifier() []error {
	var errs []error
	u, err := url.Parse(c.NotifyWebhookURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, errors.New("NOTIFY_WEBHOOK_URL must be an absolute http(s) URL"))
	} else if c.IsProduction() && u.Scheme != "https" {
		errs = append(errs, errors.New("NOTIFY_WEBHOOK_URL must use https in production"))
	}
	if len(c.NotifyWebhookSecret) < minWebhookSecretLength {
		errs = append(errs, fmt.Errorf("NOTIFY_WEBHOOK_SECRET must be at least %d characters", minWebhookSecretLength))
	}
	if c.NotifyMaxAttempts < 1 {
		errs = append(errs, errors.New("NOTIFY_MAX_ATTEMPTS must be at least 1"))
	}
	if !c.HasRedis() {
		errs = append(errs, errors.New("NOTIFY_WEBHOOK_URL requires REDIS_URL"))
	}
	return errs
}

// Load parses environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
