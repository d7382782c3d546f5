// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Storage drivers accepted by DB_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// MinJWTSecretLength is the shortest accepted signing secret, in bytes.
const MinJWTSecretLength = 32

// Validation errors.
var (
	ErrUnknownDriver    = errors.New("unknown DB_DRIVER")
	ErrMissingDatabase  = errors.New("DATABASE_URL is required for this DB_DRIVER")
	ErrWeakJWTSecret    = errors.New("JWT_SECRET is too short")
	ErrInvalidRateLimit = errors.New("login rate limit must be positive")
	ErrInvalidTokenTTL  = errors.New("TOKEN_TTL must be positive")
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"3000"`

	// Storage
	DBDriver          string `env:"DB_DRIVER" envDefault:"sqlite"`
	DatabaseURL       string `env:"DATABASE_URL" envDefault:"file:registro.db"`
	DBInsertReturning bool   `env:"DB_INSERT_RETURNING" envDefault:"true"`
	DBMaxOpenConns    int    `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`

	// Tokens
	JWTSecret string        `env:"JWT_SECRET,required,unset"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	// Bootstrapped credential
	AdminUsername string `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword string `env:"ADMIN_PASSWORD,required,unset"`

	// Cache (Redis), optional. Only login throttling uses it.
	RedisURL string `env:"REDIS_URL"`

	// Login throttling, per client IP
	LoginRateLimitEnabled bool    `env:"LOGIN_RATE_LIMIT_ENABLED" envDefault:"true"`
	LoginRateLimitRPS     float64 `env:"LOGIN_RATE_LIMIT_RPS" envDefault:"0.2"`
	LoginRateLimitBurst   int     `env:"LOGIN_RATE_LIMIT_BURST" envDefault:"5"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// TrustProxyHeaders takes the client address from X-Forwarded-For /
	// X-Real-IP. Enable only behind a proxy that overwrites those headers.
	TrustProxyHeaders bool `env:"TRUSTED_PROXY" envDefault:"false"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// LoginRateLimitActive reports whether login throttling can run.
// It needs Redis.
func (c *Config) LoginRateLimitActive() bool {
	return c.LoginRateLimitEnabled && c.RedisURL != ""
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Validate checks values that env tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
		if c.DatabaseURL == "" {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingDatabase, c.DBDriver))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownDriver, c.DBDriver))
	}

	if len(c.JWTSecret) < MinJWTSecretLength {
		errs = append(errs, fmt.Errorf("%w: need at least %d bytes", ErrWeakJWTSecret, MinJWTSecretLength))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, ErrInvalidTokenTTL)
	}
	if c.LoginRateLimitEnabled && (c.LoginRateLimitRPS <= 0 || c.LoginRateLimitBurst <= 0) {
		errs = append(errs, ErrInvalidRateLimit)
	}

	return errors.Join(errs...)
}

// Load parses environment variables and returns a validated Config.
// Returns an error if required variables are missing or invalid.
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
