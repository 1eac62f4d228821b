package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/scottjosephstudio/sohcahtoa-sub000/internal/domain"
	pkgconfig "github.com/scottjosephstudio/sohcahtoa-sub000/pkg/config"
	"github.com/scottjosephstudio/sohcahtoa-sub000/pkg/database"
)

// Payment provider selection.
const (
	ProviderMock   = "mock"
	ProviderStripe = "stripe"
)

// Config holds all configuration for the checkout service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"CHECKOUT_HTTP_PORT" envDefault:"8010"`

	// Redis (cart store)
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// PostgreSQL (catalog, accounts, receipts)
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"sohcahtoa"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"sohcahtoa_secret"`
	PostgresDB   string `env:"CHECKOUT_DB_NAME" envDefault:"checkout_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Cart TTL in hours (default: 7 days)
	CartTTL int `env:"CART_TTL_HOURS" envDefault:"168"`

	// Auth tokens
	JWTSecret      string `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	JWTExpiryHours int    `env:"JWT_EXPIRY_HOURS" envDefault:"24"`

	// Per-IP throttle on credential endpoints.
	AuthRateLimitRPS   int `env:"AUTH_RATE_LIMIT_RPS" envDefault:"5"`
	AuthRateLimitBurst int `env:"AUTH_RATE_LIMIT_BURST" envDefault:"10"`

	// Payment gateway. "mock" confirms in-process; "stripe" talks to the
	// hosted gateway.
	PaymentProvider      string `env:"PAYMENT_PROVIDER" envDefault:"mock"`
	StripeBaseURL        string `env:"STRIPE_BASE_URL" envDefault:"https://api.stripe.com"`
	StripeAPIKey         string `env:"STRIPE_API_KEY" envDefault:""`
	StripeTimeoutSeconds int    `env:"STRIPE_TIMEOUT_SECONDS" envDefault:"10"`

	// Optional JSON file overriding the built-in price book.
	PricingConfigPath string `env:"PRICING_CONFIG_PATH" envDefault:""`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Pprof access
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.1/32" envSeparator:","`

	// Tracing
	TracingEnabled    bool    `env:"TRACING_ENABLED" envDefault:"false"`
	TracingEndpoint   string  `env:"TRACING_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	TracingSampleRate float64 `env:"TRACING_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load checkout config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.PaymentProvider != ProviderMock && c.PaymentProvider != ProviderStripe {
		return fmt.Errorf("unknown payment provider: %q", c.PaymentProvider)
	}
	if c.PaymentProvider == ProviderStripe && c.StripeAPIKey == "" {
		return fmt.Errorf("STRIPE_API_KEY is required when PAYMENT_PROVIDER=stripe")
	}
	if c.CartTTL < 1 {
		return fmt.Errorf("invalid cart TTL: %d hours", c.CartTTL)
	}
	return nil
}

// CartTTLDuration returns the cart lifetime as a duration.
func (c *Config) CartTTLDuration() time.Duration {
	return time.Duration(c.CartTTL) * time.Hour
}

// JWTExpiry returns the access token lifetime as a duration.
func (c *Config) JWTExpiry() time.Duration {
	return time.Duration(c.JWTExpiryHours) * time.Hour
}

// StripeTimeout returns the per-call gateway deadline as a duration.
func (c *Config) StripeTimeout() time.Duration {
	return time.Duration(c.StripeTimeoutSeconds) * time.Second
}

// PostgresConfig returns the connection settings for the pool.
func (c *Config) PostgresConfig() database.PostgresConfig {
	pg := database.DefaultPostgresConfig()
	pg.Host = c.PostgresHost
	pg.Port = c.PostgresPort
	pg.User = c.PostgresUser
	pg.Password = c.PostgresPass
	pg.DBName = c.PostgresDB
	pg.SSLMode = c.PostgresSSL
	return pg
}

// PricingConfig returns the price book, applying the JSON override file when
// one is configured. Fields absent from the file keep their defaults, so an
// override only needs to name what it changes.
func (c *Config) PricingConfig() (domain.PricingConfig, error) {
	pricing := domain.DefaultPricingConfig()
	if c.PricingConfigPath == "" {
		return pricing, nil
	}

	data, err := os.ReadFile(c.PricingConfigPath)
	if err != nil {
		return pricing, fmt.Errorf("read pricing config: %w", err)
	}
	if err := json.Unmarshal(data, &pricing); err != nil {
		return pricing, fmt.Errorf("parse pricing config %s: %w", c.PricingConfigPath, err)
	}
	return pricing, nil
}
