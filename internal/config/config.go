package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	pkgconfig "github.com/utafrali/shopstate/pkg/config"
)

// defaultJWTSecret is only acceptable outside production.
const defaultJWTSecret = "shopstate-dev-secret"

// Config holds all configuration for the shopstate service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"SHOPSTATE_HTTP_PORT" envDefault:"8010"`

	// Durable backend: memory://, file:///path, redis://host:port/db, postgres://...
	StorageDSN       string `env:"STORAGE_DSN" envDefault:"memory://"`
	StorageTimeoutMS int    `env:"STORAGE_TIMEOUT_MS" envDefault:"2000"`
	StorageTTLHours  int    `env:"STORAGE_TTL_HOURS" envDefault:"720"`

	// Pricing
	TaxRate               float64 `env:"TAX_RATE" envDefault:"0.08"`
	FreeShippingThreshold float64 `env:"FREE_SHIPPING_THRESHOLD" envDefault:"100"`
	ShippingFee           float64 `env:"SHIPPING_FEE" envDefault:"9.99"`
	ShippingRule          string  `env:"SHIPPING_RULE"`
	DiscountTableFile     string  `env:"DISCOUNT_TABLE_FILE"`
	StockPolicy           string  `env:"STOCK_POLICY" envDefault:"eager"`

	// Kafka
	KafkaBrokers  []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	EventsEnabled bool     `env:"EVENTS_ENABLED" envDefault:"false"`

	// Sessions
	JWTSecret            string `env:"JWT_SECRET" envDefault:"shopstate-dev-secret"`
	DeviceIdleTTLMinutes int    `env:"DEVICE_IDLE_TTL_MINUTES" envDefault:"30"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load shopstate config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFrom reads configuration from vars instead of the environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.LoadFrom(cfg, vars); err != nil {
		return nil, fmt.Errorf("load shopstate config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// StorageTimeout returns the per-call backend timeout.
func (c *Config) StorageTimeout() time.Duration {
	return time.Duration(c.StorageTimeoutMS) * time.Millisecond
}

// StorageTTL returns how long snapshots live in expiring backends.
func (c *Config) StorageTTL() time.Duration {
	return time.Duration(c.StorageTTLHours) * time.Hour
}

// DeviceIdleTTL returns how long an idle device stays in memory.
func (c *Config) DeviceIdleTTL() time.Duration {
	return time.Duration(c.DeviceIdleTTLMinutes) * time.Minute
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// StorageScheme returns the scheme of StorageDSN.
func (c *Config) StorageScheme() string {
	u, err := url.Parse(c.StorageDSN)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Scheme)
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	switch c.StorageScheme() {
	case "memory", "file", "redis", "rediss", "postgres", "postgresql":
	default:
		return fmt.Errorf("unsupported STORAGE_DSN scheme: %q", c.StorageDSN)
	}
	if c.StorageTimeoutMS <= 0 {
		return fmt.Errorf("STORAGE_TIMEOUT_MS must be positive, got %d", c.StorageTimeoutMS)
	}
	if c.StorageTTLHours < 0 {
		return fmt.Errorf("STORAGE_TTL_HOURS must not be negative, got %d", c.StorageTTLHours)
	}
	if c.TaxRate < 0 || c.TaxRate > 1 {
		return fmt.Errorf("TAX_RATE must be between 0 and 1, got %f", c.TaxRate)
	}
	if c.FreeShippingThreshold < 0 {
		return fmt.Errorf("FREE_SHIPPING_THRESHOLD must not be negative, got %f", c.FreeShippingThreshold)
	}
	if c.ShippingFee < 0 {
		return fmt.Errorf("SHIPPING_FEE must not be negative, got %f", c.ShippingFee)
	}
	switch strings.ToLower(c.StockPolicy) {
	case "eager", "lazy":
	default:
		return fmt.Errorf("STOCK_POLICY must be eager or lazy, got %q", c.StockPolicy)
	}
	if c.EventsEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when EVENTS_ENABLED is set")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.IsProduction() && c.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be overridden in production")
	}
	if c.DeviceIdleTTLMinutes <= 0 {
		return fmt.Errorf("DEVICE_IDLE_TTL_MINUTES must be positive, got %d", c.DeviceIdleTTLMinutes)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0 and 1, got %f", c.OTELSampleRate)
	}
	return nil
}
