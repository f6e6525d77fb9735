package config

import (
	"encoding/hex"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store drivers accepted in CAMPUS_STORE_DRIVER.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreBolt     = "bolt"
)

// Config holds all configuration for the application
type Config struct {
	Environment    string        `env:"GO_ENV" envDefault:"development"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	APIURL         string        `env:"CAMPUS_API_URL" envDefault:"https://api.example.com"`
	RequestTimeout time.Duration `env:"CAMPUS_REQUEST_TIMEOUT" envDefault:"30s"`
	Store          StoreConfig
	Mail           MailConfig
	Telemetry      TelemetryConfig
}

// StoreConfig selects where the session credential is kept between runs. DSN is a file path
// for the sqlite and bolt drivers.
type StoreConfig struct {
	Driver string `env:"CAMPUS_STORE_DRIVER" envDefault:"sqlite"`
	DSN    string `env:"CAMPUS_STORE_DSN" envDefault:"campusevents.db"`
	// Secret is an optional hex-encoded 32-byte key. When set, stored values are sealed.
	Secret string `env:"CAMPUS_STORE_SECRET"`
}

// MailConfig configures the mailer used for roster exports.
type MailConfig struct {
	Provider           string `env:"MAIL_PROVIDER" envDefault:"noop"`
	FromAddress        string `env:"MAIL_FROM_ADDRESS"`
	FromName           string `env:"MAIL_FROM_NAME" envDefault:"Campus Events"`
	AWSRegion          string `env:"AWS_REGION"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	InsecureSkipVerify bool   `env:"MAIL_SES_INSECURE_SKIP_VERIFY"`
	MailerSendAPIKey   string `env:"MAILERSEND_API_KEY"`
}

// TelemetryConfig controls trace export. Tracing is off unless Endpoint is set.
type TelemetryConfig struct {
	Endpoint    string `env:"CAMPUS_OTEL_ENDPOINT"`
	Enabled     bool   `env:"CAMPUS_OTEL_ENABLED" envDefault:"true"`
	ServiceName string `env:"CAMPUS_OTEL_SERVICE_NAME" envDefault:"campusctl"`
}

// IsProduction reports whether GO_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load loads configuration from environment variables
// It attempts to load from .env file if not in production
func Load() (*Config, error) {
	// .env is optional; in production we rely on system environment variables.
	if !strings.EqualFold(os.Getenv("GO_ENV"), "production") {
		if err := godotenv.Load(); err != nil {
			log.Printf("Warning: .env file not found or couldn't be loaded: %v", err)
		}
	}
	return parse(env.Options{})
}

// FromMap builds a Config from vars instead of the process environment.
func FromMap(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("CAMPUS_API_URL must be an absolute URL, got %q", c.APIURL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("CAMPUS_REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	switch c.Store.Driver {
	case StoreMemory, StorePostgres, StoreSQLite, StoreBolt:
	default:
		return fmt.Errorf("CAMPUS_STORE_DRIVER must be one of memory, postgres, sqlite, bolt, got %q", c.Store.Driver)
	}
	if c.Store.Driver != StoreMemory && c.Store.DSN == "" {
		return fmt.Errorf("CAMPUS_STORE_DSN is required for the %s driver", c.Store.Driver)
	}
	if c.Telemetry.Endpoint != "" {
		if u, err := url.Parse(c.Telemetry.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("CAMPUS_OTEL_ENDPOINT must be an absolute URL, got %q", c.Telemetry.Endpoint)
		}
	}
	if c.Store.Secret != "" {
		if key, err := hex.DecodeString(c.Store.Secret); err != nil || len(key) != 32 {
			return fmt.Errorf("CAMPUS_STORE_SECRET must be 64 hex characters")
		}
	}
	return nil
}
