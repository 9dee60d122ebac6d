// Package config loads and validates process configuration. Everything is
// read once at startup from the environment and immutable afterwards.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/uzmanim/payment-recon/internal/policy"
)

// Defaults for the optional settings.
const (
	// DefaultBaseURL is the provider's production API origin.
	DefaultBaseURL = "https://api.iyzipay.com"

	// DefaultPageSize is the listing page size; the provider caps pages at 100.
	DefaultPageSize = 100

	// DefaultMaxPages bounds the pagination loop against a misbehaving provider.
	DefaultMaxPages = 10

	// DefaultHTTPTimeout bounds each outbound provider call.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultAWSRegion is used when the runtime exposes no region of its own.
	DefaultAWSRegion = "eu-central-1"
)

// ConfigurationError reports missing or invalid required configuration.
// It is fatal to the whole run; there is no partial report to produce.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s %s", e.Field, e.Reason)
}

// Config is the full engine configuration. Credentials are opaque byte
// strings owned by the process for its lifetime; they are never logged
// and never persisted.
type Config struct {
	APIKey    string `validate:"required"`
	SecretKey string `validate:"required"`
	BaseURL   string `validate:"required,url"`

	RetryCooldown time.Duration `validate:"gt=0"`
	PageSize      int           `validate:"gt=0,lte=100"`
	MaxPages      int           `validate:"gt=0"`
	HTTPTimeout   time.Duration `validate:"gt=0"`

	// Reporting collaborators; optional, features degrade to log-only
	// when unset (local runs).
	ReportsTable string
	QueueURL     string
	ReportTTL    time.Duration

	AWSRegion string
}

// FromEnv reads configuration from the environment and validates it.
// Absent credentials surface as *ConfigurationError.
func FromEnv() (*Config, error) {
	cfg := &Config{
		APIKey:        os.Getenv("API_KEY"),
		SecretKey:     os.Getenv("SECRET_KEY"),
		BaseURL:       envOr("BASE_URL", DefaultBaseURL),
		RetryCooldown: envDuration("RETRY_COOLDOWN", policy.DefaultCooldown),
		PageSize:      envInt("PAGE_SIZE", DefaultPageSize),
		MaxPages:      envInt("MAX_PAGES", DefaultMaxPages),
		HTTPTimeout:   envDuration("HTTP_TIMEOUT", DefaultHTTPTimeout),
		ReportsTable:  os.Getenv("REPORTS_TABLE"),
		QueueURL:      os.Getenv("RUNS_QUEUE_URL"),
		ReportTTL:     envDuration("REPORT_TTL", 90*24*time.Hour),
		AWSRegion:     envOr("AWS_REGION", DefaultAWSRegion),
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate runs struct validation and maps the first violation to a
// *ConfigurationError with the offending field named.
func validate(cfg *Config) error {
	v := validatorv10.New()
	err := v.Struct(cfg)
	if err == nil {
		return nil
	}
	if ve, ok := err.(validatorv10.ValidationErrors); ok && len(ve) > 0 {
		fe := ve[0]
		reason := "is invalid"
		if fe.Tag() == "required" {
			reason = "is required"
		}
		return &ConfigurationError{Field: fe.StructField(), Reason: reason}
	}
	return &ConfigurationError{Field: "Config", Reason: err.Error()}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
