package config

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
	"github.com/information-sharing-networks/dcs-checker/internal/crypto"
)

// Environment variables with defaults
type Environment struct {

	// general settings
	Environment string `env:"ENVIRONMENT,default=dev"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`

	// check settings
	PayloadComparison     string `env:"PAYLOAD_COMPARISON,default=exact"`
	RequireJWEThumbprints bool   `env:"REQUIRE_JWE_THUMBPRINTS,default=true"`

	// http server settings (dcs-check serve)
	Host                  string        `env:"HOST,default=0.0.0.0"`
	Port                  int           `env:"PORT,default=8080"`
	ReadTimeout           time.Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout          time.Duration `env:"WRITE_TIMEOUT,default=15s"`
	IdleTimeout           time.Duration `env:"IDLE_TIMEOUT,default=60s"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=10s"`
	RateLimitRPS          int32         `env:"RATE_LIMIT_RPS,default=100"`
	RateLimitBurst        int32         `env:"RATE_LIMIT_BURST,default=200"`
	MaxRequestSize        int64         `env:"MAX_REQUEST_SIZE,default=1048576"`

	// key material for the server; only needed by dcs-check serve
	SigningCertificatePath    string `env:"SIGNING_CERTIFICATE_PATH"`
	EncryptionCertificatePath string `env:"ENCRYPTION_CERTIFICATE_PATH"`
	EncryptionKeyPath         string `env:"ENCRYPTION_KEY_PATH"`
}

var validEnvs = map[string]bool{
	"dev":     true,
	"test":    true,
	"prod":    true,
	"staging": true,
}

// NewConfig loads environment variables and returns an Environment struct that contains the values
func NewConfig() (*Environment, error) {
	var cfg Environment

	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Profile returns the DCS profile adjusted for the configured JWE thumbprint setting.
func (c *Environment) Profile() crypto.Profile {
	profile := crypto.DCSProfile
	profile.RequireJWEThumbprints = c.RequireJWEThumbprints
	return profile
}

// Comparison returns the configured payload comparison mode.
func (c *Environment) Comparison() crypto.PayloadComparison {
	mode, err := crypto.ParsePayloadComparison(c.PayloadComparison)
	if err != nil {
		return crypto.PayloadComparisonExact
	}
	return mode
}

// ValidateServer checks the settings only needed by the HTTP server.
func (c *Environment) ValidateServer() error {
	if c.SigningCertificatePath == "" {
		return fmt.Errorf("SIGNING_CERTIFICATE_PATH is required")
	}
	if c.EncryptionKeyPath == "" {
		return fmt.Errorf("ENCRYPTION_KEY_PATH is required")
	}
	if c.MaxRequestSize < 1 {
		return fmt.Errorf("MAX_REQUEST_SIZE must be at least 1, got %d", c.MaxRequestSize)
	}
	return nil
}

// validateConfig checks the loaded values
func validateConfig(cfg *Environment) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if !validEnvs[cfg.Environment] {
		return fmt.Errorf("invalid ENVIRONMENT: %s", cfg.Environment)
	}
	if _, err := crypto.ParsePayloadComparison(cfg.PayloadComparison); err != nil {
		return fmt.Errorf("invalid PAYLOAD_COMPARISON: %w", err)
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be 0 or greater")
	}
	if cfg.RateLimitRPS > 0 && cfg.RateLimitBurst == 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1 when rate limiting is enabled")
	}
	return nil
}
