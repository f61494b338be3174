// Package config handles configuration for the authkeeper server, including
// defaults, JSON overlay and command-line flags.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"time"
)

// Config holds runtime settings for the authkeeper server.
//
// Fields:
//   - EndpointAddrGRPC: bind address for the public gRPC endpoint.
//   - MetricsAddr: bind address for /metrics and /healthz; empty disables it.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty selects the in-memory store.
//   - SecretKey: HMAC secret for signing session tokens (HS256).
//   - AccessTokenValidityDuration: session token lifetime.
//   - PasswordResetValidityDuration: lifetime of emailed password reset tokens.
//   - BcryptCost / HashWorkers: password hashing cost and concurrency bound.
//   - RequireConfirmedEmail: refuse login until the email address is confirmed.
//   - ConfirmationURL / PasswordResetURL: links embedded into outgoing emails.
//   - SMTPAddr / SMTPUser / SMTPPassword / MailFrom: outbound mail; empty
//     SMTPAddr logs messages instead of sending them.
type Config struct {
	EndpointAddrGRPC              string
	MetricsAddr                   string
	DatabaseDSN                   string
	SecretKey                     string
	AccessTokenValidityDuration   time.Duration
	PasswordResetValidityDuration time.Duration
	BcryptCost                    int
	HashWorkers                   int
	RequireConfirmedEmail         bool
	ConfirmationURL               string
	PasswordResetURL              string
	SMTPAddr                      string
	SMTPUser                      string
	SMTPPassword                  string
	MailFrom                      string
	ServiceName                   string
	LogLevel                      string
}

// LoadDefaults populates Config with development defaults.
// NOTE: the secret key is insecure and must be overridden in production.
func (c *Config) LoadDefaults() {
	c.EndpointAddrGRPC = ":50051"
	c.MetricsAddr = ":9100"
	c.DatabaseDSN = ""
	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = 24 * time.Hour
	c.PasswordResetValidityDuration = 1 * time.Hour
	c.BcryptCost = 10
	c.HashWorkers = runtime.NumCPU()
	c.RequireConfirmedEmail = false
	c.ConfirmationURL = "http://localhost:8081/confirm-email"
	c.PasswordResetURL = "http://localhost:8081/reset-password"
	c.MailFrom = "no-reply@localhost"
	c.ServiceName = "BeautyCosmetics"
	c.LogLevel = "info"
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.SecretKey == "" {
		errs = append(errs, errors.New("secret key must not be empty"))
	}
	if c.AccessTokenValidityDuration <= 0 {
		errs = append(errs, fmt.Errorf("access token validity must be positive, got %s", c.AccessTokenValidityDuration))
	}
	if c.PasswordResetValidityDuration <= 0 {
		errs = append(errs, fmt.Errorf("password reset validity must be positive, got %s", c.PasswordResetValidityDuration))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("bcrypt cost must be within 4..31, got %d", c.BcryptCost))
	}
	if c.HashWorkers < 1 {
		errs = append(errs, fmt.Errorf("hash workers must be at least 1, got %d", c.HashWorkers))
	}
	return errors.Join(errs...)
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, fmt.Errorf("json config: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
