package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/authkeeper/internal/flagx"
	"github.com/dmitrijs2005/authkeeper/internal/timex"
)

// JsonConfig mirrors Config for JSON decoding. Durations accept "15m" style
// strings or integer nanoseconds. Absent (zero) fields leave the current
// value untouched.
type JsonConfig struct {
	EndpointAddrGRPC              string         `json:"endpoint_addr_grpc"`
	MetricsAddr                   string         `json:"metrics_addr"`
	DatabaseDSN                   string         `json:"database_dsn"`
	SecretKey                     string         `json:"secret_key"`
	AccessTokenValidityDuration   timex.Duration `json:"access_token_validity_duration"`
	PasswordResetValidityDuration timex.Duration `json:"password_reset_validity_duration"`
	BcryptCost                    int            `json:"bcrypt_cost"`
	HashWorkers                   int            `json:"hash_workers"`
	RequireConfirmedEmail         *bool          `json:"require_confirmed_email"`
	ConfirmationURL               string         `json:"confirmation_url"`
	PasswordResetURL              string         `json:"password_reset_url"`
	SMTPAddr                      string         `json:"smtp_addr"`
	SMTPUser                      string         `json:"smtp_user"`
	SMTPPassword                  string         `json:"smtp_password"`
	MailFrom                      string         `json:"mail_from"`
	ServiceName                   string         `json:"service_name"`
	LogLevel                      string         `json:"log_level"`
}

// parseJson overlays the JSON file named by -c/-config onto config.
// No flag means nothing to load.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.MetricsAddr, c.MetricsAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.PasswordResetValidityDuration.Duration != 0 {
		config.PasswordResetValidityDuration = c.PasswordResetValidityDuration.Duration
	}
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
	if c.HashWorkers != 0 {
		config.HashWorkers = c.HashWorkers
	}
	if c.RequireConfirmedEmail != nil {
		config.RequireConfirmedEmail = *c.RequireConfirmedEmail
	}
	setString(&config.ConfirmationURL, c.ConfirmationURL)
	setString(&config.PasswordResetURL, c.PasswordResetURL)
	setString(&config.SMTPAddr, c.SMTPAddr)
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.MailFrom, c.MailFrom)
	setString(&config.ServiceName, c.ServiceName)
	setString(&config.LogLevel, c.LogLevel)

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
