package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/flagx"
)

var knownFlags = []string{
	"-a", "-m", "-d", "-s", "-t", "-r", "-k", "-w", "-q", "-u", "-p",
	"-smtp-addr", "-smtp-user", "-smtp-password", "-mail-from", "-service-name", "-log-level",
}

// parseFlags overlays command-line flags onto config.
//
// Supported flags:
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-m string   metrics/health bind address (empty disables)
//	-d string   PostgreSQL DSN (empty uses the in-memory store)
//	-s string   session token HMAC secret
//	-t int      access token validity, minutes
//	-r int      password reset token validity, minutes
//	-k int      bcrypt cost
//	-w int      concurrent password hashing workers
//	-q bool     require a confirmed email before login (use -q=true)
//	-u string   confirmation link base URL
//	-p string   password reset link base URL
//	-smtp-addr, -smtp-user, -smtp-password, -mail-from, -service-name, -log-level
//
// Only recognised flags are picked out of args, so other components may
// define their own.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("authkeeper", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run gRPC server")
	fs.StringVar(&config.MetricsAddr, "m", config.MetricsAddr, "address and port to serve metrics")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTTL := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	resetTTL := fs.Int("r", int(config.PasswordResetValidityDuration.Minutes()), "password reset validity (in minutes)")

	fs.IntVar(&config.BcryptCost, "k", config.BcryptCost, "bcrypt cost")
	fs.IntVar(&config.HashWorkers, "w", config.HashWorkers, "password hashing workers")
	fs.BoolVar(&config.RequireConfirmedEmail, "q", config.RequireConfirmedEmail, "require confirmed email to log in")
	fs.StringVar(&config.ConfirmationURL, "u", config.ConfirmationURL, "confirmation link base URL")
	fs.StringVar(&config.PasswordResetURL, "p", config.PasswordResetURL, "password reset link base URL")
	fs.StringVar(&config.SMTPAddr, "smtp-addr", config.SMTPAddr, "SMTP server host:port")
	fs.StringVar(&config.SMTPUser, "smtp-user", config.SMTPUser, "SMTP user")
	fs.StringVar(&config.SMTPPassword, "smtp-password", config.SMTPPassword, "SMTP password")
	fs.StringVar(&config.MailFrom, "mail-from", config.MailFrom, "sender address")
	fs.StringVar(&config.ServiceName, "service-name", config.ServiceName, "service name used in emails")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		return err
	}

	// Minute flags only override durations when given explicitly, so finer
	// values from JSON survive.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessTTL) * time.Minute
		case "r":
			config.PasswordResetValidityDuration = time.Duration(*resetTTL) * time.Minute
		}
	})
	return nil
}
