// Package server assembles and runs the authkeeper server: storage,
// password hashing, token issuance, mail delivery, the gRPC endpoint and
// the metrics/health endpoint.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/cryptox"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/authkeeper/internal/server/notify"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"

	gs "github.com/dmitrijs2005/authkeeper/internal/server/grpc"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	authService *services.AuthService
	metrics     *metrics.Server
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	rm, err := repomanager.Open(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app := &App{config: c, logger: logger, repomanager: rm}
	app.metrics = metrics.NewServer(c.MetricsAddr, app.ready, logger)

	hasher := cryptox.NewPasswordHasher(c.BcryptCost, c.HashWorkers,
		cryptox.WithHashObserver(app.metrics.Metrics().ObserveHash))
	tokens := auth.NewTokenService([]byte(c.SecretKey), c.AccessTokenValidityDuration)

	app.authService, err = services.NewAuthService(rm, c, hasher, tokens, newNotifier(c, logger), logger,
		services.WithMetrics(app.metrics.Metrics()))
	if err != nil {
		_ = rm.Close()
		return nil, err
	}

	return app, nil
}

func newNotifier(c *config.Config, logger logging.Logger) notify.Notifier {
	if c.SMTPAddr == "" {
		return notify.NewLogNotifier(logger)
	}
	return notify.NewSMTPNotifier(c.SMTPAddr, c.SMTPUser, c.SMTPPassword, c.MailFrom)
}

type pinger interface {
	PingContext(ctx context.Context) error
}

// ready pings the database when there is one.
func (app *App) ready(ctx context.Context) error {
	if p, ok := app.repomanager.DB().(pinger); ok {
		return p.PingContext(ctx)
	}
	return nil
}

// Run migrates the store and serves until ctx is cancelled or a
// termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	defer func() {
		if err := app.repomanager.Close(); err != nil {
			app.logger.Error(context.Background(), "close storage", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting app...")

	if err := app.repomanager.RunMigrations(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	if app.config.MetricsAddr != "" {
		metricsErr, err := app.metrics.Start()
		if err != nil {
			return fmt.Errorf("metrics server: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := app.metrics.Stop(shutdownCtx); err != nil {
				app.logger.Error(shutdownCtx, "stop metrics server", "error", err)
			}
		}()
		go func() {
			if err, ok := <-metricsErr; ok && err != nil {
				app.logger.Error(ctx, "metrics server failed", "error", err)
				stop()
			}
		}()
	}

	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.authService)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		return err
	}

	app.logger.Info(context.Background(), "Stopped")
	return nil
}
