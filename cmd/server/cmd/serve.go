package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/zeelus/server/internal/api"
	"github.com/zeelus/server/internal/api/middleware"
	"github.com/zeelus/server/internal/audit"
	"github.com/zeelus/server/internal/auth"
	"github.com/zeelus/server/internal/config"
	"github.com/zeelus/server/internal/domain/bookings"
	"github.com/zeelus/server/internal/domain/events"
	"github.com/zeelus/server/internal/domain/users"
	"github.com/zeelus/server/internal/email"
	"github.com/zeelus/server/internal/metrics"
	"github.com/zeelus/server/internal/storage/postgres"
	"github.com/zeelus/server/internal/telemetry"
	"github.com/zeelus/server/internal/validation"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type serveOptions struct {
	host           string
	port           int
	skipMigrations bool
}

func newServeCommand(global *globalOptions) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Zeelus HTTP server",
		Long: `Start the Zeelus HTTP server and begin accepting API requests.

The server will:
- Load configuration from environment variables (and .env if present)
- Apply pending database migrations unless --skip-migrations is set
- Bootstrap the admin user if ADMIN_EMAIL and ADMIN_PASSWORD are set
- Handle graceful shutdown on SIGINT/SIGTERM

Examples:
  # Start with default configuration (from env vars)
  server serve

  # Start on a specific host and port
  server serve --host 127.0.0.1 --port 9090

  # Start with debug logging
  server serve --log-level debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, global, opts)
		},
	}

	cmd.Flags().StringVar(&opts.host, "host", "", "server host address (default: 0.0.0.0)")
	cmd.Flags().IntVar(&opts.port, "port", 0, "server port (default: 5000)")
	cmd.Flags().BoolVar(&opts.skipMigrations, "skip-migrations", false, "do not apply database migrations on startup")
	return cmd
}

func runServer(ctx context.Context, global *globalOptions, opts *serveOptions) error {
	cfg, err := loadConfig(global)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if opts.host != "" {
		cfg.Server.Host = opts.host
	}
	if opts.port != 0 {
		cfg.Server.Port = opts.port
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info().Str("version", Version).Str("environment", cfg.Environment).Msg("starting zeelus server")

	metrics.Init(Version, GitCommit, BuildDate)

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Tracing, Version)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	if !opts.skipMigrations {
		if err := postgres.MigrateUp(cfg.Database.URL, ""); err != nil {
			return err
		}
		logger.Info().Msg("database migrations applied")
	}

	poolCtx, poolCancel := context.WithTimeout(ctx, 10*time.Second)
	pool, err := postgres.NewPool(poolCtx, cfg.Database.URL, cfg.Database.MaxConnections)
	poolCancel()
	if err != nil {
		return err
	}
	defer pool.Close()

	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return err
	}

	validator := validation.New()
	auditLogger := audit.NewLogger(logger)
	userService := users.NewService(repo.Users(), validator, logger)
	eventService := events.NewService(repo.Events(), validator, auditLogger, logger)
	bookingService := bookings.NewService(repo.Bookings(), eventService, auditLogger, logger)

	if err := bootstrapAdmin(ctx, cfg, userService, logger); err != nil {
		logger.Error().Err(err).Msg("admin bootstrap failed")
	}

	notifier, err := email.NewNotifier(cfg.Email, logger)
	if err != nil {
		return fmt.Errorf("init email: %w", err)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.Environment)
	handler := api.NewRouter(api.Deps{
		Config:    cfg,
		Logger:    logger,
		Users:     userService,
		Events:    eventService,
		Bookings:  bookingService,
		Tokens:    auth.NewTokenService(cfg.Auth.TokenSecret, cfg.Auth.TokenExpiry),
		Notifier:  notifier,
		Limiter:   limiter,
		DB:        pool,
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return metrics.NewDBCollector(pool).Run(gctx, 15*time.Second)
	})
	g.Go(func() error {
		return limiter.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		return gracefulShutdown(server, notifier, shutdownTracing, logger)
	})
	return g.Wait()
}

// bootstrapAdmin creates the administrator account when ADMIN_EMAIL and
// ADMIN_PASSWORD are configured.
func bootstrapAdmin(ctx context.Context, cfg config.Config, service *users.Service, logger zerolog.Logger) error {
	bootstrap := cfg.AdminBootstrap
	if bootstrap.Email == "" || bootstrap.Password == "" {
		logger.Debug().Msg("admin bootstrap env vars not set; skipping")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	user, created, err := service.EnsureAdmin(ctx, users.AdminParams{
		Name:     bootstrap.Name,
		Email:    bootstrap.Email,
		Password: bootstrap.Password,
	})
	if err != nil {
		return err
	}
	if !created {
		return nil
	}

	// Redact email in production to keep PII out of logs.
	if cfg.IsProduction() {
		logger.Info().Str("user_id", user.ID).Msg("bootstrapped admin user")
	} else {
		logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("bootstrapped admin user")
	}
	return nil
}

// gracefulShutdown stops accepting requests, drains in-flight emails and
// flushes pending spans, in that order.
func gracefulShutdown(server *http.Server, notifier *email.Notifier, shutdownTracing telemetry.ShutdownFunc, logger zerolog.Logger) error {
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
		errs = append(errs, err)
	}
	if err := notifier.Wait(ctx); err != nil {
		logger.Warn().Err(err).Msg("pending emails not delivered before shutdown")
	}
	if err := shutdownTracing(ctx); err != nil {
		logger.Error().Err(err).Msg("tracing shutdown error")
		errs = append(errs, err)
	}

	logger.Info().Msg("server stopped")
	return errors.Join(errs...)
}
