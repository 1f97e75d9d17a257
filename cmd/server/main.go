package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/pinfill/internal"
	"github.com/dukerupert/pinfill/internal/address"
	"github.com/dukerupert/pinfill/internal/cookie"
	"github.com/dukerupert/pinfill/internal/events"
	"github.com/dukerupert/pinfill/internal/handler"
	"github.com/dukerupert/pinfill/internal/middleware"
	"github.com/dukerupert/pinfill/internal/pincode"
	"github.com/dukerupert/pinfill/internal/router"
	"github.com/dukerupert/pinfill/internal/routes"
	"github.com/dukerupert/pinfill/internal/session"
	"github.com/dukerupert/pinfill/internal/telemetry"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const shutdownTimeout = 15 * time.Second

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	// Telemetry
	telemetry.InitAddressMetrics(cfg.MetricsNamespace)
	flushSentry, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:         cfg.Sentry.DSN,
		Enabled:     cfg.Sentry.Enabled,
		Environment: cfg.Sentry.Environment,
		Release:     cfg.Sentry.Release,
		SampleRate:  cfg.Sentry.SampleRate,
	}, logger)
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	defer flushSentry()

	health := handler.NewHealthHandler()

	// ==========================================================================
	// Pincode directory
	// ==========================================================================

	var directory pincode.Directory
	if cfg.DatabaseUrl != "" {
		logger.Info("Connecting to database...")
		sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		defer sqlDB.Close()

		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("database ping failed: %w", err)
		}

		logger.Info("Running database migrations...")
		if err := internal.RunMigrations(ctx, sqlDB); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logger.Info("Database migrations completed successfully")

		pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
		if err != nil {
			return fmt.Errorf("failed to create connection pool: %w", err)
		}
		defer pool.Close()

		directory = pincode.NewPostgresDirectory(pool)
		health.Register("database", pool.Ping)
	} else {
		logger.Warn("DATABASE_URL not set, serving the built-in pincode directory",
			slog.Int("pincodes", len(pincode.SeedLocations)))
		directory = pincode.NewMemoryDirectory(pincode.SeedLocations)
	}
	directory = pincode.NewCoalescing(directory, cfg.Pincode.LookupTimeout)

	// ==========================================================================
	// Address sink
	// ==========================================================================

	var sink address.Sink
	if cfg.NATS.URL != "" {
		publisher, err := events.Connect(events.Config{
			URL:           cfg.NATS.URL,
			SubjectPrefix: cfg.NATS.SubjectPrefix,
		}, logger)
		if err != nil {
			return fmt.Errorf("nats connection failed: %w", err)
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Warn("nats drain failed", slog.Any("error", err))
			}
		}()
		sink = publisher
		health.Register("nats", publisher.Check)
		logger.Info("Publishing submitted addresses", slog.String("subject", publisher.Subject("*")))
	} else {
		logger.Warn("NATS_URL not set, submitted addresses are only logged")
		sink = events.NewLogSink(logger)
	}

	// ==========================================================================
	// Sessions
	// ==========================================================================

	store, err := session.NewCookieStore(cfg.SessionSecret, cookie.NewConfig(cfg.CookieDomain, !cfg.IsDev()), logger)
	if err != nil {
		return fmt.Errorf("session store initialization failed: %w", err)
	}

	// ==========================================================================
	// Initialize middleware
	// ==========================================================================

	metrics := middleware.NewMetrics(cfg.MetricsNamespace, nil)

	securityConfig := middleware.DefaultSecurityHeadersConfig()
	if cfg.IsDev() {
		securityConfig.HSTSMaxAge = 0
	}

	limitConfig := middleware.DefaultRateLimiterConfig()
	limitConfig.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
	limitConfig.BurstSize = int(cfg.RateLimit.Burst)
	lookupLimiter := middleware.NewRateLimiter(limitConfig)

	reportPanic := func(err error) {
		telemetry.CaptureError(err, "", nil)
	}

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	r := router.New(
		router.Recovery(logger, reportPanic),
		middleware.RequestID,
		middleware.WithClientIP(),
		telemetry.SentryMiddleware(),
		middleware.WithSession(store),
		middleware.WithRequestLogger(logger),
		router.Logger(logger),
		router.CORS(router.ParseOrigins(cfg.CORSOrigins)),
		middleware.SecurityHeaders(securityConfig),
		metrics.Middleware,
	)

	apiDeps := routes.APIDeps{
		PincodeHandler: handler.NewPincodeHandler(directory),
		AddressHandler: handler.NewAddressHandler(address.NewBasicValidator(), sink),
		SessionHandler: handler.NewSessionHandler(store),
		LookupLimit:    lookupLimiter.Middleware,
		MaxBody:        middleware.MaxBodySize(),
	}
	routes.RegisterAPIRoutes(r, apiDeps)
	if cfg.IsDev() {
		routes.RegisterDevRoutes(r, apiDeps)
	}
	routes.RegisterOpsRoutes(r, routes.OpsDeps{
		HealthHandler:  health,
		MetricsHandler: metrics.Handler(),
	})

	// ==========================================================================
	// Start server
	// ==========================================================================

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting pinfill server", slog.String("address", srv.Addr), slog.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
