package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"account-service/internal/config"
	"account-service/internal/database"
	"account-service/internal/handlers"
	"account-service/internal/middleware"
	"account-service/internal/models"
	"account-service/internal/repositories"
	"account-service/internal/services"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger := loadConfig()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	ipExtractor, err := middleware.NewIPExtractor(cfg.Server.TrustedProxies)
	if err != nil {
		return fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}

	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}()

	if cfg.Seed.Enabled {
		if cfg.IsProduction() {
			logger.Warn("Seeding is enabled in production", "path", cfg.Seed.CSVPath)
		}
		if _, err := seedAccounts(ctx, db, cfg.Seed.CSVPath, logger); err != nil {
			logger.Warn("Seeding skipped", "path", cfg.Seed.CSVPath, "error", err)
		}
	}

	metrics := services.NewPrometheusMetrics()
	verifier := services.NewCustomerVerifier(
		cfg.CustomerService,
		newCustomerServiceBreaker(cfg.CustomerService, metrics, logger),
		metrics,
		logger,
	)
	accountService := services.NewAccountService(
		repositories.NewAccountRepository(db.DB),
		verifier,
		metrics,
		logger,
		services.NewAccountServiceConfig(cfg.Accounts),
	)

	rateLimiter := middleware.NewRateLimiter(cfg.Server.RateLimitPerSecond, cfg.Server.RateLimitBurst)
	rateLimiter.StartCleanup(ctx)

	e := newEcho(cfg, logger, ipExtractor, rateLimiter)
	handlers.RegisterRoutes(e,
		handlers.NewAccountHandler(accountService, logger),
		handlers.NewHealthCheckHandler(db.DB),
		promhttp.Handler(),
	)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      e,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "address", server.Addr, "environment", cfg.Server.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

func newEcho(cfg *config.Config, logger *slog.Logger, ipExtractor echo.IPExtractor, rateLimiter *middleware.RateLimiter) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Debug = cfg.IsDevelopment()
	e.IPExtractor = ipExtractor
	e.Validator = handlers.NewValidator()
	e.HTTPErrorHandler = middleware.CustomHTTPErrorHandler

	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(logger))
	e.Use(middleware.PanicRecovery(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(rateLimiter.Middleware())

	return e
}

// newCustomerServiceBreaker guards the customer service and mirrors its
// state into the circuit_breaker_state gauge
func newCustomerServiceBreaker(cfg config.CustomerServiceConfig, metrics services.MetricsRecorderInterface, logger *slog.Logger) services.CircuitBreakerInterface {
	breakerCfg := services.DefaultCircuitBreakerConfig()
	breakerCfg.MaxFailures = cfg.BreakerMaxFailures
	breakerCfg.ResetTimeout = cfg.BreakerReset
	breakerCfg.OnStateChange = func(name string, from, to models.CircuitBreakerState) {
		logger.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		metrics.RecordGauge(services.MetricCircuitBreakerState, float64(to), map[string]string{"service": name})
	}

	metrics.RecordGauge(services.MetricCircuitBreakerState, float64(services.StateClosed), map[string]string{"service": breakerCfg.Name})
	return services.NewCircuitBreaker(breakerCfg)
}
