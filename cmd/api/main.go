package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/telehealth-portal/cmd/mainconfig"
	"github.com/wolfman30/telehealth-portal/internal/api/router"
	"github.com/wolfman30/telehealth-portal/internal/app/bootstrap"
	"github.com/wolfman30/telehealth-portal/internal/appointments"
	"github.com/wolfman30/telehealth-portal/internal/auth"
	appconfig "github.com/wolfman30/telehealth-portal/internal/config"
	"github.com/wolfman30/telehealth-portal/internal/medications"
	"github.com/wolfman30/telehealth-portal/internal/notify"
	"github.com/wolfman30/telehealth-portal/internal/observability/metrics"
	"github.com/wolfman30/telehealth-portal/internal/symptoms"
	"github.com/wolfman30/telehealth-portal/pkg/logging"
)

func main() {
	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting telehealth-portal API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	registry, metricsHandler := setupMetrics()

	// Storage
	pool := bootstrap.ConnectPostgresPool(ctx, cfg.DatabaseURL, logger)
	if pool != nil {
		defer pool.Close()
	}
	rlsPool := bootstrap.ConnectPostgresPool(ctx, cfg.DatabaseRLSURL, logger)
	if rlsPool != nil {
		defer rlsPool.Close()
	}
	usersDB := bootstrap.OpenUsersDB(cfg.DatabaseURL, logger)
	if usersDB != nil {
		defer usersDB.Close()
	}
	userStore := bootstrap.BuildUserStore(usersDB, logger)

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Auth
	hasher, err := auth.NewHasher(cfg.PasswordHasher)
	if err != nil {
		logger.Error("invalid password hasher", "error", err)
		os.Exit(1)
	}
	authService := auth.NewService(userStore, hasher, bootstrap.BuildSessionStore(redisClient, logger), metrics.NewAuthMetrics(registry), logger)

	// Appointments and notifications
	var privileged appointments.Repository
	var medicationsRepo medications.Repository
	if pool != nil {
		privileged = appointments.NewPostgresRepository(pool)
		medicationsRepo = medications.NewPostgresRepository(pool)
	} else {
		logger.Warn("DATABASE_URL not set; appointments and medications are kept in memory")
		privileged = appointments.NewInMemoryRepository()
		medicationsRepo = medications.NewInMemoryRepository()
	}

	emailSender, err := bootstrap.BuildEmailSender(cfg, awsCfg, logger)
	if err != nil {
		logger.Error("failed to configure email", "error", err)
		os.Exit(1)
	}
	directory := bootstrap.BuildProviderDirectory(cfg)
	notifyService := notify.NewService(privileged, userStore, directory, emailSender, metrics.NewNotificationMetrics(registry), logger)
	notifier := bootstrap.BuildNotifier(cfg, awsCfg, notifyService, logger)

	appointmentsHandler := appointments.NewHandler(privileged, scopeFor(rlsPool), notifier, metrics.NewAppointmentMetrics(registry), logger)

	checker, err := bootstrap.BuildSymptomChecker(ctx, cfg, awsCfg, logger)
	if err != nil {
		logger.Error("failed to configure symptom checker", "error", err)
		os.Exit(1)
	}
	var symptomsHandler *symptoms.Handler
	if checker != nil {
		disclaimers, audit := bootstrap.BuildCompliance(cfg, usersDB)
		symptomsHandler = symptoms.NewHandler(checker, logger).WithCompliance(disclaimers, audit)
	}

	// Setup router
	routerCfg := &router.Config{
		Logger:              logger,
		AuthHandler:         auth.NewHandler(authService, cfg.SessionCookieSecure, logger),
		SessionLoader:       authService,
		AppointmentsHandler: appointmentsHandler,
		NotifyHandler:       notify.NewHandler(notifyService, directory, cfg.ClinicInboxEmail, logger),
		MedicationsHandler:  medications.NewHandler(medicationsRepo, logger),
		SymptomsHandler:     symptomsHandler,
		MetricsHandler:      metricsHandler,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitRPS:        cfg.RateLimitRPS,
		RateLimitBurst:      cfg.RateLimitBurst,
	}
	r := router.New(routerCfg)

	// Create HTTP server. WriteTimeout stays zero so the session event
	// websocket is not cut off.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

func setupMetrics() (*prometheus.Registry, http.Handler) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry, promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// scopeFor builds the per-request row-level-secured repository. Without an
// RLS connection reads fall back to the privileged repository.
func scopeFor(pool *pgxpool.Pool) appointments.ScopeFunc {
	if pool == nil {
		return nil
	}
	return func(r *http.Request) appointments.Repository {
		return appointments.NewScopedRepository(pool, auth.IdentityFromContext(r.Context()).UserID())
	}
}
