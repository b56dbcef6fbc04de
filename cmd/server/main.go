package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/ahmetcoskunkizilkaya/account-hub/internal/appclient"
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/config"
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/database"
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/logging"
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/ratelimit"
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/routes"
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/services"
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/tenant"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	_ = godotenv.Load()
	cfg := config.Load()

	if cfg.SyncKey == "" {
		slog.Error("SYNC_KEY environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}
	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}

	// App registry
	registry, err := tenant.LoadFromFile(cfg.AppsConfigPath)
	if err != nil {
		slog.Error("failed to load app registry", "path", cfg.AppsConfigPath, "error", err)
		os.Exit(1)
	}
	slog.Info("app registry loaded", "apps", len(registry.All()))

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		pgLogHandler,
	)))

	// Log cleanup
	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, 30, cleanupDone)

	// Redis backs only the rate limiter; a failed connection degrades to
	// fail-open admission, it does not stop the server.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	limiter := ratelimit.New(rdb, map[string]ratelimit.Limit{
		routes.ClassDefault: {Requests: 60, Window: time.Minute},
		routes.ClassSignup:  {Requests: 10, Window: time.Minute},
		routes.ClassSync:    {Requests: 30, Window: time.Minute},
		routes.ClassCoupon:  {Requests: 15, Window: time.Minute},
	})

	// Services
	client := appclient.New(registry)
	accountService := services.NewAccountService(database.DB, registry, cfg.TrialDays)
	provisionService := services.NewProvisionService(database.DB)
	auditService := services.NewAuditService(database.DB, cfg.AuditRetentionDays)
	passwordSyncService := services.NewPasswordSyncService(
		accountService, provisionService, auditService, client, registry, cfg.SyncTimeout)
	couponService := services.NewCouponService(database.DB, registry)
	subscriptionService := services.NewSubscriptionService(database.DB, provisionService)
	reconcileService := services.NewReconcileService(database.DB, provisionService, client, cfg.SyncTimeout)

	// Failed/pending sync replay loop
	retryDone := make(chan struct{})
	reconcileService.StartRetryWorker(cfg.RetryInterval, retryDone)

	// Handlers
	accountHandler := handlers.NewAccountHandler(accountService, couponService, auditService)
	provisionHandler := handlers.NewProvisionHandler(provisionService, accountService, auditService)
	passwordHandler := handlers.NewPasswordHandler(accountService, provisionService, passwordSyncService)
	couponHandler := handlers.NewCouponHandler(couponService, auditService)
	entitlementHandler := handlers.NewEntitlementHandler(accountService, registry)
	webhookHandler := handlers.NewWebhookHandler(subscriptionService, cfg)
	auditHandler := handlers.NewAuditHandler(auditService)
	reconcileHandler := handlers.NewReconcileHandler(reconcileService, auditService)
	healthHandler := handlers.NewHealthHandler(registry, rdb)

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		return c.Next()
	})
	app.Use(middleware.TenantMiddleware(registry))

	// Routes
	routes.Setup(app, cfg, limiter,
		accountHandler, provisionHandler, passwordHandler, couponHandler,
		entitlementHandler, webhookHandler, auditHandler, reconcileHandler,
		healthHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	close(cleanupDone)
	close(retryDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	if err := rdb.Close(); err != nil {
		slog.Error("redis close error", "error", err)
	}
	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
