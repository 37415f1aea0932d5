package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coinvest-api/internal/adapters/cache"
	"coinvest-api/internal/adapters/http/middleware"
	"coinvest-api/internal/adapters/http/routes"
	"coinvest-api/internal/adapters/identity"
	"coinvest-api/internal/adapters/persistence/models"
	"coinvest-api/internal/config"
	"coinvest-api/internal/core/services"
	"coinvest-api/internal/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	_ "coinvest-api/docs" // Swagger docs
)

// @title Coinvest API
// @version 1.0
// @description Crypto investment platform API: plans, investments, deposit/withdrawal review and admin roles.

// @contact.name API Support

// @BasePath /api/v1
// @schemes https http

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("❌ Failed to load configuration: %v", err)
	}
	config.SetupLogger(cfg)

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		logrus.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		logrus.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	logrus.Info("✅ Database migration completed")

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 30*time.Second)
	if err := config.NewSeeder(db, cfg).Run(seedCtx); err != nil {
		logrus.WithError(err).Warn("⚠️ Failed to seed data")
	}
	cancelSeed()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Principal cache and limiter storage
	principalCache, storage, closeCache := setupCache(cfg)
	defer closeCache()

	idp, err := setupIdentityProvider(cfg)
	if err != nil {
		logrus.Fatalf("❌ Failed to configure identity provider: %v", err)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Coinvest API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg, m, storage)

	// Setup routes
	roleService := routes.Setup(app, routes.Dependencies{
		DB:      db,
		Config:  cfg,
		Cache:   principalCache,
		IdP:     idp,
		Metrics: m,
		Storage: storage,
	})

	// Role sync job repairs identity provider drift
	job := services.NewRoleSyncJob(roleService, 5*time.Minute)
	if err := job.Start(cfg.Jobs.RoleSyncCron); err != nil {
		logrus.WithError(err).Warn("⚠️ Role sync job not scheduled")
	}
	defer job.Stop()

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	logrus.Infof("🚀 Server starting on port %s [MODE: %s, IDENTITY: %s]", cfg.Port, cfg.AppMode, idp.Name())
	if err := app.Listen(":" + cfg.Port); err != nil {
		logrus.Fatalf("❌ Failed to start server: %v", err)
	}
}

// setupCache connects Redis when configured and falls back to process memory
func setupCache(cfg *config.Config) (services.PrincipalCache, fiber.Storage, func()) {
	if cfg.Cache.RedisURL == "" {
		logrus.Info("Principal cache: in-memory")
		return cache.NewMemoryPrincipalCache(), nil, func() {}
	}

	opts, err := redis.ParseURL(cfg.Cache.RedisURL)
	if err != nil {
		logrus.WithError(err).Warn("⚠️ Invalid REDIS_URL, using in-memory cache")
		return cache.NewMemoryPrincipalCache(), nil, func() {}
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logrus.WithError(err).Warn("⚠️ Redis unreachable, using in-memory cache")
		_ = client.Close()
		return cache.NewMemoryPrincipalCache(), nil, func() {}
	}

	logrus.Info("Principal cache: redis")
	return cache.NewRedisPrincipalCache(client, ""), cache.NewLimiterStorage(client), func() { _ = client.Close() }
}

func setupIdentityProvider(cfg *config.Config) (services.IdentityProvider, error) {
	if cfg.Identity.Provider == config.IdentitySupabase {
		provider, err := identity.NewSupabaseProvider(identity.SupabaseConfig{
			ProjectURL:     cfg.Identity.SupabaseURL,
			ServiceRoleKey: cfg.Identity.ServiceRoleKey,
			Timeout:        cfg.Identity.HTTPTimeout,
		})
		if err != nil {
			return nil, err
		}
		return provider, nil
	}
	return identity.NewLocalProvider(), nil
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("🛑 Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logrus.WithError(err).Error("❌ Error during shutdown")
	}
	logrus.Info("✅ Server stopped gracefully")
}
