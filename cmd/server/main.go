package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gie-wallet/internal/adapters/http/middleware"
	"gie-wallet/internal/adapters/http/routes"
	"gie-wallet/internal/adapters/persistence/repositories"
	"gie-wallet/internal/adapters/upstream"
	"gie-wallet/internal/config"
	"gie-wallet/internal/core/services"
	"gie-wallet/internal/pkg/clock"
	"gie-wallet/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"

	_ "gie-wallet/docs" // Swagger docs
)

// @title GIE Wallet API
// @version 1.0
// @description Access gate and investment-cycle calendar for GIE wallets

// @contact.name API Support

// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format, cfg.IsProd())

	// Session store
	sessions, err := openSessionStore(cfg)
	if err != nil {
		logger.Log.Fatalf("❌ Failed to open session store: %v", err)
	}
	defer config.CloseDatabase()

	// Upstream backend
	client := upstream.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.APIKey, cfg.Upstream.Timeout)
	realClock := clock.Real{}

	gates := services.NewGateService(services.GateDeps{
		Registry:         client.Registry(),
		Gateway:          client.Gateway(),
		Channel:          client.Codes(),
		Sessions:         sessions,
		Clock:            realClock,
		Timeout:          cfg.Upstream.Timeout,
		SessionTTL:       cfg.Store.SessionTTL,
		FallbackHashCost: cfg.Gate.FallbackHashCost,
	}, cfg.Gate.IdleTTL)
	wallets := services.NewWalletService(sessions, client, realClock, cfg.Upstream.Timeout)
	calendar := services.NewCalendarService(services.CycleSettings{
		Epoch:     cfg.CycleEpoch(),
		TotalDays: cfg.Cycle.TotalDays,
		Location:  cfg.CycleLocation(),
	}, realClock)

	// Purge expired sessions and idle gates
	purger := services.NewPurgeScheduler(gates, sessions, realClock, cfg.Gate.PurgeSpec)
	if err := purger.Start(); err != nil {
		logger.Log.Fatalf("❌ Failed to start purge scheduler: %v", err)
	}
	defer purger.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "GIE Wallet API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	routes.Setup(app, routes.Services{
		Gates:    gates,
		Wallets:  wallets,
		Calendar: calendar,
		Clock:    realClock,
	}, cfg)

	// Graceful shutdown
	go gracefulShutdown(app)

	logger.Log.Infof("🚀 Server starting on port %s [MODE: %s, CYCLE DAY: %d/%d]",
		cfg.Port, cfg.AppMode, calendar.CurrentDayIndex(), cfg.Cycle.TotalDays)
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// openSessionStore connects the configured session backend
func openSessionStore(cfg *config.Config) (services.SessionStore, error) {
	switch cfg.Store.Driver {
	case config.StoreMySQL:
		db, err := config.ConnectDatabase(cfg)
		if err != nil {
			return nil, err
		}
		return repositories.NewSessionRepository(db), nil
	case config.StorePostgres:
		db, err := config.ConnectPostgres(cfg)
		if err != nil {
			return nil, err
		}
		repo := repositories.NewPostgresSessionRepository(db)
		if err := repo.EnsureSchema(context.Background()); err != nil {
			return nil, err
		}
		return repo, nil
	default:
		logger.Log.Warn("⚠️ Using in-memory session store, sessions are lost on restart")
		return repositories.NewMemorySessionRepository(), nil
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		logger.Log.Errorf("❌ Error during shutdown: %v", err)
	}
	logger.Log.Info("✅ Server stopped gracefully")
}
