package routes

import (
	"time"

	"gie-wallet/internal/adapters/http/handlers"
	"gie-wallet/internal/adapters/http/middleware"
	"gie-wallet/internal/config"
	"gie-wallet/internal/core/services"
	"gie-wallet/internal/pkg/clock"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

// Services are the wired core services the routes expose
type Services struct {
	Gates    *services.GateService
	Wallets  *services.WalletService
	Calendar *services.CalendarService
	Clock    clock.Clock
}

// Setup configures all routes for the application
func Setup(app *fiber.App, svc Services, cfg *config.Config) {
	healthHandler := handlers.NewHealthHandler(svc.Gates, svc.Calendar)
	gateHandler := handlers.NewGateHandler(svc.Gates, svc.Wallets, cfg, svc.Clock)
	walletHandler := handlers.NewWalletHandler(svc.Wallets, svc.Calendar, cfg)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	// Gate routes (public)
	gateRoutes := apiV1.Group("/gate", middleware.NoCacheHeaders())
	setupGateRoutes(gateRoutes, gateHandler)

	// Wallet routes (authenticated)
	walletRoutes := apiV1.Group("/wallet", middleware.AuthMiddleware(cfg, svc.Wallets))
	setupWalletRoutes(walletRoutes, walletHandler)
}

// setupGateRoutes configures the access gate routes
func setupGateRoutes(router fiber.Router, h *handlers.GateHandler) {
	router.Get("/", h.State)
	router.Post("/reset", h.Reset)

	limited := middleware.GateRateLimiter()
	router.Post("/identifier", limited, h.SubmitIdentifier)
	router.Post("/payment/confirm", limited, h.ConfirmPayment)
	router.Post("/payment/restart", limited, h.RestartPayment)
	router.Post("/code", limited, h.SubmitCode)
	router.Post("/code/resend", middleware.StrictRateLimiter(), h.ResendCode)
}

// setupWalletRoutes configures the wallet and calendar routes
func setupWalletRoutes(router fiber.Router, h *handlers.WalletHandler) {
	router.Get("/", middleware.NoCacheHeaders(), h.Wallet)
	router.Get("/cycle", h.Cycle)
	router.Get("/calendar", middleware.PrivateCacheHeaders(1*time.Minute), h.Calendar)
	router.Get("/calendar/range", middleware.PrivateCacheHeaders(1*time.Hour), h.CalendarRange)
	router.Post("/logout", h.Logout)
}
