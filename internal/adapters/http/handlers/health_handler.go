package handlers

import (
	"gie-wallet/internal/config"
	"gie-wallet/internal/core/services"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	gates    *services.GateService
	calendar *services.CalendarService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(gates *services.GateService, calendar *services.CalendarService) *HealthHandler {
	return &HealthHandler{gates: gates, calendar: calendar}
}

// Root handles root endpoint
// @Summary Root endpoint
// @Description Returns API status
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	mode := "dev"
	if config.AppConfig != nil {
		mode = config.AppConfig.AppMode
	}
	return c.JSON(fiber.Map{
		"status":  "running",
		"message": "🚀 GIE Wallet API v1.0 is running",
		"mode":    mode,
		"docs":    "/swagger/index.html",
	})
}

// HealthCheck handles health check
// @Summary Health check
// @Description Check API, session store and cycle status
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	dbStatus := "healthy"
	if err := config.HealthCheck(); err != nil {
		dbStatus = "unhealthy"
	}

	return c.JSON(fiber.Map{
		"status": "ok",
		"checks": fiber.Map{
			"api":      "healthy",
			"database": dbStatus,
		},
		"gates": h.gates.Count(),
		"cycle": fiber.Map{
			"status":            h.calendar.Status(),
			"current_day_index": h.calendar.CurrentDayIndex(),
		},
	})
}

// APIInfo handles API v1 info
func (h *HealthHandler) APIInfo(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "GIE Wallet API v1.0",
		"version": "1.0.0",
	})
}
