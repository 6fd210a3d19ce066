package handlers

import (
	"errors"
	"strconv"
	"time"

	"gie-wallet/internal/adapters/http/middleware"
	"gie-wallet/internal/config"
	"gie-wallet/internal/core/cycle"
	"gie-wallet/internal/core/domain"
	"gie-wallet/internal/core/services"
	"gie-wallet/internal/pkg/logger"
	"gie-wallet/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// WalletHandler serves the authenticated wallet and its investment calendar
type WalletHandler struct {
	wallets  *services.WalletService
	calendar *services.CalendarService
	cfg      *config.Config
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(wallets *services.WalletService, calendar *services.CalendarService, cfg *config.Config) *WalletHandler {
	return &WalletHandler{wallets: wallets, calendar: calendar, cfg: cfg}
}

// CalendarResponse is a month grid with navigation bounds
type CalendarResponse struct {
	Grid    cycle.MonthGrid `json:"grid"`
	First   cycle.YearMonth `json:"first"`
	Last    cycle.YearMonth `json:"last"`
	HasPrev bool            `json:"has_prev"`
	HasNext bool            `json:"has_next"`
}

// Wallet returns the wallet snapshot
// @Summary Get wallet
// @Description Returns the wallet snapshot; refresh=true re-reads it from the backend
// @Tags Wallet
// @Produce json
// @Param refresh query bool false "Re-read from backend"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /wallet [get]
func (h *WalletHandler) Wallet(c *fiber.Ctx) error {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	stale := false
	if c.QueryBool("refresh") {
		refreshed, err := h.wallets.Refresh(c.UserContext(), session.ID)
		switch {
		case err == nil:
			session = refreshed
		case errors.Is(err, domain.ErrSessionExpired):
			return response.Unauthorized(c, "Wallet session expired")
		default:
			logger.Log.WithError(err).WithField("session_id", session.ID).Warn("⚠️ Wallet refresh failed, serving stored snapshot")
			stale = true
		}
	}

	return response.Success(c, "Wallet", fiber.Map{
		"wallet":     session.Wallet,
		"stale":      stale,
		"expires_at": session.ExpiresAt,
	})
}

// Cycle returns the GIE's progress through the investment cycle
// @Summary Get cycle summary
// @Tags Wallet
// @Produce json
// @Success 200 {object} response.Response{data=cycle.Summary}
// @Router /wallet/cycle [get]
func (h *WalletHandler) Cycle(c *fiber.Ctx) error {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	settings := h.calendar.Settings()
	return response.Success(c, "Cycle summary", fiber.Map{
		"summary":    h.calendar.Summary(session.Wallet.SuccessfulDays),
		"epoch":      settings.Epoch.Format("2006-01-02"),
		"last_day":   settings.Epoch.AddDate(0, 0, settings.TotalDays-1).Format("2006-01-02"),
		"total_days": settings.TotalDays,
	})
}

// Calendar returns one month of the investment calendar
// @Summary Get calendar month
// @Description Month grid for the GIE; defaults to the current month
// @Tags Wallet
// @Produce json
// @Param year query int false "Year"
// @Param month query int false "Month 1-12"
// @Success 200 {object} response.Response{data=CalendarResponse}
// @Failure 400 {object} response.Response
// @Router /wallet/calendar [get]
func (h *WalletHandler) Calendar(c *fiber.Ctx) error {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	current := h.calendar.CurrentMonth()
	year, month := current.Year, int(current.Month)
	if v := c.Query("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return response.BadRequest(c, "year must be a number")
		}
		year = n
	}
	if v := c.Query("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return response.BadRequest(c, "month must be a number")
		}
		month = n
	}

	grid, err := h.calendar.BuildMonthGrid(year, time.Month(month), session.Wallet.SuccessfulDays)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidMonth) {
			return response.BadRequest(c, "month must be between 1 and 12")
		}
		return err
	}

	first, last := h.calendar.MonthRange()
	return response.Success(c, "Calendar", CalendarResponse{
		Grid:    grid,
		First:   first,
		Last:    last,
		HasPrev: monthKey(year, time.Month(month)) > monthKey(first.Year, first.Month),
		HasNext: monthKey(year, time.Month(month)) < monthKey(last.Year, last.Month),
	})
}

// CalendarRange returns the first and last months of the cycle
// @Summary Get calendar range
// @Tags Wallet
// @Produce json
// @Success 200 {object} response.Response
// @Router /wallet/calendar/range [get]
func (h *WalletHandler) CalendarRange(c *fiber.Ctx) error {
	first, last := h.calendar.MonthRange()
	return response.Success(c, "Calendar range", fiber.Map{
		"first":   first,
		"last":    last,
		"current": h.calendar.CurrentMonth(),
		"status":  h.calendar.Status(),
	})
}

// Logout closes the wallet session
// @Summary Logout
// @Tags Wallet
// @Produce json
// @Success 200 {object} response.Response
// @Router /wallet/logout [post]
func (h *WalletHandler) Logout(c *fiber.Ctx) error {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	if err := h.wallets.Logout(c.UserContext(), session.ID); err != nil {
		return response.InternalServerError(c, "Failed to close wallet session")
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Now().Add(-1 * time.Hour),
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})
	return response.Success(c, "Logged out", nil)
}

func monthKey(year int, month time.Month) int {
	return year*12 + int(month) - 1
}
