package handlers

import (
	"errors"
	"strings"
	"time"

	"gie-wallet/internal/adapters/http/middleware"
	"gie-wallet/internal/config"
	"gie-wallet/internal/core/domain"
	"gie-wallet/internal/core/services"
	"gie-wallet/internal/pkg/clock"
	"gie-wallet/internal/pkg/jwt"
	"gie-wallet/internal/pkg/logger"
	"gie-wallet/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// GateCookie names the cookie that binds a browser to its gate
const GateCookie = "gate_id"

// GateHeader can carry the gate id for non-browser clients
const GateHeader = "X-Gate-ID"

// GateHandler exposes the access gate to the browser
type GateHandler struct {
	gates   *services.GateService
	wallets *services.WalletService
	cfg     *config.Config
	clock   clock.Clock
}

// NewGateHandler creates a new gate handler
func NewGateHandler(gates *services.GateService, wallets *services.WalletService, cfg *config.Config, c clock.Clock) *GateHandler {
	if c == nil {
		c = clock.Real{}
	}
	return &GateHandler{gates: gates, wallets: wallets, cfg: cfg, clock: c}
}

// IdentifierRequest represents identifier submission body
type IdentifierRequest struct {
	GieCode string `json:"gie_code" example:"FEVEO-01-01-01-01-001"`
}

// ConfirmPaymentRequest represents payment confirmation body
type ConfirmPaymentRequest struct {
	Reference string `json:"reference"`
}

// CodeRequest represents one-time code submission body
type CodeRequest struct {
	Code string `json:"code" example:"123456"`
}

// State returns the gate bound to the caller, opening one if needed
// @Summary Get gate state
// @Description Returns the caller's access gate, creating an idle one on first visit
// @Tags Gate
// @Produce json
// @Success 200 {object} response.Response{data=services.GateView}
// @Router /gate [get]
func (h *GateHandler) State(c *fiber.Ctx) error {
	gate := h.gate(c)
	return response.Success(c, "Gate state", gate.GetState())
}

// SubmitIdentifier handles identifier submission
// @Summary Submit GIE identifier
// @Description Validates the identifier and checks the registry
// @Tags Gate
// @Accept json
// @Produce json
// @Param body body IdentifierRequest true "GIE identifier"
// @Success 200 {object} response.Response{data=services.GateView}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /gate/identifier [post]
func (h *GateHandler) SubmitIdentifier(c *fiber.Ctx) error {
	var req IdentifierRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	gate := h.gate(c)
	view, err := gate.SubmitIdentifier(c.UserContext(), req.GieCode)
	return h.respond(c, "Identifier accepted", view, err)
}

// ConfirmPayment polls the activation payment once
// @Summary Confirm activation payment
// @Description Checks the activation transaction; an empty reference means the current one
// @Tags Gate
// @Accept json
// @Produce json
// @Param body body ConfirmPaymentRequest false "Transaction reference"
// @Success 200 {object} response.Response{data=services.GateView}
// @Failure 409 {object} response.Response
// @Router /gate/payment/confirm [post]
func (h *GateHandler) ConfirmPayment(c *fiber.Ctx) error {
	var req ConfirmPaymentRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}

	gate := h.gate(c)
	view, err := gate.ConfirmPayment(c.UserContext(), req.Reference)
	return h.respond(c, "Payment confirmed", view, err)
}

// RestartPayment opens a fresh activation transaction
// @Summary Restart activation payment
// @Tags Gate
// @Produce json
// @Success 200 {object} response.Response{data=services.GateView}
// @Router /gate/payment/restart [post]
func (h *GateHandler) RestartPayment(c *fiber.Ctx) error {
	gate := h.gate(c)
	view, err := gate.RestartPayment(c.UserContext())
	return h.respond(c, "Payment restarted", view, err)
}

// SubmitCode verifies the one-time code and opens the wallet
// @Summary Submit one-time code
// @Description Verifies the code; on success sets the access_token cookie
// @Tags Gate
// @Accept json
// @Produce json
// @Param body body CodeRequest true "One-time code"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /gate/code [post]
func (h *GateHandler) SubmitCode(c *fiber.Ctx) error {
	var req CodeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	gate := h.gate(c)
	view, err := gate.SubmitCode(c.UserContext(), req.Code)
	if err != nil {
		return h.respond(c, "", view, err)
	}

	session, err := h.wallets.Session(c.UserContext(), view.SessionID)
	if err != nil {
		logger.WithGate(view.ID, view.GieCode).WithError(err).Error("❌ Session vanished after authentication")
		return response.InternalServerError(c, "Failed to open wallet session")
	}

	token, expiresAt, err := jwt.GenerateAccessToken(session.ID, session.GieCode, h.cfg.JWT.Secret,
		h.cfg.AccessTokenTTL(), h.clock.Now(), session.ExpiresAt)
	if err != nil {
		return response.InternalServerError(c, "Failed to issue access token")
	}
	h.setAccessCookie(c, token, expiresAt)

	return response.Success(c, "Wallet unlocked", fiber.Map{
		"gate":         view,
		"access_token": token,
		"expires_at":   expiresAt,
		"wallet":       session.Wallet,
	})
}

// ResendCode requests a new one-time code
// @Summary Resend one-time code
// @Tags Gate
// @Produce json
// @Success 200 {object} response.Response{data=services.GateView}
// @Router /gate/code/resend [post]
func (h *GateHandler) ResendCode(c *fiber.Ctx) error {
	gate := h.gate(c)
	view, err := gate.ResendCode(c.UserContext())
	return h.respond(c, "Code sent", view, err)
}

// Reset returns the gate to IDLE
// @Summary Reset gate
// @Tags Gate
// @Produce json
// @Success 200 {object} response.Response{data=services.GateView}
// @Router /gate/reset [post]
func (h *GateHandler) Reset(c *fiber.Ctx) error {
	gate := h.gate(c)
	return response.Success(c, "Gate reset", gate.Reset())
}

// gate resolves the caller's gate and refreshes the binding cookie
func (h *GateHandler) gate(c *fiber.Ctx) *services.AccessGate {
	id := c.Cookies(GateCookie)
	if id == "" {
		id = strings.TrimSpace(c.Get(GateHeader))
	}

	gate := h.gates.GetOrOpen(id)
	if gate.ID() != id {
		c.Cookie(&fiber.Cookie{
			Name:     GateCookie,
			Value:    gate.ID(),
			Path:     "/",
			Secure:   h.cfg.Cookie.Secure,
			HTTPOnly: true,
			SameSite: h.cfg.Cookie.SameSite,
			Domain:   h.cfg.Cookie.Domain,
		})
	}
	c.Set(GateHeader, gate.ID())
	return gate
}

// respond writes the gate view with the classified error, if any
func (h *GateHandler) respond(c *fiber.Ctx, message string, view services.GateView, err error) error {
	if err == nil {
		return response.Success(c, message, view)
	}

	var ge *domain.GateError
	if !errors.As(err, &ge) {
		logger.WithGate(view.ID, view.GieCode).WithError(err).Error("❌ Unclassified gate error")
		return response.InternalServerError(c, "Unexpected error")
	}

	return response.Fail(c, statusForKind(ge.Kind), response.Failure{
		Kind:         string(ge.Kind),
		Message:      ge.Message,
		Retryable:    ge.Retryable(),
		FallbackCode: ge.FallbackCode,
	}, view)
}

func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation:
		return fiber.StatusBadRequest
	case domain.KindNotFound:
		return fiber.StatusNotFound
	case domain.KindExpiredOrInvalid:
		return fiber.StatusUnauthorized
	case domain.KindTransport:
		return fiber.StatusServiceUnavailable
	case domain.KindBusinessRule, domain.KindInvalidState, domain.KindSuperseded:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func (h *GateHandler) setAccessCookie(c *fiber.Ctx, token string, expiresAt time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})
}
