package sandbox

import (
	"errors"
	"strings"
	"sync"

	"gie-wallet/internal/adapters/upstream"
	"gie-wallet/internal/core/domain"
	"gie-wallet/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Server is an in-process stand-in for the GIE backend:
// registry, payment gateway, code channel and wallet read.
type Server struct {
	registry *Registry
	ledger   *Ledger
	codes    *CodeIssuer
	notifier Notifier
	apiKey   string
	payURL   string

	mu     sync.RWMutex
	tokens map[string]string // session token -> GIE code
}

// Options configure a sandbox server
type Options struct {
	APIKey   string
	PayURL   string
	Notifier Notifier
}

// NewServer creates a sandbox backend
func NewServer(registry *Registry, ledger *Ledger, codes *CodeIssuer, opts Options) *Server {
	if opts.PayURL == "" {
		opts.PayURL = "http://localhost:4000/pay"
	}
	return &Server{
		registry: registry,
		ledger:   ledger,
		codes:    codes,
		notifier: opts.Notifier,
		apiKey:   opts.APIKey,
		payURL:   strings.TrimRight(opts.PayURL, "/"),
		tokens:   make(map[string]string),
	}
}

type createTransactionBody struct {
	GieCode     string `json:"gie_code"`
	AmountMinor int64  `json:"amount_minor"`
}

type settleBody struct {
	Status string `json:"status"`
}

type codeBody struct {
	GieCode string `json:"gie_code"`
	Code    string `json:"code"`
}

// App builds the fiber app serving the backend contract
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{AppName: "GIE Sandbox"})
	app.Use(s.requireAPIKey)

	app.Get("/registry/gies/:code", s.getGIE)
	app.Post("/transactions", s.createTransaction)
	app.Get("/transactions/:reference", s.getTransaction)
	app.Post("/transactions/:reference/settle", s.settleTransaction)
	app.Post("/codes/send", s.sendCode)
	app.Post("/codes/verify", s.verifyCode)
	app.Get("/wallet", s.wallet)
	return app
}

func (s *Server) requireAPIKey(c *fiber.Ctx) error {
	if s.apiKey != "" && c.Get(upstream.APIKeyHeader) != s.apiKey {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "invalid api key"})
	}
	return c.Next()
}

func (s *Server) getGIE(c *fiber.Ctx) error {
	gie, ok := s.registry.Get(strings.ToUpper(c.Params("code")))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "gie not found"})
	}
	return c.JSON(fiber.Map{
		"gie_code":             gie.Code,
		"gie_name":             gie.Name,
		"registration_status":  gie.Status,
		"contact_masked":       gie.ContactMasked,
		"activation_fee_minor": gie.ActivationFeeMinor,
	})
}

func (s *Server) createTransaction(c *fiber.Ctx) error {
	var body createTransactionBody
	if err := c.BodyParser(&body); err != nil || body.AmountMinor <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if _, ok := s.registry.Get(body.GieCode); !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "gie not found"})
	}

	tx := s.ledger.Create(body.GieCode, body.AmountMinor)
	logger.Log.WithField("reference", tx.Reference).Info("💳 Sandbox transaction created")
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"reference":    tx.Reference,
		"redirect_url": s.payURL + "/" + tx.Reference,
		"amount_minor": tx.AmountMinor,
		"status":       tx.Status,
	})
}

func (s *Server) getTransaction(c *fiber.Ctx) error {
	tx, ok := s.ledger.Get(c.Params("reference"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "transaction not found"})
	}
	return c.JSON(fiber.Map{"reference": tx.Reference, "status": tx.Status, "amount_minor": tx.AmountMinor})
}

// settleTransaction plays the payment provider's callback
func (s *Server) settleTransaction(c *fiber.Ctx) error {
	var body settleBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	status := domain.TransactionStatus(strings.ToUpper(body.Status))
	if status != domain.TransactionConfirmed && status != domain.TransactionFailed {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "status must be CONFIRMED or FAILED"})
	}

	tx, ok := s.ledger.Settle(c.Params("reference"), status)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "transaction not found"})
	}
	if tx.Status == domain.TransactionConfirmed {
		s.registry.MarkValidated(tx.GieCode)
	}
	logger.Log.WithFields(logrus.Fields{
		"reference": tx.Reference,
		"status":    tx.Status,
	}).Info("✅ Sandbox transaction settled")
	return c.JSON(fiber.Map{"reference": tx.Reference, "status": tx.Status})
}

func (s *Server) sendCode(c *fiber.Ctx) error {
	var body codeBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	gie, ok := s.registry.Get(body.GieCode)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "gie not found"})
	}
	if gie.Status != domain.RegistrationValidated {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "registration not validated"})
	}

	code, err := s.codes.Issue(gie.Code)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not issue code"})
	}

	if s.notifier != nil && gie.TelegramChatID != 0 {
		err := s.notifier.SendCode(gie.TelegramChatID, gie.Name, code)
		if err == nil {
			return c.JSON(fiber.Map{"delivered": true})
		}
		logger.Log.WithError(err).WithField("gie_code", gie.Code).Warn("⚠️ Telegram delivery failed, returning fallback code")
	}
	return c.JSON(fiber.Map{"delivered": false, "fallback_code": code})
}

func (s *Server) verifyCode(c *fiber.Ctx) error {
	var body codeBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}

	if err := s.codes.Verify(body.GieCode, body.Code); err != nil {
		status := fiber.StatusUnauthorized
		if errors.Is(err, ErrCodeExpired) || errors.Is(err, ErrTooManyAttempts) {
			status = fiber.StatusGone
		}
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	gie, ok := s.registry.Get(body.GieCode)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "gie not found"})
	}

	token := uuid.New().String()
	s.mu.Lock()
	s.tokens[token] = gie.Code
	s.mu.Unlock()

	return c.JSON(fiber.Map{"session_token": token, "wallet": gie.Wallet()})
}

func (s *Server) wallet(c *fiber.Ctx) error {
	token := strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")

	s.mu.RLock()
	code, ok := s.tokens[token]
	s.mu.RUnlock()
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid session token"})
	}

	gie, ok := s.registry.Get(code)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid session token"})
	}
	return c.JSON(gie.Wallet())
}
