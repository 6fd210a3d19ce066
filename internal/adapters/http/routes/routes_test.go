package routes_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gie-wallet/internal/adapters/http/handlers"
	"gie-wallet/internal/adapters/http/middleware"
	"gie-wallet/internal/adapters/http/routes"
	"gie-wallet/internal/adapters/persistence/repositories"
	"gie-wallet/internal/adapters/upstream"
	"gie-wallet/internal/config"
	"gie-wallet/internal/core/services"
	"gie-wallet/internal/pkg/clock"
	"gie-wallet/internal/sandbox"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

const apiKey = "routes-key"

type envelope struct {
	Success      bool            `json:"success"`
	Data         json.RawMessage `json:"data"`
	Error        string          `json:"error"`
	ErrorKind    string          `json:"error_kind"`
	FallbackCode string          `json:"fallback_code"`
}

type client struct {
	t       *testing.T
	app     *fiber.App
	cookies map[string]string
}

func (c *client) do(method, path string, body interface{}) (int, envelope) {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for name, value := range c.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	resp, err := c.app.Test(req, -1)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	for _, cookie := range resp.Cookies() {
		if cookie.Value == "" {
			delete(c.cookies, cookie.Name)
			continue
		}
		c.cookies[cookie.Name] = cookie.Value
	}

	var env envelope
	_ = json.NewDecoder(resp.Body).Decode(&env)
	return resp.StatusCode, env
}

func newApp(t *testing.T) *client {
	t.Helper()

	srv := sandbox.NewServer(sandbox.NewRegistry(sandbox.DefaultGIEs()...), sandbox.NewLedger(),
		sandbox.NewCodeIssuer(nil, 0, 0), sandbox.Options{APIKey: apiKey})
	upstreamApp := srv.App()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = upstreamApp.Listener(ln) }()
	t.Cleanup(func() { _ = upstreamApp.Shutdown() })

	cfg := &config.Config{
		AppMode: "dev",
		JWT:     config.JWTConfig{Secret: "routes-secret", AccessTokenMins: 60},
		Cookie:  config.CookieConfig{SameSite: "Lax"},
	}

	sessions := repositories.NewMemorySessionRepository()
	up := upstream.NewClient("http://"+ln.Addr().String(), apiKey, 2*time.Second)
	gates := services.NewGateService(services.GateDeps{
		Registry:         up.Registry(),
		Gateway:          up.Gateway(),
		Channel:          up.Codes(),
		Sessions:         sessions,
		FallbackHashCost: bcrypt.MinCost,
	}, time.Minute)
	calendar := services.NewCalendarService(services.CycleSettings{
		Epoch:     time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		TotalDays: 1826,
	}, clock.Fixed{T: time.Date(2025, 4, 13, 9, 0, 0, 0, time.UTC)})

	app := fiber.New(fiber.Config{ErrorHandler: middleware.CustomErrorHandler})
	routes.Setup(app, routes.Services{
		Gates:    gates,
		Wallets:  services.NewWalletService(sessions, up, nil, 2*time.Second),
		Calendar: calendar,
		Clock:    clock.Real{},
	}, cfg)

	return &client{t: t, app: app, cookies: make(map[string]string)}
}

func TestRoutes_GateToWallet(t *testing.T) {
	c := newApp(t)

	status, _ := c.do(http.MethodGet, "/api/v1/wallet/", nil)
	if status != fiber.StatusUnauthorized {
		t.Fatalf("wallet without token = %d, want 401", status)
	}

	status, env := c.do(http.MethodPost, "/api/v1/gate/identifier", handlers.IdentifierRequest{GieCode: "FEVEO-1"})
	if status != fiber.StatusBadRequest || env.ErrorKind != "VALIDATION" {
		t.Fatalf("bad identifier = %d %q", status, env.ErrorKind)
	}
	gateID := c.cookies[handlers.GateCookie]
	if gateID == "" {
		t.Fatalf("gate cookie not set")
	}

	status, env = c.do(http.MethodPost, "/api/v1/gate/identifier", handlers.IdentifierRequest{GieCode: "FEVEO-01-01-01-01-001"})
	if status != fiber.StatusOK {
		t.Fatalf("identifier = %d %s", status, env.Error)
	}
	var view services.GateView
	if err := json.Unmarshal(env.Data, &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if view.ID != gateID || view.State != services.StateCodePending || len(view.FallbackCode) != 6 {
		t.Fatalf("unexpected view %+v", view)
	}

	status, env = c.do(http.MethodPost, "/api/v1/gate/payment/restart", nil)
	if status != fiber.StatusConflict || env.ErrorKind != "INVALID_STATE" {
		t.Fatalf("restart in CODE_PENDING = %d %q", status, env.ErrorKind)
	}

	status, env = c.do(http.MethodPost, "/api/v1/gate/code", handlers.CodeRequest{Code: "12ab"})
	if status != fiber.StatusBadRequest || env.ErrorKind != "VALIDATION" {
		t.Fatalf("malformed code = %d %q", status, env.ErrorKind)
	}

	status, env = c.do(http.MethodPost, "/api/v1/gate/code", handlers.CodeRequest{Code: view.FallbackCode})
	if status != fiber.StatusOK {
		t.Fatalf("code = %d %s", status, env.Error)
	}
	if c.cookies[middleware.AccessTokenCookie] == "" {
		t.Fatalf("access token cookie not set")
	}

	status, _ = c.do(http.MethodGet, "/api/v1/wallet/?refresh=true", nil)
	if status != fiber.StatusOK {
		t.Fatalf("wallet = %d", status)
	}

	status, _ = c.do(http.MethodGet, "/api/v1/wallet/calendar?year=2025&month=13", nil)
	if status != fiber.StatusBadRequest {
		t.Fatalf("month 13 = %d, want 400", status)
	}

	status, env = c.do(http.MethodGet, "/api/v1/wallet/calendar?year=2025&month=4", nil)
	if status != fiber.StatusOK {
		t.Fatalf("calendar = %d %s", status, env.Error)
	}
	var cal handlers.CalendarResponse
	if err := json.Unmarshal(env.Data, &cal); err != nil {
		t.Fatalf("decode calendar: %v", err)
	}
	if cal.HasPrev || !cal.HasNext {
		t.Fatalf("April 2025 navigation = prev %v next %v", cal.HasPrev, cal.HasNext)
	}

	status, _ = c.do(http.MethodPost, "/api/v1/wallet/logout", nil)
	if status != fiber.StatusOK {
		t.Fatalf("logout = %d", status)
	}
	if _, ok := c.cookies[middleware.AccessTokenCookie]; ok {
		t.Fatalf("access token cookie not cleared")
	}
}

func TestRoutes_HealthAndGateReset(t *testing.T) {
	c := newApp(t)

	status, _ := c.do(http.MethodGet, "/health", nil)
	if status != fiber.StatusOK {
		t.Fatalf("health = %d", status)
	}

	status, env := c.do(http.MethodPost, "/api/v1/gate/reset", nil)
	if status != fiber.StatusOK {
		t.Fatalf("reset = %d", status)
	}
	var view services.GateView
	_ = json.Unmarshal(env.Data, &view)
	if view.State != services.StateIdle {
		t.Fatalf("state after reset = %s", view.State)
	}
}
