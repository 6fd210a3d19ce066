package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gie-wallet/internal/core/domain"
	"gie-wallet/internal/core/services"
	"gie-wallet/internal/pkg/logger"

	"github.com/sirupsen/logrus"
)

var (
	_ services.Registry           = (*RegistryAPI)(nil)
	_ services.TransactionGateway = (*GatewayAPI)(nil)
	_ services.CodeChannel        = (*CodeAPI)(nil)
	_ services.WalletSource       = (*Client)(nil)
)

// APIKeyHeader carries the shared secret on every upstream request
const APIKeyHeader = "X-API-Key"

// Client talks to the GIE backend: registry, payment gateway and code channel
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates an upstream client.
// timeout bounds the whole HTTP exchange; callers may also pass a shorter context deadline.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = services.DefaultUpstreamTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// RegistryAPI is the registry view of the client
type RegistryAPI struct{ c *Client }

// GatewayAPI is the payment gateway view of the client
type GatewayAPI struct{ c *Client }

// CodeAPI is the one-time code channel view of the client
type CodeAPI struct{ c *Client }

// Registry returns the registry facade
func (c *Client) Registry() *RegistryAPI { return &RegistryAPI{c: c} }

// Gateway returns the payment gateway facade
func (c *Client) Gateway() *GatewayAPI { return &GatewayAPI{c: c} }

// Codes returns the code channel facade
func (c *Client) Codes() *CodeAPI { return &CodeAPI{c: c} }

// ============================================================
// Wire DTOs
// ============================================================

type registryResponse struct {
	GieCode            string `json:"gie_code"`
	GieName            string `json:"gie_name"`
	RegistrationStatus string `json:"registration_status"`
	ContactMasked      string `json:"contact_masked"`
	ActivationFeeMinor int64  `json:"activation_fee_minor"`
}

type createTransactionRequest struct {
	GieCode     string `json:"gie_code"`
	AmountMinor int64  `json:"amount_minor"`
}

type transactionResponse struct {
	Reference   string `json:"reference"`
	RedirectURL string `json:"redirect_url"`
	AmountMinor int64  `json:"amount_minor"`
	Status      string `json:"status"`
}

type sendCodeRequest struct {
	GieCode string `json:"gie_code"`
}

type sendCodeResponse struct {
	Delivered    bool   `json:"delivered"`
	FallbackCode string `json:"fallback_code,omitempty"`
}

type verifyCodeRequest struct {
	GieCode string `json:"gie_code"`
	Code    string `json:"code"`
}

type verifyCodeResponse struct {
	SessionToken string                `json:"session_token"`
	Wallet       domain.WalletSnapshot `json:"wallet"`
}

// ============================================================
// Registry
// ============================================================

// Verify looks up the GIE in the registry
func (r *RegistryAPI) Verify(ctx context.Context, identity domain.GieIdentity) (*domain.RegistryRecord, error) {
	var out registryResponse
	status, err := r.c.do(ctx, http.MethodGet, "/registry/gies/"+url.PathEscape(identity.String()), "", nil, &out)
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusNotFound:
		return nil, domain.ErrNotFound
	case status != http.StatusOK:
		return nil, unexpectedStatus("registry lookup", status)
	}

	regStatus := domain.RegistrationStatus(strings.ToUpper(out.RegistrationStatus))
	if regStatus != domain.RegistrationPending && regStatus != domain.RegistrationValidated {
		return nil, fmt.Errorf("%w: unknown registration status %q", domain.ErrUpstreamUnavailable, out.RegistrationStatus)
	}
	return &domain.RegistryRecord{
		Identity:                identity,
		Name:                    out.GieName,
		Status:                  regStatus,
		ContactMasked:           out.ContactMasked,
		ActivationFeeMinorUnits: out.ActivationFeeMinor,
	}, nil
}

// ============================================================
// Transaction gateway
// ============================================================

// Create opens an activation fee transaction
func (g *GatewayAPI) Create(ctx context.Context, identity domain.GieIdentity, amountMinorUnits int64) (*domain.ActivationTransaction, error) {
	var out transactionResponse
	req := createTransactionRequest{GieCode: identity.String(), AmountMinor: amountMinorUnits}
	status, err := g.c.do(ctx, http.MethodPost, "/transactions", "", req, &out)
	if err != nil {
		return nil, err
	}
	if status != http.StatusCreated && status != http.StatusOK {
		return nil, unexpectedStatus("transaction create", status)
	}
	if out.Reference == "" {
		return nil, fmt.Errorf("%w: transaction without reference", domain.ErrUpstreamUnavailable)
	}

	amount := out.AmountMinor
	if amount == 0 {
		amount = amountMinorUnits
	}
	txStatus := domain.TransactionStatus(strings.ToUpper(out.Status))
	if txStatus == "" {
		txStatus = domain.TransactionCreated
	}
	return &domain.ActivationTransaction{
		Reference:        out.Reference,
		AmountMinorUnits: amount,
		RedirectURL:      out.RedirectURL,
		Status:           txStatus,
	}, nil
}

// Status polls a transaction once
func (g *GatewayAPI) Status(ctx context.Context, reference string) (domain.TransactionStatus, error) {
	var out transactionResponse
	status, err := g.c.do(ctx, http.MethodGet, "/transactions/"+url.PathEscape(reference), "", nil, &out)
	if err != nil {
		return "", err
	}
	switch {
	case status == http.StatusNotFound:
		return "", domain.ErrNotFound
	case status != http.StatusOK:
		return "", unexpectedStatus("transaction status", status)
	}

	switch s := domain.TransactionStatus(strings.ToUpper(out.Status)); s {
	case domain.TransactionCreated, domain.TransactionConfirmed, domain.TransactionFailed:
		return s, nil
	default:
		// anything not confirmed is treated as still pending
		return domain.TransactionCreated, nil
	}
}

// ============================================================
// Code channel
// ============================================================

// Send asks the backend to deliver a one-time code
func (a *CodeAPI) Send(ctx context.Context, identity domain.GieIdentity) (*domain.CodeDelivery, error) {
	var out sendCodeResponse
	status, err := a.c.do(ctx, http.MethodPost, "/codes/send", "", sendCodeRequest{GieCode: identity.String()}, &out)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, unexpectedStatus("code send", status)
	}
	return &domain.CodeDelivery{Delivered: out.Delivered, FallbackCode: out.FallbackCode}, nil
}

// Verify checks a one-time code and returns the session credential
func (a *CodeAPI) Verify(ctx context.Context, identity domain.GieIdentity, code string) (*domain.SessionCredential, error) {
	var out verifyCodeResponse
	req := verifyCodeRequest{GieCode: identity.String(), Code: code}
	status, err := a.c.do(ctx, http.MethodPost, "/codes/verify", "", req, &out)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusGone:
		return nil, domain.ErrCodeRejected
	default:
		return nil, unexpectedStatus("code verify", status)
	}
	if out.SessionToken == "" {
		return nil, fmt.Errorf("%w: verify without session token", domain.ErrUpstreamUnavailable)
	}
	return &domain.SessionCredential{Token: out.SessionToken, Wallet: out.Wallet}, nil
}

// Wallet re-reads the wallet snapshot with a session token
func (c *Client) Wallet(ctx context.Context, token string) (*domain.WalletSnapshot, error) {
	var out domain.WalletSnapshot
	status, err := c.do(ctx, http.MethodGet, "/wallet", token, nil, &out)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
		return &out, nil
	case http.StatusUnauthorized:
		return nil, domain.ErrSessionExpired
	default:
		return nil, unexpectedStatus("wallet", status)
	}
}

// ------------------------------------------------------------
// transport
// ------------------------------------------------------------

// do sends a JSON request and decodes a 2xx JSON body into out.
// Network failures, deadlines and 5xx are reported as domain.ErrUpstreamUnavailable.
func (c *Client) do(ctx context.Context, method, path, bearer string, in, out interface{}) (int, error) {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(APIKeyHeader, c.apiKey)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Log.WithError(err).WithField("path", path).Warn("⚠️ Upstream request failed")
		return 0, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	logger.Log.WithFields(logrus.Fields{
		"method":   method,
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("upstream call")

	if resp.StatusCode >= http.StatusInternalServerError {
		return resp.StatusCode, fmt.Errorf("%w: status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	if resp.StatusCode/100 == 2 && out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("%w: invalid response body: %v", domain.ErrUpstreamUnavailable, err)
		}
	}
	return resp.StatusCode, nil
}

func unexpectedStatus(op string, status int) error {
	return fmt.Errorf("%w: %s returned status %d", domain.ErrUpstreamUnavailable, op, status)
}
