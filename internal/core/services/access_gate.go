package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"gie-wallet/internal/core/domain"
	"gie-wallet/internal/pkg/clock"
	"gie-wallet/internal/pkg/logger"
	"gie-wallet/internal/pkg/password"

	"github.com/google/uuid"
)

// ============================================================
// Access Gate - identifier -> (payment) -> one-time code -> wallet session
// ============================================================

// GateState is the position of an AccessGate in the admission flow
type GateState string

const (
	StateIdle                GateState = "IDLE"
	StateIdentifierSubmitted GateState = "IDENTIFIER_SUBMITTED"
	StatePaymentRequired     GateState = "PAYMENT_REQUIRED"
	StateCodePending         GateState = "CODE_PENDING"
	StateAuthenticated       GateState = "AUTHENTICATED"
)

// DefaultUpstreamTimeout caps every registry, gateway and channel call
const DefaultUpstreamTimeout = 10 * time.Second

// GateDeps are the collaborators shared by every gate
type GateDeps struct {
	Registry         Registry
	Gateway          TransactionGateway
	Channel          CodeChannel
	Sessions         SessionStore
	Clock            clock.Clock
	Timeout          time.Duration
	SessionTTL       time.Duration
	FallbackHashCost int
}

func (d GateDeps) withDefaults() GateDeps {
	if d.Clock == nil {
		d.Clock = clock.Real{}
	}
	if d.Timeout <= 0 {
		d.Timeout = DefaultUpstreamTimeout
	}
	if d.SessionTTL <= 0 {
		d.SessionTTL = 24 * time.Hour
	}
	if d.FallbackHashCost == 0 {
		d.FallbackHashCost = password.DefaultCost
	}
	return d
}

// GateView is a read-only snapshot of a gate for the rendering layer
type GateView struct {
	ID            string                        `json:"gate_id"`
	State         GateState                     `json:"state"`
	GieCode       string                        `json:"gie_code,omitempty"`
	GieName       string                        `json:"gie_name,omitempty"`
	ContactMasked string                        `json:"contact_masked,omitempty"`
	Transaction   *domain.ActivationTransaction `json:"transaction,omitempty"`
	CodeOrigin    domain.CodeOrigin             `json:"code_origin,omitempty"`
	FallbackCode  string                        `json:"fallback_code,omitempty"`
	SessionID     string                        `json:"session_id,omitempty"`
	Busy          bool                          `json:"busy"`
	UpdatedAt     time.Time                     `json:"updated_at"`
}

// AccessGate is the per-session admission state machine.
//
// Operations are serialized: a second operation started while one is in
// flight fails with KindInvalidState. Reset is always allowed and bumps the
// generation, so responses of requests dispatched before it are discarded.
type AccessGate struct {
	id   string
	deps GateDeps

	mu         sync.Mutex
	state      GateState
	generation uint64
	inFlight   bool
	lastActive time.Time

	identity      domain.GieIdentity
	record        *domain.RegistryRecord
	transaction   *domain.ActivationTransaction
	codeOrigin    domain.CodeOrigin
	fallbackCode  string // backend-issued, shown until superseded
	localCodeHash string // bcrypt hash of a locally synthesized code
	sessionID     string
}

// NewAccessGate creates an idle gate
func NewAccessGate(id string, deps GateDeps) *AccessGate {
	deps = deps.withDefaults()
	return &AccessGate{
		id:         id,
		deps:       deps,
		state:      StateIdle,
		lastActive: deps.Clock.Now(),
	}
}

// ID returns the gate id
func (g *AccessGate) ID() string {
	return g.id
}

// State returns the current state
func (g *AccessGate) State() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// GetState returns a snapshot of the gate
func (g *AccessGate) GetState() GateView {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.viewLocked()
}

// LastActive returns when the gate was last used
func (g *AccessGate) LastActive() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastActive
}

// SubmitIdentifier validates the identifier and asks the registry whether the
// GIE must pay the activation fee before receiving a code.
func (g *AccessGate) SubmitIdentifier(ctx context.Context, raw string) (GateView, error) {
	identity, err := domain.ParseGieIdentity(raw)
	if err != nil {
		return g.GetState(), domain.WrapGateError(domain.KindValidation,
			"identifier must look like FEVEO-01-01-01-01-001", err)
	}

	gen, gerr := g.begin("submit identifier", func() error {
		g.state = StateIdentifierSubmitted
		g.identity = identity
		return nil
	}, StateIdle)
	if gerr != nil {
		return g.GetState(), gerr
	}
	log := logger.WithGate(g.id, identity.String())

	// 1. Registry lookup
	record, err := g.verifyRegistry(ctx, identity)
	if err != nil {
		return g.fail(gen, func() {
			g.clearLocked()
		}, classifyRegistryError(err))
	}
	if g.isStale(gen) {
		return g.GetState(), supersededError()
	}

	// 2a. Registration not finalized: activation fee first
	if record.Status == domain.RegistrationPending {
		tx, err := g.createTransaction(ctx, identity, record.ActivationFeeMinorUnits)
		if err != nil {
			return g.fail(gen, func() {
				g.clearLocked()
			}, domain.WrapGateError(domain.KindTransport,
				"could not create the activation payment, please retry", err))
		}
		return g.complete(gen, func() {
			g.record = record
			g.transaction = tx
			g.state = StatePaymentRequired
			log.WithField("reference", tx.Reference).Info("💳 Activation fee required")
		})
	}

	// 2b. Validated: straight to the one-time code
	issue := g.requestCode(ctx, identity)
	return g.complete(gen, func() {
		g.record = record
		g.state = StateCodePending
		g.applyIssueLocked(issue)
		log.WithField("code_origin", issue.origin).Info("📨 One-time code requested")
	}, issue.err)
}

// ConfirmPayment polls the gateway once for the activation transaction.
// An empty reference means the gate's current transaction.
func (g *AccessGate) ConfirmPayment(ctx context.Context, reference string) (GateView, error) {
	reference = strings.TrimSpace(reference)
	var identity domain.GieIdentity

	gen, gerr := g.begin("confirm payment", func() error {
		if g.transaction == nil {
			return domain.NewGateError(domain.KindInvalidState, "no activation payment is pending")
		}
		if reference == "" {
			reference = g.transaction.Reference
		}
		if reference != g.transaction.Reference {
			return domain.NewGateError(domain.KindValidation, "reference does not match the pending payment")
		}
		identity = g.identity
		return nil
	}, StatePaymentRequired)
	if gerr != nil {
		return g.GetState(), gerr
	}
	log := logger.WithGate(g.id, identity.String()).WithField("reference", reference)

	status, err := g.transactionStatus(ctx, reference)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Warn("⚠️ Activation payment unknown to the gateway")
			return g.fail(gen, nil, domain.WrapGateError(domain.KindBusinessRule,
				"payment not found, please restart the payment", err))
		}
		return g.fail(gen, nil, domain.WrapGateError(domain.KindTransport,
			"could not reach the payment service, please retry", err))
	}

	switch status {
	case domain.TransactionConfirmed:
		if g.isStale(gen) {
			return g.GetState(), supersededError()
		}
		issue := g.requestCode(ctx, identity)
		return g.complete(gen, func() {
			g.transaction.Status = domain.TransactionConfirmed
			g.state = StateCodePending
			g.applyIssueLocked(issue)
			log.Info("✅ Activation payment confirmed")
		}, issue.err)
	case domain.TransactionFailed:
		return g.fail(gen, func() {
			g.transaction.Status = domain.TransactionFailed
		}, domain.NewGateError(domain.KindBusinessRule,
			"payment not confirmed: the payment failed, please restart it"))
	default:
		return g.fail(gen, func() {
			g.transaction.Status = domain.TransactionCreated
		}, domain.NewGateError(domain.KindBusinessRule,
			"payment not yet confirmed, complete it and check again"))
	}
}

// RestartPayment creates a fresh activation transaction while payment is required.
// The previous transaction stays valid server-side.
func (g *AccessGate) RestartPayment(ctx context.Context) (GateView, error) {
	var identity domain.GieIdentity
	var amount int64

	gen, gerr := g.begin("restart payment", func() error {
		if g.record == nil {
			return domain.NewGateError(domain.KindInvalidState, "no registry record for this gate")
		}
		identity = g.identity
		amount = g.record.ActivationFeeMinorUnits
		return nil
	}, StatePaymentRequired)
	if gerr != nil {
		return g.GetState(), gerr
	}

	tx, err := g.createTransaction(ctx, identity, amount)
	if err != nil {
		return g.fail(gen, nil, domain.WrapGateError(domain.KindTransport,
			"could not create the activation payment, please retry", err))
	}
	return g.complete(gen, func() {
		g.transaction = tx
		logger.WithGate(g.id, identity.String()).
			WithField("reference", tx.Reference).Info("🔁 Activation payment restarted")
	})
}

// SubmitCode verifies a channel-delivered or fallback code with the backend.
func (g *AccessGate) SubmitCode(ctx context.Context, code string) (GateView, error) {
	code = strings.TrimSpace(code)
	var identity domain.GieIdentity
	var localHash string

	gen, gerr := g.begin("submit code", func() error {
		if !domain.ValidCode(code) {
			return domain.WrapGateError(domain.KindValidation, "the code must be 6 digits", domain.ErrInvalidCode)
		}
		identity = g.identity
		localHash = g.localCodeHash
		return nil
	}, StateCodePending)
	if gerr != nil {
		return g.GetState(), gerr
	}
	log := logger.WithGate(g.id, identity.String())
	if localHash != "" && password.Verify(code, localHash) {
		log = log.WithField("code_origin", domain.CodeLocalFallback)
	}

	credential, err := g.verifyCode(ctx, identity, code)
	if err != nil {
		if errors.Is(err, domain.ErrCodeRejected) {
			log.Warn("⚠️ Code rejected")
			return g.fail(gen, nil, domain.WrapGateError(domain.KindExpiredOrInvalid,
				"code expired or invalid, retry or request a new code", err))
		}
		issue := g.synthesizeLocal(err)
		log.WithError(err).Warn("⚠️ Code verification unreachable, local fallback issued")
		return g.fail(gen, func() {
			g.applyVerifyFallbackLocked(issue)
		}, issue.err)
	}
	if g.isStale(gen) {
		return g.GetState(), supersededError()
	}

	now := g.deps.Clock.Now()
	session := &domain.WalletSession{
		ID:        uuid.New().String(),
		GieCode:   identity.String(),
		Token:     credential.Token,
		Wallet:    credential.Wallet,
		CreatedAt: now,
		ExpiresAt: now.Add(g.deps.SessionTTL),
	}
	if session.Wallet.GieCode == "" {
		session.Wallet.GieCode = identity.String()
	}
	if err := g.deps.Sessions.Create(ctx, session); err != nil {
		log.WithError(err).Error("❌ Failed to store wallet session")
		return g.fail(gen, nil, domain.WrapGateError(domain.KindTransport,
			"could not open the wallet session, please request a new code", err))
	}

	view, err := g.complete(gen, func() {
		g.state = StateAuthenticated
		g.sessionID = session.ID
		g.codeOrigin = ""
		g.fallbackCode = ""
		g.localCodeHash = ""
		log.WithField("session_id", session.ID).Info("✅ GIE authenticated")
	})
	if domain.KindOf(err) == domain.KindSuperseded {
		_ = g.deps.Sessions.Delete(ctx, session.ID)
	}
	return view, err
}

// ResendCode asks the channel for a new code, superseding the previous one.
func (g *AccessGate) ResendCode(ctx context.Context) (GateView, error) {
	var identity domain.GieIdentity
	gen, gerr := g.begin("resend code", func() error {
		identity = g.identity
		return nil
	}, StateCodePending)
	if gerr != nil {
		return g.GetState(), gerr
	}

	issue := g.requestCode(ctx, identity)
	return g.complete(gen, func() {
		g.applyIssueLocked(issue)
		logger.WithGate(g.id, identity.String()).
			WithField("code_origin", issue.origin).Info("📨 One-time code re-sent")
	}, issue.err)
}

// Reset returns the gate to IDLE from any state and abandons in-flight requests.
func (g *AccessGate) Reset() GateView {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.generation++
	g.inFlight = false
	g.clearLocked()
	g.lastActive = g.deps.Clock.Now()
	logger.WithGate(g.id, "").Debug("🔄 Gate reset")
	return g.viewLocked()
}

// ------------------------------------------------------------
// upstream calls, each bounded by the configured timeout
// ------------------------------------------------------------

func (g *AccessGate) verifyRegistry(ctx context.Context, identity domain.GieIdentity) (*domain.RegistryRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, g.deps.Timeout)
	defer cancel()
	return g.deps.Registry.Verify(ctx, identity)
}

func (g *AccessGate) createTransaction(ctx context.Context, identity domain.GieIdentity, amount int64) (*domain.ActivationTransaction, error) {
	ctx, cancel := context.WithTimeout(ctx, g.deps.Timeout)
	defer cancel()
	tx, err := g.deps.Gateway.Create(ctx, identity, amount)
	if err != nil {
		return nil, err
	}
	if tx.Status == "" {
		tx.Status = domain.TransactionCreated
	}
	if tx.AmountMinorUnits == 0 {
		tx.AmountMinorUnits = amount
	}
	return tx, nil
}

func (g *AccessGate) transactionStatus(ctx context.Context, reference string) (domain.TransactionStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, g.deps.Timeout)
	defer cancel()
	return g.deps.Gateway.Status(ctx, reference)
}

func (g *AccessGate) verifyCode(ctx context.Context, identity domain.GieIdentity, code string) (*domain.SessionCredential, error) {
	ctx, cancel := context.WithTimeout(ctx, g.deps.Timeout)
	defer cancel()
	return g.deps.Channel.Verify(ctx, identity, code)
}

// codeIssue is the outcome of asking for a code
type codeIssue struct {
	origin    domain.CodeOrigin
	fallback  string // backend-issued
	localHash string
	err       error
}

// requestCode sends a code. Delivery failure surfaces the backend fallback;
// an unreachable backend yields a locally synthesized one.
func (g *AccessGate) requestCode(ctx context.Context, identity domain.GieIdentity) codeIssue {
	sendCtx, cancel := context.WithTimeout(ctx, g.deps.Timeout)
	defer cancel()

	delivery, err := g.deps.Channel.Send(sendCtx, identity)
	if err != nil {
		return g.synthesizeLocal(err)
	}
	if delivery.Delivered {
		return codeIssue{origin: domain.CodeChannelDelivered}
	}
	if delivery.FallbackCode != "" {
		return codeIssue{origin: domain.CodeFallbackIssued, fallback: delivery.FallbackCode}
	}
	return g.synthesizeLocal(errors.New("code not delivered and no fallback issued"))
}

// synthesizeLocal builds a best-effort fallback code after a transport failure.
// Only its hash is kept; the plaintext leaves through the returned error once.
// The backend still decides whether the code is accepted.
func (g *AccessGate) synthesizeLocal(cause error) codeIssue {
	code, err := password.RandomDigits(6)
	if err != nil {
		return codeIssue{err: domain.WrapGateError(domain.KindTransport,
			"code service unreachable, please retry", cause)}
	}
	hash, err := password.Hash(code, g.deps.FallbackHashCost)
	if err != nil {
		return codeIssue{err: domain.WrapGateError(domain.KindTransport,
			"code service unreachable, please retry", cause)}
	}
	return codeIssue{
		origin:    domain.CodeLocalFallback,
		localHash: hash,
		err: &domain.GateError{
			Kind:         domain.KindTransport,
			Message:      "code service unreachable, use the fallback code or request a new one",
			FallbackCode: code,
			Cause:        cause,
		},
	}
}

// ------------------------------------------------------------
// locking helpers
// ------------------------------------------------------------

// begin checks the state, marks the gate busy and returns the generation.
// setup runs under the lock; a non-nil result aborts the operation.
func (g *AccessGate) begin(op string, setup func() error, allowed ...GateState) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.inFlight {
		return 0, domain.NewGateError(domain.KindInvalidState, "another request is in progress")
	}
	if !stateIn(g.state, allowed) {
		return 0, domain.NewGateError(domain.KindInvalidState,
			fmt.Sprintf("cannot %s while %s", op, g.state))
	}
	if setup != nil {
		if err := setup(); err != nil {
			return 0, err
		}
	}
	g.inFlight = true
	g.lastActive = g.deps.Clock.Now()
	return g.generation, nil
}

func (g *AccessGate) isStale(gen uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return gen != g.generation
}

// complete applies a successful outcome unless the request went stale.
// A non-nil err is still returned to the caller after applying.
func (g *AccessGate) complete(gen uint64, apply func(), err ...error) (GateView, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if gen != g.generation {
		return g.viewLocked(), supersededError()
	}
	g.inFlight = false
	g.lastActive = g.deps.Clock.Now()
	if apply != nil {
		apply()
	}
	for _, e := range err {
		if e != nil {
			return g.viewLocked(), e
		}
	}
	return g.viewLocked(), nil
}

// fail applies a failure outcome unless the request went stale.
func (g *AccessGate) fail(gen uint64, apply func(), err error) (GateView, error) {
	view, staleErr := g.complete(gen, apply)
	if staleErr != nil {
		return view, staleErr
	}
	return view, err
}

func (g *AccessGate) applyIssueLocked(issue codeIssue) {
	if issue.origin == "" {
		return
	}
	g.codeOrigin = issue.origin
	g.fallbackCode = issue.fallback
	g.localCodeHash = issue.localHash
}

// applyVerifyFallbackLocked keeps a backend-issued fallback in the view.
// Only a resend supersedes it; the local code is surfaced alongside.
func (g *AccessGate) applyVerifyFallbackLocked(issue codeIssue) {
	if g.codeOrigin == domain.CodeFallbackIssued && g.fallbackCode != "" {
		if issue.origin != "" {
			g.localCodeHash = issue.localHash
		}
		return
	}
	g.applyIssueLocked(issue)
}

func (g *AccessGate) clearLocked() {
	g.state = StateIdle
	g.identity = ""
	g.record = nil
	g.transaction = nil
	g.codeOrigin = ""
	g.fallbackCode = ""
	g.localCodeHash = ""
	g.sessionID = ""
}

func (g *AccessGate) viewLocked() GateView {
	view := GateView{
		ID:           g.id,
		State:        g.state,
		GieCode:      g.identity.String(),
		CodeOrigin:   g.codeOrigin,
		FallbackCode: g.fallbackCode,
		SessionID:    g.sessionID,
		Busy:         g.inFlight,
		UpdatedAt:    g.lastActive,
	}
	if g.record != nil {
		view.GieName = g.record.Name
		view.ContactMasked = g.record.ContactMasked
	}
	if g.transaction != nil {
		tx := *g.transaction
		view.Transaction = &tx
	}
	return view
}

func classifyRegistryError(err error) *domain.GateError {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.WrapGateError(domain.KindNotFound,
			"no GIE is registered with this identifier, check it and try again", err)
	}
	return domain.WrapGateError(domain.KindTransport,
		"could not reach the GIE registry, please retry", err)
}

func supersededError() *domain.GateError {
	return domain.NewGateError(domain.KindSuperseded, "the gate was reset while the request was in flight")
}

func stateIn(state GateState, allowed []GateState) bool {
	for _, s := range allowed {
		if s == state {
			return true
		}
	}
	return false
}
