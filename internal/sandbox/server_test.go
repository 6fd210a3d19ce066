package sandbox_test

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"gie-wallet/internal/adapters/persistence/repositories"
	"gie-wallet/internal/adapters/upstream"
	"gie-wallet/internal/core/domain"
	"gie-wallet/internal/core/services"
	"gie-wallet/internal/sandbox"

	"golang.org/x/crypto/bcrypt"
)

const apiKey = "sandbox-key"

type recordingNotifier struct {
	chatID int64
	code   string
}

func (n *recordingNotifier) SendCode(chatID int64, _ string, code string) error {
	n.chatID, n.code = chatID, code
	return nil
}

func startSandbox(t *testing.T, notifier sandbox.Notifier, gies ...sandbox.GIE) string {
	t.Helper()
	if len(gies) == 0 {
		gies = sandbox.DefaultGIEs()
	}
	srv := sandbox.NewServer(sandbox.NewRegistry(gies...), sandbox.NewLedger(), sandbox.NewCodeIssuer(nil, 0, 0),
		sandbox.Options{APIKey: apiKey, Notifier: notifier})
	app := srv.App()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })
	return "http://" + ln.Addr().String()
}

func newGate(baseURL string, sessions services.SessionStore) *services.AccessGate {
	client := upstream.NewClient(baseURL, apiKey, 2*time.Second)
	return services.NewAccessGate("gate-1", services.GateDeps{
		Registry:         client.Registry(),
		Gateway:          client.Gateway(),
		Channel:          client.Codes(),
		Sessions:         sessions,
		FallbackHashCost: bcrypt.MinCost,
	})
}

func settle(t *testing.T, baseURL, reference, status string) {
	t.Helper()
	req, _ := http.NewRequest(http.MethodPost, baseURL+"/transactions/"+reference+"/settle",
		bytes.NewBufferString(`{"status":"`+status+`"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(upstream.APIKeyHeader, apiKey)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("settle status = %d", resp.StatusCode)
	}
}

func TestSandbox_PendingRegistrationFlow(t *testing.T) {
	baseURL := startSandbox(t, nil)
	sessions := repositories.NewMemorySessionRepository()
	gate := newGate(baseURL, sessions)
	ctx := context.Background()

	view, err := gate.SubmitIdentifier(ctx, " feveo-01-01-01-01-002 ")
	if err != nil {
		t.Fatalf("SubmitIdentifier: %v", err)
	}
	if view.State != services.StatePaymentRequired || view.Transaction == nil {
		t.Fatalf("state = %s, want PAYMENT_REQUIRED with transaction", view.State)
	}
	reference := view.Transaction.Reference

	// not yet paid
	view, err = gate.ConfirmPayment(ctx, "")
	if domain.KindOf(err) != domain.KindBusinessRule || view.State != services.StatePaymentRequired {
		t.Fatalf("unpaid confirm = %s, %v", view.State, err)
	}

	settle(t, baseURL, reference, "CONFIRMED")

	view, err = gate.ConfirmPayment(ctx, reference)
	if err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}
	if view.State != services.StateCodePending || view.CodeOrigin != domain.CodeFallbackIssued || len(view.FallbackCode) != 6 {
		t.Fatalf("unexpected view after payment %+v", view)
	}

	wrong := "000000"
	if view.FallbackCode == wrong {
		wrong = "111111"
	}
	view, err = gate.SubmitCode(ctx, wrong)
	if domain.KindOf(err) != domain.KindExpiredOrInvalid || view.State != services.StateCodePending {
		t.Fatalf("wrong code = %s, %v", view.State, err)
	}

	view, err = gate.SubmitCode(ctx, view.FallbackCode)
	if err != nil {
		t.Fatalf("SubmitCode: %v", err)
	}
	if view.State != services.StateAuthenticated || view.SessionID == "" {
		t.Fatalf("unexpected view %+v", view)
	}
	if sessions.Len() != 1 {
		t.Fatalf("sessions = %d, want 1", sessions.Len())
	}

	// the payment validated the registration, a new gate goes straight to the code
	again := newGate(baseURL, sessions)
	view, err = again.SubmitIdentifier(ctx, "FEVEO-01-01-01-01-002")
	if err != nil || view.State != services.StateCodePending {
		t.Fatalf("validated GIE = %s, %v", view.State, err)
	}
}

func TestSandbox_FailedPayment(t *testing.T) {
	baseURL := startSandbox(t, nil)
	gate := newGate(baseURL, repositories.NewMemorySessionRepository())
	ctx := context.Background()

	view, _ := gate.SubmitIdentifier(ctx, "FEVEO-01-01-01-01-002")
	settle(t, baseURL, view.Transaction.Reference, "FAILED")

	view, err := gate.ConfirmPayment(ctx, "")
	if domain.KindOf(err) != domain.KindBusinessRule || view.State != services.StatePaymentRequired {
		t.Fatalf("failed payment = %s, %v", view.State, err)
	}

	first := view.Transaction.Reference
	view, err = gate.RestartPayment(ctx)
	if err != nil || view.Transaction.Reference == first || view.Transaction.Status != domain.TransactionCreated {
		t.Fatalf("RestartPayment = %+v, %v", view.Transaction, err)
	}
}

func TestSandbox_TelegramDeliveryAndWalletRefresh(t *testing.T) {
	notifier := &recordingNotifier{}
	gies := sandbox.DefaultGIEs()
	gies[0].TelegramChatID = 4242
	baseURL := startSandbox(t, notifier, gies...)

	sessions := repositories.NewMemorySessionRepository()
	gate := newGate(baseURL, sessions)
	ctx := context.Background()

	view, err := gate.SubmitIdentifier(ctx, "FEVEO-01-01-01-01-001")
	if err != nil {
		t.Fatalf("SubmitIdentifier: %v", err)
	}
	if view.CodeOrigin != domain.CodeChannelDelivered || view.FallbackCode != "" {
		t.Fatalf("unexpected delivery view %+v", view)
	}
	if notifier.chatID != 4242 || len(notifier.code) != 6 {
		t.Fatalf("notifier got chat=%d code=%q", notifier.chatID, notifier.code)
	}

	view, err = gate.SubmitCode(ctx, notifier.code)
	if err != nil {
		t.Fatalf("SubmitCode: %v", err)
	}

	client := upstream.NewClient(baseURL, apiKey, 2*time.Second)
	wallets := services.NewWalletService(sessions, client, nil, 0)
	session, err := wallets.Refresh(ctx, view.SessionID)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if session.Wallet.GieName != "GIE Ndiaye et Freres" || len(session.Wallet.SuccessfulDays) != 10 {
		t.Fatalf("unexpected wallet %+v", session.Wallet)
	}
}

func TestSandbox_UnknownGIEAndBadKey(t *testing.T) {
	baseURL := startSandbox(t, nil)
	gate := newGate(baseURL, repositories.NewMemorySessionRepository())

	view, err := gate.SubmitIdentifier(context.Background(), "FEVEO-09-09-09-09-999")
	if domain.KindOf(err) != domain.KindNotFound || view.State != services.StateIdle {
		t.Fatalf("unknown GIE = %s, %v", view.State, err)
	}

	client := upstream.NewClient(baseURL, "wrong-key", time.Second)
	if _, err := client.Registry().Verify(context.Background(), "FEVEO-01-01-01-01-001"); !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("bad key err = %v, want ErrUpstreamUnavailable", err)
	}
}
