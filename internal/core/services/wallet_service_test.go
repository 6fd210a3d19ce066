package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gie-wallet/internal/core/domain"
	"gie-wallet/internal/pkg/clock"

	"github.com/shopspring/decimal"
)

type fakeWalletSource struct {
	wallet *domain.WalletSnapshot
	err    error
	token  string
}

func (s *fakeWalletSource) Wallet(_ context.Context, token string) (*domain.WalletSnapshot, error) {
	s.token = token
	if s.err != nil {
		return nil, s.err
	}
	w := *s.wallet
	return &w, nil
}

func seedSession(t *testing.T, store SessionStore, id string, expires time.Time) {
	t.Helper()
	err := store.Create(context.Background(), &domain.WalletSession{
		ID:        id,
		GieCode:   "FEVEO-01-01-01-01-001",
		Token:     "tok-" + id,
		Wallet:    domain.WalletSnapshot{GieCode: "FEVEO-01-01-01-01-001", Balance: decimal.NewFromInt(1000), SuccessfulDays: []int{1}},
		CreatedAt: expires.Add(-time.Hour),
		ExpiresAt: expires,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestWalletService_SessionExpiry(t *testing.T) {
	now := time.Date(2025, 4, 13, 10, 0, 0, 0, time.UTC)
	store := newMemStore()
	seedSession(t, store, "live", now.Add(time.Minute))
	seedSession(t, store, "dead", now)

	svc := NewWalletService(store, nil, clock.Fixed{T: now}, 0)
	ctx := context.Background()

	if _, err := svc.Session(ctx, "live"); err != nil {
		t.Fatalf("live session: %v", err)
	}
	if _, err := svc.Session(ctx, "dead"); !errors.Is(err, domain.ErrSessionExpired) {
		t.Fatalf("expired session err = %v", err)
	}
	if _, err := store.Get(ctx, "dead"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expired session not destroyed")
	}
	if _, err := svc.Session(ctx, "missing"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("missing session err = %v", err)
	}
}

func TestWalletService_Refresh(t *testing.T) {
	now := time.Date(2025, 4, 13, 10, 0, 0, 0, time.UTC)
	store := newMemStore()
	seedSession(t, store, "s", now.Add(time.Hour))

	source := &fakeWalletSource{wallet: &domain.WalletSnapshot{Balance: decimal.NewFromInt(7000), SuccessfulDays: []int{1, 2}}}
	svc := NewWalletService(store, source, clock.Fixed{T: now}, time.Second)
	ctx := context.Background()

	session, err := svc.Refresh(ctx, "s")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if source.token != "tok-s" {
		t.Fatalf("token = %q, want the session credential", source.token)
	}
	if session.Wallet.GieCode != "FEVEO-01-01-01-01-001" || len(session.Wallet.SuccessfulDays) != 2 {
		t.Fatalf("wallet = %+v", session.Wallet)
	}
	stored, _ := store.Get(ctx, "s")
	if !stored.Wallet.Balance.Equal(decimal.NewFromInt(7000)) {
		t.Fatalf("refreshed wallet not stored: %s", stored.Wallet.Balance)
	}

	source.err = domain.ErrUpstreamUnavailable
	session, err = svc.Refresh(ctx, "s")
	if !errors.Is(err, domain.ErrUpstreamUnavailable) || session == nil {
		t.Fatalf("failed refresh = %v, %v", session, err)
	}
	if !session.Wallet.Balance.Equal(decimal.NewFromInt(7000)) {
		t.Fatalf("failed refresh must return the stored snapshot")
	}

	source.err = domain.ErrSessionExpired
	if _, err := svc.Refresh(ctx, "s"); !errors.Is(err, domain.ErrSessionExpired) {
		t.Fatalf("revoked refresh err = %v", err)
	}
	if _, err := svc.Session(ctx, "s"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("revoked session still readable: %v", err)
	}
}

func TestWalletService_Logout(t *testing.T) {
	now := time.Date(2025, 4, 13, 10, 0, 0, 0, time.UTC)
	store := newMemStore()
	seedSession(t, store, "s", now.Add(time.Hour))
	svc := NewWalletService(store, nil, clock.Fixed{T: now}, 0)

	if err := svc.Logout(context.Background(), "s"); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if err := svc.Logout(context.Background(), "s"); err != nil {
		t.Fatalf("second Logout: %v", err)
	}
	if store.len() != 0 {
		t.Fatalf("session kept after logout")
	}
}
