package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gie-wallet/internal/core/domain"
	"gie-wallet/internal/pkg/clock"
)

func TestGateService_OpenGetClose(t *testing.T) {
	svc := NewGateService(GateDeps{Sessions: newMemStore()}, time.Minute)

	gate := svc.Open()
	got, err := svc.Get(gate.ID())
	if err != nil || got != gate {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if svc.GetOrOpen(gate.ID()) != gate {
		t.Fatalf("GetOrOpen opened a new gate for a known id")
	}
	if other := svc.GetOrOpen("unknown"); other == gate || svc.Count() != 2 {
		t.Fatalf("GetOrOpen did not open a new gate for an unknown id")
	}

	svc.Close(gate.ID())
	if _, err := svc.Get(gate.ID()); !errors.Is(err, domain.ErrGateNotFound) {
		t.Fatalf("Get after Close err = %v", err)
	}
}

func TestGateService_GatesAreIsolated(t *testing.T) {
	f := newFixture(t)
	svc := NewGateService(GateDeps{
		Registry: f.registry,
		Gateway:  f.gateway,
		Channel:  f.channel,
		Sessions: f.sessions,
	}, time.Minute)

	a, b := svc.Open(), svc.Open()
	if _, err := a.SubmitIdentifier(context.Background(), "FEVEO-01-01-01-01-001"); err != nil {
		t.Fatalf("SubmitIdentifier: %v", err)
	}
	if b.State() != StateIdle {
		t.Fatalf("second gate moved to %s", b.State())
	}
}

func TestGateService_PurgeIdle(t *testing.T) {
	start := time.Date(2025, 4, 13, 10, 0, 0, 0, time.UTC)
	now := start
	svc := NewGateService(GateDeps{
		Sessions: newMemStore(),
		Clock:    clock.Func(func() time.Time { return now }),
	}, 30*time.Minute)

	old := svc.Open()
	now = start.Add(20 * time.Minute)
	fresh := svc.Open()

	if removed := svc.PurgeIdle(start.Add(30 * time.Minute)); removed != 0 {
		t.Fatalf("removed %d gates at exactly the TTL", removed)
	}
	if removed := svc.PurgeIdle(start.Add(31 * time.Minute)); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := svc.Get(old.ID()); err == nil {
		t.Fatalf("idle gate kept")
	}
	if _, err := svc.Get(fresh.ID()); err != nil {
		t.Fatalf("fresh gate purged")
	}
}
