package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"gie-wallet/internal/core/domain"

	"github.com/shopspring/decimal"
)

type fakeRegistry struct {
	records map[domain.GieIdentity]domain.RegistryRecord
	err     error
	calls   int32

	started chan struct{} // closed on first call when set
	release chan struct{} // blocks calls until closed when set
	once    sync.Once
}

func (r *fakeRegistry) Verify(ctx context.Context, identity domain.GieIdentity) (*domain.RegistryRecord, error) {
	atomic.AddInt32(&r.calls, 1)
	if r.started != nil {
		r.once.Do(func() { close(r.started) })
	}
	if r.release != nil {
		select {
		case <-r.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	rec, ok := r.records[identity]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

type fakeGateway struct {
	mu        sync.Mutex
	status    domain.TransactionStatus
	createErr error
	statusErr error
	created   int
}

func (g *fakeGateway) Create(_ context.Context, _ domain.GieIdentity, amount int64) (*domain.ActivationTransaction, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.created++
	ref := "TX-" + string(rune('0'+g.created))
	return &domain.ActivationTransaction{Reference: ref, AmountMinorUnits: amount, RedirectURL: "https://pay/" + ref}, nil
}

func (g *fakeGateway) Status(_ context.Context, _ string) (domain.TransactionStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.statusErr != nil {
		return "", g.statusErr
	}
	return g.status, nil
}

func (g *fakeGateway) setStatus(s domain.TransactionStatus) {
	g.mu.Lock()
	g.status = s
	g.mu.Unlock()
}

type fakeChannel struct {
	mu        sync.Mutex
	delivery  domain.CodeDelivery
	sendErr   error
	verifyErr error
	accept    map[string]bool
	sends     int
	verifies  int
}

func (c *fakeChannel) Send(_ context.Context, _ domain.GieIdentity) (*domain.CodeDelivery, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sends++
	if c.sendErr != nil {
		return nil, c.sendErr
	}
	d := c.delivery
	return &d, nil
}

func (c *fakeChannel) Verify(_ context.Context, identity domain.GieIdentity, code string) (*domain.SessionCredential, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.verifies++
	if c.verifyErr != nil {
		return nil, c.verifyErr
	}
	if !c.accept[code] {
		return nil, domain.ErrCodeRejected
	}
	return &domain.SessionCredential{
		Token: "token-" + code,
		Wallet: domain.WalletSnapshot{
			GieCode:        identity.String(),
			Balance:        decimal.NewFromInt(6000),
			Currency:       "XOF",
			SuccessfulDays: []int{1, 2, 3},
		},
	}, nil
}

// memStore is a minimal SessionStore for service tests
type memStore struct {
	mu       sync.Mutex
	sessions map[string]domain.WalletSession
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[string]domain.WalletSession)}
}

func (s *memStore) Create(_ context.Context, session *domain.WalletSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = *session
	return nil
}

func (s *memStore) Get(_ context.Context, id string) (*domain.WalletSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &session, nil
}

func (s *memStore) UpdateWallet(_ context.Context, id string, wallet domain.WalletSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.Wallet = wallet
	s.sessions[id] = session
	return nil
}

func (s *memStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *memStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, session := range s.sessions {
		if session.IsExpired(now) {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}

func (s *memStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
