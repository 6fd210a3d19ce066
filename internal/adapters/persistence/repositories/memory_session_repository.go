package repositories

import (
	"context"
	"sync"
	"time"

	"gie-wallet/internal/core/domain"
	"gie-wallet/internal/core/services"
)

var _ services.SessionStore = (*MemorySessionRepository)(nil)

// MemorySessionRepository keeps wallet sessions in process memory
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]domain.WalletSession
}

// NewMemorySessionRepository creates an empty in-memory store
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: make(map[string]domain.WalletSession)}
}

func (r *MemorySessionRepository) Create(_ context.Context, session *domain.WalletSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[session.ID]; exists {
		return ErrDuplicateSession
	}
	r.sessions[session.ID] = cloneSession(*session)
	return nil
}

func (r *MemorySessionRepository) Get(_ context.Context, id string) (*domain.WalletSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	out := cloneSession(session)
	return &out, nil
}

func (r *MemorySessionRepository) UpdateWallet(_ context.Context, id string, wallet domain.WalletSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.Wallet = wallet
	r.sessions[id] = cloneSession(session)
	return nil
}

func (r *MemorySessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *MemorySessionRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for id, session := range r.sessions {
		if session.IsExpired(now) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored sessions
func (r *MemorySessionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func cloneSession(s domain.WalletSession) domain.WalletSession {
	if s.Wallet.SuccessfulDays != nil {
		s.Wallet.SuccessfulDays = append([]int(nil), s.Wallet.SuccessfulDays...)
	}
	return s
}
