package services

import (
	"sync"
	"time"

	"gie-wallet/internal/core/domain"
	"gie-wallet/internal/pkg/logger"

	"github.com/google/uuid"
)

// GateService keeps one AccessGate per browser session.
// Gates never share state; the map only routes requests to them.
type GateService struct {
	deps    GateDeps
	idleTTL time.Duration

	mu    sync.RWMutex
	gates map[string]*AccessGate
}

// NewGateService creates a gate registry.
// Gates untouched for idleTTL are dropped by PurgeIdle.
func NewGateService(deps GateDeps, idleTTL time.Duration) *GateService {
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}
	return &GateService{
		deps:    deps.withDefaults(),
		idleTTL: idleTTL,
		gates:   make(map[string]*AccessGate),
	}
}

// Open creates a fresh idle gate
func (s *GateService) Open() *AccessGate {
	gate := NewAccessGate(uuid.New().String(), s.deps)

	s.mu.Lock()
	s.gates[gate.ID()] = gate
	s.mu.Unlock()

	return gate
}

// Get returns an existing gate
func (s *GateService) Get(id string) (*AccessGate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	gate, ok := s.gates[id]
	if !ok {
		return nil, domain.ErrGateNotFound
	}
	return gate, nil
}

// GetOrOpen returns the gate for id, opening a new one when it is unknown
func (s *GateService) GetOrOpen(id string) *AccessGate {
	if id != "" {
		if gate, err := s.Get(id); err == nil {
			return gate
		}
	}
	return s.Open()
}

// Close drops a gate
func (s *GateService) Close(id string) {
	s.mu.Lock()
	delete(s.gates, id)
	s.mu.Unlock()
}

// Count returns the number of live gates
func (s *GateService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.gates)
}

// PurgeIdle removes gates that have been idle longer than the TTL
func (s *GateService) PurgeIdle(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, gate := range s.gates {
		if now.Sub(gate.LastActive()) > s.idleTTL {
			delete(s.gates, id)
			removed++
		}
	}
	if removed > 0 {
		logger.Log.Infof("🗑️ Purged %d idle gates", removed)
	}
	return removed
}
