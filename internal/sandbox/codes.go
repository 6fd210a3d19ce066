package sandbox

import (
	"errors"
	"sync"
	"time"

	"gie-wallet/internal/pkg/clock"
	"gie-wallet/internal/pkg/password"
)

// ============================================================
// Code issuer - one-time codes for wallet access
// ============================================================

// Code issuer defaults
const (
	DefaultCodeTTL     = 5 * time.Minute
	DefaultMaxAttempts = 5
	codeLength         = 6
)

var (
	ErrNoCode          = errors.New("no code issued, request a new one")
	ErrCodeExpired     = errors.New("code expired, request a new one")
	ErrTooManyAttempts = errors.New("too many wrong codes, request a new one")
	ErrWrongCode       = errors.New("wrong code")
)

// codeEntry is a single code record in memory
type codeEntry struct {
	Code      string
	ExpiresAt time.Time
	Attempts  int
}

// CodeIssuer issues and verifies codes; a new code supersedes the previous one
type CodeIssuer struct {
	clock       clock.Clock
	ttl         time.Duration
	maxAttempts int

	mu    sync.Mutex
	store map[string]*codeEntry // key = GIE code
}

// NewCodeIssuer creates a code issuer
func NewCodeIssuer(c clock.Clock, ttl time.Duration, maxAttempts int) *CodeIssuer {
	if c == nil {
		c = clock.Real{}
	}
	if ttl <= 0 {
		ttl = DefaultCodeTTL
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &CodeIssuer{
		clock:       c,
		ttl:         ttl,
		maxAttempts: maxAttempts,
		store:       make(map[string]*codeEntry),
	}
}

// Issue creates a fresh 6-digit code for the GIE
func (s *CodeIssuer) Issue(gieCode string) (string, error) {
	code, err := password.RandomDigits(codeLength)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.store[gieCode] = &codeEntry{
		Code:      code,
		ExpiresAt: s.clock.Now().Add(s.ttl),
	}
	return code, nil
}

// Verify checks the code; a correct code is consumed
func (s *CodeIssuer) Verify(gieCode, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.store[gieCode]
	if !ok {
		return ErrNoCode
	}

	if !s.clock.Now().Before(entry.ExpiresAt) {
		delete(s.store, gieCode)
		return ErrCodeExpired
	}

	if entry.Attempts >= s.maxAttempts {
		delete(s.store, gieCode)
		return ErrTooManyAttempts
	}

	entry.Attempts++
	if entry.Code != code {
		return ErrWrongCode
	}

	delete(s.store, gieCode)
	return nil
}

// Purge removes expired codes
func (s *CodeIssuer) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	removed := 0
	for key, entry := range s.store {
		if !now.Before(entry.ExpiresAt) {
			delete(s.store, key)
			removed++
		}
	}
	return removed
}
