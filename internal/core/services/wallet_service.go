package services

import (
	"context"
	"errors"
	"time"

	"gie-wallet/internal/core/domain"
	"gie-wallet/internal/pkg/clock"
	"gie-wallet/internal/pkg/logger"
)

// WalletService reads wallet sessions, refreshes their snapshot and ends them
type WalletService struct {
	sessions SessionStore
	source   WalletSource
	clock    clock.Clock
	timeout  time.Duration
}

// NewWalletService creates a wallet service.
// source may be nil, in which case Refresh returns the stored snapshot.
func NewWalletService(sessions SessionStore, source WalletSource, c clock.Clock, timeout time.Duration) *WalletService {
	if c == nil {
		c = clock.Real{}
	}
	if timeout <= 0 {
		timeout = DefaultUpstreamTimeout
	}
	return &WalletService{sessions: sessions, source: source, clock: c, timeout: timeout}
}

// Session returns a live session.
// Expired sessions are destroyed and reported as domain.ErrSessionExpired.
func (s *WalletService) Session(ctx context.Context, id string) (*domain.WalletSession, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.IsExpired(s.clock.Now()) {
		if err := s.sessions.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			logger.Log.WithError(err).Warn("⚠️ Failed to delete expired session")
		}
		return nil, domain.ErrSessionExpired
	}
	return session, nil
}

// Refresh re-reads the wallet snapshot upstream and stores it.
// On an upstream failure the stored snapshot is returned with the error.
// A credential rejected upstream destroys the session.
func (s *WalletService) Refresh(ctx context.Context, id string) (*domain.WalletSession, error) {
	session, err := s.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.source == nil {
		return session, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	wallet, err := s.source.Wallet(callCtx, session.Token)
	if errors.Is(err, domain.ErrSessionExpired) {
		// the backend no longer honours the credential
		if derr := s.sessions.Delete(ctx, id); derr != nil && !errors.Is(derr, domain.ErrSessionNotFound) {
			logger.Log.WithError(derr).Warn("⚠️ Failed to delete revoked session")
		}
		return nil, err
	}
	if err != nil {
		return session, err
	}
	if wallet.GieCode == "" {
		wallet.GieCode = session.GieCode
	}
	if err := s.sessions.UpdateWallet(ctx, id, *wallet); err != nil {
		return session, err
	}
	session.Wallet = *wallet
	return session, nil
}

// Logout destroys the session
func (s *WalletService) Logout(ctx context.Context, id string) error {
	if err := s.sessions.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return err
	}
	logger.Log.WithField("session_id", id).Info("✅ Wallet session closed")
	return nil
}
