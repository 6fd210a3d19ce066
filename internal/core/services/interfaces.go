package services

import (
	"context"
	"time"

	"gie-wallet/internal/core/domain"
)

// Registry looks up GIE registration status.
// Returns domain.ErrNotFound for unknown identities and
// domain.ErrUpstreamUnavailable for network or server failures.
type Registry interface {
	Verify(ctx context.Context, identity domain.GieIdentity) (*domain.RegistryRecord, error)
}

// TransactionGateway creates and polls activation fee payments
type TransactionGateway interface {
	Create(ctx context.Context, identity domain.GieIdentity, amountMinorUnits int64) (*domain.ActivationTransaction, error)
	Status(ctx context.Context, reference string) (domain.TransactionStatus, error)
}

// CodeChannel sends and verifies one-time codes.
// Send reports delivery failure through CodeDelivery, not through the error;
// an error means the backend could not be reached.
// Verify returns domain.ErrCodeRejected for expired or invalid codes.
type CodeChannel interface {
	Send(ctx context.Context, identity domain.GieIdentity) (*domain.CodeDelivery, error)
	Verify(ctx context.Context, identity domain.GieIdentity, code string) (*domain.SessionCredential, error)
}

// WalletSource re-reads a wallet snapshot with a session credential token
type WalletSource interface {
	Wallet(ctx context.Context, token string) (*domain.WalletSnapshot, error)
}

// SessionStore holds wallet sessions with an explicit lifecycle.
// Get and UpdateWallet return domain.ErrSessionNotFound for unknown ids.
type SessionStore interface {
	Create(ctx context.Context, session *domain.WalletSession) error
	Get(ctx context.Context, id string) (*domain.WalletSession, error)
	UpdateWallet(ctx context.Context, id string, wallet domain.WalletSnapshot) error
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
