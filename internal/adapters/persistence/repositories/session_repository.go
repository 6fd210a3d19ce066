package repositories

import (
	"context"
	"errors"
	"time"

	"gie-wallet/internal/adapters/persistence/models"
	"gie-wallet/internal/core/domain"
	"gie-wallet/internal/core/services"

	"gorm.io/gorm"
)

var _ services.SessionStore = (*sessionRepository)(nil)

// sessionRepository stores wallet sessions through GORM
type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a GORM-backed session store
func NewSessionRepository(db *gorm.DB) services.SessionStore {
	return &sessionRepository{db: db}
}

// Create inserts a new session
func (r *sessionRepository) Create(ctx context.Context, session *domain.WalletSession) error {
	return r.db.WithContext(ctx).Create(models.FromDomainSession(session)).Error
}

// Get gets a session by ID
func (r *sessionRepository) Get(ctx context.Context, id string) (*domain.WalletSession, error) {
	var row models.WalletSession
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return row.ToDomain(), nil
}

// UpdateWallet replaces the stored wallet snapshot
func (r *sessionRepository) UpdateWallet(ctx context.Context, id string, wallet domain.WalletSnapshot) error {
	result := r.db.WithContext(ctx).
		Model(&models.WalletSession{ID: id}).
		Select("wallet", "updated_at").
		Updates(&models.WalletSession{Wallet: wallet, UpdatedAt: time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// Delete removes a session
func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.WalletSession{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// DeleteExpired deletes all sessions expired at now (cleanup job)
func (r *sessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&models.WalletSession{})
	return result.RowsAffected, result.Error
}
