package models

import (
	"time"

	"gie-wallet/internal/core/domain"

	"gorm.io/gorm"
)

// ============================================================
// Wallet Sessions
// ============================================================

// WalletSession represents wallet_sessions table
type WalletSession struct {
	ID        string                `gorm:"primaryKey;size:36" json:"id"`
	GieCode   string                `gorm:"size:32;index;not null" json:"gie_code"`
	Token     string                `gorm:"size:512;not null" json:"-"`
	Wallet    domain.WalletSnapshot `gorm:"serializer:json;type:text" json:"wallet"`
	ExpiresAt time.Time             `gorm:"index;not null" json:"expires_at"`
	CreatedAt time.Time             `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time             `gorm:"autoUpdateTime" json:"updated_at"`
}

func (WalletSession) TableName() string {
	return "wallet_sessions"
}

// FromDomainSession copies a domain session into a row
func FromDomainSession(s *domain.WalletSession) *WalletSession {
	return &WalletSession{
		ID:        s.ID,
		GieCode:   s.GieCode,
		Token:     s.Token,
		Wallet:    s.Wallet,
		ExpiresAt: s.ExpiresAt,
		CreatedAt: s.CreatedAt,
	}
}

// ToDomain converts the row back to a domain session
func (m *WalletSession) ToDomain() *domain.WalletSession {
	return &domain.WalletSession{
		ID:        m.ID,
		GieCode:   m.GieCode,
		Token:     m.Token,
		Wallet:    m.Wallet,
		CreatedAt: m.CreatedAt,
		ExpiresAt: m.ExpiresAt,
	}
}

// AutoMigrate runs auto migration for wallet tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&WalletSession{})
}
