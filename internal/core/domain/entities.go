package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// gieCodePattern matches FEVEO-01-01-01-01-001
var gieCodePattern = regexp.MustCompile(`^FEVEO-\d{2}-\d{2}-\d{2}-\d{2}-\d{3}$`)

// codePattern matches a 6-digit one-time code
var codePattern = regexp.MustCompile(`^\d{6}$`)

// GieIdentity is the structured GIE identifier
type GieIdentity string

// ParseGieIdentity trims and upper-cases raw input and checks the pattern.
// Returns ErrInvalidIdentity when the structure does not match.
func ParseGieIdentity(raw string) (GieIdentity, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if code == "" || !gieCodePattern.MatchString(code) {
		return "", ErrInvalidIdentity
	}
	return GieIdentity(code), nil
}

// String returns the identifier
func (g GieIdentity) String() string {
	return string(g)
}

// ValidCode reports whether code is a 6-digit numeric string
func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// RegistrationStatus is owned by the external GIE registry
type RegistrationStatus string

const (
	RegistrationPending   RegistrationStatus = "PENDING_VALIDATION"
	RegistrationValidated RegistrationStatus = "VALIDATED"
)

// CodeOrigin tells the user where the current code came from
type CodeOrigin string

const (
	CodeChannelDelivered CodeOrigin = "CHANNEL_DELIVERED"
	CodeFallbackIssued   CodeOrigin = "FALLBACK_ISSUED"
	CodeLocalFallback    CodeOrigin = "LOCAL_FALLBACK"
)

// RegistryRecord is the registry answer for a GIE
type RegistryRecord struct {
	Identity                GieIdentity
	Name                    string
	Status                  RegistrationStatus
	ContactMasked           string
	ActivationFeeMinorUnits int64
}

// TransactionStatus of an activation payment
type TransactionStatus string

const (
	TransactionCreated   TransactionStatus = "CREATED"
	TransactionConfirmed TransactionStatus = "CONFIRMED"
	TransactionFailed    TransactionStatus = "FAILED"
)

// ActivationTransaction is the payable activation fee
type ActivationTransaction struct {
	Reference        string            `json:"reference"`
	AmountMinorUnits int64             `json:"amount_minor_units"`
	RedirectURL      string            `json:"redirect_url"`
	Status           TransactionStatus `json:"status"`
}

// CodeDelivery is the outcome of a code send request.
// Delivered=false is a normal outcome, not an error.
type CodeDelivery struct {
	Delivered    bool
	FallbackCode string
}

// WalletSnapshot is the wallet state returned with a session credential
type WalletSnapshot struct {
	GieCode        string          `json:"gie_code"`
	GieName        string          `json:"gie_name"`
	Balance        decimal.Decimal `json:"balance"`
	Currency       string          `json:"currency"`
	SuccessfulDays []int           `json:"successful_days"`
}

// SessionCredential is what the backend returns after a verified code
type SessionCredential struct {
	Token  string
	Wallet WalletSnapshot
}

// WalletSession is a credential held for the authenticated GIE
type WalletSession struct {
	ID        string
	GieCode   string
	Token     string
	Wallet    WalletSnapshot
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsExpired reports whether the session is past its expiry at now
func (s *WalletSession) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
