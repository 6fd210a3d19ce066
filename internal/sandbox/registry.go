package sandbox

import (
	"sync"

	"gie-wallet/internal/core/domain"

	"github.com/shopspring/decimal"
)

// GIE is a registry entry of the sandbox backend
type GIE struct {
	Code               string
	Name               string
	Status             domain.RegistrationStatus
	ContactMasked      string
	ActivationFeeMinor int64
	TelegramChatID     int64
	Balance            decimal.Decimal
	Currency           string
	SuccessfulDays     []int
}

// Registry holds the sandbox GIEs
type Registry struct {
	mu   sync.RWMutex
	gies map[string]*GIE
}

// NewRegistry creates a registry with the given entries
func NewRegistry(gies ...GIE) *Registry {
	r := &Registry{gies: make(map[string]*GIE)}
	for i := range gies {
		g := gies[i]
		r.gies[g.Code] = &g
	}
	return r
}

// DefaultGIEs are seeded when the sandbox starts
func DefaultGIEs() []GIE {
	return []GIE{
		{
			Code:               "FEVEO-01-01-01-01-001",
			Name:               "GIE Ndiaye et Freres",
			Status:             domain.RegistrationValidated,
			ContactMasked:      "+221 77 *** ** 01",
			ActivationFeeMinor: 20000,
			Balance:            decimal.NewFromInt(36000),
			Currency:           "XOF",
			SuccessfulDays:     []int{1, 2, 3, 4, 5, 6, 8, 9, 10, 12},
		},
		{
			Code:               "FEVEO-01-01-01-01-002",
			Name:               "GIE Femmes de Thies",
			Status:             domain.RegistrationPending,
			ContactMasked:      "+221 76 *** ** 02",
			ActivationFeeMinor: 20000,
			Balance:            decimal.Zero,
			Currency:           "XOF",
		},
	}
}

// Get returns a copy of the GIE
func (r *Registry) Get(code string) (GIE, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.gies[code]
	if !ok {
		return GIE{}, false
	}
	out := *g
	out.SuccessfulDays = append([]int(nil), g.SuccessfulDays...)
	return out, true
}

// MarkValidated finalizes a registration once its fee is paid
func (r *Registry) MarkValidated(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g, ok := r.gies[code]; ok {
		g.Status = domain.RegistrationValidated
	}
}

// Wallet builds the wallet snapshot of a GIE
func (g GIE) Wallet() domain.WalletSnapshot {
	days := g.SuccessfulDays
	if days == nil {
		days = []int{}
	}
	return domain.WalletSnapshot{
		GieCode:        g.Code,
		GieName:        g.Name,
		Balance:        g.Balance,
		Currency:       g.Currency,
		SuccessfulDays: days,
	}
}
