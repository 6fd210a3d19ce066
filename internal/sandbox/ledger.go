package sandbox

import (
	"strings"
	"sync"

	"gie-wallet/internal/core/domain"

	"github.com/google/uuid"
)

// Transaction is an activation fee payment held by the sandbox gateway
type Transaction struct {
	Reference   string
	GieCode     string
	AmountMinor int64
	Status      domain.TransactionStatus
}

// Ledger stores sandbox transactions
type Ledger struct {
	mu  sync.RWMutex
	txs map[string]*Transaction
}

func NewLedger() *Ledger {
	return &Ledger{txs: make(map[string]*Transaction)}
}

// Create opens a CREATED transaction
func (l *Ledger) Create(gieCode string, amountMinor int64) Transaction {
	tx := &Transaction{
		Reference:   "TX-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:12]),
		GieCode:     gieCode,
		AmountMinor: amountMinor,
		Status:      domain.TransactionCreated,
	}

	l.mu.Lock()
	l.txs[tx.Reference] = tx
	l.mu.Unlock()

	return *tx
}

// Get returns a copy of the transaction
func (l *Ledger) Get(reference string) (Transaction, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	tx, ok := l.txs[reference]
	if !ok {
		return Transaction{}, false
	}
	return *tx, true
}

// Settle moves a CREATED transaction to a final status.
// Settled transactions keep their first final status.
func (l *Ledger) Settle(reference string, status domain.TransactionStatus) (Transaction, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tx, ok := l.txs[reference]
	if !ok {
		return Transaction{}, false
	}
	if tx.Status == domain.TransactionCreated {
		tx.Status = status
	}
	return *tx, true
}
