package energy

import (
	"sync"
)

// Ledger holds the field energy pool of every account in play.
type Ledger struct {
	mu    sync.RWMutex
	pools map[int]int
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{pools: make(map[int]int)}
}

// Add grants energy to an account. Non-positive amounts are ignored.
func (l *Ledger) Add(accountID, amount int) {
	if amount <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pools[accountID] += amount
}

// Set replaces an account's balance. Negative values are stored as zero.
func (l *Ledger) Set(accountID, amount int) {
	if amount < 0 {
		amount = 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pools[accountID] = amount
}

// Balance returns the energy an account currently holds.
func (l *Ledger) Balance(accountID int) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.pools[accountID]
}

// Has reports whether the account holds at least amount energy.
func (l *Ledger) Has(accountID, amount int) bool {
	return l.Balance(accountID) >= amount
}

// Spend removes energy from an account. It returns false and leaves the
// pool untouched when the balance is insufficient.
func (l *Ledger) Spend(accountID, amount int) bool {
	if amount < 0 {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pools[accountID] < amount {
		return false
	}
	l.pools[accountID] -= amount
	return true
}

// Remove forgets an account, used when its battle is torn down.
func (l *Ledger) Remove(accountID int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.pools, accountID)
}
