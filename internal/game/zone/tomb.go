package zone

import "sync"

// Tombs stores spent and destroyed cards per account.
type Tombs struct {
	mu    sync.RWMutex
	cards map[int][]int
}

// NewTombs creates an empty tomb store.
func NewTombs() *Tombs {
	return &Tombs{cards: make(map[int][]int)}
}

// Bury adds cards to an account's tomb.
func (t *Tombs) Bury(accountID int, cardIDs ...int) {
	if len(cardIDs) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cards[accountID] = append(t.cards[accountID], cardIDs...)
}

// Cards returns a copy of an account's tomb.
func (t *Tombs) Cards(accountID int) []int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]int(nil), t.cards[accountID]...)
}

// Count returns how many copies of cardID lie in the tomb.
func (t *Tombs) Count(accountID, cardID int) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, c := range t.cards[accountID] {
		if c == cardID {
			n++
		}
	}
	return n
}

// Clear forgets an account's tomb.
func (t *Tombs) Clear(accountID int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.cards, accountID)
}
