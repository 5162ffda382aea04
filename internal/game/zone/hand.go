package zone

import (
	"fmt"
	"sync"
)

// Hands stores the ordered hand of every account.
type Hands struct {
	mu    sync.RWMutex
	cards map[int][]int
}

// NewHands creates an empty hand store.
func NewHands() *Hands {
	return &Hands{cards: make(map[int][]int)}
}

// Set replaces an account's hand.
func (h *Hands) Set(accountID int, cardIDs []int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cards[accountID] = append([]int(nil), cardIDs...)
}

// Add appends cards to the end of an account's hand.
func (h *Hands) Add(accountID int, cardIDs ...int) {
	if len(cardIDs) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cards[accountID] = append(h.cards[accountID], cardIDs...)
}

// Cards returns a copy of an account's hand.
func (h *Hands) Cards(accountID int) []int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]int(nil), h.cards[accountID]...)
}

// Size returns the number of cards in an account's hand.
func (h *Hands) Size(accountID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.cards[accountID])
}

// Contains reports whether cardID is in the account's hand.
func (h *Hands) Contains(accountID, cardID int) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return indexOf(h.cards[accountID], cardID) >= 0
}

// ContainsAll reports whether every id is in the hand, counting
// duplicates: asking for the same card twice needs two copies.
func (h *Hands) ContainsAll(accountID int, cardIDs []int) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := without(h.cards[accountID], cardIDs)
	return ok
}

// Remove takes one copy of cardID out of the hand.
func (h *Hands) Remove(accountID, cardID int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	hand := h.cards[accountID]
	i := indexOf(hand, cardID)
	if i < 0 {
		return false
	}
	h.cards[accountID] = append(hand[:i:i], hand[i+1:]...)
	return true
}

// RemoveAll takes every listed card out of the hand, or none of them if
// any is missing.
func (h *Hands) RemoveAll(accountID int, cardIDs []int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	rest, ok := without(h.cards[accountID], cardIDs)
	if !ok {
		return fmt.Errorf("account %d does not hold cards %v", accountID, cardIDs)
	}
	h.cards[accountID] = rest
	return nil
}

// Clear forgets an account's hand.
func (h *Hands) Clear(accountID int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.cards, accountID)
}

func indexOf(cards []int, cardID int) int {
	for i, c := range cards {
		if c == cardID {
			return i
		}
	}
	return -1
}

// without returns cards minus one copy of each id in remove.
func without(cards, remove []int) ([]int, bool) {
	rest := append([]int(nil), cards...)
	for _, id := range remove {
		i := indexOf(rest, id)
		if i < 0 {
			return nil, false
		}
		rest = append(rest[:i], rest[i+1:]...)
	}
	return rest, true
}
