package zone

import (
	"sync"
)

// Shuffler permutes n elements through swap. *rand.Rand from
// golang.org/x/exp/rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// LockedShuffler serialises access to a Shuffler that is not safe for
// concurrent use.
type LockedShuffler struct {
	mu sync.Mutex
	s  Shuffler
}

// NewLockedShuffler wraps s.
func NewLockedShuffler(s Shuffler) *LockedShuffler {
	return &LockedShuffler{s: s}
}

// Shuffle implements Shuffler.
func (l *LockedShuffler) Shuffle(n int, swap func(i, j int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.s.Shuffle(n, swap)
}

// Decks stores the draw pile of every account. Draws take from the front.
type Decks struct {
	mu    sync.RWMutex
	cards map[int][]int
}

// NewDecks creates an empty deck store.
func NewDecks() *Decks {
	return &Decks{cards: make(map[int][]int)}
}

// Set replaces an account's deck.
func (d *Decks) Set(accountID int, cardIDs []int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cards[accountID] = append([]int(nil), cardIDs...)
}

// Cards returns a copy of an account's deck, top first.
func (d *Decks) Cards(accountID int) []int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]int(nil), d.cards[accountID]...)
}

// Size returns the number of cards left in an account's deck.
func (d *Decks) Size(accountID int) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.cards[accountID])
}

// Draw removes up to n cards from the top. Drawing from an empty deck
// returns nothing.
func (d *Decks) Draw(accountID, n int) []int {
	if n <= 0 {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	deck := d.cards[accountID]
	if n > len(deck) {
		n = len(deck)
	}
	drawn := append([]int(nil), deck[:n]...)
	d.cards[accountID] = deck[n:]
	return drawn
}

// Take removes the first occurrence of each listed card from the deck and
// returns the cards it found, in the order asked.
func (d *Decks) Take(accountID int, cardIDs []int) []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	deck := d.cards[accountID]
	taken := make([]int, 0, len(cardIDs))
	for _, id := range cardIDs {
		i := indexOf(deck, id)
		if i < 0 {
			continue
		}
		deck = append(deck[:i], deck[i+1:]...)
		taken = append(taken, id)
	}
	d.cards[accountID] = deck
	return taken
}

// PutBack returns cards to the bottom of the deck.
func (d *Decks) PutBack(accountID int, cardIDs ...int) {
	if len(cardIDs) == 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cards[accountID] = append(d.cards[accountID], cardIDs...)
}

// Shuffle permutes an account's deck in place.
func (d *Decks) Shuffle(accountID int, s Shuffler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	deck := d.cards[accountID]
	s.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
}

// Clear forgets an account's deck.
func (d *Decks) Clear(accountID int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.cards, accountID)
}
