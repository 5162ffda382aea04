package field

import (
	"fmt"
	"sync"
)

// Characters stores each account's main character health pool.
type Characters struct {
	mu     sync.RWMutex
	health map[int]int
}

// NewCharacters creates an empty main character store.
func NewCharacters() *Characters {
	return &Characters{health: make(map[int]int)}
}

// Set places a main character with the given health.
func (c *Characters) Set(accountID, health int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.health[accountID] = health
}

// Health returns the main character's remaining health.
func (c *Characters) Health(accountID int) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	hp, ok := c.health[accountID]
	return hp, ok
}

// Alive reports whether the account's main character still stands.
func (c *Characters) Alive(accountID int) bool {
	hp, ok := c.Health(accountID)
	return ok && hp > 0
}

// Damage lowers the main character's health, clamping at zero, and reports
// whether the hit was lethal.
func (c *Characters) Damage(accountID, amount int) (remaining int, lethal bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	hp, ok := c.health[accountID]
	if !ok {
		return 0, false, fmt.Errorf("no main character for account %d", accountID)
	}
	if amount > 0 {
		hp -= amount
		if hp < 0 {
			hp = 0
		}
		c.health[accountID] = hp
	}
	return hp, hp == 0, nil
}

// Remove forgets an account's main character.
func (c *Characters) Remove(accountID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.health, accountID)
}
