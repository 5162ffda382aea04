package field

import (
	"sort"
	"sync"
)

// Table is the roster of deployed units, keyed by account then board index.
// Reads return copies; writes go through Place, Put and Update.
type Table struct {
	mu    sync.RWMutex
	units map[int]map[int]*Unit
}

// NewTable creates an empty unit table.
func NewTable() *Table {
	return &Table{units: make(map[int]map[int]*Unit)}
}

// Place puts a unit at the account's first free board index and returns
// that index.
func (t *Table) Place(accountID int, unit Unit) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	roster := t.units[accountID]
	if roster == nil {
		roster = make(map[int]*Unit)
		t.units[accountID] = roster
	}
	index := 0
	for {
		if _, taken := roster[index]; !taken {
			break
		}
		index++
	}
	placed := unit.Clone()
	placed.Owner = accountID
	placed.Index = index
	placed.Alive = placed.HealthPoint > 0
	roster[index] = &placed
	return index
}

// Get returns a copy of the unit at the board index.
func (t *Table) Get(accountID, index int) (Unit, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	u, ok := t.units[accountID][index]
	if !ok {
		return Unit{}, false
	}
	return u.Clone(), true
}

// Units returns copies of an account's units ordered by board index.
func (t *Table) Units(accountID int) []Unit {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Unit, 0, len(t.units[accountID]))
	for _, u := range t.units[accountID] {
		out = append(out, u.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Count returns how many units an account has on the field.
func (t *Table) Count(accountID int) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.units[accountID])
}

// Put writes back a unit previously read from the table. Units that have
// since left the field are ignored and Put reports false.
func (t *Table) Put(unit Unit) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.units[unit.Owner][unit.Index]; !ok {
		return false
	}
	stored := unit.Clone()
	stored.Alive = stored.HealthPoint > 0
	t.units[unit.Owner][unit.Index] = &stored
	return true
}

// Update mutates a unit in place under the table lock.
func (t *Table) Update(accountID, index int, fn func(*Unit)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	u, ok := t.units[accountID][index]
	if !ok {
		return false
	}
	fn(u)
	u.Alive = u.HealthPoint > 0
	return true
}

// UpdateAll mutates every unit of an account in board index order.
func (t *Table) UpdateAll(accountID int, fn func(*Unit)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	indices := make([]int, 0, len(t.units[accountID]))
	for i := range t.units[accountID] {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	for _, i := range indices {
		u := t.units[accountID][i]
		fn(u)
		u.Alive = u.HealthPoint > 0
	}
}

// ResetActed clears the has-acted flag of every unit the account owns.
func (t *Table) ResetActed(accountID int) {
	t.UpdateAll(accountID, func(u *Unit) { u.HasActed = false })
}

// JudgeDeath removes the unit at index if its health is exhausted and
// returns its card id. A unit that is healthy or already gone yields
// died == false, so judging twice never reports the same death again.
func (t *Table) JudgeDeath(accountID, index int) (cardID int, died bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	u, ok := t.units[accountID][index]
	if !ok || u.HealthPoint > 0 {
		return 0, false
	}
	u.Alive = false
	delete(t.units[accountID], index)
	return u.CardID, true
}

// Death identifies a unit removed by JudgeAll.
type Death struct {
	Index  int
	CardID int
}

// JudgeAll judges every unit of an account, in board index order.
func (t *Table) JudgeAll(accountID int) []Death {
	t.mu.Lock()
	defer t.mu.Unlock()
	var deaths []Death
	for index, u := range t.units[accountID] {
		if u.HealthPoint > 0 {
			continue
		}
		u.Alive = false
		deaths = append(deaths, Death{Index: index, CardID: u.CardID})
		delete(t.units[accountID], index)
	}
	sort.Slice(deaths, func(i, j int) bool { return deaths[i].Index < deaths[j].Index })
	return deaths
}

// Clear removes every unit of an account.
func (t *Table) Clear(accountID int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.units, accountID)
}
