package notify

import (
	"sort"

	"github.com/duelcraft/battle-server-go/internal/game/field"
)

// PlayerIndex names a side relative to the receiver of a diff.
type PlayerIndex string

const (
	You      PlayerIndex = "You"
	Opponent PlayerIndex = "Opponent"
)

// Touch marks a board slot an action changed.
type Touch struct {
	Owner         int
	Index         int
	Died          bool
	StatusChanged bool
}

// Change is everything an action touched.
type Change struct {
	Units []Touch
	// MainCharacters lists accounts whose main character health changed.
	MainCharacters []int
	// Energy lists accounts whose field energy changed.
	Energy []int
}

// Add records a touched slot, merging repeated touches of the same slot.
func (c *Change) Add(t Touch) {
	for i := range c.Units {
		if c.Units[i].Owner == t.Owner && c.Units[i].Index == t.Index {
			c.Units[i].Died = c.Units[i].Died || t.Died
			c.Units[i].StatusChanged = c.Units[i].StatusChanged || t.StatusChanged
			return
		}
	}
	c.Units = append(c.Units, t)
}

// AddEnergy records an account whose field energy changed.
func (c *Change) AddEnergy(accountID int) {
	for _, a := range c.Energy {
		if a == accountID {
			return
		}
	}
	c.Energy = append(c.Energy, accountID)
}

// Empty reports whether nothing was touched.
func (c Change) Empty() bool {
	return len(c.Units) == 0 && len(c.MainCharacters) == 0 && len(c.Energy) == 0
}

// Diff is the minimal state delta for one receiver.
type Diff struct {
	Health              map[PlayerIndex]map[int]int                   `json:"health,omitempty"`
	HarmfulStatuses     map[PlayerIndex]map[int][]field.HarmfulStatus `json:"harmful_statuses,omitempty"`
	Deaths              map[PlayerIndex][]int                         `json:"deaths,omitempty"`
	MainCharacterHealth map[PlayerIndex]int                           `json:"main_character_health,omitempty"`
	FieldEnergy         map[PlayerIndex]int                           `json:"field_energy,omitempty"`
}

// UnitReader reads the live unit at a board slot.
type UnitReader interface {
	Get(accountID, index int) (field.Unit, bool)
}

// CharacterReader reads main character health.
type CharacterReader interface {
	Health(accountID int) (int, bool)
}

// EnergyReader reads field energy.
type EnergyReader interface {
	Balance(accountID int) int
}

// Builder projects touched slots into a Diff. It only reads.
type Builder struct {
	units      UnitReader
	characters CharacterReader
	energy     EnergyReader
}

// NewBuilder creates a diff builder.
func NewBuilder(units UnitReader, characters CharacterReader, energy EnergyReader) *Builder {
	return &Builder{units: units, characters: characters, energy: energy}
}

// Build returns the diff of change as seen by receiver.
func (b *Builder) Build(receiver int, change Change) Diff {
	var diff Diff
	for _, t := range change.Units {
		side := sideOf(receiver, t.Owner)
		if t.Died {
			diff.setHealth(side, t.Index, 0)
			diff.addDeath(side, t.Index)
			continue
		}
		unit, ok := b.units.Get(t.Owner, t.Index)
		if !ok {
			continue
		}
		diff.setHealth(side, t.Index, unit.HealthPoint)
		if t.StatusChanged {
			diff.setStatuses(side, t.Index, unit.HarmfulStatuses)
		}
	}
	for _, account := range change.MainCharacters {
		hp, ok := b.characters.Health(account)
		if !ok {
			continue
		}
		if diff.MainCharacterHealth == nil {
			diff.MainCharacterHealth = make(map[PlayerIndex]int)
		}
		diff.MainCharacterHealth[sideOf(receiver, account)] = hp
	}
	for _, account := range change.Energy {
		if diff.FieldEnergy == nil {
			diff.FieldEnergy = make(map[PlayerIndex]int)
		}
		diff.FieldEnergy[sideOf(receiver, account)] = b.energy.Balance(account)
	}
	for side := range diff.Deaths {
		sort.Ints(diff.Deaths[side])
	}
	return diff
}

func sideOf(receiver, owner int) PlayerIndex {
	if owner == receiver {
		return You
	}
	return Opponent
}

func (d *Diff) setHealth(side PlayerIndex, index, hp int) {
	if d.Health == nil {
		d.Health = make(map[PlayerIndex]map[int]int)
	}
	if d.Health[side] == nil {
		d.Health[side] = make(map[int]int)
	}
	d.Health[side][index] = hp
}

func (d *Diff) setStatuses(side PlayerIndex, index int, statuses []field.HarmfulStatus) {
	if d.HarmfulStatuses == nil {
		d.HarmfulStatuses = make(map[PlayerIndex]map[int][]field.HarmfulStatus)
	}
	if d.HarmfulStatuses[side] == nil {
		d.HarmfulStatuses[side] = make(map[int][]field.HarmfulStatus)
	}
	d.HarmfulStatuses[side][index] = append([]field.HarmfulStatus{}, statuses...)
}

func (d *Diff) addDeath(side PlayerIndex, index int) {
	if d.Deaths == nil {
		d.Deaths = make(map[PlayerIndex][]int)
	}
	for _, i := range d.Deaths[side] {
		if i == index {
			return
		}
	}
	d.Deaths[side] = append(d.Deaths[side], index)
}

// HealthEntries counts health values across both sides.
func (d Diff) HealthEntries() int {
	n := 0
	for _, m := range d.Health {
		n += len(m)
	}
	return n
}

// DeathEntries counts death indices across both sides.
func (d Diff) DeathEntries() int {
	n := 0
	for _, l := range d.Deaths {
		n += len(l)
	}
	return n
}
