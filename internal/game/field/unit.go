package field

import (
	"github.com/duelcraft/battle-server-go/internal/card"
)

// HarmfulStatus is a timed debuff a unit suffers. Damage is dealt on each
// tick until RemainingTurns reaches zero.
type HarmfulStatus struct {
	Kind           card.StatusKind `json:"kind"`
	Damage         int             `json:"damage"`
	RemainingTurns int             `json:"remaining_turns"`
}

// Unit is a card deployed on an account's field.
type Unit struct {
	CardID          int
	Owner           int
	Index           int
	Race            card.Race
	Grade           card.Grade
	AttackPoint     int
	HealthPoint     int
	MaxHealthPoint  int
	RequiredEnergy  int
	PassiveFlags    [3]bool
	PassiveStatuses []card.PassiveStatus
	ExtraEffects    []card.ExtraEffect
	HarmfulStatuses []HarmfulStatus
	HasActed        bool
	Alive           bool
}

// NewUnit builds a live unit from catalog stats.
func NewUnit(cardID, owner int, stats card.UnitStats) Unit {
	return Unit{
		CardID:          cardID,
		Owner:           owner,
		Race:            stats.Race,
		Grade:           stats.Grade,
		AttackPoint:     stats.AttackPoint,
		HealthPoint:     stats.HealthPoint,
		MaxHealthPoint:  stats.HealthPoint,
		RequiredEnergy:  stats.RequiredEnergy,
		PassiveFlags:    stats.PassiveFlags,
		PassiveStatuses: append([]card.PassiveStatus(nil), stats.PassiveStatuses...),
		ExtraEffects:    append([]card.ExtraEffect(nil), stats.ExtraEffects...),
		Alive:           stats.HealthPoint > 0,
	}
}

// Clone returns a deep copy.
func (u Unit) Clone() Unit {
	u.PassiveStatuses = append([]card.PassiveStatus(nil), u.PassiveStatuses...)
	u.ExtraEffects = append([]card.ExtraEffect(nil), u.ExtraEffects...)
	u.HarmfulStatuses = append([]HarmfulStatus(nil), u.HarmfulStatuses...)
	return u
}

// HasPassive reports whether the unit carries the passive status.
func (u *Unit) HasPassive(status card.PassiveStatus) bool {
	for _, s := range u.PassiveStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// HasStatus reports whether the unit currently suffers the harmful status.
func (u *Unit) HasStatus(kind card.StatusKind) bool {
	for _, s := range u.HarmfulStatuses {
		if s.Kind == kind && s.RemainingTurns > 0 {
			return true
		}
	}
	return false
}

// Frozen units cannot act.
func (u *Unit) Frozen() bool {
	return u.HasStatus(card.StatusFreeze)
}

// TakeDamage lowers health, clamping at zero, and keeps Alive in step.
func (u *Unit) TakeDamage(amount int) {
	if amount <= 0 {
		return
	}
	u.HealthPoint -= amount
	if u.HealthPoint < 0 {
		u.HealthPoint = 0
	}
	u.Alive = u.HealthPoint > 0
}

// Inflict attaches the attacker's extra effects as harmful statuses. A
// status the unit already suffers is refreshed rather than stacked. It
// reports whether the status list changed.
func (u *Unit) Inflict(effects []card.ExtraEffect) bool {
	changed := false
	for _, e := range effects {
		if e.Duration <= 0 {
			continue
		}
		status := HarmfulStatus{Kind: e.Status, Damage: e.Damage, RemainingTurns: e.Duration}
		replaced := false
		for i := range u.HarmfulStatuses {
			if u.HarmfulStatuses[i].Kind == e.Status {
				u.HarmfulStatuses[i] = status
				replaced = true
				break
			}
		}
		if !replaced {
			u.HarmfulStatuses = append(u.HarmfulStatuses, status)
		}
		changed = true
	}
	return changed
}

// Tick applies one turn of harmful statuses: every status deals its damage
// and loses one turn; expired statuses are dropped. It reports the total
// damage dealt and whether the status list changed.
func (u *Unit) Tick() (damage int, changed bool) {
	if len(u.HarmfulStatuses) == 0 {
		return 0, false
	}
	remaining := u.HarmfulStatuses[:0]
	for _, s := range u.HarmfulStatuses {
		damage += s.Damage
		s.RemainingTurns--
		if s.RemainingTurns > 0 {
			remaining = append(remaining, s)
		}
	}
	u.HarmfulStatuses = remaining
	u.TakeDamage(damage)
	return damage, true
}
