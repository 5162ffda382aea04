package game

import (
	"github.com/duelcraft/battle-server-go/internal/card"
	"github.com/duelcraft/battle-server-go/internal/game/field"
)

// exchange is the next state of one basic attack, computed on copies so the
// stores are written only once the whole exchange is known.
type exchange struct {
	attacker field.Unit
	defender field.Unit

	countered             bool
	attackerStatusChanged bool
	defenderStatusChanged bool
}

// resolveExchange computes the strike and, when it happens, the counter.
// Only an attacker with PhysicalImmunity escapes the counter; a defender
// killed by the strike still hits back with its last attack point.
func resolveExchange(attacker, defender field.Unit) exchange {
	ex := exchange{
		attacker: attacker.Clone(),
		defender: defender.Clone(),
	}

	ex.defender.TakeDamage(ex.attacker.AttackPoint)
	if ex.defender.Alive {
		ex.defenderStatusChanged = ex.defender.Inflict(ex.attacker.ExtraEffects)
	}
	ex.attacker.HasActed = true

	if ex.attacker.HasPassive(card.PhysicalImmunity) {
		return ex
	}

	ex.countered = true
	ex.attacker.TakeDamage(ex.defender.AttackPoint)
	if ex.attacker.Alive {
		ex.attackerStatusChanged = ex.attacker.Inflict(ex.defender.ExtraEffects)
	}
	return ex
}
