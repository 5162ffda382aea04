package skill

import (
	"errors"
	"fmt"
	"sort"

	"github.com/duelcraft/battle-server-go/internal/card"
	"github.com/duelcraft/battle-server-go/internal/game/field"
	"github.com/duelcraft/battle-server-go/internal/game/rules"
	"go.uber.org/zap"
)

// ErrNoTarget is returned when a targeted effect names a board index the
// opponent does not occupy.
var ErrNoTarget = errors.New("no unit at target index")

// LowestIndex asks targeted effects to hit the opponent unit with the
// lowest board index.
const LowestIndex = -1

// Outcome is the next state produced by resolving a list of effects. Units
// are copies; nothing is written back until the caller commits them.
type Outcome struct {
	Caster        field.Unit
	CasterChanged bool
	// Opponents holds every opponent unit an effect touched, by board index.
	Opponents []field.Unit
	// StatusChanged marks opponent indices whose harmful statuses changed.
	StatusChanged map[int]bool
}

// Resolver evaluates casting conditions and computes skill effects.
type Resolver struct {
	logger *zap.Logger
}

// NewResolver creates a skill resolver.
func NewResolver(logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{logger: logger}
}

// DeployEffects returns the effects of every deploy-triggered skill whose
// passive flag is set and whose casting conditions hold. Anything else
// contributes nothing.
func (r *Resolver) DeployEffects(skills []card.PassiveSkill, flags [3]bool, state rules.ConditionState) []card.Effect {
	var effects []card.Effect
	for _, s := range card.DeploySkills(skills) {
		if !s.Enabled(flags) {
			r.logger.Debug("deploy skill disabled", zap.Int("skill_index", s.Index))
			continue
		}
		if err := rules.CheckConditions(s.Conditions, state); err != nil {
			r.logger.Debug("deploy skill skipped",
				zap.Int("skill_index", s.Index),
				zap.Error(err),
			)
			continue
		}
		effects = append(effects, s.Effects...)
	}
	return effects
}

// Apply resolves effects cast by caster against the opponent's units.
// target selects the unit hit by targeted damage; LowestIndex picks the
// unit with the lowest board index and is a no-op on an empty field.
func (r *Resolver) Apply(caster field.Unit, opponents []field.Unit, effects []card.Effect, target int) (Outcome, error) {
	c := caster.Clone()
	return r.resolve(&c, caster.CardID, opponents, effects, target)
}

// ApplyFromHand resolves the field effects of a hand card. There is no
// casting unit, so the outcome's Caster is left empty.
func (r *Resolver) ApplyFromHand(cardID int, opponents []field.Unit, effects []card.Effect, target int) (Outcome, error) {
	return r.resolve(nil, cardID, opponents, effects, target)
}

func (r *Resolver) resolve(caster *field.Unit, cardID int, opponents []field.Unit, effects []card.Effect, target int) (Outcome, error) {
	out := Outcome{StatusChanged: make(map[int]bool)}
	working := make(map[int]*field.Unit, len(opponents))
	for _, u := range opponents {
		c := u.Clone()
		working[u.Index] = &c
	}
	touched := make(map[int]bool)

	for _, effect := range effects {
		switch effect.Kind {
		case card.EffectTargetedDamage:
			unit, err := pickTarget(working, target)
			if err != nil {
				return Outcome{}, err
			}
			if unit == nil || unit.HasPassive(card.SkillImmunity) {
				continue
			}
			touched[unit.Index] = true
			hit(unit, effect, out.StatusChanged)

		case card.EffectNonTargetingDamage:
			for _, unit := range working {
				if unit.HasPassive(card.SkillImmunity) {
					continue
				}
				touched[unit.Index] = true
				hit(unit, effect, out.StatusChanged)
			}

		case card.EffectCatastrophicDamage:
			for _, unit := range working {
				touched[unit.Index] = true
				unit.TakeDamage(effect.Amount)
			}

		case card.EffectInstantDeath:
			unit, err := pickTarget(working, target)
			if err != nil {
				return Outcome{}, err
			}
			if unit == nil || !unit.Alive {
				continue
			}
			touched[unit.Index] = true
			unit.HealthPoint = 0
			unit.Alive = false

		case card.EffectAttachExtraEffect:
			if caster == nil {
				return Outcome{}, fmt.Errorf("effect %q needs a casting unit", effect.Kind)
			}
			if effect.Extra == nil {
				continue
			}
			caster.ExtraEffects = append(caster.ExtraEffects, *effect.Extra)
			out.CasterChanged = true

		default:
			return Outcome{}, fmt.Errorf("unsupported effect %q", effect.Kind)
		}
	}

	if caster != nil {
		out.Caster = *caster
	}
	for index := range touched {
		out.Opponents = append(out.Opponents, *working[index])
	}
	sort.Slice(out.Opponents, func(i, j int) bool { return out.Opponents[i].Index < out.Opponents[j].Index })

	r.logger.Debug("skill effects resolved",
		zap.Int("card_id", cardID),
		zap.Int("effects", len(effects)),
		zap.Int("touched", len(out.Opponents)),
	)
	return out, nil
}

func pickTarget(units map[int]*field.Unit, target int) (*field.Unit, error) {
	if target != LowestIndex {
		unit, ok := units[target]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrNoTarget, target)
		}
		return unit, nil
	}
	var lowest *field.Unit
	for _, u := range units {
		if lowest == nil || u.Index < lowest.Index {
			lowest = u
		}
	}
	return lowest, nil
}

func hit(unit *field.Unit, effect card.Effect, statusChanged map[int]bool) {
	unit.TakeDamage(effect.Amount)
	if effect.Extra != nil && unit.Inflict([]card.ExtraEffect{*effect.Extra}) {
		statusChanged[unit.Index] = true
	}
}
