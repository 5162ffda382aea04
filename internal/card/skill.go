package card

import "fmt"

// Trigger decides when a passive skill fires.
type Trigger string

const (
	// TriggerDeploy fires once, right after the unit is placed.
	TriggerDeploy Trigger = "DEPLOY"
	// TriggerManual fires when the owner activates the skill by index.
	TriggerManual Trigger = "MANUAL"
)

// ConditionKind names a casting condition.
type ConditionKind string

const (
	ConditionMinRound         ConditionKind = "MIN_ROUND"
	ConditionOpponentHasUnits ConditionKind = "OPPONENT_HAS_UNITS"
	ConditionMinFieldEnergy   ConditionKind = "MIN_FIELD_ENERGY"
	ConditionSelfHealthAtMost ConditionKind = "SELF_HEALTH_AT_MOST"
)

// Condition must hold for a skill to be cast. Value is ignored by
// ConditionOpponentHasUnits.
type Condition struct {
	Kind  ConditionKind `yaml:"kind" json:"kind"`
	Value int           `yaml:"value" json:"value"`
}

// EffectKind names what a skill does once cast.
type EffectKind string

const (
	// EffectTargetedDamage damages one opponent unit.
	EffectTargetedDamage EffectKind = "TARGETED_DAMAGE"
	// EffectNonTargetingDamage damages every opponent unit.
	EffectNonTargetingDamage EffectKind = "NON_TARGETING_DAMAGE"
	// EffectAttachExtraEffect grants the caster a status it inflicts on hit.
	EffectAttachExtraEffect EffectKind = "ATTACH_EXTRA_EFFECT"
	// EffectCatastrophicDamage damages every opponent unit, ignoring immunities.
	EffectCatastrophicDamage EffectKind = "CATASTROPHIC_DAMAGE"
	// EffectInstantDeath destroys one opponent unit whatever its health.
	EffectInstantDeath EffectKind = "INSTANT_DEATH"

	// Zone effects change hands, decks or energy rather than the field.
	// Only hand cards carry them.
	EffectDrawCards         EffectKind = "DRAW_CARDS"
	EffectSearchUnits       EffectKind = "SEARCH_UNITS"
	EffectRemoveFieldEnergy EffectKind = "REMOVE_FIELD_ENERGY"
	EffectGainFieldEnergy   EffectKind = "GAIN_FIELD_ENERGY"
)

// OnField reports whether the effect is resolved against field units.
func (k EffectKind) OnField() bool {
	switch k {
	case EffectTargetedDamage, EffectNonTargetingDamage, EffectAttachExtraEffect,
		EffectCatastrophicDamage, EffectInstantDeath:
		return true
	}
	return false
}

// Effect is one resolved consequence of a skill.
type Effect struct {
	Kind   EffectKind   `yaml:"kind" json:"kind"`
	Amount int          `yaml:"amount" json:"amount"`
	Extra  *ExtraEffect `yaml:"extra,omitempty" json:"extra,omitempty"`
}

// PassiveSkill is a catalog skill definition. Index is 1-based and matches
// the unit's passive flag slot.
type PassiveSkill struct {
	Index      int         `yaml:"index" json:"index"`
	Trigger    Trigger     `yaml:"trigger" json:"trigger"`
	EnergyCost int         `yaml:"energy_cost" json:"energy_cost"`
	Conditions []Condition `yaml:"conditions" json:"conditions"`
	Effects    []Effect    `yaml:"effects" json:"effects"`
}

// Validate checks the skill definition is usable by the engine.
func (s PassiveSkill) Validate() error {
	if s.Index < 1 || s.Index > 3 {
		return fmt.Errorf("skill index %d out of range", s.Index)
	}
	switch s.Trigger {
	case TriggerDeploy, TriggerManual:
	default:
		return fmt.Errorf("skill %d: unknown trigger %q", s.Index, s.Trigger)
	}
	if s.EnergyCost < 0 {
		return fmt.Errorf("skill %d: negative energy cost", s.Index)
	}
	for _, c := range s.Conditions {
		switch c.Kind {
		case ConditionMinRound, ConditionOpponentHasUnits, ConditionMinFieldEnergy, ConditionSelfHealthAtMost:
		default:
			return fmt.Errorf("skill %d: unknown condition %q", s.Index, c.Kind)
		}
	}
	for _, e := range s.Effects {
		if !e.Kind.OnField() {
			return fmt.Errorf("skill %d: effect %q is not a field effect", s.Index, e.Kind)
		}
		if err := e.Validate(); err != nil {
			return fmt.Errorf("skill %d: %w", s.Index, err)
		}
	}
	return nil
}

// Validate checks the effect is well formed.
func (e Effect) Validate() error {
	switch e.Kind {
	case EffectTargetedDamage, EffectNonTargetingDamage, EffectCatastrophicDamage,
		EffectDrawCards, EffectSearchUnits, EffectRemoveFieldEnergy, EffectGainFieldEnergy:
		if e.Amount < 0 {
			return fmt.Errorf("effect %s: negative amount", e.Kind)
		}
	case EffectAttachExtraEffect:
		if e.Extra == nil {
			return fmt.Errorf("attach effect without status")
		}
	case EffectInstantDeath:
	default:
		return fmt.Errorf("unknown effect %q", e.Kind)
	}
	if e.Extra != nil {
		return e.Extra.Validate()
	}
	return nil
}

// SkillAt returns the skill with the given index.
func SkillAt(skills []PassiveSkill, index int) (PassiveSkill, bool) {
	for _, s := range skills {
		if s.Index == index {
			return s, true
		}
	}
	return PassiveSkill{}, false
}

// Enabled reports whether the unit's passive flag slot for the skill is set.
func (s PassiveSkill) Enabled(flags [3]bool) bool {
	return s.Index >= 1 && s.Index <= len(flags) && flags[s.Index-1]
}

// DeploySkills filters the skills that fire on placement, in index order of
// appearance.
func DeploySkills(skills []PassiveSkill) []PassiveSkill {
	out := make([]PassiveSkill, 0, len(skills))
	for _, s := range skills {
		if s.Trigger == TriggerDeploy {
			out = append(out, s)
		}
	}
	return out
}
