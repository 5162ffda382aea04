package card

import (
	"errors"
	"fmt"
)

// ErrNotPlayable is returned for cards that cannot be used from hand.
var ErrNotPlayable = errors.New("card cannot be used from hand")

// HandUse is what a support or item card does when it is played from hand.
// The card is spent to the tomb once its effects resolve.
type HandUse struct {
	EnergyCost int      `yaml:"energy_cost" json:"energy_cost"`
	Effects    []Effect `yaml:"effects" json:"effects"`
}

// Playable reports whether cards of kind k can carry a hand use.
func (k Kind) Playable() bool {
	return k == KindItem || k == KindSupport
}

// Validate checks the hand use is usable by the engine. A hand card has no
// casting unit, so it cannot attach extra effects.
func (u HandUse) Validate() error {
	if u.EnergyCost < 0 {
		return fmt.Errorf("negative energy cost")
	}
	if len(u.Effects) == 0 {
		return fmt.Errorf("hand use without effects")
	}
	for _, e := range u.Effects {
		if e.Kind == EffectAttachExtraEffect {
			return fmt.Errorf("effect %s needs a casting unit", e.Kind)
		}
		if err := e.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// FieldEffects returns the effects resolved against field units, in order.
func (u HandUse) FieldEffects() []Effect {
	var out []Effect
	for _, e := range u.Effects {
		if e.Kind.OnField() {
			out = append(out, e)
		}
	}
	return out
}

// Targeted reports whether an effect needs an opponent unit index.
func (u HandUse) Targeted() bool {
	for _, e := range u.Effects {
		if e.Kind == EffectTargetedDamage || e.Kind == EffectInstantDeath {
			return true
		}
	}
	return false
}
