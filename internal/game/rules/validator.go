package rules

import (
	"errors"
	"fmt"

	"github.com/duelcraft/battle-server-go/internal/card"
	"github.com/duelcraft/battle-server-go/internal/game/field"
)

// Refusal reasons returned by the Validator.
var (
	ErrNotYourTurn        = errors.New("not the account's turn")
	ErrAlreadyActed       = errors.New("unit already acted this turn")
	ErrInsufficientEnergy = errors.New("insufficient energy")
	ErrUnitNotFound       = errors.New("unit not found")
	ErrFrozen             = errors.New("unit is frozen")
	ErrSkillNotFound      = errors.New("unit has no such skill")
	ErrConditionUnmet     = errors.New("casting condition unmet")
)

// TurnSource resolves the turn state of the battle an account plays in.
type TurnSource interface {
	TurnOf(accountID int) (*TurnManager, error)
}

// EnergySource reads field energy.
type EnergySource interface {
	Balance(accountID int) int
}

// UnitSource reads deployed units.
type UnitSource interface {
	Get(accountID, index int) (field.Unit, bool)
	Count(accountID int) int
}

// OpponentSource resolves the other account of a battle.
type OpponentSource interface {
	OpponentOf(accountID int) (int, error)
}

// ConditionState is the slice of battle state casting conditions look at.
type ConditionState struct {
	Round         int
	FieldEnergy   int
	OpponentUnits int
	SelfHealth    int
}

// CheckConditions returns nil when every condition holds.
func CheckConditions(conditions []card.Condition, state ConditionState) error {
	for _, c := range conditions {
		ok := true
		switch c.Kind {
		case card.ConditionMinRound:
			ok = state.Round >= c.Value
		case card.ConditionOpponentHasUnits:
			ok = state.OpponentUnits > 0
		case card.ConditionMinFieldEnergy:
			ok = state.FieldEnergy >= c.Value
		case card.ConditionSelfHealthAtMost:
			ok = state.SelfHealth <= c.Value
		default:
			ok = false
		}
		if !ok {
			return fmt.Errorf("%w: %s %d", ErrConditionUnmet, c.Kind, c.Value)
		}
	}
	return nil
}

// Validator decides whether a unit may act. It never mutates state.
type Validator struct {
	turns     TurnSource
	energy    EnergySource
	units     UnitSource
	opponents OpponentSource
}

// NewValidator creates a validator over the given read views.
func NewValidator(turns TurnSource, energy EnergySource, units UnitSource, opponents OpponentSource) *Validator {
	return &Validator{
		turns:     turns,
		energy:    energy,
		units:     units,
		opponents: opponents,
	}
}

// CanBasicAttack returns nil when the unit may perform a basic attack, or
// the reason it may not.
func (v *Validator) CanBasicAttack(accountID, unitIndex, requiredEnergy int) error {
	_, err := v.canAct(accountID, unitIndex, requiredEnergy)
	return err
}

// CanUseSkill returns nil when the unit may activate the skill, or the
// reason it may not.
func (v *Validator) CanUseSkill(accountID, unitIndex int, skill card.PassiveSkill) error {
	unit, err := v.canAct(accountID, unitIndex, skill.EnergyCost)
	if err != nil {
		return err
	}
	if !skill.Enabled(unit.PassiveFlags) {
		return fmt.Errorf("%w: index %d", ErrSkillNotFound, skill.Index)
	}
	if skill.Trigger != card.TriggerManual {
		return fmt.Errorf("%w: skill %d is not manually activated", ErrSkillNotFound, skill.Index)
	}
	state, err := v.ConditionState(accountID, unit)
	if err != nil {
		return err
	}
	return CheckConditions(skill.Conditions, state)
}

// CanUseHandCard returns nil when the account may play a support or item
// card with the given hand use, or the reason it may not.
func (v *Validator) CanUseHandCard(accountID int, use card.HandUse) error {
	turn, err := v.turns.TurnOf(accountID)
	if err != nil {
		return err
	}
	if !turn.IsTurnOf(accountID) {
		return ErrNotYourTurn
	}
	if balance := v.energy.Balance(accountID); balance < use.EnergyCost {
		return fmt.Errorf("%w: need %d, have %d", ErrInsufficientEnergy, use.EnergyCost, balance)
	}
	return nil
}

// ConditionState snapshots what casting conditions need for unit.
func (v *Validator) ConditionState(accountID int, unit field.Unit) (ConditionState, error) {
	turn, err := v.turns.TurnOf(accountID)
	if err != nil {
		return ConditionState{}, err
	}
	opponent, err := v.opponents.OpponentOf(accountID)
	if err != nil {
		return ConditionState{}, err
	}
	return ConditionState{
		Round:         turn.Round(),
		FieldEnergy:   v.energy.Balance(accountID),
		OpponentUnits: v.units.Count(opponent),
		SelfHealth:    unit.HealthPoint,
	}, nil
}

func (v *Validator) canAct(accountID, unitIndex, requiredEnergy int) (field.Unit, error) {
	turn, err := v.turns.TurnOf(accountID)
	if err != nil {
		return field.Unit{}, err
	}
	if !turn.IsTurnOf(accountID) {
		return field.Unit{}, ErrNotYourTurn
	}
	unit, ok := v.units.Get(accountID, unitIndex)
	if !ok {
		return field.Unit{}, fmt.Errorf("%w: index %d", ErrUnitNotFound, unitIndex)
	}
	if unit.HasActed {
		return field.Unit{}, ErrAlreadyActed
	}
	if unit.Frozen() {
		return field.Unit{}, ErrFrozen
	}
	if balance := v.energy.Balance(accountID); balance < requiredEnergy {
		return field.Unit{}, fmt.Errorf("%w: need %d, have %d", ErrInsufficientEnergy, requiredEnergy, balance)
	}
	return unit, nil
}
