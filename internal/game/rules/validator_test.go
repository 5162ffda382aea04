package rules

import (
	"errors"
	"fmt"
	"testing"

	"github.com/duelcraft/battle-server-go/internal/card"
	"github.com/duelcraft/battle-server-go/internal/game/energy"
	"github.com/duelcraft/battle-server-go/internal/game/field"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBattle struct {
	turn *TurnManager
}

func (f *fakeBattle) TurnOf(accountID int) (*TurnManager, error) {
	if !f.turn.Contains(accountID) {
		return nil, fmt.Errorf("account %d not in battle", accountID)
	}
	return f.turn, nil
}

func (f *fakeBattle) OpponentOf(accountID int) (int, error) {
	players := f.turn.Players()
	switch accountID {
	case players[0]:
		return players[1], nil
	case players[1]:
		return players[0], nil
	}
	return 0, fmt.Errorf("account %d not in battle", accountID)
}

type validatorFixture struct {
	battle    *fakeBattle
	ledger    *energy.Ledger
	table     *field.Table
	validator *Validator
}

func newValidatorFixture() *validatorFixture {
	battle := &fakeBattle{turn: NewTurnManager(1, 2)}
	ledger := energy.NewLedger()
	table := field.NewTable()
	return &validatorFixture{
		battle:    battle,
		ledger:    ledger,
		table:     table,
		validator: NewValidator(battle, ledger, table, battle),
	}
}

func (f *validatorFixture) place(accountID int, flags [3]bool) int {
	return f.table.Place(accountID, field.NewUnit(6, accountID, card.UnitStats{
		AttackPoint:    10,
		HealthPoint:    20,
		RequiredEnergy: 1,
		PassiveFlags:   flags,
	}))
}

func TestCanBasicAttack(t *testing.T) {
	f := newValidatorFixture()
	index := f.place(1, [3]bool{})
	f.ledger.Add(1, 1)

	require.NoError(t, f.validator.CanBasicAttack(1, index, 1))

	err := f.validator.CanBasicAttack(1, index, 2)
	assert.True(t, errors.Is(err, ErrInsufficientEnergy))

	err = f.validator.CanBasicAttack(1, 7, 1)
	assert.True(t, errors.Is(err, ErrUnitNotFound))

	f.table.Update(1, index, func(u *field.Unit) { u.HasActed = true })
	err = f.validator.CanBasicAttack(1, index, 1)
	assert.True(t, errors.Is(err, ErrAlreadyActed))
}

func TestCanBasicAttackOutOfTurn(t *testing.T) {
	f := newValidatorFixture()
	index := f.place(2, [3]bool{})
	f.ledger.Add(2, 5)

	err := f.validator.CanBasicAttack(2, index, 1)
	assert.True(t, errors.Is(err, ErrNotYourTurn))

	err = f.validator.CanBasicAttack(9, 0, 0)
	assert.Error(t, err, "accounts outside the battle are refused")
}

func TestCanBasicAttackFrozen(t *testing.T) {
	f := newValidatorFixture()
	index := f.place(1, [3]bool{})
	f.table.Update(1, index, func(u *field.Unit) {
		u.Inflict([]card.ExtraEffect{{Status: card.StatusFreeze, Duration: 1}})
	})

	err := f.validator.CanBasicAttack(1, index, 0)
	assert.True(t, errors.Is(err, ErrFrozen))
}

func TestCanUseSkill(t *testing.T) {
	f := newValidatorFixture()
	index := f.place(1, [3]bool{false, true, false})
	f.ledger.Add(1, 2)

	skill := card.PassiveSkill{
		Index:      2,
		Trigger:    card.TriggerManual,
		EnergyCost: 2,
		Conditions: []card.Condition{{Kind: card.ConditionOpponentHasUnits}},
	}

	err := f.validator.CanUseSkill(1, index, skill)
	assert.True(t, errors.Is(err, ErrConditionUnmet), "opponent has no units yet")

	f.place(2, [3]bool{})
	require.NoError(t, f.validator.CanUseSkill(1, index, skill))

	skill.EnergyCost = 3
	err = f.validator.CanUseSkill(1, index, skill)
	assert.True(t, errors.Is(err, ErrInsufficientEnergy))

	skill.EnergyCost = 0
	skill.Index = 1
	err = f.validator.CanUseSkill(1, index, skill)
	assert.True(t, errors.Is(err, ErrSkillNotFound))
}

func TestCheckConditions(t *testing.T) {
	state := ConditionState{Round: 3, FieldEnergy: 2, OpponentUnits: 0, SelfHealth: 10}

	tests := []struct {
		name      string
		condition card.Condition
		ok        bool
	}{
		{"round reached", card.Condition{Kind: card.ConditionMinRound, Value: 3}, true},
		{"round not reached", card.Condition{Kind: card.ConditionMinRound, Value: 5}, false},
		{"no opponent units", card.Condition{Kind: card.ConditionOpponentHasUnits}, false},
		{"enough energy", card.Condition{Kind: card.ConditionMinFieldEnergy, Value: 2}, true},
		{"not enough energy", card.Condition{Kind: card.ConditionMinFieldEnergy, Value: 3}, false},
		{"wounded enough", card.Condition{Kind: card.ConditionSelfHealthAtMost, Value: 10}, true},
		{"too healthy", card.Condition{Kind: card.ConditionSelfHealthAtMost, Value: 9}, false},
		{"unknown", card.Condition{Kind: "SOMETHING"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckConditions([]card.Condition{tt.condition}, state)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, ErrConditionUnmet))
			}
		})
	}

	assert.NoError(t, CheckConditions(nil, state))
}

func TestCanUseHandCard(t *testing.T) {
	f := newValidatorFixture()
	use := card.HandUse{EnergyCost: 2, Effects: []card.Effect{{Kind: card.EffectDrawCards, Amount: 1}}}

	err := f.validator.CanUseHandCard(1, use)
	assert.True(t, errors.Is(err, ErrInsufficientEnergy))

	f.ledger.Set(1, 2)
	require.NoError(t, f.validator.CanUseHandCard(1, use))

	f.ledger.Set(2, 5)
	err = f.validator.CanUseHandCard(2, use)
	assert.True(t, errors.Is(err, ErrNotYourTurn))

	assert.Error(t, f.validator.CanUseHandCard(3, use))
}
