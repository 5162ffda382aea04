package game

import (
	"context"
	"fmt"

	"github.com/duelcraft/battle-server-go/internal/card"
	"github.com/duelcraft/battle-server-go/internal/game/notify"
	"github.com/duelcraft/battle-server-go/internal/game/rules"
	"github.com/duelcraft/battle-server-go/internal/game/skill"
	"go.uber.org/zap"
)

// UseUnitSkill activates the manual passive skill skillIndex (1-based) of
// the unit at unitIndex. targetIndex picks the opponent unit for targeted
// effects; a negative value selects the lowest board index. Activation
// spends the skill's energy and uses the unit's action for the turn.
func (e *Engine) UseUnitSkill(ctx context.Context, sessionID string, unitIndex, skillIndex, targetIndex int) error {
	accountID, release, err := e.begin(ctx, sessionID)
	if err != nil {
		return err
	}
	defer release()

	unit, ok := e.stores.Units.Get(accountID, unitIndex)
	if !ok {
		return fmt.Errorf("%w: account %d has no unit at %d", ErrNotFound, accountID, unitIndex)
	}
	skills, err := e.catalog.PassiveSkills(ctx, unit.CardID)
	if err != nil {
		return classify(err)
	}
	s, ok := card.SkillAt(skills, skillIndex)
	if !ok {
		return fmt.Errorf("%w: card %d has no skill %d", ErrNotFound, unit.CardID, skillIndex)
	}
	if err := e.validator.CanUseSkill(accountID, unitIndex, s); err != nil {
		return classify(err)
	}
	opponent, err := e.battles.OpponentOf(accountID)
	if err != nil {
		return classify(err)
	}
	if targetIndex < 0 {
		targetIndex = skill.LowestIndex
	}
	out, err := e.skills.Apply(unit, e.stores.Units.Units(opponent), s.Effects, targetIndex)
	if err != nil {
		return classify(err)
	}

	if !e.stores.Energy.Spend(accountID, s.EnergyCost) {
		return fmt.Errorf("%w: %v", ErrRuleViolation, rules.ErrInsufficientEnergy)
	}
	out.Caster.HasActed = true
	out.CasterChanged = true

	var change notify.Change
	e.commitSkill(opponent, out, &change)

	skillEvent := rules.NewUnitEvent(rules.EventSkillUsed, accountID, unit.CardID, unitIndex)
	skillEvent.Amount = skillIndex
	e.events.Publish(skillEvent)

	e.logger.Info("unit skill used",
		zap.Int("account_id", accountID),
		zap.Int("unit_index", unitIndex),
		zap.Int("skill_index", skillIndex),
		zap.Int("energy_cost", s.EnergyCost),
		zap.Int("touched", len(out.Opponents)),
	)

	e.notify(ctx, opponent, notify.Notification{
		Kind:      notify.KindSkillUsed,
		CardID:    unit.CardID,
		UnitIndex: &unitIndex,
		Diff:      e.diffs.Build(opponent, change),
	})
	return nil
}
