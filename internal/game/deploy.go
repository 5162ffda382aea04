package game

import (
	"context"
	"fmt"

	"github.com/duelcraft/battle-server-go/internal/card"
	"github.com/duelcraft/battle-server-go/internal/game/field"
	"github.com/duelcraft/battle-server-go/internal/game/notify"
	"github.com/duelcraft/battle-server-go/internal/game/rules"
	"github.com/duelcraft/battle-server-go/internal/game/skill"
	"go.uber.org/zap"
)

// DeployUnit plays a unit card from hand onto the field and fires its
// deploy-triggered skills. Every check runs before the first mutation.
func (e *Engine) DeployUnit(ctx context.Context, sessionID string, cardID int) error {
	accountID, release, err := e.begin(ctx, sessionID)
	if err != nil {
		return err
	}
	defer release()

	if !e.stores.Hands.Contains(accountID, cardID) {
		return fmt.Errorf("%w: card %d is not in the hand of account %d", ErrProtocolViolation, cardID, accountID)
	}
	kind, err := e.catalog.Kind(ctx, cardID)
	if err != nil {
		return classify(err)
	}
	if kind != card.KindUnit {
		return fmt.Errorf("%w: card %d is a %s, not a unit", ErrProtocolViolation, cardID, kind)
	}
	turn, err := e.battles.TurnOf(accountID)
	if err != nil {
		return classify(err)
	}
	if !turn.IsTurnOf(accountID) {
		return fmt.Errorf("%w: %v", ErrRuleViolation, rules.ErrNotYourTurn)
	}
	stats, err := e.catalog.UnitStats(ctx, cardID)
	if err != nil {
		return classify(err)
	}
	if stats.Grade == card.GradeMythical && turn.Round() < e.opts.MythicMinimumRound {
		return fmt.Errorf("%w: mythical card %d needs round %d, battle is in round %d",
			ErrRuleViolation, cardID, e.opts.MythicMinimumRound, turn.Round())
	}
	skills, err := e.catalog.PassiveSkills(ctx, cardID)
	if err != nil {
		return classify(err)
	}
	opponent, err := e.battles.OpponentOf(accountID)
	if err != nil {
		return classify(err)
	}
	unit := field.NewUnit(cardID, accountID, stats)
	state, err := e.validator.ConditionState(accountID, unit)
	if err != nil {
		return classify(err)
	}

	e.stores.Hands.Remove(accountID, cardID)
	index := e.stores.Units.Place(accountID, unit)
	unit.Index = index
	e.events.Publish(rules.NewUnitEvent(rules.EventUnitDeployed, accountID, cardID, index))

	var change notify.Change
	if effects := e.skills.DeployEffects(skills, unit.PassiveFlags, state); len(effects) > 0 {
		out, err := e.skills.Apply(unit, e.stores.Units.Units(opponent), effects, skill.LowestIndex)
		if err != nil {
			// The unit is placed; a skill that cannot resolve is dropped.
			e.logger.Warn("deploy skill failed to resolve",
				zap.Int("account_id", accountID),
				zap.Int("card_id", cardID),
				zap.Error(err),
			)
		} else {
			e.commitSkill(opponent, out, &change)
		}
	}

	e.logger.Info("unit deployed",
		zap.Int("account_id", accountID),
		zap.Int("card_id", cardID),
		zap.Int("index", index),
		zap.Int("round", turn.Round()),
	)

	e.notify(ctx, opponent, notify.Notification{
		Kind:      notify.KindUnitDeployed,
		CardID:    cardID,
		UnitIndex: &index,
		Diff:      e.diffs.Build(opponent, change),
	})
	return nil
}
