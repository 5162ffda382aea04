package game

import (
	"context"
	"fmt"

	"github.com/duelcraft/battle-server-go/internal/card"
	"github.com/duelcraft/battle-server-go/internal/game/field"
	"github.com/duelcraft/battle-server-go/internal/game/notify"
	"github.com/duelcraft/battle-server-go/internal/game/rules"
	"go.uber.org/zap"
)

// AttackUnit makes the unit at attackerIndex strike the opponent unit at
// targetIndex. The defender counter-attacks unless the attacker carries
// PhysicalImmunity. Death is judged for the defender and then the attacker.
func (e *Engine) AttackUnit(ctx context.Context, sessionID string, attackerIndex, targetIndex int) error {
	accountID, release, err := e.begin(ctx, sessionID)
	if err != nil {
		return err
	}
	defer release()

	attacker, ok := e.stores.Units.Get(accountID, attackerIndex)
	if !ok {
		return fmt.Errorf("%w: account %d has no unit at %d", ErrNotFound, accountID, attackerIndex)
	}
	if err := e.validator.CanBasicAttack(accountID, attackerIndex, attacker.RequiredEnergy); err != nil {
		return classify(err)
	}
	opponent, err := e.battles.OpponentOf(accountID)
	if err != nil {
		return classify(err)
	}
	defender, ok := e.stores.Units.Get(opponent, targetIndex)
	if !ok {
		return fmt.Errorf("%w: account %d has no unit at %d", ErrNotFound, opponent, targetIndex)
	}
	if defender.HasPassive(card.PhysicalImmunity) {
		return fmt.Errorf("%w: unit %d at %d is physically immune", ErrRuleViolation, defender.CardID, targetIndex)
	}

	ex := resolveExchange(attacker, defender)
	e.stores.Units.Put(ex.defender)
	e.stores.Units.Put(ex.attacker)

	var change notify.Change
	change.Add(notify.Touch{Owner: opponent, Index: targetIndex, StatusChanged: ex.defenderStatusChanged})
	if ex.countered {
		change.Add(notify.Touch{Owner: accountID, Index: attackerIndex, StatusChanged: ex.attackerStatusChanged})
	}
	e.bury(opponent, []int{targetIndex}, &change)
	e.bury(accountID, []int{attackerIndex}, &change)

	attackEvent := rules.NewUnitEvent(rules.EventUnitAttacked, accountID, attacker.CardID, attackerIndex)
	attackEvent.Amount = attacker.AttackPoint
	e.events.Publish(attackEvent)
	if ex.countered {
		counterEvent := rules.NewUnitEvent(rules.EventCounterAttacked, opponent, defender.CardID, targetIndex)
		counterEvent.Amount = defender.AttackPoint
		e.events.Publish(counterEvent)
	}

	e.logger.Info("unit attacked",
		zap.Int("account_id", accountID),
		zap.Int("attacker_index", attackerIndex),
		zap.Int("target_index", targetIndex),
		zap.Bool("countered", ex.countered),
		zap.Int("defender_health", ex.defender.HealthPoint),
		zap.Int("attacker_health", ex.attacker.HealthPoint),
	)

	e.notify(ctx, opponent, notify.Notification{
		Kind:      notify.KindUnitAttacked,
		CardID:    attacker.CardID,
		UnitIndex: &attackerIndex,
		Diff:      e.diffs.Build(opponent, change),
	})
	return nil
}

// AttackMainCharacter makes the unit at attackerIndex strike the opponent's
// main character. There is no counter-attack. It reports whether the hit
// was lethal.
func (e *Engine) AttackMainCharacter(ctx context.Context, sessionID string, attackerIndex int) (bool, error) {
	accountID, release, err := e.begin(ctx, sessionID)
	if err != nil {
		return false, err
	}
	defer release()

	attacker, ok := e.stores.Units.Get(accountID, attackerIndex)
	if !ok {
		return false, fmt.Errorf("%w: account %d has no unit at %d", ErrNotFound, accountID, attackerIndex)
	}
	if err := e.validator.CanBasicAttack(accountID, attackerIndex, attacker.RequiredEnergy); err != nil {
		return false, classify(err)
	}
	opponent, err := e.battles.OpponentOf(accountID)
	if err != nil {
		return false, classify(err)
	}
	if _, ok := e.stores.Characters.Health(opponent); !ok {
		return false, fmt.Errorf("%w: no main character for account %d", ErrNotFound, opponent)
	}

	remaining, lethal, err := e.stores.Characters.Damage(opponent, attacker.AttackPoint)
	if err != nil {
		return false, classify(err)
	}
	e.stores.Units.Update(accountID, attackerIndex, func(u *field.Unit) { u.HasActed = true })

	e.events.Publish(rules.NewEventWithAmount(rules.EventMainCharacterDamaged, opponent, attacker.AttackPoint))
	if lethal {
		e.events.Publish(rules.NewEvent(rules.EventMainCharacterDied, opponent))
		e.logger.Info("main character defeated",
			zap.Int("winner", accountID),
			zap.Int("loser", opponent),
		)
	}

	e.logger.Info("main character attacked",
		zap.Int("account_id", accountID),
		zap.Int("attacker_index", attackerIndex),
		zap.Int("remaining_health", remaining),
	)

	e.notify(ctx, opponent, notify.Notification{
		Kind:      notify.KindMainCharacterHit,
		CardID:    attacker.CardID,
		UnitIndex: &attackerIndex,
		Diff:      e.diffs.Build(opponent, notify.Change{MainCharacters: []int{opponent}}),
	})
	return lethal, nil
}
