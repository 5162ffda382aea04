package game

import (
	"context"
	"fmt"

	"github.com/duelcraft/battle-server-go/internal/game/field"
	"github.com/duelcraft/battle-server-go/internal/game/notify"
	"github.com/duelcraft/battle-server-go/internal/game/rules"
	"go.uber.org/zap"
)

// EndTurn closes the caller's turn. In order: harmful statuses tick on the
// caller's own field and dead units are buried, the turn passes to the
// opponent, the round advances once both accounts have ended a turn, the
// new owner gains energy and draws, and its units may act again.
func (e *Engine) EndTurn(ctx context.Context, sessionID string) error {
	accountID, release, err := e.begin(ctx, sessionID)
	if err != nil {
		return err
	}
	defer release()

	turn, err := e.battles.TurnOf(accountID)
	if err != nil {
		return classify(err)
	}
	if !turn.IsTurnOf(accountID) {
		return fmt.Errorf("%w: %v", ErrRuleViolation, rules.ErrNotYourTurn)
	}

	var change notify.Change
	var ticked []int
	e.stores.Units.UpdateAll(accountID, func(u *field.Unit) {
		damage, changed := u.Tick()
		if !changed {
			return
		}
		ticked = append(ticked, u.Index)
		change.Add(notify.Touch{Owner: accountID, Index: u.Index, StatusChanged: true})
		e.logger.Debug("harmful status ticked",
			zap.Int("account_id", accountID),
			zap.Int("index", u.Index),
			zap.Int("damage", damage),
		)
	})
	if len(ticked) > 0 {
		e.events.Publish(rules.NewEventWithAmount(rules.EventStatusTicked, accountID, len(ticked)))
	}
	e.bury(accountID, ticked, &change)

	next, roundAdvanced, err := turn.EndTurn(accountID)
	if err != nil {
		return classify(err)
	}
	e.events.Publish(rules.NewEvent(rules.EventTurnEnded, accountID))
	if roundAdvanced {
		e.events.Publish(rules.NewEventWithAmount(rules.EventRoundAdvanced, next, turn.Round()))
	}

	e.stores.Energy.Add(next, e.opts.EnergyPerTurn)
	e.events.Publish(rules.NewEventWithAmount(rules.EventEnergyGranted, next, e.opts.EnergyPerTurn))

	drawn := e.stores.Decks.Draw(next, e.opts.DrawPerTurn)
	e.stores.Hands.Add(next, drawn...)
	for _, cardID := range drawn {
		evt := rules.NewEvent(rules.EventCardDrawn, next)
		evt.CardID = cardID
		e.events.Publish(evt)
	}

	e.stores.Units.ResetActed(next)

	e.logger.Info("turn ended",
		zap.Int("account_id", accountID),
		zap.Int("next_owner", next),
		zap.Int("round", turn.Round()),
		zap.Int("drawn", len(drawn)),
	)

	e.notify(ctx, next, notify.Notification{
		Kind:       notify.KindTurnStarted,
		Round:      turn.Round(),
		Energy:     e.stores.Energy.Balance(next),
		DrawnCards: drawn,
		Diff:       e.diffs.Build(next, change),
	})
	return nil
}
