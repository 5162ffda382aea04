package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/duelcraft/battle-server-go/internal/card"
	"github.com/duelcraft/battle-server-go/internal/game/notify"
	"github.com/duelcraft/battle-server-go/internal/game/rules"
	"github.com/duelcraft/battle-server-go/internal/game/skill"
	"go.uber.org/zap"
)

// UseHandCard plays a support or item card from hand. Field effects resolve
// against the opponent's units; targetIndex picks the unit for targeted
// effects and a negative value selects the lowest board index. Zone effects
// run in catalog order. The card is spent to the tomb. It returns the cards
// the player drew or searched out of the deck.
func (e *Engine) UseHandCard(ctx context.Context, sessionID string, cardID, targetIndex int) ([]int, error) {
	accountID, release, err := e.begin(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	if !e.stores.Hands.Contains(accountID, cardID) {
		return nil, fmt.Errorf("%w: card %d is not in the hand of account %d", ErrProtocolViolation, cardID, accountID)
	}
	kind, err := e.catalog.Kind(ctx, cardID)
	if err != nil {
		return nil, classify(err)
	}
	if !kind.Playable() {
		return nil, fmt.Errorf("%w: card %d is a %s, not a hand card", ErrProtocolViolation, cardID, kind)
	}
	use, err := e.catalog.HandUse(ctx, cardID)
	if errors.Is(err, card.ErrNotPlayable) {
		return nil, fmt.Errorf("%w: %v", ErrProtocolViolation, err)
	}
	if err != nil {
		return nil, classify(err)
	}
	if err := e.validator.CanUseHandCard(accountID, use); err != nil {
		return nil, classify(err)
	}
	opponent, err := e.battles.OpponentOf(accountID)
	if err != nil {
		return nil, classify(err)
	}
	if targetIndex < 0 {
		targetIndex = skill.LowestIndex
	}
	out, err := e.skills.ApplyFromHand(cardID, e.stores.Units.Units(opponent), use.FieldEffects(), targetIndex)
	if err != nil {
		return nil, classify(err)
	}
	units, err := e.deckUnits(ctx, accountID, use)
	if err != nil {
		return nil, classify(err)
	}

	if !e.stores.Energy.Spend(accountID, use.EnergyCost) {
		return nil, fmt.Errorf("%w: %v", ErrRuleViolation, rules.ErrInsufficientEnergy)
	}
	e.stores.Hands.Remove(accountID, cardID)

	var change notify.Change
	if use.EnergyCost > 0 {
		change.AddEnergy(accountID)
	}
	e.commitSkill(opponent, out, &change)

	var found []int
	for _, effect := range use.Effects {
		switch effect.Kind {
		case card.EffectDrawCards:
			drawn := e.stores.Decks.Draw(accountID, effect.Amount)
			e.stores.Hands.Add(accountID, drawn...)
			for _, id := range drawn {
				evt := rules.NewEvent(rules.EventCardDrawn, accountID)
				evt.CardID = id
				e.events.Publish(evt)
			}
			found = append(found, drawn...)

		case card.EffectSearchUnits:
			var picks []int
			for _, id := range e.stores.Decks.Cards(accountID) {
				if len(picks) == effect.Amount {
					break
				}
				if units[id] {
					picks = append(picks, id)
				}
			}
			taken := e.stores.Decks.Take(accountID, picks)
			e.stores.Hands.Add(accountID, taken...)
			found = append(found, taken...)

		case card.EffectRemoveFieldEnergy:
			left := max(e.stores.Energy.Balance(opponent)-effect.Amount, 0)
			e.stores.Energy.Set(opponent, left)
			change.AddEnergy(opponent)

		case card.EffectGainFieldEnergy:
			e.stores.Energy.Add(accountID, effect.Amount)
			change.AddEnergy(accountID)
		}
	}
	e.stores.Tombs.Bury(accountID, cardID)

	usedEvent := rules.NewEventWithAmount(rules.EventHandCardUsed, accountID, len(found))
	usedEvent.CardID = cardID
	e.events.Publish(usedEvent)

	e.logger.Info("hand card used",
		zap.Int("account_id", accountID),
		zap.Int("card_id", cardID),
		zap.String("kind", string(kind)),
		zap.Int("energy_cost", use.EnergyCost),
		zap.Int("touched", len(out.Opponents)),
		zap.Int("found", len(found)),
	)

	e.notify(ctx, opponent, notify.Notification{
		Kind:       notify.KindHandCardUsed,
		CardID:     cardID,
		FoundCards: found,
		Diff:       e.diffs.Build(opponent, change),
	})
	return found, nil
}

// deckUnits reports which cards of the account's deck are units. It is only
// computed for hand uses that search the deck, before anything is mutated.
func (e *Engine) deckUnits(ctx context.Context, accountID int, use card.HandUse) (map[int]bool, error) {
	searches := false
	for _, effect := range use.Effects {
		if effect.Kind == card.EffectSearchUnits {
			searches = true
			break
		}
	}
	if !searches {
		return nil, nil
	}
	units := make(map[int]bool)
	for _, id := range e.stores.Decks.Cards(accountID) {
		if _, seen := units[id]; seen {
			continue
		}
		kind, err := e.catalog.Kind(ctx, id)
		if err != nil {
			return nil, err
		}
		units[id] = kind == card.KindUnit
	}
	return units, nil
}
