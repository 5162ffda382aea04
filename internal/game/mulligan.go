package game

import (
	"context"
	"fmt"

	"github.com/duelcraft/battle-server-go/internal/game/rules"
	"go.uber.org/zap"
)

// Mulligan returns the listed hand cards to the deck, shuffles it and
// draws the same number of replacements. Each account may mulligan once,
// during the first round. It returns the replacement cards.
func (e *Engine) Mulligan(ctx context.Context, sessionID string, cardIDs []int) ([]int, error) {
	accountID, release, err := e.begin(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	if !e.stores.Hands.ContainsAll(accountID, cardIDs) {
		return nil, fmt.Errorf("%w: account %d does not hold all of %v", ErrProtocolViolation, accountID, cardIDs)
	}
	turn, err := e.battles.TurnOf(accountID)
	if err != nil {
		return nil, classify(err)
	}
	if turn.Round() != 1 {
		return nil, fmt.Errorf("%w: mulligan is only allowed in round 1, battle is in round %d", ErrRuleViolation, turn.Round())
	}
	first, err := e.battles.MarkMulligan(accountID)
	if err != nil {
		return nil, classify(err)
	}
	if !first {
		return nil, fmt.Errorf("%w: account %d already took its mulligan", ErrRuleViolation, accountID)
	}

	if err := e.stores.Hands.RemoveAll(accountID, cardIDs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProtocolViolation, err)
	}
	e.stores.Decks.PutBack(accountID, cardIDs...)
	e.stores.Decks.Shuffle(accountID, e.opts.Shuffler)
	drawn := e.stores.Decks.Draw(accountID, len(cardIDs))
	e.stores.Hands.Add(accountID, drawn...)

	e.events.Publish(rules.NewEventWithAmount(rules.EventMulliganTaken, accountID, len(cardIDs)))
	e.logger.Info("mulligan taken",
		zap.Int("account_id", accountID),
		zap.Int("replaced", len(cardIDs)),
	)
	return drawn, nil
}
