package game

import (
	"context"
	"fmt"

	"github.com/duelcraft/battle-server-go/internal/game/notify"
	"github.com/duelcraft/battle-server-go/internal/game/rules"
	"go.uber.org/zap"
)

// StartBattle seats two paired accounts in a new room, shuffles their decks
// and deals the opening hands. first takes the first turn. It returns the
// room id.
func (e *Engine) StartBattle(ctx context.Context, first, second int, decks map[int][]int) (string, error) {
	for _, account := range []int{first, second} {
		deck, ok := decks[account]
		if !ok {
			return "", fmt.Errorf("%w: no deck for account %d", ErrProtocolViolation, account)
		}
		for _, cardID := range deck {
			if _, err := e.catalog.Kind(ctx, cardID); err != nil {
				return "", classify(fmt.Errorf("deck of account %d: %w", account, err))
			}
		}
	}

	room, release, err := e.battles.CreateLocked(first, second)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRuleViolation, err)
	}
	defer release()

	hands := make(map[int][]int, 2)
	for _, account := range room.Players {
		e.stores.Units.Clear(account)
		e.stores.Tombs.Clear(account)
		e.stores.Decks.Set(account, decks[account])
		e.stores.Decks.Shuffle(account, e.opts.Shuffler)
		hands[account] = e.stores.Decks.Draw(account, e.opts.InitialHandSize)
		e.stores.Hands.Set(account, hands[account])
		e.stores.Energy.Set(account, 0)
		e.stores.Characters.Set(account, e.opts.MainCharacterHealth)
	}

	e.events.Publish(rules.NewEvent(rules.EventBattleStarted, first))
	e.logger.Info("battle started",
		zap.String("room_id", room.ID),
		zap.Int("first", first),
		zap.Int("second", second),
	)

	for _, account := range room.Players {
		e.notify(ctx, account, notify.Notification{
			Kind:       notify.KindBattleStarted,
			Round:      1,
			DrawnCards: hands[account],
		})
	}
	return room.ID, nil
}

// CloseBattle tears a room down and releases every store entry of its
// players.
func (e *Engine) CloseBattle(roomID string) error {
	room, ok := e.battles.Get(roomID)
	if !ok {
		return fmt.Errorf("%w: room %s", ErrNotFound, roomID)
	}
	release, err := e.battles.Lock(room.Players[0])
	if err != nil {
		return classify(err)
	}
	defer release()

	for _, account := range room.Players {
		e.stores.Hands.Clear(account)
		e.stores.Decks.Clear(account)
		e.stores.Tombs.Clear(account)
		e.stores.Units.Clear(account)
		e.stores.Energy.Remove(account)
		e.stores.Characters.Remove(account)
	}
	if err := e.battles.Close(roomID); err != nil {
		return classify(err)
	}
	e.logger.Info("battle closed", zap.String("room_id", roomID))
	return nil
}
