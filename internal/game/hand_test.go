package game

import (
	"context"
	"errors"
	"testing"

	"github.com/duelcraft/battle-server-go/internal/game/notify"
	"github.com/duelcraft/battle-server-go/internal/game/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUseHandCardInstantDeath(t *testing.T) {
	h := newBattleHarness(t)
	soldier := h.place(bob, cardSoldier)
	tank := h.place(bob, cardTank)
	h.give(alice, cardDoomScroll)
	h.stores.Energy.Set(alice, 1)

	found, err := h.engine.UseHandCard(context.Background(), aliceSession, cardDoomScroll, tank)
	require.NoError(t, err)
	assert.Empty(t, found)

	_, ok := h.unit(bob, tank)
	assert.False(t, ok, "instant death ignores the tank's health")
	u, ok := h.unit(bob, soldier)
	require.True(t, ok)
	assert.Equal(t, 20, u.HealthPoint)

	assert.Equal(t, []int{cardTank}, h.stores.Tombs.Cards(bob))
	assert.Equal(t, []int{cardDoomScroll}, h.stores.Tombs.Cards(alice))
	assert.False(t, h.stores.Hands.Contains(alice, cardDoomScroll))
	assert.Equal(t, 0, h.stores.Energy.Balance(alice))

	note, ok := h.notes.last(bob)
	require.True(t, ok)
	assert.Equal(t, notify.KindHandCardUsed, note.Kind)
	assert.Equal(t, cardDoomScroll, note.CardID)
	assert.Equal(t, []int{tank}, note.Diff.Deaths[notify.You])
	assert.Equal(t, map[int]int{tank: 0}, note.Diff.Health[notify.You])
	assert.Equal(t, map[notify.PlayerIndex]int{notify.Opponent: 0}, note.Diff.FieldEnergy)
	h.assertAliveInvariant()
}

func TestUseHandCardInstantDeathIgnoresImmunity(t *testing.T) {
	h := newBattleHarness(t)
	shielded := h.place(bob, cardShielded)
	h.place(bob, cardGhost)
	h.give(alice, cardDoomScroll)
	h.stores.Energy.Set(alice, 1)

	_, err := h.engine.UseHandCard(context.Background(), aliceSession, cardDoomScroll, -1)
	require.NoError(t, err)

	_, ok := h.unit(bob, shielded)
	assert.False(t, ok, "the lowest index is hit despite skill immunity")
	assert.Equal(t, 1, h.stores.Units.Count(bob))
}

func TestUseHandCardMissingTargetChangesNothing(t *testing.T) {
	h := newBattleHarness(t)
	h.place(bob, cardSoldier)
	h.give(alice, cardDoomScroll)
	h.stores.Energy.Set(alice, 1)
	pushed := h.notes.count(bob)

	_, err := h.engine.UseHandCard(context.Background(), aliceSession, cardDoomScroll, 7)
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.True(t, h.stores.Hands.Contains(alice, cardDoomScroll))
	assert.Equal(t, 1, h.stores.Energy.Balance(alice))
	assert.Empty(t, h.stores.Tombs.Cards(alice))
	assert.Equal(t, pushed, h.notes.count(bob))
}

func TestUseHandCardDraws(t *testing.T) {
	h := newBattleHarness(t)
	h.stores.Decks.Set(alice, []int{cardSoldier, cardTank, cardGhost})
	h.give(alice, cardTome)
	var drawn []int
	h.engine.Events().SubscribeTyped(rules.EventCardDrawn, func(evt rules.Event) {
		drawn = append(drawn, evt.CardID)
	})

	found, err := h.engine.UseHandCard(context.Background(), aliceSession, cardTome, -1)
	require.NoError(t, err)

	assert.Equal(t, []int{cardSoldier, cardTank}, found)
	assert.Equal(t, []int{cardSoldier, cardTank}, drawn)
	assert.Equal(t, []int{cardGhost}, h.stores.Decks.Cards(alice))
	assert.True(t, h.stores.Hands.ContainsAll(alice, []int{cardSoldier, cardTank}))
	assert.False(t, h.stores.Hands.Contains(alice, cardTome))

	note, ok := h.notes.last(bob)
	require.True(t, ok)
	assert.Equal(t, []int{cardSoldier, cardTank}, note.FoundCards)
	assert.Zero(t, note.Diff.HealthEntries())
	assert.Nil(t, note.Diff.FieldEnergy)
}

func TestUseHandCardSearchesFirstUnit(t *testing.T) {
	h := newBattleHarness(t)
	h.stores.Decks.Set(alice, []int{cardPotion, cardTome, cardTank, cardSoldier})
	h.give(alice, cardScoutMap)

	found, err := h.engine.UseHandCard(context.Background(), aliceSession, cardScoutMap, -1)
	require.NoError(t, err)

	assert.Equal(t, []int{cardTank}, found)
	assert.Equal(t, []int{cardPotion, cardTome, cardSoldier}, h.stores.Decks.Cards(alice))
	assert.True(t, h.stores.Hands.Contains(alice, cardTank))
	assert.Equal(t, []int{cardScoutMap}, h.stores.Tombs.Cards(alice))
}

func TestUseHandCardSearchWithoutUnitsFindsNothing(t *testing.T) {
	h := newBattleHarness(t)
	h.stores.Decks.Set(alice, []int{cardPotion, cardTome})
	h.give(alice, cardScoutMap)

	found, err := h.engine.UseHandCard(context.Background(), aliceSession, cardScoutMap, -1)
	require.NoError(t, err)

	assert.Empty(t, found)
	assert.Equal(t, []int{cardPotion, cardTome}, h.stores.Decks.Cards(alice))
}

func TestUseHandCardRemovesOpponentEnergy(t *testing.T) {
	tests := []struct {
		name  string
		start int
		want  int
	}{
		{"partial", 3, 1},
		{"clamped at zero", 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newBattleHarness(t)
			h.give(alice, cardSiphon)
			h.stores.Energy.Set(bob, tt.start)

			_, err := h.engine.UseHandCard(context.Background(), aliceSession, cardSiphon, -1)
			require.NoError(t, err)

			assert.Equal(t, tt.want, h.stores.Energy.Balance(bob))
			note, ok := h.notes.last(bob)
			require.True(t, ok)
			assert.Equal(t, map[notify.PlayerIndex]int{notify.You: tt.want}, note.Diff.FieldEnergy)
		})
	}
}

func TestUseHandCardFieldAndZoneEffects(t *testing.T) {
	h := newBattleHarness(t)
	tank := h.place(bob, cardTank)
	peasant := h.place(bob, cardPeasant)
	h.stores.Decks.Set(alice, []int{cardGhost})
	h.give(alice, cardFireBomb)

	found, err := h.engine.UseHandCard(context.Background(), aliceSession, cardFireBomb, -1)
	require.NoError(t, err)
	assert.Equal(t, []int{cardGhost}, found)

	u, ok := h.unit(bob, tank)
	require.True(t, ok)
	assert.Equal(t, 46, u.HealthPoint)
	u, ok = h.unit(bob, peasant)
	require.True(t, ok)
	assert.Equal(t, 1, u.HealthPoint)

	note, ok := h.notes.last(bob)
	require.True(t, ok)
	assert.Equal(t, map[int]int{tank: 46, peasant: 1}, note.Diff.Health[notify.You])
	h.assertAliveInvariant()
}

func TestUseHandCardPublishesEvent(t *testing.T) {
	h := newBattleHarness(t)
	h.stores.Decks.Set(alice, []int{cardSoldier, cardTank})
	h.give(alice, cardTome)
	var used []rules.Event
	h.engine.Events().SubscribeTyped(rules.EventHandCardUsed, func(evt rules.Event) {
		used = append(used, evt)
	})

	_, err := h.engine.UseHandCard(context.Background(), aliceSession, cardTome, -1)
	require.NoError(t, err)

	require.Len(t, used, 1)
	assert.Equal(t, alice, used[0].AccountID)
	assert.Equal(t, cardTome, used[0].CardID)
	assert.Equal(t, 2, used[0].Amount)
}

func TestUseHandCardRejections(t *testing.T) {
	tests := []struct {
		name    string
		session string
		cardID  int
		give    bool
		energy  int
		want    error
	}{
		{"not in hand", aliceSession, cardTome, false, 0, ErrProtocolViolation},
		{"item without a use", aliceSession, cardPotion, true, 0, ErrProtocolViolation},
		{"unit card", aliceSession, cardSoldier, true, 0, ErrProtocolViolation},
		{"out of turn", bobSession, cardTome, true, 0, ErrRuleViolation},
		{"insufficient energy", aliceSession, cardDoomScroll, true, 0, ErrRuleViolation},
		{"unknown session", "nobody", cardTome, true, 0, ErrAuthentication},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newBattleHarness(t)
			h.place(bob, cardSoldier)
			owner := alice
			if tt.session == bobSession {
				owner = bob
			}
			if tt.give {
				h.give(owner, tt.cardID)
			}
			h.stores.Energy.Set(owner, tt.energy)
			hand := h.stores.Hands.Cards(owner)

			_, err := h.engine.UseHandCard(context.Background(), tt.session, tt.cardID, -1)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Equal(t, hand, h.stores.Hands.Cards(owner))
			assert.Empty(t, h.stores.Tombs.Cards(owner))
			assert.Equal(t, 1, h.stores.Units.Count(bob))
		})
	}
}
