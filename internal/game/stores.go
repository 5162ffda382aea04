package game

import (
	"context"

	"github.com/duelcraft/battle-server-go/internal/game/energy"
	"github.com/duelcraft/battle-server-go/internal/game/field"
	"github.com/duelcraft/battle-server-go/internal/game/rules"
	"github.com/duelcraft/battle-server-go/internal/game/zone"
	"github.com/duelcraft/battle-server-go/internal/room"
)

// SessionStore resolves a session id to the authenticated account.
type SessionStore interface {
	Lookup(ctx context.Context, sessionID string) (accountID int, ok bool, err error)
}

// Battles is the directory of battle rooms the engine acts inside.
type Battles interface {
	rules.TurnSource
	rules.OpponentSource
	CreateLocked(first, second int) (*room.Room, func(), error)
	Get(roomID string) (*room.Room, bool)
	Close(roomID string) error
	Lock(accountID int) (func(), error)
	MarkMulligan(accountID int) (bool, error)
}

// HandStore holds the cards each account can play.
type HandStore interface {
	Set(accountID int, cardIDs []int)
	Add(accountID int, cardIDs ...int)
	Cards(accountID int) []int
	Size(accountID int) int
	Contains(accountID, cardID int) bool
	ContainsAll(accountID int, cardIDs []int) bool
	Remove(accountID, cardID int) bool
	RemoveAll(accountID int, cardIDs []int) error
	Clear(accountID int)
}

// DeckStore holds each account's draw pile.
type DeckStore interface {
	Set(accountID int, cardIDs []int)
	Cards(accountID int) []int
	Size(accountID int) int
	Draw(accountID, n int) []int
	Take(accountID int, cardIDs []int) []int
	PutBack(accountID int, cardIDs ...int)
	Shuffle(accountID int, s zone.Shuffler)
	Clear(accountID int)
}

// TombStore collects spent and destroyed cards.
type TombStore interface {
	Bury(accountID int, cardIDs ...int)
	Cards(accountID int) []int
	Clear(accountID int)
}

// UnitStore is the field unit table.
type UnitStore interface {
	Place(accountID int, unit field.Unit) int
	Get(accountID, index int) (field.Unit, bool)
	Units(accountID int) []field.Unit
	Count(accountID int) int
	Put(unit field.Unit) bool
	Update(accountID, index int, fn func(*field.Unit)) bool
	UpdateAll(accountID int, fn func(*field.Unit))
	ResetActed(accountID int)
	JudgeDeath(accountID, index int) (cardID int, died bool)
	JudgeAll(accountID int) []field.Death
	Clear(accountID int)
}

// EnergyStore is the per-account field energy ledger.
type EnergyStore interface {
	Balance(accountID int) int
	Add(accountID, amount int)
	Set(accountID, amount int)
	Spend(accountID, amount int) bool
	Remove(accountID int)
}

// CharacterStore holds main character health.
type CharacterStore interface {
	Set(accountID, health int)
	Health(accountID int) (int, bool)
	Damage(accountID, amount int) (remaining int, lethal bool, err error)
	Remove(accountID int)
}

// Stores bundles every store the engine mutates.
type Stores struct {
	Hands      HandStore
	Decks      DeckStore
	Tombs      TombStore
	Units      UnitStore
	Energy     EnergyStore
	Characters CharacterStore
}

// NewMemoryStores returns in-process implementations of every store.
func NewMemoryStores() Stores {
	return Stores{
		Hands:      zone.NewHands(),
		Decks:      zone.NewDecks(),
		Tombs:      zone.NewTombs(),
		Units:      field.NewTable(),
		Energy:     energy.NewLedger(),
		Characters: field.NewCharacters(),
	}
}
