package rules

import (
	"fmt"
)

// TurnManager tracks turn ownership and round progression between the two
// accounts of a battle. It is not safe for concurrent use; callers hold the
// battle room lock.
type TurnManager struct {
	players      [2]int
	ownerIndex   int
	round        int
	endTurnCount int
}

// NewTurnManager creates a turn manager at round 1 with first holding the
// turn.
func NewTurnManager(first, second int) *TurnManager {
	return &TurnManager{
		players: [2]int{first, second},
		round:   1,
	}
}

// Owner returns the account that currently holds the turn.
func (tm *TurnManager) Owner() int {
	return tm.players[tm.ownerIndex]
}

// IsTurnOf reports whether accountID holds the turn.
func (tm *TurnManager) IsTurnOf(accountID int) bool {
	return tm.Owner() == accountID
}

// Round returns the current round number (1-based).
func (tm *TurnManager) Round() int {
	return tm.round
}

// EndTurnCount returns how many turns have ended so far.
func (tm *TurnManager) EndTurnCount() int {
	return tm.endTurnCount
}

// Players returns both accounts in seating order.
func (tm *TurnManager) Players() [2]int {
	return tm.players
}

// Contains reports whether accountID is seated in this battle.
func (tm *TurnManager) Contains(accountID int) bool {
	return tm.players[0] == accountID || tm.players[1] == accountID
}

// EndTurn passes the turn to the other account. The round advances once
// both accounts have ended a turn. It returns the new owner and whether the
// round advanced.
func (tm *TurnManager) EndTurn(accountID int) (next int, roundAdvanced bool, err error) {
	if !tm.IsTurnOf(accountID) {
		return 0, false, fmt.Errorf("account %d does not hold the turn", accountID)
	}
	tm.ownerIndex = 1 - tm.ownerIndex
	tm.endTurnCount++
	if tm.endTurnCount%2 == 0 {
		tm.round++
		roundAdvanced = true
	}
	return tm.Owner(), roundAdvanced, nil
}
