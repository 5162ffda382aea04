package game

import (
	"errors"
	"fmt"

	"github.com/duelcraft/battle-server-go/internal/card"
	"github.com/duelcraft/battle-server-go/internal/game/rules"
	"github.com/duelcraft/battle-server-go/internal/game/skill"
	"github.com/duelcraft/battle-server-go/internal/room"
)

// Failure categories. Every error an action returns wraps exactly one of
// them; the detail after the colon is for local logs only.
var (
	ErrAuthentication    = errors.New("authentication failure")
	ErrProtocolViolation = errors.New("protocol violation")
	ErrRuleViolation     = errors.New("rule violation")
	ErrNotFound          = errors.New("not found")
)

// classify wraps an error from a collaborator into a failure category.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrAuthentication),
		errors.Is(err, ErrProtocolViolation),
		errors.Is(err, ErrRuleViolation),
		errors.Is(err, ErrNotFound):
		return err
	case errors.Is(err, rules.ErrUnitNotFound),
		errors.Is(err, rules.ErrSkillNotFound),
		errors.Is(err, skill.ErrNoTarget),
		errors.Is(err, card.ErrUnknownCard),
		errors.Is(err, room.ErrNotSeated):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	default:
		return fmt.Errorf("%w: %v", ErrRuleViolation, err)
	}
}
