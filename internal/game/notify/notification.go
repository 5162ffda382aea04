package notify

import "context"

// Kind names the action a notification reports.
type Kind string

const (
	KindUnitDeployed     Kind = "UNIT_DEPLOYED"
	KindUnitAttacked     Kind = "UNIT_ATTACKED"
	KindMainCharacterHit Kind = "MAIN_CHARACTER_ATTACKED"
	KindSkillUsed        Kind = "SKILL_USED"
	KindTurnStarted      Kind = "TURN_STARTED"
	KindBattleStarted    Kind = "BATTLE_STARTED"
	KindHandCardUsed     Kind = "HAND_CARD_USED"
)

// Notification is pushed to the player who did not act.
type Notification struct {
	Kind       Kind  `json:"kind"`
	CardID     int   `json:"card_id,omitempty"`
	UnitIndex  *int  `json:"unit_index,omitempty"`
	Round      int   `json:"round,omitempty"`
	Energy     int   `json:"energy,omitempty"`
	DrawnCards []int `json:"drawn_cards,omitempty"`
	// FoundCards are the cards a hand card drew or searched out of the deck.
	FoundCards []int `json:"found_cards,omitempty"`
	Diff       Diff  `json:"diff"`
}

// Notifier delivers notifications to a connected account.
type Notifier interface {
	Notify(ctx context.Context, accountID int, n Notification) error
}

// Discard drops every notification.
type Discard struct{}

// Notify implements Notifier.
func (Discard) Notify(context.Context, int, Notification) error { return nil }
