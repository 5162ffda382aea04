package server

import "fmt"

// Protocol is the numeric code of a client request.
type Protocol int

const (
	ProtocolDeployUnit          Protocol = 1001
	ProtocolAttackUnit          Protocol = 1002
	ProtocolAttackMainCharacter Protocol = 1003
	ProtocolEndTurn             Protocol = 1004
	ProtocolMulligan            Protocol = 1005
	ProtocolUseUnitSkill        Protocol = 1006
	ProtocolUseHandCard         Protocol = 1007
)

func (p Protocol) String() string {
	switch p {
	case ProtocolDeployUnit:
		return "deploy_unit"
	case ProtocolAttackUnit:
		return "attack_unit"
	case ProtocolAttackMainCharacter:
		return "attack_main_character"
	case ProtocolEndTurn:
		return "end_turn"
	case ProtocolMulligan:
		return "mulligan"
	case ProtocolUseUnitSkill:
		return "use_unit_skill"
	case ProtocolUseHandCard:
		return "use_hand_card"
	default:
		return fmt.Sprintf("protocol(%d)", int(p))
	}
}

// Response answers every request.
type Response struct {
	Protocol  Protocol `json:"protocol"`
	IsSuccess bool     `json:"is_success"`
	// DrawnCards carries mulligan replacements.
	DrawnCards []int `json:"drawn_cards,omitempty"`
	// FoundCards are the cards a hand card drew or searched out of the deck.
	FoundCards []int `json:"found_cards,omitempty"`
	// Lethal is set when a main character attack ended the battle.
	Lethal bool `json:"lethal,omitempty"`
}

// Push wraps a notification sent to the player who did not act.
type Push struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type envelope struct {
	Protocol  Protocol `mapstructure:"protocol"`
	SessionID string   `mapstructure:"session_id"`
}

type deployUnitRequest struct {
	CardID int `mapstructure:"card_id"`
}

type attackUnitRequest struct {
	AttackerIndex int `mapstructure:"attacker_index"`
	TargetIndex   int `mapstructure:"target_index"`
}

type attackMainCharacterRequest struct {
	AttackerIndex int `mapstructure:"attacker_index"`
}

type mulliganRequest struct {
	ReplaceCardIDs []int `mapstructure:"replace_card_ids"`
}

type useUnitSkillRequest struct {
	UnitIndex   int `mapstructure:"unit_index"`
	SkillIndex  int `mapstructure:"skill_index"`
	TargetIndex int `mapstructure:"target_index"`
}

type useHandCardRequest struct {
	CardID      int `mapstructure:"card_id"`
	TargetIndex int `mapstructure:"target_index"`
}
