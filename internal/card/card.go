package card

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownCard is returned by catalogs for card ids they do not define.
var ErrUnknownCard = errors.New("unknown card")

// Kind classifies a card. Only unit cards can be deployed to the field;
// item and support cards are used from hand.
type Kind string

const (
	KindUnit    Kind = "UNIT"
	KindItem    Kind = "ITEM"
	KindSupport Kind = "SUPPORT"
	KindTool    Kind = "TOOL"
	KindEnergy  Kind = "ENERGY"
)

// Valid reports whether k is a known card kind.
func (k Kind) Valid() bool {
	switch k {
	case KindUnit, KindItem, KindSupport, KindTool, KindEnergy:
		return true
	}
	return false
}

// Race of a unit card.
type Race string

const (
	RaceHuman   Race = "HUMAN"
	RaceUndead  Race = "UNDEAD"
	RaceTrent   Race = "TRENT"
	RaceAngel   Race = "ANGEL"
	RaceMachine Race = "MACHINE"
	RaceChaos   Race = "CHAOS"
)

// Grade is the rarity tier of a card.
type Grade string

const (
	GradeCommon   Grade = "COMMON"
	GradeUncommon Grade = "UNCOMMON"
	GradeHero     Grade = "HERO"
	GradeLegend   Grade = "LEGEND"
	GradeMythical Grade = "MYTHICAL"
)

// PassiveStatus is a permanent trait of a unit.
type PassiveStatus string

const (
	// PhysicalImmunity blocks basic attacks against the unit and
	// suppresses the counter-attack when the unit attacks.
	PhysicalImmunity PassiveStatus = "PHYSICAL_IMMUNITY"
	// SkillImmunity blocks targeted and non-targeting skill damage.
	SkillImmunity PassiveStatus = "SKILL_IMMUNITY"
)

// StatusKind names a timed harmful status.
type StatusKind string

const (
	StatusDarkFire StatusKind = "DARK_FIRE"
	StatusPoison   StatusKind = "POISON"
	StatusFreeze   StatusKind = "FREEZE"
)

// ExtraEffect is a status a unit inflicts on whatever it hits.
type ExtraEffect struct {
	Status   StatusKind `yaml:"status" json:"status"`
	Duration int        `yaml:"duration" json:"duration"`
	Damage   int        `yaml:"damage" json:"damage"`
}

// Validate checks the effect is well formed.
func (e ExtraEffect) Validate() error {
	switch e.Status {
	case StatusDarkFire, StatusPoison, StatusFreeze:
	default:
		return fmt.Errorf("unknown status %q", e.Status)
	}
	if e.Duration <= 0 {
		return fmt.Errorf("status %s needs a positive duration", e.Status)
	}
	if e.Damage < 0 {
		return fmt.Errorf("status %s has negative damage", e.Status)
	}
	return nil
}

// UnitStats is the template a field unit is created from.
type UnitStats struct {
	Race            Race            `yaml:"race" json:"race"`
	Grade           Grade           `yaml:"grade" json:"grade"`
	AttackPoint     int             `yaml:"attack" json:"attack"`
	HealthPoint     int             `yaml:"health" json:"health"`
	RequiredEnergy  int             `yaml:"required_energy" json:"required_energy"`
	PassiveFlags    [3]bool         `yaml:"passive_flags" json:"passive_flags"`
	PassiveStatuses []PassiveStatus `yaml:"passive_statuses" json:"passive_statuses"`
	ExtraEffects    []ExtraEffect   `yaml:"extra_effects" json:"extra_effects"`
}

// Catalog resolves immutable card definitions.
type Catalog interface {
	Kind(ctx context.Context, cardID int) (Kind, error)
	UnitStats(ctx context.Context, cardID int) (UnitStats, error)
	PassiveSkills(ctx context.Context, cardID int) ([]PassiveSkill, error)
	HandUse(ctx context.Context, cardID int) (HandUse, error)
}
