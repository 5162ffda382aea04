package game

import (
	"context"
	"sync"
	"testing"

	"github.com/duelcraft/battle-server-go/internal/card"
	"github.com/duelcraft/battle-server-go/internal/game/field"
	"github.com/duelcraft/battle-server-go/internal/game/notify"
	"github.com/duelcraft/battle-server-go/internal/room"
	"go.uber.org/zap/zaptest"
)

const (
	alice = 1
	bob   = 2

	aliceSession = "alice-session"
	bobSession   = "bob-session"
)

// Card ids registered by the harness.
const (
	cardSoldier    = 1  // 10 attack, 20 health
	cardTank       = 2  // 5 attack, 50 health
	cardGhost      = 3  // PhysicalImmunity, 10 attack, 20 health
	cardDragon     = 4  // mythical
	cardPotion     = 5  // item
	cardSniper     = 6  // deploy: 10 targeted damage when the opponent has units
	cardSorcerer   = 7  // manual skill 1: 15 damage to every opponent unit, costs 2
	cardWarlock    = 8  // inflicts dark fire on hit
	cardPeasant    = 9  // 3 attack, 5 health
	cardShielded   = 10 // SkillImmunity
	cardExpensive  = 11 // basic attack needs 3 energy
	cardDoomScroll = 12 // support: instant death to one unit, costs 1
	cardScoutMap   = 13 // support: search 1 unit from the deck
	cardTome       = 14 // item: draw 2
	cardSiphon     = 15 // support: opponent loses 2 field energy
	cardFireBomb   = 16 // item: 4 damage to every opponent unit, then draw 1
)

type staticSessions map[string]int

func (s staticSessions) Lookup(_ context.Context, sessionID string) (int, bool, error) {
	id, ok := s[sessionID]
	return id, ok, nil
}

type noShuffle struct{}

func (noShuffle) Shuffle(int, func(i, j int)) {}

type recordingNotifier struct {
	mu    sync.Mutex
	notes map[int][]notify.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, accountID int, n notify.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.notes == nil {
		r.notes = make(map[int][]notify.Notification)
	}
	r.notes[accountID] = append(r.notes[accountID], n)
	return nil
}

func (r *recordingNotifier) last(accountID int) (notify.Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	notes := r.notes[accountID]
	if len(notes) == 0 {
		return notify.Notification{}, false
	}
	return notes[len(notes)-1], true
}

func (r *recordingNotifier) count(accountID int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notes[accountID])
}

// battleHarness provides a started battle between alice and bob.
type battleHarness struct {
	t       *testing.T
	engine  *Engine
	stores  Stores
	rooms   *room.Manager
	catalog *card.MemoryCatalog
	notes   *recordingNotifier
	roomID  string
}

func testCatalog(t *testing.T) *card.MemoryCatalog {
	t.Helper()
	catalog := card.NewMemoryCatalog(zaptest.NewLogger(t))
	unit := func(id int, stats card.UnitStats, skills ...card.PassiveSkill) card.Definition {
		return card.Definition{ID: id, Kind: card.KindUnit, Unit: &stats, Skills: skills}
	}
	defs := []card.Definition{
		unit(cardSoldier, card.UnitStats{Grade: card.GradeCommon, AttackPoint: 10, HealthPoint: 20}),
		unit(cardTank, card.UnitStats{Grade: card.GradeCommon, AttackPoint: 5, HealthPoint: 50}),
		unit(cardGhost, card.UnitStats{
			Grade: card.GradeHero, AttackPoint: 10, HealthPoint: 20,
			PassiveStatuses: []card.PassiveStatus{card.PhysicalImmunity},
		}),
		unit(cardDragon, card.UnitStats{Grade: card.GradeMythical, AttackPoint: 40, HealthPoint: 60}),
		{ID: cardPotion, Kind: card.KindItem},
		unit(cardSniper, card.UnitStats{Grade: card.GradeUncommon, AttackPoint: 5, HealthPoint: 15, PassiveFlags: [3]bool{true}},
			card.PassiveSkill{
				Index:      1,
				Trigger:    card.TriggerDeploy,
				Conditions: []card.Condition{{Kind: card.ConditionOpponentHasUnits}},
				Effects:    []card.Effect{{Kind: card.EffectTargetedDamage, Amount: 10}},
			}),
		unit(cardSorcerer, card.UnitStats{Grade: card.GradeLegend, AttackPoint: 5, HealthPoint: 25, PassiveFlags: [3]bool{true}},
			card.PassiveSkill{
				Index:      1,
				Trigger:    card.TriggerManual,
				EnergyCost: 2,
				Effects:    []card.Effect{{Kind: card.EffectNonTargetingDamage, Amount: 15}},
			}),
		unit(cardWarlock, card.UnitStats{
			Grade: card.GradeUncommon, AttackPoint: 1, HealthPoint: 30,
			ExtraEffects: []card.ExtraEffect{{Status: card.StatusDarkFire, Duration: 2, Damage: 5}},
		}),
		unit(cardPeasant, card.UnitStats{Grade: card.GradeCommon, AttackPoint: 3, HealthPoint: 5}),
		unit(cardShielded, card.UnitStats{
			Grade: card.GradeHero, AttackPoint: 2, HealthPoint: 20,
			PassiveStatuses: []card.PassiveStatus{card.SkillImmunity},
		}),
		unit(cardExpensive, card.UnitStats{Grade: card.GradeHero, AttackPoint: 30, HealthPoint: 30, RequiredEnergy: 3}),
		{ID: cardDoomScroll, Kind: card.KindSupport, Use: &card.HandUse{
			EnergyCost: 1,
			Effects:    []card.Effect{{Kind: card.EffectInstantDeath}},
		}},
		{ID: cardScoutMap, Kind: card.KindSupport, Use: &card.HandUse{
			Effects: []card.Effect{{Kind: card.EffectSearchUnits, Amount: 1}},
		}},
		{ID: cardTome, Kind: card.KindItem, Use: &card.HandUse{
			Effects: []card.Effect{{Kind: card.EffectDrawCards, Amount: 2}},
		}},
		{ID: cardSiphon, Kind: card.KindSupport, Use: &card.HandUse{
			Effects: []card.Effect{{Kind: card.EffectRemoveFieldEnergy, Amount: 2}},
		}},
		{ID: cardFireBomb, Kind: card.KindItem, Use: &card.HandUse{
			Effects: []card.Effect{
				{Kind: card.EffectNonTargetingDamage, Amount: 4},
				{Kind: card.EffectDrawCards, Amount: 1},
			},
		}},
	}
	for _, def := range defs {
		if err := catalog.Register(def); err != nil {
			t.Fatalf("failed to register card %d: %v", def.ID, err)
		}
	}
	return catalog
}

func newBattleHarness(t *testing.T) *battleHarness {
	t.Helper()
	logger := zaptest.NewLogger(t)
	catalog := testCatalog(t)
	rooms := room.NewManager(logger)
	stores := NewMemoryStores()
	notes := &recordingNotifier{}

	opts := DefaultOptions()
	opts.Shuffler = noShuffle{}
	sessions := staticSessions{aliceSession: alice, bobSession: bob}
	engine := NewEngine(logger, sessions, catalog, rooms, stores, notes, opts)

	deck := make([]int, 0, 30)
	for i := 0; i < 30; i++ {
		deck = append(deck, cardPeasant)
	}
	roomID, err := engine.StartBattle(context.Background(), alice, bob, map[int][]int{alice: deck, bob: deck})
	if err != nil {
		t.Fatalf("failed to start battle: %v", err)
	}

	return &battleHarness{
		t:       t,
		engine:  engine,
		stores:  stores,
		rooms:   rooms,
		catalog: catalog,
		notes:   notes,
		roomID:  roomID,
	}
}

// give puts cards straight into a hand.
func (h *battleHarness) give(accountID int, cardIDs ...int) {
	h.stores.Hands.Add(accountID, cardIDs...)
}

// place puts a unit straight onto the field, bypassing deploy rules.
func (h *battleHarness) place(accountID, cardID int) int {
	h.t.Helper()
	stats, err := h.catalog.UnitStats(context.Background(), cardID)
	if err != nil {
		h.t.Fatalf("unknown unit %d: %v", cardID, err)
	}
	return h.stores.Units.Place(accountID, field.NewUnit(cardID, accountID, stats))
}

func (h *battleHarness) unit(accountID, index int) (field.Unit, bool) {
	return h.stores.Units.Get(accountID, index)
}

func (h *battleHarness) session(accountID int) string {
	if accountID == alice {
		return aliceSession
	}
	return bobSession
}

// advanceToRound ends turns alternately until the battle reaches round.
func (h *battleHarness) advanceToRound(round int) {
	h.t.Helper()
	for {
		turn, err := h.rooms.TurnOf(alice)
		if err != nil {
			h.t.Fatalf("turn lookup failed: %v", err)
		}
		if turn.Round() >= round {
			return
		}
		if err := h.engine.EndTurn(context.Background(), h.session(turn.Owner())); err != nil {
			h.t.Fatalf("end turn failed: %v", err)
		}
	}
}

// assertAliveInvariant checks alive == (health > 0) for every unit on the field.
func (h *battleHarness) assertAliveInvariant() {
	h.t.Helper()
	for _, account := range []int{alice, bob} {
		for _, u := range h.stores.Units.Units(account) {
			if u.Alive != (u.HealthPoint > 0) {
				h.t.Fatalf("unit %d of account %d: alive=%v with health %d", u.Index, account, u.Alive, u.HealthPoint)
			}
		}
	}
}
