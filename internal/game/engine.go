package game

import (
	"context"
	"fmt"

	"github.com/duelcraft/battle-server-go/internal/card"
	"github.com/duelcraft/battle-server-go/internal/game/notify"
	"github.com/duelcraft/battle-server-go/internal/game/rules"
	"github.com/duelcraft/battle-server-go/internal/game/skill"
	"github.com/duelcraft/battle-server-go/internal/game/zone"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
)

// Options holds the rule constants of a battle.
type Options struct {
	InitialHandSize     int
	MainCharacterHealth int
	EnergyPerTurn       int
	DrawPerTurn         int
	MythicMinimumRound  int
	// Shuffler permutes decks. Defaults to a time-seeded generator.
	Shuffler zone.Shuffler
}

// DefaultOptions returns the standard rule constants.
func DefaultOptions() Options {
	return Options{
		InitialHandSize:     5,
		MainCharacterHealth: 100,
		EnergyPerTurn:       1,
		DrawPerTurn:         1,
		MythicMinimumRound:  5,
	}
}

// NewSeededShuffler returns a goroutine-safe shuffler. A zero seed is
// replaced by a random one.
func NewSeededShuffler(seed uint64) zone.Shuffler {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return zone.NewLockedShuffler(rand.New(rand.NewSource(seed)))
}

// Engine resolves battle actions. Every action authenticates the session,
// takes the battle room lock and holds it until the opponent is notified.
type Engine struct {
	logger    *zap.Logger
	sessions  SessionStore
	catalog   card.Catalog
	battles   Battles
	stores    Stores
	validator *rules.Validator
	skills    *skill.Resolver
	diffs     *notify.Builder
	notifier  notify.Notifier
	events    *rules.EventBus
	opts      Options
}

// NewEngine wires an engine over its collaborators.
func NewEngine(logger *zap.Logger, sessions SessionStore, catalog card.Catalog, battles Battles, stores Stores, notifier notify.Notifier, opts Options) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = notify.Discard{}
	}
	if opts.Shuffler == nil {
		opts.Shuffler = NewSeededShuffler(0)
	}
	return &Engine{
		logger:    logger,
		sessions:  sessions,
		catalog:   catalog,
		battles:   battles,
		stores:    stores,
		validator: rules.NewValidator(battles, stores.Energy, stores.Units, battles),
		skills:    skill.NewResolver(logger.Named("skill")),
		diffs:     notify.NewBuilder(stores.Units, stores.Characters, stores.Energy),
		notifier:  notifier,
		events:    rules.NewEventBus(),
		opts:      opts,
	}
}

// Events returns the bus battle events are published on.
func (e *Engine) Events() *rules.EventBus {
	return e.events
}

// SetNotifier replaces the notification sink. It must be called before the
// engine serves actions.
func (e *Engine) SetNotifier(n notify.Notifier) {
	if n == nil {
		n = notify.Discard{}
	}
	e.notifier = n
}

// begin authenticates the session and takes the account's room lock.
func (e *Engine) begin(ctx context.Context, sessionID string) (int, func(), error) {
	if sessionID == "" {
		return 0, nil, fmt.Errorf("%w: empty session id", ErrAuthentication)
	}
	accountID, ok, err := e.sessions.Lookup(ctx, sessionID)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: session lookup: %v", ErrAuthentication, err)
	}
	if !ok {
		return 0, nil, fmt.Errorf("%w: unknown session", ErrAuthentication)
	}
	release, err := e.battles.Lock(accountID)
	if err != nil {
		return 0, nil, classify(err)
	}
	return accountID, release, nil
}

// bury judges each listed slot and moves dead units to their owner's tomb.
func (e *Engine) bury(owner int, indices []int, change *notify.Change) {
	for _, index := range indices {
		cardID, died := e.stores.Units.JudgeDeath(owner, index)
		if !died {
			continue
		}
		e.stores.Tombs.Bury(owner, cardID)
		change.Add(notify.Touch{Owner: owner, Index: index, Died: true})
		e.events.Publish(rules.NewUnitEvent(rules.EventUnitDied, owner, cardID, index))
		e.logger.Debug("unit died",
			zap.Int("account_id", owner),
			zap.Int("card_id", cardID),
			zap.Int("index", index),
		)
	}
}

// commitSkill writes a resolved skill outcome and buries what it killed.
func (e *Engine) commitSkill(opponent int, out skill.Outcome, change *notify.Change) {
	if out.CasterChanged {
		e.stores.Units.Put(out.Caster)
	}
	indices := make([]int, 0, len(out.Opponents))
	for _, u := range out.Opponents {
		e.stores.Units.Put(u)
		change.Add(notify.Touch{Owner: opponent, Index: u.Index, StatusChanged: out.StatusChanged[u.Index]})
		indices = append(indices, u.Index)
	}
	e.bury(opponent, indices, change)
}

func (e *Engine) notify(ctx context.Context, accountID int, n notify.Notification) {
	if err := e.notifier.Notify(ctx, accountID, n); err != nil {
		e.logger.Warn("failed to notify account",
			zap.Int("account_id", accountID),
			zap.String("kind", string(n.Kind)),
			zap.Error(err),
		)
	}
}
