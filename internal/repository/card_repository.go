package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/duelcraft/battle-server-go/internal/card"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// Schema creates the card table. Unit stats, skills and hand use are stored
// as jsonb in the same shape as the YAML seed.
const Schema = `
CREATE TABLE IF NOT EXISTS battle_cards (
	id       INTEGER PRIMARY KEY,
	name     TEXT NOT NULL DEFAULT '',
	kind     TEXT NOT NULL,
	unit     JSONB,
	skills   JSONB NOT NULL DEFAULT '[]'::jsonb,
	hand_use JSONB
)`

// addHandUseColumn upgrades tables created before hand cards were stored.
const addHandUseColumn = `ALTER TABLE battle_cards ADD COLUMN IF NOT EXISTS hand_use JSONB`

const (
	selectCardSQL = `SELECT id, name, kind, unit, skills, hand_use FROM battle_cards WHERE id = $1`
	upsertCardSQL = `
INSERT INTO battle_cards (id, name, kind, unit, skills, hand_use)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name, kind = EXCLUDED.kind, unit = EXCLUDED.unit,
    skills = EXCLUDED.skills, hand_use = EXCLUDED.hand_use`
)

// Querier is the subset of the pool the repository uses.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// CardRepository implements card.Catalog over PostgreSQL. Card definitions
// never change during a process lifetime, so rows are cached once read.
type CardRepository struct {
	db     Querier
	logger *zap.Logger

	mu    sync.RWMutex
	cache map[int]card.Definition
}

// NewCardRepository creates a card repository.
func NewCardRepository(db Querier, logger *zap.Logger) *CardRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CardRepository{
		db:     db,
		logger: logger,
		cache:  make(map[int]card.Definition),
	}
}

// EnsureSchema creates the card table when it is missing.
func (r *CardRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create card table: %w", err)
	}
	if _, err := r.db.Exec(ctx, addHandUseColumn); err != nil {
		return fmt.Errorf("failed to migrate card table: %w", err)
	}
	return nil
}

// Get loads one card definition.
func (r *CardRepository) Get(ctx context.Context, cardID int) (card.Definition, error) {
	r.mu.RLock()
	def, ok := r.cache[cardID]
	r.mu.RUnlock()
	if ok {
		return def, nil
	}

	def, err := scanDefinition(r.db.QueryRow(ctx, selectCardSQL, cardID))
	if errors.Is(err, pgx.ErrNoRows) {
		return card.Definition{}, fmt.Errorf("%w: %d", card.ErrUnknownCard, cardID)
	}
	if err != nil {
		r.logger.Error("failed to load card",
			zap.Int("card_id", cardID),
			zap.Error(err),
		)
		return card.Definition{}, fmt.Errorf("failed to load card %d: %w", cardID, err)
	}

	r.mu.Lock()
	r.cache[cardID] = def
	r.mu.Unlock()
	return def, nil
}

// Upsert validates and stores a definition, replacing any existing row.
func (r *CardRepository) Upsert(ctx context.Context, def card.Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	unit, skills, use, err := encodeDefinition(def)
	if err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, upsertCardSQL, def.ID, def.Name, string(def.Kind), unit, skills, use); err != nil {
		return fmt.Errorf("failed to upsert card %d: %w", def.ID, err)
	}

	r.mu.Lock()
	delete(r.cache, def.ID)
	r.mu.Unlock()
	return nil
}

// Kind implements card.Catalog.
func (r *CardRepository) Kind(ctx context.Context, cardID int) (card.Kind, error) {
	def, err := r.Get(ctx, cardID)
	if err != nil {
		return "", err
	}
	return def.Kind, nil
}

// UnitStats implements card.Catalog.
func (r *CardRepository) UnitStats(ctx context.Context, cardID int) (card.UnitStats, error) {
	def, err := r.Get(ctx, cardID)
	if err != nil {
		return card.UnitStats{}, err
	}
	if def.Unit == nil {
		return card.UnitStats{}, fmt.Errorf("card %d is not a unit", cardID)
	}
	return *def.Unit, nil
}

// PassiveSkills implements card.Catalog.
func (r *CardRepository) PassiveSkills(ctx context.Context, cardID int) ([]card.PassiveSkill, error) {
	def, err := r.Get(ctx, cardID)
	if err != nil {
		return nil, err
	}
	return append([]card.PassiveSkill(nil), def.Skills...), nil
}

// HandUse implements card.Catalog.
func (r *CardRepository) HandUse(ctx context.Context, cardID int) (card.HandUse, error) {
	def, err := r.Get(ctx, cardID)
	if err != nil {
		return card.HandUse{}, err
	}
	return def.HandUse()
}

func scanDefinition(row pgx.Row) (card.Definition, error) {
	var (
		def    card.Definition
		kind   string
		unit   []byte
		skills []byte
		use    []byte
	)
	if err := row.Scan(&def.ID, &def.Name, &kind, &unit, &skills, &use); err != nil {
		return card.Definition{}, err
	}
	def.Kind = card.Kind(kind)
	if present(unit) {
		var stats card.UnitStats
		if err := json.Unmarshal(unit, &stats); err != nil {
			return card.Definition{}, fmt.Errorf("decode unit column: %w", err)
		}
		def.Unit = &stats
	}
	if len(skills) > 0 {
		if err := json.Unmarshal(skills, &def.Skills); err != nil {
			return card.Definition{}, fmt.Errorf("decode skills column: %w", err)
		}
	}
	if present(use) {
		var hand card.HandUse
		if err := json.Unmarshal(use, &hand); err != nil {
			return card.Definition{}, fmt.Errorf("decode hand_use column: %w", err)
		}
		def.Use = &hand
	}
	return def, nil
}

func present(column []byte) bool {
	return len(column) > 0 && string(column) != "null"
}

func encodeDefinition(def card.Definition) (unit, skills, use []byte, err error) {
	if def.Unit != nil {
		if unit, err = json.Marshal(def.Unit); err != nil {
			return nil, nil, nil, fmt.Errorf("encode unit of card %d: %w", def.ID, err)
		}
	}
	list := def.Skills
	if list == nil {
		list = []card.PassiveSkill{}
	}
	if skills, err = json.Marshal(list); err != nil {
		return nil, nil, nil, fmt.Errorf("encode skills of card %d: %w", def.ID, err)
	}
	if def.Use != nil {
		if use, err = json.Marshal(def.Use); err != nil {
			return nil, nil, nil, fmt.Errorf("encode hand use of card %d: %w", def.ID, err)
		}
	}
	return unit, skills, use, nil
}
