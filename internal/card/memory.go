package card

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Definition is a complete card entry as stored in a seed file or database.
type Definition struct {
	ID     int            `yaml:"id" json:"id"`
	Name   string         `yaml:"name" json:"name"`
	Kind   Kind           `yaml:"kind" json:"kind"`
	Unit   *UnitStats     `yaml:"unit,omitempty" json:"unit,omitempty"`
	Skills []PassiveSkill `yaml:"skills,omitempty" json:"skills,omitempty"`
	Use    *HandUse       `yaml:"use,omitempty" json:"use,omitempty"`
}

// Validate checks a definition before it is registered.
func (d Definition) Validate() error {
	if d.ID <= 0 {
		return fmt.Errorf("card id must be positive, got %d", d.ID)
	}
	if !d.Kind.Valid() {
		return fmt.Errorf("card %d: unknown kind %q", d.ID, d.Kind)
	}
	if d.Kind == KindUnit {
		if d.Unit == nil {
			return fmt.Errorf("card %d: unit card without stats", d.ID)
		}
		if d.Unit.HealthPoint <= 0 {
			return fmt.Errorf("card %d: unit health must be positive", d.ID)
		}
		for _, e := range d.Unit.ExtraEffects {
			if err := e.Validate(); err != nil {
				return fmt.Errorf("card %d: %w", d.ID, err)
			}
		}
	}
	for _, s := range d.Skills {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("card %d: %w", d.ID, err)
		}
	}
	if d.Use != nil {
		if !d.Kind.Playable() {
			return fmt.Errorf("card %d: %s cards cannot be used from hand", d.ID, d.Kind)
		}
		if err := d.Use.Validate(); err != nil {
			return fmt.Errorf("card %d: %w", d.ID, err)
		}
	}
	return nil
}

// HandUse returns the hand use of the definition.
func (d Definition) HandUse() (HandUse, error) {
	if d.Use == nil {
		return HandUse{}, fmt.Errorf("%w: %d", ErrNotPlayable, d.ID)
	}
	use := *d.Use
	use.Effects = append([]Effect(nil), d.Use.Effects...)
	return use, nil
}

type seedFile struct {
	Cards []Definition `yaml:"cards"`
}

// MemoryCatalog is an in-process catalog, typically seeded from YAML.
type MemoryCatalog struct {
	mu     sync.RWMutex
	cards  map[int]Definition
	logger *zap.Logger
}

// NewMemoryCatalog creates an empty catalog.
func NewMemoryCatalog(logger *zap.Logger) *MemoryCatalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryCatalog{
		cards:  make(map[int]Definition),
		logger: logger,
	}
}

// LoadFile reads a YAML seed file into a new catalog.
func LoadFile(path string, logger *zap.Logger) (*MemoryCatalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open card seed %s: %w", path, err)
	}
	defer f.Close()

	catalog := NewMemoryCatalog(logger)
	if err := catalog.Load(f); err != nil {
		return nil, fmt.Errorf("failed to load card seed %s: %w", path, err)
	}
	return catalog, nil
}

// Load decodes YAML definitions from r and registers them.
func (c *MemoryCatalog) Load(r io.Reader) error {
	var seed seedFile
	if err := yaml.NewDecoder(r).Decode(&seed); err != nil {
		return err
	}
	for _, def := range seed.Cards {
		if err := c.Register(def); err != nil {
			return err
		}
	}
	c.logger.Info("card catalog loaded", zap.Int("cards", len(seed.Cards)))
	return nil
}

// Register adds or replaces a definition.
func (c *MemoryCatalog) Register(def Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cards[def.ID] = def
	return nil
}

// Definitions returns every registered card ordered by id.
func (c *MemoryCatalog) Definitions() []Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Definition, 0, len(c.cards))
	for _, def := range c.cards {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (c *MemoryCatalog) lookup(cardID int) (Definition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	def, ok := c.cards[cardID]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %d", ErrUnknownCard, cardID)
	}
	return def, nil
}

// Kind implements Catalog.
func (c *MemoryCatalog) Kind(_ context.Context, cardID int) (Kind, error) {
	def, err := c.lookup(cardID)
	if err != nil {
		return "", err
	}
	return def.Kind, nil
}

// UnitStats implements Catalog.
func (c *MemoryCatalog) UnitStats(_ context.Context, cardID int) (UnitStats, error) {
	def, err := c.lookup(cardID)
	if err != nil {
		return UnitStats{}, err
	}
	if def.Unit == nil {
		return UnitStats{}, fmt.Errorf("card %d is not a unit", cardID)
	}
	return *def.Unit, nil
}

// PassiveSkills implements Catalog.
func (c *MemoryCatalog) PassiveSkills(_ context.Context, cardID int) ([]PassiveSkill, error) {
	def, err := c.lookup(cardID)
	if err != nil {
		return nil, err
	}
	out := make([]PassiveSkill, len(def.Skills))
	copy(out, def.Skills)
	return out, nil
}

// HandUse implements Catalog.
func (c *MemoryCatalog) HandUse(_ context.Context, cardID int) (HandUse, error) {
	def, err := c.lookup(cardID)
	if err != nil {
		return HandUse{}, err
	}
	return def.HandUse()
}
