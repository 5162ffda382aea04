package room

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/duelcraft/battle-server-go/internal/game/rules"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrNotSeated is returned for accounts that are not in any battle.
	ErrNotSeated = errors.New("account is not seated in a battle")
	// ErrAlreadySeated is returned when pairing an account that is already playing.
	ErrAlreadySeated = errors.New("account is already seated in a battle")
)

// Room is one battle between two paired accounts. Its lock makes the whole
// battle a single exclusively-owned aggregate: an action holds it from
// validation to notification.
type Room struct {
	ID        string
	Players   [2]int
	CreatedAt time.Time

	mu         sync.Mutex
	turn       *rules.TurnManager
	mulliganed map[int]bool
}

// Opponent returns the other seat of the room.
func (r *Room) Opponent(accountID int) (int, bool) {
	switch accountID {
	case r.Players[0]:
		return r.Players[1], true
	case r.Players[1]:
		return r.Players[0], true
	}
	return 0, false
}

// Manager owns every live battle room.
type Manager struct {
	mu        sync.RWMutex
	rooms     map[string]*Room
	byAccount map[int]string
	logger    *zap.Logger
}

// NewManager creates an empty room manager.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		rooms:     make(map[string]*Room),
		byAccount: make(map[int]string),
		logger:    logger,
	}
}

// Create seats two paired accounts in a new room. first takes the first turn.
func (m *Manager) Create(first, second int) (*Room, error) {
	room, release, err := m.CreateLocked(first, second)
	if err != nil {
		return nil, err
	}
	release()
	return room, nil
}

// CreateLocked is Create with the new room's lock already held, so no
// action can reach the room before the caller has set it up. The caller
// must call the returned release.
func (m *Manager) CreateLocked(first, second int) (*Room, func(), error) {
	if first == second {
		return nil, nil, fmt.Errorf("cannot pair account %d with itself", first)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, account := range []int{first, second} {
		if id, ok := m.byAccount[account]; ok {
			return nil, nil, fmt.Errorf("%w: account %d in room %s", ErrAlreadySeated, account, id)
		}
	}

	room := &Room{
		ID:         uuid.NewString(),
		Players:    [2]int{first, second},
		CreatedAt:  time.Now(),
		turn:       rules.NewTurnManager(first, second),
		mulliganed: make(map[int]bool),
	}
	room.mu.Lock()
	m.rooms[room.ID] = room
	m.byAccount[first] = room.ID
	m.byAccount[second] = room.ID

	m.logger.Info("battle room created",
		zap.String("room_id", room.ID),
		zap.Int("first", first),
		zap.Int("second", second),
	)
	return room, room.mu.Unlock, nil
}

// Get returns the room with the given id.
func (m *Manager) Get(id string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[id]
	return room, ok
}

// RoomOf returns the room an account is seated in.
func (m *Manager) RoomOf(accountID int) (*Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byAccount[accountID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotSeated, accountID)
	}
	return m.rooms[id], nil
}

// OpponentOf returns the account paired with accountID.
func (m *Manager) OpponentOf(accountID int) (int, error) {
	room, err := m.RoomOf(accountID)
	if err != nil {
		return 0, err
	}
	opponent, _ := room.Opponent(accountID)
	return opponent, nil
}

// TurnOf returns the turn state of the account's battle. Callers must hold
// the room lock while using it.
func (m *Manager) TurnOf(accountID int) (*rules.TurnManager, error) {
	room, err := m.RoomOf(accountID)
	if err != nil {
		return nil, err
	}
	return room.turn, nil
}

// Lock takes the lock of the account's room and returns its release.
func (m *Manager) Lock(accountID int) (func(), error) {
	room, err := m.RoomOf(accountID)
	if err != nil {
		return nil, err
	}
	room.mu.Lock()
	return room.mu.Unlock, nil
}

// MarkMulligan records that the account used its mulligan. It reports false
// when the mulligan was already taken. Callers must hold the room lock.
func (m *Manager) MarkMulligan(accountID int) (bool, error) {
	room, err := m.RoomOf(accountID)
	if err != nil {
		return false, err
	}
	if room.mulliganed[accountID] {
		return false, nil
	}
	room.mulliganed[accountID] = true
	return true, nil
}

// Close tears down a room and unseats its players.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[id]
	if !ok {
		return fmt.Errorf("room %s not found", id)
	}
	delete(m.rooms, id)
	for _, account := range room.Players {
		delete(m.byAccount, account)
	}
	m.logger.Info("battle room closed", zap.String("room_id", id))
	return nil
}

// Count returns the number of live rooms.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}
