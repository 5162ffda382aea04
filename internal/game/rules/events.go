package rules

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType indicates the category of a battle event.
type EventType string

const (
	// Battle/turn events
	EventBattleStarted EventType = "BATTLE_STARTED"
	EventTurnEnded     EventType = "TURN_ENDED"
	EventRoundAdvanced EventType = "ROUND_ADVANCED"
	EventEnergyGranted EventType = "ENERGY_GRANTED"
	EventCardDrawn     EventType = "CARD_DRAWN"
	EventMulliganTaken EventType = "MULLIGAN_TAKEN"
	EventStatusTicked  EventType = "STATUS_TICKED"

	// Unit events
	EventUnitDeployed    EventType = "UNIT_DEPLOYED"
	EventUnitAttacked    EventType = "UNIT_ATTACKED"
	EventCounterAttacked EventType = "COUNTER_ATTACKED"
	EventUnitDied        EventType = "UNIT_DIED"
	EventSkillUsed       EventType = "SKILL_USED"
	EventHandCardUsed    EventType = "HAND_CARD_USED"

	// Main character events
	EventMainCharacterDamaged EventType = "MAIN_CHARACTER_DAMAGED"
	EventMainCharacterDied    EventType = "MAIN_CHARACTER_DIED"
)

// Event represents a state change that other subsystems may react to.
type Event struct {
	Type      EventType
	ID        string    // Unique event ID
	AccountID int       // Account the event concerns
	CardID    int       // Card involved, 0 when none
	Index     int       // Board index involved, -1 when none
	Amount    int       // Numeric value (damage, energy, round, ...)
	Timestamp time.Time // When the event occurred
}

// Listener defines a callback that reacts to incoming events.
type Listener func(Event)

// TypedListener defines a callback that reacts to a specific event type.
type TypedListener struct {
	Handle    int
	EventType EventType
	Callback  func(Event)
}

// EventBus provides a synchronous publish/subscribe implementation with type filtering.
type EventBus struct {
	mu             sync.RWMutex
	listeners      map[int]Listener              // All listeners
	typedListeners map[EventType][]TypedListener // Listeners filtered by event type
	nextHandle     int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{
		listeners:      make(map[int]Listener),
		typedListeners: make(map[EventType][]TypedListener),
	}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	return handle
}

// SubscribeTyped registers a listener for a specific event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, callback func(Event)) int {
	if callback == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.typedListeners[eventType] = append(bus.typedListeners[eventType], TypedListener{
		Handle:    handle,
		EventType: eventType,
		Callback:  callback,
	})
	return handle
}

// Unsubscribe removes the listener identified by the provided handle,
// whether it was registered with Subscribe or SubscribeTyped.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.listeners, handle)
	for eventType, listeners := range bus.typedListeners {
		for i := len(listeners) - 1; i >= 0; i-- {
			if listeners[i].Handle == handle {
				bus.typedListeners[eventType] = append(listeners[:i], listeners[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers the event to all registered listeners synchronously.
// Listeners must not publish on the same bus.
func (bus *EventBus) Publish(event Event) {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	for _, listener := range bus.listeners {
		listener(event)
	}
	for _, listener := range bus.typedListeners[event.Type] {
		listener.Callback(event)
	}
}

// NewEvent creates a new event with common fields populated.
func NewEvent(eventType EventType, accountID int) Event {
	return Event{
		Type:      eventType,
		ID:        uuid.NewString(),
		AccountID: accountID,
		Index:     -1,
		Timestamp: time.Now(),
	}
}

// NewUnitEvent creates an event about a card at a board index.
func NewUnitEvent(eventType EventType, accountID, cardID, index int) Event {
	evt := NewEvent(eventType, accountID)
	evt.CardID = cardID
	evt.Index = index
	return evt
}

// NewEventWithAmount creates a new event with an amount value.
func NewEventWithAmount(eventType EventType, accountID, amount int) Event {
	evt := NewEvent(eventType, accountID)
	evt.Amount = amount
	return evt
}
