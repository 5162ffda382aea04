package rules

import (
	"testing"
)

func TestEventBusSubscribeTyped(t *testing.T) {
	bus := NewEventBus()

	deployCount := 0
	deathCount := 0

	handle1 := bus.SubscribeTyped(EventUnitDeployed, func(e Event) {
		deployCount++
	})
	handle2 := bus.SubscribeTyped(EventMainCharacterDied, func(e Event) {
		deathCount++
	})

	bus.Publish(NewUnitEvent(EventUnitDeployed, 1, 6, 0))
	if deployCount != 1 {
		t.Fatalf("expected deploy count 1, got %d", deployCount)
	}
	if deathCount != 0 {
		t.Fatalf("expected death count 0, got %d", deathCount)
	}

	bus.Publish(NewEventWithAmount(EventMainCharacterDied, 2, 0))
	if deathCount != 1 {
		t.Fatalf("expected death count 1, got %d", deathCount)
	}

	bus.Unsubscribe(handle1)
	bus.Publish(NewUnitEvent(EventUnitDeployed, 1, 7, 1))
	if deployCount != 1 {
		t.Fatalf("expected deploy count still 1 after unsubscribe, got %d", deployCount)
	}

	bus.Unsubscribe(handle2)
	bus.Publish(NewEvent(EventMainCharacterDied, 2))
	if deathCount != 1 {
		t.Fatalf("expected death count still 1 after unsubscribe, got %d", deathCount)
	}
}

func TestEventBusSubscribeAll(t *testing.T) {
	bus := NewEventBus()

	var received []EventType
	handle := bus.Subscribe(func(e Event) {
		received = append(received, e.Type)
	})

	bus.Publish(NewEvent(EventTurnEnded, 1))
	bus.Publish(NewEventWithAmount(EventRoundAdvanced, 1, 2))

	if len(received) != 2 || received[0] != EventTurnEnded || received[1] != EventRoundAdvanced {
		t.Fatalf("unexpected events %v", received)
	}

	bus.Unsubscribe(handle)
	bus.Publish(NewEvent(EventTurnEnded, 2))
	if len(received) != 2 {
		t.Fatalf("expected no delivery after unsubscribe, got %d events", len(received))
	}

	if bus.Subscribe(nil) != -1 || bus.SubscribeTyped(EventTurnEnded, nil) != -1 {
		t.Fatal("nil listeners must be rejected")
	}
}

func TestNewEventDefaults(t *testing.T) {
	evt := NewEvent(EventCardDrawn, 3)
	if evt.ID == "" {
		t.Fatal("expected event id to be set")
	}
	if evt.Index != -1 {
		t.Fatalf("expected index -1 for events without a board index, got %d", evt.Index)
	}
	if evt.Timestamp.IsZero() {
		t.Fatal("expected timestamp to be set")
	}
	other := NewEvent(EventCardDrawn, 3)
	if other.ID == evt.ID {
		t.Fatal("expected unique event ids")
	}
}
