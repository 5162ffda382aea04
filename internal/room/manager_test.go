package room

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestManagerCreateAndResolve(t *testing.T) {
	m := NewManager(zaptest.NewLogger(t))

	room, err := m.Create(1, 2)
	require.NoError(t, err)
	assert.NotEmpty(t, room.ID)
	assert.Equal(t, 1, m.Count())

	opponent, err := m.OpponentOf(1)
	require.NoError(t, err)
	assert.Equal(t, 2, opponent)

	opponent, err = m.OpponentOf(2)
	require.NoError(t, err)
	assert.Equal(t, 1, opponent)

	turn, err := m.TurnOf(2)
	require.NoError(t, err)
	assert.Equal(t, 1, turn.Owner())

	got, ok := m.Get(room.ID)
	require.True(t, ok)
	assert.Same(t, room, got)
}

func TestManagerRejectsInvalidPairs(t *testing.T) {
	m := NewManager(zaptest.NewLogger(t))

	_, err := m.Create(1, 1)
	assert.Error(t, err)

	_, err = m.Create(1, 2)
	require.NoError(t, err)

	_, err = m.Create(2, 3)
	assert.True(t, errors.Is(err, ErrAlreadySeated))

	_, err = m.OpponentOf(3)
	assert.True(t, errors.Is(err, ErrNotSeated))
}

func TestManagerMulliganOnce(t *testing.T) {
	m := NewManager(zaptest.NewLogger(t))
	_, err := m.Create(1, 2)
	require.NoError(t, err)

	first, err := m.MarkMulligan(1)
	require.NoError(t, err)
	assert.True(t, first)

	first, err = m.MarkMulligan(1)
	require.NoError(t, err)
	assert.False(t, first)

	first, err = m.MarkMulligan(2)
	require.NoError(t, err)
	assert.True(t, first)
}

func TestManagerCloseUnseats(t *testing.T) {
	m := NewManager(zaptest.NewLogger(t))
	room, err := m.Create(1, 2)
	require.NoError(t, err)

	require.NoError(t, m.Close(room.ID))
	assert.Error(t, m.Close(room.ID))
	assert.Equal(t, 0, m.Count())

	_, err = m.RoomOf(1)
	assert.True(t, errors.Is(err, ErrNotSeated))

	_, err = m.Create(2, 1)
	assert.NoError(t, err, "players can be paired again after teardown")
}

func TestManagerLockSerialisesRoom(t *testing.T) {
	m := NewManager(zaptest.NewLogger(t))
	_, err := m.Create(1, 2)
	require.NoError(t, err)

	unlock, err := m.Lock(1)
	require.NoError(t, err)

	acquired := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		release, err := m.Lock(2)
		if err != nil {
			return
		}
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
		t.Fatal("opponent acquired the room lock while it was held")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	wg.Wait()

	select {
	case <-acquired:
	default:
		t.Fatal("opponent never acquired the room lock")
	}

	_, err = m.Lock(9)
	assert.Error(t, err)
}

func TestManagerCreateLockedHoldsRoom(t *testing.T) {
	m := NewManager(zaptest.NewLogger(t))
	room, release, err := m.CreateLocked(1, 2)
	require.NoError(t, err)

	opponent, err := m.OpponentOf(2)
	require.NoError(t, err, "the room is seated before it is released")
	assert.Equal(t, 1, opponent)

	acquired := make(chan struct{})
	go func() {
		unlock, err := m.Lock(2)
		if err != nil {
			return
		}
		close(acquired)
		unlock()
	}()

	select {
	case <-acquired:
		t.Fatal("an action entered the room before its creator released it")
	case <-time.After(20 * time.Millisecond):
	}

	release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("room lock was not released")
	}

	_, _, err = m.CreateLocked(2, 3)
	assert.True(t, errors.Is(err, ErrAlreadySeated))
	got, ok := m.Get(room.ID)
	require.True(t, ok)
	assert.Same(t, room, got)
}
