package manager

import (
	"io"
	"strings"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unoroom/unoroom/internal/config"
	"github.com/unoroom/unoroom/internal/game"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	m := New(config.Default().Game, clockwork.NewRealClock(), logger, nil)
	t.Cleanup(m.Shutdown)
	return m
}

func TestCreateRoomCodes(t *testing.T) {
	m := newTestManager(t)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		room := m.CreateRoom()
		require.Len(t, room.Code, 6)
		for _, c := range room.Code {
			assert.True(t, strings.ContainsRune(roomCodeChars, c),
				"code %q contains %q outside the alphabet", room.Code, c)
		}
		assert.False(t, seen[room.Code], "duplicate code %q", room.Code)
		seen[room.Code] = true
	}
	assert.Equal(t, 50, m.RoomCount())
}

func TestCodeAlphabetExcludesAmbiguous(t *testing.T) {
	for _, c := range "IO01" {
		assert.False(t, strings.ContainsRune(roomCodeChars, c))
	}
}

func TestGetRoom(t *testing.T) {
	m := newTestManager(t)
	room := m.CreateRoom()

	got, err := m.GetRoom(room.Code)
	require.NoError(t, err)
	assert.Same(t, room, got)

	_, err = m.GetRoom("ZZZZZZ")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestReconnect(t *testing.T) {
	m := newTestManager(t)
	room := m.CreateRoom()
	p0, err := room.Join("alice", "")
	require.NoError(t, err)
	_, err = room.Join("bob", "")
	require.NoError(t, err)

	room.MarkDisconnected(p0.ID)

	// Correct triple restores the same seat.
	gotRoom, gotPlayer, err := m.Reconnect(room.Code, p0.ID, p0.Secret)
	require.NoError(t, err)
	assert.Same(t, room, gotRoom)
	assert.Equal(t, p0.ID, gotPlayer.ID)

	// A wrong secret never reuses the seat.
	_, _, err = m.Reconnect(room.Code, p0.ID, "guessed")
	assert.ErrorIs(t, err, game.ErrReconnectFail)

	_, _, err = m.Reconnect("ZZZZZZ", p0.ID, p0.Secret)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestTeardownAtZeroConnected(t *testing.T) {
	m := newTestManager(t)
	room := m.CreateRoom()
	p0, _ := room.Join("alice", "")
	p1, _ := room.Join("bob", "")

	m.HandleDisconnect(room.Code, p0.ID)
	assert.Equal(t, 1, m.RoomCount(), "room survives while a player remains")

	m.HandleDisconnect(room.Code, p1.ID)
	assert.Equal(t, 0, m.RoomCount())

	_, err := room.Join("late", "")
	assert.ErrorIs(t, err, game.ErrRoomClosed)
}

func TestDisconnectUnknownRoom(t *testing.T) {
	m := newTestManager(t)
	m.HandleDisconnect("ZZZZZZ", "p") // must not panic
}

func TestShutdownStopsRooms(t *testing.T) {
	m := newTestManager(t)
	room := m.CreateRoom()
	m.Shutdown()

	assert.Equal(t, 0, m.RoomCount())
	_, err := room.Join("late", "")
	assert.ErrorIs(t, err, game.ErrRoomClosed)
}
