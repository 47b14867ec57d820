// Package manager keeps the registry of live rooms. It hands out room
// codes, routes reconnect attempts, and tears rooms down when the last
// connected human leaves. It is an injected dependency, never a global, so
// independent instances can coexist.
package manager

import (
	"math/rand"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/unoroom/unoroom/engine"
	"github.com/unoroom/unoroom/internal/config"
	"github.com/unoroom/unoroom/internal/game"
	"github.com/unoroom/unoroom/internal/history"
)

const (
	roomCodeLength = 6
	// Visually ambiguous characters (I, O, 0, 1) are excluded.
	roomCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// ErrRoomNotFound is returned for lookups with an unknown code.
var ErrRoomNotFound = &engine.RuleError{Code: "ROOM_NOT_FOUND", Message: "no room with that code"}

// Manager is the room registry.
type Manager struct {
	mu    sync.RWMutex
	rooms map[string]*game.Room
	rng   *rand.Rand // room codes only; seat secrets come from crypto/rand

	cfg      config.GameConfig
	clk      clockwork.Clock
	log      *logrus.Logger
	recorder history.Recorder
}

// New creates an empty registry.
func New(cfg config.GameConfig, clk clockwork.Clock, logger *logrus.Logger, rec history.Recorder) *Manager {
	return &Manager{
		rooms:    make(map[string]*game.Room),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		cfg:      cfg,
		clk:      clk,
		log:      logger,
		recorder: rec,
	}
}

// CreateRoom registers a new empty room under a fresh code. The caller
// attaches its broadcast callbacks and seats the creator via Join.
func (m *Manager) CreateRoom() *game.Room {
	m.mu.Lock()
	defer m.mu.Unlock()

	code := m.generateCode()
	room := game.NewRoom(code, m.cfg, m.clk, m.log, m.recorder)
	m.rooms[code] = room

	m.log.WithField("room", code).Info("room created")
	return room
}

// generateCode retries until it finds an unused code. Caller holds mu.
func (m *Manager) generateCode() string {
	buf := make([]byte, roomCodeLength)
	for {
		for i := range buf {
			buf[i] = roomCodeChars[m.rng.Intn(len(roomCodeChars))]
		}
		code := string(buf)
		if _, taken := m.rooms[code]; !taken {
			return code
		}
	}
}

// GetRoom looks up a room by code.
func (m *Manager) GetRoom(code string) (*game.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// Reconnect routes a seat-reclaim attempt. The secret must match exactly;
// any failure is opaque and the caller falls back to joining as a new seat.
func (m *Manager) Reconnect(code, playerID, secret string) (*game.Room, *game.Player, error) {
	room, err := m.GetRoom(code)
	if err != nil {
		return nil, nil, err
	}
	p, err := room.Reconnect(playerID, secret)
	if err != nil {
		return nil, nil, err
	}
	return room, p, nil
}

// HandleDisconnect flips the player's seat to disconnected and tears the
// room down once no humans remain connected.
func (m *Manager) HandleDisconnect(code, playerID string) {
	room, err := m.GetRoom(code)
	if err != nil {
		return
	}
	if room.MarkDisconnected(playerID) > 0 {
		return
	}
	m.removeRoom(code)
}

// removeRoom stops the room and drops it from the registry. Safe to race:
// Room.Stop is idempotent and a double delete is a no-op.
func (m *Manager) removeRoom(code string) {
	m.mu.Lock()
	room, ok := m.rooms[code]
	delete(m.rooms, code)
	m.mu.Unlock()

	if ok {
		room.Stop()
		m.log.WithField("room", code).Info("room torn down")
	}
}

// RoomCount returns the number of registered rooms.
func (m *Manager) RoomCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// Shutdown stops every room.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	rooms := make([]*game.Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.rooms = make(map[string]*game.Room)
	m.mu.Unlock()

	for _, r := range rooms {
		r.Stop()
	}
}
