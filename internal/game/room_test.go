package game

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unoroom/unoroom/engine"
	"github.com/unoroom/unoroom/internal/config"
)

// eventSink captures broadcast traffic. Callbacks run on the actor
// goroutine, so every access is locked.
type eventSink struct {
	mu        sync.Mutex
	broadcast []Event
	perPlayer map[string][]Event
}

func newEventSink() *eventSink {
	return &eventSink{perPlayer: make(map[string][]Event)}
}

func (s *eventSink) attach(r *Room) {
	r.BroadcastFn = func(ev Event) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.broadcast = append(s.broadcast, ev)
	}
	r.BroadcastToPlayerFn = func(playerID string, ev Event) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.perPlayer[playerID] = append(s.perPlayer[playerID], ev)
	}
}

func (s *eventSink) countType(t EventType) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ev := range s.broadcast {
		if ev.Type == t {
			n++
		}
	}
	return n
}

func (s *eventSink) lastOfType(t EventType) (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.broadcast) - 1; i >= 0; i-- {
		if s.broadcast[i].Type == t {
			return s.broadcast[i], true
		}
	}
	return Event{}, false
}

func testConfig() config.GameConfig {
	return config.GameConfig{
		DeckCount:    1,
		HandSize:     7,
		MinPlayers:   2,
		MaxPlayers:   8,
		TurnSeconds:  30,
		ClockTickMs:  500,
		AIDelayMinMs: 1,
		AIDelayMaxMs: 2,
	}
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestRoom(t *testing.T, cfg config.GameConfig) (*Room, *clockwork.FakeClock, *eventSink) {
	t.Helper()
	clk := clockwork.NewFakeClock()
	r := NewRoom("TEST42", cfg, clk, testLogger(), nil)
	t.Cleanup(r.Stop)
	sink := newEventSink()
	sink.attach(r)
	return r, clk, sink
}

func TestJoinAndStart(t *testing.T) {
	r, _, sink := newTestRoom(t, testConfig())

	p0, err := r.Join("alice", "")
	require.NoError(t, err)
	p1, err := r.Join("bob", "")
	require.NoError(t, err)
	assert.NotEqual(t, p0.ID, p1.ID)
	assert.NotEmpty(t, p0.Secret)
	assert.NotEqual(t, p0.Secret, p1.Secret)

	require.NoError(t, r.StartGame(p0.ID))

	view, err := r.View(p0.ID)
	require.NoError(t, err)
	assert.Equal(t, "playing", view.Phase)
	assert.Equal(t, p0.ID, view.CurrentPlayerID)
	assert.NotNil(t, view.DiscardTop)

	require.Len(t, view.Players, 2)
	assert.Len(t, view.Players[0].Hand, 7, "own hand revealed in full")
	assert.Equal(t, 7, view.Players[0].HandCount)
	assert.Nil(t, view.Players[1].Hand, "opponent hand never revealed")
	assert.Equal(t, 7, view.Players[1].HandCount)

	assert.GreaterOrEqual(t, sink.countType(EventPlayerJoined), 2)
	assert.GreaterOrEqual(t, sink.countType(EventRoomUpdated), 2)
}

func TestAnonymousViewRevealsNoHands(t *testing.T) {
	r, _, _ := newTestRoom(t, testConfig())
	p0, _ := r.Join("alice", "")
	r.Join("bob", "")
	require.NoError(t, r.StartGame(p0.ID))

	view, err := r.View("")
	require.NoError(t, err)
	for _, p := range view.Players {
		assert.Nil(t, p.Hand)
		assert.Equal(t, 7, p.HandCount)
	}
}

func TestJoinAfterStartRejected(t *testing.T) {
	r, _, _ := newTestRoom(t, testConfig())
	p0, _ := r.Join("alice", "")
	r.Join("bob", "")
	require.NoError(t, r.StartGame(p0.ID))

	_, err := r.Join("carol", "")
	assert.Equal(t, "GAME_ALREADY_STARTED", engine.ErrorCode(err))
}

func TestRoomFull(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPlayers = 2
	r, _, _ := newTestRoom(t, cfg)

	r.Join("alice", "")
	r.Join("bob", "")
	_, err := r.Join("carol", "")
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestStartNeedsTwoPlayers(t *testing.T) {
	r, _, _ := newTestRoom(t, testConfig())
	p0, _ := r.Join("alice", "")
	assert.ErrorIs(t, r.StartGame(p0.ID), engine.ErrTooFewPlayers)
}

func TestStartByStranger(t *testing.T) {
	r, _, _ := newTestRoom(t, testConfig())
	r.Join("alice", "")
	assert.ErrorIs(t, r.StartGame("nobody"), ErrNotInRoom)
}

func TestStartFillsWithAI(t *testing.T) {
	cfg := testConfig()
	cfg.FillWithAI = 4
	r, _, _ := newTestRoom(t, cfg)

	p0, _ := r.Join("alice", "")
	require.NoError(t, r.StartGame(p0.ID))

	view, err := r.View(p0.ID)
	require.NoError(t, err)
	require.Len(t, view.Players, 4)
	ai := 0
	for _, p := range view.Players {
		if p.IsAI {
			ai++
		}
	}
	assert.Equal(t, 3, ai)
}

func TestRejectedStartSeatsNoAI(t *testing.T) {
	cfg := testConfig()
	cfg.MinPlayers = 4
	cfg.FillWithAI = 3 // even filled, the table stays under the minimum
	r, _, _ := newTestRoom(t, cfg)

	p0, _ := r.Join("alice", "")
	r.Join("bob", "")
	assert.ErrorIs(t, r.StartGame(p0.ID), engine.ErrTooFewPlayers)

	view, err := r.View(p0.ID)
	require.NoError(t, err)
	assert.Equal(t, "lobby", view.Phase)
	assert.Len(t, view.Players, 2, "rejected start must not seat AI players")
}

func TestClockSyncAndTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.TurnSeconds = 1 // expires after two 500ms ticks
	r, clk, sink := newTestRoom(t, cfg)

	p0, _ := r.Join("alice", "")
	p1, _ := r.Join("bob", "")
	require.NoError(t, r.StartGame(p0.ID))

	// Wait for the tick pump's ticker to be armed before advancing.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, clk.BlockUntilContext(ctx, 1))

	clk.Advance(500 * time.Millisecond)
	require.Eventually(t, func() bool {
		return sink.countType(EventClockSync) >= 1
	}, time.Second, 5*time.Millisecond)

	ev, ok := sink.lastOfType(EventClockSync)
	require.True(t, ok)
	payload := ev.Data.(ClockSyncPayload)
	assert.Equal(t, p0.ID, payload.ActivePlayerID)
	assert.Equal(t, int64(500), payload.RemainingMs[p0.ID])
	assert.Equal(t, int64(1000), payload.RemainingMs[p1.ID])

	// Second tick drains p0's clock: one forced draw, one timeout event,
	// one turn advance.
	clk.Advance(500 * time.Millisecond)
	require.Eventually(t, func() bool {
		return sink.countType(EventTimeOut) == 1
	}, time.Second, 5*time.Millisecond)

	ev, _ = sink.lastOfType(EventTimeOut)
	timeout := ev.Data.(TimeOutPayload)
	assert.Equal(t, p0.ID, timeout.PlayerID)
	assert.Equal(t, TimeoutPolicyAutoDraw, timeout.Policy)
	assert.True(t, timeout.Drew)

	view, err := r.View(p0.ID)
	require.NoError(t, err)
	assert.Equal(t, p1.ID, view.CurrentPlayerID)
	assert.Equal(t, 8, view.Players[0].HandCount)
	assert.Equal(t, int64(1000), view.Players[1].RemainingMs, "new turn holder restored to full allotment")
}

func TestUnoErrorsAtRoomLevel(t *testing.T) {
	r, _, _ := newTestRoom(t, testConfig())
	p0, _ := r.Join("alice", "")
	p1, _ := r.Join("bob", "")
	require.NoError(t, r.StartGame(p0.ID))

	assert.ErrorIs(t, r.CallUno(p0.ID), engine.ErrNoUnoWindow)
	assert.ErrorIs(t, r.CatchUno(p0.ID, p0.ID), engine.ErrCantCatchSelf)
	assert.ErrorIs(t, r.CatchUno(p0.ID, p1.ID), engine.ErrNoUnoWindow)
}

func TestDisconnectCurrentAdvancesTurn(t *testing.T) {
	r, _, sink := newTestRoom(t, testConfig())
	p0, _ := r.Join("alice", "")
	p1, _ := r.Join("bob", "")
	p2, _ := r.Join("carol", "")
	require.NoError(t, r.StartGame(p0.ID))

	remaining := r.MarkDisconnected(p0.ID)
	assert.Equal(t, 2, remaining)

	view, err := r.View(p1.ID)
	require.NoError(t, err)
	assert.Equal(t, "playing", view.Phase)
	assert.Equal(t, p1.ID, view.CurrentPlayerID)
	assert.Equal(t, 1, sink.countType(EventPlayerLeft))
	_ = p2
}

func TestDisconnectDownToOneFinishes(t *testing.T) {
	r, _, _ := newTestRoom(t, testConfig())
	p0, _ := r.Join("alice", "")
	p1, _ := r.Join("bob", "")
	require.NoError(t, r.StartGame(p0.ID))

	remaining := r.MarkDisconnected(p0.ID)
	assert.Equal(t, 1, remaining)

	view, err := r.View(p1.ID)
	require.NoError(t, err)
	assert.Equal(t, "finished", view.Phase)
	assert.Equal(t, p1.ID, view.WinnerID)
	assert.Equal(t, engine.EndLastConnected, view.EndReason)
}

func TestReconnectRequiresExactSecret(t *testing.T) {
	r, _, _ := newTestRoom(t, testConfig())
	p0, _ := r.Join("alice", "")
	p1, _ := r.Join("bob", "")
	r.Join("carol", "")
	require.NoError(t, r.StartGame(p0.ID))

	r.MarkDisconnected(p1.ID)

	_, err := r.Reconnect(p1.ID, "wrong-secret")
	assert.ErrorIs(t, err, ErrReconnectFail)
	_, err = r.Reconnect("no-such-player", p1.Secret)
	assert.ErrorIs(t, err, ErrReconnectFail)

	got, err := r.Reconnect(p1.ID, p1.Secret)
	require.NoError(t, err)
	assert.Equal(t, p1.ID, got.ID)

	view, err := r.View(p1.ID)
	require.NoError(t, err)
	for _, p := range view.Players {
		if p.ID == p1.ID {
			assert.True(t, p.Connected)
			assert.Len(t, p.Hand, p.HandCount, "reconnect restores the same hand")
		}
	}
}

func TestChat(t *testing.T) {
	r, _, sink := newTestRoom(t, testConfig())
	p0, _ := r.Join("alice", "")

	require.NoError(t, r.SendChat(p0.ID, "  hello  "))
	ev, ok := sink.lastOfType(EventChat)
	require.True(t, ok)
	chat := ev.Data.(ChatPayload)
	assert.Equal(t, "hello", chat.Message)
	assert.Equal(t, "alice", chat.DisplayName)

	assert.ErrorIs(t, r.SendChat(p0.ID, "   "), ErrInvalidMessage)
	assert.ErrorIs(t, r.SendChat("stranger", "hi"), ErrNotInRoom)
}

func TestAITakesItsTurn(t *testing.T) {
	cfg := testConfig()
	cfg.FillWithAI = 2
	r, clk, _ := newTestRoom(t, cfg)

	p0, _ := r.Join("alice", "")
	require.NoError(t, r.StartGame(p0.ID))

	// Human passes by drawing; the AI move is scheduled synchronously as
	// part of the turn bookkeeping, so the fake timer exists by now.
	require.NoError(t, r.DrawCard(p0.ID))

	before, err := r.View(p0.ID)
	require.NoError(t, err)
	require.NotEqual(t, p0.ID, before.CurrentPlayerID)

	require.Eventually(t, func() bool {
		clk.Advance(5 * time.Millisecond)
		view, err := r.View(p0.ID)
		return err == nil && view.TurnSeq > before.TurnSeq
	}, 2*time.Second, 5*time.Millisecond, "the AI seat must act on its own")
}

func TestStopIsIdempotent(t *testing.T) {
	r, _, _ := newTestRoom(t, testConfig())
	r.Stop()
	r.Stop()

	_, err := r.Join("late", "")
	assert.ErrorIs(t, err, ErrRoomClosed)
}
