// Package game hosts the per-room actor that serializes all mutation of a
// single room: client actions, clock ticks, and AI moves are posted to one
// inbox and processed in arrival order by one goroutine. Rooms are fully
// independent of each other.
package game

import (
	"context"
	"crypto/subtle"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/unoroom/unoroom/engine"
	"github.com/unoroom/unoroom/internal/config"
	"github.com/unoroom/unoroom/internal/history"
)

// Room-level errors, sharing the engine's wire-code shape.
var (
	ErrRoomClosed     = &engine.RuleError{Code: "ROOM_CLOSED", Message: "the room has been torn down"}
	ErrRoomFull       = &engine.RuleError{Code: "ROOM_FULL", Message: "the room is full"}
	ErrNotInRoom      = &engine.RuleError{Code: "NOT_IN_ROOM", Message: "you are not seated in this room"}
	ErrInvalidMessage = &engine.RuleError{Code: "INVALID_MESSAGE", Message: "empty or oversized chat message"}
	ErrReconnectFail  = &engine.RuleError{Code: "RECONNECT_FAILED", Message: "unknown player or wrong secret"}
)

const maxChatLen = 500

// Room owns one game table. All exported methods are safe for concurrent
// use: they post a closure to the actor inbox and wait for the result.
type Room struct {
	Code string

	game    *engine.Game
	players map[string]*Player

	cfg      config.GameConfig
	clock    *ClockScheduler
	clk      clockwork.Clock
	log      *logrus.Entry
	recorder history.Recorder

	inbox    chan func()
	done     chan struct{}
	stopOnce sync.Once

	clockStop     chan struct{}
	clockStopOnce sync.Once
	clockStarted  bool

	turnSeq     int // bumps on every turn change; stale AI callbacks check it
	actionIndex int
	jitter      *rand.Rand

	// Communication callbacks. Set these before the first action reaches the
	// room; they are invoked on the actor goroutine and must not block.
	BroadcastFn         func(ev Event)
	BroadcastToPlayerFn func(playerID string, ev Event)
}

// NewRoom creates a room and starts its actor goroutine.
func NewRoom(code string, cfg config.GameConfig, clk clockwork.Clock, logger *logrus.Logger, rec history.Recorder) *Room {
	rules := engine.DefaultRules()
	if cfg.DeckCount > 0 {
		rules.DeckCount = cfg.DeckCount
	}
	if cfg.HandSize > 0 {
		rules.HandSize = cfg.HandSize
	}
	if rec == nil {
		rec = history.NopRecorder{}
	}

	r := &Room{
		Code:      code,
		game:      engine.NewGame(rules),
		players:   make(map[string]*Player),
		cfg:       cfg,
		clock:     NewClockScheduler(cfg.TurnAllotment()),
		clk:       clk,
		log:       logger.WithField("room", code),
		recorder:  rec,
		inbox:     make(chan func(), 64),
		done:      make(chan struct{}),
		clockStop: make(chan struct{}),
		jitter:    rand.New(rand.NewSource(clk.Now().UnixNano())),
	}
	go r.run()
	return r
}

// run is the actor loop. Nothing else touches room state.
func (r *Room) run() {
	for {
		select {
		case fn := <-r.inbox:
			fn()
		case <-r.done:
			return
		}
	}
}

// post queues fn for the actor. Returns false if the room is closed.
func (r *Room) post(fn func()) bool {
	select {
	case r.inbox <- fn:
		return true
	case <-r.done:
		return false
	}
}

// do runs fn on the actor and waits for it to complete.
func (r *Room) do(fn func()) bool {
	ran := make(chan struct{})
	if !r.post(func() {
		fn()
		close(ran)
	}) {
		return false
	}
	select {
	case <-ran:
		return true
	case <-r.done:
		return false
	}
}

// Stop tears the room down. Idempotent; pending inbox work is dropped.
func (r *Room) Stop() {
	r.stopOnce.Do(func() {
		r.stopClockPump()
		close(r.done)
	})
}

// Join seats a new human player. Lobby phase only.
func (r *Room) Join(displayName, avatarID string) (*Player, error) {
	var (
		p   *Player
		err error
	)
	if !r.do(func() { p, err = r.join(displayName, avatarID) }) {
		return nil, ErrRoomClosed
	}
	return p, err
}

// StartGame begins play. Any seated player may start.
func (r *Room) StartGame(playerID string) error {
	var err error
	if !r.do(func() { err = r.startGame(playerID) }) {
		return ErrRoomClosed
	}
	return err
}

// PlayCard plays a card for playerID. chosenColor applies to wilds only;
// pass engine.ColorNone otherwise.
func (r *Room) PlayCard(playerID string, card engine.Card, chosenColor uint8) error {
	var err error
	if !r.do(func() { err = r.playCard(playerID, card, chosenColor) }) {
		return ErrRoomClosed
	}
	return err
}

// DrawCard draws one card for playerID and passes the turn.
func (r *Room) DrawCard(playerID string) error {
	var err error
	if !r.do(func() { err = r.drawCard(playerID) }) {
		return ErrRoomClosed
	}
	return err
}

// CallUno declares uno for playerID's open window.
func (r *Room) CallUno(playerID string) error {
	var err error
	if !r.do(func() { err = r.callUno(playerID) }) {
		return ErrRoomClosed
	}
	return err
}

// CatchUno catches targetID's uncalled window on behalf of catcherID.
func (r *Room) CatchUno(catcherID, targetID string) error {
	var err error
	if !r.do(func() { err = r.catchUno(catcherID, targetID) }) {
		return ErrRoomClosed
	}
	return err
}

// SendChat broadcasts a chat message from a seated player.
func (r *Room) SendChat(playerID, message string) error {
	var err error
	if !r.do(func() { err = r.sendChat(playerID, message) }) {
		return ErrRoomClosed
	}
	return err
}

// MarkDisconnected flips a player's seat to disconnected and returns the
// count of connected humans left, which the registry uses for teardown.
func (r *Room) MarkDisconnected(playerID string) int {
	remaining := 0
	if !r.do(func() {
		r.markDisconnected(playerID)
		remaining = r.game.ConnectedHumans()
	}) {
		return 0
	}
	return remaining
}

// Reconnect reclaims a seat. The supplied secret must match the seat's
// stored secret exactly; on any mismatch the caller gets the same opaque
// failure, never the seat.
func (r *Room) Reconnect(playerID, secret string) (*Player, error) {
	var (
		p   *Player
		err error
	)
	if !r.do(func() { p, err = r.reconnect(playerID, secret) }) {
		return nil, ErrRoomClosed
	}
	return p, err
}

// View returns the room state projected for viewerID.
func (r *Room) View(viewerID string) (RoomView, error) {
	var view RoomView
	if !r.do(func() { view = project(r, viewerID) }) {
		return RoomView{}, ErrRoomClosed
	}
	return view, nil
}

// --- actor-side handlers; everything below runs on the actor goroutine ---

func (r *Room) join(displayName, avatarID string) (*Player, error) {
	if r.game.Phase != engine.PhaseLobby {
		return nil, engine.ErrGameNotLobby
	}
	if r.cfg.MaxPlayers > 0 && len(r.players) >= r.cfg.MaxPlayers {
		return nil, ErrRoomFull
	}

	name := strings.TrimSpace(displayName)
	if name == "" {
		name = "Player " + strconv.Itoa(len(r.players)+1)
	}
	p := NewPlayer(name, avatarID)
	if err := r.game.AddSeat(p.ID, false); err != nil {
		return nil, err
	}
	r.players[p.ID] = p

	r.log.WithField("player", p.ID).Info("player joined")
	r.record(p.ID, "playerJoined", map[string]any{"displayName": name})
	r.fireEvent(Event{Type: EventPlayerJoined, Data: PlayerJoinedPayload{
		PlayerID:    p.ID,
		DisplayName: name,
	}})
	r.broadcastRoomUpdated()
	return p, nil
}

func (r *Room) startGame(playerID string) error {
	if r.players[playerID] == nil {
		return ErrNotInRoom
	}
	if r.game.Phase != engine.PhaseLobby {
		return engine.ErrGameNotLobby
	}

	// Validate the table the start would produce before seating anyone: a
	// rejected start must leave the lobby exactly as it was.
	projected := len(r.game.Seats)
	if r.cfg.FillWithAI > projected {
		projected = r.cfg.FillWithAI
	}
	if projected < 2 || projected < r.cfg.MinPlayers {
		return engine.ErrTooFewPlayers
	}
	if projected*r.game.Rules.HandSize+1 > r.game.Rules.DeckCount*engine.CardsPerDeck {
		return engine.ErrDeckEmpty
	}

	// Fill empty seats with AI up to the configured table size.
	for i := 1; r.cfg.FillWithAI > 0 && len(r.game.Seats) < r.cfg.FillWithAI; i++ {
		ai := NewAIPlayer("CPU " + strconv.Itoa(i))
		if err := r.game.AddSeat(ai.ID, true); err != nil {
			return err
		}
		r.players[ai.ID] = ai
	}

	seed := uint64(r.clk.Now().UnixNano())
	if err := r.game.Start(seed); err != nil {
		return err
	}
	for _, s := range r.game.Seats {
		r.clock.Register(s.ID)
	}

	r.log.WithField("players", len(r.game.Seats)).Info("game started")
	r.record(playerID, "gameStarted", map[string]any{"players": len(r.game.Seats)})
	r.broadcastRoomUpdated()
	r.startClockPump()
	r.beginTurn()
	return nil
}

func (r *Room) playCard(playerID string, card engine.Card, chosenColor uint8) error {
	res, err := r.game.PlayCard(playerID, card, chosenColor)
	if err != nil {
		return err
	}

	payload := map[string]any{"card": card.String()}
	if res.ChosenColor != engine.ColorNone {
		payload["chosenColor"] = engine.ColorName(res.ChosenColor)
	}
	r.record(playerID, "playCard", payload)

	if res.Won {
		r.finishGame()
		return nil
	}
	r.beginTurn()
	return nil
}

func (r *Room) drawCard(playerID string) error {
	if _, err := r.game.DrawCard(playerID); err != nil {
		return err
	}
	r.record(playerID, "drawCard", nil)
	r.beginTurn()
	return nil
}

func (r *Room) callUno(playerID string) error {
	if err := r.game.CallUno(playerID); err != nil {
		return err
	}
	r.record(playerID, "callUno", nil)
	r.fireEvent(Event{Type: EventUnoCalled, Data: UnoCalledPayload{PlayerID: playerID}})
	r.broadcastGameState()
	return nil
}

func (r *Room) catchUno(catcherID, targetID string) error {
	drew, err := r.game.CatchUno(catcherID, targetID)
	if err != nil {
		return err
	}
	r.record(catcherID, "catchUno", map[string]any{"target": targetID, "penalty": drew})
	r.fireEvent(Event{Type: EventUnoCaught, Data: UnoCaughtPayload{
		CatcherID:    catcherID,
		TargetID:     targetID,
		PenaltyCards: drew,
	}})
	r.broadcastGameState()
	return nil
}

func (r *Room) sendChat(playerID, message string) error {
	p := r.players[playerID]
	if p == nil {
		return ErrNotInRoom
	}
	msg := strings.TrimSpace(message)
	if msg == "" || len(msg) > maxChatLen {
		return ErrInvalidMessage
	}
	r.fireEvent(Event{Type: EventChat, Data: ChatPayload{
		PlayerID:    playerID,
		DisplayName: p.DisplayName,
		Message:     msg,
		SentAt:      r.clk.Now().UnixMilli(),
	}})
	return nil
}

func (r *Room) markDisconnected(playerID string) {
	seat := r.game.Seat(playerID)
	if seat == nil || !seat.Connected {
		return
	}
	wasCurrent := r.game.CurrentPlayerID() == playerID
	finished := r.game.MarkDisconnected(playerID)

	r.log.WithField("player", playerID).Info("player disconnected")
	r.record(playerID, "playerLeft", nil)
	r.fireEvent(Event{Type: EventPlayerLeft, Data: PlayerLeftPayload{PlayerID: playerID}})

	if finished {
		r.finishGame()
		return
	}
	r.broadcastRoomUpdated()
	if r.game.Phase == engine.PhasePlaying {
		if wasCurrent {
			r.beginTurn()
		} else {
			r.broadcastGameState()
		}
	}
}

func (r *Room) reconnect(playerID, secret string) (*Player, error) {
	p := r.players[playerID]
	if p == nil || p.IsAI ||
		subtle.ConstantTimeCompare([]byte(p.Secret), []byte(secret)) != 1 {
		return nil, ErrReconnectFail
	}

	r.game.MarkReconnected(playerID)
	r.log.WithField("player", playerID).Info("player reconnected")
	r.record(playerID, "playerReconnected", nil)
	r.fireEvent(Event{Type: EventPlayerJoined, Data: PlayerJoinedPayload{
		PlayerID:    playerID,
		DisplayName: p.DisplayName,
		Reconnect:   true,
	}})
	r.broadcastRoomUpdated()
	if r.game.Phase == engine.PhasePlaying {
		r.fireEventToPlayer(playerID, Event{Type: EventGameStateUpdate, Data: project(r, playerID)})
	}
	return p, nil
}

// beginTurn runs the bookkeeping for a fresh turn: bump the sequence, hand
// the clock to the new turn holder, sync all viewers, and poke the AI if it
// now holds the turn.
func (r *Room) beginTurn() {
	if r.game.Phase != engine.PhasePlaying {
		return
	}
	r.turnSeq++
	r.clock.StartTurn(r.game.CurrentPlayerID())
	r.broadcastGameState()
	r.maybeScheduleAI()
}

// finishGame stops the clock and pushes the terminal state to everyone.
func (r *Room) finishGame() {
	r.stopClockPump()
	r.clock.Pause()
	r.log.WithFields(logrus.Fields{
		"winner": r.game.WinnerID,
		"reason": r.game.EndReason,
	}).Info("game finished")
	r.record("", "gameFinished", map[string]any{
		"winner": r.game.WinnerID,
		"reason": r.game.EndReason,
	})
	r.broadcastGameState()
	r.broadcastRoomUpdated()
}

// startClockPump launches the goroutine that turns ticker fires into inbox
// messages. Clock state itself is only ever mutated on the actor.
func (r *Room) startClockPump() {
	if r.clockStarted {
		return
	}
	r.clockStarted = true
	go func() {
		ticker := r.clk.NewTicker(r.cfg.ClockTick())
		defer ticker.Stop()
		for {
			select {
			case <-ticker.Chan():
				if !r.post(r.handleClockTick) {
					return
				}
			case <-r.clockStop:
				return
			case <-r.done:
				return
			}
		}
	}()
}

// stopClockPump is safe to call multiple times, including from both the
// "game finished" and "room torn down" paths.
func (r *Room) stopClockPump() {
	r.clockStopOnce.Do(func() { close(r.clockStop) })
}

func (r *Room) handleClockTick() {
	if r.game.Phase != engine.PhasePlaying {
		return
	}
	expired := r.clock.Tick(r.cfg.ClockTick())
	r.fireEvent(Event{Type: EventClockSync, Data: ClockSyncPayload{
		ActivePlayerID: r.clock.Active(),
		RemainingMs:    r.clock.RemainingMs(),
		ServerTime:     r.clk.Now().UnixMilli(),
	}})
	if !expired {
		return
	}

	playerID := r.clock.Active()
	if r.game.CurrentPlayerID() != playerID {
		return
	}
	_, drew := r.game.TimeoutDraw(playerID)
	r.log.WithField("player", playerID).Info("turn timed out")
	r.record(playerID, "timeOut", map[string]any{"policy": TimeoutPolicyAutoDraw, "drew": drew})
	r.fireEvent(Event{Type: EventTimeOut, Data: TimeOutPayload{
		PlayerID: playerID,
		Policy:   TimeoutPolicyAutoDraw,
		Drew:     drew,
	}})
	r.beginTurn()
}

// broadcastGameState sends each connected human their own projection.
func (r *Room) broadcastGameState() {
	if r.BroadcastToPlayerFn == nil {
		return
	}
	for _, s := range r.game.Seats {
		if s.IsAI || !s.Connected {
			continue
		}
		r.BroadcastToPlayerFn(s.ID, Event{Type: EventGameStateUpdate, Data: project(r, s.ID)})
	}
}

// broadcastRoomUpdated pushes the public summary: the anonymous projection,
// which reveals no hand.
func (r *Room) broadcastRoomUpdated() {
	r.fireEvent(Event{Type: EventRoomUpdated, Data: project(r, "")})
}

func (r *Room) fireEvent(ev Event) {
	if r.BroadcastFn != nil {
		r.BroadcastFn(ev)
	}
}

func (r *Room) fireEventToPlayer(playerID string, ev Event) {
	if r.BroadcastToPlayerFn != nil {
		r.BroadcastToPlayerFn(playerID, ev)
	}
}

// record appends to the room's action history, fire-and-forget.
func (r *Room) record(actorID, actionType string, payload map[string]any) {
	r.actionIndex++
	rec := history.ActionRecord{
		RoomCode:  r.Code,
		Index:     r.actionIndex,
		PlayerID:  actorID,
		Type:      actionType,
		Payload:   payload,
		Timestamp: r.clk.Now().UnixMilli(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := r.recorder.Record(ctx, rec); err != nil {
			r.log.WithError(err).Warn("failed to record action")
		}
	}()
}
