// Package ws is the websocket gateway: it owns the connections, feeds
// decoded client actions to the right room, and fans room events back out.
// Rooms never see a socket; the gateway is the only code that does.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/unoroom/unoroom/engine"
	"github.com/unoroom/unoroom/internal/config"
	"github.com/unoroom/unoroom/internal/game"
	"github.com/unoroom/unoroom/internal/limiter"
	"github.com/unoroom/unoroom/internal/manager"
)

// Gateway-level errors, in the same wire-code shape as the rules engine.
var (
	errBadRequest    = &engine.RuleError{Code: "BAD_REQUEST", Message: "malformed message"}
	errRateLimited   = &engine.RuleError{Code: "RATE_LIMITED", Message: "too many actions"}
	errAlreadyInRoom = &engine.RuleError{Code: "ALREADY_IN_ROOM", Message: "connection is already bound to a room"}
	errUnknownAction = &engine.RuleError{Code: "UNKNOWN_ACTION", Message: "unrecognized action type"}
)

// Server accepts websocket connections and routes their traffic.
type Server struct {
	mgr    *manager.Manager
	limits config.LimitsConfig
	log    *logrus.Logger

	mu    sync.Mutex
	conns map[string]map[string]*client // room code -> player id -> connection
}

// NewServer creates the gateway on top of the room registry.
func NewServer(mgr *manager.Manager, limits config.LimitsConfig, logger *logrus.Logger) *Server {
	if limits.ActionBurst <= 0 {
		limits.ActionBurst = 10
	}
	if limits.ChatBurst <= 0 {
		limits.ChatBurst = 3
	}
	return &Server{
		mgr:    mgr,
		limits: limits,
		log:    logger,
		conns:  make(map[string]map[string]*client),
	}
}

// Handler returns the websocket endpoint.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.handleWS)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.log.WithError(err).Warn("websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "connection torn down")

	c := &client{
		srv:     s,
		conn:    conn,
		send:    make(chan []byte, 64),
		log:     s.log.WithField("remote", r.RemoteAddr),
		actions: limiter.NewTokenBucket(s.limits.ActionBurst, s.limits.ActionsPerSecond),
		chat:    limiter.NewTokenBucket(s.limits.ChatBurst, s.limits.ChatPerSecond),
	}

	ctx := r.Context()
	go c.writeLoop(ctx)
	c.readLoop(ctx)
	c.disconnect()
	conn.Close(websocket.StatusNormalClosure, "bye")
}

// attachBroadcast wires a freshly created room's callbacks to the
// connection registry. Called exactly once per room, before any action
// reaches it; the closures look connections up dynamically.
func (s *Server) attachBroadcast(room *game.Room) {
	code := room.Code
	room.BroadcastFn = func(ev game.Event) { s.broadcast(code, ev) }
	room.BroadcastToPlayerFn = func(playerID string, ev game.Event) { s.sendTo(code, playerID, ev) }
}

func (s *Server) register(code, playerID string, c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns[code] == nil {
		s.conns[code] = make(map[string]*client)
	}
	s.conns[code][playerID] = c
}

func (s *Server) unregister(code, playerID string, c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns[code][playerID] == c {
		delete(s.conns[code], playerID)
		if len(s.conns[code]) == 0 {
			delete(s.conns, code)
		}
	}
}

// broadcast pushes an event to every connection bound to the room.
func (s *Server) broadcast(code string, ev game.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		s.log.WithError(err).Error("event marshal failed")
		return
	}
	s.mu.Lock()
	targets := make([]*client, 0, len(s.conns[code]))
	for _, c := range s.conns[code] {
		targets = append(targets, c)
	}
	s.mu.Unlock()
	for _, c := range targets {
		c.pushRaw(data)
	}
}

// sendTo pushes an event to one player's connection, if bound.
func (s *Server) sendTo(code, playerID string, ev game.Event) {
	s.mu.Lock()
	c := s.conns[code][playerID]
	s.mu.Unlock()
	if c == nil {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		s.log.WithError(err).Error("event marshal failed")
		return
	}
	c.pushRaw(data)
}

// client is one websocket connection. room/player are set by the reader
// goroutine once the connection binds to a seat.
type client struct {
	srv  *Server
	conn *websocket.Conn
	send chan []byte
	log  *logrus.Entry

	room   *game.Room
	player *game.Player

	actions *limiter.TokenBucket
	chat    *limiter.TokenBucket
}

func (c *client) writeLoop(ctx context.Context) {
	for {
		select {
		case msg := <-c.send:
			if err := c.conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *client) readLoop(ctx context.Context) {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.ackErr("", errBadRequest)
			continue
		}
		c.handle(msg)
	}
}

// pushRaw queues an already-marshaled frame. Never blocks the caller: a
// connection that cannot drain its queue loses frames, not the room.
func (c *client) pushRaw(data []byte) {
	select {
	case c.send <- data:
	default:
		c.log.Warn("send queue full, dropping frame")
	}
}

func (c *client) push(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.log.WithError(err).Error("marshal failed")
		return
	}
	c.pushRaw(data)
}

func (c *client) ackOK(actionID string, data any) {
	c.push(Ack{Type: "ack", ActionID: actionID, OK: true, Data: data})
}

func (c *client) ackErr(actionID string, err error) {
	c.push(Ack{Type: "ack", ActionID: actionID, Error: engine.ErrorCode(err)})
}

func (c *client) handle(msg ClientMessage) {
	bucket := c.actions
	if msg.Type == "sendChat" {
		bucket = c.chat
	}
	if !bucket.TryConsume() {
		c.ackErr(msg.ActionID, errRateLimited)
		return
	}

	switch msg.Type {
	case "createRoom":
		c.handleCreateRoom(msg)
	case "joinRoom":
		c.handleJoinRoom(msg)
	case "reconnect":
		c.handleReconnect(msg)
	case "startGame":
		c.roomAction(msg, func(r *game.Room, pid string) error { return r.StartGame(pid) })
	case "playCard":
		c.handlePlayCard(msg)
	case "drawCard":
		c.roomAction(msg, func(r *game.Room, pid string) error { return r.DrawCard(pid) })
	case "callUno":
		c.roomAction(msg, func(r *game.Room, pid string) error { return r.CallUno(pid) })
	case "catchUno":
		var d catchUnoData
		if err := json.Unmarshal(msg.Data, &d); err != nil {
			c.ackErr(msg.ActionID, errBadRequest)
			return
		}
		c.roomAction(msg, func(r *game.Room, pid string) error { return r.CatchUno(pid, d.TargetPlayerID) })
	case "sendChat":
		var d sendChatData
		if err := json.Unmarshal(msg.Data, &d); err != nil {
			c.ackErr(msg.ActionID, errBadRequest)
			return
		}
		c.roomAction(msg, func(r *game.Room, pid string) error { return r.SendChat(pid, d.Message) })
	default:
		c.ackErr(msg.ActionID, errUnknownAction)
	}
}

func (c *client) handleCreateRoom(msg ClientMessage) {
	if c.room != nil {
		c.ackErr(msg.ActionID, errAlreadyInRoom)
		return
	}
	var d createRoomData
	if len(msg.Data) > 0 && json.Unmarshal(msg.Data, &d) != nil {
		c.ackErr(msg.ActionID, errBadRequest)
		return
	}

	room := c.srv.mgr.CreateRoom()
	c.srv.attachBroadcast(room)
	p, err := room.Join(d.DisplayName, d.AvatarID)
	if err != nil {
		c.ackErr(msg.ActionID, err)
		return
	}
	c.bind(room, p)
	c.ackOK(msg.ActionID, sessionData{RoomCode: room.Code, PlayerID: p.ID, PlayerSecret: p.Secret})
	c.pushView()
}

func (c *client) handleJoinRoom(msg ClientMessage) {
	if c.room != nil {
		c.ackErr(msg.ActionID, errAlreadyInRoom)
		return
	}
	var d joinRoomData
	if err := json.Unmarshal(msg.Data, &d); err != nil {
		c.ackErr(msg.ActionID, errBadRequest)
		return
	}

	room, err := c.srv.mgr.GetRoom(d.RoomCode)
	if err != nil {
		c.ackErr(msg.ActionID, err)
		return
	}
	p, err := room.Join(d.DisplayName, d.AvatarID)
	if err != nil {
		c.ackErr(msg.ActionID, err)
		return
	}
	c.bind(room, p)
	c.ackOK(msg.ActionID, sessionData{RoomCode: room.Code, PlayerID: p.ID, PlayerSecret: p.Secret})
	c.pushView()
}

func (c *client) handleReconnect(msg ClientMessage) {
	if c.room != nil {
		c.ackErr(msg.ActionID, errAlreadyInRoom)
		return
	}
	var d reconnectData
	if err := json.Unmarshal(msg.Data, &d); err != nil {
		c.ackErr(msg.ActionID, errBadRequest)
		return
	}

	room, p, err := c.srv.mgr.Reconnect(d.RoomCode, d.PlayerID, d.PlayerSecret)
	if err != nil {
		c.ackErr(msg.ActionID, err)
		return
	}
	c.bind(room, p)
	c.ackOK(msg.ActionID, sessionData{RoomCode: room.Code, PlayerID: p.ID, PlayerSecret: p.Secret})
	c.pushView()
}

func (c *client) handlePlayCard(msg ClientMessage) {
	var d playCardData
	if err := json.Unmarshal(msg.Data, &d); err != nil {
		c.ackErr(msg.ActionID, errBadRequest)
		return
	}
	card, chosen, err := parseCardPlay(d)
	if err != nil {
		c.ackErr(msg.ActionID, err)
		return
	}
	c.roomAction(msg, func(r *game.Room, pid string) error { return r.PlayCard(pid, card, chosen) })
}

// roomAction runs an action against the bound room and acks the outcome.
func (c *client) roomAction(msg ClientMessage, fn func(r *game.Room, playerID string) error) {
	if c.room == nil || c.player == nil {
		c.ackErr(msg.ActionID, game.ErrNotInRoom)
		return
	}
	if err := fn(c.room, c.player.ID); err != nil {
		c.ackErr(msg.ActionID, err)
		return
	}
	c.ackOK(msg.ActionID, nil)
}

func (c *client) bind(room *game.Room, p *game.Player) {
	c.room = room
	c.player = p
	c.log = c.log.WithFields(logrus.Fields{"room": room.Code, "player": p.ID})
	c.srv.register(room.Code, p.ID, c)
}

// pushView sends the freshly bound player their current projection.
func (c *client) pushView() {
	view, err := c.room.View(c.player.ID)
	if err != nil {
		return
	}
	c.push(game.Event{Type: game.EventGameStateUpdate, Data: view})
}

func (c *client) disconnect() {
	if c.room == nil || c.player == nil {
		return
	}
	c.srv.unregister(c.room.Code, c.player.ID, c)
	c.srv.mgr.HandleDisconnect(c.room.Code, c.player.ID)
}

// parseCardPlay maps the wire card description onto an engine card. Wilds
// are stored colorless in hands; the chosen color rides separately.
func parseCardPlay(d playCardData) (engine.Card, uint8, error) {
	value, ok := engine.ParseValue(d.Value)
	if !ok {
		return engine.NoCard, engine.ColorNone, errBadRequest
	}

	chosen := engine.ColorNone
	if d.ChosenColor != "" {
		col, ok := engine.ParseColor(d.ChosenColor)
		if !ok {
			return engine.NoCard, engine.ColorNone, errBadRequest
		}
		chosen = col
	}

	if value == engine.ValueWild || value == engine.ValueWildFour {
		return engine.NewCard(engine.ColorNone, value), chosen, nil
	}

	color, ok := engine.ParseColor(d.Color)
	if !ok {
		return engine.NoCard, engine.ColorNone, errBadRequest
	}
	return engine.NewCard(color, value), chosen, nil
}
