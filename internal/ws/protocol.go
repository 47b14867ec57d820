package ws

import "encoding/json"

// ClientMessage is the inbound envelope. Every state-mutating action
// carries an actionId that is echoed back in the ack.
type ClientMessage struct {
	Type     string          `json:"type"`
	ActionID string          `json:"actionId,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// Ack acknowledges one client action. It reports acceptance or the wire
// error code, decoupled from the business events the action triggers.
type Ack struct {
	Type     string `json:"type"` // always "ack"
	ActionID string `json:"actionId,omitempty"`
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
	Data     any    `json:"data,omitempty"`
}

// Inbound action payloads.

type createRoomData struct {
	DisplayName string `json:"displayName"`
	AvatarID    string `json:"avatarId,omitempty"`
}

type joinRoomData struct {
	RoomCode    string `json:"roomCode"`
	DisplayName string `json:"displayName"`
	AvatarID    string `json:"avatarId,omitempty"`
}

type reconnectData struct {
	RoomCode     string `json:"roomCode"`
	PlayerID     string `json:"playerId"`
	PlayerSecret string `json:"playerSecret"`
}

type playCardData struct {
	Color       string `json:"color,omitempty"`
	Value       string `json:"value"`
	ChosenColor string `json:"chosenColor,omitempty"`
}

type catchUnoData struct {
	TargetPlayerID string `json:"targetPlayerId"`
}

type sendChatData struct {
	Message string `json:"message"`
}

// sessionData is returned in the ack for createRoom/joinRoom/reconnect.
// The secret goes only to its owner, over this connection.
type sessionData struct {
	RoomCode     string `json:"roomCode"`
	PlayerID     string `json:"playerId"`
	PlayerSecret string `json:"playerSecret"`
}
