package game

// EventType identifies a server push sent to room participants.
type EventType string

const (
	EventRoomUpdated     EventType = "roomUpdated"     // Public: lobby/summary state changed.
	EventGameStateUpdate EventType = "gameStateUpdate" // Private: per-recipient projected game state.
	EventClockSync       EventType = "clockSync"       // Public: active player + time map snapshot.
	EventTimeOut         EventType = "timeOut"         // Public: a player's clock expired.
	EventUnoCalled       EventType = "unoCalled"       // Public: window owner declared uno.
	EventUnoCaught       EventType = "unoCaught"       // Public: window owner was caught.
	EventPlayerJoined    EventType = "playerJoined"    // Public: player joined or reconnected.
	EventPlayerLeft      EventType = "playerLeft"      // Public: player disconnected.
	EventChat            EventType = "chat"            // Public: chat message.
)

// Event is the envelope for all server pushes.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data,omitempty"`
}

// ClockSyncPayload is broadcast on every scheduler tick while playing.
type ClockSyncPayload struct {
	ActivePlayerID string           `json:"activePlayerId"`
	RemainingMs    map[string]int64 `json:"remainingMs"`
	ServerTime     int64            `json:"serverTime"` // unix millis
}

// TimeOutPayload announces a clock expiry and the policy that resolved it.
type TimeOutPayload struct {
	PlayerID string `json:"playerId"`
	Policy   string `json:"policy"`
	Drew     bool   `json:"drew"`
}

// TimeoutPolicyAutoDraw is the only timeout policy: draw one and pass.
const TimeoutPolicyAutoDraw = "autoDrawAndSkip"

// UnoCalledPayload announces a successful uno call.
type UnoCalledPayload struct {
	PlayerID string `json:"playerId"`
}

// UnoCaughtPayload announces a catch and the penalty actually applied.
type UnoCaughtPayload struct {
	CatcherID    string `json:"catcherId"`
	TargetID     string `json:"targetId"`
	PenaltyCards int    `json:"penaltyCards"`
}

// PlayerJoinedPayload announces a join or a reconnect.
type PlayerJoinedPayload struct {
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
	Reconnect   bool   `json:"reconnect"`
}

// PlayerLeftPayload announces a disconnect. The seat survives.
type PlayerLeftPayload struct {
	PlayerID string `json:"playerId"`
}

// ChatPayload carries a broadcast chat message.
type ChatPayload struct {
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
	Message     string `json:"message"`
	SentAt      int64  `json:"sentAt"` // unix millis
}
