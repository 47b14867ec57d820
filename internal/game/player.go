package game

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// Player is the identity behind a seat: who they are and the secret that
// lets them reclaim the seat after a disconnect. Hands and connection state
// live in the rules engine; this struct never reaches the wire directly.
type Player struct {
	ID          string
	Secret      string
	DisplayName string
	AvatarID    string
	IsAI        bool
}

// NewPlayer creates a human player with a fresh ID and reconnect secret.
func NewPlayer(displayName, avatarID string) *Player {
	return &Player{
		ID:          uuid.NewString(),
		Secret:      newSecret(),
		DisplayName: displayName,
		AvatarID:    avatarID,
	}
}

// NewAIPlayer creates an AI-controlled player. AI seats carry no secret;
// nothing ever reconnects to them.
func NewAIPlayer(displayName string) *Player {
	return &Player{
		ID:          uuid.NewString(),
		DisplayName: displayName,
		IsAI:        true,
	}
}

// newSecret returns a 128-bit hex token.
func newSecret() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand does not fail on supported platforms.
		panic(err)
	}
	return hex.EncodeToString(b)
}
