package engine

// Phase is the room lifecycle state.
type Phase uint8

const (
	PhaseLobby Phase = iota
	PhasePlaying
	PhaseFinished
)

// String returns the wire name of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhasePlaying:
		return "playing"
	case PhaseFinished:
		return "finished"
	}
	return "?"
}

// End reasons recorded when a game reaches PhaseFinished.
const (
	EndEmptyHand       = "empty-hand"
	EndLastConnected   = "last-player-connected"
	EndAllDisconnected = "all-humans-disconnected"
)

// Seat is one player's persistent slot. Seats survive disconnects; they are
// destroyed only with the Game itself.
type Seat struct {
	ID        string
	Hand      []Card
	Connected bool
	IsAI      bool
}

// active reports whether the seat participates in turn order right now.
func (s *Seat) active() bool { return s.Connected || s.IsAI }

// UnoWindow exists while one player holds exactly one card and no other
// player has completed an action since.
type UnoWindow struct {
	PlayerID string
	Called   bool
}

// Rules holds the per-game knobs fixed at start.
type Rules struct {
	DeckCount int // number of 108-card decks shuffled together
	HandSize  int // cards dealt to each player
}

// DefaultRules returns the standard single-deck, seven-card configuration.
func DefaultRules() Rules {
	return Rules{DeckCount: 1, HandSize: 7}
}

// Game is the authoritative rules state for one room. It is not safe for
// concurrent use; the owning room actor serializes all access.
type Game struct {
	Phase       Phase
	Seats       []*Seat
	Current     int   // index into Seats of the turn holder
	Direction   int   // +1 or -1
	ActiveColor uint8 // ColorNone unless overridden by a played wild
	Deck        *Deck
	Discard     []Card // last element is the top, active comparison card
	Uno         *UnoWindow
	WinnerID    string
	EndReason   string
	Rules       Rules
}

// NewGame creates an empty lobby-phase game.
func NewGame(rules Rules) *Game {
	return &Game{
		Phase:       PhaseLobby,
		Direction:   1,
		ActiveColor: ColorNone,
		Rules:       rules,
	}
}

// AddSeat seats a player in the lobby. Order of addition fixes turn order.
func (g *Game) AddSeat(playerID string, isAI bool) error {
	if g.Phase != PhaseLobby {
		return ErrGameNotLobby
	}
	g.Seats = append(g.Seats, &Seat{ID: playerID, Connected: !isAI, IsAI: isAI})
	return nil
}

// Seat returns the seat for playerID, or nil.
func (g *Game) Seat(playerID string) *Seat {
	for _, s := range g.Seats {
		if s.ID == playerID {
			return s
		}
	}
	return nil
}

// seatIndex returns the index of playerID, or -1.
func (g *Game) seatIndex(playerID string) int {
	for i, s := range g.Seats {
		if s.ID == playerID {
			return i
		}
	}
	return -1
}

// ActiveSeats counts seats that are connected or AI-controlled.
func (g *Game) ActiveSeats() int {
	n := 0
	for _, s := range g.Seats {
		if s.active() {
			n++
		}
	}
	return n
}

// ConnectedHumans counts connected non-AI seats.
func (g *Game) ConnectedHumans() int {
	n := 0
	for _, s := range g.Seats {
		if s.Connected && !s.IsAI {
			n++
		}
	}
	return n
}

// Start deals the game: build and shuffle the deck, deal HandSize cards to
// each seat in turn order, seed the discard pile with a non-wild card
// (drawn wilds go back into the deck, which is reshuffled), and hand the
// turn to seat 0 with direction +1.
func (g *Game) Start(seed uint64) error {
	if g.Phase != PhaseLobby {
		return ErrGameNotLobby
	}
	if g.ActiveSeats() < 2 {
		return ErrTooFewPlayers
	}

	deck := NewDeck(g.Rules.DeckCount, seed)
	deck.Shuffle()

	// The whole deal is validated up front: the pile must cover every hand
	// plus the discard seed, or the game stays in the lobby untouched.
	if deck.Len() < len(g.Seats)*g.Rules.HandSize+1 {
		return ErrDeckEmpty
	}
	hands := make([][]Card, len(g.Seats))
	for i := 0; i < g.Rules.HandSize; i++ {
		for j := range g.Seats {
			c, _ := deck.Draw()
			hands[j] = append(hands[j], c)
		}
	}

	// Seed the discard pile. A wild seed would leave no color to match, so
	// wilds are returned and the deck reshuffled until a colored card comes
	// up — which requires the remaining pile to hold one at all.
	colored := false
	for _, c := range deck.Cards() {
		if !c.IsWild() {
			colored = true
			break
		}
	}
	if !colored {
		return ErrDeckEmpty
	}
	var top Card
	for {
		c, _ := deck.Draw()
		if c.IsWild() {
			deck.Return(c)
			deck.Shuffle()
			continue
		}
		top = c
		break
	}

	for j, s := range g.Seats {
		s.Hand = hands[j]
	}
	g.Deck = deck
	g.Discard = append(g.Discard, top)
	g.ActiveColor = ColorNone // matches fall through to the top card's color
	g.Current = 0
	g.Direction = 1
	g.Phase = PhasePlaying
	return nil
}

// TopDiscard returns the active comparison card.
func (g *Game) TopDiscard() Card {
	if len(g.Discard) == 0 {
		return NoCard
	}
	return g.Discard[len(g.Discard)-1]
}

// EffectiveColor is the color new plays must match: the ActiveColor override
// when a wild set one, otherwise the top discard's color.
func (g *Game) EffectiveColor() uint8 {
	if g.ActiveColor != ColorNone {
		return g.ActiveColor
	}
	return g.TopDiscard().Color()
}

// CurrentPlayerID returns the ID of the turn holder, or "" when not playing.
func (g *Game) CurrentPlayerID() string {
	if g.Phase != PhasePlaying || g.Current < 0 || g.Current >= len(g.Seats) {
		return ""
	}
	return g.Seats[g.Current].ID
}

// CardCount returns deck + discard + all hands, for conservation checks.
func (g *Game) CardCount() int {
	n := g.Deck.Len() + len(g.Discard)
	for _, s := range g.Seats {
		n += len(s.Hand)
	}
	return n
}

// advance moves the turn pointer `steps` active seats along the current
// direction, skipping disconnected human seats. The scan is bounded by the
// seat count per step so a fully-disconnected table cannot loop forever.
func (g *Game) advance(steps int) {
	for step := 0; step < steps; step++ {
		for tries := 0; tries < len(g.Seats); tries++ {
			g.Current = (g.Current + g.Direction + len(g.Seats)) % len(g.Seats)
			if g.Seats[g.Current].active() {
				break
			}
		}
	}
}

// nextActiveIndex returns the seat index `steps` active seats away from
// Current along the direction, without moving the turn pointer.
func (g *Game) nextActiveIndex(steps int) int {
	idx := g.Current
	for step := 0; step < steps; step++ {
		for tries := 0; tries < len(g.Seats); tries++ {
			idx = (idx + g.Direction + len(g.Seats)) % len(g.Seats)
			if g.Seats[idx].active() {
				break
			}
		}
	}
	return idx
}

// finish moves the game to its terminal phase.
func (g *Game) finish(winnerID, reason string) {
	g.Phase = PhaseFinished
	g.WinnerID = winnerID
	g.EndReason = reason
	g.Uno = nil
}

// MarkDisconnected flips a seat to disconnected. While playing, the game may
// force-finish: with exactly one active seat left the survivor wins by
// last-player-standing; with no connected humans at all the game is
// abandoned. If the disconnecting player held the turn, the turn advances
// past them. Returns true when the game finished as a result.
func (g *Game) MarkDisconnected(playerID string) bool {
	seat := g.Seat(playerID)
	if seat == nil || !seat.Connected {
		return false
	}
	seat.Connected = false

	if g.Phase != PhasePlaying {
		return false
	}

	if g.ConnectedHumans() == 0 {
		g.finish("", EndAllDisconnected)
		return true
	}
	if g.ActiveSeats() == 1 {
		winner := ""
		for _, s := range g.Seats {
			if s.active() {
				winner = s.ID
				break
			}
		}
		g.finish(winner, EndLastConnected)
		return true
	}

	if g.CurrentPlayerID() == playerID {
		g.advance(1)
	}
	return false
}

// MarkReconnected flips a seat back to connected.
func (g *Game) MarkReconnected(playerID string) {
	if seat := g.Seat(playerID); seat != nil {
		seat.Connected = true
	}
}
