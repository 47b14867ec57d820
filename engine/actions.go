package engine

// PlayResult summarizes what a successful play did, for event emission.
type PlayResult struct {
	Card        Card
	ChosenColor uint8 // ColorNone for non-wild plays
	Won         bool
	UnoOpened   bool
	Reversed    bool
	SkippedID   string // player whose turn was skipped, if any
	TargetID    string // player forced to draw by draw2/wild4
	TargetDrew  int
}

// removeFromHand removes the first card matching color+value from the hand.
func removeFromHand(hand []Card, card Card) ([]Card, bool) {
	for i, c := range hand {
		if c == card {
			return append(hand[:i], hand[i+1:]...), true
		}
	}
	return hand, false
}

// playable reports whether card may be played on the current pile state.
// Wilds are always playable; otherwise the card must match the effective
// active color or the top discard's value. A wild on top permits any play.
func (g *Game) playable(card Card) bool {
	if card.IsWild() {
		return true
	}
	top := g.TopDiscard()
	if top.IsWild() && g.ActiveColor == ColorNone {
		return true
	}
	return card.Color() == g.EffectiveColor() || card.Value() == top.Value()
}

// PlayCard validates and applies a card play by playerID. chosenColor must
// be a playable color for wilds and ColorNone otherwise. All validation
// happens before any mutation: a rejected play leaves the game untouched.
func (g *Game) PlayCard(playerID string, card Card, chosenColor uint8) (PlayResult, error) {
	var res PlayResult

	if g.Phase != PhasePlaying {
		return res, ErrGameNotPlaying
	}
	if g.CurrentPlayerID() != playerID {
		if g.Seat(playerID) == nil {
			return res, ErrUnknownPlayer
		}
		return res, ErrNotYourTurn
	}
	seat := g.Seats[g.Current]

	found := false
	for _, c := range seat.Hand {
		if c == card {
			found = true
			break
		}
	}
	if !found {
		return res, ErrCardNotInHand
	}
	if !g.playable(card) {
		return res, ErrInvalidPlay
	}
	if card.IsWild() {
		if chosenColor >= NumColors {
			return res, ErrColorRequired
		}
	} else if chosenColor != ColorNone {
		return res, ErrColorNotWild
	}

	// Accepted — mutate.
	seat.Hand, _ = removeFromHand(seat.Hand, card)
	g.Discard = append(g.Discard, card)
	if card.IsWild() {
		g.ActiveColor = chosenColor
	} else {
		g.ActiveColor = ColorNone
	}
	res.Card = card
	res.ChosenColor = chosenColor
	if !card.IsWild() {
		res.ChosenColor = ColorNone
	}

	// Win check precedes all effect resolution.
	if len(seat.Hand) == 0 {
		g.finish(playerID, EndEmptyHand)
		res.Won = true
		return res, nil
	}

	// A foreign window is implicitly closed by this completed action; a new
	// window opens if this play left the actor at exactly one card.
	if g.Uno != nil && g.Uno.PlayerID != playerID {
		g.Uno = nil
	}
	if len(seat.Hand) == 1 {
		g.Uno = &UnoWindow{PlayerID: playerID}
		res.UnoOpened = true
	}

	// Special-card effects, then the turn advance they imply.
	switch card.Value() {
	case ValueSkip:
		res.SkippedID = g.Seats[g.nextActiveIndex(1)].ID
		g.advance(2)
	case ValueReverse:
		if g.ActiveSeats() >= 3 {
			g.Direction = -g.Direction
			res.Reversed = true
			g.advance(1)
		} else {
			// Two players: reverse acts as a skip.
			res.SkippedID = g.Seats[g.nextActiveIndex(1)].ID
			g.advance(2)
		}
	case ValueDrawTwo, ValueWildFour:
		target := g.Seats[g.nextActiveIndex(1)]
		n := card.DrawCount()
		drew := 0
		for i := 0; i < n; i++ {
			c, ok := g.Deck.Draw()
			if !ok {
				break
			}
			target.Hand = append(target.Hand, c)
			drew++
		}
		res.TargetID = target.ID
		res.TargetDrew = drew
		res.SkippedID = target.ID
		g.advance(2)
	default:
		g.advance(1)
	}

	return res, nil
}

// DrawCard draws a single card for the turn holder and advances the turn.
// The strict empty-deck policy applies: an empty pile is DECK_EMPTY, the
// discard pile is never reshuffled back in.
func (g *Game) DrawCard(playerID string) (Card, error) {
	if g.Phase != PhasePlaying {
		return NoCard, ErrGameNotPlaying
	}
	if g.CurrentPlayerID() != playerID {
		if g.Seat(playerID) == nil {
			return NoCard, ErrUnknownPlayer
		}
		return NoCard, ErrNotYourTurn
	}
	if g.Deck.Len() == 0 {
		return NoCard, ErrDeckEmpty
	}

	seat := g.Seats[g.Current]
	c, _ := g.Deck.Draw()
	seat.Hand = append(seat.Hand, c)

	// Drawing is a completed action: it closes any window that no longer
	// holds — a foreign window, or the drawer's own now that their hand grew.
	g.Uno = nil
	g.advance(1)
	return c, nil
}

// CallUno marks the open window as called by its owner.
func (g *Game) CallUno(playerID string) error {
	if g.Phase != PhasePlaying {
		return ErrGameNotPlaying
	}
	if g.Uno == nil {
		return ErrNoUnoWindow
	}
	if g.Uno.PlayerID != playerID {
		return ErrNotYourWindow
	}
	if g.Uno.Called {
		return ErrAlreadyCalled
	}
	g.Uno.Called = true
	return nil
}

// UnoPenaltyCards is the draw penalty for being caught without calling uno.
const UnoPenaltyCards = 2

// CatchUno penalizes targetID for an uncalled open window. The target draws
// the penalty (deck permitting) and the window closes. Returns the number of
// cards actually drawn.
func (g *Game) CatchUno(catcherID, targetID string) (int, error) {
	if g.Phase != PhasePlaying {
		return 0, ErrGameNotPlaying
	}
	if catcherID == targetID {
		return 0, ErrCantCatchSelf
	}
	if g.Uno == nil {
		return 0, ErrNoUnoWindow
	}
	if g.Uno.PlayerID != targetID {
		return 0, ErrNotYourWindow
	}
	if g.Uno.Called {
		return 0, ErrAlreadyCalled
	}

	target := g.Seat(targetID)
	drew := 0
	for i := 0; i < UnoPenaltyCards; i++ {
		c, ok := g.Deck.Draw()
		if !ok {
			break
		}
		target.Hand = append(target.Hand, c)
		drew++
	}
	g.Uno = nil
	return drew, nil
}

// TimeoutDraw applies the autoDrawAndSkip timeout policy to the turn holder:
// draw one card if the deck permits, then advance. Unlike DrawCard it never
// rejects on an empty deck — the turn advances regardless.
func (g *Game) TimeoutDraw(playerID string) (Card, bool) {
	if g.Phase != PhasePlaying || g.CurrentPlayerID() != playerID {
		return NoCard, false
	}
	seat := g.Seats[g.Current]
	drawn := NoCard
	if c, ok := g.Deck.Draw(); ok {
		seat.Hand = append(seat.Hand, c)
		drawn = c
	}
	g.Uno = nil
	g.advance(1)
	return drawn, drawn != NoCard
}
