package game

import (
	"github.com/unoroom/unoroom/engine"
)

// CardView is a card as clients see it. Wild cards carry no color until a
// play resolves one.
type CardView struct {
	Color string `json:"color,omitempty"`
	Value string `json:"value"`
}

func newCardView(c engine.Card) CardView {
	v := CardView{Value: engine.ValueName(c.Value())}
	if !c.IsWild() {
		v.Color = engine.ColorName(c.Color())
	}
	return v
}

// PlayerView is one seat as seen by a specific viewer. Hand is populated
// only when the seat belongs to the viewer; everyone else gets HandCount.
type PlayerView struct {
	ID            string     `json:"id"`
	DisplayName   string     `json:"displayName"`
	AvatarID      string     `json:"avatarId,omitempty"`
	IsAI          bool       `json:"isAi"`
	Connected     bool       `json:"connected"`
	HandCount     int        `json:"handCount"`
	Hand          []CardView `json:"hand,omitempty"`
	IsCurrentTurn bool       `json:"isCurrentTurn"`
	CalledUno     bool       `json:"calledUno"`
	RemainingMs   int64      `json:"remainingMs"`
}

// UnoWindowView mirrors the open uno window, when one exists.
type UnoWindowView struct {
	PlayerID string `json:"playerId"`
	Called   bool   `json:"called"`
}

// RoomView is the full per-viewer room state. It is the only shape in which
// room state crosses a transport boundary.
type RoomView struct {
	RoomCode        string         `json:"roomCode"`
	Phase           string         `json:"phase"`
	Players         []PlayerView   `json:"players"`
	CurrentPlayerID string         `json:"currentPlayerId,omitempty"`
	Direction       int            `json:"direction"`
	ActiveColor     string         `json:"activeColor,omitempty"`
	DiscardTop      *CardView      `json:"discardTop,omitempty"`
	DeckSize        int            `json:"deckSize"`
	DiscardSize     int            `json:"discardSize"`
	UnoWindow       *UnoWindowView `json:"unoWindow,omitempty"`
	WinnerID        string         `json:"winnerId,omitempty"`
	EndReason       string         `json:"endReason,omitempty"`
	TurnSeq         int            `json:"turnSeq"`
}

// project builds the room state tailored to viewerID. It is a pure read:
// only the viewer's own hand is revealed, opponents are reduced to counts,
// and player secrets never appear in the output. Pass an empty viewerID for
// the public summary. Must run on the room's actor goroutine.
func project(r *Room, viewerID string) RoomView {
	g := r.game
	view := RoomView{
		RoomCode:        r.Code,
		Phase:           g.Phase.String(),
		CurrentPlayerID: g.CurrentPlayerID(),
		Direction:       g.Direction,
		WinnerID:        g.WinnerID,
		EndReason:       g.EndReason,
		TurnSeq:         r.turnSeq,
	}

	if g.Phase != engine.PhaseLobby {
		view.DeckSize = g.Deck.Len()
		view.DiscardSize = len(g.Discard)
		if top := g.TopDiscard(); top != engine.NoCard {
			tv := newCardView(top)
			view.DiscardTop = &tv
		}
		if g.ActiveColor != engine.ColorNone {
			view.ActiveColor = engine.ColorName(g.ActiveColor)
		} else if top := g.TopDiscard(); top != engine.NoCard && !top.IsWild() {
			view.ActiveColor = engine.ColorName(top.Color())
		}
	}

	if g.Uno != nil {
		view.UnoWindow = &UnoWindowView{PlayerID: g.Uno.PlayerID, Called: g.Uno.Called}
	}

	remaining := r.clock.RemainingMs()
	view.Players = make([]PlayerView, len(g.Seats))
	for i, seat := range g.Seats {
		p := r.players[seat.ID]
		pv := PlayerView{
			ID:            seat.ID,
			IsAI:          seat.IsAI,
			Connected:     seat.Connected,
			HandCount:     len(seat.Hand),
			IsCurrentTurn: seat.ID == g.CurrentPlayerID(),
			RemainingMs:   remaining[seat.ID],
		}
		if p != nil {
			pv.DisplayName = p.DisplayName
			pv.AvatarID = p.AvatarID
		}
		if g.Uno != nil && g.Uno.PlayerID == seat.ID {
			pv.CalledUno = g.Uno.Called
		}
		if seat.ID == viewerID {
			pv.Hand = make([]CardView, len(seat.Hand))
			for j, c := range seat.Hand {
				pv.Hand[j] = newCardView(c)
			}
		}
		view.Players[i] = pv
	}

	return view
}
