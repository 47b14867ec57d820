package game

import (
	"time"

	"github.com/unoroom/unoroom/engine"
)

// maybeScheduleAI queues a move for the turn holder if it is an AI seat.
// The move fires after a randomized thinking delay; the turn sequence is
// captured so a delayed callback for a turn that already passed is a no-op.
func (r *Room) maybeScheduleAI() {
	id := r.game.CurrentPlayerID()
	if id == "" {
		return
	}
	seat := r.game.Seat(id)
	if seat == nil || !seat.IsAI {
		return
	}

	seq := r.turnSeq
	r.clk.AfterFunc(r.aiDelay(), func() {
		r.post(func() { r.runAIMove(id, seq) })
	})
}

// aiDelay picks a thinking delay within the configured bounds.
func (r *Room) aiDelay() time.Duration {
	min, max := r.cfg.AIDelayBounds()
	if max <= min {
		return min
	}
	return min + time.Duration(r.jitter.Int63n(int64(max-min)))
}

// runAIMove executes one AI turn on the actor goroutine. A play failure of
// any kind degrades to a draw; an empty deck degrades to passing the turn,
// so an AI seat can never stall the game.
func (r *Room) runAIMove(playerID string, seq int) {
	if r.game.Phase != engine.PhasePlaying || r.turnSeq != seq ||
		r.game.CurrentPlayerID() != playerID {
		return
	}

	if card, color, ok := chooseAIMove(r.game, playerID); ok {
		if err := r.playCard(playerID, card, color); err == nil {
			return
		}
		r.log.WithField("player", playerID).Debug("ai play rejected, drawing instead")
	}
	if err := r.drawCard(playerID); err == nil {
		return
	}
	r.game.TimeoutDraw(playerID)
	r.record(playerID, "aiPass", nil)
	r.beginTurn()
}

// chooseAIMove picks the first playable card in hand. Wild plays resolve
// their color to the majority color among the remaining hand.
func chooseAIMove(g *engine.Game, playerID string) (engine.Card, uint8, bool) {
	seat := g.Seat(playerID)
	if seat == nil {
		return engine.NoCard, engine.ColorNone, false
	}

	top := g.TopDiscard()
	effective := g.EffectiveColor()
	bareWildTop := top.IsWild() && g.ActiveColor == engine.ColorNone

	for _, c := range seat.Hand {
		playableCard := c.IsWild() || bareWildTop ||
			c.Color() == effective || c.Value() == top.Value()
		if !playableCard {
			continue
		}
		if c.IsWild() {
			return c, majorityColor(seat.Hand), true
		}
		return c, engine.ColorNone, true
	}
	return engine.NoCard, engine.ColorNone, false
}

// majorityColor returns the most frequent color among non-wild cards in the
// hand. Ties and all-wild hands fall back to red.
func majorityColor(hand []engine.Card) uint8 {
	var counts [engine.NumColors]int
	for _, c := range hand {
		if !c.IsWild() {
			counts[c.Color()]++
		}
	}
	best := engine.ColorRed
	for color := uint8(0); color < engine.NumColors; color++ {
		if counts[color] > counts[best] {
			best = color
		}
	}
	return best
}
