package game

import "time"

// ClockScheduler tracks per-player chess clocks: each player's countdown
// runs only while they hold the turn and resets to the full allotment when
// the turn reaches them. The struct itself is not synchronized — it is owned
// by a room actor and must only be touched on that goroutine. The tick pump
// that drives it lives in Room.
type ClockScheduler struct {
	allotment time.Duration
	remaining map[string]time.Duration
	active    string
}

// NewClockScheduler creates a scheduler with the per-turn allotment.
func NewClockScheduler(allotment time.Duration) *ClockScheduler {
	return &ClockScheduler{
		allotment: allotment,
		remaining: make(map[string]time.Duration),
	}
}

// Register gives a player a full clock. Called once per seat at game start.
func (c *ClockScheduler) Register(playerID string) {
	c.remaining[playerID] = c.allotment
}

// StartTurn makes playerID's clock the running one and restores it to the
// full allotment. Time is restored on every turn change, not accumulated.
func (c *ClockScheduler) StartTurn(playerID string) {
	c.active = playerID
	c.remaining[playerID] = c.allotment
}

// Pause stops all countdowns without resetting anything.
func (c *ClockScheduler) Pause() {
	c.active = ""
}

// Tick advances the running clock by elapsed, clamped at zero. It reports
// whether the active player's time just ran out.
func (c *ClockScheduler) Tick(elapsed time.Duration) bool {
	if c.active == "" {
		return false
	}
	rem, ok := c.remaining[c.active]
	if !ok || rem == 0 {
		return false
	}
	rem -= elapsed
	if rem <= 0 {
		c.remaining[c.active] = 0
		return true
	}
	c.remaining[c.active] = rem
	return false
}

// Active returns the player whose clock is running, or "".
func (c *ClockScheduler) Active() string { return c.active }

// RemainingMs returns a snapshot of every registered clock in milliseconds.
func (c *ClockScheduler) RemainingMs() map[string]int64 {
	out := make(map[string]int64, len(c.remaining))
	for id, rem := range c.remaining {
		out[id] = rem.Milliseconds()
	}
	return out
}
