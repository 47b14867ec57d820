// Package engine implements the UNO rules state machine.
//
// The package is a pure library: no goroutines, no timers, no I/O. Callers
// (the room actor in internal/game) are responsible for serializing access.
// All randomness flows through a caller-supplied seed so that deals and
// shuffles are reproducible.
package engine

// Color constants — packed into the upper 4 bits of Card.
const (
	ColorRed    uint8 = 0
	ColorYellow uint8 = 1
	ColorGreen  uint8 = 2
	ColorBlue   uint8 = 3
	// ColorNone marks wild cards, which carry no color until resolved.
	ColorNone uint8 = 4
)

// NumColors is the number of playable (non-wild) colors.
const NumColors uint8 = 4

// Value constants — packed into the lower 4 bits of Card.
// Values 0–9 are the number cards and map directly to their face value.
const (
	ValueZero     uint8 = 0
	ValueNine     uint8 = 9
	ValueSkip     uint8 = 10
	ValueReverse  uint8 = 11
	ValueDrawTwo  uint8 = 12
	ValueWild     uint8 = 13
	ValueWildFour uint8 = 14
)

// Card is a packed uint8: upper 4 bits = color, lower 4 bits = value.
// Wild cards are stored with ColorNone; the chosen color after a wild is
// played lives in Game.ActiveColor, never in the card itself.
type Card uint8

// NoCard represents the absence of a card.
const NoCard Card = 0xFF

// NewCard constructs a Card from color and value.
func NewCard(color, value uint8) Card {
	return Card((color << 4) | (value & 0x0F))
}

// Wild returns a plain wild card.
func Wild() Card { return NewCard(ColorNone, ValueWild) }

// WildFour returns a wild-draw-four card.
func WildFour() Card { return NewCard(ColorNone, ValueWildFour) }

// Color returns the color bits (upper 4).
func (c Card) Color() uint8 { return uint8(c) >> 4 }

// Value returns the value bits (lower 4).
func (c Card) Value() uint8 { return uint8(c) & 0x0F }

// IsWild reports whether the card is a wild or wild-draw-four.
func (c Card) IsWild() bool {
	v := c.Value()
	return v == ValueWild || v == ValueWildFour
}

// IsNumber reports whether the card is a 0–9 number card.
func (c Card) IsNumber() bool { return c.Value() <= ValueNine }

// DrawCount returns how many cards the next player must draw when this
// card is played: 2 for draw-two, 4 for wild-draw-four, 0 otherwise.
func (c Card) DrawCount() int {
	switch c.Value() {
	case ValueDrawTwo:
		return 2
	case ValueWildFour:
		return 4
	}
	return 0
}

// ColorName returns the lowercase color name, or "wild" for ColorNone.
func ColorName(color uint8) string {
	switch color {
	case ColorRed:
		return "red"
	case ColorYellow:
		return "yellow"
	case ColorGreen:
		return "green"
	case ColorBlue:
		return "blue"
	}
	return "wild"
}

// ParseColor is the inverse of ColorName for the four playable colors.
func ParseColor(name string) (uint8, bool) {
	switch name {
	case "red":
		return ColorRed, true
	case "yellow":
		return ColorYellow, true
	case "green":
		return ColorGreen, true
	case "blue":
		return ColorBlue, true
	}
	return ColorNone, false
}

// ValueName returns the wire name of a card value ("0"–"9", "skip",
// "reverse", "draw2", "wild", "wild4").
func ValueName(value uint8) string {
	switch value {
	case ValueSkip:
		return "skip"
	case ValueReverse:
		return "reverse"
	case ValueDrawTwo:
		return "draw2"
	case ValueWild:
		return "wild"
	case ValueWildFour:
		return "wild4"
	}
	if value <= ValueNine {
		return string(rune('0' + value))
	}
	return "?"
}

// ParseValue is the inverse of ValueName.
func ParseValue(name string) (uint8, bool) {
	switch name {
	case "skip":
		return ValueSkip, true
	case "reverse":
		return ValueReverse, true
	case "draw2":
		return ValueDrawTwo, true
	case "wild":
		return ValueWild, true
	case "wild4":
		return ValueWildFour, true
	}
	if len(name) == 1 && name[0] >= '0' && name[0] <= '9' {
		return name[0] - '0', true
	}
	return 0, false
}

// String renders the card as "color:value", e.g. "red:7" or "wild:wild4".
func (c Card) String() string {
	if c == NoCard {
		return "none"
	}
	return ColorName(c.Color()) + ":" + ValueName(c.Value())
}
