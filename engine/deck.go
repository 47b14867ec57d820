package engine

// CardsPerDeck is the size of one standard UNO deck: per color one zero,
// two each of 1–9, two each of skip/reverse/draw-two (25 × 4 colors), plus
// four wilds and four wild-draw-fours.
const CardsPerDeck = 108

// Deck is the ordered draw pile. The last element is the top of the pile.
type Deck struct {
	cards []Card
	rng   uint64
}

// NewDeck builds deckCount copies of the standard 108-card deck, unshuffled,
// seeded for deterministic shuffling. A zero seed is corrected to 1 so the
// xorshift generator never locks up.
func NewDeck(deckCount int, seed uint64) *Deck {
	if deckCount < 1 {
		deckCount = 1
	}
	if seed == 0 {
		seed = 1
	}
	d := &Deck{
		cards: make([]Card, 0, deckCount*CardsPerDeck),
		rng:   seed,
	}
	for n := 0; n < deckCount; n++ {
		for color := uint8(0); color < NumColors; color++ {
			d.cards = append(d.cards, NewCard(color, ValueZero))
			for v := uint8(1); v <= ValueNine; v++ {
				d.cards = append(d.cards, NewCard(color, v), NewCard(color, v))
			}
			for _, v := range []uint8{ValueSkip, ValueReverse, ValueDrawTwo} {
				d.cards = append(d.cards, NewCard(color, v), NewCard(color, v))
			}
		}
		for i := 0; i < 4; i++ {
			d.cards = append(d.cards, Wild(), WildFour())
		}
	}
	return d
}

// xorshift64 — same generator the deal and shuffle share, no interface.
func (d *Deck) nextRand() uint64 {
	x := d.rng
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	d.rng = x
	return x
}

// Shuffle permutes the pile in place (Fisher–Yates).
func (d *Deck) Shuffle() {
	for i := len(d.cards) - 1; i > 0; i-- {
		j := int(d.nextRand() % uint64(i+1))
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Len returns the number of cards remaining.
func (d *Deck) Len() int { return len(d.cards) }

// Draw removes and returns the top card. ok is false when the pile is empty.
func (d *Deck) Draw() (c Card, ok bool) {
	if len(d.cards) == 0 {
		return NoCard, false
	}
	c = d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return c, true
}

// Return puts a card back at the bottom of the pile. Used when a wild is
// drawn while seeding the discard pile.
func (d *Deck) Return(c Card) {
	d.cards = append([]Card{c}, d.cards...)
}

// Cards returns a copy of the pile, bottom first. Test helper surface.
func (d *Deck) Cards() []Card {
	cp := make([]Card, len(d.cards))
	copy(cp, d.cards)
	return cp
}
