package deck

import (
	rand "math/rand/v2"
)

// DeckSize is the number of distinct cards in one standard deck
const DeckSize = 52

// Shoe is the pool of cards a table deals from. It behaves as an infinite
// source: when it runs dry it is rebuilt and reshuffled before the next draw.
// A Shoe is owned by a single engine and is not safe for concurrent use.
type Shoe struct {
	cards      []Card
	stacked    []Card
	rng        *rand.Rand
	reshuffles int

	// OnReshuffle, when set, is called every time an empty shoe is replenished
	// during a draw.
	OnReshuffle func(reshuffles int)
}

// NewShoe creates a shuffled 52-card shoe that draws from rng
func NewShoe(rng *rand.Rand) *Shoe {
	s := &Shoe{
		cards: make([]Card, 0, DeckSize),
		rng:   rng,
	}
	s.Replenish()
	return s
}

// NewStackedShoe creates a shoe that yields the given cards first, in order,
// and falls back to a normal shuffled deck afterwards. Replenish does not
// discard the stacked cards, so a round can be scripted before StartRound.
func NewStackedShoe(rng *rand.Rand, cards ...Card) *Shoe {
	s := NewShoe(rng)
	s.stacked = append(s.stacked, cards...)
	return s
}

// Stack queues cards to be drawn before anything else in the shoe
func (s *Shoe) Stack(cards ...Card) {
	s.stacked = append(s.stacked, cards...)
}

// Build restores the shoe to the full ordered set of 52 distinct cards
func (s *Shoe) Build() {
	s.cards = s.cards[:0]
	for _, suit := range Suits {
		for _, rank := range Ranks {
			s.cards = append(s.cards, NewCard(suit, rank))
		}
	}
}

// Shuffle randomizes the order of the remaining cards using Fisher-Yates
func (s *Shoe) Shuffle() {
	for i := len(s.cards) - 1; i > 0; i-- {
		j := s.rng.IntN(i + 1)
		s.cards[i], s.cards[j] = s.cards[j], s.cards[i]
	}
}

// Replenish rebuilds and reshuffles the shoe
func (s *Shoe) Replenish() {
	s.Build()
	s.Shuffle()
}

// Draw removes and returns the top card. An empty shoe is replenished first,
// so Draw never fails.
func (s *Shoe) Draw() Card {
	if len(s.stacked) > 0 {
		c := s.stacked[0]
		s.stacked = s.stacked[1:]
		return c
	}

	if len(s.cards) == 0 {
		s.Replenish()
		s.reshuffles++
		if s.OnReshuffle != nil {
			s.OnReshuffle(s.reshuffles)
		}
	}

	top := len(s.cards) - 1
	c := s.cards[top]
	s.cards = s.cards[:top]
	return c
}

// Remaining returns the number of cards left before the next reshuffle
func (s *Shoe) Remaining() int {
	return len(s.cards) + len(s.stacked)
}

// Reshuffles returns how many times an exhausted shoe was replenished by Draw
func (s *Shoe) Reshuffles() int {
	return s.reshuffles
}
