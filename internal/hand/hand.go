// Package hand holds the cards of one party and computes blackjack totals.
//
// Scoring counts every ace as 11 and then, while the total exceeds MaxPoints
// and an ace is still counted high, demotes one ace at a time to 1. The
// reduction is iterative, so a hand such as A A 9 resolves to 21.
package hand

import (
	"github.com/lox/blackjack/internal/deck"
)

// MaxPoints is the highest total a hand can hold without busting
const MaxPoints = 21

// Hand is an ordered collection of cards belonging to one player or the dealer.
// Cards are only ever appended; Clear empties the hand for the next round.
type Hand struct {
	cards []deck.Card
}

// New creates a hand holding the given cards
func New(cards ...deck.Card) *Hand {
	h := &Hand{}
	h.cards = append(h.cards, cards...)
	return h
}

// Add appends a card to the hand
func (h *Hand) Add(c deck.Card) {
	h.cards = append(h.cards, c)
}

// Clear removes every card
func (h *Hand) Clear() {
	h.cards = h.cards[:0]
}

// Cards returns a copy of the cards in draw order
func (h *Hand) Cards() []deck.Card {
	out := make([]deck.Card, len(h.cards))
	copy(out, h.cards)
	return out
}

// Len returns the number of cards held
func (h *Hand) Len() int {
	return len(h.cards)
}

// String renders the hand as space separated cards
func (h *Hand) String() string {
	return deck.FormatCards(h.cards)
}

// Score returns the best total for cards and whether an ace still counts as 11
// after reduction.
func Score(cards []deck.Card) (total int, soft bool) {
	highAces := 0
	for _, c := range cards {
		total += c.Points()
		if c.IsAce() {
			highAces++
		}
	}

	for total > MaxPoints && highAces > 0 {
		total -= 10
		highAces--
	}

	return total, highAces > 0
}

// Value returns the blackjack total of the hand
func Value(h *Hand) int {
	total, _ := Score(h.cards)
	return total
}

// IsSoft reports whether the hand's total still counts an ace as 11
func IsSoft(h *Hand) bool {
	_, soft := Score(h.cards)
	return soft
}

// IsBlackjack reports a natural: exactly two cards totalling 21
func IsBlackjack(h *Hand) bool {
	return len(h.cards) == 2 && Value(h) == MaxPoints
}

// IsBust reports a total above MaxPoints
func IsBust(h *Hand) bool {
	return Value(h) > MaxPoints
}

// IsSoft17 reports a total of 17 with an ace still counted as 11 once the
// reduction is complete.
func IsSoft17(h *Hand) bool {
	total, soft := Score(h.cards)
	return total == 17 && soft
}
