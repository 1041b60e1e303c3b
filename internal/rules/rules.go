// Package rules describes the house policy a table plays under. A Rules value
// is passed to the engine, ledger and table at construction time.
package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/hand"
)

// DoublePolicy controls when a player may double down
type DoublePolicy int

const (
	DoubleNone DoublePolicy = iota
	DoubleFirstTwo
	DoubleAny
)

// String returns the config spelling of the policy
func (p DoublePolicy) String() string {
	switch p {
	case DoubleNone:
		return "none"
	case DoubleFirstTwo:
		return "first_two"
	case DoubleAny:
		return "any"
	default:
		return "unknown"
	}
}

// ParseDoublePolicy parses "none", "first_two" or "any"
func ParseDoublePolicy(s string) (DoublePolicy, error) {
	switch strings.ToLower(s) {
	case "none":
		return DoubleNone, nil
	case "first_two", "":
		return DoubleFirstTwo, nil
	case "any":
		return DoubleAny, nil
	default:
		return DoubleNone, fmt.Errorf("unknown double policy %q", s)
	}
}

// SurrenderPolicy controls when a player may give up half the stake
type SurrenderPolicy int

const (
	SurrenderNone SurrenderPolicy = iota
	// SurrenderLate allows surrender only on the first two cards, before any hit
	SurrenderLate
	// SurrenderAny allows surrender at any point of the player's turn
	SurrenderAny
)

// String returns the config spelling of the policy
func (p SurrenderPolicy) String() string {
	switch p {
	case SurrenderNone:
		return "none"
	case SurrenderLate:
		return "late"
	case SurrenderAny:
		return "any"
	default:
		return "unknown"
	}
}

// ParseSurrenderPolicy parses "none", "late" or "any"
func ParseSurrenderPolicy(s string) (SurrenderPolicy, error) {
	switch strings.ToLower(s) {
	case "none":
		return SurrenderNone, nil
	case "late", "":
		return SurrenderLate, nil
	case "any":
		return SurrenderAny, nil
	default:
		return SurrenderNone, fmt.Errorf("unknown surrender policy %q", s)
	}
}

// SkipDealer lists the player-turn endings that go straight to settlement
// without a dealer turn.
type SkipDealer struct {
	OnBust      bool
	OnSurrender bool
	OnBlackjack bool
}

// Rules is the complete house policy for one table
type Rules struct {
	Name string

	DealerStandsOn   int
	DealerHitsSoft17 bool

	Double    DoublePolicy
	Surrender SurrenderPolicy
	Skip      SkipDealer

	MinBet     float64
	MaxBet     float64
	DefaultBet float64

	BlackjackPayout float64
	SurrenderRefund float64

	// Insurance offers a side bet of half the stake when the dealer shows an
	// ace, paid at InsurancePayout to one on a dealer natural.
	Insurance       bool
	InsurancePayout float64
}

// Default returns the standard house rules: dealer draws to 17 and on soft 17,
// blackjack pays 3:2, double on the first two cards, late surrender.
func Default() Rules {
	return Rules{
		Name:             "Standard blackjack",
		DealerStandsOn:   17,
		DealerHitsSoft17: true,
		Double:           DoubleFirstTwo,
		Surrender:        SurrenderLate,
		Skip: SkipDealer{
			OnBust:      true,
			OnSurrender: true,
			OnBlackjack: true,
		},
		MinBet:          1,
		MaxBet:          500,
		DefaultBet:      10,
		BlackjackPayout: 1.5,
		SurrenderRefund: 0.5,
		Insurance:       true,
		InsurancePayout: 2,
	}
}

// Validate checks the rules for internal consistency
func (r Rules) Validate() error {
	if r.DealerStandsOn < 2 || r.DealerStandsOn > hand.MaxPoints {
		return fmt.Errorf("dealer_stands_on must be between 2 and %d, got %d", hand.MaxPoints, r.DealerStandsOn)
	}
	if r.MinBet <= 0 {
		return errors.New("min_bet must be positive")
	}
	if r.MaxBet < r.MinBet {
		return fmt.Errorf("max_bet %.2f is below min_bet %.2f", r.MaxBet, r.MinBet)
	}
	if r.DefaultBet < r.MinBet || r.DefaultBet > r.MaxBet {
		return fmt.Errorf("default_bet %.2f must be within [%.2f, %.2f]", r.DefaultBet, r.MinBet, r.MaxBet)
	}
	if r.BlackjackPayout <= 0 {
		return errors.New("blackjack_payout must be positive")
	}
	if r.SurrenderRefund < 0 || r.SurrenderRefund > 1 {
		return fmt.Errorf("surrender_refund must be within [0, 1], got %.2f", r.SurrenderRefund)
	}
	if r.Insurance && r.InsurancePayout <= 0 {
		return errors.New("insurance_payout must be positive")
	}
	return nil
}

// ShouldDealerDraw reports whether the dealer must take another card: any
// total below DealerStandsOn, and a soft 17 when DealerHitsSoft17 is set.
func (r Rules) ShouldDealerDraw(h *hand.Hand) bool {
	if hand.Value(h) < r.DealerStandsOn {
		return true
	}
	return r.DealerHitsSoft17 && hand.IsSoft17(h)
}

// CanDouble reports whether the hand may be doubled under the policy
func (r Rules) CanDouble(h *hand.Hand) bool {
	if hand.IsBust(h) || hand.Value(h) == hand.MaxPoints {
		return false
	}
	switch r.Double {
	case DoubleFirstTwo:
		return h.Len() == 2
	case DoubleAny:
		return true
	default:
		return false
	}
}

// CanSurrender reports whether the hand may be surrendered under the policy
func (r Rules) CanSurrender(h *hand.Hand) bool {
	if hand.IsBust(h) {
		return false
	}
	switch r.Surrender {
	case SurrenderLate:
		return h.Len() == 2
	case SurrenderAny:
		return true
	default:
		return false
	}
}

// CanInsure reports whether the hand may take insurance against the dealer's
// up card: only on the first two cards and only against an ace.
func (r Rules) CanInsure(h *hand.Hand, up deck.Card) bool {
	return r.Insurance && h.Len() == 2 && up.IsAce()
}
