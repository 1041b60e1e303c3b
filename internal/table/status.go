package table

import (
	"github.com/lox/blackjack/internal/round"
	"github.com/lox/blackjack/internal/rules"
)

// Status is where a seat's hand stands within the current round
type Status int

const (
	Waiting Status = iota
	Playing
	Stood
	Doubled
	Surrendered
	Busted
	Natural
	TimedOut
)

// String returns the string representation of the status
func (s Status) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Playing:
		return "playing"
	case Stood:
		return "stood"
	case Doubled:
		return "doubled"
	case Surrendered:
		return "surrendered"
	case Busted:
		return "busted"
	case Natural:
		return "blackjack"
	case TimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Done reports whether the hand takes no further player actions
func (s Status) Done() bool {
	return s != Waiting && s != Playing
}

// token is the action that closes the player turn for a hand in this status
func (s Status) token() round.Action {
	switch s {
	case Doubled:
		return round.Double
	case Surrendered:
		return round.Surrender
	case Busted:
		return round.Bust
	case Natural:
		return round.Blackjack
	case TimedOut:
		return round.Timeout
	default:
		return round.Stand
	}
}

// needsDealer reports whether a hand in this status is only decided once the
// dealer has played
func (s Status) needsDealer(skip rules.SkipDealer) bool {
	switch s {
	case Busted:
		return !skip.OnBust
	case Surrendered:
		return !skip.OnSurrender
	case Natural:
		return !skip.OnBlackjack
	default:
		return true
	}
}
