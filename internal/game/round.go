package game

import "time"

// Round records one round's identity and timing. EndedAt is set exactly once
// when the round concludes.
type Round struct {
	Number    int
	ID        string
	StartedAt time.Time
	EndedAt   *time.Time
}

// Ended reports whether the round has concluded
func (r Round) Ended() bool {
	return r.EndedAt != nil
}

// Duration returns how long the round ran, or zero while it is still open
func (r Round) Duration() time.Duration {
	if r.EndedAt == nil {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// Outcome is the result of one player's hand against the dealer
type Outcome int

const (
	PlayerBust Outcome = iota
	DealerBust
	PlayerWins
	PlayerLoses
	Push
)

// String returns the string representation of the outcome
func (o Outcome) String() string {
	switch o {
	case PlayerBust:
		return "player_bust"
	case DealerBust:
		return "dealer_bust"
	case PlayerWins:
		return "player_wins"
	case PlayerLoses:
		return "player_loses"
	case Push:
		return "push"
	default:
		return "unknown"
	}
}

// PlayerWon reports whether the outcome pays the player
func (o Outcome) PlayerWon() bool {
	return o == DealerBust || o == PlayerWins
}

// Result carries an outcome together with the totals that produced it.
// Settlement needs the blackjack flag to apply the natural payout.
type Result struct {
	PlayerID      PlayerID
	Outcome       Outcome
	PlayerTotal   int
	DealerTotal   int
	PlayerNatural bool
	DealerNatural bool
}

// Compare derives the outcome from final totals. A player bust loses
// regardless of the dealer; otherwise a dealer bust pays, and remaining hands
// compare totals.
func Compare(playerTotal, dealerTotal, maxPoints int) Outcome {
	switch {
	case playerTotal > maxPoints:
		return PlayerBust
	case dealerTotal > maxPoints:
		return DealerBust
	case playerTotal > dealerTotal:
		return PlayerWins
	case playerTotal < dealerTotal:
		return PlayerLoses
	default:
		return Push
	}
}
