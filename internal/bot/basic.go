package bot

import (
	"fmt"

	"github.com/lox/blackjack/internal/round"
)

// BasicStrategy plays the usual hard and soft total chart against the
// dealer's up card, including doubles and late surrender.
type BasicStrategy struct{}

func (BasicStrategy) Name() string { return "basic" }

func (b BasicStrategy) Decide(s Situation) Decision {
	total, soft := s.Total()
	up := s.DealerUp.Points()
	if soft {
		return b.soft(s, total, up)
	}
	return b.hard(s, total, up)
}

func (BasicStrategy) hard(s Situation, total, up int) Decision {
	reason := fmt.Sprintf("hard %d vs %d", total, up)
	switch {
	case total <= 8:
		return Decision{Action: round.Hit, Reasoning: reason}
	case total == 9:
		if up >= 3 && up <= 6 {
			return pick(s, round.Double, round.Hit, reason)
		}
		return Decision{Action: round.Hit, Reasoning: reason}
	case total == 10:
		if up <= 9 {
			return pick(s, round.Double, round.Hit, reason)
		}
		return Decision{Action: round.Hit, Reasoning: reason}
	case total == 11:
		if up <= 10 {
			return pick(s, round.Double, round.Hit, reason)
		}
		return Decision{Action: round.Hit, Reasoning: reason}
	case total == 12:
		if up >= 4 && up <= 6 {
			return Decision{Action: round.Stand, Reasoning: reason}
		}
		return Decision{Action: round.Hit, Reasoning: reason}
	case total <= 16:
		if total == 16 && up >= 9 || total == 15 && up == 10 {
			return pick(s, round.Surrender, round.Hit, reason)
		}
		if up <= 6 {
			return Decision{Action: round.Stand, Reasoning: reason}
		}
		return Decision{Action: round.Hit, Reasoning: reason}
	default:
		return Decision{Action: round.Stand, Reasoning: reason}
	}
}

func (BasicStrategy) soft(s Situation, total, up int) Decision {
	reason := fmt.Sprintf("soft %d vs %d", total, up)
	switch {
	case total <= 14:
		if up == 5 || up == 6 {
			return pick(s, round.Double, round.Hit, reason)
		}
		return Decision{Action: round.Hit, Reasoning: reason}
	case total <= 16:
		if up >= 4 && up <= 6 {
			return pick(s, round.Double, round.Hit, reason)
		}
		return Decision{Action: round.Hit, Reasoning: reason}
	case total == 17:
		if up >= 3 && up <= 6 {
			return pick(s, round.Double, round.Hit, reason)
		}
		return Decision{Action: round.Hit, Reasoning: reason}
	case total == 18:
		switch {
		case up <= 6:
			return pick(s, round.Double, round.Stand, reason)
		case up <= 8:
			return Decision{Action: round.Stand, Reasoning: reason}
		default:
			return Decision{Action: round.Hit, Reasoning: reason}
		}
	default:
		return Decision{Action: round.Stand, Reasoning: reason}
	}
}
