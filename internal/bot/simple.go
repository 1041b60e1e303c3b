package bot

import (
	"fmt"

	"github.com/lox/blackjack/internal/round"
)

// MimicDealer plays the house rule: hit below 17 and on soft 17
type MimicDealer struct{}

func (MimicDealer) Name() string { return "dealer" }

func (MimicDealer) Decide(s Situation) Decision {
	total, soft := s.Total()
	if total < 17 || (total == 17 && soft) {
		return Decision{Action: round.Hit, Reasoning: fmt.Sprintf("dealer rule, %d", total)}
	}
	return Decision{Action: round.Stand, Reasoning: fmt.Sprintf("dealer rule, %d", total)}
}

// NeverBust only hits when no card can bust the hand
type NeverBust struct{}

func (NeverBust) Name() string { return "safe" }

func (NeverBust) Decide(s Situation) Decision {
	total, soft := s.Total()
	if soft || total <= 11 {
		return Decision{Action: round.Hit, Reasoning: "cannot bust"}
	}
	return Decision{Action: round.Stand, Reasoning: "could bust"}
}

// AlwaysStand stands on every hand
type AlwaysStand struct{}

func (AlwaysStand) Name() string { return "stand" }

func (AlwaysStand) Decide(Situation) Decision {
	return Decision{Action: round.Stand, Reasoning: "always stand"}
}
