// Package bot provides automatic players for simulations and NPC seats.
package bot

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/hand"
	"github.com/lox/blackjack/internal/round"
	"github.com/lox/blackjack/internal/table"
)

// Situation is what a policy sees when it is asked to act
type Situation struct {
	Cards    []deck.Card
	DealerUp deck.Card
	Legal    []round.Action
}

// Total returns the best total of the player's cards and whether it is soft
func (s Situation) Total() (int, bool) {
	return hand.Score(s.Cards)
}

// Can reports whether the action is open to the player
func (s Situation) Can(a round.Action) bool {
	return slices.Contains(s.Legal, a)
}

// Decision is a policy's chosen action with a short reason for the log
type Decision struct {
	Action    round.Action
	Reasoning string
}

// Policy decides one action at a time for a player's hand
type Policy interface {
	Name() string
	Decide(s Situation) Decision
}

// pick returns want when it is legal, otherwise fallback
func pick(s Situation, want, fallback round.Action, reason string) Decision {
	if s.Can(want) {
		return Decision{Action: want, Reasoning: reason}
	}
	return Decision{Action: fallback, Reasoning: reason + fmt.Sprintf(" (%s not allowed)", want)}
}

var registry = map[string]func() Policy{
	"basic":  func() Policy { return BasicStrategy{} },
	"dealer": func() Policy { return MimicDealer{} },
	"safe":   func() Policy { return NeverBust{} },
	"stand":  func() Policy { return AlwaysStand{} },
}

// Names lists the registered policy names
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ByName returns the policy registered under name
func ByName(name string) (Policy, error) {
	f, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown policy %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return f(), nil
}

// Observe builds the situation for a player from a table snapshot. It returns
// false unless it is that player's turn.
func Observe(v table.View, id game.PlayerID) (Situation, bool) {
	if !v.HasTurn || v.Turn != id || len(v.Dealer) == 0 {
		return Situation{}, false
	}
	seat, ok := v.Seat(id)
	if !ok {
		return Situation{}, false
	}
	return Situation{Cards: seat.Cards, DealerUp: v.Dealer[0], Legal: v.Legal}, true
}
