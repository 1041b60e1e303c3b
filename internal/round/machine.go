// Package round gates which actions are legal at each stage of a blackjack
// round. It is a pure transition table: it never draws cards or scores hands,
// it only permits or denies calls into the engine.
package round

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lox/blackjack/internal/rules"
)

// State is a stage of the round lifecycle
type State int

const (
	WaitingForBets State = iota
	Dealing
	PlayerTurn
	DealerTurn
	Settling
	Finished
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case WaitingForBets:
		return "waiting_for_bets"
	case Dealing:
		return "dealing"
	case PlayerTurn:
		return "player_turn"
	case DealerTurn:
		return "dealer_turn"
	case Settling:
		return "settling"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// Action is a named trigger fed into the machine
type Action string

const (
	StartRound      Action = "start_round"
	Cancel          Action = "cancel"
	CardsDealt      Action = "cards_dealt"
	Hit             Action = "hit"
	Stand           Action = "stand"
	Double          Action = "double"
	Surrender       Action = "surrender"
	Insurance       Action = "insurance"
	Blackjack       Action = "blackjack"
	Bust            Action = "bust"
	Timeout         Action = "timeout"
	DealerHit       Action = "dealer_hit"
	DealerStands    Action = "dealer_stands"
	DealerBusts     Action = "dealer_busts"
	DealerBlackjack Action = "dealer_blackjack"
	ResultsComputed Action = "results_computed"
	NewRound        Action = "new_round"
)

// Actions lists every action in a stable order. Legal reports in this order.
var Actions = []Action{
	StartRound, Cancel, CardsDealt,
	Hit, Stand, Double, Surrender, Insurance, Blackjack, Bust, Timeout,
	DealerHit, DealerStands, DealerBusts, DealerBlackjack,
	ResultsComputed, NewRound,
}

// ParseAction maps a wire or console token to an Action
func ParseAction(s string) (Action, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, a := range Actions {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// IsPlayerAction reports whether a player may send the action for their own hand
func (a Action) IsPlayerAction() bool {
	switch a {
	case Hit, Stand, Double, Surrender, Insurance:
		return true
	default:
		return false
	}
}

// ErrInvalidAction is matched by InvalidActionError
var ErrInvalidAction = errors.New("invalid action for state")

// InvalidActionError reports an action the current state does not accept,
// together with the actions it would have accepted.
type InvalidActionError struct {
	State  State
	Action Action
	Legal  []Action
}

func (e *InvalidActionError) Error() string {
	legal := make([]string, len(e.Legal))
	for i, a := range e.Legal {
		legal[i] = string(a)
	}
	return fmt.Sprintf("invalid action %q for state %s (legal: %s)", e.Action, e.State, strings.Join(legal, ", "))
}

// Is lets errors.Is(err, ErrInvalidAction) match
func (e *InvalidActionError) Is(target error) bool {
	return target == ErrInvalidAction
}

// Machine tracks the lifecycle stage of one table's current round. The zero
// value is not usable; call New.
type Machine struct {
	state State
	skip  rules.SkipDealer

	// OnTransition, when set, is called after every accepted action
	OnTransition func(from, to State, action Action)
}

// New creates a machine in WaitingForBets. skip decides which player-turn
// endings bypass the dealer turn.
func New(skip rules.SkipDealer) *Machine {
	return &Machine{state: WaitingForBets, skip: skip}
}

// State returns the current state
func (m *Machine) State() State {
	return m.state
}

// Apply feeds an action into the machine and returns the new state
func (m *Machine) Apply(a Action) (State, error) {
	next, ok := m.next(m.state, a)
	if !ok {
		return m.state, &InvalidActionError{State: m.state, Action: a, Legal: m.Legal()}
	}

	from := m.state
	m.state = next
	if m.OnTransition != nil {
		m.OnTransition(from, next, a)
	}
	return next, nil
}

// Can reports whether the action is legal in the current state
func (m *Machine) Can(a Action) bool {
	_, ok := m.next(m.state, a)
	return ok
}

// Legal returns the actions the current state accepts
func (m *Machine) Legal() []Action {
	var legal []Action
	for _, a := range Actions {
		if _, ok := m.next(m.state, a); ok {
			legal = append(legal, a)
		}
	}
	return legal
}

// Reset returns the machine to WaitingForBets without firing OnTransition
func (m *Machine) Reset() {
	m.state = WaitingForBets
}

func (m *Machine) next(s State, a Action) (State, bool) {
	switch s {
	case WaitingForBets:
		switch a {
		case StartRound:
			return Dealing, true
		case Cancel:
			return Finished, true
		}
	case Dealing:
		switch a {
		case CardsDealt:
			return PlayerTurn, true
		case Cancel:
			return Finished, true
		}
	case PlayerTurn:
		switch a {
		case Hit, Insurance:
			return PlayerTurn, true
		case Stand, Double, Timeout:
			return DealerTurn, true
		case Surrender:
			return m.skipTo(m.skip.OnSurrender), true
		case Blackjack:
			return m.skipTo(m.skip.OnBlackjack), true
		case Bust:
			return m.skipTo(m.skip.OnBust), true
		}
	case DealerTurn:
		switch a {
		case DealerHit:
			return DealerTurn, true
		case DealerStands, DealerBusts, DealerBlackjack:
			return Settling, true
		}
	case Settling:
		if a == ResultsComputed {
			return Finished, true
		}
	case Finished:
		if a == NewRound {
			return WaitingForBets, true
		}
	}
	return s, false
}

func (m *Machine) skipTo(skip bool) State {
	if skip {
		return Settling
	}
	return DealerTurn
}
