// Package table runs blackjack rounds for a set of seated players. A Table
// ties together the round engine, the round state machine and the ledger: it
// turns player action tokens into engine calls, decides whose turn it is,
// plays out the dealer and settles bets.
package table

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/hand"
	"github.com/lox/blackjack/internal/ledger"
	"github.com/lox/blackjack/internal/round"
	"github.com/lox/blackjack/internal/rules"
)

var (
	// ErrNotYourTurn is returned when a player acts out of turn
	ErrNotYourTurn = errors.New("not your turn")
	// ErrActionNotAllowed is returned when the house rules forbid an action for the hand
	ErrActionNotAllowed = errors.New("action not allowed for this hand")
	// ErrMissingBet is returned when a round is started before every seat has a stake
	ErrMissingBet = errors.New("every seated player must bet before the round starts")
)

// Table is one blackjack table session. All methods are safe for concurrent
// use; turn timeouts fire on the clock's goroutine and are serialized with
// player actions.
type Table struct {
	mu sync.Mutex

	engine  *game.Engine
	ledger  *ledger.Ledger
	rules   rules.Rules
	machine *round.Machine
	logger  *log.Logger

	clock   quartz.Clock
	timeout time.Duration
	timer   *quartz.Timer
	notify  func()

	players     []game.Player
	status      map[game.PlayerID]Status
	turn        int
	settlements []game.Settlement
}

// Option configures a Table
type Option func(*Table)

// WithClock sets the clock used for turn timeouts
func WithClock(clock quartz.Clock) Option {
	return func(t *Table) { t.clock = clock }
}

// WithTurnTimeout makes a player's turn end as a stand after d. Zero disables it.
func WithTurnTimeout(d time.Duration) Option {
	return func(t *Table) { t.timeout = d }
}

// WithLogger sets the logger
func WithLogger(logger *log.Logger) Option {
	return func(t *Table) { t.logger = logger }
}

// WithNotify registers a callback run after a turn timeout changes the table.
// It is called without the table lock held.
func WithNotify(fn func()) Option {
	return func(t *Table) { t.notify = fn }
}

// New creates a table driving engine and paying out through l
func New(engine *game.Engine, l *ledger.Ledger, r rules.Rules, opts ...Option) *Table {
	t := &Table{
		engine:  engine,
		ledger:  l,
		rules:   r,
		machine: round.New(r.Skip),
		status:  make(map[game.PlayerID]Status),
		turn:    -1,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = log.New(io.Discard)
	}
	t.logger = t.logger.WithPrefix("table")
	if t.clock == nil {
		t.clock = quartz.NewReal()
	}

	t.machine.OnTransition = func(from, to round.State, a round.Action) {
		t.logger.Debug("Transition", "from", from, "to", to, "action", a)
	}
	return t
}

// Engine returns the table's round engine
func (t *Table) Engine() *game.Engine {
	return t.engine
}

// Seat replaces the seated players and opens a ledger account for each with
// the player's balance. Seating is only possible between rounds.
func (t *Table) Seat(players []game.Player) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s := t.machine.State(); s != round.WaitingForBets {
		return fmt.Errorf("cannot seat players while %s", s)
	}
	if err := t.engine.ConfigurePlayers(players); err != nil {
		return err
	}

	t.players = append(t.players[:0], players...)
	t.status = make(map[game.PlayerID]Status, len(players))
	for _, p := range players {
		t.ledger.Open(p.ID, p.Balance)
		t.status[p.ID] = Waiting
	}
	t.logger.Info("Players seated", "count", len(players))
	return nil
}

// PlaceBet stakes amount for the player's next hand
func (t *Table) PlaceBet(id game.PlayerID, amount float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.machine.Can(round.StartRound) {
		return &round.InvalidActionError{State: t.machine.State(), Action: round.StartRound, Legal: t.machine.Legal()}
	}
	if _, ok := t.status[id]; !ok {
		return &game.UnknownPlayerError{ID: id}
	}
	return t.ledger.PlaceBet(id, amount)
}

// Start opens a round and deals. Hands dealt a natural are settled as
// blackjack without taking a turn; if no player is left to act the round is
// played out to settlement immediately.
func (t *Table) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.players) == 0 {
		return game.ErrNoPlayersConfigured
	}
	for _, p := range t.players {
		stake, err := t.ledger.Stake(p.ID)
		if err != nil {
			return err
		}
		if stake == 0 {
			return fmt.Errorf("%w: %s", ErrMissingBet, p.Name)
		}
	}

	if _, err := t.machine.Apply(round.StartRound); err != nil {
		return err
	}
	r, err := t.engine.StartRound()
	if err != nil {
		return err
	}
	if err := t.engine.Deal(); err != nil {
		return err
	}
	if _, err := t.machine.Apply(round.CardsDealt); err != nil {
		return err
	}

	t.settlements = nil
	for _, p := range t.players {
		h, _ := t.engine.PlayerHand(p.ID)
		if hand.IsBlackjack(h) {
			t.status[p.ID] = Natural
			t.logger.Info("Blackjack", "round", r.Number, "player", p.Name)
		} else {
			t.status[p.ID] = Playing
		}
	}

	t.turn = -1
	return t.advance()
}

// Act applies a player's action token to their hand. Only hit, stand, double,
// surrender and insurance are accepted, and only from the player whose turn it
// is. Insurance is a side bet and leaves the turn with the player.
func (t *Table) Act(id game.PlayerID, a round.Action) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !a.IsPlayerAction() || !t.machine.Can(a) {
		return &round.InvalidActionError{State: t.machine.State(), Action: a, Legal: t.legal()}
	}
	if _, ok := t.status[id]; !ok {
		return &game.UnknownPlayerError{ID: id}
	}
	if t.turn < 0 || t.players[t.turn].ID != id {
		return ErrNotYourTurn
	}

	h, err := t.engine.PlayerHand(id)
	if err != nil {
		return err
	}

	switch a {
	case round.Hit:
		if _, err := t.engine.Hit(id); err != nil {
			return err
		}
		if _, err := t.machine.Apply(round.Hit); err != nil {
			return err
		}
		switch v := hand.Value(h); {
		case v > hand.MaxPoints:
			t.status[id] = Busted
		case v == hand.MaxPoints:
			t.status[id] = Stood
		default:
			t.armTimer()
			return nil
		}

	case round.Stand:
		t.status[id] = Stood

	case round.Double:
		if !t.rules.CanDouble(h) {
			return fmt.Errorf("%w: double on %s", ErrActionNotAllowed, h)
		}
		if err := t.ledger.Double(id); err != nil {
			return err
		}
		if _, err := t.engine.Double(id); err != nil {
			return err
		}
		t.status[id] = Doubled
		if hand.IsBust(h) {
			t.status[id] = Busted
		}

	case round.Surrender:
		if !t.rules.CanSurrender(h) {
			return fmt.Errorf("%w: surrender on %s", ErrActionNotAllowed, h)
		}
		if err := t.ledger.MarkSurrendered(id); err != nil {
			return err
		}
		t.status[id] = Surrendered

	case round.Insurance:
		if !t.canInsure(id, h) {
			return fmt.Errorf("%w: insurance on %s", ErrActionNotAllowed, h)
		}
		if err := t.ledger.Insure(id); err != nil {
			return err
		}
		if _, err := t.machine.Apply(round.Insurance); err != nil {
			return err
		}
		t.logger.Debug("Player insured", "player", id)
		t.armTimer()
		return nil
	}

	t.logger.Debug("Player acted", "player", id, "action", a, "status", t.status[id], "total", hand.Value(h))
	return t.advance()
}

// NewRound moves a finished table back to taking bets
func (t *Table) NewRound() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.machine.Apply(round.NewRound); err != nil {
		return err
	}
	for id := range t.status {
		t.status[id] = Waiting
	}
	t.turn = -1
	return nil
}

// Cancel abandons a round that has not reached the player turn and refunds
// every stake.
func (t *Table) Cancel() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.machine.Apply(round.Cancel); err != nil {
		return err
	}
	t.stopTimer()
	for _, p := range t.players {
		if err := t.ledger.Refund(p.ID); err != nil {
			return err
		}
	}
	if t.engine.Active() {
		if _, err := t.engine.CloseRound(); err != nil {
			return err
		}
	}
	t.logger.Info("Round cancelled")
	return nil
}

// advance moves the turn to the next player still playing, or finishes the
// round when nobody is left.
func (t *Table) advance() error {
	t.stopTimer()
	for i := t.turn + 1; i < len(t.players); i++ {
		if t.status[t.players[i].ID] == Playing {
			t.turn = i
			t.armTimer()
			return nil
		}
	}
	t.turn = -1
	return t.finish()
}

// finish closes the player turn, runs the dealer if any hand needs it and
// settles every stake.
func (t *Table) finish() error {
	var closing round.Action
	for _, p := range t.players {
		s := t.status[p.ID]
		if s.needsDealer(t.rules.Skip) {
			closing = s.token()
			break
		}
	}
	if closing == "" {
		closing = t.status[t.players[0].ID].token()
	}

	state, err := t.machine.Apply(closing)
	if err != nil {
		return err
	}

	if state == round.DealerTurn {
		if err := t.playDealer(); err != nil {
			return err
		}
	} else if _, err := t.engine.CloseRound(); err != nil {
		return err
	}

	return t.settle()
}

func (t *Table) playDealer() error {
	drawn, err := t.engine.DealerPlay()
	if err != nil {
		return err
	}
	for i := 0; i < drawn; i++ {
		if _, err := t.machine.Apply(round.DealerHit); err != nil {
			return err
		}
	}
	if _, err := t.engine.CloseRound(); err != nil {
		return err
	}

	dealer := t.engine.DealerHand()
	result := round.DealerStands
	switch {
	case hand.IsBlackjack(dealer):
		result = round.DealerBlackjack
	case hand.IsBust(dealer):
		result = round.DealerBusts
	}
	_, err = t.machine.Apply(result)
	return err
}

func (t *Table) settle() error {
	results, err := t.engine.Results()
	if err != nil {
		return err
	}

	settlements := make([]game.Settlement, 0, len(results))
	for i, r := range results {
		outcome := r.Outcome
		switch {
		case t.status[r.PlayerID] == Surrendered:
			outcome = game.PlayerLoses
		case r.PlayerNatural && !r.DealerNatural:
			outcome = game.PlayerWins
		}

		s, err := t.ledger.Settle(r.PlayerID, ledger.Resolution{
			Outcome:       outcome,
			Natural:       r.PlayerNatural,
			DealerNatural: r.DealerNatural,
		})
		if err != nil {
			return err
		}
		p := t.players[i]
		s.Name = p.Name
		settlements = append(settlements, s)

		t.players[i] = p.WithBalance(s.Balance)
		if err := t.engine.UpdatePlayer(t.players[i]); err != nil {
			return err
		}
	}

	if _, err := t.machine.Apply(round.ResultsComputed); err != nil {
		return err
	}
	t.settlements = settlements

	r := t.engine.CurrentRound()
	t.logger.Info("Round settled", "round", r.Number, "dealer", hand.Value(t.engine.DealerHand()))
	t.engine.EventBus().Publish(game.NewRoundSettledEvent(r, settlements, t.clock.Now("table", "settled")))
	return nil
}

func (t *Table) armTimer() {
	t.stopTimer()
	if t.timeout <= 0 || t.turn < 0 {
		return
	}
	id := t.players[t.turn].ID
	number := t.engine.CurrentRound().Number
	t.timer = t.clock.AfterFunc(t.timeout, func() { t.onTimeout(id, number) }, "table", "turn")
}

func (t *Table) stopTimer() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *Table) onTimeout(id game.PlayerID, number int) {
	t.mu.Lock()
	if t.turn < 0 || t.players[t.turn].ID != id || t.engine.CurrentRound().Number != number ||
		t.machine.State() != round.PlayerTurn {
		t.mu.Unlock()
		return
	}

	t.logger.Warn("Turn timed out, standing", "player", id, "timeout", t.timeout)
	t.status[id] = TimedOut
	t.timer = nil
	if err := t.advance(); err != nil {
		t.logger.Error("Failed to advance after timeout", "error", err)
	}
	notify := t.notify
	t.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// legal returns the player actions during the player turn and the state
// machine's actions otherwise
func (t *Table) legal() []round.Action {
	if t.machine.State() == round.PlayerTurn {
		return t.playerLegal()
	}
	return t.machine.Legal()
}

// playerLegal returns the player actions open to the player whose turn it is
func (t *Table) playerLegal() []round.Action {
	if t.turn < 0 || t.machine.State() != round.PlayerTurn {
		return nil
	}
	id := t.players[t.turn].ID
	h, err := t.engine.PlayerHand(id)
	if err != nil {
		return nil
	}

	legal := []round.Action{round.Hit, round.Stand}
	if t.rules.CanDouble(h) {
		stake, _ := t.ledger.Stake(id)
		balance, _ := t.ledger.Balance(id)
		if balance >= stake {
			legal = append(legal, round.Double)
		}
	}
	if t.rules.CanSurrender(h) {
		legal = append(legal, round.Surrender)
	}
	if t.canInsure(id, h) {
		stake, _ := t.ledger.Stake(id)
		balance, _ := t.ledger.Balance(id)
		if balance >= stake/2 {
			legal = append(legal, round.Insurance)
		}
	}
	return legal
}

// canInsure reports whether the player may still take insurance against the
// dealer's ace. Only one side bet per hand.
func (t *Table) canInsure(id game.PlayerID, h *hand.Hand) bool {
	up, ok := t.engine.DealerUpCard()
	if !ok || !t.rules.CanInsure(h, up) {
		return false
	}
	insured, err := t.ledger.Insured(id)
	return err == nil && insured == 0
}
