// Package session seats one person at a private table alongside automatic
// players. The console and every WebSocket connection each drive one.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/blackjack/internal/bot"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/ledger"
	"github.com/lox/blackjack/internal/randutil"
	"github.com/lox/blackjack/internal/round"
	"github.com/lox/blackjack/internal/rules"
	"github.com/lox/blackjack/internal/statistics"
	"github.com/lox/blackjack/internal/table"
)

// Settings configures the table each connection gets
type Settings struct {
	Rules       rules.Rules
	Balance     float64
	TurnTimeout time.Duration
	// Seed makes every table deal the same shoe. Zero shuffles from the clock.
	Seed int64
	NPCs []NPC
}

// NPC is an automatic player seated after the connected player
type NPC struct {
	Name    string
	Policy  bot.Policy
	Balance float64
}

// DefaultSettings returns the settings used when none are given
func DefaultSettings() Settings {
	return Settings{
		Rules:       rules.Default(),
		Balance:     1000,
		TurnTimeout: 30 * time.Second,
	}
}

// Human is the seat of the connected player
const Human game.PlayerID = 1

type npcSeat struct {
	policy  bot.Policy
	balance float64
}

// Session is one connected player's private table
type Session struct {
	mu     sync.Mutex
	table  *table.Table
	ledger *ledger.Ledger
	stats  *statistics.Collector
	rules  rules.Rules
	npcs   map[game.PlayerID]npcSeat
	logger *log.Logger
	notify func()
}

// New seats name and the configured NPCs at a fresh table. Settlements
// are passed to onSettled and turn timeouts call onChange; both run on the
// table's goroutines.
func New(name string, settings Settings, clock quartz.Clock, logger *log.Logger,
	onSettled func(game.RoundSettledEvent), onChange func()) (*Session, error) {
	r := settings.Rules
	opts := []game.Option{game.WithRules(r), game.WithLogger(logger), game.WithClock(clock)}
	if settings.Seed != 0 {
		opts = append(opts, game.WithRNG(randutil.New(settings.Seed)))
	}
	engine := game.NewEngine(opts...)

	s := &Session{
		ledger: ledger.New(r, logger),
		stats:  statistics.NewCollector(engine.EventBus()),
		rules:  r,
		npcs:   make(map[game.PlayerID]npcSeat),
		logger: logger.WithPrefix("session"),
	}

	if onSettled != nil {
		engine.EventBus().Subscribe(game.EventFunc(func(e game.GameEvent) {
			if settled, ok := e.(game.RoundSettledEvent); ok {
				onSettled(settled)
			}
		}))
	}
	s.notify = func() {
		s.mu.Lock()
		s.runNPCs()
		s.mu.Unlock()
		if onChange != nil {
			onChange()
		}
	}

	s.table = table.New(engine, s.ledger, r,
		table.WithClock(clock),
		table.WithTurnTimeout(settings.TurnTimeout),
		table.WithLogger(logger),
		table.WithNotify(func() { s.notify() }),
	)

	players := []game.Player{{ID: Human, Name: name, Balance: settings.Balance}}
	for i, npc := range settings.NPCs {
		id := Human + game.PlayerID(i+1)
		players = append(players, game.Player{ID: id, Name: npc.Name, Balance: npc.Balance})
		s.npcs[id] = npcSeat{policy: npc.Policy, balance: npc.Balance}
	}
	if err := s.table.Seat(players); err != nil {
		return nil, err
	}
	return s, nil
}

// Subscribe registers sub for the table's round events. Events published
// by a turn timeout arrive on the timer's goroutine.
func (s *Session) Subscribe(sub game.EventSubscriber) {
	s.table.Engine().EventBus().Subscribe(sub)
}

// Rules returns the house rules of the table
func (s *Session) Rules() rules.Rules {
	return s.rules
}

// View returns the current table snapshot
func (s *Session) View() table.View {
	return s.table.Snapshot()
}

// Statistics returns the connected player's running statistics
func (s *Session) Statistics() statistics.Statistics {
	return s.stats.Player(Human)
}

// Bet stakes amount for the player, stakes the default bet for every NPC and
// deals.
func (s *Session) Bet(amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.table.PlaceBet(Human, amount); err != nil {
		return err
	}
	for id, npc := range s.npcs {
		balance, err := s.ledger.Balance(id)
		if err != nil {
			s.abandon()
			return err
		}
		if balance < s.rules.MinBet {
			s.logger.Info("NPC rebuys", "player", id, "balance", npc.balance)
			s.ledger.Open(id, npc.balance)
			balance = npc.balance
		}
		if err := s.table.PlaceBet(id, ledger.ParseBet("", s.rules, balance)); err != nil {
			s.abandon()
			return fmt.Errorf("npc %d: %w", id, err)
		}
	}

	if err := s.table.Start(); err != nil {
		s.abandon()
		return err
	}
	s.runNPCs()
	return nil
}

// abandon cancels a round that never got going, handing every stake back
func (s *Session) abandon() {
	if err := s.table.Cancel(); err != nil {
		s.logger.Warn("Could not cancel round", "error", err)
		return
	}
	_ = s.table.NewRound()
}

// Act applies the player's action and lets NPCs after them play
func (s *Session) Act(a round.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.table.Act(Human, a); err != nil {
		return err
	}
	s.runNPCs()
	return nil
}

// NewRound returns the table to taking bets
func (s *Session) NewRound() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.NewRound()
}

func (s *Session) runNPCs() {
	for {
		v := s.table.Snapshot()
		if v.State != round.PlayerTurn || !v.HasTurn {
			return
		}
		npc, ok := s.npcs[v.Turn]
		if !ok {
			return
		}
		sit, ok := bot.Observe(v, v.Turn)
		if !ok {
			return
		}
		d := npc.policy.Decide(sit)
		s.logger.Debug("NPC decision", "player", v.Turn, "action", d.Action, "reason", d.Reasoning)
		if err := s.table.Act(v.Turn, d.Action); err != nil {
			s.logger.Error("NPC action failed", "player", v.Turn, "error", err)
			return
		}
	}
}
