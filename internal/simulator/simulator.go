// Package simulator plays many rounds with an automatic policy, spread over
// independent tables running in parallel.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjack/internal/bot"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/ledger"
	"github.com/lox/blackjack/internal/randutil"
	"github.com/lox/blackjack/internal/round"
	"github.com/lox/blackjack/internal/rules"
	"github.com/lox/blackjack/internal/statistics"
	"github.com/lox/blackjack/internal/table"
	"golang.org/x/sync/errgroup"
)

// Config holds configuration for running simulations
type Config struct {
	Rounds int
	Tables int
	Seed   int64
	Policy bot.Policy
	Bet    float64
	Rules  rules.Rules
	Logger *log.Logger

	// Progress, when set, is called from worker goroutines after each round
	Progress func(done int)
}

// Simulator runs blackjack round simulations
type Simulator struct {
	config Config
}

// New creates a new simulator with the given configuration. Zero fields fall
// back to one table, the basic strategy, the default rules and their default bet.
func New(config Config) *Simulator {
	if config.Tables <= 0 {
		config.Tables = 1
	}
	if config.Policy == nil {
		config.Policy = bot.BasicStrategy{}
	}
	if config.Rules == (rules.Rules{}) {
		config.Rules = rules.Default()
	}
	if config.Bet <= 0 {
		config.Bet = config.Rules.DefaultBet
	}
	if config.Logger == nil {
		config.Logger = log.New(io.Discard)
	}
	return &Simulator{config: config}
}

// Run plays the configured number of rounds and returns the merged results
func (s *Simulator) Run(ctx context.Context) (*statistics.Statistics, error) {
	if s.config.Rounds <= 0 {
		return nil, errors.New("rounds must be positive")
	}
	if err := s.config.Rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}

	tables := min(s.config.Tables, s.config.Rounds)
	perTable := s.config.Rounds / tables
	remainder := s.config.Rounds % tables

	g, ctx := errgroup.WithContext(ctx)
	results := make([]*statistics.Statistics, tables)

	for w := 0; w < tables; w++ {
		rounds := perTable
		if w < remainder {
			rounds++
		}
		seed := randutil.Derive(s.config.Seed, w)

		g.Go(func() error {
			stats, err := s.runTable(ctx, w, seed, rounds)
			if err != nil {
				return fmt.Errorf("table %d (seed %d): %w", w, seed, err)
			}
			results[w] = stats
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := &statistics.Statistics{}
	for _, r := range results {
		merged.Merge(r)
	}
	if err := merged.Validate(); err != nil {
		return nil, fmt.Errorf("statistics validation failed: %w", err)
	}
	return merged, nil
}

const playerID game.PlayerID = 1

func (s *Simulator) runTable(ctx context.Context, index int, seed int64, rounds int) (*statistics.Statistics, error) {
	logger := s.config.Logger.With("table", index)
	r := s.config.Rules

	engine := game.NewEngine(game.WithSeed(seed), game.WithRules(r), game.WithLogger(logger))
	collector := statistics.NewCollector(engine.EventBus())
	tbl := table.New(engine, ledger.New(r, logger), r, table.WithLogger(logger))

	bankroll := s.config.Bet * 1000
	player := game.Player{ID: playerID, Name: s.config.Policy.Name(), Balance: bankroll}
	if err := tbl.Seat([]game.Player{player}); err != nil {
		return nil, err
	}

	for n := 0; n < rounds; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.playRound(tbl); err != nil {
			return nil, fmt.Errorf("round %d: %w", n+1, err)
		}
		if err := tbl.NewRound(); err != nil {
			return nil, err
		}

		// keep enough behind for a double
		if seat, _ := tbl.Snapshot().Seat(playerID); seat.Balance < 2*s.config.Bet {
			if err := tbl.Seat([]game.Player{player}); err != nil {
				return nil, err
			}
		}
		if s.config.Progress != nil {
			s.config.Progress(1)
		}
	}

	stats := collector.Player(playerID)
	return &stats, nil
}

func (s *Simulator) playRound(tbl *table.Table) error {
	if err := tbl.PlaceBet(playerID, s.config.Bet); err != nil {
		return err
	}
	if err := tbl.Start(); err != nil {
		return err
	}

	for {
		v := tbl.Snapshot()
		if v.State != round.PlayerTurn {
			return nil
		}
		sit, ok := bot.Observe(v, playerID)
		if !ok {
			return fmt.Errorf("player turn without a turn for player %d", playerID)
		}
		d := s.config.Policy.Decide(sit)
		if err := tbl.Act(playerID, d.Action); err != nil {
			return fmt.Errorf("%s: %w", d.Action, err)
		}
	}
}
