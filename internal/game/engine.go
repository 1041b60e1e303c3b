package game

import (
	"io"
	rand "math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/gameid"
	"github.com/lox/blackjack/internal/hand"
	"github.com/lox/blackjack/internal/randutil"
	"github.com/lox/blackjack/internal/rules"
)

// Dealer is the capability set a controller needs from a round engine
type Dealer interface {
	Deal() error
	Hit(id PlayerID) (deck.Card, error)
	Double(id PlayerID) (deck.Card, error)
	DealerPlay() (int, error)
	EndRound() (Round, error)
	CloseRound() (Round, error)
	Evaluate() (map[PlayerID]Outcome, error)
	Results() ([]Result, error)
	PlayerHand(id PlayerID) (*hand.Hand, error)
	DealerHand() *hand.Hand
	DealerUpCard() (deck.Card, bool)
}

// seat is one player's slot in the round arena
type seat struct {
	player Player
	hand   *hand.Hand
}

// Engine owns one table's shoe, the dealer's hand and a hand per seated
// player, and drives dealing and turns. An Engine is not safe for concurrent
// use; each table gets its own.
type Engine struct {
	rules  rules.Rules
	shoe   *deck.Shoe
	logger *log.Logger
	bus    EventBus
	clock  quartz.Clock
	ids    *gameid.Generator

	dealer *hand.Hand
	seats  []seat
	index  map[PlayerID]int

	active bool
	round  Round
	rounds int
}

var _ Dealer = (*Engine)(nil)

// Option configures an Engine during creation
type Option func(*engineConfig)

type engineConfig struct {
	rng    *rand.Rand
	shoe   *deck.Shoe
	rules  rules.Rules
	logger *log.Logger
	bus    EventBus
	clock  quartz.Clock
}

// WithRNG sets the generator the engine's shoe shuffles with
func WithRNG(rng *rand.Rand) Option {
	return func(c *engineConfig) { c.rng = rng }
}

// WithSeed seeds the engine's own generator for reproducible shuffles
func WithSeed(seed int64) Option {
	return func(c *engineConfig) { c.rng = randutil.New(seed) }
}

// WithShoe uses a pre-built shoe, such as a stacked shoe in tests.
// It overrides WithRNG and WithSeed.
func WithShoe(shoe *deck.Shoe) Option {
	return func(c *engineConfig) { c.shoe = shoe }
}

// WithRules sets the house rules. Default is rules.Default().
func WithRules(r rules.Rules) Option {
	return func(c *engineConfig) { c.rules = r }
}

// WithLogger sets the logger. Default discards output.
func WithLogger(logger *log.Logger) Option {
	return func(c *engineConfig) { c.logger = logger }
}

// WithEventBus publishes round events on bus instead of a private bus
func WithEventBus(bus EventBus) Option {
	return func(c *engineConfig) { c.bus = bus }
}

// WithClock sets the clock used to stamp rounds. Default is the real clock.
func WithClock(clock quartz.Clock) Option {
	return func(c *engineConfig) { c.clock = clock }
}

// NewEngine creates an engine with no players configured
func NewEngine(opts ...Option) *Engine {
	cfg := &engineConfig{
		rules: rules.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.logger == nil {
		cfg.logger = log.New(io.Discard)
	}
	if cfg.bus == nil {
		cfg.bus = NewEventBus()
	}
	if cfg.clock == nil {
		cfg.clock = quartz.NewReal()
	}
	if cfg.shoe == nil {
		if cfg.rng == nil {
			cfg.rng = randutil.NewUnseeded()
		}
		cfg.shoe = deck.NewShoe(cfg.rng)
	}

	e := &Engine{
		rules:  cfg.rules,
		shoe:   cfg.shoe,
		logger: cfg.logger.WithPrefix("engine"),
		bus:    cfg.bus,
		clock:  cfg.clock,
		ids:    gameid.NewGenerator(nil, cfg.clock),
		dealer: hand.New(),
		index:  make(map[PlayerID]int),
	}
	e.shoe.OnReshuffle = e.onReshuffle
	return e
}

// EventBus returns the bus round events are published on
func (e *Engine) EventBus() EventBus {
	return e.bus
}

// Rules returns the house rules the engine plays under
func (e *Engine) Rules() rules.Rules {
	return e.rules
}

// ConfigurePlayers seats the given players, one empty hand each, replacing any
// previous seating. Seat order is the order given.
func (e *Engine) ConfigurePlayers(players []Player) error {
	if len(players) == 0 {
		return ErrConfiguration
	}

	seats := make([]seat, 0, len(players))
	index := make(map[PlayerID]int, len(players))
	for _, p := range players {
		if _, dup := index[p.ID]; dup {
			return &DuplicatePlayerError{ID: p.ID}
		}
		index[p.ID] = len(seats)
		seats = append(seats, seat{player: p, hand: hand.New()})
	}

	e.seats = seats
	e.index = index
	e.logger.Debug("Players configured", "count", len(seats))
	return nil
}

// UpdatePlayer replaces the record for an already seated player, keeping the hand
func (e *Engine) UpdatePlayer(p Player) error {
	i, ok := e.index[p.ID]
	if !ok {
		return &UnknownPlayerError{ID: p.ID}
	}
	e.seats[i].player = p
	return nil
}

// Players returns the seated players in seat order
func (e *Engine) Players() []Player {
	out := make([]Player, len(e.seats))
	for i, s := range e.seats {
		out[i] = s.player
	}
	return out
}

// StartRound clears every hand, rebuilds and reshuffles the shoe and opens a
// new round.
func (e *Engine) StartRound() (Round, error) {
	if len(e.seats) == 0 {
		return Round{}, ErrNoPlayersConfigured
	}

	e.dealer.Clear()
	for _, s := range e.seats {
		s.hand.Clear()
	}
	e.shoe.Replenish()

	e.rounds++
	e.round = Round{
		Number:    e.rounds,
		ID:        e.ids.Generate(),
		StartedAt: e.clock.Now("engine", "round_start"),
	}
	e.active = true

	e.logger.Info("Round started", "round", e.round.Number, "id", e.round.ID, "players", len(e.seats))
	e.bus.Publish(RoundStartEvent{Round: e.round, Players: e.Players(), timestamp: e.round.StartedAt})
	return e.round, nil
}

// Deal gives two cards to each player and two to the dealer, one at a time:
// every player then the dealer, twice.
func (e *Engine) Deal() error {
	if !e.active {
		return ErrNoActiveRound
	}

	for pass := 0; pass < 2; pass++ {
		for _, s := range e.seats {
			e.drawInto(s.player.ID, s.hand, false)
		}
		e.drawInto(0, e.dealer, true)
	}

	e.logger.Debug("Initial cards dealt", "round", e.round.Number, "dealer_up", e.dealer.Cards()[0])
	return nil
}

// Hit draws one card into the player's hand
func (e *Engine) Hit(id PlayerID) (deck.Card, error) {
	if !e.active {
		return deck.Card{}, ErrNoActiveRound
	}
	i, ok := e.index[id]
	if !ok {
		return deck.Card{}, &UnknownPlayerError{ID: id}
	}
	return e.drawInto(id, e.seats[i].hand, false), nil
}

// Double draws exactly one card into the player's hand. Doubling the stake is
// the ledger's concern.
func (e *Engine) Double(id PlayerID) (deck.Card, error) {
	c, err := e.Hit(id)
	if err != nil {
		return c, err
	}
	e.logger.Debug("Player doubled", "player", id, "card", c)
	return c, nil
}

// DealerPlay draws into the dealer's hand until the house rules say stand:
// below DealerStandsOn, and on soft 17 when the dealer hits soft 17. It
// returns the number of cards drawn.
func (e *Engine) DealerPlay() (int, error) {
	if !e.active {
		return 0, ErrNoActiveRound
	}

	drawn := 0
	for e.rules.ShouldDealerDraw(e.dealer) {
		e.drawInto(0, e.dealer, true)
		drawn++
	}

	total := hand.Value(e.dealer)
	e.logger.Debug("Dealer finished", "round", e.round.Number, "total", total, "drawn", drawn)
	e.bus.Publish(DealerTurnEvent{
		RoundNumber: e.round.Number,
		Cards:       e.dealer.Cards(),
		Total:       total,
		Drawn:       drawn,
		timestamp:   e.clock.Now("engine", "dealer_turn"),
	})
	return drawn, nil
}

// EndRound plays the dealer's hand and closes the round
func (e *Engine) EndRound() (Round, error) {
	if !e.active {
		return Round{}, ErrNoActiveRound
	}
	if _, err := e.DealerPlay(); err != nil {
		return Round{}, err
	}
	return e.finish(), nil
}

// CloseRound closes the round without a dealer turn, for rounds where every
// player's hand was already decided.
func (e *Engine) CloseRound() (Round, error) {
	if !e.active {
		return Round{}, ErrNoActiveRound
	}
	return e.finish(), nil
}

func (e *Engine) finish() Round {
	ended := e.clock.Now("engine", "round_end")
	e.round.EndedAt = &ended
	e.active = false

	results, _ := e.Results()
	e.logger.Info("Round ended", "round", e.round.Number, "dealer", hand.Value(e.dealer))
	e.bus.Publish(RoundEndEvent{Round: e.round, Results: results, timestamp: ended})
	return e.round
}

// Evaluate compares every player's hand with the dealer's. It only reads hand
// state and returns ErrRoundInProgress until EndRound or CloseRound.
func (e *Engine) Evaluate() (map[PlayerID]Outcome, error) {
	results, err := e.Results()
	if err != nil {
		return nil, err
	}
	out := make(map[PlayerID]Outcome, len(results))
	for _, r := range results {
		out[r.PlayerID] = r.Outcome
	}
	return out, nil
}

// Results returns each player's outcome with the totals behind it, in seat
// order. Like Evaluate it needs a closed round.
func (e *Engine) Results() ([]Result, error) {
	if len(e.seats) == 0 {
		return nil, ErrNoPlayersConfigured
	}
	if e.active {
		return nil, ErrRoundInProgress
	}

	dealerTotal := hand.Value(e.dealer)
	dealerNatural := hand.IsBlackjack(e.dealer)

	results := make([]Result, 0, len(e.seats))
	for _, s := range e.seats {
		total := hand.Value(s.hand)
		results = append(results, Result{
			PlayerID:      s.player.ID,
			Outcome:       Compare(total, dealerTotal, hand.MaxPoints),
			PlayerTotal:   total,
			DealerTotal:   dealerTotal,
			PlayerNatural: hand.IsBlackjack(s.hand),
			DealerNatural: dealerNatural,
		})
	}
	return results, nil
}

// PlayerHand returns the hand of a seated player
func (e *Engine) PlayerHand(id PlayerID) (*hand.Hand, error) {
	i, ok := e.index[id]
	if !ok {
		return nil, &UnknownPlayerError{ID: id}
	}
	return e.seats[i].hand, nil
}

// DealerHand returns the dealer's hand
func (e *Engine) DealerHand() *hand.Hand {
	return e.dealer
}

// DealerUpCard returns the dealer's first, face-up card
func (e *Engine) DealerUpCard() (deck.Card, bool) {
	if e.dealer.Len() == 0 {
		return deck.Card{}, false
	}
	return e.dealer.Cards()[0], true
}

// Active reports whether a round is in progress
func (e *Engine) Active() bool {
	return e.active
}

// CurrentRound returns the most recent round record
func (e *Engine) CurrentRound() Round {
	return e.round
}

// Reshuffles returns how many times the shoe ran dry mid-round
func (e *Engine) Reshuffles() int {
	return e.shoe.Reshuffles()
}

func (e *Engine) drawInto(id PlayerID, h *hand.Hand, toDealer bool) deck.Card {
	c := e.shoe.Draw()
	h.Add(c)
	total := hand.Value(h)

	if toDealer {
		e.logger.Debug("Dealer draws", "card", c, "total", total)
	} else {
		e.logger.Debug("Player draws", "player", id, "card", c, "total", total)
	}
	e.bus.Publish(CardDealtEvent{
		RoundNumber: e.round.Number,
		PlayerID:    id,
		ToDealer:    toDealer,
		Card:        c,
		Total:       total,
		timestamp:   e.clock.Now("engine", "card"),
	})
	return c
}

func (e *Engine) onReshuffle(n int) {
	e.logger.Debug("Shoe exhausted, reshuffled", "round", e.round.Number, "reshuffles", n)
	e.bus.Publish(ReshuffleEvent{
		RoundNumber: e.round.Number,
		Reshuffles:  n,
		timestamp:   e.clock.Now("engine", "reshuffle"),
	})
}
