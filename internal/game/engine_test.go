package game

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/hand"
	"github.com/lox/blackjack/internal/randutil"
	"github.com/lox/blackjack/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder captures every published event
type recorder struct {
	events []GameEvent
}

func (r *recorder) OnEvent(event GameEvent) {
	r.events = append(r.events, event)
}

func (r *recorder) count(t EventType) int {
	n := 0
	for _, e := range r.events {
		if e.EventType() == t {
			n++
		}
	}
	return n
}

func alice() Player { return Player{ID: 1, Name: "Alice", Balance: 100} }

// stackedEngine builds an engine whose shoe yields cards in order. With one
// player the deal order is player, dealer, player, dealer.
func stackedEngine(t *testing.T, cards string, opts ...Option) *Engine {
	t.Helper()
	shoe := deck.NewStackedShoe(randutil.New(1), deck.MustParseCards(cards)...)
	opts = append([]Option{WithShoe(shoe), WithLogger(log.New(io.Discard))}, opts...)
	e := NewEngine(opts...)
	require.NoError(t, e.ConfigurePlayers([]Player{alice()}))
	return e
}

func TestConfigurePlayers(t *testing.T) {
	e := NewEngine(WithSeed(1))

	err := e.ConfigurePlayers(nil)
	assert.ErrorIs(t, err, ErrConfiguration)

	err = e.ConfigurePlayers([]Player{alice(), alice()})
	var dup *DuplicatePlayerError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, PlayerID(1), dup.ID)
	assert.ErrorIs(t, err, ErrConfiguration)

	bob := Player{ID: 2, Name: "Bob"}
	require.NoError(t, e.ConfigurePlayers([]Player{alice(), bob}))
	assert.Equal(t, []Player{alice(), bob}, e.Players())
}

func TestStartRoundRequiresPlayers(t *testing.T) {
	e := NewEngine(WithSeed(1))
	_, err := e.StartRound()
	assert.ErrorIs(t, err, ErrNoPlayersConfigured)
	assert.False(t, e.Active())
}

func TestOperationsRequireActiveRound(t *testing.T) {
	e := NewEngine(WithSeed(1))
	require.NoError(t, e.ConfigurePlayers([]Player{alice()}))

	assert.ErrorIs(t, e.Deal(), ErrNoActiveRound)

	_, err := e.Hit(1)
	assert.ErrorIs(t, err, ErrNoActiveRound)

	_, err = e.DealerPlay()
	assert.ErrorIs(t, err, ErrNoActiveRound)

	_, err = e.EndRound()
	assert.ErrorIs(t, err, ErrNoActiveRound)

	_, err = e.CloseRound()
	assert.ErrorIs(t, err, ErrNoActiveRound)
}

func TestDealGivesTwoCardsEach(t *testing.T) {
	e := NewEngine(WithSeed(7))
	require.NoError(t, e.ConfigurePlayers([]Player{alice(), {ID: 2, Name: "Bob"}}))

	_, err := e.StartRound()
	require.NoError(t, err)
	require.NoError(t, e.Deal())

	for _, id := range []PlayerID{1, 2} {
		h, err := e.PlayerHand(id)
		require.NoError(t, err)
		assert.Equal(t, 2, h.Len())
	}
	assert.Equal(t, 2, e.DealerHand().Len())

	seen := map[deck.Card]bool{}
	for _, id := range []PlayerID{1, 2} {
		h, _ := e.PlayerHand(id)
		for _, c := range h.Cards() {
			assert.False(t, seen[c], "card %s dealt twice", c)
			seen[c] = true
		}
	}
	for _, c := range e.DealerHand().Cards() {
		assert.False(t, seen[c], "card %s dealt twice", c)
		seen[c] = true
	}
}

func TestDealOrderIsRoundRobin(t *testing.T) {
	shoe := deck.NewStackedShoe(randutil.New(1), deck.MustParseCards("2h 3h 4h 5h 6h 7h")...)
	e := NewEngine(WithShoe(shoe))
	require.NoError(t, e.ConfigurePlayers([]Player{alice(), {ID: 2, Name: "Bob"}}))

	_, err := e.StartRound()
	require.NoError(t, err)
	require.NoError(t, e.Deal())

	a, _ := e.PlayerHand(1)
	b, _ := e.PlayerHand(2)
	assert.Equal(t, deck.MustParseCards("2h 5h"), a.Cards())
	assert.Equal(t, deck.MustParseCards("3h 6h"), b.Cards())
	assert.Equal(t, deck.MustParseCards("4h 7h"), e.DealerHand().Cards())

	up, ok := e.DealerUpCard()
	require.True(t, ok)
	assert.Equal(t, deck.MustParseCards("4h")[0], up)
}

func TestHitUnknownPlayer(t *testing.T) {
	e := stackedEngine(t, "")
	_, err := e.StartRound()
	require.NoError(t, err)

	_, err = e.Hit(99)
	var unknown *UnknownPlayerError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, PlayerID(99), unknown.ID)
	assert.ErrorIs(t, err, ErrUnknownPlayer)

	_, err = e.PlayerHand(99)
	assert.ErrorIs(t, err, ErrUnknownPlayer)
}

func TestDoubleDrawsExactlyOneCard(t *testing.T) {
	e := stackedEngine(t, "5h Tc 6d 7s 9c")
	_, err := e.StartRound()
	require.NoError(t, err)
	require.NoError(t, e.Deal())

	c, err := e.Double(1)
	require.NoError(t, err)
	assert.Equal(t, deck.MustParseCards("9c")[0], c)

	h, _ := e.PlayerHand(1)
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, 20, hand.Value(h))
}

func TestDealerPlay(t *testing.T) {
	tests := []struct {
		name      string
		cards     string
		soft17    bool
		wantDrawn int
		wantTotal int
	}{
		{"stands on hard 17", "Th Tc 9d 7s", true, 0, 17},
		{"stands on 20", "Th Tc 9d Ts", true, 0, 20},
		{"draws below 17", "Th Tc 9d 2s 5h", true, 1, 17},
		{"hits soft 17", "Th Ac 9d 6s 2h", true, 1, 19},
		{"stands on soft 17 when configured", "Th Ac 9d 6s 2h", false, 0, 17},
		{"busts", "Th Tc 9d 6s Ks", true, 1, 26},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := rules.Default()
			r.DealerHitsSoft17 = tt.soft17
			e := stackedEngine(t, tt.cards, WithRules(r))

			_, err := e.StartRound()
			require.NoError(t, err)
			require.NoError(t, e.Deal())

			drawn, err := e.DealerPlay()
			require.NoError(t, err)
			assert.Equal(t, tt.wantDrawn, drawn)
			assert.Equal(t, tt.wantTotal, hand.Value(e.DealerHand()))
		})
	}
}

func TestDealerFinishesAtOrAbove17(t *testing.T) {
	e := NewEngine(WithSeed(3))
	require.NoError(t, e.ConfigurePlayers([]Player{alice()}))

	for i := 0; i < 200; i++ {
		_, err := e.StartRound()
		require.NoError(t, err)
		require.NoError(t, e.Deal())
		_, err = e.EndRound()
		require.NoError(t, err)

		d := e.DealerHand()
		assert.GreaterOrEqual(t, hand.Value(d), 17)
		assert.False(t, hand.IsSoft17(d), "dealer stopped on soft 17: %s", d)
	}
}

func TestEvaluateOutcomes(t *testing.T) {
	tests := []struct {
		name  string
		cards string
		hits  int
		want  Outcome
	}{
		{"player loses", "Th Tc 9d Ts", 0, PlayerLoses},
		{"player wins", "Th Tc Kd 9s", 0, PlayerWins},
		{"push", "Th Tc 8d 8s", 0, Push},
		{"player bust", "Th Tc 5d 9s 9h", 1, PlayerBust},
		{"dealer bust", "Th Tc 9d 6s Ks", 0, DealerBust},
		{"player bust beats nothing even if dealer busts", "Th Tc 5d 6s 9h Ks", 1, PlayerBust},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := stackedEngine(t, tt.cards)
			_, err := e.StartRound()
			require.NoError(t, err)
			require.NoError(t, e.Deal())
			for i := 0; i < tt.hits; i++ {
				_, err := e.Hit(1)
				require.NoError(t, err)
			}
			_, err = e.EndRound()
			require.NoError(t, err)

			outcomes, err := e.Evaluate()
			require.NoError(t, err)
			assert.Equal(t, tt.want, outcomes[1])
		})
	}
}

func TestEvaluateIsPure(t *testing.T) {
	e := stackedEngine(t, "Th Tc 9d Ts")
	_, err := e.StartRound()
	require.NoError(t, err)
	require.NoError(t, e.Deal())
	_, err = e.EndRound()
	require.NoError(t, err)

	first, err := e.Evaluate()
	require.NoError(t, err)
	second, err := e.Evaluate()
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, e.DealerHand().Len())
}

func TestEvaluateWithoutPlayers(t *testing.T) {
	e := NewEngine(WithSeed(1))
	_, err := e.Evaluate()
	assert.ErrorIs(t, err, ErrNoPlayersConfigured)
}

func TestResultsCarryNaturals(t *testing.T) {
	e := stackedEngine(t, "Ah Tc Kd 9s")
	_, err := e.StartRound()
	require.NoError(t, err)
	require.NoError(t, e.Deal())
	_, err = e.CloseRound()
	require.NoError(t, err)

	results, err := e.Results()
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].PlayerNatural)
	assert.False(t, results[0].DealerNatural)
	assert.Equal(t, 21, results[0].PlayerTotal)
	assert.Equal(t, 19, results[0].DealerTotal)
	assert.Equal(t, PlayerWins, results[0].Outcome)
}

func TestCloseRoundSkipsDealer(t *testing.T) {
	e := stackedEngine(t, "Th Tc 5d 2s 9h")
	_, err := e.StartRound()
	require.NoError(t, err)
	require.NoError(t, e.Deal())
	_, err = e.Hit(1)
	require.NoError(t, err)

	rec := &recorder{}
	e.EventBus().Subscribe(rec)

	round, err := e.CloseRound()
	require.NoError(t, err)
	assert.True(t, round.Ended())
	require.NotNil(t, round.EndedAt)
	assert.False(t, round.EndedAt.IsZero())
	assert.False(t, e.Active())
	assert.Equal(t, 2, e.DealerHand().Len(), "dealer must not draw")
	assert.Equal(t, deck.MustParseCards("Tc 2s"), e.DealerHand().Cards())
	assert.Equal(t, 1, rec.count(EventTypeRoundEnd))
	assert.Zero(t, rec.count(EventTypeDealerTurn))

	_, err = e.CloseRound()
	assert.ErrorIs(t, err, ErrNoActiveRound)
}

func TestResultsWaitForClosedRound(t *testing.T) {
	e := stackedEngine(t, "Th Tc 9d 7s")
	_, err := e.StartRound()
	require.NoError(t, err)
	require.NoError(t, e.Deal())

	_, err = e.Evaluate()
	assert.ErrorIs(t, err, ErrRoundInProgress)
	_, err = e.Results()
	assert.ErrorIs(t, err, ErrRoundInProgress)

	_, err = e.EndRound()
	require.NoError(t, err)
	outcomes, err := e.Evaluate()
	require.NoError(t, err)
	assert.Equal(t, PlayerWins, outcomes[1])
}

func TestRoundTimestamps(t *testing.T) {
	clock := quartz.NewMock(t)
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock.Set(start)

	e := stackedEngine(t, "Th Tc 9d Ts", WithClock(clock))
	round, err := e.StartRound()
	require.NoError(t, err)
	assert.Equal(t, 1, round.Number)
	assert.Equal(t, start, round.StartedAt)
	assert.False(t, round.Ended())
	assert.Len(t, round.ID, 26)

	require.NoError(t, e.Deal())
	clock.Set(start.Add(3 * time.Second))

	round, err = e.EndRound()
	require.NoError(t, err)
	require.NotNil(t, round.EndedAt)
	assert.Equal(t, 3*time.Second, round.Duration())

	next, err := e.StartRound()
	require.NoError(t, err)
	assert.Equal(t, 2, next.Number)
	assert.NotEqual(t, round.ID, next.ID)
}

func TestStartRoundClearsHands(t *testing.T) {
	e := NewEngine(WithSeed(11))
	require.NoError(t, e.ConfigurePlayers([]Player{alice()}))

	_, err := e.StartRound()
	require.NoError(t, err)
	require.NoError(t, e.Deal())
	_, err = e.Hit(1)
	require.NoError(t, err)

	_, err = e.StartRound()
	require.NoError(t, err)
	h, _ := e.PlayerHand(1)
	assert.Equal(t, 0, h.Len())
	assert.Equal(t, 0, e.DealerHand().Len())
	_, ok := e.DealerUpCard()
	assert.False(t, ok)
}

func TestReshuffleDuringRound(t *testing.T) {
	rec := &recorder{}
	bus := NewEventBus()
	bus.Subscribe(rec)

	e := NewEngine(WithSeed(5), WithEventBus(bus))
	require.NoError(t, e.ConfigurePlayers([]Player{alice()}))
	_, err := e.StartRound()
	require.NoError(t, err)
	require.NoError(t, e.Deal())

	// 4 dealt, 48 left; the 49th hit empties the shoe first
	for i := 0; i < 48; i++ {
		_, err := e.Hit(1)
		require.NoError(t, err)
	}
	assert.Equal(t, 0, e.Reshuffles())

	_, err = e.Hit(1)
	require.NoError(t, err)
	assert.Equal(t, 1, e.Reshuffles())
	assert.Equal(t, 1, rec.count(EventTypeReshuffle))
}

func TestSeededEnginesAreReproducible(t *testing.T) {
	deal := func() []deck.Card {
		e := NewEngine(WithSeed(42))
		require.NoError(t, e.ConfigurePlayers([]Player{alice()}))
		_, err := e.StartRound()
		require.NoError(t, err)
		require.NoError(t, e.Deal())
		h, _ := e.PlayerHand(1)
		return append(h.Cards(), e.DealerHand().Cards()...)
	}
	assert.Equal(t, deal(), deal())
}

func TestEnginePublishesLifecycleEvents(t *testing.T) {
	rec := &recorder{}
	bus := NewEventBus()
	bus.Subscribe(rec)

	e := stackedEngine(t, "Th Tc 9d 6s 2h", WithEventBus(bus))
	_, err := e.StartRound()
	require.NoError(t, err)
	require.NoError(t, e.Deal())
	_, err = e.EndRound()
	require.NoError(t, err)

	assert.Equal(t, 1, rec.count(EventTypeRoundStart))
	assert.Equal(t, 5, rec.count(EventTypeCardDealt))
	assert.Equal(t, 1, rec.count(EventTypeDealerTurn))
	assert.Equal(t, 1, rec.count(EventTypeRoundEnd))

	end, ok := rec.events[len(rec.events)-1].(RoundEndEvent)
	require.True(t, ok)
	require.Len(t, end.Results, 1)
	assert.Equal(t, PlayerWins, end.Results[0].Outcome)
}

func TestUpdatePlayerKeepsHand(t *testing.T) {
	e := stackedEngine(t, "Th Tc 9d Ts")
	_, err := e.StartRound()
	require.NoError(t, err)
	require.NoError(t, e.Deal())

	require.NoError(t, e.UpdatePlayer(alice().WithBalance(50)))
	assert.Equal(t, 50.0, e.Players()[0].Balance)
	h, _ := e.PlayerHand(1)
	assert.Equal(t, 2, h.Len())

	err = e.UpdatePlayer(Player{ID: 9})
	assert.True(t, errors.Is(err, ErrUnknownPlayer))
}
