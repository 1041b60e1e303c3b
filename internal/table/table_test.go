package table

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/ledger"
	"github.com/lox/blackjack/internal/randutil"
	"github.com/lox/blackjack/internal/round"
	"github.com/lox/blackjack/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTable seats the given players, each with a 100 balance, at a table
// whose shoe deals the stacked cards first.
func newTable(t *testing.T, r rules.Rules, cards string, ids []game.PlayerID, opts ...Option) *Table {
	t.Helper()
	shoe := deck.NewStackedShoe(randutil.New(1), deck.MustParseCards(cards)...)
	engine := game.NewEngine(game.WithShoe(shoe), game.WithRules(r))
	tbl := New(engine, ledger.New(r, nil), r, opts...)

	players := make([]game.Player, len(ids))
	for i, id := range ids {
		players[i] = game.Player{ID: id, Name: "P" + string(rune('0'+id)), Balance: 100}
	}
	require.NoError(t, tbl.Seat(players))
	return tbl
}

func solo(t *testing.T, cards string, opts ...Option) *Table {
	return newTable(t, rules.Default(), cards, []game.PlayerID{1}, opts...)
}

func startWithBets(t *testing.T, tbl *Table, amount float64) {
	t.Helper()
	for _, s := range tbl.Snapshot().Seats {
		require.NoError(t, tbl.PlaceBet(s.Player.ID, amount))
	}
	require.NoError(t, tbl.Start())
}

func balance(t *testing.T, tbl *Table, id game.PlayerID) float64 {
	t.Helper()
	s, ok := tbl.Snapshot().Seat(id)
	require.True(t, ok)
	return s.Balance
}

func TestStandAndWin(t *testing.T) {
	tbl := solo(t, "Th Tc 9d 7s")

	var settled []game.RoundSettledEvent
	tbl.Engine().EventBus().Subscribe(game.EventFunc(func(e game.GameEvent) {
		if s, ok := e.(game.RoundSettledEvent); ok {
			settled = append(settled, s)
		}
	}))

	startWithBets(t, tbl, 10)
	v := tbl.Snapshot()
	assert.Equal(t, round.PlayerTurn, v.State)
	assert.True(t, v.HasTurn)
	assert.Equal(t, game.PlayerID(1), v.Turn)
	assert.Len(t, v.Dealer, 1, "hole card hidden")
	assert.True(t, v.DealerHidden)
	assert.Equal(t, []round.Action{round.Hit, round.Stand, round.Double, round.Surrender}, v.Legal)

	require.NoError(t, tbl.Act(1, round.Stand))

	v = tbl.Snapshot()
	assert.Equal(t, round.Finished, v.State)
	assert.False(t, v.HasTurn)
	assert.Len(t, v.Dealer, 2)
	assert.Equal(t, 17, v.DealerTotal)
	require.Len(t, v.Settlements, 1)
	assert.Equal(t, game.PlayerWins, v.Settlements[0].Outcome)
	assert.Equal(t, "P1", v.Settlements[0].Name)
	assert.Equal(t, 110.0, balance(t, tbl, 1))
	assert.Equal(t, []round.Action{round.NewRound}, v.Legal)

	require.Len(t, settled, 1)
	assert.Equal(t, 110.0, settled[0].Settlements[0].Balance)
	assert.Equal(t, 110.0, tbl.Engine().Players()[0].Balance)
}

func TestBustSkipsDealer(t *testing.T) {
	tbl := solo(t, "Th Tc 5d 7s 9h")
	startWithBets(t, tbl, 10)

	require.NoError(t, tbl.Act(1, round.Hit))

	v := tbl.Snapshot()
	assert.Equal(t, round.Finished, v.State)
	assert.Len(t, v.Dealer, 2)
	seat, _ := v.Seat(1)
	assert.Equal(t, Busted, seat.Status)
	assert.Equal(t, game.PlayerBust, v.Settlements[0].Outcome)
	assert.Equal(t, 90.0, seat.Balance)
}

func TestBustPlaysDealerWhenSkipDisabled(t *testing.T) {
	r := rules.Default()
	r.Skip.OnBust = false
	tbl := newTable(t, r, "Th Tc 5d 6s 9h 5c", []game.PlayerID{1})
	startWithBets(t, tbl, 10)

	require.NoError(t, tbl.Act(1, round.Hit))

	v := tbl.Snapshot()
	assert.Equal(t, round.Finished, v.State)
	assert.Len(t, v.Dealer, 3)
	assert.Equal(t, 21, v.DealerTotal)
	assert.Equal(t, game.PlayerBust, v.Settlements[0].Outcome)
}

func TestNaturalSettlesImmediately(t *testing.T) {
	tbl := solo(t, "Ah Tc Kd 7s")
	startWithBets(t, tbl, 10)

	v := tbl.Snapshot()
	assert.Equal(t, round.Finished, v.State)
	seat, _ := v.Seat(1)
	assert.Equal(t, Natural, seat.Status)
	assert.True(t, v.Settlements[0].Natural)
	assert.Equal(t, 115.0, seat.Balance)
}

func TestNaturalBeatsDealerThreeCard21(t *testing.T) {
	r := rules.Default()
	r.Skip.OnBlackjack = false
	tbl := newTable(t, r, "Ah 6c Kd 5s Th", []game.PlayerID{1})
	startWithBets(t, tbl, 10)

	v := tbl.Snapshot()
	assert.Equal(t, 21, v.DealerTotal)
	assert.Equal(t, game.PlayerWins, v.Settlements[0].Outcome)
	assert.Equal(t, 115.0, balance(t, tbl, 1))
}

func TestDealerBlackjack(t *testing.T) {
	tbl := solo(t, "Th Ac 9d Ks")
	startWithBets(t, tbl, 10)
	require.NoError(t, tbl.Act(1, round.Stand))

	v := tbl.Snapshot()
	assert.Equal(t, game.PlayerLoses, v.Settlements[0].Outcome)
	assert.Equal(t, 90.0, balance(t, tbl, 1))
}

func TestDouble(t *testing.T) {
	tbl := solo(t, "5h Tc 6d 7s 9c")
	startWithBets(t, tbl, 10)

	require.NoError(t, tbl.Act(1, round.Double))

	v := tbl.Snapshot()
	assert.Equal(t, round.Finished, v.State)
	seat, _ := v.Seat(1)
	assert.Equal(t, Doubled, seat.Status)
	assert.Len(t, seat.Cards, 3)
	assert.True(t, v.Settlements[0].Doubled)
	assert.Equal(t, 20.0, v.Settlements[0].Stake)
	assert.Equal(t, 120.0, seat.Balance)
}

func TestDoubleNotAllowedAfterHit(t *testing.T) {
	tbl := solo(t, "2h Tc 3d 7s 4h")
	startWithBets(t, tbl, 10)
	require.NoError(t, tbl.Act(1, round.Hit))

	assert.NotContains(t, tbl.Snapshot().Legal, round.Double)
	assert.ErrorIs(t, tbl.Act(1, round.Double), ErrActionNotAllowed)
	assert.ErrorIs(t, tbl.Act(1, round.Surrender), ErrActionNotAllowed)
	assert.Equal(t, round.PlayerTurn, tbl.Snapshot().State)
}

func TestSurrender(t *testing.T) {
	tbl := solo(t, "Th Tc 6d 7s")
	startWithBets(t, tbl, 10)

	require.NoError(t, tbl.Act(1, round.Surrender))

	v := tbl.Snapshot()
	assert.Equal(t, round.Finished, v.State)
	assert.Len(t, v.Dealer, 2)
	assert.True(t, v.Settlements[0].Surrendered)
	assert.Equal(t, game.PlayerLoses, v.Settlements[0].Outcome)
	assert.Equal(t, 95.0, balance(t, tbl, 1))
}

func TestInsuranceAgainstDealerNatural(t *testing.T) {
	tbl := solo(t, "9h As 7d Kc")
	startWithBets(t, tbl, 10)
	assert.Contains(t, tbl.Snapshot().Legal, round.Insurance)

	require.NoError(t, tbl.Act(1, round.Insurance))

	v := tbl.Snapshot()
	assert.Equal(t, round.PlayerTurn, v.State, "insurance keeps the turn")
	assert.Equal(t, game.PlayerID(1), v.Turn)
	assert.NotContains(t, v.Legal, round.Insurance)
	assert.Equal(t, 85.0, balance(t, tbl, 1))
	assert.ErrorIs(t, tbl.Act(1, round.Insurance), ErrActionNotAllowed)

	require.NoError(t, tbl.Act(1, round.Stand))

	v = tbl.Snapshot()
	assert.Equal(t, round.Finished, v.State)
	require.Len(t, v.Settlements, 1)
	s := v.Settlements[0]
	assert.Equal(t, game.PlayerLoses, s.Outcome)
	assert.Equal(t, 5.0, s.Insurance)
	assert.Equal(t, 15.0, s.Payout)
	assert.Zero(t, s.Net)
	assert.Equal(t, 100.0, balance(t, tbl, 1))
}

func TestInsuranceLostWithoutDealerNatural(t *testing.T) {
	tbl := solo(t, "9h As 7d 7c")
	startWithBets(t, tbl, 10)

	require.NoError(t, tbl.Act(1, round.Insurance))
	require.NoError(t, tbl.Act(1, round.Stand))

	v := tbl.Snapshot()
	assert.Equal(t, round.Finished, v.State)
	assert.Equal(t, 18, v.DealerTotal)
	s := v.Settlements[0]
	assert.Equal(t, game.PlayerLoses, s.Outcome)
	assert.Equal(t, 5.0, s.Insurance)
	assert.Zero(t, s.Payout)
	assert.Equal(t, -15.0, s.Net)
	assert.Equal(t, 85.0, balance(t, tbl, 1))
}

func TestInsuranceNeedsDealerAce(t *testing.T) {
	tbl := solo(t, "Th Tc 6d 7s")
	startWithBets(t, tbl, 10)

	assert.NotContains(t, tbl.Snapshot().Legal, round.Insurance)
	assert.ErrorIs(t, tbl.Act(1, round.Insurance), ErrActionNotAllowed)
	assert.Equal(t, 90.0, balance(t, tbl, 1))
}

func TestTurnOrder(t *testing.T) {
	tbl := newTable(t, rules.Default(), "Th 9h Tc 8d 7s 7c", []game.PlayerID{1, 2})
	startWithBets(t, tbl, 10)

	assert.ErrorIs(t, tbl.Act(2, round.Hit), ErrNotYourTurn)
	require.NoError(t, tbl.Act(1, round.Stand))

	v := tbl.Snapshot()
	assert.Equal(t, game.PlayerID(2), v.Turn)
	assert.Equal(t, round.PlayerTurn, v.State)

	require.NoError(t, tbl.Act(2, round.Stand))
	v = tbl.Snapshot()
	assert.Equal(t, round.Finished, v.State)
	require.Len(t, v.Settlements, 2)
	assert.Equal(t, game.PlayerWins, v.Settlements[0].Outcome)
	assert.Equal(t, game.PlayerLoses, v.Settlements[1].Outcome)
}

func TestActUnknownPlayer(t *testing.T) {
	tbl := solo(t, "Th Tc 9d 7s")
	startWithBets(t, tbl, 10)
	assert.ErrorIs(t, tbl.Act(9, round.Stand), game.ErrUnknownPlayer)
}

func TestHitWhileWaitingForBets(t *testing.T) {
	tbl := solo(t, "")

	err := tbl.Act(1, round.Hit)
	var invalid *round.InvalidActionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, round.WaitingForBets, invalid.State)
	assert.Equal(t, []round.Action{round.StartRound, round.Cancel}, invalid.Legal)
}

func TestDealerActionsRejectedFromPlayers(t *testing.T) {
	tbl := solo(t, "Th Tc 9d 7s")
	startWithBets(t, tbl, 10)
	assert.ErrorIs(t, tbl.Act(1, round.DealerHit), round.ErrInvalidAction)
}

func TestStartRequiresBets(t *testing.T) {
	tbl := solo(t, "")
	assert.ErrorIs(t, tbl.Start(), ErrMissingBet)
	assert.Equal(t, round.WaitingForBets, tbl.Snapshot().State)
}

func TestPlaceBetValidation(t *testing.T) {
	tbl := solo(t, "")
	assert.ErrorIs(t, tbl.PlaceBet(1, 0), ledger.ErrInvalidBet)
	assert.ErrorIs(t, tbl.PlaceBet(1, 200), ledger.ErrInsufficientFunds)
	assert.ErrorIs(t, tbl.PlaceBet(7, 10), game.ErrUnknownPlayer)
}

func TestCancelRefunds(t *testing.T) {
	tbl := solo(t, "")
	require.NoError(t, tbl.PlaceBet(1, 40))
	assert.Equal(t, 60.0, balance(t, tbl, 1))

	require.NoError(t, tbl.Cancel())
	assert.Equal(t, round.Finished, tbl.Snapshot().State)
	assert.Equal(t, 100.0, balance(t, tbl, 1))

	require.NoError(t, tbl.NewRound())
	assert.Equal(t, round.WaitingForBets, tbl.Snapshot().State)
}

func TestCancelNotAllowedDuringPlay(t *testing.T) {
	tbl := solo(t, "Th Tc 9d 7s")
	startWithBets(t, tbl, 10)
	assert.ErrorIs(t, tbl.Cancel(), round.ErrInvalidAction)
}

func TestSeveralRounds(t *testing.T) {
	tbl := solo(t, "Th Tc 9d 7s Th Tc 8d 8s")

	startWithBets(t, tbl, 10)
	require.NoError(t, tbl.Act(1, round.Stand))
	require.NoError(t, tbl.NewRound())

	seat, _ := tbl.Snapshot().Seat(1)
	assert.Equal(t, Waiting, seat.Status)

	startWithBets(t, tbl, 10)
	require.NoError(t, tbl.Act(1, round.Stand))

	v := tbl.Snapshot()
	assert.Equal(t, 2, v.Round.Number)
	assert.Equal(t, game.Push, v.Settlements[0].Outcome)
	assert.Equal(t, 110.0, balance(t, tbl, 1))
}

func TestSeatOnlyBetweenRounds(t *testing.T) {
	tbl := solo(t, "Th Tc 9d 7s")
	startWithBets(t, tbl, 10)
	assert.Error(t, tbl.Seat([]game.Player{{ID: 2, Balance: 50}}))
}

func TestTurnTimeoutStands(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	clock := quartz.NewMock(t)
	var notified atomic.Int32
	tbl := solo(t, "Th Tc 9d 7s",
		WithClock(clock),
		WithTurnTimeout(30*time.Second),
		WithNotify(func() { notified.Add(1) }),
	)
	startWithBets(t, tbl, 10)
	assert.Equal(t, round.PlayerTurn, tbl.Snapshot().State)

	clock.Advance(30 * time.Second).MustWait(ctx)

	v := tbl.Snapshot()
	assert.Equal(t, round.Finished, v.State)
	seat, _ := v.Seat(1)
	assert.Equal(t, TimedOut, seat.Status)
	assert.Equal(t, game.PlayerWins, v.Settlements[0].Outcome)
	assert.Equal(t, int32(1), notified.Load())
}

func TestActionRearmsTurnTimer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	clock := quartz.NewMock(t)
	tbl := solo(t, "2h Tc 3d 7s 4h", WithClock(clock), WithTurnTimeout(30*time.Second))
	startWithBets(t, tbl, 10)

	clock.Advance(20 * time.Second).MustWait(ctx)
	require.NoError(t, tbl.Act(1, round.Hit))

	clock.Advance(20 * time.Second).MustWait(ctx)
	assert.Equal(t, round.PlayerTurn, tbl.Snapshot().State)

	clock.Advance(10 * time.Second).MustWait(ctx)
	assert.Equal(t, round.Finished, tbl.Snapshot().State)
}

func TestStatusTokens(t *testing.T) {
	skip := rules.Default().Skip
	assert.Equal(t, round.Timeout, TimedOut.token())
	assert.Equal(t, round.Stand, Stood.token())
	assert.True(t, Stood.needsDealer(skip))
	assert.False(t, Busted.needsDealer(skip))
	assert.True(t, Busted.needsDealer(rules.SkipDealer{}))
	assert.True(t, Natural.Done())
	assert.False(t, Playing.Done())
}
