package table

import (
	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/hand"
	"github.com/lox/blackjack/internal/round"
)

// SeatView is one seat as shown to players
type SeatView struct {
	Player  game.Player
	Cards   []deck.Card
	Total   int
	Soft    bool
	Status  Status
	Stake   float64
	Balance float64
}

// View is a read-only snapshot of the table for renderers and the wire.
// While players are acting only the dealer's up card is visible.
type View struct {
	State        round.State
	Round        game.Round
	Turn         game.PlayerID
	HasTurn      bool
	Seats        []SeatView
	Dealer       []deck.Card
	DealerTotal  int
	DealerHidden bool
	Legal        []round.Action
	Settlements  []game.Settlement
}

// Seat returns the view of one player's seat
func (v View) Seat(id game.PlayerID) (SeatView, bool) {
	for _, s := range v.Seats {
		if s.Player.ID == id {
			return s, true
		}
	}
	return SeatView{}, false
}

// Snapshot returns the current view of the table
func (t *Table) Snapshot() View {
	t.mu.Lock()
	defer t.mu.Unlock()

	v := View{
		State: t.machine.State(),
		Round: t.engine.CurrentRound(),
	}
	if t.turn >= 0 {
		v.Turn = t.players[t.turn].ID
		v.HasTurn = true
	}

	for _, p := range t.players {
		sv := SeatView{Player: p, Status: t.status[p.ID]}
		if h, err := t.engine.PlayerHand(p.ID); err == nil {
			sv.Cards = h.Cards()
			sv.Total, sv.Soft = hand.Score(sv.Cards)
		}
		sv.Stake, _ = t.ledger.Stake(p.ID)
		sv.Balance, _ = t.ledger.Balance(p.ID)
		v.Seats = append(v.Seats, sv)
	}

	dealer := t.engine.DealerHand().Cards()
	switch v.State {
	case round.Dealing, round.PlayerTurn:
		if len(dealer) > 0 {
			v.Dealer = dealer[:1]
			v.DealerTotal = dealer[0].Points()
			v.DealerHidden = len(dealer) > 1
		}
	default:
		v.Dealer = dealer
		v.DealerTotal, _ = hand.Score(dealer)
	}

	v.Legal = t.legal()
	v.Settlements = append([]game.Settlement(nil), t.settlements...)
	return v
}
