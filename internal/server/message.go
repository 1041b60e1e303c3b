package server

import (
	"encoding/json"
	"time"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/statistics"
	"github.com/lox/blackjack/internal/table"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a new message stamped with the given time
func NewMessage(messageType MessageType, data any, at time.Time) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: at,
	}, nil
}

// Client → Server Messages

type BetData struct {
	Amount float64 `json:"amount"`
}

type ActionData struct {
	Action string `json:"action"`
}

// Server → Client Messages

type ErrorData struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Legal   []string `json:"legal,omitempty"`
}

type SeatData struct {
	PlayerID int      `json:"playerId"`
	Name     string   `json:"name"`
	Cards    []string `json:"cards"`
	Total    int      `json:"total"`
	Soft     bool     `json:"soft"`
	Status   string   `json:"status"`
	Stake    float64  `json:"stake"`
	Balance  float64  `json:"balance"`
	You      bool     `json:"you,omitempty"`
}

type StateData struct {
	State        string     `json:"state"`
	Round        int        `json:"round"`
	RoundID      string     `json:"roundId,omitempty"`
	Turn         *int       `json:"turn,omitempty"`
	Seats        []SeatData `json:"seats"`
	Dealer       []string   `json:"dealer"`
	DealerTotal  int        `json:"dealerTotal"`
	DealerHidden bool       `json:"dealerHidden"`
	Legal        []string   `json:"legal"`
}

type SettlementData struct {
	PlayerID    int     `json:"playerId"`
	Name        string  `json:"name"`
	Outcome     string  `json:"outcome"`
	Blackjack   bool    `json:"blackjack"`
	Doubled     bool    `json:"doubled"`
	Surrendered bool    `json:"surrendered"`
	Stake       float64 `json:"stake"`
	Insurance   float64 `json:"insurance,omitempty"`
	Payout      float64 `json:"payout"`
	Net         float64 `json:"net"`
	Balance     float64 `json:"balance"`
}

type SettledData struct {
	Round       int              `json:"round"`
	RoundID     string           `json:"roundId"`
	Settlements []SettlementData `json:"settlements"`
}

type StatisticsData struct {
	Rounds     int     `json:"rounds"`
	Wins       int     `json:"wins"`
	Losses     int     `json:"losses"`
	Pushes     int     `json:"pushes"`
	Blackjacks int     `json:"blackjacks"`
	Net        float64 `json:"net"`
	WinRate    float64 `json:"winRate"`
}

func cardStrings(cards []deck.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.String()
	}
	return out
}

// StateDataFromView converts a table snapshot for the player you
func StateDataFromView(v table.View, you game.PlayerID) StateData {
	data := StateData{
		State:        v.State.String(),
		Round:        v.Round.Number,
		RoundID:      v.Round.ID,
		Dealer:       cardStrings(v.Dealer),
		DealerTotal:  v.DealerTotal,
		DealerHidden: v.DealerHidden,
		Legal:        make([]string, 0, len(v.Legal)),
	}
	if v.HasTurn {
		turn := int(v.Turn)
		data.Turn = &turn
	}
	for _, a := range v.Legal {
		data.Legal = append(data.Legal, string(a))
	}
	for _, s := range v.Seats {
		data.Seats = append(data.Seats, SeatData{
			PlayerID: int(s.Player.ID),
			Name:     s.Player.Name,
			Cards:    cardStrings(s.Cards),
			Total:    s.Total,
			Soft:     s.Soft,
			Status:   s.Status.String(),
			Stake:    s.Stake,
			Balance:  s.Balance,
			You:      s.Player.ID == you,
		})
	}
	return data
}

// SettledDataFromEvent converts a settlement event
func SettledDataFromEvent(e game.RoundSettledEvent) SettledData {
	data := SettledData{Round: e.Round.Number, RoundID: e.Round.ID}
	for _, s := range e.Settlements {
		data.Settlements = append(data.Settlements, SettlementData{
			PlayerID:    int(s.PlayerID),
			Name:        s.Name,
			Outcome:     s.Outcome.String(),
			Blackjack:   s.Natural && s.Outcome.PlayerWon(),
			Doubled:     s.Doubled,
			Surrendered: s.Surrendered,
			Stake:       s.Stake,
			Insurance:   s.Insurance,
			Payout:      s.Payout,
			Net:         s.Net,
			Balance:     s.Balance,
		})
	}
	return data
}

// StatisticsDataFrom summarises statistics for the wire
func StatisticsDataFrom(s statistics.Statistics) StatisticsData {
	return StatisticsData{
		Rounds:     s.Rounds,
		Wins:       s.Wins,
		Losses:     s.Losses,
		Pushes:     s.Pushes,
		Blackjacks: s.Blackjacks,
		Net:        s.SumNet,
		WinRate:    s.WinRate(),
	}
}
