package game

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lox/blackjack/internal/deck"
)

// EventType represents a game event type with type safety
type EventType string

// EventType constants for round lifecycle events
const (
	EventTypeRoundStart   EventType = "round_start"
	EventTypeCardDealt    EventType = "card_dealt"
	EventTypeReshuffle    EventType = "reshuffle"
	EventTypeDealerTurn   EventType = "dealer_turn"
	EventTypeRoundEnd     EventType = "round_end"
	EventTypeRoundSettled EventType = "round_settled"
)

// String returns the string representation of the event type
func (et EventType) String() string {
	return string(et)
}

// GameEvent represents any event that occurs during a round
type GameEvent interface {
	EventType() EventType
	Timestamp() time.Time
}

// RoundStartEvent is published when a round begins
type RoundStartEvent struct {
	Round     Round
	Players   []Player
	timestamp time.Time
}

func (e RoundStartEvent) EventType() EventType { return EventTypeRoundStart }
func (e RoundStartEvent) Timestamp() time.Time { return e.timestamp }

// CardDealtEvent is published for every card drawn into a hand
type CardDealtEvent struct {
	RoundNumber int
	PlayerID    PlayerID
	ToDealer    bool
	Card        deck.Card
	Total       int
	timestamp   time.Time
}

func (e CardDealtEvent) EventType() EventType { return EventTypeCardDealt }
func (e CardDealtEvent) Timestamp() time.Time { return e.timestamp }

// ReshuffleEvent is published when an exhausted shoe is replenished mid-round
type ReshuffleEvent struct {
	RoundNumber int
	Reshuffles  int
	timestamp   time.Time
}

func (e ReshuffleEvent) EventType() EventType { return EventTypeReshuffle }
func (e ReshuffleEvent) Timestamp() time.Time { return e.timestamp }

// DealerTurnEvent is published when the dealer finishes drawing
type DealerTurnEvent struct {
	RoundNumber int
	Cards       []deck.Card
	Total       int
	Drawn       int
	timestamp   time.Time
}

func (e DealerTurnEvent) EventType() EventType { return EventTypeDealerTurn }
func (e DealerTurnEvent) Timestamp() time.Time { return e.timestamp }

// RoundEndEvent is published when the engine closes a round
type RoundEndEvent struct {
	Round     Round
	Results   []Result
	timestamp time.Time
}

func (e RoundEndEvent) EventType() EventType { return EventTypeRoundEnd }
func (e RoundEndEvent) Timestamp() time.Time { return e.timestamp }

// Settlement describes the money side of one player's result
type Settlement struct {
	PlayerID    PlayerID
	Name        string
	Outcome     Outcome
	Natural     bool
	Doubled     bool
	Surrendered bool
	Stake       float64
	Insurance   float64
	Payout      float64
	Net         float64
	Balance     float64
}

// RoundSettledEvent is published once bets for a round have been paid out
type RoundSettledEvent struct {
	Round       Round
	Settlements []Settlement
	timestamp   time.Time
}

func (e RoundSettledEvent) EventType() EventType { return EventTypeRoundSettled }
func (e RoundSettledEvent) Timestamp() time.Time { return e.timestamp }

// NewRoundSettledEvent creates a settlement event stamped at the given time
func NewRoundSettledEvent(round Round, settlements []Settlement, at time.Time) RoundSettledEvent {
	out := make([]Settlement, len(settlements))
	copy(out, settlements)
	return RoundSettledEvent{
		Round:       round,
		Settlements: out,
		timestamp:   at,
	}
}

// EventSubscriber can subscribe to game events
type EventSubscriber interface {
	OnEvent(event GameEvent)
}

// EventFunc adapts a plain callback to EventSubscriber
type EventFunc func(event GameEvent)

// OnEvent calls f(event)
func (f EventFunc) OnEvent(event GameEvent) { f(event) }

// EventBus manages event publishing and subscription
type EventBus interface {
	Subscribe(subscriber EventSubscriber)
	Unsubscribe(subscriber EventSubscriber)
	Publish(event GameEvent)
}

// SimpleEventBus is a basic in-memory event bus implementation. Delivery is
// synchronous, in subscription order.
type SimpleEventBus struct {
	mu          sync.RWMutex
	subscribers []EventSubscriber
}

// NewEventBus creates a new event bus
func NewEventBus() EventBus {
	return &SimpleEventBus{
		subscribers: make([]EventSubscriber, 0),
	}
}

// Subscribe adds a subscriber to receive events
func (bus *SimpleEventBus) Subscribe(subscriber EventSubscriber) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.subscribers = append(bus.subscribers, subscriber)
}

// Unsubscribe removes a subscriber from receiving events. EventFunc values
// are not comparable and cannot be unsubscribed.
func (bus *SimpleEventBus) Unsubscribe(subscriber EventSubscriber) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	if _, ok := subscriber.(EventFunc); ok {
		return
	}
	for i, sub := range bus.subscribers {
		if _, ok := sub.(EventFunc); ok {
			continue
		}
		if sub == subscriber {
			bus.subscribers = append(bus.subscribers[:i], bus.subscribers[i+1:]...)
			break
		}
	}
}

// Publish sends an event to all subscribers
func (bus *SimpleEventBus) Publish(event GameEvent) {
	bus.mu.RLock()
	subs := make([]EventSubscriber, len(bus.subscribers))
	copy(subs, bus.subscribers)
	bus.mu.RUnlock()

	for _, subscriber := range subs {
		subscriber.OnEvent(event)
	}
}

// EventFormatter renders events as single human-readable lines for logs and
// the console. Names maps player ids to display names.
type EventFormatter struct {
	Names map[PlayerID]string
}

// Format renders an event, or returns "" for events with no textual form
func (ef EventFormatter) Format(event GameEvent) string {
	switch e := event.(type) {
	case RoundStartEvent:
		return fmt.Sprintf("*** ROUND %d *** %d player(s)", e.Round.Number, len(e.Players))
	case CardDealtEvent:
		if e.ToDealer {
			return fmt.Sprintf("Dealer draws %s (%d)", e.Card, e.Total)
		}
		return fmt.Sprintf("%s draws %s (%d)", ef.name(e.PlayerID), e.Card, e.Total)
	case ReshuffleEvent:
		return "Shoe exhausted, reshuffling"
	case DealerTurnEvent:
		if e.Total > 21 {
			return fmt.Sprintf("Dealer busts with %s (%d)", deck.FormatCards(e.Cards), e.Total)
		}
		return fmt.Sprintf("Dealer stands with %s (%d)", deck.FormatCards(e.Cards), e.Total)
	case RoundSettledEvent:
		var b strings.Builder
		for i, s := range e.Settlements {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(ef.formatSettlement(s))
		}
		return b.String()
	default:
		return ""
	}
}

func (ef EventFormatter) formatSettlement(s Settlement) string {
	label := s.Outcome.String()
	switch {
	case s.Surrendered:
		label = "surrender"
	case s.Natural && s.Outcome.PlayerWon():
		label = "blackjack"
	}
	name := s.Name
	if name == "" {
		name = ef.name(s.PlayerID)
	}
	if s.Insurance > 0 {
		return fmt.Sprintf("%s: %s, stake $%.2f, insured $%.2f, paid $%.2f, balance $%.2f",
			name, label, s.Stake, s.Insurance, s.Payout, s.Balance)
	}
	return fmt.Sprintf("%s: %s, stake $%.2f, paid $%.2f, balance $%.2f", name, label, s.Stake, s.Payout, s.Balance)
}

func (ef EventFormatter) name(id PlayerID) string {
	if n, ok := ef.Names[id]; ok {
		return n
	}
	return fmt.Sprintf("Player %d", id)
}
