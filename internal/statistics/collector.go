package statistics

import (
	"sync"

	"github.com/lox/blackjack/internal/game"
)

// Collector subscribes to round settlements and keeps statistics per player
// and for the whole table.
type Collector struct {
	mu      sync.Mutex
	table   Statistics
	players map[game.PlayerID]*Statistics
}

// NewCollector creates a collector and subscribes it to bus
func NewCollector(bus game.EventBus) *Collector {
	c := &Collector{players: make(map[game.PlayerID]*Statistics)}
	if bus != nil {
		bus.Subscribe(c)
	}
	return c
}

// OnEvent implements game.EventSubscriber
func (c *Collector) OnEvent(event game.GameEvent) {
	e, ok := event.(game.RoundSettledEvent)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range e.Settlements {
		r := FromSettlement(s)
		c.table.Add(r)
		ps, ok := c.players[s.PlayerID]
		if !ok {
			ps = &Statistics{}
			c.players[s.PlayerID] = ps
		}
		ps.Add(r)
	}
}

// Table returns a copy of the statistics across all players
func (c *Collector) Table() Statistics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.table.clone()
}

// Player returns a copy of one player's statistics
func (c *Collector) Player(id game.PlayerID) Statistics {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ps, ok := c.players[id]; ok {
		return ps.clone()
	}
	return Statistics{}
}

func (s *Statistics) clone() Statistics {
	out := *s
	out.Values = append([]float64(nil), s.Values...)
	out.Outcomes = make(map[game.Outcome]int, len(s.Outcomes))
	for o, n := range s.Outcomes {
		out.Outcomes[o] = n
	}
	return out
}
