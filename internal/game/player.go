package game

// PlayerID identifies a seated player. Hands are looked up by id rather than
// by Player value so a player record can be replaced (for example after a
// balance update) without losing its hand.
type PlayerID int

// Player represents a participant at the table
type Player struct {
	ID      PlayerID
	Name    string
	Balance float64
}

// WithBalance returns a copy of the player with an updated balance
func (p Player) WithBalance(balance float64) Player {
	p.Balance = balance
	return p
}
