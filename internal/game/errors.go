package game

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned when ConfigurePlayers is given no players
	ErrConfiguration = errors.New("configuration error: at least one player is required")
	// ErrNoPlayersConfigured is returned when a round is started before any players are seated
	ErrNoPlayersConfigured = errors.New("no players configured: call ConfigurePlayers before StartRound")
	// ErrNoActiveRound is returned when a round operation is attempted outside a round
	ErrNoActiveRound = errors.New("no active round: call StartRound first")
	// ErrRoundInProgress is returned when results are asked for before the round is closed
	ErrRoundInProgress = errors.New("round in progress: call EndRound or CloseRound first")
	// ErrUnknownPlayer is matched by UnknownPlayerError
	ErrUnknownPlayer = errors.New("unknown player")
)

// UnknownPlayerError reports an action for a player who is not part of the round
type UnknownPlayerError struct {
	ID PlayerID
}

func (e *UnknownPlayerError) Error() string {
	return fmt.Sprintf("unknown player %d: not configured for this round", e.ID)
}

// Is lets errors.Is(err, ErrUnknownPlayer) match
func (e *UnknownPlayerError) Is(target error) bool {
	return target == ErrUnknownPlayer
}

// DuplicatePlayerError reports a player id seated twice
type DuplicatePlayerError struct {
	ID PlayerID
}

func (e *DuplicatePlayerError) Error() string {
	return fmt.Sprintf("configuration error: player %d seated twice", e.ID)
}

// Is lets errors.Is(err, ErrConfiguration) match
func (e *DuplicatePlayerError) Is(target error) bool {
	return target == ErrConfiguration
}
