package server

// MessageType represents a WebSocket message type with type safety
type MessageType string

// WebSocket message type constants
const (
	// Client to server messages
	MessageTypeBet      MessageType = "bet"
	MessageTypeAction   MessageType = "action"
	MessageTypeNewRound MessageType = "new_round"
	MessageTypeStats    MessageType = "stats"

	// Server to client messages
	MessageTypeState      MessageType = "state"
	MessageTypeSettled    MessageType = "settled"
	MessageTypeStatistics MessageType = "statistics"
	MessageTypeError      MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}

// Error codes sent in ErrorData
const (
	ErrCodeInvalidMessage = "invalid_message"
	ErrCodeUnknownType    = "unknown_message_type"
	ErrCodeInvalidAction  = "invalid_action"
	ErrCodeInvalidBet     = "invalid_bet"
	ErrCodeNotYourTurn    = "not_your_turn"
	ErrCodeRejected       = "rejected"
)
