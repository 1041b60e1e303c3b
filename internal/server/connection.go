package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/ledger"
	"github.com/lox/blackjack/internal/round"
	"github.com/lox/blackjack/internal/session"
	"github.com/lox/blackjack/internal/table"
)

// Connection represents a WebSocket connection to a client playing at its
// own table
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	sess      *session.Session
	clock     quartz.Clock
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	mu        sync.Mutex
	closed    bool
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, clock quartz.Clock, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:   conn,
		send:   make(chan *Message, 256),
		clock:  clock,
		logger: logger.WithPrefix("conn"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Done is closed once the connection has been closed
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues a message for the client
func (c *Connection) SendMessage(msg *Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnectionClosed
	}

	select {
	case c.send <- msg:
		return nil
	default:
		c.logger.Warn("Connection send buffer full, dropping message", "type", msg.Type)
		return ErrSendBufferFull
	}
}

// Send builds and queues a message, logging failures
func (c *Connection) Send(messageType MessageType, data any) {
	msg, err := NewMessage(messageType, data, c.clock.Now("server", "message"))
	if err != nil {
		c.logger.Error("Failed to create message", "type", messageType, "error", err)
		return
	}
	_ = c.SendMessage(msg) // Ignore send errors on closing connections
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096
)

var (
	ErrConnectionClosed = websocket.ErrCloseSent
	ErrSendBufferFull   = errors.New("send buffer full")
)

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}
		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type)

	switch msg.Type {
	case MessageTypeBet:
		var data BetData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError(ErrCodeInvalidMessage, "Failed to parse bet data", nil)
			return
		}
		c.reply(c.sess.Bet(data.Amount))

	case MessageTypeAction:
		var data ActionData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError(ErrCodeInvalidMessage, "Failed to parse action data", nil)
			return
		}
		a, err := round.ParseAction(data.Action)
		if err != nil {
			c.sendError(ErrCodeInvalidAction, err.Error(), legalStrings(c.sess.View().Legal))
			return
		}
		c.reply(c.sess.Act(a))

	case MessageTypeNewRound:
		c.reply(c.sess.NewRound())

	case MessageTypeStats:
		c.Send(MessageTypeStatistics, StatisticsDataFrom(c.sess.Statistics()))

	default:
		c.sendError(ErrCodeUnknownType, "Unknown message type: "+msg.Type.String(), nil)
	}
}

// reply sends an error for err, or the new table state
func (c *Connection) reply(err error) {
	if err != nil {
		c.sendFailure(err)
		return
	}
	c.sendState()
}

func (c *Connection) sendState() {
	c.Send(MessageTypeState, StateDataFromView(c.sess.View(), session.Human))
}

func (c *Connection) sendSettled(e game.RoundSettledEvent) {
	c.Send(MessageTypeSettled, SettledDataFromEvent(e))
}

func (c *Connection) sendFailure(err error) {
	var invalid *round.InvalidActionError
	switch {
	case errors.As(err, &invalid):
		c.sendError(ErrCodeInvalidAction, err.Error(), legalStrings(invalid.Legal))
	case errors.Is(err, ledger.ErrInvalidBet), errors.Is(err, ledger.ErrInsufficientFunds):
		c.sendError(ErrCodeInvalidBet, err.Error(), nil)
	case errors.Is(err, table.ErrNotYourTurn):
		c.sendError(ErrCodeNotYourTurn, err.Error(), nil)
	default:
		c.sendError(ErrCodeRejected, err.Error(), nil)
	}
}

// sendError sends an error message to the client
func (c *Connection) sendError(code, message string, legal []string) {
	c.Send(MessageTypeError, ErrorData{Code: code, Message: message, Legal: legal})
}

func legalStrings(actions []round.Action) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = string(a)
	}
	return out
}
