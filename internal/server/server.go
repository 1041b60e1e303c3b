// Package server serves blackjack over WebSocket. Every connection gets its
// own table, seated with the connecting player and any configured NPCs.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/lox/blackjack/internal/session"
)

// Server represents the WebSocket server
type Server struct {
	addr        string
	settings    session.Settings
	upgrader    websocket.Upgrader
	clock       quartz.Clock
	logger      *log.Logger
	mu          sync.Mutex
	connections map[*Connection]struct{}
	httpServer  *http.Server
}

// Option configures a Server
type Option func(*Server)

// WithClock sets the clock used for turn timeouts and message timestamps
func WithClock(clock quartz.Clock) Option {
	return func(s *Server) { s.clock = clock }
}

// NewServer creates a new WebSocket server
func NewServer(addr string, settings session.Settings, logger *log.Logger, opts ...Option) *Server {
	s := &Server{
		addr:     addr,
		settings: settings,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clock:       quartz.NewReal(),
		logger:      logger.WithPrefix("server"),
		connections: make(map[*Connection]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP routes: /ws for play and /health for probes
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/ws", s.handleWebSocket)
	r.Get("/health", s.handleHealth)
	return r
}

// Start listens on the configured address until Shutdown is called
func (s *Server) Start() error {
	s.mu.Lock()
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info("Starting WebSocket server", "addr", s.addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and closes every open one
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	conns := make([]*Connection, 0, len(s.connections))
	for c := range s.connections {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		_ = c.Close()
	}
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Connections returns the number of open connections
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.connections)
}

// handleWebSocket upgrades the request and seats the player at a new table.
// The player's name comes from the "name" query parameter.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "Player"
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(ws, s.clock, s.logger)
	sess, err := session.New(name, s.settings, s.clock, s.logger.With("player", name),
		client.sendSettled, client.sendState)
	if err != nil {
		s.logger.Error("Failed to create table", "error", err)
		_ = ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, err.Error()))
		_ = ws.Close()
		return
	}
	client.sess = sess

	s.mu.Lock()
	s.connections[client] = struct{}{}
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Client connected", "player", name, "total", total)

	client.Start()
	client.sendState()

	go func() {
		<-client.Done()
		s.mu.Lock()
		delete(s.connections, client)
		total := len(s.connections)
		s.mu.Unlock()
		s.logger.Info("Client disconnected", "player", name, "total", total)
	}()
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}
