package main

import (
	"context"
	"os"
	"time"

	"github.com/lox/blackjack/internal/server"
)

// ServeCmd runs the WebSocket server
type ServeCmd struct {
	Addr string `help:"Listen address (overrides the config)"`
}

func (c *ServeCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	logger, err := setupLogger(os.Stderr, cfg.Server.LogLevel, cli.Debug)
	if err != nil {
		return err
	}

	settings, err := sessionSettings(cfg)
	if err != nil {
		return err
	}

	addr := cfg.ServerAddress()
	if c.Addr != "" {
		addr = c.Addr
	}
	srv := server.NewServer(addr, settings, logger)

	logger.Info("Starting blackjack server",
		"address", addr,
		"rules", settings.Rules.Name,
		"min_bet", settings.Rules.MinBet,
		"max_bet", settings.Rules.MaxBet,
		"turn_timeout", settings.TurnTimeout,
		"npcs", len(settings.NPCs))

	ctx := setupSignalHandler(logger)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
