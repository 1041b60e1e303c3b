package main

import (
	"fmt"
	"os"

	"github.com/coder/quartz"
	"github.com/lox/blackjack/internal/session"
	"github.com/lox/blackjack/internal/tui"
)

// PlayCmd runs the console game
type PlayCmd struct {
	Name    string  `short:"n" help:"Player name (overrides the config)"`
	Balance float64 `help:"Starting balance (overrides the config)"`
	Seed    int64   `help:"Deterministic shoe seed"`
}

func (c *PlayCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	if c.Name != "" {
		cfg.Player.Name = c.Name
	}
	if c.Balance > 0 {
		cfg.Player.Balance = c.Balance
	}
	if c.Seed != 0 {
		cfg.Player.Seed = c.Seed
	}

	// the TUI owns the terminal, so logs go to a file
	logFile, err := os.OpenFile(cfg.Server.LogFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	logger, err := setupLogger(logFile, cfg.Server.LogLevel, cli.Debug)
	if err != nil {
		return err
	}

	settings, err := sessionSettings(cfg)
	if err != nil {
		return err
	}
	logger.Info("Starting console game", "player", cfg.Player.Name, "rules", settings.Rules.Name,
		"npcs", len(settings.NPCs), "timeout", settings.TurnTimeout)

	var model *tui.Model
	s, err := session.New(cfg.Player.Name, settings, quartz.NewReal(), logger, nil,
		func() { model.OnChange() })
	if err != nil {
		return err
	}
	model = tui.New(s, logger)

	if err := model.Run(); err != nil {
		return err
	}

	stats := s.Statistics()
	fmt.Println(titleStyle.Render(" Thanks for playing "))
	fmt.Println(stats.Summary())
	return nil
}
