package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/lox/blackjack/internal/bot"
	"github.com/lox/blackjack/internal/config"
	"github.com/lox/blackjack/internal/session"
	"github.com/muesli/termenv"
)

var titleStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#FAFAFA")).
	Background(lipgloss.Color("#7D56F4")).
	Padding(0, 1).
	Bold(true)

func disableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// loadConfig reads the HCL file, applies environment overrides and validates
func loadConfig(cli *CLI) (*config.Config, error) {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(cli.EnvFile); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setupLogger returns a logger writing to w at the configured level
func setupLogger(w io.Writer, level string, debug bool) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if debug {
		lvl = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	}), nil
}

// setupSignalHandler creates a context that is cancelled on interrupt signals
func setupSignalHandler(logger *log.Logger) context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("Received signal, shutting down gracefully", "signal", sig.String())
		cancel()
	}()

	return ctx
}

// sessionSettings builds table settings from the configuration
func sessionSettings(cfg *config.Config) (session.Settings, error) {
	r, err := cfg.HouseRules()
	if err != nil {
		return session.Settings{}, err
	}
	timeout, err := cfg.TurnTimeout()
	if err != nil {
		return session.Settings{}, err
	}

	settings := session.Settings{
		Rules:       r,
		Balance:     cfg.Player.Balance,
		TurnTimeout: timeout,
		Seed:        cfg.Player.Seed,
	}
	for _, npc := range cfg.NPCs {
		policy, err := bot.ByName(npc.Policy)
		if err != nil {
			return session.Settings{}, fmt.Errorf("npc %s: %w", npc.Name, err)
		}
		settings.NPCs = append(settings.NPCs, session.NPC{
			Name:    npc.Name,
			Policy:  policy,
			Balance: npc.Balance,
		})
	}
	return settings, nil
}
