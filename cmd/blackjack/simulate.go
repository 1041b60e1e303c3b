package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lox/blackjack/internal/bot"
	"github.com/lox/blackjack/internal/fileutil"
	"github.com/lox/blackjack/internal/simulator"
)

// SimulateCmd plays many rounds with a bot policy and reports the results
type SimulateCmd struct {
	Rounds int     `short:"r" default:"100000" help:"Rounds to play"`
	Tables int     `short:"t" default:"4" help:"Tables played in parallel"`
	Policy string  `short:"p" default:"basic" help:"Bot policy (${policies})"`
	Bet    float64 `help:"Stake per round (defaults to the table's default bet)"`
	Seed   int64   `help:"Deterministic seed"`
	Quiet  bool    `short:"q" help:"Hide progress"`
	Output string  `short:"o" help:"Write a JSON report to this file" type:"path"`
}

func (c *SimulateCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	logger, err := setupLogger(os.Stderr, cfg.Server.LogLevel, cli.Debug)
	if err != nil {
		return err
	}
	r, err := cfg.HouseRules()
	if err != nil {
		return err
	}
	policy, err := bot.ByName(c.Policy)
	if err != nil {
		return fmt.Errorf("%w (choose from %s)", err, strings.Join(bot.Names(), ", "))
	}

	seed := c.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger.Info("Starting simulation", "rounds", c.Rounds, "tables", c.Tables,
		"policy", policy.Name(), "seed", seed)

	sim := simulator.Config{
		Rounds: c.Rounds,
		Tables: c.Tables,
		Seed:   seed,
		Policy: policy,
		Bet:    c.Bet,
		Rules:  r,
		Logger: logger,
	}
	var progress *ProgressMonitor
	if !c.Quiet {
		progress = NewProgressMonitor(os.Stderr, c.Rounds)
		sim.Progress = progress.Add
	}

	ctx := setupSignalHandler(logger)
	start := time.Now()
	stats, err := simulator.New(sim).Run(ctx)
	if progress != nil {
		progress.Finish()
	}
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf(" %s: %d rounds in %s ", policy.Name(), stats.Rounds,
		time.Since(start).Round(time.Millisecond))))
	fmt.Println(stats.Summary())

	if c.Output != "" {
		if err := fileutil.WriteJSON(c.Output, stats.Report()); err != nil {
			return err
		}
		logger.Info("Wrote report", "path", c.Output)
	}
	return nil
}
