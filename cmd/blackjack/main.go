package main

import (
	"strings"

	"github.com/alecthomas/kong"
	"github.com/lox/blackjack/internal/bot"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Config  string           `short:"c" default:"blackjack.hcl" help:"HCL configuration file" type:"path"`
	EnvFile string           `name:"env-file" default:".env" help:"File of BLACKJACK_* overrides" type:"path"`
	NoColor bool             `name:"no-color" help:"Disable colour output"`
	Debug   bool             `help:"Enable debug logging"`

	Play     PlayCmd     `cmd:"" default:"withargs" help:"Play at a local table in the terminal"`
	Serve    ServeCmd    `cmd:"" help:"Serve tables over WebSocket"`
	Simulate SimulateCmd `cmd:"" help:"Simulate rounds played by a bot policy"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("blackjack"),
		kong.Description("Blackjack tables for the terminal, the network and simulations"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version":  version,
			"policies": strings.Join(bot.Names(), ", "),
		},
	)
	if cli.NoColor {
		disableColor()
	}
	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
