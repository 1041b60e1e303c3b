// Package config loads blackjack settings from an HCL file, with overrides
// from BLACKJACK_* environment variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/joho/godotenv"
	"github.com/lox/blackjack/internal/bot"
	"github.com/lox/blackjack/internal/rules"
)

// Config represents the complete configuration
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Rules  RulesConfig    `hcl:"rules,block"`
	Player PlayerConfig   `hcl:"player,block"`
	NPCs   []NPCConfig    `hcl:"npc,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address     string `hcl:"address,optional"`
	Port        int    `hcl:"port,optional"`
	LogLevel    string `hcl:"log_level,optional"`
	LogFile     string `hcl:"log_file,optional"`
	TurnTimeout string `hcl:"turn_timeout,optional"`
}

// RulesConfig mirrors rules.Rules. Unset attributes keep the house defaults.
type RulesConfig struct {
	Name             string   `hcl:"name,optional"`
	DealerStandsOn   *int     `hcl:"dealer_stands_on,optional"`
	DealerHitsSoft17 *bool    `hcl:"dealer_hits_soft17,optional"`
	Double           string   `hcl:"double,optional"`
	Surrender        string   `hcl:"surrender,optional"`
	SkipOnBust       *bool    `hcl:"skip_dealer_on_bust,optional"`
	SkipOnSurrender  *bool    `hcl:"skip_dealer_on_surrender,optional"`
	SkipOnBlackjack  *bool    `hcl:"skip_dealer_on_blackjack,optional"`
	MinBet           *float64 `hcl:"min_bet,optional"`
	MaxBet           *float64 `hcl:"max_bet,optional"`
	DefaultBet       *float64 `hcl:"default_bet,optional"`
	BlackjackPayout  *float64 `hcl:"blackjack_payout,optional"`
	SurrenderRefund  *float64 `hcl:"surrender_refund,optional"`
	Insurance        *bool    `hcl:"insurance,optional"`
	InsurancePayout  *float64 `hcl:"insurance_payout,optional"`
}

// PlayerConfig describes the human seat
type PlayerConfig struct {
	Name    string  `hcl:"name,optional"`
	Balance float64 `hcl:"balance,optional"`
	Seed    int64   `hcl:"seed,optional"`
}

// NPCConfig defines an automatic player seated next to the human
type NPCConfig struct {
	Name    string  `hcl:"name,label"`
	Policy  string  `hcl:"policy,optional"`
	Balance float64 `hcl:"balance,optional"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerSettings{
			Address:     "localhost",
			Port:        8080,
			LogLevel:    "info",
			LogFile:     "blackjack.log",
			TurnTimeout: "30s",
		},
		Player: PlayerConfig{
			Name:    "Player",
			Balance: 1000,
		},
	}
}

// Load reads configuration from an HCL file. A missing file yields the
// defaults.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	// blocks are optional in the file, so decode over the defaults
	var raw struct {
		Server *ServerSettings `hcl:"server,block"`
		Rules  *RulesConfig    `hcl:"rules,block"`
		Player *PlayerConfig   `hcl:"player,block"`
		NPCs   []NPCConfig     `hcl:"npc,block"`
	}
	diags = gohcl.DecodeBody(file.Body, nil, &raw)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config := Default()
	if raw.Server != nil {
		config.Server = *raw.Server
	}
	if raw.Rules != nil {
		config.Rules = *raw.Rules
	}
	if raw.Player != nil {
		config.Player = *raw.Player
	}
	config.NPCs = raw.NPCs
	config.applyDefaults()
	return config, nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.Server.Address == "" {
		c.Server.Address = def.Server.Address
	}
	if c.Server.Port == 0 {
		c.Server.Port = def.Server.Port
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = def.Server.LogLevel
	}
	if c.Server.LogFile == "" {
		c.Server.LogFile = def.Server.LogFile
	}
	if c.Server.TurnTimeout == "" {
		c.Server.TurnTimeout = def.Server.TurnTimeout
	}
	if c.Player.Name == "" {
		c.Player.Name = def.Player.Name
	}
	if c.Player.Balance == 0 {
		c.Player.Balance = def.Player.Balance
	}
	for i := range c.NPCs {
		if c.NPCs[i].Policy == "" {
			c.NPCs[i].Policy = "basic"
		}
		if c.NPCs[i].Balance == 0 {
			c.NPCs[i].Balance = c.Player.Balance
		}
	}
}

// ApplyEnv loads envFile, if present, into the process environment and then
// applies BLACKJACK_* overrides. Variables already set in the environment win
// over the file.
func (c *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	if v, ok := os.LookupEnv("BLACKJACK_ADDRESS"); ok {
		c.Server.Address = v
	}
	if v, ok := os.LookupEnv("BLACKJACK_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BLACKJACK_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v, ok := os.LookupEnv("BLACKJACK_LOG_LEVEL"); ok {
		c.Server.LogLevel = v
	}
	if v, ok := os.LookupEnv("BLACKJACK_TURN_TIMEOUT"); ok {
		c.Server.TurnTimeout = v
	}
	if v, ok := os.LookupEnv("BLACKJACK_PLAYER"); ok {
		c.Player.Name = v
	}
	if v, ok := os.LookupEnv("BLACKJACK_BALANCE"); ok {
		balance, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("BLACKJACK_BALANCE: %w", err)
		}
		c.Player.Balance = balance
	}
	if v, ok := os.LookupEnv("BLACKJACK_SEED"); ok {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("BLACKJACK_SEED: %w", err)
		}
		c.Player.Seed = seed
	}
	return nil
}

// HouseRules builds the rules value, starting from rules.Default()
func (c *Config) HouseRules() (rules.Rules, error) {
	r := rules.Default()
	rc := c.Rules

	if rc.Name != "" {
		r.Name = rc.Name
	}
	if rc.DealerStandsOn != nil {
		r.DealerStandsOn = *rc.DealerStandsOn
	}
	if rc.DealerHitsSoft17 != nil {
		r.DealerHitsSoft17 = *rc.DealerHitsSoft17
	}
	if rc.Double != "" {
		p, err := rules.ParseDoublePolicy(rc.Double)
		if err != nil {
			return r, err
		}
		r.Double = p
	}
	if rc.Surrender != "" {
		p, err := rules.ParseSurrenderPolicy(rc.Surrender)
		if err != nil {
			return r, err
		}
		r.Surrender = p
	}
	if rc.SkipOnBust != nil {
		r.Skip.OnBust = *rc.SkipOnBust
	}
	if rc.SkipOnSurrender != nil {
		r.Skip.OnSurrender = *rc.SkipOnSurrender
	}
	if rc.SkipOnBlackjack != nil {
		r.Skip.OnBlackjack = *rc.SkipOnBlackjack
	}
	if rc.MinBet != nil {
		r.MinBet = *rc.MinBet
	}
	if rc.MaxBet != nil {
		r.MaxBet = *rc.MaxBet
	}
	if rc.DefaultBet != nil {
		r.DefaultBet = *rc.DefaultBet
	}
	if rc.BlackjackPayout != nil {
		r.BlackjackPayout = *rc.BlackjackPayout
	}
	if rc.SurrenderRefund != nil {
		r.SurrenderRefund = *rc.SurrenderRefund
	}
	if rc.Insurance != nil {
		r.Insurance = *rc.Insurance
	}
	if rc.InsurancePayout != nil {
		r.InsurancePayout = *rc.InsurancePayout
	}
	return r, r.Validate()
}

// TurnTimeout parses the server turn timeout. "0" or "off" disables it.
func (c *Config) TurnTimeout() (time.Duration, error) {
	if c.Server.TurnTimeout == "off" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Server.TurnTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid turn_timeout %q: %w", c.Server.TurnTimeout, err)
	}
	return d, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if d, err := c.TurnTimeout(); err != nil {
		return err
	} else if d < 0 {
		return fmt.Errorf("turn_timeout must not be negative")
	}
	r, err := c.HouseRules()
	if err != nil {
		return fmt.Errorf("rules: %w", err)
	}
	if c.Player.Balance <= 0 {
		return fmt.Errorf("player %s: balance must be positive", c.Player.Name)
	}

	seen := map[string]bool{c.Player.Name: true}
	for _, npc := range c.NPCs {
		if seen[npc.Name] {
			return fmt.Errorf("npc %s: name already taken", npc.Name)
		}
		seen[npc.Name] = true
		if _, err := bot.ByName(npc.Policy); err != nil {
			return fmt.Errorf("npc %s: %w", npc.Name, err)
		}
		if npc.Balance < r.MinBet {
			return fmt.Errorf("npc %s: balance $%.2f is below the table minimum $%.2f", npc.Name, npc.Balance, r.MinBet)
		}
	}
	return nil
}

// ServerAddress returns the full listen address
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
