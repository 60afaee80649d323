package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/advisor/journal"
	"github.com/rustyeddy/advisor/logger"
	"github.com/rustyeddy/advisor/market"
	"github.com/rustyeddy/advisor/risk"
	"github.com/rustyeddy/advisor/session"
	"github.com/rustyeddy/advisor/strategy"
	"github.com/rustyeddy/advisor/window"
)

// Config represents the complete advisor configuration
type Config struct {
	Session SessionConfig `json:"session" yaml:"session"`
	Runner  RunnerConfig  `json:"runner" yaml:"runner"`
	Paper   PaperConfig   `json:"paper" yaml:"paper"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
	Log     logger.Config `json:"log" yaml:"log"`
}

// SessionConfig holds the inputs of one trading session
type SessionConfig struct {
	Expert    string         `json:"expert" yaml:"expert"`
	Symbol    string         `json:"symbol" yaml:"symbol"`
	Magic     int64          `json:"magic" yaml:"magic"`
	Lot       float64        `json:"lot" yaml:"lot"`
	Regular   risk.Distances `json:"regular" yaml:"regular"`
	Emergency risk.Distances `json:"emergency" yaml:"emergency"`
	Window    window.Window  `json:"window" yaml:"window"`
	Timezone  string         `json:"timezone" yaml:"timezone"`
	Fee       float64        `json:"fee" yaml:"fee"`
	Deviation int            `json:"deviation" yaml:"deviation"`
}

// RunnerConfig drives the trading loop
type RunnerConfig struct {
	Interval          string           `json:"interval" yaml:"interval"` // e.g. "500ms", "1s"
	Bars              int              `json:"bars" yaml:"bars"`
	Timeframe         market.Timeframe `json:"timeframe" yaml:"timeframe"`
	Strategy          string           `json:"strategy" yaml:"strategy"`
	Params            strategy.Params  `json:"params" yaml:"params"`
	EmergencyFallback bool             `json:"emergency_fallback" yaml:"emergency_fallback"`
	Comment           string           `json:"comment" yaml:"comment"`
}

// PaperConfig configures the in-memory terminal
type PaperConfig struct {
	Ticks   string  `json:"ticks" yaml:"ticks"`
	Balance float64 `json:"balance" yaml:"balance"`

	// Symbol overrides the built-in catalog entry for Session.Symbol.
	Symbol *market.SymbolInfo `json:"symbol,omitempty" yaml:"symbol,omitempty"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// ParseInterval converts the interval string to time.Duration
func (r RunnerConfig) ParseInterval() (time.Duration, error) {
	if r.Interval == "" {
		return 0, nil
	}
	return time.ParseDuration(r.Interval)
}

// Location loads the time zone the window is expressed in
func (s SessionConfig) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(s.Timezone)
}

// SessionConfig converts the file form into a session.Config
func (c *Config) SessionConfig(version string) (session.Config, error) {
	loc, err := c.Session.Location()
	if err != nil {
		return session.Config{}, fmt.Errorf("session.timezone: %w", err)
	}
	return session.Config{
		ExpertName: c.Session.Expert,
		Version:    version,
		Symbol:     c.Session.Symbol,
		Magic:      c.Session.Magic,
		Lot:        c.Session.Lot,
		Regular:    c.Session.Regular,
		Emergency:  c.Session.Emergency,
		Window:     c.Session.Window,
		Fee:        c.Session.Fee,
		Deviation:  c.Session.Deviation,
		Location:   loc,
	}, nil
}

// SymbolInfo returns the paper terminal's metadata for the session symbol
func (c *Config) SymbolInfo() (market.SymbolInfo, error) {
	if c.Paper.Symbol != nil {
		s := *c.Paper.Symbol
		if s.Name == "" {
			s.Name = c.Session.Symbol
		}
		return s, nil
	}
	s, ok := market.Symbols[c.Session.Symbol]
	if !ok {
		return market.SymbolInfo{}, fmt.Errorf("unknown symbol: %s", c.Session.Symbol)
	}
	return s, nil
}

// LoadFromFile loads configuration from a file (YAML or JSON)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	sc, err := c.SessionConfig("")
	if err != nil {
		return err
	}
	if err := sc.Validate(); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if _, err := c.SymbolInfo(); err != nil {
		return err
	}

	if _, err := c.Runner.ParseInterval(); err != nil {
		return fmt.Errorf("runner.interval: %w", err)
	}
	if c.Runner.Bars < 0 {
		return fmt.Errorf("runner.bars must not be negative")
	}
	if c.Runner.Timeframe <= 0 {
		return fmt.Errorf("runner.timeframe is required")
	}
	if _, err := strategy.New(c.Runner.Strategy, c.Runner.Params); err != nil {
		return fmt.Errorf("runner.strategy: %w", err)
	}

	if c.Paper.Balance < 0 {
		return fmt.Errorf("paper.balance must not be negative")
	}

	switch c.Journal.Type {
	case journal.KindNone, "":
	case journal.KindCSV, journal.KindSQLite:
		if c.Journal.Path == "" {
			return fmt.Errorf("journal.path required for %s type", c.Journal.Type)
		}
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Session: SessionConfig{
			Expert:    "macross",
			Symbol:    "EURUSD",
			Magic:     20240304,
			Lot:       0.1,
			Regular:   risk.Distances{StopLoss: 100, TakeProfit: 200},
			Emergency: risk.Distances{StopLoss: 300, TakeProfit: 600},
			Window:    window.Default(),
			Timezone:  "UTC",
			Deviation: 10,
		},
		Runner: RunnerConfig{
			Interval:          "0s",
			Bars:              session.DefaultBars,
			Timeframe:         market.M1,
			Strategy:          "macross",
			Params:            strategy.Params{Short: 5, Long: 20, MA: "sma"},
			EmergencyFallback: true,
			Comment:           "advisor",
		},
		Paper: PaperConfig{
			Balance: 10000,
		},
		Journal: JournalConfig{
			Type: journal.KindCSV,
			Path: "./deals.csv",
		},
		Log: logger.Config{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}
