// Package config loads the papertrader configuration from YAML or JSON.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"papertrader/engine"
)

// Config represents the complete simulation configuration.
type Config struct {
	Engine     EngineConfig     `json:"engine" yaml:"engine"`
	Feed       FeedConfig       `json:"feed" yaml:"feed"`
	Journal    JournalConfig    `json:"journal" yaml:"journal"`
	Order      OrderConfig      `json:"order" yaml:"order"`
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`
}

// EngineConfig mirrors engine.Config with durations as strings so the file
// can say "5s" rather than nanoseconds.
type EngineConfig struct {
	InitialBalance  float64 `json:"initial_balance" yaml:"initial_balance"`
	MaxLeverage     int     `json:"max_leverage" yaml:"max_leverage"`
	CommissionRate  float64 `json:"commission_rate" yaml:"commission_rate"`
	SlippageMin     float64 `json:"slippage_min" yaml:"slippage_min"`
	SlippageMax     float64 `json:"slippage_max" yaml:"slippage_max"`
	MarkInterval    string  `json:"mark_interval" yaml:"mark_interval"`
	TriggerInterval string  `json:"trigger_interval" yaml:"trigger_interval"`
}

// FeedConfig selects the price feed implementation.
type FeedConfig struct {
	Type      string   `json:"type" yaml:"type"` // quotes | binance | stream
	Symbols   []string `json:"symbols,omitempty" yaml:"symbols,omitempty"`
	StreamURL string   `json:"stream_url,omitempty" yaml:"stream_url,omitempty"`
}

// JournalConfig selects where closed trades and equity snapshots go.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // none | csv | sqlite
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// OrderConfig is the order a scripted run places at startup.
type OrderConfig struct {
	Symbol     string   `json:"symbol" yaml:"symbol"`
	Side       string   `json:"side" yaml:"side"`
	Amount     float64  `json:"amount" yaml:"amount"`
	Leverage   int      `json:"leverage,omitempty" yaml:"leverage,omitempty"`
	StopLoss   *float64 `json:"stop_loss,omitempty" yaml:"stop_loss,omitempty"`
	TakeProfit *float64 `json:"take_profit,omitempty" yaml:"take_profit,omitempty"`
	Strategy   string   `json:"strategy,omitempty" yaml:"strategy,omitempty"`
}

// SimulationConfig scripts price movement for the quotes feed.
type SimulationConfig struct {
	InitialPrice float64     `json:"initial_price" yaml:"initial_price"`
	Steps        []PriceStep `json:"steps,omitempty" yaml:"steps,omitempty"`
}

// PriceStep is one scripted price update.
type PriceStep struct {
	Price float64 `json:"price" yaml:"price"`
	Delay string  `json:"delay" yaml:"delay"` // e.g. "1s", "500ms"
}

// ParseDuration converts the delay string to time.Duration.
func (ps PriceStep) ParseDuration() (time.Duration, error) {
	if ps.Delay == "" {
		return 0, nil
	}
	return time.ParseDuration(ps.Delay)
}

// EngineConfig converts the file representation into engine.Config.
func (c *Config) EngineConfig() (engine.Config, error) {
	out := engine.DefaultConfig()
	if c.Engine.InitialBalance > 0 {
		out.InitialBalance = c.Engine.InitialBalance
	}
	if c.Engine.MaxLeverage > 0 {
		out.MaxLeverage = c.Engine.MaxLeverage
	}
	if c.Engine.CommissionRate > 0 {
		out.CommissionRate = c.Engine.CommissionRate
	}
	if c.Engine.SlippageMin > 0 {
		out.SlippageMin = c.Engine.SlippageMin
	}
	if c.Engine.SlippageMax > 0 {
		out.SlippageMax = c.Engine.SlippageMax
	}
	if c.Engine.MarkInterval != "" {
		d, err := time.ParseDuration(c.Engine.MarkInterval)
		if err != nil {
			return out, fmt.Errorf("engine.mark_interval: %w", err)
		}
		out.MarkInterval = d
	}
	if c.Engine.TriggerInterval != "" {
		d, err := time.ParseDuration(c.Engine.TriggerInterval)
		if err != nil {
			return out, fmt.Errorf("engine.trigger_interval: %w", err)
		}
		out.TriggerInterval = d
	}
	return out, nil
}

// LoadFromFile loads configuration from a file (YAML or JSON by content).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration as YAML (.yaml/.yml) or JSON.
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

// Validate checks the configuration before use.
func (c *Config) Validate() error {
	if c.Engine.InitialBalance < 0 {
		return fmt.Errorf("engine.initial_balance must not be negative")
	}
	if c.Engine.MaxLeverage < 0 {
		return fmt.Errorf("engine.max_leverage must not be negative")
	}
	if c.Engine.SlippageMin > c.Engine.SlippageMax {
		return fmt.Errorf("engine.slippage_min must not exceed slippage_max")
	}

	switch c.Feed.Type {
	case "", "quotes", "binance", "stream":
	default:
		return fmt.Errorf("feed.type must be quotes, binance or stream, got %q", c.Feed.Type)
	}
	if c.Feed.Type == "stream" && c.Feed.StreamURL == "" {
		return fmt.Errorf("feed.stream_url required for stream feed")
	}

	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for csv journal")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for sqlite journal")
		}
	default:
		return fmt.Errorf("journal.type must be none, csv or sqlite, got %q", c.Journal.Type)
	}

	if c.Order.Symbol != "" {
		if c.Order.Side != "long" && c.Order.Side != "short" {
			return fmt.Errorf("order.side must be long or short, got %q", c.Order.Side)
		}
		if c.Order.Amount <= 0 {
			return fmt.Errorf("order.amount must be positive")
		}
	}

	for i, step := range c.Simulation.Steps {
		if step.Price <= 0 {
			return fmt.Errorf("simulation step %d: price must be positive", i)
		}
		if _, err := step.ParseDuration(); err != nil {
			return fmt.Errorf("simulation step %d: %w", i, err)
		}
	}
	return nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			InitialBalance:  10_000,
			MaxLeverage:     10,
			CommissionRate:  0.001,
			SlippageMin:     0.001,
			SlippageMax:     0.005,
			MarkInterval:    "5s",
			TriggerInterval: "1s",
		},
		Feed: FeedConfig{
			Type:    "quotes",
			Symbols: []string{"BTCUSDT"},
		},
		Journal: JournalConfig{
			Type:       "csv",
			TradesFile: "./trades.csv",
			EquityFile: "./equity.csv",
		},
		Order: OrderConfig{
			Symbol:   "BTCUSDT",
			Side:     "long",
			Amount:   1_000,
			Leverage: 1,
		},
		Simulation: SimulationConfig{
			InitialPrice: 50_000,
		},
	}
}
