package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultValidates(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoadFromFileYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
engine:
  initial_balance: 25000
  max_leverage: 20
  commission_rate: 0.002
  slippage_min: 0.001
  slippage_max: 0.003
  mark_interval: 2s
  trigger_interval: 250ms
feed:
  type: quotes
  symbols: [ETHUSDT]
journal:
  type: sqlite
  db_path: ./trades.db
order:
  symbol: ETHUSDT
  side: short
  amount: 500
  leverage: 3
simulation:
  initial_price: 3000
  steps:
    - price: 2950
      delay: 1s
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 25000.0, cfg.Engine.InitialBalance)
	assert.Equal(t, "sqlite", cfg.Journal.Type)
	assert.Equal(t, "short", cfg.Order.Side)
	require.Len(t, cfg.Simulation.Steps, 1)

	d, err := cfg.Simulation.Steps[0].ParseDuration()
	require.NoError(t, err)
	assert.Equal(t, time.Second, d)

	ec, err := cfg.EngineConfig()
	require.NoError(t, err)
	assert.Equal(t, 25000.0, ec.InitialBalance)
	assert.Equal(t, 20, ec.MaxLeverage)
	assert.Equal(t, 2*time.Second, ec.MarkInterval)
	assert.Equal(t, 250*time.Millisecond, ec.TriggerInterval)
}

func TestLoadFromFileJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{
  "engine": {"initial_balance": 5000},
  "journal": {"type": "none"}
}`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5000.0, cfg.Engine.InitialBalance)
}

func TestEngineConfigDefaultsApply(t *testing.T) {
	cfg := &Config{}
	ec, err := cfg.EngineConfig()
	require.NoError(t, err)
	assert.Equal(t, 10_000.0, ec.InitialBalance)
	assert.Equal(t, 5*time.Second, ec.MarkInterval)
	assert.Equal(t, time.Second, ec.TriggerInterval)
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad feed type", func(c *Config) { c.Feed.Type = "carrier-pigeon" }},
		{"stream without url", func(c *Config) { c.Feed.Type = "stream"; c.Feed.StreamURL = "" }},
		{"csv without files", func(c *Config) { c.Journal.Type = "csv"; c.Journal.TradesFile = "" }},
		{"sqlite without path", func(c *Config) { c.Journal.Type = "sqlite"; c.Journal.DBPath = "" }},
		{"bad order side", func(c *Config) { c.Order.Side = "diagonal" }},
		{"negative step price", func(c *Config) {
			c.Simulation.Steps = []PriceStep{{Price: -1}}
		}},
		{"bad step delay", func(c *Config) {
			c.Simulation.Steps = []PriceStep{{Price: 1, Delay: "soon"}}
		}},
		{"inverted slippage range", func(c *Config) {
			c.Engine.SlippageMin = 0.01
			c.Engine.SlippageMax = 0.001
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.yaml")

	orig := Default()
	orig.Engine.InitialBalance = 777
	require.NoError(t, orig.SaveToFile(path))

	got, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 777.0, got.Engine.InitialBalance)
}
