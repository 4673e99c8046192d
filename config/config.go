package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the complete backtest configuration.
type Config struct {
	Strategy   StrategyConfig   `json:"strategy" yaml:"strategy"`
	Account    AccountConfig    `json:"account" yaml:"account"`
	Costs      CostsConfig      `json:"costs" yaml:"costs"`
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`
	Journal    JournalConfig    `json:"journal" yaml:"journal"`
}

// StrategyConfig holds the pump/stagnation strategy parameters.
type StrategyConfig struct {
	// PumpThreshold is the minimum rise (fraction) over PumpWindow bars
	// that flags a breakout candidate.
	PumpThreshold float64 `json:"pump_threshold" yaml:"pump_threshold"`
	PumpWindow    int     `json:"pump_window" yaml:"pump_window"`

	// StallBars is how many consecutive bars without a new local high
	// confirm stagnation.
	StallBars int `json:"stall_bars" yaml:"stall_bars"`

	// TPPercent is the take-profit distance as a fraction of the local high.
	TPPercent float64 `json:"tp_percent" yaml:"tp_percent"`

	// SLMultiplier is applied to the entry price; shorts stop out above entry.
	SLMultiplier float64 `json:"sl_multiplier" yaml:"sl_multiplier"`

	// WatchlistTimeout removes a candidate that never triggered, in bars.
	WatchlistTimeout int `json:"watchlist_timeout" yaml:"watchlist_timeout"`
}

// AccountConfig contains capital parameters.
type AccountConfig struct {
	InitialCapital float64 `json:"initial_capital" yaml:"initial_capital"`
	TradeSizeUSDT  float64 `json:"trade_size_usdt" yaml:"trade_size_usdt"`

	// MaxConcurrentTrades of 0 means unlimited.
	MaxConcurrentTrades int `json:"max_concurrent_trades" yaml:"max_concurrent_trades"`
}

// CostsConfig contains fee and slippage assumptions, all fractions.
type CostsConfig struct {
	MakerFee float64 `json:"maker_fee" yaml:"maker_fee"`
	TakerFee float64 `json:"taker_fee" yaml:"taker_fee"`
	Slippage float64 `json:"slippage" yaml:"slippage"`
}

// SimulationConfig contains run parameters.
type SimulationConfig struct {
	// SnapshotEvery records a portfolio snapshot every N bars.
	SnapshotEvery int `json:"snapshot_every" yaml:"snapshot_every"`

	// Parallel runs one isolated worker per symbol instead of a shared ledger.
	Parallel bool `json:"parallel" yaml:"parallel"`
}

// JournalConfig contains persistence parameters.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv" or "sqlite"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
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

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Strategy.PumpThreshold <= 0 {
		return fmt.Errorf("strategy.pump_threshold must be positive")
	}
	if c.Strategy.PumpWindow < 1 {
		return fmt.Errorf("strategy.pump_window must be at least 1")
	}
	if c.Strategy.StallBars < 1 {
		return fmt.Errorf("strategy.stall_bars must be at least 1")
	}
	if c.Strategy.TPPercent <= 0 || c.Strategy.TPPercent >= 1 {
		return fmt.Errorf("strategy.tp_percent must be between 0 and 1")
	}
	if c.Strategy.SLMultiplier <= 1 {
		return fmt.Errorf("strategy.sl_multiplier must be greater than 1 for a short")
	}
	if c.Strategy.WatchlistTimeout < 1 {
		return fmt.Errorf("strategy.watchlist_timeout must be at least 1")
	}
	if c.Account.InitialCapital <= 0 {
		return fmt.Errorf("account.initial_capital must be positive")
	}
	if c.Account.TradeSizeUSDT <= 0 {
		return fmt.Errorf("account.trade_size_usdt must be positive")
	}
	if c.Account.MaxConcurrentTrades < 0 {
		return fmt.Errorf("account.max_concurrent_trades must not be negative")
	}
	if c.Costs.MakerFee < 0 || c.Costs.TakerFee < 0 {
		return fmt.Errorf("costs fees must not be negative")
	}
	if c.Costs.Slippage < 0 {
		return fmt.Errorf("costs.slippage must not be negative")
	}
	if c.Simulation.SnapshotEvery < 1 {
		return fmt.Errorf("simulation.snapshot_every must be at least 1")
	}
	switch c.Journal.Type {
	case "", "csv", "sqlite":
	default:
		return fmt.Errorf("journal.type must be 'csv' or 'sqlite'")
	}
	if c.Journal.Type == "csv" && (c.Journal.TradesFile == "" || c.Journal.EquityFile == "") {
		return fmt.Errorf("journal trades_file and equity_file required for CSV type")
	}
	if c.Journal.Type == "sqlite" && c.Journal.DBPath == "" {
		return fmt.Errorf("journal db_path required for SQLite type")
	}
	return nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Strategy: StrategyConfig{
			PumpThreshold:    0.20,
			PumpWindow:       96,
			StallBars:        2,
			TPPercent:        0.15,
			SLMultiplier:     2.0,
			WatchlistTimeout: 96,
		},
		Account: AccountConfig{
			InitialCapital: 1000,
			TradeSizeUSDT:  20,
		},
		Costs: CostsConfig{
			MakerFee: 0.0001,
			TakerFee: 0.0006,
			Slippage: 0.0005,
		},
		Simulation: SimulationConfig{
			SnapshotEvery: 4,
		},
		Journal: JournalConfig{
			Type:       "csv",
			TradesFile: "./trades.csv",
			EquityFile: "./equity.csv",
		},
	}
}
