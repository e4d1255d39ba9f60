// Package config loads and validates the simulator configuration.
// Files may be YAML or JSON; a local .env file and PAPERTRADER_*
// environment variables override file values.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/papertrader/risk"
	"github.com/rustyeddy/papertrader/strategies"
)

// Config represents the complete simulator configuration.
type Config struct {
	Account AccountConfig     `json:"account" yaml:"account"`
	Trading TradingConfig     `json:"trading" yaml:"trading"`
	Params  strategies.Params `json:"params" yaml:"params"`
	Risk    risk.Limits       `json:"risk" yaml:"risk"`
	Feed    FeedConfig        `json:"feed" yaml:"feed"`
	Journal JournalConfig     `json:"journal" yaml:"journal"`
	State   StateConfig       `json:"state" yaml:"state"`
}

// AccountConfig contains the paper account initialization parameters.
type AccountConfig struct {
	Currency string  `json:"currency" yaml:"currency"`
	Balance  float64 `json:"balance" yaml:"balance"`
}

// TradingConfig selects what to trade, with which strategy, how often.
type TradingConfig struct {
	Symbols  []string `json:"symbols" yaml:"symbols"`
	Strategy string   `json:"strategy" yaml:"strategy"` // registered name or "consensus"
	Interval string   `json:"interval" yaml:"interval"` // e.g. "5m", "1h"
}

// FeedConfig configures the price source and its fallback behavior.
type FeedConfig struct {
	Source     string `json:"source" yaml:"source"` // "coingecko" or "static"
	Currency   string `json:"currency" yaml:"currency"`
	Timeout    string `json:"timeout" yaml:"timeout"`
	Fallback   string `json:"fallback" yaml:"fallback"` // "hold" or "jitter"
	JitterSeed int64  `json:"jitter_seed,omitempty" yaml:"jitter_seed,omitempty"`
	// Prices seeds the static source for offline runs.
	Prices map[string]float64 `json:"prices,omitempty" yaml:"prices,omitempty"`
}

// JournalConfig configures the durable trade/adaptation journal.
type JournalConfig struct {
	Type   string `json:"type" yaml:"type"` // "sqlite" or "none"
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// StateConfig locates the persisted engine state.
type StateConfig struct {
	Path string `json:"path" yaml:"path"`
}

// TickInterval returns the parsed trading interval.
func (c *Config) TickInterval() (time.Duration, error) {
	return time.ParseDuration(c.Trading.Interval)
}

// FeedTimeout returns the parsed feed timeout.
func (c *Config) FeedTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Feed.Timeout)
}

// LoadFromFile loads configuration from a file (YAML first, JSON
// fallback), applies environment overrides and validates the result.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile saves configuration to a file, YAML or JSON by extension.
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)
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

// LoadEnv reads an optional .env file into the process environment.
// A missing file is not an error.
func LoadEnv() {
	_ = godotenv.Load()
}

// applyEnv overrides file values with PAPERTRADER_* variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("PAPERTRADER_BALANCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Account.Balance = f
		}
	}
	if v := os.Getenv("PAPERTRADER_SYMBOLS"); v != "" {
		cfg.Trading.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("PAPERTRADER_STRATEGY"); v != "" {
		cfg.Trading.Strategy = v
	}
	if v := os.Getenv("PAPERTRADER_INTERVAL"); v != "" {
		cfg.Trading.Interval = v
	}
	if v := os.Getenv("PAPERTRADER_DB_PATH"); v != "" {
		cfg.Journal.DBPath = v
	}
	if v := os.Getenv("PAPERTRADER_STATE_PATH"); v != "" {
		cfg.State.Path = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Account.Currency == "" {
		return fmt.Errorf("account.currency is required")
	}
	if c.Account.Balance <= 0 {
		return fmt.Errorf("account.balance must be positive")
	}
	if len(c.Trading.Symbols) == 0 {
		return fmt.Errorf("trading.symbols must name at least one symbol")
	}
	if c.Trading.Strategy != "consensus" && !slices.Contains(strategies.Names(), c.Trading.Strategy) {
		return fmt.Errorf("unknown strategy: %s", c.Trading.Strategy)
	}
	if d, err := c.TickInterval(); err != nil || d <= 0 {
		return fmt.Errorf("trading.interval must be a positive duration")
	}
	if c.Params.PositionFraction <= 0 || c.Params.PositionFraction > 1 {
		return fmt.Errorf("params.position_fraction must be between 0 and 1")
	}
	if c.Params.RSIPeriod < 2 {
		return fmt.Errorf("params.rsi_period must be at least 2")
	}
	if c.Params.MomentumLookback < 2 {
		return fmt.Errorf("params.momentum_lookback must be at least 2")
	}
	if c.Params.MeanRevWindow < 2 {
		return fmt.Errorf("params.mean_rev_window must be at least 2")
	}
	if c.Params.GridLevels < 1 {
		return fmt.Errorf("params.grid_levels must be at least 1")
	}
	if c.Params.FastMA < 1 || c.Params.SlowMA <= c.Params.FastMA {
		return fmt.Errorf("params moving averages need 1 <= fast_ma < slow_ma")
	}
	if c.Params.StopLossPct <= 0 || c.Params.TakeProfitPct <= 0 {
		return fmt.Errorf("params stop/take percentages must be positive")
	}
	if c.Risk.MaxOpenPositions < 1 {
		return fmt.Errorf("risk.max_open_positions must be at least 1")
	}
	if c.Risk.MaxPositionFraction <= 0 || c.Risk.MaxPositionFraction > 1 {
		return fmt.Errorf("risk.max_position_fraction must be between 0 and 1")
	}
	if c.Feed.Source != "coingecko" && c.Feed.Source != "static" {
		return fmt.Errorf("feed.source must be 'coingecko' or 'static'")
	}
	if c.Feed.Fallback != "hold" && c.Feed.Fallback != "jitter" {
		return fmt.Errorf("feed.fallback must be 'hold' or 'jitter'")
	}
	if d, err := c.FeedTimeout(); err != nil || d <= 0 {
		return fmt.Errorf("feed.timeout must be a positive duration")
	}
	if c.Journal.Type != "sqlite" && c.Journal.Type != "none" {
		return fmt.Errorf("journal.type must be 'sqlite' or 'none'")
	}
	if c.Journal.Type == "sqlite" && c.Journal.DBPath == "" {
		return fmt.Errorf("journal db_path required for SQLite type")
	}
	if c.State.Path == "" {
		return fmt.Errorf("state.path is required")
	}
	return nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			Currency: "USD",
			Balance:  10000,
		},
		Trading: TradingConfig{
			Symbols:  []string{"bitcoin", "ethereum"},
			Strategy: "consensus",
			Interval: "5m",
		},
		Params: strategies.DefaultParams(),
		Risk:   risk.DefaultLimits(),
		Feed: FeedConfig{
			Source:   "coingecko",
			Currency: "usd",
			Timeout:  "10s",
			Fallback: "hold",
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./papertrader.db",
		},
		State: StateConfig{
			Path: "./papertrader-state.json",
		},
	}
}
