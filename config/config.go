// Package config loads and validates the simulation configuration from
// YAML or JSON files and converts it into engine parameters.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/quantfold/tradesim/market"
	"github.com/quantfold/tradesim/sim"
	"github.com/quantfold/tradesim/tactics"
)

// Config represents the complete simulation configuration.
type Config struct {
	Account       AccountConfig      `json:"account" yaml:"account"`
	Trading       TradingConfig      `json:"trading" yaml:"trading"`
	Strategy      StrategyConfig     `json:"strategy" yaml:"strategy"`
	Tactics       []tactics.Set      `json:"tactics" yaml:"tactics"`
	Journal       JournalConfig      `json:"journal" yaml:"journal"`
	Notifications NotificationConfig `json:"notifications,omitempty" yaml:"notifications,omitempty"`
}

// AccountConfig contains account initialization parameters.
type AccountConfig struct {
	ID             string  `json:"id,omitempty" yaml:"id,omitempty"`
	Currency       string  `json:"currency" yaml:"currency"`
	Exchange       string  `json:"exchange,omitempty" yaml:"exchange,omitempty"`
	InitialBalance float64 `json:"initial_balance" yaml:"initial_balance"`
}

// TradingConfig contains the trading limits and market selection.
type TradingConfig struct {
	Symbols   []string `json:"symbols" yaml:"symbols"`
	Timeframe string   `json:"timeframe" yaml:"timeframe"`

	RiskPerTradePercent float64 `json:"risk_per_trade_percent" yaml:"risk_per_trade_percent"`
	MaxDrawdownPercent  float64 `json:"max_drawdown_percent,omitempty" yaml:"max_drawdown_percent,omitempty"`
	MaxOpenPositions    int     `json:"max_open_positions,omitempty" yaml:"max_open_positions,omitempty"`
	MaxLeverage         float64 `json:"max_leverage,omitempty" yaml:"max_leverage,omitempty"`
	FeePercent          float64 `json:"fee_percent,omitempty" yaml:"fee_percent,omitempty"`
	SlippagePercent     float64 `json:"slippage_percent,omitempty" yaml:"slippage_percent,omitempty"`

	AutoTrading   bool   `json:"auto_trading,omitempty" yaml:"auto_trading,omitempty"`
	CheckInterval string `json:"check_interval,omitempty" yaml:"check_interval,omitempty"` // e.g. "5s", "1m"
}

// StrategyConfig names the strategy and its numeric parameters.
type StrategyConfig struct {
	ID     string             `json:"id" yaml:"id"`
	Params map[string]float64 `json:"params,omitempty" yaml:"params,omitempty"`
}

// JournalConfig selects the persistence backend.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// NotificationConfig toggles which lifecycle events are logged.
type NotificationConfig struct {
	OnPositionOpened bool `json:"on_position_opened,omitempty" yaml:"on_position_opened,omitempty"`
	OnPositionClosed bool `json:"on_position_closed,omitempty" yaml:"on_position_closed,omitempty"`
	OnDrawdown       bool `json:"on_drawdown,omitempty" yaml:"on_drawdown,omitempty"`
}

// LoadFromFile loads configuration from a file, YAML or JSON based on
// extension, and validates it.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration, YAML or JSON based on extension.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func isYAML(path string) bool {
	return strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml")
}

// Validate checks required fields. Tactics sets are validated again by the
// engine; this pass rejects what can be rejected before anything runs.
func (c *Config) Validate() error {
	if c.Account.InitialBalance <= 0 {
		return fmt.Errorf("account.initial_balance must be positive")
	}
	if len(c.Trading.Symbols) == 0 {
		return fmt.Errorf("trading.symbols is required")
	}
	if c.Trading.Timeframe != "" {
		if _, err := market.TimeframeDuration(c.Trading.Timeframe); err != nil {
			return fmt.Errorf("trading.timeframe: %w", err)
		}
	}
	if c.Trading.RiskPerTradePercent < 0 || c.Trading.RiskPerTradePercent > 100 {
		return fmt.Errorf("trading.risk_per_trade_percent must be within [0, 100]")
	}
	if c.Strategy.ID == "" {
		return fmt.Errorf("strategy.id is required")
	}
	if _, err := c.CheckInterval(); err != nil {
		return fmt.Errorf("trading.check_interval: %w", err)
	}

	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for csv type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for sqlite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite'")
	}
	return nil
}

// CheckInterval parses the paper-trading check interval, defaulting to 5s.
func (c *Config) CheckInterval() (time.Duration, error) {
	if c.Trading.CheckInterval == "" {
		return 5 * time.Second, nil
	}
	return time.ParseDuration(c.Trading.CheckInterval)
}

// EngineParams converts the configuration into engine parameters.
func (c *Config) EngineParams() sim.Params {
	return sim.Params{
		AccountID:           c.Account.ID,
		Currency:            c.Account.Currency,
		Exchange:            c.Account.Exchange,
		InitialBalance:      c.Account.InitialBalance,
		MaxOpenPositions:    c.Trading.MaxOpenPositions,
		MaxLeverage:         c.Trading.MaxLeverage,
		FeePercent:          c.Trading.FeePercent,
		SlippagePercent:     c.Trading.SlippagePercent,
		MaxDrawdownPercent:  c.Trading.MaxDrawdownPercent,
		RiskPerTradePercent: c.Trading.RiskPerTradePercent,
		Tactics:             c.Tactics,
	}
}
