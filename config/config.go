// Package config loads and validates the simulation configuration from
// YAML or JSON files, with environment overrides from a .env file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/quantlab/papertrade/risk"
	"github.com/quantlab/papertrade/sim"
)

// Config represents the complete simulation configuration.
type Config struct {
	Account  AccountConfig  `json:"account" yaml:"account"`
	Costs    CostsConfig    `json:"costs" yaml:"costs"`
	Risk     RiskConfig     `json:"risk" yaml:"risk"`
	Data     DataConfig     `json:"data" yaml:"data"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
	Log      LogConfig      `json:"log" yaml:"log"`
}

// AccountConfig contains account initialization parameters.
type AccountConfig struct {
	ID             string  `json:"id" yaml:"id"`
	InitialCapital float64 `json:"initial_capital" yaml:"initial_capital"`
	T1Settlement   bool    `json:"t1_settlement" yaml:"t1_settlement"`
}

// CostsConfig contains the transaction cost model.
type CostsConfig struct {
	SlippageRate   float64 `json:"slippage_rate" yaml:"slippage_rate"`
	CommissionRate float64 `json:"commission_rate" yaml:"commission_rate"`
	MinCommission  float64 `json:"min_commission" yaml:"min_commission"`
	StampTaxRate   float64 `json:"stamp_tax_rate" yaml:"stamp_tax_rate"`
}

// Model converts the section to the simulator's cost model.
func (c CostsConfig) Model() sim.CostModel {
	return sim.CostModel{
		SlippageRate:   c.SlippageRate,
		CommissionRate: c.CommissionRate,
		MinCommission:  c.MinCommission,
		StampTaxRate:   c.StampTaxRate,
	}
}

// RiskConfig contains the risk constraint parameters.
type RiskConfig struct {
	MaxPositionRatio      float64 `json:"max_position_ratio" yaml:"max_position_ratio"`
	MaxTotalPositionRatio float64 `json:"max_total_position_ratio" yaml:"max_total_position_ratio"`
	MaxSingleOrderValue   float64 `json:"max_single_order_value" yaml:"max_single_order_value"`
	MaxDailyTrades        int     `json:"max_daily_trades" yaml:"max_daily_trades"`
	StopLossRatio         float64 `json:"stop_loss_ratio" yaml:"stop_loss_ratio"`
	TakeProfitRatio       float64 `json:"take_profit_ratio" yaml:"take_profit_ratio"`
	MaxDailyLossRatio     float64 `json:"max_daily_loss_ratio" yaml:"max_daily_loss_ratio"`
}

// Limits converts the section to the risk manager's constraints.
func (r RiskConfig) Limits() risk.Limits {
	return risk.Limits{
		MaxPositionRatio:      r.MaxPositionRatio,
		MaxTotalPositionRatio: r.MaxTotalPositionRatio,
		MaxSingleOrderValue:   r.MaxSingleOrderValue,
		MaxDailyTrades:        r.MaxDailyTrades,
		StopLossRatio:         r.StopLossRatio,
		TakeProfitRatio:       r.TakeProfitRatio,
		MaxDailyLossRatio:     r.MaxDailyLossRatio,
	}
}

// DataConfig names the market data sources in failover order.
type DataConfig struct {
	// CSVDir holds one <symbol>.csv per instrument with daily bars.
	CSVDir string `json:"csv_dir" yaml:"csv_dir"`
	// WSURL is the websocket quote server for paper sessions.
	WSURL    string   `json:"ws_url" yaml:"ws_url"`
	Symbols  []string `json:"symbols" yaml:"symbols"`
	Timezone string   `json:"timezone" yaml:"timezone"`
	// Holidays are non-trading dates, YYYY-MM-DD.
	Holidays []string `json:"holidays,omitempty" yaml:"holidays,omitempty"`
	// SnapshotEvery is the paper-session equity snapshot cadence, e.g. "1m".
	SnapshotEvery string `json:"snapshot_every,omitempty" yaml:"snapshot_every,omitempty"`
}

// SnapshotInterval parses the snapshot cadence.
func (d DataConfig) SnapshotInterval() (time.Duration, error) {
	if d.SnapshotEvery == "" {
		return 0, nil
	}
	return time.ParseDuration(d.SnapshotEvery)
}

// Location resolves the configured timezone, defaulting to UTC.
func (d DataConfig) Location() (*time.Location, error) {
	if d.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(d.Timezone)
}

// StrategyConfig contains strategy selection and parameters.
type StrategyConfig struct {
	Name          string  `json:"name" yaml:"name"` // noop, sma_cross, or ema_cross
	FastPeriod    int     `json:"fast_period" yaml:"fast_period"`
	SlowPeriod    int     `json:"slow_period" yaml:"slow_period"`
	PositionRatio float64 `json:"position_ratio" yaml:"position_ratio"`
	RiskFreeRate  float64 `json:"risk_free_rate" yaml:"risk_free_rate"`
}

// JournalConfig contains journaling parameters.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "sqlite", "csv", or "none"
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	// Async buffers journal writes off the trading path.
	Async bool `json:"async,omitempty" yaml:"async,omitempty"`
}

// LogConfig contains logger parameters.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // json or console
}

// LoadFromFile loads configuration from a file (JSON or YAML based on
// content), applies environment overrides, and validates.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	if yerr := yaml.Unmarshal(data, cfg); yerr != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", yerr)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyEnv overlays PAPERTRADE_* variables, loading a local .env first
// when present.
func (c *Config) applyEnv() {
	_ = godotenv.Load()

	if v := os.Getenv("PAPERTRADE_DB_PATH"); v != "" {
		c.Journal.DBPath = v
	}
	if v := os.Getenv("PAPERTRADE_WS_URL"); v != "" {
		c.Data.WSURL = v
	}
	if v := os.Getenv("PAPERTRADE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("PAPERTRADE_INITIAL_CAPITAL"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			c.Account.InitialCapital = f
		}
	}
}

// SaveToFile saves configuration to a file (JSON or YAML based on
// extension).
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
	if c.Account.ID == "" {
		return fmt.Errorf("account.id is required")
	}
	if c.Account.InitialCapital <= 0 {
		return fmt.Errorf("account.initial_capital must be positive")
	}
	if c.Costs.SlippageRate < 0 || c.Costs.CommissionRate < 0 ||
		c.Costs.MinCommission < 0 || c.Costs.StampTaxRate < 0 {
		return fmt.Errorf("costs rates must be non-negative")
	}
	if r := c.Risk.MaxPositionRatio; r < 0 || r > 1 {
		return fmt.Errorf("risk.max_position_ratio must be between 0 and 1")
	}
	if r := c.Risk.MaxTotalPositionRatio; r < 0 || r > 1 {
		return fmt.Errorf("risk.max_total_position_ratio must be between 0 and 1")
	}
	switch c.Strategy.Name {
	case "", "noop", "sma_cross", "ema_cross":
	default:
		return fmt.Errorf("unknown strategy: %s", c.Strategy.Name)
	}
	switch c.Journal.Type {
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal.db_path required for sqlite type")
		}
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for csv type")
		}
	case "none":
	default:
		return fmt.Errorf("journal.type must be 'sqlite', 'csv', or 'none'")
	}
	if _, err := c.Data.Location(); err != nil {
		return fmt.Errorf("data.timezone: %w", err)
	}
	if _, err := c.Data.SnapshotInterval(); err != nil {
		return fmt.Errorf("data.snapshot_every: %w", err)
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn, or error")
	}
	return nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	costs := sim.DefaultCosts()
	limits := risk.DefaultLimits()
	return &Config{
		Account: AccountConfig{
			ID:             "SIM-001",
			InitialCapital: 1000000,
			T1Settlement:   true,
		},
		Costs: CostsConfig{
			SlippageRate:   costs.SlippageRate,
			CommissionRate: costs.CommissionRate,
			MinCommission:  costs.MinCommission,
			StampTaxRate:   costs.StampTaxRate,
		},
		Risk: RiskConfig{
			MaxPositionRatio:      limits.MaxPositionRatio,
			MaxTotalPositionRatio: limits.MaxTotalPositionRatio,
			StopLossRatio:         limits.StopLossRatio,
			MaxDailyLossRatio:     limits.MaxDailyLossRatio,
		},
		Data: DataConfig{
			CSVDir:        "./data",
			Symbols:       []string{"600519"},
			Timezone:      "Asia/Shanghai",
			SnapshotEvery: "1m",
		},
		Strategy: StrategyConfig{
			Name:          "sma_cross",
			FastPeriod:    5,
			SlowPeriod:    20,
			PositionRatio: 0.2,
			RiskFreeRate:  0.02,
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./papertrade.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
