package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quantlab/papertrade/calendar"
	"github.com/quantlab/papertrade/config"
	"github.com/quantlab/papertrade/internal/logx"
	"github.com/quantlab/papertrade/journal"
	"github.com/quantlab/papertrade/strategies"
)

var rootCmd = &cobra.Command{
	Use:   "papertrade",
	Short: "A paper-trading simulator for equity strategies",
	Long: `Papertrade replays historical bars or live quotes through a simulated
exchange with realistic transaction costs, risk constraints, and a full
trade journal.

It provides tools for:
  - Backtesting strategies against daily bar data
  - Running live paper-trading sessions against a quote feed
  - Computing performance and risk metrics from recorded runs
  - Managing simulation configuration files`,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

var cfgPath string

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (YAML or JSON)")
}

// loadConfig returns the file config when --config is set, defaults
// otherwise.
func loadConfig() (*config.Config, error) {
	if cfgPath == "" {
		return config.Default(), nil
	}
	return config.LoadFromFile(cfgPath)
}

func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	return logx.New(cfg.Log.Level, cfg.Log.Format)
}

func buildCalendar(cfg *config.Config) (*calendar.Calendar, error) {
	loc, err := cfg.Data.Location()
	if err != nil {
		return nil, err
	}
	return calendar.New(loc, cfg.Data.Holidays), nil
}

// buildJournal constructs the configured journal, wrapping it in the async
// decorator when requested.
func buildJournal(cfg *config.Config, log *zap.Logger) (journal.Journal, error) {
	var j journal.Journal
	var err error
	switch cfg.Journal.Type {
	case "sqlite":
		j, err = journal.NewSQLite(cfg.Journal.DBPath)
	case "csv":
		j, err = journal.NewCSV(cfg.Journal.TradesFile, cfg.Journal.EquityFile)
	case "none", "":
		j = journal.Nop{}
	default:
		err = fmt.Errorf("unknown journal type: %s", cfg.Journal.Type)
	}
	if err != nil {
		return nil, err
	}
	if cfg.Journal.Async {
		j = journal.NewAsync(j, 1024, log)
	}
	return j, nil
}

func buildStrategy(cfg *config.Config) (strategies.Strategy, error) {
	switch cfg.Strategy.Name {
	case "", "noop":
		return strategies.Noop{}, nil
	case "sma_cross":
		return strategies.NewSMACross(
			cfg.Strategy.FastPeriod,
			cfg.Strategy.SlowPeriod,
			cfg.Strategy.PositionRatio,
		), nil
	case "ema_cross":
		return strategies.NewEMACross(
			cfg.Strategy.FastPeriod,
			cfg.Strategy.SlowPeriod,
			cfg.Strategy.PositionRatio,
		), nil
	default:
		return nil, fmt.Errorf("unknown strategy: %s", cfg.Strategy.Name)
	}
}

func snapshotInterval(cfg *config.Config) time.Duration {
	d, err := cfg.Data.SnapshotInterval()
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}
