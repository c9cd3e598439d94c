package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quantlab/papertrade/backtest"
	"github.com/quantlab/papertrade/feed"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay historical bars through the simulator",
	Long: `Backtest replays daily bar CSVs through the simulated exchange and
prints a performance report.

Each symbol reads from <data-dir>/<symbol>.csv with a header row of
date,open,high,low,close,volume. Multiple symbols are interleaved in
time order.

Example:
  papertrade backtest -c sim.yaml --data ./data --symbol 600519 --symbol 000001`,
	RunE: runBacktest,
}

var (
	btDataDir string
	btSymbols []string
	btCapital float64
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btDataDir, "data", "d", "", "bar CSV directory (overrides config)")
	backtestCmd.Flags().StringArrayVarP(&btSymbols, "symbol", "s", nil, "symbol to replay (repeatable, overrides config)")
	backtestCmd.Flags().Float64VarP(&btCapital, "capital", "b", 0, "initial capital (overrides config)")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if btDataDir != "" {
		cfg.Data.CSVDir = btDataDir
	}
	if len(btSymbols) > 0 {
		cfg.Data.Symbols = btSymbols
	}
	if btCapital > 0 {
		cfg.Account.InitialCapital = btCapital
	}
	if len(cfg.Data.Symbols) == 0 {
		return fmt.Errorf("no symbols configured")
	}

	log, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	cal, err := buildCalendar(cfg)
	if err != nil {
		return err
	}
	jrnl, err := buildJournal(cfg, log)
	if err != nil {
		return err
	}
	defer jrnl.Close()

	strat, err := buildStrategy(cfg)
	if err != nil {
		return err
	}

	feeds := make([]feed.BarFeed, 0, len(cfg.Data.Symbols))
	for _, sym := range cfg.Data.Symbols {
		f, err := feed.OpenCSV(sym, filepath.Join(cfg.Data.CSVDir, sym+".csv"))
		if err != nil {
			return fmt.Errorf("open data for %s: %w", sym, err)
		}
		feeds = append(feeds, f)
	}
	src := feed.Merge(feeds...)
	defer src.Close()

	runner := backtest.New(backtest.Config{
		AccountID:      cfg.Account.ID,
		InitialCapital: cfg.Account.InitialCapital,
		Costs:          cfg.Costs.Model(),
		Limits:         cfg.Risk.Limits(),
		RiskFreeRate:   cfg.Strategy.RiskFreeRate,
		T1Settlement:   cfg.Account.T1Settlement,
	}, strat, cal, jrnl, log)

	log.Info("backtest starting",
		zap.Strings("symbols", cfg.Data.Symbols),
		zap.String("strategy", strat.Name()),
		zap.Float64("capital", cfg.Account.InitialCapital))

	res, err := runner.Run(cmd.Context(), src)
	if err != nil {
		return err
	}

	fmt.Println()
	res.Print(os.Stdout)
	return nil
}
