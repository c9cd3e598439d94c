package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quantlab/papertrade/journal"
	"github.com/quantlab/papertrade/stats"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Compute metrics from a recorded run",
	Long: `Report reads the equity curve and trades for an account from the
SQLite journal and prints the performance metrics.

Example:
  papertrade report --db papertrade.db --account SIM-001`,
	RunE: runReport,
}

var (
	reportDBPath    string
	reportAccountID string
	reportRiskFree  float64
)

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVarP(&reportDBPath, "db", "d", "./papertrade.db", "path to SQLite journal DB")
	reportCmd.Flags().StringVarP(&reportAccountID, "account", "a", "SIM-001", "account ID")
	reportCmd.Flags().Float64Var(&reportRiskFree, "risk-free", 0.02, "annualized risk-free rate")
}

func runReport(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(reportDBPath)
	if err != nil {
		return err
	}
	defer j.Close()

	curve, err := j.EquityCurve(reportAccountID)
	if err != nil {
		return err
	}
	if len(curve) == 0 {
		return fmt.Errorf("no equity records for account %s", reportAccountID)
	}
	trades, err := j.Trades(reportAccountID)
	if err != nil {
		return err
	}

	equity := make([]float64, len(curve))
	for i, e := range curve {
		equity[i] = e.TotalAssets
	}
	var pnl []float64
	for _, t := range trades {
		if t.Side == "SELL" {
			pnl = append(pnl, t.RealizedPnL)
		}
	}

	m := stats.Analyze(equity, pnl, nil, stats.Options{RiskFreeRate: reportRiskFree})

	w := os.Stdout
	fmt.Fprintf(w, "Account              %s\n\n", reportAccountID)
	fmt.Fprint(w, m.Report(len(curve)))
	return nil
}
