package stats

import (
	"fmt"
	"strings"
)

// Report renders the metrics as a sectioned text report. tradingDays is the
// number of trading days covered by the run (0 hides the time section).
func (m Metrics) Report(tradingDays int) string {
	var b strings.Builder
	rule := strings.Repeat("=", 60)

	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "Performance Analysis Report")
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "Return Metrics:")
	fmt.Fprintf(&b, "  Total Return:        %11.2f%%\n", 100*m.TotalReturn)
	fmt.Fprintf(&b, "  Annualized Return:   %11.2f%%\n", 100*m.AnnualizedReturn)
	fmt.Fprintf(&b, "  Volatility:          %11.2f%%\n", 100*m.Volatility)
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "Risk Metrics:")
	fmt.Fprintf(&b, "  Max Drawdown:        %11.2f%% (%d days)\n", 100*m.MaxDrawdown, m.MaxDrawdownDuration)
	fmt.Fprintf(&b, "  Sharpe Ratio:        %12.4f\n", m.Sharpe)
	fmt.Fprintf(&b, "  Sortino Ratio:       %12.4f\n", m.Sortino)
	fmt.Fprintf(&b, "  Calmar Ratio:        %12.4f\n", m.Calmar)
	fmt.Fprintf(&b, "  VaR 95%%:             %11.2f%%\n", 100*m.VaR95)
	fmt.Fprintf(&b, "  CVaR 95%%:            %11.2f%%\n", 100*m.CVaR95)
	if m.Alpha != 0 || m.Beta != 0 {
		fmt.Fprintf(&b, "  Alpha:               %12.4f\n", m.Alpha)
		fmt.Fprintf(&b, "  Beta:                %12.4f\n", m.Beta)
	}
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "Trade Statistics:")
	fmt.Fprintf(&b, "  Total Trades:        %12d\n", m.TradeCount)
	fmt.Fprintf(&b, "  Winning Trades:      %12d\n", m.WinningTrades)
	fmt.Fprintf(&b, "  Losing Trades:       %12d\n", m.LosingTrades)
	fmt.Fprintf(&b, "  Win Rate:            %11.2f%%\n", 100*m.WinRate)
	fmt.Fprintf(&b, "  Profit/Loss Ratio:   %12.2f\n", m.ProfitLossRatio)
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "Profit/Loss Statistics:")
	fmt.Fprintf(&b, "  Total Profit:        %12.2f\n", m.GrossProfit)
	fmt.Fprintf(&b, "  Total Loss:          %12.2f\n", m.GrossLoss)
	fmt.Fprintf(&b, "  Average Profit:      %12.2f\n", m.AvgWin)
	fmt.Fprintf(&b, "  Average Loss:        %12.2f\n", m.AvgLoss)
	fmt.Fprintf(&b, "  Profit Factor:       %12.2f\n", m.ProfitFactor)
	fmt.Fprintln(&b)

	if tradingDays > 0 {
		fmt.Fprintln(&b, "Time Statistics:")
		fmt.Fprintf(&b, "  Trading Days:        %12d\n", tradingDays)
		fmt.Fprintln(&b)
	}

	fmt.Fprintln(&b, rule)
	return b.String()
}
