package backtest

import (
	"fmt"
	"io"

	"github.com/quantlab/papertrade/ledger"
	"github.com/quantlab/papertrade/sim"
	"github.com/quantlab/papertrade/stats"
)

// Result is the outcome of one run.
type Result struct {
	Bars     int
	Days     int
	Rejected int

	// EquityCurve holds the initial capital followed by each day's closing
	// equity.
	EquityCurve []float64
	Trades      []sim.Trade
	Final       ledger.Snapshot
	Metrics     stats.Metrics
}

// Print writes the run summary followed by the sectioned metrics report.
func (r Result) Print(w io.Writer) {
	fmt.Fprintf(w, "Bars processed       %d\n", r.Bars)
	fmt.Fprintf(w, "Trades executed      %d (%d rejected)\n", len(r.Trades), r.Rejected)
	fmt.Fprintf(w, "Final equity         %.2f\n\n", r.Final.TotalAssets)
	io.WriteString(w, r.Metrics.Report(r.Days))
}
