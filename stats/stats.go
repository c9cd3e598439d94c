// Package stats computes performance and risk metrics from an equity curve
// and per-trade P&L. Every metric degrades to 0 on inputs too short to
// support it, never NaN or Inf.
package stats

import (
	"math"
	"sort"
)

// TradingDaysPerYear is the annualization base for daily series.
const TradingDaysPerYear = 252

// Options tune the analysis. The zero value is usable.
type Options struct {
	RiskFreeRate float64 // annualized, e.g. 0.02
}

// Metrics is the full report for one run.
type Metrics struct {
	TotalReturn      float64 `json:"total_return"`
	AnnualizedReturn float64 `json:"annualized_return"`
	Volatility       float64 `json:"volatility"`
	Sharpe           float64 `json:"sharpe"`
	Sortino          float64 `json:"sortino"`
	Calmar           float64 `json:"calmar"`

	MaxDrawdown         float64 `json:"max_drawdown"`
	MaxDrawdownDuration int     `json:"max_drawdown_duration"`
	VaR95               float64 `json:"var_95"`
	CVaR95              float64 `json:"cvar_95"`

	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`

	TradeCount      int     `json:"trade_count"`
	WinningTrades   int     `json:"winning_trades"`
	LosingTrades    int     `json:"losing_trades"`
	WinRate         float64 `json:"win_rate"`
	ProfitFactor    float64 `json:"profit_factor"`
	ProfitLossRatio float64 `json:"profit_loss_ratio"`
	GrossProfit     float64 `json:"gross_profit"`
	GrossLoss       float64 `json:"gross_loss"`
	AvgWin          float64 `json:"avg_win"`
	AvgLoss         float64 `json:"avg_loss"`
}

// Analyze computes all metrics. equity is the daily equity curve, tradePnL
// the realized net P&L per closed trade, benchmark an optional daily equity
// or index series aligned with equity (nil skips alpha/beta).
func Analyze(equity, tradePnL, benchmark []float64, opts Options) Metrics {
	var m Metrics

	rets := Returns(equity)

	if len(equity) >= 2 && equity[0] > 0 {
		m.TotalReturn = equity[len(equity)-1]/equity[0] - 1
		years := float64(len(equity)-1) / TradingDaysPerYear
		if years > 0 && 1+m.TotalReturn > 0 {
			m.AnnualizedReturn = math.Pow(1+m.TotalReturn, 1/years) - 1
		}
	}

	m.Volatility = std(rets) * math.Sqrt(TradingDaysPerYear)
	m.Sharpe = sharpe(rets, opts.RiskFreeRate)
	m.Sortino = sortino(rets)
	m.MaxDrawdown, m.MaxDrawdownDuration = MaxDrawdown(equity)
	if m.MaxDrawdown > 0 {
		m.Calmar = m.AnnualizedReturn / m.MaxDrawdown
	}
	m.VaR95 = VaR(rets, 0.95)
	m.CVaR95 = CVaR(rets, 0.95)

	if len(benchmark) == len(equity) && len(equity) >= 3 {
		m.Alpha, m.Beta = alphaBeta(rets, Returns(benchmark), opts.RiskFreeRate)
	}

	tradeStats(tradePnL, &m)
	return m
}

// Returns converts an equity curve to simple period returns. Points with a
// non-positive base are skipped.
func Returns(equity []float64) []float64 {
	if len(equity) < 2 {
		return nil
	}
	out := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		if equity[i-1] > 0 {
			out = append(out, equity[i]/equity[i-1]-1)
		}
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// std is the sample standard deviation.
func std(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mu := mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - mu
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

func sharpe(rets []float64, riskFree float64) float64 {
	sd := std(rets)
	if sd == 0 {
		return 0
	}
	excess := mean(rets) - riskFree/TradingDaysPerYear
	return excess / sd * math.Sqrt(TradingDaysPerYear)
}

// sortino divides the mean return by the standard deviation of the negative
// returns alone (population std over the negative subset), annualized.
func sortino(rets []float64) float64 {
	if len(rets) < 2 {
		return 0
	}
	var down []float64
	for _, r := range rets {
		if r < 0 {
			down = append(down, r)
		}
	}
	if len(down) == 0 {
		return 0
	}
	mu := mean(down)
	var ss float64
	for _, d := range down {
		dv := d - mu
		ss += dv * dv
	}
	sd := math.Sqrt(ss / float64(len(down)))
	if sd == 0 {
		return 0
	}
	return mean(rets) / sd * math.Sqrt(TradingDaysPerYear)
}

// MaxDrawdown returns the deepest peak-to-trough fall as a positive
// fraction, and the longest run of consecutive periods spent below the
// running peak.
func MaxDrawdown(equity []float64) (float64, int) {
	if len(equity) < 2 {
		return 0, 0
	}
	var maxDD float64
	var maxRun, run int
	peak := equity[0]
	for _, v := range equity {
		if v >= peak {
			peak = v
			run = 0
			continue
		}
		run++
		if run > maxRun {
			maxRun = run
		}
		if peak > 0 {
			if dd := (peak - v) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD, maxRun
}

// percentile interpolates linearly between order statistics, p in [0,1].
func percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := make([]float64, len(xs))
	copy(s, xs)
	sort.Float64s(s)
	if p <= 0 {
		return s[0]
	}
	if p >= 1 {
		return s[len(s)-1]
	}
	pos := p * float64(len(s)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return s[lo]
	}
	frac := pos - float64(lo)
	return s[lo]*(1-frac) + s[hi]*frac
}

// VaR is the one-period value at risk at the given confidence, reported as
// a positive loss fraction (0 when the tail return is a gain).
func VaR(rets []float64, confidence float64) float64 {
	if len(rets) == 0 {
		return 0
	}
	q := percentile(rets, 1-confidence)
	if q >= 0 {
		return 0
	}
	return -q
}

// CVaR averages the returns at or below the VaR quantile. The cutoff is
// clamped at 0 so a profitable tail never mixes gains into the shortfall.
func CVaR(rets []float64, confidence float64) float64 {
	if len(rets) == 0 {
		return 0
	}
	q := percentile(rets, 1-confidence)
	if q > 0 {
		q = 0
	}
	var sum float64
	var n int
	for _, r := range rets {
		if r <= q {
			sum += r
			n++
		}
	}
	if n == 0 || sum >= 0 {
		return 0
	}
	return -sum / float64(n)
}

// alphaBeta regresses strategy returns on benchmark returns. Alpha is
// annualized.
func alphaBeta(rets, bench []float64, riskFree float64) (alpha, beta float64) {
	n := len(rets)
	if len(bench) < n {
		n = len(bench)
	}
	if n < 2 {
		return 0, 0
	}
	rets, bench = rets[:n], bench[:n]

	mb := mean(bench)
	mr := mean(rets)
	var cov, varB float64
	for i := 0; i < n; i++ {
		db := bench[i] - mb
		cov += (rets[i] - mr) * db
		varB += db * db
	}
	if varB == 0 {
		return 0, 0
	}
	beta = cov / varB
	rf := riskFree / TradingDaysPerYear
	alpha = (mr - rf - beta*(mb-rf)) * TradingDaysPerYear
	return alpha, beta
}

func tradeStats(pnl []float64, m *Metrics) {
	m.TradeCount = len(pnl)
	if len(pnl) == 0 {
		return
	}
	for _, p := range pnl {
		if p > 0 {
			m.WinningTrades++
			m.GrossProfit += p
		} else if p < 0 {
			m.LosingTrades++
			m.GrossLoss += -p
		}
	}
	m.WinRate = float64(m.WinningTrades) / float64(len(pnl))
	if m.GrossLoss > 0 {
		m.ProfitFactor = m.GrossProfit / m.GrossLoss
	}
	if m.WinningTrades > 0 {
		m.AvgWin = m.GrossProfit / float64(m.WinningTrades)
	}
	if m.LosingTrades > 0 {
		m.AvgLoss = m.GrossLoss / float64(m.LosingTrades)
	}
	if m.AvgLoss > 0 {
		m.ProfitLossRatio = m.AvgWin / m.AvgLoss
	}
}
