package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaxDrawdown(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		equity  []float64
		wantDD  float64
		wantLen int
	}{
		{"classic", []float64{100, 110, 90, 95, 120}, 20.0 / 110.0, 2},
		{"monotonic up", []float64{100, 110, 120}, 0, 0},
		{"monotonic down", []float64{100, 90, 80}, 0.20, 2},
		{"long shallow run", []float64{100, 90, 95, 99, 101}, 0.10, 3},
		{"empty", nil, 0, 0},
		{"single", []float64{100}, 0, 0},
		{"flat", []float64{100, 100, 100}, 0, 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dd, length := MaxDrawdown(tt.equity)
			assert.InDelta(t, tt.wantDD, dd, 1e-9)
			assert.Equal(t, tt.wantLen, length)
		})
	}
}

func TestSortinoUsesDownsideStd(t *testing.T) {
	t.Parallel()

	// Negative subset {-0.02, -0.04}: population std 0.01 around its own
	// mean. Overall mean is -0.005, so the ratio is -0.5 annualized.
	rets := []float64{-0.02, -0.04, 0.01, 0.03}
	assert.InDelta(t, -0.5*math.Sqrt(252), sortino(rets), 1e-9)

	// No negative returns means no downside deviation to divide by.
	assert.Equal(t, 0.0, sortino([]float64{0.01, 0.02, 0.03}))

	// A single negative return has zero deviation around itself.
	assert.Equal(t, 0.0, sortino([]float64{-0.02, 0.01, 0.03}))
}

func TestSharpeZeroStd(t *testing.T) {
	t.Parallel()

	// Constant equity means zero-variance returns; Sharpe must be 0, not NaN.
	m := Analyze([]float64{100, 100, 100, 100}, nil, nil, Options{})
	assert.Equal(t, 0.0, m.Sharpe)
	assert.Equal(t, 0.0, m.Volatility)
	assert.False(t, math.IsNaN(m.Sortino))
}

func TestTotalAndAnnualizedReturn(t *testing.T) {
	t.Parallel()

	// 252 daily points = 251 periods, just under one year.
	equity := make([]float64, 253)
	for i := range equity {
		equity[i] = 100000 * math.Pow(1.0005, float64(i))
	}
	m := Analyze(equity, nil, nil, Options{})

	want := equity[len(equity)-1]/equity[0] - 1
	assert.InDelta(t, want, m.TotalReturn, 1e-9)
	assert.Greater(t, m.AnnualizedReturn, 0.0)
}

func TestReturns(t *testing.T) {
	t.Parallel()

	rets := Returns([]float64{100, 110, 99})
	require.Len(t, rets, 2)
	assert.InDelta(t, 0.10, rets[0], 1e-9)
	assert.InDelta(t, -0.10, rets[1], 1e-9)

	assert.Nil(t, Returns([]float64{100}))
	assert.Nil(t, Returns(nil))
}

func TestVaRAndCVaR(t *testing.T) {
	t.Parallel()

	// 100 returns: a -1%..-6% loss tail among small gains.
	rets := make([]float64, 100)
	for i := range rets {
		rets[i] = 0.001
	}
	for i := 0; i < 6; i++ {
		rets[i] = -0.01 * float64(6-i)
	}

	v := VaR(rets, 0.95)
	assert.Greater(t, v, 0.0)
	cv := CVaR(rets, 0.95)
	assert.GreaterOrEqual(t, cv, v, "expected shortfall is at least VaR")

	assert.Equal(t, 0.0, VaR(nil, 0.95))
	assert.Equal(t, 0.0, CVaR(nil, 0.95))

	// All-gain series has no loss tail.
	gains := []float64{0.01, 0.02, 0.03}
	assert.Equal(t, 0.0, VaR(gains, 0.95))
}

func TestCVaRClampsPositiveCutoff(t *testing.T) {
	t.Parallel()

	// One crash among 99 gains puts the 5th percentile above zero; the
	// shortfall must average only the losses, not the small gains near the
	// cutoff.
	rets := make([]float64, 100)
	rets[0] = -0.5
	for i := 1; i < len(rets); i++ {
		rets[i] = 0.001 * float64(i)
	}
	assert.InDelta(t, 0.5, CVaR(rets, 0.95), 1e-9)
}

func TestAlphaBeta(t *testing.T) {
	t.Parallel()

	// Strategy moves exactly 2x the benchmark: beta 2, alpha ~0.
	bench := []float64{100, 101, 100.5, 102, 101, 103}
	equity := make([]float64, len(bench))
	equity[0] = 100
	for i := 1; i < len(bench); i++ {
		r := bench[i]/bench[i-1] - 1
		equity[i] = equity[i-1] * (1 + 2*r)
	}

	m := Analyze(equity, nil, bench, Options{})
	assert.InDelta(t, 2.0, m.Beta, 0.01)
	assert.InDelta(t, 0.0, m.Alpha, 0.05)
}

func TestAlphaBetaSkippedWithoutBenchmark(t *testing.T) {
	t.Parallel()

	m := Analyze([]float64{100, 101, 102}, nil, nil, Options{})
	assert.Equal(t, 0.0, m.Alpha)
	assert.Equal(t, 0.0, m.Beta)
}

func TestTradeStats(t *testing.T) {
	t.Parallel()

	pnl := []float64{100, -50, 200, -50, 0}
	m := Analyze(nil, pnl, nil, Options{})

	assert.Equal(t, 5, m.TradeCount)
	assert.Equal(t, 2, m.WinningTrades)
	assert.Equal(t, 2, m.LosingTrades)
	assert.InDelta(t, 0.4, m.WinRate, 1e-9)
	assert.InDelta(t, 3.0, m.ProfitFactor, 1e-9)
	assert.InDelta(t, 300.0, m.GrossProfit, 1e-9)
	assert.InDelta(t, 100.0, m.GrossLoss, 1e-9)
	assert.InDelta(t, 150.0, m.AvgWin, 1e-9)
	assert.InDelta(t, 50.0, m.AvgLoss, 1e-9)
	assert.InDelta(t, 3.0, m.ProfitLossRatio, 1e-9)
}

func TestProfitLossRatioDiffersFromProfitFactor(t *testing.T) {
	t.Parallel()

	// One win of 10 against two losses of 5: the average win over the
	// average loss is 2, while gross profit over gross loss is 1.
	m := Analyze(nil, []float64{10, -5, -5}, nil, Options{})
	assert.InDelta(t, 2.0, m.ProfitLossRatio, 1e-9)
	assert.InDelta(t, 1.0, m.ProfitFactor, 1e-9)

	// All-winning runs have no loss base; the ratio is reported as 0.
	wins := Analyze(nil, []float64{10, 20}, nil, Options{})
	assert.Equal(t, 0.0, wins.ProfitLossRatio)
}

func TestCalmar(t *testing.T) {
	t.Parallel()

	// A series with both growth and a drawdown must yield a positive ratio.
	m := Analyze([]float64{100, 110, 90, 95, 120}, nil, nil, Options{})
	require.Greater(t, m.MaxDrawdown, 0.0)
	assert.InDelta(t, m.AnnualizedReturn/m.MaxDrawdown, m.Calmar, 1e-9)

	// No drawdown means the ratio is undefined and reported as 0.
	flat := Analyze([]float64{100, 101, 102}, nil, nil, Options{})
	assert.Equal(t, 0.0, flat.Calmar)
}

func TestAnalyzeEmptyInputs(t *testing.T) {
	t.Parallel()

	m := Analyze(nil, nil, nil, Options{RiskFreeRate: 0.02})
	assert.Equal(t, Metrics{}, m)
}

func TestPercentileLinearInterpolation(t *testing.T) {
	t.Parallel()

	xs := []float64{1, 2, 3, 4}
	assert.InDelta(t, 1.0, percentile(xs, 0), 1e-9)
	assert.InDelta(t, 4.0, percentile(xs, 1), 1e-9)
	assert.InDelta(t, 2.5, percentile(xs, 0.5), 1e-9)
	assert.InDelta(t, 1.15, percentile(xs, 0.05), 1e-9)
}
