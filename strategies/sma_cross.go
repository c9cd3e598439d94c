package strategies

import (
	"math"

	"github.com/quantlab/papertrade/ledger"
	"github.com/quantlab/papertrade/market"
	"github.com/quantlab/papertrade/sim"
)

// SMACross trades a fast/slow moving-average crossover per symbol:
//   - golden cross (fast rises above slow) buys when flat
//   - death cross (fast falls below slow) closes the position
//
// Position size targets PositionRatio of total assets, rounded down to
// whole lots of LotSize shares.
type SMACross struct {
	FastPeriod    int     // 5
	SlowPeriod    int     // 20
	PositionRatio float64 // 0.2
	LotSize       int64   // 100

	closes map[string][]float64
	prev   map[string]float64 // previous fast-slow diff per symbol
}

func NewSMACross(fast, slow int, positionRatio float64) *SMACross {
	if fast <= 0 {
		fast = 5
	}
	if slow <= fast {
		slow = fast * 4
	}
	if positionRatio <= 0 || positionRatio > 1 {
		positionRatio = 0.2
	}
	return &SMACross{
		FastPeriod:    fast,
		SlowPeriod:    slow,
		PositionRatio: positionRatio,
		LotSize:       100,
		closes:        make(map[string][]float64),
		prev:          make(map[string]float64),
	}
}

func (s *SMACross) Name() string { return "sma_cross" }

func (s *SMACross) OnBar(bar market.Bar, snap ledger.Snapshot) []sim.OrderRequest {
	hist := append(s.closes[bar.Symbol], bar.Close)
	if len(hist) > s.SlowPeriod {
		hist = hist[len(hist)-s.SlowPeriod:]
	}
	s.closes[bar.Symbol] = hist
	if len(hist) < s.SlowPeriod {
		return nil
	}

	diff := sma(hist, s.FastPeriod) - sma(hist, s.SlowPeriod)
	prev, seen := s.prev[bar.Symbol]
	s.prev[bar.Symbol] = diff
	if !seen {
		return nil
	}

	pos, held := snap.Position(bar.Symbol)

	// Golden cross: enter when flat.
	if prev <= 0 && diff > 0 && !held {
		vol := s.sizeFor(snap.TotalAssets, bar.Close)
		if vol <= 0 {
			return nil
		}
		return []sim.OrderRequest{{
			Symbol: bar.Symbol,
			Side:   market.Buy,
			Type:   sim.Market,
			Volume: vol,
			Reason: "sma golden cross",
		}}
	}

	// Death cross: flatten.
	if prev >= 0 && diff < 0 && held && pos.AvailableVolume > 0 {
		return []sim.OrderRequest{{
			Symbol: bar.Symbol,
			Side:   market.Sell,
			Type:   sim.Market,
			Volume: pos.AvailableVolume,
			Reason: "sma death cross",
		}}
	}

	return nil
}

func (s *SMACross) sizeFor(totalAssets, price float64) int64 {
	if price <= 0 || totalAssets <= 0 {
		return 0
	}
	shares := int64(math.Floor(totalAssets * s.PositionRatio / price))
	lot := s.LotSize
	if lot <= 0 {
		lot = 1
	}
	return shares / lot * lot
}

func sma(xs []float64, n int) float64 {
	if n <= 0 || n > len(xs) {
		return 0
	}
	var sum float64
	for _, x := range xs[len(xs)-n:] {
		sum += x
	}
	return sum / float64(n)
}
